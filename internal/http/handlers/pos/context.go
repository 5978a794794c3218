package pos

import (
	"strconv"

	"github.com/shouyin-pos/internal/repository"

	"github.com/gin-gonic/gin"
)

func intQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func repositoryDraftFilter(c *gin.Context, page, pageSize int) repository.DraftListFilter {
	return repository.DraftListFilter{
		Kind:       c.Query("kind"),
		Status:     c.Query("status"),
		RefLocalID: c.Query("ref_local_id"),
		Page:       page,
		PageSize:   pageSize,
	}
}
