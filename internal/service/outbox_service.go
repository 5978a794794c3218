package service

import (
	"strings"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"

	"gorm.io/gorm"
)

// OutboxStatus 同步队列状态汇总（操作员界面展示用）
type OutboxStatus struct {
	Queued   int64 `json:"queued"`
	Rejected int64 `json:"rejected"`
	Voided   int64 `json:"voided"`
}

// OutboxService 发件箱运维服务：状态查询、人工重排与作废。
// 被拒条目不会自动消失，必须由操作员显式处置。
type OutboxService struct {
	db         *gorm.DB
	outboxRepo repository.OutboxRepository
	draftRepo  repository.DraftRepository
}

// NewOutboxService 创建发件箱运维服务
func NewOutboxService(db *gorm.DB, outboxRepo repository.OutboxRepository, draftRepo repository.DraftRepository) *OutboxService {
	return &OutboxService{
		db:         db,
		outboxRepo: outboxRepo,
		draftRepo:  draftRepo,
	}
}

// Status 各状态条目数量
func (s *OutboxService) Status() (*OutboxStatus, error) {
	queued, err := s.outboxRepo.CountByStatus(constants.OutboxStatusQueued)
	if err != nil {
		return nil, err
	}
	rejected, err := s.outboxRepo.CountByStatus(constants.OutboxStatusRejected)
	if err != nil {
		return nil, err
	}
	voided, err := s.outboxRepo.CountByStatus(constants.OutboxStatusVoided)
	if err != nil {
		return nil, err
	}
	return &OutboxStatus{Queued: queued, Rejected: rejected, Voided: voided}, nil
}

// List 发件箱条目列表
func (s *OutboxService) List(filter repository.OutboxListFilter) ([]models.OutboxItem, int64, error) {
	return s.outboxRepo.List(filter)
}

// Requeue 把被拒条目重新排队（幂等键保持不变），
// 对应的本地单据状态同步回到 committed。
func (s *OutboxService) Requeue(localID string) error {
	item, err := s.mustGetRejected(localID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.outboxRepo.WithTx(tx).Requeue(item.LocalID); err != nil {
			return err
		}
		return s.restoreDraftStatus(tx, item, constants.DraftStatusCommitted)
	})
	if err != nil {
		return err
	}

	logger.Infow("outbox_item_requeued", "local_id", item.LocalID, "kind", item.Kind)
	return nil
}

// Void 作废一条被拒条目，对应的本地单据一并标记作废
func (s *OutboxService) Void(localID string) error {
	item, err := s.mustGetRejected(localID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.outboxRepo.WithTx(tx).MarkVoided(item.LocalID); err != nil {
			return err
		}
		return s.restoreDraftStatus(tx, item, constants.DraftStatusVoided)
	})
	if err != nil {
		return err
	}

	logger.Infow("outbox_item_voided", "local_id", item.LocalID, "kind", item.Kind)
	return nil
}

func (s *OutboxService) mustGetRejected(localID string) (*models.OutboxItem, error) {
	item, err := s.outboxRepo.GetByLocalID(strings.TrimSpace(localID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrOutboxItemNotFound
	}
	if item.Status != constants.OutboxStatusRejected {
		return nil, ErrOutboxItemNotRejected
	}
	return item, nil
}

// restoreDraftStatus 同步本地单据状态。收款、券核销这类条目
// 没有独立单据，直接跳过。
func (s *OutboxService) restoreDraftStatus(tx *gorm.DB, item *models.OutboxItem, status string) error {
	switch item.Kind {
	case constants.OpKindCreateSale, constants.OpKindCreateReturn, constants.OpKindCreateExchange:
		return s.draftRepo.WithTx(tx).UpdateStatus(item.LocalID, status)
	default:
		return nil
	}
}
