package service

import (
	"strings"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"
	"github.com/shouyin-pos/internal/tax"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentInput 收款输入
type PaymentInput struct {
	SaleLocalID string          `json:"sale_local_id"`
	Method      string          `json:"method"` // cash/card/store_credit
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentService 收款服务：收款作为独立发件箱操作登记，
// 依赖其引用的销售单先被服务端确认。
type PaymentService struct {
	db         *gorm.DB
	draftRepo  repository.DraftRepository
	outboxRepo repository.OutboxRepository
	settings   *SettingService
	currency   string
}

// NewPaymentService 创建收款服务
func NewPaymentService(db *gorm.DB, draftRepo repository.DraftRepository, outboxRepo repository.OutboxRepository, settings *SettingService, currency string) *PaymentService {
	return &PaymentService{
		db:         db,
		draftRepo:  draftRepo,
		outboxRepo: outboxRepo,
		settings:   settings,
		currency:   currency,
	}
}

// AddPayment 为本地销售单登记一笔收款。现金收款按配置的最小现金单位取整。
func (s *PaymentService) AddPayment(input PaymentInput) (*models.OutboxItem, error) {
	saleLocalID := strings.TrimSpace(input.SaleLocalID)
	if saleLocalID == "" {
		return nil, ErrDraftNotFound
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if input.Method == constants.PaymentMethodCash && s.settings != nil {
		input.Amount = tax.RoundCash(input.Amount, s.settings.TaxConfig().CashRounding)
	}

	draft, err := s.draftRepo.GetByLocalID(saleLocalID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, ErrDraftNotFound
	}
	if draft.Status == constants.DraftStatusVoided || draft.Status == constants.DraftStatusRejected {
		return nil, ErrDraftNotFound
	}

	item := &models.OutboxItem{
		LocalID: uuid.NewString(),
		Kind:    constants.OpKindAddPayment,
		Payload: models.JSON{
			"sale_local_id": saleLocalID,
			"method":        input.Method,
			"amount":        input.Amount.String(),
			"currency":      s.currency,
		},
		IdempotencyKey: uuid.NewString(),
		Status:         constants.OutboxStatusQueued,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.outboxRepo.WithTx(tx).Create(item); err != nil {
			return err
		}
		if draft.PaymentMethod == "" {
			return s.draftRepo.WithTx(tx).UpdatePaymentMethod(saleLocalID, input.Method)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payment_recorded",
		"sale_local_id", saleLocalID,
		"method", input.Method,
		"amount", input.Amount.String(),
	)
	return item, nil
}
