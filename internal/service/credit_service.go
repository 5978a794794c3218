package service

import (
	"context"
	"strings"
	"time"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/gateway"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 余额查询只作参考，超时后直接放行
const balanceLookupTimeout = 3 * time.Second

// IssueCreditInput 发放门店储值输入
type IssueCreditInput struct {
	LocalID       string          `json:"local_id"`
	CustomerRef   string          `json:"customer_ref"` // 会员标识（服务端可识别的引用）
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	ReturnLocalID string          `json:"return_local_id"` // 因退货发放时引用退货单
}

// RedeemCreditInput 核销门店储值输入
type RedeemCreditInput struct {
	LocalID       string          `json:"local_id"`
	CustomerRef   string          `json:"customer_ref"`
	Amount        decimal.Decimal `json:"amount"`
	SaleLocalID   string          `json:"sale_local_id"`   // 抵扣的销售单
	CreditLocalID string          `json:"credit_local_id"` // 本地发放的储值单（可为空，服务端按会员余额核销）
}

// CreditService 门店储值服务：发放与核销都只登记发件箱操作，
// 余额的权威状态在服务端，本地不试图维护账本。
type CreditService struct {
	db         *gorm.DB
	outboxRepo repository.OutboxRepository
	draftRepo  repository.DraftRepository
	gw         gateway.RemoteGateway
	currency   string
}

// NewCreditService 创建门店储值服务。gw 可为 nil（纯离线运行）。
func NewCreditService(db *gorm.DB, outboxRepo repository.OutboxRepository, draftRepo repository.DraftRepository, gw gateway.RemoteGateway, currency string) *CreditService {
	return &CreditService{
		db:         db,
		outboxRepo: outboxRepo,
		draftRepo:  draftRepo,
		gw:         gw,
		currency:   currency,
	}
}

// IssueCredit 登记一次储值发放
func (s *CreditService) IssueCredit(input IssueCreditInput) (*models.OutboxItem, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(input.CustomerRef) == "" {
		return nil, ErrInvalidAmount
	}

	returnRef := strings.TrimSpace(input.ReturnLocalID)
	if returnRef != "" {
		draft, err := s.draftRepo.GetByLocalID(returnRef)
		if err != nil {
			return nil, err
		}
		if draft == nil || draft.Kind != constants.DraftKindReturn {
			return nil, ErrDraftNotFound
		}
	}

	localID := strings.TrimSpace(input.LocalID)
	if localID == "" {
		localID = uuid.NewString()
	}

	item := &models.OutboxItem{
		LocalID: localID,
		Kind:    constants.OpKindIssueCredit,
		Payload: models.JSON{
			"local_id":        localID,
			"customer_ref":    input.CustomerRef,
			"amount":          input.Amount.String(),
			"currency":        s.currency,
			"reason":          input.Reason,
			"return_local_id": returnRef,
		},
		IdempotencyKey: uuid.NewString(),
		Status:         constants.OutboxStatusQueued,
	}
	if err := s.outboxRepo.Create(item); err != nil {
		return nil, err
	}

	logger.Infow("credit_issued_locally",
		"local_id", localID,
		"customer_ref", input.CustomerRef,
		"amount", input.Amount.String(),
	)
	return item, nil
}

// RedeemCredit 登记一次储值核销
func (s *CreditService) RedeemCredit(input RedeemCreditInput) (*models.OutboxItem, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(input.CustomerRef) == "" {
		return nil, ErrInvalidAmount
	}

	saleRef := strings.TrimSpace(input.SaleLocalID)
	if saleRef != "" {
		draft, err := s.draftRepo.GetByLocalID(saleRef)
		if err != nil {
			return nil, err
		}
		if draft == nil || draft.Kind != constants.DraftKindSale {
			return nil, ErrDraftNotFound
		}
	}

	// 尽力而为的余额参考：网关可达且余额明显不足时提示收银员，
	// 查不到就直接放行，最终以服务端确认为准。
	s.warnIfBalanceLow(input.CustomerRef, input.Amount)

	localID := strings.TrimSpace(input.LocalID)
	if localID == "" {
		localID = uuid.NewString()
	}

	item := &models.OutboxItem{
		LocalID: localID,
		Kind:    constants.OpKindRedeemCredit,
		Payload: models.JSON{
			"local_id":        localID,
			"customer_ref":    input.CustomerRef,
			"amount":          input.Amount.String(),
			"currency":        s.currency,
			"sale_local_id":   saleRef,
			"credit_local_id": strings.TrimSpace(input.CreditLocalID),
		},
		IdempotencyKey: uuid.NewString(),
		Status:         constants.OutboxStatusQueued,
	}
	if err := s.outboxRepo.Create(item); err != nil {
		return nil, err
	}

	logger.Infow("credit_redeemed_locally",
		"local_id", localID,
		"customer_ref", input.CustomerRef,
		"amount", input.Amount.String(),
	)
	return item, nil
}

func (s *CreditService) warnIfBalanceLow(customerRef string, amount decimal.Decimal) {
	if s.gw == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), balanceLookupTimeout)
	defer cancel()
	customer, err := s.gw.FetchCustomer(ctx, customerRef)
	if err != nil {
		logger.Debugw("credit_balance_lookup_skipped", "customer_ref", customerRef, "error", err)
		return
	}
	if customer != nil && customer.CreditBalance.LessThan(amount) {
		logger.Warnw("credit_balance_possibly_insufficient",
			"customer_ref", customerRef,
			"amount", amount.String(),
			"cached_balance", customer.CreditBalance.String(),
		)
	}
}
