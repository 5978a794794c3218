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

// ReturnLineInput 退货行输入
type ReturnLineInput struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// ReturnInput 退货输入
type ReturnInput struct {
	LocalID     string            `json:"local_id"`
	OrigLocalID string            `json:"orig_local_id"`
	Lines       []ReturnLineInput `json:"lines"`
	Reason      string            `json:"reason"`
}

// ExchangeInput 换货输入：退回部分原单商品，同时售出新商品
type ExchangeInput struct {
	LocalID       string              `json:"local_id"`
	OrigLocalID   string              `json:"orig_local_id"`
	ReturnLines   []ReturnLineInput   `json:"return_lines"`
	NewLines      []CheckoutLineInput `json:"new_lines"`
	PaymentMethod string              `json:"payment_method"`
}

// RefundQuote 退款报价（按原单实付金额折算，不按现价）
type RefundQuote struct {
	Lines       []tax.LineTax   `json:"lines"`
	RefundNet   decimal.Decimal `json:"refund_net"`
	RefundTax   decimal.Decimal `json:"refund_tax"`
	RefundTotal decimal.Decimal `json:"refund_total"`
}

// RefundService 退换货服务。退款按原单行实付金额折算，
// 退货与换货单据都引用原单的本地标识，由同步层解析依赖顺序。
type RefundService struct {
	db         *gorm.DB
	draftRepo  repository.DraftRepository
	outboxRepo repository.OutboxRepository
	checkout   *CheckoutService
	currency   string
}

// NewRefundService 创建退换货服务
func NewRefundService(db *gorm.DB, draftRepo repository.DraftRepository, outboxRepo repository.OutboxRepository, checkout *CheckoutService, currency string) *RefundService {
	return &RefundService{
		db:         db,
		draftRepo:  draftRepo,
		outboxRepo: outboxRepo,
		checkout:   checkout,
		currency:   currency,
	}
}

// PreviewReturn 计算退款金额，不产生持久化副作用
func (s *RefundService) PreviewReturn(input ReturnInput) (*RefundQuote, error) {
	_, quote, err := s.buildRefund(input.OrigLocalID, input.Lines)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// CreateReturn 提交一次退货：退货单据与发件箱条目同事务落库
func (s *RefundService) CreateReturn(input ReturnInput) (*models.DraftTransaction, error) {
	orig, quote, err := s.buildRefund(input.OrigLocalID, input.Lines)
	if err != nil {
		return nil, err
	}

	localID := strings.TrimSpace(input.LocalID)
	if localID == "" {
		localID = uuid.NewString()
	}

	linesDoc, err := toJSONArray(quote.Lines)
	if err != nil {
		return nil, err
	}

	draft := &models.DraftTransaction{
		LocalID:      localID,
		Kind:         constants.DraftKindReturn,
		Status:       constants.DraftStatusCommitted,
		RefLocalID:   orig.LocalID,
		CartSnapshot: models.JSON{"lines": linesDoc},
		Totals: models.JSON{
			"refund_net":   quote.RefundNet.String(),
			"refund_tax":   quote.RefundTax.String(),
			"refund_total": quote.RefundTotal.String(),
		},
		Currency:   s.currency,
		GrandTotal: models.NewMoneyFromDecimal(quote.RefundTotal),
	}

	payload := models.JSON{
		"local_id":      localID,
		"orig_local_id": orig.LocalID,
		"lines":         linesDoc,
		"refund_total":  quote.RefundTotal.String(),
		"currency":      s.currency,
		"reason":        input.Reason,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.draftRepo.WithTx(tx).Create(draft); err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(&models.OutboxItem{
			LocalID:        localID,
			Kind:           constants.OpKindCreateReturn,
			Payload:        payload,
			IdempotencyKey: uuid.NewString(),
			Status:         constants.OutboxStatusQueued,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("return_committed",
		"local_id", localID,
		"orig_local_id", orig.LocalID,
		"refund_total", quote.RefundTotal.String(),
	)
	return draft, nil
}

// CreateExchange 提交一次换货：退回金额与新售金额轧差，
// 新售部分复用结算报价路径按现行规则计价。
func (s *RefundService) CreateExchange(input ExchangeInput) (*models.DraftTransaction, error) {
	orig, refund, err := s.buildRefund(input.OrigLocalID, input.ReturnLines)
	if err != nil {
		return nil, err
	}

	saleQuote, err := s.checkout.PreviewSale(CheckoutInput{
		Lines:         input.NewLines,
		PaymentMethod: input.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	localID := strings.TrimSpace(input.LocalID)
	if localID == "" {
		localID = uuid.NewString()
	}
	netDue := saleQuote.Totals.GrandTotal.Sub(refund.RefundTotal)

	returnLinesDoc, err := toJSONArray(refund.Lines)
	if err != nil {
		return nil, err
	}
	newCartDoc, err := toJSONDoc(saleQuote.Cart)
	if err != nil {
		return nil, err
	}
	newTotalsDoc, err := toJSONDoc(saleQuote.Totals)
	if err != nil {
		return nil, err
	}

	draft := &models.DraftTransaction{
		LocalID:    localID,
		Kind:       constants.DraftKindExchange,
		Status:     constants.DraftStatusCommitted,
		RefLocalID: orig.LocalID,
		CartSnapshot: models.JSON{
			"return_lines": returnLinesDoc,
			"new_cart":     map[string]interface{}(newCartDoc),
		},
		Totals: models.JSON{
			"refund_total": refund.RefundTotal.String(),
			"new_totals":   map[string]interface{}(newTotalsDoc),
			"net_due":      netDue.String(),
		},
		Currency:      s.currency,
		PaymentMethod: input.PaymentMethod,
		GrandTotal:    models.NewMoneyFromDecimal(netDue),
	}

	payload := models.JSON{
		"local_id":      localID,
		"orig_local_id": orig.LocalID,
		"return_lines":  returnLinesDoc,
		"new_cart":      map[string]interface{}(newCartDoc),
		"new_totals":    map[string]interface{}(newTotalsDoc),
		"net_due":       netDue.String(),
		"currency":      s.currency,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.draftRepo.WithTx(tx).Create(draft); err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(&models.OutboxItem{
			LocalID:        localID,
			Kind:           constants.OpKindCreateExchange,
			Payload:        payload,
			IdempotencyKey: uuid.NewString(),
			Status:         constants.OutboxStatusQueued,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("exchange_committed",
		"local_id", localID,
		"orig_local_id", orig.LocalID,
		"net_due", netDue.String(),
	)
	return draft, nil
}

// buildRefund 校验退货行并按原单实付金额折算退款
func (s *RefundService) buildRefund(origLocalID string, lines []ReturnLineInput) (*models.DraftTransaction, *RefundQuote, error) {
	if len(lines) == 0 {
		return nil, nil, ErrCartEmpty
	}

	orig, err := s.draftRepo.GetByLocalID(strings.TrimSpace(origLocalID))
	if err != nil {
		return nil, nil, err
	}
	if orig == nil {
		return nil, nil, ErrDraftNotFound
	}
	if orig.Kind != constants.DraftKindSale {
		return nil, nil, ErrDraftNotReturnable
	}
	if orig.Status == constants.DraftStatusVoided || orig.Status == constants.DraftStatusRejected {
		return nil, nil, ErrDraftNotReturnable
	}

	var origTotals tax.Totals
	if err := fromJSONDoc(orig.Totals, &origTotals); err != nil {
		return nil, nil, err
	}
	origBySKU := make(map[string]tax.LineTax, len(origTotals.Lines))
	for _, line := range origTotals.Lines {
		origBySKU[line.SKU] = line
	}

	quote := &RefundQuote{
		RefundNet:   decimal.Zero,
		RefundTax:   decimal.Zero,
		RefundTotal: decimal.Zero,
	}
	for _, line := range lines {
		origLine, ok := origBySKU[line.SKU]
		if !ok {
			return nil, nil, ErrItemNotFound
		}
		if line.Qty <= 0 || line.Qty > origLine.Qty {
			return nil, nil, ErrReturnExceedsSale
		}

		ratio := decimal.NewFromInt(int64(line.Qty)).Div(decimal.NewFromInt(int64(origLine.Qty)))
		net := origLine.Net.Mul(ratio).Round(2)
		taxAmount := origLine.Tax.Mul(ratio).Round(2)
		if line.Qty == origLine.Qty {
			// 整行退货按原始金额退，避免折算取整留下尾差
			net = origLine.Net
			taxAmount = origLine.Tax
		}

		quote.Lines = append(quote.Lines, tax.LineTax{
			SKU:    line.SKU,
			Qty:    line.Qty,
			Rate:   origLine.Rate,
			Exempt: origLine.Exempt,
			Net:    net,
			Tax:    taxAmount,
			Gross:  net.Add(taxAmount),
		})
		quote.RefundNet = quote.RefundNet.Add(net)
		quote.RefundTax = quote.RefundTax.Add(taxAmount)
		quote.RefundTotal = quote.RefundTotal.Add(net.Add(taxAmount))
	}
	return orig, quote, nil
}
