package syncer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/gateway"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeGateway 可编排响应的网关替身，记录每次上报
type fakeGateway struct {
	mu      sync.Mutex
	handler func(op gateway.Operation) (*gateway.Ack, error)
	calls   []gateway.Operation
}

func (f *fakeGateway) Submit(_ context.Context, op gateway.Operation) (*gateway.Ack, error) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
	return f.handler(op)
}

func (f *fakeGateway) FetchCatalog(context.Context) ([]models.CatalogItem, error) { return nil, nil }
func (f *fakeGateway) FetchPromotions(context.Context) ([]models.Promotion, error) {
	return nil, nil
}
func (f *fakeGateway) FetchCoupons(context.Context) ([]models.Coupon, error) { return nil, nil }
func (f *fakeGateway) FetchSettings(context.Context) (map[string]string, error) {
	return nil, nil
}
func (f *fakeGateway) FetchCustomer(context.Context, string) (*gateway.CustomerContext, error) {
	return nil, nil
}

func (f *fakeGateway) submittedLocalIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.calls))
	for _, op := range f.calls {
		ids = append(ids, op.LocalID)
	}
	return ids
}

type syncFixture struct {
	db        *gorm.DB
	processor *Processor
	gw        *fakeGateway
	outbox    *repository.GormOutboxRepository
	drafts    *repository.GormDraftRepository
	syncLog   *repository.GormSyncLogRepository
}

func setupSyncTest(t *testing.T) *syncFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:sync_proc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.DraftTransaction{},
		&models.OutboxItem{},
		&models.SyncLogEntry{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	outboxRepo := repository.NewOutboxRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)
	gw := &fakeGateway{}

	processor := NewProcessor(db, outboxRepo, draftRepo, syncLogRepo, gw, Options{
		Interval:   time.Minute,
		BatchLimit: 50,
	})
	return &syncFixture{
		db:        db,
		processor: processor,
		gw:        gw,
		outbox:    outboxRepo,
		drafts:    draftRepo,
		syncLog:   syncLogRepo,
	}
}

func seedSale(t *testing.T, f *syncFixture, localID string, createdAt time.Time) {
	t.Helper()
	draft := models.DraftTransaction{
		LocalID:    localID,
		Kind:       constants.DraftKindSale,
		Status:     constants.DraftStatusCommitted,
		Currency:   "USD",
		GrandTotal: models.Money{},
		CreatedAt:  createdAt,
	}
	if err := f.db.Create(&draft).Error; err != nil {
		t.Fatalf("seed draft failed: %v", err)
	}
	item := models.OutboxItem{
		LocalID:        localID,
		Kind:           constants.OpKindCreateSale,
		Payload:        models.JSON{"local_id": localID},
		IdempotencyKey: uuid.NewString(),
		Status:         constants.OutboxStatusQueued,
		CreatedAt:      createdAt,
	}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("seed outbox item failed: %v", err)
	}
}

func seedPayment(t *testing.T, f *syncFixture, localID, saleLocalID string, createdAt time.Time) {
	t.Helper()
	item := models.OutboxItem{
		LocalID:        localID,
		Kind:           constants.OpKindAddPayment,
		Payload:        models.JSON{"sale_local_id": saleLocalID, "method": "card", "amount": "10"},
		IdempotencyKey: uuid.NewString(),
		Status:         constants.OutboxStatusQueued,
		CreatedAt:      createdAt,
	}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("seed payment item failed: %v", err)
	}
}

func TestDrainAcksOldestFirst(t *testing.T) {
	f := setupSyncTest(t)
	base := time.Now().UTC().Truncate(time.Second)
	seedSale(t, f, "sale-2", base.Add(time.Second))
	seedSale(t, f, "sale-1", base)

	n := 0
	f.gw.handler = func(op gateway.Operation) (*gateway.Ack, error) {
		n++
		return &gateway.Ack{ServerID: fmt.Sprintf("srv-%d", n)}, nil
	}

	f.processor.Drain(context.Background())

	ids := f.gw.submittedLocalIDs()
	if len(ids) != 2 || ids[0] != "sale-1" || ids[1] != "sale-2" {
		t.Fatalf("submission order want [sale-1 sale-2] got %v", ids)
	}

	for _, localID := range []string{"sale-1", "sale-2"} {
		item, err := f.outbox.GetByLocalID(localID)
		if err != nil {
			t.Fatalf("get outbox item failed: %v", err)
		}
		if item != nil {
			t.Fatalf("acked item %s should be deleted", localID)
		}
		draft, err := f.drafts.GetByLocalID(localID)
		if err != nil {
			t.Fatalf("get draft failed: %v", err)
		}
		if draft.Status != constants.DraftStatusSynced {
			t.Fatalf("draft %s status want synced got %s", localID, draft.Status)
		}
		entry, err := f.syncLog.Get(constants.SyncKeySale + localID)
		if err != nil {
			t.Fatalf("get mapping failed: %v", err)
		}
		if entry == nil {
			t.Fatalf("mapping missing for %s", localID)
		}
	}
}

func TestDrainSkipsPaymentUntilSaleAcked(t *testing.T) {
	f := setupSyncTest(t)
	base := time.Now().UTC().Truncate(time.Second)
	// 收款先于销售入队（时钟回拨等异常情况），依赖解析必须兜住
	seedPayment(t, f, "pay-1", "sale-1", base)
	seedSale(t, f, "sale-1", base.Add(time.Second))

	f.gw.handler = func(op gateway.Operation) (*gateway.Ack, error) {
		return &gateway.Ack{ServerID: "srv-" + op.LocalID}, nil
	}

	f.processor.Drain(context.Background())

	// 第一轮：收款因销售未确认被跳过，销售被确认
	ids := f.gw.submittedLocalIDs()
	if len(ids) != 1 || ids[0] != "sale-1" {
		t.Fatalf("first round submissions want [sale-1] got %v", ids)
	}
	item, err := f.outbox.GetByLocalID("pay-1")
	if err != nil {
		t.Fatalf("get payment item failed: %v", err)
	}
	if item == nil || item.Status != constants.OutboxStatusQueued {
		t.Fatalf("skipped payment must stay queued, got %+v", item)
	}
	if item.RetryCount != 0 {
		t.Fatalf("dependency skip must not count as a retry, got %d", item.RetryCount)
	}

	f.processor.Drain(context.Background())

	// 第二轮：映射已就绪，收款上报且注入服务端标识
	ids = f.gw.submittedLocalIDs()
	if len(ids) != 2 || ids[1] != "pay-1" {
		t.Fatalf("second round submissions want [... pay-1] got %v", ids)
	}
	last := f.gw.calls[len(f.gw.calls)-1]
	if last.Payload["sale_server_id"] != "srv-sale-1" {
		t.Fatalf("payment payload must carry resolved sale_server_id, got %v", last.Payload["sale_server_id"])
	}
}

func TestDrainTransientFailureDoesNotStarveLaterItems(t *testing.T) {
	f := setupSyncTest(t)
	base := time.Now().UTC().Truncate(time.Second)
	seedSale(t, f, "sale-1", base)
	seedPayment(t, f, "pay-1", "sale-1", base.Add(time.Second))
	seedSale(t, f, "sale-2", base.Add(2*time.Second))

	f.gw.handler = func(op gateway.Operation) (*gateway.Ack, error) {
		if op.LocalID == "sale-1" {
			return nil, fmt.Errorf("%w: internal server error", gateway.ErrGatewayUnavailable)
		}
		return &gateway.Ack{ServerID: "srv-" + op.LocalID}, nil
	}

	f.processor.Drain(context.Background())

	// 单条失败不阻塞后续独立条目：sale-2 仍被确认，
	// 依赖 sale-1 的收款照常跳过
	ids := f.gw.submittedLocalIDs()
	if len(ids) != 2 || ids[0] != "sale-1" || ids[1] != "sale-2" {
		t.Fatalf("submissions want [sale-1 sale-2] got %v", ids)
	}

	first, err := f.outbox.GetByLocalID("sale-1")
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if first.Status != constants.OutboxStatusQueued {
		t.Fatalf("transient failure must keep item queued, got %s", first.Status)
	}
	if first.RetryCount != 1 {
		t.Fatalf("retry count want 1 got %d", first.RetryCount)
	}

	payment, err := f.outbox.GetByLocalID("pay-1")
	if err != nil {
		t.Fatalf("get payment item failed: %v", err)
	}
	if payment == nil || payment.Status != constants.OutboxStatusQueued || payment.RetryCount != 0 {
		t.Fatalf("dependent payment must stay queued without retry, got %+v", payment)
	}

	second, err := f.outbox.GetByLocalID("sale-2")
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if second != nil {
		t.Fatalf("independent later item should have been acked and deleted")
	}
}

func TestDrainKeepsIdempotencyKeyAcrossRetries(t *testing.T) {
	f := setupSyncTest(t)
	seedSale(t, f, "sale-1", time.Now().UTC())

	fail := true
	f.gw.handler = func(op gateway.Operation) (*gateway.Ack, error) {
		if fail {
			return nil, fmt.Errorf("%w: timeout", gateway.ErrGatewayUnavailable)
		}
		return &gateway.Ack{ServerID: "srv-1"}, nil
	}

	f.processor.Drain(context.Background())
	fail = false
	f.processor.Drain(context.Background())

	if len(f.gw.calls) != 2 {
		t.Fatalf("calls want 2 got %d", len(f.gw.calls))
	}
	if f.gw.calls[0].IdempotencyKey != f.gw.calls[1].IdempotencyKey {
		t.Fatalf("idempotency key changed across retries")
	}
}

func TestDrainTerminalRejectionDoesNotBlockQueue(t *testing.T) {
	f := setupSyncTest(t)
	base := time.Now().UTC().Truncate(time.Second)
	seedSale(t, f, "sale-1", base)
	seedSale(t, f, "sale-2", base.Add(time.Second))

	f.gw.handler = func(op gateway.Operation) (*gateway.Ack, error) {
		if op.LocalID == "sale-1" {
			return nil, fmt.Errorf("%w: duplicate receipt", gateway.ErrGatewayRejected)
		}
		return &gateway.Ack{ServerID: "srv-2"}, nil
	}

	f.processor.Drain(context.Background())

	rejected, err := f.outbox.GetByLocalID("sale-1")
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if rejected == nil || rejected.Status != constants.OutboxStatusRejected {
		t.Fatalf("terminal rejection must mark item rejected, got %+v", rejected)
	}
	draft, err := f.drafts.GetByLocalID("sale-1")
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if draft.Status != constants.DraftStatusRejected {
		t.Fatalf("draft status want rejected got %s", draft.Status)
	}

	// 后续条目继续处理
	acked, err := f.outbox.GetByLocalID("sale-2")
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if acked != nil {
		t.Fatalf("later item should have been acked and deleted")
	}
}

func TestDrainConcurrentCallRunsOnce(t *testing.T) {
	f := setupSyncTest(t)
	seedSale(t, f, "sale-1", time.Now().UTC())

	entered := make(chan struct{})
	release := make(chan struct{})
	f.gw.handler = func(op gateway.Operation) (*gateway.Ack, error) {
		close(entered)
		<-release
		return &gateway.Ack{ServerID: "srv-1"}, nil
	}

	done := make(chan struct{})
	go func() {
		f.processor.Drain(context.Background())
		close(done)
	}()

	// 第一轮已持锁并阻塞在上报中，此时的并发触发必须立即返回
	<-entered
	f.processor.Drain(context.Background())
	close(release)
	<-done

	if len(f.gw.calls) != 1 {
		t.Fatalf("overlapping drains must submit once, got %d calls", len(f.gw.calls))
	}
}

func TestDrainResolvesReturnDependency(t *testing.T) {
	f := setupSyncTest(t)
	base := time.Now().UTC().Truncate(time.Second)
	seedSale(t, f, "sale-1", base)

	returnItem := models.OutboxItem{
		LocalID:        "ret-1",
		Kind:           constants.OpKindCreateReturn,
		Payload:        models.JSON{"local_id": "ret-1", "orig_local_id": "sale-1"},
		IdempotencyKey: uuid.NewString(),
		Status:         constants.OutboxStatusQueued,
		CreatedAt:      base.Add(time.Second),
	}
	if err := f.db.Create(&returnItem).Error; err != nil {
		t.Fatalf("seed return item failed: %v", err)
	}
	returnDraft := models.DraftTransaction{
		LocalID:    "ret-1",
		Kind:       constants.DraftKindReturn,
		Status:     constants.DraftStatusCommitted,
		RefLocalID: "sale-1",
		Currency:   "USD",
		CreatedAt:  base.Add(time.Second),
	}
	if err := f.db.Create(&returnDraft).Error; err != nil {
		t.Fatalf("seed return draft failed: %v", err)
	}

	f.gw.handler = func(op gateway.Operation) (*gateway.Ack, error) {
		return &gateway.Ack{ServerID: "srv-" + op.LocalID}, nil
	}

	// 同一轮内：销售先确认，退货随后就能解析到刚写入的映射
	f.processor.Drain(context.Background())

	ids := f.gw.submittedLocalIDs()
	if len(ids) != 2 || ids[0] != "sale-1" || ids[1] != "ret-1" {
		t.Fatalf("submissions want [sale-1 ret-1] got %v", ids)
	}
	last := f.gw.calls[len(f.gw.calls)-1]
	if last.Payload["orig_server_id"] != "srv-sale-1" {
		t.Fatalf("return payload must carry resolved orig_server_id, got %v", last.Payload["orig_server_id"])
	}

	entry, err := f.syncLog.Get(constants.SyncKeyReturn + "ret-1")
	if err != nil {
		t.Fatalf("get mapping failed: %v", err)
	}
	if entry == nil || entry.ServerID != "srv-ret-1" {
		t.Fatalf("return mapping want srv-ret-1 got %+v", entry)
	}
}
