package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/gateway"
	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/models"
	"github.com/shouyin-pos/internal/repository"

	"gorm.io/gorm"
)

// Options 同步处理器配置
type Options struct {
	Interval   time.Duration // 定时排空间隔
	BatchLimit int           // 单轮最多处理条数（0 取默认）
}

// Processor 发件箱同步处理器。单飞排空：定时器与手动触发共用同一个
// 入口，排空过程中再次触发只会排队一次。条目严格按创建顺序上报，
// 依赖未就绪的条目跳过不算失败；单个条目上报失败只影响它自己，
// 本轮继续处理后续条目。
type Processor struct {
	db          *gorm.DB
	outboxRepo  repository.OutboxRepository
	draftRepo   repository.DraftRepository
	syncLogRepo repository.SyncLogRepository
	gw          gateway.RemoteGateway
	opts        Options

	kick    chan struct{}
	drainMu sync.Mutex
}

// NewProcessor 创建同步处理器
func NewProcessor(
	db *gorm.DB,
	outboxRepo repository.OutboxRepository,
	draftRepo repository.DraftRepository,
	syncLogRepo repository.SyncLogRepository,
	gw gateway.RemoteGateway,
	opts Options,
) *Processor {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 50
	}
	return &Processor{
		db:          db,
		outboxRepo:  outboxRepo,
		draftRepo:   draftRepo,
		syncLogRepo: syncLogRepo,
		gw:          gw,
		opts:        opts,
		kick:        make(chan struct{}, 1),
	}
}

// Kick 请求尽快排空一次（非阻塞，排空中重复触发会合并）
func (p *Processor) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Run 阻塞运行排空循环，直到 ctx 取消
func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	logger.Infow("sync_processor_started", "interval", p.opts.Interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Infow("sync_processor_stopped")
			return
		case <-ticker.C:
			p.Drain(ctx)
		case <-p.kick:
			p.Drain(ctx)
		}
	}
}

// Drain 排空一轮发件箱。并发调用时后到者直接返回，
// 排空本身永远在单个 goroutine 里执行。
func (p *Processor) Drain(ctx context.Context) {
	if !p.drainMu.TryLock() {
		return
	}
	defer p.drainMu.Unlock()

	items, err := p.outboxRepo.ListOldestQueued(p.opts.BatchLimit)
	if err != nil {
		logger.Errorw("outbox_list_failed", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	sent := 0
	skipped := 0
	failed := 0
	for i := range items {
		if ctx.Err() != nil {
			return
		}
		outcome := p.processOne(ctx, &items[i])
		switch outcome {
		case outcomeSent, outcomeRejected:
			sent++
		case outcomeSkipped:
			skipped++
		case outcomeFailed:
			failed++
		case outcomeHalt:
			logger.Infow("sync_drain_halted", "sent", sent, "skipped", skipped, "failed", failed)
			return
		}
	}
	logger.Infow("sync_drain_finished", "sent", sent, "skipped", skipped, "failed", failed)
}

type drainOutcome int

const (
	outcomeSent drainOutcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeRejected
	// outcomeHalt 仅用于本地存储故障，网络失败不终止本轮
	outcomeHalt
)

// processOne 处理单个条目：解析依赖、上报、确认或登记失败
func (p *Processor) processOne(ctx context.Context, item *models.OutboxItem) drainOutcome {
	payload, ready, err := p.resolveDependencies(item)
	if err != nil {
		logger.Errorw("sync_dependency_lookup_failed", "local_id", item.LocalID, "error", err)
		return outcomeHalt
	}
	if !ready {
		logger.Debugw("sync_item_skipped_dependency_pending", "local_id", item.LocalID, "kind", item.Kind)
		return outcomeSkipped
	}

	ack, err := p.gw.Submit(ctx, gateway.Operation{
		Kind:           item.Kind,
		LocalID:        item.LocalID,
		IdempotencyKey: item.IdempotencyKey,
		Payload:        payload,
	})
	now := time.Now()

	switch {
	case err == nil:
		if err := p.acknowledge(item, ack); err != nil {
			logger.Errorw("sync_ack_failed", "local_id", item.LocalID, "error", err)
			return outcomeHalt
		}
		logger.Infow("sync_item_acked", "local_id", item.LocalID, "kind", item.Kind, "server_id", ack.ServerID)
		return outcomeSent

	case errors.Is(err, gateway.ErrGatewayRejected):
		if err := p.reject(item, err.Error(), now); err != nil {
			logger.Errorw("sync_reject_mark_failed", "local_id", item.LocalID, "error", err)
			return outcomeHalt
		}
		logger.Warnw("sync_item_rejected", "local_id", item.LocalID, "kind", item.Kind, "reason", err.Error())
		return outcomeRejected

	default:
		// 瞬时失败：登记重试次数后继续处理后续条目。依赖该条目的
		// 后续条目会因映射缺失自然跳过，顺序不受影响。
		if err := p.outboxRepo.RecordFailure(item.LocalID, err.Error(), now); err != nil {
			logger.Errorw("sync_failure_record_failed", "local_id", item.LocalID, "error", err)
		}
		logger.Warnw("sync_item_failed_transient", "local_id", item.LocalID, "retry_count", item.RetryCount+1)
		return outcomeFailed
	}
}

// acknowledge 确认回执：映射日志写入、发件箱删除、单据状态流转
// 在同一事务内完成。
func (p *Processor) acknowledge(item *models.OutboxItem, ack *gateway.Ack) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		key := mappingKey(item.Kind, item.LocalID)
		if key != "" {
			if err := p.syncLogRepo.WithTx(tx).Put(key, ack.ServerID); err != nil {
				return err
			}
		}
		if err := p.outboxRepo.WithTx(tx).DeleteByLocalID(item.LocalID); err != nil {
			return err
		}
		if isDraftKind(item.Kind) {
			return p.draftRepo.WithTx(tx).UpdateStatus(item.LocalID, constants.DraftStatusSynced)
		}
		return nil
	})
}

// reject 标记终态拒绝：条目留在发件箱等待人工处置，单据同步标记
func (p *Processor) reject(item *models.OutboxItem, reason string, at time.Time) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := p.outboxRepo.WithTx(tx).MarkRejected(item.LocalID, reason, at); err != nil {
			return err
		}
		if isDraftKind(item.Kind) {
			return p.draftRepo.WithTx(tx).UpdateStatus(item.LocalID, constants.DraftStatusRejected)
		}
		return nil
	})
}

// mappingKey 条目确认后写入映射日志的键
func mappingKey(kind, localID string) string {
	switch kind {
	case constants.OpKindCreateSale:
		return constants.SyncKeySale + localID
	case constants.OpKindCreateReturn:
		return constants.SyncKeyReturn + localID
	case constants.OpKindCreateExchange:
		return constants.SyncKeyExchange + localID
	case constants.OpKindAddPayment:
		return constants.SyncKeyPayment + localID
	case constants.OpKindRedeemCoupon:
		return constants.SyncKeyCoupon + localID
	case constants.OpKindIssueCredit, constants.OpKindRedeemCredit:
		return constants.SyncKeyCredit + localID
	default:
		return ""
	}
}

// isDraftKind 条目是否对应一张本地单据
func isDraftKind(kind string) bool {
	switch kind {
	case constants.OpKindCreateSale, constants.OpKindCreateReturn, constants.OpKindCreateExchange:
		return true
	default:
		return false
	}
}
