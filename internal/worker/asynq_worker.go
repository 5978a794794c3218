package worker

import (
	"context"
	"encoding/json"

	"github.com/shouyin-pos/internal/logger"
	"github.com/shouyin-pos/internal/provider"
	"github.com/shouyin-pos/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSnapshotRefresh, c.handleSnapshotRefresh)
	mux.HandleFunc(queue.TaskRuleRefresh, c.handleRuleRefresh)
	mux.HandleFunc(queue.TaskSyncKick, c.handleSyncKick)
}

func (c *Consumer) handleSnapshotRefresh(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_snapshot_refresh_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SnapshotRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_snapshot_refresh_unmarshal_failed", "error", err)
		return err
	}
	if c.RefreshService == nil {
		logger.Warnw("worker_snapshot_refresh_skip_refresh_service_nil", "reason", payload.Reason)
		return nil
	}
	if err := c.RefreshService.RefreshCatalog(ctx); err != nil {
		logger.Warnw("worker_snapshot_refresh_failed", "reason", payload.Reason, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleRuleRefresh(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_rule_refresh_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RuleRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_rule_refresh_unmarshal_failed", "error", err)
		return err
	}
	if c.RefreshService == nil {
		logger.Warnw("worker_rule_refresh_skip_refresh_service_nil", "reason", payload.Reason)
		return nil
	}
	if err := c.RefreshService.RefreshRules(ctx); err != nil {
		logger.Warnw("worker_rule_refresh_failed", "reason", payload.Reason, "error", err)
		return err
	}
	if err := c.RefreshService.RefreshSettings(ctx); err != nil {
		logger.Warnw("worker_setting_refresh_failed", "reason", payload.Reason, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleSyncKick(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_sync_kick_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SyncKickPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_sync_kick_unmarshal_failed", "error", err)
		return err
	}
	if c.SyncProcessor == nil {
		logger.Debugw("worker_sync_kick_skip_processor_nil", "reason", payload.Reason)
		return nil
	}
	c.SyncProcessor.Kick()
	return nil
}
