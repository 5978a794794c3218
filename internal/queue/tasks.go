package queue

import (
	"encoding/json"

	"github.com/shouyin-pos/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSnapshotRefresh 商品目录快照刷新任务
	TaskSnapshotRefresh = constants.TaskSnapshotRefresh
	// TaskRuleRefresh 折扣规则与配置刷新任务
	TaskRuleRefresh = constants.TaskRuleRefresh
	// TaskSyncKick 发件箱排空触发任务
	TaskSyncKick = constants.TaskSyncKick
)

// SnapshotRefreshPayload 快照刷新任务载荷
type SnapshotRefreshPayload struct {
	Reason string `json:"reason"`
}

// RuleRefreshPayload 规则刷新任务载荷
type RuleRefreshPayload struct {
	Reason string `json:"reason"`
}

// SyncKickPayload 排空触发任务载荷
type SyncKickPayload struct {
	Reason string `json:"reason"`
}

// NewSnapshotRefreshTask 创建快照刷新任务
func NewSnapshotRefreshTask(payload SnapshotRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotRefresh, body), nil
}

// NewRuleRefreshTask 创建规则刷新任务
func NewRuleRefreshTask(payload RuleRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRuleRefresh, body), nil
}

// NewSyncKickTask 创建排空触发任务
func NewSyncKickTask(payload SyncKickPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncKick, body), nil
}
