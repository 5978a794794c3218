package app

import (
	"context"
	"errors"

	"github.com/shouyin-pos/internal/syncer"
)

// SyncService 发件箱同步服务封装
type SyncService struct {
	name      string
	processor *syncer.Processor
}

// NewSyncService 创建同步服务
func NewSyncService(processor *syncer.Processor) *SyncService {
	return &SyncService{
		name:      "syncer",
		processor: processor,
	}
}

// Name 服务名称
func (s *SyncService) Name() string {
	if s == nil || s.name == "" {
		return "syncer"
	}
	return s.name
}

// Start 启动服务，阻塞直到上下文取消
func (s *SyncService) Start(ctx context.Context) error {
	if s == nil || s.processor == nil {
		return errors.New("sync processor not initialized")
	}
	s.processor.Run(ctx)
	return nil
}

// Stop 停止服务（Run 随上下文取消退出）
func (s *SyncService) Stop(ctx context.Context) error {
	_ = ctx
	return nil
}
