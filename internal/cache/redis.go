package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shouyin-pos/internal/config"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// 终端常在无外网环境运行，缓存必须可整体缺席：
// state.enabled 为 false 时全部读写退化为空操作。
var state struct {
	client  *redis.Client
	prefix  string
	enabled bool
}

// InitRedis 初始化 Redis 客户端并探测连通性。探测失败返回错误，
// 但调用方可以仅记录告警继续以无缓存模式运行。
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		state.enabled = false
		return nil
	}
	addr := strings.TrimSpace(cfg.Host)
	if addr == "" {
		addr = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	state.prefix = strings.TrimSpace(cfg.Prefix)
	if state.prefix == "" {
		state.prefix = "sy"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", addr, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		state.enabled = false
		return fmt.Errorf("redis ping %s:%d: %w", addr, port, err)
	}

	state.client = client
	state.enabled = true
	return nil
}

// Enabled 判断缓存是否可用
func Enabled() bool {
	return state.enabled && state.client != nil
}

// Client 获取 Redis 客户端，缓存未启用时返回 nil
func Client() *redis.Client {
	if !Enabled() {
		return nil
	}
	return state.client
}

// GetJSON 读取 JSON 缓存，未命中返回 (false, nil)
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	val, err := state.client.Get(ctx, buildKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return state.client.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	if !Enabled() {
		return nil
	}
	return state.client.Del(ctx, buildKey(key)).Err()
}

func buildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return state.prefix
	}
	return state.prefix + ":" + trimmed
}
