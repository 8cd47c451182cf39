package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vetlinks/backend/config"
)

// Client Redis 客户端封装
// 用于活跃 Token 缓存与登录限流；为 nil 时调用方降级到数据库
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 活跃 Token 缓存 ──

const activeTokenPrefix = "token:active:"

func activeTokenKey(userID uint) string {
	return activeTokenPrefix + strconv.FormatUint(uint64(userID), 10)
}

// SetActiveToken 缓存用户当前有效的 Token ID (jti)
func (c *Client) SetActiveToken(ctx context.Context, userID uint, jti string, ttl time.Duration) error {
	return c.rdb.Set(ctx, activeTokenKey(userID), jti, ttl).Err()
}

// GetActiveToken 读取缓存的 Token ID，未命中时 found=false
func (c *Client) GetActiveToken(ctx context.Context, userID uint) (jti string, found bool, err error) {
	jti, err = c.rdb.Get(ctx, activeTokenKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return jti, true, nil
}

// DeleteActiveToken 清除缓存（登出、删除账号时调用）
func (c *Client) DeleteActiveToken(ctx context.Context, userID uint) error {
	return c.rdb.Del(ctx, activeTokenKey(userID)).Err()
}

// ── 滑动窗口限流 ──

// CheckRateLimit 基于有序集合的滑动窗口限流，返回本次请求是否允许
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
