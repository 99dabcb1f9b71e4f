package core

import (
	"context"
	"time"
)

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，提供哈希表操作。
// 亲和度表按"用户+维度"一个 hash 存放，HIncrBy 保证增量写入的原子性，
// 这是 applyAffinityDelta"可加、重试安全"契约的实现基础。
type KeyValueStore interface {
	Store

	// HGet 读取 Hash 字段
	HGet(ctx context.Context, key, field string) ([]byte, error)

	// HSet 写入 Hash 字段
	HSet(ctx context.Context, key, field string, value []byte) error

	// HGetAll 读取整个 Hash
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)

	// HIncrBy 对 Hash 字段做原子增量，返回增量后的值
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
}

// AffinityKind 亲和度维度。
type AffinityKind string

const (
	AffinityCategory AffinityKind = "category"
	AffinityProvider AffinityKind = "provider"
)

// AffinityStore 是用户亲和度画像的持久化协作方。
//
// 契约：
//   - ApplyAffinityDelta 必须是可加语义（apply-delta 而非 overwrite），
//     且在重试下幂等由存储侧保证（例如原子 HIncrBy + 去重键）
//   - GetProfile 对未知用户返回 ErrProfileNotFound，调用方按冷启动处理
type AffinityStore interface {
	// GetProfile 读取用户画像（含亲和度表），不存在返回 ErrProfileNotFound
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)

	// SaveProfile 持久化画像文档（偏好/行为统计部分；亲和度以增量为准）
	SaveProfile(ctx context.Context, profile *UserProfile) error

	// ApplyAffinityDelta 对某维度某 key 的亲和度做增量
	ApplyAffinityDelta(ctx context.Context, userID string, kind AffinityKind, key string, delta int64) error

	// AppendInteraction 追加一条交互记录（追加式日志，绝不修改）
	AppendInteraction(ctx context.Context, event *InteractionEvent) error

	// GetInteractionHistory 读取最近 sinceDays 天的交互历史
	GetInteractionHistory(ctx context.Context, userID string, sinceDays int) ([]*InteractionEvent, error)
}

// CatalogFilter 目录查询条件。
type CatalogFilter struct {
	Category string
	Limit    int
}

// CatalogProvider 是候选目录的协作方。推荐核心只读，绝不回写目录。
type CatalogProvider interface {
	// ListCandidates 列出候选物品；filter 可为 nil
	ListCandidates(ctx context.Context, filter *CatalogFilter) ([]*CandidateItem, error)

	// GetItem 按 ID 取单个物品，不存在返回 NOT_FOUND 领域错误
	GetItem(ctx context.Context, itemID string) (*CandidateItem, error)
}

// Clock 是时间源。显式注入而非读全局时钟，保证时间相关打分可测。
type Clock interface {
	// Now 返回当前时间
	Now() time.Time

	// Hour 返回当前小时（0-23），时间上下文打分用
	Hour() int
}

// SystemClock 是系统时钟实现。
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
func (SystemClock) Hour() int      { return time.Now().Hour() }

var _ Clock = SystemClock{}
