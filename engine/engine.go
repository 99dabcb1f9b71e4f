// Package engine 编排个性化推荐：加载画像、裁剪候选、并发执行五路策略、
// 合并结果；同时暴露反馈入口驱动行为学习。
package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/persona/combiner"
	"github.com/rushteam/persona/core"
	"github.com/rushteam/persona/feedback"
	"github.com/rushteam/persona/filter"
	"github.com/rushteam/persona/learner"
	"github.com/rushteam/persona/strategy"
)

// Engine 是个性化推荐的编排入口。
//
// 并发模型：
//   - 打分是请求级只读 fan-out：策略在画像/候选快照上并发执行，
//     等待全部完成（不因单路失败短路），失败的策略按空结果处理
//   - 学习是唯一的共享可变路径：同一用户的写入用 per-user 锁串行化，
//     避免多端并发交互下的丢失更新
type Engine struct {
	catalog  core.CatalogProvider
	affinity core.AffinityStore
	clock    core.Clock

	strategies []strategy.Strategy
	comb       *combiner.Combiner
	learn      *learner.Learner
	learnCfg   *learner.Config
	filters    []filter.Filter
	collector  feedback.Collector

	// timeout 包住整个策略 fan-out；0 表示只受调用方 deadline 约束
	timeout time.Duration

	// 画像的内存缓存（可刷新；持久源头在 AffinityStore）
	profMu   sync.RWMutex
	profiles map[string]*core.UserProfile

	// per-user 学习写锁
	lockMu    sync.Mutex
	userLocks map[string]*sync.Mutex
}

// Option 配置 Engine。
type Option func(*Engine)

// WithClock 注入时间源（测试/时间上下文打分用）。
func WithClock(clock core.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithStrategies 替换策略集合。
func WithStrategies(strategies ...strategy.Strategy) Option {
	return func(e *Engine) { e.strategies = strategies }
}

// WithCombiner 替换合并器。
func WithCombiner(c *combiner.Combiner) Option {
	return func(e *Engine) { e.comb = c }
}

// WithFilters 追加候选过滤器（排除列表之外的资格规则）。
func WithFilters(filters ...filter.Filter) Option {
	return func(e *Engine) { e.filters = append(e.filters, filters...) }
}

// WithCollector 注入交互事件采集器。
func WithCollector(c feedback.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// WithLearnerConfig 覆盖学习器阈值。
func WithLearnerConfig(cfg learner.Config) Option {
	return func(e *Engine) { e.learnCfg = &cfg }
}

// WithTimeout 设置策略 fan-out 的整体超时。
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// New 创建推荐引擎。catalog 与 affinity 是必需的外部协作方。
func New(catalog core.CatalogProvider, affinity core.AffinityStore, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		affinity:  affinity,
		clock:     core.SystemClock{},
		comb:      &combiner.Combiner{},
		profiles:  make(map[string]*core.UserProfile),
		userLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.strategies == nil {
		e.strategies = strategy.Defaults(e.clock)
	}
	cfg := learner.DefaultConfig()
	if e.learnCfg != nil {
		cfg = *e.learnCfg
	}
	e.learn = learner.New(e.affinity, e.clock, cfg)
	return e
}

// GetRecommendations 为用户生成个性化推荐列表。
//
// 未知用户合成冷启动默认画像继续正常打分（不报错）：默认画像上
// 内容/协同/探索策略自然产出空集，趋势策略成为事实上的兜底。
// 目录为空返回空列表而非错误。
func (e *Engine) GetRecommendations(ctx context.Context, rctx *core.RecommendContext) ([]*core.Recommendation, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: user id is required")
	}
	if rctx.MaxResults <= 0 {
		return []*core.Recommendation{}, nil
	}

	profile := e.profile(ctx, rctx.UserID)

	candidates, err := e.catalog.ListCandidates(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []*core.Recommendation{}, nil
	}

	// 会话浏览记录先在完整候选集上解析类目分布（被排除的物品也算浏览史）
	request := *rctx
	request.Session.ViewedCategories = resolveViewedCategories(candidates, rctx.Session.ItemsViewed)

	candidates = filter.ExcludeSet(candidates, rctx.ExcludeSet())
	candidates = filter.Apply(ctx, &request, candidates, e.filters)

	results := e.fanout(ctx, profile, &request, candidates)
	return e.comb.Combine(results, rctx.MaxResults), nil
}

// fanout 并发执行全部策略并收集结果。结构化并发：等待所有策略返回，
// 单个策略失败按空结果处理（隔离故障，不传播到整个请求）。
func (e *Engine) fanout(
	ctx context.Context,
	profile *core.UserProfile,
	rctx *core.RecommendContext,
	candidates []*core.CandidateItem,
) [][]*core.Recommendation {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	results := make([][]*core.Recommendation, len(e.strategies))
	eg, ctx := errgroup.WithContext(ctx)

	for i, s := range e.strategies {
		i, s := i, s
		eg.Go(func() error {
			limit := strategy.BucketLimit(rctx.MaxResults, s.Share())
			recs, err := s.Score(ctx, profile, rctx, candidates, limit)
			if err != nil {
				log.Printf("engine: strategy %s failed, contributing empty set: %v", s.Name(), err)
				return nil
			}
			results[i] = recs
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// RecordFeedback 记录一次用户反馈并驱动行为学习。
// 非法输入同步拒绝（INVALID_INPUT）；学习持久化是异步 best-effort 路径，
// 存储不可用时记日志丢弃，绝不让调用方感知硬失败。
func (e *Engine) RecordFeedback(ctx context.Context, userID, itemID string, interaction core.InteractionType, engagementLevel int) error {
	event := &core.InteractionEvent{
		UserID:     userID,
		ItemID:     itemID,
		Type:       interaction,
		Engagement: engagementLevel,
		Timestamp:  e.clock.Now(),
	}
	if err := event.Validate(); err != nil {
		return err
	}

	item, err := e.catalog.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	// 同一用户的学习写入串行化，防止多端并发下的丢失更新
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	profile := e.profile(ctx, userID)
	outcome, err := e.learn.RecordInteraction(profile, event, item)
	if err != nil {
		return err
	}

	e.profMu.Lock()
	e.profiles[userID] = outcome.Profile
	e.profMu.Unlock()

	if e.collector != nil {
		// 采集器内部缓冲，本调用不阻塞
		_ = e.collector.Record(ctx, event)
	}
	return nil
}

// Profile 返回用户画像的当前内存副本（缓存未命中时从存储加载）。
func (e *Engine) Profile(ctx context.Context, userID string) *core.UserProfile {
	return e.profile(ctx, userID)
}

// InvalidateProfile 使画像缓存失效，下次请求从 AffinityStore 重新加载。
func (e *Engine) InvalidateProfile(userID string) {
	e.profMu.Lock()
	delete(e.profiles, userID)
	e.profMu.Unlock()
}

func (e *Engine) profile(ctx context.Context, userID string) *core.UserProfile {
	e.profMu.RLock()
	if p, ok := e.profiles[userID]; ok {
		e.profMu.RUnlock()
		return p
	}
	e.profMu.RUnlock()

	p, err := e.affinity.GetProfile(ctx, userID)
	if err != nil {
		switch {
		case core.IsNotFound(err):
			// 未知用户：正常的冷启动路径，不记日志
		case core.IsUnavailable(err):
			log.Printf("engine: profile store unavailable user=%s, using cold-start defaults: %v", userID, err)
		default:
			log.Printf("engine: profile load user=%s failed, using cold-start defaults: %v", userID, err)
		}
		p = core.NewUserProfile(userID)
	}

	e.profMu.Lock()
	e.profiles[userID] = p
	e.profMu.Unlock()
	return p
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	lk, ok := e.userLocks[userID]
	if !ok {
		lk = &sync.Mutex{}
		e.userLocks[userID] = lk
	}
	return lk
}

// resolveViewedCategories 把浏览过的物品 ID 解析成类目分布。
func resolveViewedCategories(candidates []*core.CandidateItem, viewed []string) map[string]int {
	if len(viewed) == 0 {
		return nil
	}
	byID := make(map[string]*core.CandidateItem, len(candidates))
	for _, item := range candidates {
		byID[item.ID] = item
	}
	counts := make(map[string]int)
	for _, id := range viewed {
		if item, ok := byID[id]; ok && item.Category != "" {
			counts[item.Category]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}
