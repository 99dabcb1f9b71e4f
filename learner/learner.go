// Package learner 实现行为学习：消费交互事件，产出洞察与亲和度增量，
// 并计算更新后的偏好画像（"计算下一状态"，不原地修改输入画像）。
package learner

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/rushteam/persona/core"
)

// Config 是学习器的阈值配置。零值字段取 DefaultConfig 的默认值。
type Config struct {
	// 回看窗口边界：1000 条或 30 天，先到为准
	WindowSize int
	WindowDays int

	// 类目洞察：≥3 条同类目先验观测，平均参与度 >7
	CategoryMinPrior        int
	CategoryEngagementFloor float64

	// 提供方洞察：≥2 条同提供方先验观测（只看最近 5 条），平均参与度 >6
	ProviderMinPrior         int
	ProviderRecentConsidered int
	ProviderEngagementFloor  float64

	// 质量洞察：当前参与度 ≥8 且物品质量 >80
	QualityEngagementFloor int
	QualityRatingFloor     float64

	// 时段洞察：近 7 天 ≥5 次交互，当前小时是众数小时且 ≥3 次
	TimingRecentDays    int
	TimingMinRecent     int
	TimingModalMinCount int

	// 洞察转化为可执行建议的置信度门槛（严格大于）
	ActionableConfidence float64

	// 偏好晋升门槛：boost 超过该值才进入偏好列表
	CategoryBoostFloor float64
	ProviderBoostFloor float64
}

// DefaultConfig 返回默认阈值。
func DefaultConfig() Config {
	return Config{
		WindowSize:               1000,
		WindowDays:               30,
		CategoryMinPrior:         3,
		CategoryEngagementFloor:  7,
		ProviderMinPrior:         2,
		ProviderRecentConsidered: 5,
		ProviderEngagementFloor:  6,
		QualityEngagementFloor:   8,
		QualityRatingFloor:       80,
		TimingRecentDays:         7,
		TimingMinRecent:          5,
		TimingModalMinCount:      3,
		ActionableConfidence:     0.6,
		CategoryBoostFloor:       0.3,
		ProviderBoostFloor:       0.4,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.WindowSize <= 0 {
		c.WindowSize = def.WindowSize
	}
	if c.WindowDays <= 0 {
		c.WindowDays = def.WindowDays
	}
	if c.CategoryMinPrior <= 0 {
		c.CategoryMinPrior = def.CategoryMinPrior
	}
	if c.CategoryEngagementFloor <= 0 {
		c.CategoryEngagementFloor = def.CategoryEngagementFloor
	}
	if c.ProviderMinPrior <= 0 {
		c.ProviderMinPrior = def.ProviderMinPrior
	}
	if c.ProviderRecentConsidered <= 0 {
		c.ProviderRecentConsidered = def.ProviderRecentConsidered
	}
	if c.ProviderEngagementFloor <= 0 {
		c.ProviderEngagementFloor = def.ProviderEngagementFloor
	}
	if c.QualityEngagementFloor <= 0 {
		c.QualityEngagementFloor = def.QualityEngagementFloor
	}
	if c.QualityRatingFloor <= 0 {
		c.QualityRatingFloor = def.QualityRatingFloor
	}
	if c.TimingRecentDays <= 0 {
		c.TimingRecentDays = def.TimingRecentDays
	}
	if c.TimingMinRecent <= 0 {
		c.TimingMinRecent = def.TimingMinRecent
	}
	if c.TimingModalMinCount <= 0 {
		c.TimingModalMinCount = def.TimingModalMinCount
	}
	if c.ActionableConfidence <= 0 {
		c.ActionableConfidence = def.ActionableConfidence
	}
	if c.CategoryBoostFloor <= 0 {
		c.CategoryBoostFloor = def.CategoryBoostFloor
	}
	if c.ProviderBoostFloor <= 0 {
		c.ProviderBoostFloor = def.ProviderBoostFloor
	}
	return c
}

// InsightType 洞察类型。
type InsightType string

const (
	InsightCategoryPreference InsightType = "category_preference"
	InsightProviderPreference InsightType = "provider_preference"
	InsightQualityPreference  InsightType = "quality_preference"
	InsightUsageTiming        InsightType = "usage_timing"
)

// Insight 是一条从交互证据中提炼出的行为洞察。
// 每类洞察都有最小证据门槛，噪声不触发学习。
type Insight struct {
	Type        InsightType
	Description string
	Confidence  float64
}

// AffinityDelta 是一次待持久化的亲和度增量（apply-delta 语义，可重放）。
type AffinityDelta struct {
	Kind  core.AffinityKind
	Key   string
	Delta int64
}

// Outcome 是一次学习的产出。
type Outcome struct {
	// Profile 更新后的画像（下一状态，调用方整体替换缓存）
	Profile *core.UserProfile

	// Deltas 本次产生的亲和度增量
	Deltas []AffinityDelta

	// Insights 全部洞察（观测用）
	Insights []Insight

	// Actions 置信度超过门槛的可执行建议
	Actions []string
}

// 亲和度增量公式的固定放大系数。
const boostMultiplier = 1.5

// ComputeBoost 计算交互的学习强度：min(1.0, baseWeight × engagement/10 × 1.5)。
// 纯函数：同样的输入永远得到同样的增量，重试不会放大结果。
func ComputeBoost(t core.InteractionType, engagement int) float64 {
	return math.Min(1.0, t.BaseWeight()*float64(engagement)/10*boostMultiplier)
}

// Learner 是行为学习器。
//
// 并发模型：每个用户的画像是一个逻辑资源，RecordInteraction 内部持锁
// 维护窗口；画像本身按值计算下一状态由调用方串行应用。持久化走
// 异步路径，绝不阻塞交互记录的响应，失败时记日志丢弃（best-effort）。
type Learner struct {
	store core.AffinityStore // 可为 nil（纯内存模式，不持久化）
	clock core.Clock
	cfg   Config

	mu      sync.Mutex
	windows map[string]*window
}

// New 创建学习器。store 为 nil 时跳过持久化。
func New(store core.AffinityStore, clock core.Clock, cfg Config) *Learner {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Learner{
		store:   store,
		clock:   clock,
		cfg:     cfg.withDefaults(),
		windows: make(map[string]*window),
	}
}

// RecordInteraction 消费一条交互事件并返回学习产出。
// event 校验失败返回 INVALID_INPUT，不做任何修正或学习。
func (l *Learner) RecordInteraction(profile *core.UserProfile, event *core.InteractionEvent, item *core.CandidateItem) (*Outcome, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, core.NewDomainError(core.ModuleLearner, core.ErrorCodeInvalidInput, "interaction: item is required")
	}

	now := l.clock.Now()
	ev := *event
	if ev.Timestamp.IsZero() {
		ev.Timestamp = now
	}

	l.mu.Lock()
	w, ok := l.windows[ev.UserID]
	if !ok {
		w = newWindow(l.cfg.WindowSize, time.Duration(l.cfg.WindowDays)*24*time.Hour)
		l.windows[ev.UserID] = w
	}

	// 洞察基于先验证据（追加当前事件之前的窗口）
	insights := l.deriveInsights(w, &ev, item)

	w.append(&record{
		event:    &ev,
		category: item.Category,
		provider: item.Provider,
		quality:  item.QualityRating,
	}, now)
	distinctCats := w.distinctCategories()
	recent := w.since(now.Add(-time.Duration(l.cfg.TimingRecentDays) * 24 * time.Hour))
	l.mu.Unlock()

	boost := ComputeBoost(ev.Type, ev.Engagement)
	delta := int64(math.Round(boost * 100))

	next := l.nextProfile(profile, &ev, item, boost, delta, now, distinctCats, recent)

	deltas := make([]AffinityDelta, 0, 2)
	if item.Category != "" {
		deltas = append(deltas, AffinityDelta{Kind: core.AffinityCategory, Key: item.Category, Delta: delta})
	}
	if item.Provider != "" {
		deltas = append(deltas, AffinityDelta{Kind: core.AffinityProvider, Key: item.Provider, Delta: delta})
	}

	outcome := &Outcome{
		Profile:  next,
		Deltas:   deltas,
		Insights: insights,
		Actions:  l.actionsFrom(insights),
	}

	// 异步持久化：增量 + 事件追加；失败记日志丢弃，绝不影响调用方
	if l.store != nil {
		go l.persist(ev.UserID, deltas, &ev, next)
	}

	return outcome, nil
}

// deriveInsights 依据先验窗口推导最多四类洞察。调用方持有 l.mu。
func (l *Learner) deriveInsights(w *window, ev *core.InteractionEvent, item *core.CandidateItem) []Insight {
	insights := make([]Insight, 0, 4)

	// 类目洞察
	if priors := w.byCategory(item.Category); len(priors) >= l.cfg.CategoryMinPrior {
		if avg := avgEngagement(priors); avg > l.cfg.CategoryEngagementFloor {
			insights = append(insights, Insight{
				Type:        InsightCategoryPreference,
				Description: fmt.Sprintf("consistently high engagement with %s content", item.Category),
				Confidence:  math.Min(0.9, avg/10),
			})
		}
	}

	// 提供方洞察：只看最近 5 条同提供方观测
	if priors := w.byProvider(item.Provider); len(priors) >= l.cfg.ProviderMinPrior {
		recent := priors
		if len(recent) > l.cfg.ProviderRecentConsidered {
			recent = recent[len(recent)-l.cfg.ProviderRecentConsidered:]
		}
		if avg := avgEngagement(recent); avg > l.cfg.ProviderEngagementFloor {
			insights = append(insights, Insight{
				Type:        InsightProviderPreference,
				Description: fmt.Sprintf("strong preference for provider %s", item.Provider),
				Confidence:  math.Min(0.8, avg/10),
			})
		}
	}

	// 质量洞察
	if ev.Engagement >= l.cfg.QualityEngagementFloor && item.QualityRating > l.cfg.QualityRatingFloor {
		insights = append(insights, Insight{
			Type:        InsightQualityPreference,
			Description: "responds strongly to high-quality content",
			Confidence:  0.7,
		})
	}

	// 时段洞察
	cutoff := l.clock.Now().Add(-time.Duration(l.cfg.TimingRecentDays) * 24 * time.Hour)
	if recent := w.since(cutoff); len(recent) >= l.cfg.TimingMinRecent {
		if hour, count := modalHour(recent); hour == l.clock.Hour() && count >= l.cfg.TimingModalMinCount {
			insights = append(insights, Insight{
				Type:        InsightUsageTiming,
				Description: fmt.Sprintf("most active around %02d:00", hour),
				Confidence:  0.6,
			})
		}
	}

	return insights
}

// nextProfile 计算画像的下一状态：亲和度、行为统计、偏好晋升。
func (l *Learner) nextProfile(
	profile *core.UserProfile,
	ev *core.InteractionEvent,
	item *core.CandidateItem,
	boost float64,
	delta int64,
	now time.Time,
	distinctCats int,
	recent []*record,
) *core.UserProfile {
	next := profile.Clone()

	if item.Category != "" {
		next.AddCategoryAffinity(item.Category, float64(delta))
	}
	if item.Provider != "" {
		next.AddProviderAffinity(item.Provider, float64(delta))
	}

	next.Behavior.TotalInteractions++
	if ev.SessionSeconds > 0 {
		n := float64(next.Behavior.TotalInteractions)
		next.Behavior.AvgSessionSeconds = (next.Behavior.AvgSessionSeconds*(n-1) + ev.SessionSeconds) / n
	}

	// 众数小时与多样性指数：从窗口派生的 advisory 字段，append 时顺带刷新
	if hour, count := modalHour(recent); count > 0 {
		next.Behavior.MostActiveHour = hour
	}
	next.SetDiversityIndex(float64(distinctCats) / 10)

	// 偏好晋升：boost 超过门槛才进入偏好列表，超容量淘汰最旧条目
	if boost > l.cfg.CategoryBoostFloor && item.Category != "" {
		next.Preferences.Categories = appendCapped(next.Preferences.Categories, item.Category, core.MaxPreferredCategories)
	}
	if boost > l.cfg.ProviderBoostFloor && item.Provider != "" {
		next.Preferences.Providers = appendCapped(next.Preferences.Providers, item.Provider, core.MaxPreferredProviders)
	}

	// 质量阈值上调：高参与且物品质量超过当前阈值时 +5，封顶 95
	if ev.Engagement >= l.cfg.QualityEngagementFloor && item.QualityRating > next.Preferences.QualityThreshold {
		next.SetQualityThreshold(math.Min(95, next.Preferences.QualityThreshold+5))
	}

	next.UpdateTime = now
	return next
}

// actionsFrom 把高置信度洞察转化为可执行建议。
func (l *Learner) actionsFrom(insights []Insight) []string {
	actions := make([]string, 0, len(insights))
	for _, in := range insights {
		if in.Confidence > l.cfg.ActionableConfidence {
			actions = append(actions, in.Description)
		}
	}
	return actions
}

// persist 异步持久化增量与事件。best-effort：失败记日志丢弃。
func (l *Learner) persist(userID string, deltas []AffinityDelta, ev *core.InteractionEvent, next *core.UserProfile) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, d := range deltas {
		if err := l.store.ApplyAffinityDelta(ctx, userID, d.Kind, d.Key, d.Delta); err != nil {
			log.Printf("learner: drop affinity delta user=%s kind=%s key=%s: %v", userID, d.Kind, d.Key, err)
		}
	}
	if err := l.store.AppendInteraction(ctx, ev); err != nil {
		log.Printf("learner: drop interaction append user=%s item=%s: %v", userID, ev.ItemID, err)
	}
	if err := l.store.SaveProfile(ctx, next); err != nil {
		log.Printf("learner: drop profile save user=%s: %v", userID, err)
	}
}

// appendCapped 把 v 追加进有容量上限的有序列表（已存在则不动，满了淘汰最旧）。
func appendCapped(list []string, v string, max int) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	list = append(list, v)
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}
