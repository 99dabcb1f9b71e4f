package core

import (
	"sort"
	"time"
)

// SpeedPreference 生成速度偏好。
type SpeedPreference string

const (
	SpeedFast     SpeedPreference = "fast"
	SpeedBalanced SpeedPreference = "balanced"
	SpeedQuality  SpeedPreference = "quality"
)

// ComplexityLevel 内容复杂度偏好。
type ComplexityLevel string

const (
	ComplexityBeginner     ComplexityLevel = "beginner"
	ComplexityIntermediate ComplexityLevel = "intermediate"
	ComplexityAdvanced     ComplexityLevel = "advanced"
)

// ExpertiseLevel 由交互量与多样性推导出的用户熟练度档位。
type ExpertiseLevel string

const (
	ExpertiseNovice       ExpertiseLevel = "novice"
	ExpertiseIntermediate ExpertiseLevel = "intermediate"
	ExpertiseExpert       ExpertiseLevel = "expert"
	ExpertisePowerUser    ExpertiseLevel = "power_user"
)

// Preferences 是用户的显式/习得偏好。
// 列表均有容量上限：类目 ≤5、提供方 ≤3，超限时淘汰最旧的条目。
type Preferences struct {
	Categories       []string        // 偏好类目（有序，≤5）
	Providers        []string        // 偏好提供方（有序，≤3）
	Tags             map[string]bool // 偏好标签集合
	QualityThreshold float64         // 质量阈值，0-100
	Speed            SpeedPreference
	Complexity       ComplexityLevel
}

// 偏好列表容量上限。
const (
	MaxPreferredCategories = 5
	MaxPreferredProviders  = 3
)

// BehaviorMetrics 是用户的行为统计。
type BehaviorMetrics struct {
	ExplorationScore  float64 // 探索倾向，0-100
	AvgSessionSeconds float64 // 平均会话时长（秒）
	MostActiveHour    int     // 最活跃小时，0-23
	TotalInteractions int     // 累计交互次数
}

// EngagementScores 是用户的亲和度画像。
// 亲和度（affinity）是 0-100 的增量习得分，来源是交互事件。
type EngagementScores struct {
	CategoryAffinities  map[string]float64 // 类目 → 0-100
	ProviderAffinities  map[string]float64 // 提供方 → 0-100
	QualityAppreciation float64            // 质量敏感度，0-100
	DiversityIndex      float64            // 多样性指数，0-1
}

// UserProfile 是用户画像的核心抽象。
//
// 一句话定义：用户画像 = 策略打分的"全局上下文 + 决策信号"。
//
// 设计要点：
//   - 值语义：画像本身不含锁，学习路径"计算下一状态"后整体替换
//   - 每个分数字段在任何写入处都 clamp 到声明范围
//   - 持久副本在 AffinityStore，内存副本只是可刷新的缓存
type UserProfile struct {
	UserID      string
	Preferences Preferences
	Behavior    BehaviorMetrics
	Engagement  EngagementScores
	UpdateTime  time.Time
}

// NewUserProfile 创建冷启动默认画像：空亲和度、低探索倾向。
// 默认探索分必须低于探索策略的意愿门槛（0.3×100）：冷启动用户的
// 内容/探索策略自然产出空集，趋势策略成为事实上的兜底。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID: userID,
		Preferences: Preferences{
			Categories:       make([]string, 0, MaxPreferredCategories),
			Providers:        make([]string, 0, MaxPreferredProviders),
			Tags:             make(map[string]bool),
			QualityThreshold: 50,
			Speed:            SpeedBalanced,
			Complexity:       ComplexityBeginner,
		},
		Behavior: BehaviorMetrics{
			ExplorationScore: 20,
		},
		Engagement: EngagementScores{
			CategoryAffinities: make(map[string]float64),
			ProviderAffinities: make(map[string]float64),
		},
		UpdateTime: time.Time{},
	}
}

// Clone 返回画像的深拷贝，供"计算下一状态"式更新使用。
func (p *UserProfile) Clone() *UserProfile {
	next := *p
	next.Preferences.Categories = append([]string(nil), p.Preferences.Categories...)
	next.Preferences.Providers = append([]string(nil), p.Preferences.Providers...)
	next.Preferences.Tags = make(map[string]bool, len(p.Preferences.Tags))
	for k, v := range p.Preferences.Tags {
		next.Preferences.Tags[k] = v
	}
	next.Engagement.CategoryAffinities = make(map[string]float64, len(p.Engagement.CategoryAffinities))
	for k, v := range p.Engagement.CategoryAffinities {
		next.Engagement.CategoryAffinities[k] = v
	}
	next.Engagement.ProviderAffinities = make(map[string]float64, len(p.Engagement.ProviderAffinities))
	for k, v := range p.Engagement.ProviderAffinities {
		next.Engagement.ProviderAffinities[k] = v
	}
	return &next
}

// clampRange 把 v 限制在 [lo, hi]。
func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetCategoryAffinity 写入类目亲和度，clamp 到 [0,100]。
func (p *UserProfile) SetCategoryAffinity(category string, score float64) {
	if p.Engagement.CategoryAffinities == nil {
		p.Engagement.CategoryAffinities = make(map[string]float64)
	}
	p.Engagement.CategoryAffinities[category] = clampRange(score, 0, 100)
}

// AddCategoryAffinity 对类目亲和度做增量，clamp 到 [0,100]。
func (p *UserProfile) AddCategoryAffinity(category string, delta float64) {
	p.SetCategoryAffinity(category, p.CategoryAffinity(category)+delta)
}

// SetProviderAffinity 写入提供方亲和度，clamp 到 [0,100]。
func (p *UserProfile) SetProviderAffinity(provider string, score float64) {
	if p.Engagement.ProviderAffinities == nil {
		p.Engagement.ProviderAffinities = make(map[string]float64)
	}
	p.Engagement.ProviderAffinities[provider] = clampRange(score, 0, 100)
}

// AddProviderAffinity 对提供方亲和度做增量，clamp 到 [0,100]。
func (p *UserProfile) AddProviderAffinity(provider string, delta float64) {
	p.SetProviderAffinity(provider, p.ProviderAffinity(provider)+delta)
}

// SetQualityThreshold 写入质量阈值，clamp 到 [0,100]。
func (p *UserProfile) SetQualityThreshold(v float64) {
	p.Preferences.QualityThreshold = clampRange(v, 0, 100)
}

// SetExplorationScore 写入探索倾向，clamp 到 [0,100]。
func (p *UserProfile) SetExplorationScore(v float64) {
	p.Behavior.ExplorationScore = clampRange(v, 0, 100)
}

// SetDiversityIndex 写入多样性指数，clamp 到 [0,1]。
func (p *UserProfile) SetDiversityIndex(v float64) {
	p.Engagement.DiversityIndex = clampRange(v, 0, 1)
}

// CategoryAffinity 返回类目亲和度原始分（0-100），无记录返回 0。
func (p *UserProfile) CategoryAffinity(category string) float64 {
	if p.Engagement.CategoryAffinities == nil {
		return 0
	}
	return p.Engagement.CategoryAffinities[category]
}

// ProviderAffinity 返回提供方亲和度原始分（0-100），无记录返回 0。
func (p *UserProfile) ProviderAffinity(provider string) float64 {
	if p.Engagement.ProviderAffinities == nil {
		return 0
	}
	return p.Engagement.ProviderAffinities[provider]
}

// CategoryWeight 返回归一化类目亲和度（0-1），策略打分用。
func (p *UserProfile) CategoryWeight(category string) float64 {
	return p.CategoryAffinity(category) / 100
}

// ProviderWeight 返回归一化提供方亲和度（0-1）。
func (p *UserProfile) ProviderWeight(provider string) float64 {
	return p.ProviderAffinity(provider) / 100
}

// ExplorationWillingness 返回归一化探索意愿（0-1）。
func (p *UserProfile) ExplorationWillingness() float64 {
	return p.Behavior.ExplorationScore / 100
}

// 参与度归一化上限：会话时长 10 分钟封顶、交互量 100 次封顶。
const (
	sessionCeilingSeconds   = 600
	interactionCeilingCount = 100
)

// EngagementLevel 返回整体参与度（整数百分比）。
// 三个分量等权：归一化会话时长、探索倾向、归一化交互量。
func (p *UserProfile) EngagementLevel() int {
	session := clampRange(p.Behavior.AvgSessionSeconds/sessionCeilingSeconds, 0, 1)
	exploration := p.Behavior.ExplorationScore / 100
	volume := clampRange(float64(p.Behavior.TotalInteractions)/interactionCeilingCount, 0, 1)
	return int((session + exploration + volume) / 3 * 100)
}

// Expertise 返回用户熟练度档位。
// 阈值：<10 次交互为 novice；<50 次或多样性 <0.3 为 intermediate；
// <200 次或多样性 <0.6 为 expert；否则 power_user。
func (p *UserProfile) Expertise() ExpertiseLevel {
	n := p.Behavior.TotalInteractions
	d := p.Engagement.DiversityIndex
	switch {
	case n < 10:
		return ExpertiseNovice
	case n < 50 || d < 0.3:
		return ExpertiseIntermediate
	case n < 200 || d < 0.6:
		return ExpertiseExpert
	default:
		return ExpertisePowerUser
	}
}

// TopCategories 返回亲和度最高的 n 个类目（分数降序，同分按名称升序保证确定性）。
func (p *UserProfile) TopCategories(n int) []string {
	if n <= 0 || len(p.Engagement.CategoryAffinities) == 0 {
		return nil
	}
	cats := make([]string, 0, len(p.Engagement.CategoryAffinities))
	for c := range p.Engagement.CategoryAffinities {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		si, sj := p.Engagement.CategoryAffinities[cats[i]], p.Engagement.CategoryAffinities[cats[j]]
		if si != sj {
			return si > sj
		}
		return cats[i] < cats[j]
	})
	if len(cats) > n {
		cats = cats[:n]
	}
	return cats
}

// ProfileContext 是画像的推荐视角摘要：给策略/运营侧解释用的派生档位。
type ProfileContext struct {
	TopCategories          []string
	QualityExpectation     string // premium / high / standard / any
	ExplorationWillingness string // adventurous / curious / familiar
	TimeConstraint         string // tight / moderate / relaxed
}

// RecommendationContext 派生画像摘要。纯函数，无副作用。
func (p *UserProfile) RecommendationContext() ProfileContext {
	pc := ProfileContext{TopCategories: p.TopCategories(3)}

	switch q := p.Preferences.QualityThreshold; {
	case q >= 80:
		pc.QualityExpectation = "premium"
	case q >= 60:
		pc.QualityExpectation = "high"
	case q >= 40:
		pc.QualityExpectation = "standard"
	default:
		pc.QualityExpectation = "any"
	}

	switch w := p.ExplorationWillingness(); {
	case w >= 0.7:
		pc.ExplorationWillingness = "adventurous"
	case w >= 0.3:
		pc.ExplorationWillingness = "curious"
	default:
		pc.ExplorationWillingness = "familiar"
	}

	switch p.Preferences.Speed {
	case SpeedFast:
		pc.TimeConstraint = "tight"
	case SpeedQuality:
		pc.TimeConstraint = "relaxed"
	default:
		pc.TimeConstraint = "moderate"
	}

	return pc
}
