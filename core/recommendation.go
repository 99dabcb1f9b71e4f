package core

// ReasonType 推荐理由类型。理由是一等公民：每条推荐必须可解释。
type ReasonType string

const (
	ReasonCategoryAffinity       ReasonType = "category_affinity"
	ReasonProviderPreference     ReasonType = "provider_preference"
	ReasonQualityMatch           ReasonType = "quality_match"
	ReasonContentBased           ReasonType = "content_based"
	ReasonSimilarUsers           ReasonType = "similar_users"
	ReasonCollaborativeFiltering ReasonType = "collaborative_filtering"
	ReasonTimeContext            ReasonType = "time_context"
	ReasonBehavioralPattern      ReasonType = "behavioral_pattern"
	ReasonTrending               ReasonType = "trending"
	ReasonExploration            ReasonType = "exploration"
)

// Reason 是单条推荐理由：类型 + 强度 + 人类可读描述。
// 跨策略合并时理由是拼接而非覆盖，保留完整溯源链。
type Reason struct {
	Type        ReasonType
	Strength    float64 // 0-1
	Description string
}

// Recommendation 是一条个性化推荐结果。
//
// 不变式：
//   - 同一响应内物品 ID 唯一
//   - Relevance 在最终 clamp 前可以短暂超过 1，对外返回时落在 [0,1]
//   - Reasons 非空
type Recommendation struct {
	Item       *CandidateItem
	Relevance  float64 // 相关性，0-1
	Confidence float64 // 置信度，0-1
	Reasons    []Reason

	// DiversityFactor 多样性因子，0-1；探索策略固定为 1
	DiversityFactor float64

	// ContextualBoost 场景加成，≥0
	ContextualBoost float64
}
