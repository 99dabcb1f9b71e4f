package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/persona/core"
)

// ContentBased 是内容策略："用户喜欢具有某些特征的物品，推荐具有相似特征的其他物品"。
//
// 打分公式（各项仅在超过门槛时计入，每个计入项产生一条理由）：
//   - 0.4 × 类目亲和度（>0.3 时计入）
//   - 0.2 × 提供方偏好（有亲和度记录即计入）
//   - 0.3 × 质量契合度（>0.5 且画像有交互观测时计入，
//     默认质量阈值不构成偏好证据）
//   - 0.1 × 标签相似度（>0.4 时计入）
//
// 入选条件：relevance > 0.2 且至少一条理由；confidence = min(0.9, relevance+0.1)。
// 全默认画像上所有项都不计入，冷启动用户由趋势策略兜底。
type ContentBased struct{}

func (s *ContentBased) Name() string   { return "strategy.content" }
func (s *ContentBased) Share() float64 { return ShareContent }

// 各打分项的计入门槛。
const (
	categoryAffinityFloor = 0.3
	qualityAlignmentFloor = 0.5
	tagSimilarityFloor    = 0.4
	contentRelevanceFloor = 0.2
)

func (s *ContentBased) Score(
	_ context.Context,
	profile *core.UserProfile,
	_ *core.RecommendContext,
	candidates []*core.CandidateItem,
	limit int,
) ([]*core.Recommendation, error) {
	if limit <= 0 {
		return nil, nil
	}

	out := make([]*core.Recommendation, 0, limit)
	for _, item := range candidates {
		var relevance float64
		var reasons []core.Reason

		if w := profile.CategoryWeight(item.Category); w > categoryAffinityFloor {
			relevance += 0.4 * w
			reasons = append(reasons, core.Reason{
				Type:        core.ReasonCategoryAffinity,
				Strength:    w,
				Description: fmt.Sprintf("matches your interest in %s", item.Category),
			})
		}

		if profile.ProviderAffinity(item.Provider) > 0 {
			relevance += 0.2
			reasons = append(reasons, core.Reason{
				Type:        core.ReasonProviderPreference,
				Strength:    profile.ProviderWeight(item.Provider),
				Description: fmt.Sprintf("from %s, a provider you engage with", item.Provider),
			})
		}

		// 质量契合只有在确实观察过交互后才有意义：默认阈值不是偏好证据
		if profile.Behavior.TotalInteractions > 0 {
			if a := qualityAlignment(item.QualityRating, profile.Preferences.QualityThreshold); a > qualityAlignmentFloor {
				relevance += 0.3 * a
				reasons = append(reasons, core.Reason{
					Type:        core.ReasonQualityMatch,
					Strength:    a,
					Description: "quality level fits your expectations",
				})
			}
		}

		if sim := tagSimilarity(profile.Preferences.Tags, item.TagSet()); sim > tagSimilarityFloor {
			relevance += 0.1 * sim
			reasons = append(reasons, core.Reason{
				Type:        core.ReasonContentBased,
				Strength:    sim,
				Description: "shares tags with content you liked",
			})
		}

		if relevance <= contentRelevanceFloor || len(reasons) == 0 {
			continue
		}

		out = append(out, &core.Recommendation{
			Item:       item,
			Relevance:  relevance,
			Confidence: math.Min(0.9, relevance+0.1),
			Reasons:    reasons,
		})
	}

	return sortTruncate(out, limit), nil
}

// qualityAlignment 计算质量契合度：评分与用户阈值越接近越高（0-1）。
func qualityAlignment(rating, threshold float64) float64 {
	return 1 - math.Abs(rating-threshold)/100
}

// tagSimilarity 计算两个标签集合的 Jaccard 相似度（0-1）。
func tagSimilarity(prefTags, itemTags map[string]bool) float64 {
	if len(prefTags) == 0 || len(itemTags) == 0 {
		return 0
	}
	intersection := 0
	for t := range itemTags {
		if prefTags[t] {
			intersection++
		}
	}
	union := len(prefTags) + len(itemTags) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
