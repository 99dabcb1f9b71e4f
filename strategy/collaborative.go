package strategy

import (
	"context"
	"math"

	"github.com/rushteam/persona/core"
)

// Collaborative 是简化版协同策略。
//
// 注意：这里没有真正的用户-用户相似度计算，而是用目录侧的热度/参与度
// 聚合作为协同信号的代理。这是刻意保留的语义（而非待办）：在没有离线
// 训练模型的前提下，聚合热度是"相似用户也喜欢"的最稳定近似。
//
// 打分公式：
//   - popularity = avg(min(1, likes/5000), min(1, downloads/200000))
//   - engagement = avg(min(1, discussions/300), min(1, generated/100000))
//   - relevance  = 0.3×popularity（>0.6 时计入）+ 0.4×engagement（>0.5 时计入）
//
// 入选条件：relevance > 0.3；confidence = relevance × 0.8（相对内容策略刻意打折）。
type Collaborative struct{}

func (s *Collaborative) Name() string   { return "strategy.collaborative" }
func (s *Collaborative) Share() float64 { return ShareCollaborative }

// 热度归一化上限。
const (
	likeCeiling       = 5000
	downloadCeiling   = 200000
	discussionCeiling = 300
	generatedCeiling  = 100000
)

const (
	popularityFloor      = 0.6
	engagementFloor      = 0.5
	collabRelevanceFloor = 0.3
)

func (s *Collaborative) Score(
	_ context.Context,
	_ *core.UserProfile,
	_ *core.RecommendContext,
	candidates []*core.CandidateItem,
	limit int,
) ([]*core.Recommendation, error) {
	if limit <= 0 {
		return nil, nil
	}

	out := make([]*core.Recommendation, 0, limit)
	for _, item := range candidates {
		pop := popularityScore(item)
		eng := engagementScore(item)

		var relevance float64
		var reasons []core.Reason

		if pop > popularityFloor {
			relevance += 0.3 * pop
			reasons = append(reasons, core.Reason{
				Type:        core.ReasonSimilarUsers,
				Strength:    pop,
				Description: "popular with users who share your taste",
			})
		}
		if eng > engagementFloor {
			relevance += 0.4 * eng
			reasons = append(reasons, core.Reason{
				Type:        core.ReasonCollaborativeFiltering,
				Strength:    eng,
				Description: "drives strong engagement across the community",
			})
		}

		if relevance <= collabRelevanceFloor {
			continue
		}

		out = append(out, &core.Recommendation{
			Item:       item,
			Relevance:  relevance,
			Confidence: relevance * 0.8,
			Reasons:    reasons,
		})
	}

	return sortTruncate(out, limit), nil
}

// popularityScore 归一化热度信号：点赞与下载各自封顶后取平均。
func popularityScore(item *core.CandidateItem) float64 {
	likes := math.Min(1, float64(item.LikeCount)/likeCeiling)
	downloads := math.Min(1, float64(item.DownloadCount)/downloadCeiling)
	return (likes + downloads) / 2
}

// engagementScore 归一化参与度信号：讨论与二次生成各自封顶后取平均。
func engagementScore(item *core.CandidateItem) float64 {
	discussions := math.Min(1, float64(item.DiscussionCount)/discussionCeiling)
	generated := math.Min(1, float64(item.GeneratedCount)/generatedCeiling)
	return (discussions + generated) / 2
}
