package strategy

import (
	"context"
	"sort"

	"github.com/rushteam/persona/core"
)

// Trending 是趋势策略：加精或高热度物品按趋势分直接取 TopN。
// 它不读画像，因此也是冷启动用户的天然兜底来源——新用户的其余策略
// 在全默认画像上自然产出空集，趋势结果保证响应非空。
//
// 候选池：featured == true 或 likes > 1000；
// 趋势分：likes + 0.1×generatedCount，降序取前 limit；
// 固定 relevance 0.6 / confidence 0.7，单条 trending 理由。
type Trending struct{}

func (s *Trending) Name() string   { return "strategy.trending" }
func (s *Trending) Share() float64 { return ShareTrending }

const (
	trendingLikeFloor  = 1000
	trendingRelevance  = 0.6
	trendingConfidence = 0.7
)

func (s *Trending) Score(
	_ context.Context,
	_ *core.UserProfile,
	_ *core.RecommendContext,
	candidates []*core.CandidateItem,
	limit int,
) ([]*core.Recommendation, error) {
	if limit <= 0 {
		return nil, nil
	}

	pool := make([]*core.CandidateItem, 0, len(candidates))
	for _, item := range candidates {
		if item.Featured || item.LikeCount > trendingLikeFloor {
			pool = append(pool, item)
		}
	}

	sort.Slice(pool, func(i, j int) bool {
		si, sj := trendScore(pool[i]), trendScore(pool[j])
		if si != sj {
			return si > sj
		}
		return pool[i].ID < pool[j].ID
	})
	if len(pool) > limit {
		pool = pool[:limit]
	}

	out := make([]*core.Recommendation, 0, len(pool))
	for _, item := range pool {
		out = append(out, &core.Recommendation{
			Item:       item,
			Relevance:  trendingRelevance,
			Confidence: trendingConfidence,
			Reasons: []core.Reason{{
				Type:        core.ReasonTrending,
				Strength:    trendingRelevance,
				Description: "trending on the platform right now",
			}},
		})
	}
	return out, nil
}

func trendScore(item *core.CandidateItem) float64 {
	return float64(item.LikeCount) + 0.1*float64(item.GeneratedCount)
}
