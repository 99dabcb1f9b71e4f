package strategy

import (
	"context"

	"github.com/rushteam/persona/core"
)

// Exploration 是探索策略：给低亲和度类目一个出场机会，避免画像固化。
//
// 探索意愿 < 0.3 时整个策略直接早退（用户偏好熟悉内容），
// 而不是产出零分结果。否则选取类目亲和度 < 0.3 的候选：
// relevance = 意愿×0.6，confidence 固定 0.5，diversityFactor 固定 1.0。
type Exploration struct{}

func (s *Exploration) Name() string   { return "strategy.exploration" }
func (s *Exploration) Share() float64 { return ShareExploration }

const (
	explorationWillingnessFloor = 0.3
	underExploredAffinityCeil   = 0.3
	explorationConfidence       = 0.5
)

func (s *Exploration) Score(
	_ context.Context,
	profile *core.UserProfile,
	_ *core.RecommendContext,
	candidates []*core.CandidateItem,
	limit int,
) ([]*core.Recommendation, error) {
	if limit <= 0 {
		return nil, nil
	}

	willingness := profile.ExplorationWillingness()
	if willingness < explorationWillingnessFloor {
		return nil, nil
	}

	out := make([]*core.Recommendation, 0, limit)
	for _, item := range candidates {
		if profile.CategoryWeight(item.Category) >= underExploredAffinityCeil {
			continue
		}
		out = append(out, &core.Recommendation{
			Item:            item,
			Relevance:       willingness * 0.6,
			Confidence:      explorationConfidence,
			DiversityFactor: 1.0,
			Reasons: []core.Reason{{
				Type:        core.ReasonExploration,
				Strength:    willingness,
				Description: "something new outside your usual categories",
			}},
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
