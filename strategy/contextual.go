package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/persona/core"
)

// Contextual 是场景策略：基于"此时此刻"的会话与时间信号加权。
//
// 加成来源：
//   - 时间上下文：当前小时接近用户最活跃小时（>0.7 时 contextualBoost += 0.2×boost）
//   - 会话类目命中：item 类目等于会话当前类目（relevance += 0.4，contextualBoost += 0.3）
//   - 近期浏览相似：relevance += 0.3×近期浏览同类占比
//
// 入选条件：relevance > 0.2 或 contextualBoost > 0.1；
// confidence = min(0.95, relevance + contextualBoost + 0.1)。
type Contextual struct {
	Clock core.Clock
}

func (s *Contextual) Name() string   { return "strategy.contextual" }
func (s *Contextual) Share() float64 { return ShareContextual }

const (
	timeBoostFloor       = 0.7
	ctxRelevanceFloor    = 0.2
	ctxBoostFloor        = 0.1
	sessionCategoryBonus = 0.4
	sessionCategoryBoost = 0.3
)

func (s *Contextual) Score(
	_ context.Context,
	profile *core.UserProfile,
	rctx *core.RecommendContext,
	candidates []*core.CandidateItem,
	limit int,
) ([]*core.Recommendation, error) {
	if limit <= 0 {
		return nil, nil
	}

	// 最活跃小时只有在确实观察过交互后才有意义
	timeBoost := 0.0
	if s.Clock != nil && profile.Behavior.TotalInteractions > 0 {
		timeBoost = hourProximity(s.Clock.Hour(), profile.Behavior.MostActiveHour)
	}

	out := make([]*core.Recommendation, 0, limit)
	for _, item := range candidates {
		var relevance, boost float64
		var reasons []core.Reason

		if timeBoost > timeBoostFloor {
			boost += 0.2 * timeBoost
			reasons = append(reasons, core.Reason{
				Type:        core.ReasonTimeContext,
				Strength:    timeBoost,
				Description: "you are usually active around this hour",
			})
		}

		if c := rctx.Session.CurrentCategory; c != "" && c == item.Category {
			relevance += sessionCategoryBonus
			boost += sessionCategoryBoost
			reasons = append(reasons, core.Reason{
				Type:        core.ReasonBehavioralPattern,
				Strength:    1,
				Description: fmt.Sprintf("you are browsing %s right now", c),
			})
		}

		if sim := rctx.Session.ViewedShare(item.Category); sim > 0 {
			relevance += 0.3 * sim
			reasons = append(reasons, core.Reason{
				Type:        core.ReasonBehavioralPattern,
				Strength:    sim,
				Description: "similar to what you viewed this session",
			})
		}

		if (relevance <= ctxRelevanceFloor && boost <= ctxBoostFloor) || len(reasons) == 0 {
			continue
		}

		out = append(out, &core.Recommendation{
			Item:            item,
			Relevance:       relevance,
			Confidence:      math.Min(0.95, relevance+boost+0.1),
			Reasons:         reasons,
			ContextualBoost: boost,
		})
	}

	return sortTruncate(out, limit), nil
}

// hourProximity 计算两个小时位的环形接近度（0-1，重合为 1，相距 12 小时为 0）。
func hourProximity(now, active int) float64 {
	d := now - active
	if d < 0 {
		d = -d
	}
	if d > 12 {
		d = 24 - d
	}
	return 1 - float64(d)/12
}
