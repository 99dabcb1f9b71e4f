// Package combiner 把多路策略输出合并成最终的有序推荐列表。
package combiner

import (
	"sort"

	"github.com/rushteam/persona/core"
)

// Combiner 合并策略输出：merge → 去重 → 多样性平衡 → 统一加成 → 截断。
//
// 多样性平衡不是简单重排：按相关性降序遍历，单类目最多放行
// CategoryCap 条；但在结果总数达到 MinAccept 之前不设限，保证即使
// 候选被单一类目垄断，结果也不为空。
type Combiner struct {
	// CategoryCap 单类目上限，0 取默认 3
	CategoryCap int

	// MinAccept 豁免多样性限制的保底条数，0 取默认 5
	MinAccept int
}

// 默认参数与跨策略共识加成。
const (
	defaultCategoryCap = 3
	defaultMinAccept   = 5
	consensusBoost     = 1.1
)

// Combine 合并各策略的推荐列表并返回最终结果（长度 ≤ maxResults）。
func (c *Combiner) Combine(lists [][]*core.Recommendation, maxResults int) []*core.Recommendation {
	if maxResults <= 0 {
		return []*core.Recommendation{}
	}

	merged := mergeByItem(lists)
	merged = dedupe(merged)
	merged = c.balanceDiversity(merged)

	// 统一的跨策略共识加成：平铺 1.1 倍后 clamp 回 [0,1]
	for _, rec := range merged {
		rec.Relevance = clampUnit(rec.Relevance * consensusBoost)
	}

	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}

// mergeByItem 按物品 ID 分组：重复物品保留最高相关性，理由列表拼接（不覆盖）。
func mergeByItem(lists [][]*core.Recommendation) []*core.Recommendation {
	seen := make(map[string]*core.Recommendation)
	order := make([]string, 0)

	for _, list := range lists {
		for _, rec := range list {
			if rec == nil || rec.Item == nil {
				continue
			}
			old, ok := seen[rec.Item.ID]
			if !ok {
				seen[rec.Item.ID] = rec
				order = append(order, rec.Item.ID)
				continue
			}
			old.Reasons = append(old.Reasons, rec.Reasons...)
			if rec.Relevance > old.Relevance {
				old.Relevance = rec.Relevance
			}
			if rec.Confidence > old.Confidence {
				old.Confidence = rec.Confidence
			}
			if rec.ContextualBoost > old.ContextualBoost {
				old.ContextualBoost = rec.ContextualBoost
			}
			if rec.DiversityFactor > old.DiversityFactor {
				old.DiversityFactor = rec.DiversityFactor
			}
		}
	}

	out := make([]*core.Recommendation, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out
}

// dedupe 防御性去重：merge 已保证单次出现，这里兜底不变式。
func dedupe(recs []*core.Recommendation) []*core.Recommendation {
	seen := make(map[string]bool, len(recs))
	out := recs[:0]
	for _, rec := range recs {
		if seen[rec.Item.ID] {
			continue
		}
		seen[rec.Item.ID] = true
		out = append(out, rec)
	}
	return out
}

// balanceDiversity 按相关性降序遍历并应用单类目上限。
func (c *Combiner) balanceDiversity(recs []*core.Recommendation) []*core.Recommendation {
	categoryCap := c.CategoryCap
	if categoryCap <= 0 {
		categoryCap = defaultCategoryCap
	}
	minAccept := c.MinAccept
	if minAccept <= 0 {
		minAccept = defaultMinAccept
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Relevance != recs[j].Relevance {
			return recs[i].Relevance > recs[j].Relevance
		}
		return recs[i].Item.ID < recs[j].Item.ID
	})

	perCategory := make(map[string]int)
	out := make([]*core.Recommendation, 0, len(recs))
	for _, rec := range recs {
		cat := rec.Item.Category
		if perCategory[cat] < categoryCap || len(out) < minAccept {
			perCategory[cat]++
			out = append(out, rec)
		}
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
