// Package filter 提供候选集的组合式过滤：请求级排除列表与可配置的
// 资格规则，在策略 fan-out 之前裁剪候选。
package filter

import (
	"context"

	"github.com/rushteam/persona/core"
)

// Filter 是过滤器的抽象接口，用于判断一个候选是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断候选是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.CandidateItem) (bool, error)
}

// Apply 依次应用过滤器；任一过滤器命中即移除该候选。
// 过滤器出错时保留候选不中断请求——过滤是裁剪手段，不是正确性前提。
func Apply(ctx context.Context, rctx *core.RecommendContext, items []*core.CandidateItem, filters []Filter) []*core.CandidateItem {
	if len(filters) == 0 || len(items) == 0 {
		return items
	}

	out := make([]*core.CandidateItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		drop := false
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				continue
			}
			if ok {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, item)
		}
	}
	return out
}

// ExcludeSet 移除排除集合中的候选（请求级，策略 fan-out 前的第一步）。
// 集合通常来自 RecommendContext.ExcludeSet()。
func ExcludeSet(items []*core.CandidateItem, exclude map[string]bool) []*core.CandidateItem {
	if len(exclude) == 0 {
		return items
	}
	out := make([]*core.CandidateItem, 0, len(items))
	for _, item := range items {
		if item == nil || exclude[item.ID] {
			continue
		}
		out = append(out, item)
	}
	return out
}
