package core

// SessionContext 承载请求所处会话的实时信息。
type SessionContext struct {
	// CurrentCategory 用户当前正在浏览的类目
	CurrentCategory string

	// ItemsViewed 本会话内浏览过的物品 ID
	ItemsViewed []string

	// ViewedCategories 是 ItemsViewed 在候选集上解析出的类目分布
	// （类目 → 次数），由编排层填充，场景策略据此计算近期浏览相似度。
	ViewedCategories map[string]int
}

// RecommendContext 是一次推荐请求的上下文，贯穿策略 fan-out 透传。
type RecommendContext struct {
	UserID string

	// MaxResults 响应条数上限；0 表示返回空列表
	MaxResults int

	// ExcludeItemIDs 调用方要求排除的物品（已购买/已看过等）
	ExcludeItemIDs []string

	Session SessionContext
}

// ExcludeSet 返回排除列表的 set 形式。
func (rctx *RecommendContext) ExcludeSet() map[string]bool {
	if len(rctx.ExcludeItemIDs) == 0 {
		return nil
	}
	set := make(map[string]bool, len(rctx.ExcludeItemIDs))
	for _, id := range rctx.ExcludeItemIDs {
		set[id] = true
	}
	return set
}

// ViewedShare 返回某类目在近期浏览中的占比（0-1）。
func (s *SessionContext) ViewedShare(category string) float64 {
	if len(s.ViewedCategories) == 0 {
		return 0
	}
	total := 0
	for _, n := range s.ViewedCategories {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(s.ViewedCategories[category]) / float64(total)
}
