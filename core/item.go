package core

import "time"

// CandidateItem 是目录（Catalog）中一个候选物品的只读视图。
// 推荐核心只读取目录数据，绝不回写；热度信号由目录侧统计维护。
type CandidateItem struct {
	ID       string
	Category string
	Provider string

	// QualityRating 质量评分，0-100
	QualityRating float64

	// Tags 内容标签集合
	Tags []string

	// 热度信号（目录侧聚合统计）
	LikeCount       int64
	DownloadCount   int64
	DiscussionCount int64
	GeneratedCount  int64

	// Featured 运营加精标记，趋势策略的候选来源之一
	Featured bool

	CreatedAt time.Time
}

// TagSet 返回标签的 set 形式，便于相似度计算。
func (it *CandidateItem) TagSet() map[string]bool {
	set := make(map[string]bool, len(it.Tags))
	for _, t := range it.Tags {
		set[t] = true
	}
	return set
}
