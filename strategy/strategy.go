// Package strategy 实现五路独立的打分策略（内容/协同/场景/趋势/探索）。
//
// 每个策略是一个可并发 fan-out 的纯打分单元：输入画像与候选快照，
// 输出各自配额内的推荐列表；策略之间互不依赖、互不阻塞。
package strategy

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/persona/core"
)

// Strategy 表示一路打分策略。
// Score 对画像与候选只读；失败的策略按空结果处理，不影响整个请求。
type Strategy interface {
	Name() string

	// Share 返回该策略在 maxResults 中的配额占比（0-1）
	Share() float64

	Score(
		ctx context.Context,
		profile *core.UserProfile,
		rctx *core.RecommendContext,
		candidates []*core.CandidateItem,
		limit int,
	) ([]*core.Recommendation, error)
}

// 各策略默认配额：内容 40%、协同 30%、场景 15%、趋势 10%、探索 5%。
const (
	ShareContent       = 0.40
	ShareCollaborative = 0.30
	ShareContextual    = 0.15
	ShareTrending      = 0.10
	ShareExploration   = 0.05
)

// BucketLimit 计算某策略的配额条数（向上取整）。
func BucketLimit(maxResults int, share float64) int {
	if maxResults <= 0 || share <= 0 {
		return 0
	}
	return int(math.Ceil(float64(maxResults) * share))
}

// Defaults 返回按默认配额装配的五路策略。
func Defaults(clock core.Clock) []Strategy {
	return []Strategy{
		&ContentBased{},
		&Collaborative{},
		&Contextual{Clock: clock},
		&Trending{},
		&Exploration{},
	}
}

// sortTruncate 按相关性降序排序并截断到 limit（同分按物品 ID 保证确定性）。
func sortTruncate(recs []*core.Recommendation, limit int) []*core.Recommendation {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Relevance != recs[j].Relevance {
			return recs[i].Relevance > recs[j].Relevance
		}
		return recs[i].Item.ID < recs[j].Item.ID
	})
	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
