package learner

import (
	"time"

	"github.com/rushteam/persona/core"
)

// record 是交互窗口内的一条观测：事件本体 + 当时的物品快照字段。
type record struct {
	event    *core.InteractionEvent
	category string
	provider string
	quality  float64
}

// window 是单用户的有界交互回看窗口。
//
// 这是请求路径上的学习缓存，不是持久存储——持久历史在 AffinityStore。
// 学习器是常驻进程里的长生命周期对象，所以窗口必须显式有界：
// 条数上限 + 时间窗双重淘汰，append 时执行。
type window struct {
	recs   []*record
	maxLen int
	maxAge time.Duration
}

func newWindow(maxLen int, maxAge time.Duration) *window {
	return &window{
		recs:   make([]*record, 0, 16),
		maxLen: maxLen,
		maxAge: maxAge,
	}
}

// append 追加一条观测并执行淘汰。
func (w *window) append(r *record, now time.Time) {
	w.recs = append(w.recs, r)

	// 时间窗淘汰：窗口内按时间递增，找到第一条仍然新鲜的记录即可
	if w.maxAge > 0 {
		cutoff := now.Add(-w.maxAge)
		idx := 0
		for idx < len(w.recs) && w.recs[idx].event.Timestamp.Before(cutoff) {
			idx++
		}
		if idx > 0 {
			w.recs = w.recs[idx:]
		}
	}

	// 条数淘汰：保留最近 maxLen 条
	if w.maxLen > 0 && len(w.recs) > w.maxLen {
		w.recs = w.recs[len(w.recs)-w.maxLen:]
	}
}

// byCategory 返回指定类目的全部观测。
func (w *window) byCategory(category string) []*record {
	out := make([]*record, 0)
	for _, r := range w.recs {
		if r.category == category {
			out = append(out, r)
		}
	}
	return out
}

// byProvider 返回指定提供方的全部观测。
func (w *window) byProvider(provider string) []*record {
	out := make([]*record, 0)
	for _, r := range w.recs {
		if r.provider == provider {
			out = append(out, r)
		}
	}
	return out
}

// since 返回 cutoff 之后的观测。
func (w *window) since(cutoff time.Time) []*record {
	out := make([]*record, 0)
	for _, r := range w.recs {
		if !r.event.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// distinctCategories 返回窗口内出现过的类目数。
func (w *window) distinctCategories() int {
	seen := make(map[string]bool)
	for _, r := range w.recs {
		if r.category != "" {
			seen[r.category] = true
		}
	}
	return len(seen)
}

// avgEngagement 计算一组观测的平均参与度。
func avgEngagement(recs []*record) float64 {
	if len(recs) == 0 {
		return 0
	}
	sum := 0
	for _, r := range recs {
		sum += r.event.Engagement
	}
	return float64(sum) / float64(len(recs))
}

// modalHour 返回一组观测的众数小时及其出现次数（并列时取较小的小时）。
func modalHour(recs []*record) (hour, count int) {
	counts := make(map[int]int)
	for _, r := range recs {
		counts[r.event.Timestamp.Hour()]++
	}
	hour, count = 0, 0
	for h, n := range counts {
		if n > count || (n == count && h < hour) {
			hour, count = h, n
		}
	}
	return hour, count
}
