package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rushteam/persona/core"
)

// AffinityAdapter 在任意 core.KeyValueStore 之上实现 core.AffinityStore。
//
// 存储布局：
//   - persona:profile:{userID}            画像文档（JSON；偏好/行为统计）
//   - persona:affinity:category:{userID}  类目亲和度 hash（field=类目，整数）
//   - persona:affinity:provider:{userID}  提供方亲和度 hash
//   - persona:events:{userID}             交互日志 hash（field=时间戳+物品，追加式）
//
// 亲和度走独立 hash 而非画像文档，原因是增量写入必须原子可加：
// HIncrBy 保证并发与重试下不丢更新、不重放放大；文档覆盖写做不到。
// 存储值不设上限，读取时 clamp 到 [0,100]。
type AffinityAdapter struct {
	kv    core.KeyValueStore
	clock core.Clock
}

// NewAffinityAdapter 创建亲和度存储适配器。clock 为 nil 时取系统时钟。
func NewAffinityAdapter(kv core.KeyValueStore, clock core.Clock) *AffinityAdapter {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &AffinityAdapter{kv: kv, clock: clock}
}

func profileKey(userID string) string { return "persona:profile:" + userID }
func eventsKey(userID string) string  { return "persona:events:" + userID }

func affinityKey(kind core.AffinityKind, userID string) string {
	return "persona:affinity:" + string(kind) + ":" + userID
}

// GetProfile 读取画像文档并叠加亲和度 hash。未知用户返回 ErrProfileNotFound；
// 后端故障映射为 UNAVAILABLE 领域错误，调用方据此降级为冷启动画像。
func (a *AffinityAdapter) GetProfile(ctx context.Context, userID string) (*core.UserProfile, error) {
	data, err := a.kv.Get(ctx, profileKey(userID))
	if core.IsNotFound(err) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, unavailable("get profile "+userID, err)
	}

	profile := core.NewUserProfile(userID)
	if err := json.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	profile.UserID = userID

	if err := a.overlayAffinities(ctx, profile, core.AffinityCategory); err != nil {
		return nil, err
	}
	if err := a.overlayAffinities(ctx, profile, core.AffinityProvider); err != nil {
		return nil, err
	}
	return profile, nil
}

func (a *AffinityAdapter) overlayAffinities(ctx context.Context, profile *core.UserProfile, kind core.AffinityKind) error {
	fields, err := a.kv.HGetAll(ctx, affinityKey(kind, profile.UserID))
	if err != nil {
		return unavailable("load "+string(kind)+" affinities "+profile.UserID, err)
	}
	for key, raw := range fields {
		score := float64(parseInt64(raw))
		switch kind {
		case core.AffinityCategory:
			profile.SetCategoryAffinity(key, score)
		case core.AffinityProvider:
			profile.SetProviderAffinity(key, score)
		}
	}
	return nil
}

// SaveProfile 持久化画像文档。亲和度以增量 hash 为准，文档里的快照仅供兜底。
func (a *AffinityAdapter) SaveProfile(ctx context.Context, profile *core.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.UserID, err)
	}
	return a.kv.Set(ctx, profileKey(profile.UserID), data)
}

// ApplyAffinityDelta 原子增量。可加语义：重放同一 delta 只会再加一次，
// 去重（exactly-once）由调用侧的重试协议或存储事务保证。
func (a *AffinityAdapter) ApplyAffinityDelta(ctx context.Context, userID string, kind core.AffinityKind, key string, delta int64) error {
	_, err := a.kv.HIncrBy(ctx, affinityKey(kind, userID), key, delta)
	return err
}

// AppendInteraction 追加一条交互记录（field 含时间戳与物品 ID，天然不重写）。
func (a *AffinityAdapter) AppendInteraction(ctx context.Context, event *core.InteractionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}
	field := fmt.Sprintf("%d:%s", event.Timestamp.UnixNano(), event.ItemID)
	return a.kv.HSet(ctx, eventsKey(event.UserID), field, data)
}

// GetInteractionHistory 读取最近 sinceDays 天的交互记录（按时间升序）。
func (a *AffinityAdapter) GetInteractionHistory(ctx context.Context, userID string, sinceDays int) ([]*core.InteractionEvent, error) {
	fields, err := a.kv.HGetAll(ctx, eventsKey(userID))
	if err != nil {
		return nil, err
	}

	cutoff := a.clock.Now().Add(-time.Duration(sinceDays) * 24 * time.Hour)
	events := make([]*core.InteractionEvent, 0, len(fields))
	for _, raw := range fields {
		var ev core.InteractionEvent
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if sinceDays > 0 && ev.Timestamp.Before(cutoff) {
			continue
		}
		events = append(events, &ev)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

// unavailable 把底层存储故障映射为 UNAVAILABLE 领域错误。
func unavailable(op string, err error) error {
	return core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: "+op+": "+err.Error())
}

var _ core.AffinityStore = (*AffinityAdapter)(nil)
