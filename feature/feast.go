// Package feature 从在线特征存储水合用户画像的行为统计。
// 画像的亲和度/偏好由行为学习器在线维护，而会话时长、活跃时段这类
// 聚合统计可以由离线管道计算后写入 Feast，在画像加载时补齐。
package feature

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/persona/core"
	"github.com/rushteam/persona/pkg/conv"
)

// 默认特征引用（feature view : feature name）
const (
	featExploration = "user_behavior:exploration_score"
	featAvgSession  = "user_behavior:avg_session_seconds"
	featActiveHour  = "user_behavior:most_active_hour"
	featTotal       = "user_behavior:total_interactions"
	featDiversity   = "user_behavior:diversity_index"
)

// defaultEntityKey 实体键名称。
const defaultEntityKey = "user_id"

// ProfileHydrator 画像水合器接口。
type ProfileHydrator interface {
	// Hydrate 用外部特征补齐画像的行为统计字段（就地修改）
	Hydrate(ctx context.Context, profile *core.UserProfile) error
}

// FeastProfileSource 基于 Feast 在线存储的画像水合器。
//
// 缺失的特征保持画像原值不变；实体在 Feast 中不存在时整行为空，
// Hydrate 直接返回 nil（冷启动画像本身就是合法状态）。
type FeastProfileSource struct {
	client    *feastsdk.GrpcClient
	project   string
	entityKey string
	features  []string
}

// NewFeastProfileSource 创建 Feast 画像水合器。
func NewFeastProfileSource(host string, port int, project string) (*FeastProfileSource, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feature: connect feast %s:%d: %w", host, port, err)
	}
	return &FeastProfileSource{
		client:    client,
		project:   project,
		entityKey: defaultEntityKey,
		features: []string{
			featExploration,
			featAvgSession,
			featActiveHour,
			featTotal,
			featDiversity,
		},
	}, nil
}

// Hydrate 拉取用户的行为统计特征并写回画像。
func (s *FeastProfileSource) Hydrate(ctx context.Context, profile *core.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput, "feature: profile with user id is required")
	}

	req := &feastsdk.OnlineFeaturesRequest{
		Features: s.features,
		Entities: []feastsdk.Row{
			{s.entityKey: feastsdk.StrVal(profile.UserID)},
		},
		Project: s.project,
	}

	resp, err := s.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return fmt.Errorf("feature: get online features user=%s: %w", profile.UserID, err)
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return nil
	}

	values := make(map[string]any, len(s.features))
	for _, ref := range s.features {
		if v, ok := rows[0][ref]; ok {
			if decoded := decodeValue(v); decoded != nil {
				values[ref] = decoded
			}
		}
	}

	s.apply(profile, values)
	return nil
}

// apply 把特征值写回画像，缺失项保持原值。
func (s *FeastProfileSource) apply(profile *core.UserProfile, values map[string]any) {
	if v, ok := conv.ToFloat64(values[featExploration]); ok {
		profile.SetExplorationScore(v)
	}
	if v, ok := conv.ToFloat64(values[featAvgSession]); ok && v >= 0 {
		profile.Behavior.AvgSessionSeconds = v
	}
	if v, ok := conv.ToInt(values[featActiveHour]); ok && v >= 0 && v <= 23 {
		profile.Behavior.MostActiveHour = v
	}
	if v, ok := conv.ToInt(values[featTotal]); ok && v >= 0 {
		profile.Behavior.TotalInteractions = v
	}
	if v, ok := conv.ToFloat64(values[featDiversity]); ok {
		profile.SetDiversityIndex(v)
	}
}

// decodeValue 把 Feast 的 proto Value 解包为 Go 标量。
func decodeValue(v *feasttypes.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return val.DoubleVal
	case *feasttypes.Value_FloatVal:
		return float64(val.FloatVal)
	case *feasttypes.Value_Int64Val:
		return val.Int64Val
	case *feasttypes.Value_Int32Val:
		return val.Int32Val
	case *feasttypes.Value_StringVal:
		return val.StringVal
	case *feasttypes.Value_BoolVal:
		return val.BoolVal
	default:
		return nil
	}
}

var _ ProfileHydrator = (*FeastProfileSource)(nil)
