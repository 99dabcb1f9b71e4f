package feature

import (
	"testing"

	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/persona/core"
)

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name string
		in   *feasttypes.Value
		want any
	}{
		{"double", &feasttypes.Value{Val: &feasttypes.Value_DoubleVal{DoubleVal: 42.5}}, 42.5},
		{"float widens", &feasttypes.Value{Val: &feasttypes.Value_FloatVal{FloatVal: 2}}, float64(2)},
		{"int64", &feasttypes.Value{Val: &feasttypes.Value_Int64Val{Int64Val: 7}}, int64(7)},
		{"int32", &feasttypes.Value{Val: &feasttypes.Value_Int32Val{Int32Val: 3}}, int32(3)},
		{"string", &feasttypes.Value{Val: &feasttypes.Value_StringVal{StringVal: "x"}}, "x"},
		{"bool", &feasttypes.Value{Val: &feasttypes.Value_BoolVal{BoolVal: true}}, true},
		{"nil value", nil, nil},
		{"empty value", &feasttypes.Value{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeValue(tt.in); got != tt.want {
				t.Errorf("decodeValue = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestApplyHydratesBehaviorFields(t *testing.T) {
	s := &FeastProfileSource{}
	profile := core.NewUserProfile("u1")

	s.apply(profile, map[string]any{
		featExploration: 80.0,
		featAvgSession:  int64(420),
		featActiveHour:  int32(21),
		featTotal:       int64(150),
		featDiversity:   0.7,
	})

	if profile.Behavior.ExplorationScore != 80 {
		t.Errorf("exploration = %v, want 80", profile.Behavior.ExplorationScore)
	}
	if profile.Behavior.AvgSessionSeconds != 420 {
		t.Errorf("avg session = %v, want 420", profile.Behavior.AvgSessionSeconds)
	}
	if profile.Behavior.MostActiveHour != 21 {
		t.Errorf("active hour = %d, want 21", profile.Behavior.MostActiveHour)
	}
	if profile.Behavior.TotalInteractions != 150 {
		t.Errorf("total = %d, want 150", profile.Behavior.TotalInteractions)
	}
	if profile.Engagement.DiversityIndex != 0.7 {
		t.Errorf("diversity = %v, want 0.7", profile.Engagement.DiversityIndex)
	}
}

func TestApplyKeepsProfileOnMissingOrBadFeatures(t *testing.T) {
	s := &FeastProfileSource{}
	profile := core.NewUserProfile("u1")
	profile.Behavior.MostActiveHour = 9

	s.apply(profile, map[string]any{
		featActiveHour:  int64(99), // 非法小时，忽略
		featExploration: "not-a-number",
	})

	if profile.Behavior.MostActiveHour != 9 {
		t.Errorf("active hour = %d, want untouched 9", profile.Behavior.MostActiveHour)
	}
	if profile.Behavior.ExplorationScore != 20 {
		t.Errorf("exploration = %v, want untouched cold-start default", profile.Behavior.ExplorationScore)
	}
}
