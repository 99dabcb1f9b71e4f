package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/persona/core"
)

func TestContextualTimeBoost(t *testing.T) {
	clock := fixedClock{t: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
	s := &Contextual{Clock: clock}

	profile := core.NewUserProfile("u1")
	profile.Behavior.MostActiveHour = 20
	profile.Behavior.TotalInteractions = 10

	candidates := []*core.CandidateItem{{ID: "i1", Category: "anime"}}
	recs, err := s.Score(context.Background(), profile, &core.RecommendContext{}, candidates, 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len = %d, want 1 (time boost alone passes boost floor)", len(recs))
	}
	rec := recs[0]
	if diff := rec.ContextualBoost - 0.2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("boost = %v, want 0.2 (full hour proximity)", rec.ContextualBoost)
	}
	if len(rec.Reasons) != 1 || rec.Reasons[0].Type != core.ReasonTimeContext {
		t.Errorf("want single time_context reason, got %+v", rec.Reasons)
	}
}

func TestContextualTimeBoostNeedsObservedInteractions(t *testing.T) {
	clock := fixedClock{t: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	s := &Contextual{Clock: clock}

	// 冷启动画像 MostActiveHour 是零值 0，没有任何观测支撑，
	// 此时当前小时恰好为 0 也不应触发时间加成。
	profile := core.NewUserProfile("u1")

	candidates := []*core.CandidateItem{{ID: "i1", Category: "anime"}}
	recs, _ := s.Score(context.Background(), profile, &core.RecommendContext{}, candidates, 10)
	if len(recs) != 0 {
		t.Errorf("len = %d, want 0 without observed interactions", len(recs))
	}
}

func TestContextualSessionCategory(t *testing.T) {
	s := &Contextual{}
	profile := core.NewUserProfile("u1")

	rctx := &core.RecommendContext{
		Session: core.SessionContext{CurrentCategory: "anime"},
	}
	candidates := []*core.CandidateItem{
		{ID: "same", Category: "anime"},
		{ID: "other", Category: "landscape"},
	}

	recs, err := s.Score(context.Background(), profile, rctx, candidates, 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Item.ID != "same" {
		t.Fatalf("want only session-matching item, got %d", len(recs))
	}
	if recs[0].Relevance != sessionCategoryBonus {
		t.Errorf("relevance = %v, want %v", recs[0].Relevance, sessionCategoryBonus)
	}
	if recs[0].ContextualBoost != sessionCategoryBoost {
		t.Errorf("boost = %v, want %v", recs[0].ContextualBoost, sessionCategoryBoost)
	}
}

func TestContextualViewedShare(t *testing.T) {
	s := &Contextual{}
	profile := core.NewUserProfile("u1")

	rctx := &core.RecommendContext{
		Session: core.SessionContext{
			ViewedCategories: map[string]int{"anime": 3, "landscape": 1},
		},
	}
	candidates := []*core.CandidateItem{{ID: "i1", Category: "anime"}}

	recs, _ := s.Score(context.Background(), profile, rctx, candidates, 10)
	if len(recs) != 1 {
		t.Fatalf("len = %d, want 1", len(recs))
	}
	want := 0.3 * 0.75
	if diff := recs[0].Relevance - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("relevance = %v, want %v", recs[0].Relevance, want)
	}
}

func TestHourProximity(t *testing.T) {
	tests := []struct {
		now, active int
		want        float64
	}{
		{20, 20, 1.0},
		{20, 8, 0.0},
		{23, 1, 1 - 2.0/12},
		{0, 23, 1 - 1.0/12},
		{6, 18, 0.0},
	}
	for _, tt := range tests {
		got := hourProximity(tt.now, tt.active)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("hourProximity(%d, %d) = %v, want %v", tt.now, tt.active, got, tt.want)
		}
	}
}
