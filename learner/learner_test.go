package learner

import (
	"math"
	"testing"
	"time"

	"github.com/rushteam/persona/core"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
func (c fixedClock) Hour() int      { return c.t.Hour() }

var baseTime = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func newTestLearner() *Learner {
	return New(nil, fixedClock{t: baseTime}, DefaultConfig())
}

func event(userID string, typ core.InteractionType, engagement int, ts time.Time) *core.InteractionEvent {
	return &core.InteractionEvent{
		UserID:     userID,
		ItemID:     "item-1",
		Type:       typ,
		Engagement: engagement,
		Timestamp:  ts,
	}
}

func TestComputeBoost(t *testing.T) {
	tests := []struct {
		typ        core.InteractionType
		engagement int
		want       float64
	}{
		{core.InteractionView, 5, 0.075},
		{core.InteractionLike, 1, 0.045},
		{core.InteractionBookmark, 10, 0.75},
		{core.InteractionDownload, 10, 0.9},
		{core.InteractionGenerate, 10, 1.0}, // 1.05 clamps to 1.0
	}

	for _, tt := range tests {
		got := ComputeBoost(tt.typ, tt.engagement)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ComputeBoost(%s, %d) = %v, want %v", tt.typ, tt.engagement, got, tt.want)
		}
		// 纯函数：重复调用结果不变
		if again := ComputeBoost(tt.typ, tt.engagement); again != got {
			t.Errorf("ComputeBoost not deterministic for (%s, %d)", tt.typ, tt.engagement)
		}
	}
}

func TestRecordInteractionSingleView(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")
	item := &core.CandidateItem{ID: "item-1", Category: "anime", Provider: "studio-a", QualityRating: 70}

	outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionView, 5, baseTime), item)
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	// boost = 0.1 × 0.5 × 1.5 = 0.075 → delta = round(7.5) = 8
	if got := outcome.Profile.CategoryAffinity("anime"); got != 8 {
		t.Errorf("category affinity = %v, want 8", got)
	}
	if got := outcome.Profile.ProviderAffinity("studio-a"); got != 8 {
		t.Errorf("provider affinity = %v, want 8", got)
	}
	if len(outcome.Deltas) != 2 {
		t.Fatalf("deltas = %d, want 2", len(outcome.Deltas))
	}
	for _, d := range outcome.Deltas {
		if d.Delta != 8 {
			t.Errorf("delta %s/%s = %d, want 8", d.Kind, d.Key, d.Delta)
		}
	}

	// 首次交互：没有先验证据，不应产生任何洞察
	if len(outcome.Insights) != 0 {
		t.Errorf("insights = %v, want none on first interaction", outcome.Insights)
	}
	if outcome.Profile.Behavior.TotalInteractions != 1 {
		t.Errorf("total interactions = %d, want 1", outcome.Profile.Behavior.TotalInteractions)
	}

	// 输入画像不被原地修改
	if profile.CategoryAffinity("anime") != 0 {
		t.Errorf("input profile was mutated")
	}
}

func TestRecordInteractionRejectsInvalid(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")
	item := &core.CandidateItem{ID: "item-1", Category: "anime"}

	_, err := l.RecordInteraction(profile, event("u1", core.InteractionView, 0, baseTime), item)
	if !core.IsInvalidInput(err) {
		t.Errorf("want INVALID_INPUT for engagement 0, got %v", err)
	}

	_, err = l.RecordInteraction(profile, event("u1", "purchase", 5, baseTime), item)
	if !core.IsInvalidInput(err) {
		t.Errorf("want INVALID_INPUT for unknown type, got %v", err)
	}

	_, err = l.RecordInteraction(profile, event("u1", core.InteractionView, 5, baseTime), nil)
	if !core.IsInvalidInput(err) {
		t.Errorf("want INVALID_INPUT for nil item, got %v", err)
	}
}

func TestAffinityNeverExceedsHundred(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")
	item := &core.CandidateItem{ID: "item-1", Category: "anime", Provider: "studio-a", QualityRating: 70}

	for i := 0; i < 5; i++ {
		outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionGenerate, 10, baseTime), item)
		if err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
		profile = outcome.Profile
		if got := profile.CategoryAffinity("anime"); got > 100 {
			t.Fatalf("affinity = %v after %d interactions, want <= 100", got, i+1)
		}
	}
	if got := profile.CategoryAffinity("anime"); got != 100 {
		t.Errorf("affinity = %v, want saturation at 100", got)
	}
}

func TestCategoryInsightAfterPriorEvidence(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")
	item := &core.CandidateItem{ID: "item-1", Category: "anime", Provider: "studio-a", QualityRating: 70}

	// 3 条先验高参与观测
	for i := 0; i < 3; i++ {
		outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionLike, 9, baseTime), item)
		if err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
		profile = outcome.Profile
		for _, in := range outcome.Insights {
			if in.Type == InsightCategoryPreference {
				t.Fatalf("category insight fired at interaction %d, needs 3 priors", i+1)
			}
		}
	}

	// 第 4 条：先验满足 ≥3 且平均参与度 9 > 7
	outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionLike, 9, baseTime), item)
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	var found *Insight
	for i := range outcome.Insights {
		if outcome.Insights[i].Type == InsightCategoryPreference {
			found = &outcome.Insights[i]
		}
	}
	if found == nil {
		t.Fatalf("category insight missing, insights = %v", outcome.Insights)
	}
	if math.Abs(found.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want min(0.9, 9/10) = 0.9", found.Confidence)
	}

	// 置信度 0.9 > 0.6：必须出现在可执行建议里
	if len(outcome.Actions) == 0 {
		t.Errorf("high-confidence insight should produce an action")
	}
}

func TestQualityInsightGating(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")

	highQuality := &core.CandidateItem{ID: "item-1", Category: "anime", QualityRating: 90}
	outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionBookmark, 8, baseTime), highQuality)
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	found := false
	for _, in := range outcome.Insights {
		if in.Type == InsightQualityPreference {
			found = true
			if in.Confidence != 0.7 {
				t.Errorf("quality confidence = %v, want 0.7", in.Confidence)
			}
		}
	}
	if !found {
		t.Errorf("quality insight missing for engagement 8 on rating 90")
	}

	// 参与度不足：同样的高质量物品不触发
	outcome, _ = l.RecordInteraction(profile, event("u2", core.InteractionBookmark, 7, baseTime), highQuality)
	for _, in := range outcome.Insights {
		if in.Type == InsightQualityPreference {
			t.Errorf("quality insight fired at engagement 7, floor is 8")
		}
	}
}

func TestPreferencePromotionAndCaps(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")

	categories := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
	for _, cat := range categories {
		item := &core.CandidateItem{ID: "item-1", Category: cat, Provider: "p-" + cat, QualityRating: 70}
		outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionGenerate, 10, baseTime), item)
		if err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
		profile = outcome.Profile
	}

	// boost 1.0 超过两个晋升门槛；超容量淘汰最旧条目
	if len(profile.Preferences.Categories) != core.MaxPreferredCategories {
		t.Errorf("categories = %v, want capped at %d", profile.Preferences.Categories, core.MaxPreferredCategories)
	}
	if profile.Preferences.Categories[0] != "c2" {
		t.Errorf("oldest category should be evicted, got %v", profile.Preferences.Categories)
	}
	if len(profile.Preferences.Providers) != core.MaxPreferredProviders {
		t.Errorf("providers = %v, want capped at %d", profile.Preferences.Providers, core.MaxPreferredProviders)
	}
}

func TestViewDoesNotPromotePreferences(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")
	item := &core.CandidateItem{ID: "item-1", Category: "anime", Provider: "studio-a", QualityRating: 70}

	// view 参与度 10：boost = 0.1 × 1 × 1.5 = 0.15，低于两个晋升门槛
	outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionView, 10, baseTime), item)
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	if len(outcome.Profile.Preferences.Categories) != 0 {
		t.Errorf("view should not promote category preference")
	}
	if len(outcome.Profile.Preferences.Providers) != 0 {
		t.Errorf("view should not promote provider preference")
	}
}

func TestQualityThresholdRatchet(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")
	item := &core.CandidateItem{ID: "item-1", Category: "anime", QualityRating: 99}

	for i := 0; i < 12; i++ {
		outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionGenerate, 10, baseTime), item)
		if err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
		profile = outcome.Profile
	}
	// 50 起步，每次 +5，封顶 95
	if profile.Preferences.QualityThreshold != 95 {
		t.Errorf("quality threshold = %v, want cap at 95", profile.Preferences.QualityThreshold)
	}
}

func TestSessionAverageRolls(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")
	item := &core.CandidateItem{ID: "item-1", Category: "anime", QualityRating: 70}

	ev1 := event("u1", core.InteractionView, 5, baseTime)
	ev1.SessionSeconds = 100
	outcome, err := l.RecordInteraction(profile, ev1, item)
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	profile = outcome.Profile

	ev2 := event("u1", core.InteractionView, 5, baseTime)
	ev2.SessionSeconds = 300
	outcome, err = l.RecordInteraction(profile, ev2, item)
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	if got := outcome.Profile.Behavior.AvgSessionSeconds; math.Abs(got-200) > 1e-9 {
		t.Errorf("avg session = %v, want 200", got)
	}
}

func TestDiversityIndexTracksDistinctCategories(t *testing.T) {
	l := newTestLearner()
	profile := core.NewUserProfile("u1")

	for i, cat := range []string{"c1", "c2", "c3"} {
		item := &core.CandidateItem{ID: "item-1", Category: cat, QualityRating: 70}
		outcome, err := l.RecordInteraction(profile, event("u1", core.InteractionView, 5, baseTime), item)
		if err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
		profile = outcome.Profile
		want := float64(i+1) / 10
		if math.Abs(profile.Engagement.DiversityIndex-want) > 1e-9 {
			t.Errorf("diversity index = %v, want %v", profile.Engagement.DiversityIndex, want)
		}
	}
}

func TestConfigZeroValuesFallBackToDefaults(t *testing.T) {
	cfg := Config{WindowSize: 10}.withDefaults()
	def := DefaultConfig()

	if cfg.WindowSize != 10 {
		t.Errorf("explicit window size overridden: %d", cfg.WindowSize)
	}
	if cfg.WindowDays != def.WindowDays {
		t.Errorf("window days = %d, want default %d", cfg.WindowDays, def.WindowDays)
	}
	if cfg.ActionableConfidence != def.ActionableConfidence {
		t.Errorf("actionable confidence = %v, want default %v", cfg.ActionableConfidence, def.ActionableConfidence)
	}
}
