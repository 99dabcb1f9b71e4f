package core

import (
	"testing"
)

func TestNewUserProfileColdStart(t *testing.T) {
	p := NewUserProfile("u1")

	if p.Preferences.QualityThreshold != 50 {
		t.Errorf("quality threshold = %v, want 50", p.Preferences.QualityThreshold)
	}
	// 默认探索分必须低于探索策略的 0.3 意愿门槛（冷启动趋势兜底的前提）
	if p.Behavior.ExplorationScore != 20 {
		t.Errorf("exploration score = %v, want 20", p.Behavior.ExplorationScore)
	}
	if p.Preferences.Speed != SpeedBalanced {
		t.Errorf("speed = %v, want balanced", p.Preferences.Speed)
	}
	if len(p.Engagement.CategoryAffinities) != 0 {
		t.Errorf("cold start should have no category affinities")
	}
	if got := p.ExplorationWillingness(); got >= 0.3 {
		t.Errorf("willingness = %v, want below the exploration floor 0.3", got)
	}
}

func TestAffinityClamp(t *testing.T) {
	p := NewUserProfile("u1")

	p.AddCategoryAffinity("anime", 150)
	if got := p.CategoryAffinity("anime"); got != 100 {
		t.Errorf("affinity after +150 = %v, want clamp to 100", got)
	}

	p.AddCategoryAffinity("anime", -500)
	if got := p.CategoryAffinity("anime"); got != 0 {
		t.Errorf("affinity after -500 = %v, want clamp to 0", got)
	}

	p.SetProviderAffinity("p1", -10)
	if got := p.ProviderAffinity("p1"); got != 0 {
		t.Errorf("provider affinity = %v, want 0", got)
	}

	p.SetQualityThreshold(120)
	if p.Preferences.QualityThreshold != 100 {
		t.Errorf("quality threshold = %v, want 100", p.Preferences.QualityThreshold)
	}

	p.SetDiversityIndex(3)
	if p.Engagement.DiversityIndex != 1 {
		t.Errorf("diversity index = %v, want 1", p.Engagement.DiversityIndex)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := NewUserProfile("u1")
	p.SetCategoryAffinity("anime", 40)
	p.Preferences.Categories = append(p.Preferences.Categories, "anime")
	p.Preferences.Tags["neon"] = true

	next := p.Clone()
	next.SetCategoryAffinity("anime", 90)
	next.Preferences.Categories[0] = "scifi"
	next.Preferences.Tags["neon"] = false

	if got := p.CategoryAffinity("anime"); got != 40 {
		t.Errorf("original affinity mutated: %v", got)
	}
	if p.Preferences.Categories[0] != "anime" {
		t.Errorf("original categories mutated: %v", p.Preferences.Categories)
	}
	if !p.Preferences.Tags["neon"] {
		t.Errorf("original tags mutated")
	}
}

func TestEngagementLevel(t *testing.T) {
	tests := []struct {
		name         string
		session      float64
		exploration  float64
		interactions int
		want         int
	}{
		{"cold start", 0, 50, 0, 16},
		{"all maxed", 600, 100, 100, 100},
		{"half everywhere", 300, 50, 50, 50},
		{"session over ceiling", 6000, 0, 0, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewUserProfile("u1")
			p.Behavior.AvgSessionSeconds = tt.session
			p.Behavior.ExplorationScore = tt.exploration
			p.Behavior.TotalInteractions = tt.interactions
			if got := p.EngagementLevel(); got != tt.want {
				t.Errorf("engagement level = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExpertise(t *testing.T) {
	tests := []struct {
		name         string
		interactions int
		diversity    float64
		want         ExpertiseLevel
	}{
		{"few interactions", 5, 0.9, ExpertiseNovice},
		{"under fifty", 30, 0.9, ExpertiseIntermediate},
		{"low diversity stays intermediate", 120, 0.2, ExpertiseIntermediate},
		{"mid volume", 120, 0.4, ExpertiseExpert},
		{"high volume mid diversity", 500, 0.5, ExpertiseExpert},
		{"power user", 500, 0.8, ExpertisePowerUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewUserProfile("u1")
			p.Behavior.TotalInteractions = tt.interactions
			p.Engagement.DiversityIndex = tt.diversity
			if got := p.Expertise(); got != tt.want {
				t.Errorf("expertise = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopCategoriesDeterministic(t *testing.T) {
	p := NewUserProfile("u1")
	p.SetCategoryAffinity("scifi", 80)
	p.SetCategoryAffinity("anime", 80)
	p.SetCategoryAffinity("portrait", 50)

	got := p.TopCategories(2)
	if len(got) != 2 || got[0] != "anime" || got[1] != "scifi" {
		t.Errorf("top categories = %v, want [anime scifi] (tie broken by name)", got)
	}

	if got := p.TopCategories(0); got != nil {
		t.Errorf("top 0 = %v, want nil", got)
	}
}

func TestRecommendationContextTiers(t *testing.T) {
	tests := []struct {
		name        string
		threshold   float64
		exploration float64
		speed       SpeedPreference
		wantQuality string
		wantExplore string
		wantTime    string
	}{
		{"premium adventurous tight", 85, 75, SpeedFast, "premium", "adventurous", "tight"},
		{"defaults", 50, 50, SpeedBalanced, "standard", "curious", "moderate"},
		{"low bars relaxed", 20, 10, SpeedQuality, "any", "familiar", "relaxed"},
		{"high tier", 65, 30, SpeedBalanced, "high", "curious", "moderate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewUserProfile("u1")
			p.Preferences.QualityThreshold = tt.threshold
			p.Behavior.ExplorationScore = tt.exploration
			p.Preferences.Speed = tt.speed

			pc := p.RecommendationContext()
			if pc.QualityExpectation != tt.wantQuality {
				t.Errorf("quality = %v, want %v", pc.QualityExpectation, tt.wantQuality)
			}
			if pc.ExplorationWillingness != tt.wantExplore {
				t.Errorf("exploration = %v, want %v", pc.ExplorationWillingness, tt.wantExplore)
			}
			if pc.TimeConstraint != tt.wantTime {
				t.Errorf("time = %v, want %v", pc.TimeConstraint, tt.wantTime)
			}
		})
	}
}
