package engine_test

import (
	"strings"
	"testing"
	"time"

	"ataa/internal/domain"
	"ataa/internal/engine"
)

func provenInfluencer() domain.InfluencerData {
	history := make([]domain.CampaignPerformance, 12)
	for i := range history {
		history[i] = domain.CampaignPerformance{
			CampaignID: "camp",
			Date:       time.Date(2025, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
			Type:       "sponsored-post",
			ROI:        120,
		}
	}
	return domain.InfluencerData{
		ID:        "inf-top",
		Name:      "نورة",
		Platform:  "instagram",
		Followers: 100000,
		Engagement: domain.EngagementMetrics{
			EngagementRate: 8,
		},
		HistoricalPerformance: history,
		Audience: domain.AudienceData{
			Authenticity: 90,
			Interests:    []string{"خيري", "تطوع"},
		},
		ContentQuality: 90,
		Reliability:    90,
	}
}

func unprovenInfluencer() domain.InfluencerData {
	return domain.InfluencerData{
		ID:        "inf-weak",
		Name:      "مجهول",
		Platform:  "snapchat",
		Followers: 5000,
		Engagement: domain.EngagementMetrics{
			EngagementRate: 1,
		},
		Audience: domain.AudienceData{
			Authenticity: 50,
		},
		ContentQuality: 30,
		Reliability:    40,
	}
}

func TestPredictHighlyRecommended(t *testing.T) {
	m := engine.NewInfluencerModel()
	m.Now = testNow

	result := m.Predict(provenInfluencer(), 50000, "sponsored-post", nil)

	if result.PredictedReach != 7040 {
		t.Fatalf("reach = %v, want 7040", result.PredictedReach)
	}
	if result.EstimatedCost != 24000 {
		t.Fatalf("cost = %v, want 24000", result.EstimatedCost)
	}
	if result.Confidence != 98 {
		t.Fatalf("confidence = %v, want 98", result.Confidence)
	}
	if result.RiskLevel != "low" || len(result.RiskFactors) != 0 {
		t.Fatalf("risk = %s %v", result.RiskLevel, result.RiskFactors)
	}
	if result.Score != 97 {
		t.Fatalf("score = %v, want 97", result.Score)
	}
	if result.Recommendation != "highly-recommended" || result.Color != "green" {
		t.Fatalf("recommendation/color = %s/%s", result.Recommendation, result.Color)
	}
}

func TestPredictNegativeROINotRecommended(t *testing.T) {
	m := engine.NewInfluencerModel()
	m.Now = testNow

	result := m.Predict(unprovenInfluencer(), 100, "story", nil)

	if result.PredictedROI != -100 {
		t.Fatalf("roi = %v, want -100", result.PredictedROI)
	}
	if result.RiskLevel != "high" || len(result.RiskFactors) != 5 {
		t.Fatalf("risk = %s with %d factors", result.RiskLevel, len(result.RiskFactors))
	}
	if result.Recommendation != "not-recommended" || result.Color != "red" {
		t.Fatalf("recommendation/color = %s/%s", result.Recommendation, result.Color)
	}

	found := false
	for _, reason := range result.Reasoning {
		if strings.Contains(reason, "عائد استثمار سلبي") {
			found = true
		}
	}
	if !found {
		t.Fatalf("negative-ROI reasoning missing: %v", result.Reasoning)
	}
}

func TestAudienceMatchFloor(t *testing.T) {
	m := engine.NewInfluencerModel()
	m.Now = testNow

	matched := m.Predict(provenInfluencer(), 50000, "sponsored-post", []string{"تطوع"})
	mismatched := m.Predict(provenInfluencer(), 50000, "sponsored-post", []string{"رياضة"})

	// full interest overlap keeps the factor at 1, mismatch floors it at 0.5
	if matched.PredictedReach != 7040 {
		t.Fatalf("matched reach = %v, want 7040", matched.PredictedReach)
	}
	if mismatched.PredictedReach != 3520 {
		t.Fatalf("mismatched reach = %v, want 3520", mismatched.PredictedReach)
	}
}

func TestCampaignTypeAdjustsCostAndConversions(t *testing.T) {
	m := engine.NewInfluencerModel()
	m.Now = testNow

	post := m.Predict(provenInfluencer(), 50000, "sponsored-post", nil)
	live := m.Predict(provenInfluencer(), 50000, "live", nil)

	if live.EstimatedCost != post.EstimatedCost*2 {
		t.Fatalf("live cost = %v, want double %v", live.EstimatedCost, post.EstimatedCost)
	}
	if live.PredictedConversions <= post.PredictedConversions {
		t.Fatalf("live conversions %v should beat post %v", live.PredictedConversions, post.PredictedConversions)
	}
}

func TestCompareOrdersByScoreThenROIThenConfidence(t *testing.T) {
	m := engine.NewInfluencerModel()

	predictions := []domain.PredictionResult{
		{InfluencerID: "c", Score: 70, PredictedROI: 50, Confidence: 60},
		{InfluencerID: "a", Score: 90, PredictedROI: 10, Confidence: 50},
		{InfluencerID: "b", Score: 70, PredictedROI: 80, Confidence: 40},
		{InfluencerID: "d", Score: 70, PredictedROI: 50, Confidence: 90},
	}

	sorted := m.Compare(predictions)
	got := []string{sorted[0].InfluencerID, sorted[1].InfluencerID, sorted[2].InfluencerID, sorted[3].InfluencerID}
	want := []string{"a", "b", "d", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
