package engine_test

import (
	"strings"
	"testing"
	"time"

	"ataa/internal/domain"
	"ataa/internal/engine"
)

func newTestPractices() *engine.Practices {
	p := engine.NewPractices()
	p.Now = testNow
	return p
}

func TestAddReviewAveragesToOneDecimal(t *testing.T) {
	p := newTestPractices()

	practice := p.NewPractice("تقسيم الحملات", "وصف", "marketing", domain.Author{ID: "u-1", Name: "سارة"}, nil)
	practice = p.AddReview(practice, "u-2", "خالد", 5, "ممتازة")
	practice = p.AddReview(practice, "u-3", "نورة", 3, "جيدة")

	if practice.Rating != 4.0 {
		t.Fatalf("rating = %v, want 4.0", practice.Rating)
	}
	if len(practice.Reviews) != 2 {
		t.Fatalf("reviews = %d", len(practice.Reviews))
	}
}

func TestAddReviewClampsRating(t *testing.T) {
	p := newTestPractices()

	practice := p.NewPractice("t", "d", "sales", domain.Author{}, nil)
	practice = p.AddReview(practice, "u", "n", 9, "")
	if practice.Reviews[0].Rating != 5 {
		t.Fatalf("clamped rating = %v, want 5", practice.Reviews[0].Rating)
	}
}

func TestSearchFiltersAndRanks(t *testing.T) {
	p := newTestPractices()

	practices := []domain.BestPractice{
		{ID: "a", Title: "حملة رمضان", Category: "marketing", Rating: 4, UsageCount: 5, Approved: true},
		{ID: "b", Title: "حملة الشتاء", Category: "marketing", Rating: 5, UsageCount: 20, Approved: true},
		{ID: "c", Title: "تقرير مالي", Category: "management", Rating: 5, UsageCount: 100, Approved: true},
		{ID: "d", Title: "حملة تجريبية", Category: "marketing", Rating: 2, UsageCount: 0, Approved: false},
	}

	approved := true
	results := p.Search(practices, "حملة", engine.SearchFilters{Category: "marketing", Approved: &approved})

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	// b: 5*10+20 = 70 beats a: 4*10+5 = 45
	if results[0].ID != "b" || results[1].ID != "a" {
		t.Fatalf("order = %s, %s", results[0].ID, results[1].ID)
	}
}

func TestSearchMinRating(t *testing.T) {
	p := newTestPractices()

	minRating := 4.5
	results := p.Search([]domain.BestPractice{
		{ID: "low", Rating: 4},
		{ID: "high", Rating: 4.5},
	}, "", engine.SearchFilters{MinRating: &minRating})
	if len(results) != 1 || results[0].ID != "high" {
		t.Fatalf("results = %+v", results)
	}
}

func successCase(id, title, strategy string, days int, achieved bool) domain.SuccessCase {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return domain.SuccessCase{
		ID:          id,
		Title:       title,
		Type:        "campaign",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, days),
		Budget:      10000,
		ActualSpent: 8000,
		Strategy:    strategy,
		Goals:       []domain.CaseGoal{{Metric: "تبرعات", Achieved: achieved}},
	}
}

func TestAnalyzeSuccessesFindsRecurringStrategy(t *testing.T) {
	p := newTestPractices()

	cases := []domain.SuccessCase{
		successCase("s1", "حملة 1", "شراكات مجتمعية", 10, true),
		successCase("s2", "حملة 2", "شراكات مجتمعية", 30, true),
		successCase("s3", "حملة 3", "شراكات مجتمعية", 40, true),
		successCase("s4", "حملة 4", "إعلانات مدفوعة", 60, true),
	}

	analysis := p.AnalyzeSuccesses(cases)

	var strategyPattern *domain.Pattern
	for i := range analysis.SuccessPatterns {
		if strings.Contains(analysis.SuccessPatterns[i].Description, "شراكات مجتمعية") {
			strategyPattern = &analysis.SuccessPatterns[i]
		}
	}
	if strategyPattern == nil {
		t.Fatalf("strategy pattern missing: %+v", analysis.SuccessPatterns)
	}
	if strategyPattern.Frequency != 3 || strategyPattern.Confidence != 0.75 {
		t.Fatalf("pattern = %+v", strategyPattern)
	}
	if len(strategyPattern.Examples) != 3 {
		t.Fatalf("examples = %v", strategyPattern.Examples)
	}

	// all four stayed in budget with goals met, so the budget pattern fires
	foundBudget := false
	for _, pattern := range analysis.SuccessPatterns {
		if strings.Contains(pattern.Description, "الالتزام بالميزانية") {
			foundBudget = true
		}
	}
	if !foundBudget {
		t.Fatalf("budget pattern missing: %+v", analysis.SuccessPatterns)
	}

	if len(analysis.SuccessPredictors) != 3 {
		t.Fatalf("predictors = %d", len(analysis.SuccessPredictors))
	}
	if len(analysis.Recommendations) == 0 {
		t.Fatalf("expected recommendations")
	}
}

func TestAnalyzeSuccessesEmptyInput(t *testing.T) {
	p := newTestPractices()

	analysis := p.AnalyzeSuccesses(nil)
	if len(analysis.SuccessPatterns) != 0 {
		t.Fatalf("patterns = %+v", analysis.SuccessPatterns)
	}
	if len(analysis.Recommendations) != 1 {
		t.Fatalf("expected fallback recommendation, got %v", analysis.Recommendations)
	}
}

func failCase(id, title string, causes []string, categories ...string) domain.FailCase {
	var wrong []domain.WrongFactor
	for _, c := range categories {
		wrong = append(wrong, domain.WrongFactor{Factor: "عامل", Category: c, Impact: "high"})
	}
	return domain.FailCase{
		ID:            id,
		Title:         title,
		Type:          "campaign",
		RootCauses:    causes,
		WhatWentWrong: wrong,
		Severity:      "major",
	}
}

func TestAnalyzeFailuresPatternsAndRisks(t *testing.T) {
	p := newTestPractices()

	cases := []domain.FailCase{
		failCase("f1", "فشل 1", []string{"تخطيط ضعيف"}, "planning"),
		failCase("f2", "فشل 2", []string{"تخطيط ضعيف", "ميزانية غير كافية"}, "planning"),
		failCase("f3", "فشل 3", []string{"تأخر الموردين"}, "external"),
	}

	analysis := p.AnalyzeFailures(cases)

	if len(analysis.FailurePatterns) != 1 {
		t.Fatalf("patterns = %+v", analysis.FailurePatterns)
	}
	pattern := analysis.FailurePatterns[0]
	if pattern.Frequency != 2 || !strings.Contains(pattern.Description, "تخطيط ضعيف") {
		t.Fatalf("pattern = %+v", pattern)
	}

	// planning in 2 of 3 cases: probability 67, above the half mark so high
	var planningRisk *domain.RiskFactor
	for i := range analysis.RiskFactors {
		if strings.Contains(analysis.RiskFactors[i].Factor, "planning") {
			planningRisk = &analysis.RiskFactors[i]
		}
	}
	if planningRisk == nil {
		t.Fatalf("planning risk missing: %+v", analysis.RiskFactors)
	}
	if planningRisk.Probability != 67 || planningRisk.Impact != "high" {
		t.Fatalf("risk = %+v", planningRisk)
	}
	if planningRisk.Mitigation != "تخصيص وقت أطول للتخطيط والمراجعة المسبقة" {
		t.Fatalf("mitigation = %q", planningRisk.Mitigation)
	}

	// external shows in 1 of 3 (33%) which also clears the 30% bar
	if len(analysis.RiskFactors) != 2 {
		t.Fatalf("risk factors = %+v", analysis.RiskFactors)
	}

	if len(analysis.Recommendations) < 3 {
		t.Fatalf("recommendations = %v", analysis.Recommendations)
	}
	if !strings.Contains(analysis.Recommendations[0], "تجنب") {
		t.Fatalf("first recommendation = %q", analysis.Recommendations[0])
	}
}
