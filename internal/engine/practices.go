package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ataa/internal/domain"

	"github.com/google/uuid"
)

// Practices is the knowledge-base engine: search and ranking of documented
// practices, review aggregation, and pattern mining over recorded success and
// failure cases. Pattern output follows first-appearance order of the inputs
// so repeated runs over the same cases produce identical analyses.
type Practices struct {
	Now   func() time.Time
	NewID func() string
}

func NewPractices() *Practices { return &Practices{} }

func (p *Practices) now() time.Time { return defaultNow(p.Now) }

func (p *Practices) newID(prefix string) string {
	if p.NewID != nil {
		return p.NewID()
	}
	return prefix + "_" + uuid.NewString()
}

// NewPractice builds an unapproved practice with zeroed usage and rating.
func (p *Practices) NewPractice(title, description, category string, author domain.Author, steps []domain.PracticeStep) domain.BestPractice {
	now := p.now()
	return domain.BestPractice{
		ID:          p.newID("practice"),
		Title:       title,
		Description: description,
		Category:    category,
		Author:      author,
		CreatedAt:   now,
		UpdatedAt:   now,
		Reviews:     []domain.Review{},
		Steps:       steps,
	}
}

// SearchFilters narrows a practice search. Nil pointer fields are unset.
type SearchFilters struct {
	Category  string
	MinRating *float64
	Approved  *bool
	Featured  *bool
}

// Search filters by free text over title, description and tags, applies the
// given filters and ranks by rating*10 + usageCount descending.
func (p *Practices) Search(practices []domain.BestPractice, query string, filters SearchFilters) []domain.BestPractice {
	var filtered []domain.BestPractice
	for _, practice := range practices {
		if query != "" && !matchesQuery(practice, query) {
			continue
		}
		if filters.Category != "" && practice.Category != filters.Category {
			continue
		}
		if filters.MinRating != nil && practice.Rating < *filters.MinRating {
			continue
		}
		if filters.Approved != nil && practice.Approved != *filters.Approved {
			continue
		}
		if filters.Featured != nil && practice.Featured != *filters.Featured {
			continue
		}
		filtered = append(filtered, practice)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		scoreI := filtered[i].Rating*10 + float64(filtered[i].UsageCount)
		scoreJ := filtered[j].Rating*10 + float64(filtered[j].UsageCount)
		return scoreI > scoreJ
	})
	return filtered
}

func matchesQuery(practice domain.BestPractice, query string) bool {
	if containsFold(practice.Title, query) || containsFold(practice.Description, query) {
		return true
	}
	for _, tag := range practice.Tags {
		if containsFold(tag, query) {
			return true
		}
	}
	return false
}

// AddReview appends a review (rating clamped to [0,5]) and recomputes the
// practice rating as the mean over all reviews, rounded to one decimal.
func (p *Practices) AddReview(practice domain.BestPractice, userID, userName string, rating float64, comment string) domain.BestPractice {
	review := domain.Review{
		ID:        p.newID("review"),
		UserID:    userID,
		UserName:  userName,
		Rating:    clamp(rating, 0, 5),
		Comment:   comment,
		CreatedAt: p.now(),
	}

	reviews := append(append([]domain.Review{}, practice.Reviews...), review)
	sum := 0.0
	for _, r := range reviews {
		sum += r.Rating
	}

	practice.Reviews = reviews
	practice.Rating = roundTo(sum/float64(len(reviews)), 1)
	practice.UpdatedAt = p.now()
	return practice
}

// AnalyzeSuccesses mines recurring strategies, budget discipline and duration
// effects out of recorded success cases.
func (p *Practices) AnalyzeSuccesses(cases []domain.SuccessCase) domain.CaseAnalysis {
	var patterns []domain.Pattern

	strategyCounts := map[string]int{}
	var strategyOrder []string
	for _, c := range cases {
		if c.Strategy == "" {
			continue
		}
		if strategyCounts[c.Strategy] == 0 {
			strategyOrder = append(strategyOrder, c.Strategy)
		}
		strategyCounts[c.Strategy]++
	}

	for _, strategy := range strategyOrder {
		count := strategyCounts[strategy]
		if count < 3 {
			continue
		}
		var examples []string
		for _, c := range cases {
			if c.Strategy == strategy && len(examples) < 3 {
				examples = append(examples, c.Title)
			}
		}
		patterns = append(patterns, domain.Pattern{
			Description: "استراتيجية: " + strategy,
			Frequency:   count,
			Confidence:  math.Min(float64(count)/float64(len(cases)), 1),
			Examples:    examples,
		})
	}

	var budgetSuccess []domain.SuccessCase
	for _, c := range cases {
		if c.ActualSpent <= c.Budget && allGoalsAchieved(c.Goals) {
			budgetSuccess = append(budgetSuccess, c)
		}
	}
	if float64(len(budgetSuccess)) > float64(len(cases))*0.6 {
		patterns = append(patterns, domain.Pattern{
			Description: "الالتزام بالميزانية يرتبط بالنجاح",
			Frequency:   len(budgetSuccess),
			Confidence:  float64(len(budgetSuccess)) / float64(len(cases)),
			Examples:    caseTitles(budgetSuccess, 3),
		})
	}

	if len(cases) > 0 {
		var totalDuration time.Duration
		for _, c := range cases {
			totalDuration += c.EndDate.Sub(c.StartDate)
		}
		avgDuration := totalDuration / time.Duration(len(cases))

		var shortSuccessful []domain.SuccessCase
		for _, c := range cases {
			if c.EndDate.Sub(c.StartDate) < avgDuration && allGoalsAchieved(c.Goals) {
				shortSuccessful = append(shortSuccessful, c)
			}
		}
		if len(shortSuccessful) > 0 {
			patterns = append(patterns, domain.Pattern{
				Description: "المشاريع الأقصر مدة تميل للنجاح أكثر",
				Frequency:   len(shortSuccessful),
				Confidence:  0.7,
				Examples:    caseTitles(shortSuccessful, 3),
			})
		}
	}

	return domain.CaseAnalysis{
		SuccessPatterns: patterns,
		FailurePatterns: []domain.Pattern{},
		Recommendations: successRecommendations(patterns),
		RiskFactors:     []domain.RiskFactor{},
		SuccessPredictors: []domain.Predictor{
			{Factor: "الالتزام بالميزانية", Weight: 0.8, Correlation: 0.85},
			{Factor: "مدة التنفيذ القصيرة", Weight: 0.6, Correlation: 0.72},
			{Factor: "استخدام أفضل الممارسات", Weight: 0.9, Correlation: 0.91},
		},
	}
}

// AnalyzeFailures mines recurring root causes and error categories, turning
// prevalent categories into risk factors with canned mitigations.
func (p *Practices) AnalyzeFailures(cases []domain.FailCase) domain.CaseAnalysis {
	var patterns []domain.Pattern

	causeCounts := map[string]int{}
	var causeOrder []string
	for _, c := range cases {
		for _, cause := range c.RootCauses {
			if causeCounts[cause] == 0 {
				causeOrder = append(causeOrder, cause)
			}
			causeCounts[cause]++
		}
	}

	for _, cause := range causeOrder {
		count := causeCounts[cause]
		if count < 2 {
			continue
		}
		var examples []string
		for _, c := range cases {
			if len(examples) == 3 {
				break
			}
			for _, cc := range c.RootCauses {
				if cc == cause {
					examples = append(examples, c.Title)
					break
				}
			}
		}
		patterns = append(patterns, domain.Pattern{
			Description: "سبب متكرر: " + cause,
			Frequency:   count,
			Confidence:  float64(count) / float64(len(cases)),
			Examples:    examples,
		})
	}

	categoryCounts := map[string]int{}
	var categoryOrder []string
	for _, c := range cases {
		for _, w := range c.WhatWentWrong {
			if categoryCounts[w.Category] == 0 {
				categoryOrder = append(categoryOrder, w.Category)
			}
			categoryCounts[w.Category]++
		}
	}

	var riskFactors []domain.RiskFactor
	for _, category := range categoryOrder {
		count := categoryCounts[category]
		probability := float64(count) / float64(len(cases)) * 100
		if probability <= 30 {
			continue
		}
		impact := "medium"
		if float64(count) > float64(len(cases))*0.5 {
			impact = "high"
		}
		riskFactors = append(riskFactors, domain.RiskFactor{
			Factor:      "مشاكل في: " + category,
			Probability: round(probability),
			Impact:      impact,
			Mitigation:  mitigationStrategy(category),
		})
	}

	return domain.CaseAnalysis{
		SuccessPatterns:   []domain.Pattern{},
		FailurePatterns:   patterns,
		Recommendations:   failureRecommendations(patterns),
		RiskFactors:       riskFactors,
		SuccessPredictors: []domain.Predictor{},
	}
}

func allGoalsAchieved(goals []domain.CaseGoal) bool {
	for _, g := range goals {
		if !g.Achieved {
			return false
		}
	}
	return true
}

func caseTitles(cases []domain.SuccessCase, limit int) []string {
	var titles []string
	for _, c := range cases {
		if len(titles) == limit {
			break
		}
		titles = append(titles, c.Title)
	}
	return titles
}

func successRecommendations(patterns []domain.Pattern) []string {
	var recs []string
	for _, pattern := range patterns {
		if pattern.Confidence > 0.7 {
			recs = append(recs, fmt.Sprintf("✅ %s - ثبت نجاحه في %d حالة", pattern.Description, pattern.Frequency))
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "استمر في توثيق التجارب الناجحة لبناء قاعدة معرفة أقوى")
	}
	return recs
}

func failureRecommendations(patterns []domain.Pattern) []string {
	var recs []string
	for _, pattern := range patterns {
		recs = append(recs, "⚠️ تجنب: "+pattern.Description)
	}
	recs = append(recs,
		"راجع الدروس المستفادة قبل بدء مشاريع مشابهة",
		"خصص وقتاً كافياً للتخطيط وتقييم المخاطر")
	return recs
}

func mitigationStrategy(category string) string {
	switch category {
	case "planning":
		return "تخصيص وقت أطول للتخطيط والمراجعة المسبقة"
	case "execution":
		return "تحسين عمليات التنفيذ ومتابعة التقدم اليومي"
	case "resources":
		return "ضمان توفر الموارد الكافية قبل البدء"
	case "timing":
		return "مراجعة الجداول الزمنية وإضافة هوامش أمان"
	case "external":
		return "وضع خطط طوارئ للعوامل الخارجية"
	case "communication":
		return "تحسين قنوات التواصل وتكرار الاجتماعات"
	default:
		return "مراجعة وتحسين العملية"
	}
}
