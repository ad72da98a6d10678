package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ataa/internal/domain"
)

// InfluencerModel predicts campaign outcomes for an influencer from followers,
// engagement, audience authenticity and past campaign history.
type InfluencerModel struct {
	Now func() time.Time
}

func NewInfluencerModel() *InfluencerModel { return &InfluencerModel{} }

// Predict estimates reach, engagement, conversions, revenue, cost and ROI for
// the given campaign, then bands the result into a score, risk level, color
// and a recommendation. Computed intermediates stay unrounded until the final
// record is assembled.
func (m *InfluencerModel) Predict(influencer domain.InfluencerData, campaignBudget float64, campaignType string, targetAudience []string) domain.PredictionResult {
	qualityFactor := m.qualityFactor(influencer)
	audienceFactor := m.audienceMatch(influencer.Audience, targetAudience)
	reliabilityFactor := influencer.Reliability / 100

	baseReach := float64(influencer.Followers) * influencer.Engagement.EngagementRate / 100
	predictedReach := round(baseReach * qualityFactor * audienceFactor)
	predictedEngagement := round(predictedReach * (influencer.Engagement.EngagementRate / 100))

	conversionRate := m.conversionRate(influencer, campaignType)
	predictedConversions := round(predictedReach * conversionRate)

	avgOrderValue := campaignBudget * 0.1
	predictedRevenue := predictedConversions * avgOrderValue

	estimatedCost := m.estimateCost(influencer, campaignType)

	predictedROI := 0.0
	if estimatedCost > 0 {
		predictedROI = (predictedRevenue - estimatedCost) / estimatedCost * 100
	}

	confidence := m.confidence(influencer)
	riskLevel, riskFactors := m.assessRisk(influencer, predictedROI)
	score := m.score(predictedROI, confidence, qualityFactor, audienceFactor, reliabilityFactor)
	recommendation := recommendationFor(score, riskLevel)

	color := "red"
	switch {
	case score >= 70:
		color = "green"
	case score >= 40:
		color = "yellow"
	}

	return domain.PredictionResult{
		InfluencerID:         influencer.ID,
		InfluencerName:       influencer.Name,
		PredictedReach:       predictedReach,
		PredictedEngagement:  predictedEngagement,
		PredictedConversions: predictedConversions,
		PredictedRevenue:     round(predictedRevenue),
		EstimatedCost:        round(estimatedCost),
		PredictedROI:         round(predictedROI),
		Confidence:           round(confidence),
		RiskLevel:            riskLevel,
		RiskFactors:          riskFactors,
		Recommendation:       recommendation,
		Score:                round(score),
		Color:                color,
		Reasoning:            m.reasoning(score, predictedROI, confidence, qualityFactor, audienceFactor),
	}
}

// Compare ranks predictions by score, then predicted ROI, then confidence.
// The input slice is returned sorted in place.
func (m *InfluencerModel) Compare(predictions []domain.PredictionResult) []domain.PredictionResult {
	sort.SliceStable(predictions, func(i, j int) bool {
		a, b := predictions[i], predictions[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PredictedROI != b.PredictedROI {
			return a.PredictedROI > b.PredictedROI
		}
		return a.Confidence > b.Confidence
	})
	return predictions
}

func (m *InfluencerModel) qualityFactor(influencer domain.InfluencerData) float64 {
	contentScore := influencer.ContentQuality / 100
	authenticityScore := influencer.Audience.Authenticity / 100
	engagementScore := math.Min(influencer.Engagement.EngagementRate/10, 1)
	return contentScore*0.4 + authenticityScore*0.4 + engagementScore*0.2
}

// audienceMatch compares audience interests against the target list; without
// a target everything matches. Floored at 0.5 so a mismatch dampens rather
// than zeroes the reach.
func (m *InfluencerModel) audienceMatch(audience domain.AudienceData, targetAudience []string) float64 {
	if len(targetAudience) == 0 {
		return 1
	}

	matching := 0
	for _, interest := range audience.Interests {
		for _, target := range targetAudience {
			if containsFold(interest, target) || containsFold(target, interest) {
				matching++
				break
			}
		}
	}

	matchScore := float64(matching) / float64(len(targetAudience))
	return math.Max(matchScore, 0.5)
}

func (m *InfluencerModel) conversionRate(influencer domain.InfluencerData, campaignType string) float64 {
	baseRate := 0.02

	switch campaignType {
	case "video":
		baseRate *= 1.5
	case "story":
		baseRate *= 0.8
	case "live":
		baseRate *= 2
	}

	baseRate += (influencer.Reliability / 100) * 0.01
	baseRate += (influencer.ContentQuality / 100) * 0.015

	return math.Min(baseRate, 0.1)
}

func (m *InfluencerModel) estimateCost(influencer domain.InfluencerData, campaignType string) float64 {
	var baseCost float64
	switch {
	case influencer.Followers < 10000:
		baseCost = 500
	case influencer.Followers < 50000:
		baseCost = 2000
	case influencer.Followers < 100000:
		baseCost = 5000
	case influencer.Followers < 500000:
		baseCost = 15000
	case influencer.Followers < 1000000:
		baseCost = 30000
	default:
		baseCost = 50000
	}

	baseCost *= math.Max(influencer.Engagement.EngagementRate/5, 1)

	switch campaignType {
	case "video":
		baseCost *= 1.5
	case "live":
		baseCost *= 2
	}

	return baseCost
}

func (m *InfluencerModel) confidence(influencer domain.InfluencerData) float64 {
	confidence := 50.0

	history := len(influencer.HistoricalPerformance)
	switch {
	case history > 10:
		confidence += 30
	case history > 5:
		confidence += 20
	case history > 0:
		confidence += 10
	}

	confidence += (influencer.Reliability / 100) * 10
	confidence += (influencer.Audience.Authenticity / 100) * 10

	return math.Min(confidence, 100)
}

func (m *InfluencerModel) assessRisk(influencer domain.InfluencerData, predictedROI float64) (string, []string) {
	var factors []string
	riskScore := 0

	if influencer.Reliability < 60 {
		factors = append(factors, "موثوقية المؤثر منخفضة")
		riskScore += 30
	}
	if influencer.Audience.Authenticity < 70 {
		factors = append(factors, "نسبة عالية من المتابعين الوهميين")
		riskScore += 25
	}
	if predictedROI < 0 {
		factors = append(factors, "عائد استثمار متوقع سلبي")
		riskScore += 40
	}
	if len(influencer.HistoricalPerformance) < 3 {
		factors = append(factors, "بيانات أداء تاريخية محدودة")
		riskScore += 15
	}
	if influencer.Engagement.EngagementRate < 2 {
		factors = append(factors, "معدل تفاعل منخفض")
		riskScore += 20
	}

	level := "high"
	switch {
	case riskScore < 30:
		level = "low"
	case riskScore < 60:
		level = "medium"
	}
	return level, factors
}

func (m *InfluencerModel) score(roi, confidence, quality, audience, reliability float64) float64 {
	roiScore := 0.0
	if roi > 0 {
		roiScore = math.Min((roi/100)*50, 40)
	}
	return roiScore + (confidence/100)*20 + quality*15 + audience*15 + reliability*10
}

func recommendationFor(score float64, riskLevel string) string {
	switch {
	case score >= 80 && riskLevel == "low":
		return "highly-recommended"
	case score >= 60 && riskLevel != "high":
		return "recommended"
	case score >= 40:
		return "consider-alternatives"
	default:
		return "not-recommended"
	}
}

func (m *InfluencerModel) reasoning(score, roi, confidence, quality, audience float64) []string {
	var reasons []string

	if roi > 100 {
		reasons = append(reasons, fmt.Sprintf("✅ عائد استثمار ممتاز متوقع: %.0f%%", roi))
	} else if roi > 50 {
		reasons = append(reasons, fmt.Sprintf("✓ عائد استثمار جيد متوقع: %.0f%%", roi))
	} else if roi < 0 {
		reasons = append(reasons, fmt.Sprintf("⚠️ عائد استثمار سلبي متوقع: %.0f%%", roi))
	}

	if confidence > 80 {
		reasons = append(reasons, "✅ مستوى ثقة عالي في التنبؤات")
	} else if confidence < 50 {
		reasons = append(reasons, "⚠️ مستوى ثقة منخفض - بيانات محدودة")
	}

	if quality > 0.8 {
		reasons = append(reasons, "✅ جودة محتوى عالية")
	} else if quality < 0.5 {
		reasons = append(reasons, "⚠️ جودة محتوى تحتاج تحسين")
	}

	if audience > 0.8 {
		reasons = append(reasons, "✅ توافق ممتاز مع الجمهور المستهدف")
	} else if audience < 0.6 {
		reasons = append(reasons, "⚠️ توافق محدود مع الجمهور المستهدف")
	}

	if score >= 80 {
		reasons = append(reasons, "🌟 مرشح ممتاز للحملة")
	} else if score < 40 {
		reasons = append(reasons, "⛔ ننصح بالبحث عن بدائل أفضل")
	}

	return reasons
}
