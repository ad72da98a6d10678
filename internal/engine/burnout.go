package engine

import (
	"math"
	"time"

	"ataa/internal/domain"
)

// BurnoutLab measures and forecasts employee burnout from weekly work data.
// The risk band comes from the rounded score, so a raw 79.6 lands critical.
type BurnoutLab struct {
	Now func() time.Time
}

func NewBurnoutLab() *BurnoutLab { return &BurnoutLab{} }

func (b *BurnoutLab) now() time.Time { return defaultNow(b.Now) }

// Analyze runs the full pass: score, fatigue, stress, workload, recovery,
// symptoms, risk band and recommendations. trend, when non-empty, becomes the
// record's weekly trend; otherwise a single point for today is synthesized.
func (b *BurnoutLab) Analyze(employeeID, employeeName string, work domain.WorkData, trend []domain.TrendPoint) domain.BurnoutRecord {
	burnoutScore := b.BurnoutScore(work)
	fatigueLevel := b.FatigueLevel(work)

	stressLevel := math.Min(work.TasksOverdue*5+work.ErrorRate*3, 100)
	workloadIndex := math.Min((work.WeeklyHours/40)*50+work.TasksOverdue*2, 100)
	recoveryScore := math.Max(100-((100-work.FocusScore)+work.ConsecutiveWorkDays*5), 0)

	symptoms := b.DetectSymptoms(burnoutScore, work.ProductivityChange, work.EngagementScore, work.ErrorRate)
	riskLevel := RiskLevel(burnoutScore)

	weeklyTrend := trend
	if len(weeklyTrend) == 0 {
		weeklyTrend = []domain.TrendPoint{{
			Date:         b.now(),
			BurnoutScore: burnoutScore,
			FatigueLevel: fatigueLevel,
			StressLevel:  stressLevel,
		}}
	}

	record := domain.BurnoutRecord{
		EmployeeID:    employeeID,
		EmployeeName:  employeeName,
		BurnoutScore:  round(burnoutScore),
		FatigueLevel:  round(fatigueLevel),
		StressLevel:   round(stressLevel),
		WorkloadIndex: round(workloadIndex),
		RecoveryScore: round(recoveryScore),
		RiskLevel:     riskLevel,
		Symptoms:      symptoms,
		WeeklyTrend:   weeklyTrend,
		LastUpdated:   b.now(),
	}
	record.Recommendations = b.recommendations(record)
	return record
}

// BurnoutScore is the core additive model: long weeks, overdue tasks, error
// rate, lost focus and missing rest days, rounded and capped at 100.
func (b *BurnoutLab) BurnoutScore(work domain.WorkData) float64 {
	score := 0.0
	if work.WeeklyHours > 50 {
		score += (work.WeeklyHours - 50) * 2
	}
	score += work.TasksOverdue * 5
	score += work.ErrorRate * 10
	score += (100 - work.FocusScore) * 0.5
	if work.RestDays < 1 {
		score += 20
	}
	return math.Min(round(score), 100)
}

// FatigueLevel uses focus as a proxy for sleep quality.
func (b *BurnoutLab) FatigueLevel(work domain.WorkData) float64 {
	fatigue := work.ConsecutiveWorkDays * 5
	if work.AvgHoursPerDay > 10 {
		fatigue += (work.AvgHoursPerDay - 10) * 8
	}
	fatigue += (100 - work.FocusScore) * 0.3
	return math.Min(round(fatigue), 100)
}

// DetectSymptoms maps the classic Maslach dimensions to threshold rules.
func (b *BurnoutLab) DetectSymptoms(burnoutScore, productivityChange, engagementScore, errorRate float64) []domain.BurnoutSymptom {
	now := b.now()
	var symptoms []domain.BurnoutSymptom

	if burnoutScore > 60 {
		severity := "moderate"
		if burnoutScore > 80 {
			severity = "severe"
		}
		symptoms = append(symptoms, domain.BurnoutSymptom{
			Type:        "exhaustion",
			Severity:    severity,
			Description: "علامات الإرهاق الشديد وانخفاض الطاقة",
			Detected:    now,
		})
	}

	if engagementScore < 40 {
		severity := "moderate"
		if engagementScore < 20 {
			severity = "severe"
		}
		symptoms = append(symptoms, domain.BurnoutSymptom{
			Type:        "cynicism",
			Severity:    severity,
			Description: "انخفاض الحماس والانفصال العاطفي عن العمل",
			Detected:    now,
		})
	}

	if productivityChange < -30 {
		severity := "moderate"
		if productivityChange < -50 {
			severity = "severe"
		}
		symptoms = append(symptoms, domain.BurnoutSymptom{
			Type:        "inefficacy",
			Severity:    severity,
			Description: "انخفاض حاد في الإنتاجية والشعور بعدم القدرة على الإنجاز",
			Detected:    now,
		})
	}

	if engagementScore < 30 && burnoutScore > 50 {
		symptoms = append(symptoms, domain.BurnoutSymptom{
			Type:        "detachment",
			Severity:    "moderate",
			Description: "الانعزال وتجنب التفاعل مع الفريق والمهام",
			Detected:    now,
		})
	}

	if errorRate > 20 && burnoutScore > 70 {
		symptoms = append(symptoms, domain.BurnoutSymptom{
			Type:        "physical",
			Severity:    "severe",
			Description: "أعراض جسدية: زيادة الأخطاء، بطء الاستجابة",
			Detected:    now,
		})
	}

	return symptoms
}

// RiskLevel bands a burnout score into low/medium/high/critical.
func RiskLevel(burnoutScore float64) string {
	switch {
	case burnoutScore >= 80:
		return "critical"
	case burnoutScore >= 60:
		return "high"
	case burnoutScore >= 40:
		return "medium"
	default:
		return "low"
	}
}

func (b *BurnoutLab) recommendations(record domain.BurnoutRecord) []string {
	var recs []string

	if record.RiskLevel == "critical" {
		recs = append(recs,
			"🚨 حالة حرجة! يحتاج إجازة فورية لمدة 3-5 أيام على الأقل",
			"👨‍⚕️ استشارة طبيب أو أخصائي نفسي ضرورية",
			"📉 تقليل عبء العمل بنسبة 50% على الأقل")
	}
	if record.RiskLevel == "high" {
		recs = append(recs,
			"⚠️ يحتاج راحة عاجلة - إجازة 2-3 أيام",
			"🔄 إعادة توزيع بعض المهام على زملاء آخرين",
			"💆 أنشطة استرخاء وتخفيف الضغط")
	}
	if record.FatigueLevel > 70 {
		recs = append(recs,
			"😴 يحتاج تحسين جودة النوم - تجنب العمل المتأخر",
			"⏰ ساعات عمل مرنة للتعافي")
	}
	if record.WorkloadIndex > 80 {
		recs = append(recs,
			"📊 عبء العمل مرتفع جداً - يحتاج تخفيف فوري",
			"👥 توظيف مساعد أو توزيع المهام")
	}

	for _, symptom := range record.Symptoms {
		if symptom.Type == "exhaustion" && symptom.Severity == "severe" {
			recs = append(recs, "🔋 استراحات متكررة (15 دقيقة كل ساعتين)")
		}
		if symptom.Type == "cynicism" {
			recs = append(recs, "💬 جلسات تحفيزية ومناقشة الأهداف الشخصية")
		}
		if symptom.Type == "inefficacy" {
			recs = append(recs, "🎯 تحديد أهداف صغيرة قابلة للتحقيق لاستعادة الثقة")
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "✅ مستوى صحي - استمر في الحفاظ على التوازن")
	}
	return recs
}

// Predict projects the burnout score a week out from the recent trend. Fewer
// than two points means no slope: the current score is echoed back with the
// 999-day sentinel and low confidence.
func (b *BurnoutLab) Predict(employeeID string, currentBurnout float64, trend []domain.TrendPoint) domain.BurnoutPrediction {
	if len(trend) < 2 {
		return domain.BurnoutPrediction{
			EmployeeID:       employeeID,
			PredictedBurnout: currentBurnout,
			TimeToRisk:       999,
			Confidence:       0.5,
		}
	}

	recent := trend
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}

	sum := 0.0
	for i := 1; i < len(recent); i++ {
		sum += recent[i].BurnoutScore - recent[i-1].BurnoutScore
	}
	avgIncrease := sum / float64(len(recent)-1)

	timeToRisk := 999
	if avgIncrease > 0 && currentBurnout < 80 {
		timeToRisk = int(math.Ceil((80 - currentBurnout) / avgIncrease))
	}

	predicted := math.Min(currentBurnout+avgIncrease*7, 100)

	var actions []string
	if predicted > 70 {
		actions = append(actions,
			"تقليل ساعات العمل الأسبوعية",
			"جدولة إجازة قريبة",
			"تفويض بعض المهام")
	}

	confidence := 0.6
	if len(recent) >= 5 {
		confidence = 0.8
	}

	return domain.BurnoutPrediction{
		EmployeeID:        employeeID,
		PredictedBurnout:  round(predicted),
		TimeToRisk:        timeToRisk,
		Confidence:        confidence,
		PreventiveActions: actions,
	}
}
