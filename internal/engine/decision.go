package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"ataa/internal/domain"

	"github.com/google/uuid"
)

// Decider generates option sets from a decision context, filters them against
// strict constraints, penalizes soft-constraint violations and recommends the
// top-scoring option. Critical decisions expire in a day, the rest in a week.
type Decider struct {
	Now   func() time.Time
	NewID func() string
}

func NewDecider() *Decider { return &Decider{} }

func (d *Decider) now() time.Time { return defaultNow(d.Now) }

func (d *Decider) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return "decision_" + uuid.NewString()
}

// Decide runs the full pipeline over the context and returns a pending
// decision. Option probabilities may come back halved when a non-strict
// budget constraint is violated; that penalty is applied before scoring and
// is visible in the returned options.
func (d *Decider) Decide(ctx domain.DecisionContext) domain.Decision {
	severity := d.assessSeverity(ctx)
	options := d.generateOptions(ctx)
	options = d.evaluateOptions(options, ctx)
	recommended := d.selectBestOption(options)

	urgency := severity
	now := d.now()
	expiresAt := now.Add(7 * 24 * time.Hour)
	if urgency == "critical" {
		expiresAt = now.Add(24 * time.Hour)
	}

	situation := "الوضع الحالي: " + ctx.TriggeredBy
	decisionWord := "مناسب"
	if severity == "critical" {
		decisionWord = "عاجل"
	}

	return domain.Decision{
		ID:                d.newID(),
		Type:              inferDecisionType(ctx),
		Title:             "قرار: " + recommended.Title,
		Description:       fmt.Sprintf("%s. يتطلب قرار %s.", situation, decisionWord),
		Context:           ctx,
		Options:           options,
		RecommendedOption: recommended.ID,
		Reasoning:         d.reasoning(recommended, options),
		Confidence:        d.confidence(recommended),
		Urgency:           urgency,
		Impact:            impactBand(recommended.EstimatedImpact),
		CreatedAt:         now,
		ExpiresAt:         expiresAt,
		Status:            "pending",
	}
}

// Accept marks the decision accepted by the given actor.
func (d *Decider) Accept(decision domain.Decision, userID string) domain.Decision {
	now := d.now()
	decision.Status = "accepted"
	decision.DecidedBy = userID
	decision.DecidedAt = &now
	return decision
}

// Reject marks the decision rejected, recording the reason in the outcome
// notes.
func (d *Decider) Reject(decision domain.Decision, userID, reason string) domain.Decision {
	now := d.now()
	decision.Status = "rejected"
	decision.DecidedBy = userID
	decision.DecidedAt = &now
	decision.OutcomeNotes = reason
	return decision
}

// RecordOutcome attaches the observed outcome after the fact. Status is left
// untouched.
func (d *Decider) RecordOutcome(decision domain.Decision, outcome, notes string) domain.Decision {
	decision.ActualOutcome = outcome
	decision.OutcomeNotes = notes
	return decision
}

// generateOptions always includes the no-action baseline, then adds options
// keyed off substrings in the trigger text.
func (d *Decider) generateOptions(ctx domain.DecisionContext) []domain.DecisionOption {
	options := []domain.DecisionOption{{
		ID:          "option_no_action",
		Title:       "عدم التدخل - الاستمرار بالوضع الحالي",
		Description: "ترك الأمور تسير بشكل طبيعي دون تدخل",
		Pros:        []string{"لا تكلفة إضافية", "لا مخاطر من التغيير"},
		Cons:        []string{"قد تتفاقم المشكلة", "ضياع فرصة التحسين"},
		EstimatedImpact: domain.Impact{
			Productivity: -10,
			Quality:      -5,
			Overall:      -5,
		},
		Cost:         0,
		TimeRequired: "0",
		RiskLevel:    "medium",
		Probability:  40,
	}}

	trigger := ctx.TriggeredBy

	if strings.Contains(trigger, "burnout") || strings.Contains(trigger, "stress") {
		options = append(options, domain.DecisionOption{
			ID:          "option_workload_reduction",
			Title:       "تخفيف عبء العمل",
			Description: "إعادة توزيع المهام وتوفير إجازة قصيرة",
			Pros:        []string{"تحسين الصحة النفسية", "منع الاحتراق الوظيفي", "زيادة الإنتاجية على المدى الطويل"},
			Cons:        []string{"تأخير بعض المهام", "حاجة لإعادة جدولة"},
			EstimatedImpact: domain.Impact{
				Productivity: -15,
				Quality:      10,
				Morale:       40,
				Cost:         -10,
				Time:         -20,
				Overall:      25,
			},
			Cost:         5000,
			TimeRequired: "أسبوعين",
			RiskLevel:    "low",
			Probability:  85,
		})
	}

	if strings.Contains(trigger, "performance") || strings.Contains(trigger, "quality") {
		options = append(options, domain.DecisionOption{
			ID:          "option_training",
			Title:       "برنامج تدريبي مكثف",
			Description: "توفير تدريب مستهدف لسد الفجوات",
			Pros:        []string{"تحسين المهارات", "زيادة الثقة", "حل مستدام"},
			Cons:        []string{"تكلفة عالية", "وقت التنفيذ طويل", "يحتاج التزام"},
			EstimatedImpact: domain.Impact{
				Productivity: 30,
				Quality:      40,
				Morale:       20,
				Cost:         -25,
				Time:         -15,
				Overall:      35,
			},
			Cost:         15000,
			TimeRequired: "شهر",
			RiskLevel:    "medium",
			Probability:  75,
		})
	}

	if strings.Contains(trigger, "task") || strings.Contains(trigger, "delay") {
		options = append(options, domain.DecisionOption{
			ID:          "option_priority_adjustment",
			Title:       "إعادة ترتيب الأولويات",
			Description: "تأجيل المهام غير العاجلة والتركيز على الحرجة",
			Pros:        []string{"تركيز أفضل", "إنجاز أسرع للمهم", "تقليل الضغط"},
			Cons:        []string{"تأخير بعض المشاريع", "قد يسبب إحباط للعملاء"},
			EstimatedImpact: domain.Impact{
				Productivity: 20,
				Quality:      15,
				Morale:       10,
				Time:         15,
				Overall:      20,
			},
			Cost:         0,
			TimeRequired: "فوري",
			RiskLevel:    "low",
			Probability:  90,
		})
	}

	return options
}

// evaluateOptions drops options violating any strict budget constraint, then
// halves the probability of those violating a non-strict one.
func (d *Decider) evaluateOptions(options []domain.DecisionOption, ctx domain.DecisionContext) []domain.DecisionOption {
	var kept []domain.DecisionOption
	for _, option := range options {
		violatesStrict := false
		for _, constraint := range ctx.Constraints {
			if constraint.Strict && constraint.Type == "budget" && option.Cost > constraint.Value {
				violatesStrict = true
				break
			}
		}
		if violatesStrict {
			continue
		}

		for _, constraint := range ctx.Constraints {
			if !constraint.Strict && constraint.Type == "budget" && option.Cost > constraint.Value {
				option.Probability *= 0.5
				break
			}
		}
		kept = append(kept, option)
	}
	return kept
}

// selectBestOption scores each option: impact 40%, success probability 30%,
// cost 20% (cheaper is better, cost in thousands capped at 100), risk 10%.
func (d *Decider) selectBestOption(options []domain.DecisionOption) domain.DecisionOption {
	type scored struct {
		option domain.DecisionOption
		score  float64
	}

	scores := make([]scored, 0, len(options))
	for _, option := range options {
		score := option.EstimatedImpact.Overall * 0.4
		score += option.Probability * 0.3
		score += (100 - math.Min(option.Cost/1000, 100)) * 0.2

		riskScore := 0.0
		switch option.RiskLevel {
		case "low":
			riskScore = 100
		case "medium":
			riskScore = 50
		}
		score += riskScore * 0.1

		scores = append(scores, scored{option, score})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	return scores[0].option
}

func (d *Decider) reasoning(recommended domain.DecisionOption, all []domain.DecisionOption) []string {
	reasons := []string{
		fmt.Sprintf("📊 الخيار الموصى به: \"%s\"", recommended.Title),
		fmt.Sprintf("✅ احتمالية النجاح: %g%%", recommended.Probability),
	}

	sign := ""
	if recommended.EstimatedImpact.Overall > 0 {
		sign = "+"
	}
	reasons = append(reasons, fmt.Sprintf("📈 الأثر الإجمالي المتوقع: %s%g", sign, recommended.EstimatedImpact.Overall))

	if len(all) > 1 {
		reasons = append(reasons, fmt.Sprintf("\n💡 تم مقارنة %d خيارات وهذا هو الأفضل", len(all)))
	}

	for i, pro := range recommended.Pros {
		if i == 3 {
			break
		}
		reasons = append(reasons, "✓ "+pro)
	}

	if len(recommended.Cons) > 0 {
		reasons = append(reasons, "\n⚠️ نقاط يجب الانتباه لها:")
		for i, con := range recommended.Cons {
			if i == 2 {
				break
			}
			reasons = append(reasons, "  • "+con)
		}
	}

	return reasons
}

func (d *Decider) confidence(option domain.DecisionOption) float64 {
	confidence := 50.0
	confidence += (option.Probability / 100) * 15
	return math.Min(round(confidence), 100)
}

// assessSeverity classifies the trigger text by substring, most severe match
// first.
func (d *Decider) assessSeverity(ctx domain.DecisionContext) string {
	trigger := ctx.TriggeredBy
	switch {
	case strings.Contains(trigger, "critical") || strings.Contains(trigger, "emergency"):
		return "critical"
	case strings.Contains(trigger, "burnout") || strings.Contains(trigger, "high"):
		return "high"
	case strings.Contains(trigger, "medium") || strings.Contains(trigger, "warning"):
		return "medium"
	default:
		return "low"
	}
}

func inferDecisionType(ctx domain.DecisionContext) string {
	trigger := ctx.TriggeredBy
	switch {
	case strings.Contains(trigger, "task"):
		return "task-assignment"
	case strings.Contains(trigger, "budget"):
		return "budget-approval"
	case strings.Contains(trigger, "resource"):
		return "resource-allocation"
	case strings.Contains(trigger, "priority"):
		return "priority-adjustment"
	case strings.Contains(trigger, "risk"):
		return "risk-mitigation"
	default:
		return "performance-action"
	}
}

func impactBand(impact domain.Impact) string {
	abs := math.Abs(impact.Overall)
	switch {
	case abs >= 75:
		return "major"
	case abs >= 50:
		return "significant"
	case abs >= 25:
		return "moderate"
	default:
		return "minor"
	}
}
