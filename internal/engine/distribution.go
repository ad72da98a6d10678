package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ataa/internal/domain"
)

// Distributor picks the best-scoring qualified employee for a task. The only
// error it can produce is ErrNoQualifiedEmployee, when every candidate's
// readiness falls below the gate.
type Distributor struct {
	RAG           *RAG
	ReadinessGate float64
	Now           func() time.Time
}

func NewDistributor() *Distributor {
	return &Distributor{
		RAG:           NewRAG(),
		ReadinessGate: 40,
	}
}

func (d *Distributor) now() time.Time { return defaultNow(d.Now) }

func (d *Distributor) rag() *RAG {
	if d.RAG != nil {
		if d.RAG.Now == nil {
			d.RAG.Now = d.Now
		}
		return d.RAG
	}
	r := NewRAG()
	r.Now = d.Now
	return r
}

// Distribute scores every candidate, filters by the readiness gate and ranks
// by overall score. The next three qualified candidates become alternatives.
func (d *Distributor) Distribute(task domain.TaskToDistribute, employees []domain.EmployeeProfile) (domain.DistributionResult, error) {
	scorer := d.rag()

	byID := make(map[string]domain.EmployeeProfile, len(employees))
	var qualified []domain.RAGScore
	for _, emp := range employees {
		byID[emp.ID] = emp
		score := scorer.Score(emp, task)
		if score.Readiness >= d.ReadinessGate {
			qualified = append(qualified, score)
		}
	}

	if len(qualified) == 0 {
		return domain.DistributionResult{}, ErrNoQualifiedEmployee
	}

	sort.SliceStable(qualified, func(i, j int) bool { return qualified[i].Overall > qualified[j].Overall })

	selected := qualified[0]
	employee := byID[selected.EmployeeID]

	var alternatives []domain.AlternativeAssignment
	for _, score := range qualified[1:] {
		if len(alternatives) == 3 {
			break
		}
		alternatives = append(alternatives, domain.AlternativeAssignment{
			Employee: byID[score.EmployeeID],
			Score:    score.Overall,
			Reason:   alternativeReason(score),
		})
	}

	risks := d.identifyRiskFactors(employee, task)

	return domain.DistributionResult{
		TaskID:                  task.ID,
		TaskTitle:               task.Title,
		SelectedEmployee:        employee,
		Score:                   round(selected.Overall),
		Reasoning:               d.generateReasoning(employee, selected),
		Alternatives:            alternatives,
		EstimatedCompletionDate: d.estimateCompletionDate(employee, task),
		SuccessProbability:      round(d.successProbability(employee, task, selected)),
		RiskFactors:             risks,
		Recommendations:         d.generateRecommendations(employee, task, risks),
	}, nil
}

// DistributeBatch processes tasks in priority order over a working copy of
// the employee list, bumping the chosen employee's workload after each
// assignment so later tasks in the batch see the reduced availability. The
// mutation is local to this call; the caller's slice is untouched.
func (d *Distributor) DistributeBatch(tasks []domain.TaskToDistribute, employees []domain.EmployeeProfile) ([]domain.DistributionResult, error) {
	working := make([]domain.EmployeeProfile, len(employees))
	copy(working, employees)

	sorted := make([]domain.TaskToDistribute, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityRank(sorted[i].Priority) > priorityRank(sorted[j].Priority)
	})

	var results []domain.DistributionResult
	for _, task := range sorted {
		result, err := d.Distribute(task, working)
		if err != nil {
			return results, fmt.Errorf("task %s: %w", task.ID, err)
		}
		results = append(results, result)

		for i := range working {
			if working[i].ID == result.SelectedEmployee.ID {
				working[i].CurrentWorkload += (task.EstimatedHours / 40) * 100
				working[i].CurrentWorkload = math.Min(working[i].CurrentWorkload, 100)
				break
			}
		}
	}
	return results, nil
}

func priorityRank(priority string) int {
	switch priority {
	case "urgent":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}

func (d *Distributor) estimateCompletionDate(employee domain.EmployeeProfile, task domain.TaskToDistribute) time.Time {
	effectiveHours := task.EstimatedHours
	if employee.PerformanceScore > 0 {
		effectiveHours /= employee.PerformanceScore / 100
	}
	effectiveHours *= 1 + employee.CurrentWorkload/100

	// 6 effective working hours per day.
	days := int(math.Ceil(effectiveHours / 6))
	return d.now().AddDate(0, 0, days)
}

func (d *Distributor) successProbability(employee domain.EmployeeProfile, task domain.TaskToDistribute, score domain.RAGScore) float64 {
	probability := score.Overall

	if employee.RecentSuccess > employee.RecentFailures {
		probability += 10
	}
	if employee.BurnoutScore > 70 {
		probability -= 15
	}
	if task.Priority == "urgent" && employee.CurrentWorkload > 70 {
		probability -= 10
	}

	return clamp(probability, 0, 100)
}

func (d *Distributor) identifyRiskFactors(employee domain.EmployeeProfile, task domain.TaskToDistribute) []string {
	var risks []string

	if employee.BurnoutScore > 70 {
		risks = append(risks, "احتمالية احتراق وظيفي - يحتاج متابعة دقيقة")
	}
	if employee.CurrentWorkload > 80 {
		risks = append(risks, "عبء عمل مرتفع جداً - قد يتأخر الإنجاز")
	}

	daysUntilDeadline := task.Deadline.Sub(d.now()).Hours() / 24
	requiredDays := task.EstimatedHours / 6
	if daysUntilDeadline < requiredDays*1.2 {
		risks = append(risks, "ضيق الوقت - الموعد النهائي قريب")
	}

	if task.Difficulty == "expert" && employee.PerformanceScore < 80 {
		risks = append(risks, "مهمة معقدة - قد يحتاج دعم إضافي")
	}
	if employee.RecentFailures > 2 {
		risks = append(risks, "إخفاقات حديثة - يحتاج دعم ومتابعة")
	}

	return risks
}

func (d *Distributor) generateReasoning(employee domain.EmployeeProfile, score domain.RAGScore) []string {
	reasons := []string{
		fmt.Sprintf("🎯 تم اختيار %s للمهمة", employee.Name),
		fmt.Sprintf("📊 النقاط الإجمالية: %.0f/100", score.Overall),
	}

	switch {
	case score.Readiness >= 80:
		reasons = append(reasons, fmt.Sprintf("✅ جاهزية ممتازة (%.0f%%) - يمتلك المهارات المطلوبة", score.Readiness))
	case score.Readiness >= 60:
		reasons = append(reasons, fmt.Sprintf("✓ جاهزية جيدة (%.0f%%) - مؤهل للمهمة", score.Readiness))
	default:
		reasons = append(reasons, fmt.Sprintf("⚠️ جاهزية متوسطة (%.0f%%) - قد يحتاج دعم", score.Readiness))
	}

	switch {
	case score.Availability >= 70:
		reasons = append(reasons, fmt.Sprintf("✅ متاح ولديه وقت كافٍ (%.0f%%)", score.Availability))
	case score.Availability >= 40:
		reasons = append(reasons, fmt.Sprintf("⚠️ متاح جزئياً (%.0f%%) - قد يحتاج تعديل أولويات", score.Availability))
	default:
		reasons = append(reasons, fmt.Sprintf("⚠️ عبء عمل مرتفع (%.0f%%) - يحتاج متابعة", score.Availability))
	}

	if score.Growth >= 70 {
		reasons = append(reasons, fmt.Sprintf("🌟 فرصة ممتازة للنمو والتطور (%.0f%%)", score.Growth))
	} else if score.Growth >= 50 {
		reasons = append(reasons, fmt.Sprintf("📈 فرصة جيدة للتعلم (%.0f%%)", score.Growth))
	}

	if employee.BurnoutScore > 70 {
		reasons = append(reasons, "⚠️ تنبيه: مؤشرات احتراق وظيفي مرتفعة")
	}
	if employee.StressLevel > 70 {
		reasons = append(reasons, "⚠️ تنبيه: مستوى توتر عالي")
	}
	if employee.RecentSuccess > 5 {
		reasons = append(reasons, fmt.Sprintf("🏆 سجل حافل: %d نجاح مؤخراً", employee.RecentSuccess))
	}

	return reasons
}

func (d *Distributor) generateRecommendations(employee domain.EmployeeProfile, task domain.TaskToDistribute, risks []string) []string {
	var recommendations []string

	if len(risks) > 0 {
		recommendations = append(recommendations, "📋 متابعة يومية للتقدم")
	}
	if employee.BurnoutScore > 60 {
		recommendations = append(recommendations,
			"💆 توفير استراحات إضافية",
			"🗣️ جلسة دعم مع المشرف")
	}
	if task.Difficulty == "hard" || task.Difficulty == "expert" {
		recommendations = append(recommendations,
			"👥 توفير موجه (Mentor) للمساعدة",
			"📚 توفير موارد تعليمية إضافية")
	}
	if employee.CurrentWorkload > 70 {
		recommendations = append(recommendations, "🔄 إعادة ترتيب الأولويات الحالية")
	}
	if task.Priority == "urgent" {
		recommendations = append(recommendations, "⚡ تخصيص وقت مركز بدون مقاطعات")
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "✅ المهمة مناسبة - لا توصيات إضافية")
	}
	return recommendations
}

func alternativeReason(score domain.RAGScore) string {
	switch {
	case score.Overall >= 70:
		return fmt.Sprintf("خيار ممتاز أيضاً (%.0f نقطة)", score.Overall)
	case score.Overall >= 50:
		return fmt.Sprintf("خيار جيد بديل (%.0f نقطة)", score.Overall)
	default:
		return fmt.Sprintf("خيار احتياطي (%.0f نقطة)", score.Overall)
	}
}
