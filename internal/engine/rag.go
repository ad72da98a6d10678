package engine

import (
	"math"
	"time"

	"ataa/internal/domain"
)

// RAG scores one employee against one task on three axes: readiness (skills
// and track record), availability (load and time pressure) and growth (what
// the task offers the employee). Weighted sum and 70/40 color bands.
type RAG struct {
	ReadinessWeight    float64
	AvailabilityWeight float64
	GrowthWeight       float64
	GreenThreshold     float64
	AmberThreshold     float64
	Now                func() time.Time
}

// NewRAG returns a scorer with the standard 0.5/0.3/0.2 weights.
func NewRAG() *RAG {
	return &RAG{
		ReadinessWeight:    0.5,
		AvailabilityWeight: 0.3,
		GrowthWeight:       0.2,
		GreenThreshold:     70,
		AmberThreshold:     40,
	}
}

// Score is a total function: missing optional fields count as zero, nothing
// errors. Component values are rounded in the returned record; the color is
// derived from the unrounded weighted sum, so 69.999 stays amber.
func (r *RAG) Score(employee domain.EmployeeProfile, task domain.TaskToDistribute) domain.RAGScore {
	readiness := r.readiness(employee, task)
	availability := r.availability(employee, task)
	growth := r.growth(employee, task)

	overall := readiness*r.ReadinessWeight + availability*r.AvailabilityWeight + growth*r.GrowthWeight

	color := "red"
	switch {
	case overall >= r.GreenThreshold:
		color = "green"
	case overall >= r.AmberThreshold:
		color = "amber"
	}

	return domain.RAGScore{
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		Readiness:    round(readiness),
		Availability: round(availability),
		Growth:       round(growth),
		Overall:      round(overall),
		Color:        color,
	}
}

func difficultyFactor(difficulty string) float64 {
	switch difficulty {
	case "easy":
		return 1.2
	case "hard":
		return 0.8
	case "expert":
		return 0.6
	default:
		return 1.0
	}
}

func (r *RAG) readiness(employee domain.EmployeeProfile, task domain.TaskToDistribute) float64 {
	score := 0.0

	if len(task.RequiredSkills) == 0 {
		// No explicit requirements: flat base before the multipliers.
		score += 50
	} else {
		var matched []string
		for _, req := range task.RequiredSkills {
			for _, skill := range employee.Skills {
				if containsFold(skill.Skill, req) || containsFold(req, skill.Skill) {
					matched = append(matched, req)
					break
				}
			}
		}

		matchRate := float64(len(matched)) / float64(len(task.RequiredSkills))
		score += matchRate * 60

		perSkillBonus := 40 / float64(len(task.RequiredSkills))
		for _, req := range matched {
			for _, skill := range employee.Skills {
				if containsFold(skill.Skill, req) {
					score += (skill.Level / 100) * perSkillBonus
					break
				}
			}
		}
	}

	score *= employee.PerformanceScore / 100
	score *= difficultyFactor(task.Difficulty)

	return math.Min(score, 100)
}

func (r *RAG) availability(employee domain.EmployeeProfile, task domain.TaskToDistribute) float64 {
	score := 100.0
	score -= employee.CurrentWorkload * 0.6
	score -= (employee.BurnoutScore / 100) * 20
	score -= (employee.StressLevel / 100) * 15
	score *= employee.Availability / 100

	daysUntilDeadline := task.Deadline.Sub(defaultNow(r.Now)).Hours() / 24
	requiredDays := task.EstimatedHours / 8

	if daysUntilDeadline < requiredDays {
		score *= 0.5
	} else if daysUntilDeadline > requiredDays*2 {
		score *= 1.1
	}

	return clamp(score, 0, 100)
}

func (r *RAG) growth(employee domain.EmployeeProfile, task domain.TaskToDistribute) float64 {
	score := 50.0

	// Skills the employee does not have yet mean a learning opportunity.
	newSkills := 0
	for _, req := range task.RequiredSkills {
		known := false
		for _, skill := range employee.Skills {
			if containsFold(skill.Skill, req) {
				known = true
				break
			}
		}
		if !known {
			newSkills++
		}
	}
	if newSkills > 0 {
		score += 30
	}

	for _, tag := range task.Tags {
		if containsString(employee.PreferredTaskTypes, tag) {
			score += 20
			break
		}
	}

	if task.Difficulty == "medium" {
		score += 10
	} else if task.Difficulty == "hard" && employee.PerformanceScore > 70 {
		score += 15
	}

	if employee.RecentSuccess > employee.RecentFailures {
		score += 10
	}

	return math.Min(score, 100)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
