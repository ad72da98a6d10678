package engine_test

import (
	"testing"
	"time"

	"ataa/internal/domain"
	"ataa/internal/engine"
)

var testNow = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func designTask() domain.TaskToDistribute {
	return domain.TaskToDistribute{
		ID:             "task-1",
		Title:          "تصميم حملة",
		Priority:       "medium",
		EstimatedHours: 16,
		Difficulty:     "medium",
		RequiredSkills: []string{"design"},
		Deadline:       time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		Tags:           []string{"design"},
	}
}

func strongDesigner() domain.EmployeeProfile {
	return domain.EmployeeProfile{
		ID:   "emp-strong",
		Name: "سارة",
		Skills: []domain.SkillLevel{
			{Skill: "design", Level: 80},
		},
		CurrentWorkload:    20,
		Availability:       100,
		PerformanceScore:   90,
		BurnoutScore:       10,
		StressLevel:        10,
		RecentSuccess:      3,
		PreferredTaskTypes: []string{"design"},
	}
}

func averageDesigner() domain.EmployeeProfile {
	return domain.EmployeeProfile{
		ID:   "emp-average",
		Name: "خالد",
		Skills: []domain.SkillLevel{
			{Skill: "design", Level: 50},
		},
		CurrentWorkload:  50,
		Availability:     80,
		PerformanceScore: 70,
		BurnoutScore:     40,
		StressLevel:      40,
		RecentSuccess:    1,
	}
}

func unqualifiedEmployee() domain.EmployeeProfile {
	return domain.EmployeeProfile{
		ID:               "emp-none",
		Name:             "فهد",
		CurrentWorkload:  95,
		Availability:     50,
		PerformanceScore: 50,
		BurnoutScore:     90,
		StressLevel:      90,
		RecentFailures:   3,
		Skills: []domain.SkillLevel{
			{Skill: "accounting", Level: 40},
		},
	}
}

func TestRAGScoreGreen(t *testing.T) {
	rag := engine.NewRAG()
	rag.Now = testNow

	score := rag.Score(strongDesigner(), designTask())

	if score.Color != "green" {
		t.Fatalf("expected green, got %s (overall %v)", score.Color, score.Overall)
	}
	if score.Overall != 87 {
		t.Fatalf("overall = %v, want 87", score.Overall)
	}
	if score.Readiness != 83 {
		t.Fatalf("readiness = %v, want 83", score.Readiness)
	}
	if score.Availability != 93 {
		t.Fatalf("availability = %v, want 93", score.Availability)
	}
	if score.Growth != 90 {
		t.Fatalf("growth = %v, want 90", score.Growth)
	}
}

func TestRAGScoreAmber(t *testing.T) {
	rag := engine.NewRAG()
	rag.Now = testNow

	score := rag.Score(averageDesigner(), designTask())
	if score.Color != "amber" {
		t.Fatalf("expected amber, got %s (overall %v)", score.Color, score.Overall)
	}
	if score.Overall != 57 {
		t.Fatalf("overall = %v, want 57", score.Overall)
	}
}

func TestRAGScoreRedWhenNoSkillMatch(t *testing.T) {
	rag := engine.NewRAG()
	rag.Now = testNow

	score := rag.Score(unqualifiedEmployee(), designTask())
	if score.Color != "red" {
		t.Fatalf("expected red, got %s (overall %v)", score.Color, score.Overall)
	}
	if score.Readiness != 0 {
		t.Fatalf("readiness = %v, want 0", score.Readiness)
	}
}

func TestRAGReadinessBaseWithoutRequiredSkills(t *testing.T) {
	rag := engine.NewRAG()
	rag.Now = testNow

	task := designTask()
	task.RequiredSkills = nil

	score := rag.Score(strongDesigner(), designTask())
	open := rag.Score(strongDesigner(), task)
	// 50-point base instead of the skill-match path
	if open.Readiness >= score.Readiness {
		t.Fatalf("open readiness %v should be below matched readiness %v", open.Readiness, score.Readiness)
	}
	if open.Readiness != 45 {
		t.Fatalf("open readiness = %v, want 45", open.Readiness)
	}
}

func TestRAGTightDeadlineHalvesAvailability(t *testing.T) {
	rag := engine.NewRAG()
	rag.Now = testNow

	task := designTask()
	task.Deadline = testNow().Add(12 * time.Hour)
	task.EstimatedHours = 40 // needs 5 days, only half a day left

	loose := rag.Score(strongDesigner(), designTask())
	tight := rag.Score(strongDesigner(), task)
	if tight.Availability >= loose.Availability {
		t.Fatalf("tight deadline availability %v should be below %v", tight.Availability, loose.Availability)
	}
}
