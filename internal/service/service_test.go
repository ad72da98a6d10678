package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ataa/internal/config"
	"ataa/internal/db"
	"ataa/internal/domain"
	"ataa/internal/engine"
	"ataa/internal/migrate"
	"ataa/internal/repo"
	"ataa/internal/service"
)

var testNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	Svc *service.Service
	Ctx context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc := service.New(conn, config.Default("org-1"))
	svc.Now = func() time.Time { return testNow }
	return testEnv{Svc: svc, Ctx: context.Background()}
}

func strongDesigner() domain.EmployeeProfile {
	return domain.EmployeeProfile{
		ID:   "emp-strong",
		Name: "سارة",
		Skills: []domain.SkillLevel{
			{Skill: "design", Level: 80, LastUsed: testNow},
		},
		CurrentWorkload:    20,
		Availability:       100,
		PerformanceScore:   90,
		BurnoutScore:       10,
		StressLevel:        10,
		RecentSuccess:      3,
		PreferredTaskTypes: []string{"design"},
		WorkingHours:       domain.WorkingHours{Start: 9, End: 17},
	}
}

func averageDesigner() domain.EmployeeProfile {
	return domain.EmployeeProfile{
		ID:   "emp-average",
		Name: "خالد",
		Skills: []domain.SkillLevel{
			{Skill: "design", Level: 50, LastUsed: testNow},
		},
		CurrentWorkload:  50,
		Availability:     80,
		PerformanceScore: 70,
		BurnoutScore:     40,
		StressLevel:      40,
		RecentSuccess:    1,
		WorkingHours:     domain.WorkingHours{Start: 9, End: 17},
	}
}

func designTask(id string) domain.TaskToDistribute {
	return domain.TaskToDistribute{
		ID:             id,
		Title:          "تصميم حملة",
		Priority:       "medium",
		EstimatedHours: 16,
		Difficulty:     "medium",
		RequiredSkills: []string{"design"},
		Deadline:       time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		Tags:           []string{"design"},
		CreatedAt:      testNow,
	}
}

func TestDistributeTaskPersistsAssignment(t *testing.T) {
	env := newTestEnv(t)
	for _, e := range []domain.EmployeeProfile{strongDesigner(), averageDesigner()} {
		if _, err := env.Svc.CreateEmployee(env.Ctx, e, "tester"); err != nil {
			t.Fatalf("create employee: %v", err)
		}
	}
	if _, err := env.Svc.CreateTask(env.Ctx, designTask("task-1"), "tester"); err != nil {
		t.Fatalf("create task: %v", err)
	}

	result, err := env.Svc.DistributeTask(env.Ctx, "task-1", "tester")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if result.SelectedEmployee.ID != "emp-strong" {
		t.Fatalf("expected emp-strong, got %s", result.SelectedEmployee.ID)
	}

	task, err := env.Svc.GetTask(env.Ctx, "task-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.AssigneeID == nil || *task.AssigneeID != "emp-strong" {
		t.Fatalf("assignee not persisted: %v", task.AssigneeID)
	}

	// 16h on a 40h week bumps stored workload by 40 points.
	stored, err := env.Svc.GetEmployee(env.Ctx, "emp-strong")
	if err != nil {
		t.Fatalf("get employee: %v", err)
	}
	if stored.CurrentWorkload != 60 {
		t.Fatalf("expected workload 60, got %v", stored.CurrentWorkload)
	}

	if _, err := env.Svc.DistributeTask(env.Ctx, "task-1", "tester"); err == nil {
		t.Fatalf("expected error on already assigned task")
	}

	events, err := env.Svc.Log(env.Ctx, "task", "task-1", 10)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	found := false
	for _, e := range events {
		if e.Type == "task.distributed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected task.distributed event, got %v", events)
	}
}

func TestDistributeBacklogAssignsEveryTask(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Svc.CreateEmployee(env.Ctx, strongDesigner(), "tester"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"task-a", "task-b"} {
		if _, err := env.Svc.CreateTask(env.Ctx, designTask(id), "tester"); err != nil {
			t.Fatal(err)
		}
	}

	results, err := env.Svc.DistributeBacklog(env.Ctx, "tester")
	if err != nil {
		t.Fatalf("backlog: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	remaining, err := env.Svc.Repo.ListUnassignedTasks(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty backlog, got %d tasks", len(remaining))
	}

	// Two 16h tasks: 20 + 40 + 40 = 100.
	stored, err := env.Svc.GetEmployee(env.Ctx, "emp-strong")
	if err != nil {
		t.Fatal(err)
	}
	if stored.CurrentWorkload != 100 {
		t.Fatalf("expected workload 100, got %v", stored.CurrentWorkload)
	}
}

func TestAnalyzeAndForecastBurnout(t *testing.T) {
	env := newTestEnv(t)
	current := testNow
	env.Svc.Now = func() time.Time { return current }
	if _, err := env.Svc.CreateEmployee(env.Ctx, strongDesigner(), "tester"); err != nil {
		t.Fatal(err)
	}

	calm := domain.WorkData{
		WeeklyHours: 40, FocusScore: 100, RestDays: 2,
		ConsecutiveWorkDays: 3, AvgHoursPerDay: 8, EngagementScore: 80,
	}
	record, err := env.Svc.AnalyzeBurnout(env.Ctx, "emp-strong", calm, "tester")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if record.BurnoutScore != 0 || record.RiskLevel != "low" {
		t.Fatalf("expected healthy record, got %v %s", record.BurnoutScore, record.RiskLevel)
	}

	current = current.Add(24 * time.Hour)
	overloaded := domain.WorkData{
		WeeklyHours: 60, TasksOverdue: 4, ErrorRate: 2, FocusScore: 80,
		ConsecutiveWorkDays: 6, AvgHoursPerDay: 10, EngagementScore: 50,
	}
	record, err = env.Svc.AnalyzeBurnout(env.Ctx, "emp-strong", overloaded, "tester")
	if err != nil {
		t.Fatalf("analyze overloaded: %v", err)
	}
	if record.BurnoutScore != 90 || record.RiskLevel != "critical" {
		t.Fatalf("expected critical 90, got %v %s", record.BurnoutScore, record.RiskLevel)
	}

	prediction, err := env.Svc.ForecastBurnout(env.Ctx, "emp-strong")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if prediction.PredictedBurnout != 100 {
		t.Fatalf("expected predicted 100, got %v", prediction.PredictedBurnout)
	}
	if prediction.TimeToRisk != 999 {
		t.Fatalf("expected 999 (already past risk), got %d", prediction.TimeToRisk)
	}
	if prediction.Confidence != 0.6 {
		t.Fatalf("expected confidence 0.6, got %v", prediction.Confidence)
	}
	if len(prediction.PreventiveActions) != 3 {
		t.Fatalf("expected preventive actions, got %v", prediction.PreventiveActions)
	}

	history, err := env.Svc.BurnoutHistory(env.Ctx, "emp-strong", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].BurnoutScore != 0 || history[1].BurnoutScore != 90 {
		t.Fatalf("unexpected trend: %v", history)
	}

	if _, err := env.Svc.ForecastBurnout(env.Ctx, "emp-unknown"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecisionLifecycleAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	current := testNow
	env.Svc.Now = func() time.Time { return current }
	n := 0
	env.Svc.Decider.NewID = func() string {
		n++
		return fmt.Sprintf("decision_%d", n)
	}

	first, err := env.Svc.RunDecision(env.Ctx, domain.DecisionContext{
		TriggeredBy: "ارتفاع معدل الإرهاق للموظف أحمد",
	}, "tester")
	if err != nil {
		t.Fatalf("run decision: %v", err)
	}
	if first.RecommendedOption != "option_workload_reduction" {
		t.Fatalf("expected workload reduction, got %s", first.RecommendedOption)
	}
	if first.Status != "pending" {
		t.Fatalf("expected pending, got %s", first.Status)
	}
	if !first.ExpiresAt.Equal(testNow.AddDate(0, 0, 7)) {
		t.Fatalf("expected 7 day expiry, got %v", first.ExpiresAt)
	}

	accepted, err := env.Svc.AcceptDecision(env.Ctx, first.ID, "manager")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != "accepted" || accepted.DecidedBy != "manager" {
		t.Fatalf("unexpected accepted decision: %+v", accepted)
	}
	if _, err := env.Svc.AcceptDecision(env.Ctx, first.ID, "manager"); err == nil {
		t.Fatalf("expected error accepting twice")
	}

	second, err := env.Svc.RunDecision(env.Ctx, domain.DecisionContext{
		TriggeredBy: "تأخر متكرر في تسليم المهام",
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != "pending" {
		t.Fatalf("expected pending, got %s", second.Status)
	}

	current = current.AddDate(0, 0, 8)
	swept, err := env.Svc.ExpireDecisions(env.Ctx, "system")
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 expired decision, got %d", swept)
	}
	expired, err := env.Svc.ListDecisions(env.Ctx, "expired")
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0].ID != second.ID {
		t.Fatalf("unexpected expired list: %v", expired)
	}
}

func TestWorkflowLifecycle(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.Svc.InstantiateWorkflow(env.Ctx, "proj-1", "no-such-template", "tester"); !errors.Is(err, engine.ErrTemplateNotFound) {
		t.Fatalf("expected template not found, got %v", err)
	}

	steps, err := env.Svc.InstantiateWorkflow(env.Ctx, "proj-1", "marketing_campaign", "tester")
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if len(steps) != 9 {
		t.Fatalf("expected 9 steps, got %d", len(steps))
	}
	if steps[0].ID != "step_proj-1_1" {
		t.Fatalf("unexpected step id %s", steps[0].ID)
	}

	if _, err := env.Svc.InstantiateWorkflow(env.Ctx, "proj-1", "marketing_campaign", "tester"); err == nil {
		t.Fatalf("expected error instantiating twice")
	}

	// Step 2 is gated by required step 1.
	if _, err := env.Svc.StartStep(env.Ctx, "step_proj-1_2", "tester"); err == nil {
		t.Fatalf("expected gating error")
	}

	step, err := env.Svc.StartStep(env.Ctx, "step_proj-1_1", "tester")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if step.Status != "in-progress" || step.AssignedTo != "tester" {
		t.Fatalf("unexpected started step: %+v", step)
	}

	step, err = env.Svc.CompleteStep(env.Ctx, "step_proj-1_1", "tester")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if step.Status != "completed" || step.CompletedBy != "tester" {
		t.Fatalf("unexpected completed step: %+v", step)
	}

	step, err = env.Svc.AttachStepFile(env.Ctx, "step_proj-1_2", "دراسة.pdf", "pdf", 2048, "", "tester", true)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(step.Files) != 1 || step.Files[0].FileName != "دراسة.pdf" {
		t.Fatalf("file not attached: %+v", step.Files)
	}

	progress, err := env.Svc.WorkflowProgress(env.Ctx, "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	if progress.CompletedSteps != 1 || progress.TotalSteps != 9 {
		t.Fatalf("unexpected counts: %+v", progress)
	}
	if progress.ProgressPercentage != 11 {
		t.Fatalf("expected 11%%, got %v", progress.ProgressPercentage)
	}
	if progress.NextStep == nil || progress.NextStep.StepNumber != 2 {
		t.Fatalf("expected next step 2, got %+v", progress.NextStep)
	}
}

func TestPracticeReviewAndSearch(t *testing.T) {
	env := newTestEnv(t)
	author := domain.Author{ID: "u-1", Name: "ليلى"}
	practice, err := env.Svc.CreatePractice(env.Ctx, "حملة تبرعات رمضان", "خطوات مجربة", "marketing", author, nil, "tester")
	if err != nil {
		t.Fatalf("create practice: %v", err)
	}
	if practice.Approved || practice.Rating != 0 {
		t.Fatalf("expected unapproved zero-rated practice: %+v", practice)
	}

	practice, err = env.Svc.AddPracticeReview(env.Ctx, practice.ID, "u-2", "عمر", 4, "مفيدة", "tester")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if practice.Rating != 4 {
		t.Fatalf("expected rating 4, got %v", practice.Rating)
	}

	if err := env.Svc.UsePractice(env.Ctx, practice.ID, "tester"); err != nil {
		t.Fatalf("use: %v", err)
	}
	stored, err := env.Svc.Repo.GetPractice(env.Ctx, practice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.UsageCount != 1 {
		t.Fatalf("expected usage 1, got %d", stored.UsageCount)
	}

	hits, err := env.Svc.SearchPractices(env.Ctx, "تبرعات", engine.SearchFilters{Category: "marketing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != practice.ID {
		t.Fatalf("unexpected search hits: %v", hits)
	}
}

func TestCaseRecordingAndAnalysis(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		c := domain.SuccessCase{
			Title:       fmt.Sprintf("حملة %d", i+1),
			Strategy:    "شراكات مجتمعية",
			Budget:      10000,
			ActualSpent: 9000,
			StartDate:   testNow,
			EndDate:     testNow.AddDate(0, 0, 20),
		}
		if _, err := env.Svc.RecordSuccessCase(env.Ctx, c, "tester"); err != nil {
			t.Fatalf("record success: %v", err)
		}
	}
	analysis, err := env.Svc.AnalyzeSuccesses(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis.SuccessPatterns) == 0 {
		t.Fatalf("expected success patterns")
	}
	if len(analysis.SuccessPredictors) != 3 {
		t.Fatalf("expected 3 predictors, got %d", len(analysis.SuccessPredictors))
	}

	fail := domain.FailCase{
		Title:      "فعالية ملغاة",
		RootCauses: []string{"تخطيط ضعيف", "تخطيط ضعيف"},
		WhatWentWrong: []domain.WrongFactor{
			{Factor: "تأخر الموردين", Category: "external", Impact: "high"},
		},
		Severity: "major",
	}
	if _, err := env.Svc.RecordFailCase(env.Ctx, fail, "tester"); err != nil {
		t.Fatalf("record fail: %v", err)
	}
	failAnalysis, err := env.Svc.AnalyzeFailures(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(failAnalysis.Recommendations) == 0 {
		t.Fatalf("expected failure recommendations")
	}
}

func TestCompareInfluencersOrdersByScore(t *testing.T) {
	env := newTestEnv(t)
	proven := domain.InfluencerData{
		ID: "inf-proven", Name: "نور", Platform: "instagram", Followers: 100000,
		Engagement: domain.EngagementMetrics{EngagementRate: 8},
		HistoricalPerformance: func() []domain.CampaignPerformance {
			var hist []domain.CampaignPerformance
			for i := 0; i < 12; i++ {
				hist = append(hist, domain.CampaignPerformance{CampaignID: fmt.Sprintf("c%d", i), ROI: 120})
			}
			return hist
		}(),
		Audience: domain.AudienceData{
			Authenticity: 90,
			Interests:    []string{"خيري", "تطوع"},
		},
		ContentQuality: 90, Reliability: 90, LastUpdated: testNow,
	}
	unproven := domain.InfluencerData{
		ID: "inf-new", Name: "مجهول", Platform: "tiktok", Followers: 5000,
		Engagement:     domain.EngagementMetrics{EngagementRate: 1},
		Audience:       domain.AudienceData{Authenticity: 50},
		ContentQuality: 30, Reliability: 40, LastUpdated: testNow,
	}
	for _, inf := range []domain.InfluencerData{unproven, proven} {
		if _, err := env.Svc.SaveInfluencer(env.Ctx, inf, "tester"); err != nil {
			t.Fatalf("save influencer: %v", err)
		}
	}

	results, err := env.Svc.CompareInfluencers(env.Ctx, nil, 5000, "sponsored-post", []string{"خيري"})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(results))
	}
	if results[0].InfluencerID != "inf-proven" {
		t.Fatalf("expected proven influencer first, got %s", results[0].InfluencerID)
	}

	if _, err := env.Svc.PredictInfluencer(env.Ctx, "inf-missing", 1000, "story", nil); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
