// Package service is the orchestration layer: it loads records from the
// repository, invokes the pure engines, persists the results and appends
// audit events. Engines never touch storage themselves.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ataa/internal/config"
	"ataa/internal/domain"
	"ataa/internal/engine"
	"ataa/internal/events"
	"ataa/internal/repo"
)

type Service struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
	NewID  func() string

	Distributor *engine.Distributor
	Burnout     *engine.BurnoutLab
	Influencer  *engine.InfluencerModel
	Decider     *engine.Decider
	Workflow    *engine.Workflow
	Practices   *engine.Practices
}

func New(db *sql.DB, cfg *config.Config) *Service {
	s := &Service{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Config: cfg,
	}
	s.Events = events.Writer{DB: db, Now: s.now}

	d := engine.NewDistributor()
	if cfg != nil {
		d.RAG.ReadinessWeight = cfg.Scoring.ReadinessWeight
		d.RAG.AvailabilityWeight = cfg.Scoring.AvailabilityWeight
		d.RAG.GrowthWeight = cfg.Scoring.GrowthWeight
		d.RAG.GreenThreshold = cfg.Scoring.GreenThreshold
		d.RAG.AmberThreshold = cfg.Scoring.AmberThreshold
		d.ReadinessGate = cfg.Scoring.ReadinessGate
	}
	d.Now = s.now
	d.RAG.Now = s.now
	s.Distributor = d

	s.Burnout = &engine.BurnoutLab{Now: s.now}
	s.Influencer = &engine.InfluencerModel{Now: s.now}
	s.Decider = &engine.Decider{Now: s.now}
	s.Workflow = &engine.Workflow{Now: s.now}
	s.Practices = &engine.Practices{Now: s.now}
	return s
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// --- employees and tasks ---

func (s *Service) CreateEmployee(ctx context.Context, e domain.EmployeeProfile, actorID string) (domain.EmployeeProfile, error) {
	if e.Name == "" {
		return e, errors.New("name is required")
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	if err := s.Repo.InsertEmployee(ctx, e, s.now()); err != nil {
		return e, err
	}
	err := s.Events.Append(ctx, nil, "employee.created", "employee", e.ID, actorID, events.EventPayload{"name": e.Name})
	return e, err
}

func (s *Service) UpdateEmployee(ctx context.Context, e domain.EmployeeProfile, actorID string) (domain.EmployeeProfile, error) {
	if err := s.Repo.UpdateEmployee(ctx, e, s.now()); err != nil {
		return e, err
	}
	err := s.Events.Append(ctx, nil, "employee.updated", "employee", e.ID, actorID, events.EventPayload{"name": e.Name})
	return e, err
}

func (s *Service) GetEmployee(ctx context.Context, id string) (domain.EmployeeProfile, error) {
	return s.Repo.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]domain.EmployeeProfile, error) {
	return s.Repo.ListEmployees(ctx)
}

func (s *Service) CreateTask(ctx context.Context, t domain.TaskToDistribute, actorID string) (domain.TaskToDistribute, error) {
	if t.Title == "" {
		return t, errors.New("title is required")
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if t.Difficulty == "" {
		t.Difficulty = "medium"
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	if err := s.Repo.InsertTask(ctx, t); err != nil {
		return t, err
	}
	err := s.Events.Append(ctx, nil, "task.created", "task", t.ID, actorID, events.EventPayload{"title": t.Title, "priority": t.Priority})
	return t, err
}

func (s *Service) GetTask(ctx context.Context, id string) (domain.TaskToDistribute, error) {
	return s.Repo.GetTask(ctx, id)
}

func (s *Service) ListTasks(ctx context.Context) ([]domain.TaskToDistribute, error) {
	return s.Repo.ListTasks(ctx)
}

// ScoreTask returns the full RAG leaderboard for a task, best candidate
// first.
func (s *Service) ScoreTask(ctx context.Context, taskID string) ([]domain.RAGScore, error) {
	task, err := s.Repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	employees, err := s.Repo.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	scores := make([]domain.RAGScore, 0, len(employees))
	for _, e := range employees {
		scores = append(scores, s.Distributor.RAG.Score(e, task))
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Overall > scores[j].Overall })
	return scores, nil
}

// DistributeTask assigns one task to the best-scoring employee and persists
// the assignment. The stored workload of the selected employee is bumped the
// same way the batch engine bumps its working copy.
func (s *Service) DistributeTask(ctx context.Context, taskID, actorID string) (domain.DistributionResult, error) {
	task, err := s.Repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.DistributionResult{}, err
	}
	if task.AssigneeID != nil {
		return domain.DistributionResult{}, fmt.Errorf("task %s already assigned to %s", task.ID, *task.AssigneeID)
	}
	employees, err := s.Repo.ListEmployees(ctx)
	if err != nil {
		return domain.DistributionResult{}, err
	}
	result, err := s.Distributor.Distribute(task, employees)
	if err != nil {
		return domain.DistributionResult{}, err
	}
	return result, s.persistAssignment(ctx, task, result, actorID)
}

// DistributeBacklog runs the batch engine over every unassigned task and
// persists each resulting assignment.
func (s *Service) DistributeBacklog(ctx context.Context, actorID string) ([]domain.DistributionResult, error) {
	tasks, err := s.Repo.ListUnassignedTasks(ctx)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	employees, err := s.Repo.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.Distributor.DistributeBatch(tasks, employees)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.TaskToDistribute, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for _, result := range results {
		if err := s.persistAssignment(ctx, byID[result.TaskID], result, actorID); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (s *Service) persistAssignment(ctx context.Context, task domain.TaskToDistribute, result domain.DistributionResult, actorID string) error {
	selected := result.SelectedEmployee
	if err := s.Repo.SetTaskAssignee(ctx, task.ID, selected.ID); err != nil {
		return err
	}
	stored, err := s.Repo.GetEmployee(ctx, selected.ID)
	if err != nil {
		return err
	}
	stored.CurrentWorkload += (task.EstimatedHours / 40) * 100
	if stored.CurrentWorkload > 100 {
		stored.CurrentWorkload = 100
	}
	if err := s.Repo.UpdateEmployee(ctx, stored, s.now()); err != nil {
		return err
	}
	assignment := domain.Assignment{
		ID:         s.newID(),
		TaskID:     task.ID,
		EmployeeID: selected.ID,
		Score:      result.Score,
		AssignedAt: s.now().UTC(),
		AssignedBy: actorID,
	}
	if err := s.Repo.InsertAssignment(ctx, assignment, result); err != nil {
		return err
	}
	return s.Events.Append(ctx, nil, "task.distributed", "task", task.ID, actorID, events.EventPayload{
		"employee_id": selected.ID,
		"score":       result.Score,
		"probability": result.SuccessProbability,
	})
}

// --- burnout ---

// burnoutTrendWindow caps how many trailing snapshots feed an analysis.
const burnoutTrendWindow = 30

func (s *Service) AnalyzeBurnout(ctx context.Context, employeeID string, work domain.WorkData, actorID string) (domain.BurnoutRecord, error) {
	employee, err := s.Repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return domain.BurnoutRecord{}, err
	}
	trend, err := s.Repo.BurnoutTrend(ctx, employeeID, burnoutTrendWindow)
	if err != nil {
		return domain.BurnoutRecord{}, err
	}
	record := s.Burnout.Analyze(employee.ID, employee.Name, work, trend)
	if err := s.Repo.InsertBurnoutSnapshot(ctx, record); err != nil {
		return record, err
	}
	err = s.Events.Append(ctx, nil, "burnout.analyzed", "employee", employeeID, actorID, events.EventPayload{
		"burnout_score": record.BurnoutScore,
		"risk_level":    record.RiskLevel,
	})
	return record, err
}

func (s *Service) ForecastBurnout(ctx context.Context, employeeID string) (domain.BurnoutPrediction, error) {
	latest, err := s.Repo.LatestBurnoutRecord(ctx, employeeID)
	if err != nil {
		return domain.BurnoutPrediction{}, err
	}
	trend, err := s.Repo.BurnoutTrend(ctx, employeeID, burnoutTrendWindow)
	if err != nil {
		return domain.BurnoutPrediction{}, err
	}
	return s.Burnout.Predict(employeeID, latest.BurnoutScore, trend), nil
}

func (s *Service) BurnoutHistory(ctx context.Context, employeeID string, limit int) ([]domain.TrendPoint, error) {
	if limit <= 0 {
		limit = burnoutTrendWindow
	}
	return s.Repo.BurnoutTrend(ctx, employeeID, limit)
}

// --- influencers ---

func (s *Service) SaveInfluencer(ctx context.Context, inf domain.InfluencerData, actorID string) (domain.InfluencerData, error) {
	if inf.Name == "" {
		return inf, errors.New("name is required")
	}
	if inf.ID == "" {
		inf.ID = s.newID()
	}
	if inf.LastUpdated.IsZero() {
		inf.LastUpdated = s.now().UTC()
	}
	if err := s.Repo.UpsertInfluencer(ctx, inf); err != nil {
		return inf, err
	}
	err := s.Events.Append(ctx, nil, "influencer.saved", "influencer", inf.ID, actorID, events.EventPayload{"name": inf.Name})
	return inf, err
}

func (s *Service) ListInfluencers(ctx context.Context) ([]domain.InfluencerData, error) {
	return s.Repo.ListInfluencers(ctx)
}

func (s *Service) PredictInfluencer(ctx context.Context, influencerID string, budget float64, campaignType string, targetAudience []string) (domain.PredictionResult, error) {
	inf, err := s.Repo.GetInfluencer(ctx, influencerID)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	return s.Influencer.Predict(inf, budget, campaignType, targetAudience), nil
}

// CompareInfluencers predicts each candidate and returns them best first.
// With no ids every stored influencer competes.
func (s *Service) CompareInfluencers(ctx context.Context, ids []string, budget float64, campaignType string, targetAudience []string) ([]domain.PredictionResult, error) {
	var candidates []domain.InfluencerData
	if len(ids) == 0 {
		all, err := s.Repo.ListInfluencers(ctx)
		if err != nil {
			return nil, err
		}
		candidates = all
	} else {
		for _, id := range ids {
			inf, err := s.Repo.GetInfluencer(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("influencer %s: %w", id, err)
			}
			candidates = append(candidates, inf)
		}
	}
	predictions := make([]domain.PredictionResult, 0, len(candidates))
	for _, inf := range candidates {
		predictions = append(predictions, s.Influencer.Predict(inf, budget, campaignType, targetAudience))
	}
	return s.Influencer.Compare(predictions), nil
}

// --- decisions ---

func (s *Service) RunDecision(ctx context.Context, dctx domain.DecisionContext, actorID string) (domain.Decision, error) {
	if dctx.TriggeredBy == "" {
		return domain.Decision{}, errors.New("triggered-by is required")
	}
	decision := s.Decider.Decide(dctx)
	if err := s.Repo.InsertDecision(ctx, decision); err != nil {
		return decision, err
	}
	err := s.Events.Append(ctx, nil, "decision.created", "decision", decision.ID, actorID, events.EventPayload{
		"type":        decision.Type,
		"recommended": decision.RecommendedOption,
		"urgency":     decision.Urgency,
	})
	return decision, err
}

func (s *Service) GetDecision(ctx context.Context, id string) (domain.Decision, error) {
	return s.Repo.GetDecision(ctx, id)
}

func (s *Service) ListDecisions(ctx context.Context, status string) ([]domain.Decision, error) {
	return s.Repo.ListDecisions(ctx, status)
}

func (s *Service) AcceptDecision(ctx context.Context, id, actorID string) (domain.Decision, error) {
	decision, err := s.Repo.GetDecision(ctx, id)
	if err != nil {
		return decision, err
	}
	if decision.Status != "pending" {
		return decision, fmt.Errorf("decision %s is %s, not pending", id, decision.Status)
	}
	decision = s.Decider.Accept(decision, actorID)
	if err := s.Repo.UpdateDecision(ctx, decision); err != nil {
		return decision, err
	}
	err = s.Events.Append(ctx, nil, "decision.accepted", "decision", id, actorID, events.EventPayload{"option": decision.RecommendedOption})
	return decision, err
}

func (s *Service) RejectDecision(ctx context.Context, id, actorID, reason string) (domain.Decision, error) {
	decision, err := s.Repo.GetDecision(ctx, id)
	if err != nil {
		return decision, err
	}
	if decision.Status != "pending" {
		return decision, fmt.Errorf("decision %s is %s, not pending", id, decision.Status)
	}
	decision = s.Decider.Reject(decision, actorID, reason)
	if err := s.Repo.UpdateDecision(ctx, decision); err != nil {
		return decision, err
	}
	err = s.Events.Append(ctx, nil, "decision.rejected", "decision", id, actorID, events.EventPayload{"reason": reason})
	return decision, err
}

func (s *Service) RecordDecisionOutcome(ctx context.Context, id, outcome, notes, actorID string) (domain.Decision, error) {
	decision, err := s.Repo.GetDecision(ctx, id)
	if err != nil {
		return decision, err
	}
	decision = s.Decider.RecordOutcome(decision, outcome, notes)
	if err := s.Repo.UpdateDecision(ctx, decision); err != nil {
		return decision, err
	}
	err = s.Events.Append(ctx, nil, "decision.outcome", "decision", id, actorID, events.EventPayload{"outcome": outcome})
	return decision, err
}

// ExpireDecisions marks every pending decision past its expiry and reports
// how many were swept.
func (s *Service) ExpireDecisions(ctx context.Context, actorID string) (int64, error) {
	n, err := s.Repo.ExpirePendingDecisions(ctx, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := s.Events.Append(ctx, nil, "decisions.expired", "decision", "", actorID, events.EventPayload{"count": n}); err != nil {
			return n, err
		}
	}
	return n, nil
}

// --- workflow ---

func (s *Service) InstantiateWorkflow(ctx context.Context, projectID, templateID, actorID string) ([]domain.ProjectStep, error) {
	existing, err := s.Repo.ListProjectSteps(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("project %s already has workflow steps", projectID)
	}
	var templates []domain.WorkflowTemplate
	if s.Config != nil {
		templates = s.Config.Workflows.Templates
	}
	steps, err := s.Workflow.Instantiate(projectID, templateID, templates)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.InsertSteps(ctx, steps); err != nil {
		return nil, err
	}
	err = s.Events.Append(ctx, nil, "workflow.instantiated", "project", projectID, actorID, events.EventPayload{
		"template": templateID,
		"steps":    len(steps),
	})
	return steps, err
}

func (s *Service) StartStep(ctx context.Context, stepID, actorID string) (domain.ProjectStep, error) {
	step, err := s.Repo.GetStep(ctx, stepID)
	if err != nil {
		return step, err
	}
	all, err := s.Repo.ListProjectSteps(ctx, step.ProjectID)
	if err != nil {
		return step, err
	}
	if ok, reason := s.Workflow.CanStart(step, all); !ok {
		return step, errors.New(reason)
	}
	step = s.Workflow.Start(step, actorID)
	if err := s.Repo.UpdateStep(ctx, step); err != nil {
		return step, err
	}
	err = s.Events.Append(ctx, nil, "step.started", "step", stepID, actorID, events.EventPayload{"project_id": step.ProjectID})
	return step, err
}

func (s *Service) CompleteStep(ctx context.Context, stepID, actorID string) (domain.ProjectStep, error) {
	step, err := s.Repo.GetStep(ctx, stepID)
	if err != nil {
		return step, err
	}
	if ok, reason := s.Workflow.CanComplete(step); !ok {
		return step, errors.New(reason)
	}
	step = s.Workflow.Complete(step, actorID)
	if err := s.Repo.UpdateStep(ctx, step); err != nil {
		return step, err
	}
	err = s.Events.Append(ctx, nil, "step.completed", "step", stepID, actorID, events.EventPayload{"project_id": step.ProjectID})
	return step, err
}

func (s *Service) AttachStepFile(ctx context.Context, stepID, fileName, fileType string, fileSize int64, url, actorID string, required bool) (domain.ProjectStep, error) {
	step, err := s.Repo.GetStep(ctx, stepID)
	if err != nil {
		return step, err
	}
	file := s.Workflow.NewStepFile(stepID, fileName, fileType, fileSize, url, actorID, required)
	step.Files = append(step.Files, file)
	if err := s.Repo.UpdateStep(ctx, step); err != nil {
		return step, err
	}
	err = s.Events.Append(ctx, nil, "step.file.attached", "step", stepID, actorID, events.EventPayload{"file_name": fileName})
	return step, err
}

func (s *Service) WorkflowProgress(ctx context.Context, projectID string) (domain.WorkflowProgress, error) {
	steps, err := s.Repo.ListProjectSteps(ctx, projectID)
	if err != nil {
		return domain.WorkflowProgress{}, err
	}
	progress := s.Workflow.Progress(steps)
	progress.ProjectID = projectID
	return progress, nil
}

// --- practices and cases ---

func (s *Service) CreatePractice(ctx context.Context, title, description, category string, author domain.Author, steps []domain.PracticeStep, actorID string) (domain.BestPractice, error) {
	if title == "" {
		return domain.BestPractice{}, errors.New("title is required")
	}
	practice := s.Practices.NewPractice(title, description, category, author, steps)
	if err := s.Repo.InsertPractice(ctx, practice); err != nil {
		return practice, err
	}
	err := s.Events.Append(ctx, nil, "practice.created", "practice", practice.ID, actorID, events.EventPayload{"title": title})
	return practice, err
}

func (s *Service) SearchPractices(ctx context.Context, query string, filters engine.SearchFilters) ([]domain.BestPractice, error) {
	all, err := s.Repo.ListPractices(ctx)
	if err != nil {
		return nil, err
	}
	return s.Practices.Search(all, query, filters), nil
}

func (s *Service) AddPracticeReview(ctx context.Context, practiceID, userID, userName string, rating float64, comment, actorID string) (domain.BestPractice, error) {
	practice, err := s.Repo.GetPractice(ctx, practiceID)
	if err != nil {
		return practice, err
	}
	practice = s.Practices.AddReview(practice, userID, userName, rating, comment)
	if err := s.Repo.UpdatePractice(ctx, practice); err != nil {
		return practice, err
	}
	err = s.Events.Append(ctx, nil, "practice.reviewed", "practice", practiceID, actorID, events.EventPayload{"rating": practice.Rating})
	return practice, err
}

func (s *Service) UsePractice(ctx context.Context, practiceID, actorID string) error {
	if err := s.Repo.IncrementPracticeUsage(ctx, practiceID); err != nil {
		return err
	}
	return s.Events.Append(ctx, nil, "practice.used", "practice", practiceID, actorID, events.EventPayload{})
}

func (s *Service) RecordSuccessCase(ctx context.Context, c domain.SuccessCase, actorID string) (domain.SuccessCase, error) {
	if c.Title == "" {
		return c, errors.New("title is required")
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	if err := s.Repo.InsertSuccessCase(ctx, c, s.now()); err != nil {
		return c, err
	}
	err := s.Events.Append(ctx, nil, "case.success.recorded", "case", c.ID, actorID, events.EventPayload{"title": c.Title})
	return c, err
}

func (s *Service) RecordFailCase(ctx context.Context, c domain.FailCase, actorID string) (domain.FailCase, error) {
	if c.Title == "" {
		return c, errors.New("title is required")
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	if err := s.Repo.InsertFailCase(ctx, c, s.now()); err != nil {
		return c, err
	}
	err := s.Events.Append(ctx, nil, "case.fail.recorded", "case", c.ID, actorID, events.EventPayload{"title": c.Title})
	return c, err
}

func (s *Service) AnalyzeSuccesses(ctx context.Context) (domain.CaseAnalysis, error) {
	cases, err := s.Repo.ListSuccessCases(ctx)
	if err != nil {
		return domain.CaseAnalysis{}, err
	}
	return s.Practices.AnalyzeSuccesses(cases), nil
}

func (s *Service) AnalyzeFailures(ctx context.Context) (domain.CaseAnalysis, error) {
	cases, err := s.Repo.ListFailCases(ctx)
	if err != nil {
		return domain.CaseAnalysis{}, err
	}
	return s.Practices.AnalyzeFailures(cases), nil
}

// --- events ---

func (s *Service) Log(ctx context.Context, entityKind, entityID string, limit int) ([]domain.Event, error) {
	return s.Repo.ListEvents(ctx, entityKind, entityID, limit)
}
