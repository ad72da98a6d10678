package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ataa/internal/domain"

	"github.com/google/uuid"
)

// Workflow drives mandatory project steps: instantiation from a template,
// gating on dependencies and earlier required steps, progress and blockage
// reporting.
type Workflow struct {
	Now   func() time.Time
	NewID func() string
}

func NewWorkflow() *Workflow { return &Workflow{} }

func (w *Workflow) now() time.Time { return defaultNow(w.Now) }

// Instantiate materializes a template's steps for a project. Step ids are
// deterministic (step_<projectID>_<n>) so dependencies written against the
// template survive instantiation.
func (w *Workflow) Instantiate(projectID, templateID string, templates []domain.WorkflowTemplate) ([]domain.ProjectStep, error) {
	var template *domain.WorkflowTemplate
	for i := range templates {
		if templates[i].ID == templateID {
			template = &templates[i]
			break
		}
	}
	if template == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	steps := make([]domain.ProjectStep, 0, len(template.Steps))
	for i, ts := range template.Steps {
		steps = append(steps, domain.ProjectStep{
			ID:             fmt.Sprintf("step_%s_%d", projectID, i+1),
			ProjectID:      projectID,
			StepNumber:     i + 1,
			Title:          ts.Title,
			Description:    ts.Description,
			Required:       ts.Required,
			Status:         "pending",
			AssignedTo:     ts.AssignedTo,
			Files:          []domain.StepFile{},
			Dependencies:   append([]string{}, ts.Dependencies...),
			Deadline:       ts.Deadline,
			EstimatedHours: ts.EstimatedHours,
			Notes:          ts.Notes,
		})
	}
	return steps, nil
}

// Progress summarizes step counts, the current and next step, blockage and an
// estimated completion date at 8 working hours a day.
func (w *Workflow) Progress(steps []domain.ProjectStep) domain.WorkflowProgress {
	progress := domain.WorkflowProgress{TotalSteps: len(steps)}
	if len(steps) > 0 {
		progress.ProjectID = steps[0].ProjectID
	}

	for i := range steps {
		switch steps[i].Status {
		case "completed":
			progress.CompletedSteps++
		case "pending":
			progress.PendingSteps++
		case "in-progress":
			progress.InProgressSteps++
		case "skipped":
			progress.SkippedSteps++
		}
	}

	if progress.TotalSteps > 0 {
		progress.ProgressPercentage = round(float64(progress.CompletedSteps) / float64(progress.TotalSteps) * 100)
	}

	for i := range steps {
		if steps[i].Status == "in-progress" {
			progress.CurrentStep = &steps[i]
			break
		}
	}

	var pending []*domain.ProjectStep
	for i := range steps {
		if steps[i].Status == "pending" {
			pending = append(pending, &steps[i])
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].StepNumber < pending[j].StepNumber })
	if len(pending) > 0 {
		progress.NextStep = pending[0]
	}

	progress.IsBlocked, progress.BlockedReason = w.blocked(steps)
	progress.EstimatedCompletion = w.estimateCompletion(steps)

	return progress
}

// blocked checks the three blockage rules in order: overdue incomplete
// steps, steps waiting on unmet dependencies, then required pending steps
// below the furthest in-progress step.
func (w *Workflow) blocked(steps []domain.ProjectStep) (bool, string) {
	now := w.now()

	overdue := 0
	for _, s := range steps {
		if s.Status != "completed" && s.Deadline != nil && s.Deadline.Before(now) {
			overdue++
		}
	}
	if overdue > 0 {
		return true, fmt.Sprintf("%d خطوة متأخرة عن الموعد المحدد", overdue)
	}

	for _, s := range steps {
		if s.Status != "in-progress" && s.Status != "pending" {
			continue
		}
		for _, depID := range s.Dependencies {
			dep := findStep(steps, depID)
			if dep != nil && dep.Status != "completed" {
				return true, fmt.Sprintf("الخطوة \"%s\" معتمدة على خطوات غير مكتملة", s.Title)
			}
		}
	}

	maxInProgress := 0
	hasInProgress := false
	for _, s := range steps {
		if s.Status == "in-progress" && s.StepNumber > maxInProgress {
			maxInProgress = s.StepNumber
			hasInProgress = true
		}
	}
	if hasInProgress {
		for _, s := range steps {
			if s.Required && s.Status == "pending" && s.StepNumber < maxInProgress {
				return true, "يجب إكمال الخطوات الإلزامية السابقة أولاً"
			}
		}
	}

	return false, ""
}

func (w *Workflow) estimateCompletion(steps []domain.ProjectStep) *time.Time {
	remainingHours := 0.0
	remaining := 0
	for _, s := range steps {
		if s.Status != "pending" && s.Status != "in-progress" {
			continue
		}
		remaining++
		hours := s.EstimatedHours
		if s.Status == "in-progress" && s.ActualHours > 0 {
			hours = s.EstimatedHours - s.ActualHours
		}
		remainingHours += math.Max(hours, 0)
	}
	if remaining == 0 {
		return nil
	}

	days := int(math.Ceil(remainingHours / 8))
	estimated := w.now().AddDate(0, 0, days)
	return &estimated
}

// CanStart reports whether the step may move to in-progress, with the Arabic
// denial reason when it may not.
func (w *Workflow) CanStart(step domain.ProjectStep, all []domain.ProjectStep) (bool, string) {
	for _, depID := range step.Dependencies {
		dep := findStep(all, depID)
		if dep != nil && dep.Status != "completed" {
			return false, "يجب إكمال الخطوات المعتمدة عليها أولاً"
		}
	}

	for _, s := range all {
		if s.Required && s.StepNumber < step.StepNumber && s.Status != "completed" {
			return false, "يجب إكمال جميع الخطوات الإلزامية السابقة"
		}
	}

	return true, ""
}

// CanComplete checks the required-files rule.
func (w *Workflow) CanComplete(step domain.ProjectStep) (bool, string) {
	requiredFiles := 0
	uploaded := false
	for _, f := range step.Files {
		if f.Required {
			requiredFiles++
			uploaded = true
		}
	}
	if requiredFiles > 0 && !uploaded {
		return false, "يجب رفع جميع الملفات المطلوبة"
	}
	return true, ""
}

// Start moves the step to in-progress, assigning it to the actor if nobody
// holds it yet.
func (w *Workflow) Start(step domain.ProjectStep, userID string) domain.ProjectStep {
	step.Status = "in-progress"
	if step.AssignedTo == "" {
		step.AssignedTo = userID
	}
	return step
}

// Complete marks the step done by the actor at the current time.
func (w *Workflow) Complete(step domain.ProjectStep, userID string) domain.ProjectStep {
	now := w.now()
	step.Status = "completed"
	step.CompletedAt = &now
	step.CompletedBy = userID
	return step
}

// NewStepFile builds an attachment record for a step.
func (w *Workflow) NewStepFile(stepID, fileName, fileType string, fileSize int64, url, userID string, required bool) domain.StepFile {
	id := "file_" + uuid.NewString()
	if w.NewID != nil {
		id = w.NewID()
	}
	return domain.StepFile{
		ID:         id,
		StepID:     stepID,
		FileName:   fileName,
		FileType:   fileType,
		FileSize:   fileSize,
		UploadedAt: w.now(),
		UploadedBy: userID,
		URL:        url,
		Required:   required,
	}
}

func findStep(steps []domain.ProjectStep, id string) *domain.ProjectStep {
	for i := range steps {
		if steps[i].ID == id {
			return &steps[i]
		}
	}
	return nil
}
