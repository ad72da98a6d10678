package engine_test

import (
	"errors"
	"strings"
	"testing"

	"ataa/internal/domain"
	"ataa/internal/engine"
)

func newTestWorkflow() *engine.Workflow {
	w := engine.NewWorkflow()
	w.Now = testNow
	return w
}

func smallTemplate() domain.WorkflowTemplate {
	return domain.WorkflowTemplate{
		ID:       "launch",
		Name:     "إطلاق مبادرة",
		Category: "general",
		Steps: []domain.TemplateStep{
			{StepNumber: 1, Title: "التخطيط", Required: true, EstimatedHours: 8},
			{StepNumber: 2, Title: "التصميم", Required: true, EstimatedHours: 16, Dependencies: []string{"step_proj-1_1"}},
			{StepNumber: 3, Title: "المراجعة", Required: false, EstimatedHours: 4},
			{StepNumber: 4, Title: "الإطلاق", Required: true, EstimatedHours: 8},
		},
		EstimatedTotalHours: 36,
	}
}

func TestInstantiateAssignsDeterministicIDs(t *testing.T) {
	w := newTestWorkflow()

	steps, err := w.Instantiate("proj-1", "launch", []domain.WorkflowTemplate{smallTemplate()})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("steps = %d", len(steps))
	}
	if steps[0].ID != "step_proj-1_1" || steps[3].ID != "step_proj-1_4" {
		t.Fatalf("ids = %s..%s", steps[0].ID, steps[3].ID)
	}
	for _, s := range steps {
		if s.Status != "pending" {
			t.Fatalf("step %s status = %s", s.ID, s.Status)
		}
	}
	if len(steps[1].Dependencies) != 1 || steps[1].Dependencies[0] != "step_proj-1_1" {
		t.Fatalf("dependencies = %v", steps[1].Dependencies)
	}
}

func TestInstantiateUnknownTemplate(t *testing.T) {
	w := newTestWorkflow()

	_, err := w.Instantiate("proj-1", "missing", []domain.WorkflowTemplate{smallTemplate()})
	if !errors.Is(err, engine.ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestProgressHalfway(t *testing.T) {
	w := newTestWorkflow()

	steps, _ := w.Instantiate("proj-1", "launch", []domain.WorkflowTemplate{smallTemplate()})
	steps[0] = w.Complete(w.Start(steps[0], "user-1"), "user-1")
	steps[1] = w.Complete(w.Start(steps[1], "user-1"), "user-1")

	progress := w.Progress(steps)
	if progress.ProgressPercentage != 50 {
		t.Fatalf("progress = %v, want 50", progress.ProgressPercentage)
	}
	if progress.CompletedSteps != 2 || progress.PendingSteps != 2 {
		t.Fatalf("counts = %+v", progress)
	}
	if progress.NextStep == nil || progress.NextStep.StepNumber != 3 {
		t.Fatalf("next step = %+v", progress.NextStep)
	}
	if progress.IsBlocked {
		t.Fatalf("unexpected blockage: %s", progress.BlockedReason)
	}
	if progress.EstimatedCompletion == nil {
		t.Fatalf("expected completion estimate")
	}
	// 12 remaining hours at 8 per day
	want := testNow().AddDate(0, 0, 2)
	if !progress.EstimatedCompletion.Equal(want) {
		t.Fatalf("estimated completion = %v, want %v", progress.EstimatedCompletion, want)
	}
}

func TestProgressBlockedByOverdueStep(t *testing.T) {
	w := newTestWorkflow()

	steps, _ := w.Instantiate("proj-1", "launch", []domain.WorkflowTemplate{smallTemplate()})
	past := testNow().AddDate(0, 0, -3)
	steps[0].Deadline = &past

	progress := w.Progress(steps)
	if !progress.IsBlocked {
		t.Fatalf("expected blockage")
	}
	if !strings.Contains(progress.BlockedReason, "متأخرة") {
		t.Fatalf("reason = %q", progress.BlockedReason)
	}
}

func TestProgressBlockedByUnmetDependency(t *testing.T) {
	w := newTestWorkflow()

	steps, _ := w.Instantiate("proj-1", "launch", []domain.WorkflowTemplate{smallTemplate()})
	steps[1] = w.Start(steps[1], "user-1") // step 1 still pending

	progress := w.Progress(steps)
	if !progress.IsBlocked {
		t.Fatalf("expected blockage")
	}
	if !strings.Contains(progress.BlockedReason, "معتمدة على خطوات غير مكتملة") {
		t.Fatalf("reason = %q", progress.BlockedReason)
	}
}

func TestCanStartDenials(t *testing.T) {
	w := newTestWorkflow()

	steps, _ := w.Instantiate("proj-1", "launch", []domain.WorkflowTemplate{smallTemplate()})

	ok, reason := w.CanStart(steps[1], steps)
	if ok || !strings.Contains(reason, "المعتمدة عليها") {
		t.Fatalf("dependency denial = %v %q", ok, reason)
	}

	ok, reason = w.CanStart(steps[3], steps)
	if ok || !strings.Contains(reason, "الخطوات الإلزامية السابقة") {
		t.Fatalf("required-order denial = %v %q", ok, reason)
	}

	steps[0] = w.Complete(w.Start(steps[0], "user-1"), "user-1")
	if ok, reason := w.CanStart(steps[1], steps); !ok {
		t.Fatalf("step 2 should start after step 1: %q", reason)
	}
}

func TestCompleteStampsActorAndTime(t *testing.T) {
	w := newTestWorkflow()

	steps, _ := w.Instantiate("proj-1", "launch", []domain.WorkflowTemplate{smallTemplate()})
	started := w.Start(steps[0], "user-1")
	if started.Status != "in-progress" || started.AssignedTo != "user-1" {
		t.Fatalf("started = %+v", started)
	}

	done := w.Complete(started, "user-2")
	if done.Status != "completed" || done.CompletedBy != "user-2" {
		t.Fatalf("done = %+v", done)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(testNow()) {
		t.Fatalf("completedAt = %v", done.CompletedAt)
	}
}

func TestNewStepFile(t *testing.T) {
	w := newTestWorkflow()
	w.NewID = func() string { return "file_1" }

	file := w.NewStepFile("step_proj-1_1", "خطة.pdf", "application/pdf", 2048, "/files/1", "user-1", true)
	if file.ID != "file_1" || file.StepID != "step_proj-1_1" || !file.Required {
		t.Fatalf("file = %+v", file)
	}
	if !file.UploadedAt.Equal(testNow()) {
		t.Fatalf("uploadedAt = %v", file.UploadedAt)
	}
}
