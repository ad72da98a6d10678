package engine_test

import (
	"testing"
	"time"

	"ataa/internal/domain"
	"ataa/internal/engine"
)

func newTestDecider() *engine.Decider {
	d := engine.NewDecider()
	d.Now = testNow
	d.NewID = func() string { return "decision_test" }
	return d
}

func TestDecideBurnoutTriggerRecommendsWorkloadReduction(t *testing.T) {
	d := newTestDecider()

	decision := d.Decide(domain.DecisionContext{
		TriggeredBy: "burnout detected for employee emp-1",
	})

	if decision.RecommendedOption != "option_workload_reduction" {
		t.Fatalf("recommended = %s", decision.RecommendedOption)
	}
	if len(decision.Options) != 2 {
		t.Fatalf("options = %d, want baseline + workload reduction", len(decision.Options))
	}
	if decision.Urgency != "high" {
		t.Fatalf("urgency = %s, want high", decision.Urgency)
	}
	if decision.Impact != "moderate" {
		t.Fatalf("impact = %s, want moderate", decision.Impact)
	}
	if decision.Confidence != 63 {
		t.Fatalf("confidence = %v, want 63", decision.Confidence)
	}
	if decision.Status != "pending" {
		t.Fatalf("status = %s", decision.Status)
	}
	wantExpiry := testNow().Add(7 * 24 * time.Hour)
	if !decision.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires = %v, want %v", decision.ExpiresAt, wantExpiry)
	}
}

func TestDecideStrictBudgetDropsExpensiveOptions(t *testing.T) {
	d := newTestDecider()

	decision := d.Decide(domain.DecisionContext{
		TriggeredBy: "burnout detected",
		Constraints: []domain.Constraint{
			{Type: "budget", Value: 1000, Strict: true},
		},
	})

	if len(decision.Options) != 1 || decision.Options[0].ID != "option_no_action" {
		t.Fatalf("options = %+v", decision.Options)
	}
	if decision.RecommendedOption != "option_no_action" {
		t.Fatalf("recommended = %s", decision.RecommendedOption)
	}
}

func TestDecideSoftBudgetHalvesProbability(t *testing.T) {
	d := newTestDecider()

	decision := d.Decide(domain.DecisionContext{
		TriggeredBy: "burnout detected",
		Constraints: []domain.Constraint{
			{Type: "budget", Value: 1000, Strict: false},
		},
	})

	var reduction *domain.DecisionOption
	for i := range decision.Options {
		if decision.Options[i].ID == "option_workload_reduction" {
			reduction = &decision.Options[i]
		}
	}
	if reduction == nil {
		t.Fatalf("workload reduction dropped, options = %+v", decision.Options)
	}
	if reduction.Probability != 42.5 {
		t.Fatalf("probability = %v, want 42.5", reduction.Probability)
	}
	// penalized before scoring, still the better option
	if decision.RecommendedOption != "option_workload_reduction" {
		t.Fatalf("recommended = %s", decision.RecommendedOption)
	}
}

func TestDecideCriticalExpiresInADay(t *testing.T) {
	d := newTestDecider()

	decision := d.Decide(domain.DecisionContext{TriggeredBy: "critical budget overrun"})
	if decision.Urgency != "critical" {
		t.Fatalf("urgency = %s", decision.Urgency)
	}
	if decision.Type != "budget-approval" {
		t.Fatalf("type = %s", decision.Type)
	}
	wantExpiry := testNow().Add(24 * time.Hour)
	if !decision.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires = %v, want %v", decision.ExpiresAt, wantExpiry)
	}
}

func TestDecideTaskDelayOffersPriorityAdjustment(t *testing.T) {
	d := newTestDecider()

	decision := d.Decide(domain.DecisionContext{TriggeredBy: "task delay on project p-1"})
	if decision.RecommendedOption != "option_priority_adjustment" {
		t.Fatalf("recommended = %s", decision.RecommendedOption)
	}
	if decision.Type != "task-assignment" {
		t.Fatalf("type = %s", decision.Type)
	}
}

func TestAcceptRejectAndOutcome(t *testing.T) {
	d := newTestDecider()

	decision := d.Decide(domain.DecisionContext{TriggeredBy: "performance drop"})

	accepted := d.Accept(decision, "manager-1")
	if accepted.Status != "accepted" || accepted.DecidedBy != "manager-1" || accepted.DecidedAt == nil {
		t.Fatalf("accepted = %+v", accepted)
	}

	rejected := d.Reject(decision, "manager-2", "لا ميزانية")
	if rejected.Status != "rejected" || rejected.OutcomeNotes != "لا ميزانية" {
		t.Fatalf("rejected = %+v", rejected)
	}

	closed := d.RecordOutcome(accepted, "successful", "تحسن ملحوظ")
	if closed.ActualOutcome != "successful" || closed.OutcomeNotes != "تحسن ملحوظ" {
		t.Fatalf("outcome = %+v", closed)
	}
	if closed.Status != "accepted" {
		t.Fatalf("outcome must not change status, got %s", closed.Status)
	}
}
