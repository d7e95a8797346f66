package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Harvest/internal/capability"
	"github.com/shaiso/Harvest/internal/domain"
)

func TestNext_Sequence(t *testing.T) {
	want := []State{
		StateNavigating,
		StateInputEntered,
		StateSearchTriggered,
		StateResultsReady,
		StateExportTriggered,
		StateFormatSelected,
		StateDownloading,
		StateVerified,
	}

	state := StateStart
	for _, w := range want {
		state = Next(state)
		if state != w {
			t.Fatalf("expected %s, got %s", w, state)
		}
	}

	// финальные состояния не меняются
	if Next(StateVerified) != StateVerified {
		t.Error("verified should be terminal")
	}
	if Next(StateAttemptFailed) != StateAttemptFailed {
		t.Error("attempt_failed should be terminal")
	}
	if Next(State("bogus")) != StateAttemptFailed {
		t.Error("unknown state should fail")
	}
}

func TestAdvance(t *testing.T) {
	for _, s := range sequence[:len(sequence)-1] {
		if got := Advance(s, errors.New("boom")); got != StateAttemptFailed {
			t.Errorf("Advance(%s, err) = %s, want attempt_failed", s, got)
		}
		if got := Advance(s, nil); got != Next(s) {
			t.Errorf("Advance(%s, nil) = %s, want %s", s, got, Next(s))
		}
	}
}

func TestPlan_FollowsStateOrder(t *testing.T) {
	plan := Plan(DefaultTarget(), "B0TEST")

	if err := ValidatePlan(plan); err != nil {
		t.Fatalf("default plan invalid: %v", err)
	}

	// один вызов capability на переход, кроме финальной проверки
	calls := 0
	for _, tr := range plan {
		if tr.Kind != KindVerify {
			calls++
		}
	}
	if calls != 7 {
		t.Errorf("expected 7 capability calls, got %d", calls)
	}

	if nav := plan[0].Step; nav.Action != capability.ActionNavigate || nav.Value != "B0TEST" {
		t.Errorf("first transition should navigate for the item, got %+v", nav)
	}

	fill := plan[1].Step
	if fill.Action != capability.ActionFill || fill.Value != "B0TEST" {
		t.Errorf("second transition should fill the item, got %+v", fill)
	}
}

func TestPlan_ResultsTimeoutDoubled(t *testing.T) {
	plan := Plan(Target{StepTimeout: 10 * time.Second}, "X")

	for _, tr := range plan {
		switch tr.To {
		case StateResultsReady:
			if tr.Step.Timeout != 20*time.Second {
				t.Errorf("results wait should be doubled, got %v", tr.Step.Timeout)
			}
		case StateVerified:
		default:
			if tr.Step.Timeout != 10*time.Second {
				t.Errorf("%s: expected 10s, got %v", tr.To, tr.Step.Timeout)
			}
		}
	}
}

func TestValidatePlan_Rejects(t *testing.T) {
	plan := Plan(DefaultTarget(), "X")

	skipped := append([]Transition{}, plan[:2]...)
	skipped = append(skipped, plan[3:]...)
	if err := ValidatePlan(skipped); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("skipped state should be rejected, got %v", err)
	}

	if err := ValidatePlan(plan[:len(plan)-1]); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("plan without verification should be rejected, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	fixed := domain.RetryPolicy{Backoff: domain.BackoffFixed, InitialDelay: 5 * time.Second}
	for attempt := 1; attempt <= 3; attempt++ {
		if d := Backoff(attempt, fixed); d != 5*time.Second {
			t.Errorf("fixed attempt %d: expected 5s, got %v", attempt, d)
		}
	}

	exp := domain.RetryPolicy{Backoff: domain.BackoffExponential, InitialDelay: time.Second, MaxDelay: 5 * time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tt := range tests {
		if d := Backoff(tt.attempt, exp); d != tt.want {
			t.Errorf("exponential attempt %d: expected %v, got %v", tt.attempt, tt.want, d)
		}
	}
}
