package domain

import (
	"errors"
	"testing"
	"time"
)

// --- TargetRef Tests ---

func TestTargetRef_String(t *testing.T) {
	ref := NewTargetRef("Order", "42")
	if ref.String() != "Order#42" {
		t.Errorf("expected Order#42, got %s", ref.String())
	}
}

func TestParseTargetRef(t *testing.T) {
	tests := []struct {
		in      string
		want    TargetRef
		wantErr bool
	}{
		{"Order#42", TargetRef{Type: "Order", ID: "42"}, false},
		{"Entry#A#1", TargetRef{Type: "Entry", ID: "A#1"}, false},
		{"Order", TargetRef{}, true},
		{"#42", TargetRef{}, true},
		{"Order#", TargetRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTargetRef(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTarget) {
					t.Fatalf("expected ErrInvalidTarget, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

// --- ScheduledWorkItem Tests ---

func TestScheduledWorkItem_IsDue(t *testing.T) {
	now := time.Now()
	item, err := NewScheduledWorkItem(WorkKindValidation, NewTargetRef("Order", "42"), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Граница: run_date == now считается due
	if !item.IsDue(item.RunDate) {
		t.Error("item should be due at its run date")
	}
	if item.IsDue(item.RunDate.Add(-time.Second)) {
		t.Error("item should not be due before its run date")
	}
}

func TestNewScheduledWorkItem_Invalid(t *testing.T) {
	if _, err := NewScheduledWorkItem("", NewTargetRef("Order", "1"), time.Time{}); !errors.Is(err, ErrInvalidWorkItem) {
		t.Errorf("expected ErrInvalidWorkItem, got %v", err)
	}
	if _, err := NewScheduledWorkItem("validation", TargetRef{}, time.Time{}); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestScheduledWorkItem_RecordFailure(t *testing.T) {
	item, _ := NewScheduledWorkItem("validation", NewTargetRef("Order", "1"), time.Time{})
	runDate := item.RunDate

	item.RecordFailure("boom")
	item.RecordFailure("boom again")

	if item.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", item.Attempts)
	}
	if item.LastError != "boom again" {
		t.Errorf("unexpected last error %q", item.LastError)
	}
	if !item.RunDate.Equal(runDate) {
		t.Error("run date must not change on failure")
	}
}

// --- WorkflowInstance Tests ---

func TestWorkflowInstance_RecordDecision(t *testing.T) {
	inst := NewWorkflowInstance("acceptance", NewTargetRef("Order", "42"))
	if inst.State != WorkflowStateNew || inst.Version != 0 {
		t.Fatalf("unexpected initial state %s v%d", inst.State, inst.Version)
	}

	inst.RecordDecision(User{ID: "u1"}, time.Now())
	inst.RecordDecision(User{ID: "u2"}, time.Now())

	if inst.Version != 2 {
		t.Errorf("expected version 2, got %d", inst.Version)
	}
	if inst.UpdatedBy != "u2" {
		t.Errorf("expected updated_by u2, got %s", inst.UpdatedBy)
	}
}

func TestWorkflowInstance_Int(t *testing.T) {
	inst := &WorkflowInstance{}
	inst.Set("a", 3)
	inst.Set("b", float64(4))

	if inst.Int("a") != 3 || inst.Int("b") != 4 || inst.Int("missing") != 0 {
		t.Errorf("unexpected values: %d %d %d", inst.Int("a"), inst.Int("b"), inst.Int("missing"))
	}
}

func TestUser_HasRole(t *testing.T) {
	u := User{ID: "1", Roles: []string{"broker", "compliance"}}
	if !u.HasRole("broker") {
		t.Error("expected broker role")
	}
	if u.HasRole("admin") {
		t.Error("unexpected admin role")
	}
}
