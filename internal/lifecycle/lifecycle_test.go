package lifecycle

import (
	"errors"
	"strings"
	"testing"

	"github.com/tarka-io/raas/internal/types"
)

var allStatuses = []types.LifecycleStatus{
	types.StatusDraft,
	types.StatusReview,
	types.StatusApproved,
	types.StatusDeprecated,
}

func TestSelfTransitionsAlwaysLegal(t *testing.T) {
	for _, s := range allStatuses {
		if !IsTransitionValid(s, s) {
			t.Errorf("IsTransitionValid(%s, %s) = false, want true", s, s)
		}
		if err := ValidateTransition(s, s); err != nil {
			t.Errorf("ValidateTransition(%s, %s) = %v, want nil", s, s, err)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to types.LifecycleStatus
		ok       bool
	}{
		{types.StatusDraft, types.StatusReview, true},
		{types.StatusDraft, types.StatusApproved, false},
		{types.StatusDraft, types.StatusDeprecated, false},
		{types.StatusReview, types.StatusDraft, true},
		{types.StatusReview, types.StatusApproved, true},
		{types.StatusReview, types.StatusDeprecated, true},
		{types.StatusApproved, types.StatusDraft, true},
		{types.StatusApproved, types.StatusReview, true},
		{types.StatusApproved, types.StatusDeprecated, true},
		{types.StatusDeprecated, types.StatusDraft, false},
		{types.StatusDeprecated, types.StatusReview, false},
		{types.StatusDeprecated, types.StatusApproved, false},
	}
	for _, tt := range tests {
		if got := IsTransitionValid(tt.from, tt.to); got != tt.ok {
			t.Errorf("IsTransitionValid(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestDeprecatedIsTerminal(t *testing.T) {
	if got := AllowedTransitions(types.StatusDeprecated); len(got) != 0 {
		t.Errorf("AllowedTransitions(deprecated) = %v, want empty", got)
	}
	for _, to := range []types.LifecycleStatus{types.StatusDraft, types.StatusReview, types.StatusApproved} {
		err := ValidateTransition(types.StatusDeprecated, to)
		var terr *TransitionError
		if !errors.As(err, &terr) {
			t.Fatalf("ValidateTransition(deprecated, %s) = %v, want *TransitionError", to, err)
		}
		if !strings.Contains(terr.Error(), "terminal") {
			t.Errorf("error for deprecated -> %s should mention terminal: %q", to, terr.Error())
		}
	}
}

func TestDraftToApprovedGuidance(t *testing.T) {
	err := ValidateTransition(types.StatusDraft, types.StatusApproved)
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransitionError, got %v", err)
	}
	if terr.Current != types.StatusDraft || terr.Requested != types.StatusApproved {
		t.Errorf("error fields = %s -> %s, want draft -> approved", terr.Current, terr.Requested)
	}
	if !strings.Contains(terr.Error(), "review") {
		t.Errorf("skip-review guidance missing: %q", terr.Error())
	}
	if len(terr.Allowed) != 1 || terr.Allowed[0] != types.StatusReview {
		t.Errorf("Allowed = %v, want [review]", terr.Allowed)
	}
}

func TestDraftToDeprecatedGuidance(t *testing.T) {
	err := ValidateTransition(types.StatusDraft, types.StatusDeprecated)
	if err == nil || !strings.Contains(err.Error(), "delete if unwanted") {
		t.Errorf("draft -> deprecated guidance missing: %v", err)
	}
}

func TestAllowedTransitions(t *testing.T) {
	got := AllowedTransitions(types.StatusReview)
	want := []types.LifecycleStatus{types.StatusDraft, types.StatusApproved, types.StatusDeprecated}
	if len(got) != len(want) {
		t.Fatalf("AllowedTransitions(review) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllowedTransitions(review)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSortOrder(t *testing.T) {
	tests := []struct {
		status types.LifecycleStatus
		want   int
	}{
		{types.StatusReview, 1},
		{types.StatusApproved, 2},
		{types.StatusDraft, 3},
		{types.StatusDeprecated, 4},
	}
	for _, tt := range tests {
		if got := SortOrder(tt.status); got != tt.want {
			t.Errorf("SortOrder(%s) = %d, want %d", tt.status, got, tt.want)
		}
	}
	if SortOrder(types.LifecycleStatus("bogus")) <= 4 {
		t.Error("unknown status should sort last")
	}
}
