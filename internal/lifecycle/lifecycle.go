// Package lifecycle enforces the requirement status state machine.
//
// Requirements are specifications; they move through a four-state model:
//
//	draft → review → approved → deprecated
//
// deprecated is terminal. Setting the same status again is always a legal
// no-op. Implementation progress does not live here: it belongs on work
// items, not on the specification.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/tarka-io/raas/internal/types"
)

// TransitionError reports an illegal status change. It carries the current
// and requested statuses plus the legal next states so callers can branch
// programmatically and operators can self-remediate.
type TransitionError struct {
	Current   types.LifecycleStatus
	Requested types.LifecycleStatus
	Allowed   []types.LifecycleStatus
	Guidance  string
}

func (e *TransitionError) Error() string {
	names := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		names = append(names, string(s))
	}
	msg := fmt.Sprintf("invalid status transition: %s -> %s. From %s, you can only transition to: %s.",
		e.Current, e.Requested, e.Current, strings.Join(names, ", "))
	if e.Guidance != "" {
		msg += " " + e.Guidance
	}
	return msg
}

// transitions maps current status to the statuses reachable from it.
// Self-transitions are listed for documentation but handled up front.
var transitions = map[types.LifecycleStatus][]types.LifecycleStatus{
	types.StatusDraft: {
		types.StatusDraft,
		types.StatusReview, // submit for review
	},
	types.StatusReview: {
		types.StatusReview,
		types.StatusDraft,      // needs more work
		types.StatusApproved,   // approved after review
		types.StatusDeprecated, // soft retirement
	},
	types.StatusApproved: {
		types.StatusApproved,
		types.StatusDraft,      // reopen for major changes
		types.StatusReview,     // re-review after changes
		types.StatusDeprecated, // soft retirement
	},
	types.StatusDeprecated: {
		types.StatusDeprecated,
		// terminal: no way back out
	},
}

// IsTransitionValid reports whether current -> next is a legal transition.
func IsTransitionValid(current, next types.LifecycleStatus) bool {
	for _, s := range transitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal next statuses from current,
// excluding the no-op self-transition.
func AllowedTransitions(current types.LifecycleStatus) []types.LifecycleStatus {
	var out []types.LifecycleStatus
	for _, s := range transitions[current] {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}

// ValidateTransition returns a *TransitionError if current -> next is not
// legal. No-op transitions (same status) are always allowed.
func ValidateTransition(current, next types.LifecycleStatus) error {
	if current == next {
		return nil
	}
	if IsTransitionValid(current, next) {
		return nil
	}

	guidance := ""
	switch {
	case current == types.StatusDraft && next == types.StatusApproved:
		guidance = "Requirements must be reviewed before approval. Transition to 'review' first."
	case current == types.StatusDraft && next == types.StatusDeprecated:
		guidance = "Draft requirements cannot be deprecated. Submit for review first, or delete if unwanted."
	case current == types.StatusDeprecated:
		guidance = "Deprecated requirements are terminal and cannot be reactivated. Create a new requirement instead."
	}

	return &TransitionError{
		Current:   current,
		Requested: next,
		Allowed:   AllowedTransitions(current),
		Guidance:  guidance,
	}
}

// sortOrder ranks statuses for list presentation. Lower is shown first:
// review needs a decision, approved is ready for implementation, draft is
// backlog, deprecated is retired and excluded from default views.
var sortOrder = map[types.LifecycleStatus]int{
	types.StatusReview:     1,
	types.StatusApproved:   2,
	types.StatusDraft:      3,
	types.StatusDeprecated: 4,
}

// SortOrder returns the list-presentation rank for a status.
// Unknown statuses sort last.
func SortOrder(s types.LifecycleStatus) int {
	if o, ok := sortOrder[s]; ok {
		return o
	}
	return len(sortOrder) + 1
}
