// Package persona enforces functional-role authorization for requirement
// lifecycle transitions and content edits.
//
// A persona is declared per request, never persisted on an account. The
// transition matrix maps each (from, to) status pair to the personas
// allowed to execute it; organizations may override individual pairs
// through their settings blob. A transition pair absent from the matrix
// has zero authorized personas and is implicitly blocked.
package persona

import (
	"sort"

	"github.com/tarka-io/raas/internal/types"
)

// Transition identifies one (from, to) status pair in the matrix.
type Transition struct {
	From types.LifecycleStatus
	To   types.LifecycleStatus
}

// Set is a set of personas.
type Set map[types.Persona]struct{}

// NewSet builds a Set from persona values.
func NewSet(personas ...types.Persona) Set {
	s := make(Set, len(personas))
	for _, p := range personas {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s Set) Contains(p types.Persona) bool {
	_, ok := s[p]
	return ok
}

// List returns the personas in stable (sorted) order for display.
func (s Set) List() []types.Persona {
	out := make([]types.Persona, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) clone() Set {
	c := make(Set, len(s))
	for p := range s {
		c[p] = struct{}{}
	}
	return c
}

// Matrix maps transitions to their authorized persona sets.
type Matrix map[Transition]Set

func (m Matrix) clone() Matrix {
	c := make(Matrix, len(m))
	for t, s := range m {
		c[t] = s.clone()
	}
	return c
}

// defaultMatrix is the built-in authorization matrix. It is never handed
// out directly: DefaultMatrix and ResolveMatrix return copies, and
// per-organization overrides are merged functionally at call time.
var defaultMatrix = Matrix{
	// draft -> review: anyone working on requirements can submit for review
	{types.StatusDraft, types.StatusReview}: NewSet(
		types.PersonaEnterpriseArchitect,
		types.PersonaProductOwner,
		types.PersonaScrumMaster,
		types.PersonaDeveloper,
	),
	// review -> approved: only PO and EA can approve requirements
	{types.StatusReview, types.StatusApproved}: NewSet(
		types.PersonaEnterpriseArchitect,
		types.PersonaProductOwner,
	),
	// review -> draft: send back for rework (most roles)
	{types.StatusReview, types.StatusDraft}: NewSet(
		types.PersonaEnterpriseArchitect,
		types.PersonaProductOwner,
		types.PersonaScrumMaster,
		types.PersonaDeveloper,
		types.PersonaTester,
	),
	// review -> deprecated: soft retirement during review
	{types.StatusReview, types.StatusDeprecated}: NewSet(
		types.PersonaEnterpriseArchitect,
		types.PersonaProductOwner,
	),
	// approved -> draft: reopen for major changes
	{types.StatusApproved, types.StatusDraft}: NewSet(
		types.PersonaEnterpriseArchitect,
		types.PersonaProductOwner,
	),
	// approved -> review: send back for re-review after changes
	{types.StatusApproved, types.StatusReview}: NewSet(
		types.PersonaEnterpriseArchitect,
		types.PersonaProductOwner,
		types.PersonaScrumMaster,
	),
	// approved -> deprecated: soft retirement
	{types.StatusApproved, types.StatusDeprecated}: NewSet(
		types.PersonaEnterpriseArchitect,
		types.PersonaProductOwner,
	),
}

// DefaultMatrix returns a copy of the built-in transition matrix.
func DefaultMatrix() Matrix {
	return defaultMatrix.clone()
}

// ResolveMatrix merges an organization's override (parsed from its settings
// blob) over the default matrix, entry by entry. An override replaces the
// entire persona set for any pair it mentions — including replacing it with
// a smaller or empty set — while unmentioned pairs keep their defaults.
func ResolveMatrix(orgSettings map[string]any) Matrix {
	merged := defaultMatrix.clone()
	for t, s := range ParseOverride(orgSettings) {
		merged[t] = s
	}
	return merged
}
