package persona

import (
	"fmt"
	"strings"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/types"
)

// AuthorizationError reports a missing or unauthorized persona for a status
// transition. Authorized enumerates the personas that may perform the
// transition, for operator and automation guidance.
type AuthorizationError struct {
	Persona    types.Persona // empty when no persona was declared
	From       types.LifecycleStatus
	To         types.LifecycleStatus
	Authorized []types.Persona
}

func (e *AuthorizationError) Error() string {
	authorized := personaNames(e.Authorized)
	if e.Persona == "" {
		return fmt.Sprintf("persona declaration required for transition %s -> %s; authorized personas: %s",
			e.From, e.To, authorized)
	}
	return fmt.Sprintf("persona %q is not authorized for transition %s -> %s; authorized personas: %s",
		e.Persona, e.From, e.To, authorized)
}

func personaNames(personas []types.Persona) string {
	names := make([]string, 0, len(personas))
	for _, p := range personas {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// AuthorizedPersonas returns the personas allowed to execute from -> to,
// honoring any per-organization override in orgSettings. A pair absent from
// the merged matrix yields an empty set: implicitly blocked.
func AuthorizedPersonas(from, to types.LifecycleStatus, orgSettings map[string]any) Set {
	if set, ok := ResolveMatrix(orgSettings)[Transition{from, to}]; ok {
		return set
	}
	return Set{}
}

// IsAuthorized reports whether a persona may execute from -> to.
// No-op transitions (same status) are always authorized.
func IsAuthorized(p types.Persona, from, to types.LifecycleStatus, orgSettings map[string]any) bool {
	if from == to {
		return true
	}
	return AuthorizedPersonas(from, to, orgSettings).Contains(p)
}

// Validate checks persona authorization for a transition and returns a
// *AuthorizationError when it fails.
//
// persona may be nil when the caller declared none. With requirePersona
// set, a missing persona fails any transition that has at least one
// authorized persona; a pair with an empty set passes through so the state
// machine reports the real problem. Without requirePersona, a missing
// persona skips the check entirely (compatibility path for unattended
// automation).
func Validate(p *types.Persona, from, to types.LifecycleStatus, orgSettings map[string]any, requirePersona bool) error {
	if from == to {
		return nil
	}

	authorized := AuthorizedPersonas(from, to, orgSettings)

	if p == nil {
		if requirePersona && len(authorized) > 0 {
			return &AuthorizationError{From: from, To: to, Authorized: authorized.List()}
		}
		return nil
	}

	if !authorized.Contains(*p) {
		debug.Logf("persona: blocked %s for %s -> %s", *p, from, to)
		return &AuthorizationError{Persona: *p, From: from, To: to, Authorized: authorized.List()}
	}

	debug.Logf("persona: authorized %s for %s -> %s", *p, from, to)
	return nil
}

// contentEditPersonas is the fixed set of personas that may author
// requirement content. Unlike the transition matrix this set is not
// overridable: the separation between specification authorship (architect,
// product owner) and implementation/validation/facilitation (developer,
// tester, scrum master, release manager) holds for every organization.
var contentEditPersonas = NewSet(
	types.PersonaEnterpriseArchitect,
	types.PersonaProductOwner,
)

// ContentEditPersonas returns a copy of the fixed content-authorship set.
func ContentEditPersonas() Set {
	return contentEditPersonas.clone()
}

// ContentEditError reports a persona not permitted to author requirement
// content.
type ContentEditError struct {
	Persona    types.Persona // empty when no persona was declared
	Authorized []types.Persona
}

func (e *ContentEditError) Error() string {
	authorized := personaNames(e.Authorized)
	if e.Persona == "" {
		return fmt.Sprintf("persona declaration required for content editing; authorized personas: %s", authorized)
	}
	return fmt.Sprintf("persona %q is not authorized to edit requirement content; only %s can author specifications. "+
		"Developers should use status transitions to mark work complete, not modify spec content",
		e.Persona, authorized)
}

// ValidateContentEdit checks whether a persona may author requirement
// content. This rule is independent of the transition matrix and cannot be
// overridden per organization.
func ValidateContentEdit(p *types.Persona, requirePersona bool) error {
	if p == nil {
		if requirePersona {
			return &ContentEditError{Authorized: contentEditPersonas.List()}
		}
		return nil
	}
	if !contentEditPersonas.Contains(*p) {
		debug.Logf("persona: blocked content edit by %s", *p)
		return &ContentEditError{Persona: *p, Authorized: contentEditPersonas.List()}
	}
	return nil
}
