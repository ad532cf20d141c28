package persona

import (
	"errors"
	"strings"
	"testing"

	"github.com/tarka-io/raas/internal/types"
)

func ptr(p types.Persona) *types.Persona { return &p }

func TestDefaultMatrixEntries(t *testing.T) {
	tests := []struct {
		from, to types.LifecycleStatus
		want     []types.Persona
	}{
		{types.StatusDraft, types.StatusReview, []types.Persona{
			types.PersonaDeveloper, types.PersonaEnterpriseArchitect,
			types.PersonaProductOwner, types.PersonaScrumMaster,
		}},
		{types.StatusReview, types.StatusApproved, []types.Persona{
			types.PersonaEnterpriseArchitect, types.PersonaProductOwner,
		}},
		{types.StatusReview, types.StatusDraft, []types.Persona{
			types.PersonaDeveloper, types.PersonaEnterpriseArchitect,
			types.PersonaProductOwner, types.PersonaScrumMaster, types.PersonaTester,
		}},
		{types.StatusApproved, types.StatusReview, []types.Persona{
			types.PersonaEnterpriseArchitect, types.PersonaProductOwner, types.PersonaScrumMaster,
		}},
		{types.StatusApproved, types.StatusDraft, []types.Persona{
			types.PersonaEnterpriseArchitect, types.PersonaProductOwner,
		}},
		{types.StatusApproved, types.StatusDeprecated, []types.Persona{
			types.PersonaEnterpriseArchitect, types.PersonaProductOwner,
		}},
	}
	for _, tt := range tests {
		got := AuthorizedPersonas(tt.from, tt.to, nil).List()
		if len(got) != len(tt.want) {
			t.Errorf("AuthorizedPersonas(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("AuthorizedPersonas(%s, %s)[%d] = %s, want %s", tt.from, tt.to, i, got[i], tt.want[i])
			}
		}
	}
}

func TestUnspecifiedTransitionIsBlocked(t *testing.T) {
	// draft -> approved is not in the matrix: zero authorized personas.
	if got := AuthorizedPersonas(types.StatusDraft, types.StatusApproved, nil); len(got) != 0 {
		t.Errorf("unspecified transition has %d authorized personas, want 0", len(got))
	}
	if IsAuthorized(types.PersonaEnterpriseArchitect, types.StatusDraft, types.StatusApproved, nil) {
		t.Error("no persona should be authorized for an unspecified transition")
	}
}

func TestSelfTransitionAlwaysAuthorized(t *testing.T) {
	for _, s := range []types.LifecycleStatus{types.StatusDraft, types.StatusReview, types.StatusApproved, types.StatusDeprecated} {
		if !IsAuthorized(types.PersonaTester, s, s, nil) {
			t.Errorf("self-transition %s should always be authorized", s)
		}
		if err := Validate(nil, s, s, nil, true); err != nil {
			t.Errorf("self-transition %s with no persona: %v", s, err)
		}
	}
}

func TestOverrideReplacesWholePair(t *testing.T) {
	settings := map[string]any{
		"persona_matrix": map[string]any{
			"draft->review": []any{"developer"},
		},
	}

	got := AuthorizedPersonas(types.StatusDraft, types.StatusReview, settings).List()
	if len(got) != 1 || got[0] != types.PersonaDeveloper {
		t.Errorf("overridden pair = %v, want [developer]", got)
	}

	// Other pairs keep their defaults.
	approve := AuthorizedPersonas(types.StatusReview, types.StatusApproved, settings)
	if !approve.Contains(types.PersonaEnterpriseArchitect) || !approve.Contains(types.PersonaProductOwner) {
		t.Errorf("non-overridden pair lost defaults: %v", approve.List())
	}

	// An override may shrink a pair to empty, blocking it outright.
	blocked := map[string]any{
		"persona_matrix": map[string]any{
			"review->approved": []any{},
		},
	}
	if got := AuthorizedPersonas(types.StatusReview, types.StatusApproved, blocked); len(got) != 0 {
		t.Errorf("empty override should block the pair, got %v", got.List())
	}
}

func TestParseOverrideSkipsMalformedEntries(t *testing.T) {
	settings := map[string]any{
		"persona_matrix": map[string]any{
			"draft->review":    []any{"tester"},        // valid
			"bogus":            []any{"developer"},     // bad key shape
			"draft->launched":  []any{"developer"},     // unknown status
			"review->approved": []any{"astronaut"},     // unknown persona
			"approved->review": "developer",            // wrong value shape
			"review->draft":    []any{"tester", 42},    // non-string element
			"approved->draft":  []any{"product_owner"}, // valid
		},
	}

	override := ParseOverride(settings)
	if len(override) != 2 {
		t.Fatalf("ParseOverride kept %d entries, want 2: %v", len(override), override)
	}
	if !override[Transition{types.StatusDraft, types.StatusReview}].Contains(types.PersonaTester) {
		t.Error("valid draft->review entry lost")
	}
	if !override[Transition{types.StatusApproved, types.StatusDraft}].Contains(types.PersonaProductOwner) {
		t.Error("valid approved->draft entry lost")
	}

	// Malformed entries must not disturb defaults for their pairs.
	approve := AuthorizedPersonas(types.StatusReview, types.StatusApproved, settings)
	if !approve.Contains(types.PersonaProductOwner) {
		t.Error("malformed entry corrupted the default for its pair")
	}
}

func TestParseOverrideAbsent(t *testing.T) {
	if got := ParseOverride(nil); len(got) != 0 {
		t.Errorf("nil settings produced %d entries", len(got))
	}
	if got := ParseOverride(map[string]any{"other": 1}); len(got) != 0 {
		t.Errorf("settings without persona_matrix produced %d entries", len(got))
	}
	if got := ParseOverride(map[string]any{"persona_matrix": "nope"}); len(got) != 0 {
		t.Errorf("non-mapping persona_matrix produced %d entries", len(got))
	}
}

func TestValidateUnauthorizedPersona(t *testing.T) {
	err := Validate(ptr(types.PersonaDeveloper), types.StatusReview, types.StatusApproved, nil, true)
	var aerr *AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *AuthorizationError, got %v", err)
	}
	if aerr.Persona != types.PersonaDeveloper {
		t.Errorf("Persona = %s, want developer", aerr.Persona)
	}
	want := []types.Persona{types.PersonaEnterpriseArchitect, types.PersonaProductOwner}
	if len(aerr.Authorized) != len(want) {
		t.Fatalf("Authorized = %v, want %v", aerr.Authorized, want)
	}
	for i := range want {
		if aerr.Authorized[i] != want[i] {
			t.Errorf("Authorized[%d] = %s, want %s", i, aerr.Authorized[i], want[i])
		}
	}
	if !strings.Contains(aerr.Error(), "enterprise_architect") || !strings.Contains(aerr.Error(), "product_owner") {
		t.Errorf("error must enumerate authorized personas: %q", aerr.Error())
	}
}

func TestValidateAuthorizedPersona(t *testing.T) {
	if err := Validate(ptr(types.PersonaProductOwner), types.StatusReview, types.StatusApproved, nil, true); err != nil {
		t.Errorf("product owner approving: %v", err)
	}
}

func TestValidateMissingPersona(t *testing.T) {
	err := Validate(nil, types.StatusDraft, types.StatusReview, nil, true)
	var aerr *AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("missing persona with requirePersona: expected *AuthorizationError, got %v", err)
	}
	if aerr.Persona != "" {
		t.Errorf("Persona should be empty for missing persona, got %s", aerr.Persona)
	}

	// Without requirePersona the check is skipped.
	if err := Validate(nil, types.StatusDraft, types.StatusReview, nil, false); err != nil {
		t.Errorf("missing persona without requirePersona: %v", err)
	}
}

func TestValidateMissingPersonaEmptyAuthorizedSet(t *testing.T) {
	// draft -> approved has no authorized personas; a missing persona passes
	// through so the state machine reports the illegal transition instead.
	if err := Validate(nil, types.StatusDraft, types.StatusApproved, nil, true); err != nil {
		t.Errorf("missing persona on a pair with no authorized personas: %v", err)
	}

	// Same for a pair an override shrank to empty.
	blocked := map[string]any{
		"persona_matrix": map[string]any{
			"review->approved": []any{},
		},
	}
	if err := Validate(nil, types.StatusReview, types.StatusApproved, blocked, true); err != nil {
		t.Errorf("missing persona on an override-blocked pair: %v", err)
	}

	// A declared persona is still rejected on those pairs.
	if err := Validate(ptr(types.PersonaProductOwner), types.StatusReview, types.StatusApproved, blocked, true); err == nil {
		t.Error("declared persona must be rejected on an override-blocked pair")
	}
}

func TestContentEditAuthorization(t *testing.T) {
	for _, p := range []types.Persona{types.PersonaEnterpriseArchitect, types.PersonaProductOwner} {
		if err := ValidateContentEdit(ptr(p), true); err != nil {
			t.Errorf("ValidateContentEdit(%s) = %v, want nil", p, err)
		}
	}

	for _, p := range []types.Persona{types.PersonaDeveloper, types.PersonaTester, types.PersonaScrumMaster, types.PersonaReleaseManager} {
		err := ValidateContentEdit(ptr(p), true)
		var cerr *ContentEditError
		if !errors.As(err, &cerr) {
			t.Fatalf("ValidateContentEdit(%s): expected *ContentEditError, got %v", p, err)
		}
		if len(cerr.Authorized) != 2 {
			t.Errorf("Authorized = %v, want the two authoring personas", cerr.Authorized)
		}
	}

	var cerr *ContentEditError
	if err := ValidateContentEdit(nil, true); !errors.As(err, &cerr) {
		t.Errorf("missing persona with requirePersona: expected *ContentEditError, got %v", err)
	}
	if err := ValidateContentEdit(nil, false); err != nil {
		t.Errorf("missing persona without requirePersona: %v", err)
	}
}

func TestContentEditSetIsNotOverridable(t *testing.T) {
	got := ContentEditPersonas()
	got[types.PersonaDeveloper] = struct{}{}

	if ContentEditPersonas().Contains(types.PersonaDeveloper) {
		t.Error("mutating the returned set leaked into the fixed content-edit set")
	}
}

func TestDefaultMatrixIsCopied(t *testing.T) {
	m := DefaultMatrix()
	key := Transition{types.StatusReview, types.StatusApproved}
	m[key][types.PersonaDeveloper] = struct{}{}

	if AuthorizedPersonas(types.StatusReview, types.StatusApproved, nil).Contains(types.PersonaDeveloper) {
		t.Error("mutating DefaultMatrix() leaked into the built-in matrix")
	}
}
