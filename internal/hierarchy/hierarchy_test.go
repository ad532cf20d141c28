package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/storage/memory"
	"github.com/tarka-io/raas/internal/types"
)

func seedRequirement(t *testing.T, store *memory.Store, reqType types.RequirementType, title string, parentID *uuid.UUID) *types.Requirement {
	t.Helper()
	req := &types.Requirement{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Type:      reqType,
		ParentID:  parentID,
		Title:     title,
	}
	req.SetDefaults()
	if err := store.CreateRequirement(context.Background(), req); err != nil {
		t.Fatalf("seed requirement: %v", err)
	}
	return req
}

func TestValidateParentCorrectChain(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	epic := seedRequirement(t, store, types.TypeEpic, "Billing", nil)
	comp := seedRequirement(t, store, types.TypeComponent, "Invoicing", &epic.ID)
	feat := seedRequirement(t, store, types.TypeFeature, "PDF export", &comp.ID)

	tests := []struct {
		child  types.RequirementType
		parent *uuid.UUID
	}{
		{types.TypeEpic, nil},
		{types.TypeComponent, &epic.ID},
		{types.TypeFeature, &comp.ID},
		{types.TypeRequirement, &feat.ID},
	}
	for _, tt := range tests {
		if err := ValidateParent(ctx, store, tt.child, tt.parent); err != nil {
			t.Errorf("ValidateParent(%s) = %v, want nil", tt.child, err)
		}
	}
}

func TestValidateParentWrongType(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	epic := seedRequirement(t, store, types.TypeEpic, "Billing", nil)
	comp := seedRequirement(t, store, types.TypeComponent, "Invoicing", &epic.ID)
	feat := seedRequirement(t, store, types.TypeFeature, "PDF export", &comp.ID)

	tests := []struct {
		name           string
		child          types.RequirementType
		parent         *uuid.UUID
		expectedParent types.RequirementType
		actualParent   types.RequirementType
	}{
		{"component under feature", types.TypeComponent, &feat.ID, types.TypeEpic, types.TypeFeature},
		{"feature under epic", types.TypeFeature, &epic.ID, types.TypeComponent, types.TypeEpic},
		{"requirement under component", types.TypeRequirement, &comp.ID, types.TypeFeature, types.TypeComponent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParent(ctx, store, tt.child, tt.parent)
			var verr *ViolationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ViolationError, got %v", err)
			}
			if verr.ExpectedParentType != tt.expectedParent {
				t.Errorf("ExpectedParentType = %s, want %s", verr.ExpectedParentType, tt.expectedParent)
			}
			if verr.ActualParentType != tt.actualParent {
				t.Errorf("ActualParentType = %s, want %s", verr.ActualParentType, tt.actualParent)
			}
			if verr.ParentID == nil || *verr.ParentID != *tt.parent {
				t.Error("ParentID not carried on violation")
			}
			if verr.ParentTitle == "" {
				t.Error("ParentTitle not carried on violation")
			}
		})
	}
}

func TestEpicParentRules(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	other := seedRequirement(t, store, types.TypeEpic, "Other", nil)

	if err := ValidateParent(ctx, store, types.TypeEpic, nil); err != nil {
		t.Errorf("epic with nil parent: %v, want nil", err)
	}

	err := ValidateParent(ctx, store, types.TypeEpic, &other.ID)
	var verr *ViolationError
	if !errors.As(err, &verr) {
		t.Fatalf("epic with parent: expected *ViolationError, got %v", err)
	}
	if verr.ChildType != types.TypeEpic {
		t.Errorf("ChildType = %s, want epic", verr.ChildType)
	}
}

func TestNonEpicWithoutParent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	for _, child := range []types.RequirementType{types.TypeComponent, types.TypeFeature, types.TypeRequirement} {
		err := ValidateParent(ctx, store, child, nil)
		var verr *ViolationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s without parent: expected *ViolationError, got %v", child, err)
		}
		expected, _ := RequiredParentType(child)
		if verr.ExpectedParentType != expected {
			t.Errorf("%s: ExpectedParentType = %s, want %s", child, verr.ExpectedParentType, expected)
		}
	}
}

func TestMissingParentIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	missing := uuid.New()

	err := ValidateParent(ctx, store, types.TypeFeature, &missing)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing parent should wrap storage.ErrNotFound, got %v", err)
	}
	var verr *ViolationError
	if errors.As(err, &verr) {
		t.Error("missing parent must not be reported as a hierarchy violation")
	}
}

func TestFindViolations(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	epic := seedRequirement(t, store, types.TypeEpic, "Billing", nil)
	seedRequirement(t, store, types.TypeComponent, "Invoicing", &epic.ID) // valid

	// Feature incorrectly parented to an epic.
	bad := seedRequirement(t, store, types.TypeFeature, "Misfiled", &epic.ID)

	// Requirement pointing at a parent that does not exist.
	ghost := uuid.New()
	orphan := seedRequirement(t, store, types.TypeRequirement, "Orphan", &ghost)

	violations, err := FindViolations(ctx, store, nil)
	if err != nil {
		t.Fatalf("FindViolations: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("found %d violations, want 2: %+v", len(violations), violations)
	}

	byID := map[uuid.UUID]Violation{}
	for _, v := range violations {
		byID[v.RequirementID] = v
	}

	misfiled, ok := byID[bad.ID]
	if !ok {
		t.Fatal("misfiled feature not reported")
	}
	if misfiled.ExpectedParentType != types.TypeComponent || misfiled.ParentType != types.TypeEpic {
		t.Errorf("misfiled violation types = expected %s actual %s", misfiled.ExpectedParentType, misfiled.ParentType)
	}
	if misfiled.Orphaned {
		t.Error("type mismatch should not be flagged as orphaned")
	}

	orphaned, ok := byID[orphan.ID]
	if !ok {
		t.Fatal("orphaned requirement not reported")
	}
	if !orphaned.Orphaned {
		t.Error("orphan flag not set")
	}
}

func TestFindViolationsProjectScope(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	// Violation in some other project.
	seedRequirement(t, store, types.TypeFeature, "Stray", nil)

	scoped := uuid.New()
	violations, err := FindViolations(ctx, store, &scoped)
	if err != nil {
		t.Fatalf("FindViolations: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("scoped audit found %d violations, want 0", len(violations))
	}
}
