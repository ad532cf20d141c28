// Package hierarchy enforces the Epic > Component > Feature > Requirement
// parent-type chain.
package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
)

// requiredParent is the canonical parent type per child type. Epics are
// top-level and have no entry.
var requiredParent = map[types.RequirementType]types.RequirementType{
	types.TypeComponent:   types.TypeEpic,
	types.TypeFeature:     types.TypeComponent,
	types.TypeRequirement: types.TypeFeature,
}

// RequiredParentType returns the canonical parent type for a child type.
// ok is false for epics, which must not have a parent.
func RequiredParentType(child types.RequirementType) (types.RequirementType, bool) {
	p, ok := requiredParent[child]
	return p, ok
}

// ViolationError reports an invalid parent-child type relationship. It
// carries enough identity for operator remediation: the child type, the
// expected and actual parent types, and the parent's id and title.
type ViolationError struct {
	Message            string
	ChildType          types.RequirementType
	ExpectedParentType types.RequirementType // empty for epics
	ActualParentType   types.RequirementType // empty when no parent involved
	ParentID           *uuid.UUID
	ParentTitle        string
}

func (e *ViolationError) Error() string {
	return e.Message
}

// Source is the read access the validator needs. storage.Reader satisfies it.
type Source interface {
	GetRequirement(ctx context.Context, id uuid.UUID) (*types.Requirement, error)
	ListRequirements(ctx context.Context, filter storage.RequirementFilter) ([]*types.Requirement, error)
}

// ValidateParent validates the parent-child type relationship for a node
// being created or re-parented.
//
// Three failure modes are distinguished:
//   - *ViolationError when the hierarchy rule itself is broken (epic with a
//     parent, non-epic without one, or a parent of the wrong type)
//   - storage.ErrNotFound (wrapped) when parentID points at nothing; this is
//     a data-integrity condition, not a rule breach
func ValidateParent(ctx context.Context, src Source, childType types.RequirementType, parentID *uuid.UUID) error {
	// Epics are top-level only.
	if childType == types.TypeEpic {
		if parentID != nil {
			debug.Logf("hierarchy: attempted to create epic with parent_id=%s", parentID)
			return &ViolationError{
				Message:   "cannot create epic with a parent: epics are top-level requirements and must not have a parent",
				ChildType: childType,
				ParentID:  parentID,
			}
		}
		return nil
	}

	expected := requiredParent[childType]

	if parentID == nil {
		debug.Logf("hierarchy: attempted to create %s without parent_id", childType)
		return &ViolationError{
			Message: fmt.Sprintf("cannot create %s without a parent: every %s must have a %s as its parent",
				childType, childType, expected),
			ChildType:          childType,
			ExpectedParentType: expected,
		}
	}

	parent, err := src.GetRequirement(ctx, *parentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("parent requirement %s: %w", parentID, storage.ErrNotFound)
		}
		return fmt.Errorf("look up parent %s: %w", parentID, err)
	}

	if parent.Type != expected {
		debug.Logf("hierarchy: invalid parent type for %s: parent %s is %s, expected %s",
			childType, parentID, parent.Type, expected)
		return &ViolationError{
			Message: fmt.Sprintf("cannot create %s as child of %s: every %s must have a %s as its parent; parent %q (%s) is a %s",
				childType, parent.Type, childType, expected, parent.Title, parentID, parent.Type),
			ChildType:          childType,
			ExpectedParentType: expected,
			ActualParentType:   parent.Type,
			ParentID:           parentID,
			ParentTitle:        parent.Title,
		}
	}

	return nil
}

// Violation is one audit finding: a stored requirement whose parent linkage
// breaks the hierarchy rules, or whose parent id points at nothing.
type Violation struct {
	RequirementID      uuid.UUID             `json:"requirement_id"`
	HumanID            string                `json:"human_id,omitempty"`
	Title              string                `json:"title"`
	Type               types.RequirementType `json:"type"`
	ParentID           *uuid.UUID            `json:"parent_id,omitempty"`
	ParentTitle        string                `json:"parent_title,omitempty"`
	ParentType         types.RequirementType `json:"parent_type,omitempty"`
	ExpectedParentType types.RequirementType `json:"expected_parent_type,omitempty"`
	Orphaned           bool                  `json:"orphaned,omitempty"`
	Violation          string                `json:"violation"`
}

// FindViolations walks every requirement (optionally scoped to one project)
// and returns all hierarchy violations found, including orphaned nodes
// whose parent id resolves to nothing. Results follow the store's listing
// order so repeated audits diff cleanly.
func FindViolations(ctx context.Context, src Source, projectID *uuid.UUID) ([]Violation, error) {
	reqs, err := src.ListRequirements(ctx, storage.RequirementFilter{
		ProjectID:         projectID,
		IncludeDeprecated: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}

	var violations []Violation
	for _, req := range reqs {
		err := ValidateParent(ctx, src, req.Type, req.ParentID)
		if err == nil {
			continue
		}

		v := Violation{
			RequirementID: req.ID,
			HumanID:       req.HumanID,
			Title:         req.Title,
			Type:          req.Type,
			ParentID:      req.ParentID,
		}

		var verr *ViolationError
		switch {
		case errors.As(err, &verr):
			v.ParentTitle = verr.ParentTitle
			v.ParentType = verr.ActualParentType
			v.ExpectedParentType = verr.ExpectedParentType
			v.Violation = verr.Message
		case errors.Is(err, storage.ErrNotFound):
			expected, _ := RequiredParentType(req.Type)
			v.ExpectedParentType = expected
			v.Orphaned = true
			v.Violation = fmt.Sprintf("parent requirement %s not found (orphaned requirement)", req.ParentID)
		default:
			return nil, err
		}

		violations = append(violations, v)
		debug.Logf("hierarchy: found violation on %s: %s", req.HumanID, v.Violation)
	}

	debug.Logf("hierarchy: audit found %d violations", len(violations))
	return violations, nil
}
