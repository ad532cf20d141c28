// Package storage provides shared types for requirement storage.
//
// Concrete implementations live in the memory and sqlite sub-packages.
// This package holds the interface and sentinel errors referenced by both
// the backends and their consumers (internal/workflow, cmd/raas).
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrDuplicateVersion is returned when a version insert would reuse a
// (requirement_id, version_number) pair. Versions are append-only and
// uniquely numbered per requirement.
var ErrDuplicateVersion = errors.New("duplicate version number")

// RequirementFilter narrows ListRequirements results.
// Deprecated requirements are excluded unless IncludeDeprecated is set.
type RequirementFilter struct {
	ProjectID         *uuid.UUID
	Types             []types.RequirementType
	IncludeDeprecated bool
}

// Storage is the interface satisfied by the memory and sqlite backends.
// Consumers depend on this interface rather than on a concrete type so that
// alternative implementations (mocks, proxies, etc.) can be substituted.
type Storage interface {
	Reader
	Writer

	// RunInTransaction executes fn atomically: every mutation made through
	// the Transaction commits together or not at all. The write path relies
	// on this for its invariant that no check-then-commit sequence is ever
	// partially applied.
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	Close() error
}

// Reader is the query subset of the store.
type Reader interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*types.Organization, error)
	GetProject(ctx context.Context, id uuid.UUID) (*types.Project, error)

	// Role lookups. Absence of a membership is reported as ErrNotFound,
	// which RBAC treats as unauthenticated/non-member.
	GetOrgRole(ctx context.Context, userID, orgID uuid.UUID) (types.OrgRole, error)
	GetProjectRole(ctx context.Context, userID, projectID uuid.UUID) (types.ProjectRole, error)

	GetRequirement(ctx context.Context, id uuid.UUID) (*types.Requirement, error)
	ListRequirements(ctx context.Context, filter RequirementFilter) ([]*types.Requirement, error)

	GetVersion(ctx context.Context, id uuid.UUID) (*types.RequirementVersion, error)
	// GetLatestVersion returns the highest-numbered version, or ErrNotFound
	// if the requirement has no versions yet.
	GetLatestVersion(ctx context.Context, requirementID uuid.UUID) (*types.RequirementVersion, error)
	// ListVersions returns all versions ordered by version number ascending.
	ListVersions(ctx context.Context, requirementID uuid.UUID) ([]*types.RequirementVersion, error)
	// MaxVersionNumber returns 0 when no versions exist.
	MaxVersionNumber(ctx context.Context, requirementID uuid.UUID) (int, error)
}

// Writer is the mutation subset of the store.
type Writer interface {
	CreateOrganization(ctx context.Context, org *types.Organization) error
	UpdateOrganizationSettings(ctx context.Context, id uuid.UUID, settings map[string]any) error
	DeleteOrganization(ctx context.Context, id uuid.UUID) error

	CreateProject(ctx context.Context, project *types.Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error

	SetOrgMember(ctx context.Context, m *types.OrgMembership) error
	SetProjectMember(ctx context.Context, m *types.ProjectMembership) error

	CreateRequirement(ctx context.Context, req *types.Requirement) error
	UpdateRequirement(ctx context.Context, req *types.Requirement) error
	DeleteRequirement(ctx context.Context, id uuid.UUID) error

	CreateRequirementVersion(ctx context.Context, v *types.RequirementVersion) error
}

// Transaction exposes the store operations that execute within a single
// atomic transaction. It deliberately matches Reader+Writer so orchestration
// code can be written once against either entry point.
type Transaction interface {
	Reader
	Writer
}
