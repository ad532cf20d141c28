// Package workflow is the write-path orchestrator for requirement
// mutations.
//
// Every mutation runs inside one storage transaction and applies the
// governance checks in a fixed order, short-circuiting on first failure:
//
//	RBAC → persona / content authorization → hierarchy (structural ops
//	only) → versioning → lifecycle commit
//
// No state change commits before all checks pass; a version created but a
// pointer not advanced would be a correctness bug, and the transaction
// boundary makes that impossible.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/hierarchy"
	"github.com/tarka-io/raas/internal/lifecycle"
	"github.com/tarka-io/raas/internal/persona"
	"github.com/tarka-io/raas/internal/quality"
	"github.com/tarka-io/raas/internal/rbac"
	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
	"github.com/tarka-io/raas/internal/versioning"
)

// ConflictError reports a stale-baseline write: the caller edited against a
// content hash that is no longer the requirement's current hash.
type ConflictError struct {
	RequirementID uuid.UUID
	BaselineHash  string
	CurrentHash   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("requirement %s was modified concurrently: baseline hash %.12s does not match current %.12s; re-fetch and retry",
		e.RequirementID, e.BaselineHash, e.CurrentHash)
}

// QualityGateError reports content that blocks entry into review/approved.
type QualityGateError struct {
	Score   quality.Score
	Message string
}

func (e *QualityGateError) Error() string {
	return e.Message
}

// Service executes governed mutations against a record store.
type Service struct {
	store          storage.Storage
	requirePersona bool
}

// Option configures a Service.
type Option func(*Service)

// WithoutPersonaEnforcement disables the persona requirement: callers that
// declare no persona skip persona checks instead of being rejected.
// Declared personas are still validated.
func WithoutPersonaEnforcement() Option {
	return func(s *Service) { s.requirePersona = false }
}

// New creates a workflow service. Persona enforcement is on by default.
func New(store storage.Storage, opts ...Option) *Service {
	s := &Service{store: store, requirePersona: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams describes a requirement creation request.
type CreateParams struct {
	ActorID      uuid.UUID
	Persona      *types.Persona
	ProjectID    uuid.UUID
	Type         types.RequirementType
	ParentID     *uuid.UUID
	Title        string
	Description  string
	Content      string
	Tags         []string
	Dependencies []uuid.UUID
	AdheresTo    []uuid.UUID
}

// CreateRequirement creates a requirement in draft status with its first
// version snapshot.
func (s *Service) CreateRequirement(ctx context.Context, p CreateParams) (*types.Requirement, error) {
	var created *types.Requirement
	err := s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanCreateRequirement(ctx, tx, p.ActorID, p.ProjectID); err != nil {
			return err
		}
		if err := persona.ValidateContentEdit(p.Persona, s.requirePersona); err != nil {
			return err
		}
		if err := hierarchy.ValidateParent(ctx, tx, p.Type, p.ParentID); err != nil {
			return err
		}

		req := &types.Requirement{
			ID:           uuid.New(),
			ProjectID:    p.ProjectID,
			Type:         p.Type,
			ParentID:     p.ParentID,
			Title:        p.Title,
			Description:  p.Description,
			Content:      p.Content,
			Tags:         p.Tags,
			Dependencies: p.Dependencies,
			AdheresTo:    p.AdheresTo,
			CreatedBy:    p.ActorID,
		}
		req.SetDefaults()
		if err := req.Validate(); err != nil {
			return err
		}
		if err := tx.CreateRequirement(ctx, req); err != nil {
			return fmt.Errorf("create requirement: %w", err)
		}

		if _, err := versioning.CreateVersion(ctx, tx, req, p.Content, p.ActorID, nil, "initial version"); err != nil {
			return err
		}
		if err := tx.UpdateRequirement(ctx, req); err != nil {
			return fmt.Errorf("persist content hash: %w", err)
		}

		created = req
		return nil
	})
	return created, err
}

// UpdateParams describes a content or metadata edit. Nil field pointers
// mean "leave unchanged". BaselineHash, when set, must match the
// requirement's current content hash or the edit is rejected as stale.
type UpdateParams struct {
	ActorID          uuid.UUID
	Persona          *types.Persona
	RequirementID    uuid.UUID
	Title            *string
	Description      *string
	Content          *string
	Dependencies     *[]uuid.UUID
	AdheresTo        *[]uuid.UUID
	Tags             *[]string
	BaselineHash     string
	SourceWorkItemID *uuid.UUID
	ChangeReason     string
}

// UpdateRequirement applies an edit. Versionable changes (title,
// description, body, structural references) require content-edit
// authorization, append a version, and regress review/approved
// requirements back to draft. Metadata-only changes (tags) do none of
// that: no version, no regression, no authorship restriction.
func (s *Service) UpdateRequirement(ctx context.Context, p UpdateParams) (*types.Requirement, *types.RequirementVersion, error) {
	var (
		updated *types.Requirement
		version *types.RequirementVersion
	)
	err := s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanUpdateRequirement(ctx, tx, p.ActorID, p.RequirementID); err != nil {
			return err
		}

		req, err := tx.GetRequirement(ctx, p.RequirementID)
		if err != nil {
			return fmt.Errorf("requirement %s: %w", p.RequirementID, err)
		}
		before := *req

		if p.Title != nil {
			req.Title = *p.Title
		}
		if p.Description != nil {
			req.Description = *p.Description
		}
		if p.Content != nil {
			req.Content = *p.Content
		}
		if p.Dependencies != nil {
			req.Dependencies = *p.Dependencies
		}
		if p.AdheresTo != nil {
			req.AdheresTo = *p.AdheresTo
		}
		if p.Tags != nil {
			req.Tags = *p.Tags
		}

		if versioning.SnapshotChanged(&before, req) {
			if err := persona.ValidateContentEdit(p.Persona, s.requirePersona); err != nil {
				return err
			}
			if p.BaselineHash != "" && p.BaselineHash != before.ContentHash {
				return &ConflictError{
					RequirementID: req.ID,
					BaselineHash:  p.BaselineHash,
					CurrentHash:   before.ContentHash,
				}
			}
			if err := req.Validate(); err != nil {
				return err
			}

			version, err = versioning.CreateVersion(ctx, tx, req, req.Content, p.ActorID, p.SourceWorkItemID, p.ChangeReason)
			if err != nil {
				return err
			}
			if versioning.ShouldRegressToDraft(&before) {
				req.Status = types.StatusDraft
			}
		}

		req.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateRequirement(ctx, req); err != nil {
			return fmt.Errorf("update requirement: %w", err)
		}
		updated = req
		return nil
	})
	return updated, version, err
}

// TransitionParams describes a lifecycle status change request.
type TransitionParams struct {
	ActorID       uuid.UUID
	Persona       *types.Persona
	RequirementID uuid.UUID
	To            types.LifecycleStatus
}

// Transition moves a requirement to a new lifecycle status. The state
// machine, the org's persona matrix, and the quality gate must all agree.
// On transition into approved, the current-version pointer advances to the
// latest version.
func (s *Service) Transition(ctx context.Context, p TransitionParams) (*types.Requirement, error) {
	var updated *types.Requirement
	err := s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanUpdateRequirement(ctx, tx, p.ActorID, p.RequirementID); err != nil {
			return err
		}

		req, err := tx.GetRequirement(ctx, p.RequirementID)
		if err != nil {
			return fmt.Errorf("requirement %s: %w", p.RequirementID, err)
		}

		settings, err := orgSettings(ctx, tx, req.ProjectID)
		if err != nil {
			return err
		}
		if err := persona.Validate(p.Persona, req.Status, p.To, settings, s.requirePersona); err != nil {
			return err
		}
		if err := lifecycle.ValidateTransition(req.Status, p.To); err != nil {
			return err
		}

		// Quality gate: oversized content cannot enter the review workflow.
		if p.To == types.StatusReview || p.To == types.StatusApproved {
			if msg := quality.ApprovalBlockMessage(len(req.Content), req.Type); msg != "" {
				return &QualityGateError{Score: quality.ScoreLowQuality, Message: msg}
			}
		}

		if p.To == types.StatusApproved && req.Status != types.StatusApproved {
			if _, err := versioning.UpdateCurrentVersionPointer(ctx, tx, req); err != nil {
				return err
			}
		}

		req.Status = p.To
		req.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateRequirement(ctx, req); err != nil {
			return fmt.Errorf("update requirement: %w", err)
		}
		updated = req
		return nil
	})
	return updated, err
}

// DeployParams describes a production deployment event.
type DeployParams struct {
	ActorID       uuid.UUID
	RequirementID uuid.UUID
	VersionID     *uuid.UUID // explicit version; nil resolves current → latest
}

// Deploy records a production deployment by advancing the deployed-version
// pointer.
func (s *Service) Deploy(ctx context.Context, p DeployParams) (*types.Requirement, *types.RequirementVersion, error) {
	var (
		updated  *types.Requirement
		deployed *types.RequirementVersion
	)
	err := s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanUpdateRequirement(ctx, tx, p.ActorID, p.RequirementID); err != nil {
			return err
		}
		req, err := tx.GetRequirement(ctx, p.RequirementID)
		if err != nil {
			return fmt.Errorf("requirement %s: %w", p.RequirementID, err)
		}
		deployed, err = versioning.UpdateDeployedVersionPointer(ctx, tx, req, p.VersionID)
		if err != nil {
			return err
		}
		if deployed == nil {
			return fmt.Errorf("requirement %s has no versions to deploy", req.HumanID)
		}
		req.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateRequirement(ctx, req); err != nil {
			return fmt.Errorf("update requirement: %w", err)
		}
		updated = req
		return nil
	})
	return updated, deployed, err
}

// DeleteRequirement removes a requirement. Requires project admin.
func (s *Service) DeleteRequirement(ctx context.Context, actorID, requirementID uuid.UUID) error {
	return s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanDeleteRequirement(ctx, tx, actorID, requirementID); err != nil {
			return err
		}
		return tx.DeleteRequirement(ctx, requirementID)
	})
}

// Get returns one requirement. Requires viewer access to its project.
func (s *Service) Get(ctx context.Context, actorID, requirementID uuid.UUID) (*types.Requirement, error) {
	req, err := s.store.GetRequirement(ctx, requirementID)
	if err != nil {
		return nil, fmt.Errorf("requirement %s: %w", requirementID, err)
	}
	if err := rbac.CheckProjectPermission(ctx, s.store, actorID, req.ProjectID, types.ProjectRoleViewer, "view requirement"); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns requirements visible to the actor, ordered by status
// priority (review first, deprecated excluded unless requested).
func (s *Service) List(ctx context.Context, actorID uuid.UUID, projectID *uuid.UUID, includeDeprecated bool) ([]*types.Requirement, error) {
	if projectID != nil {
		if err := rbac.CheckProjectPermission(ctx, s.store, actorID, *projectID, types.ProjectRoleViewer, "list requirements"); err != nil {
			return nil, err
		}
	}
	return s.store.ListRequirements(ctx, storage.RequirementFilter{
		ProjectID:         projectID,
		IncludeDeprecated: includeDeprecated,
	})
}

// Audit sweeps the store (optionally scoped to one project) for hierarchy
// violations, including orphaned nodes.
func (s *Service) Audit(ctx context.Context, actorID uuid.UUID, projectID *uuid.UUID) ([]hierarchy.Violation, error) {
	if projectID != nil {
		if err := rbac.CheckProjectPermission(ctx, s.store, actorID, *projectID, types.ProjectRoleViewer, "audit requirements"); err != nil {
			return nil, err
		}
	}
	return hierarchy.FindViolations(ctx, s.store, projectID)
}

// Versions returns a requirement's full version history, oldest first.
func (s *Service) Versions(ctx context.Context, requirementID uuid.UUID) ([]*types.RequirementVersion, error) {
	return s.store.ListVersions(ctx, requirementID)
}

// orgSettings resolves the settings blob of the organization owning the
// requirement's project. Missing records yield nil settings (defaults).
func orgSettings(ctx context.Context, tx storage.Transaction, projectID uuid.UUID) (map[string]any, error) {
	project, err := tx.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("look up project: %w", err)
	}
	org, err := tx.GetOrganization(ctx, project.OrganizationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("look up organization: %w", err)
	}
	return org.Settings, nil
}
