package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/rbac"
	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
)

// Organization and project administration. These exist so the CLI can set
// up the structures the governance core operates over; each mutation is
// gated by the same RBAC primitives as the requirement write path.

// CreateOrganization creates an organization and makes the actor its owner.
func (s *Service) CreateOrganization(ctx context.Context, actorID uuid.UUID, name string) (*types.Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	org := &types.Organization{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	err := s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}
		return tx.SetOrgMember(ctx, &types.OrgMembership{
			UserID:         actorID,
			OrganizationID: org.ID,
			Role:           types.OrgRoleOwner,
		})
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// DeleteOrganization removes an organization. Owner only.
func (s *Service) DeleteOrganization(ctx context.Context, actorID, orgID uuid.UUID) error {
	return s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanDeleteOrganization(ctx, tx, actorID, orgID); err != nil {
			return err
		}
		return tx.DeleteOrganization(ctx, orgID)
	})
}

// UpdateOrganizationSettings replaces the org settings blob (including any
// persona_matrix override). Requires org admin.
func (s *Service) UpdateOrganizationSettings(ctx context.Context, actorID, orgID uuid.UUID, settings map[string]any) error {
	return s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanManageOrganization(ctx, tx, actorID, orgID); err != nil {
			return err
		}
		return tx.UpdateOrganizationSettings(ctx, orgID, settings)
	})
}

// Organization returns an organization record.
func (s *Service) Organization(ctx context.Context, orgID uuid.UUID) (*types.Organization, error) {
	return s.store.GetOrganization(ctx, orgID)
}

// SetPersonaMatrixOverride sets (or clears the default for) one transition
// in the organization's persona matrix override. An empty persona list
// blocks the transition. Requires org admin.
func (s *Service) SetPersonaMatrixOverride(ctx context.Context, actorID, orgID uuid.UUID, transition string, personas []string) error {
	return s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanManageOrganization(ctx, tx, actorID, orgID); err != nil {
			return err
		}
		org, err := tx.GetOrganization(ctx, orgID)
		if err != nil {
			return fmt.Errorf("organization %s: %w", orgID, err)
		}

		settings := org.Settings
		if settings == nil {
			settings = map[string]any{}
		}
		matrix, _ := settings["persona_matrix"].(map[string]any)
		if matrix == nil {
			matrix = map[string]any{}
		}
		list := make([]any, len(personas))
		for i, p := range personas {
			list[i] = p
		}
		matrix[transition] = list
		settings["persona_matrix"] = matrix

		return tx.UpdateOrganizationSettings(ctx, orgID, settings)
	})
}

// CreateProject creates a project under an organization. Requires org
// admin; the actor also receives explicit project admin membership.
func (s *Service) CreateProject(ctx context.Context, actorID, orgID uuid.UUID, name string) (*types.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	project := &types.Project{ID: uuid.New(), OrganizationID: orgID, Name: name, CreatedAt: time.Now().UTC()}
	err := s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanManageOrganization(ctx, tx, actorID, orgID); err != nil {
			return err
		}
		if err := tx.CreateProject(ctx, project); err != nil {
			return err
		}
		return tx.SetProjectMember(ctx, &types.ProjectMembership{
			UserID:    actorID,
			ProjectID: project.ID,
			Role:      types.ProjectRoleAdmin,
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes a project. Requires project admin (or org
// admin/owner via fallback).
func (s *Service) DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error {
	return s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanDeleteProject(ctx, tx, actorID, projectID); err != nil {
			return err
		}
		return tx.DeleteProject(ctx, projectID)
	})
}

// SetOrgMember grants or changes a user's organization role. Requires org
// admin.
func (s *Service) SetOrgMember(ctx context.Context, actorID uuid.UUID, m *types.OrgMembership) error {
	if !m.Role.IsValid() {
		return fmt.Errorf("invalid organization role: %s", m.Role)
	}
	return s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanManageOrganization(ctx, tx, actorID, m.OrganizationID); err != nil {
			return err
		}
		return tx.SetOrgMember(ctx, m)
	})
}

// SetProjectMember grants or changes a user's project role. Requires
// project admin (or org admin/owner via fallback).
func (s *Service) SetProjectMember(ctx context.Context, actorID uuid.UUID, m *types.ProjectMembership) error {
	if !m.Role.IsValid() {
		return fmt.Errorf("invalid project role: %s", m.Role)
	}
	return s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := rbac.CanManageProject(ctx, tx, actorID, m.ProjectID); err != nil {
			return err
		}
		return tx.SetProjectMember(ctx, m)
	})
}
