// Package rbac enforces organization and project role-based access control
// for structural operations (create/update/delete/manage).
//
// Org roles order viewer < member < admin < owner; project roles order
// viewer < editor < admin. Project checks fall back to the organization:
// an org admin or owner implicitly satisfies project-admin requirements
// even without a project membership record.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
)

// DeniedError reports an insufficient or missing role. CurrentRole is empty
// when the actor has no membership at all.
type DeniedError struct {
	Message      string
	RequiredRole string
	CurrentRole  string
	ResourceType string
}

func (e *DeniedError) Error() string {
	return e.Message
}

var orgRoleRank = map[types.OrgRole]int{
	types.OrgRoleViewer: 1,
	types.OrgRoleMember: 2,
	types.OrgRoleAdmin:  3,
	types.OrgRoleOwner:  4,
}

var projectRoleRank = map[types.ProjectRole]int{
	types.ProjectRoleViewer: 1,
	types.ProjectRoleEditor: 2,
	types.ProjectRoleAdmin:  3,
}

// Source is the membership/record access the checker needs.
// storage.Reader satisfies it.
type Source interface {
	GetOrgRole(ctx context.Context, userID, orgID uuid.UUID) (types.OrgRole, error)
	GetProjectRole(ctx context.Context, userID, projectID uuid.UUID) (types.ProjectRole, error)
	GetProject(ctx context.Context, id uuid.UUID) (*types.Project, error)
	GetRequirement(ctx context.Context, id uuid.UUID) (*types.Requirement, error)
}

// CheckOrgPermission verifies the actor holds at least minRole in the
// organization. operation is a human-readable label ("delete organization")
// used in the denial message.
func CheckOrgPermission(ctx context.Context, src Source, userID, orgID uuid.UUID, minRole types.OrgRole, operation string) error {
	role, err := src.GetOrgRole(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			debug.Logf("rbac: user %s attempted %q on org %s but is not a member", userID, operation, orgID)
			return &DeniedError{
				Message: fmt.Sprintf("you must be a member of this organization to %s; contact an organization administrator to request access",
					operation),
				RequiredRole: string(minRole),
				ResourceType: "organization",
			}
		}
		return fmt.Errorf("look up org role: %w", err)
	}

	if orgRoleRank[role] < orgRoleRank[minRole] {
		debug.Logf("rbac: user %s attempted %q on org %s with role %s but needs %s", userID, operation, orgID, role, minRole)
		return &DeniedError{
			Message: fmt.Sprintf("you need %s role to %s; your current role is %s; contact an organization administrator to request elevated permissions",
				minRole, operation, role),
			RequiredRole: string(minRole),
			CurrentRole:  string(role),
			ResourceType: "organization",
		}
	}

	debug.Logf("rbac: user %s authorized for %q on org %s with role %s", userID, operation, orgID, role)
	return nil
}

// CheckProjectPermission verifies the actor holds at least minRole in the
// project. When the actor has no project membership, the organization role
// is consulted: org admins and owners pass any project-role requirement.
func CheckProjectPermission(ctx context.Context, src Source, userID, projectID uuid.UUID, minRole types.ProjectRole, operation string) error {
	project, err := src.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("project %s: %w", projectID, storage.ErrNotFound)
		}
		return fmt.Errorf("look up project: %w", err)
	}

	role, err := src.GetProjectRole(ctx, userID, projectID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up project role: %w", err)
	}

	if errors.Is(err, storage.ErrNotFound) {
		orgRole, orgErr := src.GetOrgRole(ctx, userID, project.OrganizationID)
		if orgErr != nil && !errors.Is(orgErr, storage.ErrNotFound) {
			return fmt.Errorf("look up org role: %w", orgErr)
		}
		if orgErr == nil && (orgRole == types.OrgRoleAdmin || orgRole == types.OrgRoleOwner) {
			debug.Logf("rbac: user %s authorized for %q on project %s via org role %s", userID, operation, projectID, orgRole)
			return nil
		}
		debug.Logf("rbac: user %s attempted %q on project %s but is not a member", userID, operation, projectID)
		return &DeniedError{
			Message: fmt.Sprintf("you must be a member of this project to %s; contact a project administrator to request access",
				operation),
			RequiredRole: string(minRole),
			ResourceType: "project",
		}
	}

	if projectRoleRank[role] < projectRoleRank[minRole] {
		debug.Logf("rbac: user %s attempted %q on project %s with role %s but needs %s", userID, operation, projectID, role, minRole)
		return &DeniedError{
			Message: fmt.Sprintf("you need %s role to %s; your current role is %s; contact a project administrator to request elevated permissions",
				minRole, operation, role),
			RequiredRole: string(minRole),
			CurrentRole:  string(role),
			ResourceType: "project",
		}
	}

	debug.Logf("rbac: user %s authorized for %q on project %s with role %s", userID, operation, projectID, role)
	return nil
}

// CanCreateRequirement requires project editor or higher (or org
// admin/owner via fallback).
func CanCreateRequirement(ctx context.Context, src Source, userID, projectID uuid.UUID) error {
	return CheckProjectPermission(ctx, src, userID, projectID, types.ProjectRoleEditor, "create requirements")
}

// CanUpdateRequirement requires project editor or higher in the
// requirement's project.
func CanUpdateRequirement(ctx context.Context, src Source, userID, requirementID uuid.UUID) error {
	req, err := src.GetRequirement(ctx, requirementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("requirement %s: %w", requirementID, storage.ErrNotFound)
		}
		return fmt.Errorf("look up requirement: %w", err)
	}
	return CheckProjectPermission(ctx, src, userID, req.ProjectID, types.ProjectRoleEditor, "update requirements")
}

// CanDeleteRequirement requires project admin (or org admin/owner).
func CanDeleteRequirement(ctx context.Context, src Source, userID, requirementID uuid.UUID) error {
	req, err := src.GetRequirement(ctx, requirementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("requirement %s: %w", requirementID, storage.ErrNotFound)
		}
		return fmt.Errorf("look up requirement: %w", err)
	}
	return CheckProjectPermission(ctx, src, userID, req.ProjectID, types.ProjectRoleAdmin, "delete requirements")
}

// CanManageOrganization requires org admin or owner.
func CanManageOrganization(ctx context.Context, src Source, userID, orgID uuid.UUID) error {
	return CheckOrgPermission(ctx, src, userID, orgID, types.OrgRoleAdmin, "manage organization settings")
}

// CanDeleteOrganization requires org owner.
func CanDeleteOrganization(ctx context.Context, src Source, userID, orgID uuid.UUID) error {
	return CheckOrgPermission(ctx, src, userID, orgID, types.OrgRoleOwner, "delete organization")
}

// CanManageProject requires project admin (or org admin/owner).
func CanManageProject(ctx context.Context, src Source, userID, projectID uuid.UUID) error {
	return CheckProjectPermission(ctx, src, userID, projectID, types.ProjectRoleAdmin, "manage project settings")
}

// CanDeleteProject requires project admin (or org admin/owner).
func CanDeleteProject(ctx context.Context, src Source, userID, projectID uuid.UUID) error {
	return CheckProjectPermission(ctx, src, userID, projectID, types.ProjectRoleAdmin, "delete project")
}
