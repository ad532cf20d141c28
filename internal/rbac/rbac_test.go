package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/storage/memory"
	"github.com/tarka-io/raas/internal/types"
)

type fixture struct {
	store   *memory.Store
	org     *types.Organization
	project *types.Project
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	org := &types.Organization{ID: uuid.New(), Name: "acme"}
	if err := store.CreateOrganization(ctx, org); err != nil {
		t.Fatal(err)
	}
	project := &types.Project{ID: uuid.New(), OrganizationID: org.ID, Name: "checkout"}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatal(err)
	}
	return fixture{store: store, org: org, project: project}
}

func (f fixture) orgMember(t *testing.T, role types.OrgRole) uuid.UUID {
	t.Helper()
	user := uuid.New()
	err := f.store.SetOrgMember(context.Background(), &types.OrgMembership{
		UserID: user, OrganizationID: f.org.ID, Role: role,
	})
	if err != nil {
		t.Fatal(err)
	}
	return user
}

func (f fixture) projectMember(t *testing.T, role types.ProjectRole) uuid.UUID {
	t.Helper()
	user := uuid.New()
	err := f.store.SetProjectMember(context.Background(), &types.ProjectMembership{
		UserID: user, ProjectID: f.project.ID, Role: role,
	})
	if err != nil {
		t.Fatal(err)
	}
	return user
}

func TestCheckOrgPermission(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		role    types.OrgRole
		minRole types.OrgRole
		wantErr bool
	}{
		{"owner can do owner ops", types.OrgRoleOwner, types.OrgRoleOwner, false},
		{"admin can do admin ops", types.OrgRoleAdmin, types.OrgRoleAdmin, false},
		{"owner can do admin ops", types.OrgRoleOwner, types.OrgRoleAdmin, false},
		{"admin cannot do owner ops", types.OrgRoleAdmin, types.OrgRoleOwner, true},
		{"member cannot do admin ops", types.OrgRoleMember, types.OrgRoleAdmin, true},
		{"viewer cannot do member ops", types.OrgRoleViewer, types.OrgRoleMember, true},
		{"viewer can do viewer ops", types.OrgRoleViewer, types.OrgRoleViewer, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := f.orgMember(t, tt.role)
			err := CheckOrgPermission(ctx, f.store, user, f.org.ID, tt.minRole, "test op")
			if tt.wantErr {
				var derr *DeniedError
				if !errors.As(err, &derr) {
					t.Fatalf("expected *DeniedError, got %v", err)
				}
				if derr.RequiredRole != string(tt.minRole) || derr.CurrentRole != string(tt.role) {
					t.Errorf("denial fields = required %s current %s", derr.RequiredRole, derr.CurrentRole)
				}
				if derr.ResourceType != "organization" {
					t.Errorf("ResourceType = %s, want organization", derr.ResourceType)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckOrgPermissionNonMember(t *testing.T) {
	f := setup(t)
	err := CheckOrgPermission(context.Background(), f.store, uuid.New(), f.org.ID, types.OrgRoleViewer, "view settings")
	var derr *DeniedError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DeniedError, got %v", err)
	}
	if derr.CurrentRole != "" {
		t.Errorf("non-member CurrentRole = %q, want empty", derr.CurrentRole)
	}
}

func TestCheckProjectPermission(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	editor := f.projectMember(t, types.ProjectRoleEditor)
	if err := CheckProjectPermission(ctx, f.store, editor, f.project.ID, types.ProjectRoleEditor, "update"); err != nil {
		t.Errorf("editor doing editor op: %v", err)
	}

	err := CheckProjectPermission(ctx, f.store, editor, f.project.ID, types.ProjectRoleAdmin, "delete")
	var derr *DeniedError
	if !errors.As(err, &derr) {
		t.Fatalf("editor doing admin op: expected *DeniedError, got %v", err)
	}
	if derr.ResourceType != "project" {
		t.Errorf("ResourceType = %s, want project", derr.ResourceType)
	}

	viewer := f.projectMember(t, types.ProjectRoleViewer)
	if err := CheckProjectPermission(ctx, f.store, viewer, f.project.ID, types.ProjectRoleEditor, "update"); err == nil {
		t.Error("viewer doing editor op should be denied")
	}
}

func TestOrgAdminFallbackForProjects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Org admin with no project membership passes even project-admin checks.
	orgAdmin := f.orgMember(t, types.OrgRoleAdmin)
	if err := CheckProjectPermission(ctx, f.store, orgAdmin, f.project.ID, types.ProjectRoleAdmin, "manage"); err != nil {
		t.Errorf("org admin fallback failed: %v", err)
	}

	orgOwner := f.orgMember(t, types.OrgRoleOwner)
	if err := CheckProjectPermission(ctx, f.store, orgOwner, f.project.ID, types.ProjectRoleAdmin, "manage"); err != nil {
		t.Errorf("org owner fallback failed: %v", err)
	}

	// Plain org member does not get the fallback.
	orgMember := f.orgMember(t, types.OrgRoleMember)
	if err := CheckProjectPermission(ctx, f.store, orgMember, f.project.ID, types.ProjectRoleViewer, "view"); err == nil {
		t.Error("org member should not pass project checks via fallback")
	}
}

func TestExplicitProjectRoleWinsOverFallback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// User is org admin AND project viewer: the explicit project role is
	// consulted first, so a project-admin operation is denied.
	user := f.orgMember(t, types.OrgRoleAdmin)
	err := f.store.SetProjectMember(ctx, &types.ProjectMembership{
		UserID: user, ProjectID: f.project.ID, Role: types.ProjectRoleViewer,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckProjectPermission(ctx, f.store, user, f.project.ID, types.ProjectRoleAdmin, "manage"); err == nil {
		t.Error("explicit viewer membership should not be upgraded by org role")
	}
}

func TestCheckProjectPermissionMissingProject(t *testing.T) {
	f := setup(t)
	err := CheckProjectPermission(context.Background(), f.store, uuid.New(), uuid.New(), types.ProjectRoleViewer, "view")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing project should surface ErrNotFound, got %v", err)
	}
}

func TestComposedPredicates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := &types.Requirement{ID: uuid.New(), ProjectID: f.project.ID, Type: types.TypeEpic, Title: "Checkout"}
	req.SetDefaults()
	if err := f.store.CreateRequirement(ctx, req); err != nil {
		t.Fatal(err)
	}

	editor := f.projectMember(t, types.ProjectRoleEditor)
	admin := f.projectMember(t, types.ProjectRoleAdmin)
	owner := f.orgMember(t, types.OrgRoleOwner)
	orgAdmin := f.orgMember(t, types.OrgRoleAdmin)

	if err := CanCreateRequirement(ctx, f.store, editor, f.project.ID); err != nil {
		t.Errorf("editor create: %v", err)
	}
	if err := CanUpdateRequirement(ctx, f.store, editor, req.ID); err != nil {
		t.Errorf("editor update: %v", err)
	}
	if err := CanDeleteRequirement(ctx, f.store, editor, req.ID); err == nil {
		t.Error("editor delete should be denied")
	}
	if err := CanDeleteRequirement(ctx, f.store, admin, req.ID); err != nil {
		t.Errorf("project admin delete: %v", err)
	}

	if err := CanManageOrganization(ctx, f.store, orgAdmin, f.org.ID); err != nil {
		t.Errorf("org admin manage org: %v", err)
	}
	if err := CanDeleteOrganization(ctx, f.store, orgAdmin, f.org.ID); err == nil {
		t.Error("org admin delete org should be denied (owner only)")
	}
	if err := CanDeleteOrganization(ctx, f.store, owner, f.org.ID); err != nil {
		t.Errorf("owner delete org: %v", err)
	}

	if err := CanManageProject(ctx, f.store, admin, f.project.ID); err != nil {
		t.Errorf("project admin manage project: %v", err)
	}
	if err := CanDeleteProject(ctx, f.store, editor, f.project.ID); err == nil {
		t.Error("editor delete project should be denied")
	}
}
