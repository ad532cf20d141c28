package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
)

// Direct (non-transactional) methods. Each takes the store mutex for the
// duration of the single operation.

func (m *Store) CreateOrganization(ctx context.Context, org *types.Organization) error {
	return m.run(func(v *view) error { return v.CreateOrganization(ctx, org) })
}

func (m *Store) GetOrganization(ctx context.Context, id uuid.UUID) (*types.Organization, error) {
	var out *types.Organization
	err := m.run(func(v *view) error {
		var err error
		out, err = v.GetOrganization(ctx, id)
		return err
	})
	return out, err
}

func (m *Store) UpdateOrganizationSettings(ctx context.Context, id uuid.UUID, settings map[string]any) error {
	return m.run(func(v *view) error { return v.UpdateOrganizationSettings(ctx, id, settings) })
}

func (m *Store) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return m.run(func(v *view) error { return v.DeleteOrganization(ctx, id) })
}

func (m *Store) CreateProject(ctx context.Context, project *types.Project) error {
	return m.run(func(v *view) error { return v.CreateProject(ctx, project) })
}

func (m *Store) GetProject(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	var out *types.Project
	err := m.run(func(v *view) error {
		var err error
		out, err = v.GetProject(ctx, id)
		return err
	})
	return out, err
}

func (m *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return m.run(func(v *view) error { return v.DeleteProject(ctx, id) })
}

func (m *Store) SetOrgMember(ctx context.Context, mem *types.OrgMembership) error {
	return m.run(func(v *view) error { return v.SetOrgMember(ctx, mem) })
}

func (m *Store) SetProjectMember(ctx context.Context, mem *types.ProjectMembership) error {
	return m.run(func(v *view) error { return v.SetProjectMember(ctx, mem) })
}

func (m *Store) GetOrgRole(ctx context.Context, userID, orgID uuid.UUID) (types.OrgRole, error) {
	var out types.OrgRole
	err := m.run(func(v *view) error {
		var err error
		out, err = v.GetOrgRole(ctx, userID, orgID)
		return err
	})
	return out, err
}

func (m *Store) GetProjectRole(ctx context.Context, userID, projectID uuid.UUID) (types.ProjectRole, error) {
	var out types.ProjectRole
	err := m.run(func(v *view) error {
		var err error
		out, err = v.GetProjectRole(ctx, userID, projectID)
		return err
	})
	return out, err
}

func (m *Store) CreateRequirement(ctx context.Context, req *types.Requirement) error {
	return m.run(func(v *view) error { return v.CreateRequirement(ctx, req) })
}

func (m *Store) GetRequirement(ctx context.Context, id uuid.UUID) (*types.Requirement, error) {
	var out *types.Requirement
	err := m.run(func(v *view) error {
		var err error
		out, err = v.GetRequirement(ctx, id)
		return err
	})
	return out, err
}

func (m *Store) UpdateRequirement(ctx context.Context, req *types.Requirement) error {
	return m.run(func(v *view) error { return v.UpdateRequirement(ctx, req) })
}

func (m *Store) DeleteRequirement(ctx context.Context, id uuid.UUID) error {
	return m.run(func(v *view) error { return v.DeleteRequirement(ctx, id) })
}

func (m *Store) ListRequirements(ctx context.Context, filter storage.RequirementFilter) ([]*types.Requirement, error) {
	var out []*types.Requirement
	err := m.run(func(v *view) error {
		var err error
		out, err = v.ListRequirements(ctx, filter)
		return err
	})
	return out, err
}

func (m *Store) CreateRequirementVersion(ctx context.Context, ver *types.RequirementVersion) error {
	return m.run(func(v *view) error { return v.CreateRequirementVersion(ctx, ver) })
}

func (m *Store) GetVersion(ctx context.Context, id uuid.UUID) (*types.RequirementVersion, error) {
	var out *types.RequirementVersion
	err := m.run(func(v *view) error {
		var err error
		out, err = v.GetVersion(ctx, id)
		return err
	})
	return out, err
}

func (m *Store) GetLatestVersion(ctx context.Context, requirementID uuid.UUID) (*types.RequirementVersion, error) {
	var out *types.RequirementVersion
	err := m.run(func(v *view) error {
		var err error
		out, err = v.GetLatestVersion(ctx, requirementID)
		return err
	})
	return out, err
}

func (m *Store) ListVersions(ctx context.Context, requirementID uuid.UUID) ([]*types.RequirementVersion, error) {
	var out []*types.RequirementVersion
	err := m.run(func(v *view) error {
		var err error
		out, err = v.ListVersions(ctx, requirementID)
		return err
	})
	return out, err
}

func (m *Store) MaxVersionNumber(ctx context.Context, requirementID uuid.UUID) (int, error) {
	var out int
	err := m.run(func(v *view) error {
		var err error
		out, err = v.MaxVersionNumber(ctx, requirementID)
		return err
	})
	return out, err
}

var _ storage.Storage = (*Store)(nil)
