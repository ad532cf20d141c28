// Package memory provides an in-memory Storage backend.
//
// Used by tests and by the library's callers when no durable store is
// configured. Transactions are copy-on-commit: the transaction operates on
// a deep copy of the state and the copy is swapped in only when the
// callback returns nil.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/lifecycle"
	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
)

type orgKey struct{ user, org uuid.UUID }
type projKey struct{ user, project uuid.UUID }

type state struct {
	orgs         map[uuid.UUID]*types.Organization
	projects     map[uuid.UUID]*types.Project
	orgRoles     map[orgKey]types.OrgRole
	projectRoles map[projKey]types.ProjectRole
	requirements map[uuid.UUID]*types.Requirement
	versions     map[uuid.UUID]*types.RequirementVersion
}

func newState() *state {
	return &state{
		orgs:         make(map[uuid.UUID]*types.Organization),
		projects:     make(map[uuid.UUID]*types.Project),
		orgRoles:     make(map[orgKey]types.OrgRole),
		projectRoles: make(map[projKey]types.ProjectRole),
		requirements: make(map[uuid.UUID]*types.Requirement),
		versions:     make(map[uuid.UUID]*types.RequirementVersion),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.orgs {
		c.orgs[k] = cloneOrg(v)
	}
	for k, v := range s.projects {
		p := *v
		c.projects[k] = &p
	}
	for k, v := range s.orgRoles {
		c.orgRoles[k] = v
	}
	for k, v := range s.projectRoles {
		c.projectRoles[k] = v
	}
	for k, v := range s.requirements {
		c.requirements[k] = cloneRequirement(v)
	}
	for k, v := range s.versions {
		ver := *v
		c.versions[k] = &ver
	}
	return c
}

func cloneOrg(o *types.Organization) *types.Organization {
	c := *o
	if o.Settings != nil {
		c.Settings = make(map[string]any, len(o.Settings))
		for k, v := range o.Settings {
			c.Settings[k] = v
		}
	}
	return &c
}

func cloneRequirement(r *types.Requirement) *types.Requirement {
	c := *r
	if r.ParentID != nil {
		id := *r.ParentID
		c.ParentID = &id
	}
	if r.CurrentVersionID != nil {
		id := *r.CurrentVersionID
		c.CurrentVersionID = &id
	}
	if r.DeployedVersionID != nil {
		id := *r.DeployedVersionID
		c.DeployedVersionID = &id
	}
	c.Dependencies = append([]uuid.UUID(nil), r.Dependencies...)
	c.AdheresTo = append([]uuid.UUID(nil), r.AdheresTo...)
	c.Tags = append([]string(nil), r.Tags...)
	return &c
}

// Store is an in-memory implementation of storage.Storage.
type Store struct {
	mu sync.Mutex
	st *state
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{st: newState()}
}

// Close is a no-op for the memory backend.
func (m *Store) Close() error { return nil }

// RunInTransaction executes fn against a private copy of the state and
// commits the copy only on success.
func (m *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.st.clone()
	if err := fn(&view{st: work}); err != nil {
		return err
	}
	m.st = work
	return nil
}

// view implements Reader+Writer over a state snapshot. The exported Store
// methods delegate here while holding the store mutex.
type view struct {
	st *state
}

func (m *Store) run(fn func(v *view) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&view{st: m.st})
}

func (v *view) CreateOrganization(ctx context.Context, org *types.Organization) error {
	v.st.orgs[org.ID] = cloneOrg(org)
	return nil
}

func (v *view) GetOrganization(ctx context.Context, id uuid.UUID) (*types.Organization, error) {
	org, ok := v.st.orgs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneOrg(org), nil
}

func (v *view) UpdateOrganizationSettings(ctx context.Context, id uuid.UUID, settings map[string]any) error {
	org, ok := v.st.orgs[id]
	if !ok {
		return storage.ErrNotFound
	}
	org.Settings = settings
	return nil
}

func (v *view) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	if _, ok := v.st.orgs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(v.st.orgs, id)
	return nil
}

func (v *view) CreateProject(ctx context.Context, project *types.Project) error {
	p := *project
	v.st.projects[p.ID] = &p
	return nil
}

func (v *view) GetProject(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	p, ok := v.st.projects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (v *view) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if _, ok := v.st.projects[id]; !ok {
		return storage.ErrNotFound
	}
	delete(v.st.projects, id)
	return nil
}

func (v *view) SetOrgMember(ctx context.Context, m *types.OrgMembership) error {
	v.st.orgRoles[orgKey{m.UserID, m.OrganizationID}] = m.Role
	return nil
}

func (v *view) SetProjectMember(ctx context.Context, m *types.ProjectMembership) error {
	v.st.projectRoles[projKey{m.UserID, m.ProjectID}] = m.Role
	return nil
}

func (v *view) GetOrgRole(ctx context.Context, userID, orgID uuid.UUID) (types.OrgRole, error) {
	role, ok := v.st.orgRoles[orgKey{userID, orgID}]
	if !ok {
		return "", storage.ErrNotFound
	}
	return role, nil
}

func (v *view) GetProjectRole(ctx context.Context, userID, projectID uuid.UUID) (types.ProjectRole, error) {
	role, ok := v.st.projectRoles[projKey{userID, projectID}]
	if !ok {
		return "", storage.ErrNotFound
	}
	return role, nil
}

func (v *view) CreateRequirement(ctx context.Context, req *types.Requirement) error {
	v.st.requirements[req.ID] = cloneRequirement(req)
	return nil
}

func (v *view) GetRequirement(ctx context.Context, id uuid.UUID) (*types.Requirement, error) {
	req, ok := v.st.requirements[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneRequirement(req), nil
}

func (v *view) UpdateRequirement(ctx context.Context, req *types.Requirement) error {
	if _, ok := v.st.requirements[req.ID]; !ok {
		return storage.ErrNotFound
	}
	v.st.requirements[req.ID] = cloneRequirement(req)
	return nil
}

func (v *view) DeleteRequirement(ctx context.Context, id uuid.UUID) error {
	if _, ok := v.st.requirements[id]; !ok {
		return storage.ErrNotFound
	}
	delete(v.st.requirements, id)
	return nil
}

func (v *view) ListRequirements(ctx context.Context, filter storage.RequirementFilter) ([]*types.Requirement, error) {
	var out []*types.Requirement
	for _, req := range v.st.requirements {
		if filter.ProjectID != nil && req.ProjectID != *filter.ProjectID {
			continue
		}
		if !filter.IncludeDeprecated && req.Status == types.StatusDeprecated {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, req.Type) {
			continue
		}
		out = append(out, cloneRequirement(req))
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := lifecycle.SortOrder(out[i].Status), lifecycle.SortOrder(out[j].Status)
		if oi != oj {
			return oi < oj
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func containsType(ts []types.RequirementType, t types.RequirementType) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

func (v *view) CreateRequirementVersion(ctx context.Context, ver *types.RequirementVersion) error {
	for _, existing := range v.st.versions {
		if existing.RequirementID == ver.RequirementID && existing.VersionNumber == ver.VersionNumber {
			return storage.ErrDuplicateVersion
		}
	}
	c := *ver
	v.st.versions[c.ID] = &c
	return nil
}

func (v *view) GetVersion(ctx context.Context, id uuid.UUID) (*types.RequirementVersion, error) {
	ver, ok := v.st.versions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *ver
	return &c, nil
}

func (v *view) GetLatestVersion(ctx context.Context, requirementID uuid.UUID) (*types.RequirementVersion, error) {
	var latest *types.RequirementVersion
	for _, ver := range v.st.versions {
		if ver.RequirementID != requirementID {
			continue
		}
		if latest == nil || ver.VersionNumber > latest.VersionNumber {
			latest = ver
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	c := *latest
	return &c, nil
}

func (v *view) ListVersions(ctx context.Context, requirementID uuid.UUID) ([]*types.RequirementVersion, error) {
	var out []*types.RequirementVersion
	for _, ver := range v.st.versions {
		if ver.RequirementID != requirementID {
			continue
		}
		c := *ver
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
	return out, nil
}

func (v *view) MaxVersionNumber(ctx context.Context, requirementID uuid.UUID) (int, error) {
	max := 0
	for _, ver := range v.st.versions {
		if ver.RequirementID == requirementID && ver.VersionNumber > max {
			max = ver.VersionNumber
		}
	}
	return max, nil
}
