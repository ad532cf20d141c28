package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
)

func seedRequirement(t *testing.T, s *Store, projectID uuid.UUID, status types.LifecycleStatus) *types.Requirement {
	t.Helper()
	req := &types.Requirement{
		ID:        uuid.New(),
		ProjectID: projectID,
		Type:      types.TypeEpic,
		Title:     fmt.Sprintf("epic %s", status),
		Status:    status,
	}
	req.SetDefaults()
	if err := s.CreateRequirement(context.Background(), req); err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}
	return req
}

func TestGetRequirementNotFound(t *testing.T) {
	s := New()
	_, err := s.GetRequirement(context.Background(), uuid.New())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	s := New()
	projectID := uuid.New()

	var id uuid.UUID
	err := s.RunInTransaction(ctx, func(tx storage.Transaction) error {
		req := &types.Requirement{ID: uuid.New(), ProjectID: projectID, Type: types.TypeEpic, Title: "committed"}
		req.SetDefaults()
		id = req.ID
		return tx.CreateRequirement(ctx, req)
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	got, err := s.GetRequirement(ctx, id)
	if err != nil {
		t.Fatalf("GetRequirement after commit: %v", err)
	}
	if got.Title != "committed" {
		t.Errorf("Title = %q, want %q", got.Title, "committed")
	}
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	projectID := uuid.New()
	existing := seedRequirement(t, s, projectID, types.StatusDraft)

	sentinel := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx storage.Transaction) error {
		req := &types.Requirement{ID: uuid.New(), ProjectID: projectID, Type: types.TypeEpic, Title: "doomed"}
		req.SetDefaults()
		if err := tx.CreateRequirement(ctx, req); err != nil {
			return err
		}
		existing.Title = "mutated inside tx"
		if err := tx.UpdateRequirement(ctx, existing); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	reqs, err := s.ListRequirements(ctx, storage.RequirementFilter{ProjectID: &projectID, IncludeDeprecated: true})
	if err != nil {
		t.Fatalf("ListRequirements: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("got %d requirements after rollback, want 1", len(reqs))
	}
	if reqs[0].Title == "mutated inside tx" {
		t.Error("update inside failed transaction leaked out")
	}
}

func TestStoredValuesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	req := seedRequirement(t, s, uuid.New(), types.StatusDraft)

	// Mutating the caller's copy after the write must not affect the store.
	req.Title = "mutated after store"
	req.Tags = append(req.Tags, "leak")

	got, err := s.GetRequirement(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetRequirement: %v", err)
	}
	if got.Title == "mutated after store" {
		t.Error("store shares memory with caller values")
	}
	if len(got.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", got.Tags)
	}

	// And mutating a fetched copy must not affect later reads.
	got.Title = "mutated after fetch"
	again, err := s.GetRequirement(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetRequirement: %v", err)
	}
	if again.Title == "mutated after fetch" {
		t.Error("fetched values share memory with the store")
	}
}

func TestDuplicateVersionRejected(t *testing.T) {
	ctx := context.Background()
	s := New()
	req := seedRequirement(t, s, uuid.New(), types.StatusDraft)

	v := &types.RequirementVersion{
		ID:            uuid.New(),
		RequirementID: req.ID,
		VersionNumber: 1,
		Content:       "v1",
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.CreateRequirementVersion(ctx, v); err != nil {
		t.Fatalf("CreateRequirementVersion: %v", err)
	}

	dup := &types.RequirementVersion{
		ID:            uuid.New(),
		RequirementID: req.ID,
		VersionNumber: 1,
		Content:       "duplicate",
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.CreateRequirementVersion(ctx, dup); !errors.Is(err, storage.ErrDuplicateVersion) {
		t.Fatalf("expected ErrDuplicateVersion, got %v", err)
	}
}

func TestListRequirementsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	projectID := uuid.New()

	draft := seedRequirement(t, s, projectID, types.StatusDraft)
	approved := seedRequirement(t, s, projectID, types.StatusApproved)
	review := seedRequirement(t, s, projectID, types.StatusReview)
	deprecated := seedRequirement(t, s, projectID, types.StatusDeprecated)
	seedRequirement(t, s, uuid.New(), types.StatusDraft) // other project

	reqs, err := s.ListRequirements(ctx, storage.RequirementFilter{ProjectID: &projectID})
	if err != nil {
		t.Fatalf("ListRequirements: %v", err)
	}
	want := []uuid.UUID{review.ID, approved.ID, draft.ID}
	if len(reqs) != len(want) {
		t.Fatalf("got %d requirements, want %d", len(reqs), len(want))
	}
	for i, id := range want {
		if reqs[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, reqs[i].ID, id)
		}
	}

	all, err := s.ListRequirements(ctx, storage.RequirementFilter{ProjectID: &projectID, IncludeDeprecated: true})
	if err != nil {
		t.Fatalf("ListRequirements: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d requirements with deprecated, want 4", len(all))
	}
	if all[3].ID != deprecated.ID {
		t.Errorf("deprecated must sort last, got %s", all[3].ID)
	}

	epicsOnly, err := s.ListRequirements(ctx, storage.RequirementFilter{
		ProjectID: &projectID,
		Types:     []types.RequirementType{types.TypeFeature},
	})
	if err != nil {
		t.Fatalf("ListRequirements: %v", err)
	}
	if len(epicsOnly) != 0 {
		t.Errorf("type filter returned %d results, want 0", len(epicsOnly))
	}
}

func TestMembershipRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	org := &types.Organization{ID: uuid.New(), Name: "acme", CreatedAt: time.Now().UTC()}
	if err := s.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	user := uuid.New()

	if _, err := s.GetOrgRole(ctx, user, org.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-member, got %v", err)
	}

	m := &types.OrgMembership{UserID: user, OrganizationID: org.ID, Role: types.OrgRoleMember}
	if err := s.SetOrgMember(ctx, m); err != nil {
		t.Fatalf("SetOrgMember: %v", err)
	}
	role, err := s.GetOrgRole(ctx, user, org.ID)
	if err != nil {
		t.Fatalf("GetOrgRole: %v", err)
	}
	if role != types.OrgRoleMember {
		t.Errorf("role = %s, want member", role)
	}

	// Re-setting replaces the role.
	m.Role = types.OrgRoleAdmin
	if err := s.SetOrgMember(ctx, m); err != nil {
		t.Fatalf("SetOrgMember: %v", err)
	}
	role, err = s.GetOrgRole(ctx, user, org.ID)
	if err != nil {
		t.Fatalf("GetOrgRole: %v", err)
	}
	if role != types.OrgRoleAdmin {
		t.Errorf("role = %s, want admin", role)
	}
}

func TestUpdateOrganizationSettings(t *testing.T) {
	ctx := context.Background()
	s := New()
	org := &types.Organization{ID: uuid.New(), Name: "acme", CreatedAt: time.Now().UTC()}
	if err := s.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	settings := map[string]any{
		"persona_matrix": map[string]any{"draft->review": []any{"tester"}},
	}
	if err := s.UpdateOrganizationSettings(ctx, org.ID, settings); err != nil {
		t.Fatalf("UpdateOrganizationSettings: %v", err)
	}

	got, err := s.GetOrganization(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	if got.Settings == nil {
		t.Fatal("settings not persisted")
	}
	if _, ok := got.Settings["persona_matrix"]; !ok {
		t.Error("persona_matrix key missing from persisted settings")
	}
}
