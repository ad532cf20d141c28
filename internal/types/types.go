// Package types defines core data structures for the raas requirements tracker.
package types

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequirementType classifies a node in the Epic > Component > Feature >
// Requirement hierarchy.
type RequirementType string

const (
	TypeEpic        RequirementType = "epic"
	TypeComponent   RequirementType = "component"
	TypeFeature     RequirementType = "feature"
	TypeRequirement RequirementType = "requirement"
)

// IsValid checks if the requirement type is one of the allowed values.
func (t RequirementType) IsValid() bool {
	switch t {
	case TypeEpic, TypeComponent, TypeFeature, TypeRequirement:
		return true
	}
	return false
}

// HumanIDPrefix returns the short display prefix used in human-readable IDs.
func (t RequirementType) HumanIDPrefix() string {
	switch t {
	case TypeEpic:
		return "EPIC"
	case TypeComponent:
		return "COMP"
	case TypeFeature:
		return "FEAT"
	default:
		return "REQ"
	}
}

// ParseRequirementType validates a requirement type string.
func ParseRequirementType(s string) (RequirementType, error) {
	t := RequirementType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid requirement type: %q (expected epic, component, feature, or requirement)", s)
	}
	return t, nil
}

// LifecycleStatus is the workflow state of a requirement specification.
// Status lives on the requirement, not on a version: versions are pure
// content snapshots.
type LifecycleStatus string

const (
	StatusDraft      LifecycleStatus = "draft"
	StatusReview     LifecycleStatus = "review"
	StatusApproved   LifecycleStatus = "approved"
	StatusDeprecated LifecycleStatus = "deprecated"
)

// IsValid checks if the status is one of the allowed values.
func (s LifecycleStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusApproved, StatusDeprecated:
		return true
	}
	return false
}

// ParseLifecycleStatus validates a status string.
func ParseLifecycleStatus(s string) (LifecycleStatus, error) {
	st := LifecycleStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid lifecycle status: %q (expected draft, review, approved, or deprecated)", s)
	}
	return st, nil
}

// Persona is a functional workflow role declared per request. Personas are
// never persisted on a user account; callers assert one when executing a
// transition or content edit, and the authorization matrix decides whether
// that role may perform it.
type Persona string

const (
	PersonaEnterpriseArchitect Persona = "enterprise_architect"
	PersonaProductOwner        Persona = "product_owner"
	PersonaScrumMaster         Persona = "scrum_master"
	PersonaDeveloper           Persona = "developer"
	PersonaTester              Persona = "tester"
	PersonaReleaseManager      Persona = "release_manager"
)

// IsValid checks if the persona is one of the allowed values.
func (p Persona) IsValid() bool {
	switch p {
	case PersonaEnterpriseArchitect, PersonaProductOwner, PersonaScrumMaster,
		PersonaDeveloper, PersonaTester, PersonaReleaseManager:
		return true
	}
	return false
}

// ParsePersona validates a persona string.
func ParsePersona(s string) (Persona, error) {
	p := Persona(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid persona: %q", s)
	}
	return p, nil
}

// OrgRole is an account-level role within an organization.
type OrgRole string

const (
	OrgRoleViewer OrgRole = "viewer"
	OrgRoleMember OrgRole = "member"
	OrgRoleAdmin  OrgRole = "admin"
	OrgRoleOwner  OrgRole = "owner"
)

// IsValid checks if the org role is one of the allowed values.
func (r OrgRole) IsValid() bool {
	switch r {
	case OrgRoleViewer, OrgRoleMember, OrgRoleAdmin, OrgRoleOwner:
		return true
	}
	return false
}

// ProjectRole is an account-level role within a project.
type ProjectRole string

const (
	ProjectRoleViewer ProjectRole = "viewer"
	ProjectRoleEditor ProjectRole = "editor"
	ProjectRoleAdmin  ProjectRole = "admin"
)

// IsValid checks if the project role is one of the allowed values.
func (r ProjectRole) IsValid() bool {
	switch r {
	case ProjectRoleViewer, ProjectRoleEditor, ProjectRoleAdmin:
		return true
	}
	return false
}

// Requirement represents one node in the requirements hierarchy.
//
// Tags are operational metadata and are excluded from content hashing and
// versioning: a tags-only write never creates a version and never regresses
// status. Status is system-managed and likewise excluded from the hash.
type Requirement struct {
	ID                uuid.UUID       `json:"id"`
	HumanID           string          `json:"human_id,omitempty"`
	ProjectID         uuid.UUID       `json:"project_id"`
	Type              RequirementType `json:"type"`
	ParentID          *uuid.UUID      `json:"parent_id,omitempty"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	Content           string          `json:"content,omitempty"`
	Status            LifecycleStatus `json:"status"`
	ContentHash       string          `json:"-"` // sha256 of versionable fields, for conflict detection
	CurrentVersionID  *uuid.UUID      `json:"current_version_id,omitempty"`
	DeployedVersionID *uuid.UUID      `json:"deployed_version_id,omitempty"`
	Dependencies      []uuid.UUID     `json:"dependencies,omitempty"`
	AdheresTo         []uuid.UUID     `json:"adheres_to,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	CreatedBy         uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ComputeContentHash creates a deterministic hash of the requirement's
// versionable content. Only fields that belong in a version snapshot are
// hashed: title, description, body content, and structural references
// (parent linkage, dependencies, adherence links). Tags and lifecycle
// status are deliberately excluded so that metadata-only writes produce
// an identical hash.
func (r *Requirement) ComputeContentHash() string {
	h := sha256.New()

	h.Write([]byte(r.Title))
	h.Write([]byte{0}) // separator
	h.Write([]byte(r.Description))
	h.Write([]byte{0})
	h.Write([]byte(r.Content))
	h.Write([]byte{0})
	if r.ParentID != nil {
		h.Write([]byte(r.ParentID.String()))
	}
	h.Write([]byte{0})
	for _, dep := range r.Dependencies {
		h.Write([]byte(dep.String()))
		h.Write([]byte{0})
	}
	h.Write([]byte{0})
	for _, ref := range r.AdheresTo {
		h.Write([]byte(ref.String()))
		h.Write([]byte{0})
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewHumanID derives a short display ID from the requirement's UUID,
// e.g. "FEAT-3fa85f". Display only; the UUID remains the primary key.
func (r *Requirement) NewHumanID() string {
	short := strings.ReplaceAll(r.ID.String(), "-", "")
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("%s-%s", r.Type.HumanIDPrefix(), short)
}

// Validate checks the requirement for structural soundness before storage.
func (r *Requirement) Validate() error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("requirement id is required")
	}
	if r.ProjectID == uuid.Nil {
		return fmt.Errorf("project id is required")
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("invalid requirement type: %s", r.Type)
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less")
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("invalid lifecycle status: %s", r.Status)
	}
	return nil
}

// SetDefaults fills zero-value fields before first persistence:
//   - Status: defaults to StatusDraft
//   - HumanID: derived from the UUID
//   - CreatedAt/UpdatedAt: now
func (r *Requirement) SetDefaults() {
	if r.Status == "" {
		r.Status = StatusDraft
	}
	if r.HumanID == "" && r.ID != uuid.Nil {
		r.HumanID = r.NewHumanID()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
}

// RequirementVersion is an immutable content snapshot of a requirement.
// Versions are append-only: never mutated, never deleted.
// (requirement_id, version_number) is unique, numbering starts at 1.
type RequirementVersion struct {
	ID               uuid.UUID  `json:"id"`
	RequirementID    uuid.UUID  `json:"requirement_id"`
	VersionNumber    int        `json:"version_number"`
	Content          string     `json:"content"`
	ContentHash      string     `json:"content_hash"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	SourceWorkItemID *uuid.UUID `json:"source_work_item_id,omitempty"`
	ChangeReason     string     `json:"change_reason,omitempty"`
	CreatedBy        uuid.UUID  `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Organization owns projects and may override the persona transition matrix
// through its settings blob.
type Organization struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Settings  map[string]any `json:"settings,omitempty"` // loosely typed; see persona.ResolveMatrix
	CreatedAt time.Time      `json:"created_at"`
}

// Project groups requirements under an organization.
type Project struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrgMembership grants a user a role in an organization.
type OrgMembership struct {
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Role           OrgRole   `json:"role"`
}

// ProjectMembership grants a user a role in a project.
type ProjectMembership struct {
	UserID    uuid.UUID   `json:"user_id"`
	ProjectID uuid.UUID   `json:"project_id"`
	Role      ProjectRole `json:"role"`
}
