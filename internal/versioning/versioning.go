// Package versioning implements git-like immutable versioning for
// requirement content.
//
// Every content change appends a RequirementVersion snapshot. Versions are
// pure content records without their own status; the requirement's
// lifecycle status controls the approval workflow. Two pointers track the
// spec's life: current_version (the approved/active specification, advanced
// on approval) and deployed_version (what is live in production, advanced
// on deploy events).
package versioning

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
)

// Store is the access the engine needs; storage.Transaction satisfies it,
// so every versioning operation can run inside the caller's transaction.
type Store interface {
	CreateRequirementVersion(ctx context.Context, v *types.RequirementVersion) error
	GetVersion(ctx context.Context, id uuid.UUID) (*types.RequirementVersion, error)
	GetLatestVersion(ctx context.Context, requirementID uuid.UUID) (*types.RequirementVersion, error)
	MaxVersionNumber(ctx context.Context, requirementID uuid.UUID) (int, error)
}

// ContentHash computes the SHA-256 digest of content, used for conflict
// detection (stale-baseline rejection) and integrity verification.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)
}

// ContentHasChanged reports whether content materially differs, by digest.
func ContentHasChanged(oldContent, newContent string) bool {
	if oldContent == "" && newContent == "" {
		return false
	}
	return ContentHash(oldContent) != ContentHash(newContent)
}

// SnapshotChanged reports whether the versionable fields of two requirement
// snapshots differ. Tags and status are excluded from the comparison, so a
// metadata-only write never looks like a content change.
func SnapshotChanged(old, new *types.Requirement) bool {
	if old == nil {
		return true
	}
	return old.ComputeContentHash() != new.ComputeContentHash()
}

// NextVersionNumber returns 1 for a requirement with no versions, or
// max+1 otherwise.
func NextVersionNumber(ctx context.Context, store Store, requirementID uuid.UUID) (int, error) {
	max, err := store.MaxVersionNumber(ctx, requirementID)
	if err != nil {
		return 0, fmt.Errorf("max version number: %w", err)
	}
	return max + 1, nil
}

// CreateVersion appends an immutable snapshot of the requirement's content:
// it computes the content digest, assigns the next version number, persists
// the version, and refreshes the requirement's cached content hash.
//
// It does NOT move the current-version pointer; that happens only on the
// transition into approved (UpdateCurrentVersionPointer). The caller is
// responsible for persisting the mutated requirement within the same
// transaction.
func CreateVersion(ctx context.Context, store Store, req *types.Requirement, content string, author uuid.UUID, sourceWorkItemID *uuid.UUID, changeReason string) (*types.RequirementVersion, error) {
	number, err := NextVersionNumber(ctx, store, req.ID)
	if err != nil {
		return nil, err
	}

	version := &types.RequirementVersion{
		ID:               uuid.New(),
		RequirementID:    req.ID,
		VersionNumber:    number,
		Content:          content,
		ContentHash:      ContentHash(content),
		Title:            req.Title,
		Description:      req.Description,
		SourceWorkItemID: sourceWorkItemID,
		ChangeReason:     changeReason,
		CreatedBy:        author,
		CreatedAt:        time.Now().UTC(),
	}

	if err := store.CreateRequirementVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("create version %d for %s: %w", number, req.ID, err)
	}

	req.ContentHash = req.ComputeContentHash()

	debug.Logf("versioning: created version %d for requirement %s", number, req.HumanID)
	return version, nil
}

// UpdateCurrentVersionPointer retargets the requirement's current-version
// pointer to the latest version. Invoked only on transition into approved.
// Returns the version set as current, or nil if no versions exist.
func UpdateCurrentVersionPointer(ctx context.Context, store Store, req *types.Requirement) (*types.RequirementVersion, error) {
	latest, err := store.GetLatestVersion(ctx, req.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest version: %w", err)
	}
	req.CurrentVersionID = &latest.ID
	debug.Logf("versioning: current pointer for %s now version %d", req.HumanID, latest.VersionNumber)
	return latest, nil
}

// UpdateDeployedVersionPointer retargets the deployed-version pointer on a
// production deployment event. The target is resolved in priority order:
// the explicit versionID if given, else the current-version pointer, else
// the latest version. Returns the version set as deployed, or nil if the
// requirement has no versions.
func UpdateDeployedVersionPointer(ctx context.Context, store Store, req *types.Requirement, versionID *uuid.UUID) (*types.RequirementVersion, error) {
	var (
		version *types.RequirementVersion
		err     error
	)
	switch {
	case versionID != nil:
		version, err = store.GetVersion(ctx, *versionID)
		if err != nil {
			return nil, fmt.Errorf("version %s: %w", versionID, err)
		}
		if version.RequirementID != req.ID {
			return nil, fmt.Errorf("version %s does not belong to requirement %s", versionID, req.ID)
		}
	case req.CurrentVersionID != nil:
		version, err = store.GetVersion(ctx, *req.CurrentVersionID)
		if err != nil {
			return nil, fmt.Errorf("current version %s: %w", req.CurrentVersionID, err)
		}
	default:
		version, err = store.GetLatestVersion(ctx, req.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("latest version: %w", err)
		}
	}

	req.DeployedVersionID = &version.ID
	debug.Logf("versioning: deployed pointer for %s now version %d", req.HumanID, version.VersionNumber)
	return version, nil
}

// ShouldRegressToDraft reports whether an accepted content edit must force
// the requirement back to draft. True for requirements in review or
// approved: reviewed or approved content is no longer what was signed off,
// so the change re-enters the review workflow.
func ShouldRegressToDraft(req *types.Requirement) bool {
	return req.Status == types.StatusReview || req.Status == types.StatusApproved
}
