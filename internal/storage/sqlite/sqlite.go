// Package sqlite provides the durable Storage backend, backed by a single
// SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/storage"
	"github.com/tarka-io/raas/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	settings   TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	created_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS org_memberships (
	user_id         TEXT NOT NULL,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	role            TEXT NOT NULL,
	PRIMARY KEY (user_id, organization_id)
);

CREATE TABLE IF NOT EXISTS project_memberships (
	user_id    TEXT NOT NULL,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	PRIMARY KEY (user_id, project_id)
);

CREATE TABLE IF NOT EXISTS requirements (
	id                  TEXT PRIMARY KEY,
	human_id            TEXT NOT NULL,
	project_id          TEXT NOT NULL,
	type                TEXT NOT NULL,
	parent_id           TEXT,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	content             TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL,
	content_hash        TEXT NOT NULL DEFAULT '',
	current_version_id  TEXT,
	deployed_version_id TEXT,
	dependencies        TEXT NOT NULL DEFAULT '[]',
	adheres_to          TEXT NOT NULL DEFAULT '[]',
	tags                TEXT NOT NULL DEFAULT '[]',
	created_by          TEXT NOT NULL,
	created_at          INTEGER NOT NULL,
	updated_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requirements_project ON requirements(project_id);
CREATE INDEX IF NOT EXISTS idx_requirements_parent ON requirements(parent_id);

CREATE TABLE IF NOT EXISTS requirement_versions (
	id                  TEXT PRIMARY KEY,
	requirement_id      TEXT NOT NULL REFERENCES requirements(id) ON DELETE CASCADE,
	version_number      INTEGER NOT NULL,
	content             TEXT NOT NULL DEFAULT '',
	content_hash        TEXT NOT NULL DEFAULT '',
	title               TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	source_work_item_id TEXT,
	change_reason       TEXT NOT NULL DEFAULT '',
	created_by          TEXT NOT NULL,
	created_at          INTEGER NOT NULL,
	UNIQUE (requirement_id, version_number)
);
CREATE INDEX IF NOT EXISTS idx_versions_requirement ON requirement_versions(requirement_id);
`

// Store is the SQLite implementation of storage.Storage.
type Store struct {
	sqlDB *sql.DB
	queries
}

// Open opens (creating if necessary) the database at path and applies the
// embedded schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	debug.Logf("sqlite: opened store at %s", path)
	return &Store{sqlDB: sqlDB, queries: queries{db: sqlDB}}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RunInTransaction executes fn inside one SQL transaction, rolling back on
// error.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&queries{db: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			debug.Warnf("sqlite: rollback failed: %v", rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// querier is the subset of *sql.DB / *sql.Tx the query layer needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements Reader+Writer over either the raw connection or a
// transaction handle.
type queries struct {
	db querier
}

var (
	_ storage.Storage     = (*Store)(nil)
	_ storage.Transaction = (*queries)(nil)
)

func toMillis(t time.Time) int64    { return t.UTC().UnixMilli() }
func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func scanNullableID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", s.String, err)
	}
	return &id, nil
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

func decodeIDs(raw string) ([]uuid.UUID, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var out []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}
	return out, nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- organizations ---

func (q *queries) CreateOrganization(ctx context.Context, org *types.Organization) error {
	settings, err := encodeJSON(org.Settings)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, settings, created_at) VALUES (?, ?, ?, ?)`,
		org.ID.String(), org.Name, settings, toMillis(org.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (q *queries) GetOrganization(ctx context.Context, id uuid.UUID) (*types.Organization, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, settings, created_at FROM organizations WHERE id = ?`, id.String())

	var (
		org      types.Organization
		rawID    string
		settings string
		created  int64
	)
	if err := row.Scan(&rawID, &org.Name, &settings, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}
	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse organization id: %w", err)
	}
	org.ID = parsed
	org.CreatedAt = fromMillis(created)
	if settings != "" {
		if err := json.Unmarshal([]byte(settings), &org.Settings); err != nil {
			return nil, fmt.Errorf("decode organization settings: %w", err)
		}
	}
	return &org, nil
}

func (q *queries) UpdateOrganizationSettings(ctx context.Context, id uuid.UUID, settings map[string]any) error {
	encoded, err := encodeJSON(settings)
	if err != nil {
		return err
	}
	res, err := q.db.ExecContext(ctx,
		`UPDATE organizations SET settings = ? WHERE id = ?`, encoded, id.String())
	if err != nil {
		return fmt.Errorf("update organization settings: %w", err)
	}
	return requireRow(res)
}

func (q *queries) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return requireRow(res)
}

// --- projects ---

func (q *queries) CreateProject(ctx context.Context, project *types.Project) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO projects (id, organization_id, name, created_at) VALUES (?, ?, ?, ?)`,
		project.ID.String(), project.OrganizationID.String(), project.Name, toMillis(project.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (q *queries) GetProject(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, organization_id, name, created_at FROM projects WHERE id = ?`, id.String())

	var (
		project       types.Project
		rawID, rawOrg string
		created       int64
	)
	if err := row.Scan(&rawID, &rawOrg, &project.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	var err error
	if project.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse project id: %w", err)
	}
	if project.OrganizationID, err = uuid.Parse(rawOrg); err != nil {
		return nil, fmt.Errorf("parse organization id: %w", err)
	}
	project.CreatedAt = fromMillis(created)
	return &project, nil
}

func (q *queries) DeleteProject(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(res)
}

// --- memberships ---

func (q *queries) SetOrgMember(ctx context.Context, m *types.OrgMembership) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO org_memberships (user_id, organization_id, role) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, organization_id) DO UPDATE SET role = excluded.role`,
		m.UserID.String(), m.OrganizationID.String(), string(m.Role))
	if err != nil {
		return fmt.Errorf("set org membership: %w", err)
	}
	return nil
}

func (q *queries) SetProjectMember(ctx context.Context, m *types.ProjectMembership) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO project_memberships (user_id, project_id, role) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, project_id) DO UPDATE SET role = excluded.role`,
		m.UserID.String(), m.ProjectID.String(), string(m.Role))
	if err != nil {
		return fmt.Errorf("set project membership: %w", err)
	}
	return nil
}

func (q *queries) GetOrgRole(ctx context.Context, userID, orgID uuid.UUID) (types.OrgRole, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT role FROM org_memberships WHERE user_id = ? AND organization_id = ?`,
		userID.String(), orgID.String())
	var role string
	if err := row.Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("scan org role: %w", err)
	}
	return types.OrgRole(role), nil
}

func (q *queries) GetProjectRole(ctx context.Context, userID, projectID uuid.UUID) (types.ProjectRole, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT role FROM project_memberships WHERE user_id = ? AND project_id = ?`,
		userID.String(), projectID.String())
	var role string
	if err := row.Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("scan project role: %w", err)
	}
	return types.ProjectRole(role), nil
}

// --- requirements ---

const requirementColumns = `id, human_id, project_id, type, parent_id, title, description,
	content, status, content_hash, current_version_id, deployed_version_id,
	dependencies, adheres_to, tags, created_by, created_at, updated_at`

func (q *queries) CreateRequirement(ctx context.Context, req *types.Requirement) error {
	deps, err := encodeJSON(req.Dependencies)
	if err != nil {
		return err
	}
	adheres, err := encodeJSON(req.AdheresTo)
	if err != nil {
		return err
	}
	tags, err := encodeJSON(req.Tags)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO requirements (`+requirementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID.String(), req.HumanID, req.ProjectID.String(), string(req.Type),
		nullableID(req.ParentID), req.Title, req.Description, req.Content,
		string(req.Status), req.ContentHash, nullableID(req.CurrentVersionID),
		nullableID(req.DeployedVersionID), deps, adheres, tags,
		req.CreatedBy.String(), toMillis(req.CreatedAt), toMillis(req.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}
	return nil
}

func (q *queries) UpdateRequirement(ctx context.Context, req *types.Requirement) error {
	deps, err := encodeJSON(req.Dependencies)
	if err != nil {
		return err
	}
	adheres, err := encodeJSON(req.AdheresTo)
	if err != nil {
		return err
	}
	tags, err := encodeJSON(req.Tags)
	if err != nil {
		return err
	}
	res, err := q.db.ExecContext(ctx,
		`UPDATE requirements SET
			human_id = ?, project_id = ?, type = ?, parent_id = ?, title = ?,
			description = ?, content = ?, status = ?, content_hash = ?,
			current_version_id = ?, deployed_version_id = ?, dependencies = ?,
			adheres_to = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		req.HumanID, req.ProjectID.String(), string(req.Type),
		nullableID(req.ParentID), req.Title, req.Description, req.Content,
		string(req.Status), req.ContentHash, nullableID(req.CurrentVersionID),
		nullableID(req.DeployedVersionID), deps, adheres, tags,
		toMillis(req.UpdatedAt), req.ID.String())
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	return requireRow(res)
}

func (q *queries) DeleteRequirement(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM requirements WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	return requireRow(res)
}

func (q *queries) GetRequirement(ctx context.Context, id uuid.UUID) (*types.Requirement, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+requirementColumns+` FROM requirements WHERE id = ?`, id.String())
	req, err := scanRequirement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (q *queries) ListRequirements(ctx context.Context, filter storage.RequirementFilter) ([]*types.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements WHERE 1=1`
	var args []any
	if filter.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID.String())
	}
	if !filter.IncludeDeprecated {
		query += ` AND status != ?`
		args = append(args, string(types.StatusDeprecated))
	}
	if len(filter.Types) > 0 {
		query += ` AND type IN (?` + strings.Repeat(", ?", len(filter.Types)-1) + `)`
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}
	query += ` ORDER BY CASE status
		WHEN 'review' THEN 1
		WHEN 'approved' THEN 2
		WHEN 'draft' THEN 3
		WHEN 'deprecated' THEN 4
		ELSE 5 END, updated_at DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	var out []*types.Requirement
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequirement(row rowScanner) (*types.Requirement, error) {
	var (
		req                           types.Requirement
		rawID, rawProject, rawCreator string
		rawParent, rawCurrent, rawDep sql.NullString
		reqType, status               string
		deps, adheres, tags           string
		created, updated              int64
	)
	err := row.Scan(&rawID, &req.HumanID, &rawProject, &reqType, &rawParent,
		&req.Title, &req.Description, &req.Content, &status, &req.ContentHash,
		&rawCurrent, &rawDep, &deps, &adheres, &tags, &rawCreator,
		&created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan requirement: %w", err)
	}

	if req.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse requirement id: %w", err)
	}
	if req.ProjectID, err = uuid.Parse(rawProject); err != nil {
		return nil, fmt.Errorf("parse project id: %w", err)
	}
	if req.CreatedBy, err = uuid.Parse(rawCreator); err != nil {
		return nil, fmt.Errorf("parse creator id: %w", err)
	}
	if req.ParentID, err = scanNullableID(rawParent); err != nil {
		return nil, err
	}
	if req.CurrentVersionID, err = scanNullableID(rawCurrent); err != nil {
		return nil, err
	}
	if req.DeployedVersionID, err = scanNullableID(rawDep); err != nil {
		return nil, err
	}
	if req.Dependencies, err = decodeIDs(deps); err != nil {
		return nil, err
	}
	if req.AdheresTo, err = decodeIDs(adheres); err != nil {
		return nil, err
	}
	if req.Tags, err = decodeStrings(tags); err != nil {
		return nil, err
	}
	req.Type = types.RequirementType(reqType)
	req.Status = types.LifecycleStatus(status)
	req.CreatedAt = fromMillis(created)
	req.UpdatedAt = fromMillis(updated)
	return &req, nil
}

// --- versions ---

const versionColumns = `id, requirement_id, version_number, content, content_hash,
	title, description, source_work_item_id, change_reason, created_by, created_at`

func (q *queries) CreateRequirementVersion(ctx context.Context, v *types.RequirementVersion) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO requirement_versions (`+versionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID.String(), v.RequirementID.String(), v.VersionNumber, v.Content,
		v.ContentHash, v.Title, v.Description, nullableID(v.SourceWorkItemID),
		v.ChangeReason, v.CreatedBy.String(), toMillis(v.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("version %d of %s: %w", v.VersionNumber, v.RequirementID, storage.ErrDuplicateVersion)
		}
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func (q *queries) GetVersion(ctx context.Context, id uuid.UUID) (*types.RequirementVersion, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM requirement_versions WHERE id = ?`, id.String())
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (q *queries) GetLatestVersion(ctx context.Context, requirementID uuid.UUID) (*types.RequirementVersion, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM requirement_versions
		 WHERE requirement_id = ? ORDER BY version_number DESC LIMIT 1`,
		requirementID.String())
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (q *queries) ListVersions(ctx context.Context, requirementID uuid.UUID) ([]*types.RequirementVersion, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM requirement_versions
		 WHERE requirement_id = ? ORDER BY version_number ASC`,
		requirementID.String())
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []*types.RequirementVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (q *queries) MaxVersionNumber(ctx context.Context, requirementID uuid.UUID) (int, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM requirement_versions WHERE requirement_id = ?`,
		requirementID.String())
	var max int
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("max version number: %w", err)
	}
	return max, nil
}

func scanVersion(row rowScanner) (*types.RequirementVersion, error) {
	var (
		v             types.RequirementVersion
		rawID, rawReq string
		rawSource     sql.NullString
		rawCreator    string
		created       int64
	)
	err := row.Scan(&rawID, &rawReq, &v.VersionNumber, &v.Content, &v.ContentHash,
		&v.Title, &v.Description, &rawSource, &v.ChangeReason, &rawCreator, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan version: %w", err)
	}
	if v.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse version id: %w", err)
	}
	if v.RequirementID, err = uuid.Parse(rawReq); err != nil {
		return nil, fmt.Errorf("parse requirement id: %w", err)
	}
	if v.CreatedBy, err = uuid.Parse(rawCreator); err != nil {
		return nil, fmt.Errorf("parse creator id: %w", err)
	}
	if v.SourceWorkItemID, err = scanNullableID(rawSource); err != nil {
		return nil, err
	}
	v.CreatedAt = fromMillis(created)
	return &v, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
