package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"rexline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// ErrStatusConflict is returned when a compare-and-swap status write finds
// the stored status no longer matches the expected one.
var ErrStatusConflict = errors.New("status conflict")

// ErrTierConflict is the tier counterpart of ErrStatusConflict.
var ErrTierConflict = errors.New("tier conflict")

const reportColumns = `id,author_id,org_id,status,tier,incident_type,severity,visibility,title,description,context,means_deployed,difficulties,lessons_learned,thematic_tags,validated_by,validated_at,rejection_reason,view_count,favorite_count,created_at,updated_at`

type reportScanner interface {
	Scan(dest ...any) error
}

func scanReport(row reportScanner) (domain.Report, error) {
	var rep domain.Report
	var incidentType, context, means, difficulties, lessons, tags sql.NullString
	var validatedBy, validatedAt, rejectionReason sql.NullString
	err := row.Scan(&rep.ID, &rep.AuthorID, &rep.OrgID, &rep.Status, &rep.Tier, &incidentType,
		&rep.Severity, &rep.Visibility, &rep.Title, &rep.Description, &context, &means,
		&difficulties, &lessons, &tags, &validatedBy, &validatedAt, &rejectionReason,
		&rep.ViewCount, &rep.FavoriteCount, &rep.CreatedAt, &rep.UpdatedAt)
	if err == sql.ErrNoRows {
		return rep, ErrNotFound
	}
	if err != nil {
		return rep, err
	}
	if incidentType.Valid {
		rep.IncidentType = incidentType.String
	}
	if context.Valid {
		rep.Context = context.String
	}
	if means.Valid {
		rep.MeansDeployed = means.String
	}
	if difficulties.Valid {
		rep.Difficulties = difficulties.String
	}
	if lessons.Valid {
		rep.LessonsLearned = lessons.String
	}
	if tags.Valid && tags.String != "" {
		_ = json.Unmarshal([]byte(tags.String), &rep.ThematicTags)
	}
	if validatedBy.Valid {
		rep.ValidatedBy = &validatedBy.String
	}
	if validatedAt.Valid {
		rep.ValidatedAt = &validatedAt.String
	}
	if rejectionReason.Valid {
		rep.RejectionReason = &rejectionReason.String
	}
	return rep, nil
}

func marshalTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r Repo) InsertReportTx(ctx context.Context, tx *sql.Tx, rep domain.Report) error {
	tags, err := marshalTags(rep.ThematicTags)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO reports(`+reportColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.ID, rep.AuthorID, rep.OrgID, rep.Status, rep.Tier, nullable(rep.IncidentType),
		rep.Severity, rep.Visibility, rep.Title, rep.Description, nullable(rep.Context),
		nullable(rep.MeansDeployed), nullable(rep.Difficulties), nullable(rep.LessonsLearned),
		tags, nullableStringPtr(rep.ValidatedBy), nullableStringPtr(rep.ValidatedAt),
		nullableStringPtr(rep.RejectionReason), rep.ViewCount, rep.FavoriteCount,
		rep.CreatedAt, rep.UpdatedAt)
	return err
}

func (r Repo) GetReport(ctx context.Context, id string) (domain.Report, error) {
	return scanReport(r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=?`, id))
}

func (r Repo) GetReportTx(ctx context.Context, tx *sql.Tx, id string) (domain.Report, error) {
	return scanReport(tx.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=?`, id))
}

// UpdateReportStatusTx performs the compare-and-swap status write: the row
// is only updated when its stored status still equals expected. Status and
// audit fields (validated_by, validated_at, rejection_reason, updated_at)
// commit together or not at all.
func (r Repo) UpdateReportStatusTx(ctx context.Context, tx *sql.Tx, rep domain.Report, expected domain.Status) error {
	res, err := tx.ExecContext(ctx, `UPDATE reports SET status=?, validated_by=?, validated_at=?, rejection_reason=?, updated_at=?
WHERE id=? AND status=?`,
		rep.Status, nullableStringPtr(rep.ValidatedBy), nullableStringPtr(rep.ValidatedAt),
		nullableStringPtr(rep.RejectionReason), rep.UpdatedAt, rep.ID, expected)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing row from a lost race.
		if _, err := r.GetReportTx(ctx, tx, rep.ID); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

// UpdateReportContentTx rewrites the author-editable fields.
func (r Repo) UpdateReportContentTx(ctx context.Context, tx *sql.Tx, rep domain.Report) error {
	tags, err := marshalTags(rep.ThematicTags)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE reports SET incident_type=?, severity=?, visibility=?, title=?, description=?, context=?, means_deployed=?, difficulties=?, lessons_learned=?, thematic_tags=?, updated_at=?
WHERE id=?`,
		nullable(rep.IncidentType), rep.Severity, rep.Visibility, rep.Title, rep.Description,
		nullable(rep.Context), nullable(rep.MeansDeployed), nullable(rep.Difficulties),
		nullable(rep.LessonsLearned), tags, rep.UpdatedAt, rep.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateReportTierTx performs the compare-and-swap tier write: the row is
// only updated when its stored tier still equals expected, so a promote
// committed from a stale snapshot can never move the tier backwards.
func (r Repo) UpdateReportTierTx(ctx context.Context, tx *sql.Tx, id, tier, expected, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE reports SET tier=?, updated_at=? WHERE id=? AND tier=?`, tier, updatedAt, id, expected)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing row from a lost race.
		if _, err := r.GetReportTx(ctx, tx, id); err != nil {
			return err
		}
		return ErrTierConflict
	}
	return nil
}

// TouchReportView bumps the display-only view counter.
func (r Repo) TouchReportView(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE reports SET view_count=view_count+1 WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type ReportFilters struct {
	OrgID    string
	Status   string
	Tier     string
	AuthorID string
	// VisibleToOrg restricts results to reports owned by that org or
	// shared beyond org-only visibility. Empty means no restriction.
	VisibleToOrg    string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListReports(ctx context.Context, f ReportFilters) ([]domain.Report, error) {
	var clauses []string
	var args []any
	if f.OrgID != "" {
		clauses = append(clauses, "org_id=?")
		args = append(args, f.OrgID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Tier != "" {
		clauses = append(clauses, "tier=?")
		args = append(args, f.Tier)
	}
	if f.AuthorID != "" {
		clauses = append(clauses, "author_id=?")
		args = append(args, f.AuthorID)
	}
	if f.VisibleToOrg != "" {
		clauses = append(clauses, "(org_id=? OR visibility != 'org-only')")
		args = append(args, f.VisibleToOrg)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rep)
	}
	return res, rows.Err()
}

// EventsAfter returns up to limit events with id greater than cursor,
// optionally scoped to an org.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64, orgID string) ([]domain.Event, error) {
	query := `SELECT id,ts,type,COALESCE(org_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE id>?`
	args := []any{cursor}
	if orgID != "" {
		query += ` AND org_id=?`
		args = append(args, orgID)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.OrgID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) LatestEventID(ctx context.Context, orgID string) (int64, error) {
	query := `SELECT COALESCE(MAX(id),0) FROM events`
	var args []any
	if orgID != "" {
		query += ` WHERE org_id=?`
		args = append(args, orgID)
	}
	var id int64
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&id)
	return id, err
}

func (r Repo) ListEvents(ctx context.Context, orgID string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id,ts,type,COALESCE(org_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events`
	var args []any
	if orgID != "" {
		query += ` WHERE org_id=?`
		args = append(args, orgID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.OrgID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
