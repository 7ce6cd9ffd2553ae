package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"rexline/internal/config"
	"rexline/internal/domain"
	"rexline/internal/engine/auth"
	"rexline/internal/engine/notify"
	"rexline/internal/events"
	"rexline/internal/repo"
)

// Notifier delivers a computed notification batch. Delivery is
// best-effort: the engine never consumes a result and never fails an
// operation over delivery.
type Notifier interface {
	Dispatch(ctx context.Context, batch []domain.Notification)
}

// Engine orchestrates every lifecycle operation: resolve actor,
// authorize, run the state machine, commit the mutation with its audit
// fields and event in one transaction, then fan out notifications.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Config   *config.Config
	Notifier Notifier
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowString() string {
	return e.now().UTC().Format(time.RFC3339)
}

// ResolveActor is the identity boundary: an actor id maps to a stored
// user with role and organization, or the caller is unknown.
func (e Engine) ResolveActor(ctx context.Context, actorID string) (domain.Actor, error) {
	if strings.TrimSpace(actorID) == "" {
		return domain.Actor{}, ErrUnknownActor
	}
	actor, err := e.Repo.GetUser(ctx, actorID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Actor{}, ErrUnknownActor
	}
	return actor, err
}

// ReportCreateOptions are parameters for drafting a report.
type ReportCreateOptions struct {
	ID             string
	Title          string
	Description    string
	IncidentType   string
	Severity       string
	Visibility     string
	Context        string
	MeansDeployed  string
	Difficulties   string
	LessonsLearned string
	ThematicTags   []string
}

func (e Engine) CreateReport(ctx context.Context, actorID string, opts ReportCreateOptions) (domain.Report, error) {
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Report{}, err
	}
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Report{}, errors.New("title is required")
	}
	if strings.TrimSpace(opts.Description) == "" {
		return domain.Report{}, errors.New("description is required")
	}
	severity := domain.Severity(opts.Severity)
	if opts.Severity == "" {
		severity = domain.SeveritySignificant
	}
	if !severity.Valid() {
		return domain.Report{}, fmt.Errorf("invalid severity %s", opts.Severity)
	}
	visibility := domain.Visibility(opts.Visibility)
	if opts.Visibility == "" {
		visibility = domain.VisibilityOrg
	}
	if !visibility.Valid() {
		return domain.Report{}, fmt.Errorf("invalid visibility %s", opts.Visibility)
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := e.nowString()
	rep := domain.Report{
		ID:             id,
		AuthorID:       actor.ID,
		OrgID:          actor.OrgID,
		Status:         domain.StatusDraft,
		Tier:           domain.TierSignal.String(),
		IncidentType:   opts.IncidentType,
		Severity:       severity,
		Visibility:     visibility,
		Title:          opts.Title,
		Description:    opts.Description,
		Context:        opts.Context,
		MeansDeployed:  opts.MeansDeployed,
		Difficulties:   opts.Difficulties,
		LessonsLearned: opts.LessonsLearned,
		ThematicTags:   opts.ThematicTags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertReportTx(ctx, tx, rep); err != nil {
		return domain.Report{}, err
	}
	if err := e.Events.Append(ctx, tx, "report.created", rep.OrgID, "report", rep.ID, actor.ID, events.EventPayload{
		"title": rep.Title, "status": rep.Status,
	}); err != nil {
		return domain.Report{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}

// ReportEditOptions carries author-editable content. Nil pointers leave
// the field untouched.
type ReportEditOptions struct {
	Title          *string
	Description    *string
	IncidentType   *string
	Severity       *string
	Visibility     *string
	Context        *string
	MeansDeployed  *string
	Difficulties   *string
	LessonsLearned *string
	ThematicTags   []string
	SetTags        bool
}

// EditReport mutates content fields. Authors may edit while the report is
// in draft; an admin edit on a non-draft report first forces the status
// back to draft (clearing the validation audit fields) and then applies
// the content change, all in one transaction.
func (e Engine) EditReport(ctx context.Context, actorID, reportID string, opts ReportEditOptions) (domain.Report, error) {
	rep, err := e.Repo.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Report{}, err
	}
	if err := auth.Authorize(actor, auth.ActionEditContent, rep); err != nil {
		return domain.Report{}, err
	}
	now := e.nowString()
	priorStatus := rep.Status
	forced := false
	if rep.Status != domain.StatusDraft {
		// Only the admin override reaches this point.
		rep, err = applyDraftReset(rep, now)
		if err != nil {
			return domain.Report{}, err
		}
		forced = true
	}
	if opts.Title != nil {
		rep.Title = *opts.Title
	}
	if opts.Description != nil {
		rep.Description = *opts.Description
	}
	if opts.IncidentType != nil {
		rep.IncidentType = *opts.IncidentType
	}
	if opts.Severity != nil {
		s := domain.Severity(*opts.Severity)
		if !s.Valid() {
			return domain.Report{}, fmt.Errorf("invalid severity %s", *opts.Severity)
		}
		rep.Severity = s
	}
	if opts.Visibility != nil {
		v := domain.Visibility(*opts.Visibility)
		if !v.Valid() {
			return domain.Report{}, fmt.Errorf("invalid visibility %s", *opts.Visibility)
		}
		rep.Visibility = v
	}
	if opts.Context != nil {
		rep.Context = *opts.Context
	}
	if opts.MeansDeployed != nil {
		rep.MeansDeployed = *opts.MeansDeployed
	}
	if opts.Difficulties != nil {
		rep.Difficulties = *opts.Difficulties
	}
	if opts.LessonsLearned != nil {
		rep.LessonsLearned = *opts.LessonsLearned
	}
	if opts.SetTags {
		rep.ThematicTags = opts.ThematicTags
	}
	if strings.TrimSpace(rep.Title) == "" {
		return domain.Report{}, errors.New("title is required")
	}
	if strings.TrimSpace(rep.Description) == "" {
		return domain.Report{}, errors.New("description is required")
	}
	rep.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, err
	}
	defer tx.Rollback()
	if forced {
		if err := e.Repo.UpdateReportStatusTx(ctx, tx, rep, priorStatus); err != nil {
			return domain.Report{}, e.mapCASError(err, priorStatus)
		}
	}
	if err := e.Repo.UpdateReportContentTx(ctx, tx, rep); err != nil {
		return domain.Report{}, err
	}
	payload := events.EventPayload{"status": rep.Status}
	if forced {
		payload["forced_from"] = priorStatus
	}
	if err := e.Events.Append(ctx, tx, "report.updated", rep.OrgID, "report", rep.ID, actor.ID, payload); err != nil {
		return domain.Report{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}

// SubmitReport moves a draft to pending and notifies the organization's
// validators.
func (e Engine) SubmitReport(ctx context.Context, actorID, reportID string) (domain.Report, error) {
	rep, err := e.Repo.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Report{}, err
	}
	if err := auth.Authorize(actor, auth.ActionSubmit, rep); err != nil {
		return domain.Report{}, err
	}
	prior := rep.Status
	rep, err = applySubmit(rep, e.nowString())
	if err != nil {
		return domain.Report{}, err
	}
	if err := e.commitStatus(ctx, rep, prior, "report.submitted", actor.ID, events.EventPayload{
		"from_status": prior, "to_status": rep.Status,
	}); err != nil {
		return domain.Report{}, err
	}
	e.fanout(notify.EventSubmitted, rep, actor)
	return rep, nil
}

// ValidateReport approves a pending report. The first successful
// transition wins; a concurrent attempt observes the CAS failure and gets
// StaleStateError.
func (e Engine) ValidateReport(ctx context.Context, actorID, reportID string) (domain.Report, error) {
	rep, err := e.Repo.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Report{}, err
	}
	if err := auth.Authorize(actor, auth.ActionValidate, rep); err != nil {
		return domain.Report{}, err
	}
	prior := rep.Status
	rep, err = applyValidate(rep, actor.ID, e.nowString())
	if err != nil {
		return domain.Report{}, err
	}
	payload := events.EventPayload{"from_status": prior, "to_status": rep.Status, "validated_by": actor.ID}
	if err := e.commitStatus(ctx, rep, prior, "report.validated", actor.ID, payload); err != nil {
		return domain.Report{}, err
	}
	e.fanout(notify.EventValidated, rep, actor)
	if rep.Visibility != domain.VisibilityOrg {
		e.fanout(notify.EventPublished, rep, actor)
	}
	return rep, nil
}

// RejectReport bounces a pending report back to draft with an optional
// reason and notifies the author.
func (e Engine) RejectReport(ctx context.Context, actorID, reportID, reason string) (domain.Report, error) {
	rep, err := e.Repo.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Report{}, err
	}
	if err := auth.Authorize(actor, auth.ActionReject, rep); err != nil {
		return domain.Report{}, err
	}
	prior := rep.Status
	rep, err = applyReject(rep, reason, e.nowString())
	if err != nil {
		return domain.Report{}, err
	}
	payload := events.EventPayload{"from_status": prior, "to_status": rep.Status}
	if rep.RejectionReason != nil {
		payload["reason"] = *rep.RejectionReason
	}
	if err := e.commitStatus(ctx, rep, prior, "report.rejected", actor.ID, payload); err != nil {
		return domain.Report{}, err
	}
	e.fanout(notify.EventRejected, rep, actor)
	return rep, nil
}

// ArchiveReport retires a validated report. Archival is a status, not a
// deletion; no notification is produced.
func (e Engine) ArchiveReport(ctx context.Context, actorID, reportID string) (domain.Report, error) {
	rep, err := e.Repo.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Report{}, err
	}
	if err := auth.Authorize(actor, auth.ActionArchive, rep); err != nil {
		return domain.Report{}, err
	}
	prior := rep.Status
	rep, err = applyArchive(rep, e.nowString())
	if err != nil {
		return domain.Report{}, err
	}
	if err := e.commitStatus(ctx, rep, prior, "report.archived", actor.ID, events.EventPayload{
		"from_status": prior, "to_status": rep.Status,
	}); err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}

// PromoteReport advances the report exactly one tier once the target
// tier's required fields are populated. Promotion is orthogonal to
// status and never changes it.
func (e Engine) PromoteReport(ctx context.Context, actorID, reportID string, target domain.Tier) (domain.Report, error) {
	rep, err := e.Repo.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Report{}, err
	}
	if err := auth.Authorize(actor, auth.ActionPromote, rep); err != nil {
		return domain.Report{}, err
	}
	if err := checkPromotion(rep, target); err != nil {
		return domain.Report{}, err
	}
	prior := rep.Tier
	rep.Tier = target.String()
	rep.UpdatedAt = e.nowString()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateReportTierTx(ctx, tx, rep.ID, rep.Tier, prior, rep.UpdatedAt); err != nil {
		if errors.Is(err, repo.ErrTierConflict) {
			return domain.Report{}, StaleStateError{Expected: prior}
		}
		return domain.Report{}, err
	}
	if err := e.Events.Append(ctx, tx, "report.promoted", rep.OrgID, "report", rep.ID, actor.ID, events.EventPayload{
		"from_tier": prior, "to_tier": rep.Tier,
	}); err != nil {
		return domain.Report{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}

// ChangeUserRole updates a user's role subject to the role-change rules.
func (e Engine) ChangeUserRole(ctx context.Context, actorID, targetID string, newRole domain.Role) (domain.Actor, error) {
	if !newRole.Valid() {
		return domain.Actor{}, ErrInvalidRole
	}
	target, err := e.Repo.GetUser(ctx, targetID)
	if err != nil {
		return domain.Actor{}, err
	}
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Actor{}, err
	}
	if err := auth.AuthorizeRoleChange(actor, target, newRole); err != nil {
		return domain.Actor{}, err
	}
	now := e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Actor{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateUserRoleTx(ctx, tx, target.ID, newRole, now); err != nil {
		return domain.Actor{}, err
	}
	if err := e.Events.Append(ctx, tx, "user.role.changed", target.OrgID, "user", target.ID, actor.ID, events.EventPayload{
		"from_role": target.Role, "to_role": newRole,
	}); err != nil {
		return domain.Actor{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Actor{}, err
	}
	target.Role = newRole
	return target, nil
}

// CreateUser registers a user in the actor's organization. Admins create
// members of their own org; super-admins may name any org.
func (e Engine) CreateUser(ctx context.Context, actorID string, u domain.Actor) (domain.Actor, error) {
	actor, err := e.ResolveActor(ctx, actorID)
	if err != nil {
		return domain.Actor{}, err
	}
	if !actor.Role.IsAdmin() {
		return domain.Actor{}, auth.ForbiddenError{Action: auth.ActionChangeRole}
	}
	if u.OrgID == "" {
		u.OrgID = actor.OrgID
	}
	if actor.Role == domain.RoleAdmin && u.OrgID != actor.OrgID {
		return domain.Actor{}, auth.ForbiddenError{Action: auth.ActionChangeRole}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = domain.RoleMember
	}
	if !u.Role.Valid() {
		return domain.Actor{}, ErrInvalidRole
	}
	if u.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return domain.Actor{}, auth.ForbiddenError{Action: auth.ActionChangeRole}
	}
	if _, err := e.Repo.GetOrg(ctx, u.OrgID); err != nil {
		return domain.Actor{}, err
	}
	now := e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Actor{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertUserTx(ctx, tx, u, now); err != nil {
		return domain.Actor{}, err
	}
	if err := e.Events.Append(ctx, tx, "user.created", u.OrgID, "user", u.ID, actor.ID, events.EventPayload{
		"role": u.Role,
	}); err != nil {
		return domain.Actor{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Actor{}, err
	}
	return u, nil
}

// commitStatus writes the CAS status mutation and its event atomically.
func (e Engine) commitStatus(ctx context.Context, rep domain.Report, expected domain.Status, evtType, actorID string, payload events.EventPayload) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateReportStatusTx(ctx, tx, rep, expected); err != nil {
		return e.mapCASError(err, expected)
	}
	if err := e.Events.Append(ctx, tx, evtType, rep.OrgID, "report", rep.ID, actorID, payload); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) mapCASError(err error, expected domain.Status) error {
	if errors.Is(err, repo.ErrStatusConflict) {
		return StaleStateError{Expected: string(expected)}
	}
	return err
}

// fanout computes recipients for a lifecycle event and hands the batch to
// the dispatcher. It runs after commit, is best-effort, and never
// surfaces an error to the operation that produced the event.
func (e Engine) fanout(evt notify.Event, rep domain.Report, actor domain.Actor) {
	roster := notify.Roster{}
	ctx := context.Background()
	var err error
	switch evt {
	case notify.EventSubmitted:
		roster.Validators, err = e.Repo.ListOrgValidators(ctx, rep.OrgID)
	case notify.EventPublished:
		roster.Members, err = e.Repo.ListOrgMembers(ctx, rep.OrgID)
	}
	if err != nil {
		log.Printf("notify: resolve roster for %s failed: %v", evt, err)
		return
	}
	payloads := notify.Fanout(evt, rep, actor, roster)
	if len(payloads) == 0 {
		return
	}
	now := e.nowString()
	batch := make([]domain.Notification, 0, len(payloads))
	for _, p := range payloads {
		n := domain.Notification{
			ID:          uuid.New().String(),
			RecipientID: p.RecipientID,
			Type:        p.Type,
			Title:       p.Title,
			Content:     p.Content,
			Link:        p.Link,
			CreatedAt:   now,
		}
		if err := e.Repo.InsertNotification(ctx, n); err != nil {
			log.Printf("notify: store notification for %s failed: %v", n.RecipientID, err)
		}
		batch = append(batch, n)
	}
	if e.Notifier != nil {
		timeout := 5 * time.Second
		if e.Config != nil && e.Config.Notify.BatchTimeoutSeconds > 0 {
			timeout = time.Duration(e.Config.Notify.BatchTimeoutSeconds) * time.Second
		}
		go func() {
			dctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			e.Notifier.Dispatch(dctx, batch)
		}()
	}
}
