package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rexline/internal/config"
	"rexline/internal/db"
	"rexline/internal/domain"
	"rexline/internal/engine"
	"rexline/internal/engine/auth"
	"rexline/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("org-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	env := testEnv{Engine: eng, Ctx: ctx}
	env.seedOrg(t, "org-1")
	env.seedOrg(t, "org-2")
	env.seedUser(t, "ana", domain.RoleMember, "org-1")
	env.seedUser(t, "max", domain.RoleMember, "org-1")
	env.seedUser(t, "vic", domain.RoleValidator, "org-1")
	env.seedUser(t, "ada", domain.RoleAdmin, "org-1")
	env.seedUser(t, "oli", domain.RoleValidator, "org-2")
	env.seedUser(t, "rae", domain.RoleAdmin, "org-2")
	env.seedUser(t, "sam", domain.RoleSuperAdmin, "org-2")
	return env
}

func (env testEnv) seedOrg(t *testing.T, id string) {
	t.Helper()
	tx, err := env.Engine.DB.BeginTx(env.Ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	org := domain.Organization{ID: id, Name: id, CreatedAt: "2025-06-01T00:00:00Z"}
	if err := env.Engine.Repo.InsertOrg(env.Ctx, tx, org); err != nil {
		t.Fatalf("insert org: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func (env testEnv) seedUser(t *testing.T, id string, role domain.Role, orgID string) {
	t.Helper()
	tx, err := env.Engine.DB.BeginTx(env.Ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	u := domain.Actor{ID: id, Name: id, Role: role, OrgID: orgID}
	if err := env.Engine.Repo.EnsureUser(env.Ctx, tx, u, "2025-06-01T00:00:00Z"); err != nil {
		t.Fatalf("insert user %s: %v", id, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func (env testEnv) draft(t *testing.T, author string) domain.Report {
	t.Helper()
	rep, err := env.Engine.CreateReport(env.Ctx, author, engine.ReportCreateOptions{
		Title:       "Warehouse fire on Rue Colbert",
		Description: "Structure fire with partial roof collapse.",
		Severity:    "major",
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	return rep
}

func TestReportLifecycle(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	if rep.Status != domain.StatusDraft || rep.Tier != "signal" {
		t.Fatalf("unexpected initial state: %s/%s", rep.Status, rep.Tier)
	}

	rep, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID)
	if err != nil || rep.Status != domain.StatusPending {
		t.Fatalf("submit: %v (status %s)", err, rep.Status)
	}

	rep, err = env.Engine.ValidateReport(env.Ctx, "vic", rep.ID)
	if err != nil || rep.Status != domain.StatusValidated {
		t.Fatalf("validate: %v (status %s)", err, rep.Status)
	}
	if rep.ValidatedBy == nil || *rep.ValidatedBy != "vic" || rep.ValidatedAt == nil {
		t.Fatalf("expected validation audit fields, got %+v", rep)
	}

	rep, err = env.Engine.ArchiveReport(env.Ctx, "ada", rep.ID)
	if err != nil || rep.Status != domain.StatusArchived {
		t.Fatalf("archive: %v (status %s)", err, rep.Status)
	}
	if rep.ValidatedBy != nil || rep.ValidatedAt != nil {
		t.Fatalf("archive should clear validation audit fields")
	}
}

func TestInvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")

	var te engine.InvalidTransitionError
	if _, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID); !errors.As(err, &te) {
		t.Fatalf("validate draft: want InvalidTransitionError, got %v", err)
	}
	if _, err := env.Engine.ArchiveReport(env.Ctx, "ada", rep.ID); !errors.As(err, &te) {
		t.Fatalf("archive draft: want InvalidTransitionError, got %v", err)
	}
	if _, err := env.Engine.RejectReport(env.Ctx, "vic", rep.ID, "nope"); !errors.As(err, &te) {
		t.Fatalf("reject draft: want InvalidTransitionError, got %v", err)
	}

	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); !errors.As(err, &te) {
		t.Fatalf("double submit: want InvalidTransitionError, got %v", err)
	}
	if _, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID); err != nil {
		t.Fatal(err)
	}
	// a second validation sees the already-validated state
	if _, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID); !errors.As(err, &te) {
		t.Fatalf("double validate: want InvalidTransitionError, got %v", err)
	}
}

func TestRejectionFlow(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}
	rep, err := env.Engine.RejectReport(env.Ctx, "vic", rep.ID, "needs a timeline")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rep.Status != domain.StatusDraft {
		t.Fatalf("rejection should land back in draft, got %s", rep.Status)
	}
	if rep.RejectionReason == nil || *rep.RejectionReason != "needs a timeline" {
		t.Fatalf("expected rejection reason, got %+v", rep.RejectionReason)
	}

	// resubmission spends the reason
	rep, err = env.Engine.SubmitReport(env.Ctx, "ana", rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rep.RejectionReason != nil {
		t.Fatalf("resubmit should clear rejection reason")
	}
}

func TestPermissionDenials(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")

	var fe auth.ForbiddenError
	if _, err := env.Engine.SubmitReport(env.Ctx, "max", rep.ID); !errors.As(err, &fe) {
		t.Fatalf("non-author submit: want ForbiddenError, got %v", err)
	}
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ValidateReport(env.Ctx, "ana", rep.ID); !errors.As(err, &fe) {
		t.Fatalf("member validate: want ForbiddenError, got %v", err)
	}
	// validator from another org is out of scope
	if _, err := env.Engine.ValidateReport(env.Ctx, "oli", rep.ID); !errors.As(err, &fe) {
		t.Fatalf("cross-org validate: want ForbiddenError, got %v", err)
	}
	// denial messages stay uniform
	if err := func() error {
		_, err := env.Engine.ValidateReport(env.Ctx, "oli", rep.ID)
		return err
	}(); err == nil || err.Error() != "forbidden" {
		t.Fatalf("denial message should be uniform, got %v", err)
	}
	// super-admins validate across orgs
	if _, err := env.Engine.ValidateReport(env.Ctx, "sam", rep.ID); err != nil {
		t.Fatalf("super-admin validate: %v", err)
	}
	if _, err := env.Engine.ArchiveReport(env.Ctx, "max", rep.ID); !errors.As(err, &fe) {
		t.Fatalf("member archive: want ForbiddenError, got %v", err)
	}
}

func TestUnknownActor(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	if _, err := env.Engine.SubmitReport(env.Ctx, "ghost", rep.ID); !errors.Is(err, engine.ErrUnknownActor) {
		t.Fatalf("want ErrUnknownActor, got %v", err)
	}
	if _, err := env.Engine.CreateReport(env.Ctx, "", engine.ReportCreateOptions{Title: "x", Description: "y"}); !errors.Is(err, engine.ErrUnknownActor) {
		t.Fatalf("want ErrUnknownActor for empty actor, got %v", err)
	}
	// the report lookup wins over actor resolution
	if _, err := env.Engine.SubmitReport(env.Ctx, "ghost", "missing-report"); errors.Is(err, engine.ErrUnknownActor) {
		t.Fatalf("missing report should surface not-found before unknown actor")
	}
}

func TestPromotionFieldGating(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")

	_, err := env.Engine.PromoteReport(env.Ctx, "ana", rep.ID, domain.TierPracticeNote)
	var ie engine.IncompleteFieldsError
	if !errors.As(err, &ie) {
		t.Fatalf("want IncompleteFieldsError, got %v", err)
	}
	if len(ie.Missing) != 3 {
		t.Fatalf("expected 3 missing fields, got %v", ie.Missing)
	}

	ctxText := "Night intervention, high winds."
	means := "Two engines, one ladder."
	lessons := "Stage water supply before entry."
	if _, err := env.Engine.EditReport(env.Ctx, "ana", rep.ID, engine.ReportEditOptions{
		Context:        &ctxText,
		MeansDeployed:  &means,
		LessonsLearned: &lessons,
	}); err != nil {
		t.Fatal(err)
	}
	rep, err = env.Engine.PromoteReport(env.Ctx, "ana", rep.ID, domain.TierPracticeNote)
	if err != nil || rep.Tier != "practice-note" {
		t.Fatalf("promote to practice-note: %v (%s)", err, rep.Tier)
	}

	// full-review additionally needs tags
	_, err = env.Engine.PromoteReport(env.Ctx, "ana", rep.ID, domain.TierFullReview)
	if !errors.As(err, &ie) {
		t.Fatalf("want IncompleteFieldsError, got %v", err)
	}
	if len(ie.Missing) != 1 || ie.Missing[0] != "thematic_tags" {
		t.Fatalf("expected only thematic_tags missing, got %v", ie.Missing)
	}
	if _, err := env.Engine.EditReport(env.Ctx, "ana", rep.ID, engine.ReportEditOptions{
		ThematicTags: []string{"water-supply", "wind"},
		SetTags:      true,
	}); err != nil {
		t.Fatal(err)
	}
	rep, err = env.Engine.PromoteReport(env.Ctx, "ana", rep.ID, domain.TierFullReview)
	if err != nil || rep.Tier != "full-review" {
		t.Fatalf("promote to full-review: %v (%s)", err, rep.Tier)
	}
}

func TestPromotionIsStrictlyStepwise(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")

	var pe engine.InvalidPromotionError
	if _, err := env.Engine.PromoteReport(env.Ctx, "ana", rep.ID, domain.TierFullReview); !errors.As(err, &pe) {
		t.Fatalf("tier skip: want InvalidPromotionError, got %v", err)
	}
	if _, err := env.Engine.PromoteReport(env.Ctx, "ana", rep.ID, domain.TierSignal); !errors.As(err, &pe) {
		t.Fatalf("re-promote to current: want InvalidPromotionError, got %v", err)
	}
}

func TestPromotionOrthogonalToStatus(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	ctxText, means, lessons := "ctx", "means", "lessons"
	if _, err := env.Engine.EditReport(env.Ctx, "ana", rep.ID, engine.ReportEditOptions{
		Context: &ctxText, MeansDeployed: &means, LessonsLearned: &lessons,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID); err != nil {
		t.Fatal(err)
	}
	rep, err := env.Engine.PromoteReport(env.Ctx, "ana", rep.ID, domain.TierPracticeNote)
	if err != nil {
		t.Fatalf("promote validated report: %v", err)
	}
	if rep.Status != domain.StatusValidated {
		t.Fatalf("promotion must not change status, got %s", rep.Status)
	}
	if rep.ValidatedBy == nil {
		t.Fatalf("promotion must not clear validation audit")
	}
}

func TestConcurrentValidationSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}

	// A second engine on the same database plays the competing caller.
	// The clock hook runs its validate between this engine's load and
	// commit, so the race outcome is deterministic.
	rival := env.Engine
	rival.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC) }
	fired := false
	env.Engine.Now = func() time.Time {
		if !fired {
			fired = true
			if _, err := rival.ValidateReport(env.Ctx, "ada", rep.ID); err != nil {
				t.Fatalf("rival validate: %v", err)
			}
		}
		return time.Date(2025, 6, 1, 0, 0, 2, 0, time.UTC)
	}

	_, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID)
	var se engine.StaleStateError
	if !errors.As(err, &se) {
		t.Fatalf("loser: want StaleStateError, got %v", err)
	}
	if se.Expected != string(domain.StatusPending) {
		t.Fatalf("unexpected precondition %q", se.Expected)
	}

	got, err := env.Engine.Repo.GetReport(env.Ctx, rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusValidated || got.ValidatedBy == nil || *got.ValidatedBy != "ada" {
		t.Fatalf("winner's validation must stand, got %+v", got)
	}
}

func TestConcurrentPromotionSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	ctxText, means, lessons := "ctx", "means", "lessons"
	if _, err := env.Engine.EditReport(env.Ctx, "ana", rep.ID, engine.ReportEditOptions{
		Context: &ctxText, MeansDeployed: &means, LessonsLearned: &lessons,
	}); err != nil {
		t.Fatal(err)
	}

	rival := env.Engine
	rival.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC) }
	fired := false
	env.Engine.Now = func() time.Time {
		if !fired {
			fired = true
			if _, err := rival.PromoteReport(env.Ctx, "ada", rep.ID, domain.TierPracticeNote); err != nil {
				t.Fatalf("rival promote: %v", err)
			}
		}
		return time.Date(2025, 6, 1, 0, 0, 2, 0, time.UTC)
	}

	_, err := env.Engine.PromoteReport(env.Ctx, "ana", rep.ID, domain.TierPracticeNote)
	var se engine.StaleStateError
	if !errors.As(err, &se) {
		t.Fatalf("loser: want StaleStateError, got %v", err)
	}
	if se.Expected != "signal" {
		t.Fatalf("unexpected precondition %q", se.Expected)
	}

	// the tier never moves backwards
	got, err := env.Engine.Repo.GetReport(env.Ctx, rep.ID)
	if err != nil || got.Tier != "practice-note" {
		t.Fatalf("tier after race: %s (%v)", got.Tier, err)
	}
}

func TestAdminEditForcesDraft(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID); err != nil {
		t.Fatal(err)
	}

	// author edits are locked once out of draft
	title := "Revised title"
	var fe auth.ForbiddenError
	if _, err := env.Engine.EditReport(env.Ctx, "ana", rep.ID, engine.ReportEditOptions{Title: &title}); !errors.As(err, &fe) {
		t.Fatalf("author edit of validated report: want ForbiddenError, got %v", err)
	}

	rep, err := env.Engine.EditReport(env.Ctx, "ada", rep.ID, engine.ReportEditOptions{Title: &title})
	if err != nil {
		t.Fatalf("admin edit: %v", err)
	}
	if rep.Status != domain.StatusDraft || rep.Title != title {
		t.Fatalf("admin edit should force draft, got %s", rep.Status)
	}
	if rep.ValidatedBy != nil || rep.ValidatedAt != nil {
		t.Fatalf("forced draft should clear validation audit")
	}
}

func TestArchivedReportIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	for _, step := range []func() (domain.Report, error){
		func() (domain.Report, error) { return env.Engine.SubmitReport(env.Ctx, "ana", rep.ID) },
		func() (domain.Report, error) { return env.Engine.ValidateReport(env.Ctx, "vic", rep.ID) },
		func() (domain.Report, error) { return env.Engine.ArchiveReport(env.Ctx, "ada", rep.ID) },
	} {
		if _, err := step(); err != nil {
			t.Fatal(err)
		}
	}
	title := "late edit"
	var te engine.InvalidTransitionError
	if _, err := env.Engine.EditReport(env.Ctx, "ada", rep.ID, engine.ReportEditOptions{Title: &title}); !errors.As(err, &te) {
		t.Fatalf("edit of archived report: want InvalidTransitionError, got %v", err)
	}
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); !errors.As(err, &te) {
		t.Fatalf("submit of archived report: want InvalidTransitionError, got %v", err)
	}
}

func TestChangeUserRole(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.Engine.ChangeUserRole(env.Ctx, "ada", "max", domain.RoleValidator)
	if err != nil || u.Role != domain.RoleValidator {
		t.Fatalf("admin role change: %v", err)
	}

	var fe auth.ForbiddenError
	if _, err := env.Engine.ChangeUserRole(env.Ctx, "ana", "max", domain.RoleMember); !errors.As(err, &fe) {
		t.Fatalf("member role change: want ForbiddenError, got %v", err)
	}
	if _, err := env.Engine.ChangeUserRole(env.Ctx, "ada", "ada", domain.RoleSuperAdmin); !errors.As(err, &fe) {
		t.Fatalf("self role change: want ForbiddenError, got %v", err)
	}
	if _, err := env.Engine.ChangeUserRole(env.Ctx, "ada", "max", domain.RoleSuperAdmin); !errors.As(err, &fe) {
		t.Fatalf("admin granting super-admin: want ForbiddenError, got %v", err)
	}
	// plain admins stay inside their organization
	if _, err := env.Engine.ChangeUserRole(env.Ctx, "rae", "max", domain.RoleMember); !errors.As(err, &fe) {
		t.Fatalf("cross-org admin role change: want ForbiddenError, got %v", err)
	}
	if _, err := env.Engine.ChangeUserRole(env.Ctx, "sam", "max", domain.RoleMember); err != nil {
		t.Fatalf("super-admin cross-org role change: %v", err)
	}
	if _, err := env.Engine.ChangeUserRole(env.Ctx, "ada", "max", domain.Role("chief")); !errors.Is(err, engine.ErrInvalidRole) {
		t.Fatalf("want ErrInvalidRole, got %v", err)
	}
}

func TestNotificationsOnLifecycle(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}

	// validators and admins of org-1 hear about the submission
	for _, recipient := range []string{"vic", "ada"} {
		items, err := env.Engine.Repo.ListNotifications(env.Ctx, recipient, false, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 || items[0].Type != "report.submitted" {
			t.Fatalf("expected submitted notification for %s, got %+v", recipient, items)
		}
	}
	// the author does not notify themselves on submit
	if items, _ := env.Engine.Repo.ListNotifications(env.Ctx, "ana", false, 10); len(items) != 0 {
		t.Fatalf("author should have no notifications yet, got %+v", items)
	}

	if _, err := env.Engine.RejectReport(env.Ctx, "vic", rep.ID, "expand the timeline"); err != nil {
		t.Fatal(err)
	}
	items, err := env.Engine.Repo.ListNotifications(env.Ctx, "ana", false, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Type != "report.rejected" {
		t.Fatalf("expected rejection notification, got %+v", items)
	}

	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID); err != nil {
		t.Fatal(err)
	}
	items, err = env.Engine.Repo.ListNotifications(env.Ctx, "ana", false, 10)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range items {
		if n.Type == "report.validated" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected validation notification for author, got %+v", items)
	}
}

func TestPublishedFanoutRespectsVisibility(t *testing.T) {
	env := newTestEnv(t)
	rep, err := env.Engine.CreateReport(env.Ctx, "ana", engine.ReportCreateOptions{
		Title:       "Chemical spill on A7",
		Description: "Tanker rollover with product release.",
		Visibility:  "inter-org",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID); err != nil {
		t.Fatal(err)
	}
	// org members (minus the author) get the publication notice
	items, err := env.Engine.Repo.ListNotifications(env.Ctx, "max", false, 10)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range items {
		if n.Type == "report.published" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected published notification for org member, got %+v", items)
	}
	for _, n := range items {
		if n.Type == "report.published" && n.Title == "" {
			t.Fatalf("published notification should carry a title")
		}
	}
	// the author already got the validated notice, not a published one
	authorItems, _ := env.Engine.Repo.ListNotifications(env.Ctx, "ana", false, 10)
	for _, n := range authorItems {
		if n.Type == "report.published" {
			t.Fatalf("author should not receive published fan-out")
		}
	}
}

func TestEventAppendOnStateChanges(t *testing.T) {
	env := newTestEnv(t)
	rep := env.draft(t, "ana")
	if _, err := env.Engine.SubmitReport(env.Ctx, "ana", rep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ValidateReport(env.Ctx, "vic", rep.ID); err != nil {
		t.Fatal(err)
	}
	rows, err := env.Engine.DB.QueryContext(env.Ctx, `SELECT type FROM events WHERE entity_id=?`, rep.ID)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	defer rows.Close()
	types := map[string]bool{}
	for rows.Next() {
		var typ string
		if err := rows.Scan(&typ); err != nil {
			t.Fatal(err)
		}
		types[typ] = true
	}
	for _, want := range []string{"report.created", "report.submitted", "report.validated"} {
		if !types[want] {
			t.Fatalf("missing event %s in %v", want, types)
		}
	}
}
