package app

import (
	"context"
	"fmt"
	"time"

	"rexline/internal/config"
	"rexline/internal/domain"
	"rexline/internal/repo"
)

// ResolveOrgAndConfig loads the workspace config and ensures its
// organization and the acting user exist in the database, seeding them on
// first run. The first actor seeded into a fresh workspace becomes an
// admin so the workspace is administrable out of the box.
func ResolveOrgAndConfig(ctx context.Context, workspace, actorID string, r repo.Repo) (string, *config.Config, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return "", nil, err
	}
	if err := seedWorkspace(ctx, r, cfg, actorID); err != nil {
		return "", nil, err
	}
	return cfg.Org.ID, cfg, nil
}

func seedWorkspace(ctx context.Context, r repo.Repo, cfg *config.Config, actorID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	org := domain.Organization{ID: cfg.Org.ID, Name: cfg.Org.Name, CreatedAt: now}
	if org.Name == "" {
		org.Name = org.ID
	}
	if err := r.InsertOrg(ctx, tx, org); err != nil {
		return fmt.Errorf("ensure org: %w", err)
	}
	if actorID == "" {
		actorID = "local-user"
	}
	u := domain.Actor{ID: actorID, Name: actorID, Role: domain.RoleAdmin, OrgID: org.ID}
	if err := r.EnsureUser(ctx, tx, u, now); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return tx.Commit()
}
