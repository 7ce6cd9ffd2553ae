package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rexline/internal/app"
	"rexline/internal/db"
	"rexline/internal/domain"
	"rexline/internal/engine"
	"rexline/internal/migrate"
	"rexline/internal/repo"
	"rexline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "rex",
	Short: "Rexline CLI",
	Long: `Rexline manages fire-rescue incident reports (REX) through their full
lifecycle: draft, peer validation, knowledge-tier promotion, and archive.
- Reports: lessons-learned writeups that move draft -> pending -> validated -> archived;
  rejection sends a pending report back to draft with a reason.
- Tiers: signal -> practice-note -> full-review; each step unlocks only once
  the richer fields (context, means deployed, lessons learned, tags) are filled in.
- Roles: members write, validators approve for their organization, admins
  administer, super-admins cross organizations.
- Notifications: authors hear about validations and rejections, validators
  about submissions; view with 'rex notify list'.
- Event log: diary of every change, view with 'rex log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("REXLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(orgCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func reportCmd() *cobra.Command {
	rep := &cobra.Command{Use: "report", Short: "Manage incident reports"}
	rep.AddCommand(reportCreateCmd())
	rep.AddCommand(reportListCmd())
	rep.AddCommand(reportShowCmd())
	rep.AddCommand(reportEditCmd())
	rep.AddCommand(reportSubmitCmd())
	rep.AddCommand(reportValidateCmd())
	rep.AddCommand(reportRejectCmd())
	rep.AddCommand(reportPromoteCmd())
	rep.AddCommand(reportArchiveCmd())
	return rep
}

func reportCreateCmd() *cobra.Command {
	var opts engine.ReportCreateOptions
	var tags []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a report draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts.ThematicTags = tags
				rep, err := e.CreateReport(ctx, viper.GetString("actor-id"), opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(rep)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "report id (generated when empty)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "report title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "factual description")
	cmd.Flags().StringVar(&opts.IncidentType, "incident-type", "", "incident type")
	cmd.Flags().StringVar(&opts.Severity, "severity", "", "severity (critical, major, significant)")
	cmd.Flags().StringVar(&opts.Visibility, "visibility", "", "visibility (org-only, inter-org, public)")
	cmd.Flags().StringVar(&opts.Context, "context", "", "operational context")
	cmd.Flags().StringVar(&opts.MeansDeployed, "means-deployed", "", "means deployed")
	cmd.Flags().StringVar(&opts.Difficulties, "difficulties", "", "difficulties encountered")
	cmd.Flags().StringVar(&opts.LessonsLearned, "lessons-learned", "", "lessons learned")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "thematic tag (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func reportListCmd() *cobra.Command {
	var f repo.ReportFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if f.OrgID == "" {
					f.OrgID = e.Config.Org.ID
				}
				reports, err := e.Repo.ListReports(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(reports)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Tier", "Severity", "Author"})
				for _, rep := range reports {
					tw.AppendRow(table.Row{rep.ID, rep.Title, rep.Status, rep.Tier, rep.Severity, rep.AuthorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.OrgID, "org", "", "organization filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Tier, "tier", "", "tier filter")
	cmd.Flags().StringVar(&f.AuthorID, "author-id", "", "author filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max results")
	return cmd
}

func reportShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := e.Repo.GetReport(ctx, args[0])
				if err != nil {
					return err
				}
				if err := e.Repo.TouchReportView(ctx, rep.ID); err == nil {
					rep.ViewCount++
				}
				return printJSONOrTable(rep)
			})
		},
	}
	return cmd
}

func reportEditCmd() *cobra.Command {
	var title, description, incidentType, severity, visibility string
	var opsContext, means, difficulties, lessons string
	var tags []string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit report content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ReportEditOptions{}
				set := func(name string, ptr **string, val *string) {
					if cmd.Flags().Changed(name) {
						*ptr = val
					}
				}
				set("title", &opts.Title, &title)
				set("description", &opts.Description, &description)
				set("incident-type", &opts.IncidentType, &incidentType)
				set("severity", &opts.Severity, &severity)
				set("visibility", &opts.Visibility, &visibility)
				set("context", &opts.Context, &opsContext)
				set("means-deployed", &opts.MeansDeployed, &means)
				set("difficulties", &opts.Difficulties, &difficulties)
				set("lessons-learned", &opts.LessonsLearned, &lessons)
				if cmd.Flags().Changed("tag") {
					opts.ThematicTags = tags
					opts.SetTags = true
				}
				rep, err := e.EditReport(ctx, viper.GetString("actor-id"), args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(rep)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "report title")
	cmd.Flags().StringVar(&description, "description", "", "factual description")
	cmd.Flags().StringVar(&incidentType, "incident-type", "", "incident type")
	cmd.Flags().StringVar(&severity, "severity", "", "severity (critical, major, significant)")
	cmd.Flags().StringVar(&visibility, "visibility", "", "visibility (org-only, inter-org, public)")
	cmd.Flags().StringVar(&opsContext, "context", "", "operational context")
	cmd.Flags().StringVar(&means, "means-deployed", "", "means deployed")
	cmd.Flags().StringVar(&difficulties, "difficulties", "", "difficulties encountered")
	cmd.Flags().StringVar(&lessons, "lessons-learned", "", "lessons learned")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "thematic tag (repeatable, replaces the set)")
	return cmd
}

func reportTransitionCmd(use, short string, run func(e engine.Engine, ctx context.Context, actorID, id string) (domain.Report, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := run(e, ctx, viper.GetString("actor-id"), args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(rep)
			})
		},
	}
}

func reportSubmitCmd() *cobra.Command {
	return reportTransitionCmd("submit", "Submit a draft for validation",
		func(e engine.Engine, ctx context.Context, actorID, id string) (domain.Report, error) {
			return e.SubmitReport(ctx, actorID, id)
		})
}

func reportValidateCmd() *cobra.Command {
	return reportTransitionCmd("validate", "Validate a pending report",
		func(e engine.Engine, ctx context.Context, actorID, id string) (domain.Report, error) {
			return e.ValidateReport(ctx, actorID, id)
		})
}

func reportArchiveCmd() *cobra.Command {
	return reportTransitionCmd("archive", "Archive a validated report",
		func(e engine.Engine, ctx context.Context, actorID, id string) (domain.Report, error) {
			return e.ArchiveReport(ctx, actorID, id)
		})
}

func reportRejectCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending report back to draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := e.RejectReport(ctx, viper.GetString("actor-id"), args[0], reason)
				if err != nil {
					return err
				}
				return printJSONOrTable(rep)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason shown to the author")
	return cmd
}

func reportPromoteCmd() *cobra.Command {
	var tierName string
	cmd := &cobra.Command{
		Use:   "promote <id>",
		Short: "Promote a report to the next knowledge tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, ok := domain.ParseTier(tierName)
			if !ok {
				return fmt.Errorf("invalid tier %q (want practice-note or full-review)", tierName)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := e.PromoteReport(ctx, viper.GetString("actor-id"), args[0], tier)
				if err != nil {
					return err
				}
				return printJSONOrTable(rep)
			})
		},
	}
	cmd.Flags().StringVar(&tierName, "tier", "", "target tier (practice-note, full-review)")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}
	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userShowCmd())
	cmd.AddCommand(userRoleCmd())
	cmd.AddCommand(userWhoamiCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var id, name, role, orgID string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.CreateUser(ctx, viper.GetString("actor-id"), domain.Actor{
					ID:    id,
					Name:  name,
					Role:  domain.Role(role),
					OrgID: orgID,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", "member", "role (member, validator, admin, super-admin)")
	cmd.Flags().StringVar(&orgID, "org", "", "organization (defaults to the caller's)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func userShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	return cmd
}

func userRoleCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "role <id>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.ChangeUserRole(ctx, viper.GetString("actor-id"), args[0], domain.Role(role))
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "new role (member, validator, admin, super-admin)")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func userWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.ResolveActor(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	return cmd
}

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "key", Short: "API keys for the HTTP API"}
	cmd.AddCommand(keyCreateCmd())
	cmd.AddCommand(keyListCmd())
	cmd.AddCommand(keyRevokeCmd())
	return cmd
}

func keyCreateCmd() *cobra.Command {
	var actorID, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Mint an API key",
		Long:  "Prints the key once; only its hash is stored. Pass it as X-Api-Key.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				owner := actorID
				if owner == "" {
					owner = viper.GetString("actor-id")
				}
				if _, err := r.GetUser(ctx, owner); err != nil {
					return err
				}
				raw := make([]byte, 32)
				if _, err := rand.Read(raw); err != nil {
					return err
				}
				secret := "rex_" + hex.EncodeToString(raw)
				key := domain.APIKey{
					ID:        uuid.New().String(),
					ActorID:   owner,
					Name:      name,
					KeyHash:   repo.HashAPIKey(secret),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"id": key.ID, "actor_id": key.ActorID, "key": secret})
				}
				fmt.Println("key id:", key.ID)
				fmt.Println("api key (store it now, it is not shown again):", secret)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "key owner (defaults to the acting user)")
	cmd.Flags().StringVar(&name, "name", "", "label for the key")
	return cmd
}

func keyListCmd() *cobra.Command {
	var actorID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, actorID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Actor", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "filter by owner")
	return cmd
}

func keyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func orgCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "org", Short: "Manage organizations"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				orgs, err := r.ListOrgs(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(orgs)
			})
		},
	})
	return cmd
}

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "notify", Short: "In-app notifications"}
	cmd.AddCommand(notifyListCmd())
	cmd.AddCommand(notifyReadCmd())
	return cmd
}

func notifyListCmd() *cobra.Command {
	var unread bool
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications for the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListNotifications(ctx, viper.GetString("actor-id"), unread, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Title", "Read", "At"})
				for _, n := range items {
					tw.AppendRow(table.Row{n.ID, n.Type, n.Title, n.Read, n.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "unread only")
	cmd.Flags().IntVar(&limit, "limit", 50, "max results")
	return cmd
}

func notifyReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.MarkNotificationRead(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: report transitions, promotions, role changes.",
	}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.ListEvents(ctx, e.Config.Org.ID, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveOrgAndConfig(cmd.Context(), workspace, viper.GetString("actor-id"), r)
			if err != nil {
				return err
			}
			if secret := os.Getenv("REXLINE_JWT_SECRET"); secret != "" {
				cfg.Auth.JWTSecret = secret
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("REXLINE_JWT_SECRET is required for bearer auth")
			}
			e := engine.New(conn, cfg)
			if d := server.StartWebhookDispatcher(e); d != nil {
				e.Notifier = d
			}
			authCfg := server.AuthConfig{
				JWTSecret:              cfg.Auth.JWTSecret,
				AllowLegacyActorHeader: cfg.Auth.AllowLegacyActorHeader,
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Rexline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveOrgAndConfig(ctx, workspace, viper.GetString("actor-id"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
