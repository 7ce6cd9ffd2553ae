package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"rexline/internal/config"
	"rexline/internal/db"
	"rexline/internal/domain"
	"rexline/internal/engine"
	"rexline/internal/migrate"
	"rexline/internal/repo"
)

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	cfg := config.Default("org-1")
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AllowLegacyActorHeader = true
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	ctx := context.Background()
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	org := domain.Organization{ID: "org-1", Name: "org-1", CreatedAt: "2025-06-01T00:00:00Z"}
	if err := e.Repo.InsertOrg(ctx, tx, org); err != nil {
		t.Fatalf("insert org: %v", err)
	}
	for _, u := range []domain.Actor{
		{ID: "ana", Name: "ana", Role: domain.RoleMember, OrgID: "org-1"},
		{ID: "vic", Name: "vic", Role: domain.RoleValidator, OrgID: "org-1"},
		{ID: "ada", Name: "ada", Role: domain.RoleAdmin, OrgID: "org-1"},
	} {
		if err := e.Repo.EnsureUser(ctx, tx, u, "2025-06-01T00:00:00Z"); err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth: AuthConfig{
			JWTSecret:              cfg.Auth.JWTSecret,
			AllowLegacyActorHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func asActor(id string) map[string]string {
	return map[string]string{"X-Actor-Id": id}
}

func TestReportLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports", map[string]any{
		"title":       "Apartment fire, Rue Nationale",
		"description": "Third-floor fire with two rescues.",
		"severity":    "major",
	}, asActor("ana"))
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create report status %d: %s", createRes.StatusCode, string(data))
	}
	var created ReportResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if created.Status != "draft" || created.Tier != "signal" {
		t.Fatalf("unexpected initial state %s/%s", created.Status, created.Tier)
	}

	submitRes, submitBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/submit", nil, asActor("ana"))
	if submitRes.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d: %s", submitRes.StatusCode, string(submitBody))
	}

	valRes, valBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/validate", nil, asActor("vic"))
	if valRes.StatusCode != http.StatusOK {
		t.Fatalf("validate status %d: %s", valRes.StatusCode, string(valBody))
	}
	var validated ReportResponse
	if err := json.Unmarshal(valBody, &validated); err != nil {
		t.Fatalf("unmarshal validated: %v", err)
	}
	if validated.Status != "validated" || validated.ValidatedBy == nil || *validated.ValidatedBy != "vic" {
		t.Fatalf("unexpected validated report %+v", validated)
	}

	archRes, archBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/archive", nil, asActor("ada"))
	if archRes.StatusCode != http.StatusOK {
		t.Fatalf("archive status %d: %s", archRes.StatusCode, string(archBody))
	}
}

func TestTransitionConflictsOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports", map[string]any{
		"title":       "Brush fire",
		"description": "Roadside ignition.",
	}, asActor("ana"))
	var created ReportResponse
	_ = json.Unmarshal(data, &created)

	// validating a draft is a 409 with the transition code
	res, body := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/validate", nil, asActor("vic"))
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.StatusCode, string(body))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %q", envelope.Error.Code)
	}

	// a member is forbidden from validating
	doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/submit", nil, asActor("ana"))
	res, body = doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/validate", nil, asActor("ana"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", res.StatusCode, string(body))
	}
}

func TestPromotionGatingOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports", map[string]any{
		"title":       "Flooded underpass",
		"description": "Vehicle extraction during flash flood.",
	}, asActor("ana"))
	var created ReportResponse
	_ = json.Unmarshal(data, &created)

	res, body := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/promote", map[string]any{
		"tier": "practice-note",
	}, asActor("ana"))
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", res.StatusCode, string(body))
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Missing []string `json:"missing"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Error.Code != "incomplete_fields" || len(envelope.Error.Details.Missing) != 3 {
		t.Fatalf("unexpected envelope %+v", envelope)
	}

	patchRes, patchBody := doJSON(t, client, http.MethodPatch, srv.URL+"/v0/reports/"+created.ID, map[string]any{
		"context":         "Night shift, heavy rain.",
		"means_deployed":  "One rescue boat, two pumps.",
		"lessons_learned": "Pre-position swift-water gear in autumn.",
	}, asActor("ana"))
	if patchRes.StatusCode != http.StatusOK {
		t.Fatalf("edit status %d: %s", patchRes.StatusCode, string(patchBody))
	}

	res, body = doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/promote", map[string]any{
		"tier": "practice-note",
	}, asActor("ana"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("promote status %d: %s", res.StatusCode, string(body))
	}
	var promoted ReportResponse
	_ = json.Unmarshal(body, &promoted)
	if promoted.Tier != "practice-note" {
		t.Fatalf("expected practice-note, got %s", promoted.Tier)
	}
}

func TestNotificationsOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports", map[string]any{
		"title":       "Gas leak evacuation",
		"description": "Residential block evacuated.",
	}, asActor("ana"))
	var created ReportResponse
	_ = json.Unmarshal(data, &created)
	doJSON(t, client, http.MethodPost, srv.URL+"/v0/reports/"+created.ID+"/submit", nil, asActor("ana"))

	res, body := doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications", nil, asActor("vic"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list notifications status %d: %s", res.StatusCode, string(body))
	}
	var listing struct {
		Items  []NotificationResponse `json:"items"`
		Unread int                    `json:"unread"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("unmarshal notifications: %v", err)
	}
	if len(listing.Items) != 1 || listing.Unread != 1 {
		t.Fatalf("expected one unread notification, got %+v", listing)
	}

	readRes, readBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/notifications/"+listing.Items[0].ID+"/read", nil, asActor("vic"))
	if readRes.StatusCode != http.StatusOK && readRes.StatusCode != http.StatusNoContent {
		t.Fatalf("mark read status %d: %s", readRes.StatusCode, string(readBody))
	}
	res, body = doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications?unread=true", nil, asActor("vic"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("relist status %d: %s", res.StatusCode, string(body))
	}
	_ = json.Unmarshal(body, &listing)
	if len(listing.Items) != 0 || listing.Unread != 0 {
		t.Fatalf("expected no unread notifications, got %+v", listing)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/reports", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", res.StatusCode)
	}
	// health stays open
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", res.StatusCode)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	secret := "rex_0123456789abcdef"
	err := srv.Engine.Repo.InsertAPIKey(context.Background(), nil, domain.APIKey{
		ID:        "key-1",
		ActorID:   "ana",
		Name:      "ci",
		KeyHash:   repo.HashAPIKey(secret),
		CreatedAt: "2025-06-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("insert key: %v", err)
	}

	res, body := doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{
		"X-Api-Key": secret,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me with api key status %d: %s", res.StatusCode, string(body))
	}
	var who WhoAmIResponse
	if err := json.Unmarshal(body, &who); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if who.ActorID != "ana" || who.Source != "api_key" {
		t.Fatalf("unexpected principal %+v", who)
	}

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{
		"X-Api-Key": "rex_not_a_key",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown key, got %d", res.StatusCode)
	}
}

func TestDevLoginAndJWT(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, body := doJSON(t, client, http.MethodPost, srv.URL+"/v0/auth/dev/login", map[string]any{
		"actor_id": "ana",
		"org_id":   "org-1",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login status %d: %s", res.StatusCode, string(body))
	}
	var login DevLoginResponse
	if err := json.Unmarshal(body, &login); err != nil || login.Token == "" {
		t.Fatalf("expected token, got %s (%v)", string(body), err)
	}

	res, body = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(body))
	}
	var who WhoAmIResponse
	if err := json.Unmarshal(body, &who); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if who.ActorID != "ana" || who.Role != "member" || who.Source != "jwt" {
		t.Fatalf("unexpected principal %+v", who)
	}
}
