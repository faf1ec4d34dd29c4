//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"child-growth-go/internal/config"
	"child-growth-go/internal/db"
	calendardomain "child-growth-go/internal/domain/calendar"
	childdomain "child-growth-go/internal/domain/child"
	sharingdomain "child-growth-go/internal/domain/sharing"
	userdomain "child-growth-go/internal/domain/user"
	"child-growth-go/internal/gateway/google"
	"child-growth-go/internal/repository/inmemory"
	calendarrepo "child-growth-go/internal/repository/postgres/calendar"
	childrepo "child-growth-go/internal/repository/postgres/child"
	sharingrepo "child-growth-go/internal/repository/postgres/sharing"
	userrepo "child-growth-go/internal/repository/postgres/user"
	"child-growth-go/internal/transport/httpserver"
	"child-growth-go/internal/transport/httpserver/handler"
	"child-growth-go/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testEnv struct {
	server       *httptest.Server
	authServer   *httptest.Server
	googleServer *httptest.Server
	google       *fakeGoogle
	db           *gorm.DB
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.Discard()
	authServer := newAuthServer(t)
	fake := &fakeGoogle{}
	googleServer := httptest.NewServer(fake)

	cfg := config.Config{
		DB: config.DBConfig{DSN: dsn},
		Supabase: config.SupabaseConfig{
			URL:            authServer.URL,
			PublishableKey: "test-key",
			AuthTimeout:    2 * time.Second,
		},
		Sharing: config.SharingConfig{PublicBaseURL: "https://app.example.com"},
		Calendar: config.CalendarConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			AuthURL:      googleServer.URL + "/auth",
			TokenURL:     googleServer.URL + "/token",
			APIBaseURL:   googleServer.URL + "/calendar/v3",
			Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
			Timeout:      2 * time.Second,
		},
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}

	if _, err := db.Migrate(dbConn, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	children := childdomain.NewService(childrepo.NewPostgres(dbConn))
	profiles := userdomain.NewService(userrepo.NewPostgres(dbConn))
	sharing := sharingdomain.NewService(sharingrepo.NewPostgres(dbConn), children, inmemory.NewAttemptCounter(), sharingdomain.Options{
		PublicBaseURL: cfg.Sharing.PublicBaseURL,
		MaxAttempts:   5,
	})
	broker := calendardomain.NewBroker(
		calendarrepo.NewPostgres(dbConn),
		google.NewOAuthClient(cfg.Calendar),
		google.NewCalendarClient(cfg.Calendar),
		log,
	)

	router := httpserver.NewRouter(cfg, handler.New(sharing, broker, log), profiles, log)
	server := httptest.NewServer(router)

	return &testEnv{server: server, authServer: authServer, googleServer: googleServer, google: fake, db: dbConn}
}

func (e *testEnv) Close() {
	e.server.Close()
	e.authServer.Close()
	e.googleServer.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

// newAuthServer treats the bearer token as the user id.
func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if _, err := uuid.Parse(token); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		payload := map[string]interface{}{
			"id":    token,
			"email": token + "@example.com",
			"user_metadata": map[string]interface{}{
				"name": "Parent " + token[:8],
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

type fakeGoogle struct {
	tokenCalls   atomic.Int32
	refreshCalls atomic.Int32
}

func (g *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/token":
		_ = r.ParseForm()
		g.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad Request"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","expires_in":3600,"token_type":"Bearer"}`))
		case "refresh_token":
			g.refreshCalls.Add(1)
			_, _ = w.Write([]byte(`{"access_token":"access-2","expires_in":3600,"token_type":"Bearer"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	case strings.HasPrefix(r.URL.Path, "/calendar/v3/"):
		w.Header().Set("Content-Type", "application/json")
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}, "token": token})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE share_links, milestones, growth_measurements, children, google_calendar_tokens, user_profiles CASCADE",
	).Error
}

func seedChild(t *testing.T, dbConn *gorm.DB, userID string) string {
	t.Helper()

	child := childdomain.Child{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        "Rara",
		DateOfBirth: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := dbConn.Create(&child).Error; err != nil {
		t.Fatalf("seed child: %v", err)
	}

	weight := 7.4
	measurement := childdomain.GrowthMeasurement{
		ID:              uuid.NewString(),
		ChildID:         child.ID,
		MeasurementDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		WeightKg:        &weight,
	}
	if err := dbConn.Create(&measurement).Error; err != nil {
		t.Fatalf("seed measurement: %v", err)
	}

	return child.ID
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type linkResponse struct {
	ID          string `json:"id"`
	ShareToken  string `json:"share_token"`
	AccessCode  string `json:"access_code"`
	ShareURL    string `json:"share_url"`
	IsActive    bool   `json:"is_active"`
	AccessCount int    `json:"access_count"`
}

type snapshotResponse struct {
	Child struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"child"`
	GrowthMeasurements []struct {
		ID string `json:"id"`
	} `json:"growth_measurements"`
	Milestones []interface{} `json:"milestones"`
}

func decode(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

func expectErrorCode(t *testing.T, resp *http.Response, body []byte, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d: %s", status, resp.StatusCode, string(body))
	}
	var env errorEnvelope
	decode(t, body, &env)
	if env.Error.Code != code {
		t.Fatalf("expected error code %s, got %s", code, env.Error.Code)
	}
}

func TestE2EHealthAndAuth(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodGet, env.server.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/auth/me", "", nil)
	expectErrorCode(t, resp, body, http.StatusUnauthorized, "invalid_token")

	userID := uuid.NewString()
	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/auth/me", userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	var count int64
	if err := env.db.Table("user_profiles").Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected profile row, got %d", count)
	}
}

func TestE2EShareLinkLifecycle(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	owner := uuid.NewString()
	stranger := uuid.NewString()
	childID := seedChild(t, env.db, owner)
	base := env.server.URL + "/api"

	resp, body := requestJSON(t, client, http.MethodPost, base+"/children/"+childID+"/share-links", stranger, map[string]interface{}{})
	expectErrorCode(t, resp, body, http.StatusNotFound, "child_not_found")

	resp, body = requestJSON(t, client, http.MethodPost, base+"/children/"+childID+"/share-links", owner, map[string]interface{}{
		"doctor_name":     "dr. Sari",
		"expires_in_days": 7,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var link linkResponse
	decode(t, body, &link)
	if link.ShareURL != "https://app.example.com/shared/"+link.ShareToken || len(link.AccessCode) != 6 {
		t.Fatalf("unexpected link %+v", link)
	}

	verifyURL := base + "/shared/" + link.ShareToken + "/verify"

	resp, body = requestJSON(t, client, http.MethodPost, verifyURL, "", map[string]string{"access_code": "ZZZZZZ"})
	expectErrorCode(t, resp, body, http.StatusUnauthorized, "invalid_credentials")

	resp, body = requestJSON(t, client, http.MethodPost, verifyURL, "", map[string]string{"access_code": " " + strings.ToLower(link.AccessCode) + " "})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var snapshot snapshotResponse
	decode(t, body, &snapshot)
	if snapshot.Child.ID != childID || len(snapshot.GrowthMeasurements) != 1 || snapshot.Milestones == nil {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	var stored sharingdomain.ShareLink
	if err := env.db.Where("id = ?", link.ID).First(&stored).Error; err != nil {
		t.Fatalf("load link: %v", err)
	}
	if stored.AccessCount != 1 || stored.LastAccessedAt == nil {
		t.Fatalf("expected one recorded access, got %+v", stored)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/share-links/"+link.ID+"/revoke", stranger, nil)
	expectErrorCode(t, resp, body, http.StatusNotFound, "share_link_not_found")

	resp, body = requestJSON(t, client, http.MethodPost, base+"/share-links/"+link.ID+"/revoke", owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, verifyURL, "", map[string]string{"access_code": link.AccessCode})
	expectErrorCode(t, resp, body, http.StatusUnauthorized, "invalid_credentials")

	if err := env.db.Where("id = ?", link.ID).First(&stored).Error; err != nil {
		t.Fatalf("load link: %v", err)
	}
	if stored.AccessCount != 1 {
		t.Fatalf("expected access count unchanged, got %d", stored.AccessCount)
	}

	resp, body = requestJSON(t, client, http.MethodDelete, base+"/share-links/"+link.ID, owner, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2EShareLinkExpired(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	owner := uuid.NewString()
	childID := seedChild(t, env.db, owner)

	expired := sharingdomain.ShareLink{
		ID:         uuid.NewString(),
		ChildID:    childID,
		CreatedBy:  owner,
		ShareToken: "expired-token",
		AccessCode: "AB23CD",
		ExpiresAt:  time.Now().Add(-time.Minute),
		IsActive:   true,
	}
	if err := env.db.Create(&expired).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	resp, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/shared/expired-token/verify", "", map[string]string{"access_code": "AB23CD"})
	expectErrorCode(t, resp, body, http.StatusGone, "share_link_expired")
}

func TestE2ECalendarConnectRefreshDisconnect(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	userID := uuid.NewString()
	base := env.server.URL + "/api/calendar"

	resp, body := requestJSON(t, client, http.MethodGet, base+"/events", userID, nil)
	expectErrorCode(t, resp, body, http.StatusUnauthorized, "not_connected")

	resp, body = requestJSON(t, client, http.MethodPost, base+"/exchange-code", userID, map[string]string{
		"code":         "bad-code",
		"redirect_uri": "https://app.example.com/calendar/callback",
	})
	expectErrorCode(t, resp, body, http.StatusBadGateway, "upstream_failure")

	resp, body = requestJSON(t, client, http.MethodPost, base+"/exchange-code", userID, map[string]string{
		"code":         "good-code",
		"redirect_uri": "https://app.example.com/calendar/callback",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/status", userID, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"connected":true`) {
		t.Fatalf("expected connected, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/events", userID, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"token":"access-1"`) {
		t.Fatalf("expected relayed events, got %d: %s", resp.StatusCode, string(body))
	}
	if env.google.refreshCalls.Load() != 0 {
		t.Fatalf("expected no refresh while token valid")
	}

	if err := env.db.Model(&calendardomain.Credential{}).Where("user_id = ?", userID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire token: %v", err)
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/events", userID, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"token":"access-2"`) {
		t.Fatalf("expected refreshed token, got %d: %s", resp.StatusCode, string(body))
	}
	if env.google.refreshCalls.Load() != 1 {
		t.Fatalf("expected one refresh, got %d", env.google.refreshCalls.Load())
	}

	var stored calendardomain.Credential
	if err := env.db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if stored.AccessToken != "access-2" || stored.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected credential %+v", stored)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/disconnect", userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	resp, body = requestJSON(t, client, http.MethodPost, base+"/disconnect", userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected idempotent disconnect, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/status", userID, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"connected":false`) {
		t.Fatalf("expected disconnected, got %d: %s", resp.StatusCode, string(body))
	}
}
