package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Shalbulov/zentro-risk-prediction/internal/database"
	"github.com/Shalbulov/zentro-risk-prediction/internal/health"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/handler"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/router"
	"github.com/Shalbulov/zentro-risk-prediction/internal/repository"
	"github.com/Shalbulov/zentro-risk-prediction/internal/security"
	"github.com/Shalbulov/zentro-risk-prediction/internal/service"
)

const testJWTSecret = "integration-secret-0123456789abcdef"

type capturingMailer struct {
	mu   sync.Mutex
	last string
}

func (m *capturingMailer) Send(_ context.Context, _, _, textBody, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = textBody
	return nil
}

func (m *capturingMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, field := range strings.Fields(m.last) {
		trimmed := strings.TrimRight(field, ".")
		if len(trimmed) == 6 && strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			return trimmed
		}
	}
	t.Fatalf("no code in %q", m.last)
	return ""
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Token     string          `json:"token"`
	User      json.RawMessage `json:"user"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func newAuthTestServer(t *testing.T) (string, *capturingMailer, func()) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "it.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mailer := &capturingMailer{}
	jwtMgr := security.NewJWTManager("zentro-risk-prediction", testJWTSecret)
	authSvc := service.NewAuthService(
		db,
		repository.NewUserRepository(db),
		repository.NewRegistrationCodeRepository(db),
		repository.NewLoginCodeRepository(db),
		jwtMgr,
		mailer,
		15*time.Minute,
		5*time.Minute,
		time.Hour,
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, logger, nil),
		JWTManager:       jwtMgr,
		Logger:           logger,
		CORSOrigins:      []string{"http://localhost:3000"},
		AuthRateLimitRPM: 1000,
		APIRateLimitRPM:  1000,
		Readiness:        health.NewProbeRunner(time.Second, 0, health.NewDBChecker(db)),
	})
	srv := httptest.NewServer(h)
	return srv.URL, mailer, srv.Close
}

func doJSON(t *testing.T, method, url string, body map[string]string, headers map[string]string) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, env
}

func TestRegistrationAndLoginEndToEnd(t *testing.T) {
	baseURL, mailer, closeFn := newAuthTestServer(t)
	defer closeFn()

	resp, env := doJSON(t, http.MethodPost, baseURL+"/api/auth/send-code",
		map[string]string{"email": "e2e@example.com"}, nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("send-code: status=%d success=%v", resp.StatusCode, env.Success)
	}

	resp, env = doJSON(t, http.MethodPost, baseURL+"/api/auth/verify-code", map[string]string{
		"firstName":        "End",
		"lastName":         "ToEnd",
		"email":            "e2e@example.com",
		"password":         "Valid#Pass1234",
		"verificationCode": mailer.lastCode(t),
	}, nil)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("verify-code: status=%d success=%v message=%q", resp.StatusCode, env.Success, env.Message)
	}

	resp, env = doJSON(t, http.MethodPost, baseURL+"/api/auth/send-login-code",
		map[string]string{"email": "e2e@example.com"}, nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("send-login-code: status=%d success=%v", resp.StatusCode, env.Success)
	}

	resp, env = doJSON(t, http.MethodPost, baseURL+"/api/auth/verify-login", map[string]string{
		"email":            "e2e@example.com",
		"password":         "Valid#Pass1234",
		"verificationCode": mailer.lastCode(t),
	}, nil)
	if resp.StatusCode != http.StatusOK || !env.Success || env.Token == "" {
		t.Fatalf("verify-login: status=%d success=%v token=%q", resp.StatusCode, env.Success, env.Token)
	}

	resp, env = doJSON(t, http.MethodGet, baseURL+"/api/auth/me", nil,
		map[string]string{"Authorization": "Bearer " + env.Token})
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("me: status=%d success=%v", resp.StatusCode, env.Success)
	}
	if !bytes.Contains(env.User, []byte("e2e@example.com")) {
		t.Fatalf("me user = %s", env.User)
	}
}

func TestLoginCodeReplayRejectedEndToEnd(t *testing.T) {
	baseURL, mailer, closeFn := newAuthTestServer(t)
	defer closeFn()

	doJSON(t, http.MethodPost, baseURL+"/api/auth/send-code", map[string]string{"email": "replay@example.com"}, nil)
	doJSON(t, http.MethodPost, baseURL+"/api/auth/verify-code", map[string]string{
		"firstName": "Re", "lastName": "Play",
		"email": "replay@example.com", "password": "Valid#Pass1234", "verificationCode": mailer.lastCode(t),
	}, nil)

	doJSON(t, http.MethodPost, baseURL+"/api/auth/send-login-code", map[string]string{"email": "replay@example.com"}, nil)
	code := mailer.lastCode(t)
	login := map[string]string{"email": "replay@example.com", "password": "Valid#Pass1234", "verificationCode": code}

	resp, _ := doJSON(t, http.MethodPost, baseURL+"/api/auth/verify-login", login, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first login: status=%d", resp.StatusCode)
	}
	resp, env := doJSON(t, http.MethodPost, baseURL+"/api/auth/verify-login", login, nil)
	if resp.StatusCode != http.StatusBadRequest || env.Success {
		t.Fatalf("replayed login: status=%d success=%v", resp.StatusCode, env.Success)
	}
}

func TestSigninAndUnknownLoginCodeEndToEnd(t *testing.T) {
	baseURL, mailer, closeFn := newAuthTestServer(t)
	defer closeFn()

	doJSON(t, http.MethodPost, baseURL+"/api/auth/send-code", map[string]string{"email": "direct@example.com"}, nil)
	doJSON(t, http.MethodPost, baseURL+"/api/auth/verify-code", map[string]string{
		"firstName": "Di", "lastName": "Rect",
		"email": "direct@example.com", "password": "Valid#Pass1234", "verificationCode": mailer.lastCode(t),
	}, nil)

	resp, env := doJSON(t, http.MethodPost, baseURL+"/api/auth/signin",
		map[string]string{"email": "direct@example.com", "password": "Valid#Pass1234"}, nil)
	if resp.StatusCode != http.StatusOK || env.Token == "" {
		t.Fatalf("signin: status=%d token=%q", resp.StatusCode, env.Token)
	}

	resp, env = doJSON(t, http.MethodPost, baseURL+"/api/auth/signin",
		map[string]string{"email": "direct@example.com", "password": "wrong"}, nil)
	if resp.StatusCode != http.StatusUnauthorized || env.Success {
		t.Fatalf("bad signin: status=%d success=%v", resp.StatusCode, env.Success)
	}

	resp, env = doJSON(t, http.MethodPost, baseURL+"/api/auth/send-login-code",
		map[string]string{"email": "nobody@example.com"}, nil)
	if resp.StatusCode != http.StatusNotFound || env.Success {
		t.Fatalf("unknown login code request: status=%d success=%v", resp.StatusCode, env.Success)
	}
}

func TestHealthEndpoints(t *testing.T) {
	baseURL, _, closeFn := newAuthTestServer(t)
	defer closeFn()

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(baseURL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status=%d", path, resp.StatusCode)
		}
	}
}
