package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shalbulov/zentro-risk-prediction/internal/domain"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/middleware"
	"github.com/Shalbulov/zentro-risk-prediction/internal/service"
)

type stubAuthService struct {
	requestRegistrationErr error
	registerUser           *domain.PublicUser
	registerErr            error
	requestLoginErr        error
	loginResult            *service.LoginResult
	loginErr               error
	signinResult           *service.LoginResult
	signinErr              error
	currentUser            *domain.PublicUser
	currentUserErr         error

	lastEmail string
	lastCode  string
	lastInput service.RegisterInput
}

func (s *stubAuthService) RequestRegistrationCode(_ context.Context, email string) error {
	s.lastEmail = email
	return s.requestRegistrationErr
}

func (s *stubAuthService) RegisterWithCode(_ context.Context, input service.RegisterInput) (*domain.PublicUser, error) {
	s.lastInput = input
	return s.registerUser, s.registerErr
}

func (s *stubAuthService) RequestLoginCode(_ context.Context, email string) error {
	s.lastEmail = email
	return s.requestLoginErr
}

func (s *stubAuthService) LoginWithCode(_ context.Context, email, _, code string) (*service.LoginResult, error) {
	s.lastEmail = email
	s.lastCode = code
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) SignIn(_ context.Context, email, _ string) (*service.LoginResult, error) {
	s.lastEmail = email
	return s.signinResult, s.signinErr
}

func (s *stubAuthService) CurrentUser(context.Context, uint) (*domain.PublicUser, error) {
	return s.currentUser, s.currentUserErr
}

func newTestHandler(stub *stubAuthService) *AuthHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandler(stub, logger, nil)
}

func doJSON(t *testing.T, h http.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)

	var decoded map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return rr, decoded
}

func assertEnvelope(t *testing.T, body map[string]any, success bool) {
	t.Helper()
	got, ok := body["success"].(bool)
	if !ok {
		t.Fatalf("missing success flag: %v", body)
	}
	if got != success {
		t.Fatalf("success = %v, want %v (body %v)", got, success, body)
	}
	if !success {
		if _, ok := body["message"].(string); !ok {
			t.Fatalf("error body missing message: %v", body)
		}
	}
}

func TestSendCodeSuccess(t *testing.T) {
	stub := &stubAuthService{}
	rr, body := doJSON(t, newTestHandler(stub).SendCode, "POST", "/api/auth/send-code", `{"email":"new@example.com"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, true)
	if stub.lastEmail != "new@example.com" {
		t.Fatalf("service saw email %q", stub.lastEmail)
	}
}

func TestSendCodeDuplicate(t *testing.T) {
	stub := &stubAuthService{requestRegistrationErr: service.ErrDuplicateAccount}
	rr, body := doJSON(t, newTestHandler(stub).SendCode, "POST", "/api/auth/send-code", `{"email":"dup@example.com"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, false)
}

func TestSendCodeDeliveryFailure(t *testing.T) {
	stub := &stubAuthService{requestRegistrationErr: service.ErrDeliveryFailed}
	rr, body := doJSON(t, newTestHandler(stub).SendCode, "POST", "/api/auth/send-code", `{"email":"x@example.com"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, false)
}

func TestSendCodeMalformedBody(t *testing.T) {
	rr, body := doJSON(t, newTestHandler(&stubAuthService{}).SendCode, "POST", "/api/auth/send-code", `{"email":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, false)
}

func TestVerifyCodeCreated(t *testing.T) {
	stub := &stubAuthService{
		registerUser: &domain.PublicUser{ID: 7, FirstName: "Aida", LastName: "S", Email: "aida@example.com", Role: "user"},
	}
	rr, body := doJSON(t, newTestHandler(stub).VerifyCode, "POST", "/api/auth/verify-code",
		`{"firstName":"Aida","lastName":"S","email":"aida@example.com","password":"pw","verificationCode":"123456"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, true)

	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("missing user: %v", body)
	}
	if user["email"] != "aida@example.com" {
		t.Fatalf("user = %v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatal("password leaked in response")
	}
	if stub.lastInput.Code != "123456" {
		t.Fatalf("service saw input %+v", stub.lastInput)
	}
}

func TestVerifyCodeInvalid(t *testing.T) {
	stub := &stubAuthService{registerErr: service.ErrInvalidOrExpiredCode}
	rr, body := doJSON(t, newTestHandler(stub).VerifyCode, "POST", "/api/auth/verify-code",
		`{"firstName":"A","lastName":"B","email":"a@example.com","password":"pw","verificationCode":"000000"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, false)
}

func TestSendLoginCodeUnknownUser(t *testing.T) {
	stub := &stubAuthService{requestLoginErr: service.ErrUserNotFound}
	rr, body := doJSON(t, newTestHandler(stub).SendLoginCode, "POST", "/api/auth/send-login-code", `{"email":"ghost@example.com"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, false)
}

func TestVerifyLoginSuccess(t *testing.T) {
	stub := &stubAuthService{
		loginResult: &service.LoginResult{
			Token:     "tok",
			User:      &domain.PublicUser{ID: 1, FirstName: "A", LastName: "B", Email: "a@example.com", Role: "user"},
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	rr, body := doJSON(t, newTestHandler(stub).VerifyLogin, "POST", "/api/auth/verify-login",
		`{"email":"a@example.com","password":"pw","verificationCode":"123456"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, true)
	if body["token"] != "tok" {
		t.Fatalf("token = %v", body["token"])
	}
	if stub.lastCode != "123456" {
		t.Fatalf("service saw code %q", stub.lastCode)
	}
}

func TestVerifyLoginStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid code", service.ErrInvalidOrExpiredCode, http.StatusBadRequest},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unverified", service.ErrAccountNotVerified, http.StatusForbidden},
		{"missing fields", service.ErrMissingFields, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAuthService{loginErr: tc.err}
			rr, body := doJSON(t, newTestHandler(stub).VerifyLogin, "POST", "/api/auth/verify-login",
				`{"email":"a@example.com","password":"pw","verificationCode":"123456"}`)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			assertEnvelope(t, body, false)
		})
	}
}

func TestSigninStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unverified", service.ErrAccountNotVerified, http.StatusForbidden},
		{"missing fields", service.ErrMissingFields, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAuthService{signinErr: tc.err}
			rr, body := doJSON(t, newTestHandler(stub).Signin, "POST", "/api/auth/signin",
				`{"email":"a@example.com","password":"pw"}`)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			assertEnvelope(t, body, false)
		})
	}
}

func TestSigninUnexpectedErrorIsOpaque(t *testing.T) {
	stub := &stubAuthService{signinErr: io.ErrUnexpectedEOF}
	rr, body := doJSON(t, newTestHandler(stub).Signin, "POST", "/api/auth/signin",
		`{"email":"a@example.com","password":"pw"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, false)
	if msg := body["message"].(string); strings.Contains(msg, "EOF") {
		t.Fatalf("internal error detail leaked: %q", msg)
	}
}

// The registration and login clients send the code under the
// verificationCode key; a request using that exact shape must reach the
// service with the code intact rather than failing field validation.
func TestVerifyEndpointsBindVerificationCodeField(t *testing.T) {
	stub := &stubAuthService{
		registerUser: &domain.PublicUser{ID: 3, Email: "bind@example.com"},
		loginResult: &service.LoginResult{
			Token:     "tok",
			User:      &domain.PublicUser{ID: 3, Email: "bind@example.com"},
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	h := newTestHandler(stub)

	rr, _ := doJSON(t, h.VerifyCode, "POST", "/api/auth/verify-code",
		`{"firstName":"B","lastName":"Ind","email":"bind@example.com","password":"pw","verificationCode":"654321"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("verify-code status = %d", rr.Code)
	}
	if stub.lastInput.Code != "654321" {
		t.Fatalf("register input code = %q", stub.lastInput.Code)
	}

	rr, _ = doJSON(t, h.VerifyLogin, "POST", "/api/auth/verify-login",
		`{"email":"bind@example.com","password":"pw","verificationCode":"654321"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify-login status = %d", rr.Code)
	}
	if stub.lastCode != "654321" {
		t.Fatalf("login code = %q", stub.lastCode)
	}
}

func TestMeWithoutAuthContext(t *testing.T) {
	rr, body := doJSON(t, newTestHandler(&stubAuthService{}).Me, "GET", "/api/auth/me", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
	assertEnvelope(t, body, false)
}

// A token can outlive its account. The endpoint treats the missing row
// as a failed authentication, not as a 404.
func TestMeDeletedSubjectIsUnauthorized(t *testing.T) {
	stub := &stubAuthService{currentUserErr: service.ErrUserNotFound}
	h := newTestHandler(stub)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 99))
	rr := httptest.NewRecorder()
	h.Me(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assertEnvelope(t, body, false)
}
