package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	authSvc := &mockAuthService{
		registerFn: func(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error) {
			return &domain.User{ID: 7, Username: req.Username, Email: req.Email, Role: domain.RoleUser}, "issued-token", nil
		},
	}
	r, _ := newTestRouter(authSvc, &mockEventService{}, nil)

	body := `{"username":"alice","email":"alice@test.dev","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := doRequest(r, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	cookie := findCookie(t, rec, "token")
	require.NotNil(t, cookie)
	assert.Equal(t, "issued-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	var summary domain.UserSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, int64(7), summary.ID)
	assert.Equal(t, "alice", summary.Username)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	authSvc := &mockAuthService{
		registerFn: func(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error) {
			return nil, "", domain.ErrUserExists
		},
	}
	r, _ := newTestRouter(authSvc, &mockEventService{}, nil)

	body := `{"username":"alice","email":"alice@test.dev","password":"correct-horse"}`
	rec := doRequest(r, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFLICT")
}

func TestRegisterRejectsMalformedJSON(t *testing.T) {
	r, _ := newTestRouter(&mockAuthService{}, &mockEventService{}, nil)

	rec := doRequest(r, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	authSvc := &mockAuthService{
		loginFn: func(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error) {
			return nil, "", domain.ErrInvalidCredentials
		},
	}
	r, _ := newTestRouter(authSvc, &mockEventService{}, nil)

	body := `{"email":"alice@test.dev","password":"wrong"}`
	rec := doRequest(r, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, findCookie(t, rec, "token"))
}

func TestGuestLoginOpensSession(t *testing.T) {
	authSvc := &mockAuthService{
		guestFn: func(ctx context.Context) (*domain.User, string, error) {
			return &domain.User{ID: 3, Username: "guest-123", Role: domain.RoleGuest}, "guest-token", nil
		},
	}
	r, _ := newTestRouter(authSvc, &mockEventService{}, nil)

	rec := doRequest(r, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := findCookie(t, rec, "token")
	require.NotNil(t, cookie)
	assert.Equal(t, "guest-token", cookie.Value)
}

func TestCheckAuthClearsCookieOnBadToken(t *testing.T) {
	authSvc := &mockAuthService{
		checkFn: func(ctx context.Context, token string) (*domain.User, error) {
			return nil, assert.AnError
		},
	}
	r, _ := newTestRouter(authSvc, &mockEventService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "stale"})
	rec := doRequest(r, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := findCookie(t, rec, "token")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestCheckAuthWithoutCookie(t *testing.T) {
	r, _ := newTestRouter(&mockAuthService{}, &mockEventService{}, nil)

	rec := doRequest(r, httptest.NewRequest(http.MethodGet, "/auth/check", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckAuthReturnsSummary(t *testing.T) {
	authSvc := &mockAuthService{
		checkFn: func(ctx context.Context, token string) (*domain.User, error) {
			assert.Equal(t, "live-token", token)
			return &domain.User{ID: 9, Username: "bob", Role: domain.RoleUser}, nil
		},
	}
	r, _ := newTestRouter(authSvc, &mockEventService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "live-token"})
	rec := doRequest(r, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var summary domain.UserSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, int64(9), summary.ID)
}

func TestLogoutClearsCookie(t *testing.T) {
	r, _ := newTestRouter(&mockAuthService{}, &mockEventService{}, nil)

	rec := doRequest(r, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := findCookie(t, rec, "token")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}
