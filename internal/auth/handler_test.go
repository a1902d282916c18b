package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrocrm/backoffice/internal/auth"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/users"
	_ "github.com/agrocrm/backoffice/testing"
)

type stubUsers struct {
	user   *users.User
	logins []string
}

func (s *stubUsers) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	if s.user == nil || email != s.user.Email {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return *s.user, nil
}

func (s *stubUsers) RecordLogin(ctx context.Context, id string, at time.Time) {
	actor, _ := shared.ActorFromContext(ctx)
	s.logins = append(s.logins, id+"@"+actor)
}

type stubGrants map[string][]string

func (g stubGrants) RolePermissionKeys(ctx context.Context, roleID string) ([]string, error) {
	return g[roleID], nil
}

func newAuthHandler(t *testing.T, repo *stubUsers) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	tokens := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", "backoffice", time.Hour)
	grants := stubGrants{"role-sales": {"customers:create", "customers:edit", "customers:view"}}
	service := auth.NewService(repo, grants, tokens, nil)
	return auth.NewHandler(nil, service, sessionManager, csrfManager), sessionManager
}

func salesUser(t *testing.T) *users.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	role := "role-sales"
	return &users.User{ID: "user-1", Email: "user@test.local", PasswordHash: string(hashed), RoleID: &role, IsActive: true}
}

func postLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	router := newRouter(handler)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func TestLoginSnapshotsPermissions(t *testing.T) {
	repo := &stubUsers{user: salesUser(t)}
	handler, sessionManager := newAuthHandler(t, repo)

	res, sess := postLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}
	var result auth.LoginResult
	if err := json.Unmarshal(res.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected bearer token")
	}
	if got := strings.Join(result.Principal.Permissions, ","); got != "customers:create,customers:edit,customers:view" {
		t.Fatalf("unexpected permissions %q", got)
	}

	replay := httptest.NewRequest(http.MethodGet, "/", nil)
	replay.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	loaded, err := sessionManager.Load(context.Background(), replay)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if loaded.User() != "user-1" {
		t.Fatalf("expected session user user-1, got %q", loaded.User())
	}
	if len(loaded.Permissions()) != 3 {
		t.Fatalf("expected 3 stored permissions, got %v", loaded.Permissions())
	}
	if len(repo.logins) != 1 || repo.logins[0] != "user-1@user-1" {
		t.Fatalf("expected login stamped by the user, got %v", repo.logins)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubUsers{user: salesUser(t)})

	res, sess := postLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"wrongpass"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Email atau password tidak valid") {
		t.Fatalf("expected error message in response")
	}
	if sess.User() != "" {
		t.Fatalf("session must stay anonymous")
	}
}

func TestLoginValidation(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubUsers{})

	res, _ := postLogin(t, handler, sessionManager, `{"email":"not-an-email","password":"x"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubUsers{user: salesUser(t)})
	_, sess := postLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	loaded, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), loaded)
	req = req.WithContext(ctx)
	res := httptest.NewRecorder()
	newRouter(handler).ServeHTTP(res, req)
	if err := sessionManager.Commit(ctx, res, req, loaded); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	reloaded, err := sessionManager.Load(context.Background(), again)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.User() != "" {
		t.Fatalf("expected destroyed session, got user %q", reloaded.User())
	}
}
