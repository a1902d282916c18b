package users_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/roles"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/store"
	"github.com/agrocrm/backoffice/internal/testing/storetest"
	"github.com/agrocrm/backoffice/internal/users"
)

type fixture struct {
	stack *storetest.Stack
	roles *roles.Service
	svc   *users.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	stack := storetest.New(t)
	roleSvc := roles.NewService(roles.NewRepository(stack.Store), nil)
	svc := users.NewService(users.NewRepository(stack.Store), roleSvc, nil).WithHashCost(bcrypt.MinCost)
	return fixture{stack: stack, roles: roleSvc, svc: svc}
}

func TestCreateUserHashesPassword(t *testing.T) {
	f := newFixture(t)
	ctx := shared.ContextWithActor(context.Background(), "admin-1")

	user, err := f.svc.CreateUser(ctx, users.CreateInput{Email: " Rina@Tani.ID ", Name: "Rina", Password: "rahasia123"})
	require.NoError(t, err)
	assert.Equal(t, "rina@tani.id", user.Email)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.RoleID)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("rahasia123")))

	_, err = f.svc.CreateUser(ctx, users.CreateInput{Email: "rina@tani.id", Name: "Other", Password: "rahasia123"})
	assert.ErrorIs(t, err, users.ErrEmailTaken)

	entries := f.stack.EntriesFor(store.ModelUser)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Equal(t, "admin-1", *entries[0].PerformedByUserID)
	assert.NotContains(t, string(entries[0].After), "password_hash")
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateUser(ctx, users.CreateInput{Email: "budi@tani.id", Name: "Budi", Password: "rahasia123"})
	require.NoError(t, err)

	got, err := f.svc.Authenticate(ctx, "BUDI@tani.id", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.svc.Authenticate(ctx, "budi@tani.id", "salah")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = f.svc.Authenticate(ctx, "nobody@tani.id", "rahasia123")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	inactive := false
	_, err = f.svc.UpdateUser(ctx, created.ID, users.UpdateInput{IsActive: &inactive})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "budi@tani.id", "rahasia123")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAssignRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role, err := f.roles.CreateRole(ctx, roles.RoleInput{Name: "SALES_STAFF"})
	require.NoError(t, err)
	user, err := f.svc.CreateUser(ctx, users.CreateInput{Email: "sari@tani.id", Name: "Sari", Password: "rahasia123"})
	require.NoError(t, err)

	assigned, err := f.svc.AssignRole(ctx, user.ID, &role.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.RoleID)
	assert.Equal(t, role.ID, *assigned.RoleID)

	missing := "nope"
	_, err = f.svc.AssignRole(ctx, user.ID, &missing)
	assert.ErrorIs(t, err, store.ErrNotFound)

	cleared, err := f.svc.AssignRole(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.RoleID)
}

func TestDeleteUserIsSoft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.svc.CreateUser(ctx, users.CreateInput{Email: "joko@tani.id", Name: "Joko", Password: "rahasia123"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(ctx, user.ID))
	_, err = f.svc.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	row, err := f.stack.Base.FindOne(ctx, store.ModelUser, store.Filter{"id": user.ID})
	require.NoError(t, err)
	assert.NotNil(t, row[store.DeletedAtColumn])

	_, err = f.svc.CreateUser(ctx, users.CreateInput{Email: "joko@tani.id", Name: "Joko Baru", Password: "rahasia123"})
	assert.NoError(t, err, "email is free again once the account is deleted")
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"Citra", "Ahmad", "Bayu"} {
		_, err := f.svc.CreateUser(ctx, users.CreateInput{Email: strings.ToLower(name) + "@tani.id", Name: name, Password: "rahasia123"})
		require.NoError(t, err)
	}

	list, page, err := f.svc.ListUsers(ctx, users.ListFilters{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ahmad", list[0].Name)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	list, _, err = f.svc.ListUsers(ctx, users.ListFilters{Search: "ay"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bayu", list[0].Name)
}

func TestHandlerHidesPasswordHash(t *testing.T) {
	f := newFixture(t)
	r := chi.NewRouter()
	users.NewHandler(nil, f.svc, rbac.Middleware{}).MountRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"dewi@tani.id","name":"Dewi","password":"rahasia123"}`))
	req = req.WithContext(shared.ContextWithGrants(req.Context(), []string{"users:create"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "dewi@tani.id", body["email"])

	req = httptest.NewRequest(http.MethodDelete, "/"+body["id"].(string), nil)
	req = req.WithContext(shared.ContextWithGrants(req.Context(), []string{"users:view", "users:edit"}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
