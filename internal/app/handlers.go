package app

import (
	"log/slog"
	"time"

	"github.com/agrocrm/backoffice/internal/audit"
	audithttp "github.com/agrocrm/backoffice/internal/audit/http"
	"github.com/agrocrm/backoffice/internal/auth"
	"github.com/agrocrm/backoffice/internal/masterdata/employees"
	"github.com/agrocrm/backoffice/internal/masterdata/products"
	"github.com/agrocrm/backoffice/internal/platform/blob"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/roles"
	"github.com/agrocrm/backoffice/internal/sales"
	"github.com/agrocrm/backoffice/internal/sales/customers"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/store"
	"github.com/agrocrm/backoffice/internal/users"
)

// tokenIssuer names the iss claim of bearer tokens.
const tokenIssuer = "backoffice"

// HandlerDeps is what BuildHandlers wires the HTTP modules from.
type HandlerDeps struct {
	Logger         *slog.Logger
	Config         *Config
	Store          store.Store
	Blobs          blob.Store
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Idempotency    *shared.IdempotencyStore
}

// Handlers holds every mounted module plus the services other entry points
// reuse.
type Handlers struct {
	Tokens       *auth.TokenIssuer
	Roles        *roles.Service
	Auth         *auth.Handler
	RolesHTTP    *roles.Handler
	UsersHTTP    *users.Handler
	Customers    *customers.Handler
	Employees    *employees.Handler
	Products     *products.Handler
	Sales        *sales.Handler
	Audit        *audithttp.Handler
	RBAC         rbac.Middleware
	Presentation []rbac.NavItem
}

// BuildHandlers constructs repositories, services and handlers over the
// governed store.
func BuildHandlers(deps HandlerDeps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rbacMw := rbac.Middleware{Logger: logger}

	var tokens *auth.TokenIssuer
	if deps.Config.TokensEnabled() {
		ttl := deps.Config.JWTTTL
		if ttl <= 0 {
			ttl = 12 * time.Hour
		}
		tokens = auth.NewTokenIssuer(deps.Config.JWTSecret, tokenIssuer, ttl)
	}

	rolesService := roles.NewService(roles.NewRepository(deps.Store), logger)
	usersService := users.NewService(users.NewRepository(deps.Store), rolesService, logger)
	authService := auth.NewService(usersService, rolesService, tokens, logger)
	customerService := customers.NewService(customers.NewRepository(deps.Store))
	employeeService := employees.NewService(employees.NewRepository(deps.Store))
	productService := products.NewService(products.NewRepository(deps.Store), deps.Blobs, logger)
	salesService := sales.NewService(sales.NewRepository(deps.Store))
	auditService := audit.NewService(deps.Store)

	return &Handlers{
		Tokens:       tokens,
		Roles:        rolesService,
		Auth:         auth.NewHandler(logger, authService, deps.SessionManager, deps.CSRFManager),
		RolesHTTP:    roles.NewHandler(logger, rolesService, rbacMw),
		UsersHTTP:    users.NewHandler(logger, usersService, rbacMw),
		Customers:    customers.NewHandler(logger, customerService, deps.Idempotency, rbacMw),
		Employees:    employees.NewHandler(logger, employeeService, rbacMw),
		Products:     products.NewHandler(logger, productService, rbacMw),
		Sales:        sales.NewHandler(logger, salesService, rbacMw),
		Audit:        audithttp.NewHandler(logger, auditService, audit.NewExporter(), rbacMw),
		RBAC:         rbacMw,
		Presentation: rbac.DefaultNav(),
	}
}
