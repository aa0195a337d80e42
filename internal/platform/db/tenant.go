package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	TenantIDKey contextKey = "tenant_id"
	DBConnKey   contextKey = "db_conn"
)

// Branch identifiers become schema names, so only word characters pass.
var branchIDPattern = regexp.MustCompile(`^\w+$`)

// TenantMiddleware resolves the hospital branch for each request and pins a
// pooled connection to that branch's tenant_<id> schema, so admissions and
// bed state never leak across facilities.
func TenantMiddleware(pool *pgxpool.Pool, defaultBranch string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			branch := resolveBranchID(c, defaultBranch)
			if !branchIDPattern.MatchString(branch) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant identifier")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO tenant_%s, shared, public", branch)); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "tenant resolution failed")
			}

			ctx = context.WithValue(ctx, TenantIDKey, branch)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("tenant_id", branch)
			c.Set("db", conn)

			return next(c)
		}
	}
}

// resolveBranchID picks the branch for a request: token claim first, then the
// X-Tenant-ID header, then the tenant_id query parameter, then the default.
func resolveBranchID(c echo.Context, defaultBranch string) string {
	if claim, ok := c.Get("jwt_tenant_id").(string); ok && claim != "" {
		return claim
	}
	if header := c.Request().Header.Get("X-Tenant-ID"); header != "" {
		return header
	}
	if q := c.QueryParam("tenant_id"); q != "" {
		return q
	}
	return defaultBranch
}

// ConnFromContext retrieves the branch-scoped connection, or nil.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// TenantFromContext retrieves the resolved branch id, or "".
func TenantFromContext(ctx context.Context) string {
	branch, _ := ctx.Value(TenantIDKey).(string)
	return branch
}

// CreateTenantSchema provisions the schema for a new hospital branch and, when
// migrationsDir is non-empty, brings it up to the current revision.
func CreateTenantSchema(ctx context.Context, pool *pgxpool.Pool, branch string, migrationsDir string) error {
	if !branchIDPattern.MatchString(branch) {
		return fmt.Errorf("invalid tenant identifier: %s", branch)
	}
	schema := "tenant_" + branch

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		if _, err := NewMigrator(pool, migrationsDir).Up(ctx, schema); err != nil {
			return fmt.Errorf("migrate %s: %w", schema, err)
		}
	}
	return nil
}
