package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktake/m/internal/session"
)

func bootstrapSQLite(t *testing.T) *App {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		filepath.Join(t.TempDir(), "app.db")))
	t.Setenv("SESSION_SECRET", "test-secret")

	a, err := Bootstrap(context.Background(), "stocktake-test")
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestBootstrapMigratesAndServesHealth(t *testing.T) {
	a := bootstrapSQLite(t)

	var tables int
	require.NoError(t, a.DB.Get(&tables,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'drugs', 'stocktake_tables', 'stocktake_records')`))
	assert.Equal(t, 4, tables)

	for _, router := range []http.Handler{
		a.Handler(session.PortalAdmin).AdminRouter(),
		a.Handler(session.PortalUser).UserRouter(),
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestServeStopsWhenContextIsCancelled(t *testing.T) {
	a := bootstrapSQLite(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Serve(ctx, "0", http.NotFoundHandler())
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
