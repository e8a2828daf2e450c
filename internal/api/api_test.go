package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stocktake/m/domain"
	"stocktake/m/internal/metrics"
	"stocktake/m/internal/session"
	"stocktake/m/internal/store"
	"stocktake/m/internal/testdb"
)

type harness struct {
	users   *store.Users
	drugs   *store.Drugs
	tables  *store.Tables
	records *store.Records
	admin   http.Handler
	user    http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.Open(t)
	h := &harness{
		users:   store.NewUsers(db),
		drugs:   store.NewDrugs(db),
		tables:  store.NewTables(db),
		records: store.NewRecords(db),
	}
	sessions := session.NewManager("test-secret", time.Hour)
	deps := Deps{
		Users:    h.users,
		Drugs:    h.drugs,
		Tables:   h.tables,
		Records:  h.records,
		Sessions: sessions,
		DB:       db,
	}
	deps.Metrics = metrics.New("admin")
	h.admin = New(deps).AdminRouter()
	deps.Metrics = metrics.New("user")
	h.user = New(deps).UserRouter()
	return h
}

func (h *harness) addAdmin(t *testing.T, username, password, department string) {
	t.Helper()
	_, err := h.users.Create(context.Background(), store.NewUser{
		Username:   username,
		Password:   password,
		Department: department,
		IsAdmin:    true,
	})
	require.NoError(t, err)
}

func (h *harness) addDrugs(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := h.drugs.Create(context.Background(), name, nil)
		require.NoError(t, err)
	}
}

func (h *harness) addTable(t *testing.T, name, department, code string) *domain.StocktakeTable {
	t.Helper()
	table, _, err := h.tables.Create(context.Background(), store.NewTable{
		TableName:  name,
		Department: department,
		AccessCode: code,
	})
	require.NoError(t, err)
	return table
}

func do(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (h *harness) adminToken(t *testing.T, username, password string) string {
	t.Helper()
	rec := do(t, h.admin, http.MethodPost, "/session", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[sessionResponse](t, rec).Token
}

func (h *harness) userToken(t *testing.T, department, code string) string {
	t.Helper()
	rec := do(t, h.user, http.MethodPost, "/session", "", map[string]string{
		"department":  department,
		"access_code": code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[sessionResponse](t, rec).Token
}

func newCookieRequest(t *testing.T, path string, cookie *http.Cookie) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(cookie)
	return req
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
