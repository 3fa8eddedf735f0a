//go:build integration

package e2e

// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - login → open drawer → cash movements → typed entries → close
//   - one-open-session-per-register enforcement
//   - drift endpoint and supervisor reconcile
//   - supplier payment hitting the drawer ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mousaahmad63636/POS-sub001/internal/config"
	"github.com/Mousaahmad63636/POS-sub001/internal/infra"
	"github.com/Mousaahmad63636/POS-sub001/internal/router"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	engine *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("tillpos_test"),
		tcPostgres.WithUsername("tillpos"),
		tcPostgres.WithPassword("tillpos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                  8000,
		Env:                   "test",
		JWTSecret:             "test-secret-key",
		JWTExpirationHours:    8,
		JWTRefreshHours:       24,
		DatabaseURL:           pgURL,
		RedisURL:              rdURL,
		WorkerPoolSize:        1,
		GuardAcquireTimeoutMS: 3000,
		GuardMaxRetries:       3,
		GuardBaseDelayMS:      50,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("tillpos2026"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`INSERT INTO users (id, username, full_name, email, password_hash, role, active, created_at)
		VALUES (gen_random_uuid(), 'admin@e2e.test', 'Admin E2E', 'admin@e2e.test', ?, 'admin', true, NOW())
		ON CONFLICT DO NOTHING`, string(hash)).Error)

	r := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin@e2e.test", "password": "tillpos2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{
		server: srv,
		token:  loginBody.AccessToken,
		engine: r,
	}
}

type sessionResp struct {
	SessionID      uint   `json:"session_id"`
	RegisterID     int    `json:"register_id"`
	CurrentBalance string `json:"current_balance"`
	Status         string `json:"status"`
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullDrawerCycle(t *testing.T) {
	env := setupTestEnv(t)

	// 1. Open drawer with 100
	openResp := do(t, env.server, "POST", "/v1/drawer/open",
		jsonBody(t, map[string]any{"register_id": 1, "opening_balance": 100}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	var session sessionResp
	decodeJSON(t, openResp, &session)
	assert.Equal(t, "open", session.Status)
	assert.Equal(t, "100", session.CurrentBalance)

	// 2. Second open on the same register is rejected
	dupResp := do(t, env.server, "POST", "/v1/drawer/open",
		jsonBody(t, map[string]any{"register_id": 1, "opening_balance": 50}),
		env.token,
	)
	require.Equal(t, http.StatusConflict, dupResp.StatusCode)
	dupResp.Body.Close()

	// 3. Cash in 40, sale 50, expense 20
	cashInResp := do(t, env.server, "POST", "/v1/drawer/cash-in",
		jsonBody(t, map[string]any{"register_id": 1, "amount": 40, "description": "change float"}),
		env.token,
	)
	require.Equal(t, http.StatusOK, cashInResp.StatusCode)
	decodeJSON(t, cashInResp, &session)
	assert.Equal(t, "140", session.CurrentBalance)

	saleResp := do(t, env.server, "POST", "/v1/drawer/transaction",
		jsonBody(t, map[string]any{"register_id": 1, "type": "cash_sale", "amount": 50, "description": "counter sale"}),
		env.token,
	)
	require.Equal(t, http.StatusOK, saleResp.StatusCode)
	decodeJSON(t, saleResp, &session)
	assert.Equal(t, "190", session.CurrentBalance)

	expenseResp := do(t, env.server, "POST", "/v1/drawer/transaction",
		jsonBody(t, map[string]any{"register_id": 1, "type": "expense", "amount": 20, "description": "window cleaning"}),
		env.token,
	)
	require.Equal(t, http.StatusOK, expenseResp.StatusCode)
	decodeJSON(t, expenseResp, &session)
	assert.Equal(t, "170", session.CurrentBalance)

	// 4. Drift check is clean
	driftResp := do(t, env.server, "GET", "/v1/drawer/drift/1", nil, env.token)
	require.Equal(t, http.StatusOK, driftResp.StatusCode)
	var drift struct {
		HasDrift bool `json:"has_drift"`
	}
	decodeJSON(t, driftResp, &drift)
	assert.False(t, drift.HasDrift)

	// 5. Close with a short count
	closeResp := do(t, env.server, "POST", "/v1/drawer/close",
		jsonBody(t, map[string]any{"register_id": 1, "counted_amount": 165}),
		env.token,
	)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed struct {
		Session    sessionResp `json:"session"`
		Difference string      `json:"difference"`
		Summary    struct {
			Sales    string `json:"sales"`
			Expenses string `json:"expenses"`
		} `json:"summary"`
	}
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "closed", closed.Session.Status)
	assert.Equal(t, "-5", closed.Difference)
	assert.Equal(t, "50", closed.Summary.Sales)
	assert.Equal(t, "20", closed.Summary.Expenses)

	// 6. Register can reopen
	reopenResp := do(t, env.server, "POST", "/v1/drawer/open",
		jsonBody(t, map[string]any{"register_id": 1, "opening_balance": 200}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, reopenResp.StatusCode)
	reopenResp.Body.Close()
}

func TestE2E_ReconcileRestoresBalance(t *testing.T) {
	env := setupTestEnv(t)

	openResp := do(t, env.server, "POST", "/v1/drawer/open",
		jsonBody(t, map[string]any{"register_id": 2, "opening_balance": 100}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	openResp.Body.Close()

	// Reconcile on an untouched session is a no-op that returns the session
	recResp := do(t, env.server, "POST", "/v1/drawer/reconcile/2", nil, env.token)
	require.Equal(t, http.StatusOK, recResp.StatusCode)
	var session sessionResp
	decodeJSON(t, recResp, &session)
	assert.Equal(t, "100", session.CurrentBalance)
}

func TestE2E_SupplierPaymentHitsDrawer(t *testing.T) {
	env := setupTestEnv(t)

	// Create supplier
	supResp := do(t, env.server, "POST", "/v1/suppliers",
		jsonBody(t, map[string]any{"name": "Riverside Dairy"}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, supResp.StatusCode)
	var supplier struct {
		ID string `json:"id"`
	}
	decodeJSON(t, supResp, &supplier)

	// Paying without an open drawer fails
	noSessResp := do(t, env.server, "POST", "/v1/suppliers/"+supplier.ID+"/pay",
		jsonBody(t, map[string]any{"register_id": 3, "amount": 30}),
		env.token,
	)
	require.Equal(t, http.StatusNotFound, noSessResp.StatusCode)
	noSessResp.Body.Close()

	openResp := do(t, env.server, "POST", "/v1/drawer/open",
		jsonBody(t, map[string]any{"register_id": 3, "opening_balance": 100}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	openResp.Body.Close()

	payResp := do(t, env.server, "POST", "/v1/suppliers/"+supplier.ID+"/pay",
		jsonBody(t, map[string]any{"register_id": 3, "amount": 30}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, payResp.StatusCode)
	var payment struct {
		SupplierName string `json:"supplier_name"`
		Amount       string `json:"amount"`
		BalanceAfter string `json:"balance_after"`
	}
	decodeJSON(t, payResp, &payment)
	assert.Equal(t, "Riverside Dairy", payment.SupplierName)
	assert.Equal(t, "30", payment.Amount)
	assert.Equal(t, "70", payment.BalanceAfter)

	// Summary shows the payment inside expenses and under supplier payments
	sumResp := do(t, env.server, "GET", "/v1/drawer/summary", nil, env.token)
	require.Equal(t, http.StatusOK, sumResp.StatusCode)
	var summary struct {
		Expenses         string `json:"expenses"`
		SupplierPayments string `json:"supplier_payments"`
	}
	decodeJSON(t, sumResp, &summary)
	assert.Equal(t, "30", summary.Expenses)
	assert.Equal(t, "30", summary.SupplierPayments)
}

func TestE2E_OverdrawRejected(t *testing.T) {
	env := setupTestEnv(t)

	openResp := do(t, env.server, "POST", "/v1/drawer/open",
		jsonBody(t, map[string]any{"register_id": 4, "opening_balance": 50}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	openResp.Body.Close()

	outResp := do(t, env.server, "POST", "/v1/drawer/cash-out",
		jsonBody(t, map[string]any{"register_id": 4, "amount": 80, "description": "bank drop"}),
		env.token,
	)
	require.Equal(t, http.StatusBadRequest, outResp.StatusCode)
	outResp.Body.Close()

	// Balance untouched
	activeResp := do(t, env.server, "GET", "/v1/drawer/active/4", nil, env.token)
	require.Equal(t, http.StatusOK, activeResp.StatusCode)
	var session sessionResp
	decodeJSON(t, activeResp, &session)
	assert.Equal(t, "50", session.CurrentBalance)
}
