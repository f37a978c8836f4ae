package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eixo/internal/export"
	"eixo/internal/finance"
	applog "eixo/internal/log"
	"eixo/internal/services"
	"eixo/internal/session"
	sheetsmem "eixo/internal/sheets/memory"
	"eixo/internal/storage/memory"
)

type testPinger struct{ err error }

func (p testPinger) Ping(context.Context) error { return p.err }

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	repo := memory.New()
	logger := quietLogger()
	sessions := session.NewStore(100, time.Hour)

	opts.Logger = logger
	opts.Accounts = services.NewAccountService(repo, sessions, logger)
	opts.Finance = services.NewFinanceService(repo, services.FinanceOptions{
		QuotaWindow: finance.QuotaLifetime,
		Location:    time.UTC,
		CacheSize:   10,
		Logger:      logger,
	})
	opts.Exports = services.NewExportService(repo, nil, sheetsmem.New(), time.UTC, logger)
	if opts.Storage == nil {
		opts.Storage = repo
	}

	srv := NewServer(opts)
	t.Cleanup(srv.rateLimiter.stop)
	return srv
}

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	srv     *Server
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, srv *Server) *client {
	return &client{t: t, srv: srv, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.srv.Handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func (c *client) register(email string) {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/register", `{"email":"`+email+`","password":"segredo","name":"Maria"}`)
	expectStatus(c.t, rec, http.StatusCreated)
}

func (c *client) categoryID(name string) string {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/api/categories", "")
	expectStatus(c.t, rec, http.StatusOK)
	var body struct {
		Categories []struct {
			Category struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"category"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		c.t.Fatalf("decode categories: %v", err)
	}
	for _, cs := range body.Categories {
		if cs.Category.Name == name {
			return cs.Category.ID
		}
	}
	c.t.Fatalf("category %q not found in %s", name, rec.Body.String())
	return ""
}

func TestServer_SecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := newClient(t, srv).do(http.MethodGet, "/healthz", "")

	expectStatus(t, rec, http.StatusOK)
	if id := rec.Header().Get("X-Request-ID"); !strings.HasPrefix(id, "req_") {
		t.Errorf("X-Request-ID = %q", id)
	}
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Referrer-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if decode(t, rec)["status"] != "ok" {
		t.Errorf("health body = %s", rec.Body.String())
	}
}

func TestServer_Readiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(t, Options{})
		rec := newClient(t, srv).do(http.MethodGet, "/readyz", "")
		expectStatus(t, rec, http.StatusOK)
	})
	t.Run("storage down", func(t *testing.T) {
		srv := newTestServer(t, Options{Storage: testPinger{err: errors.New("connection refused")}})
		rec := newClient(t, srv).do(http.MethodGet, "/readyz", "")
		expectStatus(t, rec, http.StatusServiceUnavailable)
		checks, _ := decode(t, rec)["checks"].(map[string]interface{})
		if checks["storage"] != "connection refused" {
			t.Errorf("checks = %v", checks)
		}
	})
}

func TestServer_RateLimitsMutatingRequests(t *testing.T) {
	srv := newTestServer(t, Options{RateLimit: 2})
	c := newClient(t, srv)

	for i := 0; i < 2; i++ {
		rec := c.do(http.MethodPost, "/api/login", `{"email":"x@example.com","password":"whatever"}`)
		expectStatus(t, rec, http.StatusUnauthorized)
	}
	rec := c.do(http.MethodPost, "/api/login", `{"email":"x@example.com","password":"whatever"}`)
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") != "60" {
		t.Error("Retry-After not set")
	}

	// Reads are not limited.
	expectStatus(t, c.do(http.MethodGet, "/healthz", ""), http.StatusOK)
}

func TestServer_RequiresSession(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)
	for _, path := range []string{"/api/me", "/api/dashboard", "/api/transactions", "/api/goals", "/api/export"} {
		rec := c.do(http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, rec.Code)
		}
	}
}

func TestServer_RegisterLoginLogout(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)

	rec := c.do(http.MethodPost, "/api/register", `{"email":"maria@example.com","password":"segredo","name":""}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if decode(t, rec)["error"] != "Por favor, preencha seu nome" {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = c.do(http.MethodPost, "/api/register", `{"email":"maria@example.com","password":"123","name":"Maria"}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	c.register("maria@example.com")
	if _, ok := c.cookies[sessionCookieName]; !ok {
		t.Fatal("session cookie not set")
	}

	rec = c.do(http.MethodGet, "/api/me", "")
	expectStatus(t, rec, http.StatusOK)
	user, _ := decode(t, rec)["user"].(map[string]interface{})
	if user["email"] != "maria@example.com" || user["premium"] != false {
		t.Errorf("me = %v", user)
	}

	other := newClient(t, srv)
	rec = other.do(http.MethodPost, "/api/register", `{"email":"maria@example.com","password":"segredo","name":"Outra"}`)
	expectStatus(t, rec, http.StatusConflict)

	rec = other.do(http.MethodPost, "/api/login", `{"email":"maria@example.com","password":"errada"}`)
	expectStatus(t, rec, http.StatusUnauthorized)
	if decode(t, rec)["error"] != "E-mail ou senha incorretos" {
		t.Errorf("body = %s", rec.Body.String())
	}
	rec = other.do(http.MethodPost, "/api/login", `{"email":"maria@example.com","password":"segredo"}`)
	expectStatus(t, rec, http.StatusOK)

	expectStatus(t, c.do(http.MethodPost, "/api/logout", ""), http.StatusNoContent)
	expectStatus(t, c.do(http.MethodGet, "/api/me", ""), http.StatusUnauthorized)
	// The other login is a separate session.
	expectStatus(t, other.do(http.MethodGet, "/api/me", ""), http.StatusOK)
}

func TestServer_QuizBeforeRegistration(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)

	rec := c.do(http.MethodGet, "/api/quiz", "")
	expectStatus(t, rec, http.StatusOK)
	if qs, _ := decode(t, rec)["questions"].([]interface{}); len(qs) != 8 {
		t.Fatalf("expected 8 questions, got %d", len(qs))
	}

	rec = c.do(http.MethodPost, "/api/quiz", `{"letters":["Z"]}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	rec = c.do(http.MethodPost, "/api/quiz", `{"letters":["C","C","C","C","C","C","C","C"]}`)
	expectStatus(t, rec, http.StatusOK)
	result := decode(t, rec)
	if _, ok := c.cookies[quizCookieName]; !ok {
		t.Fatal("quiz cookie not set for anonymous caller")
	}

	c.register("quiz@example.com")
	if _, ok := c.cookies[quizCookieName]; ok {
		t.Error("quiz cookie should be cleared after registration")
	}
	rec = c.do(http.MethodGet, "/api/me", "")
	user, _ := decode(t, rec)["user"].(map[string]interface{})
	if user["persona"] != result["persona"] {
		t.Errorf("registered persona = %v, quiz gave %v", user["persona"], result["persona"])
	}
}

func TestServer_TransactionsAndDashboard(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)
	c.register("tx@example.com")
	food := c.categoryID("Alimentação")

	rec := c.do(http.MethodPost, "/api/transactions", `{"description":"Salário","amount":5000,"type":"receita","category_id":"`+food+`"}`)
	expectStatus(t, rec, http.StatusCreated)
	rec = c.do(http.MethodPost, "/api/transactions", `{"description":"iFood","amount":"45,90","type":"despesa","category_id":"`+food+`","installments":3}`)
	expectStatus(t, rec, http.StatusCreated)
	tx := decode(t, rec)
	if tx["installment_label"] != "3/x" || tx["category"] != "Alimentação" {
		t.Errorf("created = %v", tx)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"zero amount", `{"description":"x","amount":0,"type":"despesa","category_id":"` + food + `"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"description":"x","amount":10,"type":"outro","category_id":"` + food + `"}`, http.StatusUnprocessableEntity},
		{"no category", `{"description":"x","amount":10,"type":"despesa"}`, http.StatusUnprocessableEntity},
		{"unknown category", `{"description":"x","amount":10,"type":"despesa","category_id":"nope"}`, http.StatusNotFound},
		{"bad date", `{"description":"x","amount":10,"type":"despesa","category_id":"` + food + `","date":"31/12/2025"}`, http.StatusUnprocessableEntity},
		{"malformed", `{"description":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, c.do(http.MethodPost, "/api/transactions", tt.body), tt.want)
		})
	}

	rec = c.do(http.MethodGet, "/api/dashboard", "")
	expectStatus(t, rec, http.StatusOK)
	totals, _ := decode(t, rec)["totals"].(map[string]interface{})
	if totals["balance"] != 4954.1 {
		t.Errorf("balance = %v, want 4954.1", totals["balance"])
	}

	rec = c.do(http.MethodGet, "/api/statement?days=7", "")
	expectStatus(t, rec, http.StatusOK)
	expectStatus(t, c.do(http.MethodGet, "/api/statement?days=3", ""), http.StatusUnprocessableEntity)

	id, _ := tx["id"].(string)
	expectStatus(t, c.do(http.MethodDelete, "/api/transactions/"+id, ""), http.StatusNoContent)
	expectStatus(t, c.do(http.MethodDelete, "/api/transactions/"+id, ""), http.StatusNotFound)

	rec = c.do(http.MethodGet, "/api/transactions", "")
	if txs, _ := decode(t, rec)["transactions"].([]interface{}); len(txs) != 1 {
		t.Errorf("expected 1 transaction left, got %d", len(txs))
	}
}

func TestServer_Categories(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)
	c.register("cat@example.com")

	rec := c.do(http.MethodPost, "/api/categories", `{"name":"Pets","budget":"150"}`)
	expectStatus(t, rec, http.StatusCreated)
	cat := decode(t, rec)
	if cat["color"] != "#10B981" || cat["icon"] != "📦" {
		t.Errorf("defaults not applied: %v", cat)
	}
	expectStatus(t, c.do(http.MethodPost, "/api/categories", `{"name":"Pets","budget":0}`), http.StatusUnprocessableEntity)

	id := c.categoryID("Pets")
	expectStatus(t, c.do(http.MethodPut, "/api/categories/"+id+"/budget", `{"budget":200}`), http.StatusNoContent)
	expectStatus(t, c.do(http.MethodPut, "/api/categories/"+id+"/budget", `{"budget":-1}`), http.StatusUnprocessableEntity)
	expectStatus(t, c.do(http.MethodDelete, "/api/categories/"+id, ""), http.StatusNoContent)
	expectStatus(t, c.do(http.MethodDelete, "/api/categories/"+id, ""), http.StatusNotFound)
}

func TestServer_GoalQuotaAndPremium(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)
	c.register("goal@example.com")

	rec := c.do(http.MethodPost, "/api/goals", `{"name":"Viagem","target":5000,"deadline":"2099-12-31"}`)
	expectStatus(t, rec, http.StatusCreated)
	goal := decode(t, rec)

	rec = c.do(http.MethodPost, "/api/goals", `{"name":"Carro","target":30000,"deadline":"2099-12-31"}`)
	expectStatus(t, rec, http.StatusPaymentRequired)
	pw := decode(t, rec)
	if pw["paywall"] != true || pw["feature"] != "goals" || pw["message"] == "" {
		t.Errorf("paywall body = %v", pw)
	}

	goalID, _ := goal["goal"].(map[string]interface{})["id"].(string)
	expectStatus(t, c.do(http.MethodPost, "/api/goals/"+goalID+"/contributions", `{"amount":1250}`), http.StatusOK)
	expectStatus(t, c.do(http.MethodPost, "/api/goals/"+goalID+"/contributions", `{"amount":-5}`), http.StatusUnprocessableEntity)

	rec = c.do(http.MethodPost, "/api/premium", "")
	expectStatus(t, rec, http.StatusOK)
	user, _ := decode(t, rec)["user"].(map[string]interface{})
	if user["premium"] != true {
		t.Fatalf("premium not applied: %v", user)
	}
	expectStatus(t, c.do(http.MethodPost, "/api/goals", `{"name":"Carro","target":30000,"deadline":"2099-12-31"}`), http.StatusCreated)

	rec = c.do(http.MethodGet, "/api/goals", "")
	if goals, _ := decode(t, rec)["goals"].([]interface{}); len(goals) != 2 {
		t.Errorf("expected 2 goals, got %d", len(goals))
	}
	expectStatus(t, c.do(http.MethodDelete, "/api/goals/"+goalID, ""), http.StatusNoContent)
}

func TestServer_AffordabilityFlow(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)
	c.register("afford@example.com")
	food := c.categoryID("Alimentação")
	expectStatus(t, c.do(http.MethodPost, "/api/transactions", `{"description":"Salário","amount":5000,"type":"receita","category_id":"`+food+`"}`), http.StatusCreated)

	rec := c.do(http.MethodPost, "/api/affordability", `{"amount":1500,"description":"Celular"}`)
	expectStatus(t, rec, http.StatusOK)
	res := decode(t, rec)
	if res["verdict"] != "sim" || res["saved"] != true {
		t.Errorf("verdict = %v", res)
	}

	rec = c.do(http.MethodPost, "/api/affordability", `{"amount":10}`)
	expectStatus(t, rec, http.StatusPaymentRequired)
	if decode(t, rec)["feature"] != "affordability" {
		t.Errorf("paywall body = %s", rec.Body.String())
	}

	rec = c.do(http.MethodGet, "/api/affordability/history", "")
	expectStatus(t, rec, http.StatusOK)
	h := decode(t, rec)
	if h["locked"] != true || h["hidden"] != float64(1) {
		t.Errorf("free history = %v", h)
	}

	expectStatus(t, c.do(http.MethodPost, "/api/premium", `{"premium":true}`), http.StatusOK)
	rec = c.do(http.MethodPost, "/api/affordability", `{"amount":4800}`)
	expectStatus(t, rec, http.StatusOK)
	if v := decode(t, rec)["verdict"]; v != "nao" {
		t.Errorf("verdict for 4800 = %v, want nao", v)
	}

	rec = c.do(http.MethodGet, "/api/affordability/history", "")
	if entries, _ := decode(t, rec)["entries"].([]interface{}); len(entries) != 2 {
		t.Errorf("premium history entries = %d, want 2", len(entries))
	}

	rec = c.do(http.MethodGet, "/metrics", "")
	body := rec.Body.String()
	for _, line := range []string{
		"eixo_affordability_answered_total 2",
		"eixo_affordability_blocked_total 1",
		"eixo_paywall_hits_total 1",
		"eixo_transactions_created_total 1",
		"eixo_active_sessions 1",
		"# TYPE eixo_http_requests_total counter",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("metrics missing %q:\n%s", line, body)
		}
	}
}

func TestServer_Export(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)
	c.register("export@example.com")
	food := c.categoryID("Alimentação")
	expectStatus(t, c.do(http.MethodPost, "/api/transactions", `{"description":"Mercado, feira","amount":"120,50","type":"despesa","category_id":"`+food+`"}`), http.StatusCreated)

	rec := c.do(http.MethodGet, "/api/export?format=csv", "")
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "eixo-transacoes-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, strings.Join(export.Header, ",")) || !strings.Contains(body, `"Mercado, feira"`) {
		t.Errorf("csv body = %q", body)
	}

	rec = c.do(http.MethodPost, "/api/export?format=sheets", "")
	expectStatus(t, rec, http.StatusPaymentRequired)
	expectStatus(t, c.do(http.MethodPost, "/api/export?format=pdf", ""), http.StatusPaymentRequired)
	expectStatus(t, c.do(http.MethodPost, "/api/export?format=xml", ""), http.StatusBadRequest)

	expectStatus(t, c.do(http.MethodPost, "/api/premium", ""), http.StatusOK)
	for _, format := range []string{"sheets", "pdf"} {
		rec = c.do(http.MethodGet, "/api/export?format="+format, "")
		expectStatus(t, rec, http.StatusMethodNotAllowed)
		if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
			t.Errorf("GET %s Allow = %q, want POST", format, allow)
		}
	}
	rec = c.do(http.MethodPost, "/api/export?format=sheets", "")
	expectStatus(t, rec, http.StatusOK)
	res := decode(t, rec)
	if res["queued"] != false || res["ref"] == "" || res["job_id"] == "" {
		t.Errorf("inline export = %v", res)
	}
	expectStatus(t, c.do(http.MethodPost, "/api/export?format=pdf", ""), http.StatusNotImplemented)
}

func TestServer_UpdateName(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)
	c.register("name@example.com")

	expectStatus(t, c.do(http.MethodPut, "/api/me", `{"name":"  "}`), http.StatusUnprocessableEntity)
	rec := c.do(http.MethodPut, "/api/me", `{"name":"Maria Silva"}`)
	expectStatus(t, rec, http.StatusOK)
	user, _ := decode(t, rec)["user"].(map[string]interface{})
	if user["name"] != "Maria Silva" {
		t.Errorf("name = %v", user["name"])
	}
}
