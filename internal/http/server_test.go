package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goals/internal/core"
	"goals/internal/store/memory"
)

var fixedNow = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate ...func(*Config)) (*Server, *memory.Store) {
	t.Helper()
	n := 0
	st := memory.New(
		memory.WithIDFunc(func() string { n++; return fmt.Sprintf("g%d", n) }),
		memory.WithClock(func() time.Time { return fixedNow }),
	)
	cfg := Config{
		Addr:               ":0",
		RateLimitPerMinute: 100,
		CORSAllowedOrigins: []string{"https://app.example"},
		Clock:              func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&cfg)
	}
	srv, err := NewServer(cfg, st)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, st
}

func do(srv *Server, method, target string, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:4321"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(srv *Server, target string, form url.Values) *httptest.ResponseRecorder {
	return do(srv, http.MethodPost, target, form.Encode(), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
}

func seedGoal(t *testing.T, st *memory.Store) core.Goal {
	t.Helper()
	g, err := st.Create(context.Background(), core.GoalFields{
		Name:           "Vacation",
		TargetAmount:   decimal.NewFromInt(1000),
		Balance:        decimal.NewFromInt(200),
		TargetDate:     core.NewDate(2026, 12, 1),
		Icon:           "🏖️",
		TransactionIDs: []string{"t1"},
		TagIDs:         []string{"travel"},
	})
	require.NoError(t, err)
	return g
}

func TestIndexRendersCards(t *testing.T) {
	srv, st := newTestServer(t)
	seedGoal(t, st)

	rr := do(srv, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Savings Goals")
	assert.Contains(t, body, "Vacation")
	assert.Contains(t, body, "$200.00")
	assert.Contains(t, body, "$1,000.00")
	assert.Contains(t, body, "Target: Dec 1, 2026")
	assert.Contains(t, body, `hx-get="/ui/goals/g1/modal"`)

	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestGoalListEmpty(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(srv, http.MethodGet, "/ui/goals", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No goals yet")
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/readyz", "", nil).Code)

	srv, _ = newTestServer(t, func(c *Config) {
		c.Ready = func(context.Context) error { return errors.New("db down") }
	})
	rr := do(srv, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "db down")
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(srv, http.MethodGet, "/static/app.css", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
}

func TestNewGoalModal(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(srv, http.MethodGet, "/ui/goals/new", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "New Goal")
	assert.Contains(t, body, "Create Goal")
	assert.Contains(t, body, `hx-post="/goals"`)
	assert.Contains(t, body, `value="2026-04-10"`)
	assert.Contains(t, body, `value="💰"`)
}

func TestGoalModalFromCardClick(t *testing.T) {
	srv, st := newTestServer(t)
	g := seedGoal(t, st)

	rr := do(srv, http.MethodGet, "/ui/goals/"+g.ID+"/modal", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Edit Goal")
	assert.Contains(t, body, "Update Goal")
	assert.Contains(t, body, `value="Vacation"`)
	assert.Contains(t, body, `hx-post="/goals/g1"`)

	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodGet, "/ui/goals/nope/modal", "", nil).Code)
}

func TestIconField(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodGet, "/ui/icon-field?icon="+url.QueryEscape("🚗")+"&open=1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "emoji-picker")
	assert.Contains(t, rr.Body.String(), `value="🚗"`)

	rr = do(srv, http.MethodGet, "/ui/icon-field?icon="+url.QueryEscape("🎓"), "", nil)
	assert.NotContains(t, rr.Body.String(), "emoji-picker")
	assert.Contains(t, rr.Body.String(), `value="🎓"`)

	rr = do(srv, http.MethodGet, "/ui/icon-field?icon=abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="💰"`)
	assert.Contains(t, rr.Body.String(), "field-error")
	assert.Contains(t, rr.Body.String(), core.ErrInvalidEmoji.Error())
}

func TestCreateGoalForm(t *testing.T) {
	srv, st := newTestServer(t)

	rr := postForm(srv, "/goals", url.Values{"name": {""}, "targetAmount": {"abc"}})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "#goal-form", rr.Header().Get("HX-Retarget"))
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"type":"warning"`)
	assert.Contains(t, rr.Body.String(), "field-error")
	assert.Contains(t, rr.Body.String(), "empty name")
	assert.Contains(t, rr.Body.String(), `value="abc"`)
	assert.Zero(t, st.Len())

	rr = postForm(srv, "/goals", url.Values{
		"name":         {"Vacation"},
		"targetAmount": {"1000"},
		"balance":      {"200"},
		"targetDate":   {"2026-12-01"},
		"icon":         {"✈️"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	trigger := rr.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, EventGoalCreated)
	assert.Contains(t, trigger, EventModalClose)

	goals, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "✈️", goals[0].Icon)
	assert.Equal(t, fixedNow, goals[0].Created)
	assert.Equal(t, []string{}, goals[0].TransactionIDs)
}

func TestUpdateGoalForm(t *testing.T) {
	srv, st := newTestServer(t)
	g := seedGoal(t, st)

	rr := postForm(srv, "/goals/"+g.ID, url.Values{
		"name":         {"Vacation"},
		"targetAmount": {"1000"},
		"balance":      {"400"},
		"targetDate":   {"2026-12-01"},
		"icon":         {"🏖️"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventGoalUpdated)

	got, err := st.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(400).Equal(got.Balance))
	assert.Equal(t, "🏖️", got.Icon)
	assert.Equal(t, g.Created, got.Created)
	assert.Equal(t, []string{"t1"}, got.TransactionIDs)
	assert.Equal(t, []string{"travel"}, got.TagIDs)

	rr = postForm(srv, "/goals/missing", url.Values{"name": {"x"}})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	ids, err := st.GoalsList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, ids)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, http.StatusMethodNotAllowed, do(srv, http.MethodGet, "/goals", "", nil).Code)
}

func TestRateLimitOnWrites(t *testing.T) {
	srv, _ := newTestServer(t, func(c *Config) { c.RateLimitPerMinute = 1 })
	form := url.Values{"name": {"A"}, "targetDate": {"2026-12-01"}}

	assert.Equal(t, http.StatusOK, postForm(srv, "/goals", form).Code)
	rr := postForm(srv, "/goals", form)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/ui/goals", "", nil).Code)
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	postForm(srv, "/goals", url.Values{"name": {"A"}, "targetDate": {"2026-12-01"}})

	rr := do(srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "goals_created_total 1")
	assert.Contains(t, rr.Body.String(), "goals_updated_total 0")
}

func TestAPICreateAndGet(t *testing.T) {
	srv, _ := newTestServer(t)
	jsonHeader := map[string]string{"Content-Type": "application/json"}

	rr := do(srv, http.MethodPost, "/api/goals",
		`{"name":"Vacation","targetAmount":"1000","balance":"200","targetDate":"2026-12-01"}`, jsonHeader)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "/api/goals/g1", rr.Header().Get("Location"))

	var created core.Goal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, core.DefaultIcon, created.Icon)
	assert.Equal(t, []string{}, created.TagIDs)

	rr = do(srv, http.MethodGet, "/api/goals/g1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(srv, http.MethodGet, "/api/goals", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []core.Goal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodGet, "/api/goals/none", "", nil).Code)
}

func TestAPICreateRejectsInvalid(t *testing.T) {
	srv, st := newTestServer(t)
	jsonHeader := map[string]string{"Content-Type": "application/json"}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"name":`, http.StatusBadRequest},
		{"unknown field", `{"name":"A","color":"red"}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"empty name", `{"name":"  ","targetDate":"2026-12-01"}`, http.StatusUnprocessableEntity},
		{"negative", `{"name":"A","balance":"-1","targetDate":"2026-12-01"}`, http.StatusUnprocessableEntity},
		{"no date", `{"name":"A"}`, http.StatusUnprocessableEntity},
		{"bad icon", `{"name":"A","targetDate":"2026-12-01","icon":"xy"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(srv, http.MethodPost, "/api/goals", tt.body, jsonHeader)
			assert.Equal(t, tt.code, rr.Code, rr.Body.String())
		})
	}
	assert.Zero(t, st.Len())
}

func TestAPIPatch(t *testing.T) {
	srv, st := newTestServer(t)
	g := seedGoal(t, st)
	jsonHeader := map[string]string{"Content-Type": "application/json"}

	rr := do(srv, http.MethodPatch, "/api/goals/"+g.ID, `{"balance":"400","name":null}`, jsonHeader)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got core.Goal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Vacation", got.Name)
	assert.Equal(t, "🏖️", got.Icon)
	assert.True(t, decimal.NewFromInt(400).Equal(got.Balance))
	assert.Equal(t, g.Created.Unix(), got.Created.Unix())

	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodPatch, "/api/goals/none", `{"balance":"1"}`, jsonHeader).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(srv, http.MethodPatch, "/api/goals/"+g.ID, `{}`, jsonHeader).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(srv, http.MethodPatch, "/api/goals/"+g.ID, `{"name":""}`, jsonHeader).Code)
	assert.Equal(t, http.StatusBadRequest, do(srv, http.MethodPatch, "/api/goals/"+g.ID, `{"id":"other","name":"x"}`, jsonHeader).Code)
}

func TestAPICORS(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodOptions, "/api/goals/g1", "", map[string]string{
		"Origin":                        "https://app.example",
		"Access-Control-Request-Method": http.MethodPatch,
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = do(srv, http.MethodGet, "/api/goals", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
