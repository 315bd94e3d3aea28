package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/ansarctica/ross/internal/catalog"
	"github.com/ansarctica/ross/internal/engine"
	"github.com/ansarctica/ross/internal/observability"
	"github.com/ansarctica/ross/internal/session"
	"github.com/ansarctica/ross/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEnv struct {
	router *gin.Engine
	store  *session.MemoryStore
	static string
}

func newTestEnv(t *testing.T, s engine.Scheduler) *testEnv {
	t.Helper()
	if s == nil {
		s = engine.NewStatic()
	}
	reg := prometheus.NewRegistry()
	store := session.NewMemoryStore()
	dir := t.TempDir()
	router := NewRouter(Deps{
		Catalog: catalog.New([]types.Program{
			{PROGRAM_NAME: "Biology", ALIASES: []string{"BIO"}},
			{PROGRAM_NAME: "Chemistry"},
		}),
		Scheduler:    s,
		Store:        store,
		Metrics:      observability.NewMetrics(reg),
		Gatherer:     reg,
		Logger:       zap.NewNop(),
		StaticDir:    dir,
		AllowOrigins: []string{"https://planner.example.edu"},
		MaxBodyBytes: 1 << 20,
	})
	return &testEnv{router: router, store: store, static: dir}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"service":"ross-server","version":"1.0.0"}`, w.Body.String())
}

func TestMajors(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/majors", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":["Biology","Chemistry"]}`, w.Body.String())

	var out struct {
		Items []types.Program `json:"items"`
	}
	w = env.do(http.MethodGet, "/api/majors/lookup?name=bio", "")
	decode(t, w, &out)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Biology", out.Items[0].PROGRAM_NAME)

	w = env.do(http.MethodGet, "/api/majors/lookup?name=art", "")
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestDegreePlan(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{
		"session_id": "stu-1",
		"orderedLabels": ["Fall 2024", "Summer 2025", "Spring 2025", "Non-term"],
		"entries": [
			{"semesterLabel": "Spring 2025", "courses": ["BIO-210 (4)", "ART-110 (3)"]},
			{"semesterLabel": "Fall 2024", "courses": ["not a course", "MATH-101 (3)", "ENGL-120 (Placement)"]},
			{"semesterLabel": "Winter 2030", "courses": ["PHYS-130 (4)"]}
		],
		"detailedListing": [
			{"semesterLabel": "Summer 2025", "text": "CS-0101 (3)"},
			{"semesterLabel": "Non-term", "courses": ["HIST-150 (?)"]}
		],
		"debug": true
	}`
	w := env.do(http.MethodPost, "/api/degree-plan", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Contains(t, w.Body.String(),
		`"registry":{"semester-1":["MATH-101"],"summer-1":["CS-101"],"semester-2":["BIO-210","ART-110"],"non-term":["ENGL-120","HIST-150"]}`)

	var out struct {
		SessionID  string   `json:"session_id"`
		Report     string   `json:"report"`
		Skipped    []string `json:"skipped"`
		Unassigned []string `json:"unassigned"`
	}
	decode(t, w, &out)
	assert.Equal(t, "stu-1", out.SessionID)
	assert.True(t, strings.HasPrefix(out.Report, "Degree Plan\n"))
	assert.Equal(t, []string{"not a course"}, out.Skipped)
	assert.Equal(t, []string{"PHYS-130 (4)"}, out.Unassigned)

	sess, err := env.store.Get(context.Background(), "stu-1")
	require.NoError(t, err)
	require.NotNil(t, sess.Plan)
	assert.Equal(t, []string{"MATH-101", "CS-101", "BIO-210", "ART-110"}, sess.Plan.CreditedCodes())
}

func TestDegreePlan_EmptyAndGeneratedSession(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/degree-plan", `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		SessionID string          `json:"session_id"`
		Registry  json.RawMessage `json:"registry"`
		Report    string          `json:"report"`
		Skipped   []string        `json:"skipped"`
	}
	decode(t, w, &out)
	assert.NotEmpty(t, out.SessionID)
	assert.JSONEq(t, `{}`, string(out.Registry))
	assert.Empty(t, out.Report)
	assert.NotNil(t, out.Skipped)
}

func TestDegreePlan_BadRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/degree-plan", `{"entries": "nope"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"bad json"}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/degree-plan", `{"session_id": "../etc"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "sessionid")
}

func TestSchedule(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/schedule", `{"majors": [" Biology ", ""], "courses_taken": ["MATH-101"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out ScheduleResponse
	decode(t, w, &out)
	assert.Equal(t, "Schedule successfully created!", out.Message)
	assert.Equal(t, []string{"Biology"}, out.Majors)
	assert.Equal(t, []string{"MATH-101"}, out.CoursesTaken)
	assert.Len(t, out.Semesters, 8)
	assert.Len(t, out.Semesters["semester-1"], 4)
	require.Len(t, out.Reasons, 1)
	assert.Equal(t, ScheduleID([]string{"Biology"}, []string{"MATH-101"}), out.ScheduleID)
	assert.Regexp(t, `^sched_[0-9a-f]{10}$`, out.ScheduleID)

	raw := w.Body.String()
	assert.Less(t, strings.Index(raw, `"semester-1"`), strings.Index(raw, `"semester-2"`))
}

func TestSchedule_UsesIngestedPlan(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/degree-plan", `{
		"session_id": "stu-2",
		"orderedLabels": ["Fall 2024", "Fall 2027"],
		"entries": [
			{"semesterLabel": "Fall 2024", "courses": ["MATH-101 (3) Completed A", "CHEM-110 (4)", "ENGL-120 (Placement)"]},
			{"semesterLabel": "Fall 2027", "courses": ["MATH-102 (3) Planned"]}
		],
		"completed": ["CHEM-110 (4)"]
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ingested struct {
		Completed []string `json:"completed"`
	}
	decode(t, w, &ingested)
	assert.Equal(t, []string{"CHEM-110", "MATH-101"}, ingested.Completed)

	w = env.do(http.MethodPost, "/api/schedule", `{"majors": ["Chemistry"], "session_id": "stu-2"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out ScheduleResponse
	decode(t, w, &out)
	assert.Equal(t, []string{"CHEM-110", "MATH-101"}, out.CoursesTaken)
	assert.NotContains(t, out.CoursesTaken, "MATH-102")
	assert.Len(t, out.Semesters["semester-1"], 3)
	assert.Len(t, out.Semesters["semester-2"], 5)

	w = env.do(http.MethodGet, "/api/sessions/stu-2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sess struct {
		Majors     []string        `json:"majors"`
		ScheduleID string          `json:"schedule_id"`
		Plan       json.RawMessage `json:"plan"`
	}
	decode(t, w, &sess)
	assert.Equal(t, []string{"Chemistry"}, sess.Majors)
	assert.Equal(t, out.ScheduleID, sess.ScheduleID)
	assert.JSONEq(t, `{"semester-1":["MATH-101","CHEM-110"],"semester-2":["MATH-102"],"non-term":["ENGL-120"]}`, string(sess.Plan))
}

func TestSchedule_PlannedOnlySession(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/degree-plan", `{
		"session_id": "stu-4",
		"orderedLabels": ["Fall 2027"],
		"entries": [{"semesterLabel": "Fall 2027", "courses": ["MATH-101 (3) Planned", "CHEM-110 (4) In Progress"]}]
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/schedule", `{"majors": ["Chemistry"], "session_id": "stu-4"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out ScheduleResponse
	decode(t, w, &out)
	assert.Empty(t, out.CoursesTaken)
	assert.Len(t, out.Semesters["semester-1"], 5)
}

func TestSchedule_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/schedule", `{"majors": ["  "]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(http.MethodPost, "/api/schedule", `{"courses_taken": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(http.MethodPost, "/api/schedule", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type downEngine struct{}

func (downEngine) Schedule(context.Context, *engine.Request) (*engine.Response, error) {
	return nil, engine.ErrUnavailable
}

func TestSchedule_EngineDown(t *testing.T) {
	env := newTestEnv(t, downEngine{})
	w := env.do(http.MethodPost, "/api/schedule", `{"majors": ["Biology"]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestSessions_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/sessions/nobody", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/sessions/nobody", "").Code)

	_, err := env.store.Update(context.Background(), "stu-3", func(*session.Session) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/sessions/stu-3", "").Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, nil)

	r := httptest.NewRequest(http.MethodOptions, "/api/schedule", nil)
	r.Header.Set("Origin", "https://planner.example.edu")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://planner.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AnyOrigin(t *testing.T) {
	router := NewRouter(Deps{AllowOrigins: []string{"*"}})

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNewRouter_Defaults(t *testing.T) {
	router := NewRouter(Deps{})
	post := func(path, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	w := post("/api/degree-plan", `{"session_id": "stu-5", "orderedLabels": ["Fall 2024"], "entries": [{"semesterLabel": "Fall 2024", "courses": ["MATH-101 (3) Completed"]}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = post("/api/schedule", `{"majors": ["Biology"], "session_id": "stu-5"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out ScheduleResponse
	decode(t, w, &out)
	assert.Equal(t, []string{"MATH-101"}, out.CoursesTaken)
	assert.Len(t, out.Semesters, 8)
}

func TestStaticAndIndex(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"static/index.html not found"}`, w.Body.String())

	require.NoError(t, os.WriteFile(filepath.Join(env.static, "index.html"), []byte("<h1>ROSS</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(env.static, "app.js"), []byte("console.log(1)"), 0o644))

	w = env.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ROSS")

	w = env.do(http.MethodGet, "/static/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	big := `{"majors": ["` + strings.Repeat("x", 2<<20) + `"]}`
	r := httptest.NewRequest(http.MethodPost, "/api/schedule", bytes.NewBufferString(big))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodGet, "/health", "")
	env.do(http.MethodPost, "/api/degree-plan", `{"orderedLabels":["Fall A"],"entries":[{"semesterLabel":"Fall A","courses":["MATH-101 (3)"]}]}`)

	w := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ross_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `ross_ingest_courses_total{bucket="credited"} 1`)
}

func TestRecovery(t *testing.T) {
	env := newTestEnv(t, nil)
	env.router.GET("/boom", func(*gin.Context) { panic("boom") })
	w := env.do(http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, w.Body.String())
}
