package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/archive"
	"github.com/kode4food/flowchart/internal/assert/helpers"
	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/diagnostics"
	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/internal/server"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
)

type testServerEnv struct {
	Server    *server.Server
	Router    *gin.Engine
	Store     store.Store
	Redis     *miniredis.Miniredis
	Collector *diagnostics.Collector
	Cleanup   func()
}

const lessonPath = "/lesson/" + string(helpers.TestLessonID)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(t *testing.T) *testServerEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := store.NewRedisWithClient(client, "test-server")

	b, err := archive.NewBlob(context.Background(), "mem://", "lessons/")
	require.NoError(t, err)

	col := diagnostics.NewCollector()
	srv, err := server.NewServer(config.NewAuthoringConfig(),
		server.Dependencies{
			Store:    st,
			Archiver: archive.NewArchiver(st, b),
			Reporter: col,
		},
	)
	require.NoError(t, err)

	return &testServerEnv{
		Server:    srv,
		Router:    srv.SetupRoutes(),
		Store:     st,
		Redis:     mr,
		Collector: col,
		Cleanup: func() {
			srv.CloseWebSockets()
			_ = b.Close()
			_ = st.Close()
			mr.Close()
		},
	}
}

func (e *testServerEnv) seed(t *testing.T, l *api.Lesson) {
	t.Helper()
	err := e.Store.Commit(context.Background(), l.ID, store.ReplaceLesson(l))
	require.NoError(t, err)
}

func (e *testServerEnv) lesson(t *testing.T) *api.Lesson {
	t.Helper()
	l, err := e.Store.Lesson(context.Background(), helpers.TestLessonID)
	require.NoError(t, err)
	return l
}

func (e *testServerEnv) do(
	method, target string, body any,
) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestNewServerErrors(t *testing.T) {
	_, err := server.NewServer(config.NewAuthoringConfig(),
		server.Dependencies{},
	)
	assert.ErrorIs(t, err, flowchart.ErrMissingDependency)

	_, err = server.NewServer(config.AuthoringConfig{},
		server.Dependencies{Store: store.NewMemory()},
	)
	assert.ErrorIs(t, err, flowchart.ErrInvalidConfig)
}

func TestHealthEndpoint(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	w := env.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.HealthResponse](t, w)
	assert.Equal(t, server.HealthHealthy, res.Status)
	assert.Equal(t, "flowchart", res.Service)
}

func TestHealthUnavailable(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	env.Redis.Close()
	w := env.do("GET", "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	res := decode[api.HealthResponse](t, w)
	assert.Equal(t, server.HealthUnhealthy, res.Status)
	assert.NotEmpty(t, res.Error)
}

func TestCORSPreflight(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	w := env.do("OPTIONS", lessonPath, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestListLessons(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	res := decode[api.LessonsResponse](t, env.do("GET", "/lesson", nil))
	assert.Equal(t, 0, res.Count)
	assert.NotNil(t, res.Lessons)

	env.seed(t, helpers.QuestionLesson())
	res = decode[api.LessonsResponse](t, env.do("GET", "/lesson", nil))
	assert.Equal(t, []api.LessonID{helpers.TestLessonID}, res.Lessons)
}

func TestGetLesson(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	w := env.do("GET", lessonPath, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	l := decode[api.Lesson](t, w)
	assert.Equal(t, helpers.TestLessonID, l.ID)
	assert.Len(t, l.Screens, 3)
	assert.IsType(t, api.CorrectPath{}, l.Screen(2).Paths[0])
}

func TestInvalidLessonID(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	w := env.do("GET", "/lesson/bad%7Cid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	w := env.do("POST", lessonPath+"/verify", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	rep := decode[api.VerifyReport](t, w)
	assert.NotEmpty(t, rep.Changes)
	assert.Len(t, env.lesson(t).Screens, 2)

	w = env.do("POST", lessonPath+"/verify", nil)
	rep = decode[api.VerifyReport](t, w)
	assert.Empty(t, rep.Changes)
}

func TestDiagnosticsEndpoint(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	l := helpers.QuestionLesson()
	l.Screens = append(l.Screens,
		helpers.NewScreen(4, "Orphan", path.AlwaysGoTo(api.ScreenRef(9))),
	)
	l.Sequence = append(l.Sequence, helpers.NewSequenceEntry(l.Screens[3]))
	env.seed(t, helpers.Compiled(l))

	w := env.do("GET", lessonPath+"/diagnostics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.DiagnosticsResponse](t, w)
	assert.Equal(t, len(res.Problems), res.Count)
	types := map[api.ProblemType]bool{}
	for _, p := range res.Problems {
		types[p.Type] = true
	}
	assert.True(t, types[api.ProblemDangling])
	assert.True(t, types[api.ProblemUnreachable])
}

func TestArchiveAndRestore(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	w := env.do("POST", lessonPath+"/archive", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	res := decode[api.ArchiveResponse](t, w)
	assert.Equal(t, 3, res.Screens)

	w = env.do("DELETE", lessonPath+"/screen/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.lesson(t).Screens, 2)

	w = env.do("POST", lessonPath+"/restore", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.lesson(t).Screens, 3)
}

func TestRestoreMissing(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()

	w := env.do("POST", lessonPath+"/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArchiveDisabled(t *testing.T) {
	srv, err := server.NewServer(config.NewAuthoringConfig(),
		server.Dependencies{Store: store.NewMemory()},
	)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", lessonPath+"/archive", nil)
	w := httptest.NewRecorder()
	srv.SetupRoutes().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
