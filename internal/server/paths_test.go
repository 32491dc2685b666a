package server_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/assert/helpers"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"
)

func TestListPaths(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	w := env.do("GET", lessonPath+"/screen/2/path", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.PathsResponse](t, w)
	assert.Equal(t, 2, res.Count)
	assert.IsType(t, api.CorrectPath{}, res.Paths[0])
	assert.IsType(t, api.IncorrectPath{}, res.Paths[1])
}

func TestListPathsMissingScreen(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	w := env.do("GET", lessonPath+"/screen/9/path", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListInboundPaths(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	w := env.do("GET", lessonPath+"/screen/3/inbound", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.InboundPathsResponse](t, w)
	assert.Equal(t, 2, res.Count)
	for _, in := range res.Paths {
		assert.Equal(t, api.ScreenID(2), in.SourceScreenID)
	}

	res = decode[api.InboundPathsResponse](t,
		env.do("GET", lessonPath+"/screen/1/inbound", nil),
	)
	assert.Equal(t, 0, res.Count)
	assert.NotNil(t, res.Paths)
}

func TestGetDefaultDestination(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	res := decode[api.DefaultDestinationResponse](t,
		env.do("GET", lessonPath+"/screen/1/default", nil),
	)
	require.NotNil(t, res.Destination)
	assert.Equal(t, api.ScreenID(2), *res.Destination)

	res = decode[api.DefaultDestinationResponse](t,
		env.do("GET", lessonPath+"/screen/2/default", nil),
	)
	require.NotNil(t, res.Destination)
	assert.Equal(t, api.ScreenID(3), *res.Destination)

	res = decode[api.DefaultDestinationResponse](t,
		env.do("GET", lessonPath+"/screen/3/default", nil),
	)
	assert.Nil(t, res.Destination)
}

func TestListPathOptions(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	w := env.do("GET", lessonPath+"/screen/2/options", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.PathOptionsResponse](t, w)
	assert.Equal(t, "Multiple Choice", res.QuestionType)
	require.Len(t, res.Paths, 6)
	assert.IsType(t, api.OptionCommonErrorPath{}, res.Paths[0])

	res = decode[api.PathOptionsResponse](t,
		env.do("GET", lessonPath+"/screen/1/options", nil),
	)
	assert.Equal(t, "No question", res.QuestionType)
	assert.Len(t, res.Paths, 2)
}

func TestReplacePathEndpoint(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	target := lessonPath + "/screen/1/path/" + path.AlwaysGoToID
	w := env.do("PUT", target, path.AlwaysGoTo(api.ScreenRef(3)))
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.ScreenResponse](t, w)
	p, ok := res.Screen.Paths.Find(path.AlwaysGoToID)
	require.True(t, ok)
	assert.Equal(t, api.ScreenID(3), *p.(api.AlwaysGoToPath).Dest())

	stored := env.lesson(t).Screen(1)
	require.Len(t, stored.Rules, 1)
	assert.Equal(t, api.ScreenID(3), *path.Destination(stored.Paths[0]))
}

func TestReplacePathErrors(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	target := lessonPath + "/screen/1/path/" + path.AlwaysGoToID
	w := env.do("PUT", target, `{"type":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", target, "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", lessonPath+"/screen/1/path/missing",
		path.AlwaysGoTo(api.ScreenRef(3)),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("PUT", lessonPath+"/screen/9/path/"+path.AlwaysGoToID,
		path.AlwaysGoTo(api.ScreenRef(3)),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePathEndpoint(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	l := helpers.QuestionLesson()
	env.seed(t, l)
	incorrect := l.Screen(2).Paths[1].Base().ID

	w := env.do("DELETE", lessonPath+"/screen/2/path/"+incorrect, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.ScreenResponse](t, w)
	require.Len(t, res.Screen.Paths, 1)
	assert.IsType(t, api.CorrectPath{}, res.Screen.Paths[0])

	w = env.do("DELETE", lessonPath+"/screen/2/path/"+incorrect, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteLastPathEndpoint(t *testing.T) {
	env := testServer(t)
	defer env.Cleanup()
	env.seed(t, helpers.QuestionLesson())

	target := lessonPath + "/screen/1/path/" + path.AlwaysGoToID
	w := env.do("DELETE", target, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	res := decode[api.ScreenResponse](t, w)
	require.Len(t, res.Screen.Paths, 1)
	assert.IsType(t, api.EndOfActivityPath{}, res.Screen.Paths[0])
}
