package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/pkg/api"
)

func (s *Server) getScreen(c *gin.Context) {
	id, ok := screenID(c)
	if !ok {
		return
	}
	sc, err := s.store.Screen(c.Request.Context(), lessonID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ScreenResponse{Screen: sc})
}

func (s *Server) addScreen(c *gin.Context) {
	var req api.AddScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}

	s.mutateScreen(c, http.StatusCreated,
		func(ed *flowchart.Editor) (*api.Screen, error) {
			return ed.AddScreen(c.Request.Context(), req)
		},
	)
}

func (s *Server) duplicateScreen(c *gin.Context) {
	id, ok := screenID(c)
	if !ok {
		return
	}
	s.mutateScreen(c, http.StatusCreated,
		func(ed *flowchart.Editor) (*api.Screen, error) {
			return ed.DuplicateScreen(c.Request.Context(), id)
		},
	)
}

func (s *Server) deleteScreen(c *gin.Context) {
	id, ok := screenID(c)
	if !ok {
		return
	}
	defer s.lock(lessonID(c))()

	ed, err := s.editor(c)
	if err != nil {
		fail(c, err)
		return
	}
	rewired, err := ed.DeleteScreen(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if rewired == nil {
		rewired = []api.ScreenID{}
	}
	c.JSON(http.StatusOK, api.ScreenDeletedResponse{
		ScreenID: id,
		Rewired:  rewired,
	})
}

func (s *Server) previewScreen(c *gin.Context) {
	id, ok := screenID(c)
	if !ok {
		return
	}
	var req api.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}

	sc, err := s.store.Screen(c.Request.Context(), lessonID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	facts := req.Facts
	if facts == nil {
		facts = map[string]any{}
	}
	r, err := s.lua.Preview(sc.Rules, facts)
	if err != nil {
		writeError(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, api.PreviewResponse{
		Rule:    r,
		Matched: r != nil,
	})
}

// mutateScreen runs one screen-producing editor operation under the
// lesson's lock and writes the resulting screen
func (s *Server) mutateScreen(
	c *gin.Context, status int,
	fn func(*flowchart.Editor) (*api.Screen, error),
) {
	defer s.lock(lessonID(c))()

	ed, err := s.editor(c)
	if err != nil {
		fail(c, err)
		return
	}
	sc, err := fn(ed)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, api.ScreenResponse{Screen: sc})
}
