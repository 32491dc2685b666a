package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/internal/flowchart/graph"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"
)

func (s *Server) listPaths(c *gin.Context) {
	g, id, ok := s.screenGraph(c)
	if !ok {
		return
	}
	paths := g.ScreenPaths(id)
	c.JSON(http.StatusOK, api.PathsResponse{
		Paths: paths,
		Count: len(paths),
	})
}

func (s *Server) listInboundPaths(c *gin.Context) {
	g, id, ok := s.screenGraph(c)
	if !ok {
		return
	}
	paths := g.PathsToScreen(id)
	c.JSON(http.StatusOK, api.InboundPathsResponse{
		Paths: paths,
		Count: len(paths),
	})
}

func (s *Server) getDefaultDestination(c *gin.Context) {
	g, id, ok := s.screenGraph(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, api.DefaultDestinationResponse{
		Destination: g.DefaultDestination(id),
	})
}

func (s *Server) listPathOptions(c *gin.Context) {
	g, id, ok := s.screenGraph(c)
	if !ok {
		return
	}
	kind, paths := path.Options(g.Screen(id))
	c.JSON(http.StatusOK, api.PathOptionsResponse{
		QuestionType: kind.Label(),
		Paths:        paths,
	})
}

func (s *Server) replacePath(c *gin.Context) {
	id, ok := screenID(c)
	if !ok {
		return
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}
	np, err := api.DecodePath(data)
	if err != nil {
		fail(c, fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}

	pathID := c.Param("pathID")
	s.mutateScreen(c, http.StatusOK,
		func(ed *flowchart.Editor) (*api.Screen, error) {
			return ed.ReplacePath(c.Request.Context(), id, pathID, np)
		},
	)
}

func (s *Server) deletePath(c *gin.Context) {
	id, ok := screenID(c)
	if !ok {
		return
	}
	pathID := c.Param("pathID")
	s.mutateScreen(c, http.StatusOK,
		func(ed *flowchart.Editor) (*api.Screen, error) {
			return ed.DeletePath(c.Request.Context(), id, pathID)
		},
	)
}

// screenGraph loads the request's lesson as a graph and confirms that the
// requested screen is part of it
func (s *Server) screenGraph(
	c *gin.Context,
) (*graph.Graph, api.ScreenID, bool) {
	id, ok := screenID(c)
	if !ok {
		return nil, 0, false
	}
	l, ok := s.lesson(c)
	if !ok {
		return nil, 0, false
	}
	g := graph.New(l)
	if g.Screen(id) == nil {
		fail(c, fmt.Errorf("%w: %d", flowchart.ErrScreenNotFound, id))
		return nil, 0, false
	}
	return g, id, true
}
