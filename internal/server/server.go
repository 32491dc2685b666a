package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowchart/internal/archive"
	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/diagnostics"
	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/internal/flowchart/script"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
)

type (
	// Server implements the HTTP API server for lesson authoring
	Server struct {
		store    store.Store
		archiver *archive.Archiver
		reporter diagnostics.Reporter
		hub      *Hub
		lua      *script.LuaEnv
		locks    map[api.LessonID]*sync.Mutex
		config   config.AuthoringConfig
		mu       sync.Mutex
	}

	// Dependencies holds the collaborators a Server is built from. Store is
	// required. A nil Archiver disables the archive endpoints and a nil
	// Reporter logs through slog
	Dependencies struct {
		Store    store.Store
		Archiver *archive.Archiver
		Reporter diagnostics.Reporter
	}
)

var (
	ErrInvalidJSON     = errors.New("invalid JSON request")
	ErrInvalidScreenID = errors.New("invalid screen ID")
	ErrArchiveDisabled = errors.New("archiving is not configured")
)

// NewServer creates a new HTTP API server
func NewServer(
	cfg config.AuthoringConfig, deps Dependencies,
) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: store", flowchart.ErrMissingDependency)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", flowchart.ErrInvalidConfig, err)
	}
	rep := deps.Reporter
	if rep == nil {
		rep = diagnostics.NewLogReporter(nil)
	}
	return &Server{
		store:    deps.Store,
		archiver: deps.Archiver,
		reporter: rep,
		hub:      NewHub(),
		lua:      script.NewLuaEnv(),
		locks:    map[api.LessonID]*sync.Mutex{},
		config:   cfg,
	}, nil
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)
	router.GET("/lesson", s.listLessons)

	lesson := router.Group("/lesson/:lessonID", s.requireLessonID)
	{
		lesson.GET("", s.getLesson)
		lesson.GET("/ws", s.handleWebSocket)

		// Whole-lesson operations
		lesson.POST("/verify", s.verifyLesson)
		lesson.GET("/diagnostics", s.diagnoseLesson)
		lesson.POST("/archive", s.archiveLesson)
		lesson.POST("/restore", s.restoreLesson)

		// Screen endpoints
		lesson.POST("/screen", s.addScreen)
		lesson.GET("/screen/:screenID", s.getScreen)
		lesson.DELETE("/screen/:screenID", s.deleteScreen)
		lesson.POST("/screen/:screenID/duplicate", s.duplicateScreen)
		lesson.POST("/screen/:screenID/preview", s.previewScreen)

		// Path endpoints
		lesson.GET("/screen/:screenID/path", s.listPaths)
		lesson.GET("/screen/:screenID/inbound", s.listInboundPaths)
		lesson.GET("/screen/:screenID/default", s.getDefaultDestination)
		lesson.GET("/screen/:screenID/options", s.listPathOptions)
		lesson.PUT("/screen/:screenID/path/:pathID", s.replacePath)
		lesson.DELETE("/screen/:screenID/path/:pathID", s.deletePath)
	}

	return router
}

// Notifier returns the change feed that editors created by this server
// publish to
func (s *Server) Notifier() flowchart.Notifier {
	return s.hub
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.hub.Close()
}

func (s *Server) requireLessonID(c *gin.Context) {
	if err := lessonID(c).Validate(); err != nil {
		writeError(c, http.StatusBadRequest, err)
		c.Abort()
		return
	}
	c.Next()
}

// editor builds an Editor for the request's lesson. The caller must hold
// the lesson's lock while using it
func (s *Server) editor(c *gin.Context) (*flowchart.Editor, error) {
	return flowchart.New(lessonID(c), s.config, flowchart.Dependencies{
		Store:    s.store,
		Reporter: s.reporter,
		Notifier: s.hub,
	})
}

// lock serializes the mutating operations on one lesson and returns the
// matching unlock
func (s *Server) lock(id api.LessonID) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// lesson loads the request's lesson, writing the error response when the
// load fails
func (s *Server) lesson(c *gin.Context) (*api.Lesson, bool) {
	l, err := s.store.Lesson(c.Request.Context(), lessonID(c))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return l, true
}

func lessonID(c *gin.Context) api.LessonID {
	return api.LessonID(c.Param("lessonID"))
}

func screenID(c *gin.Context) (api.ScreenID, bool) {
	raw := c.Param("screenID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest,
			fmt.Errorf("%w: %s", ErrInvalidScreenID, raw),
		)
		return 0, false
	}
	return api.ScreenID(id), true
}
