package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowchart/internal/diagnostics"
	"github.com/kode4food/flowchart/pkg/api"
)

func (s *Server) listLessons(c *gin.Context) {
	ids, err := s.store.Lessons(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if ids == nil {
		ids = []api.LessonID{}
	}
	c.JSON(http.StatusOK, api.LessonsResponse{
		Lessons: ids,
		Count:   len(ids),
	})
}

func (s *Server) getLesson(c *gin.Context) {
	l, ok := s.lesson(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) verifyLesson(c *gin.Context) {
	defer s.lock(lessonID(c))()

	ed, err := s.editor(c)
	if err != nil {
		fail(c, err)
		return
	}
	rep, err := ed.Verify(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) diagnoseLesson(c *gin.Context) {
	l, ok := s.lesson(c)
	if !ok {
		return
	}
	problems := diagnostics.NewValidator(s.lua).Validate(l)
	if problems == nil {
		problems = []*api.Problem{}
	}
	c.JSON(http.StatusOK, api.DiagnosticsResponse{
		Problems: problems,
		Count:    len(problems),
	})
}

func (s *Server) archiveLesson(c *gin.Context) {
	if s.archiver == nil {
		fail(c, ErrArchiveDisabled)
		return
	}
	id := lessonID(c)
	defer s.lock(id)()

	l, err := s.archiver.Archive(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ArchiveResponse{
		LessonID: id,
		Screens:  len(l.Screens),
	})
}

func (s *Server) restoreLesson(c *gin.Context) {
	if s.archiver == nil {
		fail(c, ErrArchiveDisabled)
		return
	}
	id := lessonID(c)
	defer s.lock(id)()

	ctx := c.Request.Context()
	l, err := s.archiver.Restore(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	s.hub.Notify(ctx, id, api.EventTypeLessonRestored,
		api.LessonRestoredEvent{Screens: len(l.Screens)},
	)
	c.JSON(http.StatusOK, api.ArchiveResponse{
		LessonID: id,
		Screens:  len(l.Screens),
	})
}
