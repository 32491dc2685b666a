package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowchart/internal/archive"
	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{flowchart.ErrScreenNotFound, http.StatusNotFound},
	{flowchart.ErrPathNotFound, http.StatusNotFound},
	{store.ErrScreenNotFound, http.StatusNotFound},
	{archive.ErrLessonNotFound, http.StatusNotFound},
	{flowchart.ErrLastScreen, http.StatusConflict},
	{ErrArchiveDisabled, http.StatusNotImplemented},
	{ErrInvalidJSON, http.StatusBadRequest},
	{ErrInvalidScreenID, http.StatusBadRequest},
	{store.ErrEmptyLessonID, http.StatusBadRequest},
	{api.ErrLessonIDEmpty, http.StatusBadRequest},
	{api.ErrLessonIDInvalid, http.StatusBadRequest},
}

func errorStatus(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

// fail writes err with the status it maps to
func fail(c *gin.Context, err error) {
	writeError(c, errorStatus(err), err)
}
