package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
	"github.com/noah-isme/uni-timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	GetRun(ctx context.Context, runID string) (*models.GenerationRun, error)
	GetRunSummary(ctx context.Context, runID string) (*dto.RunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]models.GenerationRun, error)
	ListTimetable(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableRow, error)
	Export(ctx context.Context, query dto.TimetableQuery, format string) ([]byte, string, string, error)
}

// TimetableHandler exposes generation and timetable query endpoints.
type TimetableHandler struct {
	service timetableGenerator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableGenerator) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate runs (or enqueues) a timetable generation for one scope.
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if req.Async {
		response.JSON(c, http.StatusAccepted, result, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetRun returns one run record including its status and failure reason.
func (h *TimetableHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// GetRunSummary returns the structured summary of a completed run.
func (h *TimetableHandler) GetRunSummary(c *gin.Context) {
	summary, err := h.service.GetRunSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ListRuns returns recent generation runs, newest first.
func (h *TimetableHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, models.NewPagination(1, limit, len(runs)))
}

// List returns the persisted timetable for one stream/semester/year scope.
func (h *TimetableHandler) List(c *gin.Context) {
	query, err := parseTimetableQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.ListTimetable(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Export streams the scope's timetable as CSV or PDF.
func (h *TimetableHandler) Export(c *gin.Context) {
	query, err := parseTimetableQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, contentType, filename, err := h.service.Export(c.Request.Context(), query, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

func parseTimetableQuery(c *gin.Context) (dto.TimetableQuery, error) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil || semester <= 0 {
		return dto.TimetableQuery{}, appErrors.Clone(appErrors.ErrValidation, "semester must be a positive integer")
	}
	query := dto.TimetableQuery{
		Stream:       c.Query("stream"),
		Semester:     semester,
		AcademicYear: c.Query("academicYear"),
	}
	if query.Stream == "" || query.AcademicYear == "" {
		return dto.TimetableQuery{}, appErrors.Clone(appErrors.ErrValidation, "stream and academicYear are required")
	}
	return query, nil
}
