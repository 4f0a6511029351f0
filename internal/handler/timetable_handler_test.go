package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	generateResp *dto.GenerateTimetableResponse
	generateErr  error
	rows         []models.TimetableRow
	exportErr    error
	lastRequest  dto.GenerateTimetableRequest
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.lastRequest = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.generateResp, nil
}

func (m *timetableServiceMock) GetRun(ctx context.Context, runID string) (*models.GenerationRun, error) {
	if runID == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found")
	}
	return &models.GenerationRun{ID: runID, Status: models.GenerationRunStatusCompleted}, nil
}

func (m *timetableServiceMock) GetRunSummary(ctx context.Context, runID string) (*dto.RunSummary, error) {
	return &dto.RunSummary{RunID: runID}, nil
}

func (m *timetableServiceMock) ListRuns(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	return []models.GenerationRun{{ID: "run-1"}}, nil
}

func (m *timetableServiceMock) ListTimetable(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableRow, error) {
	return m.rows, nil
}

func (m *timetableServiceMock) Export(ctx context.Context, query dto.TimetableQuery, format string) ([]byte, string, string, error) {
	if m.exportErr != nil {
		return nil, "", "", m.exportErr
	}
	return []byte("Day,Start\n"), "text/csv", "timetable.csv", nil
}

func TestTimetableHandlerGenerateSync(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &timetableServiceMock{generateResp: &dto.GenerateTimetableResponse{RunID: "run-1", Status: "COMPLETED"}}
	handler := NewTimetableHandler(mock)

	payload, _ := json.Marshal(dto.GenerateTimetableRequest{Stream: "CS", Semester: 1, AcademicYear: "2025/2026"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "CS", mock.lastRequest.Stream)
}

func TestTimetableHandlerGenerateAsyncAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &timetableServiceMock{generateResp: &dto.GenerateTimetableResponse{RunID: "run-1", Status: "PENDING"}}
	handler := NewTimetableHandler(mock)

	payload, _ := json.Marshal(dto.GenerateTimetableRequest{Stream: "CS", Semester: 1, AcademicYear: "2025/2026", Async: true})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestTimetableHandlerGenerateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerGenerateServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &timetableServiceMock{generateErr: appErrors.Clone(appErrors.ErrDataIncomplete, "cannot generate timetable: no active rooms")}
	handler := NewTimetableHandler(mock)

	payload, _ := json.Marshal(dto.GenerateTimetableRequest{Stream: "CS", Semester: 1, AcademicYear: "2025/2026"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestTimetableHandlerGetRunNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/runs/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.GetRun(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerListRequiresScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetable?stream=CS", nil)

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetable/export?stream=CS&semester=1&academicYear=2025%2F2026&format=csv", nil)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "timetable.csv")
	require.Contains(t, w.Body.String(), "Day,Start")
}
