package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	"github.com/noah-isme/uni-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
	"github.com/noah-isme/uni-timetable-api/pkg/export"
	"github.com/noah-isme/uni-timetable-api/pkg/jobs"
)

type instanceLoader interface {
	Load(ctx context.Context, filter models.StreamFilter, requireLecturers bool) (*scheduler.Instance, []scheduler.Unscheduled, error)
}

type timetableWriter interface {
	DeleteByScope(ctx context.Context, exec sqlx.ExtContext, filter models.StreamFilter) error
	BulkInsertWithTx(ctx context.Context, tx *sqlx.Tx, entries []models.TimetableEntry) error
	ListRows(ctx context.Context, filter models.StreamFilter) ([]models.TimetableRow, error)
}

type runRecorder interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	UpdateStatus(ctx context.Context, id string, status models.GenerationRunStatus, summary types.JSONText, failReason *string) error
	FindByID(ctx context.Context, id string) (*models.GenerationRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.GenerationRun, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const generateJobType = "timetable.generate"

type generatePayload struct {
	RunID   string
	Request dto.GenerateTimetableRequest
}

// TimetableService orchestrates the full generation pipeline: load the
// problem instance, run the genetic search, repair the best candidate,
// persist the materialized entries and record the run outcome.
type TimetableService struct {
	loader     instanceLoader
	timetables timetableWriter
	runs       runRecorder
	tx         txProvider
	cache      resultCache
	metrics    *MetricsService
	validator  *validator.Validate
	gen        config.GeneratorConfig
	exports    config.ExportsConfig
	logger     *zap.Logger

	queue *jobs.Queue
	csv   *export.CSVExporter
	pdf   *export.PDFExporter
}

// NewTimetableService wires the orchestrator and its background queue.
func NewTimetableService(
	loader instanceLoader,
	timetables timetableWriter,
	runs runRecorder,
	tx txProvider,
	cache resultCache,
	metrics *MetricsService,
	validate *validator.Validate,
	gen config.GeneratorConfig,
	exports config.ExportsConfig,
	logger *zap.Logger,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &TimetableService{
		loader:     loader,
		timetables: timetables,
		runs:       runs,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		gen:        gen,
		exports:    exports,
		logger:     logger,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
	s.queue = jobs.NewQueue(generateJobType, s.handleGenerateJob, jobs.QueueConfig{
		Workers:    gen.QueueWorkers,
		BufferSize: gen.QueueBufferSize,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// StartQueue begins background workers for async runs.
func (s *TimetableService) StartQueue(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopQueue drains background workers.
func (s *TimetableService) StopQueue() {
	s.queue.Stop()
}

// Generate creates a run record and executes it, either inline or through the
// background queue when the request asks for async execution.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate timetable payload")
	}

	run := &models.GenerationRun{
		ID:           uuid.NewString(),
		Stream:       req.Stream,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		Status:       models.GenerationRunStatusPending,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation run")
	}

	if req.Async {
		job := jobs.Job{ID: run.ID, Type: generateJobType, Payload: generatePayload{RunID: run.ID, Request: req}}
		if err := s.queue.Enqueue(job); err != nil {
			reason := "failed to enqueue generation job"
			_ = s.runs.UpdateStatus(ctx, run.ID, models.GenerationRunStatusFailed, nil, &reason)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, reason)
		}
		return &dto.GenerateTimetableResponse{RunID: run.ID, Status: string(models.GenerationRunStatusPending)}, nil
	}

	summary, err := s.executeRun(ctx, run.ID, req)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateTimetableResponse{RunID: run.ID, Status: string(models.GenerationRunStatusCompleted), Summary: summary}, nil
}

// handleGenerateJob runs a queued generation. Failures are recorded on the
// run itself, so the job is never retried by the queue.
func (s *TimetableService) handleGenerateJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generatePayload)
	if !ok {
		s.logger.Error("unexpected job payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	if _, err := s.executeRun(ctx, payload.RunID, payload.Request); err != nil {
		s.logger.Error("async generation run failed", zap.String("run_id", payload.RunID), zap.Error(err))
	}
	return nil
}

func (s *TimetableService) executeRun(ctx context.Context, runID string, req dto.GenerateTimetableRequest) (*dto.RunSummary, error) {
	started := time.Now()
	if err := s.runs.UpdateStatus(ctx, runID, models.GenerationRunStatusRunning, nil, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark run running")
	}

	filter := models.StreamFilter{Stream: req.Stream, Semester: req.Semester, AcademicYear: req.AcademicYear}

	inst, skipped, err := s.loader.Load(ctx, filter, req.RequireLecturers)
	if err != nil {
		return nil, s.failRun(ctx, runID, started, err)
	}

	checker := scheduler.NewChecker(inst, scheduler.Limits{
		LecturerDailyMax: s.gen.LecturerDailyMax,
		ClassDailyMax:    s.gen.ClassDailyMax,
	})
	evaluator := scheduler.NewEvaluator(inst, checker, scheduler.Weights{
		Hard: s.gen.HardWeight,
		Soft: s.gen.SoftWeight,
	})
	engine := scheduler.NewEngine(inst, evaluator, s.engineParams(req), s.logger)

	outcome := engine.Run(ctx)
	if outcome.Reason == scheduler.TerminationCancelled {
		return nil, s.failRun(ctx, runID, started, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation cancelled"))
	}

	repairer := scheduler.NewRepairer(inst, checker)
	committed, pending, occ := repairer.SplitCommitted(outcome.Best)
	placed, unplaced := repairer.Place(pending, occ)
	entries := scheduler.Materialize(inst, committed, placed)

	rows := make([]models.TimetableEntry, len(entries))
	for i, entry := range entries {
		rows[i] = models.TimetableEntry{
			RunID:            runID,
			RequirementID:    entry.RequirementID,
			LecturerCourseID: entry.LecturerCourseID,
			ClassID:          entry.ClassID,
			CourseID:         entry.CourseID,
			DayID:            entry.DayID,
			SlotID:           entry.SlotID,
			RoomID:           entry.RoomID,
			Stream:           req.Stream,
			Semester:         req.Semester,
			AcademicYear:     req.AcademicYear,
		}
	}

	inserted, err := s.persistEntries(ctx, filter, rows, req.ClearExisting)
	if err != nil {
		failErr := appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("persisted %d of %d timetable entries", inserted, len(rows)))
		return nil, s.failRun(ctx, runID, started, failErr)
	}
	s.invalidateListings(ctx, filter)

	unscheduled := make([]dto.UnscheduledItem, 0, len(skipped)+len(unplaced))
	for _, item := range skipped {
		unscheduled = append(unscheduled, unscheduledItem(item))
	}
	for _, item := range unplaced {
		unscheduled = append(unscheduled, unscheduledItem(item))
	}

	summary := &dto.RunSummary{
		RunID:        runID,
		Stream:       req.Stream,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		Generations:  outcome.Generations,
		Evaluations:  outcome.Evaluations,
		ElapsedMS:    outcome.Elapsed.Milliseconds(),
		Termination:  string(outcome.Reason),
		Seed:         engine.Params().Seed,
		Fitness: dto.FitnessBreakdown{
			Score:          outcome.Fitness.Score,
			HardViolations: len(outcome.Fitness.HardViolations),
			SoftViolations: len(outcome.Fitness.SoftViolations),
			Feasible:       outcome.Fitness.Feasible,
			Quality:        outcome.Fitness.Quality,
			Rating:         outcome.Fitness.Rating(),
		},
		RepairPlaced:     len(placed),
		EntriesAttempted: len(rows),
		EntriesInserted:  inserted,
		Unscheduled:      unscheduled,
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, s.failRun(ctx, runID, started, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run summary"))
	}
	if err := s.runs.UpdateStatus(ctx, runID, models.GenerationRunStatusCompleted, types.JSONText(payload), nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark run completed")
	}

	s.cacheSummary(ctx, summary)
	if s.metrics != nil {
		s.metrics.ObserveRun(string(models.GenerationRunStatusCompleted), time.Since(started), outcome.Generations, len(outcome.Fitness.HardViolations), len(unscheduled))
	}

	s.logger.Info("generation run completed",
		zap.String("run_id", runID),
		zap.String("stream", req.Stream),
		zap.Int("semester", req.Semester),
		zap.String("academic_year", req.AcademicYear),
		zap.Int("generations", outcome.Generations),
		zap.String("termination", string(outcome.Reason)),
		zap.Float64("quality", outcome.Fitness.Quality),
		zap.Int("hard_violations", len(outcome.Fitness.HardViolations)),
		zap.Int("entries", inserted),
		zap.Int("unscheduled", len(unscheduled)),
	)
	return summary, nil
}

// persistEntries writes the batch inside one transaction. A mid-batch failure
// rolls the whole scope back, including the optional clear, so readers never
// observe a half-written timetable.
func (s *TimetableService) persistEntries(ctx context.Context, filter models.StreamFilter, rows []models.TimetableEntry, clearExisting bool) (int, error) {
	if s.tx == nil {
		return 0, fmt.Errorf("transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if clearExisting {
		if err = s.timetables.DeleteByScope(ctx, tx, filter); err != nil {
			return 0, err
		}
	}
	if err = s.timetables.BulkInsertWithTx(ctx, tx, rows); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit timetable transaction: %w", err)
	}
	return len(rows), nil
}

func (s *TimetableService) failRun(ctx context.Context, runID string, started time.Time, cause error) error {
	reason := cause.Error()
	if err := s.runs.UpdateStatus(ctx, runID, models.GenerationRunStatusFailed, nil, &reason); err != nil {
		s.logger.Error("failed to mark run failed", zap.String("run_id", runID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveRun(string(models.GenerationRunStatusFailed), time.Since(started), 0, 0, 0)
	}
	return cause
}

func (s *TimetableService) engineParams(req dto.GenerateTimetableRequest) scheduler.Params {
	params := scheduler.Params{
		PopulationSize:  s.gen.PopulationSize,
		MaxGenerations:  s.gen.MaxGenerations,
		MutationRate:    s.gen.MutationRate,
		CrossoverRate:   s.gen.CrossoverRate,
		Elitism:         s.gen.Elitism,
		TournamentSize:  s.gen.TournamentSize,
		StagnationLimit: s.gen.StagnationLimit,
		Workers:         s.gen.Workers,
		RuntimeBudget:   s.gen.RuntimeBudget,
		TargetQuality:   s.gen.TargetQuality,
		Seed:            req.Seed,
	}
	if req.PopulationSize > 0 {
		params.PopulationSize = req.PopulationSize
	}
	if req.MaxGenerations > 0 {
		params.MaxGenerations = req.MaxGenerations
	}
	if req.MutationRate > 0 {
		params.MutationRate = req.MutationRate
	}
	if req.CrossoverRate > 0 {
		params.CrossoverRate = req.CrossoverRate
	}
	if req.MaxRuntimeSeconds > 0 {
		params.RuntimeBudget = time.Duration(req.MaxRuntimeSeconds) * time.Second
	}
	return params
}

func (s *TimetableService) cacheSummary(ctx context.Context, summary *dto.RunSummary) {
	if s.cache == nil {
		return
	}
	key := summaryCacheKey(summary.RunID)
	if err := s.cache.Set(ctx, key, summary, s.gen.SummaryCacheTTL); err != nil {
		s.logger.Warn("failed to cache run summary", zap.String("run_id", summary.RunID), zap.Error(err))
	}
}

func summaryCacheKey(runID string) string {
	return "timetable:run-summary:" + runID
}

func listingCacheKey(filter models.StreamFilter) string {
	return fmt.Sprintf("timetable:rows:%s:%d:%s", filter.Stream, filter.Semester, filter.AcademicYear)
}

// invalidateListings drops cached listings for a scope whose persisted
// entries just changed.
func (s *TimetableService) invalidateListings(ctx context.Context, filter models.StreamFilter) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, listingCacheKey(filter)); err != nil {
		s.logger.Warn("failed to invalidate timetable listing cache",
			zap.String("stream", filter.Stream),
			zap.Int("semester", filter.Semester),
			zap.String("academic_year", filter.AcademicYear),
			zap.Error(err),
		)
	}
}

// GetRunSummary serves a completed run's summary, preferring the cache and
// falling back to the run record.
func (s *TimetableService) GetRunSummary(ctx context.Context, runID string) (*dto.RunSummary, error) {
	if s.cache != nil {
		var cached dto.RunSummary
		if err := s.cache.Get(ctx, summaryCacheKey(runID), &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("run summary cache lookup failed", zap.String("run_id", runID), zap.Error(err))
		}
	}

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != models.GenerationRunStatusCompleted || len(run.Summary) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "run has no summary yet")
	}
	var summary dto.RunSummary
	if err := json.Unmarshal(run.Summary, &summary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode run summary")
	}
	s.cacheSummary(ctx, &summary)
	return &summary, nil
}

// GetRun loads one run record.
func (s *TimetableService) GetRun(ctx context.Context, runID string) (*models.GenerationRun, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation run")
	}
	return run, nil
}

// ListRuns returns recent runs, newest first.
func (s *TimetableService) ListRuns(ctx context.Context, limit int) ([]models.GenerationRun, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generation runs")
	}
	return runs, nil
}

// ListTimetable returns persisted entries for one scope, joined with display
// fields and ordered for rendering. Listings are cached per scope and
// invalidated whenever a run persists new entries for it.
func (s *TimetableService) ListTimetable(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableRow, error) {
	if query.Stream == "" || query.Semester == 0 || query.AcademicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stream, semester and academicYear are required")
	}
	filter := models.StreamFilter{Stream: query.Stream, Semester: query.Semester, AcademicYear: query.AcademicYear}

	if s.cache != nil {
		var cached []models.TimetableRow
		if err := s.cache.Get(ctx, listingCacheKey(filter), &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable listing cache lookup failed", zap.String("stream", filter.Stream), zap.Error(err))
		}
	}

	rows, err := s.timetables.ListRows(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, listingCacheKey(filter), rows, s.gen.SummaryCacheTTL); err != nil {
			s.logger.Warn("failed to cache timetable listing", zap.String("stream", filter.Stream), zap.Error(err))
		}
	}
	return rows, nil
}

// Export renders the scope's timetable as CSV or PDF bytes.
func (s *TimetableService) Export(ctx context.Context, query dto.TimetableQuery, format string) ([]byte, string, string, error) {
	if !s.exports.Enabled {
		return nil, "", "", appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}
	rows, err := s.ListTimetable(ctx, query)
	if err != nil {
		return nil, "", "", err
	}

	dataset := timetableDataset(rows)
	year := strings.ReplaceAll(query.AcademicYear, "/", "-")
	base := fmt.Sprintf("timetable-%s-s%d-%s", query.Stream, query.Semester, year)
	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", base + ".csv", nil
	case "pdf":
		title := fmt.Sprintf("Timetable %s / Semester %d / %s", query.Stream, query.Semester, query.AcademicYear)
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", base + ".pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func timetableDataset(rows []models.TimetableRow) export.Dataset {
	headers := []string{"Day", "Start", "End", "Class", "Course Code", "Course", "Lecturer", "Room"}
	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		lecturer := ""
		if row.LecturerName != nil {
			lecturer = *row.LecturerName
		}
		records = append(records, map[string]string{
			"Day":         row.DayName,
			"Start":       row.SlotStart,
			"End":         row.SlotEnd,
			"Class":       row.ClassName,
			"Course Code": row.CourseCode,
			"Course":      row.CourseName,
			"Lecturer":    lecturer,
			"Room":        row.RoomName,
		})
	}
	return export.Dataset{Headers: headers, Rows: records}
}

func unscheduledItem(item scheduler.Unscheduled) dto.UnscheduledItem {
	return dto.UnscheduledItem{
		RequirementID: item.RequirementID,
		CourseCode:    item.CourseCode,
		ClassID:       item.ClassID,
		Reason:        string(item.Reason),
	}
}
