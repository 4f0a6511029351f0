package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// TimetableRepository persists generated timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// DeleteByScope removes every entry for a stream/semester/year scope inside
// the caller's transaction, supporting clear-before-regenerate semantics.
func (r *TimetableRepository) DeleteByScope(ctx context.Context, exec sqlx.ExtContext, filter models.StreamFilter) error {
	const query = `DELETE FROM timetable_entries WHERE stream = $1 AND semester = $2 AND academic_year = $3`
	if _, err := exec.ExecContext(ctx, query, filter.Stream, filter.Semester, filter.AcademicYear); err != nil {
		return fmt.Errorf("delete timetable scope: %w", err)
	}
	return nil
}

// BulkInsertWithTx inserts entries using an existing transaction so a partial
// batch failure rolls back as a unit.
func (r *TimetableRepository) BulkInsertWithTx(ctx context.Context, tx *sqlx.Tx, entries []models.TimetableEntry) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	const query = `
INSERT INTO timetable_entries (run_id, requirement_id, lecturer_course_id, class_id, course_id, day_id, slot_id, room_id, stream, semester, academic_year, created_at)
VALUES (:run_id, :requirement_id, :lecturer_course_id, :class_id, :course_id, :day_id, :slot_id, :room_id, :stream, :semester, :academic_year, :created_at)`
	for i := range entries {
		payload := entries[i]
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, query, &payload); err != nil {
			return fmt.Errorf("bulk insert timetable entry: %w", err)
		}
		entries[i] = payload
	}
	return nil
}

// ListRows returns entries joined with display fields, ordered for rendering.
func (r *TimetableRepository) ListRows(ctx context.Context, filter models.StreamFilter) ([]models.TimetableRow, error) {
	const query = `
SELECT d.name AS day_name,
       d.position AS day_position,
       ts.start_time AS slot_start,
       ts.end_time AS slot_end,
       ts.position AS slot_position,
       cl.name AS class_name,
       co.code AS course_code,
       co.name AS course_name,
       le.name AS lecturer_name,
       ro.name AS room_name
FROM timetable_entries te
JOIN days d ON d.id = te.day_id
JOIN time_slots ts ON ts.id = te.slot_id
JOIN rooms ro ON ro.id = te.room_id
JOIN classes cl ON cl.id = te.class_id
JOIN courses co ON co.id = te.course_id
LEFT JOIN lecturer_courses lc ON lc.id = te.lecturer_course_id
LEFT JOIN lecturers le ON le.id = lc.lecturer_id
WHERE te.stream = $1 AND te.semester = $2 AND te.academic_year = $3
ORDER BY d.position ASC, ts.position ASC, cl.name ASC`
	var rows []models.TimetableRow
	if err := r.db.SelectContext(ctx, &rows, query, filter.Stream, filter.Semester, filter.AcademicYear); err != nil {
		return nil, fmt.Errorf("list timetable rows: %w", err)
	}
	return rows, nil
}
