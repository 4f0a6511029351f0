package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// InstanceRepository reads the scheduling problem instance: resource pool and
// teaching requirements.
type InstanceRepository struct {
	db *sqlx.DB
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(db *sqlx.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// ListActiveDays returns teaching days in week order.
func (r *InstanceRepository) ListActiveDays(ctx context.Context) ([]models.Day, error) {
	const query = `SELECT id, name, position, active FROM days WHERE active = TRUE ORDER BY position ASC`
	var days []models.Day
	if err := r.db.SelectContext(ctx, &days, query); err != nil {
		return nil, fmt.Errorf("list active days: %w", err)
	}
	return days, nil
}

// ListTimeSlots returns the daily slot grid in order, break slots included.
func (r *InstanceRepository) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, start_time, end_time, is_break, position FROM time_slots ORDER BY position ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// ListActiveRooms returns usable rooms.
func (r *InstanceRepository) ListActiveRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, capacity, room_type, active FROM rooms WHERE active = TRUE ORDER BY id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// ListRequirements returns the active class-course obligations for the given
// scope, with the lecturer assignment joined in when one exists.
func (r *InstanceRepository) ListRequirements(ctx context.Context, filter models.StreamFilter) ([]models.Requirement, error) {
	const query = `
SELECT cc.id,
       cc.class_id,
       cl.name AS class_name,
       cl.size AS class_size,
       cc.course_id,
       co.code AS course_code,
       co.name AS course_name,
       lc.id AS lecturer_course_id,
       lc.lecturer_id,
       le.name AS lecturer_name,
       cc.weekly_hours,
       cc.semester,
       cc.academic_year,
       cl.stream
FROM class_courses cc
JOIN classes cl ON cl.id = cc.class_id
JOIN courses co ON co.id = cc.course_id
LEFT JOIN lecturer_courses lc ON lc.class_course_id = cc.id
LEFT JOIN lecturers le ON le.id = lc.lecturer_id
WHERE cc.active = TRUE
  AND cl.stream = $1
  AND cc.semester = $2
  AND cc.academic_year = $3
ORDER BY cc.id ASC`
	var reqs []models.Requirement
	if err := r.db.SelectContext(ctx, &reqs, query, filter.Stream, filter.Semester, filter.AcademicYear); err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return reqs, nil
}

// ListRoomTypePreferences returns the course to room-type preference table.
func (r *InstanceRepository) ListRoomTypePreferences(ctx context.Context) ([]models.RoomTypePreference, error) {
	const query = `SELECT course_id, room_type FROM room_type_preferences`
	var prefs []models.RoomTypePreference
	if err := r.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, fmt.Errorf("list room type preferences: %w", err)
	}
	return prefs, nil
}
