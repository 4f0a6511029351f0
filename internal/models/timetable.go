package models

import "time"

// TimetableEntry is one persisted placement: a requirement taught on a day,
// in a slot, in a room. Entries are written once per generation run and never
// mutated by the generator afterwards.
type TimetableEntry struct {
	ID               int64     `db:"id" json:"id"`
	RunID            string    `db:"run_id" json:"run_id"`
	RequirementID    int64     `db:"requirement_id" json:"requirement_id"`
	LecturerCourseID *int64    `db:"lecturer_course_id" json:"lecturer_course_id,omitempty"`
	ClassID          int64     `db:"class_id" json:"class_id"`
	CourseID         int64     `db:"course_id" json:"course_id"`
	DayID            int64     `db:"day_id" json:"day_id"`
	SlotID           int64     `db:"slot_id" json:"slot_id"`
	RoomID           int64     `db:"room_id" json:"room_id"`
	Stream           string    `db:"stream" json:"stream"`
	Semester         int       `db:"semester" json:"semester"`
	AcademicYear     string    `db:"academic_year" json:"academic_year"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// TimetableRow is an entry joined with its display fields for listings and
// exports.
type TimetableRow struct {
	DayName      string  `db:"day_name" json:"day_name"`
	DayPosition  int     `db:"day_position" json:"-"`
	SlotStart    string  `db:"slot_start" json:"slot_start"`
	SlotEnd      string  `db:"slot_end" json:"slot_end"`
	SlotPosition int     `db:"slot_position" json:"-"`
	ClassName    string  `db:"class_name" json:"class_name"`
	CourseCode   string  `db:"course_code" json:"course_code"`
	CourseName   string  `db:"course_name" json:"course_name"`
	LecturerName *string `db:"lecturer_name" json:"lecturer_name,omitempty"`
	RoomName     string  `db:"room_name" json:"room_name"`
}
