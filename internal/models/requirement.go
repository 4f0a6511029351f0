package models

// Requirement is one class-course teaching obligation for a stream, semester
// and academic year. LecturerCourseID and LecturerID are nil when no lecturer
// has been assigned yet; such requirements are still scheduled, they just
// carry no lecturer conflict dimension and a degraded repair priority.
type Requirement struct {
	ID               int64   `db:"id" json:"id"`
	ClassID          int64   `db:"class_id" json:"class_id"`
	ClassName        string  `db:"class_name" json:"class_name"`
	ClassSize        int     `db:"class_size" json:"class_size"`
	CourseID         int64   `db:"course_id" json:"course_id"`
	CourseCode       string  `db:"course_code" json:"course_code"`
	CourseName       string  `db:"course_name" json:"course_name"`
	LecturerCourseID *int64  `db:"lecturer_course_id" json:"lecturer_course_id,omitempty"`
	LecturerID       *int64  `db:"lecturer_id" json:"lecturer_id,omitempty"`
	LecturerName     *string `db:"lecturer_name" json:"lecturer_name,omitempty"`
	WeeklyHours      int     `db:"weekly_hours" json:"weekly_hours"`
	Semester         int     `db:"semester" json:"semester"`
	AcademicYear     string  `db:"academic_year" json:"academic_year"`
	Stream           string  `db:"stream" json:"stream"`
}

// StreamFilter scopes a generation run to one institutional context.
type StreamFilter struct {
	Stream       string `json:"stream"`
	Semester     int    `json:"semester"`
	AcademicYear string `json:"academic_year"`
}
