package models

// Day is one teaching day of the institutional week.
type Day struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Position int    `db:"position" json:"position"`
	Active   bool   `db:"active" json:"active"`
}

// TimeSlot is one period of the daily grid. Break slots exist in the grid
// but never receive teaching assignments.
type TimeSlot struct {
	ID        int64  `db:"id" json:"id"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	IsBreak   bool   `db:"is_break" json:"is_break"`
	Position  int    `db:"position" json:"position"`
}

// Room is a teaching venue with a fixed capacity and type.
type Room struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
	RoomType string `db:"room_type" json:"room_type"`
	Active   bool   `db:"active" json:"active"`
}

// RoomTypePreference maps a course to the room type it should be taught in.
type RoomTypePreference struct {
	CourseID int64  `db:"course_id" json:"course_id"`
	RoomType string `db:"room_type" json:"room_type"`
}
