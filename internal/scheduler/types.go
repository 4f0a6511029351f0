// Package scheduler implements the timetable generation core: a genetic
// algorithm over full candidate timetables followed by a deterministic greedy
// repair pass. The package is pure in-memory computation; persistence and
// transport live with the caller.
package scheduler

// Day is one teaching day of the scheduling grid.
type Day struct {
	ID       int64
	Name     string
	Position int
}

// TimeSlot is one period of the daily grid.
type TimeSlot struct {
	ID       int64
	Start    string
	End      string
	IsBreak  bool
	Position int
}

// Room is a teaching venue.
type Room struct {
	ID       int64
	Name     string
	Capacity int
	Type     string
}

// Requirement is one class-course obligation participating in a run.
// LecturerID is nil when no lecturer is assigned; placement then carries no
// lecturer conflict dimension. WeeklyHours is the demanded contact hours per
// week; the run places one session per requirement, and the hours weight the
// instance's search-effort measure. Values below 1 count as 1.
type Requirement struct {
	ID                int64
	ClassID           int64
	ClassSize         int
	CourseID          int64
	CourseCode        string
	LecturerCourseID  *int64
	LecturerID        *int64
	WeeklyHours       int
	PreferredRoomType string
}

// Instance is the immutable problem snapshot shared by every candidate in a
// run. It is never mutated during optimization.
type Instance struct {
	Days         []Day
	Slots        []TimeSlot
	Rooms        []Room
	Requirements []Requirement

	teachingSlots []int
	reqIndex      map[int64]int
	roomIndex     map[int64]int
	slotIndex     map[int64]int
	demand        int
}

// NewInstance builds the run snapshot and its lookup indexes.
func NewInstance(days []Day, slots []TimeSlot, rooms []Room, reqs []Requirement) *Instance {
	inst := &Instance{
		Days:         days,
		Slots:        slots,
		Rooms:        rooms,
		Requirements: reqs,
		reqIndex:     make(map[int64]int, len(reqs)),
		roomIndex:    make(map[int64]int, len(rooms)),
		slotIndex:    make(map[int64]int, len(slots)),
	}
	for i, slot := range slots {
		inst.slotIndex[slot.ID] = i
		if !slot.IsBreak {
			inst.teachingSlots = append(inst.teachingSlots, i)
		}
	}
	for i, req := range reqs {
		inst.reqIndex[req.ID] = i
		hours := req.WeeklyHours
		if hours < 1 {
			hours = 1
		}
		inst.demand += hours
	}
	for i, room := range rooms {
		inst.roomIndex[room.ID] = i
	}
	return inst
}

// TeachingSlots returns the indexes of non-break slots in grid order.
func (in *Instance) TeachingSlots() []int {
	return in.teachingSlots
}

// RequirementByID returns the requirement participating in this run, if any.
func (in *Instance) RequirementByID(id int64) (*Requirement, bool) {
	idx, ok := in.reqIndex[id]
	if !ok {
		return nil, false
	}
	return &in.Requirements[idx], true
}

// RoomByID returns a room from the pool.
func (in *Instance) RoomByID(id int64) (*Room, bool) {
	idx, ok := in.roomIndex[id]
	if !ok {
		return nil, false
	}
	return &in.Rooms[idx], true
}

// SlotByID returns a slot from the grid.
func (in *Instance) SlotByID(id int64) (*TimeSlot, bool) {
	idx, ok := in.slotIndex[id]
	if !ok {
		return nil, false
	}
	return &in.Slots[idx], true
}

// Size is the search-space measure used for adaptive parameter tuning:
// demanded weekly hours times available placement combinations. A requirement
// asking for more contact hours pushes the engine toward the larger-instance
// parameter tiers.
func (in *Instance) Size() int {
	return in.demand * len(in.Days) * len(in.teachingSlots) * len(in.Rooms)
}

// Schedulable reports whether the instance has at least one placement
// combination to offer.
func (in *Instance) Schedulable() bool {
	return len(in.Days) > 0 && len(in.teachingSlots) > 0 && len(in.Rooms) > 0 && len(in.Requirements) > 0
}
