package scheduler

// ViolationKind tags a single constraint breach.
type ViolationKind string

// Hard violations make a timetable unusable; soft violations only degrade
// quality.
const (
	ViolationRoomOccupied     ViolationKind = "ROOM_OCCUPIED"
	ViolationClassOccupied    ViolationKind = "CLASS_OCCUPIED"
	ViolationLecturerOccupied ViolationKind = "LECTURER_OCCUPIED"
	ViolationRoomCapacity     ViolationKind = "ROOM_CAPACITY"
	ViolationBreakSlot        ViolationKind = "BREAK_SLOT"

	ViolationLecturerDailyLoad ViolationKind = "LECTURER_DAILY_LOAD"
	ViolationClassDailyLoad    ViolationKind = "CLASS_DAILY_LOAD"
	ViolationRoomTypeMismatch  ViolationKind = "ROOM_TYPE_MISMATCH"
)

// conflictKey addresses one resource at one grid position. Rooms, classes and
// lecturers each get their own map so ids from different namespaces can never
// collide.
type conflictKey struct {
	DayID      int64
	SlotID     int64
	ResourceID int64
}

type dayResourceKey struct {
	DayID      int64
	ResourceID int64
}

// Occupancy tracks committed placements for one candidate evaluation or one
// repair pass. All lookups are O(1).
type Occupancy struct {
	rooms     map[conflictKey]int64
	classes   map[conflictKey]int64
	lecturers map[conflictKey]int64

	classDaily    map[dayResourceKey]int
	lecturerDaily map[dayResourceKey]int
	roomUse       map[int64]int
}

// NewOccupancy returns empty conflict maps sized for the instance.
func NewOccupancy(inst *Instance) *Occupancy {
	n := len(inst.Requirements)
	return &Occupancy{
		rooms:         make(map[conflictKey]int64, n),
		classes:       make(map[conflictKey]int64, n),
		lecturers:     make(map[conflictKey]int64, n),
		classDaily:    make(map[dayResourceKey]int, n),
		lecturerDaily: make(map[dayResourceKey]int, n),
		roomUse:       make(map[int64]int, len(inst.Rooms)),
	}
}

// Add commits a placement. The first writer keeps each conflict cell; daily
// counters always advance so overloads remain visible.
func (o *Occupancy) Add(req *Requirement, g Gene) {
	roomKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: g.RoomID}
	if _, taken := o.rooms[roomKey]; !taken {
		o.rooms[roomKey] = req.ID
	}
	classKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: req.ClassID}
	if _, taken := o.classes[classKey]; !taken {
		o.classes[classKey] = req.ID
	}
	if req.LecturerID != nil {
		lectKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: *req.LecturerID}
		if _, taken := o.lecturers[lectKey]; !taken {
			o.lecturers[lectKey] = req.ID
		}
		o.lecturerDaily[dayResourceKey{DayID: g.DayID, ResourceID: *req.LecturerID}]++
	}
	o.classDaily[dayResourceKey{DayID: g.DayID, ResourceID: req.ClassID}]++
	o.roomUse[g.RoomID]++
}

// RoomUse returns the number of committed placements in the given room.
func (o *Occupancy) RoomUse(roomID int64) int {
	return o.roomUse[roomID]
}

// Limits holds the soft daily caps. The greedy repair pass enforces them as
// hard to stay deterministic and bounded.
type Limits struct {
	LecturerDailyMax int
	ClassDailyMax    int
}

// Checker evaluates placements against the hard and soft constraint set.
type Checker struct {
	inst   *Instance
	limits Limits
}

// NewChecker builds a checker for the instance.
func NewChecker(inst *Instance, limits Limits) *Checker {
	if limits.LecturerDailyMax <= 0 {
		limits.LecturerDailyMax = 4
	}
	if limits.ClassDailyMax <= 0 {
		limits.ClassDailyMax = 3
	}
	return &Checker{inst: inst, limits: limits}
}

// Limits exposes the daily caps in force.
func (c *Checker) Limits() Limits {
	return c.limits
}

// HardViolations itemizes every hard constraint the candidate gene breaks
// against the committed occupancy. The full list is collected, not
// short-circuited, because fitness reporting needs all of them.
func (c *Checker) HardViolations(req *Requirement, g Gene, occ *Occupancy) []ViolationKind {
	var kinds []ViolationKind

	roomKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: g.RoomID}
	if holder, taken := occ.rooms[roomKey]; taken && holder != req.ID {
		kinds = append(kinds, ViolationRoomOccupied)
	}
	classKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: req.ClassID}
	if holder, taken := occ.classes[classKey]; taken && holder != req.ID {
		kinds = append(kinds, ViolationClassOccupied)
	}
	if req.LecturerID != nil {
		lectKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: *req.LecturerID}
		if holder, taken := occ.lecturers[lectKey]; taken && holder != req.ID {
			kinds = append(kinds, ViolationLecturerOccupied)
		}
	}
	if room, ok := c.inst.RoomByID(g.RoomID); ok && room.Capacity < req.ClassSize {
		kinds = append(kinds, ViolationRoomCapacity)
	}
	if slot, ok := c.inst.SlotByID(g.SlotID); ok && slot.IsBreak {
		kinds = append(kinds, ViolationBreakSlot)
	}

	return kinds
}

// Fits is the short-circuit variant used by placement search: it answers as
// soon as any hard constraint fails.
func (c *Checker) Fits(req *Requirement, g Gene, occ *Occupancy) bool {
	if slot, ok := c.inst.SlotByID(g.SlotID); !ok || slot.IsBreak {
		return false
	}
	if room, ok := c.inst.RoomByID(g.RoomID); !ok || room.Capacity < req.ClassSize {
		return false
	}
	roomKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: g.RoomID}
	if holder, taken := occ.rooms[roomKey]; taken && holder != req.ID {
		return false
	}
	classKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: req.ClassID}
	if holder, taken := occ.classes[classKey]; taken && holder != req.ID {
		return false
	}
	if req.LecturerID != nil {
		lectKey := conflictKey{DayID: g.DayID, SlotID: g.SlotID, ResourceID: *req.LecturerID}
		if holder, taken := occ.lecturers[lectKey]; taken && holder != req.ID {
			return false
		}
	}
	return true
}

// WithinDailyLoad reports whether committing the requirement on the given day
// would stay inside the daily caps.
func (c *Checker) WithinDailyLoad(req *Requirement, dayID int64, occ *Occupancy) bool {
	if occ.classDaily[dayResourceKey{DayID: dayID, ResourceID: req.ClassID}] >= c.limits.ClassDailyMax {
		return false
	}
	if req.LecturerID != nil {
		if occ.lecturerDaily[dayResourceKey{DayID: dayID, ResourceID: *req.LecturerID}] >= c.limits.LecturerDailyMax {
			return false
		}
	}
	return true
}

// DailyLoadViolations itemizes soft cap overruns accumulated in the
// occupancy: one violation per session above the cap.
func (c *Checker) DailyLoadViolations(occ *Occupancy) []Violation {
	var out []Violation
	for key, count := range occ.lecturerDaily {
		for over := count - c.limits.LecturerDailyMax; over > 0; over-- {
			out = append(out, Violation{
				Kind:       ViolationLecturerDailyLoad,
				ResourceID: key.ResourceID,
				DayID:      key.DayID,
			})
		}
	}
	for key, count := range occ.classDaily {
		for over := count - c.limits.ClassDailyMax; over > 0; over-- {
			out = append(out, Violation{
				Kind:       ViolationClassDailyLoad,
				ResourceID: key.ResourceID,
				DayID:      key.DayID,
			})
		}
	}
	return out
}

// RoomTypeScore is 0 when the room matches the course's preferred type or the
// course has no preference, and a positive penalty otherwise.
func (c *Checker) RoomTypeScore(req *Requirement, room *Room) int {
	if req.PreferredRoomType == "" || req.PreferredRoomType == room.Type {
		return 0
	}
	return 1
}
