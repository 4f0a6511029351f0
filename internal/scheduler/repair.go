package scheduler

import "sort"

// UnscheduledReason codes why the repair pass could not place a requirement.
type UnscheduledReason string

const (
	ReasonNoLecturer        UnscheduledReason = "NO_LECTURER"
	ReasonNoSuitableRoom    UnscheduledReason = "NO_SUITABLE_ROOM"
	ReasonNoSlotCapacity    UnscheduledReason = "NO_SLOT_CAPACITY"
	ReasonConflictExhausted UnscheduledReason = "CONFLICT_EXHAUSTED"
)

// Unscheduled reports one requirement the run could not place.
type Unscheduled struct {
	RequirementID int64             `json:"requirement_id"`
	CourseCode    string            `json:"course_code"`
	ClassID       int64             `json:"class_id"`
	Reason        UnscheduledReason `json:"reason"`
}

// Repairer is the deterministic first-fit fallback run after the GA. It
// trades optimality for guaranteed termination: at most one pass over
// requirements x days x slots x rooms.
type Repairer struct {
	inst    *Instance
	checker *Checker
}

// NewRepairer builds the fallback scheduler.
func NewRepairer(inst *Instance, checker *Checker) *Repairer {
	return &Repairer{inst: inst, checker: checker}
}

// SplitCommitted walks the best chromosome in gene order, commits every gene
// that clears all hard checks and the daily caps, and returns the rest as
// pending work for the repair pass. The returned occupancy is the committed
// baseline.
func (r *Repairer) SplitCommitted(best *Chromosome) ([]Gene, []Requirement, *Occupancy) {
	occ := NewOccupancy(r.inst)
	committed := make([]Gene, 0, len(best.Genes))
	var pending []Requirement

	for i := range best.Genes {
		g := best.Genes[i]
		req := &r.inst.Requirements[i]
		if r.checker.Fits(req, g, occ) && r.checker.WithinDailyLoad(req, g.DayID, occ) {
			occ.Add(req, g)
			committed = append(committed, g)
			continue
		}
		pending = append(pending, *req)
	}

	return committed, pending, occ
}

// Place attempts to schedule each pending requirement into the first
// conflict-free day/slot/room combination, treating the daily caps as hard.
// Requirements are tried in priority order: lecturer-assigned before
// unassigned, larger class size before smaller, course code as final
// tie-break.
func (r *Repairer) Place(pending []Requirement, occ *Occupancy) ([]Gene, []Unscheduled) {
	ordered := make([]Requirement, len(pending))
	copy(ordered, pending)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if (a.LecturerID != nil) != (b.LecturerID != nil) {
			return a.LecturerID != nil
		}
		if a.ClassSize != b.ClassSize {
			return a.ClassSize > b.ClassSize
		}
		if a.CourseCode != b.CourseCode {
			return a.CourseCode < b.CourseCode
		}
		return a.ID < b.ID
	})

	placed := make([]Gene, 0, len(ordered))
	var unscheduled []Unscheduled

	for i := range ordered {
		req := ordered[i]
		gene, reason := r.placeOne(&req, occ)
		if reason != "" {
			unscheduled = append(unscheduled, Unscheduled{
				RequirementID: req.ID,
				CourseCode:    req.CourseCode,
				ClassID:       req.ClassID,
				Reason:        reason,
			})
			continue
		}
		occ.Add(&req, gene)
		placed = append(placed, gene)
	}

	return placed, unscheduled
}

func (r *Repairer) placeOne(req *Requirement, occ *Occupancy) (Gene, UnscheduledReason) {
	rooms := r.candidateRooms(req, occ)
	if len(rooms) == 0 {
		return Gene{}, ReasonNoSuitableRoom
	}

	freeClassSlot := false
	for _, day := range r.inst.Days {
		if !r.checker.WithinDailyLoad(req, day.ID, occ) {
			continue
		}
		for _, slotIdx := range r.inst.teachingSlots {
			slot := r.inst.Slots[slotIdx]
			classKey := conflictKey{DayID: day.ID, SlotID: slot.ID, ResourceID: req.ClassID}
			if _, taken := occ.classes[classKey]; taken {
				continue
			}
			freeClassSlot = true
			for _, room := range rooms {
				g := Gene{RequirementID: req.ID, DayID: day.ID, SlotID: slot.ID, RoomID: room.ID}
				if r.checker.Fits(req, g, occ) {
					return g, ""
				}
			}
		}
	}

	if !freeClassSlot {
		return Gene{}, ReasonNoSlotCapacity
	}
	return Gene{}, ReasonConflictExhausted
}

// candidateRooms returns capacity-sufficient rooms ordered by preferred room
// type first, then current usage so placements spread across the pool, then
// id for determinism.
func (r *Repairer) candidateRooms(req *Requirement, occ *Occupancy) []Room {
	rooms := make([]Room, 0, len(r.inst.Rooms))
	for _, room := range r.inst.Rooms {
		if room.Capacity >= req.ClassSize {
			rooms = append(rooms, room)
		}
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := rooms[i], rooms[j]
		prefA := r.checker.RoomTypeScore(req, &a)
		prefB := r.checker.RoomTypeScore(req, &b)
		if prefA != prefB {
			return prefA < prefB
		}
		useA, useB := occ.RoomUse(a.ID), occ.RoomUse(b.ID)
		if useA != useB {
			return useA < useB
		}
		return a.ID < b.ID
	})
	return rooms
}
