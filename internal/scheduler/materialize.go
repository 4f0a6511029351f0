package scheduler

// Entry is a materialized placement ready for persistence. Created once and
// never mutated by the core afterwards.
type Entry struct {
	RequirementID    int64
	LecturerCourseID *int64
	ClassID          int64
	CourseID         int64
	DayID            int64
	SlotID           int64
	RoomID           int64
}

// Materialize converts the committed GA genes plus the repair additions into
// persistable entries. Entries are deduplicated by requirement id with the
// last writer winning, and emitted in instance requirement order so repeated
// calls on the same input produce identical output.
func Materialize(inst *Instance, committed, repaired []Gene) []Entry {
	byReq := make(map[int64]Gene, len(committed)+len(repaired))
	for _, g := range committed {
		byReq[g.RequirementID] = g
	}
	for _, g := range repaired {
		byReq[g.RequirementID] = g
	}

	entries := make([]Entry, 0, len(byReq))
	for i := range inst.Requirements {
		req := &inst.Requirements[i]
		g, ok := byReq[req.ID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			RequirementID:    req.ID,
			LecturerCourseID: req.LecturerCourseID,
			ClassID:          req.ClassID,
			CourseID:         req.CourseID,
			DayID:            g.DayID,
			SlotID:           g.SlotID,
			RoomID:           g.RoomID,
		})
	}
	return entries
}
