package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommittedKeepsConflictFreeGenes(t *testing.T) {
	inst := gridInstance(2, 2, []int{40, 40}, []Requirement{
		testReq(1, 101, 30, lecturer(7)),
		testReq(2, 102, 30, lecturer(8)),
	})
	repairer := NewRepairer(inst, NewChecker(inst, Limits{}))

	best := &Chromosome{Genes: []Gene{
		{RequirementID: 1, DayID: 1, SlotID: 1, RoomID: 1},
		{RequirementID: 2, DayID: 1, SlotID: 1, RoomID: 1},
	}}

	committed, pending, occ := repairer.SplitCommitted(best)
	require.Len(t, committed, 1)
	assert.Equal(t, int64(1), committed[0].RequirementID)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].ID)
	assert.Equal(t, 1, occ.RoomUse(1))
}

func TestRepairPlacesEverythingWhenCapacitySuffices(t *testing.T) {
	inst := gridInstance(2, 2, []int{40, 40}, []Requirement{
		testReq(1, 101, 30, lecturer(7)),
		testReq(2, 102, 30, lecturer(8)),
		testReq(3, 103, 30, lecturer(9)),
	})
	repairer := NewRepairer(inst, NewChecker(inst, Limits{}))

	// Worst case: every gene on the same cell, so two go to repair.
	best := &Chromosome{Genes: []Gene{
		{RequirementID: 1, DayID: 1, SlotID: 1, RoomID: 1},
		{RequirementID: 2, DayID: 1, SlotID: 1, RoomID: 1},
		{RequirementID: 3, DayID: 1, SlotID: 1, RoomID: 1},
	}}

	committed, pending, occ := repairer.SplitCommitted(best)
	placed, unscheduled := repairer.Place(pending, occ)

	assert.Empty(t, unscheduled)
	assert.Len(t, committed, 1)
	assert.Len(t, placed, 2)

	entries := Materialize(inst, committed, placed)
	require.Len(t, entries, 3)

	verify := NewOccupancy(inst)
	checker := NewChecker(inst, Limits{})
	for _, entry := range entries {
		req, ok := inst.RequirementByID(entry.RequirementID)
		require.True(t, ok)
		g := Gene{RequirementID: entry.RequirementID, DayID: entry.DayID, SlotID: entry.SlotID, RoomID: entry.RoomID}
		assert.True(t, checker.Fits(req, g, verify), "materialized entries are conflict free")
		verify.Add(req, g)
	}
}

func TestRepairReportsExhaustionOnOverbooking(t *testing.T) {
	inst := gridInstance(1, 1, []int{40}, []Requirement{
		testReq(1, 101, 30, lecturer(7)),
		testReq(2, 102, 30, lecturer(8)),
		testReq(3, 103, 30, lecturer(9)),
		testReq(4, 104, 30, lecturer(10)),
		testReq(5, 105, 30, lecturer(11)),
	})
	repairer := NewRepairer(inst, NewChecker(inst, Limits{}))

	pending := append([]Requirement(nil), inst.Requirements...)
	occ := NewOccupancy(inst)
	placed, unscheduled := repairer.Place(pending, occ)

	assert.Len(t, placed, 1, "one placement cell serves exactly one requirement")
	require.Len(t, unscheduled, 4)
	for _, item := range unscheduled {
		assert.Equal(t, ReasonConflictExhausted, item.Reason)
	}
}

func TestRepairReportsNoSuitableRoom(t *testing.T) {
	inst := gridInstance(2, 2, []int{50}, []Requirement{
		testReq(1, 101, 60, nil),
	})
	repairer := NewRepairer(inst, NewChecker(inst, Limits{}))

	placed, unscheduled := repairer.Place(append([]Requirement(nil), inst.Requirements...), NewOccupancy(inst))
	assert.Empty(t, placed)
	require.Len(t, unscheduled, 1)
	assert.Equal(t, ReasonNoSuitableRoom, unscheduled[0].Reason)
	assert.Equal(t, int64(1), unscheduled[0].RequirementID)
}

func TestRepairReportsNoSlotCapacityForClass(t *testing.T) {
	// Three requirements of the same class but only two teaching slots: the
	// class itself runs out of grid positions before any conflict arises.
	inst := gridInstance(1, 2, []int{40, 40}, []Requirement{
		testReq(1, 101, 30, nil),
		testReq(2, 101, 30, nil),
		testReq(3, 101, 30, nil),
	})
	repairer := NewRepairer(inst, NewChecker(inst, Limits{}))

	placed, unscheduled := repairer.Place(append([]Requirement(nil), inst.Requirements...), NewOccupancy(inst))
	assert.Len(t, placed, 2)
	require.Len(t, unscheduled, 1)
	assert.Equal(t, ReasonNoSlotCapacity, unscheduled[0].Reason)
}

func TestRepairPrioritisesLecturerAssignedRequirements(t *testing.T) {
	inst := gridInstance(1, 1, []int{40}, []Requirement{
		testReq(1, 101, 30, nil),
		testReq(2, 102, 30, lecturer(7)),
	})
	repairer := NewRepairer(inst, NewChecker(inst, Limits{}))

	placed, unscheduled := repairer.Place(append([]Requirement(nil), inst.Requirements...), NewOccupancy(inst))
	require.Len(t, placed, 1)
	assert.Equal(t, int64(2), placed[0].RequirementID, "lecturer-assigned work wins contention")
	require.Len(t, unscheduled, 1)
	assert.Equal(t, int64(1), unscheduled[0].RequirementID)
}

func TestRepairSpreadsAcrossRooms(t *testing.T) {
	inst := gridInstance(1, 2, []int{40, 40}, []Requirement{
		testReq(1, 101, 30, nil),
		testReq(2, 102, 30, nil),
	})
	repairer := NewRepairer(inst, NewChecker(inst, Limits{}))

	placed, unscheduled := repairer.Place(append([]Requirement(nil), inst.Requirements...), NewOccupancy(inst))
	assert.Empty(t, unscheduled)
	require.Len(t, placed, 2)
	assert.NotEqual(t, placed[0].RoomID, placed[1].RoomID, "least-used room ordering spreads load")
}

func TestRepairIsDeterministic(t *testing.T) {
	run := func() ([]Gene, []Unscheduled) {
		inst := gridInstance(2, 3, []int{30, 60}, []Requirement{
			testReq(1, 101, 50, lecturer(7)),
			testReq(2, 102, 20, lecturer(7)),
			testReq(3, 103, 55, lecturer(8)),
			testReq(4, 104, 25, nil),
		})
		repairer := NewRepairer(inst, NewChecker(inst, Limits{}))
		return repairer.Place(append([]Requirement(nil), inst.Requirements...), NewOccupancy(inst))
	}

	placedA, unschedA := run()
	placedB, unschedB := run()
	assert.Equal(t, placedA, placedB)
	assert.Equal(t, unschedA, unschedB)
}
