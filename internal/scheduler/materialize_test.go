package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeEmitsInstanceOrder(t *testing.T) {
	inst := gridInstance(2, 2, []int{40}, []Requirement{
		testReq(3, 103, 30, nil),
		testReq(1, 101, 30, nil),
		testReq(2, 102, 30, nil),
	})

	committed := []Gene{
		{RequirementID: 1, DayID: 1, SlotID: 1, RoomID: 1},
		{RequirementID: 3, DayID: 2, SlotID: 2, RoomID: 1},
	}
	repaired := []Gene{
		{RequirementID: 2, DayID: 2, SlotID: 1, RoomID: 1},
	}

	entries := Materialize(inst, committed, repaired)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[0].RequirementID)
	assert.Equal(t, int64(1), entries[1].RequirementID)
	assert.Equal(t, int64(2), entries[2].RequirementID)
}

func TestMaterializeRepairedOverridesCommitted(t *testing.T) {
	inst := gridInstance(2, 2, []int{40}, []Requirement{
		testReq(1, 101, 30, nil),
	})

	committed := []Gene{{RequirementID: 1, DayID: 1, SlotID: 1, RoomID: 1}}
	repaired := []Gene{{RequirementID: 1, DayID: 2, SlotID: 2, RoomID: 1}}

	entries := Materialize(inst, committed, repaired)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].DayID, "repair placement wins for the same requirement")
}

func TestMaterializeSkipsUnplacedRequirements(t *testing.T) {
	inst := gridInstance(2, 2, []int{40}, []Requirement{
		testReq(1, 101, 30, nil),
		testReq(2, 102, 30, nil),
	})

	committed := []Gene{{RequirementID: 2, DayID: 1, SlotID: 1, RoomID: 1}}

	entries := Materialize(inst, committed, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].RequirementID)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	inst := gridInstance(2, 2, []int{40}, []Requirement{
		testReq(1, 101, 30, nil),
		testReq(2, 102, 30, nil),
	})
	committed := []Gene{
		{RequirementID: 1, DayID: 1, SlotID: 1, RoomID: 1},
		{RequirementID: 2, DayID: 1, SlotID: 2, RoomID: 1},
	}

	first := Materialize(inst, committed, nil)
	second := Materialize(inst, committed, nil)
	assert.Equal(t, first, second)
}

func TestMaterializeCarriesLecturerCourse(t *testing.T) {
	req := testReq(1, 101, 30, lecturer(7))
	lcID := int64(55)
	req.LecturerCourseID = &lcID
	inst := gridInstance(1, 1, []int{40}, []Requirement{req})

	entries := Materialize(inst, []Gene{{RequirementID: 1, DayID: 1, SlotID: 1, RoomID: 1}}, nil)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].LecturerCourseID)
	assert.Equal(t, int64(55), *entries[0].LecturerCourseID)
}
