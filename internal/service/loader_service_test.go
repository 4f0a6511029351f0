package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

func TestLoaderBuildsInstance(t *testing.T) {
	reader := newInstanceReaderStub()
	loader := NewLoaderService(reader, zap.NewNop())

	inst, skipped, err := loader.Load(context.Background(), testFilter(), false)
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Empty(t, skipped)
	assert.Len(t, inst.Requirements, 3)
	assert.Len(t, inst.Days, 2)
	assert.Len(t, inst.TeachingSlots(), 2, "break slots are excluded from teaching positions")
	assert.True(t, inst.Schedulable())

	req, ok := inst.RequirementByID(1)
	require.True(t, ok)
	assert.Equal(t, 3, req.WeeklyHours, "demanded hours carry into the instance")
	assert.Equal(t, 7*2*2*2, inst.Size(), "effort measure weights requirements by weekly hours")
}

func TestLoaderAttachesRoomTypePreferences(t *testing.T) {
	reader := newInstanceReaderStub()
	reader.prefs = []models.RoomTypePreference{{CourseID: 20, RoomType: "LAB"}}
	loader := NewLoaderService(reader, zap.NewNop())

	inst, _, err := loader.Load(context.Background(), testFilter(), false)
	require.NoError(t, err)

	req, ok := inst.RequirementByID(2)
	require.True(t, ok)
	assert.Equal(t, "LAB", req.PreferredRoomType)

	other, ok := inst.RequirementByID(1)
	require.True(t, ok)
	assert.Empty(t, other.PreferredRoomType)
}

func TestLoaderEnumeratesAllMissingPrerequisites(t *testing.T) {
	reader := newInstanceReaderStub()
	reader.days = nil
	reader.slots = []models.TimeSlot{{ID: 1, StartTime: "10:00", EndTime: "10:30", IsBreak: true, Position: 1}}
	reader.rooms = nil
	reader.requirements = nil
	loader := NewLoaderService(reader, zap.NewNop())

	_, _, err := loader.Load(context.Background(), testFilter(), false)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDataIncomplete.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "no active days")
	assert.Contains(t, appErr.Message, "no non-break time slots")
	assert.Contains(t, appErr.Message, "no active rooms")
	assert.Contains(t, appErr.Message, "no class-course requirements")
}

func TestLoaderSkipsUnassignedWhenLecturersRequired(t *testing.T) {
	reader := newInstanceReaderStub()
	loader := NewLoaderService(reader, zap.NewNop())

	inst, skipped, err := loader.Load(context.Background(), testFilter(), true)
	require.NoError(t, err)
	assert.Len(t, inst.Requirements, 2)
	require.Len(t, skipped, 1)
	assert.Equal(t, int64(3), skipped[0].RequirementID)
	assert.Equal(t, scheduler.ReasonNoLecturer, skipped[0].Reason)

	_, ok := inst.RequirementByID(3)
	assert.False(t, ok)
}

func TestLoaderFailsWhenNothingHasALecturer(t *testing.T) {
	reader := newInstanceReaderStub()
	for i := range reader.requirements {
		reader.requirements[i].LecturerID = nil
		reader.requirements[i].LecturerCourseID = nil
	}
	loader := NewLoaderService(reader, zap.NewNop())

	_, skipped, err := loader.Load(context.Background(), testFilter(), true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDataIncomplete.Code, appErrors.FromError(err).Code)
	assert.Len(t, skipped, 3)
}

// --- Fixtures ---

type instanceReaderStub struct {
	days         []models.Day
	slots        []models.TimeSlot
	rooms        []models.Room
	requirements []models.Requirement
	prefs        []models.RoomTypePreference
}

func newInstanceReaderStub() *instanceReaderStub {
	lect1, lect2 := int64(7), int64(8)
	lc1, lc2 := int64(71), int64(81)
	return &instanceReaderStub{
		days: []models.Day{
			{ID: 1, Name: "Monday", Position: 1, Active: true},
			{ID: 2, Name: "Tuesday", Position: 2, Active: true},
		},
		slots: []models.TimeSlot{
			{ID: 1, StartTime: "08:00", EndTime: "09:00", Position: 1},
			{ID: 2, StartTime: "09:00", EndTime: "09:30", IsBreak: true, Position: 2},
			{ID: 3, StartTime: "09:30", EndTime: "10:30", Position: 3},
		},
		rooms: []models.Room{
			{ID: 1, Name: "LT1", Capacity: 60, RoomType: "LECTURE", Active: true},
			{ID: 2, Name: "Lab A", Capacity: 30, RoomType: "LAB", Active: true},
		},
		requirements: []models.Requirement{
			{ID: 1, ClassID: 101, ClassSize: 40, CourseID: 10, CourseCode: "CSC101", LecturerCourseID: &lc1, LecturerID: &lect1, WeeklyHours: 3},
			{ID: 2, ClassID: 102, ClassSize: 25, CourseID: 20, CourseCode: "CSC205", LecturerCourseID: &lc2, LecturerID: &lect2, WeeklyHours: 2},
			{ID: 3, ClassID: 103, ClassSize: 35, CourseID: 30, CourseCode: "MTH110", WeeklyHours: 2},
		},
	}
}

func (s *instanceReaderStub) ListActiveDays(ctx context.Context) ([]models.Day, error) {
	return s.days, nil
}

func (s *instanceReaderStub) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	return s.slots, nil
}

func (s *instanceReaderStub) ListActiveRooms(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

func (s *instanceReaderStub) ListRequirements(ctx context.Context, filter models.StreamFilter) ([]models.Requirement, error) {
	return s.requirements, nil
}

func (s *instanceReaderStub) ListRoomTypePreferences(ctx context.Context) ([]models.RoomTypePreference, error) {
	return s.prefs, nil
}

func testFilter() models.StreamFilter {
	return models.StreamFilter{Stream: "CS", Semester: 1, AcademicYear: "2025/2026"}
}
