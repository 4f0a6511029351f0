package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type instanceReader interface {
	ListActiveDays(ctx context.Context) ([]models.Day, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
	ListActiveRooms(ctx context.Context) ([]models.Room, error)
	ListRequirements(ctx context.Context, filter models.StreamFilter) ([]models.Requirement, error)
	ListRoomTypePreferences(ctx context.Context) ([]models.RoomTypePreference, error)
}

// LoaderService assembles the in-memory problem instance for one run and
// refuses to hand over an incomplete one.
type LoaderService struct {
	repo   instanceReader
	logger *zap.Logger
}

// NewLoaderService wires the loader.
func NewLoaderService(repo instanceReader, logger *zap.Logger) *LoaderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoaderService{repo: repo, logger: logger}
}

// Load reads the resource pool and requirement list for the filter scope.
// When requireLecturers is set, requirements lacking an assigned lecturer are
// excluded from optimization and reported immediately as unscheduled.
// Every missing prerequisite is enumerated in a single DataIncomplete error so
// operators can fix the data in one pass.
func (s *LoaderService) Load(ctx context.Context, filter models.StreamFilter, requireLecturers bool) (*scheduler.Instance, []scheduler.Unscheduled, error) {
	days, err := s.repo.ListActiveDays(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load days")
	}
	slots, err := s.repo.ListTimeSlots(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	rooms, err := s.repo.ListActiveRooms(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	requirements, err := s.repo.ListRequirements(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirements")
	}
	prefs, err := s.repo.ListRoomTypePreferences(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room type preferences")
	}

	teaching := 0
	for _, slot := range slots {
		if !slot.IsBreak {
			teaching++
		}
	}

	var missing []string
	if len(days) == 0 {
		missing = append(missing, "no active days")
	}
	if teaching == 0 {
		missing = append(missing, "no non-break time slots")
	}
	if len(rooms) == 0 {
		missing = append(missing, "no active rooms")
	}
	if len(requirements) == 0 {
		missing = append(missing, "no class-course requirements for the requested scope")
	}
	if len(missing) > 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrDataIncomplete, "cannot generate timetable: "+strings.Join(missing, "; "))
	}

	prefByCourse := make(map[int64]string, len(prefs))
	for _, pref := range prefs {
		prefByCourse[pref.CourseID] = pref.RoomType
	}

	var skipped []scheduler.Unscheduled
	reqs := make([]scheduler.Requirement, 0, len(requirements))
	for _, row := range requirements {
		if requireLecturers && row.LecturerID == nil {
			skipped = append(skipped, scheduler.Unscheduled{
				RequirementID: row.ID,
				CourseCode:    row.CourseCode,
				ClassID:       row.ClassID,
				Reason:        scheduler.ReasonNoLecturer,
			})
			continue
		}
		reqs = append(reqs, scheduler.Requirement{
			ID:                row.ID,
			ClassID:           row.ClassID,
			ClassSize:         row.ClassSize,
			CourseID:          row.CourseID,
			CourseCode:        row.CourseCode,
			LecturerCourseID:  row.LecturerCourseID,
			LecturerID:        row.LecturerID,
			WeeklyHours:       row.WeeklyHours,
			PreferredRoomType: prefByCourse[row.CourseID],
		})
	}
	if len(reqs) == 0 {
		return nil, skipped, appErrors.Clone(appErrors.ErrDataIncomplete, "cannot generate timetable: no requirement has an assigned lecturer")
	}

	instDays := make([]scheduler.Day, len(days))
	for i, d := range days {
		instDays[i] = scheduler.Day{ID: d.ID, Name: d.Name, Position: d.Position}
	}
	instSlots := make([]scheduler.TimeSlot, len(slots))
	for i, ts := range slots {
		instSlots[i] = scheduler.TimeSlot{ID: ts.ID, Start: ts.StartTime, End: ts.EndTime, IsBreak: ts.IsBreak, Position: ts.Position}
	}
	instRooms := make([]scheduler.Room, len(rooms))
	for i, ro := range rooms {
		instRooms[i] = scheduler.Room{ID: ro.ID, Name: ro.Name, Capacity: ro.Capacity, Type: ro.RoomType}
	}

	inst := scheduler.NewInstance(instDays, instSlots, instRooms, reqs)
	s.logger.Debug("instance loaded",
		zap.String("stream", filter.Stream),
		zap.Int("semester", filter.Semester),
		zap.String("academic_year", filter.AcademicYear),
		zap.Int("requirements", len(reqs)),
		zap.Int("days", len(instDays)),
		zap.Int("slots", len(instSlots)),
		zap.Int("rooms", len(instRooms)),
	)
	return inst, skipped, nil
}
