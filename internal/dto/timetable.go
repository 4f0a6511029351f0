package dto

// GenerateTimetableRequest instructs the generator to build and persist the
// timetable for one stream/semester/academic-year scope. GA knobs are
// optional; unset values fall back to configured, size-adaptive defaults.
type GenerateTimetableRequest struct {
	Stream       string `json:"stream" validate:"required"`
	Semester     int    `json:"semester" validate:"required,min=1,max=3"`
	AcademicYear string `json:"academicYear" validate:"required"`

	PopulationSize    int     `json:"populationSize" validate:"omitempty,min=50,max=500"`
	MaxGenerations    int     `json:"maxGenerations" validate:"omitempty,min=100,max=2000"`
	MutationRate      float64 `json:"mutationRate" validate:"omitempty,min=0.01,max=0.5"`
	CrossoverRate     float64 `json:"crossoverRate" validate:"omitempty,min=0.1,max=1"`
	MaxRuntimeSeconds int     `json:"maxRuntimeSeconds" validate:"omitempty,min=1,max=600"`
	Seed              int64   `json:"seed"`

	ClearExisting    bool `json:"clearExisting"`
	RequireLecturers bool `json:"requireLecturers"`
	Async            bool `json:"async"`
}

// FitnessBreakdown summarises the best chromosome's evaluation.
type FitnessBreakdown struct {
	Score          float64 `json:"score"`
	HardViolations int     `json:"hardViolations"`
	SoftViolations int     `json:"softViolations"`
	Feasible       bool    `json:"feasible"`
	Quality        float64 `json:"quality"`
	Rating         string  `json:"rating"`
}

// UnscheduledItem reports one requirement the run could not place, with a
// reason code for operator follow-up.
type UnscheduledItem struct {
	RequirementID int64  `json:"requirementId"`
	CourseCode    string `json:"courseCode"`
	ClassID       int64  `json:"classId"`
	Reason        string `json:"reason"`
}

// RunSummary is the structured outcome of one generation run.
type RunSummary struct {
	RunID        string `json:"runId"`
	Stream       string `json:"stream"`
	Semester     int    `json:"semester"`
	AcademicYear string `json:"academicYear"`

	Generations int    `json:"generations"`
	Evaluations int    `json:"evaluations"`
	ElapsedMS   int64  `json:"elapsedMs"`
	Termination string `json:"termination"`
	Seed        int64  `json:"seed"`

	Fitness          FitnessBreakdown  `json:"fitness"`
	RepairPlaced     int               `json:"repairPlaced"`
	EntriesAttempted int               `json:"entriesAttempted"`
	EntriesInserted  int               `json:"entriesInserted"`
	Unscheduled      []UnscheduledItem `json:"unscheduled"`
}

// GenerateTimetableResponse is returned from the generate endpoint. Async
// runs carry only the run id and status; sync runs include the full summary.
type GenerateTimetableResponse struct {
	RunID   string      `json:"runId"`
	Status  string      `json:"status"`
	Summary *RunSummary `json:"summary,omitempty"`
}

// TimetableQuery filters persisted entries by scheduling scope.
type TimetableQuery struct {
	Stream       string `form:"stream" json:"stream"`
	Semester     int    `form:"semester" json:"semester"`
	AcademicYear string `form:"academicYear" json:"academicYear"`
}
