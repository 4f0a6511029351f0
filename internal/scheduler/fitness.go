package scheduler

// Violation is one itemized constraint breach inside a fitness result.
type Violation struct {
	Kind          ViolationKind `json:"kind"`
	RequirementID int64         `json:"requirement_id,omitempty"`
	ResourceID    int64         `json:"resource_id,omitempty"`
	DayID         int64         `json:"day_id,omitempty"`
	SlotID        int64         `json:"slot_id,omitempty"`
}

// FitnessResult is the scored evaluation of one chromosome. Higher scores are
// better; a feasible timetable has zero hard violations.
type FitnessResult struct {
	Score          float64     `json:"score"`
	HardViolations []Violation `json:"hard_violations"`
	SoftViolations []Violation `json:"soft_violations"`
	Feasible       bool        `json:"feasible"`
	Quality        float64     `json:"quality"`
}

// Rating maps the normalized quality onto a reporting label. It plays no part
// in the algorithm's decisions.
func (r FitnessResult) Rating() string {
	switch {
	case r.Quality >= 90:
		return "Excellent"
	case r.Quality >= 75:
		return "Good"
	case r.Quality >= 50:
		return "Fair"
	default:
		return "Poor"
	}
}

// Weights sets the penalty scale. Hard must dominate Soft by orders of
// magnitude so a feasible mediocre timetable always outranks an infeasible
// one.
type Weights struct {
	Hard int
	Soft int
}

// Evaluator aggregates constraint checks into a scalar fitness per candidate.
type Evaluator struct {
	inst    *Instance
	checker *Checker
	weights Weights
}

// NewEvaluator builds an evaluator over the shared instance.
func NewEvaluator(inst *Instance, checker *Checker, weights Weights) *Evaluator {
	if weights.Hard <= 0 {
		weights.Hard = 1000
	}
	if weights.Soft <= 0 {
		weights.Soft = 10
	}
	return &Evaluator{inst: inst, checker: checker, weights: weights}
}

// Evaluate builds fresh conflict maps for the chromosome and itemizes every
// hard and soft violation. Genes are committed in order, so the later gene of
// any colliding pair carries the violation.
func (e *Evaluator) Evaluate(c *Chromosome) FitnessResult {
	occ := NewOccupancy(e.inst)
	var hard, soft []Violation

	for i := range c.Genes {
		g := c.Genes[i]
		req := &e.inst.Requirements[i]

		for _, kind := range e.checker.HardViolations(req, g, occ) {
			hard = append(hard, Violation{
				Kind:          kind,
				RequirementID: req.ID,
				DayID:         g.DayID,
				SlotID:        g.SlotID,
			})
		}

		if room, ok := e.inst.RoomByID(g.RoomID); ok {
			if e.checker.RoomTypeScore(req, room) > 0 {
				soft = append(soft, Violation{
					Kind:          ViolationRoomTypeMismatch,
					RequirementID: req.ID,
					ResourceID:    g.RoomID,
				})
			}
		}

		occ.Add(req, g)
	}

	soft = append(soft, e.checker.DailyLoadViolations(occ)...)

	score := -float64(e.weights.Hard*len(hard)) - float64(e.weights.Soft*len(soft))

	return FitnessResult{
		Score:          score,
		HardViolations: hard,
		SoftViolations: soft,
		Feasible:       len(hard) == 0,
		Quality:        quality(len(c.Genes), len(hard), len(soft)),
	}
}

// quality normalizes violations against the gene count into a 0-100 scale for
// reporting.
func quality(genes, hard, soft int) float64 {
	if genes == 0 {
		return 0
	}
	penalty := (float64(hard) + 0.1*float64(soft)) / float64(genes)
	if penalty > 1 {
		penalty = 1
	}
	return 100 * (1 - penalty)
}
