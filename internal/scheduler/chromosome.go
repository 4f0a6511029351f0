package scheduler

import "math/rand"

// Gene is one placement decision: a requirement assigned to a day, slot and
// room.
type Gene struct {
	RequirementID int64
	DayID         int64
	SlotID        int64
	RoomID        int64
}

// Chromosome is one complete candidate timetable. Genes are aligned with the
// instance requirement order: Genes[i] always places Requirements[i], so every
// requirement has exactly one gene.
type Chromosome struct {
	Genes []Gene
}

// roomPickAttempts bounds the cheap capacity bias during random placement.
// Beyond this the pick falls back to any room and fitness pressure takes over.
const roomPickAttempts = 4

// NewRandomChromosome assigns every requirement a uniformly random day,
// non-break slot and room, biased toward rooms that fit the class size.
func NewRandomChromosome(inst *Instance, rng *rand.Rand) *Chromosome {
	genes := make([]Gene, len(inst.Requirements))
	for i := range inst.Requirements {
		genes[i] = randomGene(inst, &inst.Requirements[i], rng)
	}
	return &Chromosome{Genes: genes}
}

func randomGene(inst *Instance, req *Requirement, rng *rand.Rand) Gene {
	day := inst.Days[rng.Intn(len(inst.Days))]
	slot := inst.Slots[inst.teachingSlots[rng.Intn(len(inst.teachingSlots))]]

	room := inst.Rooms[rng.Intn(len(inst.Rooms))]
	for attempt := 0; attempt < roomPickAttempts && room.Capacity < req.ClassSize; attempt++ {
		room = inst.Rooms[rng.Intn(len(inst.Rooms))]
	}

	return Gene{
		RequirementID: req.ID,
		DayID:         day.ID,
		SlotID:        slot.ID,
		RoomID:        room.ID,
	}
}

// Clone returns a deep copy. Mutation and crossover operate on copies so
// parents are never aliased by their children.
func (c *Chromosome) Clone() *Chromosome {
	genes := make([]Gene, len(c.Genes))
	copy(genes, c.Genes)
	return &Chromosome{Genes: genes}
}

// Mutate re-randomizes the placement of each gene with probability rate.
// The requirement id of a gene never changes, preserving cardinality.
func (c *Chromosome) Mutate(inst *Instance, rate float64, rng *rand.Rand) {
	for i := range c.Genes {
		if rng.Float64() >= rate {
			continue
		}
		req, ok := inst.RequirementByID(c.Genes[i].RequirementID)
		if !ok {
			continue
		}
		c.Genes[i] = randomGene(inst, req, rng)
	}
}

// Crossover recombines two parents with uniform per-requirement exchange,
// producing two children. Genes are exchanged at matching requirement
// positions, so both children keep exactly one gene per requirement.
func Crossover(a, b *Chromosome, rng *rand.Rand) (*Chromosome, *Chromosome) {
	c1 := a.Clone()
	c2 := b.Clone()
	for i := range c1.Genes {
		if rng.Intn(2) == 1 {
			c1.Genes[i], c2.Genes[i] = c2.Genes[i], c1.Genes[i]
		}
	}
	return c1, c2
}
