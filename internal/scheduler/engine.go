package scheduler

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TerminationReason records which stop condition ended the GA loop.
type TerminationReason string

const (
	TerminationGenerationCap TerminationReason = "GENERATION_CAP"
	TerminationRuntimeBudget TerminationReason = "RUNTIME_BUDGET"
	TerminationStagnation    TerminationReason = "STAGNATION"
	TerminationQualityTarget TerminationReason = "QUALITY_TARGET"
	TerminationCancelled     TerminationReason = "CANCELLED"
)

// Params tunes one engine run. Zero values fall back to adaptive defaults
// derived from the instance size.
type Params struct {
	PopulationSize  int
	MaxGenerations  int
	MutationRate    float64
	CrossoverRate   float64
	Elitism         int
	TournamentSize  int
	StagnationLimit int
	Workers         int
	RuntimeBudget   time.Duration
	TargetQuality   float64
	Seed            int64
}

// maxEvalWorkers bounds parallel fitness evaluation regardless of host size.
const maxEvalWorkers = 4

// withDefaults fills unset parameters, scaling population and generation cap
// with the problem size so total evaluation work stays bounded: large
// instances run smaller populations over more generations.
func (p Params) withDefaults(inst *Instance) Params {
	size := inst.Size()
	if p.PopulationSize <= 0 {
		switch {
		case size > 200000:
			p.PopulationSize = 60
		case size > 20000:
			p.PopulationSize = 100
		default:
			p.PopulationSize = 150
		}
	}
	if p.MaxGenerations <= 0 {
		switch {
		case size > 200000:
			p.MaxGenerations = 800
		case size > 20000:
			p.MaxGenerations = 500
		default:
			p.MaxGenerations = 300
		}
	}
	if p.MutationRate <= 0 {
		p.MutationRate = 0.05
	}
	if p.CrossoverRate <= 0 {
		p.CrossoverRate = 0.85
	}
	if p.Elitism <= 0 {
		p.Elitism = 2
	}
	if p.Elitism > p.PopulationSize/2 {
		p.Elitism = p.PopulationSize / 2
	}
	if p.Elitism < 1 {
		p.Elitism = 1
	}
	if p.TournamentSize <= 0 {
		p.TournamentSize = 3
	}
	if p.StagnationLimit <= 0 {
		p.StagnationLimit = 60
	}
	if p.Workers <= 0 || p.Workers > maxEvalWorkers {
		p.Workers = maxEvalWorkers
	}
	if p.RuntimeBudget <= 0 {
		p.RuntimeBudget = 60 * time.Second
	}
	if p.Seed == 0 {
		p.Seed = time.Now().UnixNano()
	}
	return p
}

// Outcome reports the best chromosome found and how the run ended. The engine
// never fails for lack of a perfect solution; infeasibility is visible in the
// fitness result.
type Outcome struct {
	Best        *Chromosome
	Fitness     FitnessResult
	Generations int
	Evaluations int
	Elapsed     time.Duration
	Reason      TerminationReason
}

// Engine drives the genetic search: initialize, evaluate, select, recombine,
// mutate, carry elites, repeat until a termination condition fires.
type Engine struct {
	inst    *Instance
	eval    *Evaluator
	params  Params
	logger  *zap.Logger
	rng     *rand.Rand
	workers int
}

// NewEngine wires the engine for one instance. Passing the same seed yields
// identical runs; a zero seed picks a fresh one.
func NewEngine(inst *Instance, eval *Evaluator, params Params, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	params = params.withDefaults(inst)
	return &Engine{
		inst:    inst,
		eval:    eval,
		params:  params,
		logger:  logger,
		rng:     rand.New(rand.NewSource(params.Seed)),
		workers: params.Workers,
	}
}

// Params returns the effective parameters after adaptive defaulting.
func (e *Engine) Params() Params {
	return e.params
}

// Run executes the GA loop. On context cancellation or budget expiry the
// in-flight generation finishes and the loop exits at the next termination
// check, so the result is always a fully evaluated population's best.
func (e *Engine) Run(ctx context.Context) *Outcome {
	start := time.Now()
	p := e.params

	population := make([]*Chromosome, p.PopulationSize)
	for i := range population {
		population[i] = NewRandomChromosome(e.inst, e.rng)
	}
	results := make([]FitnessResult, p.PopulationSize)
	e.evaluatePopulation(population, results)
	evaluations := p.PopulationSize

	bestIdx := e.bestIndex(results)
	best := population[bestIdx].Clone()
	bestFit := results[bestIdx]
	stagnant := 0
	generation := 0
	reason := TerminationGenerationCap

	next := make([]*Chromosome, 0, p.PopulationSize)

	for generation < p.MaxGenerations {
		if ctx.Err() != nil {
			reason = TerminationCancelled
			break
		}
		if time.Since(start) >= p.RuntimeBudget {
			reason = TerminationRuntimeBudget
			break
		}
		if bestFit.Feasible && p.TargetQuality > 0 && bestFit.Quality >= p.TargetQuality {
			reason = TerminationQualityTarget
			break
		}
		if stagnant >= p.StagnationLimit {
			reason = TerminationStagnation
			break
		}

		order := e.rankedOrder(results)

		next = next[:0]
		for k := 0; k < p.Elitism; k++ {
			next = append(next, population[order[k]].Clone())
		}
		for len(next) < p.PopulationSize {
			p1 := e.tournament(results)
			p2 := e.tournament(results)

			var c1, c2 *Chromosome
			if e.rng.Float64() < p.CrossoverRate {
				c1, c2 = Crossover(population[p1], population[p2], e.rng)
			} else {
				c1, c2 = population[p1].Clone(), population[p2].Clone()
			}
			c1.Mutate(e.inst, p.MutationRate, e.rng)
			next = append(next, c1)
			if len(next) < p.PopulationSize {
				c2.Mutate(e.inst, p.MutationRate, e.rng)
				next = append(next, c2)
			}
		}

		population, next = next, population[:0]
		e.evaluatePopulation(population, results)
		evaluations += p.PopulationSize
		generation++

		genBest := e.bestIndex(results)
		if e.better(results[genBest], bestFit) {
			best = population[genBest].Clone()
			bestFit = results[genBest]
			stagnant = 0
		} else {
			stagnant++
		}

		if generation%25 == 0 {
			e.logger.Debug("generation",
				zap.Int("generation", generation),
				zap.Float64("best_score", bestFit.Score),
				zap.Int("hard_violations", len(bestFit.HardViolations)),
				zap.Int("soft_violations", len(bestFit.SoftViolations)),
				zap.Duration("elapsed", time.Since(start)),
			)
		}
	}

	return &Outcome{
		Best:        best,
		Fitness:     bestFit,
		Generations: generation,
		Evaluations: evaluations,
		Elapsed:     time.Since(start),
		Reason:      reason,
	}
}

// evaluatePopulation scores every chromosome, splitting the population across
// a bounded worker pool. Workers only read the shared instance and write to
// their own result slots, so no locking is needed; the WaitGroup is the
// per-generation barrier.
func (e *Engine) evaluatePopulation(population []*Chromosome, results []FitnessResult) {
	workers := e.workers
	if workers > len(population) {
		workers = len(population)
	}
	if workers <= 1 {
		for i, c := range population {
			results[i] = e.eval.Evaluate(c)
		}
		return
	}

	chunk := (len(population) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(population) {
			break
		}
		hi := lo + chunk
		if hi > len(population) {
			hi = len(population)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				results[i] = e.eval.Evaluate(population[i])
			}
		}(lo, hi)
	}
	wg.Wait()
}

// better orders fitness results: fewer hard violations first, then higher
// score. Callers break remaining ties by stable index order to keep seeded
// runs deterministic.
func (e *Engine) better(a, b FitnessResult) bool {
	if len(a.HardViolations) != len(b.HardViolations) {
		return len(a.HardViolations) < len(b.HardViolations)
	}
	return a.Score > b.Score
}

func (e *Engine) bestIndex(results []FitnessResult) int {
	best := 0
	for i := 1; i < len(results); i++ {
		if e.better(results[i], results[best]) {
			best = i
		}
	}
	return best
}

func (e *Engine) rankedOrder(results []FitnessResult) []int {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return e.better(results[order[i]], results[order[j]])
	})
	return order
}

func (e *Engine) tournament(results []FitnessResult) int {
	best := e.rng.Intn(len(results))
	for k := 1; k < e.params.TournamentSize; k++ {
		idx := e.rng.Intn(len(results))
		if e.better(results[idx], results[best]) {
			best = idx
		}
	}
	return best
}
