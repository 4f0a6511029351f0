package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEngineFindsFeasibleTimetable(t *testing.T) {
	inst := gridInstance(2, 2, []int{40, 40}, []Requirement{
		testReq(1, 101, 30, lecturer(7)),
		testReq(2, 102, 30, lecturer(8)),
		testReq(3, 103, 30, lecturer(9)),
	})
	engine := NewEngine(inst, newTestEvaluator(inst), Params{
		PopulationSize: 50,
		MaxGenerations: 200,
		Seed:           42,
	}, zap.NewNop())

	outcome := engine.Run(context.Background())
	require.NotNil(t, outcome.Best)
	assert.True(t, outcome.Fitness.Feasible, "three requirements fit in eight placement cells")
	assert.Len(t, outcome.Best.Genes, 3)
	assert.Equal(t, 0.0, outcome.Fitness.Score)
}

func TestEngineSeedDeterminism(t *testing.T) {
	build := func() *Outcome {
		inst := gridInstance(3, 3, []int{40, 50}, []Requirement{
			testReq(1, 101, 30, lecturer(7)),
			testReq(2, 102, 45, lecturer(8)),
			testReq(3, 103, 20, nil),
			testReq(4, 104, 25, lecturer(7)),
		})
		engine := NewEngine(inst, newTestEvaluator(inst), Params{
			PopulationSize: 40,
			MaxGenerations: 60,
			Seed:           12345,
		}, zap.NewNop())
		return engine.Run(context.Background())
	}

	first := build()
	second := build()

	assert.Equal(t, first.Best.Genes, second.Best.Genes, "same seed yields the same best candidate")
	assert.Equal(t, first.Fitness.Score, second.Fitness.Score)
	assert.Equal(t, first.Generations, second.Generations)
	assert.Equal(t, first.Reason, second.Reason)
}

func TestEngineQualityTargetStopsEarly(t *testing.T) {
	inst := gridInstance(2, 2, []int{40}, []Requirement{
		testReq(1, 101, 30, nil),
	})
	engine := NewEngine(inst, newTestEvaluator(inst), Params{
		PopulationSize: 10,
		MaxGenerations: 500,
		TargetQuality:  100,
		Seed:           1,
	}, zap.NewNop())

	outcome := engine.Run(context.Background())
	assert.Equal(t, TerminationQualityTarget, outcome.Reason)
	assert.Equal(t, 0, outcome.Generations, "a single requirement is feasible at initialization")
}

func TestEngineRuntimeBudget(t *testing.T) {
	inst := overbookedInstance()
	engine := NewEngine(inst, newTestEvaluator(inst), Params{
		PopulationSize: 20,
		MaxGenerations: 1000,
		RuntimeBudget:  time.Nanosecond,
		Seed:           1,
	}, zap.NewNop())

	outcome := engine.Run(context.Background())
	assert.Equal(t, TerminationRuntimeBudget, outcome.Reason)
	require.NotNil(t, outcome.Best, "budget expiry still returns the evaluated best")
}

func TestEngineStagnation(t *testing.T) {
	inst := overbookedInstance()
	engine := NewEngine(inst, newTestEvaluator(inst), Params{
		PopulationSize:  20,
		MaxGenerations:  2000,
		StagnationLimit: 10,
		Seed:            1,
	}, zap.NewNop())

	outcome := engine.Run(context.Background())
	assert.Equal(t, TerminationStagnation, outcome.Reason, "an unsatisfiable instance stops improving")
	assert.False(t, outcome.Fitness.Feasible)
}

func TestEngineHonoursCancellation(t *testing.T) {
	inst := overbookedInstance()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(inst, newTestEvaluator(inst), Params{
		PopulationSize: 20,
		MaxGenerations: 1000,
		Seed:           1,
	}, zap.NewNop())

	outcome := engine.Run(ctx)
	assert.Equal(t, TerminationCancelled, outcome.Reason)
	require.NotNil(t, outcome.Best)
}

func TestEngineBetterPrefersFewerHardViolations(t *testing.T) {
	inst := gridInstance(1, 1, []int{40}, []Requirement{testReq(1, 101, 30, nil)})
	engine := NewEngine(inst, newTestEvaluator(inst), Params{Seed: 1}, zap.NewNop())

	infeasibleHighScore := FitnessResult{Score: -10, HardViolations: []Violation{{Kind: ViolationRoomOccupied}}}
	feasibleLowScore := FitnessResult{Score: -500, Feasible: true}

	assert.True(t, engine.better(feasibleLowScore, infeasibleHighScore))
	assert.False(t, engine.better(infeasibleHighScore, feasibleLowScore))
}

func TestEngineBestFitnessNeverRegresses(t *testing.T) {
	// Seeded runs that differ only in the generation cap share the same
	// trajectory up to the cap, so comparing their outcomes observes the
	// best-of-run at every generation. Elite clones carry the incumbent
	// forward, so it can only improve.
	build := func(gens int) *Outcome {
		inst := gridInstance(2, 2, []int{40, 40}, []Requirement{
			testReq(1, 101, 30, lecturer(7)),
			testReq(2, 102, 30, lecturer(8)),
			testReq(3, 103, 30, lecturer(7)),
			testReq(4, 104, 30, lecturer(8)),
			testReq(5, 105, 30, lecturer(9)),
			testReq(6, 106, 30, lecturer(9)),
		})
		engine := NewEngine(inst, newTestEvaluator(inst), Params{
			PopulationSize:  30,
			MaxGenerations:  gens,
			Elitism:         2,
			StagnationLimit: 1000,
			Seed:            777,
		}, zap.NewNop())
		return engine.Run(context.Background())
	}

	prev := build(1)
	for gens := 2; gens <= 20; gens++ {
		cur := build(gens)
		prevHard := len(prev.Fitness.HardViolations)
		curHard := len(cur.Fitness.HardViolations)
		require.LessOrEqual(t, curHard, prevHard,
			"hard violations must not increase between generation caps %d and %d", gens-1, gens)
		if curHard == prevHard {
			require.GreaterOrEqual(t, cur.Fitness.Score, prev.Fitness.Score,
				"score must not regress between generation caps %d and %d", gens-1, gens)
		}
		prev = cur
	}
}

func TestParamsAdaptiveDefaults(t *testing.T) {
	small := gridInstance(2, 2, []int{40}, []Requirement{testReq(1, 101, 30, nil)})
	p := Params{}.withDefaults(small)
	assert.Equal(t, 150, p.PopulationSize)
	assert.Equal(t, 300, p.MaxGenerations)
	assert.Equal(t, maxEvalWorkers, p.Workers)
	assert.NotZero(t, p.Seed)

	p = Params{Seed: 9, Workers: 128}.withDefaults(small)
	assert.Equal(t, int64(9), p.Seed)
	assert.Equal(t, maxEvalWorkers, p.Workers, "worker count is capped")
}

// overbookedInstance has five requirements competing for a single placement
// cell, so at most one can ever be satisfied.
func overbookedInstance() *Instance {
	return gridInstance(1, 1, []int{40}, []Requirement{
		testReq(1, 101, 30, lecturer(7)),
		testReq(2, 102, 30, lecturer(8)),
		testReq(3, 103, 30, lecturer(9)),
		testReq(4, 104, 30, lecturer(10)),
		testReq(5, 105, 30, lecturer(11)),
	})
}

func newTestEvaluator(inst *Instance) *Evaluator {
	return NewEvaluator(inst, NewChecker(inst, Limits{}), Weights{})
}
