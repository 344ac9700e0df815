// Package optim searches parameter grids for the point that minimizes an
// objective, and uses that to fit transition parameters to fixtures.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var ErrEmptyGrid = errors.New("optim: empty parameter grid")

// Objective scores one grid point; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", ErrEmptyGrid, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", ErrEmptyGrid, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

type Result struct {
	Params      map[string]float64
	Value       float64
	Evaluations int
}

// Search evaluates every grid point and returns the best. An objective
// error aborts the search; NaN scores are never selected.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (*Result, error) {
	best := &Result{Value: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, make(map[string]float64, len(g.paramNames)), objective, best); err != nil {
		return nil, err
	}
	if best.Params == nil {
		return nil, fmt.Errorf("optim: no finite objective value on %d grid points", best.Evaluations)
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, objective Objective, best *Result) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}

		val, err := objective(ctx, current)
		if err != nil {
			return err
		}
		best.Evaluations++

		if val < best.Value {
			best.Value = val
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, objective, best); err != nil {
			return err
		}
	}
	return nil
}
