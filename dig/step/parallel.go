package step

import (
	"context"
	"fmt"
	"sync"

	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/vars"
)

// Singular is the subset of Step kinds a ParallelStep's children may be:
// shell, interpreter, generic process, or sub-task -- never another
// parallel group (spec.md §9: nested parallel groups are forbidden).
type Singular interface {
	Step
}

// ParallelStep runs its children concurrently and joins them, per
// spec.md §4.F's "Parallel group": gather any SubmitTasks descriptors
// into one flat list (submission order preserved); if none resulted,
// Completed(""); any child error aborts the group with that error.
type ParallelStep struct {
	Children []Singular
}

func (p *ParallelStep) StoreKey() string { return "" }

func (p *ParallelStep) Describe() string {
	return fmt.Sprintf("parallel (%d steps)", len(p.Children))
}

func (p *ParallelStep) Evaluate(ctx context.Context, index int, env *vars.Environment, rc *runctx.Context, pool *exec.Pool) (Outcome, error) {
	outcomes := make([]Outcome, len(p.Children))
	errs := make([]error, len(p.Children))

	var wg sync.WaitGroup
	for i, child := range p.Children {
		wg.Add(1)
		go func(i int, child Singular) {
			defer wg.Done()
			outcome, err := child.Evaluate(ctx, index, env, rc, pool)
			outcomes[i] = outcome
			errs[i] = err
		}(i, child)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Outcome{}, err
		}
	}

	var descriptors []Descriptor
	for _, o := range outcomes {
		if o.Kind == SubmitTasks {
			descriptors = append(descriptors, o.Descriptors...)
		}
	}

	if len(descriptors) == 0 {
		return Outcome{Kind: Completed, Output: ""}, nil
	}
	return Outcome{Kind: SubmitTasks, Descriptors: descriptors}, nil
}
