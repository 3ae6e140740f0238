// Package task implements the Task Engine (Component G): preparing a task
// (variable stacking, label/env/dir resolution, cancel-if/run-if/freshness
// checks) and evaluating it (pre/main/post step loop, subtask fan-out,
// output capture), grounded on
// original_source/src/core/task.rs's TaskConfig::{prepare,evaluate}.
package task

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/titpetric/atkins-core/colors"
	"github.com/titpetric/atkins-core/dig/config"
	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/gate"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/step"
	"github.com/titpetric/atkins-core/dig/token"
	"github.com/titpetric/atkins-core/dig/vars"
	"github.com/titpetric/atkins-core/eventlog"
	"github.com/titpetric/atkins-core/spinner"
)

// Outcome is the result of Prepare, per spec.md §3's "Prepared Task".
type Outcome int

const (
	Runnable Outcome = iota
	Skipped
	Canceled
)

// Prepared is a task instance after preparation, per spec.md §4.G. For
// Runnable, Cfg/Env/Context carry what Evaluate needs; for Skipped/
// Canceled, only Label/Reason are meaningful.
type Prepared struct {
	Outcome Outcome
	Label   string
	Reason  string

	Cfg     *config.Task
	Env     *vars.Environment
	Context *runctx.Context
}

// Engine ties a configuration document (for subtask resolution) to a
// bounded executor pool and, optionally, an event logger.
type Engine struct {
	Doc    *config.Document
	Pool   *exec.Pool
	Logger *eventlog.Logger
}

func NewEngine(doc *config.Document, pool *exec.Pool) *Engine {
	return &Engine{Doc: doc, Pool: pool}
}

func taskLog(label, message string) {
	fmt.Println(colors.BrightGreen(fmt.Sprintf("TASK:%s -- %s", label, message)))
}

func taskLogBad(label, message string) {
	fmt.Fprintln(os.Stderr, colors.BrightRed(fmt.Sprintf("TASK:%s -- %s", label, message)))
}

// Prepare implements spec.md §4.G's "Preparation": derive the child
// context and stacked environment, resolve the label, then test cancel_if
// and run_if/freshness to decide Runnable vs Skipped vs Canceled.
func (e *Engine) Prepare(ctx context.Context, cfg *config.Task, defaultLabel string, parentEnv *vars.Environment, mode vars.StackMode, parentCtx *runctx.Context) (*Prepared, error) {
	childCtx := parentCtx.Child(cfg.Forcing)

	var env *vars.Environment
	var err error
	if cfg.HasVars {
		env, err = cfg.Vars.Stack(parentEnv, mode, childCtx, e.Pool)
	} else {
		env = parentEnv.Stack(mode)
	}
	if err != nil {
		return nil, err
	}

	if err := childCtx.Update(cfg.Env, cfg.Dir, cfg.Silent, env); err != nil {
		return nil, err
	}

	label := defaultLabel
	if cfg.Label != "" {
		label, err = token.ExpandToString(cfg.Label, env)
		if err != nil {
			return nil, err
		}
	}

	if len(cfg.CancelIf) > 0 {
		failure, err := gate.Evaluate(ctx, cfg.CancelIf, env, childCtx, e.Pool)
		if err != nil {
			return nil, err
		}
		if failure == nil {
			return &Prepared{Outcome: Canceled, Label: label, Reason: "all cancel-if statements returned true"}, nil
		}
	}

	reason, err := e.checkSkip(ctx, cfg, env, childCtx)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		if childCtx.IsForced() {
			taskLog(label, "Forced")
		} else {
			return &Prepared{Outcome: Skipped, Label: label, Reason: reason}, nil
		}
	}

	return &Prepared{Outcome: Runnable, Label: label, Cfg: cfg, Env: env, Context: childCtx}, nil
}

func (e *Engine) checkSkip(ctx context.Context, cfg *config.Task, env *vars.Environment, rc *runctx.Context) (string, error) {
	failure, err := gate.Evaluate(ctx, cfg.RunIf, env, rc, e.Pool)
	if err != nil {
		return "", err
	}
	if failure != nil {
		return fmt.Sprintf("run-if statement %d returned false: '%s'", failure.Index, failure.Statement), nil
	}

	if len(cfg.Inputs) == 0 {
		return "", nil
	}

	latest, err := latestInputMtime(cfg.Inputs, env)
	if err != nil {
		return "", err
	}
	earliest, err := earliestOutputMtime(cfg.Outputs, env)
	if err != nil {
		return "", err
	}
	if !earliest.Before(latest) {
		return "outputs are up to date", nil
	}
	return "", nil
}

func latestInputMtime(paths []string, env token.Lookup) (time.Time, error) {
	latest := time.Unix(0, 0)
	for _, raw := range paths {
		path, err := token.ExpandToString(raw, env)
		if err != nil {
			return time.Time{}, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, fmt.Errorf("task: input %q: %w", path, err)
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest, nil
}

func earliestOutputMtime(paths []string, env token.Lookup) (time.Time, error) {
	earliest := time.Now()
	for _, raw := range paths {
		path, err := token.ExpandToString(raw, env)
		if err != nil {
			return time.Time{}, err
		}
		info, err := os.Stat(path)
		if err != nil {
			continue // missing output: treated as "now", already the default
		}
		if info.ModTime().Before(earliest) {
			earliest = info.ModTime()
		}
	}
	return earliest, nil
}

// Evaluate implements spec.md §4.G's "Evaluation": pre/main/post step
// loops, SUCCESS insertion, and the step-vs-poststep error precedence this
// implementation resolves in favor of the step error when both fail (see
// DESIGN.md's Open Question decision -- the reference implementation
// instead returns the poststep error in that branch).
func (e *Engine) Evaluate(ctx context.Context, p *Prepared, capture bool) ([]string, error) {
	switch p.Outcome {
	case Canceled:
		taskLog(p.Label, fmt.Sprintf("Canceled because %s", p.Reason))
		return nil, fmt.Errorf("task %s canceled: %s", p.Label, p.Reason)
	case Skipped:
		taskLog(p.Label, fmt.Sprintf("Skipped because %s", p.Reason))
		return nil, nil
	}

	cfg, env, rc := p.Cfg, p.Env, p.Context

	var preOutputs []string
	if len(cfg.PreSteps) > 0 {
		taskLog(p.Label, "Evaluating Dependencies")
		var err error
		preOutputs, err = e.evaluateSteps(ctx, cfg.PreSteps, env, rc, capture)
		if err != nil {
			return nil, err
		}
	}

	taskLog(p.Label, "Begin")
	stepOutputs, stepErr := e.evaluateStepsWithSpinner(ctx, p.Label, cfg.Steps, env, rc, capture)
	env.Insert("SUCCESS", stepErr == nil)

	var postOutputs []string
	var postErr error
	if len(cfg.PostSteps) > 0 {
		taskLog(p.Label, "Evaluating post-steps")
		postOutputs, postErr = e.evaluateSteps(ctx, cfg.PostSteps, env, rc, capture)
	}

	switch {
	case stepErr == nil && postErr == nil:
		// fall through to Finished
	case stepErr == nil && postErr != nil:
		taskLogBad(p.Label, "Task succeeded, but post-steps failed")
		return nil, postErr
	case stepErr != nil && postErr == nil:
		taskLogBad(p.Label, "Task failed")
		return nil, stepErr
	default:
		taskLogBad(p.Label, fmt.Sprintf("Task failed:\n%s\n\nAnd then post-steps failed as well", stepErr))
		return nil, stepErr
	}

	taskLog(p.Label, "Finished")

	if !capture {
		return nil, nil
	}
	outputs := make([]string, 0, len(preOutputs)+len(stepOutputs)+len(postOutputs))
	outputs = append(outputs, preOutputs...)
	outputs = append(outputs, stepOutputs...)
	outputs = append(outputs, postOutputs...)
	return outputs, nil
}

// evaluateSteps is the step loop shared by pre/main/post-steps: each step
// runs strictly after the previous one completes, but a step producing
// SubmitTasks descriptors joins them concurrently among themselves via the
// executor pool's Group. Each step's terminal result and, for steps that
// ran a command, its command event are recorded on e.Logger (a no-op on a
// nil logger), per spec.md §7's user-visibility requirement.
func (e *Engine) evaluateSteps(ctx context.Context, steps []step.Step, env *vars.Environment, rc *runctx.Context, capture bool) ([]string, error) {
	var outputs []string

	for i, s := range steps {
		start := e.Logger.GetElapsed()
		startedAt := time.Now()
		stepID := fmt.Sprintf("%s:%d", s.Describe(), i)

		outcome, err := s.Evaluate(ctx, i, env, rc, e.Pool)

		durationMs := time.Since(startedAt).Milliseconds()
		result := eventlog.ResultPass
		switch {
		case err != nil:
			result = eventlog.ResultFail
		case outcome.Kind == step.Skipped:
			result = eventlog.ResultSkipped
		}
		e.Logger.LogExec(result, stepID, s.Describe(), start, durationMs, err)
		if outcome.Kind == step.Completed {
			e.Logger.LogCommand(eventlog.LogEntry{
				Type:       eventlog.EventTypeStep,
				ID:         stepID,
				Command:    s.Describe(),
				Output:     outcome.Output,
				Start:      start,
				DurationMs: durationMs,
			})
		}
		if err != nil {
			return nil, err
		}

		switch outcome.Kind {
		case step.Skipped:
			continue

		case step.Completed:
			if capture {
				outputs = append(outputs, outcome.Output)
			}

		case step.SubmitTasks:
			subOutputs, err := e.joinSubtasks(ctx, outcome.Descriptors, capture)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, subOutputs...)
		}
	}

	return outputs, nil
}

// evaluateStepsWithSpinner wraps evaluateSteps with a live progress spinner
// on the task's own label, printed to stdout for the duration of the main
// step loop and cleared once it returns -- pre/post-steps run silently, the
// main loop is where a long-running task is actually waiting on something.
func (e *Engine) evaluateStepsWithSpinner(ctx context.Context, label string, steps []step.Step, env *vars.Environment, rc *runctx.Context, capture bool) ([]string, error) {
	if len(steps) == 0 {
		return e.evaluateSteps(ctx, steps, env, rc, capture)
	}

	sp := spinner.New()
	sp.Start()
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fmt.Printf("\r%s TASK:%s", sp.String(), label)
			}
		}
	}()

	outputs, err := e.evaluateSteps(ctx, steps, env, rc, capture)

	close(stop)
	sp.Stop()
	fmt.Print("\r\033[K")
	return outputs, err
}

// joinSubtasks resolves and evaluates each sub-task spawn descriptor
// concurrently, preserving submission order in the concatenated output --
// spec.md §5's "Parallel group children and SubmitTasks fan-out children
// have no relative ordering; their outputs are concatenated in submission
// order when capturing."
func (e *Engine) joinSubtasks(ctx context.Context, descriptors []step.Descriptor, capture bool) ([]string, error) {
	results := make([][]string, len(descriptors))
	group := exec.NewGroup()

	for i, d := range descriptors {
		i, d := i, d
		group.Go(func() error {
			out, err := e.evaluateSubtask(ctx, d, capture)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var outputs []string
	for _, r := range results {
		outputs = append(outputs, r...)
	}
	return outputs, nil
}

// evaluateSubtask resolves a descriptor's target task, prepares it against
// the descriptor's own frozen environment and derived run context (the
// sub-task step's env/dir/silent overlay applies here -- see DESIGN.md's
// Open Question decision; the reference implementation's evaluate_subtask
// instead rebuilds from the parent task's own context, leaving the
// subtask step's own overlay unused, behind a commented-out line), and
// evaluates it. A canceled child surfaces as an error via Evaluate.
func (e *Engine) evaluateSubtask(ctx context.Context, d step.Descriptor, capture bool) ([]string, error) {
	cfg, err := e.Doc.GetTask(d.Task)
	if err != nil {
		return nil, err
	}
	prepared, err := e.Prepare(ctx, cfg, d.Task, d.Vars, vars.EmptyLocals, d.Context)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, prepared, capture)
}
