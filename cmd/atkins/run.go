package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/titpetric/cli"

	"github.com/titpetric/atkins-core/colors"
	"github.com/titpetric/atkins-core/dig/config"
	"github.com/titpetric/atkins-core/dig/exec"
	"github.com/titpetric/atkins-core/dig/runctx"
	"github.com/titpetric/atkins-core/dig/task"
	"github.com/titpetric/atkins-core/dig/vars"
	"github.com/titpetric/atkins-core/eventlog"
	"github.com/titpetric/atkins-core/treeview"
)

// defaultTaskName is the entry task evaluated when no task is named on the
// command line, matching spec.md §8's scenarios (S1-S6), which all name
// their entry task "default".
const defaultTaskName = "default"

// Run provides a cli.Command that loads a configuration document and
// evaluates a named entry task, per spec.md §6's `run [TASK]` CLI.
func Run() *cli.Command {
	opts := NewOptions()

	return &cli.Command{
		Name:    "run",
		Title:   "Run a task from a dig.yaml configuration document",
		Default: true,
		Bind: func(fs *pflag.FlagSet) {
			opts.Bind(fs)
		},
		Run: func(ctx context.Context, args []string) error {
			return runTask(ctx, opts, args)
		},
	}
}

func runTask(ctx context.Context, opts *Options, args []string) error {
	taskName := defaultTaskName
	if len(args) > 0 {
		taskName = args[0]
	}

	sourcePath := opts.Source
	if sourceFlag := opts.FlagSet.Lookup("source"); sourceFlag == nil || !sourceFlag.Changed {
		discovered, err := discoverSource(opts.Source)
		if err != nil {
			return fmt.Errorf("%s %v", colors.BrightRed("ERROR:"), err)
		}
		sourcePath = discovered
	}

	absPath, err := filepath.Abs(sourcePath)
	if err != nil {
		return fmt.Errorf("%s %v", colors.BrightRed("ERROR:"), err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("%s %v", colors.BrightRed("ERROR:"), err)
	}

	doc, err := config.Load(data)
	if err != nil {
		return fmt.Errorf("%s %s: %v", colors.BrightRed("ERROR:"), absPath, err)
	}

	if err := os.Chdir(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("%s %v", colors.BrightRed("ERROR:"), err)
	}

	if opts.Lint {
		return lintDocument(doc)
	}

	if opts.List {
		return listTasks(doc)
	}

	pool := exec.New(opts.Processes)

	forcing := runctx.NotForced
	switch {
	case opts.ForceAll:
		forcing = runctx.EverythingForced
	case opts.ForceFirst:
		forcing = runctx.ForcedAsMainTask
	}

	rootEnv, rootCtx, err := rootEnvironment(doc, opts.Vars, pool, forcing)
	if err != nil {
		return fmt.Errorf("%s %v", colors.BrightRed("ERROR:"), err)
	}

	cfg, err := doc.GetTask(taskName)
	if err != nil {
		if suggestions := suggestTasks(doc, taskName); len(suggestions) > 0 {
			return fmt.Errorf("%s unknown task %q, did you mean: %s", colors.BrightRed("ERROR:"), taskName, strings.Join(suggestions, ", "))
		}
		return fmt.Errorf("%s %v", colors.BrightRed("ERROR:"), err)
	}

	logger := eventlog.NewLogger(opts.LogFile, taskName, absPath, opts.Debug)

	engine := task.NewEngine(doc, pool)
	engine.Logger = logger
	start := time.Now()

	prepared, err := engine.Prepare(ctx, cfg, taskName, rootEnv, vars.EmptyLocals, rootCtx)
	if err != nil {
		return fmt.Errorf("%s %v", colors.BrightRed("ERROR:"), err)
	}

	_, evalErr := engine.Evaluate(ctx, prepared, false)

	result := eventlog.ResultPass
	if evalErr != nil {
		result = eventlog.ResultFail
	} else if prepared.Outcome != task.Runnable {
		result = eventlog.ResultSkipped
	}

	if writeErr := logger.Write(&eventlog.StateNode{
		Name:      prepared.Label,
		Status:    string(result),
		Result:    result,
		Duration:  time.Since(start).Seconds(),
		CreatedAt: start,
	}, &eventlog.RunSummary{
		Duration: time.Since(start).Seconds(),
		Result:   result,
	}); writeErr != nil {
		fmt.Fprintf(os.Stderr, "%s failed to write event log: %v\n", colors.BrightYellow("WARNING:"), writeErr)
	}

	if evalErr != nil {
		return fmt.Errorf("%s %v", colors.BrightRed("ERROR:"), evalErr)
	}
	return nil
}

// rootEnvironment builds the top-level variable environment and run
// context: the document's own `env`/`dir` overlay expanded against an
// empty base, then its `vars:` raw map stacked on top (so command-producing
// vars run under the document's env/dir), then overridden by `-v/--var`
// CLI entries (parsed as JSON, falling back to a raw string on parse
// failure, per spec.md §6).
func rootEnvironment(doc *config.Document, overrides []string, pool *exec.Pool, forcing runctx.ForcingContext) (*vars.Environment, *runctx.Context, error) {
	base := vars.New()

	rootCtx, err := runctx.New(forcing, doc.Env, doc.Dir, base)
	if err != nil {
		return nil, nil, err
	}

	var env *vars.Environment
	if doc.HasVars {
		env, err = doc.Vars.Stack(base, vars.EmptyLocals, rootCtx, pool)
		if err != nil {
			return nil, nil, err
		}
	} else {
		env = base.Stack(vars.EmptyLocals)
	}

	for _, kv := range overrides {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid -v/--var %q: expected KEY=VALUE", kv)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		env.Insert(key, value)
	}

	return env, rootCtx, nil
}

func listTasks(doc *config.Document) error {
	root, err := treeview.BuildFromDocument(doc)
	if err != nil {
		return err
	}
	fmt.Print(treeview.NewRenderer().Render(root))
	return nil
}
