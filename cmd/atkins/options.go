package main

import "github.com/titpetric/cli"

// Options holds the `run` command's command-line arguments, per spec.md
// §6's External Interfaces: `-s/--source`, `-v/--var`, `-p/--processes`,
// `-f/--force-first`, `-F/--force-all`, plus the teacher's own `--list`/
// `--lint`/`--log`/`--debug` carried over against the new task vocabulary.
type Options struct {
	Source      string
	Vars        []string
	Processes   int
	ForceFirst  bool
	ForceAll    bool
	List        bool
	Lint        bool
	LogFile     string
	Debug       bool

	FlagSet *cli.FlagSet
}

func NewOptions() *Options {
	return &Options{}
}

func (o *Options) Bind(fs *cli.FlagSet) {
	fs.StringVarP(&o.Source, "source", "s", "dig.yaml", "Path to the configuration document")
	fs.StringArrayVarP(&o.Vars, "var", "v", nil, "Variable override KEY=VALUE (VALUE parsed as JSON, fallback raw string); repeatable")
	fs.IntVarP(&o.Processes, "processes", "p", 1, "Maximum number of concurrent external processes")
	fs.BoolVarP(&o.ForceFirst, "force-first", "f", false, "Force the named task, bypassing its freshness check")
	fs.BoolVarP(&o.ForceAll, "force-all", "F", false, "Force the named task and every task it reaches")
	fs.BoolVarP(&o.List, "list", "l", false, "List tasks in the configuration document instead of running one")
	fs.BoolVar(&o.Lint, "lint", false, "Validate the configuration document and every task reference without running anything")
	fs.StringVar(&o.LogFile, "log", "", "Write a YAML event log of the run to this path")
	fs.BoolVar(&o.Debug, "debug", false, "Record goroutine IDs in the event log")

	o.FlagSet = fs
}
