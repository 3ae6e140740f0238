// Package runctx implements the Run Context (Component C): the
// forcing-mode state machine plus the env/dir/silent overlays applied to
// every task and step evaluation.
package runctx

import (
	"fmt"
	"os"

	"github.com/titpetric/atkins-core/dig/token"
)

// ForcingContext is the current forcing state of a context.
type ForcingContext int

const (
	NotForced ForcingContext = iota
	ParentIsForced
	ExplicitlyForced
	ForcedAsMainTask
	EverythingForced
)

func (f ForcingContext) String() string {
	switch f {
	case NotForced:
		return "not-forced"
	case ParentIsForced:
		return "parent-is-forced"
	case ExplicitlyForced:
		return "explicitly-forced"
	case ForcedAsMainTask:
		return "forced-as-main-task"
	case EverythingForced:
		return "everything-forced"
	default:
		return "unknown"
	}
}

// ForcingBehaviour is a task's declared policy for how its own forcing
// state propagates to children.
type ForcingBehaviour int

const (
	Never ForcingBehaviour = iota
	Always
	Inherit
)

// ParseForcingBehaviour parses the `forcing:` YAML scalar. Empty defaults
// to Inherit, per spec.md's task config schema.
func ParseForcingBehaviour(s string) (ForcingBehaviour, error) {
	switch s {
	case "", "inherit":
		return Inherit, nil
	case "never":
		return Never, nil
	case "always":
		return Always, nil
	default:
		return Inherit, fmt.Errorf("runctx: invalid forcing behaviour %q", s)
	}
}

// Context carries the env-overlay, working directory, forcing state and
// silent flag threaded through a task/step evaluation.
type Context struct {
	Forcing ForcingContext
	Env     map[string]string
	Dir     string
	Silent  bool
}

// New builds a context from a forcing state plus an env/dir overlay,
// expanded against vars.
func New(forcing ForcingContext, env map[string]string, dir string, lookup token.Lookup) (*Context, error) {
	c := &Context{Forcing: forcing}
	if err := c.updateDir(dir, lookup); err != nil {
		return nil, err
	}
	if err := c.updateEnv(env, lookup); err != nil {
		return nil, err
	}
	return c, nil
}

// Child derives a new context from c according to the forcing transition
// table of spec.md §4.C, given the child task's declared forcing_behavior.
func (c *Context) Child(behaviour ForcingBehaviour) *Context {
	var forcing ForcingContext
	switch c.Forcing {
	case EverythingForced:
		forcing = EverythingForced
	case ForcedAsMainTask:
		forcing = ExplicitlyForced
	case ExplicitlyForced:
		switch behaviour {
		case Always, Inherit:
			forcing = ExplicitlyForced
		default:
			forcing = NotForced
		}
	case ParentIsForced:
		switch behaviour {
		case Always:
			forcing = ExplicitlyForced
		case Inherit:
			forcing = ParentIsForced
		default:
			forcing = NotForced
		}
	default: // NotForced
		switch behaviour {
		case Always:
			forcing = ExplicitlyForced
		default:
			forcing = NotForced
		}
	}

	env := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		env[k] = v
	}

	return &Context{
		Forcing: forcing,
		Env:     env,
		Dir:     c.Dir,
		Silent:  c.Silent,
	}
}

// Clone returns a copy of c with an independent Env map and an unchanged
// Forcing state -- used for a step's per-step context overlay, which is
// not a task-to-child forcing transition (see Child for that).
func (c *Context) Clone() *Context {
	env := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		env[k] = v
	}
	return &Context{
		Forcing: c.Forcing,
		Env:     env,
		Dir:     c.Dir,
		Silent:  c.Silent,
	}
}

// IsForced reports whether this context bypasses freshness-based skipping.
func (c *Context) IsForced() bool {
	switch c.Forcing {
	case EverythingForced, ForcedAsMainTask, ExplicitlyForced:
		return true
	default:
		return false
	}
}

// Update applies a step/task's own env/dir/silent overlay on top of c,
// in place: env merges (child keys shadow parent), dir replaces wholesale
// after validating it exists, and silent is a monotonic sticky OR.
func (c *Context) Update(env map[string]string, dir string, silent bool, lookup token.Lookup) error {
	if err := c.updateEnv(env, lookup); err != nil {
		return err
	}
	if err := c.updateDir(dir, lookup); err != nil {
		return err
	}
	c.Silent = c.Silent || silent
	return nil
}

func (c *Context) updateEnv(env map[string]string, lookup token.Lookup) error {
	if len(env) == 0 {
		return nil
	}
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	for k, v := range env {
		ek, err := token.ExpandToString(k, lookup)
		if err != nil {
			return err
		}
		ev, err := token.ExpandToString(v, lookup)
		if err != nil {
			return err
		}
		c.Env[ek] = ev
	}
	return nil
}

func (c *Context) updateDir(dir string, lookup token.Lookup) error {
	if dir == "" {
		return nil
	}
	expanded, err := token.ExpandToString(dir, lookup)
	if err != nil {
		return err
	}
	info, err := os.Stat(expanded)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("runctx: invalid directory %q", expanded)
	}
	c.Dir = expanded
	return nil
}

// Environ returns the process environment overlaid with c.Env, in
// KEY=VALUE form, suitable for exec.Cmd.Env.
func (c *Context) Environ() []string {
	base := os.Environ()
	if len(c.Env) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(c.Env))
	seen := make(map[string]bool, len(c.Env))
	for _, kv := range base {
		key := kv
		for i, r := range kv {
			if r == '=' {
				key = kv[:i]
				break
			}
		}
		if v, ok := c.Env[key]; ok {
			out = append(out, key+"="+v)
			seen[key] = true
		} else {
			out = append(out, kv)
		}
	}
	for k, v := range c.Env {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}
