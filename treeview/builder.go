package treeview

import (
	"github.com/titpetric/atkins-core/dig/config"
)

// Builder accumulates task/step nodes under a single execution tree. Its
// caller is the static `--list` rendering; a run does not build a live
// tree, and AddTaskWithoutSteps is not called while tasks are evaluated.
type Builder struct {
	tree *ExecutionTree
}

// NewBuilder creates a Builder rooted at the given name (typically the
// source file path or the single task being run).
func NewBuilder(name string) *Builder {
	return &Builder{tree: NewExecutionTree(name)}
}

// Tree returns the underlying execution tree.
func (b *Builder) Tree() *ExecutionTree {
	return b.tree
}

// AddTask adds a task node with one child per pre/main/post step, in
// declaration order, labeled by each step's Describe().
func (b *Builder) AddTask(cfg *config.Task, name string) *TreeNode {
	node := b.tree.AddTask(name, false)

	for _, s := range cfg.PreSteps {
		node.AddChild(&Node{Name: s.Describe(), Status: StatusPending})
	}
	for _, s := range cfg.Steps {
		node.AddChild(&Node{Name: s.Describe(), Status: StatusPending})
	}
	for _, s := range cfg.PostSteps {
		node.AddChild(&Node{Name: s.Describe(), Status: StatusPending})
	}

	return node
}

// AddTaskWithoutSteps adds a bare task node -- used for a sub-task spawned
// during evaluation, whose steps aren't known upfront (nested marks it as
// reached only through a sub-task step, per spec.md §4.F).
func (b *Builder) AddTaskWithoutSteps(name string, nested bool) *TreeNode {
	return b.tree.AddTask(name, nested)
}

// BuildFromDocument builds the full tree for a configuration document: one
// task node per entry, ordered by SortTasksByDepth so namespaced tasks
// (`build:run`, `build:run:compile`, ...) nest visually under their
// shallower siblings.
func BuildFromDocument(doc *config.Document) (*Node, error) {
	builder := NewBuilder(doc.Dir)
	if builder.tree.Node.Name == "" {
		builder.tree.Node.Name = "tasks"
	}

	names := make([]string, 0, len(doc.Tasks))
	for name := range doc.Tasks {
		names = append(names, name)
	}
	ordered := SortTasksByDepth(names)

	for _, name := range ordered {
		cfg, err := doc.GetTask(name)
		if err != nil {
			return nil, err
		}
		builder.AddTask(cfg, name)
	}

	return builder.tree.Node, nil
}
