package treeview

// ExecutionTree holds the entire execution tree: a root node named after
// the run (the document's source file or a single task name), with one
// child per task.
type ExecutionTree struct {
	*TreeNode
}

// NewExecutionTree creates a new execution tree with a root node.
func NewExecutionTree(name string) *ExecutionTree {
	return &ExecutionTree{
		TreeNode: &TreeNode{
			Node: &Node{
				Name:     name,
				Status:   StatusRunning,
				Children: make([]*Node, 0),
			},
		},
	}
}

// AddTask adds a task node to the tree.
func (et *ExecutionTree) AddTask(name string, nested bool) *TreeNode {
	et.Lock()
	defer et.Unlock()

	status := StatusPending
	if nested {
		status = StatusConditional
	}

	node := &TreeNode{
		Node: &Node{
			Name:     name,
			Status:   status,
			Children: make([]*Node, 0),
		},
	}
	et.Children = append(et.Children, node.Node)
	return node
}

// RenderTree renders the entire tree to a string (live rendering).
func (et *ExecutionTree) RenderTree() string {
	et.Lock()
	defer et.Unlock()

	renderer := NewRenderer()
	return renderer.Render(et.Node)
}

// CountLines returns the number of lines the tree will render.
func (et *ExecutionTree) CountLines() int {
	et.Lock()
	defer et.Unlock()

	return CountLines(et.Node)
}
