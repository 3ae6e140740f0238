package treeview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titpetric/atkins-core/dig/config"
)

func mustLoadDoc(t *testing.T, doc string) *config.Document {
	t.Helper()
	d, err := config.Load([]byte(doc))
	require.NoError(t, err)
	return d
}

func TestBuildFromDocument_SingleTask(t *testing.T) {
	doc := mustLoadDoc(t, `
tasks:
  test:
    steps:
      - "go test ./..."
`)

	node, err := BuildFromDocument(doc)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.True(t, node.HasChildren())

	children := node.GetChildren()
	require.Len(t, children, 1)
	assert.Equal(t, "test", children[0].Name)
}

func TestBuildFromDocument_DepthSorting(t *testing.T) {
	doc := mustLoadDoc(t, `
tasks:
  test: {steps: [echo hi]}
  test:run: {steps: [echo hi]}
  test:run:subtask: {steps: [echo hi]}
  build: {steps: [echo hi]}
  build:run: {steps: [echo hi]}
  docker:setup: {steps: [echo hi]}
`)

	node, err := BuildFromDocument(doc)
	require.NoError(t, err)

	children := node.GetChildren()
	require.Len(t, children, 6)

	expectedOrder := []string{
		"build",
		"test",
		"build:run",
		"docker:setup",
		"test:run",
		"test:run:subtask",
	}
	for i, expected := range expectedOrder {
		assert.Equal(t, expected, children[i].Name, "task order mismatch at index %d", i)
	}
}

func TestBuildFromDocument_Empty(t *testing.T) {
	doc := mustLoadDoc(t, `tasks: {}`)

	node, err := BuildFromDocument(doc)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.False(t, node.HasChildren())
}

func TestAddTask_WithSteps(t *testing.T) {
	doc := mustLoadDoc(t, `
tasks:
  test:
    steps:
      - echo 1
      - echo 2
      - echo 3
`)
	cfg, err := doc.GetTask("test")
	require.NoError(t, err)

	builder := NewBuilder("test-run")
	treeNode := builder.AddTask(cfg, "test")
	require.NotNil(t, treeNode)
	assert.Equal(t, "test", treeNode.Node.Name)

	children := treeNode.Node.GetChildren()
	require.Len(t, children, 3)
	assert.Equal(t, "echo 1", children[0].Name)
	assert.Equal(t, "echo 2", children[1].Name)
	assert.Equal(t, "echo 3", children[2].Name)
}

func TestAddTask_WithoutSteps(t *testing.T) {
	doc := mustLoadDoc(t, `tasks: {empty: {}}`)
	cfg, err := doc.GetTask("empty")
	require.NoError(t, err)

	builder := NewBuilder("test-run")
	treeNode := builder.AddTask(cfg, "empty")
	require.NotNil(t, treeNode)
	assert.False(t, treeNode.Node.HasChildren())
}

func TestAddTaskWithoutSteps(t *testing.T) {
	builder := NewBuilder("test-run")

	treeNode := builder.AddTaskWithoutSteps("test", false)
	assert.NotNil(t, treeNode)
	assert.Equal(t, "test", treeNode.Node.Name)
	assert.False(t, treeNode.Node.HasChildren())

	nested := builder.AddTaskWithoutSteps("test:nested", true)
	assert.Equal(t, StatusConditional, nested.Node.Status)
}

func TestBuildFromDocument_ConsistentOrdering(t *testing.T) {
	doc := mustLoadDoc(t, `
tasks:
  zebra: {steps: [echo hi]}
  apple: {steps: [echo hi]}
  banana: {steps: [echo hi]}
  test:run: {steps: [echo hi]}
  test: {steps: [echo hi]}
`)

	node1, err := BuildFromDocument(doc)
	require.NoError(t, err)
	node2, err := BuildFromDocument(doc)
	require.NoError(t, err)
	node3, err := BuildFromDocument(doc)
	require.NoError(t, err)

	children1 := node1.GetChildren()
	children2 := node2.GetChildren()
	children3 := node3.GetChildren()

	for i := range children1 {
		assert.Equal(t, children1[i].Name, children2[i].Name)
		assert.Equal(t, children1[i].Name, children3[i].Name)
	}
}
