package main

import (
	"fmt"
	"sort"

	"github.com/titpetric/atkins-core/colors"
	"github.com/titpetric/atkins-core/dig/config"
	"github.com/titpetric/atkins-core/dig/step"
)

// lintDocument implements the `--lint` path: decode every task (already
// done by config.Load at this point) and walk each task's step tree,
// confirming every `task:` sub-task reference names a task that actually
// exists in the document. A config that fails to decode never reaches
// here -- config.Load itself is the first lint check.
func lintDocument(doc *config.Document) error {
	names := make([]string, 0, len(doc.Tasks))
	for name := range doc.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		task := doc.Tasks[name]
		problems = append(problems, lintSteps(doc, name, "presteps", task.PreSteps)...)
		problems = append(problems, lintSteps(doc, name, "steps", task.Steps)...)
		problems = append(problems, lintSteps(doc, name, "poststeps", task.PostSteps)...)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Println(colors.BrightRed("LINT:") + " " + p)
		}
		return fmt.Errorf("lint: %d problem(s) found", len(problems))
	}

	fmt.Printf("%s %d task(s), no problems found\n", colors.BrightGreen("LINT:"), len(names))
	return nil
}

func lintSteps(doc *config.Document, task, list string, steps []step.Step) []string {
	var problems []string
	for i, s := range steps {
		switch st := s.(type) {
		case *step.SubTaskStep:
			if _, err := doc.GetTask(st.Task); err != nil {
				problems = append(problems, fmt.Sprintf("task %q %s[%d]: %v", task, list, i, err))
			}
		case *step.ParallelStep:
			for j, child := range st.Children {
				if sub, ok := child.(*step.SubTaskStep); ok {
					if _, err := doc.GetTask(sub.Task); err != nil {
						problems = append(problems, fmt.Sprintf("task %q %s[%d].parallel[%d]: %v", task, list, i, j, err))
					}
				}
			}
		}
	}
	return problems
}
