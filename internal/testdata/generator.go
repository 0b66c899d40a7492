// Package testdata generates synthetic workflow trees for demos and load
// tests of the tree view.
package testdata

import (
	"fmt"
	"math/rand"

	"github.com/jask/flowdesk/internal/workflow"
)

// Shape controls the size of a generated workflow.
type Shape struct {
	Cycles   int
	Families int // per cycle
	Tasks    int // per family
	Jobs     int // per task, at most
}

// DefaultShape is big enough to scroll.
var DefaultShape = Shape{Cycles: 3, Families: 4, Tasks: 5, Jobs: 2}

var states = []string{"waiting", "preparing", "submitted", "running", "succeeded", "failed"}

// Workflow returns the nodes of one synthetic workflow named name. The same
// seed always yields the same tree.
func Workflow(name string, shape Shape, seed int64) []workflow.Node {
	rng := rand.New(rand.NewSource(seed))
	root := "~user/" + name
	nodes := []workflow.Node{{ID: root, Name: name, Kind: workflow.KindWorkflow, State: "running"}}

	for c := 1; c <= shape.Cycles; c++ {
		cycle := fmt.Sprintf("%04d0101T0000Z", 2000+c)
		cycleID := root + "//" + cycle
		nodes = append(nodes, workflow.Node{ID: cycleID, ParentID: root, Name: cycle, Kind: workflow.KindCycle, State: "running", SortOrder: c})

		for f := 1; f <= shape.Families; f++ {
			fam := fmt.Sprintf("FAM%02d", f)
			famID := cycleID + "/" + fam
			nodes = append(nodes, workflow.Node{ID: famID, ParentID: cycleID, Name: fam, Kind: workflow.KindFamily, State: "running", SortOrder: f})

			for t := 1; t <= shape.Tasks; t++ {
				task := fmt.Sprintf("%s_task%02d", fam, t)
				taskID := cycleID + "/" + task
				state := states[rng.Intn(len(states))]
				nodes = append(nodes, workflow.Node{ID: taskID, ParentID: famID, Name: task, Kind: workflow.KindTask, State: state, SortOrder: t})

				jobs := 0
				if shape.Jobs > 0 && state != "waiting" {
					jobs = 1 + rng.Intn(shape.Jobs)
				}
				for j := 1; j <= jobs; j++ {
					job := fmt.Sprintf("%02d", j)
					jobState := "failed"
					if j == jobs {
						jobState = state
					}
					nodes = append(nodes, workflow.Node{ID: taskID + "/" + job, ParentID: taskID, Name: job, Kind: workflow.KindJob, State: jobState, SortOrder: j})
				}
			}
		}
	}
	return nodes
}
