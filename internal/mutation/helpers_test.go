package mutation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/flowdesk/internal/workflow"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Definition{
		{
			Name:        "workflowMutation",
			Description: "A mutation against a whole workflow.",
			Args: []ArgumentSpec{
				{Name: "workflow", Type: "WorkflowID", Required: true},
				{Name: "reason", Type: "String"},
			},
			Targets: []workflow.Kind{workflow.KindWorkflow},
		},
		{
			Name: "hold",
			Args: []ArgumentSpec{
				{Name: "workflows", Type: "WorkflowID", Required: true, List: true},
				{Name: "tasks", Type: "NamespaceIDGlob", List: true},
			},
		},
		{
			Name: "setVerbosity",
			Args: []ArgumentSpec{
				{Name: "level", Type: "Int", Required: true, Default: "20"},
			},
			Targets: []workflow.Kind{workflow.KindWorkflow},
		},
	})
	require.NoError(t, err)
	return c
}

func mustFind(t *testing.T, c *Catalog, name string) *Definition {
	t.Helper()
	d, err := c.FindByName(name)
	require.NoError(t, err)
	return d
}

var badNode = workflow.Ref{ID: "~user/one//1/BAD", Name: "BAD", Kind: workflow.KindFamily}

// recorder collects notifications.
type recorder struct {
	got []Notification
}

func (r *recorder) Notify(n Notification) { r.got = append(r.got, n) }
