package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/flowdesk/internal/mutation"
	"github.com/jask/flowdesk/internal/workflow"
)

func TestDefaultFixture(t *testing.T) {
	fx := Default()

	wm, err := fx.Catalog.FindByName("workflowMutation")
	require.NoError(t, err)
	arg, ok := wm.Arg("workflow")
	require.True(t, ok)
	require.True(t, arg.Required)

	for _, name := range []string{"one", "BAD", "GOOD", "checkpoint"} {
		found := false
		for _, n := range fx.Nodes {
			if n.Name == name {
				found = true
			}
		}
		require.True(t, found, "missing node %s", name)
	}

	bad, ok := fx.Tree.Find("~user/one//1/BAD")
	require.True(t, ok)
	require.Equal(t, workflow.KindFamily, bad.Kind)
	require.Len(t, bad.Children, 2)

	require.Equal(t, []string{"workflowMutation"}, fx.Primary[workflow.KindWorkflow])
	first, _ := fx.Catalog.Menu(workflow.KindWorkflow, fx.Primary[workflow.KindWorkflow])
	require.Equal(t, "workflowMutation", first[0].Name)
}

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFixture(t, `version = 1
[[mutation]]
name = "stop"
  [[mutation.arg]]
  name = "mode"
[[node]]
id = "~u/w"
name = "w"
kind = "workflow"
`)
	fx, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, fx.Catalog.Len())
	stop, err := fx.Catalog.FindByName("stop")
	require.NoError(t, err)
	require.Equal(t, []mutation.ArgumentSpec{{Name: "mode", Type: "String"}}, stop.Args)
	require.Equal(t, 1, fx.Tree.Len())
}

func TestLoadRejectsBadFixtures(t *testing.T) {
	tests := map[string]string{
		"version":        "version = 2\n",
		"syntax":         "version = \n",
		"duplicate":      "version = 1\n[[mutation]]\nname = \"a\"\n[[mutation]]\nname = \"a\"\n",
		"node kind":      "version = 1\n[[node]]\nid = \"x\"\nkind = \"planet\"\n",
		"missing parent": "version = 1\n[[node]]\nid = \"x\"\nparent = \"y\"\nkind = \"task\"\n",
		"target kind":    "version = 1\n[[mutation]]\nname = \"a\"\ntargets = [\"planet\"]\n",
		"primary":        "version = 1\n[primary]\nworkflow = [\"nope\"]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFixture(t, body))
			require.Error(t, err)
		})
	}
}
