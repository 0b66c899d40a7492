package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jask/flowdesk/internal/config"
	"github.com/jask/flowdesk/internal/fixtures"
	"github.com/jask/flowdesk/internal/mutation"
	"github.com/jask/flowdesk/internal/service"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// runCmd executes cmd and any batched commands, dropping spinner ticks.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, runCmd(c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func apply(t *testing.T, a *App, msg tea.Msg) *App {
	t.Helper()
	next, cmd := a.Update(msg)
	got, ok := next.(*App)
	if !ok {
		t.Fatalf("Update returned %T, want *App", next)
	}
	for _, m := range runCmd(cmd) {
		got = apply(t, got, m)
	}
	return got
}

func press(t *testing.T, a *App, k string) *App {
	t.Helper()
	return apply(t, a, keyMsg(k))
}

func typeText(t *testing.T, a *App, input string) *App {
	t.Helper()
	for _, r := range input {
		a = press(t, a, string(r))
	}
	return a
}

func newTestApp(t *testing.T, exec mutation.Executor) *App {
	t.Helper()
	fx := fixtures.Default()
	cfg := config.Config{}
	cfg.Mutations.Primary = map[string][]string{}
	for kind, names := range fx.Primary {
		cfg.Mutations.Primary[string(kind)] = names
	}
	a := New(context.Background(), cfg, Services{Executor: exec}, zerolog.Nop())
	a = apply(t, a, treeMsg{fx.Tree})
	a = apply(t, a, catalogMsg(service.CatalogState{Catalog: fx.Catalog, Source: "fixture"}))
	return a
}

func selectNode(t *testing.T, a *App, name string) *App {
	t.Helper()
	for i, r := range a.rows {
		if r.Node.Name == name {
			a.cursor = i
			return a
		}
	}
	t.Fatalf("node %q not in tree", name)
	return a
}

func openByName(t *testing.T, a *App, node, mutationName string) *App {
	t.Helper()
	a = selectNode(t, a, node)
	a = press(t, a, ":")
	a = typeText(t, a, mutationName)
	a = press(t, a, "enter")
	if a.modal != modalDialog || a.dialog == nil {
		t.Fatalf("dialog not open after :%s (status %q)", mutationName, a.status)
	}
	return a
}

var succeed = mutation.ExecutorFunc(func(context.Context, mutation.Call) (mutation.Result, error) {
	return mutation.Result{}, nil
})

func TestTreeNavigation(t *testing.T) {
	a := newTestApp(t, succeed)
	if len(a.rows) == 0 {
		t.Fatal("tree rows not loaded")
	}
	a = press(t, a, "down")
	a = press(t, a, "j")
	if a.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", a.cursor)
	}
	a = press(t, a, "up")
	if a.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", a.cursor)
	}
	if !strings.Contains(a.View(), "BAD") {
		t.Fatal("tree view missing BAD family")
	}
}

func TestSuccessfulSubmissionClosesAndForgetsValues(t *testing.T) {
	var got mutation.Call
	exec := mutation.ExecutorFunc(func(_ context.Context, call mutation.Call) (mutation.Result, error) {
		got = call
		return mutation.Result{}, nil
	})
	a := newTestApp(t, exec)
	a = openByName(t, a, "BAD", "workflowMutation")
	for range a.dialog.inputs {
		a = typeText(t, a, "ABC")
		a = press(t, a, "tab")
	}
	a = press(t, a, "ctrl+s")

	if a.dialog != nil || a.modal != modalNone || a.ctrl.IsOpen() {
		t.Fatal("dialog should close after a successful submission")
	}
	if got.Args["workflow"] != "ABC" {
		t.Fatalf("submitted args = %v", got.Args)
	}
	n, ok := a.snack.Top()
	if !ok || n.Level != mutation.LevelSuccess {
		t.Fatalf("expected success notification, got %+v (%v)", n, ok)
	}

	a = press(t, a, "x")
	a = openByName(t, a, "BAD", "workflowMutation")
	for i, in := range a.dialog.inputs {
		if strings.Contains(in.Value(), "ABC") {
			t.Fatalf("input %d remembered %q", i, in.Value())
		}
	}
}

func TestDialogStaysOpenWhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	exec := mutation.ExecutorFunc(func(context.Context, mutation.Call) (mutation.Result, error) {
		<-release
		return mutation.Result{}, nil
	})
	a := newTestApp(t, exec)
	a = openByName(t, a, "BAD", "workflowMutation")

	next, cmd := a.Update(keyMsg("ctrl+s"))
	a = next.(*App)
	if !a.dialog.pending() {
		t.Fatal("submission should be pending")
	}
	if !strings.Contains(a.View(), "Submitting") {
		t.Fatal("submit control should show the loading state")
	}

	done := make(chan []tea.Msg, 1)
	go func() { done <- runCmd(cmd) }()

	// edits and resubmits are ignored while pending
	a = typeText(t, a, "zzz")
	if v, _ := a.dialog.session.Form.Value("workflow"); v != "" {
		t.Fatalf("field edited while pending: %q", v)
	}
	a = press(t, a, "ctrl+s")
	if a.status != "submission in progress" {
		t.Fatalf("status = %q", a.status)
	}
	if a.dialog == nil || !a.ctrl.IsOpen() {
		t.Fatal("dialog closed before the response arrived")
	}

	close(release)
	for _, msg := range <-done {
		a = apply(t, a, msg)
	}
	if a.dialog != nil || a.ctrl.IsOpen() {
		t.Fatal("dialog should close once the response arrives")
	}
}

func TestFailedSubmissionKeepsDialogOpen(t *testing.T) {
	exec := mutation.ExecutorFunc(func(context.Context, mutation.Call) (mutation.Result, error) {
		return mutation.Result{}, &mutation.SubmissionError{Code: "offline", Message: "offline mode: mutations are unavailable"}
	})
	a := newTestApp(t, exec)
	a = selectNode(t, a, "GOOD")
	a = press(t, a, "enter")
	if a.modal != modalMenu {
		t.Fatalf("modal = %q, want menu", a.modal)
	}
	a = press(t, a, "enter")
	if a.modal != modalDialog {
		t.Fatalf("modal = %q, want dialog", a.modal)
	}
	a = press(t, a, "ctrl+s")

	n, ok := a.snack.Top()
	if !ok || n.Level != mutation.LevelError {
		t.Fatalf("expected error notification, got %+v", n)
	}
	if a.dialog == nil || a.dialog.session.Submission.Status() != mutation.StatusFailed {
		t.Fatal("dialog should stay open in failed state")
	}
	if !strings.Contains(a.View(), "offline mode") {
		t.Fatal("view should show the failure")
	}

	a = press(t, a, "ctrl+x")
	if a.snack.Visible() {
		t.Fatal("snackbar should be dismissed")
	}
	if a.dialog == nil || !a.ctrl.IsOpen() {
		t.Fatal("dismissing the snackbar must not close the dialog")
	}

	a = press(t, a, "esc")
	if a.dialog != nil || a.ctrl.IsOpen() || a.modal != modalNone {
		t.Fatal("cancel should close the dialog")
	}
}

func TestFormValidationAndTooltip(t *testing.T) {
	calls := 0
	exec := mutation.ExecutorFunc(func(context.Context, mutation.Call) (mutation.Result, error) {
		calls++
		return mutation.Result{}, &mutation.SubmissionError{Message: "rejected"}
	})
	a := newTestApp(t, exec)
	a = openByName(t, a, "checkpoint", "workflowMutation")

	if !a.dialog.session.Form.Valid() {
		t.Fatal("form should be valid initially")
	}
	a = press(t, a, "tab")
	if !a.dialog.onSubmit() {
		t.Fatal("tab should move focus to submit")
	}
	if _, shown := a.dialog.tooltip(); shown {
		t.Fatal("tooltip should be hidden for a valid form")
	}

	a = press(t, a, "shift+tab")
	a = press(t, a, " ")
	if a.dialog.session.Form.Valid() {
		t.Fatal("whitespace in a required field should be invalid")
	}
	if !strings.Contains(a.View(), "must not be blank") {
		t.Fatal("field error not rendered")
	}
	a = press(t, a, "tab")
	tip, shown := a.dialog.tooltip()
	if !shown || !strings.Contains(tip, "workflow") {
		t.Fatalf("tooltip = %q (%v)", tip, shown)
	}

	a = press(t, a, "enter")
	if calls != 1 {
		t.Fatalf("invalid form should still submit, calls = %d", calls)
	}
}

func TestLateResultAfterCancelIsIgnored(t *testing.T) {
	release := make(chan struct{})
	exec := mutation.ExecutorFunc(func(context.Context, mutation.Call) (mutation.Result, error) {
		<-release
		return mutation.Result{}, &mutation.SubmissionError{Message: "too late"}
	})
	a := newTestApp(t, exec)
	a = openByName(t, a, "BAD", "workflowMutation")
	next, cmd := a.Update(keyMsg("ctrl+s"))
	a = next.(*App)
	a = press(t, a, "esc")

	a = openByName(t, a, "GOOD", "workflowMutation")
	close(release)
	for _, msg := range runCmd(cmd) {
		a = apply(t, a, msg)
	}
	if a.snack.Visible() {
		t.Fatal("late result must not notify")
	}
	if a.dialog == nil || a.dialog.session.Node.Name != "GOOD" {
		t.Fatal("late result must not touch the newer dialog")
	}
	if a.dialog.session.Submission.Status() != mutation.StatusIdle {
		t.Fatalf("newer dialog status = %s", a.dialog.session.Submission.Status())
	}
}

func TestXTypesIntoFocusedField(t *testing.T) {
	a := newTestApp(t, succeed)
	a.snack.Notify(mutation.Notification{Level: mutation.LevelError, Message: "earlier"})
	a = openByName(t, a, "BAD", "workflowMutation")
	a = press(t, a, "x")
	if v, _ := a.dialog.session.Form.Value("workflow"); v != "x" {
		t.Fatalf("value = %q, want x", v)
	}
	if !a.snack.Visible() {
		t.Fatal("x in a field must not dismiss the snackbar")
	}
}

func TestUnknownMutationSuggests(t *testing.T) {
	a := newTestApp(t, succeed)
	a = selectNode(t, a, "one")
	a = press(t, a, ":")
	a = typeText(t, a, "workflowMutaton")
	a = press(t, a, "enter")
	if a.modal != modalNone {
		t.Fatalf("modal = %q", a.modal)
	}
	if !strings.Contains(a.status, "did you mean workflowMutation") {
		t.Fatalf("status = %q", a.status)
	}
}

func TestEmptyCatalogMenu(t *testing.T) {
	a := newTestApp(t, succeed)
	a = apply(t, a, catalogMsg(service.CatalogState{Catalog: mutation.EmptyCatalog(), Source: service.SourceEmpty}))
	a = press(t, a, "enter")
	if a.modal != modalNone {
		t.Fatalf("modal = %q, want none", a.modal)
	}
	if !strings.Contains(a.status, "no mutations available") {
		t.Fatalf("status = %q", a.status)
	}
}

func TestDialogFocusFollowsKeyBindings(t *testing.T) {
	a := newTestApp(t, succeed)
	a.keys.Next = key.NewBinding(key.WithKeys("ctrl+n"))
	a.keys.Prev = key.NewBinding(key.WithKeys("ctrl+p"))
	a = openByName(t, a, "checkpoint", "workflowMutation")

	a = press(t, a, "tab")
	if !a.dialog.onField() {
		t.Fatal("tab is no longer bound and should not move focus")
	}
	a = press(t, a, "ctrl+n")
	if !a.dialog.onSubmit() {
		t.Fatal("rebound next key should move focus to submit")
	}
	a = press(t, a, "ctrl+p")
	if !a.dialog.onField() {
		t.Fatal("rebound prev key should move focus back to the field")
	}
}
