package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jask/flowdesk/internal/config"
	"github.com/jask/flowdesk/internal/mutation"
	"github.com/jask/flowdesk/internal/service"
	"github.com/jask/flowdesk/internal/workflow"
)

// App ties together the tree, the mutation menu and the mutation dialog.
type App struct {
	ctx      context.Context
	services Services
	cfg      config.Config
	log      zerolog.Logger
	keys     keyMap

	tree    *workflow.Tree
	rows    []workflow.Row
	cursor  int
	catalog *mutation.Catalog
	source  string

	modal      modalState
	menu       []*mutation.Definition
	menuCursor int
	menuSplit  int // number of primary entries at the top of menu
	prompt     textinput.Model

	ctrl    *mutation.Controller
	dialog  *dialogView
	snack   *snackbar
	spinner spinner.Model

	status string
	width  int
	height int
}

type Services struct {
	Catalog  *service.CatalogService
	Tree     *service.TreeService
	Executor mutation.Executor
}

type modalState string

const (
	modalNone    modalState = ""
	modalMenu    modalState = "menu"
	modalCommand modalState = "command"
	modalDialog  modalState = "dialog"
)

func New(ctx context.Context, cfg config.Config, services Services, log zerolog.Logger) *App {
	if services.Executor == nil {
		services.Executor = mutation.ExecutorFunc(func(context.Context, mutation.Call) (mutation.Result, error) {
			return mutation.Result{}, errors.New("no mutation executor configured")
		})
	}
	snack := &snackbar{}
	prompt := textinput.New()
	prompt.Prompt = ":"
	prompt.CharLimit = 64
	_ = prompt.Cursor.SetMode(cursor.CursorStatic)
	return &App{
		ctx:      ctx,
		services: services,
		cfg:      cfg,
		log:      log,
		keys:     defaultKeys(),
		tree:     workflow.Empty(),
		catalog:  mutation.EmptyCatalog(),
		snack:    snack,
		ctrl:     mutation.NewController(snack, mutation.WithLogger(log.With().Str("component", "dialog").Logger())),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		prompt:   prompt,
	}
}

func (a *App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.services.Tree != nil {
		cmds = append(cmds, a.loadTree())
	}
	if a.services.Catalog != nil {
		cmds = append(cmds, a.refreshCatalog())
	}
	return tea.Batch(cmds...)
}

func (a *App) loadTree() tea.Cmd {
	return func() tea.Msg {
		t, err := a.services.Tree.Load(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return treeMsg{t}
	}
}

func (a *App) refreshCatalog() tea.Cmd {
	return func() tea.Msg {
		st, err := a.services.Catalog.Refresh(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return catalogMsg(st)
	}
}

// submitCmd performs req off the update loop and reports back with the
// response tagged for its session.
func (a *App) submitCmd(req mutation.Request) tea.Cmd {
	exec := a.services.Executor
	ctx := a.ctx
	return func() tea.Msg {
		return mutationDoneMsg(mutation.Perform(ctx, exec, req))
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
	case tea.KeyMsg:
		return a.handleKey(m)
	case treeMsg:
		a.setTree(m.tree)
	case catalogMsg:
		a.catalog = m.Catalog
		a.source = m.Source
		if m.FetchErr != nil {
			a.status = fmt.Sprintf("catalog from %s (%d mutations): %v", m.Source, m.Catalog.Len(), m.FetchErr)
		} else {
			a.status = fmt.Sprintf("catalog refreshed (%d mutations)", m.Catalog.Len())
		}
	case mutationDoneMsg:
		a.resolve(mutation.Response(m))
	case spinner.TickMsg:
		if a.dialog != nil && a.dialog.pending() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(m)
			return a, cmd
		}
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) setTree(t *workflow.Tree) {
	a.tree = t
	a.rows = t.Rows()
	if a.cursor >= len(a.rows) {
		a.cursor = 0
	}
}

func (a *App) selected() (*workflow.Node, bool) {
	if a.cursor < 0 || a.cursor >= len(a.rows) {
		return nil, false
	}
	return a.rows[a.cursor].Node, true
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.modal {
	case modalDialog:
		return a.handleDialogKey(m)
	case modalMenu:
		return a.handleMenuKey(m)
	case modalCommand:
		return a.handleCommandKey(m)
	}
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Dismiss):
		a.snack.Dismiss()
	case key.Matches(m, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.cursor < len(a.rows)-1 {
			a.cursor++
		}
	case key.Matches(m, a.keys.Select):
		a.openMenu()
	case key.Matches(m, a.keys.Command):
		if _, ok := a.selected(); ok {
			a.modal = modalCommand
			a.prompt.SetValue("")
			_ = a.prompt.Focus()
		}
	case key.Matches(m, a.keys.Refresh):
		if a.services.Catalog != nil {
			a.status = "refreshing catalog..."
			return a, a.refreshCatalog()
		}
	}
	return a, nil
}

func (a *App) openMenu() {
	node, ok := a.selected()
	if !ok {
		return
	}
	first, rest := a.catalog.Menu(node.Kind, a.cfg.PrimaryFor(node.Kind))
	if len(first)+len(rest) == 0 {
		a.status = fmt.Sprintf("no mutations available for %s", node.Kind)
		return
	}
	a.menu = append(append([]*mutation.Definition{}, first...), rest...)
	a.menuSplit = len(first)
	a.menuCursor = 0
	a.modal = modalMenu
}

func (a *App) handleMenuKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Cancel):
		a.modal = modalNone
	case key.Matches(m, a.keys.Dismiss):
		a.snack.Dismiss()
	case key.Matches(m, a.keys.Up):
		if a.menuCursor > 0 {
			a.menuCursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.menuCursor < len(a.menu)-1 {
			a.menuCursor++
		}
	case key.Matches(m, a.keys.Activate):
		a.openDialog(a.menu[a.menuCursor])
	}
	return a, nil
}

func (a *App) handleCommandKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Cancel):
		a.prompt.Blur()
		a.modal = modalNone
		return a, nil
	case key.Matches(m, a.keys.Activate):
		a.prompt.Blur()
		a.modal = modalNone
		def, err := a.catalog.FindByName(a.prompt.Value())
		if err != nil {
			a.status = err.Error()
			return a, nil
		}
		a.openDialog(def)
		return a, nil
	}
	var cmd tea.Cmd
	a.prompt, cmd = a.prompt.Update(m)
	return a, cmd
}

func (a *App) openDialog(def *mutation.Definition) {
	node, ok := a.selected()
	if !ok {
		return
	}
	s := a.ctrl.Open(node.Ref(), def)
	a.dialog = newDialogView(s)
	a.modal = modalDialog
	a.status = ""
}

func (a *App) closeDialog() {
	a.dialog = nil
	a.modal = modalNone
}

func (a *App) handleDialogKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := a.dialog
	switch {
	case key.Matches(m, a.keys.Cancel):
		a.ctrl.Cancel()
		a.closeDialog()
		return a, nil
	case key.Matches(m, dismissInField), !d.onField() && key.Matches(m, a.keys.Dismiss):
		a.snack.Dismiss()
		return a, nil
	case key.Matches(m, a.keys.Submit):
		return a, a.submit()
	case key.Matches(m, a.keys.Next):
		d.next()
		return a, nil
	case key.Matches(m, a.keys.Prev):
		d.prev()
		return a, nil
	case key.Matches(m, a.keys.Activate):
		switch {
		case d.onSubmit():
			return a, a.submit()
		case d.onCancel():
			a.ctrl.Cancel()
			a.closeDialog()
		default:
			d.next()
		}
		return a, nil
	}
	if name, value, changed := d.edit(m); changed {
		if err := a.ctrl.SetValue(name, value); err != nil {
			a.status = err.Error()
		}
	}
	return a, nil
}

// submit starts a remote call for the open dialog. Invalid forms are still
// submitted; the server has the final say.
func (a *App) submit() tea.Cmd {
	req, err := a.ctrl.Submit()
	switch {
	case errors.Is(err, mutation.ErrSubmitInFlight):
		a.status = "submission in progress"
		return nil
	case err != nil:
		a.status = err.Error()
		return nil
	}
	a.status = "submitting " + req.Call.Definition.Name + "..."
	return tea.Batch(a.spinner.Tick, a.submitCmd(req))
}

func (a *App) resolve(resp mutation.Response) {
	switch a.ctrl.Resolve(resp) {
	case mutation.OutcomeSucceeded:
		a.closeDialog()
		a.status = ""
	case mutation.OutcomeFailed:
		a.status = ""
	}
}

type treeMsg struct{ tree *workflow.Tree }

type catalogMsg service.CatalogState

type mutationDoneMsg mutation.Response

type statusMsg string

type errMsg struct{ error }
