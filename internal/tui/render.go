package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/flowdesk/internal/mutation"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dialogStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	buttonStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	focusedButton = buttonStyle.BorderForeground(lipgloss.Color("12")).Bold(true)
	errorButton   = buttonStyle.BorderForeground(lipgloss.Color("9")).Foreground(lipgloss.Color("9"))
	tooltipStyle  = lipgloss.NewStyle().Background(lipgloss.Color("237")).Padding(0, 1)
	successSnack  = lipgloss.NewStyle().Background(lipgloss.Color("22")).Padding(0, 1)
	errorSnack    = lipgloss.NewStyle().Background(lipgloss.Color("52")).Padding(0, 1)
)

var stateGlyph = map[string]string{
	"running":   "●",
	"waiting":   "○",
	"succeeded": "✓",
	"failed":    "✗",
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderTree())
	switch a.modal {
	case modalMenu:
		b.WriteString("\n\n" + a.renderMenu())
	case modalCommand:
		b.WriteString("\n\n" + a.prompt.View())
	case modalDialog:
		b.WriteString("\n\n" + a.renderDialog())
	}
	if n, ok := a.snack.Top(); ok {
		b.WriteString("\n\n" + renderSnack(n))
	}
	if a.status != "" {
		b.WriteString("\n" + mutedStyle.Render(a.status))
	}
	return b.String()
}

func (a *App) renderTree() string {
	var b strings.Builder
	title := "Workflows"
	if a.cfg.UI.Workflow != "" {
		title += " · " + a.cfg.UI.Workflow
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	if len(a.rows) == 0 {
		b.WriteString(mutedStyle.Render("no workflows loaded"))
		return b.String()
	}
	for i, r := range a.rows {
		glyph := stateGlyph[r.Node.State]
		if glyph == "" {
			glyph = "·"
		}
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", r.Depth), glyph, r.Node.Name)
		if i == a.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderMenu() string {
	var b strings.Builder
	node, _ := a.selected()
	b.WriteString(titleStyle.Render("Mutations for "+node.Name) + "\n")
	for i, def := range a.menu {
		if i == a.menuSplit && i > 0 {
			b.WriteString(mutedStyle.Render("  ──") + "\n")
		}
		line := def.Name
		if def.Description != "" {
			line += mutedStyle.Render("  " + firstLine(def.Description))
		}
		if i == a.menuCursor {
			b.WriteString(cursorStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return dialogStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (a *App) renderDialog() string {
	d := a.dialog
	s := d.session
	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Definition().Name) + mutedStyle.Render("  "+s.Node.String()) + "\n")
	if desc := s.Definition().Description; desc != "" {
		b.WriteString(mutedStyle.Render(desc) + "\n")
	}
	b.WriteString("\n")
	for i, fs := range s.Form.Fields() {
		label := fs.Name
		if spec, ok := s.Definition().Arg(fs.Name); ok && spec.Required {
			label += "*"
		}
		marker := "  "
		if d.focus == i {
			marker = cursorStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%-16s %s", marker, label, d.inputs[i].View()))
		if !fs.Valid {
			b.WriteString("  " + errorStyle.Render(fs.Reason))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + a.renderButtons())
	if tip, ok := d.tooltip(); ok {
		b.WriteString("\n" + tooltipStyle.Render(tip))
	}
	if at := s.Submission.Attempt(); at.Status == mutation.StatusFailed && at.Err != nil {
		b.WriteString("\n" + errorStyle.Render(at.Err.Error()))
	}
	return dialogStyle.Render(b.String())
}

func (a *App) renderButtons() string {
	d := a.dialog
	submitLabel := "Submit"
	if d.pending() {
		submitLabel = a.spinner.View() + " Submitting"
	}
	submit := buttonStyle
	switch {
	case !d.session.Form.Valid():
		submit = errorButton
	case d.onSubmit():
		submit = focusedButton
	}
	cancel := buttonStyle
	if d.onCancel() {
		cancel = focusedButton
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, submit.Render(submitLabel), " ", cancel.Render("Cancel"))
}

func renderSnack(n mutation.Notification) string {
	style := successSnack
	if n.Level == mutation.LevelError {
		style = errorSnack
	}
	return style.Render(n.Message + "  [x]")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
