package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/flowdesk/internal/mutation"
)

// dialogView renders a mutation session. Field state lives in the session's
// form; the inputs only hold what is being typed.
type dialogView struct {
	session *mutation.Session
	inputs  []textinput.Model
	focus   int // fields first, then submit, then cancel
}

func newDialogView(s *mutation.Session) *dialogView {
	d := &dialogView{session: s}
	for _, fs := range s.Form.Fields() {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Width = 40
		ti.Placeholder = fs.Type
		_ = ti.Cursor.SetMode(cursor.CursorStatic)
		ti.SetValue(fs.Value)
		d.inputs = append(d.inputs, ti)
	}
	d.setFocus(0)
	return d
}

func (d *dialogView) submitIndex() int { return len(d.inputs) }
func (d *dialogView) cancelIndex() int { return len(d.inputs) + 1 }

func (d *dialogView) onField() bool { return d.focus < len(d.inputs) }
func (d *dialogView) onSubmit() bool { return d.focus == d.submitIndex() }
func (d *dialogView) onCancel() bool { return d.focus == d.cancelIndex() }

func (d *dialogView) pending() bool {
	return d.session.Submission.Status() == mutation.StatusPending
}

func (d *dialogView) setFocus(i int) {
	n := len(d.inputs) + 2
	i = ((i % n) + n) % n
	for j := range d.inputs {
		d.inputs[j].Blur()
	}
	d.focus = i
	if d.onField() {
		_ = d.inputs[i].Focus()
	}
}

func (d *dialogView) next() { d.setFocus(d.focus + 1) }
func (d *dialogView) prev() { d.setFocus(d.focus - 1) }

// edit forwards a key to the focused input and reports the field whose
// text changed.
func (d *dialogView) edit(msg tea.KeyMsg) (name, value string, changed bool) {
	if !d.onField() || d.pending() {
		return "", "", false
	}
	before := d.inputs[d.focus].Value()
	d.inputs[d.focus], _ = d.inputs[d.focus].Update(msg)
	after := d.inputs[d.focus].Value()
	if after == before {
		return "", "", false
	}
	return d.session.Form.Fields()[d.focus].Name, after, true
}

// tooltip is the form-level reason shown while submit has focus.
func (d *dialogView) tooltip() (string, bool) {
	if !d.onSubmit() || d.session.Form.Valid() {
		return "", false
	}
	return d.session.Form.Reason(), true
}
