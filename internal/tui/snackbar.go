package tui

import "github.com/jask/flowdesk/internal/mutation"

const maxSnacks = 3

// snackbar is the notification surface. It keeps the newest few
// notifications until the user dismisses them; dismissal never touches the
// dialog.
type snackbar struct {
	items []mutation.Notification
}

var _ mutation.Notifier = (*snackbar)(nil)

func (s *snackbar) Notify(n mutation.Notification) {
	s.items = append(s.items, n)
	if len(s.items) > maxSnacks {
		s.items = s.items[len(s.items)-maxSnacks:]
	}
}

// Top returns the notification currently shown.
func (s *snackbar) Top() (mutation.Notification, bool) {
	if len(s.items) == 0 {
		return mutation.Notification{}, false
	}
	return s.items[len(s.items)-1], true
}

// Dismiss hides the shown notification and reports whether there was one.
func (s *snackbar) Dismiss() bool {
	if len(s.items) == 0 {
		return false
	}
	s.items = s.items[:len(s.items)-1]
	return true
}

func (s *snackbar) Visible() bool { return len(s.items) > 0 }
