package mutation

import "github.com/jask/flowdesk/internal/workflow"

// Level distinguishes success from error notifications.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification is what the dialog reports to the notification surface.
type Notification struct {
	Level    Level
	Message  string
	Mutation string
	Node     workflow.Ref
}

// Notifier is the notification surface. The dialog only calls it; display
// duration, dismissal and stacking belong to the implementation.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }
