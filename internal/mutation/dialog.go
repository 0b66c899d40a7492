// Package mutation implements the mutation dialog: the catalog of remote
// commands, the form and its validation, and the submission state machine
// that ties a dialog session to asynchronous results.
package mutation

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jask/flowdesk/internal/workflow"
)

// Token identifies a dialog session. Tokens increase monotonically; only the
// live session's token may change dialog state.
type Token uint64

// Session pairs the selected node with its form and submission.
type Session struct {
	Token      Token
	Node       workflow.Ref
	Form       *Form
	Submission *Submission
}

func (s *Session) Definition() *Definition { return s.Form.Definition() }

// Outcome reports what Resolve did with a response.
type Outcome int

const (
	OutcomeStale Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	}
	return "stale"
}

// Controller owns the open/closed lifecycle. At most one session is live.
type Controller struct {
	notifier   Notifier
	log        zerolog.Logger
	last       Token
	live       *Session
	violations int
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func NewController(n Notifier, opts ...Option) *Controller {
	if n == nil {
		n = NotifierFunc(func(Notification) {})
	}
	c := &Controller{notifier: n, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts a fresh session for node and def. An open session is torn
// down first; results for it are ignored from then on.
func (c *Controller) Open(node workflow.Ref, def *Definition) *Session {
	if c.live != nil {
		c.log.Debug().Uint64("token", uint64(c.live.Token)).Msg("superseding open dialog")
		c.close()
	}
	c.last++
	c.live = &Session{
		Token:      c.last,
		Node:       node,
		Form:       NewForm(def),
		Submission: NewSubmission(),
	}
	c.log.Debug().
		Uint64("token", uint64(c.last)).
		Str("mutation", def.Name).
		Str("node", node.ID).
		Msg("dialog opened")
	return c.live
}

// Cancel closes the live session in any status, pending included. It
// reports whether a session was open.
func (c *Controller) Cancel() bool {
	if c.live == nil {
		return false
	}
	c.log.Debug().
		Uint64("token", uint64(c.live.Token)).
		Str("status", c.live.Submission.Status().String()).
		Msg("dialog cancelled")
	c.close()
	return true
}

func (c *Controller) close() { c.live = nil }

func (c *Controller) IsOpen() bool { return c.live != nil }

// Current returns the live session.
func (c *Controller) Current() (*Session, bool) { return c.live, c.live != nil }

// Token returns the live session token, or zero when closed.
func (c *Controller) Token() Token {
	if c.live == nil {
		return 0
	}
	return c.live.Token
}

// Violations counts contract violations (edits to unknown arguments) seen
// since the controller was created.
func (c *Controller) Violations() int { return c.violations }

// SetValue edits a field of the live form.
func (c *Controller) SetValue(name, value string) error {
	if c.live == nil {
		return ErrNoSession
	}
	err := c.live.Form.SetValue(name, value)
	if errors.Is(err, ErrUnknownArgument) {
		c.violations++
		c.log.Warn().
			Str("mutation", c.live.Definition().Name).
			Str("argument", name).
			Msg("edit for unknown argument ignored")
	}
	return err
}

// Submit snapshots the live form and returns the request to execute. It
// fails with ErrSubmitInFlight while an attempt is pending.
func (c *Controller) Submit() (Request, error) {
	if c.live == nil {
		return Request{}, ErrNoSession
	}
	attempt, err := c.live.Submission.Begin(c.live.Form)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Token:   c.live.Token,
		Attempt: attempt.ID,
		Call: Call{
			Definition: c.live.Definition(),
			Node:       c.live.Node,
			Args:       attempt.Snapshot,
		},
	}, nil
}

// Resolve applies a remote outcome. Responses for a session that is no
// longer live, or for an attempt that is no longer pending, are dropped
// without touching state or notifying.
func (c *Controller) Resolve(resp Response) Outcome {
	out, err := c.apply(resp)
	if err != nil {
		c.log.Debug().Err(err).Msg("dropping mutation result")
	}
	return out
}

// apply returns OutcomeStale with an error wrapping ErrStaleSession when
// resp does not belong to the live session's pending attempt.
func (c *Controller) apply(resp Response) (Outcome, error) {
	s := c.live
	if s == nil {
		return OutcomeStale, fmt.Errorf("%w: token %d, no dialog open", ErrStaleSession, resp.Token)
	}
	if s.Token != resp.Token {
		return OutcomeStale, fmt.Errorf("%w: token %d, live %d", ErrStaleSession, resp.Token, s.Token)
	}
	def := s.Definition()
	if resp.Err == nil {
		if err := s.Submission.Succeed(resp.Attempt); err != nil {
			return OutcomeStale, fmt.Errorf("%w: %w", ErrStaleSession, err)
		}
		c.close()
		msg := fmt.Sprintf("%s submitted", def.Name)
		if resp.Result.Message != "" {
			msg += ": " + resp.Result.Message
		}
		c.notifier.Notify(Notification{Level: LevelSuccess, Message: msg, Mutation: def.Name, Node: s.Node})
		return OutcomeSucceeded, nil
	}
	cause := AsSubmissionError(resp.Err)
	if err := s.Submission.Fail(resp.Attempt, cause); err != nil {
		return OutcomeStale, fmt.Errorf("%w: %w", ErrStaleSession, err)
	}
	c.log.Info().Str("mutation", def.Name).Str("node", s.Node.ID).Str("error", cause.Error()).Msg("mutation failed")
	c.notifier.Notify(Notification{Level: LevelError, Message: cause.Error(), Mutation: def.Name, Node: s.Node})
	return OutcomeFailed, nil
}
