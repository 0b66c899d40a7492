package mutation

import "fmt"

// Status is the state of a submission attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Attempt is one submit of a form.
type Attempt struct {
	ID       uint64
	Snapshot Snapshot
	Status   Status
	Err      *SubmissionError
}

// Submission drives the submit sequence of one dialog session. Only one
// attempt exists at a time.
type Submission struct {
	attempt Attempt
	nextID  uint64
}

func NewSubmission() *Submission { return &Submission{} }

func (s *Submission) Status() Status { return s.attempt.Status }

// Attempt returns a copy of the current attempt.
func (s *Submission) Attempt() Attempt {
	a := s.attempt
	if a.Snapshot != nil {
		a.Snapshot = a.Snapshot.clone()
	}
	return a
}

func allowed(from, to Status) bool {
	switch from {
	case StatusIdle, StatusFailed:
		return to == StatusPending
	case StatusPending:
		return to == StatusSucceeded || to == StatusFailed
	}
	return false
}

// Begin snapshots the form and moves to pending. It is allowed from idle and
// failed only; a pending attempt rejects re-entrant submits.
func (s *Submission) Begin(f *Form) (Attempt, error) {
	switch s.attempt.Status {
	case StatusPending:
		return Attempt{}, ErrSubmitInFlight
	case StatusSucceeded:
		return Attempt{}, ErrAlreadySucceeded
	}
	if !allowed(s.attempt.Status, StatusPending) {
		return Attempt{}, fmt.Errorf("mutation: cannot submit from %s", s.attempt.Status)
	}
	s.nextID++
	s.attempt = Attempt{ID: s.nextID, Snapshot: f.Snapshot(), Status: StatusPending}
	return s.Attempt(), nil
}

// Succeed completes the pending attempt id. The snapshot is dropped: nothing
// submitted is retained after success.
func (s *Submission) Succeed(id uint64) error {
	if err := s.finish(id, StatusSucceeded); err != nil {
		return err
	}
	s.attempt.Snapshot = nil
	return nil
}

// Fail records the error payload for the pending attempt id.
func (s *Submission) Fail(id uint64, cause *SubmissionError) error {
	if err := s.finish(id, StatusFailed); err != nil {
		return err
	}
	if cause == nil {
		cause = &SubmissionError{Message: "mutation failed"}
	}
	s.attempt.Err = cause
	return nil
}

func (s *Submission) finish(id uint64, to Status) error {
	if s.attempt.Status != StatusPending || s.attempt.ID != id {
		return fmt.Errorf("%w: attempt %d (current %d, %s)", ErrNotPending, id, s.attempt.ID, s.attempt.Status)
	}
	if !allowed(s.attempt.Status, to) {
		return fmt.Errorf("mutation: disallowed transition %s -> %s", s.attempt.Status, to)
	}
	s.attempt.Status = to
	return nil
}
