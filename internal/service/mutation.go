package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/flowdesk/internal/database/repository"
	"github.com/jask/flowdesk/internal/mutation"
)

// MutationService runs mutations through Remote and records each attempt
// in the audit log. Results are recorded even when the dialog that asked
// for them has since been closed.
type MutationService struct {
	Remote mutation.Executor
	Audit  *repository.MutationLogRepo
	Log    zerolog.Logger
	Now    func() time.Time
}

var _ mutation.Executor = (*MutationService)(nil)

func (s *MutationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *MutationService) Execute(ctx context.Context, call mutation.Call) (res mutation.Result, err error) {
	if call.Definition == nil {
		return mutation.Result{}, fmt.Errorf("mutation service: call without definition")
	}
	id := uuid.NewString()
	log := s.Log.With().Str("attempt", id).Str("mutation", call.Definition.Name).Str("node", call.Node.ID).Logger()
	// audit writes outlive a cancelled call
	auditCtx := context.WithoutCancel(ctx)

	audited := true
	if err := s.Audit.Begin(auditCtx, repository.LogEntry{
		ID:        id,
		Mutation:  call.Definition.Name,
		NodeID:    call.Node.ID,
		NodeKind:  string(call.Node.Kind),
		StartedAt: s.now(),
	}); err != nil {
		audited = false
		log.Warn().Err(err).Msg("audit entry not written")
	}
	log.Info().Msg("mutation sent")

	defer func() {
		r := recover()
		status, msg := repository.LogSucceeded, ""
		switch {
		case r != nil:
			status, msg = repository.LogFailed, fmt.Sprintf("panic: %v", r)
		case err != nil:
			status, msg = repository.LogFailed, mutation.AsSubmissionError(err).Error()
		}
		if audited {
			if ferr := s.Audit.Finish(auditCtx, id, status, msg, s.now()); ferr != nil {
				log.Warn().Err(ferr).Msg("audit entry not finished")
			}
		}
		if status == repository.LogFailed {
			log.Info().Str("error", msg).Msg("mutation failed")
		} else {
			log.Info().Msg("mutation succeeded")
		}
		if r != nil {
			panic(r)
		}
	}()
	return s.Remote.Execute(ctx, call)
}
