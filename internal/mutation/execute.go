package mutation

import (
	"context"
	"fmt"

	"github.com/jask/flowdesk/internal/workflow"
)

// Call is a remote mutation invocation.
type Call struct {
	Definition *Definition
	Node       workflow.Ref
	Args       Snapshot
}

// Result is the success payload of a remote call. The dialog does not
// interpret it beyond the success classification.
type Result struct {
	Message string
}

// Executor runs mutations remotely. A non-nil error classifies the call as
// failed; *SubmissionError carries code and message.
type Executor interface {
	Execute(ctx context.Context, call Call) (Result, error)
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, call Call) (Result, error)

func (f ExecutorFunc) Execute(ctx context.Context, call Call) (Result, error) { return f(ctx, call) }

// Request is issued by Controller.Submit, tagged with the session token and
// attempt it belongs to.
type Request struct {
	Token   Token
	Attempt uint64
	Call    Call
}

// Response carries a remote outcome back to Controller.Resolve.
type Response struct {
	Token   Token
	Attempt uint64
	Result  Result
	Err     error
}

// Perform runs req on exec and packages the outcome. It blocks until the
// executor returns; no timeout is applied.
func Perform(ctx context.Context, exec Executor, req Request) (resp Response) {
	resp = Response{Token: req.Token, Attempt: req.Attempt}
	defer func() {
		if r := recover(); r != nil {
			resp.Err = &SubmissionError{Code: "panic", Message: fmt.Sprintf("executor panic: %v", r)}
		}
	}()
	resp.Result, resp.Err = exec.Execute(ctx, req.Call)
	return resp
}

// Go runs req in its own goroutine and delivers the single response on the
// returned channel.
func Go(ctx context.Context, exec Executor, req Request) <-chan Response {
	ch := make(chan Response, 1)
	go func() {
		ch <- Perform(ctx, exec, req)
	}()
	return ch
}
