package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/sariflens/internal/sarif"
)

// defaultBuffer is the response channel capacity. One slot is always kept
// free for the terminal message so the task never blocks on a slow reader.
const defaultBuffer = 16

var errNoContent = errors.New("no file content provided")

// Worker runs parse requests as background tasks.
type Worker struct {
	logger hclog.Logger
	parser *sarif.Parser
	buffer int
}

// New returns a worker parsing with the given options.
func New(logger hclog.Logger, opts sarif.Options) *Worker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Worker{
		logger: logger,
		parser: sarif.NewParser(logger.Named("parser"), opts),
		buffer: defaultBuffer,
	}
}

// Task is one in-flight parse. Its message stream carries zero or more
// progress messages followed by exactly one terminal message, then closes.
type Task struct {
	id       string
	fileName string
	messages chan Message
	cancel   context.CancelFunc
	done     chan struct{}

	terminated bool
	result     *sarif.Result
	err        error
}

// Start launches req in a new goroutine. Cancelling ctx or calling
// Task.Cancel terminates the task with a transport failure.
func (w *Worker) Start(ctx context.Context, req Request) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		id:       req.ID,
		fileName: req.Payload.FileName,
		messages: make(chan Message, w.buffer),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go t.run(ctx, w, req)
	return t
}

func (t *Task) run(ctx context.Context, w *Worker, req Request) {
	defer close(t.done)
	defer close(t.messages)
	defer t.cancel()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("parse task panicked", "request_id", t.id, "panic", r, "stack", string(debug.Stack()))
			t.finish(nil, sarif.NewTransportFailure(fmt.Sprintf("%v", r), nil))
		}
	}()

	logger := w.logger.With("request_id", t.id, "file", t.fileName)

	if req.Type != TypeParseSARIF {
		t.finish(nil, sarif.NewTransportFailure(fmt.Sprintf("unsupported request type %q", req.Type), nil))
		return
	}
	if req.Payload.FileContent == "" {
		t.finish(nil, sarif.NewMalformedInput(errNoContent))
		return
	}

	logger.Debug("parse started", "bytes", len(req.Payload.FileContent))
	result, err := w.parser.Parse(ctx, []byte(req.Payload.FileContent), t.progress)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			logger.Debug("parse cancelled")
			t.finish(nil, sarif.NewTransportFailure("parse cancelled", err))
			return
		}
		logger.Debug("parse failed", "error", err)
		t.finish(nil, err)
		return
	}
	logger.Debug("parse complete", "findings", len(result.Findings))
	t.finish(result, nil)
}

// progress forwards a checkpoint when there is room for it. Checkpoints are
// best effort: a reader that falls behind misses some of them.
func (t *Task) progress(percent int, stage string) {
	if len(t.messages) >= cap(t.messages)-1 {
		return
	}
	t.messages <- progressMessage(t.id, percent, stage)
}

func (t *Task) finish(result *sarif.Result, err error) {
	if t.terminated {
		return
	}
	t.terminated = true
	t.result, t.err = result, err
	if err != nil {
		t.messages <- errorMessage(t.id, t.fileName, err)
		return
	}
	t.messages <- completeMessage(t.id, result)
}

// ID returns the id of the request the task serves.
func (t *Task) ID() string { return t.id }

// Messages returns the response stream. Use either Messages or Wait, not both.
func (t *Task) Messages() <-chan Message { return t.messages }

// Done is closed once the terminal message has been queued.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel terminates the task. It is safe to call more than once.
func (t *Task) Cancel() { t.cancel() }

// Wait drains the stream, passing progress to onProgress, and returns the
// terminal outcome. If ctx ends first the task is cancelled and ctx.Err() is
// returned.
func (t *Task) Wait(ctx context.Context, onProgress func(ProgressPayload)) (*sarif.Result, error) {
	for {
		select {
		case <-ctx.Done():
			t.Cancel()
			return nil, ctx.Err()
		case msg, ok := <-t.messages:
			if !ok {
				<-t.done
				return t.result, t.err
			}
			if p, isProgress := msg.Payload.(ProgressPayload); isProgress && onProgress != nil {
				onProgress(p)
			}
		}
	}
}

// Serve reads one request from r, runs it and writes every response to out as
// newline-delimited JSON.
func (w *Worker) Serve(ctx context.Context, r io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)

	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		w.logger.Error("failed to decode request", "error", err)
		msg := errorMessage("", "", sarif.NewMalformedInput(err))
		if encErr := enc.Encode(msg); encErr != nil {
			return fmt.Errorf("failed to write error message: %w", encErr)
		}
		return fmt.Errorf("failed to decode request: %w", err)
	}

	task := w.Start(ctx, req)
	for msg := range task.Messages() {
		if err := enc.Encode(msg); err != nil {
			task.Cancel()
			for range task.Messages() {
			}
			return fmt.Errorf("failed to write %s message: %w", msg.Type, err)
		}
	}
	<-task.Done()
	return task.err
}
