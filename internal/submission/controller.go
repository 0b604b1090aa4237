// Package submission owns the predict request for a staged image.
package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Veraticus/skinscope/internal/common"
	"github.com/Veraticus/skinscope/internal/handoff"
	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/stager"
)

// Status is the submission lifecycle.
type Status int

// Submission statuses.
const (
	Idle Status = iota
	InFlight
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller. Reason is set only when Failed.
type State struct {
	Reason string
	Status Status
}

// Submit errors.
var (
	ErrInFlight      = errors.New("a submission is already in flight")
	ErrNothingStaged = errors.New("no decoded image is staged")
	ErrSettled       = errors.New("submission already succeeded")
	ErrClosed        = errors.New("controller is closed")
)

// GenericReason is shown when a failure carries no usable message.
const GenericReason = "An error occurred"

// Predictor is the prediction service.
type Predictor interface {
	Predict(ctx context.Context, up predict.Upload) (predict.Prediction, error)
}

// Controller runs at most one predict request at a time.
type Controller struct {
	predictor Predictor
	cancel    context.CancelFunc
	state     State
	seq       uint64
	mu        sync.Mutex
	closed    bool
}

// New creates an idle controller.
func New(p Predictor) *Controller {
	return &Controller{predictor: p}
}

// Request is one submitted predict call.
type Request struct {
	ctx       context.Context
	predictor Predictor
	preview   stager.Preview
	upload    predict.Upload
	seq       uint64
}

// Outcome is what a Request produced, passed back to Complete.
type Outcome struct {
	Err        error
	preview    stager.Preview
	Prediction predict.Prediction
	seq        uint64
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit moves an Idle or Failed controller to InFlight and returns the
// request to run. The preview is captured now so the result shows exactly
// what was sent.
func (c *Controller) Submit(ctx context.Context, img stager.StagedImage) (*Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return nil, ErrClosed
	case c.state.Status == InFlight:
		return nil, ErrInFlight
	case c.state.Status == Succeeded:
		return nil, ErrSettled
	case img.Err != nil || img.Payload == nil || img.Preview == nil:
		return nil, ErrNothingStaged
	}

	c.seq++
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = State{Status: InFlight}

	common.LogInfo("Submitting image for prediction", common.Fields{"name": img.Name, "mime": img.MIMEType, "bytes": len(img.Payload)})

	return &Request{
		ctx:       ctx,
		predictor: c.predictor,
		preview:   *img.Preview,
		upload: predict.Upload{
			Filename: img.Name,
			MIMEType: img.MIMEType,
			Payload:  img.Payload,
		},
		seq: c.seq,
	}, nil
}

// Run performs the request. It does not touch the controller.
func (r *Request) Run() Outcome {
	start := time.Now()
	p, err := r.predictor.Predict(r.ctx, r.upload)
	common.LogDebug("Prediction finished", common.Fields{"duration": time.Since(start), "failed": err != nil})
	return Outcome{seq: r.seq, preview: r.preview, Prediction: p, Err: err}
}

// Complete applies an outcome. On success it returns the handoff for the
// result screen. Outcomes for requests the controller no longer tracks are
// ignored and return a nil handoff.
func (c *Controller) Complete(o Outcome) (*handoff.Result, State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || o.seq != c.seq || c.state.Status != InFlight {
		return nil, c.state
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if o.Err != nil {
		c.state = State{Status: Failed, Reason: Reason(o.Err)}
		common.LogWarn(o.Err, "Prediction failed", common.Fields{"reason": c.state.Reason})
		return nil, c.state
	}

	c.state = State{Status: Succeeded}
	common.LogInfo("Prediction succeeded", common.Fields{"label": o.Prediction.Label})
	return handoff.New(o.preview, o.Prediction), c.state
}

// Dismiss clears a failure so the form no longer shows it.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == Failed {
		c.state = State{Status: Idle}
	}
}

// Close abandons any in-flight request. Its outcome will be ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Do submits and waits for the result.
func (c *Controller) Do(ctx context.Context, img stager.StagedImage) (*handoff.Result, error) {
	req, err := c.Submit(ctx, img)
	if err != nil {
		return nil, err
	}
	out := req.Run()
	result, _ := c.Complete(out)
	if result == nil {
		if out.Err != nil {
			return nil, out.Err
		}
		return nil, ErrClosed
	}
	return result, nil
}

// Reason turns a submission error into the text shown to the user.
func Reason(err error) string {
	var svcErr *predict.ServiceError
	var tErr *predict.TransportError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &svcErr):
		if svcErr.Message != "" {
			return svcErr.Message
		}
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Prediction timed out"
	case errors.As(err, &tErr):
		if tErr.Status != 0 {
			return "Prediction failed"
		}
		return "Could not reach the prediction service"
	case errors.Is(err, predict.ErrInvalidResponse):
		return "Prediction failed"
	}
	return GenericReason
}
