package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/skinscope/internal/predict"
	"github.com/Veraticus/skinscope/internal/stager"
)

type fakePredictor struct {
	err     error
	release chan struct{}
	result  predict.Prediction
	calls   atomic.Int32
	mu      sync.Mutex
	uploads []predict.Upload
}

func (f *fakePredictor) Predict(ctx context.Context, up predict.Upload) (predict.Prediction, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.uploads = append(f.uploads, up)
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return predict.Prediction{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func staged() stager.StagedImage {
	return stager.StagedImage{
		Name:     "lesion.png",
		MIMEType: "image/png",
		Payload:  []byte("png-bytes"),
		Preview:  &stager.Preview{DataURI: "data:image/png;base64,cG5nLWJ5dGVz", Format: "png", Width: 2, Height: 2},
	}
}

func confidence(v float64) *float64 { return &v }

func TestController_Success(t *testing.T) {
	fake := &fakePredictor{result: predict.Prediction{Label: "melanoma", Confidence: confidence(0.87)}}
	c := New(fake)
	assert.Equal(t, Idle, c.State().Status)

	req, err := c.Submit(context.Background(), staged())
	require.NoError(t, err)
	assert.Equal(t, InFlight, c.State().Status)

	result, state := c.Complete(req.Run())
	require.NotNil(t, result)
	assert.Equal(t, Succeeded, state.Status)
	assert.Equal(t, "melanoma", result.Prediction.Label)
	require.NotNil(t, result.Prediction.Confidence)
	assert.Equal(t, 0.87, *result.Prediction.Confidence)
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", result.Preview.DataURI)

	require.Len(t, fake.uploads, 1)
	assert.Equal(t, "lesion.png", fake.uploads[0].Filename)
	assert.Equal(t, "image/png", fake.uploads[0].MIMEType)

	_, err = c.Submit(context.Background(), staged())
	assert.ErrorIs(t, err, ErrSettled)
}

func TestController_RejectsWhileInFlight(t *testing.T) {
	fake := &fakePredictor{result: predict.Prediction{Label: "nevus"}, release: make(chan struct{})}
	c := New(fake)

	req, err := c.Submit(context.Background(), staged())
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), staged())
	require.ErrorIs(t, err, ErrInFlight)

	done := make(chan Outcome, 1)
	go func() { done <- req.Run() }()
	close(fake.release)

	result, state := c.Complete(<-done)
	require.NotNil(t, result)
	assert.Equal(t, Succeeded, state.Status)
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestController_RequiresDecodedImage(t *testing.T) {
	tests := []struct {
		img  stager.StagedImage
		name string
	}{
		{name: "empty", img: stager.StagedImage{}},
		{name: "validation error", img: stager.StagedImage{Name: "x.pdf", Err: stager.ErrNotImage}},
		{name: "still decoding", img: stager.StagedImage{Name: "x.png", MIMEType: "image/png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakePredictor{})
			_, err := c.Submit(context.Background(), tt.img)
			assert.ErrorIs(t, err, ErrNothingStaged)
			assert.Equal(t, Idle, c.State().Status)
		})
	}
}

func TestController_FailureKeepsRetryOpen(t *testing.T) {
	fake := &fakePredictor{err: &predict.ServiceError{Message: "model unavailable"}}
	c := New(fake)

	req, err := c.Submit(context.Background(), staged())
	require.NoError(t, err)
	result, state := c.Complete(req.Run())
	assert.Nil(t, result)
	assert.Equal(t, State{Status: Failed, Reason: "model unavailable"}, state)

	fake.err = nil
	fake.result = predict.Prediction{Label: "dermatofibroma"}
	req, err = c.Submit(context.Background(), staged())
	require.NoError(t, err)
	result, state = c.Complete(req.Run())
	require.NotNil(t, result)
	assert.Equal(t, Succeeded, state.Status)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestController_DismissClearsFailure(t *testing.T) {
	c := New(&fakePredictor{err: errors.New("boom")})
	req, err := c.Submit(context.Background(), staged())
	require.NoError(t, err)
	_, state := c.Complete(req.Run())
	assert.Equal(t, Failed, state.Status)
	assert.Equal(t, GenericReason, state.Reason)

	c.Dismiss()
	assert.Equal(t, State{Status: Idle}, c.State())
}

func TestController_CloseIgnoresLateOutcome(t *testing.T) {
	fake := &fakePredictor{result: predict.Prediction{Label: "melanoma"}, release: make(chan struct{})}
	c := New(fake)

	req, err := c.Submit(context.Background(), staged())
	require.NoError(t, err)
	c.Close()

	out := req.Run()
	assert.ErrorIs(t, out.Err, context.Canceled)

	result, state := c.Complete(out)
	assert.Nil(t, result)
	assert.Equal(t, InFlight, state.Status)

	_, err = c.Submit(context.Background(), staged())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestController_StaleOutcomeIgnored(t *testing.T) {
	fake := &fakePredictor{err: errors.New("first")}
	c := New(fake)

	first, err := c.Submit(context.Background(), staged())
	require.NoError(t, err)
	firstOut := first.Run()
	_, state := c.Complete(firstOut)
	require.Equal(t, Failed, state.Status)

	fake.err = nil
	fake.result = predict.Prediction{Label: "nevus"}
	second, err := c.Submit(context.Background(), staged())
	require.NoError(t, err)

	result, state := c.Complete(firstOut)
	assert.Nil(t, result)
	assert.Equal(t, InFlight, state.Status)

	result, _ = c.Complete(second.Run())
	require.NotNil(t, result)
}

func TestController_DoAgainstService(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		status     int
		wantLabel  string
		wantReason string
	}{
		{name: "success", status: http.StatusOK, body: `{"predicted_class":"melanoma","confidence":0.87}`, wantLabel: "melanoma"},
		{name: "service error", status: http.StatusOK, body: `{"error":"model unavailable"}`, wantReason: "model unavailable"},
		{name: "server error", status: http.StatusBadGateway, body: `bad gateway`, wantReason: "Prediction failed"},
		{name: "empty error text", status: http.StatusOK, body: `{"error":""}`, wantReason: GenericReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := New(predict.New(srv.URL, predict.WithHTTPClient(srv.Client())))
			result, err := c.Do(context.Background(), staged())
			if tt.wantLabel != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantLabel, result.Prediction.Label)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantReason, Reason(err))
			assert.Equal(t, State{Status: Failed, Reason: tt.wantReason}, c.State())
		})
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "service", err: &predict.ServiceError{Message: "bad image"}, want: "bad image"},
		{name: "status", err: &predict.TransportError{Status: 500}, want: "Prediction failed"},
		{name: "unreachable", err: &predict.TransportError{Err: errors.New("dial tcp: refused")}, want: "Could not reach the prediction service"},
		{name: "cancelled", err: &predict.TransportError{Err: context.Canceled}, want: "Request cancelled"},
		{name: "invalid", err: fmt.Errorf("%w: missing predicted_class", predict.ErrInvalidResponse), want: "Prediction failed"},
		{name: "unknown", err: errors.New("boom"), want: GenericReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.err))
		})
	}
}
