// Package predict talks to the lesion classification service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Prediction is the service's verdict for one image.
type Prediction struct {
	// Confidence is nil when the service did not report one.
	Confidence *float64
	Label      string
}

// HasConfidence reports whether a confidence was returned.
func (p Prediction) HasConfidence() bool {
	return p.Confidence != nil
}

// FormatConfidence renders a confidence in [0,1] as a percentage with two decimals.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.2f%%", c*100)
}

// Upload is the image sent for classification.
type Upload struct {
	Filename string
	MIMEType string
	Payload  []byte
}

// ErrInvalidResponse means the service answered 2xx with a body that is not a prediction.
var ErrInvalidResponse = errors.New("invalid prediction response")

// TransportError is a failed round trip: the request never completed or the
// service answered with a non-2xx status.
type TransportError struct {
	Err    error
	Status int
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("prediction failed with status %d", e.Status)
	}
	return fmt.Sprintf("prediction request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError is an error reported in the response body.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return "prediction service error: " + e.Message
}

// Client posts images to {baseURL}/predict.
type Client struct {
	httpClient *http.Client
	progress   func(total int64) io.Writer
	baseURL    string
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout bounds each request. Zero leaves requests unbounded. It applies
// to the client given by WithHTTPClient too, without modifying it.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithUploadProgress reports upload progress. fn receives the body size and
// returns a writer that is fed every byte as it is sent.
func WithUploadProgress(fn func(total int64) io.Writer) Option {
	return func(cl *Client) {
		cl.progress = fn
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Endpoint returns the URL predictions are posted to.
func (c *Client) Endpoint() string {
	return c.baseURL + "/predict"
}

type response struct {
	Confidence     *float64 `json:"confidence"`
	PredictedClass *string  `json:"predicted_class"`
	Error          *string  `json:"error"`
}

// Predict sends one image and returns the parsed prediction. Exactly one
// request is made; there are no retries.
func (c *Client) Predict(ctx context.Context, up Upload) (Prediction, error) {
	if len(up.Payload) == 0 {
		return Prediction{}, fmt.Errorf("empty upload")
	}

	body, contentType, err := encodeMultipart(up)
	if err != nil {
		return Prediction{}, err
	}
	size := int64(body.Len())

	var reader io.Reader = body
	if c.progress != nil {
		if w := c.progress(size); w != nil {
			reader = io.TeeReader(body, w)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), reader)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, &TransportError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	slog.Debug("Prediction response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("Prediction service returned an error status",
			"status", resp.StatusCode,
			"body", truncate(string(raw), 200))
		return Prediction{}, &TransportError{Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	return parseResponse(raw)
}

func parseResponse(raw []byte) (Prediction, error) {
	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	// An empty error string means no error.
	if r.Error != nil && *r.Error != "" {
		return Prediction{}, &ServiceError{Message: *r.Error}
	}
	if r.PredictedClass == nil || strings.TrimSpace(*r.PredictedClass) == "" {
		return Prediction{}, fmt.Errorf("%w: missing predicted_class", ErrInvalidResponse)
	}

	p := Prediction{Label: *r.PredictedClass}
	if r.Confidence != nil {
		if c := *r.Confidence; c >= 0 && c <= 1 {
			p.Confidence = &c
		} else {
			slog.Warn("Ignoring out of range confidence", "confidence", c, "label", p.Label)
		}
	}
	return p, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(up Upload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	filename := up.Filename
	if filename == "" {
		filename = "upload"
	}
	mimeType := up.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", mimeType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(up.Payload); err != nil {
		return nil, "", fmt.Errorf("failed to write multipart payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
