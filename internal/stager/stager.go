// Package stager owns the image the user picked for analysis: it validates the
// type, decodes a preview in the background and tracks validation errors.
package stager

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Veraticus/skinscope/internal/common"
)

// Validation errors.
var (
	ErrNotImage = errors.New("selected file is not an image")
	ErrDecode   = errors.New("failed to read image")
)

// Message returns the text shown to the user for a validation error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotImage):
		return "Please upload an image file"
	case errors.Is(err, ErrDecode):
		return "Error reading file"
	default:
		return err.Error()
	}
}

const defaultPreviewWidth = 32

// Preview is a locally renderable representation of the staged image.
type Preview struct {
	Thumbnail image.Image
	DataURI   string
	Format    string
	Width     int
	Height    int
}

// StagedImage is the current selection. Preview is set exactly when Err is nil
// and Payload holds the decoded file.
type StagedImage struct {
	Err      error
	Preview  *Preview
	Name     string
	MIMEType string
	Payload  []byte
}

// Empty reports whether nothing is selected.
func (s StagedImage) Empty() bool {
	return s.Name == "" && s.Err == nil && s.Payload == nil
}

// Stager holds at most one selection and at most one pending decode.
type Stager struct {
	cancel       context.CancelFunc
	staged       StagedImage
	generation   uint64
	previewWidth int
	mu           sync.Mutex
	pending      bool
}

// Option configures a Stager.
type Option func(*Stager)

// WithPreviewWidth sets the thumbnail width in pixels.
func WithPreviewWidth(width int) Option {
	return func(s *Stager) {
		if width > 0 {
			s.previewWidth = width
		}
	}
}

// New creates an empty stager.
func New(opts ...Option) *Stager {
	s := &Stager{previewWidth: defaultPreviewWidth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decode is a background decode of one selection.
type Decode struct {
	ctx        context.Context
	candidate  Candidate
	generation uint64
	width      int
}

// Result is the outcome of a Decode, applied with Stager.Apply.
type Result struct {
	Image      StagedImage
	Generation uint64
}

// Select replaces the current selection with c. A non-image is rejected at
// once and nil is returned. For an image the returned Decode must be run,
// typically off the UI goroutine, and its Result applied.
func (s *Stager) Select(c Candidate) *Decode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.generation++

	if !IsImage(c.MIMEType) {
		slog.Debug("Rejected non-image selection", "name", c.Name, "mime", c.MIMEType)
		s.staged = StagedImage{
			Name:     c.Name,
			MIMEType: c.MIMEType,
			Err:      fmt.Errorf("%w: %s", ErrNotImage, c.MIMEType),
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.pending = true
	s.staged = StagedImage{Name: c.Name, MIMEType: baseMediaType(c.MIMEType)}

	return &Decode{
		ctx:        ctx,
		candidate:  c,
		generation: s.generation,
		width:      s.previewWidth,
	}
}

// Apply installs a decode result. Results from superseded selections are
// dropped and false is returned.
func (s *Stager) Apply(r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Generation != s.generation || !s.pending {
		slog.Debug("Dropped stale decode", "generation", r.Generation, "current", s.generation)
		return false
	}
	s.staged = r.Image
	s.pending = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

// Clear empties the stager and abandons any pending decode.
func (s *Stager) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.generation++
	s.staged = StagedImage{}
}

// Close is Clear for a stager that is going away.
func (s *Stager) Close() {
	s.Clear()
}

func (s *Stager) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.pending = false
}

// Staged returns the current selection.
func (s *Stager) Staged() StagedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

// Pending reports whether a decode is outstanding.
func (s *Stager) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Ready reports whether the selection can be submitted.
func (s *Stager) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.pending && s.staged.Err == nil && s.staged.Payload != nil
}

// Generation identifies the current selection.
func (s *Stager) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Run reads and decodes the file. It never touches the stager.
func (d *Decode) Run() Result {
	res := Result{
		Generation: d.generation,
		Image:      StagedImage{Name: d.candidate.Name, MIMEType: baseMediaType(d.candidate.MIMEType)},
	}

	fail := func(err error) Result {
		if d.ctx.Err() == nil {
			common.LogWarn(err, "Failed to decode image", common.Fields{"name": d.candidate.Name})
		}
		res.Image.Err = fmt.Errorf("%w: %w", ErrDecode, err)
		return res
	}

	if err := d.ctx.Err(); err != nil {
		return fail(err)
	}
	data, err := os.ReadFile(d.candidate.Path)
	if err != nil {
		return fail(err)
	}
	if err := d.ctx.Err(); err != nil {
		return fail(err)
	}

	preview, err := BuildPreview(data, res.Image.MIMEType, d.width)
	if err != nil {
		return fail(err)
	}

	res.Image.Payload = data
	res.Image.Preview = preview
	return res
}

// Generation identifies the selection this decode belongs to.
func (d *Decode) Generation() uint64 {
	return d.generation
}

// BuildPreview decodes data and returns its data URI and a thumbnail width pixels wide.
func BuildPreview(data []byte, mimeType string, width int) (*Preview, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		width = defaultPreviewWidth
	}

	bounds := img.Bounds()
	return &Preview{
		Thumbnail: scale(img, width),
		DataURI:   "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Format:    format,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}, nil
}

func scale(src image.Image, width int) image.Image {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return src
	}
	height := width * b.Dy() / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
