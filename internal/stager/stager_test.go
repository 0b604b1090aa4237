package stager

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func candidate(t *testing.T, name string, data []byte) Candidate {
	t.Helper()
	c, err := CandidateFromPath(writeFile(t, name, data))
	require.NoError(t, err)
	return c
}

func TestCandidateFromPath(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     []byte
		wantMIME string
	}{
		{name: "png by extension", file: "lesion.png", data: pngBytes(t, 2, 2), wantMIME: "image/png"},
		{name: "pdf by extension", file: "report.pdf", data: []byte("%PDF-1.4\n"), wantMIME: "application/pdf"},
		{name: "png sniffed", file: "lesion", data: pngBytes(t, 2, 2), wantMIME: "image/png"},
		{name: "text sniffed", file: "notes", data: []byte("just some notes\n"), wantMIME: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate(t, tt.file, tt.data)
			assert.Equal(t, tt.wantMIME, c.MIMEType)
			assert.Equal(t, tt.file, c.Name)
			assert.Equal(t, int64(len(tt.data)), c.Size)
		})
	}

	_, err := CandidateFromPath(t.TempDir())
	assert.Error(t, err)
	_, err = CandidateFromPath(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/png"))
	assert.True(t, IsImage("IMAGE/JPEG"))
	assert.True(t, IsImage("image/webp; q=1"))
	assert.False(t, IsImage("application/pdf"))
	assert.False(t, IsImage(""))
}

func TestStager_RejectsNonImage(t *testing.T) {
	s := New()
	decode := s.Select(candidate(t, "report.pdf", []byte("%PDF-1.4\n")))
	assert.Nil(t, decode)

	staged := s.Staged()
	require.ErrorIs(t, staged.Err, ErrNotImage)
	assert.Equal(t, "Please upload an image file", Message(staged.Err))
	assert.Nil(t, staged.Preview)
	assert.Nil(t, staged.Payload)
	assert.False(t, s.Ready())
	assert.False(t, s.Pending())
}

func TestStager_PdfThenPng(t *testing.T) {
	s := New(WithPreviewWidth(8))

	assert.Nil(t, s.Select(candidate(t, "report.pdf", []byte("%PDF-1.4\n"))))
	require.Error(t, s.Staged().Err)
	assert.False(t, s.Ready())

	data := pngBytes(t, 16, 8)
	decode := s.Select(candidate(t, "lesion.png", data))
	require.NotNil(t, decode)

	assert.NoError(t, s.Staged().Err)
	assert.True(t, s.Pending())
	assert.False(t, s.Ready())
	assert.Nil(t, s.Staged().Preview)

	require.True(t, s.Apply(decode.Run()))

	staged := s.Staged()
	assert.NoError(t, staged.Err)
	assert.Equal(t, data, staged.Payload)
	require.NotNil(t, staged.Preview)
	assert.True(t, strings.HasPrefix(staged.Preview.DataURI, "data:image/png;base64,"))
	assert.Equal(t, "png", staged.Preview.Format)
	assert.Equal(t, 16, staged.Preview.Width)
	assert.Equal(t, 8, staged.Preview.Height)
	assert.Equal(t, image.Rect(0, 0, 8, 4), staged.Preview.Thumbnail.Bounds())
	assert.True(t, s.Ready())
	assert.False(t, s.Pending())
}

func TestStager_DecodeFailure(t *testing.T) {
	s := New()
	decode := s.Select(candidate(t, "broken.png", []byte("not really a png")))
	require.NotNil(t, decode)
	require.True(t, s.Apply(decode.Run()))

	staged := s.Staged()
	require.ErrorIs(t, staged.Err, ErrDecode)
	assert.NotErrorIs(t, staged.Err, ErrNotImage)
	assert.Equal(t, "Error reading file", Message(staged.Err))
	assert.Nil(t, staged.Preview)
	assert.Nil(t, staged.Payload)
	assert.False(t, s.Ready())
}

func TestStager_NewerSelectionWins(t *testing.T) {
	s := New()
	first := s.Select(candidate(t, "first.png", pngBytes(t, 4, 4)))
	second := s.Select(candidate(t, "second.png", pngBytes(t, 6, 6)))
	require.NotNil(t, first)
	require.NotNil(t, second)

	secondResult := second.Run()
	firstResult := first.Run()

	assert.ErrorIs(t, firstResult.Image.Err, ErrDecode, "superseded decode is cancelled")
	assert.False(t, s.Apply(firstResult))
	assert.True(t, s.Apply(secondResult))
	assert.Equal(t, "second.png", s.Staged().Name)

	// A stale result arriving after the newer one is still ignored.
	assert.False(t, s.Apply(firstResult))
	assert.Equal(t, "second.png", s.Staged().Name)
}

func TestStager_ClearDropsPendingDecode(t *testing.T) {
	s := New()
	decode := s.Select(candidate(t, "lesion.png", pngBytes(t, 4, 4)))
	require.NotNil(t, decode)

	s.Clear()
	assert.False(t, s.Apply(decode.Run()))
	assert.True(t, s.Staged().Empty())
	assert.False(t, s.Pending())
}

func TestStager_RejectionSupersedesPendingDecode(t *testing.T) {
	s := New()
	decode := s.Select(candidate(t, "lesion.png", pngBytes(t, 4, 4)))
	require.NotNil(t, decode)

	assert.Nil(t, s.Select(candidate(t, "report.pdf", []byte("%PDF-1.4\n"))))
	assert.False(t, s.Apply(decode.Run()))
	assert.ErrorIs(t, s.Staged().Err, ErrNotImage)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
