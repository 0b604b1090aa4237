package stager

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Candidate is a file the user picked but which has not been validated yet.
type Candidate struct {
	Name     string
	Path     string
	MIMEType string
	Size     int64
}

// CandidateFromPath describes the file at path. The MIME type comes from the
// extension when it is known and from the file content otherwise.
func CandidateFromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", path)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		detected, detectErr := mimetype.DetectFile(path)
		if detectErr != nil {
			return Candidate{}, fmt.Errorf("failed to detect type of %s: %w", path, detectErr)
		}
		mimeType = detected.String()
	}

	return Candidate{
		Name:     filepath.Base(path),
		Path:     path,
		MIMEType: baseMediaType(mimeType),
		Size:     info.Size(),
	}, nil
}

// baseMediaType drops parameters such as charset.
func baseMediaType(v string) string {
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mediaType
}

// IsImage reports whether a MIME type names an image.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(baseMediaType(mimeType), "image/")
}
