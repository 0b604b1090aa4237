package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Recorder writes every message the client handles, and the frame it
// produced, to a directory for debugging.
type Recorder struct {
	logFile *os.File
	dir     string
	frame   int
	mu      sync.Mutex
	enabled bool
}

// NewRecorder starts a recording in a new directory under parent. An empty
// parent returns a disabled recorder.
func NewRecorder(parent string) (*Recorder, error) {
	if parent == "" {
		return &Recorder{}, nil
	}

	dir := filepath.Join(parent, fmt.Sprintf("skinscope-record-%d", time.Now().Unix()))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	logFile, err := os.Create(filepath.Join(dir, "tui.log")) // #nosec G304 -- path built from the recording directory
	if err != nil {
		return nil, fmt.Errorf("failed to create recording log: %w", err)
	}

	r := &Recorder{enabled: true, logFile: logFile, dir: dir}
	r.Log("Recording started at %s", dir)
	return r, nil
}

// Dir returns the recording directory, or "" when disabled.
func (r *Recorder) Dir() string {
	return r.dir
}

// Frames returns how many frames were captured.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// Record captures the model after it handled msg.
func (r *Recorder) Record(m Model, msg tea.Msg) {
	if !r.enabled {
		return
	}
	// Spinner ticks would drown everything else.
	if _, ok := msg.(spinner.TickMsg); ok {
		return
	}

	r.mu.Lock()
	r.frame++
	n := r.frame
	r.mu.Unlock()

	r.Log("\n=== Frame %d ===", n)
	r.Log("Time: %s", time.Now().Format("15:04:05.000"))
	r.Log("Message: %T", msg)
	r.Log("Route: %s Mounted: %s", m.route, m.mounted)
	r.Log("Session: %s Loading: %v Splash: %v", m.watcher.State().Status, m.loading, m.splashing)

	view := m.View()
	framePath := filepath.Join(r.dir, fmt.Sprintf("frame-%04d.txt", n))
	if err := os.WriteFile(framePath, []byte(view), 0600); err != nil {
		r.Log("Error saving frame: %v", err)
	}
}

// Log writes a line to the recording log.
func (r *Recorder) Log(format string, args ...any) {
	if !r.enabled || r.logFile == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintf(r.logFile, format+"\n", args...); err != nil {
		return
	}
	_ = r.logFile.Sync()
}

// Close finishes the recording.
func (r *Recorder) Close() {
	if r.logFile == nil {
		return
	}
	r.Log("Recording complete. %d frames captured.", r.Frames())
	_ = r.logFile.Close() // Best effort close
}

// recording wraps a Model so every update is captured.
type recording struct {
	Model
	rec *Recorder
}

func (r recording) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := r.Model.Update(msg)
	m, ok := next.(Model)
	if !ok {
		return next, cmd
	}
	r.rec.Record(m, msg)
	return recording{Model: m, rec: r.rec}, cmd
}
