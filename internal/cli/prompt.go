package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Prompt reads answers from the user. Passwords are read without echo when
// the input is a terminal.
type Prompt struct {
	reader      *bufio.Reader
	writer      io.Writer
	fd          int
	terminal    bool
	readingLock sync.Mutex
}

// NewPrompt creates a prompt reading from in and writing questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	if in == nil {
		panic("reader cannot be nil")
	}
	if out == nil {
		out = os.Stderr
	}

	p := &Prompt{
		reader: bufio.NewReader(in),
		writer: out,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.terminal = true
	}
	return p
}

// Line asks a question and returns the trimmed answer.
func (p *Prompt) Line(ctx context.Context, question string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(question)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.read(ctx, func() (string, error) {
		return p.reader.ReadString('\n')
	})
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password asks for a secret. Surrounding whitespace is kept.
func (p *Prompt) Password(ctx context.Context, question string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(question)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	if !p.terminal {
		line, err := p.read(ctx, func() (string, error) {
			return p.reader.ReadString('\n')
		})
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	secret, err := p.read(ctx, func() (string, error) {
		b, readErr := term.ReadPassword(p.fd)
		return string(b), readErr
	})
	// ReadPassword swallows the newline the user typed.
	_, _ = fmt.Fprintln(p.writer)
	if err != nil {
		return "", err
	}
	return secret, nil
}

// read runs fn on its own goroutine so a cancelled context returns at once.
// The read itself carries on until the user presses enter.
func (p *Prompt) read(ctx context.Context, fn func() (string, error)) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		p.readingLock.Lock()
		defer p.readingLock.Unlock()

		value, err := fn()
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return res.value, res.err
	}
}
