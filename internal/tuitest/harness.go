// Package tuitest runs the papr binary inside a pseudo terminal, replays a
// scripted session against it, and records every frame the program renders so
// tests can assert on the visible output.
package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

const (
	defaultCols    = 100
	defaultRows    = 30
	defaultTimeout = 10 * time.Second
)

// Step is one scripted interaction: wait Delay, then write Input to the PTY.
type Step struct {
	Delay time.Duration
	Input []byte
}

// Type produces a step that writes literal text.
func Type(s string) Step { return Step{Input: []byte(s)} }

// Press produces a step that sends a control sequence such as KeyEnter.
func Press(key []byte) Step { return Step{Input: key} }

// Pause produces a step that only waits, giving the program time to render.
func Pause(d time.Duration) Step { return Step{Delay: d} }

// Script describes how to launch and drive the program under test.
type Script struct {
	Command          []string
	Dir              string
	Env              []string
	Cols             int
	Rows             int
	Steps            []Step
	Timeout          time.Duration
	AllowedExitCodes []int
	AllowInterrupt   bool
}

// Recording holds the raw terminal stream plus the parsed frames.
type Recording struct {
	Raw      []byte
	Frames   []Frame
	Duration time.Duration
}

// Run launches the scripted command inside a PTY and captures its output.
// The returned error covers launch failures, script timeouts, and exit codes
// outside the allowed set.
func Run(ctx context.Context, script Script) (*Recording, error) {
	if len(script.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	cols := script.Cols
	if cols <= 0 {
		cols = defaultCols
	}
	rows := script.Rows
	if rows <= 0 {
		rows = defaultRows
	}
	timeout := script.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script.Command[0], script.Command[1:]...)
	cmd.Dir = script.Dir
	cmd.Env = sessionEnv(script.Env)

	allowed := map[int]struct{}{0: {}}
	for _, code := range script.AllowedExitCodes {
		allowed[code] = struct{}{}
	}

	size := &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}
	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return nil, fmt.Errorf("tuitest: start program: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	var stream bytes.Buffer
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		answerer := newQueryAnswerer(ptmx)
		buf := make([]byte, 4096)
		for {
			n, readErr := ptmx.Read(buf)
			if n > 0 {
				chunk := buf[:n]
				answerer.Feed(chunk)
				_, _ = stream.Write(chunk)
			}
			if readErr != nil {
				return
			}
		}
	}()

	start := time.Now()
	for _, step := range script.Steps {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tuitest: context cancelled mid-script: %w", ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if len(step.Input) > 0 {
			if _, err := ptmx.Write(step.Input); err != nil {
				return nil, fmt.Errorf("tuitest: write input: %w", err)
			}
		}
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case err := <-exited:
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				if _, ok := allowed[exitErr.ExitCode()]; ok {
					break
				}
			}
			if script.AllowInterrupt && strings.Contains(err.Error(), "signal: interrupt") {
				break
			}
			return nil, fmt.Errorf("tuitest: program exited with error: %w", err)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("tuitest: timeout waiting for exit: %w", ctx.Err())
	}

	// Closing the PTY unblocks the reader goroutine.
	_ = ptmx.Close()
	<-drained

	raw := stream.Bytes()
	return &Recording{
		Raw:      raw,
		Frames:   parseFrames(raw),
		Duration: time.Since(start),
	}, nil
}

func sessionEnv(extra []string) []string {
	env := append(os.Environ(), extra...)
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}

// Keys papr binds that scripted sessions need to send. Plain letters go
// through Type because the focused text inputs consume them.
var (
	KeyEnter = []byte{'\r'}
	KeyEsc   = []byte{27}
	KeyCtrlC = []byte{3}
	KeyCtrlA = []byte{1}
	KeyCtrlL = []byte{12}
	KeyCtrlS = []byte{19}
	KeyCtrlT = []byte{20}
)
