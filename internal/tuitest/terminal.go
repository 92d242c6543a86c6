package tuitest

import (
	"bytes"
	"io"
)

// terminalQuery pairs an escape sequence the program may send to probe the
// terminal with the canned reply a real emulator would produce. Without these
// replies bubbletea blocks on startup waiting for the terminal to answer.
type terminalQuery struct {
	probe []byte
	reply []byte
}

var terminalQueries = []terminalQuery{
	// Cursor position report.
	{probe: []byte("\x1b[6n"), reply: []byte("\x1b[1;1R")},
	// Foreground color, BEL- and ST-terminated variants.
	{probe: []byte("\x1b]10;?\x07"), reply: []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{probe: []byte("\x1b]10;?\x1b\\"), reply: []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	// Background color.
	{probe: []byte("\x1b]11;?\x07"), reply: []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{probe: []byte("\x1b]11;?\x1b\\"), reply: []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

type queryAnswerer struct {
	w   io.Writer
	buf []byte
}

func newQueryAnswerer(w io.Writer) *queryAnswerer {
	return &queryAnswerer{w: w, buf: make([]byte, 0, 128)}
}

// Feed appends a chunk of program output and answers any complete terminal
// queries found in it.
func (qa *queryAnswerer) Feed(chunk []byte) {
	qa.buf = append(qa.buf, chunk...)
	for qa.answerOne() {
	}
	// Keep a short tail so probes split across reads still match.
	if len(qa.buf) > 256 {
		qa.buf = qa.buf[len(qa.buf)-64:]
	}
}

func (qa *queryAnswerer) answerOne() bool {
	for _, q := range terminalQueries {
		idx := bytes.Index(qa.buf, q.probe)
		if idx < 0 {
			continue
		}
		qa.buf = qa.buf[idx+len(q.probe):]
		_, _ = qa.w.Write(q.reply)
		return true
	}
	return false
}
