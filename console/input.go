package console

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/term"
)

type lineResult struct {
	line string
	err  error
}

// lineReader is the only reader of the portal's input. Views ask for a line and select on
// the reply, so a view can stop waiting without losing what the user typed next.
type lineReader struct {
	requests chan bool // true asks for a masked read
	replies  chan lineResult
	pending  bool // owned by the Run goroutine
}

func newLineReader(in io.Reader, terminalFD int) *lineReader {
	r := &lineReader{
		requests: make(chan bool),
		replies:  make(chan lineResult, 1),
	}
	go r.serve(bufio.NewReader(in), terminalFD)
	return r
}

func (r *lineReader) serve(in *bufio.Reader, terminalFD int) {
	defer close(r.replies)
	var readErr error
	for masked := range r.requests {
		if readErr != nil {
			r.replies <- lineResult{err: readErr}
			continue
		}
		if masked && terminalFD >= 0 && term.IsTerminal(terminalFD) {
			b, err := term.ReadPassword(terminalFD)
			readErr = err
			r.replies <- lineResult{line: string(b), err: err}
			continue
		}

		line, err := in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		readErr = err
		r.replies <- lineResult{line: strings.TrimRight(line, "\r\n"), err: err}
	}
}

// next returns the channel the next line arrives on, asking for one unless a read is
// already outstanding.
func (r *lineReader) next(masked bool) <-chan lineResult {
	if !r.pending {
		r.requests <- masked
		r.pending = true
	}
	return r.replies
}

// received must be called after taking a reply from next
func (r *lineReader) received() {
	r.pending = false
}

func (r *lineReader) close() {
	close(r.requests)
}
