// Package sse decodes Server-Sent-Events-style streams: newline-delimited
// "data: <payload>" lines, as emitted by every provider this core talks to.
//
// One scanner serves both framings. The OpenAI-compatible providers end the
// stream with an in-band "[DONE]" sentinel; Google never sends one and the
// stream simply ends when the connection closes. Google also packs several
// "data:" lines into a single network chunk — line-based scanning with a
// carry-over buffer handles that for free, since a read that ends mid-line
// is retained until the rest of the line arrives.
package sse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize is the largest single SSE line accepted (1 MB). The default
// bufio.Scanner limit of 64 KiB is too small for long completion chunks.
const maxLineSize = 1 * 1024 * 1024

const dataPrefix = "data:"

// Scanner reads "data:" payloads from a streaming response body one at a
// time. It is single-pass: once the underlying reader is drained the
// scanner is done.
type Scanner struct {
	scanner *bufio.Scanner
}

// NewScanner creates a Scanner over r. Incomplete trailing lines are held
// back and re-joined with the next read, so only fully terminated lines are
// ever surfaced.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{scanner: sc}
}

// Next returns the next "data:" payload with the prefix stripped and
// surrounding whitespace trimmed. It skips empty lines, comment lines
// (starting with ':'), and non-data SSE fields. It returns io.EOF when the
// stream ends or when the "[DONE]" sentinel is seen.
func (s *Scanner) Next() (string, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			// event:, id:, retry: — nothing these providers send matters here.
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if payload == "[DONE]" {
			return "", io.EOF
		}
		if payload == "" {
			continue
		}
		return payload, nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("sse read: %w", err)
	}
	return "", io.EOF
}
