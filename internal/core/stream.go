package core

import (
	"iter"
	"strings"
)

// FragmentStream is a lazy sequence of assistant-generated text fragments.
// It is finite, single-pass, and not restartable: the underlying HTTP
// connection is released when iteration finishes (normally, on error, or
// when the caller breaks out of the loop). Constructing a FragmentStream
// and never consuming it leaks the connection.
//
// Fragments arrive strictly in network order and carry no metadata;
// concatenating them in order reconstructs the full assistant message.
type FragmentStream struct {
	seq iter.Seq2[string, error]
}

// NewFragmentStream wraps a raw iterator as a FragmentStream. The iterator
// yields text fragments with a nil error, and may yield a single non-nil
// error to signal a mid-stream failure, after which it must stop.
func NewFragmentStream(seq iter.Seq2[string, error]) *FragmentStream {
	return &FragmentStream{seq: seq}
}

// Iter returns the underlying iterator for use with range-over-func loops:
//
//	for fragment, err := range stream.Iter() {
//	    if err != nil { ... }
//	    render(fragment)
//	}
func (s *FragmentStream) Iter() iter.Seq2[string, error] {
	return s.seq
}

// Collect consumes the entire stream and returns the concatenated text.
// On a mid-stream error it returns the text received so far plus the error.
func (s *FragmentStream) Collect() (string, error) {
	var b strings.Builder
	for fragment, err := range s.seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(fragment)
	}
	return b.String(), nil
}
