package core

import (
	"errors"
	"testing"
)

func TestCollect(t *testing.T) {
	stream := NewFragmentStream(func(yield func(string, error) bool) {
		for _, f := range []string{"a", "b", "c"} {
			if !yield(f, nil) {
				return
			}
		}
	})
	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if text != "abc" {
		t.Errorf("text = %q, want abc", text)
	}
}

func TestCollectMidStreamError(t *testing.T) {
	wantErr := errors.New("connection dropped")
	stream := NewFragmentStream(func(yield func(string, error) bool) {
		if !yield("partial", nil) {
			return
		}
		yield("", wantErr)
	})
	text, err := stream.Collect()
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if text != "partial" {
		t.Errorf("partial text = %q, want partial", text)
	}
}

func TestIterEarlyBreak(t *testing.T) {
	cleanedUp := false
	stream := NewFragmentStream(func(yield func(string, error) bool) {
		defer func() { cleanedUp = true }()
		for i := 0; i < 100; i++ {
			if !yield("x", nil) {
				return
			}
		}
	})

	count := 0
	for range stream.Iter() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("consumed %d fragments, want 2", count)
	}
	if !cleanedUp {
		t.Fatal("iterator cleanup did not run on early break")
	}
}
