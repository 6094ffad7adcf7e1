package llm

import (
	"context"
	"errors"
	"testing"
)

func TestAlternateBaseURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adds v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"strips v1", "http://localhost:11434/v1", "http://localhost:11434"},
		{"trailing slash", "http://localhost:11434/v1/", "http://localhost:11434"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := alternateBaseURL(tt.in)
			if got != tt.want {
				t.Errorf("alternateBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	err := classify(context.DeadlineExceeded)
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Errorf("classify(DeadlineExceeded) = %T, want *TimeoutError", err)
	}

	err = classify(errors.New("connection refused"))
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Errorf("classify(other) = %T, want *TransportError", err)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")

	if !errors.Is(&TimeoutError{Err: inner}, inner) {
		t.Error("TimeoutError should unwrap to inner error")
	}
	if !errors.Is(&TransportError{Err: inner}, inner) {
		t.Error("TransportError should unwrap to inner error")
	}
}

func TestMockCompleterFIFO(t *testing.T) {
	mock := NewMockCompleter(
		MockResponse{Text: "first"},
		MockResponse{Text: "second"},
	)

	got, err := mock.Complete(context.Background(), "prompt one", 0.3)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "first" {
		t.Errorf("first response = %q, want 'first'", got)
	}

	got, err = mock.Complete(context.Background(), "prompt two", 0.3)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "second" {
		t.Errorf("second response = %q, want 'second'", got)
	}

	// Exhausted queue yields a transport error.
	_, err = mock.Complete(context.Background(), "prompt three", 0.3)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Errorf("exhausted mock = %T, want *TransportError", err)
	}

	if len(mock.Prompts) != 3 {
		t.Errorf("recorded %d prompts, want 3", len(mock.Prompts))
	}
	if mock.Prompts[1] != "prompt two" {
		t.Errorf("Prompts[1] = %q, want 'prompt two'", mock.Prompts[1])
	}
}

func TestMockCompleterError(t *testing.T) {
	wantErr := &TimeoutError{Err: errors.New("slow model")}
	mock := NewMockCompleter(MockResponse{Err: wantErr})

	_, err := mock.Complete(context.Background(), "p", 0)
	if !errors.Is(err, wantErr) {
		t.Errorf("Complete error = %v, want %v", err, wantErr)
	}
}
