package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_WrappedChain(t *testing.T) {
	base := New(StyleCycle, "style %q is based on itself", "A")
	err := fmt.Errorf("resolve styles: %w", base)
	if got := KindOf(err); got != StyleCycle {
		t.Errorf("expected kind %q, got %q", StyleCycle, got)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("expected empty kind for unclassified error")
	}
}

func TestKind_Fatal(t *testing.T) {
	tests := []struct {
		kind  Kind
		fatal bool
	}{
		{MalformedXML, true},
		{MissingRequiredPart, true},
		{StyleCycle, true},
		{UnresolvedStyle, false},
		{MathRenderFailure, false},
		{ExternalExtractionFailure, false},
	}
	for _, tt := range tests {
		if tt.kind.Fatal() != tt.fatal {
			t.Errorf("kind %q: expected fatal=%v", tt.kind, tt.fatal)
		}
	}
}

func TestMessage_IncludesCause(t *testing.T) {
	err := Wrap(MalformedXML, errors.New("unexpected EOF"), "parse %s", "word/document.xml")
	if got := Message(err); got != "parse word/document.xml: unexpected EOF" {
		t.Errorf("unexpected message %q", got)
	}
	if !errors.Is(err, err.Err) {
		t.Error("expected Unwrap to expose the cause")
	}
}
