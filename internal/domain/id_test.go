package domain

import (
	"testing"
	"time"
)

func TestNewGenerationIDShape(t *testing.T) {
	id := NewGenerationID(time.UnixMilli(1700000000000), "Outdoor gear brand", "A hiker")
	if len(id) != GenerationIDLength {
		t.Fatalf("len(id) = %d, want %d", len(id), GenerationIDLength)
	}
	if !IsGenerationID(id) {
		t.Fatalf("id %q is not lowercase hex", id)
	}
}

func TestNewGenerationIDDeterministicForSameInstant(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	a := NewGenerationID(now, "desc", "prompt")
	b := NewGenerationID(now, "desc", "prompt")
	if a != b {
		t.Fatalf("ids differ for identical inputs: %s vs %s", a, b)
	}
}

func TestNewGenerationIDChangesWithTime(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	a := NewGenerationID(now, "desc", "prompt")
	b := NewGenerationID(now.Add(time.Millisecond), "desc", "prompt")
	if a == b {
		t.Fatalf("expected different ids across instants, got %s twice", a)
	}
}

func TestNewGenerationIDWithinOneMillisecond(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	a := NewGenerationID(now, "desc", "prompt")
	b := NewGenerationID(now.Add(time.Microsecond), "desc", "prompt")
	if a == b {
		t.Fatalf("identical requests in one millisecond share id %s", a)
	}
}

func TestIsGenerationID(t *testing.T) {
	cases := map[string]bool{
		"0123456789abcdef":  true,
		"0123456789ABCDEF":  false,
		"0123456789abcde":   false,
		"0123456789abcdefa": false,
		"../../etc/passwdx": false,
		"":                  false,
	}
	for in, want := range cases {
		if got := IsGenerationID(in); got != want {
			t.Fatalf("IsGenerationID(%q) = %v, want %v", in, got, want)
		}
	}
}
