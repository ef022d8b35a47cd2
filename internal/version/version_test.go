package version

import (
	"strings"
	"testing"
)

func TestInfoDefaults(t *testing.T) {
	b := Info()
	if b.Version == "" || b.Commit == "" || b.Date == "" {
		t.Fatalf("build fields must not be empty: %+v", b)
	}
	if b.Version != GetVersion() {
		t.Fatalf("Info version %q differs from GetVersion %q", b.Version, GetVersion())
	}
}

func TestStringContainsAllFields(t *testing.T) {
	s := String()
	b := Info()

	for _, part := range []string{
		"version=" + b.Version,
		"commit=" + b.Commit,
		"date=" + b.Date,
	} {
		if !strings.Contains(s, part) {
			t.Fatalf("String() = %q, missing %q", s, part)
		}
	}
}
