package buildinfo

import (
	"testing"
)

func TestBinaryVersionDefault(t *testing.T) {
	if BinaryVersion != "dev" {
		t.Errorf("Expected BinaryVersion to be 'dev', got '%s'", BinaryVersion)
	}
}

func TestVersionPrefersLdflags(t *testing.T) {
	orig := BinaryVersion
	t.Cleanup(func() { BinaryVersion = orig })

	BinaryVersion = "v1.2.3"
	if got := Version(); got != "v1.2.3" {
		t.Errorf("Version() = %q, want v1.2.3", got)
	}
}

func TestVersionNeverEmpty(t *testing.T) {
	if Version() == "" {
		t.Error("Version() should never be empty")
	}
}
