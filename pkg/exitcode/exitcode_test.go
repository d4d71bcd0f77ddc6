/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package exitcode

import (
	"testing"
)

func TestExitCodeConstants(t *testing.T) {
	codes := map[string]int{
		"Success":         Success,
		"GeneralError":    GeneralError,
		"ConfigError":     ConfigError,
		"ValidationError": ValidationError,
		"FileSystemError": FileSystemError,
		"RepositoryError": RepositoryError,
		"ApplyError":      ApplyError,
		"HookConflict":    HookConflict,
	}
	seen := make(map[int]string)
	for name, code := range codes {
		if other, dup := seen[code]; dup {
			t.Errorf("%s and %s share exit code %d", name, other, code)
		}
		seen[code] = name
	}
	if Success != 0 {
		t.Errorf("Success = %v, expected 0", Success)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{ConfigError, "Configuration error"},
		{ValidationError, "Hygiene violations found"},
		{RepositoryError, "Repository error"},
		{ApplyError, "Fix application failed"},
		{HookConflict, "Hook conflict"},
		{99, "Unknown error"},
	}
	for _, tt := range tests {
		if got := String(tt.code); got != tt.expected {
			t.Errorf("String(%d) = %q, expected %q", tt.code, got, tt.expected)
		}
	}
}
