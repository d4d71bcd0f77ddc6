package cmd

import (
	"os"
	"testing"
)

// runMainEnv makes the test binary behave as git-sherpa, so generated hooks
// can call back into it.
const runMainEnv = "RUN_GITSHERPA_MAIN"

func TestMain(m *testing.M) {
	if os.Getenv(runMainEnv) == "1" {
		Execute()
	}
	os.Exit(m.Run())
}
