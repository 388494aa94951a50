// Package support holds the godog step definitions and shared state for the
// CLI integration tests.
package support

import (
	"os"
)

// TestContext holds the state for one scenario.
type TestContext struct {
	TempDir string

	MapPath    string
	LastOutput string
	LastError  error
}

// NewTestContext creates a scenario context with a private temp directory.
func NewTestContext() (*TestContext, error) {
	dir, err := os.MkdirTemp("", "quadra-cli-test-*")
	if err != nil {
		return nil, err
	}
	return &TestContext{TempDir: dir}, nil
}

// Cleanup removes the scenario's temp directory.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.TempDir == "" {
		return nil
	}
	return os.RemoveAll(testCtx.TempDir)
}
