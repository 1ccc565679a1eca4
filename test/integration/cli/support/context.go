// Package support holds the godog step definitions for the CLI feature tests.
package support

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TestContext holds the state for one scenario.
type TestContext struct {
	// Command execution state
	LastCommand string
	LastStdout  string
	LastStderr  string
	LastError   error

	// Test environment
	TempDir string
	EnvVars map[string]string
}

// NewTestContext creates a scenario context with its own temporary directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "plastiscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	// resolve symlinks so paths printed by the CLI match the ones we build
	if resolved, err := filepath.EvalSymlinks(tempDir); err == nil {
		tempDir = resolved
	}
	return &TestContext{
		TempDir: tempDir,
		EnvVars: map[string]string{},
	}, nil
}

// Cleanup removes the scenario's temporary directory.
func (testCtx *TestContext) Cleanup() error {
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars[name] = value
}

// Path resolves name relative to the scenario's temporary directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, filepath.FromSlash(name))
}

// substituteCommandVariables replaces {tmp} with the temporary directory.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
}

// combinedOutput is stdout followed by stderr.
func (testCtx *TestContext) combinedOutput() string {
	var b bytes.Buffer
	b.WriteString(testCtx.LastStdout)
	b.WriteString(testCtx.LastStderr)
	return b.String()
}
