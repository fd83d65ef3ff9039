// File: cmd/scalpel-probe/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestRun_ExitCodes(t *testing.T) {
	orig := execute
	defer func() { execute = orig }()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Success", nil, 0},
		{"Failure", errors.New("boom"), 1},
		{"Interrupted", fmt.Errorf("navigating: %w", context.Canceled), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execute = func(context.Context) error { return tt.err }
			assert.Equal(t, tt.want, run(context.Background()))
		})
	}
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("Writes Panic Log", func(t *testing.T) {
		var (
			written  string
			exitCode = -1
		)
		osWriteFile = func(name string, data []byte, perm os.FileMode) error {
			written = name
			assert.Contains(t, string(data), "panic: kaboom")
			return nil
		}
		osExit = func(code int) { exitCode = code }

		func() {
			defer handlePanic()
			panic("kaboom")
		}()
		assert.Equal(t, panicLogFile, written)
		assert.Equal(t, 1, exitCode)
	})

	t.Run("Log Write Fails", func(t *testing.T) {
		exitCode := -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only") }
		osExit = func(code int) { exitCode = code }

		func() {
			defer handlePanic()
			panic("kaboom")
		}()
		assert.Equal(t, 1, exitCode)
	})

	t.Run("No Panic", func(t *testing.T) {
		osExit = func(int) { t.Fatal("exit must not be called") }
		func() {
			defer handlePanic()
		}()
	})
}
