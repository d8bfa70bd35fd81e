package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui"
)

func stubProgram(t *testing.T, run func(app *tui.App) error) {
	t.Helper()
	original := runProgram
	runProgram = run
	t.Cleanup(func() { runProgram = original })
}

func TestTUICmd_Use(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.Contains(t, tuiCmd.Long, "Ctrl+C")
}

func TestTUICmd_RunsApp(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var got *tui.App
	stubProgram(t, func(app *tui.App) error {
		got = app
		return nil
	})

	_, err := execute(t, nil, "tui")

	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestTUICmd_ProgramError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	stubProgram(t, func(*tui.App) error { return errors.New("no tty") })

	_, err := execute(t, nil, "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUI error: no tty")
}

func TestTUICmd_RejectsArgs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "tui", "extra")

	assert.Error(t, err)
}
