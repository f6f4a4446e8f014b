package power

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandSuspender(t *testing.T) {
	t.Run("empty argv uses systemctl suspend", func(t *testing.T) {
		s := NewCommandSuspender(nil)
		assert.Equal(t, "systemctl", s.Name)
		assert.Equal(t, []string{"suspend"}, s.Args)
		assert.Equal(t, "systemctl suspend", s.String())
	})

	t.Run("custom argv is split into name and args", func(t *testing.T) {
		s := NewCommandSuspender([]string{"loginctl", "suspend", "-i"})
		assert.Equal(t, "loginctl", s.Name)
		assert.Equal(t, []string{"suspend", "-i"}, s.Args)
	})

	t.Run("args are copied from the caller's slice", func(t *testing.T) {
		argv := []string{"echo", "a"}
		s := NewCommandSuspender(argv)
		argv[1] = "b"
		assert.Equal(t, []string{"a"}, s.Args)
	})
}

func TestCommandSuspender_Suspend(t *testing.T) {
	t.Run("successful program returns nil", func(t *testing.T) {
		if _, err := exec.LookPath("true"); err != nil {
			t.Skip("true not available")
		}

		s := NewCommandSuspender([]string{"true"})
		assert.NoError(t, s.Suspend())
	})

	t.Run("non-zero exit is an error carrying the output", func(t *testing.T) {
		if _, err := exec.LookPath("sh"); err != nil {
			t.Skip("sh not available")
		}

		s := NewCommandSuspender([]string{"sh", "-c", "echo denied >&2; exit 3"})
		err := s.Suspend()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "denied")

		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 3, exitErr.ExitCode())
	})

	t.Run("missing program is an error", func(t *testing.T) {
		s := NewCommandSuspender([]string{"sleepd-no-such-program"})
		assert.Error(t, s.Suspend())
	})

	t.Run("zero value has no program", func(t *testing.T) {
		s := &CommandSuspender{}
		assert.ErrorIs(t, s.Suspend(), ErrEmptyCommand)
	})
}
