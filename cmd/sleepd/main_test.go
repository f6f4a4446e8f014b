package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_rejectsBadConfiguration(t *testing.T) {
	chdir(t, t.TempDir())

	assert.Equal(t, 2, run([]string{"--addr", "no-port"}))
	assert.Equal(t, 2, run([]string{"--magic", "0x100"}))
	assert.Equal(t, 0, run([]string{"--help"}))
}

func TestRun_bindFailureExits(t *testing.T) {
	chdir(t, t.TempDir())

	assert.Equal(t, 1, run([]string{"--addr", "203.0.113.1:8253", "--log-level", "error"}))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
