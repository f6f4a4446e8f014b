package config

import (
	"io"
	"os"
	"testing"

	"github.com/cyberinferno/sleepd/command"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Config reads; empty counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{EnvAddr, EnvMagic, EnvSuspendCommand, EnvMaxConnRate, EnvMaxConnBurst, EnvLogLevel, EnvLogFormat, EnvLogDir} {
		t.Setenv(key, "")
	}
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)

	t.Run("defaults to the all-interfaces configuration", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:8253", cfg.Addr)
		assert.Equal(t, command.DefaultMagic, cfg.Magic)
		assert.Equal(t, []string{"systemctl", "suspend"}, cfg.SuspendCommand)
		assert.Zero(t, cfg.MaxConnRate)
		assert.Equal(t, 1, cfg.MaxConnBurst)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "console", cfg.LogFormat)
		assert.Empty(t, cfg.LogDir)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv(EnvAddr, "127.0.0.1:8080")
		t.Setenv(EnvMagic, "0x01")
		t.Setenv(EnvSuspendCommand, "loginctl  suspend")
		t.Setenv(EnvMaxConnRate, "2.5")
		t.Setenv(EnvMaxConnBurst, "4")
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvLogFormat, "json")
		t.Setenv(EnvLogDir, "/var/log/sleepd")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
		assert.Equal(t, byte(0x01), cfg.Magic)
		assert.Equal(t, []string{"loginctl", "suspend"}, cfg.SuspendCommand)
		assert.Equal(t, 2.5, cfg.MaxConnRate)
		assert.Equal(t, 4, cfg.MaxConnBurst)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "/var/log/sleepd", cfg.LogDir)
	})

	t.Run("bad magic is rejected", func(t *testing.T) {
		t.Setenv(EnvMagic, "0x1ff")

		_, err := FromEnv()
		assert.ErrorIs(t, err, command.ErrInvalidByte)
	})

	t.Run("bad numbers are rejected", func(t *testing.T) {
		t.Setenv(EnvMaxConnBurst, "many")

		_, err := FromEnv()
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestParseFlags(t *testing.T) {
	clearEnv(t)

	parse := func(t *testing.T, args ...string) (*Config, error) {
		t.Helper()

		cfg, err := FromEnv()
		require.NoError(t, err)
		return cfg, cfg.parseFlags("sleepd", args, io.Discard)
	}

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv(EnvAddr, "127.0.0.1:8080")

		cfg, err := parse(t, "--addr", "0.0.0.0:9000", "-m", "1", "--suspend-command", "echo zzz", "--log-format", "json")
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
		assert.Equal(t, byte(0x01), cfg.Magic)
		assert.Equal(t, []string{"echo", "zzz"}, cfg.SuspendCommand)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("environment survives when the flag is absent", func(t *testing.T) {
		t.Setenv(EnvMagic, "0x01")

		cfg, err := parse(t)
		require.NoError(t, err)
		assert.Equal(t, byte(0x01), cfg.Magic)
	})

	t.Run("bad magic flag is rejected", func(t *testing.T) {
		_, err := parse(t, "--magic", "zz")
		assert.ErrorIs(t, err, command.ErrInvalidByte)
	})

	t.Run("positional arguments are rejected", func(t *testing.T) {
		_, err := parse(t, "extra")
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("help is reported", func(t *testing.T) {
		_, err := parse(t, "--help")
		assert.ErrorIs(t, err, pflag.ErrHelp)
	})
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	valid := func() *Config {
		cfg, err := FromEnv()
		require.NoError(t, err)
		return cfg
	}

	t.Run("accepts both known deployments", func(t *testing.T) {
		for _, addr := range []string{"0.0.0.0:8253", "127.0.0.1:8080", ":8253", "[::1]:0"} {
			cfg := valid()
			cfg.Addr = addr
			assert.NoError(t, cfg.Validate(), addr)
		}
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		for _, addr := range []string{"", "8253", "0.0.0.0", "0.0.0.0:http", "0.0.0.0:65536", "0.0.0.0:-1"} {
			cfg := valid()
			cfg.Addr = addr
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidAddr, addr)
		}
	})

	t.Run("rejects unusable values", func(t *testing.T) {
		cases := map[string]func(*Config){
			"empty suspend command": func(c *Config) { c.SuspendCommand = nil },
			"negative rate":         func(c *Config) { c.MaxConnRate = -1 },
			"negative burst":        func(c *Config) { c.MaxConnBurst = -1 },
			"rate without burst":    func(c *Config) { c.MaxConnRate, c.MaxConnBurst = 5, 0 },
			"unknown log format":    func(c *Config) { c.LogFormat = "xml" },
			"unknown log level":     func(c *Config) { c.LogLevel = "loud" },
		}
		for name, mutate := range cases {
			cfg := valid()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidValue, name)
		}
	})
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv(EnvMagic, "0x01")

	cfg, err := Load("sleepd", []string{"--addr", "127.0.0.1:8080"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, byte(0x01), cfg.Magic)

	_, err = Load("sleepd", []string{"--addr", "nope"})
	assert.ErrorIs(t, err, ErrInvalidAddr)
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
