package main

import (
	"io"
	"testing"
	"time"

	ddns "github.com/Travis-Britz/cfddns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type parsedFlags struct {
	command       string
	interval      time.Duration
	skipUnchanged bool
	strict        bool
	ip            string
	envFiles      []string
}

// parseArgs runs the app with every action replaced by one that records the flag values it sees.
func parseArgs(t *testing.T, args ...string) (parsedFlags, error) {
	t.Helper()
	var got parsedFlags
	record := func(name string) cli.ActionFunc {
		return func(c *cli.Context) error {
			got = parsedFlags{
				command:       name,
				interval:      c.Duration("interval"),
				skipUnchanged: c.Bool("skip-unchanged"),
				strict:        c.Bool("strict"),
				ip:            c.String("ip"),
				envFiles:      c.StringSlice("env-file"),
			}
			return nil
		}
	}
	app := newApp()
	app.Writer, app.ErrWriter = io.Discard, io.Discard
	app.Action = record("")
	for _, cmd := range app.Commands {
		cmd.Action = record(cmd.Name)
	}
	err := app.Run(append([]string{"ddnscf"}, args...))
	return got, err
}

func TestDefaultFlags(t *testing.T) {
	got, err := parseArgs(t)
	require.NoError(t, err)
	assert.Equal(t, ddns.DefaultInterval, got.interval)
	assert.False(t, got.strict)
	assert.False(t, got.skipUnchanged)
	assert.Empty(t, got.envFiles)
}

func TestGlobalFlagsReachRun(t *testing.T) {
	got, err := parseArgs(t, "--interval", "10m", "--strict", "--skip-unchanged", "--env-file", "ddns.env", "run")
	require.NoError(t, err)
	assert.Equal(t, "run", got.command)
	assert.Equal(t, 10*time.Minute, got.interval)
	assert.True(t, got.strict)
	assert.True(t, got.skipUnchanged)
	assert.Equal(t, []string{"ddns.env"}, got.envFiles)
}

func TestGlobalFlagsReachOnce(t *testing.T) {
	got, err := parseArgs(t, "--strict", "once", "--ip", "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "once", got.command)
	assert.True(t, got.strict)
	assert.Equal(t, "203.0.113.7", got.ip)
}

func TestRootActionUsesFlags(t *testing.T) {
	got, err := parseArgs(t, "--interval", "2m")
	require.NoError(t, err)
	assert.Equal(t, "", got.command)
	assert.Equal(t, 2*time.Minute, got.interval)
}

func TestRunFlagsAreGlobalOnly(t *testing.T) {
	_, err := parseArgs(t, "run", "--interval", "10m")
	assert.Error(t, err)
}
