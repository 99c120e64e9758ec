package debug

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogFile(t *testing.T) {
	var (
		dir     = t.TempDir()
		logFile = filepath.Join(dir, "evm.log")
		trace   = filepath.Join(dir, "trace.out")
	)
	app := &cli.App{
		Flags:  Flags,
		Before: Setup,
		Action: func(ctx *cli.Context) error {
			defer Handler.StartRegionAuto("test")()
			log.Info("Call finished", "gas", 21000)
			log.Debug("Hidden at the default verbosity")
			return nil
		},
		After: func(ctx *cli.Context) error {
			Exit()
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"test", "--log.file", logFile, "--trace", trace}))

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Call finished")
	assert.Contains(t, string(content), "gas=21000")
	assert.NotContains(t, string(content), "Hidden")

	info, err := os.Stat(trace)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/evm")
	assert.Equal(t, "/home/evm/trace.out", expandHome("~/trace.out"))
	assert.Equal(t, "/tmp/trace.out", expandHome("/tmp//trace.out"))
}
