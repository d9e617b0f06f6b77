package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twarb/block-prover/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logging.DEBUG, parseLevel("debug"))
	assert.Equal(t, logging.ERROR, parseLevel("ERROR"))
	assert.Equal(t, logging.INFO, parseLevel(""))
	assert.Equal(t, logging.INFO, parseLevel("verbose"))
}

func TestInitFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prover.log")
	InitLogger(&config.LogConfig{
		Level:                "INFO",
		Filename:             path,
		MaxFileSizeInMB:      1,
		MaxBackupsOfLogFiles: 1,
		UseFileLogger:        true,
	})
	Logger.Infof("proved block height=%d", 10)
	Logger.Debugf("not written")

	bz, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(bz), "proved block height=10")
	assert.NotContains(t, string(bz), "not written")
}
