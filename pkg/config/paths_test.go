package config

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXDGDirs(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG variables only apply on linux")
	}

	cache, conf := t.TempDir(), t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Setenv("XDG_CONFIG_HOME", conf)

	assert.Equal(t, filepath.Join(cache, "virtex"), GetCacheDir())
	assert.Equal(t, filepath.Join(cache, "virtex", "runs"), GetRunsDir())
	assert.Equal(t, filepath.Join(conf, "virtex"), GetConfigDir())
}
