package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledRegistry(t *testing.T) {
	db, err := New("")
	require.NoError(t, err)
	defer db.Close()

	assert.False(t, db.IsEnabled())
	assert.NoError(t, db.RecordConfig("run", "OPTIM:\n  BATCH_SIZE: 1024\n"))

	_, err = db.LookupConfig("run")
	assert.Error(t, err)
	_, err = db.FindByHash("abc")
	assert.Error(t, err)
}

func TestConfigHash(t *testing.T) {
	a := ConfigHash("RANDOM_SEED: 0\n")
	b := ConfigHash("RANDOM_SEED: 1\n")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ConfigHash("RANDOM_SEED: 0\n"))
}

func TestNewUnreachable(t *testing.T) {
	db, err := New("host=127.0.0.1 port=1 user=none dbname=none sslmode=disable connect_timeout=1")
	assert.Error(t, err)
	assert.False(t, db.IsEnabled())
}
