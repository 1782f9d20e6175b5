package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	keyFile := filepath.Join(dir, "fx.key")
	require.NoError(t, os.WriteFile(keyFile, []byte("  from-file\n"), 0o600))
	emptyFile := filepath.Join(dir, "empty.key")
	require.NoError(t, os.WriteFile(emptyFile, []byte("\n"), 0o600))

	got, err := Load(Source{Name: "fx api key", Value: " inline ", File: keyFile})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	got, err = Load(Source{Name: "fx api key", Value: " inline "})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	_, err = Load(Source{Name: "fx api key", File: emptyFile})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")

	_, err = Load(Source{Name: "fx api key", File: filepath.Join(dir, "missing")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading fx api key")

	_, err = Load(Source{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotConfigured))
}
