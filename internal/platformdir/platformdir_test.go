package platformdir

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDirCreatesDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("APPDATA", "")

	dir, err := ConfigDir()
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestPathJoinsUnderConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Path("litellm-pricing-cache.json")
	require.NoError(t, err)
	require.Contains(t, p, "litellm-pricing-cache.json")
}
