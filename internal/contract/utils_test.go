package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	assert.Equal(t, NoDataValue, GetPlainLabel(1, 0))
	assert.Equal(t, StrongValue, GetPlainLabel(0.8, 10))
	assert.Equal(t, GoodValue, GetPlainLabel(0.65, 10))
	assert.Equal(t, FairValue, GetPlainLabel(0.4, 10))
	assert.Equal(t, WeakValue, GetPlainLabel(0.1, 10))
}

func TestGetColorLabel(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	assert.Equal(t, StrongValue, GetColorLabel(0.95, 3))
	assert.Equal(t, NoDataValue, GetColorLabel(0, 0))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "report.txt")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}

func TestGetDBFilePath(t *testing.T) {
	assert.Contains(t, GetDBFilePath(), "bikebin.db")
}
