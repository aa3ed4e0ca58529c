package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "feedlens", rootCmd.Use)
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	cfg := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)

	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"search", "sync", "tui", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	cleanup := setupTestServices(nil, nil)
	defer cleanup()

	stdout, _, err := executeCommand("version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "feedlens version")
}
