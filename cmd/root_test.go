//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"ingest", "project", "migrate", "runs", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "model-inputs", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestIngestCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range ingestCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["depth"])
	assert.True(t, names["efficiency"])
	assert.True(t, names["all"])
}

func TestIngestCommand_Flags(t *testing.T) {
	require.NotNil(t, ingestDepthCmd.Flags().Lookup("season"))
	require.NotNil(t, ingestEfficiencyCmd.Flags().Lookup("season"))
	require.NotNil(t, ingestAllCmd.Flags().Lookup("seasons"))
	require.NotNil(t, ingestCmd.PersistentFlags().Lookup("no-snapshots"))
}

func TestProjectCommand_Flags(t *testing.T) {
	for _, name := range []string{"season", "format", "limit", "position"} {
		assert.NotNil(t, projectCmd.Flags().Lookup(name), "project should have --%s", name)
	}
	assert.Equal(t, "table", projectCmd.Flags().Lookup("format").DefValue)
}

func TestRunsCommand_Flags(t *testing.T) {
	require.NotNil(t, runsCmd.Flags().Lookup("season"))
	limit := runsCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	port := serveCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)
}
