package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/probe"
	"github.com/Ramsey-B/clover/pkg/suite"
)

func TestBuildZap(t *testing.T) {
	t.Run("should honor the configured level", func(t *testing.T) {
		l, err := buildZap(&config.Config{LogLevel: "warn"}, false)
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("should log debug when verbose", func(t *testing.T) {
		l, err := buildZap(&config.Config{LogLevel: "error", PrettyLogs: true}, true)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})
}

func TestProbeSet(t *testing.T) {
	reset := func() {
		probeInjection, probeEdge, probeLimit, probeQueries = false, false, 0, ""
	}
	t.Cleanup(reset)

	t.Run("should run both sets by default", func(t *testing.T) {
		reset()
		queries, err := probeSet()
		require.NoError(t, err)
		assert.Len(t, queries, len(probe.InjectionCases())+len(probe.EdgeCases()))
	})

	t.Run("should limit each set", func(t *testing.T) {
		reset()
		probeEdge, probeLimit = true, 2
		queries, err := probeSet()
		require.NoError(t, err)
		require.Len(t, queries, 2)
		assert.Equal(t, probe.KindEdgeCase, queries[0].Kind)
	})

	t.Run("should read a query file", func(t *testing.T) {
		reset()
		path := filepath.Join(t.TempDir(), "queries.yaml")
		require.NoError(t, os.WriteFile(path, []byte("injection:\n  - \"' OR 1=1\"\nedge_cases:\n  - \"a\"\n"), 0o600))
		probeQueries = path
		queries, err := probeSet()
		require.NoError(t, err)
		assert.Len(t, queries, 2)
	})
}

func TestLoadSuite(t *testing.T) {
	t.Cleanup(func() { suiteFile, workbookFile, tsvFile, referencesFile = "", "", "", "" })

	t.Run("should require a case source", func(t *testing.T) {
		_, err := loadSuite(suite.ModeRelevance)
		assert.ErrorContains(t, err, "no cases given")
	})

	t.Run("should load a yaml suite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "smoke.yaml")
		require.NoError(t, os.WriteFile(path, []byte("mode: relevance\ncases:\n  - search_term: Acme Corp\n"), 0o600))
		suiteFile = path

		s, err := loadSuite("")
		require.NoError(t, err)
		assert.Equal(t, "smoke", s.Name)
		assert.Len(t, s.Cases, 1)
	})

	assert.Equal(t, "baseline", baseName("/tmp/data/baseline.xlsx"))
}

func TestCachePurgeCommand(t *testing.T) {
	t.Run("should be registered under cache", func(t *testing.T) {
		cmd, _, err := rootCmd.Find([]string{"cache", "purge"})
		require.NoError(t, err)
		assert.Equal(t, cachePurgeCmd, cmd)
	})

	t.Run("should fail when redis is unreachable", func(t *testing.T) {
		prevCfg, prevLogger := cfg, logger
		t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })
		cfg = &config.Config{RedisHost: "127.0.0.1", RedisPort: 1, CachePrefix: "clover:test:"}
		logger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

		cachePurgeCmd.SetContext(context.Background())
		err := cachePurgeCmd.RunE(cachePurgeCmd, nil)
		assert.ErrorContains(t, err, "failed to connect to Redis")
	})
}
