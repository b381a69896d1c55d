package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/config"
)

func openTestState(t *testing.T) *client.State {
	t.Helper()
	st, err := client.OpenState(filepath.Join(t.TempDir(), "leitstand.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestResolveSessionCodeExplicitWins(t *testing.T) {
	st := openTestState(t)
	require.NoError(t, st.SaveSuccessfulConnection("http://host", "OLD1"))

	assert.Equal(t, "NEU2", resolveSessionCode("NEU2", "http://host", st))
}

func TestResolveSessionCodePrefersEndpointHistory(t *testing.T) {
	st := openTestState(t)
	require.NoError(t, st.SaveSuccessfulConnection("http://host-a", "AAAA"))
	require.NoError(t, st.SaveSuccessfulConnection("http://host-b", "BBBB"))
	require.NoError(t, st.SetLastSessionCode("BBBB"))

	assert.Equal(t, "AAAA", resolveSessionCode("", "http://host-a", st))
}

func TestResolveSessionCodeFallsBackToLastCode(t *testing.T) {
	st := openTestState(t)
	require.NoError(t, st.SetLastSessionCode("CCCC"))

	assert.Equal(t, "CCCC", resolveSessionCode("", "http://never-seen", st))
	assert.Equal(t, "CCCC", resolveSessionCode("", "", st))
}

func TestResolveSessionCodeEmptyWithoutHistory(t *testing.T) {
	st := openTestState(t)
	assert.Equal(t, "", resolveSessionCode("", "http://host", st))
}

func TestResolveUnitName(t *testing.T) {
	st := openTestState(t)
	cfg := &config.Config{}

	assert.Equal(t, "", resolveUnitName("", cfg, st))

	require.NoError(t, st.SetLastIdentity("Florian 3"))
	assert.Equal(t, "Florian 3", resolveUnitName("", cfg, st),
		"previous run fills in when flag and config are empty")

	cfg.Unit.Name = "Florian 2"
	assert.Equal(t, "Florian 2", resolveUnitName("", cfg, st))

	assert.Equal(t, "Florian 1", resolveUnitName("Florian 1", cfg, st))
}

func TestWsBase(t *testing.T) {
	got, err := wsBase("https://funk.example")
	require.NoError(t, err)
	assert.Equal(t, "wss://funk.example", got)

	got, err = wsBase("http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8000", got)

	_, err = wsBase("ftp://nope")
	assert.Error(t, err)
}
