package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-skyboy/skyboy/cpu"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 7000, cfg.Emulation.StepInstructions)
	assert.Equal(t, NoBreakpoint, cfg.Emulation.Breakpoint)
	assert.Equal(t, 128, cfg.Emulation.SaveStates)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, cpu.PrefixAtomic, policy)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[emulation]
step_instructions = 100
prefix_policy = "interruptible"

[input]
a = "z"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Emulation.StepInstructions = 100
	want.Emulation.PrefixPolicy = "interruptible"
	want.Input.A = "z"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("bad policy", func(t *testing.T) {
		path := filepath.Join(dir, "policy.toml")
		require.NoError(t, os.WriteFile(path, []byte("[emulation]\nprefix_policy = \"maybe\"\n"), 0o644))

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrUnknownPrefixPolicy)
	})

	t.Run("syntax error", func(t *testing.T) {
		path := filepath.Join(dir, "broken.toml")
		require.NoError(t, os.WriteFile(path, []byte("[emulation\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadOrDefault(filepath.Join(dir, "nope.toml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", cfgFilename)
	cfg := Default()
	cfg.Emulation.Breakpoint = 0x150
	cfg.Trace.Path = "trace.log"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
