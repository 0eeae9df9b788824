package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(3<<20), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.True(t, cfg.PiP.Enabled)
	assert.Equal(t, 1280, cfg.PiP.Width)
	assert.Equal(t, 720, cfg.PiP.Height)
	assert.Equal(t, 24, cfg.PiP.FPS)
	assert.Equal(t, "#0E0E10", cfg.PiP.Background)
	assert.Equal(t, "webp", cfg.PiP.FrameFormat)
	assert.Equal(t, 2*time.Second, cfg.PiP.StageStaleAfter)
	assert.Equal(t, 10*time.Second, cfg.PiP.ToggleInterval)
	assert.True(t, cfg.PiP.AutoEnterOnHidden)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	body := []byte(`
port: 9090
pip:
  fps: 30
  frame_format: jpeg
  avatar_backgrounds: ["#112233", "#445566"]
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), body, 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30, cfg.PiP.FPS)
	assert.Equal(t, "jpeg", cfg.PiP.FrameFormat)
	assert.Equal(t, []string{"#112233", "#445566"}, cfg.PiP.AvatarBackgrounds)
	assert.Equal(t, 1280, cfg.PiP.Width)
}

func TestValidateRejects(t *testing.T) {
	base := PiPConfig{Width: 1280, Height: 720, FPS: 24, FrameFormat: "webp", FrameQuality: 75}
	require.NoError(t, base.validate())

	cases := map[string]func(p *PiPConfig){
		"zero width":   func(p *PiPConfig) { p.Width = 0 },
		"zero fps":     func(p *PiPConfig) { p.FPS = 0 },
		"bad format":   func(p *PiPConfig) { p.FrameFormat = "gif" },
		"bad quality":  func(p *PiPConfig) { p.FrameQuality = 101 },
		"zero quality": func(p *PiPConfig) { p.FrameQuality = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			assert.Error(t, p.validate())
		})
	}
}
