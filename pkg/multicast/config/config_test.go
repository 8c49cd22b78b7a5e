package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/multicast/pkg/multicast/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert.NotNil(t, config.New(nil).Raw())
	assert.True(t, config.New(map[string]any{"k": 1}).Has("k"))
	assert.False(t, config.New(nil).Has("k"))
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"key exists", map[string]any{"error_policy": "swallow"}, "swallow"},
		{"key missing", map[string]any{}, "return"},
		{"wrong type", map[string]any{"error_policy": 3}, "return"},
		{"empty string", map[string]any{"error_policy": ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("error_policy", "return"))
		})
	}
}

func TestBool(t *testing.T) {
	cfg := config.New(map[string]any{"metrics": true, "tracing": "yes"})
	assert.True(t, cfg.Bool("metrics", false))
	assert.False(t, cfg.Bool("tracing", false))
	assert.True(t, cfg.Bool("missing", true))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"string", "250ms", 250 * time.Millisecond},
		{"int seconds", 3, 3 * time.Second},
		{"int64 seconds", int64(2), 2 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"duration", 7 * time.Second, 7 * time.Second},
		{"bad string", "soon", time.Minute},
		{"wrong type", true, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"handler_timeout": tt.val})
			assert.Equal(t, tt.want, cfg.Duration("handler_timeout", time.Minute))
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"int", 8, 8},
		{"int64", int64(4), 4},
		{"whole float", float64(16), 16},
		{"fractional float", 2.5, -1},
		{"string", "8", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"max_concurrency": tt.val})
			assert.Equal(t, tt.want, cfg.Int("max_concurrency", -1))
		})
	}
}

func TestSub(t *testing.T) {
	cfg := config.New(map[string]any{
		"dispatch": map[string]any{"max_concurrency": 2},
		"flat":     "value",
	})

	assert.Equal(t, 2, cfg.Sub("dispatch").Int("max_concurrency", 0))
	assert.Empty(t, cfg.Sub("flat").Raw())
	assert.Empty(t, cfg.Sub("missing").Raw())
}

func TestFromYAML(t *testing.T) {
	data := []byte(`
dispatch:
  max_concurrency: 4
  handler_timeout: 2s
  metrics: true
publisher:
  error_policy: swallow
`)
	cfg, err := config.FromYAML(data)
	require.NoError(t, err)

	dispatch := cfg.Sub("dispatch")
	assert.Equal(t, 4, dispatch.Int("max_concurrency", 0))
	assert.Equal(t, 2*time.Second, dispatch.Duration("handler_timeout", 0))
	assert.True(t, dispatch.Bool("metrics", false))
	assert.Equal(t, "swallow", cfg.Sub("publisher").String("error_policy", ""))

	_, err = config.FromYAML([]byte("dispatch: [unterminated"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"dispatch": {"max_concurrency": 3, "handler_timeout": 1}}`))
	require.NoError(t, err)

	dispatch := cfg.Sub("dispatch")
	assert.Equal(t, 3, dispatch.Int("max_concurrency", 0))
	assert.Equal(t, time.Second, dispatch.Duration("handler_timeout", 0))

	_, err = config.FromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "multicast.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("publisher:\n  error_policy: return\n"), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "return", cfg.Sub("publisher").String("error_policy", ""))

	jsonPath := filepath.Join(dir, "multicast.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"dispatch": {"tracing": true}}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, cfg.Sub("dispatch").Bool("tracing", false))

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "multicast.toml")
		require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))
		_, err := config.FromFile(path)
		assert.ErrorContains(t, err, "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "nope.yaml"))
		assert.ErrorContains(t, err, "read config file")
	})
}

func TestSections(t *testing.T) {
	cfg := config.New(map[string]any{
		"dispatch":  map[string]any{"max_concurrency": 2},
		"publisher": map[string]any{"error_policy": "swallow"},
	})

	assert.Equal(t, 2, cfg.Dispatch().Int("max_concurrency", 0))
	assert.Equal(t, "swallow", cfg.Publisher().String("error_policy", ""))
	assert.Empty(t, config.New(nil).Dispatch().Raw())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		wantErr string
	}{
		{name: "empty", data: nil},
		{name: "both sections", data: map[string]any{
			"dispatch":  map[string]any{},
			"publisher": map[string]any{},
		}},
		{name: "empty section", data: map[string]any{"publisher": nil}},
		{name: "misspelled section", data: map[string]any{"dispath": map[string]any{}}, wantErr: `unknown config section "dispath"`},
		{name: "flat key", data: map[string]any{"max_concurrency": 4}, wantErr: "unknown config section"},
		{name: "scalar section", data: map[string]any{"dispatch": "fast"}, wantErr: "must be a map"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.New(tt.data).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFromFile_RejectsUnknownSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multicast.yml")
	require.NoError(t, os.WriteFile(path, []byte("publsher:\n  error_policy: swallow\n"), 0o600))

	_, err := config.FromFile(path)
	assert.ErrorContains(t, err, `unknown config section "publsher"`)
}
