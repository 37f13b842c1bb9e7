package confkit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFKIT_DIR", "nested")
	cases := []struct {
		name string
		base string
		file string
		want string
	}{
		{"absolute", "/base/dir", "/abs/file.yaml", "/abs/file.yaml"},
		{"relative", "/base/dir", "etc/file.yaml", "/base/dir/etc/file.yaml"},
		{"env", "/base/dir", "${CONFKIT_DIR}/file.yaml", "/base/dir/nested/file.yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolvePath(tc.base, tc.file))
		})
	}
}

func TestSectionHydrate(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		var section Section[string]
		err := section.Hydrate("/base", func(string) (*string, error) {
			t.Error("loader should not be called for empty file")
			return nil, nil
		})
		require.NoError(t, err)
		assert.False(t, section.Loaded())
		assert.Equal(t, "not configured", section.Describe())
	})

	t.Run("loaded", func(t *testing.T) {
		section := Section[string]{File: "exchange.yaml"}
		value := "ok"
		err := section.Hydrate("/base", func(path string) (*string, error) {
			assert.Equal(t, "/base/exchange.yaml", path)
			return &value, nil
		})
		require.NoError(t, err)
		assert.True(t, section.Loaded())
		assert.Equal(t, "/base/exchange.yaml", section.Describe())
	})

	t.Run("loader error", func(t *testing.T) {
		section := Section[string]{File: "broken.yaml"}
		err := section.Hydrate("/base", func(string) (*string, error) {
			return nil, errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
		assert.Equal(t, "broken.yaml", section.File)
	})
}

type sampleConf struct {
	Name     string        `json:",default=demo"`
	Interval time.Duration `json:",default=5s"`
	Target   string        `json:",optional"`
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Target: ${CONFKIT_TARGET}\nInterval: 2s\n"), 0o600))
	t.Setenv("CONFKIT_TARGET", "wss://example.invalid/ws")

	cfg, err := LoadFile[sampleConf](path, true)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, "wss://example.invalid/ws", cfg.Target)

	cfg, err = LoadFile[sampleConf](path, false)
	require.NoError(t, err)
	assert.Equal(t, "${CONFKIT_TARGET}", cfg.Target)

	_, err = LoadFile[sampleConf](filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestDotenvCandidates(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	assert.Empty(t, dotenvCandidates())

	t.Setenv("NO_DOTENV", "")
	t.Setenv("ENV_FILE", "/tmp/custom.env")
	assert.Equal(t, []string{"/tmp/custom.env"}, dotenvCandidates())

	t.Setenv("ENV_FILE", "")
	assert.Equal(t, ".env", dotenvCandidates()[0])
}

func TestLoadEnvFileKeepsExistingUnlessOverload(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CONFKIT_SAMPLE=fromfile\n"), 0o600))

	t.Setenv("CONFKIT_SAMPLE", "fromenv")
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "fromenv", os.Getenv("CONFKIT_SAMPLE"))

	t.Setenv("DOTENV_OVERLOAD", "1")
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "fromfile", os.Getenv("CONFKIT_SAMPLE"))
}

func TestProjectRootFindsModule(t *testing.T) {
	root, err := ProjectRoot()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "go.mod"))

	p, err := ProjectPath("etc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc"), p)
}
