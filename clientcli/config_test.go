package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/closureme/closureme/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("empty endpoint gets default", func(t *testing.T) {
		cfg := (&clientcli.Config{}).WithDefaults()
		assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
	})

	t.Run("explicit endpoint is kept", func(t *testing.T) {
		orig := &clientcli.Config{Endpoint: "http://api.example.com"}
		cfg := orig.WithDefaults()
		assert.Equal(t, "http://api.example.com", cfg.Endpoint)
	})

	t.Run("does not mutate receiver", func(t *testing.T) {
		orig := &clientcli.Config{}
		_ = orig.WithDefaults()
		assert.Empty(t, orig.Endpoint)
	})
}

func TestConfig_DownloadsPath(t *testing.T) {
	t.Run("configured directory wins", func(t *testing.T) {
		cfg := &clientcli.Config{DownloadsDir: "/data/downloads"}
		dir, err := cfg.DownloadsPath()
		require.NoError(t, err)
		assert.Equal(t, "/data/downloads", dir)
	})

	t.Run("falls back to platform downloads", func(t *testing.T) {
		cfg := &clientcli.Config{}
		dir, err := cfg.DownloadsPath()
		require.NoError(t, err)
		assert.Equal(t, "Downloads", filepath.Base(dir))
	})
}

func TestConfig_Session(t *testing.T) {
	assert.Nil(t, (&clientcli.Config{}).Session())

	s := (&clientcli.Config{Token: "tok"}).Session()
	require.NotNil(t, s)
	assert.Equal(t, "tok", s.Token)
	assert.True(t, s.Valid())
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "single config",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", DownloadsDir: "/a", Token: "t1"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", DownloadsDir: "/a", Token: "t1"},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", DownloadsDir: "/a", Token: "t1"},
				{Endpoint: "http://b.com", Token: "t2"},
			},
			expected: &clientcli.Config{Endpoint: "http://b.com", DownloadsDir: "/a", Token: "t2"},
		},
		{
			name: "empty strings do not override",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", DownloadsDir: "/a", Token: "t1"},
				{},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", DownloadsDir: "/a", Token: "t1"},
		},
		{
			name: "nil config is skipped",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com"},
				nil,
				{Token: "t2"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Token: "t2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := clientcli.MergeConfig(tt.configs...)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CLOSUREME_ENDPOINT", "http://test.example.com")
	t.Setenv("CLOSUREME_DOWNLOADS_DIR", "/tmp/dl")
	t.Setenv("CLOSUREME_TOKEN", "env-token")

	cfg := clientcli.ConfigFromEnv()

	assert.Equal(t, "http://test.example.com", cfg.Endpoint)
	assert.Equal(t, "/tmp/dl", cfg.DownloadsDir)
	assert.Equal(t, "env-token", cfg.Token)
}

func TestProfileAndConfigPathFromEnv(t *testing.T) {
	t.Setenv("CLOSUREME_PROFILE", "staging")
	t.Setenv("CLOSUREME_CONFIG", "/etc/closureme.yaml")

	assert.Equal(t, "staging", clientcli.ProfileFromEnv())
	assert.Equal(t, "/etc/closureme.yaml", clientcli.ConfigPathFromEnv())
}

func TestConfigFromProfile(t *testing.T) {
	assert.Equal(t, &clientcli.Config{}, clientcli.ConfigFromProfile(nil))

	cfg := clientcli.ConfigFromProfile(&clientcli.Profile{
		Name:         "prod",
		Endpoint:     "https://api.example.com",
		DownloadsDir: "/srv/dl",
		Token:        "abc",
	})
	assert.Equal(t, &clientcli.Config{Endpoint: "https://api.example.com", DownloadsDir: "/srv/dl", Token: "abc"}, cfg)
}

func TestConfigFile_Profiles(t *testing.T) {
	t.Run("empty file has no profiles", func(t *testing.T) {
		cf := &clientcli.ConfigFile{}
		_, err := cf.GetProfile("")
		require.ErrorIs(t, err, clientcli.ErrNoProfiles)
	})

	t.Run("first profile is default when none marked", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a"}, {Name: "b"}}}
		p, err := cf.GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "a", p.Name)
	})

	t.Run("marked default wins", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a"}, {Name: "b", Default: true}}}
		p, err := cf.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "b", p.Name)
	})

	t.Run("unknown profile", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a"}}}
		_, err := cf.GetProfile("missing")
		require.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("add rejects duplicates", func(t *testing.T) {
		cf := &clientcli.ConfigFile{}
		require.NoError(t, cf.AddProfile(clientcli.Profile{Name: "a"}))
		require.ErrorIs(t, cf.AddProfile(clientcli.Profile{Name: "a"}), clientcli.ErrProfileExists)
	})

	t.Run("update and remove", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a"}, {Name: "b"}}}

		require.NoError(t, cf.UpdateProfile(clientcli.Profile{Name: "a", Endpoint: "http://x"}))
		p, err := cf.GetProfile("a")
		require.NoError(t, err)
		assert.Equal(t, "http://x", p.Endpoint)

		require.NoError(t, cf.RemoveProfile("a"))
		assert.Equal(t, []string{"b"}, cf.ProfileNames())

		require.ErrorIs(t, cf.UpdateProfile(clientcli.Profile{Name: "zzz"}), clientcli.ErrProfileNotFound)
		require.ErrorIs(t, cf.RemoveProfile("zzz"), clientcli.ErrProfileNotFound)
	})

	t.Run("set default clears others", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a", Default: true}, {Name: "b"}}}
		require.NoError(t, cf.SetDefault("b"))
		assert.False(t, cf.Profiles[0].Default)
		assert.True(t, cf.Profiles[1].Default)
		require.ErrorIs(t, cf.SetDefault("zzz"), clientcli.ErrProfileNotFound)
	})
}

func TestConfigFile_SaveAndLoad(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local", Endpoint: "http://localhost:3000", Default: true},
			{Name: "prod", Endpoint: "https://api.example.com", DownloadsDir: "/srv/dl", Token: "secret-token"},
		}}
		require.NoError(t, cf.Save(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, cf, loaded)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`invalid: [yaml: content`), 0o600))

		_, err := clientcli.LoadConfigFile(path)
		assert.Error(t, err)
	})
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, filepath.Join("/home/tester", ".closureme", "config.yaml"), clientcli.DefaultConfigPath())
}
