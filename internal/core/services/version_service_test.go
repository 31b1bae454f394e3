package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvman/backend/internal/config"
	"github.com/nvman/backend/internal/infrastructure/logger"
)

// memCache is an in-memory ports.CatalogCache for tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	stamps  map[string]time.Time
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte), stamps: make(map[string]time.Time)}
}

func (m *memCache) Get(key string, maxAge time.Duration) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok || time.Since(m.stamps[key]) >= maxAge {
		return nil, false
	}
	return data, true
}

func (m *memCache) Put(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = data
	m.stamps[key] = time.Now()
	return nil
}

func makeInstalledVersion(t *testing.T, root, version string) {
	t.Helper()
	var binPath string
	if runtime.GOOS == "windows" {
		binPath = filepath.Join(root, version, "node.exe")
	} else {
		binPath = filepath.Join(root, version, "bin", "node")
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(binPath), 0o755))
	require.NoError(t, os.WriteFile(binPath, []byte("node"), 0o755))
}

func newTestVersionManager(t *testing.T, root string, cache *memCache, baseURL string) *VersionManager {
	t.Helper()
	svc := NewVersionManager(VersionManagerConfig{
		Mirror:   config.MirrorConfig{BaseURL: baseURL},
		Node:     config.NodeConfig{Arch: "x64", InstallRoot: root, SymlinkPath: filepath.Join(root, "current")},
		Cache:    cache,
		CacheCfg: config.CacheConfig{TTL: time.Hour},
		Logger:   logger.NewNop(),
	})
	return svc.(*VersionManager)
}

func TestInstalledScansAndSortsDescending(t *testing.T) {
	root := t.TempDir()
	makeInstalledVersion(t, root, "v18.19.0")
	makeInstalledVersion(t, root, "v20.2.0")
	makeInstalledVersion(t, root, "v20.10.0")

	// No node binary inside, must be skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "v99.0.0"), 0o755))
	// Not a version directory.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tmp"), 0o755))

	svc := newTestVersionManager(t, root, newMemCache(), "http://unused")

	versions, err := svc.Installed()
	require.NoError(t, err)
	require.Len(t, versions, 3)

	// Semantic order: v20.10.0 beats v20.2.0 despite string order.
	assert.Equal(t, "v20.10.0", versions[0].Version)
	assert.Equal(t, "v20.2.0", versions[1].Version)
	assert.Equal(t, "v18.19.0", versions[2].Version)
	assert.Positive(t, versions[0].Size)
}

func TestInstalledMissingRoot(t *testing.T) {
	svc := newTestVersionManager(t, filepath.Join(t.TempDir(), "absent"), newMemCache(), "http://unused")

	versions, err := svc.Installed()
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestActivateAndUninstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	root := t.TempDir()
	makeInstalledVersion(t, root, "v18.19.0")
	makeInstalledVersion(t, root, "v20.2.0")

	svc := newTestVersionManager(t, root, newMemCache(), "http://unused")

	_, ok := svc.ActiveVersion()
	assert.False(t, ok)

	require.NoError(t, svc.Activate("20.2.0"))
	active, ok := svc.ActiveVersion()
	require.True(t, ok)
	assert.Equal(t, "v20.2.0", active)

	// The active version is protected.
	require.ErrorIs(t, svc.Uninstall("v20.2.0"), ErrVersionActive)

	require.NoError(t, svc.Uninstall("v18.19.0"))
	_, err := os.Stat(filepath.Join(root, "v18.19.0"))
	assert.True(t, os.IsNotExist(err))

	// Re-pointing the symlink works without manual cleanup.
	makeInstalledVersion(t, root, "v22.0.0")
	require.NoError(t, svc.Activate("v22.0.0"))
	active, _ = svc.ActiveVersion()
	assert.Equal(t, "v22.0.0", active)
}

func TestActivateUnknownVersion(t *testing.T) {
	svc := newTestVersionManager(t, t.TempDir(), newMemCache(), "http://unused")
	require.ErrorIs(t, svc.Activate("v99.0.0"), ErrVersionNotFound)
}

func TestUninstallUnknownVersion(t *testing.T) {
	svc := newTestVersionManager(t, t.TempDir(), newMemCache(), "http://unused")
	require.ErrorIs(t, svc.Uninstall("v99.0.0"), ErrVersionNotFound)
}

func TestAvailableFetchesAndCaches(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/index.json", r.URL.Path)
		w.Write([]byte(`[{"version":"v20.2.0","date":"2023-05-16","files":["linux-x64"],"lts":false},
			{"version":"v18.16.0","date":"2023-04-12","files":["linux-x64"],"lts":"Hydrogen"}]`))
	}))
	defer srv.Close()

	cache := newMemCache()
	svc := newTestVersionManager(t, t.TempDir(), cache, srv.URL)

	catalog, err := svc.Available(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "v20.2.0", catalog[0].Version)

	// Second call is served from the cache.
	catalog, err = svc.Available(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, 1, hits)
}

func TestAvailableUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := newTestVersionManager(t, t.TempDir(), newMemCache(), srv.URL)

	_, err := svc.Available(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}
