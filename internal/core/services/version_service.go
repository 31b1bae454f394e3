package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/nvman/backend/internal/config"
	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/domain"
	"github.com/nvman/backend/internal/infrastructure/logger"
)

const catalogCacheKey = "node_available_versions"

// VersionManager answers inventory and catalog queries and flips the active
// version symlink. It never touches the task registry.
type VersionManager struct {
	mirror config.MirrorConfig
	node   config.NodeConfig
	cache  ports.CatalogCache
	ttl    config.CacheConfig
	client *http.Client
	ua     string
	logger *logger.Logger
}

type VersionManagerConfig struct {
	Mirror    config.MirrorConfig
	Node      config.NodeConfig
	Cache     ports.CatalogCache
	CacheCfg  config.CacheConfig
	Client    *http.Client
	UserAgent string
	Logger    *logger.Logger
}

func NewVersionManager(cfg VersionManagerConfig) ports.VersionService {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &VersionManager{
		mirror: cfg.Mirror,
		node:   cfg.Node,
		cache:  cfg.Cache,
		ttl:    cfg.CacheCfg,
		client: client,
		ua:     cfg.UserAgent,
		logger: cfg.Logger,
	}
}

// Installed scans the install root for version directories holding a node
// binary, newest version first.
func (v *VersionManager) Installed() ([]domain.NodeVersion, error) {
	entries, err := os.ReadDir(v.node.InstallRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.NodeVersion{}, nil
		}
		return nil, fmt.Errorf("version: read install root: %w", err)
	}

	active, _ := v.ActiveVersion()

	versions := make([]domain.NodeVersion, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "v") {
			continue
		}
		dir := filepath.Join(v.node.InstallRoot, entry.Name())
		if !hasNodeBinary(dir) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		versions = append(versions, domain.NodeVersion{
			Version:       entry.Name(),
			Path:          dir,
			IsActive:      entry.Name() == active,
			InstalledDate: info.ModTime().Format("2006-01-02"),
			Size:          dirSize(dir),
		})
	}

	sort.Slice(versions, func(i, j int) bool {
		vi, ei := semver.NewVersion(versions[i].Version)
		vj, ej := semver.NewVersion(versions[j].Version)
		if ei != nil || ej != nil {
			return versions[i].Version > versions[j].Version
		}
		return vi.GreaterThan(vj)
	})
	return versions, nil
}

// Available returns the mirror catalog, served from the local cache while
// the cached copy is fresh.
func (v *VersionManager) Available(ctx context.Context) ([]domain.AvailableVersion, error) {
	if data, ok := v.cache.Get(catalogCacheKey, v.ttl.TTL); ok {
		var cached []domain.AvailableVersion
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		v.logger.Warnw("catalog_cache_corrupt", "key", catalogCacheKey)
	}

	url := strings.TrimSuffix(v.mirror.BaseURL, "/") + "/index.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("version: build catalog request: %w", err)
	}
	if v.ua != "" {
		req.Header.Set("User-Agent", v.ua)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("version: fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("version: read catalog: %w", err)
	}

	var catalog []domain.AvailableVersion
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("version: decode catalog: %w", err)
	}

	if err := v.cache.Put(catalogCacheKey, body); err != nil {
		v.logger.Warnw("catalog_cache_put_failed", "error", err)
	}
	v.logger.Infow("catalog_refreshed", "versions", len(catalog))
	return catalog, nil
}

// Activate re-points the active-version symlink at the given installed
// version.
func (v *VersionManager) Activate(version string) error {
	version = NormalizeVersion(version)
	dir := filepath.Join(v.node.InstallRoot, version)
	if !hasNodeBinary(dir) {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
	}

	if err := os.Remove(v.node.SymlinkPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("version: remove old symlink: %w", err)
	}
	if err := os.Symlink(dir, v.node.SymlinkPath); err != nil {
		return fmt.Errorf("version: create symlink: %w", err)
	}

	v.logger.Infow("version_activated", "version", version)
	return nil
}

// Uninstall removes an installed version. The active version is refused.
func (v *VersionManager) Uninstall(version string) error {
	version = NormalizeVersion(version)
	dir := filepath.Join(v.node.InstallRoot, version)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
	}

	if active, ok := v.ActiveVersion(); ok && active == version {
		return fmt.Errorf("%w: %s", ErrVersionActive, version)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("version: remove %s: %w", version, err)
	}
	v.logger.Infow("version_uninstalled", "version", version)
	return nil
}

// ActiveVersion resolves the symlink back to a version directory name.
func (v *VersionManager) ActiveVersion() (string, bool) {
	target, err := os.Readlink(v.node.SymlinkPath)
	if err != nil {
		return "", false
	}
	name := filepath.Base(target)
	if !strings.HasPrefix(name, "v") {
		return "", false
	}
	return name, true
}

func hasNodeBinary(dir string) bool {
	if runtime.GOOS == "windows" {
		_, err := os.Stat(filepath.Join(dir, "node.exe"))
		return err == nil
	}
	_, err := os.Stat(filepath.Join(dir, "bin", "node"))
	return err == nil
}

func dirSize(dir string) int64 {
	var size int64
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
