package installer

import (
	"context"
	"strings"
	"time"

	"github.com/loonghao/vx/pkg/cache"
	"github.com/loonghao/vx/pkg/paths"
	"github.com/loonghao/vx/pkg/platform"
	"github.com/loonghao/vx/pkg/types"
	"github.com/loonghao/vx/pkg/version"
	"github.com/sirupsen/logrus"
)

// versionCacheTTL is how long a discovered version list is considered
// fresh before ModeNormal re-fetches it.
const versionCacheTTL = 15 * time.Minute

// cachingPackageManager wraps a version.PackageManager so that
// DiscoverVersions consults the on-disk version-list cache before
// hitting the network, honoring --offline/--refresh via mode.
type cachingPackageManager struct {
	inner version.PackageManager
	cache *cache.VersionCache
	mode  cache.Mode
}

// withVersionCache decorates mgr with a version-list cache rooted at
// $VX_HOME/cache/versions, consulted according to mode. If the cache
// dir cannot be determined it falls back to the bare manager.
func withVersionCache(mgr version.PackageManager, mode cache.Mode) version.PackageManager {
	dir, err := paths.VersionCacheDir()
	if err != nil {
		logrus.Debugf("version cache: disabled, could not resolve cache dir: %v", err)
		return mgr
	}
	return &cachingPackageManager{
		inner: mgr,
		cache: cache.NewVersionCache(dir, versionCacheTTL),
		mode:  mode,
	}
}

func (c *cachingPackageManager) Name() string { return c.inner.Name() }

func (c *cachingPackageManager) DiscoverVersions(ctx context.Context, pkg types.RuntimeSpec, plat platform.Platform, limit int) ([]types.Version, error) {
	key := cacheKey(pkg.Name, plat, limit)
	tags, err := c.cache.Get(key, c.mode, func() ([]string, error) {
		versions, err := c.inner.DiscoverVersions(ctx, pkg, plat, limit)
		if err != nil {
			return nil, err
		}
		tags := make([]string, len(versions))
		for i, v := range versions {
			tags[i] = v.Tag
		}
		return tags, nil
	})
	if err != nil {
		return nil, err
	}

	versions := make([]types.Version, len(tags))
	for i, tag := range tags {
		versions[i] = types.ParseVersion(version.Normalize(tag), tag)
	}
	return versions, nil
}

func cacheKey(name string, plat platform.Platform, limit int) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('-')
	b.WriteString(plat.OS)
	b.WriteByte('-')
	b.WriteString(plat.Arch)
	return b.String()
}
