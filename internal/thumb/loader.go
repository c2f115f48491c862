package thumb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Image types published by the libretro-thumbnails repositories.
const (
	ImageBoxart = "Named_Boxarts"
	ImageSnap   = "Named_Snaps"
	ImageTitle  = "Named_Titles"
)

var gameNameSanitizer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
)

// OutcomeStore persists fetch outcomes across runs so known misses are not
// re-fetched. Implementations must tolerate concurrent calls.
type OutcomeStore interface {
	Lookup(ctx context.Context, key string) (state LoadState, localPath string, ok bool, err error)
	Record(ctx context.Context, key string, state LoadState, localPath string) error
}

// Loader fetches thumbnails best effort and records outcomes in the cache
// and, when configured, a persistent store. Fetch failures are never fatal.
type Loader struct {
	client      *http.Client
	cache       *Cache
	store       OutcomeStore
	baseURL     string
	cacheDir    string
	platformMap map[string]string
}

// NewLoader builds a loader. store may be nil; outcomes then live only in
// memory.
func NewLoader(baseURL, cacheDir string, platformMap map[string]string, cache *Cache, store OutcomeStore) *Loader {
	return &Loader{
		client:      &http.Client{Timeout: 10 * time.Second},
		cache:       cache,
		store:       store,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		cacheDir:    cacheDir,
		platformMap: platformMap,
	}
}

// ImageURL constructs the remote URL for one thumbnail. The second return is
// false when the platform has no known repository mapping.
func (l *Loader) ImageURL(platform, gameName, imageType string) (string, bool) {
	repo, ok := l.platformMap[platform]
	if !ok {
		return "", false
	}
	name := gameNameSanitizer.Replace(gameName)
	return fmt.Sprintf("%s/%s/master/%s/%s.png", l.baseURL, url.PathEscape(repo), imageType, url.PathEscape(name)), true
}

// Fetch resolves one thumbnail, consulting the in-memory cache, then the
// persistent store, then the network. The returned result is always usable;
// network errors degrade to NotFound.
func (l *Loader) Fetch(ctx context.Context, platform, gameName, imageType string) Result {
	key := Key(platform, gameName, imageType)
	if r, ok := l.cache.Get(key); ok && r.State != StateLoading {
		return r
	}
	if !l.cache.BeginLoad(key) {
		// Another caller is fetching; report in-flight state.
		r, _ := l.cache.Get(key)
		return r
	}

	r := l.resolve(ctx, key, platform, gameName, imageType)
	l.cache.Store(key, r)
	return r
}

func (l *Loader) resolve(ctx context.Context, key, platform, gameName, imageType string) Result {
	logger := logutil.GetLogger(ctx)

	if l.store != nil {
		state, localPath, ok, err := l.store.Lookup(ctx, key)
		if err != nil {
			logger.Warn("thumb store lookup failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			if state == StateLoaded {
				if _, err := os.Stat(localPath); err == nil {
					return Result{State: StateLoaded, Path: localPath}
				}
				// Cached file vanished; refetch.
			} else {
				return Result{State: state}
			}
		}
	}

	remote, ok := l.ImageURL(platform, gameName, imageType)
	if !ok {
		return l.finish(ctx, key, Result{State: StateNotFound})
	}

	localPath, err := l.download(ctx, remote, platform, gameName, imageType)
	if err != nil {
		logger.Debug("thumb fetch missed",
			zap.String("url", remote),
			zap.Error(err),
		)
		return l.finish(ctx, key, Result{State: StateNotFound})
	}
	return l.finish(ctx, key, Result{State: StateLoaded, Path: localPath})
}

func (l *Loader) finish(ctx context.Context, key string, r Result) Result {
	if l.store != nil {
		if err := l.store.Record(ctx, key, r.State, r.Path); err != nil {
			logutil.GetLogger(ctx).Warn("thumb store record failed", zap.String("key", key), zap.Error(err))
		}
	}
	return r
}

func (l *Loader) download(ctx context.Context, remote, platform, gameName, imageType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote, nil)
	if err != nil {
		return "", err
	}
	res, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", res.StatusCode, remote)
	}

	name := gameNameSanitizer.Replace(gameName) + ".png"
	dir := filepath.Join(l.cacheDir, gameNameSanitizer.Replace(platform), imageType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure thumb dir %s: %w", dir, err)
	}
	dest := filepath.Join(dir, name)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create thumb %s: %w", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, res.Body); err != nil {
		return "", fmt.Errorf("write thumb %s: %w", dest, err)
	}
	return dest, nil
}
