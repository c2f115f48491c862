package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	appconfig "github.com/xxxsen/romdex/internal/config"
	appdb "github.com/xxxsen/romdex/internal/db"
	"github.com/xxxsen/romdex/internal/model"
	"github.com/xxxsen/romdex/internal/prefs"
	"github.com/xxxsen/romdex/internal/thumb"
	"github.com/xxxsen/romdex/internal/xmldb"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// WebCommand serves the index over HTTP: search, facets, raw XML fragments
// and thumbnails.
type WebCommand struct {
	bind    string
	dir     string
	workers int

	root   string
	server *http.Server
	loader *thumb.Loader
	recent *prefs.RecentFilters

	dataMu sync.RWMutex
	idx    *xmldb.Index
}

type searchResponse struct {
	Total   int                `json:"total"`
	Capped  bool               `json:"capped"`
	Entries []*model.GameEntry `json:"entries"`
}

type facetsResponse struct {
	Status string              `json:"status"`
	Total  int                 `json:"total"`
	Facets model.Facets        `json:"facets"`
	Recent prefs.RecentFilters `json:"recent"`
}

func NewWebCommand() *WebCommand { return &WebCommand{} }

func (c *WebCommand) Name() string { return "web" }

func (c *WebCommand) Desc() string {
	return "启动 HTTP 服务，提供检索、提取与缩略图接口"
}

func (c *WebCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.bind, "bind", ":8030", "HTTP 监听地址")
	f.StringVar(&c.dir, "dir", "", "xmldb 目录，留空时使用配置文件中的路径")
	f.IntVar(&c.workers, "workers", 0, "并发解析协程数，0 表示使用 CPU 核数")
}

func (c *WebCommand) PreRun(ctx context.Context) error {
	cfg := appconfig.Get()
	if c.dir == "" {
		c.dir = cfg.XMLDBDir
	}
	if c.workers <= 0 {
		c.workers = cfg.Workers
	}

	root, err := filepath.Abs(c.dir)
	if err != nil {
		return fmt.Errorf("resolve xmldb dir %s: %w", c.dir, err)
	}
	c.root = root

	if err := c.rebuild(ctx); err != nil {
		return err
	}

	platformMap, err := thumb.BuildPlatformMap(c.root)
	if err != nil {
		logutil.GetLogger(ctx).Warn("build platform map failed", zap.Error(err))
		platformMap = map[string]string{}
	}

	var store thumb.OutcomeStore
	if cfg.Thumb.DBPath != "" {
		handle, err := appdb.Open(cfg.Thumb.DBPath)
		if err != nil {
			return fmt.Errorf("open thumb db %s: %w", cfg.Thumb.DBPath, err)
		}
		if err := appdb.EnsureSchema(ctx, handle); err != nil {
			return fmt.Errorf("ensure thumb db schema: %w", err)
		}
		appdb.SetDefault(handle)
		store = appdb.ThumbFetchDao
	}
	c.loader = thumb.NewLoader(cfg.Thumb.BaseURL, cfg.Thumb.CacheDir, platformMap, thumb.NewCache(), store)
	c.recent = prefs.Load()
	return nil
}

func (c *WebCommand) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", c.handleSearch)
	mux.HandleFunc("/api/facets", c.handleFacets)
	mux.HandleFunc("/api/game/xml", c.handleGameXML)
	mux.HandleFunc("/api/thumb", c.handleThumb)
	mux.HandleFunc("/api/search_links", c.handleSearchLinks)
	mux.HandleFunc("/api/reload", c.handleReload)

	c.server = &http.Server{
		Addr:              c.bind,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logutil.GetLogger(ctx).Info("web server listening", zap.String("bind", c.bind))
	if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http on %s: %w", c.bind, err)
	}
	return nil
}

func (c *WebCommand) PostRun(ctx context.Context) error {
	if c.recent != nil {
		if err := c.recent.Save(); err != nil {
			logutil.GetLogger(ctx).Warn("save recent filters failed", zap.Error(err))
		}
	}
	return nil
}

func (c *WebCommand) rebuild(ctx context.Context) error {
	idx, err := xmldb.NewBuilder(c.workers).Build(ctx, c.root)
	if err != nil {
		return err
	}
	c.dataMu.Lock()
	c.idx = idx
	c.dataMu.Unlock()
	logutil.GetLogger(ctx).Info("index ready",
		zap.String("dir", c.root),
		zap.Int("entries", len(idx.Entries)),
	)
	return nil
}

func (c *WebCommand) snapshot() *xmldb.Index {
	c.dataMu.RLock()
	defer c.dataMu.RUnlock()
	return c.idx
}

func (c *WebCommand) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := xmldb.Criteria{
		Text:     strings.TrimSpace(q.Get("text")),
		Region:   strings.TrimSpace(q.Get("region")),
		Language: strings.TrimSpace(q.Get("language")),
	}
	for _, p := range q["platform"] {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			criteria.Platforms = append(criteria.Platforms, trimmed)
		}
	}

	idx := c.snapshot()
	matched := xmldb.Filter(idx.Entries, criteria)

	c.rememberFilters(criteria)

	writeJSON(w, http.StatusOK, searchResponse{
		Total:   len(matched),
		Capped:  len(matched) == xmldb.MaxResults,
		Entries: matched,
	})
}

func (c *WebCommand) rememberFilters(criteria xmldb.Criteria) {
	platform := ""
	if len(criteria.Platforms) > 0 {
		platform = criteria.Platforms[0]
	}
	if platform == "" && criteria.Region == "" && criteria.Language == "" {
		return
	}
	c.dataMu.Lock()
	c.recent.Remember(platform, criteria.Region, criteria.Language)
	c.dataMu.Unlock()
}

func (c *WebCommand) handleFacets(w http.ResponseWriter, r *http.Request) {
	idx := c.snapshot()
	c.dataMu.RLock()
	recent := *c.recent
	c.dataMu.RUnlock()
	writeJSON(w, http.StatusOK, facetsResponse{
		Status: idx.Status,
		Total:  len(idx.Entries),
		Facets: idx.Facets(),
		Recent: recent,
	})
}

func (c *WebCommand) handleGameXML(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	idxStr := r.URL.Query().Get("idx")
	gameIdx, err := strconv.Atoi(idxStr)
	if err != nil || gameIdx < 0 {
		http.Error(w, "invalid idx", http.StatusBadRequest)
		return
	}

	abs, err := filepath.Abs(file)
	if err != nil || !strings.HasPrefix(abs, c.root+string(filepath.Separator)) {
		http.Error(w, "file outside xmldb dir", http.StatusBadRequest)
		return
	}

	fragment, err := xmldb.ExtractGameXML(abs, gameIdx)
	if err != nil {
		logutil.GetLogger(r.Context()).Warn("extract game xml failed",
			zap.String("file", abs),
			zap.Int("idx", gameIdx),
			zap.Error(err),
		)
		http.Error(w, "extract failed", http.StatusInternalServerError)
		return
	}
	if fragment == "" {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(fragment))
}

func (c *WebCommand) handleThumb(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	platform := q.Get("platform")
	name := q.Get("name")
	imageType := q.Get("type")
	if imageType == "" {
		imageType = thumb.ImageBoxart
	}
	if platform == "" || name == "" {
		http.Error(w, "platform and name required", http.StatusBadRequest)
		return
	}

	res := c.loader.Fetch(r.Context(), platform, name, imageType)
	switch res.State {
	case thumb.StateLoaded:
		http.ServeFile(w, r, res.Path)
	case thumb.StateLoading:
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, "thumbnail not found", http.StatusNotFound)
	}
}

func (c *WebCommand) handleSearchLinks(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, thumb.SearchLinks(name))
}

func (c *WebCommand) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := c.rebuild(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	idx := c.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": idx.Status,
		"total":  len(idx.Entries),
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logutil.GetLogger(context.Background()).Warn("write json response failed", zap.Error(err))
	}
}

func init() {
	RegisterRunner("web", func() IRunner { return NewWebCommand() })
}
