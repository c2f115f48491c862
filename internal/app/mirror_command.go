package app

import (
	"context"
	"fmt"
	"path"

	appconfig "github.com/xxxsen/romdex/internal/config"
	appdb "github.com/xxxsen/romdex/internal/db"
	"github.com/xxxsen/romdex/internal/storage"
	"github.com/xxxsen/romdex/internal/thumb"
	"github.com/xxxsen/romdex/internal/xmldb"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// MirrorCommand fetches thumbnails for every indexed game and uploads them to
// the configured object store.
type MirrorCommand struct {
	dir       string
	workers   int
	imageType string
	overwrite bool

	loader *thumb.Loader
	client storage.Client
}

func NewMirrorCommand() *MirrorCommand { return &MirrorCommand{} }

func (c *MirrorCommand) Name() string { return "mirror" }

func (c *MirrorCommand) Desc() string {
	return "抓取全部游戏缩略图并同步到对象存储"
}

func (c *MirrorCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "xmldb 目录，留空时使用配置文件中的路径")
	f.IntVar(&c.workers, "workers", 0, "并发解析协程数，0 表示使用 CPU 核数")
	f.StringVar(&c.imageType, "image-type", thumb.ImageBoxart, "缩略图类型")
	f.BoolVar(&c.overwrite, "overwrite", false, "覆盖对象存储中已存在的缩略图")
}

func (c *MirrorCommand) PreRun(ctx context.Context) error {
	cfg := appconfig.Get()
	if c.dir == "" {
		c.dir = cfg.XMLDBDir
	}
	if c.workers <= 0 {
		c.workers = cfg.Workers
	}
	if err := cfg.ValidateS3(); err != nil {
		return err
	}

	client, err := storage.NewS3Client(ctx, cfg.S3)
	if err != nil {
		return fmt.Errorf("create s3 client: %w", err)
	}
	c.client = client
	storage.SetDefaultClient(client)

	platformMap, err := thumb.BuildPlatformMap(c.dir)
	if err != nil {
		return fmt.Errorf("build platform map: %w", err)
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
	return nil
}

func (c *MirrorCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	idx, err := xmldb.NewBuilder(c.workers).Build(ctx, c.dir)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(idx.Entries))
	var fetched, uploaded, missed, skipped, failed int
	for i := range idx.Entries {
		entry := &idx.Entries[i]
		key := entry.Platform + "|" + entry.Name
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		res := c.loader.Fetch(ctx, entry.Platform, entry.Name, c.imageType)
		if res.State != thumb.StateLoaded {
			missed++
			continue
		}
		fetched++

		objectKey := path.Join("thumbs", entry.Platform, c.imageType, entry.Name+".png")
		if !c.overwrite {
			exists, err := c.client.ObjectExists(ctx, objectKey)
			if err != nil {
				logger.Warn("check object failed", zap.String("key", objectKey), zap.Error(err))
				failed++
				continue
			}
			if exists {
				skipped++
				continue
			}
		}
		if err := c.client.UploadFile(ctx, objectKey, res.Path, "image/png"); err != nil {
			logger.Warn("upload thumb failed", zap.String("key", objectKey), zap.Error(err))
			failed++
			continue
		}
		uploaded++
		logger.Debug("thumb mirrored",
			zap.String("key", objectKey),
			zap.String("link", c.client.GetDownloadLink(ctx, objectKey)),
		)
	}

	logger.Info("mirror finished",
		zap.Int("games", len(seen)),
		zap.Int("fetched", fetched),
		zap.Int("uploaded", uploaded),
		zap.Int("skipped", skipped),
		zap.Int("missed", missed),
		zap.Int("failed", failed),
	)
	return nil
}

func (c *MirrorCommand) PostRun(ctx context.Context) error {
	return nil
}

func init() {
	RegisterRunner("mirror", func() IRunner { return NewMirrorCommand() })
}
