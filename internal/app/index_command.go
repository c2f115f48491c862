package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	appconfig "github.com/xxxsen/romdex/internal/config"
	"github.com/xxxsen/romdex/internal/xmldb"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// IndexCommand scans an xmldb directory and prints the index summary, with
// the full entry list optionally written to a file.
type IndexCommand struct {
	dir     string
	workers int
	out     string
}

type indexSummary struct {
	Status    string   `json:"status"`
	Total     int      `json:"total"`
	Platforms []string `json:"platforms"`
	Regions   []string `json:"regions"`
	Languages []string `json:"languages"`
}

func NewIndexCommand() *IndexCommand { return &IndexCommand{} }

func (c *IndexCommand) Name() string { return "index" }

func (c *IndexCommand) Desc() string {
	return "扫描 xmldb 目录并构建游戏索引"
}

func (c *IndexCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "xmldb 目录，留空时使用配置文件中的路径")
	f.IntVar(&c.workers, "workers", 0, "并发解析协程数，0 表示使用 CPU 核数")
	f.StringVar(&c.out, "out", "", "将完整条目列表以 JSON 写入该文件")
}

func (c *IndexCommand) PreRun(ctx context.Context) error {
	cfg := appconfig.Get()
	if c.dir == "" {
		c.dir = cfg.XMLDBDir
	}
	if c.workers <= 0 {
		c.workers = cfg.Workers
	}
	logutil.GetLogger(ctx).Info("starting index build",
		zap.String("dir", c.dir),
		zap.Int("workers", c.workers),
	)
	return nil
}

func (c *IndexCommand) Run(ctx context.Context) error {
	start := time.Now()
	idx, err := xmldb.NewBuilder(c.workers).Build(ctx, c.dir)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("index built",
		zap.Int("entries", len(idx.Entries)),
		zap.Duration("cost", time.Since(start)),
	)

	facets := idx.Facets()
	summary := indexSummary{
		Status:    idx.Status,
		Total:     len(idx.Entries),
		Platforms: facets.Platforms,
		Regions:   facets.Regions,
		Languages: facets.Languages,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index summary: %w", err)
	}
	fmt.Println(string(data))

	if c.out == "" {
		return nil
	}
	entries, err := json.MarshalIndent(idx.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index entries: %w", err)
	}
	if err := os.WriteFile(c.out, entries, 0o644); err != nil {
		return fmt.Errorf("write index entries to %s: %w", c.out, err)
	}
	return nil
}

func (c *IndexCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("index completed")
	return nil
}

func init() {
	RegisterRunner("index", func() IRunner { return NewIndexCommand() })
}
