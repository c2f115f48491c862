package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	appconfig "github.com/xxxsen/romdex/internal/config"
	"github.com/xxxsen/romdex/internal/prefs"
	"github.com/xxxsen/romdex/internal/xmldb"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// QueryCommand builds the index and filters entries, printing matches as JSON.
type QueryCommand struct {
	dir       string
	workers   int
	text      string
	platforms string
	region    string
	language  string

	criteria xmldb.Criteria
}

func NewQueryCommand() *QueryCommand { return &QueryCommand{} }

func (c *QueryCommand) Name() string { return "query" }

func (c *QueryCommand) Desc() string {
	return "按名称、平台、地区、语言过滤游戏条目并输出 JSON"
}

func (c *QueryCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "xmldb 目录，留空时使用配置文件中的路径")
	f.IntVar(&c.workers, "workers", 0, "并发解析协程数，0 表示使用 CPU 核数")
	f.StringVar(&c.text, "text", "", "名称或压缩包名的子串，支持拼音匹配")
	f.StringVar(&c.platforms, "platform", "", "逗号分隔的平台列表，精确匹配")
	f.StringVar(&c.region, "region", "", "地区子串")
	f.StringVar(&c.language, "language", "", "语言代码，精确匹配单个代码")
}

func (c *QueryCommand) PreRun(ctx context.Context) error {
	cfg := appconfig.Get()
	if c.dir == "" {
		c.dir = cfg.XMLDBDir
	}
	if c.workers <= 0 {
		c.workers = cfg.Workers
	}

	c.criteria = xmldb.Criteria{
		Text:     strings.TrimSpace(c.text),
		Region:   strings.TrimSpace(c.region),
		Language: strings.TrimSpace(c.language),
	}
	for _, p := range strings.Split(c.platforms, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			c.criteria.Platforms = append(c.criteria.Platforms, trimmed)
		}
	}

	logutil.GetLogger(ctx).Info("starting query",
		zap.String("text", c.criteria.Text),
		zap.Strings("platforms", c.criteria.Platforms),
		zap.String("region", c.criteria.Region),
		zap.String("language", c.criteria.Language),
	)
	return nil
}

func (c *QueryCommand) Run(ctx context.Context) error {
	idx, err := xmldb.NewBuilder(c.workers).Build(ctx, c.dir)
	if err != nil {
		return err
	}

	matched := xmldb.Filter(idx.Entries, c.criteria)
	data, err := json.MarshalIndent(matched, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal query result: %w", err)
	}
	fmt.Println(string(data))

	logutil.GetLogger(ctx).Info("query matched",
		zap.Int("count", len(matched)),
		zap.Int("scanned", len(idx.Entries)),
	)

	recent := prefs.Load()
	platform := ""
	if len(c.criteria.Platforms) > 0 {
		platform = c.criteria.Platforms[0]
	}
	recent.Remember(platform, c.criteria.Region, c.criteria.Language)
	if err := recent.Save(); err != nil {
		logutil.GetLogger(ctx).Warn("save recent filters failed", zap.Error(err))
	}
	return nil
}

func (c *QueryCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("query completed")
	return nil
}

func init() {
	RegisterRunner("query", func() IRunner { return NewQueryCommand() })
}
