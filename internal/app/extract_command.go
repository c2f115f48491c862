package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/romdex/internal/xmldb"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ExtractCommand re-reads one xmldb file and prints the raw XML fragment of
// the game at the given position.
type ExtractCommand struct {
	file string
	idx  int
}

func NewExtractCommand() *ExtractCommand { return &ExtractCommand{} }

func (c *ExtractCommand) Name() string { return "extract" }

func (c *ExtractCommand) Desc() string {
	return "按位置提取单个 game 节点的原始 XML"
}

func (c *ExtractCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.file, "file", "", "xmldb 文件路径")
	f.IntVar(&c.idx, "idx", 0, "game 节点在文件中的序号，从 0 开始")
}

func (c *ExtractCommand) PreRun(ctx context.Context) error {
	if c.file == "" {
		return errors.New("extract requires --file")
	}
	if c.idx < 0 {
		return errors.New("extract requires a non-negative --idx")
	}
	return nil
}

func (c *ExtractCommand) Run(ctx context.Context) error {
	fragment, err := xmldb.ExtractGameXML(c.file, c.idx)
	if err != nil {
		return err
	}
	if fragment == "" {
		logutil.GetLogger(ctx).Warn("game index not found in file",
			zap.String("file", c.file),
			zap.Int("idx", c.idx),
		)
		fmt.Println("<game/>")
		return nil
	}
	fmt.Println(fragment)
	return nil
}

func (c *ExtractCommand) PostRun(ctx context.Context) error {
	return nil
}

func init() {
	RegisterRunner("extract", func() IRunner { return NewExtractCommand() })
}
