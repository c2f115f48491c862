package xmldb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/xxxsen/romdex/internal/model"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDirectoryNotFound reports that the xmldb root does not exist. It is the
// only fatal condition of an index build.
var ErrDirectoryNotFound = errors.New("xmldb directory not found")

// Index is the immutable result of one build: the flat entry list in file
// discovery order plus the derived facet lists.
type Index struct {
	Entries   []model.GameEntry
	Platforms []string
	Regions   []string
	Languages []string
	Status    string
}

// Facets projects the index's facet lists into a transferable value.
func (idx *Index) Facets() model.Facets {
	return model.Facets{
		Platforms: idx.Platforms,
		Regions:   idx.Regions,
		Languages: idx.Languages,
	}
}

// Builder discovers and parses xmldb files under a root directory.
type Builder struct {
	parser  Parser
	workers int
}

// NewBuilder creates an index builder. A non-positive worker count falls
// back to the number of CPUs.
func NewBuilder(workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Builder{parser: NewParser(), workers: workers}
}

// Build enumerates *.xml files under root recursively, parses them in
// parallel and aggregates entries and facets. A single file failing to parse
// is logged and dropped; the build succeeds whenever the root exists.
func (b *Builder) Build(ctx context.Context, root string) (*Index, error) {
	logger := logutil.GetLogger(ctx)

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
		}
		return nil, fmt.Errorf("stat xmldb root %s: %w", root, err)
	}

	files, err := discoverFiles(root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn("no xml files under root", zap.String("root", root))
		return &Index{Status: "未找到 XML 文件"}, nil
	}

	perFile := make([][]model.GameEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			entries, err := b.parser.ParseFile(file)
			if err != nil {
				// Per-file failures never abort the build.
				logutil.GetLogger(gctx).Warn("skip unparsable xmldb file",
					zap.String("file", file),
					zap.Error(err),
				)
				return nil
			}
			perFile[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, entries := range perFile {
		total += len(entries)
	}
	all := make([]model.GameEntry, 0, total)
	for _, entries := range perFile {
		all = append(all, entries...)
	}

	idx := &Index{
		Entries:   all,
		Platforms: facetOf(all, func(e model.GameEntry) string { return e.Platform }, false),
		Regions:   facetOf(all, func(e model.GameEntry) string { return e.Region }, false),
		Languages: facetOf(all, func(e model.GameEntry) string { return e.Languages }, true),
	}
	idx.Status = fmt.Sprintf("已索引平台 %d 个，游戏条目 %d 条", len(idx.Platforms), len(idx.Entries))

	logger.Info("index built",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int("entries", len(idx.Entries)),
		zap.Int("platforms", len(idx.Platforms)),
	)
	return idx, nil
}

func discoverFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".xml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk xmldb root %s: %w", root, err)
	}
	return files, nil
}

// facetOf projects one field across all entries into a trimmed, sorted,
// deduplicated value list. When split is set each value is a comma separated
// token list and the tokens become the facet values.
func facetOf(entries []model.GameEntry, project func(model.GameEntry) string, split bool) []string {
	var values []string
	for _, e := range entries {
		v := project(e)
		if !split {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
			continue
		}
		for _, token := range strings.Split(v, ",") {
			if token = strings.TrimSpace(token); token != "" {
				values = append(values, token)
			}
		}
	}
	sort.Strings(values)
	out := values[:0]
	for _, v := range values {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}
