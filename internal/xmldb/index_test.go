package xmldb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBuilderBuild(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "SNES (USA).xml"), `<datafile>
	<game name="Super Mario World" region="US" languages="en, fr"/>
	<game name="魂斗罗" region="JP" languages="ja,en"/>
</datafile>`)
	writeFile(t, filepath.Join(root, "sub", "Mega Drive.xml"), `<datafile>
	<game name="Sonic" region="EU" languages="en"/>
</datafile>`)
	// A malformed file is dropped without failing the build.
	writeFile(t, filepath.Join(root, "Broken.xml"), `<datafile><game name="X">`)
	// Non-xml files are ignored.
	writeFile(t, filepath.Join(root, "notes.txt"), "not xml")

	idx, err := NewBuilder(2).Build(context.Background(), root)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(idx.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(idx.Entries))
	}

	assert.Equal(t, []string{"Mega Drive", "SNES"}, idx.Platforms)
	assert.Equal(t, []string{"EU", "JP", "US"}, idx.Regions)
	assert.Equal(t, []string{"en", "fr", "ja"}, idx.Languages)
	assert.Equal(t, "已索引平台 2 个，游戏条目 3 条", idx.Status)
}

func TestBuilderLanguageFacetSplitting(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "P.xml"), `<datafile>
	<game name="A" languages="en, fr,en"/>
	<game name="B" languages="en"/>
</datafile>`)

	idx, err := NewBuilder(0).Build(context.Background(), root)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	assert.Equal(t, []string{"en", "fr"}, idx.Languages)
}

func TestBuilderMissingRoot(t *testing.T) {
	_, err := NewBuilder(0).Build(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestBuilderEmptyRoot(t *testing.T) {
	idx, err := NewBuilder(0).Build(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("empty root must not fail: %v", err)
	}
	if len(idx.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(idx.Entries))
	}
	assert.Equal(t, "未找到 XML 文件", idx.Status)
}

func TestBuilderDeterministicAcrossRuns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A.xml"), `<datafile><game name="One"/><game name="Two"/></datafile>`)

	first, err := NewBuilder(4).Build(context.Background(), root)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	second, err := NewBuilder(4).Build(context.Background(), root)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	assert.Equal(t, first.Entries, second.Entries)
}
