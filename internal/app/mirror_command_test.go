package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xxxsen/romdex/internal/thumb"

	"github.com/stretchr/testify/assert"
)

const mirrorSampleDB = `<?xml version="1.0"?>
<datafile>
  <game name="Good Game">
    <archive name="Good Game (USA)" region="USA"/>
  </game>
  <game name="Bad Game">
    <archive name="Bad Game (USA)" region="USA"/>
  </game>
  <game name="Flaky Game">
    <archive name="Flaky Game (USA)" region="USA"/>
  </game>
  <game name="Missing Game">
    <archive name="Missing Game (USA)" region="USA"/>
  </game>
  <game name="Good Game">
    <archive name="Good Game (Europe)" region="Europe"/>
  </game>
</datafile>`

type stubStorageClient struct {
	uploads []string
	checks  []string
}

func (s *stubStorageClient) UploadFile(ctx context.Context, key, filePath string, contentType string) error {
	s.uploads = append(s.uploads, key)
	if strings.Contains(key, "Bad Game") {
		return errors.New("upload rejected")
	}
	return nil
}

func (s *stubStorageClient) ObjectExists(ctx context.Context, key string) (bool, error) {
	s.checks = append(s.checks, key)
	if strings.Contains(key, "Flaky Game") {
		return false, errors.New("head timeout")
	}
	return false, nil
}

func (s *stubStorageClient) GetDownloadLink(ctx context.Context, key string) string {
	return "https://store.local/" + key
}

func TestMirrorContinuesOnObjectFailures(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Nintendo - SNES (20240101).xml"), []byte(mirrorSampleDB), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "Missing Game") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	loader := thumb.NewLoader(server.URL, t.TempDir(),
		map[string]string{"Nintendo - SNES": "Nintendo - Super Nintendo Entertainment System"},
		thumb.NewCache(), nil)

	client := &stubStorageClient{}
	c := &MirrorCommand{
		dir:       dir,
		workers:   1,
		imageType: thumb.ImageBoxart,
		loader:    loader,
		client:    client,
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// One upload attempt per unique fetched game; the failing upload and the
	// failing existence check must not stop the run.
	assert.ElementsMatch(t, []string{
		"thumbs/Nintendo - SNES/Named_Boxarts/Good Game.png",
		"thumbs/Nintendo - SNES/Named_Boxarts/Bad Game.png",
	}, client.uploads)
	assert.ElementsMatch(t, []string{
		"thumbs/Nintendo - SNES/Named_Boxarts/Good Game.png",
		"thumbs/Nintendo - SNES/Named_Boxarts/Bad Game.png",
		"thumbs/Nintendo - SNES/Named_Boxarts/Flaky Game.png",
	}, client.checks)
}
