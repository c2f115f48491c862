package xmldb

import (
	"fmt"
	"testing"

	"github.com/xxxsen/romdex/internal/model"

	"github.com/stretchr/testify/assert"
)

func queryFixture() []model.GameEntry {
	return []model.GameEntry{
		{Platform: "SNES", Name: "Super Mario World", Region: "US", Languages: "en,fr"},
		{Platform: "SNES", Name: "MARIO KART", Region: "Europe", Languages: "english"},
		{Platform: "N64", Name: "Zelda", ArchiveName: "Zelda (USA)", Region: "US", Languages: "en"},
		{Platform: "FC", Name: "魂斗罗", Region: "JP", Languages: "ja"},
		{Platform: "SNES", Name: "Plain"},
	}
}

func names(entries []*model.GameEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestFilterFreeText(t *testing.T) {
	got := Filter(queryFixture(), Criteria{Text: "mario"})
	assert.Equal(t, []string{"Super Mario World", "MARIO KART"}, names(got))
}

func TestFilterFreeTextMatchesArchiveName(t *testing.T) {
	got := Filter(queryFixture(), Criteria{Text: "usa"})
	assert.Equal(t, []string{"Zelda"}, names(got))
}

func TestFilterPlatformExactMembership(t *testing.T) {
	got := Filter(queryFixture(), Criteria{Platforms: []string{"n64", "FC"}})
	assert.Equal(t, []string{"Zelda", "魂斗罗"}, names(got))

	// Membership is exact, not substring.
	got = Filter(queryFixture(), Criteria{Platforms: []string{"SNE"}})
	assert.Empty(t, got)
}

func TestFilterRegionSubstring(t *testing.T) {
	got := Filter(queryFixture(), Criteria{Region: "euro"})
	assert.Equal(t, []string{"MARIO KART"}, names(got))

	// An absent region never matches a non-empty filter.
	got = Filter(queryFixture(), Criteria{Region: "us"})
	for _, e := range got {
		if e.Region == "" {
			t.Fatalf("entry without region matched: %+v", e)
		}
	}
}

func TestFilterLanguageExactToken(t *testing.T) {
	got := Filter(queryFixture(), Criteria{Language: "en"})
	// "english" must not match the exact token "en".
	assert.Equal(t, []string{"Super Mario World", "Zelda"}, names(got))

	got = Filter(queryFixture(), Criteria{Language: "EN"})
	assert.Equal(t, []string{"Super Mario World", "Zelda"}, names(got))

	got = Filter(queryFixture(), Criteria{Language: "fr"})
	assert.Equal(t, []string{"Super Mario World"}, names(got))
}

func TestFilterConjunctive(t *testing.T) {
	got := Filter(queryFixture(), Criteria{Text: "mario", Platforms: []string{"SNES"}, Language: "en"})
	assert.Equal(t, []string{"Super Mario World"}, names(got))
}

func TestFilterPinyinMatch(t *testing.T) {
	got := Filter(queryFixture(), Criteria{Text: "hundouluo"})
	assert.Equal(t, []string{"魂斗罗"}, names(got))

	got = Filter(queryFixture(), Criteria{Text: "hdl"})
	assert.Equal(t, []string{"魂斗罗"}, names(got))
}

func TestFilterResultCap(t *testing.T) {
	entries := make([]model.GameEntry, 0, 1500)
	for i := 0; i < 1500; i++ {
		entries = append(entries, model.GameEntry{Platform: "SNES", Name: fmt.Sprintf("Game %04d", i)})
	}
	got := Filter(entries, Criteria{Text: "game"})
	if len(got) != MaxResults {
		t.Fatalf("expected %d results, got %d", MaxResults, len(got))
	}
}

func TestFilterEmptyCriteriaMatchesAll(t *testing.T) {
	got := Filter(queryFixture(), Criteria{})
	assert.Equal(t, len(queryFixture()), len(got))
}
