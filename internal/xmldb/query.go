package xmldb

import (
	"strings"
	"unicode"

	"github.com/xxxsen/romdex/internal/model"

	"github.com/mozillazg/go-pinyin"
)

// MaxResults bounds one filter pass so result rendering stays cheap.
const MaxResults = 1000

// Criteria describes one filter request. Every field is optional; an empty
// field always matches. All matching is case-insensitive and the criteria
// combine conjunctively.
type Criteria struct {
	// Text is matched as a substring of the game name or archive name. For
	// CJK names an ASCII query additionally matches the name's pinyin or
	// pinyin initials.
	Text string
	// Platforms requires exact membership of the entry's platform.
	Platforms []string
	// Region is matched as a substring of the entry's region.
	Region string
	// Language must equal one comma-separated token of the entry's
	// languages exactly.
	Language string
}

// Filter returns the entries matching the criteria, in index order, capped
// at MaxResults. It is a pure read-only scan.
func Filter(entries []model.GameEntry, c Criteria) []*model.GameEntry {
	text := strings.ToLower(strings.TrimSpace(c.Text))
	region := strings.ToLower(strings.TrimSpace(c.Region))
	language := strings.ToLower(strings.TrimSpace(c.Language))

	var platforms map[string]struct{}
	if len(c.Platforms) > 0 {
		platforms = make(map[string]struct{}, len(c.Platforms))
		for _, p := range c.Platforms {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				platforms[p] = struct{}{}
			}
		}
	}

	var result []*model.GameEntry
	for i := range entries {
		e := &entries[i]
		if text != "" && !matchText(e, text) {
			continue
		}
		if len(platforms) > 0 {
			if _, ok := platforms[strings.ToLower(e.Platform)]; !ok {
				continue
			}
		}
		if region != "" {
			if e.Region == "" || !strings.Contains(strings.ToLower(e.Region), region) {
				continue
			}
		}
		if language != "" && !matchLanguageToken(e.Languages, language) {
			continue
		}
		result = append(result, e)
		if len(result) >= MaxResults {
			break
		}
	}
	return result
}

func matchText(e *model.GameEntry, query string) bool {
	if strings.Contains(strings.ToLower(e.Name), query) {
		return true
	}
	if e.ArchiveName != "" && strings.Contains(strings.ToLower(e.ArchiveName), query) {
		return true
	}
	return matchPinyin(e.Name, query)
}

// matchLanguageToken reports whether the lowered query equals one of the
// comma-separated language tokens. An entry without languages never matches.
func matchLanguageToken(languages string, query string) bool {
	if languages == "" {
		return false
	}
	for _, token := range strings.Split(languages, ",") {
		if strings.ToLower(strings.TrimSpace(token)) == query {
			return true
		}
	}
	return false
}

// matchPinyin matches an all-ASCII query against the pinyin romanization of
// a name containing Han characters, both full syllables and initials.
func matchPinyin(name string, query string) bool {
	if !isASCII(query) || !containsHan(name) {
		return false
	}
	args := pinyin.NewArgs()
	if full := strings.Join(pinyin.LazyPinyin(name, args), ""); full != "" && strings.Contains(full, query) {
		return true
	}
	args.Style = pinyin.FirstLetter
	initials := strings.Join(pinyin.LazyPinyin(name, args), "")
	return initials != "" && strings.Contains(initials, query)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
