package xmldb

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/xxxsen/romdex/internal/model"
)

// Parser reads xmldb files. Each file lists the games of one platform as
// repeated <game> elements, optionally nesting <archive> and <details>
// children that carry variant-level attributes.
type Parser struct{}

// NewParser builds a fresh xmldb parser.
func NewParser() Parser {
	return Parser{}
}

// ParseFile opens and parses an xmldb file, inferring the platform from the
// file name.
func (p Parser) ParseFile(path string) ([]model.GameEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xmldb %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, InferPlatform(path), path)
}

// gameHolders collects the attribute values observed at the three structural
// levels of a single <game> element. Merging happens once on element exit.
type gameHolders struct {
	idx          int
	gameName     string
	gameRegion   string
	gameLangs    string
	archName     string
	archRegion   string
	archLangs    string
	detailRegion string
	detailSeen   bool
}

// Parse consumes one xmldb document from the reader. Attribute precedence is
// archive > game > details for region, archive > game for languages. The
// positional index advances for every top-level <game> element, named or
// not, so the fragment extractor counts the same way.
func (p Parser) Parse(r io.Reader, platform string, filePath string) ([]model.GameEntry, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false // some sources reference a DTD; relax strict parsing.

	var (
		results []model.GameEntry
		cur     gameHolders
		inGame  bool
		depth   int
		gameIdx int
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xmldb %s: %w", filePath, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case !inGame && t.Name.Local == "game":
				inGame = true
				depth = 1
				cur = gameHolders{idx: gameIdx}
				gameIdx++
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "name":
						cur.gameName = a.Value
					case "region":
						cur.gameRegion = a.Value
					case "languages":
						cur.gameLangs = a.Value
					}
				}
			case inGame:
				depth++
				switch t.Name.Local {
				case "archive":
					// Last archive wins; attributes missing from a later
					// archive keep the earlier sibling's values.
					for _, a := range t.Attr {
						switch a.Name.Local {
						case "name":
							cur.archName = a.Value
						case "region":
							cur.archRegion = a.Value
						case "languages":
							cur.archLangs = a.Value
						}
					}
				case "details":
					// Lowest precedence, only the first details element is
					// honored and only while no other region source exists.
					if !cur.detailSeen && cur.archRegion == "" && cur.gameRegion == "" {
						for _, a := range t.Attr {
							if a.Name.Local == "region" {
								cur.detailRegion = a.Value
								cur.detailSeen = true
							}
						}
					}
				}
			}
		case xml.EndElement:
			if !inGame {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			inGame = false
			if cur.gameName == "" {
				continue
			}
			results = append(results, model.GameEntry{
				Platform:    platform,
				Name:        cur.gameName,
				ArchiveName: cur.archName,
				Region:      firstOf(cur.archRegion, cur.gameRegion, cur.detailRegion),
				Languages:   firstOf(cur.archLangs, cur.gameLangs),
				FilePath:    filePath,
				GameIdx:     cur.idx,
			})
		}
	}

	return results, nil
}

// firstOf returns the first non-empty value, making the precedence chain a
// single reviewable expression.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
