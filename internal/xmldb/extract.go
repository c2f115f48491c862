package xmldb

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// ExtractGameXML re-serializes the <game> subtree at the given positional
// index of the file, including nested elements, text and comments. The count
// covers every top-level <game> element, matching the parser's index
// assignment. If the index is beyond the file's game count the result is an
// empty string, not an error; callers should render a placeholder.
//
// The file is re-walked from the beginning on every call. Extraction is rare
// and on demand, so no offset cache is kept.
func ExtractGameXML(path string, targetIdx int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open xmldb %s: %w", path, err)
	}
	defer f.Close()
	return extractGame(f, path, targetIdx)
}

func extractGame(r io.Reader, filePath string, targetIdx int) (string, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	var buf bytes.Buffer
	encoder := xml.NewEncoder(&buf)

	var (
		idx       int
		depth     int
		capturing bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract from xmldb %s: %w", filePath, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
				if capturing {
					if err := encoder.EncodeToken(t); err != nil {
						return "", fmt.Errorf("copy token: %w", err)
					}
				}
				continue
			}
			if t.Name.Local != "game" {
				continue
			}
			depth = 1
			if idx == targetIdx {
				capturing = true
				if err := encoder.EncodeToken(t); err != nil {
					return "", fmt.Errorf("copy token: %w", err)
				}
			} else {
				idx++
			}
		case xml.EndElement:
			if depth == 0 {
				continue
			}
			if capturing {
				if err := encoder.EncodeToken(t); err != nil {
					return "", fmt.Errorf("copy token: %w", err)
				}
			}
			depth--
			if depth == 0 && capturing {
				if err := encoder.Flush(); err != nil {
					return "", fmt.Errorf("flush fragment: %w", err)
				}
				return buf.String(), nil
			}
		case xml.CharData:
			if capturing {
				if err := encoder.EncodeToken(t); err != nil {
					return "", fmt.Errorf("copy token: %w", err)
				}
			}
		case xml.Comment:
			if capturing {
				if err := encoder.EncodeToken(t); err != nil {
					return "", fmt.Errorf("copy token: %w", err)
				}
			}
		}
	}

	// Target index beyond the file's game count.
	return "", nil
}
