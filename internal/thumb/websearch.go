package thumb

import (
	"fmt"
	"net/url"
)

// SearchLink is a prebuilt web search URL for a game name, rendered by the
// UI layer next to the detail view.
type SearchLink struct {
	Engine string `json:"engine"`
	URL    string `json:"url"`
}

var searchEngines = []struct {
	name   string
	format string
}{
	{"google", "https://www.google.com/search?q=%s"},
	{"bing", "https://www.bing.com/search?q=%s"},
	{"baidu", "https://www.baidu.com/s?wd=%s"},
}

// SearchLinks builds search URLs for a game on the supported engines.
func SearchLinks(gameName string) []SearchLink {
	query := url.QueryEscape(gameName)
	links := make([]SearchLink, 0, len(searchEngines))
	for _, engine := range searchEngines {
		links = append(links, SearchLink{
			Engine: engine.name,
			URL:    fmt.Sprintf(engine.format, query),
		})
	}
	return links
}
