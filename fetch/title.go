package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/onnwee/boot/telemetry"
)

// maxTitleBody caps how much of a page we read looking for the <head> metadata.
const maxTitleBody = 512 * 1024

// Platforms that put their site name in <title> and the real page title in
// og:title. YouTube's title arrives via metadata when fetched without JS.
var placeholderTitles = map[string]bool{
	"YouTube": true,
	"Pleroma": true,
}

// Title retrieves url and extracts a human-useful page title, preferring
// og:title where the literal <title> is a known platform placeholder.
// It never returns an error: any network or parse failure is a quiet miss.
func (f *Fetcher) Title(ctx context.Context, url string) (string, bool) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "fetch", "fetch.Title")
	defer span.End()
	defer telemetry.ObserveFetch("title", start)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		telemetry.CountFetchFailure("title", "transport")
		return "", false
	}
	resp, err := f.get(req)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountFetchFailure("title", "transport")
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		telemetry.CountFetchFailure("title", "transport")
		return "", false
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxTitleBody))
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountFetchFailure("title", "transport")
		return "", false
	}

	title, ogTitle := extractTitles(doc)
	if placeholderTitles[title] && ogTitle != "" {
		title = ogTitle
	}
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		telemetry.CountFetchFailure("title", "no_result")
		return "", false
	}
	return title, true
}

// extractTitles walks the document for <title> text and the og:title meta tag.
func extractTitles(doc *html.Node) (title, ogTitle string) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = n.FirstChild.Data
				}
			case "meta":
				var prop, content string
				for _, a := range n.Attr {
					switch a.Key {
					case "property", "name":
						prop = a.Val
					case "content":
						content = a.Val
					}
				}
				if prop == "og:title" && ogTitle == "" {
					ogTitle = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, ogTitle
}
