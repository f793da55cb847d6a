package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/onnwee/boot/telemetry"
)

const maxLastfmBody = 2 * 1024 * 1024

// lastfmTrack is the top entry scraped from a public recent-tracks list.
type lastfmTrack struct {
	Name       string
	Artist     string
	NowPlaying bool
	// When is the page's own relative-time text ("3 minutes ago"), used
	// verbatim in past-tense replies.
	When string
}

// LastfmRecent scrapes user's public profile for their most recent track and
// formats a single reply line. Returns ErrNoResult when the page has no
// usable track markup.
func (f *Fetcher) LastfmRecent(ctx context.Context, user string) (string, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "fetch", "fetch.LastfmRecent")
	defer span.End()
	defer telemetry.ObserveFetch("lastfm", start)

	u := strings.TrimRight(f.lastfmURL, "/") + "/" + url.PathEscape(user)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.get(req)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountFetchFailure("lastfm", "transport")
		return "", fmt.Errorf("lastfm request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		telemetry.CountFetchFailure("lastfm", "transport")
		return "", fmt.Errorf("lastfm status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxLastfmBody))
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountFetchFailure("lastfm", "transport")
		return "", fmt.Errorf("lastfm parse: %w", err)
	}

	track, ok := scrapeTopTrack(doc)
	if !ok {
		telemetry.CountFetchFailure("lastfm", "no_result")
		return "", ErrNoResult
	}

	if track.NowPlaying {
		return fmt.Sprintf("%s is now playing: %s – %s", user, track.Artist, track.Name), nil
	}
	if track.When != "" {
		return fmt.Sprintf("%s last played: %s – %s (%s)", user, track.Artist, track.Name, track.When), nil
	}
	return fmt.Sprintf("%s last played: %s – %s", user, track.Artist, track.Name), nil
}

// scrapeTopTrack finds the first chartlist row and pulls the track name,
// artist, scrobbling-now flag, and relative timestamp out of it.
func scrapeTopTrack(doc *html.Node) (lastfmTrack, bool) {
	row := findByClass(doc, "chartlist-row")
	if row == nil {
		return lastfmTrack{}, false
	}
	var track lastfmTrack
	track.NowPlaying = strings.Contains(attrVal(row, "class"), "now-scrobbling") ||
		findByClass(row, "now-playing") != nil

	if cell := findByClass(row, "chartlist-name"); cell != nil {
		track.Name = collapseText(cell)
	}
	if cell := findByClass(row, "chartlist-artist"); cell != nil {
		track.Artist = collapseText(cell)
	}
	if cell := findByClass(row, "chartlist-timestamp"); cell != nil {
		track.When = collapseText(cell)
	}
	if track.Name == "" {
		return lastfmTrack{}, false
	}
	return track, true
}

// findByClass returns the first element whose class attribute contains name.
func findByClass(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode {
		for _, f := range strings.Fields(attrVal(n, "class")) {
			if f == name || strings.HasPrefix(f, name+"--") {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, name); found != nil {
			return found
		}
	}
	return nil
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collapseText joins all text beneath n with single spaces.
func collapseText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
