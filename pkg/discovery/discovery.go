// Package discovery resolves the hub and canonical topic URL a feed
// advertises, per the WebSub discovery mechanism. YouTube feeds have a
// well-known hub, so this matters mostly for subscribing to other
// publishers' feeds.
package discovery

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/peterhellberg/link"
	"golang.org/x/net/html"
)

// ErrNoEndpoints is returned when a target advertises no hub to subscribe at.
var ErrNoEndpoints = errors.New("discovery: target advertises no hub")

// Endpoints is what a feed advertises for WebSub: where to subscribe, and
// the canonical topic URL to subscribe to.
type Endpoints struct {
	Hubs  []string // hub endpoints, in document order
	Topic string   // canonical (self) topic URL; the fetched URL if none given
}

// Discover fetches feedURL and extracts its hub and self links, preferring
// Link response headers over the body. Bodies are parsed as Atom/RSS, or as
// HTML for targets that advertise feed endpoints on their pages. A nil
// client falls back to http.DefaultClient.
func Discover(ctx context.Context, client *http.Client, feedURL string) (*Endpoints, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery: target answered status %d", resp.StatusCode)
	}

	// If the header contains links, the body never needs parsing.
	if eps := fromHeader(resp.Header); len(eps.Hubs) > 0 {
		return finish(eps, feedURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		eps, err := fromHTML(resp.Body)
		if err != nil {
			return nil, err
		}
		return finish(eps, feedURL)
	}

	// Anything else is treated as a feed document.
	eps, err := fromXML(resp.Body)
	if err != nil {
		return nil, err
	}
	return finish(eps, feedURL)
}

// finish applies the topic fallback and the no-hub failure mode.
func finish(eps *Endpoints, feedURL string) (*Endpoints, error) {
	if len(eps.Hubs) == 0 {
		return nil, ErrNoEndpoints
	}
	if eps.Topic == "" {
		eps.Topic = feedURL
	}
	return eps, nil
}

// fromHeader reads hub and self relations out of Link headers.
func fromHeader(header http.Header) *Endpoints {
	eps := &Endpoints{}
	for _, l := range link.ParseHeader(header) {
		switch l.Rel {
		case "hub":
			eps.Hubs = append(eps.Hubs, l.URI)
		case "self":
			eps.Topic = l.URI
		}
	}
	return eps
}

type xmlDocument struct {
	XMLName xml.Name
	Links   []xmlLink   `xml:"link"`
	Channel *xmlChannel `xml:"channel"`
}

type xmlChannel struct {
	Links []xmlLink `xml:"link"`
}

type xmlLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// fromXML reads link elements from an Atom feed, or from the channel of an
// RSS feed carrying atom:link elements.
func fromXML(body io.Reader) (*Endpoints, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("discovery: parsing feed document: %w", err)
	}

	links := doc.Links
	if doc.Channel != nil {
		links = append(links, doc.Channel.Links...)
	}

	eps := &Endpoints{}
	for _, l := range links {
		switch l.Rel {
		case "hub":
			if l.Href != "" {
				eps.Hubs = append(eps.Hubs, l.Href)
			}
		case "self":
			eps.Topic = l.Href
		}
	}
	return eps, nil
}

// fromHTML scans an HTML page for link elements advertising feed endpoints.
func fromHTML(body io.Reader) (*Endpoints, error) {
	tokenizer := html.NewTokenizer(body)

	eps := &Endpoints{}
	for {
		switch tokenizer.Next() {
		case html.StartTagToken, html.SelfClosingTagToken:
			t := tokenizer.Token()
			if t.Data != "link" {
				continue
			}

			var rel, href string
			for _, a := range t.Attr {
				switch a.Key {
				case "rel":
					rel = a.Val
				case "href":
					href = a.Val
				}
			}
			if href == "" {
				continue
			}
			// rel is an unordered set of space-separated tokens
			for _, token := range strings.Fields(rel) {
				switch token {
				case "hub":
					eps.Hubs = append(eps.Hubs, href)
				case "self":
					eps.Topic = href
				}
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return eps, nil
			}

		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, fmt.Errorf("discovery: parsing html: %w", err)
			}
			return eps, nil
		}
	}
}
