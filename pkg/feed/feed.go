// Package feed parses the Atom documents YouTube's WebSub hub delivers for
// channel video feeds.
package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"time"
)

// ErrUnparseableFeed indicates that a notification body could not be read as
// a YouTube Atom feed, or that none of its entries carried a video ID.
var ErrUnparseableFeed = errors.New("feed: unparseable notification body")

const (
	watchURLFormat   = "https://www.youtube.com/watch?v=%s"
	channelURLFormat = "https://www.youtube.com/channel/%s"

	ytNamespace = "http://www.youtube.com/xml/schemas/2015"
)

// Video identifies a single video referenced by a feed entry.
type Video struct {
	ID    string
	Title string
	Link  string
}

// Channel identifies the channel a feed entry belongs to.
type Channel struct {
	ID   string
	Name string
	Link string
}

// Entry is one video update parsed out of a notification feed.
type Entry struct {
	Video     Video
	Channel   Channel
	Published time.Time
	Updated   time.Time
}

type document struct {
	XMLName xml.Name   `xml:"feed"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	VideoID   string    `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string    `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string    `xml:"title"`
	Links     []xmlLink `xml:"link"`
	Author    xmlAuthor `xml:"author"`
	Published string    `xml:"published"`
	Updated   string    `xml:"updated"`
}

type xmlLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type xmlAuthor struct {
	Name string `xml:"name"`
	URI  string `xml:"uri"`
}

// Parse decodes a notification body into entries.
//
// Entries without a yt:videoId element are skipped. A document that cannot
// be decoded, or whose entries are all skipped, fails with
// ErrUnparseableFeed. A well-formed feed with no entries at all (e.g. a
// deleted-entry notification) parses to an empty slice.
func Parse(data []byte) ([]Entry, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableFeed, err)
	}

	if len(doc.Entries) == 0 {
		return []Entry{}, nil
	}

	entries := make([]Entry, 0, len(doc.Entries))
	for _, raw := range doc.Entries {
		if raw.VideoID == "" {
			continue
		}
		entries = append(entries, raw.toEntry())
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entry carries a video id", ErrUnparseableFeed)
	}
	return entries, nil
}

func (raw xmlEntry) toEntry() Entry {
	videoLink := ""
	for _, l := range raw.Links {
		if l.Rel == "alternate" {
			videoLink = l.Href
			break
		}
	}
	if videoLink == "" {
		videoLink = fmt.Sprintf(watchURLFormat, raw.VideoID)
	}

	channelLink := raw.Author.URI
	if channelLink == "" && raw.ChannelID != "" {
		channelLink = fmt.Sprintf(channelURLFormat, raw.ChannelID)
	}

	return Entry{
		Video: Video{
			ID:    raw.VideoID,
			Title: raw.Title,
			Link:  videoLink,
		},
		Channel: Channel{
			ID:   raw.ChannelID,
			Name: raw.Author.Name,
			Link: channelLink,
		},
		Published: parseTime(raw.Published),
		Updated:   parseTime(raw.Updated),
	}
}

// parseTime reads the RFC 3339 timestamps YouTube emits. Bad timestamps
// degrade to the zero time rather than rejecting the entry.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
