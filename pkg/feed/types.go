package feed

import (
	"encoding/xml"
)

// RSS represents the root RSS 2.0 element
type RSS struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Channel *RSSChannel `xml:"channel"`
}

// RSSChannel represents an RSS channel
type RSSChannel struct {
	XMLName       xml.Name   `xml:"channel"`
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	LastBuildDate string     `xml:"lastBuildDate"`
	Items         []*RSSItem `xml:"item"`
}

// RSSItem represents an item in an RSS feed
type RSSItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link,omitempty"`
	Description string `xml:"description"`
	GUID        string `xml:"guid,omitempty"`
	PubDate     string `xml:"pubDate"`
}

// Output describes one destination file together with its rendering and
// retention settings. Several tasks may carry the same File, they then feed
// one shared destination.
type Output struct {
	File               string
	Days               int
	Items              int
	History            bool
	RSSLink            string
	Encoding           string
	Title              string   // item title template
	Description        string   // item description template
	Link               []string // link field preference order, raw url last
	ChannelTitle       string
	ChannelDescription string
}

// Status is the terminal state of one destination's finalize call
type Status string

// finalize outcomes, a failed write leaves the destination without a status
// so a future process lifetime may retry it
const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
)
