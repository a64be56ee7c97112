package discord

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Embed sidebar colors
const (
	embedOK    = 0x57F287
	embedAlert = 0xE74C3C
)

// Message is the body accepted by both the webhook endpoint and the
// channel messages endpoint.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type Footer struct {
	Text string `json:"text"`
}

func inline(name, value string) Field {
	return Field{Name: name, Value: value, Inline: true}
}

// RunSummary describes a finished reducer run
type RunSummary struct {
	Matches     int
	Heroes      int
	FilesOK     int
	FilesFailed int
	GameVersion int
	TopPick     string
	TopBan      string
	Runtime     time.Duration
}

// SummaryMessage reports a reducer run. Any failed batch file turns the
// embed red; empty top pick or ban fields are left out.
func SummaryMessage(s RunSummary) Message {
	color := embedOK
	if s.FilesFailed > 0 {
		color = embedAlert
	}

	fields := []Field{
		inline("Matches", humanize.Comma(int64(s.Matches))),
		inline("Heroes", strconv.Itoa(s.Heroes)),
		inline("Files", fmt.Sprintf("%d ok / %d failed", s.FilesOK, s.FilesFailed)),
	}
	if s.TopPick != "" {
		fields = append(fields, inline("Most Picked", s.TopPick))
	}
	if s.TopBan != "" {
		fields = append(fields, inline("Most Banned", s.TopBan))
	}
	fields = append(fields, inline("Runtime", clock(s.Runtime)))

	return Message{Embeds: []Embed{{
		Title:     "📊 Hero Stats Updated",
		Color:     color,
		Fields:    fields,
		Footer:    &Footer{Text: "Game version " + strconv.Itoa(s.GameVersion)},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}}}
}

// KeyRejectedMessage pings the channel after STRATZ refused the API key
func KeyRejectedMessage(batches int, runtime time.Duration) Message {
	return Message{
		Content: "@here STRATZ API key rejected!",
		Embeds: []Embed{{
			Title: "🔑 API Key Rejected",
			Color: embedAlert,
			Fields: []Field{
				inline("Batches Fetched", humanize.Comma(int64(batches))),
				inline("Runtime", clock(runtime)),
			},
			Footer: &Footer{Text: "Post a new key in the key channel or set STRATZ_API_KEY and rerun. Finished batches are kept"},
		}},
	}
}

// clock renders d as "2h 5m" once it passes an hour, "1m 30s" below that.
func clock(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, s := int(d/time.Hour), int(d/time.Minute)%60, int(d/time.Second)%60
	if h == 0 {
		return strconv.Itoa(m) + "m " + strconv.Itoa(s) + "s"
	}
	return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "m"
}
