package discord

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	json "github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	discordAPI   = "https://discord.com/api/v10"
	pollEvery    = 10 * time.Second
	recentWindow = 5 // messages read per poll
)

// STRATZ keys are JWTs: three base64url segments, the first always "eyJ"
var apiKeyPattern = regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)

// ChannelMessage is the subset of a Discord channel message the finder reads
type ChannelMessage struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Author    struct {
		Username string `json:"username"`
	} `json:"author"`
}

// postedSince reports whether m is not older than t. An unparseable
// timestamp counts as recent.
func (m ChannelMessage) postedSince(t time.Time) bool {
	ts, err := time.Parse(time.RFC3339, m.Timestamp)
	return err != nil || !ts.Before(t)
}

// KeyFinder watches a Discord channel, as a bot, for a replacement STRATZ
// key and can post embeds into the same channel.
type KeyFinder struct {
	token    string
	channel  string
	apiBase  string
	interval time.Duration
	client   *http.Client
	log      logrus.FieldLogger
}

type KeyFinderOption func(*KeyFinder)

// WithAPIBase points the finder at another Discord API root
func WithAPIBase(url string) KeyFinderOption {
	return func(f *KeyFinder) { f.apiBase = url }
}

// WithInterval sets how often WaitForKey polls
func WithInterval(d time.Duration) KeyFinderOption {
	return func(f *KeyFinder) { f.interval = d }
}

func WithLogger(log logrus.FieldLogger) KeyFinderOption {
	return func(f *KeyFinder) { f.log = log }
}

func NewKeyFinder(botToken, channelID string, opts ...KeyFinderOption) *KeyFinder {
	f := &KeyFinder{
		token:    botToken,
		channel:  channelID,
		apiBase:  discordAPI,
		interval: pollEvery,
		client:   &http.Client{Timeout: requestTimeout},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParseAPIKey returns the first STRATZ key found in content
func ParseAPIKey(content string) (string, bool) {
	key := apiKeyPattern.FindString(content)
	return key, key != ""
}

// PollForKey reads the channel once and returns the newest key posted at or
// after since. It returns "" with a nil error when there is none.
func (f *KeyFinder) PollForKey(ctx context.Context, since time.Time) (string, error) {
	recent, err := f.recentMessages(ctx)
	if err != nil {
		return "", err
	}
	f.log.Debugf("[KeyFinder] Read %d messages", len(recent))

	// newest first
	msg, ok := lo.Find(recent, func(m ChannelMessage) bool {
		return m.postedSince(since) && apiKeyPattern.MatchString(m.Content)
	})
	if !ok {
		return "", nil
	}
	f.log.Infof("[KeyFinder] Found key in message from %s", msg.Author.Username)
	key, _ := ParseAPIKey(msg.Content)
	return key, nil
}

// WaitForKey polls every interval until a key shows up or ctx ends. Poll
// errors are logged and the next tick tries again.
func (f *KeyFinder) WaitForKey(ctx context.Context, since time.Time) (string, error) {
	f.log.Infof("[KeyFinder] Watching channel %s for a new API key every %v", f.channel, f.interval)

	tick := time.NewTicker(f.interval)
	defer tick.Stop()

	for {
		key, err := f.PollForKey(ctx, since)
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case err != nil:
			f.log.Warnf("[KeyFinder] Poll failed: %v", err)
		case key != "":
			return key, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-tick.C:
		}
	}
}

// Post sends msg to the channel as the bot
func (f *KeyFinder) Post(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding channel message: %w", err)
	}

	resp, err := do(ctx, f.client, func() (*http.Request, error) {
		req, err := jsonRequest(ctx, http.MethodPost, f.messagesURL(), body)
		if err == nil {
			req.Header.Set("Authorization", "Bot "+f.token)
		}
		return req, err
	})
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return unexpectedStatus(resp)
	}
	return nil
}

func (f *KeyFinder) messagesURL() string {
	return f.apiBase + "/channels/" + f.channel + "/messages"
}

func (f *KeyFinder) recentMessages(ctx context.Context) ([]ChannelMessage, error) {
	url := fmt.Sprintf("%s?limit=%d", f.messagesURL(), recentWindow)

	resp, err := do(ctx, f.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err == nil {
			req.Header.Set("Authorization", "Bot "+f.token)
		}
		return req, err
	})
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus(resp)
	}

	var msgs []ChannelMessage
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("decoding channel messages: %w", err)
	}
	return msgs, nil
}
