package delivery

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind selects how updates reach a subscriber.
type Kind string

const (
	KindConnection Kind = "connection"
	KindWebhook    Kind = "webhook"
)

// ErrInvalidClient is returned for an empty or malformed client identifier.
var ErrInvalidClient = errors.New("invalid subscription client")

// Client is one subscriber: either a live connection id or a webhook URL,
// plus the group/channel the updates are addressed to. The kind is decided
// once when the client is built and travels with it as data.
type Client struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id"`
	Group string `json:"group"`
}

// NewClient classifies id as a webhook when it is an absolute http(s) URL and
// as a connection id otherwise.
func NewClient(id, group string) (Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Client{}, ErrInvalidClient
	}
	kind := KindConnection
	if looksLikeURL(id) {
		kind = KindWebhook
	}
	return Client{Kind: kind, ID: id, Group: strings.TrimSpace(group)}, nil
}

// Connection builds a connection client without inspecting id.
func Connection(id, group string) Client {
	return Client{Kind: KindConnection, ID: id, Group: group}
}

// Webhook builds a webhook client without inspecting url.
func Webhook(url, group string) Client {
	return Client{Kind: KindWebhook, ID: url, Group: group}
}

// Key is the stable identity of the client: a hash of (id, group).
func (c Client) Key() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(c.ID+"\x00"+c.Group))
}

// IsWebhook reports whether the client is reached over HTTP.
func (c Client) IsWebhook() bool {
	return c.Kind == KindWebhook
}

func (c Client) String() string {
	return string(c.Kind) + ":" + c.ID + "#" + c.Group
}

// Validate checks the client carries a known kind and a usable id.
func (c Client) Validate() error {
	switch c.Kind {
	case KindConnection:
		if c.ID == "" {
			return ErrInvalidClient
		}
	case KindWebhook:
		if !looksLikeURL(c.ID) {
			return fmt.Errorf("%w: webhook %q is not an http(s) url", ErrInvalidClient, c.ID)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidClient, c.Kind)
	}
	return nil
}

func looksLikeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
