// Package message defines the clipmon IPC protocol.
//
// All messages are newline-delimited JSON, one request and one response per
// connection. Binary payloads (images) travel as base64-encoded items so
// they are safe to embed in JSON strings.
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.klb.dev/clipmon/internal/content"
)

// Type identifies the kind of message.
type Type string

const (
	// Requests.
	TypeWrite  Type = "WRITE"
	TypeRead   Type = "READ"
	TypeStatus Type = "STATUS"

	// Responses.
	TypeContent        Type = "CONTENT"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeOK             Type = "OK"
	TypeError          Type = "ERROR"

	// TypeChange is emitted by clipmon watch --events for every notification.
	TypeChange Type = "CHANGE"
)

// Item is a single clipboard representation with a MIME type.
// Data is always base64-encoded.
type Item struct {
	MIME string `json:"mime"`
	Data string `json:"data"` // base64-encoded
}

// NewBinaryItem creates an Item from raw bytes with the given MIME type.
func NewBinaryItem(mime string, data []byte) Item {
	return Item{
		MIME: mime,
		Data: base64.StdEncoding.EncodeToString(data),
	}
}

// Decode returns the raw bytes of the item payload.
func (it Item) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(it.Data)
}

// StatusInfo is the body of a STATUS_RESPONSE.
type StatusInfo struct {
	Running          bool          `json:"running"`
	Detector         string        `json:"detector"`
	Backend          string        `json:"backend,omitempty"`
	LastNotifiedHash string        `json:"last_notified_hash,omitempty"`
	Pending          bool          `json:"pending"`
	OwnEntries       int           `json:"own_entries"`
	Listeners        int           `json:"listeners"`
	Notifications    int64         `json:"notifications"`
	Errors           int64         `json:"errors"`
	Uptime           time.Duration `json:"uptime"`
	PID              int           `json:"pid"`
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type Type `json:"type"`

	// WRITE, CONTENT, CHANGE: the clipboard content. Text and Files carry
	// their kinds directly; images travel as a single PNG item.
	Kind  string   `json:"kind,omitempty"`
	Text  string   `json:"text,omitempty"`
	Files []string `json:"files,omitempty"`
	Items []Item   `json:"items,omitempty"`

	// CONTENT, CHANGE, OK
	Hash string `json:"hash,omitempty"`
	Size int64  `json:"size,omitempty"`

	// STATUS_RESPONSE
	Status *StatusInfo `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// Errorf builds an ERROR response.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}

// FromContent builds a message of type t carrying c.
func FromContent(t Type, c content.Content) (*Message, error) {
	m := &Message{Type: t, Kind: c.Kind.String()}
	switch c.Kind {
	case content.Text:
		m.Text = c.Text
	case content.FileList:
		m.Files = c.Files
	case content.Image:
		items, err := content.Encode(c)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			m.Items = append(m.Items, NewBinaryItem(it.MIME, it.Data))
		}
	}
	return m, nil
}

// FromSnapshot builds a CONTENT or CHANGE message for snap.
func FromSnapshot(t Type, snap content.Snapshot) (*Message, error) {
	m, err := FromContent(t, snap.Content)
	if err != nil {
		return nil, err
	}
	m.Hash = snap.Hash
	m.Size = snap.Size
	return m, nil
}

// Content reconstructs the clipboard content carried by the message.
func (m *Message) Content() (content.Content, error) {
	kind, err := content.ParseKind(m.Kind)
	if err != nil {
		return content.Content{}, err
	}
	switch kind {
	case content.Text:
		return content.NewText(m.Text), nil
	case content.FileList:
		return content.NewFiles(m.Files...), nil
	case content.Image:
		items := make([]content.Item, 0, len(m.Items))
		for _, it := range m.Items {
			b, err := it.Decode()
			if err != nil {
				return content.Content{}, fmt.Errorf("item %s: %w", it.MIME, err)
			}
			items = append(items, content.Item{MIME: it.MIME, Data: b})
		}
		snap := content.Classify(items, time.Now())
		if snap.Kind != content.Image {
			return content.Content{}, fmt.Errorf("image message carries no decodable image: %w", content.ErrUnwritable)
		}
		return snap.Content, nil
	default:
		return content.Content{Kind: content.Unknown}, nil
	}
}
