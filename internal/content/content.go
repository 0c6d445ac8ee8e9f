// Package content defines the clipboard content model shared by the
// clipboard backends, the detectors and the monitor: the raw MIME-typed
// Item exchanged with the platform, the typed Content value, and the hashed
// Snapshot produced by every read.
package content

import (
	"fmt"
	"image"
	"time"
)

// Kind classifies clipboard content.
type Kind int

const (
	Unknown Kind = iota
	Text
	Image
	FileList
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Image:
		return "image"
	case FileList:
		return "files"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts the String form of a Kind back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "text":
		return Text, nil
	case "image":
		return Image, nil
	case "files":
		return FileList, nil
	case "unknown", "":
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("unknown content kind %q", s)
	}
}

// MIME types understood by the classifier.
const (
	MIMEText    = "text/plain"
	MIMEPNG     = "image/png"
	MIMEURIList = "text/uri-list"
)

// Item is a single clipboard representation with a MIME type, as exchanged
// with a platform backend.
type Item struct {
	MIME string
	Data []byte
}

// Content is a typed clipboard value. Only the field matching Kind is set.
type Content struct {
	Kind  Kind
	Text  string
	Image image.Image
	// Files holds absolute paths in clipboard order.
	Files []string
	// Formats lists the MIME types that were available when Kind is Unknown.
	Formats []string
}

// NewText returns text content.
func NewText(s string) Content { return Content{Kind: Text, Text: s} }

// NewImage returns image content.
func NewImage(img image.Image) Content { return Content{Kind: Image, Image: img} }

// NewFiles returns file-list content.
func NewFiles(paths ...string) Content {
	return Content{Kind: FileList, Files: append([]string(nil), paths...)}
}

// Snapshot is a point-in-time reading of the clipboard plus its hash.
type Snapshot struct {
	Content
	Hash       string
	CapturedAt time.Time
	Size       int64
}

// ShortHash returns the first 8 characters of the hash, for logging.
func (s Snapshot) ShortHash() string { return Short(s.Hash) }

// Short truncates a hash to 8 characters for log output.
func Short(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8] + "..."
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s %s (%d bytes)", s.Kind, s.ShortHash(), s.Size)
}
