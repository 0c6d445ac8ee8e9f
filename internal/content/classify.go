package content

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
)

// Classify turns the raw items read from a backend into a typed, hashed
// snapshot. Priority is text > image > file list > unknown; the first
// matching representation wins. Image items that fail to decode are skipped
// rather than failing the read.
func Classify(items []Item, now time.Time) Snapshot {
	c := classify(items)
	return Snapshot{
		Content:    c,
		Hash:       Hash(c),
		CapturedAt: now,
		Size:       SizeOf(c),
	}
}

// Fallback returns the snapshot used when the clipboard could not be
// classified at all. Its hash is unique per call.
func Fallback(now time.Time) Snapshot {
	return Snapshot{
		Content:    Content{Kind: Unknown},
		Hash:       HashFallback(),
		CapturedAt: now,
	}
}

func classify(items []Item) Content {
	for _, it := range items {
		if isText(it.MIME) {
			return NewText(string(it.Data))
		}
	}
	for _, it := range items {
		if !strings.HasPrefix(strings.ToLower(it.MIME), "image/") {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(it.Data))
		if err == nil {
			return NewImage(img)
		}
	}
	for _, it := range items {
		if !strings.HasPrefix(it.MIME, MIMEURIList) {
			continue
		}
		if files := parseURIList(it.Data); len(files) > 0 {
			return Content{Kind: FileList, Files: files}
		}
	}
	formats := make([]string, 0, len(items))
	for _, it := range items {
		formats = append(formats, it.MIME)
	}
	if len(formats) == 0 {
		formats = nil
	}
	return Content{Kind: Unknown, Formats: formats}
}

func isText(mime string) bool {
	m := strings.ToLower(mime)
	return m == MIMEText || strings.HasPrefix(m, MIMEText+";")
}

// parseURIList extracts local paths from a text/uri-list payload. Comment
// lines and non-file URIs are ignored.
func parseURIList(data []byte) []string {
	var files []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			continue
		}
		files = append(files, filepath.FromSlash(u.Path))
	}
	return files
}

// Encode converts c into the items a backend writes.
func Encode(c Content) ([]Item, error) {
	switch c.Kind {
	case Text:
		return []Item{{MIME: MIMEText, Data: []byte(c.Text)}}, nil
	case Image:
		if c.Image == nil {
			return nil, fmt.Errorf("nil image: %w", ErrUnwritable)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, c.Image); err != nil {
			return nil, fmt.Errorf("png encode: %w", err)
		}
		return []Item{{MIME: MIMEPNG, Data: buf.Bytes()}}, nil
	case FileList:
		if len(c.Files) == 0 {
			return nil, fmt.Errorf("empty file list: %w", ErrUnwritable)
		}
		var sb strings.Builder
		for _, p := range c.Files {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, fmt.Errorf("file path %q: %w", p, err)
			}
			u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
			sb.WriteString(u.String())
			sb.WriteString("\r\n")
		}
		return []Item{{MIME: MIMEURIList, Data: []byte(sb.String())}}, nil
	default:
		return nil, fmt.Errorf("%s content: %w", c.Kind, ErrUnwritable)
	}
}

// CanonicalHash returns the hash a read would produce right after c is
// written. Images are hashed after a PNG round trip because decoding may
// change their in-memory pixel format.
func CanonicalHash(c Content) (string, error) {
	if c.Kind != Image {
		if c.Kind == Unknown {
			return "", fmt.Errorf("%s content: %w", c.Kind, ErrUnwritable)
		}
		return Hash(c), nil
	}
	items, err := Encode(c)
	if err != nil {
		return "", err
	}
	return Classify(items, time.Time{}).Hash, nil
}
