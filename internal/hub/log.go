package hub

import (
	"context"
	"log/slog"

	"go.klb.dev/clipmon/internal/content"
)

const previewLen = 120

// LogSnapshot logs a clipboard snapshot at INFO (kind, size, short hash) and
// DEBUG (text preview up to 120 chars, image dimensions, or file paths).
func LogSnapshot(log *slog.Logger, event string, snap content.Snapshot) {
	if log == nil {
		log = slog.Default()
	}
	log.Info(event, "kind", snap.Kind.String(), "size_bytes", snap.Size, "hash", snap.ShortHash())

	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	switch snap.Kind {
	case content.Text:
		preview := snap.Text
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "…"
		}
		log.Debug("clipboard text", "preview", preview)
	case content.Image:
		if snap.Image != nil {
			b := snap.Image.Bounds()
			log.Debug("clipboard image", "width", b.Dx(), "height", b.Dy())
		}
	case content.FileList:
		for _, f := range snap.Files {
			log.Debug("clipboard file", "path", f)
		}
	default:
		log.Debug("clipboard formats", "types", snap.Formats)
	}
}
