package main

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.klb.dev/clipmon/internal/clip"
)

// envKeyReplacer maps flag names like notify-on-start to CLIPMON_NOTIFY_ON_START.
var envKeyReplacer = strings.NewReplacer("-", "_")

// openBackend returns the clipboard backend selected by --backend.
func openBackend(name string) (clip.Backend, error) {
	switch name {
	case "", "system":
		return clip.New(), nil
	case "memory":
		return clip.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want system or memory)", name)
	}
}

// openDirectBackend is openBackend for one-shot commands, which would lose
// an in-process clipboard as soon as they exit.
func openDirectBackend(name string) (clip.Backend, error) {
	if name == "memory" {
		return nil, fmt.Errorf("the memory backend only lives inside a running clipmon watch; start one or use --backend system")
	}
	return openBackend(name)
}

// splitPaths turns newline-separated stdin into absolute paths, skipping
// blank lines.
func splitPaths(data []byte) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		abs, err := filepath.Abs(line)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", line, err)
		}
		paths = append(paths, abs)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

func fmtAge(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
