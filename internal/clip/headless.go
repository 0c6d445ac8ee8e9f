package clip

import "go.klb.dev/clipmon/internal/content"

// headlessBackend is a no-op clipboard backend for environments without a
// display server (headless Linux servers, containers, etc.).
// It always reads empty and silently discards writes.
type headlessBackend struct{}

func (b *headlessBackend) Name() string                  { return "headless (no-op)" }
func (b *headlessBackend) Read() ([]content.Item, error) { return nil, nil }
func (b *headlessBackend) Write(_ []content.Item) error  { return nil }
func (b *headlessBackend) Close()                        {}
