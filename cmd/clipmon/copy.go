package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmon/internal/clip"
	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/ipc"
	"go.klb.dev/clipmon/internal/message"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin to the clipboard (like pbcopy)",
		Long: `Reads stdin and puts it on the clipboard.

If a clipmon daemon is running the write goes through it, so its listeners
are not told about content they caused. Otherwise the clipboard is written
directly.

  clipmon copy < notes.txt
  ls *.go | clipmon copy --files
  clipmon copy --image < screenshot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runCopy(cmd, v) },
	}

	f := cmd.Flags()
	f.Bool("files", false, "treat stdin as newline-separated file paths")
	f.Bool("image", false, "treat stdin as an encoded image (PNG, JPEG, GIF, BMP, TIFF)")
	f.Bool("direct", false, "write to the clipboard directly even if a daemon is running")
	addBackendFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runCopy(cmd *cobra.Command, v *viper.Viper) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	c, err := stdinContent(data, v.GetBool("files"), v.GetBool("image"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	// Try local daemon first
	if !v.GetBool("direct") && ipc.IsRunning() {
		req, err := message.FromContent(message.TypeWrite, c)
		if err != nil {
			return err
		}
		_, err = ipc.Request(ctx, req)
		if err == nil {
			return nil
		}
		slog.Warn("ipc copy failed, writing directly", "err", err)
	}

	backend, err := openDirectBackend(v.GetString("backend"))
	if err != nil {
		return err
	}
	port := clip.NewAccessor(backend)
	defer port.Close()
	return port.Write(ctx, c)
}

func stdinContent(data []byte, files, img bool) (content.Content, error) {
	switch {
	case files && img:
		return content.Content{}, fmt.Errorf("--files and --image are mutually exclusive")
	case files:
		paths, err := splitPaths(data)
		if err != nil {
			return content.Content{}, err
		}
		return content.NewFiles(paths...), nil
	case img:
		snap := content.Classify([]content.Item{{MIME: content.MIMEPNG, Data: data}}, time.Now())
		if snap.Kind != content.Image {
			return content.Content{}, fmt.Errorf("stdin is not a decodable image")
		}
		return snap.Content, nil
	default:
		return content.NewText(string(data)), nil
	}
}
