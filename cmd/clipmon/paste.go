package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmon/internal/clip"
	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/ipc"
	"go.klb.dev/clipmon/internal/logging"
	"go.klb.dev/clipmon/internal/message"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print the clipboard to stdout (like pbpaste)",
		Long: `Writes the current clipboard contents to stdout: text verbatim, file
lists one path per line, images as PNG. Images are not written to a terminal.
Unknown content prints nothing (exit 0).

  clipmon paste > notes.txt
  clipmon paste > screenshot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runPaste(cmd, v) },
	}

	f := cmd.Flags()
	f.Bool("direct", false, "read the clipboard directly even if a daemon is running")
	addBackendFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runPaste(cmd *cobra.Command, v *viper.Viper) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	c, err := pasteContent(ctx, v)
	if err != nil {
		return err
	}
	return writeContent(cmd.OutOrStdout(), c)
}

func pasteContent(ctx context.Context, v *viper.Viper) (content.Content, error) {
	if !v.GetBool("direct") && ipc.IsRunning() {
		resp, err := ipc.Request(ctx, &message.Message{Type: message.TypeRead})
		if err != nil {
			return content.Content{}, fmt.Errorf("paste: %w", err)
		}
		return resp.Content()
	}

	backend, err := openDirectBackend(v.GetString("backend"))
	if err != nil {
		return content.Content{}, err
	}
	port := clip.NewAccessor(backend)
	defer port.Close()
	snap, err := port.Read(ctx)
	if err != nil {
		return content.Content{}, fmt.Errorf("paste: %w", err)
	}
	return snap.Content, nil
}

func writeContent(w io.Writer, c content.Content) error {
	switch c.Kind {
	case content.Text:
		_, err := io.WriteString(w, c.Text)
		return err
	case content.FileList:
		if len(c.Files) == 0 {
			return nil
		}
		_, err := io.WriteString(w, strings.Join(c.Files, "\n")+"\n")
		return err
	case content.Image:
		if logging.IsTTY(w) {
			return errors.New("clipboard holds an image; redirect stdout to a file")
		}
		items, err := content.Encode(c)
		if err != nil {
			return err
		}
		_, err = w.Write(items[0].Data)
		return err
	default:
		// Nothing representable: print nothing, like pbpaste.
		return nil
	}
}
