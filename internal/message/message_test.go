package message_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/message"
)

func TestDecode_Invalid(t *testing.T) {
	_, err := message.Decode([]byte("{not json"))
	require.Error(t, err)
}

func TestFromContent_Text(t *testing.T) {
	m, err := message.FromContent(message.TypeWrite, content.NewText("hi"))
	require.NoError(t, err)

	raw, err := m.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"WRITE","kind":"text","text":"hi"}`, string(raw))

	back, err := message.Decode(raw)
	require.NoError(t, err)
	c, err := back.Content()
	require.NoError(t, err)
	assert.Equal(t, content.NewText("hi"), c)
}

func TestFromContent_Files(t *testing.T) {
	m, err := message.FromContent(message.TypeWrite, content.NewFiles("/a", "/b c"))
	require.NoError(t, err)
	c, err := m.Content()
	require.NoError(t, err)
	assert.Equal(t, content.FileList, c.Kind)
	assert.Equal(t, []string{"/a", "/b c"}, c.Files)
}

func TestFromContent_Image(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.NRGBA{B: 255, A: 255})

	m, err := message.FromContent(message.TypeWrite, content.NewImage(img))
	require.NoError(t, err)
	require.Len(t, m.Items, 1)
	assert.Equal(t, content.MIMEPNG, m.Items[0].MIME)

	c, err := m.Content()
	require.NoError(t, err)
	require.Equal(t, content.Image, c.Kind)
	assert.Equal(t, img.Bounds(), c.Image.Bounds())
	want, err := content.CanonicalHash(content.NewImage(img))
	require.NoError(t, err)
	assert.Equal(t, want, content.Hash(c))
}

func TestContent_BadImage(t *testing.T) {
	m := &message.Message{
		Type:  message.TypeWrite,
		Kind:  "image",
		Items: []message.Item{message.NewBinaryItem(content.MIMEPNG, []byte("not a png"))},
	}
	_, err := m.Content()
	require.ErrorIs(t, err, content.ErrUnwritable)
}

func TestContent_UnknownKind(t *testing.T) {
	m := &message.Message{Type: message.TypeWrite, Kind: "spreadsheet"}
	_, err := m.Content()
	require.Error(t, err)
}

func TestFromSnapshot(t *testing.T) {
	c := content.NewText("snap")
	snap := content.Snapshot{Content: c, Hash: content.Hash(c), Size: 4}

	m, err := message.FromSnapshot(message.TypeContent, snap)
	require.NoError(t, err)
	assert.Equal(t, message.TypeContent, m.Type)
	assert.Equal(t, snap.Hash, m.Hash)
	assert.EqualValues(t, 4, m.Size)
	assert.Equal(t, "snap", m.Text)
}

func TestErrorf(t *testing.T) {
	m := message.Errorf("bad %s", "thing")
	assert.Equal(t, message.TypeError, m.Type)
	assert.Equal(t, "bad thing", m.Error)
}
