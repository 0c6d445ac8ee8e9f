package content

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
)

// maxImageSamples bounds how many pixels contribute to an image hash.
const maxImageSamples = 1000

// fallbackSeq feeds HashFallback. It only ever grows.
var fallbackSeq atomic.Uint64

// HashBytes returns the lower-case hex SHA-256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashText hashes the UTF-8 bytes of s verbatim.
func HashText(s string) string { return HashBytes([]byte(s)) }

// HashImage hashes an image by its dimensions, pixel-format tag and up to
// 1000 uniformly strided pixels. A nil image hashes like empty input.
func HashImage(img image.Image) string {
	if img == nil {
		return HashBytes(nil)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	d := sha256.New()
	writeUint32(d, uint32(w))
	writeUint32(d, uint32(h))
	writeUint32(d, pixelFormat(img))

	total := w * h
	if total > 0 {
		n := min(maxImageSamples, total)
		step := max(1, total/n)
		for i, taken := 0, 0; i < total && taken < n; i, taken = i+step, taken+1 {
			x := b.Min.X + i%w
			y := b.Min.Y + i/w
			writeUint32(d, argb(img.At(x, y)))
		}
	}
	return hex.EncodeToString(d.Sum(nil))
}

// HashFiles hashes a file list by absolute path, modification time and
// length, without reading file contents. Paths that cannot be stat'ed
// contribute a zero time and length.
func HashFiles(paths []string) string {
	var sb strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		var mtime, size int64
		if fi, err := os.Stat(abs); err == nil {
			mtime = fi.ModTime().UnixMilli()
			size = fi.Size()
		}
		sb.WriteString(abs)
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatInt(mtime, 10))
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatInt(size, 10))
		sb.WriteByte('\n')
	}
	return HashText(sb.String())
}

// HashFormats hashes the sorted list of available format identifiers.
// An empty list hashes like empty input.
func HashFormats(formats []string) string {
	if len(formats) == 0 {
		return HashBytes(nil)
	}
	sorted := slices.Clone(formats)
	slices.Sort(sorted)
	return HashText(strings.Join(sorted, "\n"))
}

// HashFallback returns a hash that differs on every call. It is used when
// the clipboard could not even be classified, so repeated failures are never
// mistaken for unchanged content.
func HashFallback() string {
	return HashText("fallback:" + strconv.FormatUint(fallbackSeq.Add(1), 10))
}

// Hash computes the canonical hash of c.
func Hash(c Content) string {
	switch c.Kind {
	case Text:
		return HashText(c.Text)
	case Image:
		return HashImage(c.Image)
	case FileList:
		return HashFiles(c.Files)
	default:
		return HashFormats(c.Formats)
	}
}

// SizeOf estimates the size of c in bytes.
func SizeOf(c Content) int64 {
	switch c.Kind {
	case Text:
		return int64(len(c.Text))
	case Image:
		if c.Image == nil {
			return 0
		}
		b := c.Image.Bounds()
		return int64(b.Dx()) * int64(b.Dy()) * 4
	case FileList:
		var total int64
		for _, p := range c.Files {
			if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
				total += fi.Size()
			}
		}
		return total
	default:
		return 0
	}
}

func writeUint32(h hash.Hash, v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	h.Write(buf[:])
}

func argb(c color.Color) uint32 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return uint32(n.A)<<24 | uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B)
}

// pixelFormat tags the concrete in-memory layout of img so that two images
// with identical samples but different storage hash differently.
func pixelFormat(img image.Image) uint32 {
	switch img.(type) {
	case *image.RGBA:
		return 1
	case *image.NRGBA:
		return 2
	case *image.RGBA64:
		return 3
	case *image.NRGBA64:
		return 4
	case *image.Gray:
		return 5
	case *image.Gray16:
		return 6
	case *image.Paletted:
		return 7
	case *image.YCbCr:
		return 8
	case *image.NYCbCrA:
		return 9
	case *image.CMYK:
		return 10
	case *image.Alpha:
		return 11
	case *image.Alpha16:
		return 12
	default:
		return 0
	}
}
