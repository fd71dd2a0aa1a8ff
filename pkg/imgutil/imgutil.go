package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies a supported image container.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindTIFF
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// supportedExts is the allow-list of extensions the converter will pick up.
// Matching is case-insensitive.
var supportedExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".apng": {},
	".tiff": {},
	".tif":  {},
}

// Supported reports whether path carries a convertible image extension.
func Supported(path string) bool {
	_, ok := supportedExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// JPEGFamily reports whether path names a JPEG file by extension. The
// lossless transcode path of cjxl only applies to these.
func JPEGFamily(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// signatures maps magic-byte prefixes to container kinds. TIFF appears twice
// for its little- and big-endian byte orders.
var signatures = []struct {
	prefix []byte
	kind   Kind
}{
	{[]byte{0xff, 0xd8, 0xff}, KindJPEG},
	{[]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}, KindPNG},
	{[]byte{0x49, 0x49, 0x2a, 0x00}, KindTIFF},
	{[]byte{0x4d, 0x4d, 0x00, 0x2a}, KindTIFF},
}

// DetectHeader matches the first 8 bytes of a file against the known
// signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < 8 {
		return KindUnknown, errors.New("header too short")
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig.prefix) {
			return sig.kind, nil
		}
	}
	return KindUnknown, nil
}

// SniffFile determines the container kind of the file at path.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()
	return SniffReader(f)
}

// SniffReader determines the container kind from the first 8 bytes of r.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return KindUnknown, err
	}
	return DetectHeader(header)
}
