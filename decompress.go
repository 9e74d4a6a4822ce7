package kirara

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// decompressIfNeeded inflates a response body when it arrives compressed.
//
// A non-empty Content-Encoding header is trusted: gzip and deflate select
// the matching decoder, identity passes through, and anything else passes
// through with a warning. Without the header the first two bytes are
// sniffed: the gzip magic number (0x1f 0x8b) selects gzip, a valid RFC 1950
// zlib header (CM nibble 8 and the two-byte value a multiple of 31) selects
// deflate, and everything else is assumed uncompressed.
//
// A malformed compressed stream surfaces as an error rather than being
// passed through.
func decompressIfNeeded(data []byte, header http.Header, logger zerolog.Logger) ([]byte, error) {
	encoding := header.Get("Content-Encoding")
	if encoding == "" {
		encoding = sniffEncoding(data)
		if encoding == "" {
			return data, nil
		}
	}

	switch encoding = strings.ToLower(encoding); {
	case strings.Contains(encoding, "gzip"):
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("malformed gzip stream: %w", err)
		}
		defer reader.Close()
		return inflate(reader, "gzip")
	case strings.Contains(encoding, "deflate"):
		reader, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("malformed deflate stream: %w", err)
		}
		defer reader.Close()
		return inflate(reader, "deflate")
	case strings.Contains(encoding, "identity"):
		return data, nil
	default:
		logger.Warn().Str("content_encoding", encoding).Msg("unsupported Content-Encoding, passing body through")
		return data, nil
	}
}

// sniffEncoding inspects the first two payload bytes and returns "gzip",
// "deflate" or "" for an unrecognized (assumed uncompressed) payload.
func sniffEncoding(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	if data[0] == 0x1f && data[1] == 0x8b {
		return "gzip"
	}
	// RFC 1950: CM nibble must be 8 (deflate) and CMF*256+FLG must be a
	// multiple of 31.
	cmf, flg := uint32(data[0]), uint32(data[1])
	if cmf&0x0f == 8 && (cmf*256+flg)%31 == 0 {
		return "deflate"
	}
	return ""
}

func inflate(reader io.Reader, format string) ([]byte, error) {
	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("malformed %s stream: %w", format, err)
	}
	return out, nil
}
