package surface

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/models"
)

// InvalidCover replaces cover and background references when covers are disabled.
const InvalidCover = "/__invalid__/cover.png"

// Converter turns a TTML lyric file into the surface's native lyric and translation files.
type Converter interface {
	ConvertTTML(ctx context.Context, path string) (lyricPath, transPath string, err error)
}

// FrameOptions are the display options encoded into a content reference.
type FrameOptions struct {
	FramePath     string
	Style         string
	DisableCovers bool
}

// FrameBuilder builds content references for tracks.
type FrameBuilder struct {
	opts      FrameOptions
	converter Converter
	origin    string
}

// NewFrameBuilder creates a builder. origin is the base used to rewrite loopback media URLs and may be empty.
func NewFrameBuilder(opts FrameOptions, converter Converter, origin string) *FrameBuilder {
	if opts.FramePath == "" {
		opts.FramePath = "/lyrics-animate"
	}
	if opts.Style == "" {
		opts.Style = "Kok"
	}
	return &FrameBuilder{opts: opts, converter: converter, origin: strings.TrimRight(origin, "/")}
}

// SetDisableCovers toggles cover suppression for subsequently built references.
func (b *FrameBuilder) SetDisableCovers(disable bool) {
	b.opts.DisableCovers = disable
}

// Build returns the content reference for t. TTML lyrics are converted first; a failed conversion fails the build.
func (b *FrameBuilder) Build(ctx context.Context, t models.Track) (string, error) {
	if t.ID == "" {
		return "", fmt.Errorf("track has no id")
	}

	params := url.Values{}
	params.Set("file", t.ID)
	params.Set("style", b.opts.Style)

	cover, background := InvalidCover, InvalidCover
	if !b.opts.DisableCovers {
		cover = ResolveMediaURL(t.Cover, b.origin)
		background = ResolveMediaURL(t.Background, b.origin)
	}
	if cover != "" {
		params.Set("cover", cover)
	}
	if background != "" {
		params.Set("background", background)
	}

	if main := t.LyricsSource(); strings.HasSuffix(strings.ToLower(main), ".ttml") {
		if b.converter == nil {
			return "", fmt.Errorf("no converter for TTML lyrics %s", main)
		}
		lyric, trans, err := b.converter.ConvertTTML(ctx, SongRelativePath(main))
		if err != nil {
			return "", fmt.Errorf("failed to convert TTML lyrics: %w", err)
		}
		params.Set("lys", lyric)
		if trans != "" {
			params.Set("lrc", trans)
		}
	}

	return b.opts.FramePath + "?" + params.Encode(), nil
}

// SongRelativePath strips an URL origin and a leading songs/ directory and percent-decodes the rest.
func SongRelativePath(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	p = strings.TrimPrefix(p, "/")
	if len(p) >= len("songs/") && strings.EqualFold(p[:len("songs/")], "songs/") {
		p = p[len("songs/"):]
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		return decoded
	}
	return p
}

// ResolveMediaURL normalizes a cover, background or audio reference.
//
// Remote http URLs are kept. Loopback URLs are rebased onto origin. Relative paths become root-relative.
// Path segments are re-encoded.
func ResolveMediaURL(value, origin string) string {
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://127.0.0.1") || strings.HasPrefix(value, "http://localhost") {
		u, err := url.Parse(value)
		if err != nil {
			return value
		}
		out := origin + EncodePath(u.Path)
		if u.RawQuery != "" {
			out += "?" + u.RawQuery
		}
		return out
	}
	switch {
	case strings.HasPrefix(value, "http"):
		return value
	case strings.HasPrefix(value, "/"):
		return EncodePath(value)
	case strings.HasPrefix(value, "./"):
		return EncodePath(value[1:])
	default:
		return EncodePath("/" + value)
	}
}

// EncodePath percent-encodes each segment, decoding it first so already-encoded input is not double encoded.
func EncodePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if decoded, err := url.PathUnescape(seg); err == nil {
			seg = decoded
		}
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
