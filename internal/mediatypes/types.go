package mediatypes

import (
	"sort"
	"strings"
)

// Kind classifies an accepted source file.
type Kind string

const (
	// KindImage represents a still image source.
	KindImage Kind = "image"
	// KindVideo represents a video source.
	KindVideo Kind = "video"
)

// Emission describes which encoder family produces a target format.
type Emission int

const (
	// EmissionNative uses the pure-Go encoders from the standard library
	// and golang.org/x/image.
	EmissionNative Emission = iota
	// EmissionVips uses libvips via govips for formats the standard
	// library cannot emit.
	EmissionVips
	// EmissionFFmpeg uses an ffmpeg subprocess.
	EmissionFFmpeg
)

// String returns the encoder family name.
func (e Emission) String() string {
	switch e {
	case EmissionNative:
		return "native"
	case EmissionVips:
		return "vips"
	case EmissionFFmpeg:
		return "ffmpeg"
	default:
		return "unknown"
	}
}

// Format is one entry of the per-kind capability table. Token is the
// user-visible format name and the artifact extension. Container is the
// ffmpeg muxer used for video formats. Approximated marks formats that are
// produced by relabeling a compatible encode rather than a true encode of
// the requested container.
type Format struct {
	Token        string
	MIME         string
	Kind         Kind
	Emission     Emission
	Container    string
	Approximated bool
}

// ImageMIMETypes is the allow-list of accepted image input types.
var ImageMIMETypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/avif": true,
	"image/tiff": true,
}

// VideoMIMETypes is the allow-list of accepted video input types.
var VideoMIMETypes = map[string]bool{
	"video/mp4":        true,
	"video/webm":       true,
	"video/ogg":        true,
	"video/quicktime":  true,
	"video/x-matroska": true,
	"video/x-msvideo":  true,
	"video/mpeg":       true,
}

// mimeByExtension maps file extensions to declared MIME types for sources
// whose handle carries no type of its own.
var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".avif": "image/avif",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
}

// imageFormats enumerates every target an image source may convert to.
var imageFormats = []Format{
	{Token: "png", MIME: "image/png", Kind: KindImage, Emission: EmissionNative},
	{Token: "jpeg", MIME: "image/jpeg", Kind: KindImage, Emission: EmissionNative},
	{Token: "webp", MIME: "image/webp", Kind: KindImage, Emission: EmissionVips},
	{Token: "gif", MIME: "image/gif", Kind: KindImage, Emission: EmissionNative},
	{Token: "bmp", MIME: "image/bmp", Kind: KindImage, Emission: EmissionNative},
	{Token: "avif", MIME: "image/avif", Kind: KindImage, Emission: EmissionVips},
}

// videoFormats enumerates every target a video source may convert to.
// mov is not a true QuickTime encode: it reuses the mp4 muxer and relabels
// the artifact as video/quicktime.
var videoFormats = []Format{
	{Token: "mp4", MIME: "video/mp4", Kind: KindVideo, Emission: EmissionFFmpeg, Container: "mp4"},
	{Token: "webm", MIME: "video/webm", Kind: KindVideo, Emission: EmissionFFmpeg, Container: "webm"},
	{Token: "ogg", MIME: "video/ogg", Kind: KindVideo, Emission: EmissionFFmpeg, Container: "ogg"},
	{Token: "mov", MIME: "video/quicktime", Kind: KindVideo, Emission: EmissionFFmpeg, Container: "mp4", Approximated: true},
}

// NormalizeMIME lowercases a MIME type and strips any parameters.
func NormalizeMIME(mime string) string {
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// KindForMIME classifies a declared MIME type against the two allow-lists.
// The second return value is false for unsupported types.
func KindForMIME(mime string) (Kind, bool) {
	mime = NormalizeMIME(mime)
	if ImageMIMETypes[mime] {
		return KindImage, true
	}
	if VideoMIMETypes[mime] {
		return KindVideo, true
	}
	return "", false
}

// MIMEForExtension returns the declared MIME type for a file extension, or
// an empty string when the extension is unknown. The extension may be given
// with or without the leading dot.
func MIMEForExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return mimeByExtension[ext]
}

// SupportedExtensions returns every file extension with a known declared
// MIME type, each with its leading dot, in sorted order. Useful for file
// picker filters.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(mimeByExtension))
	for ext := range mimeByExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// FormatsFor returns the capability table for a media kind. The returned
// slice is a copy; callers may not mutate the tables.
func FormatsFor(kind Kind) []Format {
	var src []Format
	switch kind {
	case KindImage:
		src = imageFormats
	case KindVideo:
		src = videoFormats
	default:
		return nil
	}
	out := make([]Format, len(src))
	copy(out, src)
	return out
}

// FormatTokens returns the selectable format tokens for a media kind.
func FormatTokens(kind Kind) []string {
	formats := FormatsFor(kind)
	tokens := make([]string, 0, len(formats))
	for _, f := range formats {
		tokens = append(tokens, f.Token)
	}
	return tokens
}

// LookupFormat resolves a format token within the capability table of the
// given kind. Tokens from the other kind's table do not resolve.
func LookupFormat(kind Kind, token string) (Format, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, f := range FormatsFor(kind) {
		if f.Token == token {
			return f, true
		}
	}
	return Format{}, false
}
