// Package filetype classifies uploaded bytes against the platform's content
// taxonomy. The true type is sniffed from magic numbers and preferred over
// whatever the client declared; plain-text and source files, which sniffing
// cannot tell apart, fall back to the declared extension.
package filetype

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/provenia/provenia/internal/common"
)

// Category is one entry of the fixed content taxonomy.
type Category string

const (
	CategoryImages    Category = "images"
	CategoryDocuments Category = "documents"
	CategoryAudio     Category = "audio"
	CategoryVideo     Category = "video"
	CategoryArchives  Category = "archives"
	CategoryCode      Category = "code"
	CategoryUnknown   Category = "unknown"
)

// Resolution tags how the type was determined, so callers can distinguish
// confidence levels.
type Resolution string

const (
	// ResolutionSniffed means magic-number inspection identified the type.
	ResolutionSniffed Resolution = "sniffed"
	// ResolutionDeclaredFallback means sniffing was indeterminate and the
	// declared extension was trusted instead.
	ResolutionDeclaredFallback Resolution = "declared-fallback"
	// ResolutionUnresolved means neither sniffing nor the declared name
	// produced a known type.
	ResolutionUnresolved Resolution = "unresolved"
)

// Rejection reasons carried by ValidationError.
const (
	ReasonOversized        = "oversized"
	ReasonUnsupportedType  = "unsupported-type"
	ReasonUnverifiableType = "unverifiable-type"
)

// Result is the outcome of a successful validation. It is derived once per
// upload and never mutated.
type Result struct {
	Category   Category
	MimeType   string
	Extension  string
	Resolution Resolution
}

// ValidationError names why an upload was rejected. It unwraps to one of
// the common sentinel errors so callers can match with errors.Is.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	switch e.Reason {
	case ReasonOversized:
		return common.ErrFileTooLarge
	case ReasonUnsupportedType:
		return common.ErrUnsupportedType
	default:
		return common.ErrUnverifiableType
	}
}

// extensions that sniffing cannot distinguish from plain text.
var codeExtensions = map[string]string{
	".go":   "text/x-go",
	".py":   "text/x-python",
	".js":   "text/javascript",
	".ts":   "text/typescript",
	".c":    "text/x-c",
	".h":    "text/x-c",
	".cpp":  "text/x-c++",
	".java": "text/x-java",
	".rs":   "text/x-rust",
	".rb":   "text/x-ruby",
	".sol":  "text/x-solidity",
	".sh":   "text/x-shellscript",
	".sql":  "application/sql",
	".json": "application/json",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".html": "text/html",
	".css":  "text/css",
}

var documentExtensions = map[string]string{
	".txt": "text/plain",
	".md":  "text/markdown",
	".csv": "text/csv",
	".rtf": "application/rtf",
}

// Validator classifies raw bytes. It holds only configuration and is safe
// for concurrent use.
type Validator struct {
	maxSizeBytes int64
	allowed      map[Category]struct{}
}

// NewValidator builds a validator with the given size limit and category
// allow-list. Unknown names in allowedCategories are ignored.
func NewValidator(maxSizeBytes int64, allowedCategories []string) *Validator {
	allowed := make(map[Category]struct{}, len(allowedCategories))
	for _, c := range allowedCategories {
		allowed[Category(strings.ToLower(c))] = struct{}{}
	}
	return &Validator{maxSizeBytes: maxSizeBytes, allowed: allowed}
}

// Validate sniffs r and resolves the content type, preferring magic numbers
// over the declared filename. It reads only the sniffing prefix from r and
// has no other side effects.
func (v *Validator) Validate(r io.Reader, declaredName string, sizeBytes int64) (*Result, error) {
	if v.maxSizeBytes > 0 && sizeBytes > v.maxSizeBytes {
		return nil, &ValidationError{
			Reason: ReasonOversized,
			Detail: fmt.Sprintf("%d bytes exceeds limit of %d", sizeBytes, v.maxSizeBytes),
		}
	}

	res, err := resolve(r, declaredName)
	if err != nil {
		return nil, err
	}

	if res.Resolution == ResolutionUnresolved {
		return nil, &ValidationError{
			Reason: ReasonUnverifiableType,
			Detail: fmt.Sprintf("cannot classify %q", declaredName),
		}
	}

	if _, ok := v.allowed[res.Category]; !ok {
		return nil, &ValidationError{
			Reason: ReasonUnsupportedType,
			Detail: fmt.Sprintf("category %q is not allowed", res.Category),
		}
	}

	return res, nil
}

// resolve performs the two-step type resolution: sniff first, then fall
// back to the declared extension when sniffing lands on an indeterminate
// type (octet-stream or bare text).
func resolve(r io.Reader, declaredName string) (*Result, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonUnverifiableType, Detail: err.Error()}
	}

	sniffed := normalizeMime(mt.String())
	ext := strings.ToLower(filepath.Ext(declaredName))

	if !indeterminate(sniffed) {
		return &Result{
			Category:   categoryForMime(sniffed),
			MimeType:   sniffed,
			Extension:  extensionFor(mt, ext),
			Resolution: ResolutionSniffed,
		}, nil
	}

	// Sniffing saw plain text or nothing recognizable; trust the declared
	// extension if we know it.
	if declared, ok := codeExtensions[ext]; ok {
		return &Result{
			Category:   CategoryCode,
			MimeType:   declared,
			Extension:  ext,
			Resolution: ResolutionDeclaredFallback,
		}, nil
	}
	if declared, ok := documentExtensions[ext]; ok {
		return &Result{
			Category:   CategoryDocuments,
			MimeType:   declared,
			Extension:  ext,
			Resolution: ResolutionDeclaredFallback,
		}, nil
	}

	// Bare text with no useful extension is still readable content.
	if sniffed == "text/plain" {
		return &Result{
			Category:   CategoryDocuments,
			MimeType:   sniffed,
			Extension:  ext,
			Resolution: ResolutionSniffed,
		}, nil
	}

	return &Result{
		Category:   CategoryUnknown,
		MimeType:   sniffed,
		Extension:  ext,
		Resolution: ResolutionUnresolved,
	}, nil
}

func normalizeMime(m string) string {
	// mimetype returns e.g. "text/plain; charset=utf-8"
	if i := strings.Index(m, ";"); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}

func indeterminate(mime string) bool {
	return mime == "application/octet-stream" || mime == "text/plain"
}

func extensionFor(mt *mimetype.MIME, declared string) string {
	if e := mt.Extension(); e != "" {
		return e
	}
	return declared
}

func categoryForMime(mime string) Category {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return CategoryImages
	case strings.HasPrefix(mime, "audio/"):
		return CategoryAudio
	case strings.HasPrefix(mime, "video/"):
		return CategoryVideo
	}

	switch mime {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.text",
		"application/epub+zip",
		"text/markdown",
		"text/csv",
		"text/rtf",
		"application/rtf":
		return CategoryDocuments
	case "application/zip",
		"application/x-tar",
		"application/gzip",
		"application/x-bzip2",
		"application/x-7z-compressed",
		"application/x-rar-compressed",
		"application/vnd.rar",
		"application/x-xz":
		return CategoryArchives
	case "text/html", "text/css", "text/javascript", "application/json",
		"text/xml", "application/xml":
		return CategoryCode
	}

	return CategoryUnknown
}
