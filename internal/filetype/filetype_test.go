package filetype

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/provenia/provenia/internal/common"
)

var allCategories = []string{"images", "documents", "audio", "video", "archives", "code"}

func newTestValidator(maxSize int64) *Validator {
	return NewValidator(maxSize, allCategories)
}

// minimal but sniffable payloads
var (
	pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 16)...)
	pdfBytes = []byte("%PDF-1.4\n%test\n")
	zipBytes = append([]byte{'P', 'K', 0x03, 0x04}, make([]byte, 16)...)
)

func TestValidate_SniffedTypesWinOverDeclaredName(t *testing.T) {
	v := newTestValidator(0)

	tests := []struct {
		name         string
		data         []byte
		declared     string
		wantCategory Category
		wantMime     string
	}{
		{"png declared as txt", pngBytes, "picture.txt", CategoryImages, "image/png"},
		{"pdf declared as jpg", pdfBytes, "paper.jpg", CategoryDocuments, "application/pdf"},
		{"zip declared without extension", zipBytes, "bundle", CategoryArchives, "application/zip"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := v.Validate(bytes.NewReader(tc.data), tc.declared, int64(len(tc.data)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Category != tc.wantCategory {
				t.Errorf("category = %q, want %q", res.Category, tc.wantCategory)
			}
			if res.MimeType != tc.wantMime {
				t.Errorf("mime = %q, want %q", res.MimeType, tc.wantMime)
			}
			if res.Resolution != ResolutionSniffed {
				t.Errorf("resolution = %q, want %q", res.Resolution, ResolutionSniffed)
			}
		})
	}
}

func TestValidate_DeclaredFallbackForTextLikeContent(t *testing.T) {
	v := newTestValidator(0)
	src := []byte("package main\n\nfunc main() {}\n")

	res, err := v.Validate(bytes.NewReader(src), "main.go", int64(len(src)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Category != CategoryCode {
		t.Errorf("category = %q, want %q", res.Category, CategoryCode)
	}
	if res.Resolution != ResolutionDeclaredFallback {
		t.Errorf("resolution = %q, want %q", res.Resolution, ResolutionDeclaredFallback)
	}
	if res.Extension != ".go" {
		t.Errorf("extension = %q, want .go", res.Extension)
	}
}

func TestValidate_PlainTextWithoutExtensionIsDocument(t *testing.T) {
	v := newTestValidator(0)
	src := []byte("just some prose, nothing else")

	res, err := v.Validate(bytes.NewReader(src), "notes", int64(len(src)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Category != CategoryDocuments {
		t.Errorf("category = %q, want %q", res.Category, CategoryDocuments)
	}
}

func TestValidate_Oversized(t *testing.T) {
	v := newTestValidator(8)

	_, err := v.Validate(bytes.NewReader(pngBytes), "big.png", int64(len(pngBytes)))
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Reason != ReasonOversized {
		t.Errorf("reason = %q, want %q", verr.Reason, ReasonOversized)
	}
	if !errors.Is(err, common.ErrFileTooLarge) {
		t.Error("expected errors.Is(err, common.ErrFileTooLarge)")
	}
}

func TestValidate_UnsupportedCategory(t *testing.T) {
	// only documents allowed
	v := NewValidator(0, []string{"documents"})

	_, err := v.Validate(bytes.NewReader(pngBytes), "pic.png", int64(len(pngBytes)))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Reason != ReasonUnsupportedType {
		t.Errorf("reason = %q, want %q", verr.Reason, ReasonUnsupportedType)
	}
	if !errors.Is(err, common.ErrUnsupportedType) {
		t.Error("expected errors.Is(err, common.ErrUnsupportedType)")
	}
}

func TestValidate_UnverifiableBinary(t *testing.T) {
	v := newTestValidator(0)
	junk := []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe, 0x00, 0x10}

	_, err := v.Validate(bytes.NewReader(junk), "mystery", int64(len(junk)))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Reason != ReasonUnverifiableType {
		t.Errorf("reason = %q, want %q", verr.Reason, ReasonUnverifiableType)
	}
}

func TestValidationError_Message(t *testing.T) {
	e := &ValidationError{Reason: ReasonUnsupportedType, Detail: `category "archives" is not allowed`}
	if !strings.Contains(e.Error(), ReasonUnsupportedType) {
		t.Errorf("message %q should contain the reason", e.Error())
	}
	if !strings.Contains(e.Error(), "archives") {
		t.Errorf("message %q should contain the detail", e.Error())
	}
}

func TestCategoryForMime_Taxonomy(t *testing.T) {
	tests := []struct {
		mime string
		want Category
	}{
		{"image/jpeg", CategoryImages},
		{"audio/mpeg", CategoryAudio},
		{"video/mp4", CategoryVideo},
		{"application/pdf", CategoryDocuments},
		{"application/zip", CategoryArchives},
		{"application/json", CategoryCode},
		{"application/x-msdownload", CategoryUnknown},
	}
	for _, tc := range tests {
		if got := categoryForMime(tc.mime); got != tc.want {
			t.Errorf("categoryForMime(%q) = %q, want %q", tc.mime, got, tc.want)
		}
	}
}
