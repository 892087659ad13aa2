package thumbnail

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func encodedImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDerive_ExactTargetDimensions(t *testing.T) {
	d := NewDeriver(300)

	tests := []struct {
		name string
		w, h int
	}{
		{"landscape", 600, 400},
		{"portrait", 400, 600},
		{"square smaller than target", 100, 100},
		{"exact", 300, 300},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			thumb, err := d.Derive(bytes.NewReader(encodedImage(t, tc.w, tc.h)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			b, err := Bounds(thumb)
			if err != nil {
				t.Fatalf("decoding thumbnail: %v", err)
			}
			if b.Dx() != 300 || b.Dy() != 300 {
				t.Errorf("thumbnail is %dx%d, want 300x300", b.Dx(), b.Dy())
			}
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	d := NewDeriver(300)
	src := encodedImage(t, 500, 350)

	a, err := d.Derive(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := d.Derive(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(a, b) {
		t.Error("identical input produced different thumbnail bytes")
	}
}

func TestDerive_NonImageFails(t *testing.T) {
	d := NewDeriver(300)

	_, err := d.Derive(strings.NewReader("definitely not an image"))
	if err == nil {
		t.Fatal("expected error for non-image input")
	}
}

func TestNewDeriver_DefaultSize(t *testing.T) {
	if got := NewDeriver(0).Size(); got != DefaultSize {
		t.Errorf("size = %d, want %d", got, DefaultSize)
	}
}
