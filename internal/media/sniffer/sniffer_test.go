package sniffer

import (
	"errors"
	"net/http"
	"testing"
)

func TestDetectHead(t *testing.T) {
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 16)...)
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}
	gif := []byte("GIF89a....")
	webp := append([]byte("RIFF1234WEBP"), make([]byte, 8)...)

	cases := []struct {
		name string
		head []byte
		want MediaType
	}{
		{"png", png, TypePNG},
		{"jpeg", jpeg, TypeJPEG},
		{"gif", gif, TypeGIF},
		{"webp", webp, TypeWEBP},
	}

	for _, tc := range cases {
		result, err := DetectHead(tc.head)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if result.Type != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, result.Type)
		}
	}
}

func TestDetectHeadRejectsUnknown(t *testing.T) {
	if _, err := DetectHead([]byte("<svg xmlns=...")); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("svg should be rejected, got %v", err)
	}
	if _, err := DetectHead(nil); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("empty head should be rejected, got %v", err)
	}
}

func TestMimeTypeFromHTTP(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "image/png; charset=binary")
	if got := MimeTypeFromHTTP(header); got != "image/png" {
		t.Fatalf("expected image/png, got %q", got)
	}
	if got := MimeTypeFromHTTP(http.Header{}); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
