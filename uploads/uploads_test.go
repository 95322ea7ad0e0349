// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package uploads

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielhkuo/costume-contest/models"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"), maxBytes, []string{"jpg", "JPEG", ".png", "gif"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0x80, 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func isValidation(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr)
}

func TestSave_StoresPhotoAndThumbnail(t *testing.T) {
	s := newTestStore(t, 5<<20)
	data := pngBytes(t, 800, 600)

	name, err := s.Save(bytes.NewReader(data), "My Costume.PNG")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasSuffix(name, ".png") || strings.Contains(name, "Costume") {
		t.Errorf("unexpected stored name %q", name)
	}

	path, err := s.Resolve(name)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("stored photo not readable: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Error("stored photo differs from upload")
	}

	thumbPath, _ := s.Resolve(ThumbName(name))
	f, err := os.Open(thumbPath)
	if err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
	defer f.Close()
	thumb, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	if b := thumb.Bounds(); b.Dx() > 400 || b.Dy() > 400 {
		t.Errorf("thumbnail too large: %v", b)
	}
}

func TestSave_UniqueNames(t *testing.T) {
	s := newTestStore(t, 5<<20)
	data := pngBytes(t, 4, 4)

	a, err := s.Save(bytes.NewReader(data), "same.png")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Save(bytes.NewReader(data), "same.png")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("Expected distinct names, got %q twice", a)
	}
}

func TestSave_Rejections(t *testing.T) {
	s := newTestStore(t, 1024)
	small := pngBytes(t, 2, 2)

	tests := []struct {
		name     string
		data     []byte
		filename string
	}{
		{"disallowed extension", small, "photo.exe"},
		{"no extension", small, "photo"},
		{"too large", bytes.Repeat([]byte{0x89}, 2048), "big.png"},
		{"empty", nil, "empty.png"},
		{"not an image", []byte("<html><body>hi</body></html>"), "page.png"},
		{"extension mismatch", small, "photo.gif"},
		{"truncated image", small[:30], "cut.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(bytes.NewReader(tt.data), tt.filename)
			if !isValidation(err) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
		})
	}

	items, _ := os.ReadDir(s.Dir())
	if len(items) != 0 {
		t.Errorf("Rejected uploads left %d files behind", len(items))
	}
}

func TestResolve_Traversal(t *testing.T) {
	s := newTestStore(t, 1024)

	bad := []string{
		"",
		"../etc/passwd",
		"..",
		"a/../../b.png",
		"sub/photo.png",
		`..\windows.png`,
		".hidden.png",
		"x..png",
		"nul\x00.png",
	}
	for _, name := range bad {
		if _, err := s.Resolve(name); !isValidation(err) {
			t.Errorf("Resolve(%q) should be rejected, got %v", name, err)
		}
	}

	path, err := s.Resolve("abc.png")
	if err != nil {
		t.Fatalf("Resolve(valid) error = %v", err)
	}
	if filepath.Dir(path) != filepath.Clean(s.Dir()) {
		t.Errorf("resolved outside upload dir: %q", path)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	s := newTestStore(t, 5<<20)
	name, err := s.Save(bytes.NewReader(pngBytes(t, 10, 10)), "a.png")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(name); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	for _, n := range []string{name, ThumbName(name)} {
		if _, err := os.Stat(filepath.Join(s.Dir(), n)); !os.IsNotExist(err) {
			t.Errorf("%s should be gone, stat err = %v", n, err)
		}
	}

	if err := s.Delete(name); err != nil {
		t.Errorf("second Delete() should succeed, got %v", err)
	}
	if err := s.Delete("../escape.png"); !isValidation(err) {
		t.Errorf("Delete with traversal should be rejected, got %v", err)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t, 5<<20)
	for i := 0; i < 3; i++ {
		if _, err := s.Save(bytes.NewReader(pngBytes(t, 3, 3)), "x.png"); err != nil {
			t.Fatal(err)
		}
	}
	// A stray file not written by Save is cleared too
	os.WriteFile(filepath.Join(s.Dir(), "stray.txt"), []byte("x"), 0o644)

	removed, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if removed != 7 {
		t.Errorf("Expected 7 files removed, got %d", removed)
	}

	items, _ := os.ReadDir(s.Dir())
	if len(items) != 0 {
		t.Errorf("Expected empty upload dir, found %d items", len(items))
	}
}

func TestNew_Validation(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(dir, 0, []string{"png"}); err == nil {
		t.Error("Expected error for zero size")
	}
	if _, err := New(dir, 10, []string{" ", "."}); err == nil {
		t.Error("Expected error for empty extension list")
	}

	s, err := New(dir, 10, []string{"PNG", ".png", "jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(s.AllowedExts(), ","); got != "png,jpg" {
		t.Errorf("AllowedExts() = %q", got)
	}
}

func TestThumbName(t *testing.T) {
	tests := map[string]string{
		"abc.png":  "abc_thumb.jpg",
		"abc.jpeg": "abc_thumb.jpg",
		"abc":      "abc_thumb.jpg",
	}
	for in, want := range tests {
		if got := ThumbName(in); got != want {
			t.Errorf("ThumbName(%q) = %q, want %q", in, got, want)
		}
	}
}
