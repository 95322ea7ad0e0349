// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"

	"github.com/danielhkuo/costume-contest/models"
)

const (
	thumbSuffix  = "_thumb.jpg"
	thumbMaxSide = 400
	tempPrefix   = ".upload-"
)

// mimeByExt lists the sniffed content type each known extension must match.
// Extensions not listed only need to sniff as some image/* type.
var mimeByExt = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

// decodable are the formats registered with the image package above.
var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Store keeps uploaded photos in a single flat directory.
type Store struct {
	dir      string
	maxBytes int64
	exts     []string
	allowed  map[string]bool
}

// New creates dir if needed. Extensions are compared case-insensitively and
// without the leading dot.
func New(dir string, maxBytes int64, allowedExts []string) (*Store, error) {
	if maxBytes <= 0 {
		return nil, errors.New("max upload size must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &models.StorageError{Op: "create upload dir", Err: err}
	}

	s := &Store{dir: dir, maxBytes: maxBytes, allowed: make(map[string]bool)}
	for _, ext := range allowedExts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" || s.allowed[ext] {
			continue
		}
		s.allowed[ext] = true
		s.exts = append(s.exts, ext)
	}
	if len(s.exts) == 0 {
		return nil, errors.New("no allowed photo extensions")
	}
	return s, nil
}

func (s *Store) Dir() string           { return s.dir }
func (s *Store) MaxBytes() int64       { return s.maxBytes }
func (s *Store) AllowedExts() []string { return append([]string(nil), s.exts...) }

// Save validates and writes a photo, returning the stored file name.
// The name is a random uuid plus the lower-cased original extension; the
// original name is otherwise discarded. A JPEG thumbnail is written next to
// photos in a decodable format.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(originalName)), "."))
	if !s.allowed[ext] {
		return "", models.NewValidationError("photo",
			"Invalid photo type. Allowed: "+strings.Join(s.exts, ", "))
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", &models.StorageError{Op: "read upload", Err: err}
	}
	if len(data) == 0 {
		return "", models.NewValidationError("photo", "The photo file is empty.")
	}
	if int64(len(data)) > s.maxBytes {
		return "", models.NewValidationError("photo",
			fmt.Sprintf("Photo must be at most %s.", formatSize(s.maxBytes)))
	}

	sniffed := http.DetectContentType(data)
	if want, ok := mimeByExt[ext]; ok && sniffed != want {
		return "", models.NewValidationError("photo", "The file does not look like a ."+ext+" image.")
	}
	if !strings.HasPrefix(sniffed, "image/") {
		return "", models.NewValidationError("photo", "The file is not an image.")
	}

	var img image.Image
	if decodable[sniffed] {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", models.NewValidationError("photo", "The image could not be read.")
		}
	}

	name := uuid.NewString() + "." + ext
	if err := s.writeFile(name, data); err != nil {
		return "", err
	}

	if img != nil {
		var buf bytes.Buffer
		thumb := resize.Thumbnail(thumbMaxSide, thumbMaxSide, img, resize.Lanczos3)
		if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
			s.Delete(name)
			return "", &models.StorageError{Op: "encode thumbnail", Err: err}
		}
		if err := s.writeFile(ThumbName(name), buf.Bytes()); err != nil {
			s.Delete(name)
			return "", err
		}
	}

	return name, nil
}

// writeFile writes through a temp file and renames it into place so readers
// never see a partial photo.
func (s *Store) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return &models.StorageError{Op: "create upload", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &models.StorageError{Op: "write upload", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &models.StorageError{Op: "write upload", Err: err}
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return &models.StorageError{Op: "store upload", Err: err}
	}
	return nil
}

// Resolve maps a stored name to its path inside the upload directory.
// Anything other than a plain file name is a ValidationError.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") ||
		strings.HasPrefix(name, ".") ||
		strings.ContainsRune(name, 0) ||
		filepath.Base(name) != name {
		return "", models.NewValidationError("photo", "Invalid file name.")
	}

	path := filepath.Join(s.dir, name)
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.dir)+string(filepath.Separator)) {
		return "", models.NewValidationError("photo", "Invalid file name.")
	}
	return path, nil
}

// Delete removes a photo and its thumbnail. Files that are already gone are
// not an error.
func (s *Store) Delete(name string) error {
	path, err := s.Resolve(name)
	if err != nil {
		return err
	}

	for _, p := range []string{path, filepath.Join(s.dir, ThumbName(name))} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &models.StorageError{Op: "delete upload", Err: err}
		}
	}
	return nil
}

// Clear removes every regular file in the upload directory. It keeps going
// after individual failures, logging each one, and returns how many files were
// removed together with the joined failures.
func (s *Store) Clear() (int, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, &models.StorageError{Op: "list uploads", Err: err}
	}

	removed := 0
	var errs []error
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		path := filepath.Join(s.dir, item.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove upload", "file", item.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

// ThumbName returns the thumbnail file name for a stored photo.
func ThumbName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + thumbSuffix
}

func formatSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return fmt.Sprintf("%d KB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
