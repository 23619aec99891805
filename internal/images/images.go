// Package images validates and stores captured camera frames.
package images

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxImageBytes caps decoded image size.
const DefaultMaxImageBytes = 10 * 1024 * 1024

// allowedMIMEs is the accepted image allow-list. Extension is forced from
// the MIME type, never taken from the client.
var allowedMIMEs = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Image is a validated decoded payload.
type Image struct {
	MIME string
	Data []byte
}

// DecodeDataURL splits a data URL (or raw base64 with an explicit MIME)
// into its MIME type and decoded bytes. No size or type policy is applied.
func DecodeDataURL(payload, fallbackMIME string) (string, []byte, error) {
	mime := fallbackMIME
	b64 := payload
	if strings.HasPrefix(payload, "data:") {
		rest := strings.TrimPrefix(payload, "data:")
		semi := strings.Index(rest, ";base64,")
		if semi < 0 {
			return "", nil, fmt.Errorf("malformed data url")
		}
		mime = rest[:semi]
		b64 = rest[semi+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return mime, data, nil
}

// ValidateBase64Image decodes payload and enforces the MIME allow-list and
// the size cap. The cap is checked before anything touches disk.
func ValidateBase64Image(payload, declaredMIME string, maxBytes int64) (Image, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}

	// Reject oversized payloads on the encoded length first; base64
	// inflates by 4/3, so this bounds the decode work too.
	if int64(len(payload))/4*3 > maxBytes {
		return Image{}, fmt.Errorf("image exceeds maximum size of %d bytes", maxBytes)
	}

	mime, data, err := DecodeDataURL(payload, declaredMIME)
	if err != nil {
		return Image{}, err
	}
	if _, ok := allowedMIMEs[mime]; !ok {
		return Image{}, fmt.Errorf("unsupported image type: %q", mime)
	}
	if int64(len(data)) > maxBytes {
		return Image{}, fmt.Errorf("image exceeds maximum size of %d bytes", maxBytes)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("empty image payload")
	}
	return Image{MIME: mime, Data: data}, nil
}

// SanitizeFilename strips path components and unsafe characters from name
// and forces the extension that matches the MIME type.
func SanitizeFilename(name, mime string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || cleaned == "_" {
		cleaned = "capture"
	}

	ext, ok := allowedMIMEs[mime]
	if !ok {
		ext = ".bin"
	}
	return cleaned + ext
}

// ResolveSafeUploadPath joins name onto dir and rejects any result that
// escapes dir.
func ResolveSafeUploadPath(dir, name string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	resolved, err := filepath.Abs(filepath.Join(absDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve upload path: %w", err)
	}
	if resolved != absDir && !strings.HasPrefix(resolved, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("upload path escapes upload directory: %q", name)
	}
	if resolved == absDir {
		return "", fmt.Errorf("upload path resolves to the upload directory itself")
	}
	return resolved, nil
}

// Save validates the payload and writes it under dir, returning the stored
// filename.
func Save(dir, name, payload, declaredMIME string, maxBytes int64) (string, error) {
	img, err := ValidateBase64Image(payload, declaredMIME, maxBytes)
	if err != nil {
		return "", err
	}
	filename := SanitizeFilename(name, img.MIME)
	path, err := ResolveSafeUploadPath(dir, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return filename, nil
}
