package images

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"
)

func b64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func TestValidateBase64ImageAccepts(t *testing.T) {
	payload := "data:image/jpeg;base64," + b64([]byte("fake-jpeg-bytes"))
	img, err := ValidateBase64Image(payload, "", DefaultMaxImageBytes)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if img.MIME != "image/jpeg" || string(img.Data) != "fake-jpeg-bytes" {
		t.Fatalf("unexpected image: %#v", img)
	}
}

func TestValidateBase64ImageRejectsOversize(t *testing.T) {
	big := make([]byte, 2048)
	payload := "data:image/png;base64," + b64(big)
	if _, err := ValidateBase64Image(payload, "", 1024); err == nil {
		t.Fatalf("expected oversize payload to be rejected")
	}
}

func TestValidateBase64ImageRejectsMIME(t *testing.T) {
	payload := "data:image/gif;base64," + b64([]byte("gif-bytes"))
	if _, err := ValidateBase64Image(payload, "", DefaultMaxImageBytes); err == nil {
		t.Fatalf("expected unsupported MIME to be rejected")
	}
}

func TestValidateBase64ImageRejectsGarbage(t *testing.T) {
	if _, err := ValidateBase64Image("data:image/png;base64,!!!not-base64!!!", "", 0); err == nil {
		t.Fatalf("expected invalid base64 to be rejected")
	}
	if _, err := ValidateBase64Image("data:image/png,missing-marker", "", 0); err == nil {
		t.Fatalf("expected malformed data url to be rejected")
	}
}

func TestSanitizeFilenameTraversal(t *testing.T) {
	got := SanitizeFilename("../../etc/passwd", "image/jpeg")
	if strings.ContainsAny(got, "/\\") || strings.Contains(got, "..") {
		t.Fatalf("sanitized name still contains path components: %q", got)
	}
	if !strings.HasSuffix(got, ".jpg") {
		t.Fatalf("expected forced .jpg extension, got %q", got)
	}
}

func TestSanitizeFilenameEmpty(t *testing.T) {
	got := SanitizeFilename("...", "image/png")
	if got != "capture.png" {
		t.Fatalf("expected fallback name, got %q", got)
	}
}

func TestResolveSafeUploadPath(t *testing.T) {
	dir := t.TempDir()
	path, err := ResolveSafeUploadPath(dir, "photo.jpg")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected path inside %s, got %s", dir, path)
	}

	for _, bad := range []string{"../outside.jpg", "../../etc/passwd", "a/../../b.jpg"} {
		if _, err := ResolveSafeUploadPath(dir, bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payload := "data:image/png;base64," + b64([]byte("png-bytes"))
	name, err := Save(dir, "../sneaky name!.gif", payload, "", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if name != "sneakyname.png" {
		t.Fatalf("unexpected stored name: %q", name)
	}
}
