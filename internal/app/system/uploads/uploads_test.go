package uploads

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestImageKey(t *testing.T) {
	now := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	key, err := ImageKey("avatars", "image/PNG", now)
	if err != nil {
		t.Fatalf("ImageKey: %v", err)
	}
	if !strings.HasPrefix(key, "avatars/2026/03/") || !strings.HasSuffix(key, ".png") {
		t.Errorf("unexpected key %q", key)
	}

	if _, err := ImageKey("avatars", "application/pdf", now); err != ErrUnsupportedType {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestLocal_PutDelete(t *testing.T) {
	root := t.TempDir()
	l := NewLocal(root, "/files/")
	ctx := context.Background()

	obj, err := l.Put(ctx, "avatars/2026/03/a.png", strings.NewReader("png-bytes"), 9, "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj.URL != "/files/avatars/2026/03/a.png" {
		t.Errorf("URL = %q", obj.URL)
	}
	data, err := os.ReadFile(filepath.Join(root, "avatars", "2026", "03", "a.png"))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("file not written: %v %q", err, data)
	}

	if err := l.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(ctx, obj.Key); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	l := NewLocal(t.TempDir(), "/files")
	if _, err := l.Put(context.Background(), "../escape.png", strings.NewReader("x"), 1, "image/png"); err == nil {
		t.Error("expected error for key escaping the root")
	}
}
