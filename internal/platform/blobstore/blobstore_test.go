package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPutAndGet(t *testing.T) {
	store := NewMemoryStore()
	payload := []byte("fake jpeg bytes")

	meta, err := store.Put(context.Background(), "squat.jpg", "image/jpeg", "user-1", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.ID == "" {
		t.Error("expected generated id")
	}
	if meta.Size != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), meta.Size)
	}
	if !strings.HasSuffix(meta.URL, meta.ID) {
		t.Errorf("expected url to end with id, got %s", meta.URL)
	}

	got, rc, err := store.Get(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, payload) {
		t.Error("stored payload mismatch")
	}
	if got.ContentType != "image/jpeg" {
		t.Errorf("unexpected content type %s", got.ContentType)
	}
}

func TestPut_RejectsContentType(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Put(context.Background(), "run.exe", "application/octet-stream", "user-1", strings.NewReader("x"))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestPut_RequiresFileName(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Put(context.Background(), "", "image/png", "user-1", strings.NewReader("x"))
	if !errors.Is(err, ErrMissingFileName) {
		t.Errorf("expected ErrMissingFileName, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	store := NewMemoryStore()
	_, _, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := NewMemoryStore()
	meta, _ := store.Put(context.Background(), "a.png", "image/png", "user-1", strings.NewReader("x"))

	if err := store.Delete(context.Background(), meta.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound on second delete, got %v", err)
	}
}
