package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

type fakeStorage struct {
	saved map[string][]byte
	err   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string][]byte)}
}

func (f *fakeStorage) Save(ctx context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	blob, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = blob
	return nil
}

func (f *fakeStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	blob, ok := f.saved[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(blob)), nil
}

type fakeQueue struct {
	published []domain.IntakeEvent
	err       error
}

func (f *fakeQueue) PublishIntakeReceived(ctx context.Context, event domain.IntakeEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakeQueue) SubscribeIntakeReceived(ctx context.Context, handler func(context.Context, domain.IntakeEvent) error) error {
	return nil
}

func TestUploadStoresRecordsAndPublishes(t *testing.T) {
	storage := newFakeStorage()
	log := &fakeLog{}
	queue := &fakeQueue{}
	uc := NewIngestUseCase(storage, log, queue)

	conversationID, err := uc.Upload(context.Background(), "Q3 invoice.pdf", "application/pdf", strings.NewReader("%PDF-1.4"), "")
	if err != nil {
		t.Fatal(err)
	}
	if conversationID == "" {
		t.Fatal("conversation id not generated")
	}
	if len(storage.saved) != 1 {
		t.Fatalf("saved blobs = %d", len(storage.saved))
	}
	for key := range storage.saved {
		if !strings.HasSuffix(key, "_Q3_invoice.pdf") {
			t.Fatalf("storage key = %q", key)
		}
	}
	if len(queue.published) != 1 {
		t.Fatalf("published events = %d", len(queue.published))
	}
	event := queue.published[0]
	if event.ConversationID != conversationID || event.MimeType != "application/pdf" {
		t.Fatalf("event = %+v", event)
	}
	if log.countKind(domain.RecordMetadata) != 1 {
		t.Fatalf("metadata records = %d", log.countKind(domain.RecordMetadata))
	}
}

func TestUploadKeepsProvidedConversationID(t *testing.T) {
	uc := NewIngestUseCase(newFakeStorage(), &fakeLog{}, &fakeQueue{})
	conversationID, err := uc.Upload(context.Background(), "a.json", "application/json", strings.NewReader("{}"), "conv-fixed")
	if err != nil {
		t.Fatal(err)
	}
	if conversationID != "conv-fixed" {
		t.Fatalf("conversation id = %q", conversationID)
	}
}

func TestUploadStorageFailure(t *testing.T) {
	storage := newFakeStorage()
	storage.err = errors.New("disk full")
	queue := &fakeQueue{}
	uc := NewIngestUseCase(storage, &fakeLog{}, queue)

	if _, err := uc.Upload(context.Background(), "a.bin", "application/octet-stream", strings.NewReader("x"), ""); err == nil {
		t.Fatal("expected error")
	}
	if len(queue.published) != 0 {
		t.Fatalf("published after storage failure: %d", len(queue.published))
	}
}
