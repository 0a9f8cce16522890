package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

type recordingTriager struct {
	inputs []domain.RawInput
	convs  []string
}

func (r *recordingTriager) Triage(ctx context.Context, input domain.RawInput, conversationID string) (*domain.ResultEnvelope, error) {
	r.inputs = append(r.inputs, input)
	r.convs = append(r.convs, conversationID)
	return &domain.ResultEnvelope{ConversationID: conversationID}, nil
}

func TestProcessStoredShapesTextInput(t *testing.T) {
	storage := newFakeStorage()
	_ = storage.Save(context.Background(), "k1", strings.NewReader("From: a@b.c\n\nhello"))
	triager := &recordingTriager{}
	uc := NewProcessUseCase(storage, triager)

	err := uc.ProcessStored(context.Background(), domain.IntakeEvent{
		ConversationID: "conv-1",
		StorageKey:     "k1",
		MimeType:       "message/rfc822",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(triager.inputs) != 1 {
		t.Fatalf("triager calls = %d", len(triager.inputs))
	}
	if _, ok := triager.inputs[0].(domain.TextInput); !ok {
		t.Fatalf("input type = %T, want TextInput", triager.inputs[0])
	}
	if triager.convs[0] != "conv-1" {
		t.Fatalf("conversation id = %q", triager.convs[0])
	}
}

func TestProcessStoredShapesBlobInput(t *testing.T) {
	storage := newFakeStorage()
	_ = storage.Save(context.Background(), "k2", strings.NewReader("%PDF-1.4 payload"))
	triager := &recordingTriager{}
	uc := NewProcessUseCase(storage, triager)

	err := uc.ProcessStored(context.Background(), domain.IntakeEvent{
		ConversationID: "conv-2",
		StorageKey:     "k2",
		MimeType:       "application/pdf",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := triager.inputs[0].(domain.BlobInput); !ok {
		t.Fatalf("input type = %T, want BlobInput", triager.inputs[0])
	}
}

func TestProcessStoredMissingBlob(t *testing.T) {
	uc := NewProcessUseCase(newFakeStorage(), &recordingTriager{})
	err := uc.ProcessStored(context.Background(), domain.IntakeEvent{StorageKey: "nope"})
	if err == nil {
		t.Fatal("expected error")
	}
}
