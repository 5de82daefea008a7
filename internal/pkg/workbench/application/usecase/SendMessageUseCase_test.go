package usecase

import (
	"context"
	"errors"
	"testing"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
)

func seedConversation(t *testing.T, repo *fakeRepo) string {
	t.Helper()
	uc := NewCreateConversationUseCase(repo)
	conv, err := uc.Execute(context.Background(), CreateConversationInput{
		Title:     "planning",
		OwnerID:   "owner-1",
		OwnerName: "Owner",
	})
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return conv.ID
}

func TestSendMessagePersistsAndStampsRole(t *testing.T) {
	repo := newFakeRepo()
	convID := seedConversation(t, repo)

	uc := NewSendMessageUseCase(repo)
	msg, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: convID,
		SenderID:       "owner-1",
		Content:        "hello there",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if msg.ID == "" {
		t.Error("message ID not assigned")
	}
	if msg.SenderRole != workbench.ParticipantRoleUser {
		t.Errorf("sender role = %v, want user", msg.SenderRole)
	}

	stored, err := repo.GetMessage(context.Background(), convID, msg.ID)
	if err != nil {
		t.Fatalf("message not persisted: %v", err)
	}
	if stored.Content != "hello there" {
		t.Errorf("stored content = %q", stored.Content)
	}
}

func TestSendMessageDedupeKeyIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	convID := seedConversation(t, repo)
	uc := NewSendMessageUseCase(repo)

	key := "retry-1"
	first, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: convID, SenderID: "owner-1", Content: "once", DedupeKey: &key,
	})
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	second, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: convID, SenderID: "owner-1", Content: "once", DedupeKey: &key,
	})
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("retried send produced a new message: %s vs %s", first.ID, second.ID)
	}
	msgs, _ := repo.ListMessages(context.Background(), convID, 0, "")
	if len(msgs) != 1 {
		t.Errorf("message count = %d, want 1", len(msgs))
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	repo := newFakeRepo()
	convID := seedConversation(t, repo)
	uc := NewSendMessageUseCase(repo)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: convID, SenderID: "stranger", Content: "hi",
	})
	if !errors.Is(err, workbench.ErrNotParticipant) {
		t.Errorf("error = %v, want ErrNotParticipant", err)
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	repo := newFakeRepo()
	uc := NewSendMessageUseCase(repo)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "missing", SenderID: "owner-1", Content: "hi",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRewindDeletesTargetAndLater(t *testing.T) {
	repo := newFakeRepo()
	convID := seedConversation(t, repo)
	send := NewSendMessageUseCase(repo)

	var ids []string
	for i, content := range []string{"one", "two", "three", "four"} {
		msg, err := send.Execute(context.Background(), SendMessageInput{
			ConversationID: convID, SenderID: "owner-1", Content: content,
		})
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		ids = append(ids, msg.ID)
	}

	rewind := NewRewindConversationUseCase(repo)
	n, err := rewind.Execute(context.Background(), RewindConversationInput{
		ConversationID: convID, MessageID: ids[1], RequesterID: "owner-1",
	})
	if err != nil {
		t.Fatalf("rewind: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}

	remaining, _ := repo.ListMessages(context.Background(), convID, 0, "")
	if len(remaining) != 1 || remaining[0].ID != ids[0] {
		t.Errorf("remaining = %+v, want only first message", remaining)
	}
}

func TestRewindRequiresWritePermission(t *testing.T) {
	repo := newFakeRepo()
	convID := seedConversation(t, repo)
	join := NewJoinConversationUseCase(repo)
	if _, err := join.Execute(context.Background(), JoinConversationInput{
		ConversationID: convID, ParticipantID: "viewer", Name: "Viewer", Permission: workbench.PermissionRead,
	}); err != nil {
		t.Fatalf("join: %v", err)
	}

	send := NewSendMessageUseCase(repo)
	msg, err := send.Execute(context.Background(), SendMessageInput{
		ConversationID: convID, SenderID: "owner-1", Content: "keep me",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	rewind := NewRewindConversationUseCase(repo)
	if _, err := rewind.Execute(context.Background(), RewindConversationInput{
		ConversationID: convID, MessageID: msg.ID, RequesterID: "viewer",
	}); !errors.Is(err, workbench.ErrReadOnly) {
		t.Errorf("error = %v, want ErrReadOnly", err)
	}
}

func TestRewindUnknownMessage(t *testing.T) {
	repo := newFakeRepo()
	convID := seedConversation(t, repo)

	rewind := NewRewindConversationUseCase(repo)
	if _, err := rewind.Execute(context.Background(), RewindConversationInput{
		ConversationID: convID, MessageID: "nope", RequesterID: "owner-1",
	}); !errors.Is(err, workbench.ErrMessageNotFound) {
		t.Errorf("error = %v, want ErrMessageNotFound", err)
	}
}
