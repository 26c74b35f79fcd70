package sqlite

import (
	"context"
	"testing"

	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
)

func TestContentLogCreateAndList(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	log := &model.ContentLog{
		UserID:        user.ID,
		Prompt:        "Write a tweet about Go",
		GeneratedText: "Go is great.",
		Mode:          model.ModeNewTweet,
		TokensUsed:    42,
	}
	if err := db.ContentLogs().Create(context.Background(), log); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if log.ID == "" || log.CreatedAt.IsZero() {
		t.Error("Create() did not set ID/CreatedAt")
	}

	logs, err := db.ContentLogs().List(context.Background(), user.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(logs) != 1 || logs[0].TokensUsed != 42 {
		t.Errorf("List() = %+v, want the created entry", logs)
	}
}

func TestContentLogList_ModeFilter(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "bob")

	for _, mode := range []string{model.ModeNewTweet, model.ModeThread, model.ModeNewTweet} {
		log := &model.ContentLog{UserID: user.ID, Prompt: "p", GeneratedText: "g", Mode: mode}
		if err := db.ContentLogs().Create(context.Background(), log); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tweets, err := db.ContentLogs().List(context.Background(), user.ID, repository.ListOptions{Mode: model.ModeNewTweet})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tweets) != 2 {
		t.Errorf("List(new_tweet) returned %d entries, want 2", len(tweets))
	}

	threads, err := db.ContentLogs().List(context.Background(), user.ID, repository.ListOptions{Mode: model.ModeThread})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(threads) != 1 {
		t.Errorf("List(thread) returned %d entries, want 1", len(threads))
	}
}

func TestContentLogList_ScopedToUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "carol")
	bob := createTestUser(t, db, "dan")

	log := &model.ContentLog{UserID: alice.ID, Prompt: "p", GeneratedText: "g", Mode: model.ModeReply}
	if err := db.ContentLogs().Create(context.Background(), log); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	logs, err := db.ContentLogs().List(context.Background(), bob.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("List() for another user returned %d entries, want 0", len(logs))
	}
}
