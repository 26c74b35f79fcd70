package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
)

func newTestContentService() (*ContentService, *fakeGenerator, *fakeContentLogRepo) {
	gen := &fakeGenerator{}
	logs := newFakeContentLogRepo()
	return NewContentService(gen, logs, testLogger()), gen, logs
}

func TestGenerateTweet(t *testing.T) {
	svc, _, logs := newTestContentService()

	entry, err := svc.GenerateTweet(context.Background(), "user-1", GenerateRequest{Topic: "Go generics"})
	if err != nil {
		t.Fatalf("GenerateTweet() error = %v", err)
	}

	if entry.Mode != model.ModeNewTweet {
		t.Errorf("mode = %q, want new_tweet", entry.Mode)
	}
	if entry.GeneratedText == "" || entry.TokensUsed == 0 {
		t.Errorf("entry = %+v", entry)
	}

	// Every generation lands in the history log.
	if len(logs.logs) != 1 {
		t.Fatalf("history has %d entries, want 1", len(logs.logs))
	}
	if logs.logs[0].Prompt == "" {
		t.Error("logged entry should carry the prompt")
	}
}

func TestGenerateTweet_TopicValidation(t *testing.T) {
	svc, _, _ := newTestContentService()

	for _, topic := range []string{"", "ab", strings.Repeat("x", 201)} {
		if _, err := svc.GenerateTweet(context.Background(), "user-1", GenerateRequest{Topic: topic}); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("topic %q should wrap ErrValidation, got %v", topic, err)
		}
	}
}

func TestGenerate_BadStyleAndLanguage(t *testing.T) {
	svc, _, _ := newTestContentService()

	_, err := svc.GenerateTweet(context.Background(), "user-1", GenerateRequest{Topic: "valid topic", Style: "sarcastic"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("unknown style should wrap ErrValidation, got %v", err)
	}

	_, err = svc.GenerateTweet(context.Background(), "user-1", GenerateRequest{Topic: "valid topic", Language: "jp"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("unsupported language should wrap ErrValidation, got %v", err)
	}
}

func TestGenerate_DefaultStylePerMode(t *testing.T) {
	svc, gen, _ := newTestContentService()

	if _, err := svc.GenerateTweet(context.Background(), "user-1", GenerateRequest{Topic: "valid topic"}); err != nil {
		t.Fatalf("GenerateTweet() error = %v", err)
	}
	if gen.lastStyle != "engaging" {
		t.Errorf("tweet default style = %q, want engaging", gen.lastStyle)
	}

	if _, err := svc.GenerateThread(context.Background(), "user-1", GenerateRequest{Topic: "valid topic"}); err != nil {
		t.Fatalf("GenerateThread() error = %v", err)
	}
	if gen.lastStyle != "informative" {
		t.Errorf("thread default style = %q, want informative", gen.lastStyle)
	}

	if _, err := svc.GenerateReply(context.Background(), "user-1", GenerateRequest{Topic: "some tweet"}); err != nil {
		t.Fatalf("GenerateReply() error = %v", err)
	}
	if gen.lastStyle != "helpful" {
		t.Errorf("reply default style = %q, want helpful", gen.lastStyle)
	}
}

func TestGenerateThread_TweetCountBounds(t *testing.T) {
	svc, _, logs := newTestContentService()

	for _, n := range []int{-1, 26} {
		req := GenerateRequest{Topic: "valid topic", NumTweets: n}
		if _, err := svc.GenerateThread(context.Background(), "user-1", req); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("numTweets %d should wrap ErrValidation, got %v", n, err)
		}
	}

	// Zero means the default of 3.
	entry, err := svc.GenerateThread(context.Background(), "user-1", GenerateRequest{Topic: "valid topic"})
	if err != nil {
		t.Fatalf("GenerateThread() error = %v", err)
	}
	if entry.Mode != model.ModeThread {
		t.Errorf("mode = %q, want thread", entry.Mode)
	}
	if got := strings.Count(entry.GeneratedText, "\n\n") + 1; got != 3 {
		t.Errorf("default thread has %d tweets, want 3", got)
	}
	if len(logs.logs) != 1 {
		t.Errorf("history has %d entries, want 1", len(logs.logs))
	}
}

func TestGenerateReply(t *testing.T) {
	svc, _, _ := newTestContentService()

	entry, err := svc.GenerateReply(context.Background(), "user-1", GenerateRequest{Topic: "hot take", Style: "helpful"})
	if err != nil {
		t.Fatalf("GenerateReply() error = %v", err)
	}
	if entry.Mode != model.ModeReply {
		t.Errorf("mode = %q, want reply", entry.Mode)
	}

	if _, err := svc.GenerateReply(context.Background(), "user-1", GenerateRequest{}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty reply target should wrap ErrValidation, got %v", err)
	}
}

func TestGenerate_GeneratorFailureNotLogged(t *testing.T) {
	svc, gen, logs := newTestContentService()
	gen.err = errors.New("api down")

	if _, err := svc.GenerateTweet(context.Background(), "user-1", GenerateRequest{Topic: "valid topic"}); err == nil {
		t.Fatal("GenerateTweet() should surface generator failure")
	}
	if len(logs.logs) != 0 {
		t.Errorf("failed generation must not be logged, history has %d entries", len(logs.logs))
	}
}

func TestHistory_ModeFilter(t *testing.T) {
	svc, _, _ := newTestContentService()

	if _, err := svc.GenerateTweet(context.Background(), "user-1", GenerateRequest{Topic: "topic one"}); err != nil {
		t.Fatalf("GenerateTweet() error = %v", err)
	}
	if _, err := svc.GenerateThread(context.Background(), "user-1", GenerateRequest{Topic: "topic two"}); err != nil {
		t.Fatalf("GenerateThread() error = %v", err)
	}

	threads, err := svc.History(context.Background(), "user-1", repository.ListOptions{Mode: model.ModeThread})
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(threads) != 1 {
		t.Errorf("History(thread) has %d entries, want 1", len(threads))
	}

	if _, err := svc.History(context.Background(), "user-1", repository.ListOptions{Mode: "bogus"}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("bogus mode should wrap ErrValidation, got %v", err)
	}
}
