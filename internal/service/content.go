package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/content"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
)

// Generator produces tweet text. Implemented by content.Generator; mocked in
// tests.
type Generator interface {
	Tweet(ctx context.Context, topic, style, language, userContext string) (*content.Result, error)
	Thread(ctx context.Context, topic, style, language string, numTweets int) (*content.Result, error)
	Reply(ctx context.Context, original, style, language, userContext string) (*content.Result, error)
}

// ContentService validates generation requests, calls the generator and
// records every generation in the history log.
type ContentService struct {
	generator Generator
	logs      repository.ContentLogRepository
	logger    *slog.Logger
}

// NewContentService creates a ContentService.
func NewContentService(generator Generator, logs repository.ContentLogRepository, logger *slog.Logger) *ContentService {
	return &ContentService{generator: generator, logs: logs, logger: logger}
}

// GenerateRequest is a validated generation request. Style defaults per mode,
// Language falls back to "en", NumTweets (threads only) falls back to 3.
// UserContext optionally tells the model who it is writing as.
type GenerateRequest struct {
	Topic       string
	Style       string
	Language    string
	UserContext string
	NumTweets   int
}

func (r *GenerateRequest) normalize(needsTopic bool, defaultStyle string) error {
	r.Topic = strings.TrimSpace(r.Topic)
	r.UserContext = strings.TrimSpace(r.UserContext)
	if needsTopic {
		n := utf8.RuneCountInString(r.Topic)
		if n < 3 || n > 200 {
			return apperror.ValidationFailed("topic", "must be 3-200 characters")
		}
	} else if r.Topic == "" {
		return apperror.ValidationFailed("tweet", "must not be empty")
	}

	if r.Style == "" {
		r.Style = defaultStyle
	}
	if !content.SupportedStyle(r.Style) {
		return apperror.ValidationFailed("style", "unknown style")
	}

	if r.Language == "" {
		r.Language = "en"
	}
	if !content.SupportedLanguage(r.Language) {
		return apperror.ValidationFailed("language", "unsupported language")
	}

	if r.NumTweets == 0 {
		r.NumTweets = 3
	}
	if r.NumTweets < 1 || r.NumTweets > 25 {
		return apperror.ValidationFailed("num_tweets", "must be between 1 and 25")
	}

	return nil
}

// GenerateTweet produces a single tweet about req.Topic.
func (s *ContentService) GenerateTweet(ctx context.Context, userID string, req GenerateRequest) (*model.ContentLog, error) {
	if err := req.normalize(true, "engaging"); err != nil {
		return nil, err
	}

	res, err := s.generator.Tweet(ctx, req.Topic, req.Style, req.Language, req.UserContext)
	if err != nil {
		return nil, fmt.Errorf("service/content: generating tweet: %w", err)
	}

	return s.record(ctx, userID, model.ModeNewTweet, res)
}

// GenerateThread produces a thread of req.NumTweets tweets about req.Topic.
func (s *ContentService) GenerateThread(ctx context.Context, userID string, req GenerateRequest) (*model.ContentLog, error) {
	if err := req.normalize(true, "informative"); err != nil {
		return nil, err
	}

	res, err := s.generator.Thread(ctx, req.Topic, req.Style, req.Language, req.NumTweets)
	if err != nil {
		return nil, fmt.Errorf("service/content: generating thread: %w", err)
	}

	return s.record(ctx, userID, model.ModeThread, res)
}

// GenerateReply produces a reply to the tweet text in req.Topic.
func (s *ContentService) GenerateReply(ctx context.Context, userID string, req GenerateRequest) (*model.ContentLog, error) {
	if err := req.normalize(false, "helpful"); err != nil {
		return nil, err
	}

	res, err := s.generator.Reply(ctx, req.Topic, req.Style, req.Language, req.UserContext)
	if err != nil {
		return nil, fmt.Errorf("service/content: generating reply: %w", err)
	}

	return s.record(ctx, userID, model.ModeReply, res)
}

// History returns the user's past generations, newest first, optionally
// filtered by mode.
func (s *ContentService) History(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ContentLog, error) {
	if opts.Mode != "" && !model.ValidContentMode(opts.Mode) {
		return nil, apperror.ValidationFailed("mode", "unknown generation mode")
	}

	logs, err := s.logs.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/content: listing history: %w", err)
	}
	return logs, nil
}

// record writes the generation to the history log and returns the entry.
func (s *ContentService) record(ctx context.Context, userID, mode string, res *content.Result) (*model.ContentLog, error) {
	entry := &model.ContentLog{
		UserID:        userID,
		Prompt:        res.Prompt,
		GeneratedText: res.Content,
		Mode:          mode,
		TokensUsed:    res.TokensUsed,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("service/content: recording generation: %w", err)
	}

	s.logger.Info("content generated",
		slog.String("userID", userID),
		slog.String("mode", mode),
		slog.Int("tokensUsed", res.TokensUsed),
	)
	return entry, nil
}
