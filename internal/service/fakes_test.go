package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/content"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/repository"
	"github.com/mhasan/tweetpilot/internal/twitter"
)

// The service tests use in-memory fakes rather than a mock framework: each
// fake is a map plus optional injected errors, and what it does is visible
// right here.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// fakeUserRepo

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int

	createErr error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) add(user *model.User) *model.User {
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", "username already taken")
		}
		if u.Email != "" && u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
	}
	f.add(user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByTwitterID(ctx context.Context, twitterID string) (*model.User, error) {
	for _, u := range f.users {
		if u.TwitterUserID == twitterID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", twitterID)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	user.UpdatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

// ---------------------------------------------------------------------------
// fakePostRepo

type fakePostRepo struct {
	posts  map[string]*model.Post
	nextID int

	totals *model.EngagementTotals
	daily  []model.DailyEngagement
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*model.Post), nextID: 1}
}

func (f *fakePostRepo) Create(ctx context.Context, post *model.Post) error {
	post.ID = fmt.Sprintf("post-%d", f.nextID)
	f.nextID++
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id, userID string) (*model.Post, error) {
	p, ok := f.posts[id]
	if !ok || p.UserID != userID {
		return nil, apperror.NotFound("post", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostRepo) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	out := []model.Post{}
	for _, p := range f.posts {
		if p.UserID != userID {
			continue
		}
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePostRepo) Update(ctx context.Context, post *model.Post) error {
	existing, ok := f.posts[post.ID]
	if !ok || existing.UserID != post.UserID {
		return apperror.NotFound("post", post.ID)
	}
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakePostRepo) Delete(ctx context.Context, id, userID string) error {
	p, ok := f.posts[id]
	if !ok || p.UserID != userID {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) EngagementTotals(ctx context.Context, userID string) (*model.EngagementTotals, error) {
	if f.totals != nil {
		return f.totals, nil
	}
	totals := &model.EngagementTotals{}
	for _, p := range f.posts {
		if p.UserID != userID {
			continue
		}
		totals.Posts++
		totals.Likes += p.LikesCount
		totals.Retweets += p.RetweetsCount
		totals.Replies += p.RepliesCount
	}
	return totals, nil
}

func (f *fakePostRepo) TopByEngagement(ctx context.Context, userID string, n int) ([]model.Post, error) {
	all, _ := f.List(ctx, userID, repository.ListOptions{})
	// Selection sort is plenty for test-sized data.
	for i := 0; i < len(all); i++ {
		best := i
		for j := i + 1; j < len(all); j++ {
			if all[j].LikesCount+all[j].RetweetsCount > all[best].LikesCount+all[best].RetweetsCount {
				best = j
			}
		}
		all[i], all[best] = all[best], all[i]
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (f *fakePostRepo) DailyEngagement(ctx context.Context, userID string, since time.Time) ([]model.DailyEngagement, error) {
	return f.daily, nil
}

var _ repository.PostRepository = (*fakePostRepo)(nil)

// ---------------------------------------------------------------------------
// fakeScheduledRepo

type fakeScheduledRepo struct {
	posts  map[string]*model.ScheduledPost
	nextID int

	// claimDenied makes every ClaimPending lose, as if a competing publisher
	// always got to the row first.
	claimDenied bool
}

func newFakeScheduledRepo() *fakeScheduledRepo {
	return &fakeScheduledRepo{posts: make(map[string]*model.ScheduledPost), nextID: 1}
}

func (f *fakeScheduledRepo) Create(ctx context.Context, post *model.ScheduledPost) error {
	post.ID = fmt.Sprintf("sched-%d", f.nextID)
	f.nextID++
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Status == "" {
		post.Status = model.ScheduledStatusPending
	}
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakeScheduledRepo) GetByID(ctx context.Context, id, userID string) (*model.ScheduledPost, error) {
	p, ok := f.posts[id]
	if !ok || p.UserID != userID {
		return nil, apperror.NotFound("scheduled post", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeScheduledRepo) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ScheduledPost, error) {
	out := []model.ScheduledPost{}
	for _, p := range f.posts {
		if p.UserID != userID {
			continue
		}
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeScheduledRepo) Update(ctx context.Context, post *model.ScheduledPost) error {
	existing, ok := f.posts[post.ID]
	if !ok || existing.UserID != post.UserID {
		return apperror.NotFound("scheduled post", post.ID)
	}
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakeScheduledRepo) Delete(ctx context.Context, id, userID string) error {
	p, ok := f.posts[id]
	if !ok || p.UserID != userID {
		return apperror.NotFound("scheduled post", id)
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeScheduledRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledPost, error) {
	out := []model.ScheduledPost{}
	for _, p := range f.posts {
		if p.Status == model.ScheduledStatusPending && !p.ScheduledTime.After(now) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeScheduledRepo) ClaimPending(ctx context.Context, id, userID string) (bool, error) {
	if f.claimDenied {
		return false, nil
	}
	p, ok := f.posts[id]
	if !ok || p.UserID != userID || p.Status != model.ScheduledStatusPending {
		return false, nil
	}
	p.Status = model.ScheduledStatusPosted
	p.UpdatedAt = time.Now()
	return true, nil
}

var _ repository.ScheduledPostRepository = (*fakeScheduledRepo)(nil)

// ---------------------------------------------------------------------------
// fakeContentLogRepo

type fakeContentLogRepo struct {
	logs   []model.ContentLog
	nextID int

	createErr error
}

func newFakeContentLogRepo() *fakeContentLogRepo {
	return &fakeContentLogRepo{nextID: 1}
}

func (f *fakeContentLogRepo) Create(ctx context.Context, log *model.ContentLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	log.ID = fmt.Sprintf("log-%d", f.nextID)
	f.nextID++
	log.CreatedAt = time.Now()
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeContentLogRepo) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ContentLog, error) {
	out := []model.ContentLog{}
	for _, l := range f.logs {
		if l.UserID != userID {
			continue
		}
		if opts.Mode != "" && l.Mode != opts.Mode {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

var _ repository.ContentLogRepository = (*fakeContentLogRepo)(nil)

// ---------------------------------------------------------------------------
// fakePoster / fakeGenerator / fakeMetrics

type fakePoster struct {
	calls   int
	lastTxt string
	err     error
}

func (f *fakePoster) PostTweet(ctx context.Context, token, tokenSecret, text string) (string, error) {
	f.calls++
	f.lastTxt = text
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("tweet-%d", f.calls), nil
}

type fakeGenerator struct {
	lastStyle string
	err       error
}

func (f *fakeGenerator) Tweet(ctx context.Context, topic, style, language, userContext string) (*content.Result, error) {
	f.lastStyle = style
	if f.err != nil {
		return nil, f.err
	}
	return &content.Result{
		Content:    "generated tweet about " + topic,
		Prompt:     "tweet prompt: " + topic,
		TokensUsed: 40,
	}, nil
}

func (f *fakeGenerator) Thread(ctx context.Context, topic, style, language string, numTweets int) (*content.Result, error) {
	f.lastStyle = style
	if f.err != nil {
		return nil, f.err
	}
	parts := make([]string, numTweets)
	for i := range parts {
		parts[i] = fmt.Sprintf("%d/ about %s", i+1, topic)
	}
	return &content.Result{
		Content:    strings.Join(parts, "\n\n"),
		Prompt:     "thread prompt: " + topic,
		TokensUsed: 40 * numTweets,
	}, nil
}

func (f *fakeGenerator) Reply(ctx context.Context, original, style, language, userContext string) (*content.Result, error) {
	f.lastStyle = style
	if f.err != nil {
		return nil, f.err
	}
	return &content.Result{
		Content:    "reply to: " + original,
		Prompt:     "reply prompt: " + original,
		TokensUsed: 30,
	}, nil
}

type fakeMetrics struct {
	metrics      *twitter.UserMetrics
	tweetMetrics *twitter.TweetMetrics
	err          error
}

func (f *fakeMetrics) UserMetrics(ctx context.Context, username string) (*twitter.UserMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.metrics, nil
}

func (f *fakeMetrics) TweetMetrics(ctx context.Context, tweetID string) (*twitter.TweetMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tweetMetrics, nil
}
