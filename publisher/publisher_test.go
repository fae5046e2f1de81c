package publisher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"yt2x/logger"
	"yt2x/ratelimit"
	"yt2x/types"
)

type post struct {
	text     string
	mediaIDs []string
}

type fakeClient struct {
	uploadErr error
	statuses  []types.MediaStatus
	statusErr error
	postErrs  []error

	statusCalls int
	posts       []post
}

func (f *fakeClient) UploadMedia(context.Context, string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "m1", nil
}

func (f *fakeClient) MediaStatus(context.Context, string) (types.MediaStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return types.MediaStatus{}, f.statusErr
	}
	if len(f.statuses) == 0 {
		return types.MediaStatus{State: types.MediaSucceeded}, nil
	}
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return s, nil
}

func (f *fakeClient) CreatePost(_ context.Context, text string, mediaIDs []string) (string, error) {
	f.posts = append(f.posts, post{text: text, mediaIDs: mediaIDs})
	if len(f.postErrs) > 0 {
		err := f.postErrs[0]
		f.postErrs = f.postErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return "p1", nil
}

type sleeps struct{ delays []time.Duration }

func (s *sleeps) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestPublisher(c *fakeClient, s *sleeps) *Publisher {
	return &Publisher{client: c, MaxPolls: 40, Sleep: s.sleep, Logger: logger.Discard()}
}

var item = types.FeedItem{ID: "abc", Title: "New video"}

func TestCaption(t *testing.T) {
	want := "New video\n\nWatch full on YouTube: https://youtu.be/abc"
	if got := Caption(item); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	long := types.FeedItem{ID: "abc", Title: strings.Repeat("a", 300)}
	if got := Caption(long); !strings.HasPrefix(got, strings.Repeat("a", 197)+"...\n\n") {
		t.Errorf("expected truncated title, got %q", got)
	}

	linked := types.FeedItem{ID: "3f2a9c0d11aa22bb", Title: "Post", URL: "https://example.com/watch/42"}
	if got := Caption(linked); !strings.HasSuffix(got, "Watch full on YouTube: https://example.com/watch/42") {
		t.Errorf("expected derived URL in caption, got %q", got)
	}
}

func TestPublishWithMedia(t *testing.T) {
	c := &fakeClient{statuses: []types.MediaStatus{
		{State: types.MediaPending},
		{State: types.MediaInProgress, CheckAfter: 30 * time.Second},
		{State: types.MediaSucceeded},
	}}
	s := &sleeps{}

	res, err := newTestPublisher(c, s).Publish(context.Background(), item, "clip.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PostID != "p1" || res.Fallback || res.DryRun {
		t.Errorf("unexpected result %+v", res)
	}
	if len(c.posts) != 1 || len(c.posts[0].mediaIDs) != 1 || c.posts[0].mediaIDs[0] != "m1" {
		t.Errorf("expected one post with media, got %+v", c.posts)
	}
	if len(s.delays) != 2 || s.delays[0] != 2*time.Second || s.delays[1] != 10*time.Second {
		t.Errorf("expected default then capped delay, got %v", s.delays)
	}
}

func TestPublishDryRun(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c, &sleeps{})
	p.DryRun = true

	res, err := p.Publish(context.Background(), item, "clip.mp4")
	if err != nil || !res.DryRun {
		t.Fatalf("expected dry-run success, got %+v %v", res, err)
	}
	if len(c.posts) != 0 || c.statusCalls != 0 {
		t.Error("dry run must not call the API")
	}
}

func TestPublishMediaFailedWithoutFallback(t *testing.T) {
	c := &fakeClient{statuses: []types.MediaStatus{{State: types.MediaFailed, Error: "bad codec"}}}

	_, err := newTestPublisher(c, &sleeps{}).Publish(context.Background(), item, "clip.mp4")
	if !errors.Is(err, ErrPublishFailed) || !errors.Is(err, ErrMediaProcessingFailed) {
		t.Fatalf("expected wrapped media failure, got %v", err)
	}
	if len(c.posts) != 0 {
		t.Error("no post expected")
	}
}

func TestPublishMediaTimeout(t *testing.T) {
	c := &fakeClient{statuses: []types.MediaStatus{{State: types.MediaInProgress}}}
	p := newTestPublisher(c, &sleeps{})
	p.MaxPolls = 3

	_, err := p.Publish(context.Background(), item, "clip.mp4")
	if !errors.Is(err, ErrMediaProcessingTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if c.statusCalls != 3 {
		t.Errorf("expected 3 status checks, got %d", c.statusCalls)
	}
}

func TestPublishFallback(t *testing.T) {
	c := &fakeClient{uploadErr: errors.New("upload rejected")}
	p := newTestPublisher(c, &sleeps{})
	p.AllowLinkFallback = true

	res, err := p.Publish(context.Background(), item, "clip.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Fallback || res.PostID != "p1" {
		t.Errorf("expected fallback result, got %+v", res)
	}
	if len(c.posts) != 1 || c.posts[0].mediaIDs != nil || c.posts[0].text != Caption(item) {
		t.Errorf("expected one text-only post, got %+v", c.posts)
	}
}

func TestPublishFallbackFails(t *testing.T) {
	postErr := errors.New("duplicate content")
	c := &fakeClient{postErrs: []error{postErr, errors.New("still no")}}
	p := newTestPublisher(c, &sleeps{})
	p.AllowLinkFallback = true

	_, err := p.Publish(context.Background(), item, "clip.mp4")
	if !errors.Is(err, ErrPublishFailed) || !errors.Is(err, postErr) {
		t.Fatalf("expected publish failure, got %v", err)
	}
	if len(c.posts) != 2 {
		t.Errorf("expected media post and one fallback attempt, got %d", len(c.posts))
	}
}

func TestPublishRateLimitedSkipsFallback(t *testing.T) {
	limited := ratelimit.RateLimited("x", time.Unix(1700000000, 0), errors.New("429"))
	c := &fakeClient{statusErr: limited}
	p := newTestPublisher(c, &sleeps{})
	p.AllowLinkFallback = true

	_, err := p.Publish(context.Background(), item, "clip.mp4")
	if !ratelimit.IsRateLimited(err) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}
	if errors.Is(err, ErrPublishFailed) {
		t.Error("rate limit should propagate untouched")
	}
	if len(c.posts) != 0 {
		t.Error("rate limit must not trigger fallback post")
	}
}
