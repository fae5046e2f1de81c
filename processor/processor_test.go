package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yt2x/logger"
	"yt2x/ratelimit"
	"yt2x/types"
	"yt2x/video"
)

type fakeProber struct {
	status types.LiveStatus
	err    error
}

func (f *fakeProber) LiveStatus(context.Context, string) (types.LiveStatus, error) {
	return f.status, f.err
}

type fakeAcquirer struct {
	failures int
	err      error
	calls    int
	statuses []types.LiveStatus
}

func (f *fakeAcquirer) Acquire(_ context.Context, _ string, status types.LiveStatus, _ time.Duration, dest string) error {
	f.calls++
	f.statuses = append(f.statuses, status)
	if err := os.WriteFile(dest, []byte("partial"), 0o644); err != nil {
		return err
	}
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

type fakeTranscoder struct {
	err   error
	calls int
}

func (f *fakeTranscoder) Transcode(_ context.Context, _, dst string, _ time.Duration) error {
	f.calls++
	if err := os.WriteFile(dst, []byte("clip"), 0o644); err != nil {
		return err
	}
	return f.err
}

type fakeInstaller struct{ err error }

func (f fakeInstaller) EnsureInstalled(context.Context) error { return f.err }

type sleepRecorder struct {
	delays []time.Duration
	err    error
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

func newTestProcessor(t *testing.T, prober *fakeProber, acq *fakeAcquirer, tc *fakeTranscoder, sl *sleepRecorder) *Processor {
	t.Helper()
	return &Processor{
		Prober:       prober,
		Acquirer:     acq,
		Transcoder:   tc,
		WorkDir:      t.TempDir(),
		ClipDuration: 90 * time.Second,
		MaxRetries:   2,
		RetryDelay:   time.Minute,
		Sleep:        sl.sleep,
		Logger:       logger.Discard(),
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestProcessSuccess(t *testing.T) {
	acq := &fakeAcquirer{}
	tc := &fakeTranscoder{}
	p := newTestProcessor(t, &fakeProber{status: types.StatusNotLive}, acq, tc, &sleepRecorder{})

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%s)", out.Kind, out.Reason)
	}
	if out.Artifact.Raw != filepath.Join(p.WorkDir, "abc.mp4") || out.Artifact.Clip != filepath.Join(p.WorkDir, "abc.clip.mp4") {
		t.Errorf("unexpected artifact paths: %+v", out.Artifact)
	}
	if !exists(out.Artifact.Raw) || !exists(out.Artifact.Clip) {
		t.Error("expected both files to be left for the caller")
	}
}

func TestProcessUpcomingDefersWithoutFiles(t *testing.T) {
	acq := &fakeAcquirer{}
	p := newTestProcessor(t, &fakeProber{status: types.StatusIsUpcoming}, acq, &fakeTranscoder{}, &sleepRecorder{})

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeDefer {
		t.Fatalf("expected defer, got %s", out.Kind)
	}
	if acq.calls != 0 {
		t.Errorf("expected no acquisition, got %d calls", acq.calls)
	}
	entries, _ := os.ReadDir(p.WorkDir)
	if len(entries) != 0 {
		t.Errorf("expected no files, found %d", len(entries))
	}
}

func TestProcessUnknownStatusAcquiresAsClip(t *testing.T) {
	acq := &fakeAcquirer{}
	p := newTestProcessor(t, &fakeProber{err: errors.New("tool hiccup")}, acq, &fakeTranscoder{}, &sleepRecorder{})

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeSuccess {
		t.Fatalf("expected success, got %s", out.Kind)
	}
	if acq.statuses[0] != types.StatusUnknown {
		t.Errorf("expected unknown status passed through, got %q", acq.statuses[0])
	}
}

func TestProcessRetriesAcquisition(t *testing.T) {
	acq := &fakeAcquirer{failures: 2, err: errors.New("http 403")}
	sl := &sleepRecorder{}
	p := newTestProcessor(t, &fakeProber{status: types.StatusNotLive}, acq, &fakeTranscoder{}, sl)

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeSuccess {
		t.Fatalf("expected success on third attempt, got %s", out.Kind)
	}
	if acq.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", acq.calls)
	}
	if len(sl.delays) != 2 || sl.delays[0] != time.Minute {
		t.Errorf("expected two one-minute waits, got %v", sl.delays)
	}
}

func TestProcessAcquisitionExhausted(t *testing.T) {
	acq := &fakeAcquirer{failures: 10, err: errors.New("http 403")}
	tc := &fakeTranscoder{}
	p := newTestProcessor(t, &fakeProber{status: types.StatusNotLive}, acq, tc, &sleepRecorder{})

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeFailure {
		t.Fatalf("expected failure, got %s", out.Kind)
	}
	if !errors.Is(out.Err, ErrAcquisitionFailed) || !errors.Is(out.Err, acq.err) {
		t.Errorf("expected wrapped acquisition error, got %v", out.Err)
	}
	if acq.calls != 3 {
		t.Errorf("expected MaxRetries+1 attempts, got %d", acq.calls)
	}
	if tc.calls != 0 {
		t.Error("transcode should not run after failed acquisition")
	}
	if exists(filepath.Join(p.WorkDir, "abc.mp4")) {
		t.Error("partial download should be removed")
	}
}

func TestProcessRetryWaitCancelled(t *testing.T) {
	acq := &fakeAcquirer{failures: 10, err: errors.New("boom")}
	sl := &sleepRecorder{err: context.Canceled}
	p := newTestProcessor(t, &fakeProber{status: types.StatusNotLive}, acq, &fakeTranscoder{}, sl)

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeFailure || !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("expected cancelled failure, got %s %v", out.Kind, out.Err)
	}
	if acq.calls != 1 {
		t.Errorf("expected one attempt before cancellation, got %d", acq.calls)
	}
}

func TestProcessConversionFailure(t *testing.T) {
	tc := &fakeTranscoder{err: errors.New("bad codec")}
	p := newTestProcessor(t, &fakeProber{status: types.StatusWasLive}, &fakeAcquirer{}, tc, &sleepRecorder{})

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeFailure || !errors.Is(out.Err, ErrConversionFailed) {
		t.Fatalf("expected conversion failure, got %s %v", out.Kind, out.Err)
	}
	if tc.calls != 1 {
		t.Errorf("conversion must not be retried, got %d calls", tc.calls)
	}
	art := p.Paths("abc")
	if exists(art.Raw) || exists(art.Clip) {
		t.Error("expected partial files removed")
	}
}

func TestProcessLiveCapture(t *testing.T) {
	acq := &fakeAcquirer{}
	p := newTestProcessor(t, &fakeProber{status: types.StatusIsLive}, acq, &fakeTranscoder{}, &sleepRecorder{})

	if out := p.Process(context.Background(), types.FeedItem{ID: "abc"}); out.Kind != types.OutcomeSuccess {
		t.Fatalf("expected success, got %s", out.Kind)
	}
	if acq.statuses[0] != types.StatusIsLive {
		t.Errorf("expected live strategy, got %q", acq.statuses[0])
	}
}

func TestProcessSkipsWhenToolUnavailable(t *testing.T) {
	acq := &fakeAcquirer{}
	p := newTestProcessor(t, &fakeProber{status: types.StatusNotLive}, acq, &fakeTranscoder{}, &sleepRecorder{})
	p.Installer = fakeInstaller{err: errors.New("not found")}

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeSkip {
		t.Fatalf("expected skip, got %s", out.Kind)
	}
	if acq.calls != 0 {
		t.Error("expected no acquisition")
	}
}

func TestProcessRateLimitedStatusSkipsWithoutFiles(t *testing.T) {
	acq := &fakeAcquirer{}
	limited := ratelimit.RateLimited("youtube", time.Time{}, errors.New("quotaExceeded"))
	p := newTestProcessor(t, &fakeProber{err: limited}, acq, &fakeTranscoder{}, &sleepRecorder{})

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeSkip {
		t.Fatalf("expected skip, got %s", out.Kind)
	}
	if acq.calls != 0 {
		t.Errorf("expected no acquisition, got %d calls", acq.calls)
	}
	entries, _ := os.ReadDir(p.WorkDir)
	if len(entries) != 0 {
		t.Errorf("expected no files, found %d", len(entries))
	}
}

func TestProcessDefersUpcomingWhenAPIQuotaExhausted(t *testing.T) {
	acq := &fakeAcquirer{}
	prober := &video.FallbackProber{
		Primary:   &fakeProber{err: ratelimit.RateLimited("youtube", time.Time{}, errors.New("quotaExceeded"))},
		Secondary: &fakeProber{status: types.StatusIsUpcoming},
		Logger:    logger.Discard(),
	}
	p := newTestProcessor(t, &fakeProber{}, acq, &fakeTranscoder{}, &sleepRecorder{})
	p.Prober = prober

	out := p.Process(context.Background(), types.FeedItem{ID: "abc"})
	if out.Kind != types.OutcomeDefer {
		t.Fatalf("expected defer, got %s", out.Kind)
	}
	if acq.calls != 0 {
		t.Errorf("expected no acquisition, got %d calls", acq.calls)
	}
}
