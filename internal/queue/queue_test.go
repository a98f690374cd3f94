package queue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tokolink/internal/domain"
	"tokolink/internal/publish"
	"tokolink/internal/storage"
)

type fakeLister struct {
	products map[string][]domain.Product
	err      error
	delay    time.Duration
}

func (f *fakeLister) ListByCategory(ctx context.Context, ownerID, categoryID string) ([]domain.Product, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.products[ownerID+"/"+categoryID], nil
}

type fakeComposer struct {
	mu         sync.Mutex
	err        error
	started    []string
	inFlight   int32
	maxFlight  int32
	createFile bool
	block      chan struct{}
}

func (f *fakeComposer) Compose(ctx context.Context, imageURLs []string, audioURL, outputPath string, opts domain.RenderOptions) error {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxFlight, max, cur) {
			break
		}
	}

	f.mu.Lock()
	f.started = append(f.started, outputPath)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.block:
		}
	}
	if f.err != nil {
		return f.err
	}
	if f.createFile {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return err
		}
		return os.WriteFile(outputPath, []byte("video"), 0o644)
	}
	return nil
}

type fakePublisher struct {
	upload publish.Upload
	err    error
	calls  int32
}

func (f *fakePublisher) Upload(ctx context.Context, localPath string) (publish.Upload, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return publish.Upload{}, f.err
	}
	return f.upload, nil
}

func oneProduct(urls ...string) []domain.Product {
	return []domain.Product{{ID: "p1", MediaURLs: urls}}
}

func newTestQueue(t *testing.T, lister domain.ProductLister, composer Composer, publisher publish.Publisher) *Queue {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	q := New(lister, composer, publisher, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	q.Start(ctx)
	return q
}

func waitForTerminal(t *testing.T, q *Queue, id string) domain.VideoJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := q.Get(id); ok && job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := q.Get(id)
	t.Fatalf("job %s never reached a terminal state, last status %q", id, job.Status)
	return domain.VideoJob{}
}

func TestAdd_ReturnsBeforeCompletion(t *testing.T) {
	block := make(chan struct{})
	composer := &fakeComposer{block: block}
	lister := &fakeLister{products: map[string][]domain.Product{
		"o/c": oneProduct("https://img/1.jpg"),
	}}
	q := newTestQueue(t, lister, composer, nil)

	id := q.Add("o", "c", domain.RenderOptions{})
	job, ok := q.Get(id)
	if !ok {
		t.Fatal("job must be visible immediately after Add")
	}
	if job.Status.Terminal() {
		t.Fatalf("job must not be terminal right after Add, got %q", job.Status)
	}

	close(block)
	done := waitForTerminal(t, q, id)
	if done.Status != domain.JobStatusCompleted {
		t.Fatalf("status: got %q, want COMPLETED (err %q)", done.Status, done.Error)
	}
}

func TestJob_CompletesWithLocalStaticURL(t *testing.T) {
	composer := &fakeComposer{createFile: true}
	lister := &fakeLister{products: map[string][]domain.Product{
		"o/c": oneProduct("https://img/1.jpg", "https://img/2.jpg"),
	}}
	q := newTestQueue(t, lister, composer, nil)

	id := q.Add("o", "c", domain.RenderOptions{SlideDuration: 2})
	job := waitForTerminal(t, q, id)

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status: got %q, want COMPLETED (err %q)", job.Status, job.Error)
	}
	want := "http://localhost:8080/static/generated/videos/" + id + ".mp4"
	if job.VideoURL != want {
		t.Fatalf("video url: got %q, want %q", job.VideoURL, want)
	}
	if job.Progress != 100 {
		t.Fatalf("progress: got %d, want 100", job.Progress)
	}
	if job.Error != "" {
		t.Fatalf("completed job must carry no error, got %q", job.Error)
	}
}

func TestJob_PublishesRemotelyAndRemovesLocalFile(t *testing.T) {
	composer := &fakeComposer{createFile: true}
	lister := &fakeLister{products: map[string][]domain.Product{
		"o/c": oneProduct("https://img/1.jpg"),
	}}
	publisher := &fakePublisher{upload: publish.Upload{
		URL:      "https://cdn.example.com/videos/out.mp4",
		RemoteID: "videos/out.mp4",
	}}
	q := newTestQueue(t, lister, composer, publisher)

	id := q.Add("o", "c", domain.RenderOptions{})
	job := waitForTerminal(t, q, id)

	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status: got %q, want COMPLETED (err %q)", job.Status, job.Error)
	}
	if job.VideoURL != publisher.upload.URL || job.RemoteID != publisher.upload.RemoteID {
		t.Fatalf("remote result not recorded: %+v", job)
	}
	composer.mu.Lock()
	localPath := composer.started[0]
	composer.mu.Unlock()
	if _, err := os.Stat(localPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("local file must be deleted after publish, stat err %v", err)
	}
}

func TestJob_FailsWhenCategoryEmpty(t *testing.T) {
	q := newTestQueue(t, &fakeLister{}, &fakeComposer{}, nil)

	id := q.Add("o", "empty", domain.RenderOptions{})
	job := waitForTerminal(t, q, id)

	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status: got %q, want FAILED", job.Status)
	}
	if !strings.Contains(job.Error, "No products in this category") {
		t.Fatalf("error: got %q", job.Error)
	}
	if job.VideoURL != "" {
		t.Fatalf("failed job must carry no video url, got %q", job.VideoURL)
	}
}

func TestJob_FailsWhenProductsHaveNoImages(t *testing.T) {
	lister := &fakeLister{products: map[string][]domain.Product{
		"o/c": {{ID: "p1"}, {ID: "p2"}},
	}}
	q := newTestQueue(t, lister, &fakeComposer{}, nil)

	id := q.Add("o", "c", domain.RenderOptions{})
	job := waitForTerminal(t, q, id)

	if job.Status != domain.JobStatusFailed || !strings.Contains(job.Error, "No product images found") {
		t.Fatalf("got status %q error %q", job.Status, job.Error)
	}
}

func TestJob_ComposerFailureRecordedVerbatim(t *testing.T) {
	composer := &fakeComposer{err: errors.New("ffmpeg failed: exit status 1: filter parse error")}
	lister := &fakeLister{products: map[string][]domain.Product{
		"o/c": oneProduct("https://img/1.jpg"),
	}}
	q := newTestQueue(t, lister, composer, nil)

	id := q.Add("o", "c", domain.RenderOptions{})
	job := waitForTerminal(t, q, id)

	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status: got %q, want FAILED", job.Status)
	}
	if job.Error != composer.err.Error() {
		t.Fatalf("error: got %q, want %q", job.Error, composer.err)
	}
}

func TestJob_PublishFailureFailsJob(t *testing.T) {
	composer := &fakeComposer{createFile: true}
	lister := &fakeLister{products: map[string][]domain.Product{
		"o/c": oneProduct("https://img/1.jpg"),
	}}
	publisher := &fakePublisher{err: errors.New("bucket unreachable")}
	q := newTestQueue(t, lister, composer, publisher)

	id := q.Add("o", "c", domain.RenderOptions{})
	job := waitForTerminal(t, q, id)

	if job.Status != domain.JobStatusFailed || !strings.Contains(job.Error, "bucket unreachable") {
		t.Fatalf("got status %q error %q", job.Status, job.Error)
	}
}

func TestQueue_FIFOAndSingleWorker(t *testing.T) {
	// The first job resolves its products slowly; FIFO means the second
	// still starts only after the first terminates.
	lister := &fakeLister{
		delay: 50 * time.Millisecond,
		products: map[string][]domain.Product{
			"o/a": oneProduct("https://img/a.jpg"),
			"o/b": oneProduct("https://img/b.jpg"),
		},
	}
	composer := &fakeComposer{}
	q := newTestQueue(t, lister, composer, nil)

	idA := q.Add("o", "a", domain.RenderOptions{})
	idB := q.Add("o", "b", domain.RenderOptions{})

	jobA := waitForTerminal(t, q, idA)
	jobB := waitForTerminal(t, q, idB)
	if jobA.Status != domain.JobStatusCompleted || jobB.Status != domain.JobStatusCompleted {
		t.Fatalf("expected both completed, got %q / %q", jobA.Status, jobB.Status)
	}

	composer.mu.Lock()
	defer composer.mu.Unlock()
	if len(composer.started) != 2 {
		t.Fatalf("expected 2 compose calls, got %d", len(composer.started))
	}
	if !strings.Contains(composer.started[0], idA) || !strings.Contains(composer.started[1], idB) {
		t.Fatalf("jobs ran out of order: %v", composer.started)
	}
	if max := atomic.LoadInt32(&composer.maxFlight); max != 1 {
		t.Fatalf("more than one job processed concurrently: %d", max)
	}
}

func TestQueue_TerminalStatesAreFinal(t *testing.T) {
	q := newTestQueue(t, &fakeLister{}, &fakeComposer{}, nil)

	id := q.Add("o", "c", domain.RenderOptions{})
	first := waitForTerminal(t, q, id)

	time.Sleep(20 * time.Millisecond)
	second, _ := q.Get(id)
	if first.Status != second.Status || first.Error != second.Error {
		t.Fatalf("terminal state changed: %+v -> %+v", first, second)
	}
}

func TestGet_UnknownJob(t *testing.T) {
	q := newTestQueue(t, &fakeLister{}, &fakeComposer{}, nil)
	if _, ok := q.Get("nope"); ok {
		t.Fatal("unknown id must not resolve")
	}
}

func TestAdd_FreezesNormalizedOptions(t *testing.T) {
	q := newTestQueue(t, &fakeLister{}, &fakeComposer{}, nil)

	id := q.Add("o", "c", domain.RenderOptions{Transition: "whoosh", SlideDuration: -1})
	job, _ := q.Get(id)

	if job.Options.Transition != domain.TransitionFade {
		t.Fatalf("transition: got %q, want fade", job.Options.Transition)
	}
	if job.Options.SlideDuration != domain.DefaultSlideDuration {
		t.Fatalf("slide duration: got %v", job.Options.SlideDuration)
	}
}
