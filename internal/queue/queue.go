package queue

import (
	"context"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tokolink/internal/domain"
	"tokolink/internal/infra"
	"tokolink/internal/publish"
	"tokolink/internal/storage"
)

// pendingCapacity bounds how many submitted jobs can wait for the worker.
// Submissions past that are failed immediately instead of blocking Add.
const pendingCapacity = 1024

// Composer is the encode contract the queue drives; satisfied by
// *slideshow.Composer.
type Composer interface {
	Compose(ctx context.Context, imageURLs []string, audioURL, outputPath string, opts domain.RenderOptions) error
}

// Queue is the single-worker, FIFO, in-memory slideshow job scheduler.
// Exactly one job is PROCESSING at any time; jobs run in submission order
// and are never retried after failure. The job table is volatile and
// accumulates for the process lifetime.
type Queue struct {
	products  domain.ProductLister
	composer  Composer
	publisher publish.Publisher
	store     *storage.FileStore
	logger    zerolog.Logger

	mu   sync.RWMutex
	jobs map[string]domain.VideoJob

	pending chan string
}

// New constructs a Queue. publisher may be nil, in which case finished
// videos stay on local disk and jobs record the static URL instead.
func New(products domain.ProductLister, composer Composer, publisher publish.Publisher, store *storage.FileStore, logger zerolog.Logger) *Queue {
	return &Queue{
		products:  products,
		composer:  composer,
		publisher: publisher,
		store:     store,
		logger:    logger,
		jobs:      make(map[string]domain.VideoJob),
		pending:   make(chan string, pendingCapacity),
	}
}

// Start launches the worker goroutine. It returns immediately; the worker
// runs until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	go q.run(ctx)
}

// Add records a PENDING job and signals the worker. It never blocks and
// never waits for processing; callers poll Get with the returned id.
func (q *Queue) Add(ownerID, categoryID string, opts domain.RenderOptions) string {
	now := time.Now().UTC()
	job := domain.VideoJob{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Status:     domain.JobStatusPending,
		Options:    opts.Normalize(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	infra.JobsSubmitted.Inc()

	select {
	case q.pending <- job.ID:
	default:
		// Pending backlog full. Fail fast rather than block the caller.
		q.fail(job.ID, fmt.Errorf("job queue is full"))
	}
	return job.ID
}

// Get returns a snapshot of the job, if it exists. It never mutates state.
func (q *Queue) Get(id string) (domain.VideoJob, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[id]
	return job, ok
}

// run is the single worker loop. Serial consumption of the pending channel
// is what guarantees FIFO order and the one-PROCESSING-job invariant.
func (q *Queue) run(ctx context.Context) {
	q.logger.Info().Msg("queue: worker started")
	for {
		select {
		case <-ctx.Done():
			q.logger.Info().Msg("queue: worker stopped")
			return
		case id := <-q.pending:
			q.process(ctx, id)
		}
	}
}

func (q *Queue) process(ctx context.Context, id string) {
	job, ok := q.Get(id)
	if !ok || job.Status != domain.JobStatusPending {
		// Already failed at submission time, or unknown. Skip.
		return
	}

	q.logger.Info().Str("job_id", id).Str("owner_id", job.OwnerID).
		Str("category_id", job.CategoryID).Msg("queue: picked job")
	q.update(id, domain.JobStatusProcessing, 10)

	start := time.Now()
	err := q.runJob(ctx, job)
	infra.JobDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		q.fail(id, err)
		infra.JobsProcessed.WithLabelValues("failed").Inc()
		q.logger.Error().Err(err).Str("job_id", id).Msg("queue: job failed")
		return
	}
	infra.JobsProcessed.WithLabelValues("completed").Inc()
	q.logger.Info().Str("job_id", id).Dur("took", time.Since(start)).Msg("queue: job completed")
}

// runJob is the job body: resolve the slide list, compose, publish.
func (q *Queue) runJob(ctx context.Context, job domain.VideoJob) error {
	products, err := q.products.ListByCategory(ctx, job.OwnerID, job.CategoryID)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return domain.ErrNoProducts
	}

	var imageURLs []string
	for _, p := range products {
		imageURLs = append(imageURLs, p.SlideURLs()...)
	}
	if len(imageURLs) == 0 {
		return domain.ErrNoProductImages
	}
	q.update(job.ID, domain.JobStatusProcessing, 20)

	key := path.Join("generated", "videos", job.ID+".mp4")
	outputPath, err := q.store.Path(key)
	if err != nil {
		return err
	}

	if err := q.composer.Compose(ctx, imageURLs, job.Options.AudioURL, outputPath, job.Options); err != nil {
		return err
	}
	q.update(job.ID, domain.JobStatusProcessing, 80)

	if q.publisher != nil {
		up, err := q.publisher.Upload(ctx, outputPath)
		if err != nil {
			return fmt.Errorf("publish video: %w", err)
		}
		_ = os.Remove(outputPath)
		q.complete(job.ID, up.URL, up.RemoteID)
		return nil
	}

	staticURL, err := q.store.URL(key)
	if err != nil {
		return err
	}
	q.complete(job.ID, staticURL, "")
	return nil
}

func (q *Queue) update(id string, status domain.JobStatus, progress int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return
	}
	job.Status = status
	if progress > job.Progress {
		job.Progress = progress
	}
	job.UpdatedAt = time.Now().UTC()
	q.jobs[id] = job
}

func (q *Queue) complete(id, videoURL, remoteID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return
	}
	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	job.VideoURL = videoURL
	job.RemoteID = remoteID
	job.UpdatedAt = time.Now().UTC()
	q.jobs[id] = job
}

func (q *Queue) fail(id string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return
	}
	job.Status = domain.JobStatusFailed
	job.Error = err.Error()
	job.UpdatedAt = time.Now().UTC()
	q.jobs[id] = job
}
