// Package pipeline turns uploads into artwork records and drives each record
// through background analysis:
//
//	pending -> analyzing -> complete | failed
//	complete | failed -> analyzing (re-analysis)
//
// Upload and re-analysis return as soon as the job is queued; the outcome is
// only visible by reading the record again.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"artwork-catalog/internal/analysis"
	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/infra/blob"
	"artwork-catalog/internal/infra/queue"
	"artwork-catalog/internal/infra/store"
	"artwork-catalog/internal/media"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAnalysisInProgress is the store's compare-and-set refusal, so a job held
// by another replica is reported the same way as one held locally.
var ErrAnalysisInProgress = store.ErrAnalysisInProgress

// User-facing descriptions written on failure, by error kind.
const (
	MsgRateLimited = "AI service quota exceeded - please check billing"
	MsgAuthFailed  = "AI service credentials rejected - contact an administrator"
	MsgTimeout     = "AI analysis timed out - please try again"
	MsgFailed      = "AI analysis failed - please try again"
	MsgQueueBusy   = "AI analysis queue is busy - please try again"
)

// Invoker is the model-facing side of the pipeline.
type Invoker interface {
	AnalyzeImage(ctx context.Context, image []byte, mime, existingDescription string) (*analysis.Result, error)
	RegenerateDescription(ctx context.Context, in analysis.DescriptionInput) (string, error)
	SuggestPrice(ctx context.Context, in analysis.PriceInput) (int64, error)
}

type Config struct {
	AnalysisTimeout time.Duration
	MaxAttempts     int
	RetryBackoff    []time.Duration
}

func DefaultConfig() Config {
	return Config{
		AnalysisTimeout: 90 * time.Second,
		MaxAttempts:     1,
		RetryBackoff:    []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

type Pipeline struct {
	normalizer *media.Normalizer
	blobs      blob.Store
	records    store.Artworks
	invoker    Invoker
	queue      queue.Queue
	cfg        Config
	log        *zap.Logger

	guard *inflight
	sleep func(ctx context.Context, d time.Duration) error
}

func New(
	normalizer *media.Normalizer,
	blobs blob.Store,
	records store.Artworks,
	invoker Invoker,
	q queue.Queue,
	cfg Config,
	log *zap.Logger,
) *Pipeline {
	def := DefaultConfig()
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = def.AnalysisTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBackoff == nil {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if log == nil {
		log = zap.NewNop()
	}

	// A job cannot legitimately run longer than every attempt plus the waits between them.
	ttl := time.Duration(cfg.MaxAttempts) * cfg.AnalysisTimeout
	for _, d := range cfg.RetryBackoff {
		ttl += d
	}
	ttl += time.Minute

	return &Pipeline{
		normalizer: normalizer,
		blobs:      blobs,
		records:    records,
		invoker:    invoker,
		queue:      q,
		cfg:        cfg,
		log:        log,
		guard:      newInflight(ttl),
		sleep:      sleepCtx,
	}
}

// Ingest validates the upload, stores the images, creates the placeholder
// record and queues its analysis. Analysis problems never surface here.
func (p *Pipeline) Ingest(ctx context.Context, ownerID uint, u media.Upload) (*artworks.Artwork, error) {
	img, err := p.normalizer.Normalize(u)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("artworks/%d/%s", ownerID, uuid.NewString())
	imageRef, err := p.blobs.Put(ctx, base+".jpg", img.Original, img.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	thumbRef, err := p.blobs.Put(ctx, base+"_thumb.jpg", img.Thumbnail, img.ContentType)
	if err != nil {
		p.dropBlobs(imageRef)
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	a, err := p.records.CreatePlaceholder(ctx, ownerID, imageRef, thumbRef)
	if err != nil {
		p.dropBlobs(imageRef, thumbRef)
		return nil, fmt.Errorf("create artwork: %w", err)
	}

	p.log.Info("artwork uploaded",
		zap.String("artwork_id", a.ID),
		zap.Uint("user_id", ownerID),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int64("bytes", img.OriginalBytes))

	// a fresh id cannot already be held
	p.guard.acquire(a.ID)
	started, err := p.dispatch(ctx, a, queue.NewJob(a.ID, ownerID, queue.KindAnalyze), artworks.TitleAnalyzing)
	if err != nil {
		p.log.Error("analysis not started", zap.String("artwork_id", a.ID), zap.Error(err))
		if failed, gerr := p.records.Get(ctx, a.ID, nil); gerr == nil {
			return failed, nil
		}
		return a, nil
	}
	return started, nil
}

// Reanalyze resets the artwork to the re-analyzing placeholder and queues a
// new analysis. It fails with ErrAnalysisInProgress while one is unresolved.
func (p *Pipeline) Reanalyze(ctx context.Context, id string, ownerID uint) (*artworks.Artwork, error) {
	a, err := p.records.Get(ctx, id, &ownerID)
	if err != nil {
		return nil, err
	}
	if !artworks.CanStartAnalysis(a.AnalysisStatus) && time.Since(a.UpdatedAt) < p.guard.ttl {
		return nil, ErrAnalysisInProgress
	}
	if !p.guard.acquire(id) {
		return nil, ErrAnalysisInProgress
	}

	job := queue.NewJob(id, ownerID, queue.KindReanalyze)
	job.PriorDescription = a.Description
	return p.dispatch(ctx, a, job, artworks.TitleReanalyzing)
}

// dispatch marks the record analyzing and queues job. The guard for the
// artwork must already be held; it is released here if the job is not queued.
func (p *Pipeline) dispatch(ctx context.Context, a *artworks.Artwork, job queue.Job, title string) (*artworks.Artwork, error) {
	started, err := p.records.BeginAnalysis(ctx, a.ID, nil, title, time.Now().Add(-p.guard.ttl))
	if err != nil {
		p.guard.release(a.ID)
		return nil, err
	}

	if err := p.queue.Enqueue(ctx, job); err != nil {
		p.guard.release(a.ID)
		ferr := p.records.ApplyAnalysisFailure(context.WithoutCancel(ctx), a.ID, nil, store.AnalysisFailure{
			Title:       failureTitle(job.Kind),
			Description: MsgQueueBusy,
			Kind:        string(analysis.KindUnknown),
		})
		if ferr != nil {
			p.log.Error("failed to record enqueue failure", zap.String("artwork_id", a.ID), zap.Error(ferr))
		}
		return nil, fmt.Errorf("enqueue analysis: %w", err)
	}

	p.log.Info("analysis queued",
		zap.String("artwork_id", a.ID),
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)))
	return started, nil
}

// InProgress reports whether this process holds an unresolved job for id.
func (p *Pipeline) InProgress(id string) bool {
	return p.guard.busy(id)
}

// Run serves queued analysis jobs until ctx ends or the queue is closed.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.queue.Run(ctx, p.Handle)
}

// Handle runs one analysis job to a terminal state. It returns an error only
// when the outcome could not be written.
func (p *Pipeline) Handle(ctx context.Context, job queue.Job) error {
	defer p.guard.release(job.ArtworkID)
	log := p.log.With(zap.String("artwork_id", job.ArtworkID), zap.String("job_id", job.ID))

	a, err := p.records.Get(ctx, job.ArtworkID, &job.OwnerID)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("artwork gone before analysis ran")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load artwork: %w", err)
	}

	image, mime, err := p.blobs.Get(ctx, a.ImageURL)
	if err != nil {
		return p.fail(ctx, job, &analysis.Error{Kind: analysis.KindUnknown, Reason: "image unavailable", Err: err})
	}

	started := time.Now()
	res, err := p.analyze(ctx, image, mime, job.PriorDescription)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return p.fail(ctx, job, &analysis.Error{Kind: analysis.KindParse, Reason: "encode result", Err: err})
	}

	// the model call already succeeded; shutdown must not strand the record in analyzing
	_, err = p.records.ApplyAnalysisResult(context.WithoutCancel(ctx), job.ArtworkID, &job.OwnerID, store.AnalysisUpdate{
		Title:          res.Title,
		Artist:         res.Artist,
		Medium:         res.Medium,
		Year:           res.EstimatedYear,
		Condition:      res.Condition,
		Description:    res.Description,
		Tags:           res.Tags(),
		SuggestedPrice: res.PriceCents(),
		Payload:        payload,
	})
	if errors.Is(err, store.ErrNotFound) {
		log.Info("artwork deleted during analysis")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply analysis result: %w", err)
	}

	log.Info("analysis complete",
		zap.String("title", res.Title),
		zap.Float64("confidence", res.Confidence),
		zap.Duration("took", time.Since(started)))
	return nil
}

// analyze calls the invoker under the per-attempt timeout, retrying kinds
// that may succeed later.
func (p *Pipeline) analyze(ctx context.Context, image []byte, mime, prior string) (*analysis.Result, error) {
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, p.backoff(attempt-1)); err != nil {
				break
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, p.cfg.AnalysisTimeout)
		res, err := p.invoker.AnalyzeImage(callCtx, image, mime, prior)
		timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
		cancel()
		if err == nil {
			return res, nil
		}

		var ae *analysis.Error
		if !errors.As(err, &ae) {
			ae = &analysis.Error{Kind: analysis.KindUnknown, Reason: "analysis call failed", Err: err}
		}
		if timedOut && ae.Kind == analysis.KindUnknown {
			ae.Kind = analysis.KindTimeout
		}
		lastErr = ae
		if !ae.Retryable() {
			break
		}
		p.log.Warn("analysis attempt failed",
			zap.Int("attempt", attempt+1),
			zap.String("kind", string(ae.Kind)),
			zap.Error(err))
	}
	return nil, lastErr
}

func (p *Pipeline) backoff(i int) time.Duration {
	if len(p.cfg.RetryBackoff) == 0 {
		return 0
	}
	if i >= len(p.cfg.RetryBackoff) {
		return p.cfg.RetryBackoff[len(p.cfg.RetryBackoff)-1]
	}
	return p.cfg.RetryBackoff[i]
}

func (p *Pipeline) fail(ctx context.Context, job queue.Job, cause error) error {
	kind := analysis.KindUnknown
	var ae *analysis.Error
	if errors.As(cause, &ae) {
		kind = ae.Kind
	}
	p.log.Warn("analysis failed",
		zap.String("artwork_id", job.ArtworkID),
		zap.String("job_id", job.ID),
		zap.String("kind", string(kind)),
		zap.Error(cause))

	err := p.records.ApplyAnalysisFailure(context.WithoutCancel(ctx), job.ArtworkID, &job.OwnerID, store.AnalysisFailure{
		Title:       failureTitle(job.Kind),
		Description: FailureMessage(kind),
		Kind:        string(kind),
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("apply analysis failure: %w", err)
	}
	return nil
}

// FailureMessage is the description shown on a failed artwork.
func FailureMessage(kind analysis.ErrorKind) string {
	switch kind {
	case analysis.KindRateLimited:
		return MsgRateLimited
	case analysis.KindAuthFailed:
		return MsgAuthFailed
	case analysis.KindTimeout:
		return MsgTimeout
	}
	return MsgFailed
}

func failureTitle(kind queue.JobKind) string {
	if kind == queue.KindReanalyze {
		return artworks.TitleReanalysisFailed
	}
	return artworks.TitleAnalysisFailed
}

func (p *Pipeline) dropBlobs(refs ...string) {
	for _, ref := range refs {
		if err := p.blobs.Delete(context.Background(), ref); err != nil {
			p.log.Warn("failed to remove orphaned blob", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
