// Package pipeline runs collector and normalizer invocations and fans their
// outcomes out to the optional side channels.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalogue-pipeline/internal/collector"
	"github.com/JakeFAU/catalogue-pipeline/internal/jobs"
	"github.com/JakeFAU/catalogue-pipeline/internal/metrics"
	"github.com/JakeFAU/catalogue-pipeline/internal/normalizer"
)

// ErrMissingDependency is returned when a required collaborator is nil.
var ErrMissingDependency = errors.New("pipeline: missing dependency")

// Content types used when mirroring artifacts.
const (
	contentTypeCSV     = "text/csv"
	contentTypeParquet = "application/vnd.apache.parquet"
)

// Deps wires a Runner. Resolver, Scraper and Processor are required; the
// side channels are skipped when nil.
type Deps struct {
	Resolver  Resolver
	Scraper   Scraper
	Processor Processor

	IDs    IDGenerator
	Clock  Clock
	Hasher Hasher

	Artifacts      ArtifactStore
	ArtifactPrefix string
	Runs           RunStore
	Publisher      Publisher
	Topic          string

	Logger *zap.Logger
}

// Runner executes scrape and process invocations. Invocations of the same
// kind are serialized because each stage overwrites a fixed output file.
type Runner struct {
	deps      Deps
	logger    *zap.Logger
	scrapeMu  sync.Mutex
	processMu sync.Mutex
}

// NewRunner validates deps and returns a Runner.
func NewRunner(deps Deps) (*Runner, error) {
	switch {
	case deps.Resolver == nil:
		return nil, fmt.Errorf("%w: resolver", ErrMissingDependency)
	case deps.Scraper == nil:
		return nil, fmt.Errorf("%w: scraper", ErrMissingDependency)
	case deps.Processor == nil:
		return nil, fmt.Errorf("%w: processor", ErrMissingDependency)
	case deps.IDs == nil:
		return nil, fmt.Errorf("%w: id generator", ErrMissingDependency)
	case deps.Clock == nil:
		return nil, fmt.Errorf("%w: clock", ErrMissingDependency)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{deps: deps, logger: logger.Named("pipeline")}, nil
}

// Scrape resolves a registered scraper job and runs the collector against it.
func (r *Runner) Scrape(ctx context.Context, jobID string) Result {
	desc, err := r.deps.Resolver.ResolveScrape(jobID)
	if err != nil {
		return r.finishScrape(ctx, r.begin(jobs.KindScrape, jobID, ""), nil, err)
	}
	return r.scrape(ctx, desc.ID, desc.URL)
}

// ScrapeURL runs the collector against an ad-hoc listing URL.
func (r *Runner) ScrapeURL(ctx context.Context, rawURL string) Result {
	u, err := jobs.ValidateURL(rawURL)
	if err != nil {
		return r.finishScrape(ctx, r.begin(jobs.KindScrape, "", rawURL), nil, err)
	}
	return r.scrape(ctx, "", u)
}

// Process resolves a registered raw-data job and runs the normalizer on it.
func (r *Runner) Process(ctx context.Context, jobID string) Result {
	desc, err := r.deps.Resolver.ResolveProcess(jobID)
	if err != nil {
		return r.finishProcess(ctx, r.begin(jobs.KindProcess, jobID, ""), nil, err)
	}
	return r.process(ctx, desc.ID, desc.InputPath)
}

// ProcessFile runs the normalizer on an ad-hoc raw record file.
func (r *Runner) ProcessFile(ctx context.Context, inputPath string) Result {
	abs, err := jobs.ValidateInput(inputPath)
	if err != nil {
		return r.finishProcess(ctx, r.begin(jobs.KindProcess, "", inputPath), nil, err)
	}
	return r.process(ctx, "", abs)
}

func (r *Runner) scrape(ctx context.Context, jobID, rawURL string) Result {
	r.scrapeMu.Lock()
	defer r.scrapeMu.Unlock()

	run := r.begin(jobs.KindScrape, jobID, rawURL)
	summary, err := r.deps.Scraper.Collect(ctx, rawURL)
	if err != nil {
		return r.finishScrape(ctx, run, nil, err)
	}
	return r.finishScrape(ctx, run, &summary, nil)
}

func (r *Runner) process(ctx context.Context, jobID, inputPath string) Result {
	r.processMu.Lock()
	defer r.processMu.Unlock()

	run := r.begin(jobs.KindProcess, jobID, inputPath)
	report, err := r.deps.Processor.Normalize(ctx, inputPath)
	if err != nil {
		return r.finishProcess(ctx, run, nil, err)
	}
	r.logger.Info("Normalizer stats",
		zap.String("run_id", run.ID),
		zap.Int("read", report.Read),
		zap.Int("incomplete", report.Incomplete),
		zap.Int("out_of_range", report.OutOfRange),
		zap.Int("truncated", report.Truncated),
		zap.Int("written", report.Written),
	)
	return r.finishProcess(ctx, run, &report, nil)
}

func (r *Runner) begin(kind jobs.Kind, jobID, source string) RunRecord {
	id, err := r.deps.IDs.NewID()
	if err != nil {
		r.logger.Warn("Failed to generate run ID", zap.Error(err))
	}
	return RunRecord{
		ID:        id,
		Kind:      kind,
		JobID:     jobID,
		Source:    source,
		StartedAt: r.deps.Clock.Now(),
	}
}

func (r *Runner) finishScrape(ctx context.Context, run RunRecord, summary *collector.Summary, err error) Result {
	res := Result{Kind: jobs.KindScrape, RunID: run.ID, JobID: run.JobID}
	if err != nil {
		res.StatusCode, res.Message, res.Error, res.Err = StatusFailed, MsgScrapeFailed, err.Error(), err
		r.complete(ctx, run, &res, 0, "")
		return res
	}
	res.StatusCode, res.Message = StatusOK, MsgScrapeOK
	if summary.Partial() {
		res.Message = MsgScrapePartial
	}
	res.CSVPath = summary.OutputPath
	res.Scrape = summary
	r.complete(ctx, run, &res, summary.Records, contentTypeCSV)
	return res
}

func (r *Runner) finishProcess(ctx context.Context, run RunRecord, report *normalizer.Report, err error) Result {
	res := Result{Kind: jobs.KindProcess, RunID: run.ID, JobID: run.JobID}
	if err != nil {
		res.StatusCode, res.Message, res.Error, res.Err = StatusFailed, MsgProcessFailed, err.Error(), err
		r.complete(ctx, run, &res, 0, "")
		return res
	}
	res.StatusCode, res.Message = StatusOK, MsgProcessOK
	res.ParquetPath = report.OutputPath
	res.Process = report
	r.complete(ctx, run, &res, report.Written, contentTypeParquet)
	return res
}

// complete runs the side channels in order: digest, mirror, record, publish.
// Their failures are logged and never change the Result's status.
func (r *Runner) complete(ctx context.Context, run RunRecord, res *Result, records int, contentType string) {
	// A canceled invocation is still recorded and announced.
	ctx = context.WithoutCancel(ctx)
	run.FinishedAt = r.deps.Clock.Now()
	run.StatusCode = res.StatusCode
	run.Message = res.Message
	run.Error = res.Error
	run.Records = records
	run.OutputPath = res.Output()

	metrics.ObserveRun(string(run.Kind), strconv.Itoa(res.StatusCode), run.FinishedAt.Sub(run.StartedAt))

	fields := []zap.Field{
		zap.String("run_id", run.ID),
		zap.String("kind", string(run.Kind)),
		zap.String("job_id", run.JobID),
		zap.Int("status_code", res.StatusCode),
	}
	if res.OK() {
		r.logger.Info(res.Message, append(fields, zap.String("output", run.OutputPath), zap.Int("records", records))...)
	} else {
		r.logger.Error(res.Message, append(fields, zap.Error(res.Err))...)
	}

	if res.OK() && run.OutputPath != "" {
		run.Digest = r.digest(run.OutputPath)
		run.ArtifactURI = r.mirror(ctx, run, contentType)
		res.ArtifactURI = run.ArtifactURI
	}
	if r.deps.Runs != nil {
		if err := r.deps.Runs.RecordRun(ctx, run); err != nil {
			r.logger.Warn("Failed to record run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	r.publish(ctx, run)
}

func (r *Runner) digest(outputPath string) string {
	if r.deps.Hasher == nil {
		return ""
	}
	sum, err := r.deps.Hasher.HashFile(outputPath)
	if err != nil {
		r.logger.Warn("Failed to hash output", zap.String("path", outputPath), zap.Error(err))
		return ""
	}
	return sum
}

func (r *Runner) mirror(ctx context.Context, run RunRecord, contentType string) string {
	if r.deps.Artifacts == nil {
		return ""
	}
	f, err := os.Open(run.OutputPath) // #nosec G304 -- output path comes from config
	if err != nil {
		r.logger.Warn("Failed to open artifact", zap.String("path", run.OutputPath), zap.Error(err))
		return ""
	}
	defer func() { _ = f.Close() }()

	obj := Object{
		Path:        path.Join(r.deps.ArtifactPrefix, string(run.Kind), run.ID, filepath.Base(run.OutputPath)),
		ContentType: contentType,
		Metadata:    artifactMetadata(run),
	}
	uri, err := r.deps.Artifacts.PutObject(ctx, obj, f)
	if err != nil {
		r.logger.Warn("Failed to mirror artifact", zap.String("object", obj.Path), zap.Error(err))
		return ""
	}
	r.logger.Debug("Artifact mirrored", zap.String("uri", uri))
	return uri
}

// artifactMetadata ties a mirrored file back to the run that produced it.
func artifactMetadata(run RunRecord) map[string]string {
	md := map[string]string{
		"run_id":  run.ID,
		"kind":    string(run.Kind),
		"records": strconv.Itoa(run.Records),
	}
	if run.JobID != "" {
		md["job_id"] = run.JobID
	}
	if run.Source != "" {
		md["source"] = run.Source
	}
	if run.Digest != "" {
		md["sha256"] = run.Digest
	}
	return md
}

func (r *Runner) publish(ctx context.Context, run RunRecord) {
	if r.deps.Publisher == nil || r.deps.Topic == "" {
		return
	}
	event := Event{
		RunID:       run.ID,
		Kind:        run.Kind,
		JobID:       run.JobID,
		StatusCode:  run.StatusCode,
		OutputPath:  run.OutputPath,
		ArtifactURI: run.ArtifactURI,
		Digest:      run.Digest,
		Records:     run.Records,
		FinishedAt:  run.FinishedAt.UTC().Truncate(time.Millisecond),
	}
	msgID, err := r.deps.Publisher.Publish(ctx, r.deps.Topic, event)
	if err != nil {
		r.logger.Warn("Failed to publish completion event", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	r.logger.Debug("Completion event published", zap.String("message_id", msgID))
}
