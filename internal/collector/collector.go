// Package collector walks a paginated product listing and writes the raw record file.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/catalogue-pipeline/internal/catalogue"
	"github.com/JakeFAU/catalogue-pipeline/internal/metrics"
	"github.com/JakeFAU/catalogue-pipeline/internal/rawfile"
)

var (
	// ErrInvalidURL is returned when the starting URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid base url")
	// ErrWriteOutput is returned when the raw file cannot be written.
	ErrWriteOutput = errors.New("write raw output")
	// ErrCanceled is returned when the caller's context ends the walk. The raw
	// file is left untouched.
	ErrCanceled = errors.New("collection canceled")
)

// StopReason explains why the page walk ended.
type StopReason string

// Page walk terminations.
const (
	StopLastPage   StopReason = "last_page"
	StopMaxPages   StopReason = "max_pages"
	StopFetchError StopReason = "fetch_error"
	StopRevisit    StopReason = "revisit"
)

// Summary describes a finished collection run.
type Summary struct {
	OutputPath string       `json:"output_path"`
	Records    int          `json:"records"`
	Pages      int          `json:"pages"`
	Skipped    []SkipReason `json:"skipped,omitempty"`
	Stop       StopReason   `json:"stop"`
	// FetchErr holds the transport failure that ended the walk early, if any.
	FetchErr error `json:"-"`
}

// Partial reports whether the walk ended on a fetch failure.
func (s Summary) Partial() bool { return s.FetchErr != nil }

// Collector fetches listing pages one at a time and extracts product records.
type Collector struct {
	cfg           Config
	logger        *zap.Logger
	baseCollector *colly.Collector
	limiter       *rate.Limiter
}

type pageResult struct {
	outcomes []Outcome
	next     string
	status   int
	bytes    int
}

// New builds a Collector.
func New(cfg Config, logger *zap.Logger) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.RequestTimeout)
	c.IgnoreRobotsTxt = !cfg.RespectRobots
	// Cycle detection is done per run; colly's visited store is shared by clones.
	c.AllowURLRevisit = true

	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	return &Collector{
		cfg:           cfg,
		logger:        logger,
		baseCollector: c,
		limiter:       rate.NewLimiter(limit, 1),
	}, nil
}

// Collect walks the listing starting at baseURL and overwrites the configured raw
// file with every record found. Fetch failures end the walk but keep what was
// collected. An invalid URL, a canceled context or a failed write return an
// error, and only the last of these touches the raw file.
func (c *Collector) Collect(ctx context.Context, baseURL string) (Summary, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		c.logger.Error("Rejected base URL", zap.String("url", baseURL), zap.Error(err))
		return Summary{}, err
	}
	c.logger.Info("Collector started",
		zap.String("url", base.String()),
		zap.Int("max_pages", c.cfg.MaxPages),
		zap.Duration("timeout", c.cfg.RequestTimeout),
		zap.String("output", c.cfg.OutputPath),
	)

	var (
		summary = Summary{Stop: StopLastPage}
		records []catalogue.RawRecord
		visited = map[string]struct{}{}
		pageURL = base.String()
	)
	for pageURL != "" {
		if summary.Pages >= c.cfg.MaxPages {
			summary.Stop = StopMaxPages
			break
		}
		if _, seen := visited[pageURL]; seen {
			c.logger.Warn("Pagination loops back; stopping", zap.String("url", pageURL))
			summary.Stop = StopRevisit
			break
		}
		visited[pageURL] = struct{}{}
		pageNum := summary.Pages + 1

		c.logger.Info("Scraping page", zap.Int("page", pageNum), zap.String("url", pageURL))
		if err := c.limiter.Wait(ctx); err != nil {
			return summary, c.canceled(pageNum, err)
		}
		start := time.Now()
		res, err := c.fetchPage(ctx, pageURL, base)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, c.canceled(pageNum, ctxErr)
		}
		if err != nil {
			metrics.ObservePage(pageURL, "error", 0, time.Since(start))
			c.logger.Error("HTTP request failed",
				zap.Int("page", pageNum),
				zap.String("url", pageURL),
				zap.Int("status_code", res.status),
				zap.Error(err),
			)
			summary.FetchErr = err
			summary.Stop = StopFetchError
			break
		}
		metrics.ObservePage(pageURL, "ok", res.bytes, time.Since(start))
		summary.Pages = pageNum

		extracted := 0
		for _, o := range res.outcomes {
			if !o.OK() {
				o.Skip.Page = pageNum
				summary.Skipped = append(summary.Skipped, *o.Skip)
				metrics.ObserveItem("skipped")
				c.logger.Warn("Item extraction failed",
					zap.Int("page", pageNum),
					zap.Int("index", o.Skip.Index),
					zap.String("field", o.Skip.Field),
					zap.String("error", o.Skip.Err),
				)
				continue
			}
			records = append(records, o.Record)
			extracted++
			metrics.ObserveItem("extracted")
		}
		c.logger.Info("Page scraped",
			zap.Int("page", pageNum),
			zap.Int("items_found", len(res.outcomes)),
			zap.Int("items_extracted", extracted),
		)
		pageURL = res.next
	}

	summary.Records = len(records)
	if err := rawfile.Write(c.cfg.OutputPath, records); err != nil {
		c.logger.Error("Failed to write raw file", zap.String("path", c.cfg.OutputPath), zap.Error(err))
		return summary, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	summary.OutputPath = c.cfg.OutputPath

	fields := []zap.Field{
		zap.Int("records", summary.Records),
		zap.Int("pages", summary.Pages),
		zap.Int("skipped", len(summary.Skipped)),
		zap.String("stop", string(summary.Stop)),
		zap.String("path", summary.OutputPath),
	}
	if summary.Partial() {
		c.logger.Warn("Scrape finished with partial results", fields...)
	} else {
		c.logger.Info("Scrape finished", fields...)
	}
	return summary, nil
}

func (c *Collector) canceled(page int, err error) error {
	c.logger.Warn("Collection canceled; raw file left untouched", zap.Int("page", page), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}

// fetchPage GETs one listing page and extracts its items and next link.
func (c *Collector) fetchPage(ctx context.Context, pageURL string, base *url.URL) (pageResult, error) {
	if err := ctx.Err(); err != nil {
		return pageResult{}, fmt.Errorf("fetch canceled: %w", err)
	}
	var (
		res      pageResult
		fetchErr error
	)
	collector := c.baseCollector.Clone()
	collector.SetRequestTimeout(c.cfg.RequestTimeout)

	collector.OnResponse(func(r *colly.Response) {
		res.status = r.StatusCode
		res.bytes = len(r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			res.status = r.StatusCode
		}
		fetchErr = err
	})
	collector.OnHTML(itemSelector, func(e *colly.HTMLElement) {
		record, err := extractItem(e.DOM, base, c.cfg.ItemPrefix)
		if err != nil {
			res.outcomes = append(res.outcomes, Outcome{Skip: skipFor(0, pageURL, e.Index, err)})
			return
		}
		res.outcomes = append(res.outcomes, Outcome{Record: record})
	})
	collector.OnHTML(nextSelector, func(e *colly.HTMLElement) {
		if res.next == "" {
			res.next = e.Request.AbsoluteURL(e.Attr("href"))
		}
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return pageResult{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return res, fmt.Errorf("fetch %s: %w", pageURL, fetchErr)
		}
		if err != nil {
			return res, fmt.Errorf("visit %s: %w", pageURL, err)
		}
		return res, nil
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q must be an absolute http(s) URL", ErrInvalidURL, raw)
	}
	return u, nil
}
