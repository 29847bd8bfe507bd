// Package pipeline orchestrates a build: ingest, parse, resolve, render.
//
// Every per-document step is a pure transformation over immutable inputs, so
// documents are processed in parallel with bounded concurrency. A failing
// document is recorded and skipped; it never aborts the rest of the build.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/contentpress/internal/config"
	"git.home.luguber.info/inful/contentpress/internal/document"
	"git.home.luguber.info/inful/contentpress/internal/errors"
	"git.home.luguber.info/inful/contentpress/internal/logfields"
	"git.home.luguber.info/inful/contentpress/internal/metrics"
	"git.home.luguber.info/inful/contentpress/internal/parser"
	"git.home.luguber.info/inful/contentpress/internal/render"
	"git.home.luguber.info/inful/contentpress/internal/resolver"
	"git.home.luguber.info/inful/contentpress/internal/store"
)

const defaultConcurrency = 8

// DocumentFailure records a per-document structural error.
type DocumentFailure struct {
	Key document.Key
	Err error
}

// Result is the outcome of one build.
type Result struct {
	BuildID   string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string // success|warning|failed
	Corpus    *document.Corpus
	Pages     map[document.Key]string // rendered full pages
	Report    *resolver.Report
	Failures  []DocumentFailure
}

// Builder runs builds over a content directory.
type Builder struct {
	cfg         *config.Config
	recorder    metrics.Recorder
	cache       *store.RenderCache
	publisher   resolver.EventPublisher
	concurrency int
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// WithRenderCache enables the content-addressable render cache.
func WithRenderCache(c *store.RenderCache) Option {
	return func(b *Builder) { b.cache = c }
}

// WithEventPublisher enables dangling-link event publishing.
func WithEventPublisher(p resolver.EventPublisher) Option {
	return func(b *Builder) { b.publisher = p }
}

// WithConcurrency bounds parallel document processing.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// New creates a Builder for a configuration.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:         cfg,
		recorder:    metrics.NoopRecorder{},
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs the full pipeline once.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	result := &Result{
		BuildID:   uuid.NewString(),
		StartedAt: time.Now(),
		Pages:     make(map[document.Key]string),
	}
	slog.Info("Starting build", logfields.BuildID(result.BuildID))

	corpus, err := b.ingest(result)
	if err != nil {
		b.recorder.IncBuildOutcome("failed")
		return nil, err
	}
	result.Corpus = corpus

	index, err := b.indexSlugs(corpus)
	if err != nil {
		b.recorder.IncBuildOutcome("failed")
		return nil, err
	}

	blocksByKey := b.parseAll(ctx, corpus, result)
	b.resolveReferences(ctx, index, corpus, blocksByKey, result)
	b.renderAll(corpus, blocksByKey, result)

	result.Duration = time.Since(result.StartedAt)
	result.Outcome = b.outcome(result)
	b.recorder.ObserveBuildDuration(result.Duration)
	b.recorder.IncBuildOutcome(result.Outcome)

	slog.Info("Build finished",
		logfields.BuildID(result.BuildID),
		logfields.Status(result.Outcome),
		slog.Int("documents", corpus.Len()),
		slog.Int("failures", len(result.Failures)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))

	if result.Outcome == "failed" {
		return result, fmt.Errorf("build %s failed: %d dangling references with links.policy=fail",
			result.BuildID, len(result.Report.Dangling()))
	}
	return result, nil
}

func (b *Builder) ingest(result *Result) (*document.Corpus, error) {
	started := time.Now()
	loader := store.NewLoader(b.cfg.Content.Dir, b.cfg.Content.Locales)
	corpus, fileErrors, err := loader.Load()
	b.recorder.ObserveStageDuration("ingest", time.Since(started))
	if err != nil {
		return nil, err
	}
	for _, fe := range fileErrors {
		result.Failures = append(result.Failures, DocumentFailure{
			Key: document.Key{ID: fe.Path},
			Err: errors.WrapError(fe.Err, errors.CategoryStore, "ingest content unit").
				WithSeverity(errors.SeverityWarning),
		})
		b.recorder.IncDocumentResult(metrics.ResultFatal)
	}
	return corpus, nil
}

func (b *Builder) indexSlugs(corpus *document.Corpus) (*document.SlugIndex, error) {
	started := time.Now()
	index, err := document.BuildSlugIndex(corpus)
	b.recorder.ObserveStageDuration("index", time.Since(started))
	return index, err
}

// parseAll parses every variant in parallel. Failed documents are recorded
// and excluded from the returned map.
func (b *Builder) parseAll(ctx context.Context, corpus *document.Corpus, result *Result) map[document.Key][]parser.Block {
	started := time.Now()
	defer func() { b.recorder.ObserveStageDuration("parse", time.Since(started)) }()

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		sem         = make(chan struct{}, b.concurrency)
		blocksByKey = make(map[document.Key][]parser.Block)
	)

	for _, doc := range corpus.All() {
		select {
		case <-ctx.Done():
			wg.Wait()
			return blocksByKey
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(doc *document.Document) {
			defer wg.Done()
			defer func() { <-sem }()

			key := document.Key{ID: doc.ID, Locale: doc.Locale}
			blocks, err := parser.Parse([]byte(doc.Body))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				wrapped := errors.Wrap(err, errors.CategoryParse, errors.SeverityError, "parse document").
					WithContext("key", key.String())
				result.Failures = append(result.Failures, DocumentFailure{Key: key, Err: wrapped})
				b.recorder.IncDocumentResult(metrics.ResultFatal)
				slog.Warn("Document failed to parse",
					logfields.DocID(doc.ID),
					logfields.Locale(doc.Locale),
					logfields.Error(err))
				return
			}
			blocksByKey[key] = blocks
		}(doc)
	}

	wg.Wait()
	return blocksByKey
}

func (b *Builder) resolveReferences(ctx context.Context, index *document.SlugIndex, corpus *document.Corpus, blocksByKey map[document.Key][]parser.Block, result *Result) {
	started := time.Now()
	defer func() { b.recorder.ObserveStageDuration("resolve", time.Since(started)) }()

	// References are locale-independent: entries for an id are drawn from the
	// union of its variants' blocks.
	blocksByID := make(map[string][]parser.Block)
	for _, id := range corpus.IDs() {
		for _, variant := range corpus.Variants(id) {
			key := document.Key{ID: variant.ID, Locale: variant.Locale}
			blocksByID[id] = append(blocksByID[id], blocksByKey[key]...)
		}
	}

	result.Report = resolver.New(index).Resolve(blocksByID)

	dangling := result.Report.Dangling()
	b.recorder.IncDanglingReferences(len(dangling))
	for _, entry := range dangling {
		slog.Warn("Dangling internal reference",
			logfields.DocID(entry.SourceID),
			logfields.Target(entry.TargetSlug))
	}

	resolver.PublishReport(ctx, b.publisher, result.Report, result.BuildID, result.StartedAt)
}

func (b *Builder) renderAll(corpus *document.Corpus, blocksByKey map[document.Key][]parser.Block, result *Result) {
	started := time.Now()
	defer func() { b.recorder.ObserveStageDuration("render", time.Since(started)) }()

	opts := render.Options{
		HighlightTheme: b.cfg.Render.HighlightTheme,
		ClassPrefix:    b.cfg.Render.ClassPrefix,
	}

	for _, doc := range corpus.All() {
		key := document.Key{ID: doc.ID, Locale: doc.Locale}
		blocks, ok := blocksByKey[key]
		if !ok {
			continue // Failed during parse; already recorded.
		}

		if page, hit := b.cachedPage(doc); hit {
			result.Pages[key] = page
			b.recorder.IncDocumentResult(metrics.ResultSuccess)
			continue
		}

		page := render.Page(doc, blocks, opts)
		result.Pages[key] = page
		b.storePage(doc, page)
		b.recorder.IncDocumentResult(metrics.ResultSuccess)
	}
}

func (b *Builder) cacheKey(doc *document.Document) string {
	return store.Key(doc.Body, doc.Title, doc.Description, doc.Locale,
		b.cfg.Render.HighlightTheme, b.cfg.Render.ClassPrefix)
}

func (b *Builder) cachedPage(doc *document.Document) (string, bool) {
	if b.cache == nil {
		return "", false
	}
	data, ok, err := b.cache.Get(b.cacheKey(doc))
	if err != nil {
		slog.Debug("Render cache lookup failed", logfields.DocID(doc.ID), logfields.Error(err))
		return "", false
	}
	b.recorder.IncCacheLookup(ok)
	if !ok {
		return "", false
	}
	return string(data), true
}

func (b *Builder) storePage(doc *document.Document, page string) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Put(b.cacheKey(doc), []byte(page)); err != nil {
		slog.Debug("Render cache store failed", logfields.DocID(doc.ID), logfields.Error(err))
	}
}

func (b *Builder) outcome(result *Result) string {
	if result.Report != nil && result.Report.HasDangling() && b.cfg.Links.Policy == config.LinkPolicyFail {
		return "failed"
	}
	if len(result.Failures) > 0 || (result.Report != nil && result.Report.HasDangling()) {
		return "warning"
	}
	return "success"
}
