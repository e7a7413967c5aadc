// Package extract turns free text and identity-document photos into PersonalInfo records.
//
// The extractor never lets a provider fault escape: provider errors and unusable
// output are folded into a degraded model.Result whose Failure field says why.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"personal-info-parser/internal/cache"
	"personal-info-parser/internal/events"
	"personal-info-parser/internal/imagenorm"
	"personal-info-parser/internal/llm"
	"personal-info-parser/internal/model"
)

// ErrNotConfigured is returned by New when no provider client is supplied.
var ErrNotConfigured = errors.New("extractor: llm client is not configured")

// Options carries the optional collaborators of an Extractor.
type Options struct {
	Log        *slog.Logger
	Normalizer *imagenorm.Normalizer
	Cache      cache.Cache
	CacheTTL   time.Duration
	Events     events.Publisher
	// ModelTag identifies the provider models in cache keys.
	ModelTag string
}

// Extractor runs the text and image extraction paths against an llm.Client.
// It holds no per-request state and is safe for concurrent use.
type Extractor struct {
	client   llm.Client
	log      *slog.Logger
	norm     *imagenorm.Normalizer
	cache    cache.Cache
	cacheTTL time.Duration
	events   events.Publisher
	modelTag string

	text     *parser
	document *parser
}

// New builds an Extractor around an explicitly constructed provider client.
func New(client llm.Client, opts Options) (*Extractor, error) {
	if client == nil {
		return nil, ErrNotConfigured
	}
	textParser, err := newParser(model.TextFields)
	if err != nil {
		return nil, fmt.Errorf("text parser: %w", err)
	}
	docParser, err := newParser(model.DocumentFields)
	if err != nil {
		return nil, fmt.Errorf("document parser: %w", err)
	}

	e := &Extractor{
		client:   client,
		log:      opts.Log,
		norm:     opts.Normalizer,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		events:   opts.Events,
		modelTag: opts.ModelTag,
		text:     textParser,
		document: docParser,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.cache == nil {
		e.cache = cache.NewNoOpCache()
	}
	if e.events == nil {
		e.events = events.NoOpPublisher{}
	}
	return e, nil
}

// ExtractText extracts TextFields from free-form input.
func (e *Extractor) ExtractText(ctx context.Context, text string) model.Result {
	start := time.Now()
	id := uuid.New()
	log := e.log.With("extraction_id", id, "source_type", model.SourceText)
	log.Debug("extract.text.start", "text_len", len(text))

	if strings.TrimSpace(text) == "" {
		res := emptyResult(model.SourceText)
		e.finish(ctx, log, id, res, len(e.text.fields), false, start)
		return res
	}

	key := cache.Key(model.SourceText, e.modelTag, []byte(text))
	if res, ok := e.lookup(ctx, log, key); ok {
		e.finish(ctx, log, id, res, len(e.text.fields), true, start)
		return res
	}

	res := e.structure(ctx, log, text, model.SourceText, e.text)
	e.remember(ctx, log, key, res)
	e.finish(ctx, log, id, res, len(e.text.fields), false, start)
	return res
}

// ExtractImage transcribes an identity-document photo with the vision model and then
// structures the transcript with the text model.
func (e *Extractor) ExtractImage(ctx context.Context, data []byte, mimeType string) model.Result {
	start := time.Now()
	id := uuid.New()
	log := e.log.With("extraction_id", id, "source_type", model.SourceImage)
	log.Debug("extract.image.start", "bytes", len(data), "mime_type", mimeType)

	key := cache.Key(model.SourceImage, e.modelTag, data)
	if res, ok := e.lookup(ctx, log, key); ok {
		e.finish(ctx, log, id, res, len(e.document.fields), true, start)
		return res
	}

	if e.norm != nil {
		before := len(data)
		data, mimeType = e.norm.Normalize(data, mimeType)
		if len(data) != before {
			log.Info("extract.image.resized", "bytes_before", before, "bytes_after", len(data))
		}
		if limit := e.norm.MaxBytes(); limit > 0 && int64(len(data)) > limit {
			log.Warn("extract.image.oversized", "bytes", len(data), "max_bytes", limit)
		}
	}

	transcript, err := e.client.DescribeImage(ctx, data, mimeType)
	if err != nil {
		log.Error("extract.provider_error", "stage", "vision", "err", err)
		res := failedResult(model.SourceImage)
		e.finish(ctx, log, id, res, len(e.document.fields), false, start)
		return res
	}

	var res model.Result
	if strings.TrimSpace(transcript) == "" {
		log.Warn("extract.image.empty_transcript")
		res = emptyResult(model.SourceImage)
	} else {
		res = e.structure(ctx, log, transcript, model.SourceImage, e.document)
	}
	e.remember(ctx, log, key, res)
	e.finish(ctx, log, id, res, len(e.document.fields), false, start)
	return res
}

// structure runs the schema-constrained text call and scores what comes back.
func (e *Extractor) structure(ctx context.Context, log *slog.Logger, text string, source model.SourceType, p *parser) model.Result {
	raw, err := e.client.ExtractFields(ctx, text, p.fields)
	if err != nil {
		log.Error("extract.provider_error", "stage", "text", "err", err)
		return failedResult(source)
	}

	info, unknown, err := p.Parse(raw)
	if err != nil {
		log.Warn("extract.malformed_output", "err", err, "raw_len", len(raw))
		res := emptyResult(source)
		res.Failure = model.FailureMalformed
		return res
	}
	if len(unknown) > 0 {
		log.Debug("extract.unknown_keys", "keys", unknown)
	}

	return model.Result{
		Info:       info,
		Confidence: Score(info, p.fields),
		Source:     source,
	}
}

func (e *Extractor) lookup(ctx context.Context, log *slog.Logger, key string) (model.Result, bool) {
	cached, err := e.cache.Get(ctx, key)
	if err != nil {
		log.Warn("extract.cache_get_failed", "err", err)
		return model.Result{}, false
	}
	if cached == nil {
		return model.Result{}, false
	}
	log.Debug("extract.cache_hit")
	return *cached, true
}

// remember caches normal results only; degraded ones must be retried upstream.
func (e *Extractor) remember(ctx context.Context, log *slog.Logger, key string, res model.Result) {
	if res.Degraded() || e.cacheTTL <= 0 {
		return
	}
	if err := e.cache.Set(ctx, key, &res, e.cacheTTL); err != nil {
		log.Warn("extract.cache_set_failed", "err", err)
	}
}

func (e *Extractor) finish(ctx context.Context, log *slog.Logger, id uuid.UUID, res model.Result, total int, cached bool, start time.Time) {
	filled := res.Info.Filled(model.DocumentFields)
	elapsed := time.Since(start)
	log.Info("extract.done",
		"confidence", res.Confidence,
		"filled_fields", filled,
		"total_fields", total,
		"failure", string(res.Failure),
		"cached", cached,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	ev := events.Event{
		ID:           id,
		Source:       res.Source,
		Confidence:   res.Confidence,
		FilledFields: filled,
		TotalFields:  total,
		Failure:      res.Failure,
		Cached:       cached,
		DurationMS:   elapsed.Milliseconds(),
		At:           time.Now().UTC(),
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		log.Warn("extract.publish_failed", "err", err)
	}
}

func emptyResult(source model.SourceType) model.Result {
	return model.Result{Confidence: ConfidenceFloor, Source: source}
}

func failedResult(source model.SourceType) model.Result {
	return model.Result{Confidence: ConfidenceFailed, Source: source, Failure: model.FailureUpstream}
}
