// Copyright © 2024 The Quill authors

// Package service is the request/response façade over the analysis
// pipeline.  Each call to Analyze publishes an immutable snapshot under an
// opaque ID; queries name the snapshot they read.  Only the snapshot table
// is guarded by a lock.  Snapshots themselves are read without locking.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/lint"
	"github.com/luthersystems/quill/parser/token"
	"github.com/luthersystems/quill/query"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRetention is the number of snapshots kept per document.
const DefaultRetention = 8

const tracerName = "github.com/luthersystems/quill/service"

var (
	// ErrUnknownSnapshot is returned for IDs that were never issued or whose
	// snapshot has been evicted.
	ErrUnknownSnapshot = errors.Base("unknown snapshot")

	// ErrStaleSnapshot is returned when a rename is computed or committed
	// against a snapshot that is no longer the document's latest.
	ErrStaleSnapshot = errors.Base("stale snapshot")

	// ErrInternalInconsistency is returned when the symbol table disagrees
	// with the syntax tree or the pipeline panics.  The previous snapshot of
	// the document stays current.
	ErrInternalInconsistency = analysis.ErrInconsistent
)

// ID identifies a published snapshot.
type ID string

// AnalyzeResult is returned by Analyze.
type AnalyzeResult struct {
	ID          ID                `json:"id"`
	URI         string            `json:"uri"`
	Version     int               `json:"version"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
}

// Location is a span of a document expressed both as byte offsets and as
// positions.
type Location struct {
	URI   string         `json:"uri"`
	Start query.Position `json:"start"`
	End   query.Position `json:"end"`
	Span  token.Span     `json:"-"`
}

// TextEdit is a rename edit with its location resolved.
type TextEdit struct {
	Location
	NewText string `json:"newText"`
}

// RenameResult is the edit set computed by Rename.
type RenameResult struct {
	ID    ID           `json:"id"`
	Edits []TextEdit   `json:"edits"`
	edits []query.Edit // the same edits as spans, for Commit
}

// QueryEdits returns the edits as byte spans, as accepted by Commit.
func (r *RenameResult) QueryEdits() []query.Edit {
	return r.edits
}

// Service holds the published snapshots of every open document.
type Service struct {
	cfg     query.Config
	retain  int
	logger  zerolog.Logger
	tracer  trace.Tracer
	metrics *Metrics
	newID   func() ID
	run     func(ctx context.Context, name, text string, version int, cfg *query.Config) (*query.Snapshot, error)

	mu    sync.RWMutex
	docs  map[string]*document
	snaps map[ID]*entry
}

type document struct {
	version int
	ids     []ID // retained snapshots, oldest first; the last is current
}

type entry struct {
	uri  string
	snap *query.Snapshot
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used when the request context carries none.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTracerProvider sets the provider of the tracer recording analysis
// spans.  The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(tracerName) }
}

// WithMetrics sets the collectors updated by the service.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRetention sets how many snapshots are kept per document.  Values
// below one keep only the current snapshot.
func WithRetention(n int) Option {
	return func(s *Service) { s.retain = max(n, 1) }
}

// WithConfig sets the analysis configuration.
func WithConfig(cfg query.Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{
		retain: DefaultRetention,
		logger: zerolog.Nop(),
		tracer: otel.GetTracerProvider().Tracer(tracerName),
		newID:  func() ID { return ID(uuid.NewString()) },
		run:    query.Analyze,
		docs:   make(map[string]*document),
		snaps:  make(map[ID]*entry),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// Analyze runs the pipeline over text and publishes the result as the
// latest snapshot of uri.
func (s *Service) Analyze(ctx context.Context, uri, text string) (*AnalyzeResult, error) {
	return s.analyze(ctx, uri, text, "")
}

// analyze publishes a snapshot of uri.  When base is not empty the
// snapshot is only published if base is still the document's latest.
func (s *Service) analyze(ctx context.Context, uri, text string, base ID) (_ *AnalyzeResult, err error) {
	ctx = s.withLogger(ctx)
	ctx, span := s.tracer.Start(ctx, "quill.Analyze", trace.WithAttributes(
		attribute.String("quill.uri", uri),
		attribute.Int("quill.bytes", len(text)),
	))
	defer span.End()
	logger := zerolog.Ctx(ctx).With().Str("uri", uri).Logger()

	start := time.Now()
	var snap *query.Snapshot
	defer func() {
		var diags []lint.Diagnostic
		if snap != nil {
			diags = snap.Diagnostics
		}
		s.metrics.observeAnalysis(time.Since(start), diags, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error().Err(err).Msg("analysis failed")
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	s.mu.Lock()
	doc := s.docs[uri]
	if doc == nil {
		doc = &document{}
		s.docs[uri] = doc
	}
	doc.version++
	version := doc.version
	s.mu.Unlock()

	snap, err = s.build(ctx, uri, text, version)
	if err != nil {
		return nil, errors.WithDetails(err, "uri", uri, "version", version)
	}

	id := s.newID()
	if err := s.publish(uri, id, snap, base); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("quill.snapshot", string(id)),
		attribute.Int("quill.version", version),
		attribute.Int("quill.diagnostics", len(snap.Diagnostics)),
	)
	logger.Debug().
		Str("snapshot", string(id)).
		Int("version", version).
		Int("diagnostics", len(snap.Diagnostics)).
		Dur("elapsed", time.Since(start)).
		Msg("analyzed")
	return &AnalyzeResult{
		ID:          id,
		URI:         uri,
		Version:     version,
		Diagnostics: snap.Diagnostics,
	}, nil
}

// build runs the pipeline, turning a panic anywhere in it into
// ErrInternalInconsistency.
func (s *Service) build(ctx context.Context, uri, text string, version int) (snap *query.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = errors.Errorf("%w: panic: %v", ErrInternalInconsistency, r)
		}
	}()
	snap, err = s.run(ctx, uri, text, version, &s.cfg)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return snap, nil
}

func (s *Service) publish(uri string, id ID, snap *query.Snapshot, base ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[uri]
	if doc == nil {
		// closed while the analysis ran
		doc = &document{version: snap.Version}
		s.docs[uri] = doc
	}
	if base != "" && (len(doc.ids) == 0 || doc.ids[len(doc.ids)-1] != base) {
		return errors.WithDetails(ErrStaleSnapshot, "snapshot", string(base))
	}
	s.snaps[id] = &entry{uri: uri, snap: snap}
	doc.ids = append(doc.ids, id)
	// concurrent analyses of one document may finish out of order
	sort.SliceStable(doc.ids, func(i, j int) bool {
		return s.snaps[doc.ids[i]].snap.Version < s.snaps[doc.ids[j]].snap.Version
	})
	for len(doc.ids) > s.retain {
		delete(s.snaps, doc.ids[0])
		doc.ids = doc.ids[1:]
	}
	s.metrics.Snapshots.Set(float64(len(s.snaps)))
	return nil
}

func (s *Service) withLogger(ctx context.Context) context.Context {
	if zerolog.Ctx(ctx).GetLevel() == zerolog.Disabled {
		return s.logger.WithContext(ctx)
	}
	return ctx
}

// Snapshot returns the published snapshot with the given ID.
func (s *Service) Snapshot(id ID) (*query.Snapshot, error) {
	e, _, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.snap, nil
}

// Latest returns the ID of the current snapshot of uri.
func (s *Service) Latest(uri string) (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := s.docs[uri]
	if doc == nil || len(doc.ids) == 0 {
		return "", false
	}
	return doc.ids[len(doc.ids)-1], true
}

// lookup returns the entry for id and whether it is the current snapshot of
// its document.
func (s *Service) lookup(id ID) (*entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.snaps[id]
	if e == nil {
		return nil, false, errors.WithDetails(ErrUnknownSnapshot, "snapshot", string(id))
	}
	ids := s.docs[e.uri].ids
	return e, ids[len(ids)-1] == id, nil
}

// Close forgets uri and every snapshot of it.
func (s *Service) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[uri]
	if doc == nil {
		return
	}
	for _, id := range doc.ids {
		delete(s.snaps, id)
	}
	delete(s.docs, uri)
	s.metrics.Snapshots.Set(float64(len(s.snaps)))
}

// Hover describes the symbol at the 1-based line and column.  It returns
// nil when no symbol is there.
func (s *Service) Hover(id ID, line, col int) (_ *query.HoverInfo, err error) {
	defer func() { s.metrics.observeQuery("hover", err) }()
	e, _, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	info, ok := e.snap.Hover(query.Position{Line: line, Col: col})
	if !ok {
		return nil, nil
	}
	return info, nil
}

// Definition returns the declaration of the symbol at the position, or nil.
func (s *Service) Definition(id ID, line, col int) (_ *Location, err error) {
	defer func() { s.metrics.observeQuery("definition", err) }()
	e, _, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	span, ok := e.snap.Definition(query.Position{Line: line, Col: col})
	if !ok {
		return nil, nil
	}
	loc := e.location(span)
	return &loc, nil
}

// References returns every occurrence of the symbol at the position.
func (s *Service) References(id ID, line, col int) (_ []Location, err error) {
	defer func() { s.metrics.observeQuery("references", err) }()
	e, _, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	spans := e.snap.References(query.Position{Line: line, Col: col})
	locs := make([]Location, len(spans))
	for i, span := range spans {
		locs[i] = e.location(span)
	}
	return locs, nil
}

// Rename computes the edits renaming the symbol at the position.  It fails
// with ErrStaleSnapshot unless id is the latest snapshot of its document.
func (s *Service) Rename(id ID, line, col int, newName string) (_ *RenameResult, err error) {
	defer func() { s.metrics.observeQuery("rename", err) }()
	e, current, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if !current {
		return nil, errors.WithDetails(ErrStaleSnapshot, "snapshot", string(id))
	}
	edits, err := e.snap.Rename(query.Position{Line: line, Col: col}, newName)
	if err != nil {
		return nil, errors.WithDetails(err, "snapshot", string(id), "line", line, "col", col)
	}
	result := &RenameResult{ID: id, Edits: make([]TextEdit, len(edits)), edits: edits}
	for i, edit := range edits {
		result.Edits[i] = TextEdit{Location: e.location(edit.Span), NewText: edit.NewText}
	}
	return result, nil
}

// Commit applies edits to the text of snapshot id and analyzes the result
// as the document's next snapshot.  It fails with ErrStaleSnapshot if the
// document changed since id was published.
func (s *Service) Commit(ctx context.Context, id ID, edits []query.Edit) (_ *AnalyzeResult, err error) {
	defer func() { s.metrics.observeQuery("commit", err) }()
	e, current, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if !current {
		return nil, errors.WithDetails(ErrStaleSnapshot, "snapshot", string(id))
	}
	text, err := query.ApplyEdits(e.snap.Text, edits)
	if err != nil {
		return nil, errors.WithDetails(err, "snapshot", string(id))
	}
	return s.analyze(ctx, e.uri, text, id)
}

func (e *entry) location(span token.Span) Location {
	return Location{
		URI:   e.uri,
		Start: e.snap.PositionOf(span.Start),
		End:   e.snap.PositionOf(span.End),
		Span:  span,
	}
}

func (id ID) String() string {
	return string(id)
}
