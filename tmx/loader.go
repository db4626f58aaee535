// Package tmx implements the reading engine for Tiled map (.tmx), tileset
// (.tsx) and object template (.tx) documents.
//
// Documents are read through a Loader, which memoizes every top-level
// parse by canonical path and tracks cross-file references so that cached
// resources can be evicted individually or together with the resources
// only they keep alive.
package tmx

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/eak1mov/go-libtmx/source"
	"github.com/eak1mov/go-libtmx/tiled"
)

type resourceKind uint8

const (
	kindMap resourceKind = iota
	kindTileset
	kindTemplate
)

var rootElementNames = map[resourceKind]string{
	kindMap:      "map",
	kindTileset:  "tileset",
	kindTemplate: "template",
}

var allowedExtensions = map[resourceKind][]string{
	kindMap:      {".tmx", ".xml"},
	kindTileset:  {".tsx", ".xml"},
	kindTemplate: {".tx", ".xml"},
}

// cacheEntry owns one parsed top-level resource together with its edges in
// the reference graph. The entry is created before its parse completes, so
// a document that references itself is caught instead of re-entering its
// own parse.
type cacheEntry struct {
	resource   any
	refersTo   map[string]struct{}
	referredBy map[string]struct{}
}

// Loader reads documents through a content source and caches them by
// canonical path. The zero value is not usable; construct with NewLoader
// or NewLocalLoader.
//
// A Loader is safe for concurrent use: one lock serializes loading and
// eviction, so at most one parse is in flight at a time.
type Loader struct {
	mu      sync.Mutex
	src     source.Source
	logger  *slog.Logger
	entries map[string]*cacheEntry
}

type LoaderParams struct {
	// Logger receives recoverable parse anomalies. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

func NewLoader(src source.Source, params LoaderParams) *Loader {
	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		src:     src,
		logger:  logger,
		entries: make(map[string]*cacheEntry),
	}
}

// NewLocalLoader reads documents from the operating system file system.
func NewLocalLoader(params LoaderParams) *Loader {
	return NewLoader(source.Local{}, params)
}

// ReadMap parses the map document at path, or returns the cached map if
// the path has been read before.
func (l *Loader) ReadMap(path string) (*tiled.Map, error) {
	resource, err := l.read(path, kindMap)
	if err != nil {
		return nil, err
	}
	m, ok := resource.(*tiled.Map)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrWrongKind, path)
	}
	return m, nil
}

// ReadTileset parses the tileset document at path, or returns the cached
// tileset.
func (l *Loader) ReadTileset(path string) (*tiled.Tileset, error) {
	resource, err := l.read(path, kindTileset)
	if err != nil {
		return nil, err
	}
	ts, ok := resource.(*tiled.Tileset)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrWrongKind, path)
	}
	return ts, nil
}

// ReadTemplate parses the object template document at path, or returns the
// cached template.
func (l *Loader) ReadTemplate(path string) (*tiled.Template, error) {
	resource, err := l.read(path, kindTemplate)
	if err != nil {
		return nil, err
	}
	tpl, ok := resource.(*tiled.Template)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrWrongKind, path)
	}
	return tpl, nil
}

// Forget drops the cached document for path and clears its edges from the
// reference graph. With cascade set, documents that become unreferenced by
// the removal are recursively dropped as well (orphan sweep). It reports
// whether the path had been read before.
func (l *Loader) Forget(path string, cascade bool) bool {
	canonical, err := l.src.Resolve(path, "")
	if err != nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[canonical]; !ok {
		return false
	}
	l.remove(canonical, cascade)
	return true
}

// ForgetAll drops every cached document unconditionally.
func (l *Loader) ForgetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*cacheEntry)
}

func (l *Loader) read(path string, kind resourceKind) (any, error) {
	if err := checkExtension(path, kind); err != nil {
		return nil, err
	}
	canonical, err := l.src.Resolve(path, "")
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(canonical, kind)
}

func checkExtension(path string, kind resourceKind) error {
	ext := strings.ToLower(filepath.Ext(path))
	allowed := allowedExtensions[kind]
	for _, want := range allowed {
		if ext == want {
			return nil
		}
	}
	return fmt.Errorf("%w: %q, want %v",
		ErrExtension, path, strings.Join(allowed, " or "))
}

// load returns the cached resource for canonical, parsing it on a miss.
// The caller holds the loader lock; document parsers re-enter here for
// nested cross-file references.
func (l *Loader) load(canonical string, kind resourceKind) (any, error) {
	if entry, ok := l.entries[canonical]; ok {
		if entry.resource == nil {
			// The entry exists but its parse has not completed: the
			// document reached itself through a reference chain.
			return nil, &ParseError{Path: canonical, Location: "unknown", Err: ErrSelfReference}
		}
		return entry.resource, nil
	}

	entry := &cacheEntry{
		refersTo:   make(map[string]struct{}),
		referredBy: make(map[string]struct{}),
	}
	l.entries[canonical] = entry

	resource, err := l.parseResource(canonical, kind)
	if err != nil {
		l.rollback(canonical, entry)
		return nil, err
	}
	entry.resource = resource
	return resource, nil
}

// registerReference idempotently records that referrer resolved a
// cross-file reference to referent.
func (l *Loader) registerReference(referrer, referent string) {
	if referrer == referent {
		return
	}
	if from, ok := l.entries[referrer]; ok {
		from.refersTo[referent] = struct{}{}
	}
	if to, ok := l.entries[referent]; ok {
		to.referredBy[referrer] = struct{}{}
	}
}

// rollback unlinks the edges a failed parse registered and drops its
// entry, so a retry re-attempts the parse in full.
func (l *Loader) rollback(canonical string, entry *cacheEntry) {
	for ref := range entry.refersTo {
		if other, ok := l.entries[ref]; ok {
			delete(other.referredBy, canonical)
		}
	}
	delete(l.entries, canonical)
}

func (l *Loader) remove(canonical string, cascade bool) {
	entry, ok := l.entries[canonical]
	if !ok {
		return
	}
	delete(l.entries, canonical)

	for ref := range entry.refersTo {
		if other, ok := l.entries[ref]; ok {
			delete(other.referredBy, canonical)
		}
	}
	for ref := range entry.referredBy {
		if other, ok := l.entries[ref]; ok {
			delete(other.refersTo, canonical)
		}
	}

	if !cascade {
		return
	}
	for ref := range entry.refersTo {
		if other, ok := l.entries[ref]; ok && len(other.referredBy) == 0 {
			l.remove(ref, true)
		}
	}
}

func (l *Loader) parseResource(canonical string, kind resourceKind) (any, error) {
	stream, err := l.src.Open(canonical)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	logger := l.logger.With(slog.String("path", canonical))
	p := &parser{
		ld:          l,
		path:        canonical,
		logger:      logger,
		objectsByID: make(map[int]*tiled.Object),
	}
	p.c = newCursor(stream, canonical, logger)
	return p.parseDocument(kind)
}
