package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ccollicutt/wherewas/pkg/cache"
	"github.com/ccollicutt/wherewas/pkg/timestamp"
)

var (
	// ErrSourceUnreadable is returned when the source file cannot be read.
	ErrSourceUnreadable = errors.New("source file unreadable")

	// ErrInvalidSource is returned when the source is not a JSON record array.
	ErrInvalidSource = errors.New("source is not a valid record array")
)

// segmentsKey holds the record array in on-device Timeline exports.
const segmentsKey = "semanticSegments"

// Store owns the index built from one source file. After Open returns it
// is safe for concurrent queries.
type Store struct {
	source    string
	hash      string
	index     *Index
	stats     BuildStats
	fromCache bool
	cache     *cache.Manager
	logger    *slog.Logger
}

type options struct {
	cacheDir   string
	noCache    bool
	logger     *slog.Logger
	normalizer timestamp.Normalizer
}

// Option configures Open.
type Option func(*options)

// WithCacheDir overrides the default cache directory next to the source.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithoutCache disables reading and writing the cache.
func WithoutCache() Option {
	return func(o *options) {
		o.noCache = true
	}
}

// WithLogger sets the logger for load and cache events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNormalizer sets how parsed timestamps are converted to UTC.
func WithNormalizer(n timestamp.Normalizer) Option {
	return func(o *options) {
		o.normalizer = n
	}
}

// Open builds a Store for the export at source. It restores the index from
// a valid cache when one exists, otherwise it parses the source and writes
// a new cache. Cache problems are logged and never fail Open.
func Open(ctx context.Context, source string, opts ...Option) (*Store, error) {
	o := options{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		normalizer: timestamp.DefaultNormalizer(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Hash and decode the same bytes so the cache never pairs one version
	// of the file with the index of another.
	data, err := os.ReadFile(source) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	hash := cache.HashBytes(data)

	s := &Store{
		source: source,
		hash:   hash,
		logger: o.logger,
	}
	if !o.noCache {
		dir := o.cacheDir
		if dir == "" {
			dir = cache.DefaultDir(source)
		}
		s.cache = cache.NewManager(dir, cache.WithLogger(o.logger))
	}

	if s.cache != nil {
		if snap, ok := s.cache.Load(hash); ok {
			s.index = IndexFromSnapshot(snap)
			s.stats = newBuildStats()
			s.stats.Indexed = s.index.Len()
			s.fromCache = true
			s.logger.Info("loaded timeline data from cache",
				"source", source, "cache_dir", s.cache.Dir(), "entries", s.index.Len())
			return s, nil
		}
	}

	s.logger.Info("loading timeline data", "source", source)
	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSource, source, err)
	}

	s.index, s.stats = Build(records, BuildOptions{Normalizer: o.normalizer, SourceHash: hash})
	s.logger.Info("built timeline index",
		"source", source,
		"records", s.stats.Records,
		"entries", s.stats.Indexed,
		"skipped_untyped", s.stats.SkippedUntyped,
		"skipped_no_interval", s.stats.SkippedNoInterval)

	if s.cache != nil {
		if err := s.cache.Save(s.index.Snapshot(), hash); err != nil {
			s.logger.Warn("failed to save timeline cache", "cache_dir", s.cache.Dir(), "error", err)
		} else {
			s.logger.Info("saved timeline cache", "cache_dir", s.cache.Dir())
		}
	}
	return s, nil
}

// decodeRecords accepts a top-level array of records or an object holding
// them under semanticSegments. Anything else, null included, is rejected.
func decodeRecords(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, err
		}
		inner, ok := wrapper[segmentsKey]
		if !ok {
			return nil, fmt.Errorf("object has no %q array", segmentsKey)
		}
		trimmed = bytes.TrimSpace(inner)
	}

	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("expected a JSON array of records")
	}
	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) Source() string {
	return s.source
}

// SourceHash returns the SHA-256 of the source file at Open time.
func (s *Store) SourceHash() string {
	return s.hash
}

// FromCache reports whether the index was restored from the cache.
func (s *Store) FromCache() bool {
	return s.fromCache
}

// Stats returns build statistics. Only Indexed is set for cached stores.
func (s *Store) Stats() BuildStats {
	return s.stats
}

// Index returns the store's index.
func (s *Store) Index() *Index {
	if s == nil {
		return nil
	}
	return s.index
}

// CacheDir returns the cache directory, or "" when caching is disabled.
func (s *Store) CacheDir() string {
	if s.cache == nil {
		return ""
	}
	return s.cache.Dir()
}

// Match is the result of resolving an instant against the index.
type Match struct {
	Position int
	Entry    Entry
	Exact    bool

	// Distance is zero for exact matches.
	Distance time.Duration
}

// Match resolves t. ok is false only when the index is empty.
func (s *Store) Match(t time.Time) (m Match, ok bool) {
	ix := s.Index()
	pos, exact := ix.Locate(t)
	if pos < 0 {
		return Match{}, false
	}
	e := ix.Entry(pos)
	m = Match{Position: pos, Entry: e, Exact: exact}
	if !exact {
		m.Distance = e.Interval.Distance(t)
	}
	return m, true
}

// LocationAt returns where the user was at the given UTC minute. Only
// exact containment yields a location; otherwise it returns NotFound.
func (s *Store) LocationAt(year, month, day, hour, minute int) Location {
	if s.Index().Len() == 0 {
		return NotFound()
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return s.LocationAtTime(t)
}

// LocationAtTime is LocationAt for an arbitrary instant.
func (s *Store) LocationAtTime(t time.Time) Location {
	m, ok := s.Match(t)
	if !ok {
		return NotFound()
	}
	if !m.Exact {
		s.logger.Debug("no interval contains query time",
			"time", t, "nearest", m.Position, "distance", m.Distance)
		return NotFound()
	}
	return LocationFromRecord(m.Entry.Record)
}
