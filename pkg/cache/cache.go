// Package cache persists a parsed timeline index next to its source file,
// keyed by the SHA-256 of the source bytes.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Artifact names inside the cache directory.
const (
	DirName        = ".timeline_cache"
	IntervalsFile  = "intervals.bin"
	RecordsFile    = "records.json"
	HashMarkerFile = "source_hash.txt"
)

const formatVersion uint32 = 1

var magic = [4]byte{'W', 'W', 'I', 'X'}

// headerSize is the encoded size of header.
const headerSize = 16

// entrySize is the encoded size of one entry in the intervals artifact.
const entrySize = 8 + 8 + 16

// ErrNothingToCache is returned by Save when no index has been built.
var ErrNothingToCache = errors.New("nothing to cache: index not built")

// SnapshotEntry is one interval bound to its record.
type SnapshotEntry struct {
	Key     uuid.UUID
	StartNS int64
	EndNS   int64
	Record  json.RawMessage
}

// Snapshot is the persisted form of a timeline index.
type Snapshot struct {
	Entries []SnapshotEntry
}

// Status describes the cache directory for a given source hash.
type Status struct {
	Dir        string
	Complete   bool
	StoredHash string
	Valid      bool
	Entries    int
	Bytes      int64
}

type header struct {
	Magic   [4]byte
	Version uint32
	Count   uint64
}

type recordEntry struct {
	Key    uuid.UUID       `json:"key"`
	Record json.RawMessage `json:"record"`
}

// Manager reads and writes one cache directory.
// It is not safe for concurrent Save calls against the same directory.
type Manager struct {
	dir    string
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for cache hits, misses and invalidations.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager for dir.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultDir returns the hidden cache directory next to source.
func DefaultDir(source string) string {
	return filepath.Join(filepath.Dir(source), DirName)
}

// HashFile returns the lowercase hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the lowercase hex SHA-256 of data, matching HashFile.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Dir returns the cache directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Save writes the snapshot and the source hash marker, replacing any
// previous cache. The marker is written last so a partial write never
// validates.
func (m *Manager) Save(snap *Snapshot, sourceHash string) error {
	if snap == nil {
		return ErrNothingToCache
	}

	if err := os.MkdirAll(m.dir, 0750); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	marker := filepath.Join(m.dir, HashMarkerFile)
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale hash marker: %w", err)
	}

	intervals, err := encodeIntervals(snap)
	if err != nil {
		return fmt.Errorf("encoding intervals: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(m.dir, IntervalsFile), intervals); err != nil {
		return err
	}

	records := make([]recordEntry, len(snap.Entries))
	for i, e := range snap.Entries {
		records[i] = recordEntry{Key: e.Key, Record: e.Record}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(m.dir, RecordsFile), data); err != nil {
		return err
	}

	if sourceHash != "" {
		if err := writeFileAtomic(marker, []byte(sourceHash)); err != nil {
			return err
		}
	}

	m.logger.Debug("cache saved", "cache_dir", m.dir, "entries", len(snap.Entries))
	return nil
}

// Load restores a snapshot. It returns false on any miss: a missing
// artifact, a hash that differs from a non-empty expectedHash, corrupt
// data, or interval and record keys that do not line up.
func (m *Manager) Load(expectedHash string) (*Snapshot, bool) {
	for _, name := range []string{IntervalsFile, RecordsFile, HashMarkerFile} {
		if _, err := os.Stat(filepath.Join(m.dir, name)); err != nil {
			m.logger.Debug("cache miss", "cache_dir", m.dir, "missing", name)
			return nil, false
		}
	}

	stored, err := m.storedHash()
	if err != nil {
		m.logger.Warn("failed to read cache validation hash", "cache_dir", m.dir, "error", err)
		return nil, false
	}
	if expectedHash != "" && stored != expectedHash {
		m.logger.Info("cache invalidated, source file has changed", "cache_dir", m.dir)
		return nil, false
	}

	snap, err := m.read()
	if err != nil {
		m.logger.Warn("failed loading timeline cache", "cache_dir", m.dir, "error", err)
		return nil, false
	}
	return snap, true
}

// Status inspects the cache without decoding records.
func (m *Manager) Status(expectedHash string) Status {
	st := Status{Dir: m.dir, Complete: true}
	for _, name := range []string{IntervalsFile, RecordsFile, HashMarkerFile} {
		fi, err := os.Stat(filepath.Join(m.dir, name))
		if err != nil {
			st.Complete = false
			continue
		}
		st.Bytes += fi.Size()
	}
	if hash, err := m.storedHash(); err == nil {
		st.StoredHash = hash
	}
	if f, err := os.Open(filepath.Join(m.dir, IntervalsFile)); err == nil {
		if h, err := readHeader(f); err == nil {
			if fi, err := f.Stat(); err == nil && countMatches(h.Count, fi.Size()) {
				st.Entries = int(h.Count)
			}
		}
		f.Close()
	}
	st.Valid = st.Complete && st.StoredHash != "" && st.StoredHash == expectedHash
	return st
}

// Clear removes the cache directory.
func (m *Manager) Clear() error {
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("removing cache dir: %w", err)
	}
	return nil
}

func (m *Manager) storedHash() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, HashMarkerFile))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (m *Manager) read() (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, IntervalsFile))
	if err != nil {
		return nil, err
	}
	snap, keys, err := decodeIntervals(data)
	if err != nil {
		return nil, fmt.Errorf("decoding intervals: %w", err)
	}

	data, err = os.ReadFile(filepath.Join(m.dir, RecordsFile))
	if err != nil {
		return nil, err
	}
	var records []recordEntry
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	if len(records) != len(keys) {
		return nil, fmt.Errorf("artifact length mismatch: %d intervals, %d records", len(keys), len(records))
	}
	for i, r := range records {
		if r.Key != keys[i] {
			return nil, fmt.Errorf("entry %d: interval key %s does not match record key %s", i, keys[i], r.Key)
		}
		snap.Entries[i].Record = r.Record
	}
	return snap, nil
}

func encodeIntervals(snap *Snapshot) ([]byte, error) {
	n := len(snap.Entries)
	left := make([]int64, n)
	right := make([]int64, n)
	keys := make([]uuid.UUID, n)
	for i, e := range snap.Entries {
		left[i], right[i], keys[i] = e.StartNS, e.EndNS, e.Key
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + n*entrySize)
	h := header{Magic: magic, Version: formatVersion, Count: uint64(n)}
	for _, v := range []any{h, left, right, keys} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeIntervals(data []byte) (*Snapshot, []uuid.UUID, error) {
	r := bytes.NewReader(data)
	h, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if !countMatches(h.Count, int64(len(data))) {
		return nil, nil, fmt.Errorf("size %d does not match %d entries", len(data), h.Count)
	}

	n := int(h.Count)
	left := make([]int64, n)
	right := make([]int64, n)
	keys := make([]uuid.UUID, n)
	for _, v := range []any{left, right, keys} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, nil, err
		}
	}

	snap := &Snapshot{Entries: make([]SnapshotEntry, n)}
	for i := range snap.Entries {
		snap.Entries[i] = SnapshotEntry{Key: keys[i], StartNS: left[i], EndNS: right[i]}
	}
	return snap, keys, nil
}

// countMatches reports whether an intervals file of size bytes holds
// exactly count entries. The count is bounded before multiplying so a
// corrupt header cannot overflow the check.
func countMatches(count uint64, size int64) bool {
	if size < headerSize {
		return false
	}
	body := uint64(size - headerSize)
	return count <= body/entrySize && count*entrySize == body
}

func readHeader(r io.Reader) (header, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, err
	}
	if h.Magic != magic {
		return h, errors.New("bad magic")
	}
	if h.Version != formatVersion {
		return h, fmt.Errorf("unsupported version %d", h.Version)
	}
	return h, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
