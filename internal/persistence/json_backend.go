package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// JSONBackend persists each collection as its own flat-array JSON file
// under Dir. Writes go to a "<file>.tmp" path, fsynced, then renamed into
// place, one file per collection instead of one combined blob.
type JSONBackend struct {
	Dir string
	Log *zap.Logger
}

func NewJSONBackend(dir string, log *zap.Logger) *JSONBackend {
	return &JSONBackend{Dir: dir, Log: log}
}

func (b *JSONBackend) marketsPath() string { return filepath.Join(b.Dir, "markets.json") }
func (b *JSONBackend) usersPath() string   { return filepath.Join(b.Dir, "users.json") }
func (b *JSONBackend) tradesPath() string  { return filepath.Join(b.Dir, "trades.json") }

// LoadAll reads all three collection files, returning an empty Snapshot
// (not an error) if the directory has never been written to, the
// equivalent of a fresh boot. Referential integrity is enforced after
// decoding.
func (b *JSONBackend) LoadAll() (Snapshot, error) {
	var snap Snapshot

	if err := readJSONIfExists(b.marketsPath(), &snap.Markets); err != nil {
		return Snapshot{}, fmt.Errorf("persistence: loading markets: %w", err)
	}
	if err := readJSONIfExists(b.usersPath(), &snap.Users); err != nil {
		return Snapshot{}, fmt.Errorf("persistence: loading users: %w", err)
	}
	if err := readJSONIfExists(b.tradesPath(), &snap.Trades); err != nil {
		return Snapshot{}, fmt.Errorf("persistence: loading trades: %w", err)
	}

	if err := checkStructural(snap); err != nil {
		return Snapshot{}, err
	}
	snap = dropDanglingReferences(snap, b.Log)
	return snap, nil
}

// SaveAll writes every collection atomically. A failure partway through
// (e.g. the second file fails after the first succeeded) is reported as
// ErrDurability. The caller's in-memory state is not rolled back: the
// engine already committed in memory before this call was made.
func (b *JSONBackend) SaveAll(snap Snapshot) error {
	sortCollectionsByID(snap)

	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating persistence dir: %v", ErrDurability, err)
	}
	if err := writeJSONAtomic(b.marketsPath(), snap.Markets); err != nil {
		return fmt.Errorf("%w: writing markets: %v", ErrDurability, err)
	}
	if err := writeJSONAtomic(b.usersPath(), snap.Users); err != nil {
		return fmt.Errorf("%w: writing users: %v", ErrDurability, err)
	}
	if err := writeJSONAtomic(b.tradesPath(), snap.Trades); err != nil {
		return fmt.Errorf("%w: writing trades: %v", ErrDurability, err)
	}
	return nil
}

// sortCollectionsByID orders each collection by id in place, so that two
// snapshots built from the same underlying state always marshal to the same
// bytes regardless of the order the caller assembled them in.
func sortCollectionsByID(snap Snapshot) {
	sort.Slice(snap.Markets, func(i, j int) bool { return snap.Markets[i].ID < snap.Markets[j].ID })
	sort.Slice(snap.Users, func(i, j int) bool { return snap.Users[i].ID < snap.Users[j].ID })
	sort.Slice(snap.Trades, func(i, j int) bool { return snap.Trades[i].ID < snap.Trades[j].ID })
}

func readJSONIfExists(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// writeJSONAtomic marshals v, writes it to path+".tmp", syncs it to disk,
// then renames it over path. The rename is atomic on any POSIX filesystem,
// so a reader never observes a partially written collection file.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
