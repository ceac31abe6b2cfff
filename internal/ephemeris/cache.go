package ephemeris

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cache keeps exported tables on disk as
// ephem_<range start>_<range end>_<export time>.csv, with the range in unix
// seconds and the export time in unix nanoseconds. Only the maxFiles most
// recent exports are kept.
type Cache struct {
	dir      string
	maxFiles int
	logger   *slog.Logger
}

// CachedTable describes one table file in a Cache.
type CachedTable struct {
	Path     string
	Range    Interval
	Exported time.Time
}

// NewCache creates a Cache rooted at dir. A non-positive maxFiles keeps 5.
func NewCache(dir string, maxFiles int, logger *slog.Logger) *Cache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Cache{dir: dir, maxFiles: maxFiles, logger: logger}
}

// Save writes tbl as exported at the given instant, then prunes the oldest
// exports. An existing file is never replaced: a name collision moves the
// export time forward by a nanosecond until the name is free.
func (c *Cache) Save(tbl *Table, exported time.Time) (CachedTable, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return CachedTable{}, fmt.Errorf("creating cache dir: %w", err)
	}

	entry := CachedTable{Range: tbl.Range(), Exported: exported}
	var f *os.File
	for {
		entry.Path = filepath.Join(c.dir, cacheFileName(entry.Range, entry.Exported))
		var err error
		f, err = os.OpenFile(entry.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			entry.Exported = entry.Exported.Add(time.Nanosecond)
			continue
		}
		if err != nil {
			return CachedTable{}, fmt.Errorf("creating cache file: %w", err)
		}
		break
	}

	if err := tbl.Encode(f); err != nil {
		f.Close()
		os.Remove(entry.Path)
		return CachedTable{}, err
	}
	if err := f.Close(); err != nil {
		return CachedTable{}, fmt.Errorf("closing cache file: %w", err)
	}

	c.logger.Debug("ephemeris table cached",
		"path", entry.Path,
		"samples", tbl.Len(),
		"min", entry.Range.Min.UTC().Format(time.RFC3339),
		"max", entry.Range.Max.UTC().Format(time.RFC3339),
	)
	return entry, c.prune()
}

// List returns the cached tables, oldest export first. A missing directory
// is an empty cache.
func (c *Cache) List() ([]CachedTable, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	var tables []CachedTable
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ct, ok := parseCacheFileName(e.Name())
		if !ok {
			continue
		}
		ct.Path = filepath.Join(c.dir, e.Name())
		tables = append(tables, ct)
	}

	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Exported.Before(tables[j].Exported)
	})
	return tables, nil
}

// Latest loads the most recently exported table.
func (c *Cache) Latest() (*Table, CachedTable, error) {
	tables, err := c.List()
	if err != nil {
		return nil, CachedTable{}, err
	}
	if len(tables) == 0 {
		return nil, CachedTable{}, fmt.Errorf("no ephemeris tables in %s", c.dir)
	}

	latest := tables[len(tables)-1]
	f, err := os.Open(latest.Path)
	if err != nil {
		return nil, CachedTable{}, fmt.Errorf("opening cached table: %w", err)
	}
	defer f.Close()

	tbl, err := ParseTable(f, c.logger)
	if err != nil {
		return nil, CachedTable{}, fmt.Errorf("parsing cached table %s: %w", filepath.Base(latest.Path), err)
	}
	c.logger.Info("loaded ephemeris table from cache",
		"samples", tbl.Len(),
		"exported_at", latest.Exported.UTC().Format(time.RFC3339),
	)
	return tbl, latest, nil
}

func (c *Cache) prune() error {
	tables, err := c.List()
	if err != nil {
		return err
	}
	if len(tables) <= c.maxFiles {
		return nil
	}

	for _, ct := range tables[:len(tables)-c.maxFiles] {
		if err := os.Remove(ct.Path); err != nil {
			return fmt.Errorf("pruning cache file %s: %w", filepath.Base(ct.Path), err)
		}
		c.logger.Debug("pruned cached ephemeris table", "path", ct.Path)
	}
	return nil
}

func cacheFileName(iv Interval, exported time.Time) string {
	return fmt.Sprintf("ephem_%d_%d_%d.csv", iv.Min.Unix(), iv.Max.Unix(), exported.UnixNano())
}

func parseCacheFileName(name string) (CachedTable, bool) {
	if !strings.HasPrefix(name, "ephem_") || !strings.HasSuffix(name, ".csv") {
		return CachedTable{}, false
	}
	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(name, "ephem_"), ".csv"), "_")
	if len(parts) != 3 {
		return CachedTable{}, false
	}

	var n [3]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return CachedTable{}, false
		}
		n[i] = v
	}
	return CachedTable{
		Range:    Interval{Min: time.Unix(n[0], 0).UTC(), Max: time.Unix(n[1], 0).UTC()},
		Exported: time.Unix(0, n[2]).UTC(),
	}, true
}
