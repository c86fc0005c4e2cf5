package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

const (
	hydrationPathKey      = "hydration.path"
	hydrationRetentionKey = "hydration.retention"
	hydrationFileMode     = 0o600
	hydrationDirMode      = 0o700
	hydrationConfigDir    = ".fasttrack"
	hydrationFile         = "hydration.toml"
	tempFilePattern       = ".hydration-*.toml.tmp"

	DefaultRetention = 30 * 24 * time.Hour
)

// HydrationRepository keeps the hydration log in a single TOML file. Entries
// older than the retention window are dropped whenever the file is written.
type HydrationRepository struct {
	path      string
	retention time.Duration
	clock     ports.Clock
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.HydrationRepository = (*HydrationRepository)(nil)

func NewHydrationRepository(cfg *viper.Viper, clock ports.Clock) (*HydrationRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	if !cfg.IsSet(hydrationPathKey) {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.SetDefault(hydrationPathKey, filepath.Join(homeDir, hydrationConfigDir, hydrationFile))
	}
	cfg.SetDefault(hydrationRetentionKey, DefaultRetention)

	path := cfg.GetString(hydrationPathKey)
	if path == "" {
		return nil, errors.New("hydration path is empty")
	}
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	retention := cfg.GetDuration(hydrationRetentionKey)
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &HydrationRepository{
		path:      path,
		retention: retention,
		clock:     clock,
		mu:        lockForPath(path),
	}, nil
}

func (r *HydrationRepository) Path() string {
	return r.path
}

func (r *HydrationRepository) Append(ctx context.Context, entry domain.HydrationEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.AmountML <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidAmount, entry.AmountML)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	cutoff := r.clock.Now().Add(-r.retention)
	kept := file.Entries[:0]
	for _, existing := range file.Entries {
		at := parseTime(existing.At)
		if at.IsZero() || at.Before(cutoff) {
			continue
		}
		kept = append(kept, existing)
	}
	file.Entries = append(kept, toSchema(entry))

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

// ListBetween returns entries in [from, to) ordered by time.
func (r *HydrationRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.HydrationEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HydrationEntry, 0, len(file.Entries))
	for _, raw := range file.Entries {
		entry, ok := fromSchema(raw)
		if !ok || entry.At.Before(from) || !entry.At.Before(to) {
			continue
		}
		entries = append(entries, entry)
	}
	slices.SortStableFunc(entries, func(a, b domain.HydrationEntry) int {
		return a.At.Compare(b.At)
	})

	return entries, nil
}

func (r *HydrationRepository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read hydration file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode hydration file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *HydrationRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), hydrationDirMode); err != nil {
		return fmt.Errorf("create hydration directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode hydration file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp hydration file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp hydration file: %w", err)
	}

	if err := tempFile.Chmod(hydrationFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp hydration file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp hydration file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace hydration file: %w", err)
	}
	cleanup = false

	return nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve hydration path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(entry domain.HydrationEntry) entrySchema {
	return entrySchema{
		At:       entry.At.Format(time.RFC3339Nano),
		AmountML: entry.AmountML,
	}
}

func fromSchema(entry entrySchema) (domain.HydrationEntry, bool) {
	at := parseTime(entry.At)
	if at.IsZero() || entry.AmountML <= 0 {
		return domain.HydrationEntry{}, false
	}
	return domain.HydrationEntry{At: at, AmountML: entry.AmountML}, true
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}
