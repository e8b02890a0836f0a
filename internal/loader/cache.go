package loader

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/models"
)

const (
	cacheSize = 32
	cacheTTL  = 5 * time.Minute
)

// CachingLoader wraps CSV loading with an expirable LRU keyed by file path,
// size and modification time, so repeated passes over the same unchanged file
// skip the parse. Entries expire so a stale set never outlives its TTL even
// if mtime granularity hides a rewrite.
type CachingLoader struct {
	cfg    Config
	cache  *expirable.LRU[string, *models.SeriesSet]
	logger *logging.Logger
}

// NewCachingLoader creates a caching loader with the given bucketing config.
func NewCachingLoader(cfg Config) *CachingLoader {
	return &CachingLoader{
		cfg:    cfg,
		cache:  expirable.NewLRU[string, *models.SeriesSet](cacheSize, nil, cacheTTL),
		logger: logging.GetLogger("loader.cache"),
	}
}

// Load returns the series set for the CSV file at path, from cache when the
// file is unchanged.
func (l *CachingLoader) Load(path string) (*models.SeriesSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat transactions file: %w", err)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())

	if set, ok := l.cache.Get(key); ok {
		l.logger.Debug("cache hit for %s", path)
		return set, nil
	}

	set, err := LoadCSVFile(path, l.cfg)
	if err != nil {
		return nil, err
	}

	l.cache.Add(key, set)
	l.logger.Debug("cached %d series for %s", len(set.Series), path)
	return set, nil
}
