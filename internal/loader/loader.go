package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/parser"
	"github.com/ThiagoRGoveia/fvt-dashboard/pkg/checksum"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	kindTests  = "tests"
	kindLimits = "limits"
)

// snapshot is one parsed source together with the file state it was read from.
type snapshot struct {
	modTime  time.Time
	size     int64
	checksum string
	value    any
	report   *models.ParseReport
}

func (s *snapshot) matches(info os.FileInfo) bool {
	return s.modTime.Equal(info.ModTime()) && s.size == info.Size()
}

// Loader parses test logs and limits summaries and memoizes the result per
// path. An entry is reused while the file's size and modification time are
// unchanged; when they differ the content hash decides whether to reparse.
type Loader struct {
	mu      sync.RWMutex
	entries map[string]*snapshot
	group   singleflight.Group
	scale   models.PercentScale
	metrics *Metrics
}

func NewLoader(scale models.PercentScale, metrics *Metrics) *Loader {
	return &Loader{
		entries: make(map[string]*snapshot),
		scale:   scale,
		metrics: metrics,
	}
}

// LoadTestRecords returns the raw test records of the CSV at path. The slice is
// shared between callers and must not be modified.
func (l *Loader) LoadTestRecords(ctx context.Context, path string) ([]models.TestRecord, *models.ParseReport, error) {
	value, report, err := l.load(ctx, kindTests, path, func(r io.Reader) (any, *models.ParseReport, error) {
		return parser.ParseTestRecords(r, path)
	})
	if err != nil {
		return nil, nil, err
	}
	return value.([]models.TestRecord), report, nil
}

// LoadLimitsRecords returns the normalized limits summary at path. The dataset
// is shared between callers and must not be modified.
func (l *Loader) LoadLimitsRecords(ctx context.Context, path string) (*models.LimitsDataset, *models.ParseReport, error) {
	value, report, err := l.load(ctx, kindLimits, path, func(r io.Reader) (any, *models.ParseReport, error) {
		return parser.ParseLimitsRecords(r, path, l.scale)
	})
	if err != nil {
		return nil, nil, err
	}
	return value.(*models.LimitsDataset), report, nil
}

// Invalidate drops every cached entry for path.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, cacheKey(kindTests, path))
	delete(l.entries, cacheKey(kindLimits, path))
}

func cacheKey(kind, path string) string {
	return kind + ":" + path
}

func (l *Loader) cached(key string) *snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[key]
}

func (l *Loader) store(key string, s *snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = s
}

func (l *Loader) load(ctx context.Context, kind, path string, parse func(io.Reader) (any, *models.ParseReport, error)) (any, *models.ParseReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	key := cacheKey(kind, path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if s := l.cached(key); s != nil && s.matches(info) {
		l.metrics.hit(kind)
		return s.value, s.report, nil
	}

	resultChan := l.group.DoChan(key, func() (any, error) {
		return l.refresh(kind, key, path, parse)
	})

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case result := <-resultChan:
		if result.Err != nil {
			return nil, nil, result.Err
		}
		s := result.Val.(*snapshot)
		return s.value, s.report, nil
	}
}

func (l *Loader) refresh(kind, key, path string, parse func(io.Reader) (any, *models.ParseReport, error)) (*snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	sum := checksum.CalculateHash(content)

	if previous := l.cached(key); previous != nil && previous.checksum == sum {
		log.WithField("path", path).Debug("File touched but content unchanged, keeping cached snapshot")
		s := &snapshot{
			modTime:  info.ModTime(),
			size:     info.Size(),
			checksum: sum,
			value:    previous.value,
			report:   previous.report,
		}
		l.store(key, s)
		l.metrics.hit(kind)
		return s, nil
	}

	l.metrics.miss(kind)
	startTime := time.Now()
	value, report, err := parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logReport(report, time.Since(startTime))

	s := &snapshot{
		modTime:  info.ModTime(),
		size:     info.Size(),
		checksum: sum,
		value:    value,
		report:   report,
	}
	l.store(key, s)
	return s, nil
}

func logReport(report *models.ParseReport, elapsed time.Duration) {
	logger := log.WithFields(log.Fields{
		"source":   report.Source,
		"rows":     report.Rows,
		"skipped":  report.Skipped,
		"problems": report.Problems(),
		"duration": elapsed,
	})
	logger.Info("Loaded source")
	for i := range report.Errors {
		logger.WithError(&report.Errors[i]).Warn("Row problem")
	}
	if report.Truncated > 0 {
		logger.Warnf("%d more row problems not recorded, source is probably malformed", report.Truncated)
	}
}
