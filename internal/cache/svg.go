package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	filePrefix = "analysis-"
	fileSuffix = ".svg"
)

// SVGCache keeps rendered curves of stored analyses on disk.
type SVGCache struct {
	cacheDir   string
	maxEntries int
}

func NewSVGCache(cacheDir string, maxEntries int) (*SVGCache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &SVGCache{
		cacheDir:   cacheDir,
		maxEntries: maxEntries,
	}, nil
}

func (c *SVGCache) svgPath(analysisID int64) string {
	return filepath.Join(c.cacheDir, filePrefix+strconv.FormatInt(analysisID, 10)+fileSuffix)
}

func (c *SVGCache) Get(analysisID int64) ([]byte, bool) {
	data, err := os.ReadFile(c.svgPath(analysisID))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *SVGCache) Put(analysisID int64, svg []byte) error {
	path := c.svgPath(analysisID)
	tmp, err := os.CreateTemp(c.cacheDir, "svg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp svg: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := tmp.Chmod(0644); err != nil {
		return fmt.Errorf("chmod temp svg: %w", err)
	}
	if n, err := tmp.Write(svg); err != nil {
		return fmt.Errorf("write temp svg: %w", err)
	} else if n < len(svg) {
		return fmt.Errorf("write temp svg: short write")
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp svg: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(path)
		if err := os.Rename(tmp.Name(), path); err != nil {
			return fmt.Errorf("rename svg: %w", err)
		}
	}
	return nil
}

// GetOrGenerate returns the cached SVG or calls generate and caches its
// output. A failed cache write does not fail the call.
func (c *SVGCache) GetOrGenerate(analysisID int64, generate func() ([]byte, error)) ([]byte, error) {
	if svg, ok := c.Get(analysisID); ok {
		return svg, nil
	}

	svg, err := generate()
	if err != nil {
		return nil, err
	}

	_ = c.Put(analysisID, svg)

	return svg, nil
}

// Prune removes cached entries whose id is not in keepIDs. At most
// maxEntries of the highest ids are kept.
func (c *SVGCache) Prune(keepIDs []int64) error {
	if c.maxEntries > 0 && len(keepIDs) > c.maxEntries {
		sort.Slice(keepIDs, func(i, j int) bool {
			return keepIDs[i] > keepIDs[j]
		})
		keepIDs = keepIDs[:c.maxEntries]
	}

	keepSet := make(map[int64]bool)
	for _, id := range keepIDs {
		keepSet[id] = true
	}

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		idStr := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}

		if !keepSet[id] {
			if err := os.Remove(filepath.Join(c.cacheDir, name)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove analysis-%d cache: %w", id, err)
			}
		}
	}

	return nil
}

func (c *SVGCache) Delete(analysisID int64) error {
	if err := os.Remove(c.svgPath(analysisID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove analysis cache: %w", err)
	}
	return nil
}

func (c *SVGCache) CacheDir() string {
	return c.cacheDir
}
