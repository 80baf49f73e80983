package index

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wardenhq/warden/internal/errors"
)

// ScanResult summarizes one workspace scan.
type ScanResult struct {
	FilesIndexed int   `json:"files_indexed"`
	FilesSkipped int   `json:"files_skipped"`
	SymbolsFound int   `json:"symbols_found"`
	DurationMS   int64 `json:"duration_ms"`
}

// ScanWorkspace walks the workspace root recursively up to the configured
// depth, skipping excluded directory names, oversized files, and
// unsupported extensions, and indexes each eligible file.
//
// A single unreadable file is logged and skipped; the scan continues. A
// cancelled context aborts the walk, leaving the index partially populated
// until the next scan or save-triggered update.
func (ix *Index) ScanWorkspace(ctx context.Context) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{}

	excluded := make(map[string]bool, len(ix.cfg.ExcludeDirs))
	for _, d := range ix.cfg.ExcludeDirs {
		excluded[d] = true
	}
	supported := make(map[string]bool, len(ix.cfg.IncludeExts))
	for _, e := range ix.cfg.IncludeExts {
		supported[strings.ToLower(e)] = true
	}

	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable directory entry: skip, keep scanning.
			log.Printf("scan: skipping %s: %v", path, err)
			result.FilesSkipped++
			return nil
		}

		rel, relErr := filepath.Rel(ix.root, path)
		if relErr != nil {
			return nil
		}
		rel = normalizePath(rel)

		if d.IsDir() {
			if path == ix.root {
				return nil
			}
			if excluded[d.Name()] {
				return filepath.SkipDir
			}
			if pathDepth(rel) >= ix.cfg.MaxScanDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if !supported[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			log.Printf("scan: stat %s: %v", path, infoErr)
			result.FilesSkipped++
			return nil
		}
		if info.Size() > ix.cfg.MaxFileSizeBytes {
			result.FilesSkipped++
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			log.Printf("scan: read %s: %v", path, readErr)
			result.FilesSkipped++
			return nil
		}

		ix.UpdateFile(rel, string(content))
		result.FilesIndexed++
		return nil
	})
	if err != nil {
		return nil, err
	}

	ix.mu.Lock()
	ix.lastScan = time.Now().Unix()
	ix.mu.Unlock()

	stats := ix.Stats()
	result.SymbolsFound = stats.Symbols
	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

// IndexFile reads one file from disk (path relative to the workspace root)
// and indexes it. Used by save hooks that don't carry content.
func (ix *Index) IndexFile(path string) error {
	rel := normalizePath(path)
	abs := filepath.Join(ix.root, filepath.FromSlash(rel))

	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if info.Size() > ix.cfg.MaxFileSizeBytes {
		return errors.NewFileTooLarge(rel, ix.cfg.MaxFileSizeBytes, info.Size())
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	ix.UpdateFile(rel, string(content))
	return nil
}

// pathDepth counts path components below the workspace root.
func pathDepth(rel string) int {
	if rel == "." || rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}
