package index

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wardenhq/warden/internal/config"
)

// Symbol represents a named code entity found during indexing.
type Symbol struct {
	// Name is the identifier string
	Name string `json:"name"`

	// Kind is the heuristic classification: function, class, method,
	// type, variable, comment-marker. The set is open; extractors may
	// add kinds.
	Kind string `json:"kind"`

	// Line is the 1-based source line
	Line int `json:"line"`

	// File is the workspace-relative path of the owning file
	File string `json:"file"`
}

// FileRecord is one indexed file.
type FileRecord struct {
	// Path is the workspace-relative path (unique key)
	Path string `json:"path"`

	// Content is the cached text used for relevance scoring
	Content string `json:"-"`

	// Symbols are the entities found in this file, in source order
	Symbols []Symbol `json:"symbols"`

	// LastIndexed is the Unix timestamp of the most recent (re)index
	LastIndexed int64 `json:"last_indexed"`
}

// Stats summarizes index state.
type Stats struct {
	Files    int   `json:"files"`
	Symbols  int   `json:"symbols"`
	LastScan int64 `json:"last_scan,omitempty"`
}

// Index holds the in-memory workspace index: path → FileRecord and
// lowercased symbol name → occurrences. State is process-scoped and
// rebuilt on restart; the index is a relevance hint, not a source of truth.
type Index struct {
	root string
	cfg  *config.Config

	mu       sync.RWMutex
	files    map[string]*FileRecord
	symbols  map[string][]Symbol
	lastScan int64
}

// New creates an empty index rooted at the given workspace directory.
func New(root string, cfg *config.Config) *Index {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Index{
		root:    root,
		cfg:     cfg,
		files:   make(map[string]*FileRecord),
		symbols: make(map[string][]Symbol),
	}
}

// Root returns the workspace root directory.
func (ix *Index) Root() string {
	return ix.root
}

// UpdateFile re-indexes exactly one file from the given content, replacing
// any prior record and symbol entries for that path. Invoked on file save;
// no rescan happens.
func (ix *Index) UpdateFile(path, content string) {
	path = normalizePath(path)
	symbols := ExtractSymbols(path, content)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.replaceLocked(path, content, symbols)
}

// RemoveFile drops a file's record and symbol entries, e.g. after deletion.
func (ix *Index) RemoveFile(path string) {
	path = normalizePath(path)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	rec, ok := ix.files[path]
	if !ok {
		return
	}
	ix.dropSymbolsLocked(rec)
	delete(ix.files, path)
}

// File returns a copy of the record for the given path.
func (ix *Index) File(path string) (FileRecord, bool) {
	path = normalizePath(path)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rec, ok := ix.files[path]
	if !ok {
		return FileRecord{}, false
	}
	return copyRecord(rec), true
}

// Files returns copies of all records sorted by path. Retrieval works over
// this snapshot so queries never observe a half-applied update.
func (ix *Index) Files() []FileRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]FileRecord, 0, len(ix.files))
	for _, rec := range ix.files {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// SymbolOccurrences returns a copy of the symbol map (lowercased name →
// occurrences).
func (ix *Index) SymbolOccurrences() map[string][]Symbol {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[string][]Symbol, len(ix.symbols))
	for name, occ := range ix.symbols {
		out[name] = append([]Symbol(nil), occ...)
	}
	return out
}

// Stats returns current index counters.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := 0
	for _, occ := range ix.symbols {
		n += len(occ)
	}
	return Stats{
		Files:    len(ix.files),
		Symbols:  n,
		LastScan: ix.lastScan,
	}
}

// replaceLocked installs a fresh record for path, dropping prior symbol
// entries first so re-indexing never accumulates duplicates.
func (ix *Index) replaceLocked(path, content string, symbols []Symbol) {
	if old, ok := ix.files[path]; ok {
		ix.dropSymbolsLocked(old)
	}

	rec := &FileRecord{
		Path:        path,
		Content:     content,
		Symbols:     symbols,
		LastIndexed: time.Now().Unix(),
	}
	ix.files[path] = rec

	for _, sym := range symbols {
		key := strings.ToLower(sym.Name)
		ix.symbols[key] = append(ix.symbols[key], sym)
	}
}

// dropSymbolsLocked removes all symbol-map entries owned by the record.
func (ix *Index) dropSymbolsLocked(rec *FileRecord) {
	for _, sym := range rec.Symbols {
		key := strings.ToLower(sym.Name)
		occ := ix.symbols[key]
		kept := occ[:0]
		for _, s := range occ {
			if s.File != rec.Path {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(ix.symbols, key)
		} else {
			ix.symbols[key] = kept
		}
	}
}

func copyRecord(rec *FileRecord) FileRecord {
	out := *rec
	out.Symbols = append([]Symbol(nil), rec.Symbols...)
	return out
}

// normalizePath converts a path to forward slashes and strips leading "./"
// so map keys are stable across callers.
func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "./")
	return path
}
