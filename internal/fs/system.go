// Package fs is the directory query source over the local filesystem. It
// turns load requests into complete LoadResult snapshots.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/model"
	"github.com/justyntemme/docview/internal/search"
)

// Authority names documents served by this source. Their document ids are
// absolute paths.
const Authority = "local"

var ErrNotDirectory = errors.New("not a directory")

var errCapped = errors.New("search result cap reached")

// ModeLookup resolves a persisted presentation mode for a container.
type ModeLookup interface {
	LookupMode(rootID string, dir model.DocID) (model.Mode, bool)
}

// Response is one snapshot for a loader. A load may produce several.
type Response struct {
	LoaderID string
	Gen      int64
	Result   model.LoadResult
}

// Options tunes a System.
type Options struct {
	Modes        ModeLookup
	ShowHidden   bool
	DefaultDepth int
	// MaxResults caps search results; 0 means no cap.
	MaxResults int
}

type inflight struct {
	gen    int64
	cancel context.CancelFunc
}

type System struct {
	RequestChan  chan model.LoadRequest
	ResponseChan chan Response

	opts Options

	mu      sync.Mutex
	loaders map[string]inflight
	wg      sync.WaitGroup
}

func NewSystem(opts Options) *System {
	if opts.DefaultDepth <= 0 {
		opts.DefaultDepth = 2
	}
	return &System{
		RequestChan:  make(chan model.LoadRequest, 10),
		ResponseChan: make(chan Response, 10),
		opts:         opts,
		loaders:      make(map[string]inflight),
	}
}

// RequestLoad queues req. A newer request for the same loader cancels the
// one in flight.
func (s *System) RequestLoad(req model.LoadRequest) {
	s.RequestChan <- req
}

// Cancel stops whatever loader is computing.
func (s *System) Cancel(loaderID string) {
	s.mu.Lock()
	if cur, ok := s.loaders[loaderID]; ok {
		cur.cancel()
		delete(s.loaders, loaderID)
	}
	s.mu.Unlock()
}

// Start serves requests until RequestChan is closed, then waits for running
// loads and closes ResponseChan.
func (s *System) Start() {
	for req := range s.RequestChan {
		debug.Log(debug.FS, "Request: loader=%s gen=%d type=%d dir=%q query=%q sort=%s",
			req.LoaderID, req.Gen, req.Type, req.Dir.DocumentID, req.Query, req.Sort)

		ctx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		if prev, ok := s.loaders[req.LoaderID]; ok {
			debug.Log(debug.FS, "Cancelling loader %s gen %d", req.LoaderID, prev.gen)
			prev.cancel()
		}
		s.loaders[req.LoaderID] = inflight{gen: req.Gen, cancel: cancel}
		s.mu.Unlock()

		s.wg.Add(1)
		go func(ctx context.Context, req model.LoadRequest) {
			defer s.wg.Done()
			s.run(ctx, req)
			s.finish(req)
		}(ctx, req)
	}
	s.wg.Wait()
	close(s.ResponseChan)
}

// Stop cancels every running load and ends Start.
func (s *System) Stop() {
	s.mu.Lock()
	for id, cur := range s.loaders {
		cur.cancel()
		delete(s.loaders, id)
	}
	s.mu.Unlock()
	close(s.RequestChan)
}

func (s *System) finish(req model.LoadRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.loaders[req.LoaderID]; ok && cur.gen == req.Gen {
		cur.cancel()
		delete(s.loaders, req.LoaderID)
	}
}

// emit drops snapshots of cancelled loads.
func (s *System) emit(ctx context.Context, req model.LoadRequest, result model.LoadResult) {
	if ctx.Err() != nil {
		debug.Log(debug.FS, "Dropping snapshot for superseded loader %s gen %d", req.LoaderID, req.Gen)
		return
	}
	debug.Log(debug.FS, "Response: loader=%s gen=%d items=%d loading=%v err=%q",
		req.LoaderID, req.Gen, len(result.Items), result.Loading, result.Error)
	select {
	case s.ResponseChan <- Response{LoaderID: req.LoaderID, Gen: req.Gen, Result: result}:
	case <-ctx.Done():
	}
}

func (s *System) run(ctx context.Context, req model.LoadRequest) {
	base := model.LoadResult{
		Mode:      s.deriveMode(req),
		SortOrder: req.Sort,
	}
	if base.SortOrder == model.SortUnknown {
		base.SortOrder = model.SortByName
	}

	var (
		items   []model.Item
		skipped int
		err     error
	)
	switch req.Type {
	case model.LoadSearch:
		loading := base
		loading.Loading = true
		s.emit(ctx, req, loading)
		items, skipped, err = s.searchDir(ctx, req)
	default:
		items, skipped, err = s.fetchDir(ctx, req)
	}

	if ctx.Err() != nil {
		return
	}

	result := base
	if err != nil {
		debug.Log(debug.FS, "Load failed: %v", err)
		result.Error = err.Error()
	}
	SortItems(items, result.SortOrder)
	result.Items = items
	if skipped > 0 {
		result.Info = infoMessage(req.Type, skipped)
	}
	s.emit(ctx, req, result)
}

func infoMessage(t model.LoadType, n int) string {
	if t == model.LoadSearch {
		return fmt.Sprintf("More than %d results; refine the search", n)
	}
	if n == 1 {
		return "1 entry could not be read"
	}
	return fmt.Sprintf("%d entries could not be read", n)
}

// deriveMode prefers the persisted mode for the container, then the mode
// the user asked for, then list.
func (s *System) deriveMode(req model.LoadRequest) model.Mode {
	if s.opts.Modes != nil {
		if m, ok := s.opts.Modes.LookupMode(req.RootID, req.Dir); ok && m.Valid() {
			return m
		}
	}
	if req.UserMode.Valid() {
		return req.UserMode
	}
	return model.ModeList
}

// skipDirRoots contains top-level directories search never descends into
var skipDirRoots = map[string]bool{
	"dev":        true,
	"proc":       true,
	"sys":        true,
	"run":        true,
	"snap":       true,
	"boot":       true,
	"lost+found": true,
}

// shouldSkipPath reports whether path lies under a system directory.
func shouldSkipPath(path string) bool {
	if len(path) < 2 || path[0] != '/' {
		return false
	}
	rest := path[1:]
	first := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		first = rest[:i]
	}
	return skipDirRoots[first]
}

func (s *System) checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return nil
}

func (s *System) fetchDir(ctx context.Context, req model.LoadRequest) ([]model.Item, int, error) {
	path := req.Dir.DocumentID
	debug.Log(debug.FS, "fetchDir: reading %q", path)
	if err := s.checkDir(path); err != nil {
		return nil, 0, err
	}

	var (
		result  []model.Item
		skipped int
		mu      sync.Mutex
	)

	conf := &fastwalk.Config{Follow: true}
	pathLen := len(path)

	err := fastwalk.Walk(conf, path, func(fullPath string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			debug.Log(debug.FS_ENTRY, "fetchDir: walk error at %q: %v", fullPath, err)
			if fullPath != path {
				mu.Lock()
				skipped++
				mu.Unlock()
			}
			return nil
		}
		if fullPath == path {
			return nil
		}

		// Direct children only
		relStart := pathLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		if strings.ContainsAny(fullPath[relStart:], "/\\") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !s.opts.ShowHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Broken symlinks still list
			info, err = os.Lstat(fullPath)
			if err != nil {
				debug.Log(debug.FS_ENTRY, "fetchDir: skipping %q: %v", d.Name(), err)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
		}

		it := newItem(req.RootID, fullPath, info, d.Type()&fs.ModeSymlink != 0)
		mu.Lock()
		result = append(result, it)
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return result, skipped, err
	}

	debug.Log(debug.FS, "fetchDir: %d entries, %d skipped", len(result), skipped)
	return result, skipped, nil
}

// searchDir walks below the container up to the query depth. The skipped
// count it returns is the result cap when the cap was hit.
func (s *System) searchDir(ctx context.Context, req model.LoadRequest) ([]model.Item, int, error) {
	basePath := req.Dir.DocumentID
	query := search.Parse(req.Query)
	if query.IsEmpty() {
		debug.Log(debug.SEARCH, "searchDir: empty query, listing %q", basePath)
		return s.fetchDir(ctx, req)
	}
	if err := s.checkDir(basePath); err != nil {
		return nil, 0, err
	}

	maxDepth := query.Depth(s.opts.DefaultDepth)
	matcher := search.NewMatcher(query)
	debug.Log(debug.SEARCH, "searchDir: base=%q query=%q depth=%d", basePath, req.Query, maxDepth)

	var (
		results []model.Item
		capped  bool
		mu      sync.Mutex
	)

	// Symlinks are not followed so loops cannot recurse forever
	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, basePath, func(fullPath string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil || fullPath == basePath {
			return nil
		}
		if shouldSkipPath(fullPath) || (!s.opts.ShowHidden && strings.HasPrefix(d.Name(), ".")) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if fastwalk.DirEntryDepth(d) > maxDepth {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return nil
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		it := newItem(req.RootID, fullPath, info, false)
		if !matcher.Match(it) {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		if s.opts.MaxResults > 0 && len(results) >= s.opts.MaxResults {
			capped = true
			return errCapped
		}
		debug.Log(debug.SEARCH, "searchDir: MATCH %s", fullPath)
		results = append(results, it)
		return nil
	})
	if err != nil && !errors.Is(err, errCapped) && ctx.Err() == nil {
		return results, 0, err
	}

	if capped {
		return results, s.opts.MaxResults, nil
	}
	return results, 0, nil
}

// thumbnailMimes are the types the local thumbnail source can decode.
var thumbnailMimes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
}

func newItem(rootID, fullPath string, info os.FileInfo, symlink bool) model.Item {
	it := model.Item{
		ID:           model.DocID{Authority: Authority, DocumentID: fullPath},
		RootID:       rootID,
		DisplayName:  filepath.Base(fullPath),
		Size:         -1,
		LastModified: -1,
	}
	if !info.ModTime().IsZero() {
		it.LastModified = info.ModTime().UnixMilli()
	}
	if info.Mode().Perm()&0o200 != 0 {
		it.Flags |= model.FlagDeletable
	}
	if symlink {
		if target, err := os.Readlink(fullPath); err == nil {
			it.Summary = "→ " + target
		}
	}

	if info.IsDir() {
		it.MimeType = model.MimeTypeDir
		it.Flags |= model.FlagContainer
		return it
	}

	it.Size = info.Size()
	it.MimeType = detectMime(fullPath, info)
	if thumbnailMimes[it.MimeType] {
		it.Flags |= model.FlagSupportsThumbnail
	}
	return it
}

// detectMime tries the extension table first and sniffs content only for
// unknown extensions.
func detectMime(path string, info os.FileInfo) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return "application/octet-stream"
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		debug.Log(debug.FS_ENTRY, "detectMime: %s: %v", path, err)
		return "application/octet-stream"
	}
	base, _, _ := strings.Cut(m.String(), ";")
	return base
}

// SortItems orders items containers first, then by order. Names compare
// case-insensitively; date and size put the largest first.
func SortItems(items []model.Item, order model.SortOrder) {
	cmp := comparator(order)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsContainer() != items[j].IsContainer() {
			return items[i].IsContainer()
		}
		return cmp(items[i], items[j])
	})
}

func comparator(order model.SortOrder) func(a, b model.Item) bool {
	byName := func(a, b model.Item) bool {
		return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
	}
	switch order {
	case model.SortByDate:
		return func(a, b model.Item) bool {
			if a.LastModified == b.LastModified {
				return byName(a, b)
			}
			return a.LastModified > b.LastModified
		}
	case model.SortBySize:
		return func(a, b model.Item) bool {
			if a.Size == b.Size {
				return byName(a, b)
			}
			return a.Size > b.Size
		}
	default:
		return byName
	}
}
