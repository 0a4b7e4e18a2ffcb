package thumbs

import (
	"context"
	"errors"
	"image"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/loop"
	"github.com/justyntemme/docview/internal/metrics"
	"github.com/justyntemme/docview/internal/mimefilter"
	"github.com/justyntemme/docview/internal/model"
)

// Source produces thumbnails. Implementations may be slow and may fail.
type Source interface {
	Thumbnail(ctx context.Context, id model.DocID, size int) (image.Image, error)
}

// Target is the image view inside a row view slot.
type Target interface {
	SetThumbnail(img image.Image)
}

// SlotID names a recycled row view.
type SlotID int

// Token tags one fetch. A slot's token changes on every rebind, so a
// completion compares its token with the slot's current one by value.
type Token uint64

type pending struct {
	token Token
	id    model.DocID
}

// Binding is what a row view shows right after a bind.
type Binding struct {
	// Icon is the static icon reference, set whenever no thumbnail is bound yet.
	Icon      string
	Thumbnail image.Image
	// Pending is true when a fetch was issued for this bind.
	Pending bool
	Token   Token
}

// Fetcher issues at most one outstanding fetch per slot.
type Fetcher struct {
	ctx       context.Context
	source    Source
	cache     *Cache
	exec      loop.Executor
	listMimes []string

	group singleflight.Group

	mu    sync.Mutex
	slots map[SlotID]pending
	next  Token
	wg    sync.WaitGroup
}

// NewFetcher creates a fetcher whose completions are posted to exec.
// Fetches run under ctx; cancelling it stops work that has not started.
func NewFetcher(ctx context.Context, source Source, cache *Cache, exec loop.Executor, listMimes []string) *Fetcher {
	if listMimes == nil {
		listMimes = mimefilter.ListThumbnailMimes
	}
	return &Fetcher{
		ctx:       ctx,
		source:    source,
		cache:     cache,
		exec:      exec,
		listMimes: listMimes,
		slots:     make(map[SlotID]pending),
	}
}

// Cache returns the cache this fetcher fills.
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Allowed reports whether mode permits a thumbnail for item. Grid always
// does; list only for the list mime allow-list.
func (f *Fetcher) Allowed(item model.Item, mode model.Mode) bool {
	if !item.SupportsThumbnail() {
		return false
	}
	switch mode {
	case model.ModeGrid:
		return true
	case model.ModeList:
		return mimefilter.Matches(f.listMimes, item.MimeType)
	}
	panic("thumbs: unknown mode " + mode.String())
}

// StaticIcon is the package icon when the item carries one, else the mime icon.
func StaticIcon(item model.Item) string {
	if item.Icon != "" {
		return "pkg:" + item.Icon
	}
	return "mime:" + mimefilter.IconFor(item.MimeType)
}

// Bind runs the per-bind contract for slot: any fetch still tagged to the
// slot is cancelled first, then the thumbnail is served from cache or
// fetched asynchronously into target.
func (f *Fetcher) Bind(slot SlotID, item model.Item, mode model.Mode, size int, target Target) Binding {
	f.Cancel(slot)

	if !f.Allowed(item, mode) {
		return Binding{Icon: StaticIcon(item)}
	}

	if img, ok := f.cache.Get(item.ID, size); ok {
		metrics.RecordThumbnailLookup(true)
		return Binding{Thumbnail: img}
	}
	metrics.RecordThumbnailLookup(false)

	tok := f.Fetch(slot, item.ID, size, target)
	return Binding{Icon: StaticIcon(item), Pending: true, Token: tok}
}

// Cancel drops the fetch tagged to slot. The fetch itself may still finish
// and fill the cache; it just never reaches the slot.
func (f *Fetcher) Cancel(slot SlotID) {
	f.mu.Lock()
	p, ok := f.slots[slot]
	delete(f.slots, slot)
	f.mu.Unlock()

	if ok {
		metrics.RecordThumbnailFetch("cancelled")
		debug.Log(debug.THUMB, "Fetcher: slot %d cancelled fetch for %s (token %d)", slot, p.id, p.token)
	}
}

// Pending returns the token currently tagged to slot.
func (f *Fetcher) Pending(slot SlotID) (Token, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.slots[slot]
	return p.token, ok
}

// Fetch tags slot with a fresh token and retrieves id in the background.
// Callers normally go through Bind.
func (f *Fetcher) Fetch(slot SlotID, id model.DocID, size int, target Target) Token {
	f.Cancel(slot)

	f.mu.Lock()
	f.next++
	tok := f.next
	f.slots[slot] = pending{token: tok, id: id}
	f.mu.Unlock()

	metrics.RecordThumbnailFetch("started")
	debug.Log(debug.THUMB, "Fetcher: slot %d fetching %s@%d (token %d)", slot, id, size, tok)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		img, err := f.load(id, size)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				debug.Log(debug.THUMB, "Fetcher: %s@%d aborted: %v", id, size, err)
			} else {
				metrics.RecordThumbnailFetch("failed")
				debug.Warn(debug.THUMB, "Fetcher: failed to load thumbnail for %s: %v", id, err)
			}
			f.exec.Post(func() { f.release(slot, tok) })
			return
		}

		f.exec.Post(func() { f.deliver(slot, tok, img, target) })
	}()

	return tok
}

// load collapses concurrent requests for the same key into one source call
// and stores the result before any slot sees it.
func (f *Fetcher) load(id model.DocID, size int) (image.Image, error) {
	key := Key{ID: id, Size: size}
	v, err, _ := f.group.Do(key.String(), func() (interface{}, error) {
		if img, ok := f.cache.Get(id, size); ok {
			return img, nil
		}
		if err := f.ctx.Err(); err != nil {
			return nil, err
		}
		img, err := f.source.Thumbnail(f.ctx, id, size)
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, errors.New("thumbs: source returned no image")
		}
		f.cache.Put(id, size, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// deliver runs on the event loop.
func (f *Fetcher) deliver(slot SlotID, tok Token, img image.Image, target Target) {
	if !f.release(slot, tok) {
		metrics.RecordThumbnailFetch("discarded")
		debug.Log(debug.THUMB, "Fetcher: slot %d rebound, discarding token %d", slot, tok)
		return
	}
	metrics.RecordThumbnailFetch("bound")
	target.SetThumbnail(img)
}

// release clears slot's tag if it still equals tok.
func (f *Fetcher) release(slot SlotID, tok Token) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.slots[slot]
	if !ok || p.token != tok {
		return false
	}
	delete(f.slots, slot)
	return true
}

// Wait blocks until every background fetch has posted its completion.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}
