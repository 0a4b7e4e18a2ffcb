package app

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/display"
	"github.com/justyntemme/docview/internal/metrics"
	"github.com/justyntemme/docview/internal/mimefilter"
	"github.com/justyntemme/docview/internal/model"
	"github.com/justyntemme/docview/internal/rows"
	"github.com/justyntemme/docview/internal/selection"
	"github.com/justyntemme/docview/internal/thumbs"
)

// Loader is the directory query source. A request supersedes any earlier
// one with the same loader id.
type Loader interface {
	RequestLoad(req model.LoadRequest)
}

// ModeStore persists a chosen mode. Calls are fire-and-forget.
type ModeStore interface {
	SaveMode(rootID string, doc model.DocID, mode model.Mode)
}

// Observer is the surrounding shell. All calls arrive on the event loop.
type Observer interface {
	Rerender()
	ScrollToTop()
	DisplayStateChanged(state model.DisplayState)
	SelectionChanged(count int)
}

// Picker receives items the user opened.
type Picker func(item model.Item)

// Options configures a DirectoryViewModel.
type Options struct {
	RootID string
	Dir    model.DocID
	Type   model.LoadType
	Query  string

	State model.DisplayState

	// Thumbnail pixel sizes per mode.
	GridSize int
	ListSize int

	Loader   Loader
	Store    ModeStore
	Observer Observer
	Fetcher  *thumbs.Fetcher
	Picker   Picker

	// Now is the clock for date formatting; nil means time.Now.
	Now func() time.Time
}

// RowView holds the display fields for one bound row.
type RowView struct {
	Kind rows.Kind

	Title   string
	Summary string
	Date    string
	Size    string
	// Line2 is set when any of Summary, Date or Size is present.
	Line2 bool

	Icon      string
	Thumbnail image.Image
	Pending   bool

	Enabled bool
	Checked bool

	// Message is the footer text.
	Message string
}

// DirectoryViewModel owns the rows, display state and selection of one
// directory view. Every method must run on the event loop except where
// noted.
type DirectoryViewModel struct {
	id   string
	opts Options

	display *display.Controller
	rows    *rows.Model
	sel     *selection.Controller

	// gen is the generation of the latest request; only its results apply.
	gen int64

	bg sync.WaitGroup
}

func NewDirectoryViewModel(opts Options) *DirectoryViewModel {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.State.AcceptMimes) == 0 {
		opts.State.AcceptMimes = []string{"*/*"}
	}
	if !opts.State.UserMode.Valid() {
		opts.State.UserMode = model.ModeList
	}
	if !opts.State.DerivedMode.Valid() {
		opts.State.DerivedMode = opts.State.UserMode
	}
	if opts.State.UserSortOrder == model.SortUnknown {
		opts.State.UserSortOrder = model.SortByName
	}
	if opts.State.DerivedSortOrder == model.SortUnknown {
		opts.State.DerivedSortOrder = opts.State.UserSortOrder
	}

	return &DirectoryViewModel{
		id:      uuid.NewString(),
		opts:    opts,
		display: display.NewController(opts.State),
		rows:    rows.Empty,
		sel:     selection.New(opts.State.AcceptMimes, opts.State.AllowMultiple),
	}
}

// ID is the loader id this view's requests and results carry.
func (vm *DirectoryViewModel) ID() string {
	return vm.id
}

func (vm *DirectoryViewModel) Dir() model.DocID {
	return vm.opts.Dir
}

func (vm *DirectoryViewModel) RootID() string {
	return vm.opts.RootID
}

// Start issues the first load.
func (vm *DirectoryViewModel) Start() {
	vm.requestLoad()
}

// Refresh re-runs the query with the current user sort order.
func (vm *DirectoryViewModel) Refresh() {
	vm.requestLoad()
}

func (vm *DirectoryViewModel) requestLoad() {
	vm.gen++
	state := vm.display.State()
	req := model.LoadRequest{
		LoaderID: vm.id,
		Gen:      vm.gen,
		Type:     vm.opts.Type,
		RootID:   vm.opts.RootID,
		Dir:      vm.opts.Dir,
		Query:    vm.opts.Query,
		Sort:     state.UserSortOrder,
		UserMode: state.UserMode,
	}

	loadType := "normal"
	if req.Type == model.LoadSearch {
		loadType = "search"
	}
	metrics.RecordLoadRequested(loadType)
	debug.Log(debug.APP, "ViewModel %s: load gen=%d dir=%s sort=%s", vm.id, vm.gen, req.Dir, req.Sort)

	vm.opts.Loader.RequestLoad(req)
}

// OnResult applies a snapshot produced for generation gen. Snapshots of
// superseded requests are discarded.
func (vm *DirectoryViewModel) OnResult(gen int64, result model.LoadResult) {
	if gen != vm.gen {
		metrics.RecordLoadResult(false)
		debug.Log(debug.APP, "ViewModel %s: discarding stale result gen=%d (latest %d)", vm.id, gen, vm.gen)
		return
	}
	metrics.RecordLoadResult(true)

	fx := vm.display.Dispatch(display.LoadCompleted{Result: result})
	hadSelection := !vm.sel.Empty()
	if fx.Rebuild {
		vm.rows = rows.Rebuild(result)
		vm.sel.Reset(vm.rows)
	}

	debug.Log(debug.APP, "ViewModel %s: applied gen=%d rows=%d footers=%d mode=%s",
		vm.id, gen, vm.rows.Len(), vm.rows.FooterCount(), result.Mode)

	vm.apply(fx)
	if hadSelection {
		vm.opts.Observer.SelectionChanged(0)
	}
}

// OnUserSortOrderChanged reloads with order. Display state follows when the
// result lands.
func (vm *DirectoryViewModel) OnUserSortOrderChanged(order model.SortOrder) {
	vm.apply(vm.display.Dispatch(display.SortChanged{Order: order}))
}

// OnUserModeChanged switches mode at once and re-renders the existing rows.
func (vm *DirectoryViewModel) OnUserModeChanged(mode model.Mode) {
	vm.apply(vm.display.Dispatch(display.ModeChanged{Mode: mode}))
}

// OnAcceptMimesChanged narrows or widens which items can be checked.
// Checked items that no longer match are dropped.
func (vm *DirectoryViewModel) OnAcceptMimesChanged(accept []string) {
	before := vm.sel.Count()
	fx := vm.display.Dispatch(display.FilterChanged{Accept: accept})
	vm.sel.SetFilter(vm.display.State().AcceptMimes)
	vm.apply(fx)
	if after := vm.sel.Count(); after != before {
		vm.opts.Observer.SelectionChanged(after)
	}
}

func (vm *DirectoryViewModel) apply(fx display.Effects) {
	if fx.Reload {
		vm.requestLoad()
	}
	if fx.PersistMode {
		vm.persistMode(vm.display.Mode())
	}
	if fx.ScrollToTop {
		vm.opts.Observer.ScrollToTop()
	}
	if fx.StateChanged {
		vm.opts.Observer.DisplayStateChanged(vm.display.State())
	}
	if fx.Rerender || fx.Rebuild {
		vm.opts.Observer.Rerender()
	}
}

func (vm *DirectoryViewModel) persistMode(mode model.Mode) {
	if vm.opts.Store == nil {
		return
	}
	root, dir := vm.opts.RootID, vm.opts.Dir
	vm.bg.Add(1)
	go func() {
		defer vm.bg.Done()
		vm.opts.Store.SaveMode(root, dir, mode)
	}()
}

// Wait blocks until background persistence calls have returned. Safe from
// any goroutine.
func (vm *DirectoryViewModel) Wait() {
	vm.bg.Wait()
}

func (vm *DirectoryViewModel) RowCount() int {
	return vm.rows.Len()
}

// EmptyVisible reports whether the empty placeholder shows.
func (vm *DirectoryViewModel) EmptyVisible() bool {
	return vm.rows.EmptyVisible()
}

func (vm *DirectoryViewModel) Row(position int) rows.Row {
	return vm.rows.At(position)
}

func (vm *DirectoryViewModel) DisplayState() model.DisplayState {
	return vm.display.State()
}

// ThumbnailSize is the pixel size thumbnails are requested at in mode.
func (vm *DirectoryViewModel) ThumbnailSize(mode model.Mode) int {
	switch mode {
	case model.ModeGrid:
		return vm.opts.GridSize
	case model.ModeList:
		return vm.opts.ListSize
	}
	panic(fmt.Sprintf("app: unknown mode %s", mode))
}

// BindRow resolves position for the view slot and returns what it shows.
// Data rows start or reuse a thumbnail for target. Binding a footer to a
// slot drops any fetch still tagged to it.
func (vm *DirectoryViewModel) BindRow(position int, slot thumbs.SlotID, target thumbs.Target) RowView {
	row := vm.rows.At(position)
	if row.IsFooter() {
		if vm.opts.Fetcher != nil {
			vm.opts.Fetcher.Cancel(slot)
		}
		return RowView{Kind: row.Kind, Message: row.Message}
	}

	item, _ := vm.rows.Item(position)
	state := vm.display.State()
	mode := state.DerivedMode

	view := RowView{
		Kind:    rows.KindData,
		Title:   item.DisplayName,
		Summary: item.Summary,
		Date:    FormatDate(item.LastModified, vm.opts.Now()),
		Size:    FormatSize(item, state.ShowSize),
		Enabled: mimefilter.Enabled(state.AcceptMimes, item),
		Checked: vm.sel.IsChecked(position),
	}
	view.Line2 = view.Summary != "" || view.Date != "" || view.Size != ""

	if vm.opts.Fetcher == nil {
		view.Icon = thumbs.StaticIcon(item)
		return view
	}
	b := vm.opts.Fetcher.Bind(slot, item, mode, vm.ThumbnailSize(mode), target)
	view.Icon = b.Icon
	view.Thumbnail = b.Thumbnail
	view.Pending = b.Pending
	return view
}

// SetChecked changes the checked state of position and reports the state
// it ended in.
func (vm *DirectoryViewModel) SetChecked(position int, checked bool) bool {
	before := vm.sel.Count()
	got := vm.sel.SetChecked(position, checked)
	if after := vm.sel.Count(); after != before {
		vm.opts.Observer.SelectionChanged(after)
	}
	return got
}

// ClearSelection unchecks everything.
func (vm *DirectoryViewModel) ClearSelection() {
	if vm.sel.Empty() {
		return
	}
	vm.sel.Clear()
	vm.opts.Observer.SelectionChanged(0)
}

// CheckedItems returns the checked items in row order.
func (vm *DirectoryViewModel) CheckedItems() []model.Item {
	return vm.sel.CheckedItems()
}

func (vm *DirectoryViewModel) SelectionEmpty() bool {
	return vm.sel.Empty()
}

// Pick opens the data row at position when it is enabled. It reports
// whether the picker was called.
func (vm *DirectoryViewModel) Pick(position int) bool {
	if position < 0 || position >= vm.rows.Len() {
		return false
	}
	item, ok := vm.rows.Item(position)
	if !ok || !mimefilter.Enabled(vm.display.State().AcceptMimes, item) {
		return false
	}
	if vm.opts.Picker != nil {
		vm.opts.Picker(item)
	}
	return true
}
