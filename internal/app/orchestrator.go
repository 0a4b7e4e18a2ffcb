package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/justyntemme/docview/internal/config"
	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/fs"
	"github.com/justyntemme/docview/internal/loop"
	"github.com/justyntemme/docview/internal/model"
	"github.com/justyntemme/docview/internal/search"
	"github.com/justyntemme/docview/internal/store"
	"github.com/justyntemme/docview/internal/thumbs"
	"github.com/justyntemme/docview/internal/trash"
)

const maxHistorySize = 50

const settingSortOrder = "sort_order"

// Shell is the surface a directory view renders into. Every call arrives
// on the event loop.
type Shell interface {
	Render(vm *DirectoryViewModel)
	ScrollToTop()
	StateChanged(state model.DisplayState)
	SelectionChanged(count int)
	Notify(msg string)
	Sharer
}

// Orchestrator owns the event loop and the workers behind the current
// directory view. Only the current view receives load results.
type Orchestrator struct {
	cfg       config.Config
	storePath string
	shell     Shell

	loop    *loop.Loop
	fs      *fs.System
	store   *store.DB
	watcher *fs.Watcher
	fetcher *thumbs.Fetcher
	deleter Deleter
	roots   []fs.Root

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	fsDone    chan struct{}
	storeDone chan struct{}

	// Loop-owned
	current  *DirectoryViewModel
	history  []*DirectoryViewModel
	userMode model.Mode
	userSort model.SortOrder
	accept   []string
	homePath string
	open     func(path string) error

	// settingsApplied is set once the startup settings fetch landed;
	// sortChosen once the user picked a sort order this session.
	settingsApplied bool
	sortChosen      bool
}

// NewOrchestrator wires the workers from cfg. storePath may be empty to
// run without persistence.
func NewOrchestrator(cfg config.Config, storePath string, shell Shell) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	db := store.NewDB()
	lp := loop.New(64)
	home, _ := os.UserHomeDir()

	o := &Orchestrator{
		cfg:       cfg,
		storePath: storePath,
		shell:     shell,
		loop:      lp,
		store:     db,
		deleter:   &trash.Deleter{Authority: fs.Authority, Permanent: cfg.Trash.Permanent, Dir: cfg.Trash.Dir},
		roots:     fs.ListRoots(),
		ctx:       ctx,
		cancel:    cancel,
		userMode:  cfg.Mode(),
		userSort:  cfg.SortOrder(),
		accept:    cfg.Display.AcceptMimes,
		homePath:  home,
		open:      platformOpen,
		fsDone:    make(chan struct{}),
		storeDone: make(chan struct{}),
	}
	o.fs = fs.NewSystem(fs.Options{
		Modes:        db,
		ShowHidden:   cfg.Display.ShowHidden,
		DefaultDepth: cfg.Search.DefaultDepth,
		MaxResults:   cfg.Search.MaxResults,
	})
	o.fetcher = thumbs.NewFetcher(ctx,
		thumbs.FileSource{Authority: fs.Authority},
		thumbs.NewCache(cfg.Thumbnails.CacheEntries),
		lp, cfg.Thumbnails.ListMimes)
	return o
}

// Run blocks serving commands until ctx ends or Quit is called. Commands
// issued before Run are queued; the first is normally a Navigate.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.storePath != "" {
		if err := o.store.Open(o.storePath); err != nil {
			debug.Warn(debug.STORE, "Failed to open %s: %v", o.storePath, err)
		}
	}
	defer o.store.Close()

	if o.cfg.Watch.Enabled {
		w, err := fs.NewWatcher(o.cfg.Debounce())
		if err != nil {
			debug.Warn(debug.FS, "Directory watching disabled: %v", err)
		} else {
			o.watcher = w
			defer w.Close()
			go o.pumpWatcher()
		}
	}

	go o.fs.Start()
	go o.store.Start()
	go o.pumpFS()
	go o.pumpStore()

	o.store.RequestChan <- store.Request{Op: store.FetchSettings}

	debug.Log(debug.APP, "Event loop running")
	o.loop.Run(ctx)

	o.shutdown()
	return nil
}

func (o *Orchestrator) shutdown() {
	o.cancel()
	o.fs.Stop()
	<-o.fsDone
	o.fetcher.Wait()
	o.bg.Wait()
	for _, vm := range o.history {
		vm.Wait()
	}
	close(o.store.RequestChan)
	<-o.storeDone
	debug.Log(debug.APP, "Shut down")
}

// Quit ends Run.
func (o *Orchestrator) Quit() {
	o.loop.Stop()
}

// Post runs fn on the event loop with the current view, if any.
func (o *Orchestrator) Post(fn func(vm *DirectoryViewModel)) {
	o.loop.Post(func() {
		if o.current != nil {
			fn(o.current)
		}
	})
}

func (o *Orchestrator) pumpFS() {
	defer close(o.fsDone)
	for resp := range o.fs.ResponseChan {
		resp := resp
		o.loop.Post(func() {
			if o.current == nil || resp.LoaderID != o.current.ID() {
				debug.Log(debug.APP, "Dropping result for inactive loader %s", resp.LoaderID)
				return
			}
			o.current.OnResult(resp.Gen, resp.Result)
		})
	}
}

func (o *Orchestrator) pumpStore() {
	defer close(o.storeDone)
	for resp := range o.store.ResponseChan {
		if resp.Op != store.FetchSettings {
			continue
		}
		settings := resp.Settings
		o.loop.Post(func() { o.applySettings(settings) })
	}
}

// applySettings restores saved settings from the startup fetch only. A
// sort order the user already chose this session is kept.
func (o *Orchestrator) applySettings(settings map[string]string) {
	if o.settingsApplied {
		return
	}
	o.settingsApplied = true
	v, ok := settings[settingSortOrder]
	if !ok || o.sortChosen {
		return
	}
	order, err := model.ParseSortOrder(v)
	if err != nil || order == o.userSort {
		return
	}
	debug.Log(debug.APP, "Restoring sort order %s", order)
	o.userSort = order
	if o.current != nil {
		o.current.OnUserSortOrderChanged(order)
	}
}

func (o *Orchestrator) pumpWatcher() {
	for {
		select {
		case <-o.ctx.Done():
			return
		case dir := <-o.watcher.Changes():
			o.loop.Post(func() {
				if o.current != nil && o.current.Dir().DocumentID == dir {
					debug.Log(debug.APP, "Reloading %s after change", dir)
					o.current.Refresh()
				}
			})
		}
	}
}

// expandPath resolves ~ and relative paths against the current directory.
func (o *Orchestrator) expandPath(input string) string {
	input = strings.TrimSpace(input)
	base := o.homePath
	if o.current != nil {
		base = o.current.Dir().DocumentID
	}
	switch {
	case input == "":
		return base
	case input == "~":
		return o.homePath
	case strings.HasPrefix(input, "~/"), strings.HasPrefix(input, `~\`):
		return filepath.Join(o.homePath, input[2:])
	case filepath.IsAbs(input):
		return filepath.Clean(input)
	}
	return filepath.Clean(filepath.Join(base, input))
}

func (o *Orchestrator) newView(dir string, loadType model.LoadType, query string) *DirectoryViewModel {
	root := fs.RootFor(dir, o.roots)
	vm := NewDirectoryViewModel(Options{
		RootID: root.Path,
		Dir:    model.DocID{Authority: fs.Authority, DocumentID: dir},
		Type:   loadType,
		Query:  query,
		State: model.DisplayState{
			UserMode:      o.userMode,
			UserSortOrder: o.userSort,
			AcceptMimes:   o.accept,
			AllowMultiple: o.cfg.Display.AllowMultiple,
			ShowSize:      o.cfg.Display.ShowSize,
		},
		GridSize: o.cfg.Thumbnails.GridSize,
		ListSize: o.cfg.Thumbnails.ListSize,
		Loader:   o.fs,
		Store:    o.store,
		Observer: o,
		Fetcher:  o.fetcher,
		Picker:   o.pick,
	})
	return vm
}

func (o *Orchestrator) show(vm *DirectoryViewModel) {
	if o.current != nil && o.current != vm {
		o.fs.Cancel(o.current.ID())
	}
	o.current = vm
	if o.watcher != nil {
		if err := o.watcher.WatchOnly(vm.Dir().DocumentID); err != nil {
			debug.Log(debug.FS, "Cannot watch %s: %v", vm.Dir().DocumentID, err)
		}
	}
	o.shell.Render(vm)
	vm.Start()
}

func (o *Orchestrator) push(vm *DirectoryViewModel) {
	o.history = append(o.history, vm)
	if len(o.history) > maxHistorySize {
		o.history[0].Wait()
		o.history = o.history[1:]
	}
	o.show(vm)
}

func (o *Orchestrator) navigate(dir string) {
	debug.Log(debug.APP, "Navigate %s", dir)
	o.push(o.newView(dir, model.LoadNormal, ""))
}

func (o *Orchestrator) pick(item model.Item) {
	if item.IsContainer() {
		o.navigate(item.ID.DocumentID)
		return
	}
	if err := o.open(item.ID.DocumentID); err != nil {
		o.shell.Notify("Couldn't open " + item.DisplayName)
		debug.Warn(debug.APP, "Open %s: %v", item.ID, err)
		return
	}
	o.shell.Notify("Opened " + item.DisplayName)
}

// Observer

func (o *Orchestrator) Rerender() {
	if o.current != nil {
		o.shell.Render(o.current)
	}
}

func (o *Orchestrator) ScrollToTop() {
	o.shell.ScrollToTop()
}

func (o *Orchestrator) DisplayStateChanged(state model.DisplayState) {
	o.userMode = state.UserMode
	o.shell.StateChanged(state)
}

func (o *Orchestrator) SelectionChanged(count int) {
	o.shell.SelectionChanged(count)
}

// Commands. Each is posted to the event loop.

func (o *Orchestrator) Navigate(path string) {
	o.loop.Post(func() { o.navigate(o.expandPath(path)) })
}

// Up lists the parent of the current directory.
func (o *Orchestrator) Up() {
	o.Post(func(vm *DirectoryViewModel) {
		dir := vm.Dir().DocumentID
		if parent := filepath.Dir(dir); parent != dir {
			o.navigate(parent)
		}
	})
}

// Back returns to the previous view.
func (o *Orchestrator) Back() {
	o.loop.Post(func() {
		if len(o.history) < 2 {
			return
		}
		o.fs.Cancel(o.current.ID())
		o.current.Wait()
		o.history = o.history[:len(o.history)-1]
		o.show(o.history[len(o.history)-1])
	})
}

// Search lists matches for query below the current directory. An empty
// query lists the directory itself.
func (o *Orchestrator) Search(query string) {
	o.Post(func(vm *DirectoryViewModel) {
		query = strings.TrimSpace(query)
		if query == "" {
			o.navigate(vm.Dir().DocumentID)
			return
		}
		if search.Incomplete(query) {
			o.shell.Notify("Can't search: directive without a value in " + strconv.Quote(query))
			return
		}
		o.push(o.newView(vm.Dir().DocumentID, model.LoadSearch, query))
	})
}

func (o *Orchestrator) SetMode(mode model.Mode) {
	o.Post(func(vm *DirectoryViewModel) { vm.OnUserModeChanged(mode) })
}

func (o *Orchestrator) SetSort(order model.SortOrder) {
	o.Post(func(vm *DirectoryViewModel) {
		o.userSort = order
		o.sortChosen = true
		vm.OnUserSortOrderChanged(order)
		// Sent from the loop so saves reach the store in request order.
		o.store.RequestChan <- store.Request{Op: store.SaveSetting, Key: settingSortOrder, Value: order.String()}
	})
}

// SetFilter changes the MIME patterns checkable items must match. Views
// opened afterwards start with the same patterns.
func (o *Orchestrator) SetFilter(accept []string) {
	o.Post(func(vm *DirectoryViewModel) {
		o.accept = append([]string(nil), accept...)
		vm.OnAcceptMimesChanged(accept)
	})
}

func (o *Orchestrator) Refresh() {
	o.Post(func(vm *DirectoryViewModel) { vm.Refresh() })
}

// Check sets the checked state of positions and reports rejected ones.
func (o *Orchestrator) Check(positions []int, checked bool) {
	o.Post(func(vm *DirectoryViewModel) {
		var rejected []int
		for _, pos := range positions {
			if vm.SetChecked(pos, checked) != checked {
				rejected = append(rejected, pos)
			}
		}
		if len(rejected) > 0 {
			o.shell.Notify(rejectedMessage(rejected))
		}
		o.shell.Render(vm)
	})
}

func (o *Orchestrator) Open(position int) {
	o.Post(func(vm *DirectoryViewModel) {
		if !vm.Pick(position) {
			o.shell.Notify("Nothing to open there")
		}
	})
}

// DeleteChecked deletes the checked documents off the loop, then clears
// the selection and reloads.
func (o *Orchestrator) DeleteChecked() {
	o.Post(func(vm *DirectoryViewModel) {
		items := vm.CheckedItems()
		if len(items) == 0 {
			return
		}
		o.bg.Add(1)
		go func() {
			defer o.bg.Done()
			_ = DeleteDocuments(o.ctx, o.deleter, loopNotifier{o}, items)
			o.loop.Post(func() {
				if o.current == vm {
					vm.ClearSelection()
					vm.Refresh()
				}
			})
		}()
	})
}

// ShareChecked hands the checked documents to the shell's share target.
func (o *Orchestrator) ShareChecked() {
	o.Post(func(vm *DirectoryViewModel) {
		if err := ShareDocuments(o.shell, vm.CheckedItems()); err != nil {
			o.shell.Notify("Couldn't share: " + err.Error())
		}
	})
}

func rejectedMessage(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return "Can't change selection at " + strings.Join(parts, ", ")
}

// loopNotifier marshals notifications from background work onto the loop.
type loopNotifier struct {
	o *Orchestrator
}

func (n loopNotifier) Notify(msg string) {
	n.o.loop.Post(func() { n.o.shell.Notify(msg) })
}
