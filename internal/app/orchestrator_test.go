package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/docview/internal/config"
	"github.com/justyntemme/docview/internal/fs"
	"github.com/justyntemme/docview/internal/model"
	"github.com/justyntemme/docview/internal/store"
)

type frame struct {
	dir    string
	rootID string
	titles []string
	mode   model.Mode
}

type fakeShell struct {
	mu        sync.Mutex
	frames    []frame
	notes     []string
	shares    []ShareRequest
	selection int
}

func (s *fakeShell) Render(vm *DirectoryViewModel) {
	f := frame{dir: vm.Dir().DocumentID, rootID: vm.RootID(), mode: vm.DisplayState().DerivedMode}
	for i := 0; i < vm.RowCount(); i++ {
		if it, ok := vm.rows.Item(i); ok {
			f.titles = append(f.titles, it.DisplayName)
		}
	}
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
}

func (s *fakeShell) ScrollToTop() {}
func (s *fakeShell) StateChanged(state model.DisplayState) {}

func (s *fakeShell) SelectionChanged(count int) {
	s.mu.Lock()
	s.selection = count
	s.mu.Unlock()
}

func (s *fakeShell) Notify(msg string) {
	s.mu.Lock()
	s.notes = append(s.notes, msg)
	s.mu.Unlock()
}

func (s *fakeShell) Share(req ShareRequest) error {
	s.mu.Lock()
	s.shares = append(s.shares, req)
	s.mu.Unlock()
	return nil
}

func (s *fakeShell) last() frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return frame{}
	}
	return s.frames[len(s.frames)-1]
}

func (s *fakeShell) notifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notes...)
}

func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bravo"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "report.txt"), []byte("r"), 0o644))
	return dir
}

func startOrchestrator(t *testing.T, cfg config.Config, storePath, dir string) (*Orchestrator, *fakeShell, func()) {
	t.Helper()
	shell := &fakeShell{}
	o := NewOrchestrator(cfg, storePath, shell)

	done := make(chan error, 1)
	o.Navigate(dir)
	go func() { done <- o.Run(context.Background()) }()

	stop := func() {
		o.Quit()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("orchestrator did not stop")
		}
	}
	return o, shell, stop
}

func testConfig() config.Config {
	cfg := *config.DefaultConfig()
	cfg.Watch.Enabled = false
	return cfg
}

func TestOrchestratorNavigation(t *testing.T) {
	dir := writeTree(t)
	o, shell, stop := startOrchestrator(t, testConfig(), "", dir)
	defer stop()

	require.Eventually(t, func() bool {
		return len(shell.last().titles) == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"sub", "a.txt", "b.txt"}, shell.last().titles)

	o.Navigate("sub")
	require.Eventually(t, func() bool {
		f := shell.last()
		return f.dir == filepath.Join(dir, "sub") && len(f.titles) == 1
	}, 5*time.Second, 10*time.Millisecond)

	o.Back()
	require.Eventually(t, func() bool {
		return shell.last().dir == dir
	}, 5*time.Second, 10*time.Millisecond)

	o.SetSort(model.SortBySize)
	o.Up()
	require.Eventually(t, func() bool {
		return shell.last().dir == filepath.Dir(dir)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOrchestratorPersistsMode(t *testing.T) {
	dir := writeTree(t)
	dbPath := filepath.Join(t.TempDir(), "docview.db")

	o, shell, stop := startOrchestrator(t, testConfig(), dbPath, dir)
	require.Eventually(t, func() bool {
		return len(shell.last().titles) == 3
	}, 5*time.Second, 10*time.Millisecond)

	o.SetMode(model.ModeGrid)
	require.Eventually(t, func() bool {
		return shell.last().mode == model.ModeGrid
	}, 5*time.Second, 10*time.Millisecond)
	rootID := shell.last().rootID
	stop()

	db := store.NewDB()
	require.NoError(t, db.Open(dbPath))
	defer db.Close()
	mode, ok := db.LookupMode(rootID, model.DocID{Authority: fs.Authority, DocumentID: dir})
	require.True(t, ok)
	assert.Equal(t, model.ModeGrid, mode)

	// A second run derives grid for the same directory even though the
	// configured default is list.
	_, shell2, stop2 := startOrchestrator(t, testConfig(), dbPath, dir)
	defer stop2()
	require.Eventually(t, func() bool {
		f := shell2.last()
		return len(f.titles) == 3 && f.mode == model.ModeGrid
	}, 5*time.Second, 10*time.Millisecond)
}

type failingDeleter struct{}

func (failingDeleter) Delete(ctx context.Context, id model.DocID) error {
	return errors.New("read-only file system")
}

func TestOrchestratorDeleteFailureNotifiesOnce(t *testing.T) {
	dir := writeTree(t)
	shell := &fakeShell{}
	o := NewOrchestrator(testConfig(), "", shell)
	o.deleter = failingDeleter{}

	done := make(chan error, 1)
	o.Navigate(dir)
	go func() { done <- o.Run(context.Background()) }()
	defer func() {
		o.Quit()
		<-done
	}()

	require.Eventually(t, func() bool {
		return len(shell.last().titles) == 3
	}, 5*time.Second, 10*time.Millisecond)

	o.Check([]int{0, 1, 2}, true)
	o.DeleteChecked()

	require.Eventually(t, func() bool {
		return len(shell.notifications()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	notes := shell.notifications()
	assert.Equal(t, "Can't change selection at 0", notes[0])
	assert.Equal(t, "Couldn't delete 2 of 2 documents", notes[1])
}

func TestOrchestratorShareChecked(t *testing.T) {
	dir := writeTree(t)
	o, shell, stop := startOrchestrator(t, testConfig(), "", dir)
	defer stop()

	require.Eventually(t, func() bool {
		return len(shell.last().titles) == 3
	}, 5*time.Second, 10*time.Millisecond)

	o.Check([]int{1, 2}, true)
	o.ShareChecked()
	require.Eventually(t, func() bool {
		shell.mu.Lock()
		defer shell.mu.Unlock()
		return len(shell.shares) == 1
	}, 5*time.Second, 10*time.Millisecond)

	shell.mu.Lock()
	defer shell.mu.Unlock()
	assert.True(t, shell.shares[0].Multiple)
	assert.Equal(t, "text/plain", shell.shares[0].MimeType)
	assert.Equal(t, 2, shell.selection)
}

func TestExpandPath(t *testing.T) {
	o := &Orchestrator{homePath: "/home/u"}

	assert.Equal(t, "/home/u", o.expandPath(""))
	assert.Equal(t, "/home/u", o.expandPath("~"))
	assert.Equal(t, "/home/u/docs", o.expandPath("~/docs"))
	assert.Equal(t, "/etc", o.expandPath("/etc/../etc/"))
	assert.Equal(t, "/home/u/rel", o.expandPath(" rel "))
}

func TestPickOpensFiles(t *testing.T) {
	shell := &fakeShell{}
	var opened []string
	o := &Orchestrator{shell: shell, open: func(path string) error {
		opened = append(opened, path)
		if filepath.Base(path) == "bad.txt" {
			return errors.New("no handler")
		}
		return nil
	}}

	o.pick(file("a.txt", "text/plain", 1))
	o.pick(file("bad.txt", "text/plain", 1))

	assert.Equal(t, []string{"/docs/a.txt", "/docs/bad.txt"}, opened)
	assert.Equal(t, []string{"Opened a.txt", "Couldn't open bad.txt"}, shell.notifications())
}

type viewSnapshot struct {
	gen    int64
	sort   model.SortOrder
	dir    string
	accept []string
}

// snapshot reads the current view's state on the event loop.
func snapshot(t *testing.T, o *Orchestrator) viewSnapshot {
	t.Helper()
	ch := make(chan viewSnapshot, 1)
	o.loop.Post(func() {
		if o.current == nil {
			ch <- viewSnapshot{}
			return
		}
		state := o.current.DisplayState()
		ch <- viewSnapshot{
			gen:    o.current.gen,
			sort:   state.UserSortOrder,
			dir:    o.current.Dir().DocumentID,
			accept: state.AcceptMimes,
		}
	})
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Error("event loop did not answer")
		return viewSnapshot{}
	}
}

func TestOrchestratorQuickSortChangesKeepLatest(t *testing.T) {
	dir := writeTree(t)
	dbPath := filepath.Join(t.TempDir(), "docview.db")
	o, shell, stop := startOrchestrator(t, testConfig(), dbPath, dir)
	defer stop()

	require.Eventually(t, func() bool {
		return len(shell.last().titles) == 3
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, int64(1), snapshot(t, o).gen)

	o.SetSort(model.SortByDate)
	o.SetSort(model.SortBySize)

	require.Eventually(t, func() bool {
		settings, err := o.store.Settings()
		return err == nil && settings[settingSortOrder] == "size"
	}, 5*time.Second, 10*time.Millisecond)

	// Give any stray store replies time to reach the loop.
	time.Sleep(100 * time.Millisecond)
	got := snapshot(t, o)
	assert.Equal(t, int64(3), got.gen)
	assert.Equal(t, model.SortBySize, got.sort)
}

func TestOrchestratorRestoresSavedSortOrder(t *testing.T) {
	dir := writeTree(t)
	dbPath := filepath.Join(t.TempDir(), "docview.db")

	db := store.NewDB()
	require.NoError(t, db.Open(dbPath))
	go db.Start()
	db.RequestChan <- store.Request{Op: store.SaveSetting, Key: settingSortOrder, Value: "date"}
	require.NoError(t, (<-db.ResponseChan).Err)
	close(db.RequestChan)
	for range db.ResponseChan {
	}
	require.NoError(t, db.Close())

	o, shell, stop := startOrchestrator(t, testConfig(), dbPath, dir)
	defer stop()

	require.Eventually(t, func() bool {
		return len(shell.last().titles) == 3 && snapshot(t, o).sort == model.SortByDate
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOrchestratorFilterCarriesToNewViews(t *testing.T) {
	dir := writeTree(t)
	o, shell, stop := startOrchestrator(t, testConfig(), "", dir)
	defer stop()

	require.Eventually(t, func() bool {
		return len(shell.last().titles) == 3
	}, 5*time.Second, 10*time.Millisecond)

	o.SetFilter([]string{"text/plain"})
	assert.Equal(t, []string{"text/plain"}, snapshot(t, o).accept)

	sub := filepath.Join(dir, "sub")
	o.Navigate(sub)
	require.Eventually(t, func() bool {
		return snapshot(t, o).dir == sub
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"text/plain"}, snapshot(t, o).accept)
}
