package fs

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/docview/internal/model"
)

func TestShouldSkipPath(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"/dev", true},
		{"/proc/1/status", true},
		{"/sys/class/net", true},
		{"/lost+found", true},
		{"/home/user", false},
		{"/tmp", false},
		{"", false},
		{"/development", false},
		{"/bootstrap", false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, shouldSkipPath(tc.path), tc.path)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
}

// fixture builds:
//
//	zeta/  alpha/  .hidden/  b.txt  a.png  .dotfile  blob
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, d := range []string{"zeta", "alpha", ".hidden"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	writeFile(t, filepath.Join(dir, "b.txt"), []byte("hello world, longer text"))
	writePNG(t, filepath.Join(dir, "a.png"))
	writeFile(t, filepath.Join(dir, ".dotfile"), []byte("x"))
	writeFile(t, filepath.Join(dir, "blob"), []byte("%PDF-1.4\n%âãÏÓ\n"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha", "nested.txt"), []byte("n"), 0o644))
	return dir
}

func startSystem(t *testing.T, opts Options) *System {
	t.Helper()
	s := NewSystem(opts)
	go s.Start()
	t.Cleanup(s.Stop)
	return s
}

func next(t *testing.T, s *System) Response {
	t.Helper()
	select {
	case resp := <-s.ResponseChan:
		return resp
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a response")
	}
	return Response{}
}

func request(dir string, gen int64) model.LoadRequest {
	return model.LoadRequest{
		LoaderID: "loader-1",
		Gen:      gen,
		Type:     model.LoadNormal,
		RootID:   "/",
		Dir:      model.DocID{Authority: Authority, DocumentID: dir},
		Sort:     model.SortByName,
		UserMode: model.ModeList,
	}
}

func names(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.DisplayName
	}
	return out
}

func TestFetchDir(t *testing.T) {
	dir := fixture(t)
	s := startSystem(t, Options{})

	s.RequestLoad(request(dir, 1))
	resp := next(t, s)

	assert.Equal(t, "loader-1", resp.LoaderID)
	assert.Equal(t, int64(1), resp.Gen)
	r := resp.Result
	assert.False(t, r.Loading)
	assert.Empty(t, r.Error)
	assert.Equal(t, model.ModeList, r.Mode)
	assert.Equal(t, model.SortByName, r.SortOrder)
	assert.Equal(t, []string{"alpha", "zeta", "a.png", "b.txt", "blob"}, names(r.Items))

	byName := make(map[string]model.Item)
	for _, it := range r.Items {
		byName[it.DisplayName] = it
	}

	alpha := byName["alpha"]
	assert.True(t, alpha.IsContainer())
	assert.Equal(t, model.MimeTypeDir, alpha.MimeType)
	assert.Equal(t, int64(-1), alpha.Size)

	img := byName["a.png"]
	assert.Equal(t, "image/png", img.MimeType)
	assert.True(t, img.SupportsThumbnail())
	assert.True(t, img.IsDeletable())
	assert.Equal(t, Authority, img.ID.Authority)
	assert.Equal(t, filepath.Join(dir, "a.png"), img.ID.DocumentID)

	txt := byName["b.txt"]
	assert.Equal(t, "text/plain", txt.MimeType)
	assert.False(t, txt.SupportsThumbnail())
	assert.Positive(t, txt.LastModified)

	assert.Equal(t, "application/pdf", byName["blob"].MimeType, "unknown extensions are sniffed")
}

func TestFetchDirShowHidden(t *testing.T) {
	dir := fixture(t)
	s := startSystem(t, Options{ShowHidden: true})

	s.RequestLoad(request(dir, 1))
	assert.Contains(t, names(next(t, s).Result.Items), ".dotfile")
}

func TestFetchDirErrors(t *testing.T) {
	dir := fixture(t)
	s := startSystem(t, Options{})

	s.RequestLoad(request(filepath.Join(dir, "missing"), 1))
	r := next(t, s).Result
	assert.NotEmpty(t, r.Error)
	assert.Empty(t, r.Items)
	assert.Equal(t, model.ModeList, r.Mode, "failed loads still carry a mode")

	_, _, err := s.fetchDir(t.Context(), request(filepath.Join(dir, "b.txt"), 2))
	assert.True(t, errors.Is(err, ErrNotDirectory))
}

func TestSortOrders(t *testing.T) {
	items := []model.Item{
		{DisplayName: "b", Size: 10, LastModified: 300},
		{DisplayName: "A", Size: 30, LastModified: 100},
		{DisplayName: "dir", Flags: model.FlagContainer, Size: -1, LastModified: 50},
		{DisplayName: "c", Size: 10, LastModified: 200},
	}

	testCases := []struct {
		order model.SortOrder
		want  []string
	}{
		{model.SortByName, []string{"dir", "A", "b", "c"}},
		{model.SortByDate, []string{"dir", "b", "c", "A"}},
		{model.SortBySize, []string{"dir", "A", "b", "c"}},
	}

	for _, tc := range testCases {
		t.Run(tc.order.String(), func(t *testing.T) {
			sorted := append([]model.Item(nil), items...)
			SortItems(sorted, tc.order)
			assert.Equal(t, tc.want, names(sorted))
		})
	}
}

type fakeModes map[string]model.Mode

func (f fakeModes) LookupMode(rootID string, dir model.DocID) (model.Mode, bool) {
	m, ok := f[rootID+"|"+dir.DocumentID]
	return m, ok
}

func TestDeriveMode(t *testing.T) {
	dir := fixture(t)
	s := NewSystem(Options{Modes: fakeModes{"/|" + dir: model.ModeGrid}})

	req := request(dir, 1)
	assert.Equal(t, model.ModeGrid, s.deriveMode(req), "persisted mode wins")

	req.Dir.DocumentID = filepath.Join(dir, "alpha")
	assert.Equal(t, model.ModeList, s.deriveMode(req), "falls back to the user mode")

	req.UserMode = model.ModeUnknown
	assert.Equal(t, model.ModeList, s.deriveMode(req))
}

func TestSearchEmitsLoadingSnapshotFirst(t *testing.T) {
	dir := fixture(t)
	s := startSystem(t, Options{})

	req := request(dir, 7)
	req.Type = model.LoadSearch
	req.Query = "ext:txt"
	s.RequestLoad(req)

	first := next(t, s)
	assert.True(t, first.Result.Loading)
	assert.Empty(t, first.Result.Items)

	final := next(t, s)
	assert.False(t, final.Result.Loading)
	assert.Equal(t, int64(7), final.Gen)
	assert.ElementsMatch(t, []string{"b.txt", "nested.txt"}, names(final.Result.Items))
}

func TestSearchCapSetsInfo(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"r1.txt", "r2.txt", "r3.txt"} {
		writeFile(t, filepath.Join(dir, n), []byte("r"))
	}
	s := startSystem(t, Options{MaxResults: 2})

	req := request(dir, 1)
	req.Type = model.LoadSearch
	req.Query = "r"
	s.RequestLoad(req)
	next(t, s)

	final := next(t, s).Result
	assert.Len(t, final.Items, 2)
	assert.Contains(t, final.Info, "More than 2")
}

func TestSymlinkSummary(t *testing.T) {
	dir := fixture(t)
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(filepath.Join(dir, "b.txt"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	s := startSystem(t, Options{})

	s.RequestLoad(request(dir, 1))
	for _, it := range next(t, s).Result.Items {
		if it.DisplayName == "link.txt" {
			assert.Equal(t, "→ "+filepath.Join(dir, "b.txt"), it.Summary)
			return
		}
	}
	t.Fatal("symlink not listed")
}

func TestRootFor(t *testing.T) {
	roots := []Root{
		{Title: "/", Path: "/"},
		{Title: "Home", Path: "/home"},
		{Title: "usb", Path: "/media/usb"},
	}

	assert.Equal(t, "/home", RootFor("/home/ada/docs", roots).Path)
	assert.Equal(t, "/media/usb", RootFor("/media/usb", roots).Path)
	assert.Equal(t, "/", RootFor("/homework", roots).Path)
	assert.Equal(t, "/", RootFor("/var/log", nil).Path)
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(20 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.WatchOnly(dir))

	writeFile(t, filepath.Join(dir, "new.txt"), []byte("x"))

	select {
	case changed := <-w.Changes():
		assert.Equal(t, dir, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func BenchmarkFetchDir(b *testing.B) {
	dir := b.TempDir()
	for i := 0; i < 200; i++ {
		_ = os.WriteFile(filepath.Join(dir, "file"+string(rune('a'+i%26))+".txt"), []byte("x"), 0o644)
	}
	s := NewSystem(Options{})
	req := request(dir, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = s.fetchDir(b.Context(), req)
	}
}
