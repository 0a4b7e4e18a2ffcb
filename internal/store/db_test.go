package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/docview/internal/model"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	d := NewDB()
	require.NoError(t, d.Open(filepath.Join(t.TempDir(), "nested", "docview.db")))
	go d.Start()
	t.Cleanup(func() {
		close(d.RequestChan)
		d.Close()
	})
	return d
}

func recv(t *testing.T, d *DB) Response {
	t.Helper()
	select {
	case resp := <-d.ResponseChan:
		return resp
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for store response")
	}
	return Response{}
}

func TestSaveAndLookupMode(t *testing.T) {
	d := openDB(t)
	docs := model.DocID{Authority: "local", DocumentID: "/home/ada/docs"}

	_, ok := d.LookupMode("/home", docs)
	assert.False(t, ok)

	d.SaveMode("/home", docs, model.ModeGrid)
	require.NoError(t, recv(t, d).Err)

	m, ok := d.LookupMode("/home", docs)
	require.True(t, ok)
	assert.Equal(t, model.ModeGrid, m)

	// Keyed by root as well as document.
	_, ok = d.LookupMode("/", docs)
	assert.False(t, ok)

	d.SaveMode("/home", docs, model.ModeList)
	require.NoError(t, recv(t, d).Err)
	m, _ = d.LookupMode("/home", docs)
	assert.Equal(t, model.ModeList, m)
}

func TestSaveModeRejectsUnknown(t *testing.T) {
	d := openDB(t)
	d.SaveMode("/", model.DocID{Authority: "local", DocumentID: "/"}, model.ModeUnknown)
	assert.Error(t, recv(t, d).Err)
}

func TestSettingsRoundTrip(t *testing.T) {
	d := openDB(t)

	d.RequestChan <- Request{Op: SaveSetting, Key: "sort_order", Value: "date"}
	resp := recv(t, d)
	require.NoError(t, resp.Err)
	assert.Equal(t, SaveSetting, resp.Op)
	assert.Nil(t, resp.Settings)

	d.RequestChan <- Request{Op: FetchSettings}
	assert.Equal(t, map[string]string{"sort_order": "date"}, recv(t, d).Settings)
}

func TestNotOpen(t *testing.T) {
	d := NewDB()
	_, ok := d.LookupMode("/", model.DocID{})
	assert.False(t, ok)

	_, err := d.Settings()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, d.saveMode("/", model.DocID{}, model.ModeGrid), ErrNotOpen)
	assert.NoError(t, d.Close())
}
