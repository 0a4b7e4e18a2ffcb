package thumbs

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/docview/internal/model"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFileSourceScalesToFit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	writePNG(t, path, 400, 200)

	src := FileSource{Authority: "local"}
	img, err := src.Thumbnail(context.Background(), model.DocID{Authority: "local", DocumentID: path}, 100)
	require.NoError(t, err)

	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestFileSourceKeepsSmallImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.png")
	writePNG(t, path, 20, 10)

	img, err := FileSource{Authority: "local"}.Thumbnail(context.Background(),
		model.DocID{Authority: "local", DocumentID: path}, 64)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 10), img.Bounds().Size())
}

func TestFileSourceErrors(t *testing.T) {
	src := FileSource{Authority: "local"}
	ctx := context.Background()

	_, err := src.Thumbnail(ctx, model.DocID{Authority: "other", DocumentID: "/x"}, 64)
	assert.Error(t, err)

	_, err = src.Thumbnail(ctx, model.DocID{Authority: "local", DocumentID: filepath.Join(t.TempDir(), "missing.png")}, 64)
	assert.Error(t, err)

	notImage := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("hello"), 0o644))
	_, err = src.Thumbnail(ctx, model.DocID{Authority: "local", DocumentID: notImage}, 64)
	assert.Error(t, err)
}

func TestApplyOrientation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	assert.Equal(t, image.Pt(2, 4), applyOrientation(img, 6).Bounds().Size())
	assert.Equal(t, image.Pt(4, 2), applyOrientation(img, 3).Bounds().Size())
	assert.Equal(t, img, applyOrientation(img, 1))
}
