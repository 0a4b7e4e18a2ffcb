package thumbs

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/justyntemme/docview/internal/debug"
	"github.com/justyntemme/docview/internal/model"
)

// FileSource reads thumbnails from local image files. Document ids of its
// authority are absolute paths.
type FileSource struct {
	Authority string
}

// Thumbnail decodes the file, applies its EXIF orientation and scales it to
// fit within size x size.
func (s FileSource) Thumbnail(ctx context.Context, id model.DocID, size int) (image.Image, error) {
	if id.Authority != s.Authority {
		return nil, fmt.Errorf("thumbs: authority %q not served by file source", id.Authority)
	}
	if size <= 0 {
		return nil, fmt.Errorf("thumbs: invalid size %d", size)
	}

	f, err := os.Open(id.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", id.DocumentID, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id.DocumentID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err == nil {
		img = applyOrientation(img, readOrientation(f))
	}

	thumb := scaleToFit(img, size)
	debug.Log(debug.THUMB, "FileSource: %s %dx%d -> %dx%d", id.DocumentID,
		img.Bounds().Dx(), img.Bounds().Dy(), thumb.Bounds().Dx(), thumb.Bounds().Dy())
	return thumb, nil
}

// readOrientation returns the EXIF orientation tag, or 1 when absent.
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// applyOrientation transforms an image according to its EXIF orientation.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// scaleToFit scales src down so neither side exceeds maxPixels.
func scaleToFit(src image.Image, maxPixels int) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxPixels && height <= maxPixels {
		return src
	}

	var scale float64
	if width > height {
		scale = float64(maxPixels) / float64(width)
	} else {
		scale = float64(maxPixels) / float64(height)
	}

	newWidth := max(1, int(float64(width)*scale))
	newHeight := max(1, int(float64(height)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
