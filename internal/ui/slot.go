package ui

import "image"

// Slot is the thumbnail view of one recycled row.
type Slot struct {
	img image.Image
}

// SetThumbnail implements thumbs.Target.
func (s *Slot) SetThumbnail(img image.Image) {
	s.img = img
}

// Thumbnail returns the image last delivered to the slot.
func (s *Slot) Thumbnail() image.Image {
	return s.img
}

func (s *Slot) reset() {
	s.img = nil
}
