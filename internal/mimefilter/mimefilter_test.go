package mimefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/justyntemme/docview/internal/model"
)

func TestMatches(t *testing.T) {
	testCases := []struct {
		patterns []string
		mime     string
		want     bool
	}{
		{[]string{"*/*"}, "application/pdf", true},
		{[]string{"image/*"}, "image/png", true},
		{[]string{"image/*"}, "IMAGE/JPEG", true},
		{[]string{"image/*"}, "video/mp4", false},
		{[]string{"image/*"}, "imagex/png", false},
		{[]string{"text/plain"}, "text/plain", true},
		{[]string{"text/plain"}, "text/html", false},
		{[]string{"audio/*", "video/*"}, "video/webm", true},
		{nil, "text/plain", false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, Matches(tc.patterns, tc.mime), "%v %s", tc.patterns, tc.mime)
	}
}

func TestSelectableAndEnabled(t *testing.T) {
	accept := []string{"image/*"}
	dir := model.Item{MimeType: model.MimeTypeDir}
	png := model.Item{MimeType: "image/png"}
	txt := model.Item{MimeType: "text/plain"}

	assert.True(t, Enabled(accept, dir))
	assert.False(t, Selectable(accept, dir))
	assert.True(t, Selectable(accept, png))
	assert.False(t, Enabled(accept, txt))
}

func TestCommonType(t *testing.T) {
	testCases := []struct {
		in   []string
		want string
	}{
		{[]string{"image/png"}, "image/png"},
		{[]string{"image/png", "image/png"}, "image/png"},
		{[]string{"image/png", "image/jpeg"}, "image/*"},
		{[]string{"image/png", "video/mp4"}, "*/*"},
		{[]string{"image/png", "garbage", "image/gif"}, "image/*"},
		{[]string{"garbage"}, "*/*"},
		{nil, "*/*"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, CommonType(tc.in), "%v", tc.in)
	}
}

func TestIconFor(t *testing.T) {
	assert.Equal(t, "folder", IconFor(model.MimeTypeDir))
	assert.Equal(t, "image", IconFor("image/png"))
	assert.Equal(t, "archive", IconFor("application/zip"))
	assert.Equal(t, "pdf", IconFor("application/pdf"))
	assert.Equal(t, "generic", IconFor("application/octet-stream"))
}
