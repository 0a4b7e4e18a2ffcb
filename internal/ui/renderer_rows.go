package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/justyntemme/docview/internal/app"
	"github.com/justyntemme/docview/internal/model"
	"github.com/justyntemme/docview/internal/rows"
	"github.com/justyntemme/docview/internal/thumbs"
)

var iconGlyphs = map[string]string{
	"folder":  "▸",
	"image":   "◧",
	"video":   "▶",
	"audio":   "♪",
	"text":    "≡",
	"archive": "▤",
	"pdf":     "▥",
}

// glyph maps a static icon reference to one terminal cell.
func glyph(icon string) string {
	if strings.HasPrefix(icon, "pkg:") {
		return "◆"
	}
	if g, ok := iconGlyphs[strings.TrimPrefix(icon, "mime:")]; ok {
		return g
	}
	return "□"
}

// Frame renders the visible window of the current view.
func (r *Renderer) Frame() string {
	vm := r.vm
	var b strings.Builder
	b.WriteString(r.header())
	b.WriteByte('\n')

	if vm.EmptyVisible() {
		b.WriteString(emptyStyle.Render("No documents"))
		return b.String()
	}

	end := min(vm.RowCount(), r.offset+r.pageSize)
	var data []string
	var footers []string
	for pos := r.offset; pos < end; pos++ {
		i := pos - r.offset
		slot := r.slot(i)
		slot.reset()
		rv := vm.BindRow(pos, thumbs.SlotID(i), slot)
		if rv.Kind != rows.KindData {
			footers = append(footers, renderFooter(rv))
			continue
		}
		if rv.Thumbnail != nil {
			slot.SetThumbnail(rv.Thumbnail)
		}
		data = append(data, r.renderItem(pos, rv, slot))
	}

	if r.state.DerivedMode == model.ModeGrid {
		b.WriteString(r.grid(data))
	} else {
		b.WriteString(strings.Join(data, "\n"))
	}
	for _, f := range footers {
		b.WriteByte('\n')
		b.WriteString(f)
	}
	if end < vm.RowCount() {
		b.WriteByte('\n')
		b.WriteString(infoStyle.Render(fmt.Sprintf("… %d more", vm.RowCount()-end)))
	}
	return b.String()
}

func (r *Renderer) header() string {
	vm := r.vm
	parts := []string{vm.Dir().DocumentID, r.state.DerivedMode.String(), r.state.DerivedSortOrder.String()}
	if r.selected > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", r.selected))
	}
	return headerStyle.Render(strings.Join(parts, "  ·  "))
}

func (r *Renderer) renderItem(pos int, rv app.RowView, slot *Slot) string {
	icon := glyph(rv.Icon)
	if img := slot.Thumbnail(); img != nil {
		icon = "▣"
	} else if rv.Pending {
		icon = "◌"
	}

	style := titleStyle
	if rv.Icon == "mime:folder" {
		style = dirStyle
	}
	if !rv.Enabled {
		style = disabledStyle
	}
	check := "   "
	if r.state.AllowMultiple {
		check = "[ ]"
		if rv.Checked {
			check = "[x]"
		}
	}

	if r.state.DerivedMode == model.ModeGrid {
		lines := []string{fmt.Sprintf("%d %s %s", pos, check, icon), style.Render(rv.Title)}
		if rv.Size != "" {
			lines = append(lines, line2Style.UnsetPaddingLeft().Render(rv.Size))
		}
		cell := cellStyle.Render(strings.Join(lines, "\n"))
		if rv.Checked {
			cell = checkedStyle.Render(cell)
		}
		return cell
	}

	line := fmt.Sprintf("%3d %s %s %s", pos, check, icon, style.Render(rv.Title))
	if rv.Checked {
		line = checkedStyle.Render(line)
	}
	if rv.Line2 {
		var meta []string
		for _, s := range []string{rv.Summary, rv.Date, rv.Size} {
			if s != "" {
				meta = append(meta, s)
			}
		}
		line += "\n" + line2Style.Render(strings.Join(meta, "  "))
	}
	return line
}

func (r *Renderer) grid(cells []string) string {
	var lines []string
	for i := 0; i < len(cells); i += r.gridColumns {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells[i:min(i+r.gridColumns, len(cells))]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderFooter(rv app.RowView) string {
	switch rv.Kind {
	case rows.KindInfo:
		return infoStyle.Render(rv.Message)
	case rows.KindError:
		return errorStyle.Render("! " + rv.Message)
	case rows.KindLoading:
		return loadingStyle.Render("Loading…")
	}
	panic(fmt.Sprintf("ui: unexpected footer kind %s", rv.Kind))
}
