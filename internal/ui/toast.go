package ui

import "github.com/charmbracelet/lipgloss"

// ToastType indicates the severity of a toast message
type ToastType int

const (
	ToastInfo ToastType = iota
	ToastSuccess
	ToastError
)

var successStyle = lipgloss.NewStyle().Foreground(colSuccess)

var toastStyles = map[ToastType]lipgloss.Style{
	ToastInfo:    infoStyle,
	ToastSuccess: successStyle,
	ToastError:   errorStyle,
}

// ShowToast writes a one-line notification below the listing.
func (r *Renderer) ShowToast(message string, toastType ToastType) {
	style, ok := toastStyles[toastType]
	if !ok {
		style = infoStyle
	}
	r.printf("%s\n", style.Render("» "+message))
}

// ShowError is a convenience method for showing error toasts
func (r *Renderer) ShowError(message string) {
	r.ShowToast(message, ToastError)
}
