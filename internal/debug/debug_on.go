//go:build debug

package debug

// Enabled indicates whether categories start enabled
const Enabled = true
