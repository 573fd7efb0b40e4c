package platform

import "time"

// WindowAPI reads the focused window and the time since the last user input
type WindowAPI interface {
	GetForegroundWindow() (*WindowInfo, error)
	GetIdleDuration() (time.Duration, error)
}

// WindowInfo describes the focused window
type WindowInfo struct {
	Title   string `json:"title"`
	AppName string `json:"appName"`
	ExePath string `json:"exePath,omitempty"`
}

// Label returns the title, or the application name for untitled windows
func (w *WindowInfo) Label() string {
	if w == nil {
		return ""
	}
	if w.Title != "" {
		return w.Title
	}
	return w.AppName
}

// Notifier shows a message to the user without blocking the caller
type Notifier interface {
	Notify(title, message string) error
}
