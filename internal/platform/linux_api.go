//go:build linux

package platform

import (
	"strconv"
	"time"
)

// LinuxAPI implements WindowAPI on X11 through xdotool and xprintidle
type LinuxAPI struct{}

// NewLinuxAPI creates a new Linux API instance
func NewLinuxAPI() *LinuxAPI {
	return &LinuxAPI{}
}

// NewWindowAPI creates a new WindowAPI instance for Linux
func NewWindowAPI() WindowAPI {
	return NewLinuxAPI()
}

// GetForegroundWindow returns the title of the active X11 window
func (l *LinuxAPI) GetForegroundWindow() (*WindowInfo, error) {
	title, err := runCommand("xdotool", "getactivewindow", "getwindowname")
	if err != nil {
		return nil, err
	}
	info := &WindowInfo{Title: title}
	if pid, err := runCommand("xdotool", "getactivewindow", "getwindowpid"); err == nil {
		if comm, err := runCommand("ps", "-o", "comm=", "-p", pid); err == nil {
			info.AppName = comm
		}
	}
	return info, nil
}

// GetIdleDuration returns the X server idle time
func (l *LinuxAPI) GetIdleDuration() (time.Duration, error) {
	out, err := runCommand("xprintidle")
	if err != nil {
		return 0, err
	}
	ms, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// NewNotifier returns a notifier backed by notify-send
func NewNotifier() Notifier {
	return commandNotifier{
		name: "notify-send",
		args: func(title, message string) []string {
			return []string{"--urgency=critical", title, message}
		},
	}
}
