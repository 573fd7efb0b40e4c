//go:build darwin

package platform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const frontWindowScript = `tell application "System Events"
	set frontApp to first application process whose frontmost is true
	set appName to name of frontApp
	set windowTitle to ""
	try
		set windowTitle to name of front window of frontApp
	end try
end tell
return appName & "\n" & windowTitle`

var hidIdlePattern = regexp.MustCompile(`"HIDIdleTime" = (\d+)`)

// DarwinAPI implements WindowAPI for macOS through osascript and ioreg
type DarwinAPI struct{}

// NewDarwinAPI creates a new macOS API instance
func NewDarwinAPI() *DarwinAPI {
	return &DarwinAPI{}
}

// NewWindowAPI creates a new WindowAPI instance for macOS
func NewWindowAPI() WindowAPI {
	return NewDarwinAPI()
}

// GetForegroundWindow returns the frontmost application and its front window title
func (d *DarwinAPI) GetForegroundWindow() (*WindowInfo, error) {
	out, err := runCommand("osascript", "-e", frontWindowScript)
	if err != nil {
		return nil, err
	}
	info := &WindowInfo{}
	for i, line := range strings.SplitN(out, "\n", 2) {
		if i == 0 {
			info.AppName = line
		} else {
			info.Title = line
		}
	}
	return info, nil
}

// GetIdleDuration reads HIDIdleTime (nanoseconds) from the IOHIDSystem registry entry
func (d *DarwinAPI) GetIdleDuration() (time.Duration, error) {
	out, err := runCommand("ioreg", "-c", "IOHIDSystem", "-d", "4")
	if err != nil {
		return 0, err
	}
	m := hidIdlePattern.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("ioreg: HIDIdleTime not found")
	}
	ns, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(ns), nil
}

// NewNotifier returns a notifier backed by osascript's display notification
func NewNotifier() Notifier {
	return commandNotifier{
		name: "osascript",
		args: func(title, message string) []string {
			return []string{"-e", fmt.Sprintf("display notification %q with title %q", message, title)}
		},
	}
}
