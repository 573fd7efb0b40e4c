//go:build windows

package platform

import (
	"path/filepath"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	kernel32                     = windows.NewLazySystemDLL("kernel32.dll")
	psapi                        = windows.NewLazySystemDLL("psapi.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetLastInputInfo         = user32.NewProc("GetLastInputInfo")
	procMessageBoxW              = user32.NewProc("MessageBoxW")
	procGetTickCount             = kernel32.NewProc("GetTickCount")
	procOpenProcess              = kernel32.NewProc("OpenProcess")
	procCloseHandle              = kernel32.NewProc("CloseHandle")
	procGetModuleFileNameExW     = psapi.NewProc("GetModuleFileNameExW")
)

const (
	processQueryInformation = 0x0400
	processVMRead           = 0x0010
	mbIconWarning           = 0x00000030
	mbSystemModal           = 0x00001000
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

// WindowsAPI implements WindowAPI for Windows platform
type WindowsAPI struct{}

// NewWindowsAPI creates a new Windows API instance
func NewWindowsAPI() *WindowsAPI {
	return &WindowsAPI{}
}

// NewWindowAPI creates a new WindowAPI instance for Windows
func NewWindowAPI() WindowAPI {
	return NewWindowsAPI()
}

// GetForegroundWindow returns the title and executable of the focused window.
// A nil info with a nil error means no window has focus (locked screen).
func (w *WindowsAPI) GetForegroundWindow() (*WindowInfo, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return nil, nil
	}

	info := &WindowInfo{Title: windowText(hwnd)}

	var processID uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&processID)))
	if processID != 0 {
		if exePath := moduleFileName(processID); exePath != "" {
			filename := filepath.Base(exePath)
			info.ExePath = exePath
			info.AppName = strings.TrimSuffix(filename, filepath.Ext(filename))
		}
	}
	return info, nil
}

func windowText(hwnd uintptr) string {
	length, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if length == 0 {
		return ""
	}
	buffer := make([]uint16, length+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buffer[0])), uintptr(len(buffer)))
	return windows.UTF16ToString(buffer)
}

func moduleFileName(processID uint32) string {
	hProcess, _, _ := procOpenProcess.Call(processQueryInformation|processVMRead, 0, uintptr(processID))
	if hProcess == 0 {
		return ""
	}
	defer procCloseHandle.Call(hProcess)

	var buffer [windows.MAX_PATH]uint16
	ret, _, _ := procGetModuleFileNameExW.Call(hProcess, 0, uintptr(unsafe.Pointer(&buffer[0])), windows.MAX_PATH)
	if ret == 0 {
		return ""
	}
	return windows.UTF16ToString(buffer[:])
}

// GetIdleDuration returns the time since the last keyboard or mouse input
func (w *WindowsAPI) GetIdleDuration() (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}
	ret, _, err := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0, err
	}
	tick, _, _ := procGetTickCount.Call()
	// both counters wrap after ~49 days; uint32 subtraction handles it
	return time.Duration(uint32(tick)-info.dwTime) * time.Millisecond, nil
}

type messageBoxNotifier struct{}

// NewNotifier returns a notifier that shows a system modal message box
func NewNotifier() Notifier {
	return messageBoxNotifier{}
}

func (messageBoxNotifier) Notify(title, message string) error {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	messagePtr, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return err
	}
	// MessageBoxW blocks until dismissed
	go procMessageBoxW.Call(0, uintptr(unsafe.Pointer(messagePtr)), uintptr(unsafe.Pointer(titlePtr)), mbIconWarning|mbSystemModal)
	return nil
}
