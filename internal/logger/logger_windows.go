//go:build windows

package logger

import (
	"os"
	"strings"
	"syscall"
	"unsafe"
)

const SupportsColorEscapes = true

var kernel32 = syscall.NewLazyDLL("kernel32.dll")
var getConsoleMode = kernel32.NewProc("GetConsoleMode")
var setConsoleTextAttribute = kernel32.NewProc("SetConsoleTextAttribute")
var getConsoleScreenBufferInfo = kernel32.NewProc("GetConsoleScreenBufferInfo")

type consoleScreenBufferInfo struct {
	dwSizeX              int16
	dwSizeY              int16
	dwCursorPositionX    int16
	dwCursorPositionY    int16
	wAttributes          uint16
	srWindowLeft         int16
	srWindowTop          int16
	srWindowRight        int16
	srWindowBottom       int16
	dwMaximumWindowSizeX int16
	dwMaximumWindowSizeY int16
}

func GetTerminalInfo(file *os.File) TerminalInfo {
	fd := file.Fd()

	// Is this file descriptor a terminal?
	var unused uint32
	isTTY, _, _ := syscall.Syscall(getConsoleMode.Addr(), 2, fd, uintptr(unsafe.Pointer(&unused)), 0)

	// Get the width of the window
	var info consoleScreenBufferInfo
	syscall.Syscall(getConsoleScreenBufferInfo.Addr(), 2, fd, uintptr(unsafe.Pointer(&info)), 0)

	return TerminalInfo{
		IsTTY:           isTTY != 0,
		Width:           int(info.dwSizeX) - 1,
		UseColorEscapes: true,
	}
}

// The Windows console needs SetConsoleTextAttribute calls instead of
// ANSI escape sequences, so escape codes are translated as they stream.
func writeStringWithColor(file *os.File, text string) {
	const foregroundBlue = 1
	const foregroundGreen = 2
	const foregroundRed = 4
	const foregroundIntensity = 8

	fd := file.Fd()
	i := 0

	for i < len(text) {
		var attributes uintptr
		end := i

		switch {
		case text[i] != 033:
			i++
			continue

		case strings.HasPrefix(text[i:], colorReset):
			i += len(colorReset)
			attributes = foregroundRed | foregroundGreen | foregroundBlue

		case strings.HasPrefix(text[i:], colorResetBold):
			i += len(colorResetBold)
			attributes = foregroundRed | foregroundGreen | foregroundBlue | foregroundIntensity

		case strings.HasPrefix(text[i:], colorRed):
			i += len(colorRed)
			attributes = foregroundRed

		case strings.HasPrefix(text[i:], colorGreen):
			i += len(colorGreen)
			attributes = foregroundGreen

		case strings.HasPrefix(text[i:], colorMagenta):
			i += len(colorMagenta)
			attributes = foregroundRed | foregroundBlue

		case strings.HasPrefix(text[i:], colorBold):
			i += len(colorBold)
			attributes = foregroundRed | foregroundGreen | foregroundBlue | foregroundIntensity

		default:
			i++
			continue
		}

		file.WriteString(text[:end])
		text = text[i:]
		i = 0
		setConsoleTextAttribute.Call(fd, attributes)
	}

	file.WriteString(text)
}
