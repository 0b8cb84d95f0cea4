//go:build windows

package aravis

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

func openLibrary(path string) (uintptr, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil || h == 0 {
		return 0, errors.Wrapf(err, "LoadLibrary %s", path)
	}
	return uintptr(h), nil
}

func lookupSymbol(lib uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(lib), name)
}

// cString returns a NUL terminated copy of s, or nil for an empty string so
// that "no value" reaches C as NULL.
func cString(s string) (*byte, error) {
	if s == "" {
		return nil, nil
	}
	return windows.BytePtrFromString(s)
}

func goString(p *byte) string {
	if p == nil {
		return ""
	}
	return windows.BytePtrToString(p)
}
