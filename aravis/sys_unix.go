//go:build darwin || freebsd || linux || netbsd

package aravis

import (
	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func openLibrary(path string) (uintptr, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, errors.Wrapf(err, "dlopen %s", path)
	}
	return h, nil
}

func lookupSymbol(lib uintptr, name string) (uintptr, error) {
	return purego.Dlsym(lib, name)
}

// cString returns a NUL terminated copy of s, or nil for an empty string so
// that "no value" reaches C as NULL.
func cString(s string) (*byte, error) {
	if s == "" {
		return nil, nil
	}
	return unix.BytePtrFromString(s)
}

func goString(p *byte) string {
	if p == nil {
		return ""
	}
	return unix.BytePtrToString(p)
}
