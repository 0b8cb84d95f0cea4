package aravis

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Logical library names. They are mapped to platform file names by the
// resolver.
const (
	LibAravis  = "aravis-0.8"
	LibGObject = "gobject-2.0"
	LibGLib    = "glib-2.0"
)

var candidateTable = map[string]map[string][]string{
	LibAravis: {
		"windows": {"libaravis-0.8-0.dll", "aravis-0.8-0.dll", "aravis-0.8.dll"},
		"darwin":  {"libaravis-0.8.0.dylib", "libaravis-0.8.dylib"},
		"linux":   {"libaravis-0.8.so.0", "libaravis-0.8.so"},
	},
	LibGObject: {
		"windows": {"libgobject-2.0-0.dll", "gobject-2.0-0.dll"},
		"darwin":  {"libgobject-2.0.0.dylib", "libgobject-2.0.dylib"},
		"linux":   {"libgobject-2.0.so.0", "libgobject-2.0.so"},
	},
	LibGLib: {
		"windows": {"libglib-2.0-0.dll", "glib-2.0-0.dll"},
		"darwin":  {"libglib-2.0.0.dylib", "libglib-2.0.dylib"},
		"linux":   {"libglib-2.0.so.0", "libglib-2.0.so"},
	},
}

// osFamily folds GOOS into the three families the candidate table knows.
// Anything that is not windows or darwin is treated like linux.
func osFamily(goos string) string {
	switch goos {
	case "windows", "darwin":
		return goos
	default:
		return "linux"
	}
}

// CandidateNames returns the file names tried for a logical library name on
// the given OS, in priority order. It returns nil for names it does not know.
func CandidateNames(name, goos string) []string {
	byOS, ok := candidateTable[name]
	if !ok {
		return nil
	}
	names := byOS[osFamily(goos)]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// RuntimeIdentifier returns the directory name used for bundled native
// assets, e.g. "linux-x64" or "osx-arm64".
func RuntimeIdentifier(goos, goarch string) string {
	var arch string
	switch goarch {
	case "amd64":
		arch = "x64"
	case "arm64":
		arch = "arm64"
	case "386":
		arch = "x86"
	case "arm":
		arch = "arm"
	default:
		arch = "x64"
	}

	switch osFamily(goos) {
	case "windows":
		return "win-" + arch
	case "darwin":
		return "osx-" + arch
	default:
		return "linux-" + arch
	}
}

// Library is a shared module loaded into the process.
type Library struct {
	// Name is the logical name the library was requested by.
	Name string
	// Path is the name or path that was handed to the OS loader.
	Path string

	handle uintptr
}

// Resolver maps logical library names to loaded modules. A Resolver loads
// each logical name at most once and caches the result.
type Resolver struct {
	goos    string
	goarch  string
	baseDir string
	dirs    []string
	open    func(path string) (uintptr, error)
	logger  log.Logger

	mu     sync.Mutex
	loaded map[string]*Library
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseDir sets the directory the runtimes/<rid>/native tree is looked up
// in. It defaults to the directory holding the running executable.
func WithBaseDir(dir string) Option {
	return func(r *Resolver) {
		r.baseDir = dir
	}
}

// WithSearchDirs adds directories probed after the runtimes/<rid>/native
// directory. Empty entries are ignored.
func WithSearchDirs(dirs ...string) Option {
	return func(r *Resolver) {
		for _, d := range dirs {
			if d != "" {
				r.dirs = append(r.dirs, d)
			}
		}
	}
}

// WithLogger sets the logger used while probing.
func WithLogger(logger log.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func withOpener(open func(path string) (uintptr, error)) Option {
	return func(r *Resolver) {
		r.open = open
	}
}

func withPlatform(goos, goarch string) Option {
	return func(r *Resolver) {
		r.goos = goos
		r.goarch = goarch
	}
}

// NewResolver returns a resolver for the current process. OS and
// architecture are read once, here.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
		open:   openLibrary,
		logger: logger(),
		loaded: make(map[string]*Library),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.baseDir == "" {
		r.baseDir = executableDir()
	}
	return r
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// NativeDir returns <baseDir>/runtimes/<rid>/native for this resolver, or an
// empty string when no base directory is known.
func (r *Resolver) NativeDir() string {
	if r.baseDir == "" {
		return ""
	}
	return filepath.Join(r.baseDir, "runtimes", RuntimeIdentifier(r.goos, r.goarch), "native")
}

// Resolve loads the module for a logical name. Candidates are first tried
// by bare name so the OS search rules apply, then inside NativeDir and the
// configured search directories.
func (r *Resolver) Resolve(name string) (*Library, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lib, ok := r.loaded[name]; ok {
		return lib, nil
	}

	candidates := CandidateNames(name, r.goos)
	if candidates == nil {
		// Unknown name: hand it to the loader untouched.
		return r.tryLoad(name, []string{name})
	}

	attempts := append([]string(nil), candidates...)

	var dirs []string
	if nd := r.NativeDir(); nd != "" {
		dirs = append(dirs, nd)
	}
	dirs = append(dirs, r.dirs...)
	for _, dir := range dirs {
		for _, c := range candidates {
			attempts = append(attempts, filepath.Join(dir, c))
		}
	}

	return r.tryLoad(name, attempts)
}

func (r *Resolver) tryLoad(name string, attempts []string) (*Library, error) {
	for _, path := range attempts {
		h, err := r.open(path)
		if err != nil || h == 0 {
			r.logger.Trace("native library probe failed", "library", name, "path", path, "error", err)
			continue
		}

		lib := &Library{Name: name, Path: path, handle: h}
		r.loaded[name] = lib
		r.logger.Debug("loaded native library", "library", name, "path", path)
		return lib, nil
	}

	return nil, errors.Wrapf(ErrLibraryNotFound, "%s (tried %s)", name, strings.Join(attempts, ", "))
}

// Loaded returns the libraries resolved so far, keyed by logical name.
func (r *Resolver) Loaded() map[string]*Library {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]*Library, len(r.loaded))
	for k, v := range r.loaded {
		out[k] = v
	}
	return out
}

// registration runs the resolve-and-bind step exactly once and publishes
// its outcome for concurrent readers.
type registration struct {
	once   sync.Once
	result atomic.Pointer[loadResult]
}

type loadResult struct {
	err      error
	resolver *Resolver
}

func (g *registration) register(opts []Option, load func(*Resolver) error) error {
	g.once.Do(func() {
		r := NewResolver(opts...)
		g.result.Store(&loadResult{err: load(r), resolver: r})
	})
	return g.result.Load().err
}

// loaded returns the resolver of a successful registration, or nil.
func (g *registration) loaded() *Resolver {
	res := g.result.Load()
	if res == nil || res.err != nil {
		return nil
	}
	return res.resolver
}

var global registration

// Init resolves libaravis and its GLib dependencies and binds every native
// function. Only the first call does any work; later calls return the first
// outcome, options included, so a failed load is not retried.
func Init(opts ...Option) error {
	return global.register(opts, loadAll)
}

func loadAll(r *Resolver) error {
	libs := make(map[string]uintptr, 3)
	for _, name := range []string{LibGLib, LibGObject, LibAravis} {
		lib, err := r.Resolve(name)
		if err != nil {
			return err
		}
		libs[name] = lib.handle
	}
	return bindSymbols(libs)
}

// Loaded reports whether Init succeeded.
func Loaded() bool {
	return global.loaded() != nil
}

// LibraryPath returns the path a logical library was loaded from, or an
// empty string if it has not been loaded.
func LibraryPath(name string) string {
	r := global.loaded()
	if r == nil {
		return ""
	}
	if lib, ok := r.Loaded()[name]; ok {
		return lib.Path
	}
	return ""
}

// IsAvailable initializes the package and reports whether the native
// libraries could be loaded.
func IsAvailable() bool {
	return Init() == nil
}

// PlatformInfo describes the running process for diagnostics.
func PlatformInfo() string {
	return fmt.Sprintf("OS: %s\nArchitecture: %s\nRuntime identifier: %s\nGo: %s",
		runtime.GOOS, runtime.GOARCH, RuntimeIdentifier(runtime.GOOS, runtime.GOARCH), runtime.Version())
}

// InstallInstructions returns platform specific hints for installing Aravis.
func InstallInstructions(goos, goarch string) string {
	switch goos {
	case "windows":
		return `Windows:
  Download an Aravis build from https://github.com/AravisProject/aravis/releases
  and add its bin directory to PATH, or install it with vcpkg:
    vcpkg install aravis
  Bundled DLLs are also picked up from runtimes\` + RuntimeIdentifier(goos, goarch) + `\native
  next to the executable.`
	case "darwin":
		return `macOS:
  brew install aravis`
	case "linux":
		if goarch == "arm" || goarch == "arm64" {
			return `Linux ARM:
  sudo apt-get install libaravis-0.8-0
  or build from source without introspection and viewer:
    meson build -Dintrospection=disabled -Dviewer=disabled
    ninja -C build && sudo ninja -C build install && sudo ldconfig`
		}
		return `Linux:
  Debian/Ubuntu: sudo apt-get install libaravis-0.8-0
  Fedora/RHEL:   sudo dnf install aravis
  Arch:          sudo pacman -S aravis`
	}
	return "Unrecognized platform, build Aravis from source: https://github.com/AravisProject/aravis"
}
