// Command arvctl lists, inspects and acquires from GenICam cameras through
// libaravis.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/Standard-Cognition/go-aravis/aravis"
)

const usage = `usage: arvctl [-library-dir DIR] [-log-level LEVEL] COMMAND [ARGS]

commands:
  list                         list cameras
  info                         show native library resolution details
  features [-device ID] [-root CATEGORY] [-xml]
                               dump the feature tree as YAML
  get [-device ID] FEATURE     print a feature value
  set [-device ID] FEATURE VALUE
                               set a feature value
  acquire [-device ID] [-count N] [-buffers N] [-timeout D] [-out DIR] [-format FMT]
                               acquire frames and save them
`

type command func(ctx context.Context, logger log.Logger, args []string) error

var commands = map[string]command{
	"list":     runList,
	"info":     runInfo,
	"features": runFeatures,
	"get":      runGet,
	"set":      runSet,
	"acquire":  runAcquire,
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("arvctl", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	libraryDir := fs.String("library-dir", "", "extra directory to search for libaravis")
	logLevel := fs.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(&log.LoggerOptions{
		Name:   "arvctl",
		Level:  log.LevelFromString(*logLevel),
		Output: os.Stderr,
	})

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		logger.Error("unknown command", "command", fs.Arg(0))
		fs.Usage()
		return 2
	}

	aravis.SetLogger(logger)
	// info reports a failed load itself.
	if err := aravis.Init(aravis.WithSearchDirs(*libraryDir), aravis.WithLogger(logger)); err != nil && fs.Arg(0) != "info" {
		logger.Error("failed to load libaravis", "error", err)
		fmt.Fprintln(os.Stderr, aravis.InstallInstructions(runtime.GOOS, runtime.GOARCH))
		return 1
	}
	defer aravis.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, logger, fs.Args()[1:]); err != nil {
		logger.Error("command failed", "command", fs.Arg(0), "error", err)
		return 1
	}
	return 0
}

func runList(_ context.Context, _ log.Logger, _ []string) error {
	devices, err := aravis.Discover()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("no cameras found")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%d: %s\n   id: %s\n", d.Index, d, d.ID)
	}
	return nil
}

func runInfo(_ context.Context, _ log.Logger, _ []string) error {
	fmt.Println(aravis.PlatformInfo())
	fmt.Println()
	for _, name := range []string{aravis.LibAravis, aravis.LibGObject, aravis.LibGLib} {
		fmt.Printf("%s\n  candidates: %s\n", name, strings.Join(aravis.CandidateNames(name, runtime.GOOS), ", "))
		if p := aravis.LibraryPath(name); p != "" {
			fmt.Printf("  loaded:     %s\n", p)
		} else {
			fmt.Printf("  loaded:     no\n")
		}
	}
	fmt.Printf("\nnative dir: %s\n", aravis.NewResolver().NativeDir())

	if !aravis.Loaded() {
		fmt.Println()
		fmt.Println(aravis.InstallInstructions(runtime.GOOS, runtime.GOARCH))
	}
	return nil
}

// openDevice opens a camera and its device. Closing the camera releases both.
func openDevice(id string) (*aravis.Camera, *aravis.Device, error) {
	cam, err := aravis.NewCamera(id)
	if err != nil {
		return nil, nil, err
	}
	dev, err := cam.Device()
	if err != nil {
		cam.Close()
		return nil, nil, err
	}
	return cam, dev, nil
}

func runFeatures(_ context.Context, _ log.Logger, args []string) error {
	fs := flag.NewFlagSet("features", flag.ContinueOnError)
	id := fs.String("device", "", "camera id (default: first camera)")
	root := fs.String("root", aravis.RootCategory, "category to start from")
	raw := fs.Bool("xml", false, "print the raw GenICam document instead of the feature tree")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cam, dev, err := openDevice(*id)
	if err != nil {
		return err
	}
	defer cam.Close()

	if *raw {
		return writeGenicamXML(os.Stdout, dev)
	}
	features, err := dev.Features(*root)
	if err != nil {
		return err
	}
	return writeYAML(os.Stdout, features)
}

type genicamSource interface {
	GenicamXML() ([]byte, error)
}

// writeGenicamXML copies the device description document to w, ending it
// with a newline.
func writeGenicamXML(w io.Writer, dev genicamSource) error {
	doc, err := dev.GenicamXML()
	if err != nil {
		return err
	}
	doc = bytes.TrimRight(doc, "\x00")
	if _, err := w.Write(doc); err != nil {
		return err
	}
	if len(doc) > 0 && doc[len(doc)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func runGet(_ context.Context, _ log.Logger, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	id := fs.String("device", "", "camera id (default: first camera)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("get: expected FEATURE")
	}

	cam, dev, err := openDevice(*id)
	if err != nil {
		return err
	}
	defer cam.Close()

	f, err := dev.FeatureDetails(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Println(f)
	return nil
}

func runSet(_ context.Context, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	id := fs.String("device", "", "camera id (default: first camera)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("set: expected FEATURE VALUE")
	}
	name, value := fs.Arg(0), fs.Arg(1)

	cam, dev, err := openDevice(*id)
	if err != nil {
		return err
	}
	defer cam.Close()

	f, err := dev.FeatureDetails(name)
	if err != nil {
		return err
	}
	if err := setFeature(dev, f, value); err != nil {
		return err
	}
	logger.Info("feature set", "feature", name, "type", f.Type, "value", value)
	return nil
}

// featureSetter is the part of *aravis.Device setFeature needs.
type featureSetter interface {
	SetString(feature, value string) error
	SetInteger(feature string, value int64) error
	SetFloat(feature string, value float64) error
	SetBoolean(feature string, value bool) error
	ExecuteCommand(feature string) error
}

// setFeature parses value according to the feature type and writes it.
func setFeature(dev featureSetter, f aravis.Feature, value string) error {
	if f.Access == aravis.AccessReadOnly {
		return fmt.Errorf("feature %s is read only", f.Name)
	}
	switch f.Type {
	case aravis.FeatureInteger:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return fmt.Errorf("feature %s: %w", f.Name, err)
		}
		return dev.SetInteger(f.Name, v)
	case aravis.FeatureFloat:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("feature %s: %w", f.Name, err)
		}
		return dev.SetFloat(f.Name, v)
	case aravis.FeatureBoolean:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("feature %s: %w", f.Name, err)
		}
		return dev.SetBoolean(f.Name, v)
	case aravis.FeatureCommand:
		return dev.ExecuteCommand(f.Name)
	case aravis.FeatureEnumeration:
		if len(f.Choices) > 0 && !contains(f.Choices, value) {
			return fmt.Errorf("feature %s: %q is not one of %s", f.Name, value, strings.Join(f.Choices, ", "))
		}
		return dev.SetString(f.Name, value)
	case aravis.FeatureString:
		return dev.SetString(f.Name, value)
	}
	return fmt.Errorf("feature %s: cannot set a %s", f.Name, f.Type)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func runAcquire(ctx context.Context, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("acquire", flag.ContinueOnError)
	id := fs.String("device", "", "camera id (default: first camera)")
	count := fs.Int64("count", 10, "number of frames, 0 for no limit")
	buffers := fs.Int("buffers", 5, "buffers in flight")
	timeout := fs.Duration("timeout", time.Second, "wait per frame")
	out := fs.String("out", ".", "output directory")
	format := fs.String("format", "png", "raw, pgm, png, jpeg or none")
	quality := fs.Int("quality", 90, "JPEG quality")
	if err := fs.Parse(args); err != nil {
		return err
	}

	save, ext, err := frameWriter(*format, *quality)
	if err != nil {
		return err
	}

	cam, err := aravis.NewCamera(*id)
	if err != nil {
		return err
	}
	defer cam.Close()

	session := filepath.Join(*out, uuid.New().String())
	if save != nil {
		if err := os.MkdirAll(session, 0o755); err != nil {
			return err
		}
		logger.Info("saving frames", "dir", session, "format", *format)
	}

	var n int
	stats, err := aravis.Acquire(ctx, cam, aravis.AcquireConfig{
		Buffers:   *buffers,
		Timeout:   *timeout,
		MaxFrames: *count,
		Handler: func(b *aravis.Buffer) error {
			n++
			if save == nil {
				return nil
			}
			frame, err := b.Frame()
			if err != nil {
				return err
			}
			return writeFile(filepath.Join(session, fmt.Sprintf("frame_%06d.%s", n, ext)), func(w io.Writer) error {
				return save(frame, w)
			})
		},
	})
	fmt.Println(stats)
	return err
}

// frameWriter picks the encoder for a format name. A nil writer means frames
// are not saved.
func frameWriter(format string, quality int) (func(aravis.Frame, io.Writer) error, string, error) {
	switch strings.ToLower(format) {
	case "none":
		return nil, "", nil
	case "raw":
		return aravis.Frame.WriteRaw, "raw", nil
	case "pgm":
		return aravis.Frame.WritePGM, "pgm", nil
	case "png":
		return aravis.Frame.WritePNG, "png", nil
	case "jpeg", "jpg":
		return func(f aravis.Frame, w io.Writer) error { return f.WriteJPEG(w, quality) }, "jpg", nil
	}
	return nil, "", fmt.Errorf("unknown format %q", format)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
