package aravis

import (
	"sync/atomic"

	log "github.com/hashicorp/go-hclog"
)

// atomic.Value needs one concrete type, loggers come in several.
type loggerBox struct {
	log.Logger
}

var pkgLogger atomic.Value

func init() {
	pkgLogger.Store(loggerBox{log.NewNullLogger()})
}

// SetLogger sets the logger used by the package. It is silent by default.
func SetLogger(l log.Logger) {
	if l == nil {
		l = log.NewNullLogger()
	}
	pkgLogger.Store(loggerBox{l.Named("aravis")})
}

func logger() log.Logger {
	return pkgLogger.Load().(loggerBox).Logger
}
