// file: internals/helpers/logx/logx.go
package logx

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop().Sugar()
)

// Init membangun logger global; dev=true → console encoder + debug level.
func Init(dev bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	s := l.Sugar()
	Set(s)
	return s, nil
}

func Set(l *zap.SugaredLogger) {
	if l == nil {
		return
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

// S returns the process logger (no-op until Init).
func S() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// With returns a child logger carrying key/value pairs.
func With(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return S()
	}
	return S().With(kv...)
}

func Sync() {
	_ = S().Sync()
}
