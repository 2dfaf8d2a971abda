// Package nlog is a small leveled logger writing to stderr, controlled by
// the NOVA_LOG_LEVEL environment variable (0=error, 1=warn, 2=info,
// 3=debug).
package nlog

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Level is a logging verbosity tier.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) tag() string {
	switch l {
	case LevelError:
		return "E"
	case LevelWarn:
		return "W"
	case LevelInfo:
		return "I"
	case LevelDebug:
		return "D"
	default:
		return "?"
	}
}

var (
	once          sync.Once
	runtimeLevel  Level
	mu            sync.Mutex
)

// EnvVar is the environment variable read once to determine the runtime
// verbosity level.
const EnvVar = "NOVA_LOG_LEVEL"

func level() Level {
	once.Do(func() {
		runtimeLevel = LevelInfo
		v, ok := os.LookupEnv(EnvVar)
		if !ok {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return
		}
		if n < 0 {
			n = 0
		}
		if n > int(LevelDebug) {
			n = int(LevelDebug)
		}
		runtimeLevel = Level(n)
	})
	return runtimeLevel
}

func emit(l Level, args ...any) {
	if l > level() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(os.Stderr, "%s [%s] %s\n", ts, l.tag(), fmt.Sprint(args...))
}

func Errorf(format string, args ...any) { emit(LevelError, fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { emit(LevelWarn, fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { emit(LevelInfo, fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { emit(LevelDebug, fmt.Sprintf(format, args...)) }
