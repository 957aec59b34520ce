// Package logger writes area-tagged, leveled entries to a rotating log
// file. Until Initialize succeeds every call is a no-op.
package logger

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antibyte/zen/pkg/configuration"
)

// LogLevel orders log entries by severity.
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (lv LogLevel) String() string {
	if lv < DEBUG || lv > FATAL {
		return fmt.Sprintf("LEVEL(%d)", int32(lv))
	}
	return levelNames[lv]
}

// LogArea tags an entry with the subsystem that wrote it.
type LogArea string

const (
	AreaInterpreter LogArea = "interpreter"
	AreaExpression  LogArea = "expression"
	AreaConfig      LogArea = "config"
	AreaHistory     LogArea = "history"
	AreaServer      LogArea = "server"
	AreaAuth        LogArea = "auth"
	AreaWatch       LogArea = "watch"
	AreaGeneral     LogArea = "general"
)

// Areas lists every known area in the order the [Debug] keys are documented.
var Areas = []LogArea{
	AreaInterpreter, AreaExpression, AreaConfig, AreaHistory,
	AreaServer, AreaAuth, AreaWatch, AreaGeneral,
}

// Logger filters entries by level and area and writes the survivors to sink.
type Logger struct {
	level atomic.Int32

	areasMu sync.RWMutex
	areas   map[LogArea]bool

	sinkMu sync.Mutex
	sink   io.WriteCloser
}

var (
	globalLogger *Logger
	initOnce     sync.Once
)

// Initialize builds the global logger from the [Debug] section. With
// enable_debug_logging off nothing is opened and nothing is written.
func Initialize() error {
	var err error
	initOnce.Do(func() {
		if !configuration.GetBool("Debug", "enable_debug_logging", false) {
			return
		}

		var file *rotatingFile
		file, err = openRotatingFile(
			configuration.GetString("Debug", "log_file", "zen.log"),
			int64(configuration.GetInt("Debug", "max_log_size_mb", 10))*1024*1024,
			configuration.GetInt("Debug", "log_rotation_count", 3),
		)
		if err != nil {
			err = fmt.Errorf("opening log file: %w", err)
			return
		}

		l := newLogger(file, parseLogLevel(configuration.GetString("Debug", "log_level", "INFO")))
		for _, area := range Areas {
			l.setArea(area, configuration.GetBool("Debug", "log_"+string(area), false))
		}
		globalLogger = l
	})
	return err
}

func newLogger(sink io.WriteCloser, level LogLevel) *Logger {
	l := &Logger{sink: sink, areas: make(map[LogArea]bool, len(Areas))}
	l.level.Store(int32(level))
	return l
}

func (l *Logger) setArea(area LogArea, on bool) {
	l.areasMu.Lock()
	l.areas[area] = on
	l.areasMu.Unlock()
}

func (l *Logger) shouldLog(level LogLevel, area LogArea) bool {
	if LogLevel(l.level.Load()) > level {
		return false
	}
	l.areasMu.RLock()
	defer l.areasMu.RUnlock()
	return l.areas[area]
}

// write formats one entry. skip is the number of frames between the
// caller of the public function and write.
func (l *Logger) write(skip int, level LogLevel, area LogArea, format string, args ...interface{}) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		file, line = "???", 0
	}

	entry := fmt.Sprintf("[%s] %s [%s:%d] [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05.000"),
		level,
		filepath.Base(file), line,
		strings.ToUpper(string(area)),
		fmt.Sprintf(format, args...))

	l.sinkMu.Lock()
	defer l.sinkMu.Unlock()
	if l.sink != nil {
		// A failing log write must never disturb a run.
		_, _ = io.WriteString(l.sink, entry)
	}
}

func (l *Logger) close() error {
	l.sinkMu.Lock()
	defer l.sinkMu.Unlock()
	if l.sink == nil {
		return nil
	}
	err := l.sink.Close()
	l.sink = nil
	return err
}

// Enabled reports whether an entry at level for area would be written.
// Use it to skip expensive argument formatting.
func Enabled(level LogLevel, area LogArea) bool {
	return globalLogger != nil && globalLogger.shouldLog(level, area)
}

func logAt(level LogLevel, area LogArea, format string, args []interface{}) {
	if Enabled(level, area) {
		// logAt <- public helper <- caller
		globalLogger.write(3, level, area, format, args...)
	}
}

func Debug(area LogArea, format string, args ...interface{}) { logAt(DEBUG, area, format, args) }
func Info(area LogArea, format string, args ...interface{})  { logAt(INFO, area, format, args) }
func Warn(area LogArea, format string, args ...interface{})  { logAt(WARN, area, format, args) }
func Error(area LogArea, format string, args ...interface{}) { logAt(ERROR, area, format, args) }

// Fatal logs the entry if possible and exits the process.
func Fatal(area LogArea, format string, args ...interface{}) {
	logAt(FATAL, area, format, args)
	Close()
	log.Fatalf("[FATAL] [%s] %s", strings.ToUpper(string(area)), fmt.Sprintf(format, args...))
}

// Shorthands for the interpreter area, which logs the most.

func InterpreterDebug(format string, args ...interface{}) {
	logAt(DEBUG, AreaInterpreter, format, args)
}

func InterpreterInfo(format string, args ...interface{}) {
	logAt(INFO, AreaInterpreter, format, args)
}

func InterpreterWarn(format string, args ...interface{}) {
	logAt(WARN, AreaInterpreter, format, args)
}

// SetAreaEnabled switches one area at runtime.
func SetAreaEnabled(area LogArea, on bool) {
	if globalLogger != nil {
		globalLogger.setArea(area, on)
	}
}

func parseLogLevel(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return WARN
	}
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return INFO
}

// Close closes the log file. Later calls are no-ops.
func Close() {
	if globalLogger != nil {
		_ = globalLogger.close()
	}
}
