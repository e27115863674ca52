package logging

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// fanoutLogger builds one zap entry per call and hands it to every appender in order.
type fanoutLogger struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
}

func newFanoutLogger(name string, level Level, inUTC bool, appenders ...Appender) *fanoutLogger {
	return &fanoutLogger{
		name:      name,
		level:     NewAtomicLevelAt(level),
		inUTC:     inUTC,
		appenders: appenders,
	}
}

func (l *fanoutLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.write(context.Background(), DEBUG, msg, keysAndValues)
}

func (l *fanoutLogger) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.write(ctx, DEBUG, msg, keysAndValues)
}

func (l *fanoutLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.write(context.Background(), INFO, msg, keysAndValues)
}

func (l *fanoutLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.write(context.Background(), WARN, msg, keysAndValues)
}

func (l *fanoutLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.write(context.Background(), ERROR, msg, keysAndValues)
}

func (l *fanoutLogger) Sublogger(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	sub := newFanoutLogger(name, l.level.Get(), l.inUTC)
	sub.appenders = l.appenders
	return sub
}

func (l *fanoutLogger) SetLevel(level Level) {
	l.level.Set(level)
}

func (l *fanoutLogger) GetLevel() Level {
	return l.level.Get()
}

func (l *fanoutLogger) AddAppender(appender Appender) {
	l.appenders = append(l.appenders, appender)
}

func (l *fanoutLogger) Sync() error {
	var errs error
	for _, appender := range l.appenders {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

// write drops entries below the level unless ctx is in debug mode, in which case the entry carries
// the debug name as a "debug" field.
func (l *fanoutLogger) write(ctx context.Context, level Level, msg string, keysAndValues []interface{}) {
	fields := pairFields(keysAndValues)
	if level < l.level.Get() {
		name := DebugName(ctx)
		if name == "" {
			return
		}
		fields = append(fields, zap.String("debug", name))
	}

	now := time.Now()
	if l.inUTC {
		now = now.UTC()
	}
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       now,
		LoggerName: l.name,
		Message:    msg,
		Caller:     callerOf(3),
	}
	for _, appender := range l.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// pairFields turns alternating keys and values into zap fields. An odd trailing key is kept with
// a placeholder value.
func pairFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.String(key, "unpaired log key"))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// callerOf reports the frame skip levels above it, e.g. "detection/scanner.go:88" for the code
// calling Infow.
func callerOf(skip int) zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
