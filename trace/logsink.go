package trace

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/qactive"
	"github.com/joeycumines/stumpy"
)

// LogSink adapts a qactive.LogEntry stream onto a logiface logger backed by
// stumpy's JSON event encoder, for hosted builds that want structured host
// logs instead of qactive.WriterLogger's plain-text lines. The bare-metal
// core never depends on this package; a hosted binary opts in by passing
// a LogSink to qactive.WithLogger. Nothing in this module does so.
type LogSink struct {
	logger *logiface.Logger[*stumpy.Event]
	level  qactive.LogLevel
}

// NewLogSink builds a LogSink writing newline-delimited JSON to out,
// discarding entries below level.
func NewLogSink(out io.Writer, level qactive.LogLevel) *LogSink {
	return &LogSink{
		logger: stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(out))),
		level:  level,
	}
}

func (s *LogSink) IsEnabled(level qactive.LogLevel) bool {
	return level >= s.level
}

func (s *LogSink) Log(entry qactive.LogEntry) {
	if !s.IsEnabled(entry.Level) {
		return
	}

	var event *logiface.Builder[*stumpy.Event]
	switch entry.Level {
	case qactive.LevelDebug:
		event = s.logger.Debug()
	case qactive.LevelWarn:
		event = s.logger.Warning()
	case qactive.LevelError:
		event = s.logger.Err()
	default:
		event = s.logger.Info()
	}
	if event == nil {
		return
	}

	event = event.Str(`category`, entry.Category)
	if entry.KernelID != 0 {
		event = event.Int64(`kernel`, entry.KernelID)
	}
	if entry.Priority != 0 {
		event = event.Int(`prio`, entry.Priority)
	}
	if entry.Signal != 0 {
		event = event.Int(`sig`, entry.Signal)
	}
	for k, v := range entry.Context {
		event = event.Any(k, v)
	}
	if entry.Err != nil {
		event = event.Err(entry.Err)
	}
	event.Log(entry.Message)
}

var _ qactive.Logger = (*LogSink)(nil)
