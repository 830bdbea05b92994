package log

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// LoggerConfig drives Init. Appender selects where records go: "console",
// "file", or "both". File is only required when Appender is "file" or
// "both".
type LoggerConfig struct {
	Pattern  string `mapstructure:"pattern"`
	Time     string `mapstructure:"time"`
	Level    string `mapstructure:"level"`
	Appender string `mapstructure:"appender"`
	File     FileAppenderOpt
}

type logrusAdapter struct {
	entry *logrus.Entry
}

func initByConfig(cfg *LoggerConfig) error {
	l := logrus.New()

	writer := NewMultiWriter()
	switch cfg.Appender {
	case "console":
		writer.Add(consoleWriter())
	case "file":
		writer.AddFileAppender(cfg.File)
	case "both":
		writer.Add(consoleWriter()).AddFileAppender(cfg.File)
	default:
		writer.Add(consoleWriter())
	}
	l.SetOutput(writer)

	l.SetFormatter(pickFormatter(cfg))

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetReportCaller(true)

	logger = &logrusAdapter{
		entry: logrus.NewEntry(l),
	}
	return nil
}

// consoleWriter wraps os.Stdout through go-colorable so ANSI escapes emitted
// by the prefixed formatter render correctly on Windows consoles too.
func consoleWriter() io.Writer {
	return colorable.NewColorableStdout()
}

// isConsoleTTY reports whether stdout is attached to an interactive
// terminal (including a Cygwin/MSYS terminal on Windows).
func isConsoleTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// pickFormatter picks a colorized, human-oriented formatter when stdout is a
// TTY, and the structured %time/%level/%field/%msg/%caller pattern formatter
// otherwise (file output, piped stdout, CI logs).
func pickFormatter(cfg *LoggerConfig) logrus.Formatter {
	if cfg.Appender != "file" && isConsoleTTY() {
		f := &prefixed.TextFormatter{
			ForceColors:     true,
			ForceFormatting: true,
			FullTimestamp:   true,
			TimestampFormat: cfg.Time,
		}
		f.SetColorScheme(&prefixed.ColorScheme{
			InfoLevelStyle:  "green",
			WarnLevelStyle:  "yellow",
			ErrorLevelStyle: "red",
			FatalLevelStyle: "red+b",
			PanicLevelStyle: "red+b",
			DebugLevelStyle: "cyan",
			PrefixStyle:     "blue+b",
			TimestampStyle:  "black+h",
		})
		return f
	}
	return &formatter{pattern: cfg.Pattern, time: cfg.Time}
}

func (l *logrusAdapter) Print(args ...interface{})                 { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...interface{}) { l.entry.Printf(format, args...) }

func (l *logrusAdapter) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusAdapter) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusAdapter) Panic(args ...interface{})                 { l.entry.Panic(args...) }
func (l *logrusAdapter) Panicf(format string, args ...interface{}) { l.entry.Panicf(format, args...) }

func (l *logrusAdapter) WithField(field string, value interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsTraceEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel)
}
func (l *logrusAdapter) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
func (l *logrusAdapter) IsInfoEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.InfoLevel)
}
