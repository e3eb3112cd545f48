package daemon

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// OpenLog configures the standard logger as the audit log: timestamped
// text lines on stderr and in the size-rotated file at path. Closing the
// returned io.Closer closes the file; calling OpenLog again redirects the
// logger to the new file.
func OpenLog(path string, level log.Level) io.Closer {
	lf := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     90, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, lf))
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   true,
	})
	log.SetLevel(level)
	return lf
}
