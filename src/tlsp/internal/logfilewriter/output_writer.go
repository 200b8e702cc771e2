package logfilewriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/toitware/tlsp/src/tlsp/internal/fs"
	"github.com/toitware/tlsp/src/tlsp/internal/serverinfofile"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const _fmtOutputKey = "output:%s"

// Params define the dependencies for SetupOutputWriter.
type Params struct {
	FS             fs.FS
	ServerInfoFile serverinfofile.ServerInfoFile
}

// OutputWriter writes human readable output to a log file that outlives the writer.
type OutputWriter interface {
	io.WriteCloser
	// Path is the location of the log file.
	Path() string
}

// SetupOutputWriter creates a writer for output that is independent of the daemon's own logging,
// such as the traffic sent to a language server.
// The file is created under a directory named after name in the user's temp directory, and its
// path is stored in the server info file so the editor can tail it.
func SetupOutputWriter(p Params, name string) (OutputWriter, error) {
	logsDirPath := filepath.Join(os.TempDir(), name)
	if err := p.FS.MkdirAll(logsDirPath); err != nil {
		return nil, err
	}

	logFile, err := p.FS.TempFile(logsDirPath, "")
	if err != nil {
		return nil, err
	}

	if err := p.ServerInfoFile.UpdateField(fmt.Sprintf(_fmtOutputKey, name), logFile.Name()); err != nil {
		logFile.Close()
		return nil, err
	}

	// Write via a logger for formatting, timestamp, and buffering.
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)

	return &loggerWriter{
		logger: zap.New(core).Sugar(),
		file:   logFile,
	}, nil
}

type loggerWriter struct {
	logger *zap.SugaredLogger
	file   *os.File
}

// Write implements the io.Writer interface by sending data to the given logger.
func (o *loggerWriter) Write(p []byte) (n int, err error) {
	// Incoming data may contain multiple lines, including blank ones.
	lines := strings.Split(string(p), "\n")
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if len(line) > 0 {
			o.logger.Info(line)
		}
	}

	return len(p), nil
}

func (o *loggerWriter) Path() string {
	if o.file == nil {
		return ""
	}
	return o.file.Name()
}

// Close flushes the logger and closes the file. The file is kept for inspection.
func (o *loggerWriter) Close() error {
	err := o.logger.Sync()
	if o.file != nil {
		err = multierr.Append(err, o.file.Close())
	}
	return err
}
