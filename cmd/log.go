package cmd

import (
	"context"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type loggerKey struct{}

type logFileKey struct{}

// logFile holds the --log-file handle until Execute closes it.
type logFile struct {
	f *os.File
}

func (l *logFile) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

func getLogFile(ctx context.Context) *logFile {
	if ctx == nil {
		return nil
	}
	lf, _ := ctx.Value(logFileKey{}).(*logFile)
	return lf
}

func setLogger(ctx context.Context, logger logr.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func getLogger(cmd *cobra.Command) logr.Logger {
	if cmd.Context() != nil {
		if v, ok := cmd.Context().Value(loggerKey{}).(logr.Logger); ok {
			return v
		}
	}
	return logr.Discard()
}

func addLoggerFlags(flags *pflag.FlagSet) {
	flags.Int("log-verbosity", 0, "log verbosity. Higher value means more log")
	flags.String("log-file", "", "output logs to specified file")
}

// setupLogger installs a stdr logger on the command's context. Logs go to
// --log-file when given, stderr otherwise. The file stays open until the
// root command's logFile is closed.
func setupLogger(cmd *cobra.Command) error {
	verbosity, err := cmd.Flags().GetInt("log-verbosity")
	if err != nil {
		return err
	}
	path, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var std stdr.StdLogger
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if lf := getLogFile(ctx); lf != nil {
			lf.f = f
		}
		std = log.New(f, "", log.LstdFlags)
	} else {
		std = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	}
	stdr.SetVerbosity(verbosity)
	cmd.SetContext(setLogger(ctx, stdr.New(std)))
	return nil
}
