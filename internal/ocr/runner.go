package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Runner abstracts external command execution so the tesseract binary
// can be stubbed in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *zap.Logger
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner(logger *zap.Logger) Runner {
	return &execRunner{logger: logger}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()

	if err != nil {
		r.logger.Error("External command failed",
			zap.String("cmd", name),
			zap.Strings("args", args),
			zap.Duration("duration", time.Since(start)),
			zap.String("stderr", truncate(errb.String(), 8<<10)),
			zap.Error(err))
	} else {
		r.logger.Debug("External command finished",
			zap.String("cmd", name),
			zap.Duration("duration", time.Since(start)),
			zap.Int("stdout_bytes", out.Len()))
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
