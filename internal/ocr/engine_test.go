package ocr

import (
	"context"
	"errors"
	"image"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRunner records the command it was asked to run and returns canned output.
type fakeRunner struct {
	name   string
	args   []string
	stdout string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	return []byte(f.stdout), nil, f.err
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestEngine_Recognize(t *testing.T) {
	logger := zap.NewNop()

	t.Run("invokes tesseract with whitelist", func(t *testing.T) {
		runner := &fakeRunner{stdout: "INV 42"}
		engine := NewEngine(Config{}, runner, logger)

		text, err := engine.Recognize(context.Background(), testImage())

		require.NoError(t, err)
		assert.Equal(t, "INV 42", text)
		assert.Equal(t, "tesseract", runner.name)
		assert.Contains(t, runner.args, "stdout")
		assert.Contains(t, runner.args, "--psm")
		assert.Contains(t, runner.args, "tessedit_char_whitelist="+charWhitelist)

		// The page image is rendered to a real file before invocation.
		require.NotEmpty(t, runner.args)
		_, statErr := os.Stat(runner.args[0])
		assert.True(t, os.IsNotExist(statErr), "temp page image should be cleaned up")
	})

	t.Run("strips residual non-alphanumeric output", func(t *testing.T) {
		runner := &fakeRunner{stdout: "Total: $1,234.56\nINV-001"}
		engine := NewEngine(Config{}, runner, logger)

		text, err := engine.Recognize(context.Background(), testImage())

		require.NoError(t, err)
		assert.Equal(t, "Total 123456\nINV001", text)
	})

	t.Run("propagates tesseract failure", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("exit status 1")}
		engine := NewEngine(Config{}, runner, logger)

		_, err := engine.Recognize(context.Background(), testImage())

		assert.ErrorContains(t, err, "tesseract failed")
	})

	t.Run("honors configured binary and language", func(t *testing.T) {
		runner := &fakeRunner{}
		engine := NewEngine(Config{Binary: "/opt/tesseract", Language: "deu"}, runner, logger)

		_, err := engine.Recognize(context.Background(), testImage())

		require.NoError(t, err)
		assert.Equal(t, "/opt/tesseract", runner.name)
		assert.Contains(t, runner.args, "deu")
	})
}
