package writer

import (
	"io"
	"os"
)

type ConsoleWriterOptions struct {
	// stdout 或 stderr
	Target string `cfg:"target" def:"stdout" validate:"omitempty,oneof=stdout stderr"`
}

type ConsoleWriter struct {
	writer io.Writer
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	w := io.Writer(os.Stdout)
	if options != nil && options.Target == "stderr" {
		w = os.Stderr
	}
	return &ConsoleWriter{writer: w}, nil
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}

// Close 标准输出不需要关闭
func (c *ConsoleWriter) Close() error {
	return nil
}
