package writer

import (
	"fmt"
	"io"
)

// Writer 日志输出器
type Writer interface {
	io.Writer
	io.Closer
}

// Options 输出器配置，Type 取值 console, file, multi
type Options struct {
	Type    string                `cfg:"type" def:"console" validate:"omitempty,oneof=console file multi"`
	Console *ConsoleWriterOptions `cfg:"console"`
	File    *FileWriterOptions    `cfg:"file"`
	Writers []*Options            `cfg:"writers"`
}

// NewWriterWithOptions 按 Type 创建输出器，nil 时输出到 stdout
func NewWriterWithOptions(options *Options) (Writer, error) {
	if options == nil {
		return NewConsoleWriterWithOptions(nil)
	}
	switch options.Type {
	case "", "console":
		return NewConsoleWriterWithOptions(options.Console)
	case "file":
		return NewFileWriterWithOptions(options.File)
	case "multi":
		return NewMultiWriterWithOptions(options.Writers)
	}
	return nil, fmt.Errorf("unsupported writer type %q", options.Type)
}
