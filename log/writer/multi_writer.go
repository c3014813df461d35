package writer

import (
	"errors"
	"fmt"
)

// MultiWriter 同时写入多个输出器，任一失败即返回
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriterWithOptions(options []*Options) (*MultiWriter, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("at least one writer is required")
	}
	m := &MultiWriter{}
	for i, opt := range options {
		w, err := NewWriterWithOptions(opt)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to create writer %d: %w", i, err)
		}
		m.writers = append(m.writers, w)
	}
	return m, nil
}

func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Write(p []byte) (int, error) {
	for i, w := range m.writers {
		if _, err := w.Write(p); err != nil {
			return 0, fmt.Errorf("writer %d failed: %w", i, err)
		}
	}
	return len(p), nil
}

func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
