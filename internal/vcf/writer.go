package vcf

import (
	"bufio"
	"fmt"
	"io"
)

// Writer writes plain-text VCF. Block compression of the result is the
// caller's concern (delegated to bgzip).
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps dst in a buffered VCF writer.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(dst)}
}

// WriteHeader writes the given header lines verbatim.
func (w *Writer) WriteHeader(header []string) error {
	for _, line := range header {
		if _, err := fmt.Fprintln(w.w, line); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return nil
}

// Write writes a single record line.
func (w *Writer) Write(rec *Record) error {
	if _, err := fmt.Fprintln(w.w, rec.Line()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Flush flushes buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
