package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseError describes a malformed line in a VCF file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Reader reads records from a VCF file. Both plain and
// bgzip/gzip-compressed files are supported; bgzip output is valid gzip
// so a plain gzip reader suffices.
type Reader struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	sampleNames []string
}

// NewReader opens a VCF file, sniffing for gzip magic bytes, and parses
// the header up to and including the #CHROM line.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	r := &Reader{file: file}

	buf := make([]byte, 2)
	if _, err := io.ReadFull(file, buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	// gzip magic number (0x1f, 0x8b)
	if buf[0] == 0x1f && buf[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = bufio.NewReader(file)
	}

	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewReaderFrom creates a Reader from an io.Reader of uncompressed VCF
// text, parsing the header immediately.
func NewReaderFrom(src io.Reader) (*Reader, error) {
	r := &Reader{reader: bufio.NewReader(src)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// Header returns the raw header lines, including the #CHROM line.
func (r *Reader) Header() []string {
	return r.header
}

// SampleNames returns the sample identifiers from the #CHROM line.
func (r *Reader) SampleNames() []string {
	return r.sampleNames
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func (r *Reader) parseHeader() error {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		r.lineNumber++
		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			r.header = append(r.header, line)
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			r.header = append(r.header, line)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				r.sampleNames = fields[9:]
			}
			return nil
		}
		return &ParseError{Line: r.lineNumber, Message: "expected #CHROM header line"}
	}
	return &ParseError{Line: r.lineNumber, Message: "no #CHROM header line found"}
}

// Next reads the next record. Returns nil, nil at end of file.
func (r *Reader) Next() (*Record, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line = strings.TrimRight(line, "\r\n"); line != "" {
				return r.parseLine(line)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("read record line: %w", err)
	}
	r.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return r.Next()
	}
	return r.parseLine(line)
}

func (r *Reader) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	rec := &Record{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    fields[4],
		Qual:   fields[5],
		Filter: fields[6],
		Info:   fields[7],
	}
	if len(fields) > 8 {
		rec.Format = fields[8]
		rec.Genotypes = fields[9:]
	}
	return rec, nil
}
