package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/erp/backoffice/internal/domain/marketplace"
)

// CSVParser reads marketplace exports saved as CSV. All cells are text.
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	headers    []string
	currentRow int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// utf8BOM is written by spreadsheet tools in front of CSV exports
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sniffSize is how much of the file is checked for valid UTF-8
const sniffSize = 4096

// NewCSVParser creates a parser over r. A leading BOM is skipped and the
// first bytes must be UTF-8.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{delimiter: ',', lazyQuotes: true}
	for _, opt := range opts {
		opt(p)
	}

	p.bufReader = bufio.NewReaderSize(r, sniffSize)
	if head, err := p.bufReader.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = p.bufReader.Discard(len(utf8BOM))
	}
	if err := sniffUTF8(p.bufReader); err != nil {
		return nil, err
	}

	p.reader = csv.NewReader(p.bufReader)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = p.lazyQuotes
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

func sniffUTF8(r *bufio.Reader) error {
	head, err := r.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return ErrEmptyFile
	}
	// a rune may be cut at the end of a full window
	if len(head) == sniffSize {
		for cut := 0; cut < utf8.UTFMax && !utf8.Valid(head); cut++ {
			head = head[:len(head)-1]
		}
	}
	if !utf8.Valid(head) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrEmptyFile
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		p.headers[i] = strings.TrimSpace(h)
	}
	p.currentRow = 1

	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// ReadRow reads the next row
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}

	row := &Row{
		LineNumber: p.currentRow,
		Cells:      make(map[string]marketplace.Cell, len(p.headers)),
	}
	for i, header := range p.headers {
		if i >= len(record) || header == "" {
			continue
		}
		if v := strings.TrimSpace(record[i]); v != "" {
			row.Cells[header] = marketplace.Cell{Value: v}
		}
	}
	return row, nil
}

// ReadSheet reads the header and every non-empty row. maxRows <= 0 means
// no limit.
func (p *CSVParser) ReadSheet(maxRows int) (*Sheet, error) {
	if err := p.ParseHeader(); err != nil {
		return nil, err
	}

	sheet := &Sheet{Headers: p.headers}
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		if maxRows > 0 && len(sheet.Rows) >= maxRows {
			return nil, tooManyRows(maxRows)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}
