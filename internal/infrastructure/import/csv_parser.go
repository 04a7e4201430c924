// Package csvimport reads CSV uploads into header-keyed rows and validates
// them against per-column rules.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CSVParser reads a CSV stream whose first line is the header
type CSVParser struct {
	delimiter  rune
	detect     bool
	aliases    map[string]string
	maxRows    int
	headers    []string
	headerMap  map[string]int
	currentRow int
	totalRows  int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter and disables detection
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
		p.detect = false
	}
}

// WithHeaderAliases maps alternative header spellings to canonical column
// names. Keys are compared after NormalizeHeader.
func WithHeaderAliases(aliases map[string]string) ParserOption {
	return func(p *CSVParser) {
		for k, v := range aliases {
			p.aliases[NormalizeHeader(k)] = v
		}
	}
}

// WithMaxRows makes ReadAllRows fail with ErrTooManyRows past n data rows
func WithMaxRows(n int) ParserOption {
	return func(p *CSVParser) {
		p.maxRows = n
	}
}

// NewCSVParser strips a UTF-8 BOM, checks the encoding and, unless a
// delimiter was given, picks ',' or ';' from the header line.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{
		delimiter: ',',
		detect:    true,
		aliases:   make(map[string]string),
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.bufReader = bufio.NewReader(r)

	bom, err := p.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = p.bufReader.Discard(3)
	}

	head, err := p.bufReader.Peek(4096)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(strings.TrimSpace(string(head))) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8Prefix(head, len(head) == p.bufReader.Size()) {
		return nil, ErrInvalidEncoding
	}
	if p.detect {
		p.delimiter = detectDelimiter(head)
	}

	p.reader = csv.NewReader(p.bufReader)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// validUTF8Prefix checks b, tolerating a rune cut at the end when b is only
// the first part of the stream
func validUTF8Prefix(b []byte, truncated bool) bool {
	if !truncated {
		return utf8.Valid(b)
	}
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

// detectDelimiter prefers ';' when the first line has more of them than
// commas, as spreadsheets in es locales export.
func detectDelimiter(head []byte) rune {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

// NormalizeHeader lowercases h, strips accents and drops every character
// that is not a letter or digit, so "Teléfono", "telefono" and "TELE_FONO"
// compare equal.
func NormalizeHeader(h string) string {
	folded, _, err := transform.String(accentFolder(), strings.ToLower(h))
	if err != nil {
		folded = strings.ToLower(h)
	}
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// ParseHeader reads the header row and resolves aliases. Unknown headers
// are kept under their trimmed spelling.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, raw := range record {
		h := strings.TrimSpace(raw)
		if canonical, ok := p.aliases[NormalizeHeader(h)]; ok {
			h = canonical
		}
		p.headers[i] = h
		if _, dup := p.headerMap[h]; !dup && h != "" {
			p.headerMap[h] = i
		}
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the resolved header names in file order
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a column exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// MissingHeaders returns the required columns the file lacks
func (p *CSVParser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is a data line keyed by header
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value of column, or "" when absent
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty returns true if every value is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next data row. It returns io.EOF at the end.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, RowError{Row: p.currentRow, Code: CodeMalformedRow, Message: err.Error()}
	}

	row := &Row{LineNumber: p.currentRow, Data: make(map[string]string, len(p.headerMap))}
	for h, i := range p.headerMap {
		if i < len(record) {
			row.Data[h] = strings.TrimSpace(record[i])
		} else {
			row.Data[h] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping blank ones. Malformed rows
// are reported to errs and skipped.
func (p *CSVParser) ReadAllRows(errs *ErrorCollection) ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		var rowErr RowError
		if errors.As(err, &rowErr) {
			p.totalRows++
			errs.Add(rowErr)
			continue
		}
		if err != nil {
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		p.totalRows++
		rows = append(rows, row)
		if p.maxRows > 0 && len(rows) > p.maxRows {
			return nil, fmt.Errorf("%w: at most %d", ErrTooManyRows, p.maxRows)
		}
	}
	if len(rows) == 0 && !errs.HasErrors() {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// TotalRows returns the number of non-blank data rows seen by ReadAllRows,
// malformed ones included
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}
