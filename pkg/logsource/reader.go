// Package logsource supplies log lines, without their line terminator, from
// a reader or from a file that is still being written.
package logsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Reader yields the lines of an io.Reader. Lines may be of any length.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine returns the next line. ok is false once the input is exhausted
// or ctx is done.
func (r *Reader) ReadLine(ctx context.Context) (line string, ok bool, err error) {
	if ctx.Err() != nil {
		return "", false, nil
	}

	line, err = r.r.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", false, nil
		}
		return cleanLine(line), true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read line: %w", err)
	}
	return cleanLine(line), true, nil
}

// File is a Reader over an opened log file.
type File struct {
	*Reader
	f *os.File
}

// Open opens a log file for reading from the start.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &File{Reader: NewReader(f), f: f}, nil
}

func (f *File) Close() error {
	return f.f.Close()
}

// cleanLine strips the line terminator and converts the line to UTF-8.
// Servers write player names in Latin-1, so a line that is not valid UTF-8
// is decoded as ISO 8859-1.
func cleanLine(raw string) string {
	line := trimNewline(raw)
	if utf8.ValidString(line) {
		return line
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(line)
	if err != nil {
		return strings.ToValidUTF8(line, string(utf8.RuneError))
	}
	return decoded
}

func trimNewline(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
