package genome

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

// inputFile is an opened, possibly gzip-compressed, input file.
type inputFile struct {
	io.Reader
	file       *os.File
	gzipReader *gzip.Reader
}

// openInput opens path, transparently decompressing gzip content.
func openInput(path string) (*inputFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(file)
	in := &inputFile{file: file, Reader: br}

	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		in.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		in.Reader = in.gzipReader
	}
	return in, nil
}

// Close closes the underlying file.
func (in *inputFile) Close() error {
	if in.gzipReader != nil {
		in.gzipReader.Close()
	}
	return in.file.Close()
}
