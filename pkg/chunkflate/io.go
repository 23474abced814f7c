// pkg/chunkflate/io.go
package chunkflate

import "io"

// ProgressReader wraps an io.Reader with progress tracking
type ProgressReader struct {
	Reader io.Reader
	OnRead func(n int)
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	if n > 0 && pr.OnRead != nil {
		pr.OnRead(n)
	}
	return n, err
}

// CountingWriter wraps an io.Writer and counts bytes written
type CountingWriter struct {
	Writer io.Writer
	Count  uint64
}

func (cw *CountingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.Writer.Write(p)
	cw.Count += uint64(n)
	return n, err
}

// DiscardCounter counts bytes written while discarding the data
type DiscardCounter struct {
	Count uint64
}

func (dc *DiscardCounter) Write(p []byte) (int, error) {
	dc.Count += uint64(len(p))
	return len(p), nil
}
