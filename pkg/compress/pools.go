// pkg/compress/pools.go
package compress

import "sync"

// maxPooledBuffer keeps oversized buffers from pinning memory after a run
const maxPooledBuffer = 64 * 1024 * 1024

var (
	// outputBufferPool provides destination buffers for winning chunk output
	outputBufferPool = sync.Pool{
		New: func() any {
			buf := make([]byte, 0, 64*1024)
			return &buf
		},
	}
)

// getOutputBuffer returns an empty buffer from the pool
func getOutputBuffer() *[]byte {
	bufPtr := outputBufferPool.Get().(*[]byte)
	*bufPtr = (*bufPtr)[:0]
	return bufPtr
}

// putOutputBuffer returns a buffer to the pool
func putOutputBuffer(bufPtr *[]byte) {
	if bufPtr == nil || cap(*bufPtr) > maxPooledBuffer {
		return
	}
	outputBufferPool.Put(bufPtr)
}
