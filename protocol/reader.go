package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// ReadFrame reads one collector reply from r.
//
// When the reply starts with the magic, the 13-byte header is read first and
// exactly the declared number of body bytes follow. A declared length above
// maxSize (or with a non-zero high word) is a *ProtocolError. A header cut
// short by EOF is returned as-is so that Decode reports the truncation.
//
// Replies without the magic get a single bounded read of the bytes already
// available, at most LegacyReadSize, so a peer keeping the socket open does
// not hold the call until the deadline. Fewer than four bytes followed by a
// deadline are returned as a bare body.
//
// I/O failures are returned as *ConnectionError.
func ReadFrame(r *bufio.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxResponseSize
	}

	peek, err := r.Peek(len(Magic))
	if err != nil {
		if isEOF(err) || (len(peek) > 0 && isTimeout(err)) {
			// Peer stopped before a full magic, whatever arrived is a bare body
			body := copyBytes(peek)
			_, _ = r.Discard(len(body))
			return body, nil
		}
		return nil, &ConnectionError{Op: "read", Err: err}
	}

	if string(peek) != Magic {
		return readLegacy(r), nil
	}

	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil {
		if isEOF(err) {
			return header[:n], nil
		}
		return nil, &ConnectionError{Op: "read", Err: err}
	}

	low := binary.LittleEndian.Uint32(header[5:9])
	high := binary.LittleEndian.Uint32(header[9:13])
	if high != 0 || uint64(low) > uint64(maxSize) {
		return nil, &ProtocolError{Message: fmt.Sprintf("declared length %d exceeds limit %d", uint64(high)<<32|uint64(low), maxSize)}
	}

	frame := make([]byte, HeaderSize+int(low))
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}

	return frame, nil
}

// readLegacy returns the buffered bytes, up to LegacyReadSize. Peek has
// already filled the buffer, so this never blocks.
func readLegacy(r *bufio.Reader) []byte {
	buf := make([]byte, min(LegacyReadSize, r.Buffered()))
	n, _ := r.Read(buf)
	return buf[:n]
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func copyBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
