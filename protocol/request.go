package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/pior/trapper/internal/bufpool"
)

// Measurement is one value reported for a host item.
// Field order matches the wire order of the JSON object.
type Measurement struct {
	Host  string `json:"host"`
	Key   string `json:"key"`
	Value string `json:"value"`
	Clock int64  `json:"clock"`
}

// Request is a sender data request.
// This is a plain container; Encode produces the wire frame.
type Request struct {
	Request string        `json:"request"`
	Data    []Measurement `json:"data"`
}

// NewRequest returns a sender data request carrying items in order.
func NewRequest(items ...Measurement) *Request {
	if items == nil {
		items = []Measurement{}
	}
	return &Request{
		Request: RequestSenderData,
		Data:    items,
	}
}

// Typical request body is a few hundred bytes
var bodyPool = bufpool.New(512)

// Encode builds the frame for a sender data request carrying items.
func Encode(items []Measurement) []byte {
	return EncodeRequest(NewRequest(items...))
}

// EncodeRequest serializes req to wire format:
//
//	"ZBXD" 0x01 <u32le body length> <u32le 0> <JSON body>
//
// The length is the byte length of the UTF-8 body, not its character count.
// HTML escaping is disabled so values reach the collector verbatim.
func EncodeRequest(req *Request) []byte {
	buf := bodyPool.Get()
	defer bodyPool.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Request only holds strings and integers, encoding cannot fail
	_ = enc.Encode(req)

	body := buf.Bytes()
	// json.Encoder terminates every value with a newline
	if n := len(body); n > 0 && body[n-1] == '\n' {
		body = body[:n-1]
	}

	return appendFrame(make([]byte, 0, HeaderSize+len(body)), body)
}

// Frame wraps an already serialized JSON body in a frame header.
func Frame(body []byte) []byte {
	return appendFrame(make([]byte, 0, HeaderSize+len(body)), body)
}

// appendFrame appends the header for body followed by body itself.
func appendFrame(dst, body []byte) []byte {
	dst = append(dst, Magic...)
	dst = append(dst, Version)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(body)))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(uint64(len(body))>>32))
	return append(dst, body...)
}

// DecodeRequest parses a sender data request as received by a collector.
// Frames and bare JSON bodies are both accepted.
func DecodeRequest(buf []byte) (*Request, error) {
	body, err := frameBody(buf)
	if err != nil {
		return nil, err
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("invalid request body: %v", err)}
	}

	if req.Request != RequestSenderData {
		return nil, &ProtocolError{Message: fmt.Sprintf("unsupported request %q", req.Request)}
	}

	return &req, nil
}
