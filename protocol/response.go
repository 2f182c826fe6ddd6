package protocol

import (
	"bytes"
	"encoding/json"
)

// Response is a decoded collector reply.
// The core only classifies it; Fields and Body are passed through untouched
// for callers that want the processed/failed counts.
type Response struct {
	Status StatusType

	// Info is the "info" string when the collector sent one.
	Info string

	// Fields is the parsed JSON object, nil when Status is StatusIndeterminate.
	Fields map[string]any

	// Body is the raw JSON body without the frame header.
	Body []byte
}

// IsSuccess returns true if the collector accepted the request.
func (r *Response) IsSuccess() bool {
	return r != nil && r.Status == StatusSuccess
}

// IsIndeterminate returns true if the reply was empty or not a JSON object.
func (r *Response) IsIndeterminate() bool {
	return r == nil || r.Status == StatusIndeterminate
}

// Unmarshal decodes the raw body into v.
func (r *Response) Unmarshal(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Decode classifies a collector reply.
//
// A buffer starting with the magic must carry a complete header, otherwise a
// *ProtocolError is returned. A buffer without the magic is taken as a bare
// JSON body for peers that omit the header.
//
// An empty or undecodable body is not an error: it yields StatusIndeterminate.
func Decode(buf []byte) (*Response, error) {
	body, err := frameBody(buf)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Status: StatusIndeterminate,
		Body:   body,
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return resp, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return resp, nil
	}

	resp.Fields = fields
	if info, ok := fields[FieldInfo].(string); ok {
		resp.Info = info
	}

	if fields[FieldResponse] == ResponseSuccess {
		resp.Status = StatusSuccess
	} else {
		resp.Status = StatusFailure
	}

	return resp, nil
}

// frameBody strips the header from a framed buffer.
// Anything not starting with the magic is returned unchanged.
func frameBody(buf []byte) ([]byte, error) {
	if !hasMagic(buf) {
		return buf, nil
	}

	if len(buf) <= HeaderSize-1 {
		return nil, &ProtocolError{Message: "truncated frame header"}
	}

	return buf[HeaderSize:], nil
}

func hasMagic(buf []byte) bool {
	return len(buf) >= len(Magic) && string(buf[:len(Magic)]) == Magic
}
