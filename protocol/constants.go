package protocol

// StatusType is the outcome of a trapper exchange as seen by the client.
type StatusType int

const (
	// StatusIndeterminate means the response was empty or not a JSON object.
	StatusIndeterminate StatusType = iota
	// StatusSuccess means the collector replied {"response":"success"}.
	StatusSuccess
	// StatusFailure means the collector replied with any other response value.
	StatusFailure
)

func (s StatusType) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "indeterminate"
	}
}

// Frame header layout
//
//	offset 0:  "ZBXD"            magic
//	offset 4:  0x01              protocol version
//	offset 5:  length_low  u32le JSON body byte length
//	offset 9:  length_high u32le always 0
//	offset 13: JSON body
const (
	Magic = "ZBXD"

	Version byte = 0x01

	// HeaderSize is magic + version + two little-endian uint32 length words.
	HeaderSize = len(Magic) + 1 + 4 + 4

	// LegacyReadSize bounds the single read used for replies without a header.
	LegacyReadSize = 1024

	// DefaultMaxResponseSize caps the declared length accepted from a peer.
	DefaultMaxResponseSize = 16 << 20
)

// Request and response JSON vocabulary
const (
	RequestSenderData = "sender data"

	ResponseSuccess = "success"
	ResponseFailed  = "failed"

	FieldRequest  = "request"
	FieldResponse = "response"
	FieldInfo     = "info"
	FieldData     = "data"
)
