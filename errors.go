package trapper

import (
	"errors"
	"fmt"

	"github.com/pior/trapper/protocol"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrRejected is the attempt error when the collector answered without "success".
	ErrRejected = errors.New("trapper: collector did not accept the data")

	// ErrIndeterminate is the attempt error when the reply was empty or not JSON.
	ErrIndeterminate = errors.New("trapper: indeterminate response")

	// ErrEmptyBuffer is reported by BulkSend when there is nothing to flush.
	ErrEmptyBuffer = errors.New("trapper: bulk buffer is empty")

	// ErrSenderClosed is returned by sends on a Sender after Close.
	ErrSenderClosed = errors.New("trapper: sender closed")
)

// ValidationError is returned for malformed measurements or bulk entries.
// It is the only error that aborts a send before any network activity; the
// bulk buffer is left untouched.
type ValidationError struct {
	Index  int // Position of the offending entry within the call
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("trapper: invalid entry %d: %s", e.Index, e.Reason)
}

// attemptOutcome classifies one pass of the send loop.
type attemptOutcome int

const (
	outcomeAccepted attemptOutcome = iota
	outcomeRejected
	outcomeIndeterminate
	outcomeConnectError
	outcomeIOError
	outcomeProtocolError
	outcomeBreakerOpen
	outcomeOther
)

func (o attemptOutcome) String() string {
	switch o {
	case outcomeAccepted:
		return "accepted"
	case outcomeRejected:
		return "rejected"
	case outcomeIndeterminate:
		return "indeterminate"
	case outcomeConnectError:
		return "connect_error"
	case outcomeIOError:
		return "io_error"
	case outcomeProtocolError:
		return "protocol_error"
	case outcomeBreakerOpen:
		return "breaker_open"
	default:
		return "error"
	}
}

// classifyAttempt maps an attempt result to its outcome and the error kept in Result.Err.
func classifyAttempt(resp *protocol.Response, err error) (attemptOutcome, error) {
	if err != nil {
		var (
			connectErr  *protocol.ConnectError
			connErr     *protocol.ConnectionError
			protocolErr *protocol.ProtocolError
		)
		switch {
		case errors.As(err, &connectErr):
			return outcomeConnectError, err
		case errors.As(err, &connErr):
			return outcomeIOError, err
		case errors.As(err, &protocolErr):
			return outcomeProtocolError, err
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return outcomeBreakerOpen, err
		default:
			return outcomeOther, err
		}
	}

	switch {
	case resp.IsSuccess():
		return outcomeAccepted, nil
	case resp.IsIndeterminate():
		return outcomeIndeterminate, ErrIndeterminate
	default:
		return outcomeRejected, ErrRejected
	}
}
