package ethconnector

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Sentinel errors for common failure conditions.
var (
	// ErrAmountOverflow indicates an amount does not fit in 128 bits.
	ErrAmountOverflow = errors.New("ethconnector: amount exceeds 128 bits")

	// ErrInvalidAmount indicates an amount could not be parsed.
	ErrInvalidAmount = errors.New("ethconnector: invalid amount")

	// ErrInvalidAddress indicates an Ethereum address is not exactly 20 bytes.
	ErrInvalidAddress = errors.New("ethconnector: address must be exactly 20 bytes")

	// ErrInvalidAccountID indicates a required account id is empty.
	ErrInvalidAccountID = errors.New("ethconnector: account id must not be empty")

	// ErrUnsupportedValue indicates a value has no representation in the requested encoding.
	ErrUnsupportedValue = errors.New("ethconnector: value has no representation in this encoding")

	// ErrTruncated indicates binary data ended before the value was complete.
	ErrTruncated = errors.New("ethconnector: unexpected end of data")

	// ErrTrailingBytes indicates data remained after the value was decoded.
	ErrTrailingBytes = errors.New("ethconnector: trailing bytes after value")

	// ErrInvalidBool indicates a binary boolean that is neither 0 nor 1.
	ErrInvalidBool = errors.New("ethconnector: invalid boolean byte")

	// ErrNonCanonical indicates binary data that decodes but is not the canonical
	// encoding of the value, such as an option tag other than 0 or 1.
	ErrNonCanonical = errors.New("ethconnector: non-canonical binary encoding")

	// ErrDuplicateKey indicates a binary map listing the same key twice.
	ErrDuplicateKey = errors.New("ethconnector: duplicate map key")

	// ErrInvalidString indicates a string that is not valid UTF-8.
	ErrInvalidString = errors.New("ethconnector: string is not valid UTF-8")

	// ErrNullResult indicates a null result for a value that cannot be absent.
	ErrNullResult = errors.New("ethconnector: null result for a required value")

	// ErrMissingField indicates a structured result without a required field.
	ErrMissingField = errors.New("ethconnector: required field missing")

	// ErrUnexpectedPayload indicates an acknowledgement carried a result payload.
	ErrUnexpectedPayload = errors.New("ethconnector: unexpected payload for acknowledgement")

	// ErrDepositOnView indicates a deposit was attached to a read-only request.
	ErrDepositOnView = errors.New("ethconnector: views cannot carry a deposit")

	// ErrKindUnsupported indicates a transport cannot submit this kind of request.
	ErrKindUnsupported = errors.New("ethconnector: transport does not support this request kind")

	// ErrBatchNotSent indicates a future was read before its batch was sent.
	ErrBatchNotSent = errors.New("ethconnector: batch not sent yet")

	// ErrBatchSent indicates a batch was sent more than once.
	ErrBatchSent = errors.New("ethconnector: batch already sent")

	// ErrBatchAborted indicates a batched call was skipped after an earlier call failed.
	ErrBatchAborted = errors.New("ethconnector: batch aborted by an earlier call failure")
)

// EncodingError indicates arguments could not be encoded for a method.
// It is always returned before any I/O takes place.
type EncodingError struct {
	Method   string
	Encoding Encoding
	Value    any
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ethconnector: %s encoding of %T for %q: %v", e.Encoding, e.Value, e.Method, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure reported by the Transport.
// The wrapped error is never interpreted.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ethconnector: transport failed for %q: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodingError indicates response bytes did not match the expected result shape.
type DecodingError struct {
	Method   string
	Encoding Encoding
	Data     string // short description of the offending bytes
	Err      error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("ethconnector: %s decoding of %q result %s: %v", e.Encoding, e.Method, e.Data, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// maxDescribedBytes bounds how much of a bad payload ends up in an error message.
const maxDescribedBytes = 32

func newDecodingError(d Descriptor, data []byte, err error) *DecodingError {
	return &DecodingError{
		Method:   d.Method,
		Encoding: d.Encoding,
		Data:     describeBytes(data),
		Err:      err,
	}
}

// describeBytes renders a payload as "(<n> bytes: 0x...)", truncated for large inputs.
func describeBytes(data []byte) string {
	if len(data) == 0 {
		return "(0 bytes)"
	}
	if len(data) > maxDescribedBytes {
		return fmt.Sprintf("(%d bytes: %s...)", len(data), hexutil.Encode(data[:maxDescribedBytes]))
	}
	return fmt.Sprintf("(%d bytes: %s)", len(data), hexutil.Encode(data))
}
