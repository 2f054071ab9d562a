package ethconnector

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
)

var jsonNull = []byte("null")

// decodeResult decodes a raw response into R using the descriptor's encoding.
//
// Unit results accept only an empty payload (or null for Structured).
// Structured results must be exactly one JSON value, and null only decodes
// into pointer types. Binary results must be a single 0/1 byte for bool, or
// a BinaryUnmarshaler consuming every byte.
func decodeResult[R any](d Descriptor, data []byte) (R, error) {
	var out R

	if _, ok := any(out).(Unit); ok {
		if len(data) == 0 {
			return out, nil
		}
		if d.Encoding == Structured && isNull(data) {
			return out, nil
		}
		return out, newDecodingError(d, data, ErrUnexpectedPayload)
	}

	var err error
	switch d.Encoding {
	case Structured:
		if isNull(data) && reflect.TypeFor[R]().Kind() != reflect.Pointer {
			err = ErrNullResult
			break
		}
		err = decodeStructured(data, &out)
	case Binary:
		err = decodeBinary(data, &out)
	default:
		err = ErrUnsupportedValue
	}
	if err != nil {
		var zero R
		return zero, newDecodingError(d, data, err)
	}
	return out, nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), jsonNull)
}

// decodeStructured unmarshals exactly one JSON value into v.
// Unknown object fields are ignored so newer contract versions stay readable.
func decodeStructured(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrTruncated
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingBytes
	}
	return nil
}

// decodeBinary decodes data into v, which must point to a bool or a BinaryUnmarshaler.
func decodeBinary(data []byte, v any) error {
	switch p := v.(type) {
	case *bool:
		if err := fixedSize(data, 1); err != nil {
			return err
		}
		switch data[0] {
		case 0:
			*p = false
		case 1:
			*p = true
		default:
			return ErrInvalidBool
		}
		return nil
	case BinaryUnmarshaler:
		return p.UnmarshalBinary(data)
	default:
		return ErrUnsupportedValue
	}
}
