package ethconnector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/near/borsh-go"
)

// Encoding selects the wire encoding of an operation's arguments and result.
// It is a closed set: Structured or Binary.
type Encoding uint8

const (
	// Structured is the self-describing JSON object encoding.
	Structured Encoding = iota + 1

	// Binary is the compact positional encoding (Borsh layout).
	Binary
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case Structured:
		return "structured"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// Binary layout constants.
const (
	// AddressLength is the size of an Ethereum address.
	AddressLength = common.AddressLength

	// U128Size is the size of a binary-encoded amount.
	U128Size = 16
)

// BinaryMarshaler is implemented by values with a Binary encoding.
type BinaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

// BinaryUnmarshaler is implemented by values decodable from the Binary encoding.
// UnmarshalBinary must consume every byte of data.
type BinaryUnmarshaler interface {
	UnmarshalBinary(data []byte) error
}

// encodeArgs encodes operation arguments with the descriptor's encoding.
// A nil args value produces an empty payload.
func encodeArgs(d Descriptor, args any) ([]byte, error) {
	if args == nil {
		return []byte{}, nil
	}

	data, err := marshalArgs(d.Encoding, args)
	if err != nil {
		return nil, &EncodingError{Method: d.Method, Encoding: d.Encoding, Value: args, Err: err}
	}
	return data, nil
}

func marshalArgs(enc Encoding, args any) ([]byte, error) {
	if err := validateStrings(reflect.ValueOf(args)); err != nil {
		return nil, err
	}
	switch enc {
	case Structured:
		return json.Marshal(args)
	case Binary:
		m, ok := args.(BinaryMarshaler)
		if !ok {
			return nil, ErrUnsupportedValue
		}
		return m.MarshalBinary()
	default:
		return nil, ErrUnsupportedValue
	}
}

// validateStrings rejects any string reachable from v that is not valid UTF-8.
func validateStrings(v reflect.Value) error {
	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("%w: %q", ErrInvalidString, v.String())
		}
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			return validateStrings(v.Elem())
		}
	case reflect.Struct:
		for i := range v.NumField() {
			if err := validateStrings(v.Field(i)); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() <= reflect.Complex128 {
			return nil
		}
		for i := range v.Len() {
			if err := validateStrings(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := validateStrings(iter.Key()); err != nil {
				return err
			}
			if err := validateStrings(iter.Value()); err != nil {
				return err
			}
		}
	}
	return nil
}

// marshalBorsh serializes a wire value with borsh after checking its strings.
func marshalBorsh(v any) ([]byte, error) {
	if err := validateStrings(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	data, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return data, nil
}

// unmarshalBorsh deserializes data into v and requires data to be exactly
// the canonical encoding of the decoded value: no trailing bytes and no
// bool or option tag other than 0 and 1.
func unmarshalBorsh[T any](data []byte, v *T) error {
	if err := borsh.Deserialize(v, data); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	canonical, err := borsh.Serialize(*v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	switch {
	case bytes.Equal(canonical, data):
	case len(canonical) < len(data) && bytes.HasPrefix(data, canonical):
		return ErrTrailingBytes
	default:
		return ErrNonCanonical
	}
	return validateStrings(reflect.ValueOf(v))
}

// fixedSize checks the length of a fixed-layout binary value before decoding.
func fixedSize(data []byte, n int) error {
	switch {
	case len(data) < n:
		return ErrTruncated
	case len(data) > n:
		return ErrTrailingBytes
	}
	return nil
}
