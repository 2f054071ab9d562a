// Package ethconnector provides a typed Go client for the eth-connector
// fungible-token bridge contract.
//
// The package turns semantically named contract operations (transfer tokens,
// deposit storage, withdraw to Ethereum, submit a deposit proof, ...) into
// fully encoded, inert request values. Each request knows its target account,
// method name, wire encoding and the Go type its response decodes into.
// Nothing touches the network until a request is handed to a Transport.
//
// # Basic Usage
//
//	connector := ethconnector.NewContract("aurora-eth-connector.near")
//
//	req, err := connector.FtTransfer("alice.near", ethconnector.NewAmount(100), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Inspect before sending
//	fmt.Println(req.Method(), req.Encoding(), string(req.Args()))
//
//	// Submit through any Transport (see the jsonrpc subpackage)
//	if _, err := req.Send(ctx, transport); err != nil {
//	    log.Fatal(err)
//	}
//
// # Encodings
//
// Every operation uses exactly one of two encodings, fixed by its Descriptor:
//
//   - Structured: a JSON object with named fields. Optional fields are always
//     present and encode absence as null. 128-bit amounts are decimal strings.
//
//   - Binary: a compact, positional, Borsh-compatible layout used for
//     withdrawals, deposit proofs, migration data and the paused-flags mask.
//
// The response of an operation is decoded with the same encoding its request
// used. Callers never choose an encoding.
//
// # Engine-scoped Operations
//
// Operations prefixed with engine_ are executed on behalf of a sender by a
// registered engine account. They take the same arguments as their base
// operation plus a leading sender id.
//
// # Batches
//
// A Batch collects requests and submits them together: calls in insertion
// order, views concurrently with identical views submitted only once.
//
// # Errors
//
// Failures are reported as *EncodingError (arguments could not be encoded,
// before any I/O), *TransportError (the transport failed, passed through
// untouched) or *DecodingError (the response did not match the expected
// result shape). The package never retries.
package ethconnector
