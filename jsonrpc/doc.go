// Package jsonrpc implements ethconnector.Transport over a NEAR-compatible
// JSON-RPC endpoint.
//
// Views are sent as "query" requests of type call_function. Calls are signed
// by a caller-supplied Signer and broadcast with "broadcast_tx_commit"; the
// decoded SuccessValue of the final outcome is returned as the result bytes.
//
// # Usage
//
//	cfg, err := jsonrpc.LoadConfig("connector.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := jsonrpc.New(cfg,
//	    jsonrpc.WithLogger(logger),
//	    jsonrpc.WithSigner(signer),
//	    jsonrpc.WithRegisterer(prometheus.DefaultRegisterer),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	connector := ethconnector.NewContract("aurora-eth-connector.near")
//	supply, err := ethconnector.Must(connector.FtTotalSupply()).Send(ctx, client)
//
// # Retries
//
// Network errors and HTTP 5xx responses are retried with exponential backoff
// up to Config.MaxRetries times. JSON-RPC errors, contract panics and
// transaction failures are returned immediately.
//
// # Configuration
//
// Config can be loaded from YAML:
//
//	endpoint: https://rpc.mainnet.near.org
//	timeout: 30s
//	max_retries: 3
//	rate_limit: 10   # requests per second, 0 disables limiting
//	burst: 5
//	finality: final  # or optimistic
package jsonrpc
