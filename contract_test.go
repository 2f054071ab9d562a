package ethconnector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const connectorID AccountID = "aurora-eth-connector.near"

var (
	recipientAddr = common.HexToAddress("0x891B2749238B27fF58e951088e55b04de71Dc374")
	custodianAddr = "0x6BFaD42cFC4EfC96f529D786D643Ff4A8B89FA52"
)

func testMetadata() FungibleTokenMetadata {
	return FungibleTokenMetadata{
		Spec:     "ft-1.0.0",
		Name:     "Ether",
		Symbol:   "ETH",
		Decimals: 18,
	}
}

func testProof() Proof {
	return Proof{
		LogIndex:     3,
		LogEntryData: []byte{0xf8, 0x9b},
		ReceiptIndex: 1,
		ReceiptData:  []byte{0x02, 0xf9},
		HeaderData:   []byte{0xf9, 0x02, 0x11},
		Proof:        [][]byte{{0xaa, 0xbb}},
	}
}

func TestNewContract(t *testing.T) {
	c := NewContract(connectorID)
	if c.ID() != connectorID {
		t.Errorf("Expected %s, got %s", connectorID, c.ID())
	}

	req := Must(c.FtTransfer("alice", NewAmount(1), nil))
	if req.Gas() != DefaultGas {
		t.Errorf("Expected default gas %d, got %d", DefaultGas, req.Gas())
	}

	c = NewContract(connectorID, WithDefaultGas(10), WithLogger(nil))
	req = Must(c.FtTransfer("alice", NewAmount(1), nil))
	if req.Gas() != 10 {
		t.Errorf("Expected gas 10, got %d", req.Gas())
	}
}

func TestCatalog(t *testing.T) {
	ops := Catalog()

	var calls, views int
	seen := make(map[string]bool)
	for _, d := range ops {
		if seen[d.Method] {
			t.Errorf("Duplicate method %s", d.Method)
		}
		seen[d.Method] = true

		switch d.Kind {
		case KindCall:
			calls++
		case KindView:
			views++
			if d.OneYocto {
				t.Errorf("View %s must not require a deposit", d.Method)
			}
		default:
			t.Errorf("Method %s has no kind", d.Method)
		}
		if d.Encoding != Structured && d.Encoding != Binary {
			t.Errorf("Method %s has no encoding", d.Method)
		}
	}

	if calls != 19 {
		t.Errorf("Expected 19 calls, got %d", calls)
	}
	if views != 12 {
		t.Errorf("Expected 12 views, got %d", views)
	}

	ops[0].Method = "mutated"
	if Catalog()[0].Method != "new" {
		t.Error("Catalog should return a copy")
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		method   string
		kind     Kind
		encoding Encoding
		oneYocto bool
	}{
		{"new", KindCall, Structured, false},
		{"ft_transfer", KindCall, Structured, true},
		{"engine_ft_transfer_call", KindCall, Structured, true},
		{"storage_deposit", KindCall, Structured, false},
		{"set_paused_flags", KindCall, Binary, false},
		{"withdraw", KindCall, Binary, true},
		{"engine_withdraw", KindCall, Binary, true},
		{"deposit", KindCall, Binary, false},
		{"migrate", KindCall, Binary, false},
		{"check_migration_correctness", KindView, Binary, false},
		{"is_used_proof", KindView, Binary, false},
		{"get_paused_flags", KindView, Structured, false},
		{"ft_balance_of", KindView, Structured, false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			d, ok := Lookup(tt.method)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.method)
			}
			if d.Kind != tt.kind || d.Encoding != tt.encoding || d.OneYocto != tt.oneYocto {
				t.Errorf("Unexpected descriptor %+v", d)
			}
			if d.Mutates() != (tt.kind == KindCall) {
				t.Errorf("Mutates() = %v for %s", d.Mutates(), tt.kind)
			}
		})
	}

	if _, ok := Lookup("ft_mint"); ok {
		t.Error("Lookup should not find unknown methods")
	}
}

// builtRequest is the kind-independent view of a request used by table tests.
type builtRequest interface {
	Method() string
	Kind() Kind
	Encoding() Encoding
	Target() AccountID
}

func TestEveryOperationBuilds(t *testing.T) {
	c := NewContract(connectorID)
	addr := recipientAddr.Bytes()

	tests := []struct {
		name  string
		build func() (builtRequest, error)
	}{
		{"new", func() (builtRequest, error) {
			return c.Init("prover.near", custodianAddr, testMetadata(), "admin.near", "owner.near")
		}},
		{"ft_transfer", func() (builtRequest, error) { return c.FtTransfer("bob", NewAmount(1), nil) }},
		{"ft_transfer_call", func() (builtRequest, error) { return c.FtTransferCall("bob", NewAmount(1), nil, "msg") }},
		{"engine_ft_transfer", func() (builtRequest, error) { return c.EngineFtTransfer("alice", "bob", NewAmount(1), nil) }},
		{"engine_ft_transfer_call", func() (builtRequest, error) {
			return c.EngineFtTransferCall("alice", "bob", NewAmount(1), nil, "msg")
		}},
		{"set_engine_account", func() (builtRequest, error) { return c.SetEngineAccount("aurora") }},
		{"remove_engine_account", func() (builtRequest, error) { return c.RemoveEngineAccount("aurora") }},
		{"storage_deposit", func() (builtRequest, error) { return c.StorageDeposit(nil, nil) }},
		{"storage_withdraw", func() (builtRequest, error) { return c.StorageWithdraw(nil) }},
		{"storage_unregister", func() (builtRequest, error) { return c.StorageUnregister(nil) }},
		{"engine_storage_deposit", func() (builtRequest, error) { return c.EngineStorageDeposit("alice", nil, nil) }},
		{"engine_storage_withdraw", func() (builtRequest, error) { return c.EngineStorageWithdraw("alice", nil) }},
		{"engine_storage_unregister", func() (builtRequest, error) { return c.EngineStorageUnregister("alice", nil) }},
		{"set_paused_flags", func() (builtRequest, error) { return c.SetPausedFlags(PauseDeposit) }},
		{"set_access_right", func() (builtRequest, error) { return c.SetAccessRight("admin.near") }},
		{"withdraw", func() (builtRequest, error) { return c.Withdraw(addr, NewAmount(1)) }},
		{"engine_withdraw", func() (builtRequest, error) { return c.EngineWithdraw("alice", addr, NewAmount(1)) }},
		{"deposit", func() (builtRequest, error) { return c.Deposit(testProof()) }},
		{"migrate", func() (builtRequest, error) { return c.Migrate(MigrationInputData{}) }},
		{"get_bridge_prover", func() (builtRequest, error) { return c.GetBridgeProver() }},
		{"check_migration_correctness", func() (builtRequest, error) {
			return c.CheckMigrationCorrectness(MigrationInputData{})
		}},
		{"ft_metadata", func() (builtRequest, error) { return c.FtMetadata() }},
		{"get_paused_flags", func() (builtRequest, error) { return c.GetPausedFlags() }},
		{"get_account_with_access_right", func() (builtRequest, error) { return c.GetAccountWithAccessRight() }},
		{"is_owner", func() (builtRequest, error) { return c.IsOwner() }},
		{"is_used_proof", func() (builtRequest, error) { return c.IsUsedProof(testProof()) }},
		{"storage_balance_of", func() (builtRequest, error) { return c.StorageBalanceOf("alice") }},
		{"storage_balance_bounds", func() (builtRequest, error) { return c.StorageBalanceBounds() }},
		{"is_engine_account_exist", func() (builtRequest, error) { return c.IsEngineAccountExist("aurora") }},
		{"ft_total_supply", func() (builtRequest, error) { return c.FtTotalSupply() }},
		{"ft_balance_of", func() (builtRequest, error) { return c.FtBalanceOf("alice") }},
	}

	if len(tests) != len(Catalog()) {
		t.Fatalf("Expected a case per catalog entry: %d cases, %d operations", len(tests), len(Catalog()))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.build()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			d, ok := Lookup(tt.name)
			if !ok {
				t.Fatalf("No descriptor for %s", tt.name)
			}
			if req.Method() != d.Method || req.Kind() != d.Kind || req.Encoding() != d.Encoding {
				t.Errorf("Request does not match descriptor %+v", d)
			}
			if req.Target() != connectorID {
				t.Errorf("Expected target %s, got %s", connectorID, req.Target())
			}
		})
	}
}

func TestStructuredArgs(t *testing.T) {
	c := NewContract(connectorID)

	tests := []struct {
		name string
		args func() ([]byte, error)
		want string
	}{
		{
			name: "ft_transfer without memo",
			args: argsOf(c.FtTransfer("alice", NewAmount(100), nil)),
			want: `{"receiver_id":"alice","amount":"100","memo":null}`,
		},
		{
			name: "ft_transfer with memo",
			args: argsOf(c.FtTransfer("alice", NewAmount(100), Ptr("rent"))),
			want: `{"receiver_id":"alice","amount":"100","memo":"rent"}`,
		},
		{
			name: "ft_transfer_call",
			args: argsOf(c.FtTransferCall("aurora", MustParseAmount("10000000000000000000"), nil, "relayer:fee")),
			want: `{"receiver_id":"aurora","amount":"10000000000000000000","memo":null,"msg":"relayer:fee"}`,
		},
		{
			name: "engine_ft_transfer",
			args: argsOf(c.EngineFtTransfer("alice", "bob", NewAmount(5), nil)),
			want: `{"sender_id":"alice","receiver_id":"bob","amount":"5","memo":null}`,
		},
		{
			name: "engine_ft_transfer_call",
			args: argsOf(c.EngineFtTransferCall("alice", "bob", NewAmount(5), Ptr("m"), "")),
			want: `{"sender_id":"alice","receiver_id":"bob","amount":"5","memo":"m","msg":""}`,
		},
		{
			name: "storage_deposit all absent",
			args: argsOf(c.StorageDeposit(nil, nil)),
			want: `{"account_id":null,"registration_only":null}`,
		},
		{
			name: "storage_deposit all present",
			args: argsOf(c.StorageDeposit(Ptr[AccountID]("bob"), Ptr(true))),
			want: `{"account_id":"bob","registration_only":true}`,
		},
		{
			name: "storage_withdraw",
			args: argsOf(c.StorageWithdraw(Ptr(NewAmount(9)))),
			want: `{"amount":"9"}`,
		},
		{
			name: "storage_unregister",
			args: argsOf(c.StorageUnregister(nil)),
			want: `{"force":null}`,
		},
		{
			name: "engine_storage_deposit",
			args: argsOf(c.EngineStorageDeposit("alice", nil, Ptr(false))),
			want: `{"sender_id":"alice","account_id":null,"registration_only":false}`,
		},
		{
			name: "engine_storage_withdraw",
			args: argsOf(c.EngineStorageWithdraw("alice", nil)),
			want: `{"sender_id":"alice","amount":null}`,
		},
		{
			name: "engine_storage_unregister",
			args: argsOf(c.EngineStorageUnregister("alice", Ptr(true))),
			want: `{"sender_id":"alice","force":true}`,
		},
		{
			name: "set_engine_account",
			args: argsOf(c.SetEngineAccount("aurora")),
			want: `{"engine_account":"aurora"}`,
		},
		{
			name: "is_engine_account_exist",
			args: argsOf(c.IsEngineAccountExist("aurora")),
			want: `{"engine_account":"aurora"}`,
		},
		{
			name: "set_access_right",
			args: argsOf(c.SetAccessRight("admin.near")),
			want: `{"account":"admin.near"}`,
		},
		{
			name: "ft_balance_of",
			args: argsOf(c.FtBalanceOf("alice")),
			want: `{"account_id":"alice"}`,
		},
		{
			name: "storage_balance_of",
			args: argsOf(c.StorageBalanceOf("alice")),
			want: `{"account_id":"alice"}`,
		},
		{
			name: "new",
			args: argsOf(c.Init("prover.near", custodianAddr, testMetadata(), "admin.near", "owner.near")),
			want: `{"prover_account":"prover.near","eth_custodian_address":"` + custodianAddr + `",` +
				`"metadata":{"spec":"ft-1.0.0","name":"Ether","symbol":"ETH","icon":null,"reference":null,"reference_hash":null,"decimals":18},` +
				`"account_with_access_right":"admin.near","owner_id":"owner.near"}`,
		},
		{
			name: "view without arguments",
			args: argsOf(c.FtTotalSupply()),
			want: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.args()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// argsOf defers the error of a request constructor to the test body.
func argsOf[R any](req *Request[R], err error) func() ([]byte, error) {
	return func() ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return req.Args(), nil
	}
}

func TestWithdrawBinaryArgs(t *testing.T) {
	c := NewContract(connectorID)
	amount := MustParseAmount("1000000000000000000")

	req, err := c.Withdraw(recipientAddr.Bytes(), amount)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	args := req.Args()
	if len(args) != AddressLength+U128Size {
		t.Fatalf("Expected %d bytes, got %d", AddressLength+U128Size, len(args))
	}
	if !bytes.Equal(args[:AddressLength], recipientAddr.Bytes()) {
		t.Errorf("Expected recipient first, got %x", args[:AddressLength])
	}

	lo := binary.LittleEndian.Uint64(args[AddressLength : AddressLength+8])
	hi := binary.LittleEndian.Uint64(args[AddressLength+8:])
	if lo != 1_000_000_000_000_000_000 || hi != 0 {
		t.Errorf("Unexpected amount bytes %x", args[AddressLength:])
	}

	if req.Deposit().String() != "1" {
		t.Errorf("Expected 1 yocto deposit, got %s", req.Deposit())
	}
}

func TestEngineWithdrawBinaryArgs(t *testing.T) {
	c := NewContract(connectorID)

	req, err := c.EngineWithdraw("alice", recipientAddr.Bytes(), NewAmount(1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	args := req.Args()
	sender := []byte{0x05, 0x00, 0x00, 0x00, 'a', 'l', 'i', 'c', 'e'}
	if !bytes.HasPrefix(args, sender) {
		t.Errorf("Expected sender prefix, got %x", args)
	}
	if len(args) != len(sender)+AddressLength+U128Size {
		t.Errorf("Unexpected length %d", len(args))
	}
}

func TestWithdrawRejectsBadAddress(t *testing.T) {
	c := NewContract(connectorID)

	for _, n := range []int{0, 19, 21, 32} {
		_, err := c.Withdraw(make([]byte, n), NewAmount(1))

		var encErr *EncodingError
		if !errors.As(err, &encErr) {
			t.Fatalf("%d bytes: expected *EncodingError, got %v", n, err)
		}
		if !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("%d bytes: expected ErrInvalidAddress, got %v", n, err)
		}
		if encErr.Method != "withdraw" || encErr.Encoding != Binary {
			t.Errorf("%d bytes: unexpected error fields %+v", n, encErr)
		}
	}

	if _, err := c.EngineWithdraw("alice", make([]byte, 19), NewAmount(1)); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("engine_withdraw: expected ErrInvalidAddress, got %v", err)
	}
}

func TestBinaryArgs(t *testing.T) {
	c := NewContract(connectorID)

	t.Run("set_paused_flags", func(t *testing.T) {
		req := Must(c.SetPausedFlags(PauseDeposit | PauseWithdraw))
		if !bytes.Equal(req.Args(), []byte{0x03}) {
			t.Errorf("Expected 0x03, got %x", req.Args())
		}
	})

	t.Run("is_used_proof matches deposit", func(t *testing.T) {
		deposit := Must(c.Deposit(testProof()))
		used := Must(c.IsUsedProof(testProof()))
		if !bytes.Equal(deposit.Args(), used.Args()) {
			t.Error("is_used_proof and deposit should encode the proof identically")
		}

		want, err := testProof().MarshalBinary()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !bytes.Equal(used.Args(), want) {
			t.Errorf("Expected %x, got %x", want, used.Args())
		}
	})

	t.Run("migrate matches check_migration_correctness", func(t *testing.T) {
		data := MigrationInputData{
			Accounts:   map[AccountID]Amount{"a": NewAmount(1), "b": NewAmount(2)},
			UsedProofs: []string{"p"},
		}
		migrate := Must(c.Migrate(data))
		check := Must(c.CheckMigrationCorrectness(data))
		if !bytes.Equal(migrate.Args(), check.Args()) {
			t.Error("migrate and check_migration_correctness should share an encoding")
		}
	})
}

func TestDeterministicEncoding(t *testing.T) {
	c := NewContract(connectorID)
	data := MigrationInputData{
		Accounts: map[AccountID]Amount{
			"z.near": NewAmount(1),
			"a.near": NewAmount(2),
			"m.near": NewAmount(3),
		},
	}

	first := Must(c.Migrate(data)).Args()
	for i := 0; i < 10; i++ {
		if got := Must(c.Migrate(data)).Args(); !bytes.Equal(got, first) {
			t.Fatalf("Encoding changed between builds: %x vs %x", got, first)
		}
	}

	a := Must(c.FtTransfer("bob", NewAmount(3), Ptr("x"))).Args()
	b := Must(c.FtTransfer("bob", NewAmount(3), Ptr("x"))).Args()
	if !bytes.Equal(a, b) {
		t.Error("Identical transfers should encode identically")
	}
}

func TestOneYoctoDeposit(t *testing.T) {
	c := NewContract(connectorID)

	transfer := Must(c.FtTransfer("bob", NewAmount(1), nil))
	if transfer.Deposit().String() != "1" {
		t.Errorf("ft_transfer: expected 1 yocto, got %s", transfer.Deposit())
	}

	unregister := Must(c.EngineStorageUnregister("alice", nil))
	if unregister.Deposit().String() != "1" {
		t.Errorf("engine_storage_unregister: expected 1 yocto, got %s", unregister.Deposit())
	}

	deposit := Must(c.StorageDeposit(nil, nil))
	if !deposit.Deposit().IsZero() {
		t.Errorf("storage_deposit: expected no default deposit, got %s", deposit.Deposit())
	}

	view := Must(c.FtBalanceOf("alice"))
	if !view.Deposit().IsZero() || view.Gas() != 0 {
		t.Errorf("views carry neither deposit nor gas, got %s / %d", view.Deposit(), view.Gas())
	}
}

func TestEmptyAccountIDRejected(t *testing.T) {
	c := NewContract(connectorID)

	tests := []struct {
		name string
		err  error
	}{
		{"ft_transfer", errOf(c.FtTransfer("", NewAmount(1), nil))},
		{"ft_transfer_call", errOf(c.FtTransferCall("", NewAmount(1), nil, ""))},
		{"engine_ft_transfer sender", errOf(c.EngineFtTransfer("", "bob", NewAmount(1), nil))},
		{"engine_ft_transfer receiver", errOf(c.EngineFtTransfer("alice", "", NewAmount(1), nil))},
		{"set_engine_account", errOf(c.SetEngineAccount(""))},
		{"engine_storage_deposit", errOf(c.EngineStorageDeposit("", nil, nil))},
		{"engine_withdraw", errOf(c.EngineWithdraw("", recipientAddr.Bytes(), NewAmount(1)))},
		{"set_access_right", errOf(c.SetAccessRight(""))},
		{"ft_balance_of", errOf(c.FtBalanceOf(""))},
		{"storage_balance_of", errOf(c.StorageBalanceOf(""))},
		{"new", errOf(c.Init("", custodianAddr, testMetadata(), "admin", "owner"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, ErrInvalidAccountID) {
				t.Errorf("Expected ErrInvalidAccountID, got %v", tt.err)
			}
			var encErr *EncodingError
			if !errors.As(tt.err, &encErr) {
				t.Errorf("Expected *EncodingError, got %T", tt.err)
			}
		})
	}
}

func TestInvalidUTF8Rejected(t *testing.T) {
	c := NewContract(connectorID)
	bad := "a\xffb"
	meta := testMetadata()
	meta.Name = bad

	tests := []struct {
		name string
		err  error
		enc  Encoding
	}{
		{"ft_transfer memo", errOf(c.FtTransfer("alice", NewAmount(1), &bad)), Structured},
		{"ft_transfer_call msg", errOf(c.FtTransferCall("alice", NewAmount(1), nil, bad)), Structured},
		{"engine_ft_transfer sender", errOf(c.EngineFtTransfer(AccountID(bad), "bob", NewAmount(1), nil)), Structured},
		{"ft_balance_of account", errOf(c.FtBalanceOf(AccountID(bad))), Structured},
		{"new metadata", errOf(c.Init("prover", custodianAddr, meta, "admin", "owner")), Structured},
		{"engine_withdraw sender", errOf(c.EngineWithdraw(AccountID(bad), recipientAddr.Bytes(), NewAmount(1))), Binary},
		{"migrate used proofs", errOf(c.Migrate(MigrationInputData{UsedProofs: []string{bad}})), Binary},
		{"migrate account", errOf(c.Migrate(MigrationInputData{Accounts: map[AccountID]Amount{AccountID(bad): NewAmount(1)}})), Binary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, ErrInvalidString) {
				t.Fatalf("Expected ErrInvalidString, got %v", tt.err)
			}
			var encErr *EncodingError
			if !errors.As(tt.err, &encErr) || encErr.Encoding != tt.enc {
				t.Errorf("Expected %s *EncodingError, got %v", tt.enc, tt.err)
			}
		})
	}
}

func errOf[R any](_ *Request[R], err error) error {
	return err
}

func TestInitRejectsBadCustodian(t *testing.T) {
	c := NewContract(connectorID)
	_, err := c.Init("prover", "0x1234", testMetadata(), "admin", "owner")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Expected ErrInvalidAddress, got %v", err)
	}
}

func TestAmountOverflowRejected(t *testing.T) {
	c := NewContract(connectorID)
	var huge Amount
	huge.v[2] = 1

	if _, err := c.FtTransfer("bob", huge, nil); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("structured: expected ErrAmountOverflow, got %v", err)
	}
	if _, err := c.Withdraw(recipientAddr.Bytes(), huge); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("binary: expected ErrAmountOverflow, got %v", err)
	}
}

func TestContractLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewContract(connectorID, WithLogger(zap.New(core)))

	Must(c.FtTotalSupply())
	_, _ = c.Withdraw(nil, NewAmount(1))

	if n := logs.FilterMessage("built request").Len(); n != 1 {
		t.Errorf("Expected 1 built request entry, got %d", n)
	}
	failed := logs.FilterMessage("encoding failed").All()
	if len(failed) != 1 {
		t.Fatalf("Expected 1 encoding failure entry, got %d", len(failed))
	}
	if failed[0].ContextMap()["method"] != "withdraw" {
		t.Errorf("Unexpected log fields %v", failed[0].ContextMap())
	}
}

func TestMustPanics(t *testing.T) {
	c := NewContract(connectorID)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected panic")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, ErrInvalidAccountID) {
			t.Errorf("Expected ErrInvalidAccountID panic, got %v", r)
		}
	}()
	Must(c.FtBalanceOf(""))
}
