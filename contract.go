package ethconnector

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DefaultGas is the gas attached to calls unless WithDefaultGas says otherwise (300 TGas).
const DefaultGas uint64 = 300_000_000_000_000

// Contract is a typed handle to one deployed eth-connector contract.
// It is safe for concurrent use; building requests touches no shared state.
type Contract struct {
	id     AccountID
	gas    uint64
	logger *zap.Logger
}

// ContractOption configures a Contract.
type ContractOption func(*Contract)

// WithDefaultGas sets the gas attached to every call built by the contract.
func WithDefaultGas(gas uint64) ContractOption {
	return func(c *Contract) {
		c.gas = gas
	}
}

// WithLogger sets the logger used for request-building diagnostics.
func WithLogger(logger *zap.Logger) ContractOption {
	return func(c *Contract) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContract creates a handle for the contract deployed at id.
func NewContract(id AccountID, opts ...ContractOption) *Contract {
	c := &Contract{
		id:     id,
		gas:    DefaultGas,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the contract account.
func (c *Contract) ID() AccountID {
	return c.id
}

// Ptr returns a pointer to v, for optional arguments.
func Ptr[T any](v T) *T {
	return &v
}

// Argument shapes. Field order is the wire order.

type initArgs struct {
	ProverAccount          AccountID             `json:"prover_account"`
	EthCustodianAddress    string                `json:"eth_custodian_address"`
	Metadata               FungibleTokenMetadata `json:"metadata"`
	AccountWithAccessRight AccountID             `json:"account_with_access_right"`
	OwnerID                AccountID             `json:"owner_id"`
}

type transferArgs struct {
	ReceiverID AccountID `json:"receiver_id"`
	Amount     Amount    `json:"amount"`
	Memo       *string   `json:"memo"`
}

type transferCallArgs struct {
	ReceiverID AccountID `json:"receiver_id"`
	Amount     Amount    `json:"amount"`
	Memo       *string   `json:"memo"`
	Msg        string    `json:"msg"`
}

type engineAccountArgs struct {
	EngineAccount AccountID `json:"engine_account"`
}

type storageDepositArgs struct {
	AccountID        *AccountID `json:"account_id"`
	RegistrationOnly *bool      `json:"registration_only"`
}

type storageWithdrawArgs struct {
	Amount *Amount `json:"amount"`
}

type storageUnregisterArgs struct {
	Force *bool `json:"force"`
}

type accessRightArgs struct {
	Account AccountID `json:"account"`
}

type accountArgs struct {
	AccountID AccountID `json:"account_id"`
}

type withdrawArgs struct {
	Recipient []byte
	Amount    Amount
}

func (a withdrawArgs) MarshalBinary() ([]byte, error) {
	if len(a.Recipient) != AddressLength {
		return nil, ErrInvalidAddress
	}
	amount, err := a.Amount.u128()
	if err != nil {
		return nil, err
	}
	return marshalBorsh(struct {
		Recipient common.Address
		Amount    big.Int
	}{common.BytesToAddress(a.Recipient), amount})
}

// senderScoped prefixes an operation's arguments with the id of the sender
// an engine account acts for. The sender is the first JSON field and the
// first binary field.
type senderScoped[A any] struct {
	SenderID AccountID
	Args     A
}

func (s senderScoped[A]) MarshalJSON() ([]byte, error) {
	sender, err := json.Marshal(s.SenderID)
	if err != nil {
		return nil, err
	}
	inner, err := json.Marshal(s.Args)
	if err != nil {
		return nil, err
	}
	if len(inner) < 2 || inner[0] != '{' {
		return nil, ErrUnsupportedValue
	}

	out := make([]byte, 0, len(sender)+len(inner)+16)
	out = append(out, `{"sender_id":`...)
	out = append(out, sender...)
	if len(inner) > 2 {
		out = append(out, ',')
	}
	return append(out, inner[1:]...), nil
}

func (s senderScoped[A]) MarshalBinary() ([]byte, error) {
	m, ok := any(s.Args).(BinaryMarshaler)
	if !ok {
		return nil, ErrUnsupportedValue
	}
	sender, err := marshalBorsh(string(s.SenderID))
	if err != nil {
		return nil, err
	}
	inner, err := m.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(sender, inner...), nil
}

func engine[A any](sender AccountID, args A) senderScoped[A] {
	return senderScoped[A]{SenderID: sender, Args: args}
}

// requireAccounts rejects empty account ids before anything is encoded.
func requireAccounts(d Descriptor, ids ...AccountID) error {
	for _, id := range ids {
		if id == "" {
			return &EncodingError{Method: d.Method, Encoding: d.Encoding, Value: id, Err: ErrInvalidAccountID}
		}
	}
	return nil
}

// build validates the required accounts and encodes args for op.
func build[R any](c *Contract, op Operation[R], args any, required ...AccountID) (*Request[R], error) {
	if err := requireAccounts(op.Descriptor, required...); err != nil {
		return nil, err
	}
	return newRequest(c, op, args)
}

// Call functions

// Init initializes the contract (method "new").
// The custodian address is the hex Ethereum address of the bridge custodian.
func (c *Contract) Init(
	proverAccount AccountID,
	ethCustodianAddress string,
	metadata FungibleTokenMetadata,
	accountWithAccessRight AccountID,
	ownerID AccountID,
) (*Request[Unit], error) {
	if _, err := ParseAddress(ethCustodianAddress); err != nil {
		return nil, &EncodingError{Method: OpNew.Method, Encoding: OpNew.Encoding, Value: ethCustodianAddress, Err: err}
	}
	return build(c, OpNew, initArgs{
		ProverAccount:          proverAccount,
		EthCustodianAddress:    ethCustodianAddress,
		Metadata:               metadata,
		AccountWithAccessRight: accountWithAccessRight,
		OwnerID:                ownerID,
	}, proverAccount, accountWithAccessRight, ownerID)
}

// FtTransfer transfers amount to receiverID. A nil memo is sent as null.
func (c *Contract) FtTransfer(receiverID AccountID, amount Amount, memo *string) (*Request[Unit], error) {
	return build(c, OpFtTransfer, transferArgs{
		ReceiverID: receiverID,
		Amount:     amount,
		Memo:       memo,
	}, receiverID)
}

// FtTransferCall transfers amount to receiverID and calls ft_on_transfer on it
// with msg. The result is the amount the receiver actually used.
func (c *Contract) FtTransferCall(receiverID AccountID, amount Amount, memo *string, msg string) (*Request[Amount], error) {
	return build(c, OpFtTransferCall, transferCallArgs{
		ReceiverID: receiverID,
		Amount:     amount,
		Memo:       memo,
		Msg:        msg,
	}, receiverID)
}

// EngineFtTransfer is FtTransfer executed by an engine account on behalf of senderID.
func (c *Contract) EngineFtTransfer(senderID, receiverID AccountID, amount Amount, memo *string) (*Request[Unit], error) {
	return build(c, OpEngineFtTransfer, engine(senderID, transferArgs{
		ReceiverID: receiverID,
		Amount:     amount,
		Memo:       memo,
	}), senderID, receiverID)
}

// EngineFtTransferCall is FtTransferCall executed by an engine account on behalf of senderID.
func (c *Contract) EngineFtTransferCall(senderID, receiverID AccountID, amount Amount, memo *string, msg string) (*Request[Amount], error) {
	return build(c, OpEngineFtTransferCall, engine(senderID, transferCallArgs{
		ReceiverID: receiverID,
		Amount:     amount,
		Memo:       memo,
		Msg:        msg,
	}), senderID, receiverID)
}

// SetEngineAccount registers an engine account.
func (c *Contract) SetEngineAccount(engineAccount AccountID) (*Request[Unit], error) {
	return build(c, OpSetEngineAccount, engineAccountArgs{EngineAccount: engineAccount}, engineAccount)
}

// RemoveEngineAccount unregisters an engine account.
func (c *Contract) RemoveEngineAccount(engineAccount AccountID) (*Request[Unit], error) {
	return build(c, OpRemoveEngineAccount, engineAccountArgs{EngineAccount: engineAccount}, engineAccount)
}

// StorageDeposit pays for storage of accountID (the caller when nil).
// Attach the payment with WithDeposit.
func (c *Contract) StorageDeposit(accountID *AccountID, registrationOnly *bool) (*Request[StorageBalance], error) {
	return build(c, OpStorageDeposit, storageDepositArgs{
		AccountID:        accountID,
		RegistrationOnly: registrationOnly,
	})
}

// StorageWithdraw withdraws amount of unused storage deposit (everything when nil).
func (c *Contract) StorageWithdraw(amount *Amount) (*Request[StorageBalance], error) {
	return build(c, OpStorageWithdraw, storageWithdrawArgs{Amount: amount})
}

// StorageUnregister removes the caller's storage registration.
func (c *Contract) StorageUnregister(force *bool) (*Request[bool], error) {
	return build(c, OpStorageUnregister, storageUnregisterArgs{Force: force})
}

// EngineStorageDeposit is StorageDeposit executed on behalf of senderID.
func (c *Contract) EngineStorageDeposit(senderID AccountID, accountID *AccountID, registrationOnly *bool) (*Request[StorageBalance], error) {
	return build(c, OpEngineStorageDeposit, engine(senderID, storageDepositArgs{
		AccountID:        accountID,
		RegistrationOnly: registrationOnly,
	}), senderID)
}

// EngineStorageWithdraw is StorageWithdraw executed on behalf of senderID.
func (c *Contract) EngineStorageWithdraw(senderID AccountID, amount *Amount) (*Request[StorageBalance], error) {
	return build(c, OpEngineStorageWithdraw, engine(senderID, storageWithdrawArgs{Amount: amount}), senderID)
}

// EngineStorageUnregister is StorageUnregister executed on behalf of senderID.
func (c *Contract) EngineStorageUnregister(senderID AccountID, force *bool) (*Request[bool], error) {
	return build(c, OpEngineStorageUnregister, engine(senderID, storageUnregisterArgs{Force: force}), senderID)
}

// SetPausedFlags replaces the paused-functionality mask.
func (c *Contract) SetPausedFlags(paused PausedMask) (*Request[Unit], error) {
	return build(c, OpSetPausedFlags, paused)
}

// SetAccessRight grants the access right to account.
func (c *Contract) SetAccessRight(account AccountID) (*Request[Unit], error) {
	return build(c, OpSetAccessRight, accessRightArgs{Account: account}, account)
}

// Withdraw burns amount and releases it to recipient on Ethereum.
// recipient must be exactly 20 bytes (common.Address.Bytes()).
func (c *Contract) Withdraw(recipient []byte, amount Amount) (*Request[WithdrawResult], error) {
	return build(c, OpWithdraw, withdrawArgs{Recipient: recipient, Amount: amount})
}

// EngineWithdraw is Withdraw executed on behalf of senderID.
func (c *Contract) EngineWithdraw(senderID AccountID, recipient []byte, amount Amount) (*Request[WithdrawResult], error) {
	return build(c, OpEngineWithdraw, engine(senderID, withdrawArgs{Recipient: recipient, Amount: amount}), senderID)
}

// Deposit submits an Ethereum inclusion proof to mint the deposited tokens.
func (c *Contract) Deposit(proof Proof) (*Request[Unit], error) {
	return build(c, OpDeposit, proof)
}

// Migrate imports connector state.
func (c *Contract) Migrate(data MigrationInputData) (*Request[Unit], error) {
	return build(c, OpMigrate, data)
}

// View functions

// GetBridgeProver returns the prover account.
func (c *Contract) GetBridgeProver() (*Request[AccountID], error) {
	return build(c, OpGetBridgeProver, nil)
}

// CheckMigrationCorrectness reports whether data matches the migrated state.
func (c *Contract) CheckMigrationCorrectness(data MigrationInputData) (*Request[bool], error) {
	return build(c, OpCheckMigrationCorrectness, data)
}

// FtMetadata returns the token metadata.
func (c *Contract) FtMetadata() (*Request[FungibleTokenMetadata], error) {
	return build(c, OpFtMetadata, nil)
}

// GetPausedFlags returns the paused-functionality mask.
func (c *Contract) GetPausedFlags() (*Request[PausedMask], error) {
	return build(c, OpGetPausedFlags, nil)
}

// GetAccountWithAccessRight returns the account holding the access right.
func (c *Contract) GetAccountWithAccessRight() (*Request[AccountID], error) {
	return build(c, OpGetAccountWithAccessRight, nil)
}

// IsOwner reports whether the caller owns the contract.
func (c *Contract) IsOwner() (*Request[bool], error) {
	return build(c, OpIsOwner, nil)
}

// IsUsedProof reports whether proof was already used for a deposit.
func (c *Contract) IsUsedProof(proof Proof) (*Request[bool], error) {
	return build(c, OpIsUsedProof, proof)
}

// StorageBalanceOf returns the storage balance of accountID, or nil if it is not registered.
func (c *Contract) StorageBalanceOf(accountID AccountID) (*Request[*StorageBalance], error) {
	return build(c, OpStorageBalanceOf, accountArgs{AccountID: accountID}, accountID)
}

// StorageBalanceBounds returns the storage deposit bounds.
func (c *Contract) StorageBalanceBounds() (*Request[StorageBalanceBounds], error) {
	return build(c, OpStorageBalanceBounds, nil)
}

// IsEngineAccountExist reports whether engineAccount is registered.
func (c *Contract) IsEngineAccountExist(engineAccount AccountID) (*Request[bool], error) {
	return build(c, OpIsEngineAccountExist, engineAccountArgs{EngineAccount: engineAccount}, engineAccount)
}

// FtTotalSupply returns the total token supply.
func (c *Contract) FtTotalSupply() (*Request[Amount], error) {
	return build(c, OpFtTotalSupply, nil)
}

// FtBalanceOf returns the token balance of accountID.
func (c *Contract) FtBalanceOf(accountID AccountID) (*Request[Amount], error) {
	return build(c, OpFtBalanceOf, accountArgs{AccountID: accountID}, accountID)
}
