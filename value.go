package ethconnector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// AccountID identifies an account on the ledger hosting the contract.
// It is used both as the contract's target identity and for account arguments.
type AccountID string

// String returns the account id.
func (id AccountID) String() string {
	return string(id)
}

// Unit is the result of operations that only acknowledge success.
type Unit struct{}

// Amount is an unsigned 128-bit token quantity.
// The zero value is 0.
type Amount struct {
	v uint256.Int
}

// NewAmount creates an amount from a uint64.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// ParseAmount parses a canonical base-10 amount: digits only, no sign and
// no leading zeros.
func ParseAmount(s string) (Amount, error) {
	if !isCanonicalDecimal(s) {
		return Amount{}, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w %q: %v", ErrInvalidAmount, s, err)
	}
	a := Amount{v: *v}
	if !a.fits128() {
		return Amount{}, ErrAmountOverflow
	}
	return a, nil
}

func isCanonicalDecimal(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromBig converts a non-negative *big.Int to an amount.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil || b.Sign() < 0 {
		return Amount{}, ErrInvalidAmount
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return Amount{}, ErrAmountOverflow
	}
	a := Amount{v: *v}
	if !a.fits128() {
		return Amount{}, ErrAmountOverflow
	}
	return a, nil
}

// fits128 reports whether the upper 128 bits are clear.
func (a Amount) fits128() bool {
	return a.v[2] == 0 && a.v[3] == 0
}

// u128 returns the amount in the form borsh writes as a u128.
func (a Amount) u128() (big.Int, error) {
	if !a.fits128() {
		return big.Int{}, ErrAmountOverflow
	}
	return *a.v.ToBig(), nil
}

// String returns the decimal representation.
func (a Amount) String() string {
	return a.v.Dec()
}

// Big returns the amount as a new *big.Int.
func (a Amount) Big() *big.Int {
	return a.v.ToBig()
}

// Uint64 returns the amount as a uint64 and whether it fit.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

// IsZero reports whether the amount is 0.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// MarshalJSON encodes the amount as a decimal string so 128-bit values
// survive JSON parsers limited to 53-bit integers.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.fits128() {
		return nil, ErrAmountOverflow
	}
	return []byte(strconv.Quote(a.v.Dec())), nil
}

// UnmarshalJSON decodes a decimal string. Bare numbers and null are rejected.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("%w: null", ErrInvalidAmount)
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a hex Ethereum address, with or without the 0x prefix.
func ParseAddress(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(b) != AddressLength {
		return common.Address{}, ErrInvalidAddress
	}
	return common.BytesToAddress(b), nil
}

// PausedMask is the bitmask of paused contract functionality.
type PausedMask uint8

// Paused flags.
const (
	// UnpauseAll clears every flag.
	UnpauseAll PausedMask = 0

	// PauseDeposit pauses deposits (proof submission).
	PauseDeposit PausedMask = 1 << 0

	// PauseWithdraw pauses withdrawals to Ethereum.
	PauseWithdraw PausedMask = 1 << 1
)

// Has reports whether every bit of flag is set.
func (m PausedMask) Has(flag PausedMask) bool {
	return m&flag == flag
}

// MarshalBinary implements BinaryMarshaler.
func (m PausedMask) MarshalBinary() ([]byte, error) {
	return marshalBorsh(uint8(m))
}

// FungibleTokenMetadata describes the token (NEP-148).
type FungibleTokenMetadata struct {
	Spec          string  `json:"spec"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Icon          *string `json:"icon"`
	Reference     *string `json:"reference"`
	ReferenceHash []byte  `json:"reference_hash"` // base64 on the wire, null when nil
	Decimals      uint8   `json:"decimals"`
}

// UnmarshalJSON decodes the metadata and requires spec, name, symbol and decimals.
func (m *FungibleTokenMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		Spec          *string `json:"spec"`
		Name          *string `json:"name"`
		Symbol        *string `json:"symbol"`
		Icon          *string `json:"icon"`
		Reference     *string `json:"reference"`
		ReferenceHash []byte  `json:"reference_hash"`
		Decimals      *uint8  `json:"decimals"`
	}
	if err := unmarshalObject(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Spec == nil:
		return missingField("spec")
	case raw.Name == nil:
		return missingField("name")
	case raw.Symbol == nil:
		return missingField("symbol")
	case raw.Decimals == nil:
		return missingField("decimals")
	}
	*m = FungibleTokenMetadata{
		Spec:          *raw.Spec,
		Name:          *raw.Name,
		Symbol:        *raw.Symbol,
		Icon:          raw.Icon,
		Reference:     raw.Reference,
		ReferenceHash: raw.ReferenceHash,
		Decimals:      *raw.Decimals,
	}
	return nil
}

// StorageBalance is an account's storage staking balance (NEP-145).
type StorageBalance struct {
	Total     Amount `json:"total"`
	Available Amount `json:"available"`
}

// UnmarshalJSON decodes the balance and requires both total and available.
func (b *StorageBalance) UnmarshalJSON(data []byte) error {
	var raw struct {
		Total     *Amount `json:"total"`
		Available *Amount `json:"available"`
	}
	if err := unmarshalObject(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Total == nil:
		return missingField("total")
	case raw.Available == nil:
		return missingField("available")
	}
	*b = StorageBalance{Total: *raw.Total, Available: *raw.Available}
	return nil
}

// StorageBalanceBounds is the storage staking requirement (NEP-145).
type StorageBalanceBounds struct {
	Min Amount  `json:"min"`
	Max *Amount `json:"max"`
}

// UnmarshalJSON decodes the bounds and requires min. A null or absent max means unbounded.
func (b *StorageBalanceBounds) UnmarshalJSON(data []byte) error {
	var raw struct {
		Min *Amount `json:"min"`
		Max *Amount `json:"max"`
	}
	if err := unmarshalObject(data, &raw); err != nil {
		return err
	}
	if raw.Min == nil {
		return missingField("min")
	}
	*b = StorageBalanceBounds{Min: *raw.Min, Max: raw.Max}
	return nil
}

// unmarshalObject decodes a JSON object into v, rejecting null.
func unmarshalObject(data []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ErrNullResult
	}
	return json.Unmarshal(data, v)
}

func missingField(name string) error {
	return fmt.Errorf("%w: %q", ErrMissingField, name)
}

// Proof is an Ethereum log inclusion proof for a deposit.
type Proof struct {
	LogIndex     uint64
	LogEntryData []byte
	ReceiptIndex uint64
	ReceiptData  []byte
	HeaderData   []byte
	Proof        [][]byte
}

// MarshalBinary implements BinaryMarshaler.
func (p Proof) MarshalBinary() ([]byte, error) {
	return marshalBorsh(p)
}

// UnmarshalBinary implements BinaryUnmarshaler.
func (p *Proof) UnmarshalBinary(data []byte) error {
	var decoded Proof
	if err := unmarshalBorsh(data, &decoded); err != nil {
		return err
	}
	*p = decoded
	return nil
}

// MigrationInputData carries connector state moved by migrate.
type MigrationInputData struct {
	Accounts                        map[AccountID]Amount
	TotalSupply                     *Amount
	AccountStorageUsage             *uint64
	StatisticsAuroraAccountsCounter *uint64
	UsedProofs                      []string
}

// migrationWire is the borsh layout of MigrationInputData. A map is written
// as its entry count followed by the entries in ascending key order.
type migrationWire struct {
	Accounts                        []accountBalance
	TotalSupply                     *big.Int
	AccountStorageUsage             *uint64
	StatisticsAuroraAccountsCounter *uint64
	UsedProofs                      []string
}

type accountBalance struct {
	Account string
	Balance big.Int
}

// MarshalBinary implements BinaryMarshaler.
// Accounts are written sorted by account id.
func (m MigrationInputData) MarshalBinary() ([]byte, error) {
	keys := make([]string, 0, len(m.Accounts))
	for k := range m.Accounts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	wire := migrationWire{
		Accounts:                        make([]accountBalance, 0, len(keys)),
		AccountStorageUsage:             m.AccountStorageUsage,
		StatisticsAuroraAccountsCounter: m.StatisticsAuroraAccountsCounter,
		UsedProofs:                      m.UsedProofs,
	}
	for _, k := range keys {
		balance, err := m.Accounts[AccountID(k)].u128()
		if err != nil {
			return nil, err
		}
		wire.Accounts = append(wire.Accounts, accountBalance{Account: k, Balance: balance})
	}
	if m.TotalSupply != nil {
		supply, err := m.TotalSupply.u128()
		if err != nil {
			return nil, err
		}
		wire.TotalSupply = &supply
	}
	return marshalBorsh(wire)
}

// UnmarshalBinary implements BinaryUnmarshaler.
// Account ids must be strictly ascending.
func (m *MigrationInputData) UnmarshalBinary(data []byte) error {
	var wire migrationWire
	if err := unmarshalBorsh(data, &wire); err != nil {
		return err
	}

	decoded := MigrationInputData{
		Accounts:                        make(map[AccountID]Amount, len(wire.Accounts)),
		AccountStorageUsage:             wire.AccountStorageUsage,
		StatisticsAuroraAccountsCounter: wire.StatisticsAuroraAccountsCounter,
		UsedProofs:                      wire.UsedProofs,
	}
	for i, entry := range wire.Accounts {
		if i > 0 {
			switch prev := wire.Accounts[i-1].Account; {
			case entry.Account == prev:
				return fmt.Errorf("%w: %q", ErrDuplicateKey, entry.Account)
			case entry.Account < prev:
				return fmt.Errorf("%w: account %q out of order", ErrNonCanonical, entry.Account)
			}
		}
		balance, err := AmountFromBig(&entry.Balance)
		if err != nil {
			return err
		}
		decoded.Accounts[AccountID(entry.Account)] = balance
	}
	if wire.TotalSupply != nil {
		supply, err := AmountFromBig(wire.TotalSupply)
		if err != nil {
			return err
		}
		decoded.TotalSupply = &supply
	}
	*m = decoded
	return nil
}

// WithdrawResult is returned by withdraw and engine_withdraw.
type WithdrawResult struct {
	Amount              Amount
	RecipientID         common.Address
	EthCustodianAddress common.Address
}

// withdrawResultSize is the fixed binary size of a WithdrawResult.
const withdrawResultSize = U128Size + 2*AddressLength

type withdrawResultWire struct {
	Amount              big.Int
	RecipientID         common.Address
	EthCustodianAddress common.Address
}

// MarshalBinary implements BinaryMarshaler.
func (res WithdrawResult) MarshalBinary() ([]byte, error) {
	amount, err := res.Amount.u128()
	if err != nil {
		return nil, err
	}
	return marshalBorsh(withdrawResultWire{
		Amount:              amount,
		RecipientID:         res.RecipientID,
		EthCustodianAddress: res.EthCustodianAddress,
	})
}

// UnmarshalBinary implements BinaryUnmarshaler.
func (res *WithdrawResult) UnmarshalBinary(data []byte) error {
	if err := fixedSize(data, withdrawResultSize); err != nil {
		return err
	}
	var wire withdrawResultWire
	if err := unmarshalBorsh(data, &wire); err != nil {
		return err
	}
	amount, err := AmountFromBig(&wire.Amount)
	if err != nil {
		return err
	}
	*res = WithdrawResult{
		Amount:              amount,
		RecipientID:         wire.RecipientID,
		EthCustodianAddress: wire.EthCustodianAddress,
	}
	return nil
}
