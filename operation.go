package ethconnector

// Kind distinguishes state-changing calls from read-only views.
type Kind uint8

const (
	// KindCall mutates contract state and is submitted as a transaction.
	KindCall Kind = iota + 1

	// KindView only reads contract state.
	KindView
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindView:
		return "view"
	default:
		return "unknown"
	}
}

// Mutates reports whether operations of this kind change contract state.
func (k Kind) Mutates() bool {
	return k == KindCall
}

// Descriptor is the static wire contract of one contract method.
type Descriptor struct {
	// Method is the contract method name.
	Method string

	// Kind is KindCall or KindView.
	Kind Kind

	// Encoding applies to both the arguments and the result.
	Encoding Encoding

	// OneYocto marks methods that require exactly 1 yoctoNEAR attached.
	OneYocto bool
}

// Mutates reports whether the operation changes contract state.
func (d Descriptor) Mutates() bool {
	return d.Kind.Mutates()
}

// Operation binds a Descriptor to the Go type its result decodes into.
type Operation[R any] struct {
	Descriptor
}

func callOp[R any](method string, enc Encoding) Operation[R] {
	return Operation[R]{Descriptor{Method: method, Kind: KindCall, Encoding: enc}}
}

func yoctoCallOp[R any](method string, enc Encoding) Operation[R] {
	op := callOp[R](method, enc)
	op.OneYocto = true
	return op
}

func viewOp[R any](method string, enc Encoding) Operation[R] {
	return Operation[R]{Descriptor{Method: method, Kind: KindView, Encoding: enc}}
}

// Call operations.
var (
	OpNew                     = callOp[Unit]("new", Structured)
	OpFtTransfer              = yoctoCallOp[Unit]("ft_transfer", Structured)
	OpFtTransferCall          = yoctoCallOp[Amount]("ft_transfer_call", Structured)
	OpEngineFtTransfer        = yoctoCallOp[Unit]("engine_ft_transfer", Structured)
	OpEngineFtTransferCall    = yoctoCallOp[Amount]("engine_ft_transfer_call", Structured)
	OpSetEngineAccount        = callOp[Unit]("set_engine_account", Structured)
	OpRemoveEngineAccount     = callOp[Unit]("remove_engine_account", Structured)
	OpStorageDeposit          = callOp[StorageBalance]("storage_deposit", Structured)
	OpStorageWithdraw         = yoctoCallOp[StorageBalance]("storage_withdraw", Structured)
	OpStorageUnregister       = yoctoCallOp[bool]("storage_unregister", Structured)
	OpEngineStorageDeposit    = callOp[StorageBalance]("engine_storage_deposit", Structured)
	OpEngineStorageWithdraw   = yoctoCallOp[StorageBalance]("engine_storage_withdraw", Structured)
	OpEngineStorageUnregister = yoctoCallOp[bool]("engine_storage_unregister", Structured)
	OpSetPausedFlags          = callOp[Unit]("set_paused_flags", Binary)
	OpSetAccessRight          = callOp[Unit]("set_access_right", Structured)
	OpWithdraw                = yoctoCallOp[WithdrawResult]("withdraw", Binary)
	OpEngineWithdraw          = yoctoCallOp[WithdrawResult]("engine_withdraw", Binary)
	OpDeposit                 = callOp[Unit]("deposit", Binary)
	OpMigrate                 = callOp[Unit]("migrate", Binary)
)

// View operations.
var (
	OpGetBridgeProver           = viewOp[AccountID]("get_bridge_prover", Structured)
	OpCheckMigrationCorrectness = viewOp[bool]("check_migration_correctness", Binary)
	OpFtMetadata                = viewOp[FungibleTokenMetadata]("ft_metadata", Structured)
	OpGetPausedFlags            = viewOp[PausedMask]("get_paused_flags", Structured)
	OpGetAccountWithAccessRight = viewOp[AccountID]("get_account_with_access_right", Structured)
	OpIsOwner                   = viewOp[bool]("is_owner", Structured)
	OpIsUsedProof               = viewOp[bool]("is_used_proof", Binary)
	OpStorageBalanceOf          = viewOp[*StorageBalance]("storage_balance_of", Structured)
	OpStorageBalanceBounds      = viewOp[StorageBalanceBounds]("storage_balance_bounds", Structured)
	OpIsEngineAccountExist      = viewOp[bool]("is_engine_account_exist", Structured)
	OpFtTotalSupply             = viewOp[Amount]("ft_total_supply", Structured)
	OpFtBalanceOf               = viewOp[Amount]("ft_balance_of", Structured)
)

// catalog lists every supported operation, calls first.
var catalog = []Descriptor{
	OpNew.Descriptor,
	OpFtTransfer.Descriptor,
	OpFtTransferCall.Descriptor,
	OpEngineFtTransfer.Descriptor,
	OpEngineFtTransferCall.Descriptor,
	OpSetEngineAccount.Descriptor,
	OpRemoveEngineAccount.Descriptor,
	OpStorageDeposit.Descriptor,
	OpStorageWithdraw.Descriptor,
	OpStorageUnregister.Descriptor,
	OpEngineStorageDeposit.Descriptor,
	OpEngineStorageWithdraw.Descriptor,
	OpEngineStorageUnregister.Descriptor,
	OpSetPausedFlags.Descriptor,
	OpSetAccessRight.Descriptor,
	OpWithdraw.Descriptor,
	OpEngineWithdraw.Descriptor,
	OpDeposit.Descriptor,
	OpMigrate.Descriptor,

	OpGetBridgeProver.Descriptor,
	OpCheckMigrationCorrectness.Descriptor,
	OpFtMetadata.Descriptor,
	OpGetPausedFlags.Descriptor,
	OpGetAccountWithAccessRight.Descriptor,
	OpIsOwner.Descriptor,
	OpIsUsedProof.Descriptor,
	OpStorageBalanceOf.Descriptor,
	OpStorageBalanceBounds.Descriptor,
	OpIsEngineAccountExist.Descriptor,
	OpFtTotalSupply.Descriptor,
	OpFtBalanceOf.Descriptor,
}

// Catalog returns every supported operation descriptor, calls first.
// The returned slice is a copy.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the descriptor for a contract method name.
func Lookup(method string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Method == method {
			return d, true
		}
	}
	return Descriptor{}, false
}
