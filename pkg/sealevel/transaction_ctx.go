package sealevel

import (
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/accounts"
	"github.com/gagliardetto/solana-go"
)

// TransactionAccounts is the set of accounts referenced by a transaction,
// with the single-borrow lock and touched-account bookkeeping enforced for
// the duration of instruction execution.
type TransactionAccounts struct {
	Accounts []*accounts.Account
	Locked   []bool
	Touched  []bool
}

func NewTransactionAccounts(accts []accounts.Account) *TransactionAccounts {
	transactionAccts := new(TransactionAccounts)

	for count := range accts {
		transactionAccts.Accounts = append(transactionAccts.Accounts, &accts[count])
	}
	transactionAccts.Locked = make([]bool, len(accts))
	transactionAccts.Touched = make([]bool, len(accts))

	return transactionAccts
}

func (txAccts *TransactionAccounts) GetAccount(idx uint64) (*accounts.Account, error) {
	if idx >= uint64(len(txAccts.Accounts)) {
		return nil, InstrErrNotEnoughAccountKeys
	}
	if txAccts.Locked[idx] {
		return nil, InstrErrAccountBorrowOutstanding
	}
	txAccts.Locked[idx] = true
	return txAccts.Accounts[idx], nil
}

func (txAccts *TransactionAccounts) Unlock(idx uint64) {
	if idx < uint64(len(txAccts.Locked)) {
		txAccts.Locked[idx] = false
	}
}

func (txAccts *TransactionAccounts) Touch(idx uint64) error {
	if idx >= uint64(len(txAccts.Touched)) {
		return InstrErrNotEnoughAccountKeys
	}
	txAccts.Touched[idx] = true
	return nil
}

type TransactionCtx struct {
	Accounts            *TransactionAccounts
	instructionTrace    []*InstructionCtx
	instructionStack    []uint64
	instructionTraceCap uint64
	instructionStackCap uint64
	AccountsResizeDelta int64
}

func NewTestTransactionCtx(txAccounts TransactionAccounts, instrTraceCap uint64, instrStackCap uint64) *TransactionCtx {
	txCtx := new(TransactionCtx)
	txCtx.Accounts = &txAccounts
	txCtx.instructionTraceCap = instrTraceCap
	txCtx.instructionStackCap = instrStackCap
	return txCtx
}

func (txCtx *TransactionCtx) KeyOfAccountAtIndex(index uint64) (solana.PublicKey, error) {
	if index >= uint64(len(txCtx.Accounts.Accounts)) {
		return solana.PublicKey{}, InstrErrNotEnoughAccountKeys
	}
	return txCtx.Accounts.Accounts[index].Key, nil
}

func (txCtx *TransactionCtx) AccountAtIndex(index uint64) (*accounts.Account, error) {
	if index >= uint64(len(txCtx.Accounts.Accounts)) {
		return nil, InstrErrNotEnoughAccountKeys
	}
	return txCtx.Accounts.Accounts[index], nil
}

func (txCtx *TransactionCtx) IndexOfAccount(pubkey solana.PublicKey) (uint64, error) {
	for index, acct := range txCtx.Accounts.Accounts {
		if acct.Key == pubkey {
			return uint64(index), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() uint64 {
	return uint64(len(txCtx.instructionStack))
}

func (txCtx *TransactionCtx) InstructionTraceLength() uint64 {
	return uint64(len(txCtx.instructionTrace))
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	level := txCtx.InstructionCtxStackHeight()
	if level == 0 {
		return nil, InstrErrCallDepth
	}
	return txCtx.InstructionCtxAtNestingLevel(level - 1)
}

func (txCtx *TransactionCtx) InstructionCtxAtNestingLevel(level uint64) (*InstructionCtx, error) {
	if level >= uint64(len(txCtx.instructionStack)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.InstructionCtxAtIndexInTrace(txCtx.instructionStack[level])
}

func (txCtx *TransactionCtx) InstructionCtxAtIndexInTrace(idx uint64) (*InstructionCtx, error) {
	if idx >= uint64(len(txCtx.instructionTrace)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.instructionTrace[idx], nil
}

// NextInstructionCtx returns the instruction context that the next call to
// Push will put on the stack, appending it to the trace.
func (txCtx *TransactionCtx) NextInstructionCtx() (*InstructionCtx, error) {
	if txCtx.instructionTraceCap != 0 && uint64(len(txCtx.instructionTrace)) >= txCtx.instructionTraceCap {
		return nil, InstrErrCallDepth
	}
	instrCtx := new(InstructionCtx)
	instrCtx.nestingHeight = txCtx.InstructionCtxStackHeight()
	txCtx.instructionTrace = append(txCtx.instructionTrace, instrCtx)
	return instrCtx, nil
}

func (txCtx *TransactionCtx) Push() error {
	if txCtx.instructionStackCap != 0 && uint64(len(txCtx.instructionStack)) >= txCtx.instructionStackCap {
		return InstrErrCallDepth
	}
	if len(txCtx.instructionTrace) == 0 {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = append(txCtx.instructionStack, uint64(len(txCtx.instructionTrace)-1))
	return nil
}

func (txCtx *TransactionCtx) Pop() error {
	if len(txCtx.instructionStack) == 0 {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = txCtx.instructionStack[:len(txCtx.instructionStack)-1]
	return nil
}
