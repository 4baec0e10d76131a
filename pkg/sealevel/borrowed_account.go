package sealevel

import (
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/accounts"
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/features"
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/safemath"
	"github.com/gagliardetto/solana-go"
)

const MaxPermittedDataIncrease = 10 * 1024

type BorrowedAccount struct {
	TxCtx              *TransactionCtx
	InstrCtx           *InstructionCtx
	IndexInTransaction uint64
	IndexInInstruction uint64
	Account            *accounts.Account
	dropped            bool
}

// Drop releases the exclusive borrow. Dropping twice is harmless; handlers
// routinely pair an explicit Drop with a deferred one.
func (acct *BorrowedAccount) Drop() {
	if acct.dropped {
		return
	}
	acct.dropped = true
	acct.TxCtx.Accounts.Unlock(acct.IndexInTransaction)
}

func (acct *BorrowedAccount) Key() solana.PublicKey {
	key, err := acct.TxCtx.KeyOfAccountAtIndex(acct.IndexInTransaction)
	if err != nil {
		panic("supposedly impossible failure")
	}
	return key
}

func (acct *BorrowedAccount) Owner() solana.PublicKey {
	return acct.Account.Owner
}

func (acct *BorrowedAccount) Lamports() uint64 {
	return acct.Account.Lamports
}

func (acct *BorrowedAccount) Data() []byte {
	return acct.Account.Data
}

func (acct *BorrowedAccount) Touch() error {
	return acct.TxCtx.Accounts.Touch(acct.IndexInTransaction)
}

func (acct *BorrowedAccount) IsSigner() bool {
	instrCtx := acct.InstrCtx
	if acct.IndexInInstruction < instrCtx.NumberOfProgramAccounts() {
		return false
	}

	instrAcctIdx := safemath.SaturatingSubU64(acct.IndexInInstruction, instrCtx.NumberOfProgramAccounts())
	isSigner, err := instrCtx.IsInstructionAccountSigner(instrAcctIdx)
	if err != nil {
		return false
	}
	return isSigner
}

func (acct *BorrowedAccount) IsWritable() bool {
	instrCtx := acct.InstrCtx
	if acct.IndexInInstruction < instrCtx.NumberOfProgramAccounts() {
		return false
	}

	instrAcctIdx := safemath.SaturatingSubU64(acct.IndexInInstruction, instrCtx.NumberOfProgramAccounts())
	writable, err := instrCtx.IsInstructionAccountWritable(instrAcctIdx)
	if err != nil {
		return false
	}
	return writable
}

func (acct *BorrowedAccount) IsExecutable() bool {
	return acct.Account.Executable
}

func (acct *BorrowedAccount) IsOwnedByCurrentProgram() bool {
	lastProgramKey, err := acct.InstrCtx.LastProgramKey(acct.TxCtx)
	if err != nil {
		return false
	}
	return lastProgramKey == acct.Owner()
}

func (acct *BorrowedAccount) DataCanBeChanged(features features.Features) error {
	if acct.IsExecutable() {
		return InstrErrExecutableDataModified
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyDataModified
	}
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrExternalAccountDataModified
	}
	return nil
}

func (acct *BorrowedAccount) LamportsCanBeChanged(isSubtraction bool) error {
	if acct.IsExecutable() {
		return InstrErrExecutableLamportChange
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyLamportChange
	}
	if isSubtraction && !acct.IsOwnedByCurrentProgram() {
		return InstrErrExternalAccountLamportSpend
	}
	return nil
}

func (acct *BorrowedAccount) SetLamports(lamports uint64, f features.Features) error {
	err := acct.LamportsCanBeChanged(lamports < acct.Account.Lamports)
	if err != nil {
		return err
	}
	err = acct.Touch()
	if err != nil {
		return err
	}
	acct.Account.Lamports = lamports
	return nil
}

func (acct *BorrowedAccount) CheckedAddLamports(lamports uint64, f features.Features) error {
	newLamports, err := safemath.CheckedAddU64(acct.Account.Lamports, lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	return acct.SetLamports(newLamports, f)
}

func (acct *BorrowedAccount) CheckedSubLamports(lamports uint64, f features.Features) error {
	newLamports, err := safemath.CheckedSubU64(acct.Account.Lamports, lamports)
	if err != nil {
		return InstrErrInsufficientFunds
	}
	return acct.SetLamports(newLamports, f)
}

func (acct *BorrowedAccount) SetOwner(f features.Features, owner solana.PublicKey) error {
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrModifiedProgramId
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyDataModified
	}
	if acct.IsExecutable() {
		return InstrErrExecutableDataModified
	}
	err := acct.Touch()
	if err != nil {
		return err
	}
	acct.Account.Owner = owner
	return nil
}

func (acct *BorrowedAccount) SetData(f features.Features, data []byte) error {
	err := acct.DataCanBeChanged(f)
	if err != nil {
		return err
	}
	err = acct.updateResizeDelta(uint64(len(data)))
	if err != nil {
		return err
	}
	err = acct.Touch()
	if err != nil {
		return err
	}
	acct.Account.SetData(data)
	return nil
}

// SetState replaces the account data without changing its size.
func (acct *BorrowedAccount) SetState(f features.Features, data []byte) error {
	err := acct.DataCanBeChanged(f)
	if err != nil {
		return err
	}
	if len(data) > len(acct.Account.Data) {
		return InstrErrAccountDataTooSmall
	}
	err = acct.Touch()
	if err != nil {
		return err
	}
	copy(acct.Account.Data, data)
	return nil
}

// SetStateWithExtension replaces the account data, growing the account when
// the new state is larger than the current allocation.
func (acct *BorrowedAccount) SetStateWithExtension(f features.Features, data []byte) error {
	if uint64(len(data)) > uint64(len(acct.Account.Data)) {
		err := acct.SetDataLength(uint64(len(data)), f)
		if err != nil {
			return err
		}
	}
	return acct.SetState(f, data)
}

func (acct *BorrowedAccount) SetDataLength(newLen uint64, f features.Features) error {
	err := acct.DataCanBeChanged(f)
	if err != nil {
		return err
	}

	oldLen := uint64(len(acct.Account.Data))
	if newLen == oldLen {
		return nil
	}

	err = acct.updateResizeDelta(newLen)
	if err != nil {
		return err
	}
	err = acct.Touch()
	if err != nil {
		return err
	}

	if newLen < oldLen {
		acct.Account.Data = acct.Account.Data[:newLen]
	} else {
		extended := make([]byte, newLen)
		copy(extended, acct.Account.Data)
		acct.Account.Data = extended
	}
	return nil
}

func (acct *BorrowedAccount) updateResizeDelta(newLen uint64) error {
	delta := int64(newLen) - int64(len(acct.Account.Data))
	acct.TxCtx.AccountsResizeDelta += delta
	if acct.TxCtx.AccountsResizeDelta > MaxPermittedAccountsResizeDelta {
		return InstrErrInvalidRealloc
	}
	return nil
}

const MaxPermittedAccountsResizeDelta = 10 * 1024 * 1024
