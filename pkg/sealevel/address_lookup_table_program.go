package sealevel

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/features"
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/safemath"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

const (
	AddrLookupTableInstrTypeCreateLookupTable = iota
	AddrLookupTableInstrTypeFreezeLookupTable
	AddrLookupTableInstrTypeExtendLookupTable
	AddrLookupTableInstrTypeDeactivateLookupTable
	AddrLookupTableInstrTypeCloseLookupTable
)

var (
	AddrLookupTableErrEmptyTable         = errors.New("AddrLookupTableErrEmptyTable")
	AddrLookupTableErrTableFull          = errors.New("AddrLookupTableErrTableFull")
	AddrLookupTableErrSameSlotExtend     = errors.New("AddrLookupTableErrSameSlotExtend")
	AddrLookupTableErrAlreadyDeactivated = errors.New("AddrLookupTableErrAlreadyDeactivated")
	AddrLookupTableErrNotDeactivated     = errors.New("AddrLookupTableErrNotDeactivated")
	AddrLookupTableErrNotReady           = errors.New("AddrLookupTableErrNotReady")
)

type AddrLookupTableInstrCreateLookupTable struct {
	RecentSlot uint64
	BumpSeed   byte
}

type AddrLookupTableInstrExtendLookupTable struct {
	NewAddresses []solana.PublicKey
}

func (createLookupTable *AddrLookupTableInstrCreateLookupTable) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	createLookupTable.RecentSlot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	createLookupTable.BumpSeed, err = decoder.ReadByte()
	return err
}

func (createLookupTable *AddrLookupTableInstrCreateLookupTable) MarshalWithEncoder(encoder *bin.Encoder) error {
	var err error

	err = encoder.WriteUint32(AddrLookupTableInstrTypeCreateLookupTable, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(createLookupTable.RecentSlot, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteByte(createLookupTable.BumpSeed)
	return err
}

func (extendLookupTable *AddrLookupTableInstrExtendLookupTable) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	size, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	for count := uint64(0); count < size; count++ {
		pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return err
		}
		pk := solana.PublicKeyFromBytes(pkBytes)
		extendLookupTable.NewAddresses = append(extendLookupTable.NewAddresses, pk)
	}

	return nil
}

func (extendLookupTable *AddrLookupTableInstrExtendLookupTable) MarshalWithEncoder(encoder *bin.Encoder) error {
	var err error

	err = encoder.WriteUint32(AddrLookupTableInstrTypeExtendLookupTable, bin.LE)
	if err != nil {
		return err
	}

	addressesLen := uint64(len(extendLookupTable.NewAddresses))
	err = encoder.WriteUint64(addressesLen, bin.LE)
	if err != nil {
		return err
	}

	for _, addr := range extendLookupTable.NewAddresses {
		err = encoder.WriteBytes(addr[:], false)
		if err != nil {
			return err
		}
	}

	return nil
}

// DeriveLookupTableAddress returns the table address derived from the
// authority and recent slot, along with the bump seed used.
func DeriveLookupTableAddress(authority solana.PublicKey, recentSlot uint64) (solana.PublicKey, byte, error) {
	slotBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(slotBytes, recentSlot)

	addr, bump, err := solana.FindProgramAddress([][]byte{authority[:], slotBytes}, AddressLookupTableAddr)
	return addr, bump, err
}

func AddressLookupTableExecute(execCtx *ExecutionCtx) error {
	err := execCtx.ComputeMeter.Consume(CUAddressLookupTableDefaultComputeUnits)
	if err != nil {
		return err
	}

	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	instrData := instrCtx.Data

	decoder := bin.NewBinDecoder(instrData)
	instructionType, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return InstrErrInvalidInstructionData
	}

	switch instructionType {
	case AddrLookupTableInstrTypeCreateLookupTable:
		{
			var createLookupTable AddrLookupTableInstrCreateLookupTable
			err = createLookupTable.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}

			err = AddressLookupTableCreateLookupTable(execCtx, createLookupTable.RecentSlot, createLookupTable.BumpSeed)
		}

	case AddrLookupTableInstrTypeFreezeLookupTable:
		{
			err = AddressLookupTableFreezeLookupTable(execCtx)
		}

	case AddrLookupTableInstrTypeExtendLookupTable:
		{
			var extend AddrLookupTableInstrExtendLookupTable
			err = extend.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}

			err = AddressLookupTableExtendLookupTable(execCtx, extend.NewAddresses)
		}

	case AddrLookupTableInstrTypeDeactivateLookupTable:
		{
			err = AddressLookupTableDeactivateLookupTable(execCtx)
		}

	case AddrLookupTableInstrTypeCloseLookupTable:
		{
			err = AddressLookupTableCloseLookupTable(execCtx)
		}

	default:
		{
			err = InstrErrInvalidInstructionData
		}
	}

	return err
}

func setAddrTableLookupAccountState(acct *BorrowedAccount, state *AddressLookupTable, f features.Features) error {
	acctStateBytes, err := MarshalAddressLookupTable(state)
	if err != nil {
		return err
	}

	return acct.SetState(f, acctStateBytes)
}

func setAddrTableLookupAccountStateWithExtension(acct *BorrowedAccount, state *AddressLookupTable, f features.Features) error {
	acctStateBytes, err := MarshalAddressLookupTable(state)
	if err != nil {
		return err
	}

	return acct.SetStateWithExtension(f, acctStateBytes)
}

func AddressLookupTableCreateLookupTable(execCtx *ExecutionCtx, untrustedRecentSlot uint64, bumpSeed byte) error {
	klog.Infof("AddressLookupTableCreateLookupTable")

	txCtx := execCtx.TransactionContext

	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	lookupTableAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer lookupTableAcct.Drop()

	lookupTableLamports := lookupTableAcct.Lamports()
	tableKey := lookupTableAcct.Key()
	lookupTableOwner := lookupTableAcct.Owner()

	if !execCtx.GlobalCtx.Features.IsActive(features.RelaxAuthoritySignerCheckForLookupTableCreation) &&
		len(lookupTableAcct.Data()) != 0 {
		klog.Errorf("table account must not be allocated")
		return InstrErrAccountAlreadyInitialized
	}

	lookupTableAcct.Drop()

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	authorityKey := authorityAcct.Key()

	if !execCtx.GlobalCtx.Features.IsActive(features.RelaxAuthoritySignerCheckForLookupTableCreation) &&
		!authorityAcct.IsSigner() {
		klog.Errorf("authority account must be a signer")
		return InstrErrMissingRequiredSignature
	}

	authorityAcct.Drop()

	payerAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 2)
	if err != nil {
		return err
	}
	defer payerAcct.Drop()

	payerKey := payerAcct.Key()

	if !payerAcct.IsSigner() {
		klog.Errorf("payer account must be a signer")
		return InstrErrMissingRequiredSignature
	}

	payerAcct.Drop()

	slotHashes, err := ReadSlotHashesSysvar(&execCtx.Accounts)
	if err != nil {
		return err
	}

	_, ok := slotHashes.Get(untrustedRecentSlot)
	if !ok {
		klog.Errorf("%d is not a recent slot", untrustedRecentSlot)
		return InstrErrInvalidInstructionData
	}

	derivationSlot := untrustedRecentSlot

	var seeds [][]byte
	seeds = append(seeds, authorityKey[:])
	derivationSlotBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(derivationSlotBytes, derivationSlot)
	seeds = append(seeds, derivationSlotBytes)
	seeds = append(seeds, []byte{bumpSeed})

	derivedTableKey, err := solana.CreateProgramAddress(seeds, AddressLookupTableAddr)
	if err != nil {
		return err
	}

	if tableKey != derivedTableKey {
		klog.Infof("Table address must match derived address: %s", derivedTableKey)
		return InstrErrInvalidArgument
	}

	if execCtx.GlobalCtx.Features.IsActive(features.RelaxAuthoritySignerCheckForLookupTableCreation) &&
		lookupTableOwner == AddressLookupTableAddr {
		return nil
	}

	tableAcctDataLen := uint64(AddressLookupTableMetaSize)
	rent, err := ReadRentSysvar(&execCtx.Accounts)
	if err != nil {
		return err
	}

	minBalance := rent.MinimumBalance(tableAcctDataLen)
	if minBalance < 1 {
		minBalance = 1
	}
	requiredLamports := safemath.SaturatingSubU64(minBalance, lookupTableLamports)

	if requiredLamports > 0 {
		txInstr := newTransferInstruction(payerKey, tableKey, requiredLamports)
		err = execCtx.NativeInvoke(*txInstr, []solana.PublicKey{payerKey})
		if err != nil {
			return err
		}
	}

	allocInstr := newAllocateInstruction(tableKey, tableAcctDataLen)
	err = execCtx.NativeInvoke(*allocInstr, []solana.PublicKey{tableKey})
	if err != nil {
		return err
	}

	assignInstr := newAssignInstruction(tableKey, AddressLookupTableAddr)
	err = execCtx.NativeInvoke(*assignInstr, []solana.PublicKey{tableKey})
	if err != nil {
		return err
	}

	lookupTableAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}

	newState := &AddressLookupTable{State: AddressLookupTableProgramStateLookupTable, Meta: LookupTableMeta{Authority: &authorityKey, DeactivationSlot: math.MaxUint64}}
	err = setAddrTableLookupAccountState(lookupTableAcct, newState, execCtx.GlobalCtx.Features)
	lookupTableAcct.Drop()

	return err
}

func AddressLookupTableFreezeLookupTable(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext

	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	lookupTableAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer lookupTableAcct.Drop()

	if lookupTableAcct.Owner() != AddressLookupTableAddr {
		return InstrErrInvalidAccountOwner
	}

	lookupTableAcct.Drop()

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	authorityKey := authorityAcct.Key()

	if !authorityAcct.IsSigner() {
		klog.Errorf("authority account must be a signer")
		return InstrErrMissingRequiredSignature
	}

	authorityAcct.Drop()

	lookupTableAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}

	lookupTableData := lookupTableAcct.Data()
	lookupTable, err := UnmarshalAddressLookupTable(lookupTableData)
	if err != nil {
		return InstrErrInvalidAccountData
	}

	if lookupTable.Meta.Authority == nil {
		klog.Infof("lookup table is already frozen")
		return InstrErrImmutable
	}

	if *lookupTable.Meta.Authority != authorityKey {
		return InstrErrIncorrectAuthority
	}

	if !lookupTable.Meta.IsActive() {
		klog.Infof("deactivated tables cannot be frozen")
		return InstrErrInvalidArgument
	}

	if len(lookupTable.Addresses) == 0 {
		klog.Infof("empty lookup tables cannot be frozen")
		return AddrLookupTableErrEmptyTable
	}

	lookupTable.Meta.Authority = nil
	err = setAddrTableLookupAccountState(lookupTableAcct, lookupTable, execCtx.GlobalCtx.Features)
	lookupTableAcct.Drop()

	return err
}

func AddressLookupTableExtendLookupTable(execCtx *ExecutionCtx, newAddresses []solana.PublicKey) error {
	txCtx := execCtx.TransactionContext

	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	lookupTableAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer lookupTableAcct.Drop()

	tableKey := lookupTableAcct.Key()

	if lookupTableAcct.Owner() != AddressLookupTableAddr {
		return InstrErrInvalidAccountOwner
	}

	lookupTableAcct.Drop()

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	authorityKey := authorityAcct.Key()

	if !authorityAcct.IsSigner() {
		klog.Errorf("authority account must be a signer")
		return InstrErrMissingRequiredSignature
	}

	authorityAcct.Drop()

	lookupTableAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}

	lookupTableData := lookupTableAcct.Data()
	lookupTableLamports := lookupTableAcct.Lamports()
	lookupTable, err := UnmarshalAddressLookupTable(lookupTableData)
	if err != nil {
		return InstrErrInvalidAccountData
	}

	if lookupTable.Meta.Authority == nil {
		return InstrErrImmutable
	}

	if *lookupTable.Meta.Authority != authorityKey {
		return InstrErrIncorrectAuthority
	}

	if !lookupTable.Meta.IsActive() {
		klog.Infof("deactivated tables cannot be extended")
		return AddrLookupTableErrAlreadyDeactivated
	}

	if len(lookupTable.Addresses) >= LookupTableMaxAddresses {
		klog.Infof("lookup table is full and cannot contain more addresses")
		return AddrLookupTableErrTableFull
	}

	if len(newAddresses) == 0 {
		klog.Infof("must extend with at least one address")
		return InstrErrInvalidInstructionData
	}

	newTableAddressesLen := safemath.SaturatingAddU64(uint64(len(lookupTable.Addresses)), uint64(len(newAddresses)))
	if newTableAddressesLen > LookupTableMaxAddresses {
		klog.Infof("extended lookup table length %d would exceed max capacity of %d", newTableAddressesLen, LookupTableMaxAddresses)
		return AddrLookupTableErrTableFull
	}

	clock, err := ReadClockSysvar(&execCtx.Accounts)
	if err != nil {
		return err
	}

	// only one extension batch may land per slot so that readers within
	// the slot observe a single consistent version of the table
	if clock.Slot == lookupTable.Meta.LastExtendedSlot && len(lookupTable.Addresses) != 0 {
		klog.Infof("lookup table was already extended in slot %d", clock.Slot)
		return AddrLookupTableErrSameSlotExtend
	}

	lookupTable.Meta.LastExtendedSlot = clock.Slot
	lookupTable.Meta.LastExtendedSlotStartIndex = byte(len(lookupTable.Addresses))

	newTableDataLen := AddressLookupTableMetaSize + (newTableAddressesLen * solana.PublicKeyLength)

	lookupTable.Addresses = append(lookupTable.Addresses, newAddresses...)

	err = setAddrTableLookupAccountStateWithExtension(lookupTableAcct, lookupTable, execCtx.GlobalCtx.Features)
	if err != nil {
		return err
	}
	lookupTableAcct.Drop()

	rent, err := ReadRentSysvar(&execCtx.Accounts)
	if err != nil {
		return err
	}

	minBalance := rent.MinimumBalance(newTableDataLen)
	if minBalance < 1 {
		minBalance = 1
	}
	requiredLamports := safemath.SaturatingSubU64(minBalance, lookupTableLamports)

	if requiredLamports > 0 {
		payerAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 2)
		if err != nil {
			return err
		}
		defer payerAcct.Drop()

		payerKey := payerAcct.Key()
		if !payerAcct.IsSigner() {
			klog.Errorf("payer account must be a signer")
			return InstrErrMissingRequiredSignature
		}
		payerAcct.Drop()

		txIx := newTransferInstruction(payerKey, tableKey, requiredLamports)
		err = execCtx.NativeInvoke(*txIx, []solana.PublicKey{payerKey})
		if err != nil {
			return err
		}
	}

	return nil
}

func AddressLookupTableDeactivateLookupTable(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext

	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	lookupTableAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer lookupTableAcct.Drop()

	if lookupTableAcct.Owner() != AddressLookupTableAddr {
		return InstrErrInvalidAccountOwner
	}

	lookupTableAcct.Drop()

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	authorityKey := authorityAcct.Key()

	if !authorityAcct.IsSigner() {
		klog.Errorf("authority account must be a signer")
		return InstrErrMissingRequiredSignature
	}

	authorityAcct.Drop()

	lookupTableAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}

	lookupTableData := lookupTableAcct.Data()
	lookupTable, err := UnmarshalAddressLookupTable(lookupTableData)
	if err != nil {
		return InstrErrInvalidAccountData
	}

	if lookupTable.Meta.Authority == nil {
		klog.Infof("lookup table is frozen")
		return InstrErrImmutable
	}

	if *lookupTable.Meta.Authority != authorityKey {
		return InstrErrIncorrectAuthority
	}

	if !lookupTable.Meta.IsActive() {
		klog.Infof("lookup table is already deactivated")
		return AddrLookupTableErrAlreadyDeactivated
	}

	clock, err := ReadClockSysvar(&execCtx.Accounts)
	if err != nil {
		return err
	}

	lookupTable.Meta.DeactivationSlot = clock.Slot
	err = setAddrTableLookupAccountState(lookupTableAcct, lookupTable, execCtx.GlobalCtx.Features)
	lookupTableAcct.Drop()

	return err
}

func AddressLookupTableCloseLookupTable(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext

	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	lookupTableAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer lookupTableAcct.Drop()

	if lookupTableAcct.Owner() != AddressLookupTableAddr {
		return InstrErrInvalidAccountOwner
	}

	lookupTableAcct.Drop()

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	authorityKey := authorityAcct.Key()

	if !authorityAcct.IsSigner() {
		klog.Errorf("authority did not sign")
		return InstrErrMissingRequiredSignature
	}

	authorityAcct.Drop()

	err = instrCtx.CheckNumOfInstructionAccounts(3)
	if err != nil {
		return err
	}

	isDuplicate, duplicateIdx, err := instrCtx.IsInstructionAccountDuplicate(2)
	if err != nil {
		return err
	}

	if isDuplicate && duplicateIdx == 0 {
		klog.Infof("lookup table cannot be the recipient of reclaimed lamports")
		return InstrErrInvalidArgument
	}

	lookupTableAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	withdrawnLamports := lookupTableAcct.Lamports()
	lookupTableData := lookupTableAcct.Data()

	lookupTable, err := UnmarshalAddressLookupTable(lookupTableData)
	if err != nil {
		return err
	}

	if lookupTable.Meta.Authority == nil {
		klog.Infof("lookup table is frozen")
		return InstrErrImmutable
	}

	if *lookupTable.Meta.Authority != authorityKey {
		return InstrErrIncorrectAuthority
	}

	clock, err := ReadClockSysvar(&execCtx.Accounts)
	if err != nil {
		return err
	}

	slotHashes, err := ReadSlotHashesSysvar(&execCtx.Accounts)
	if err != nil {
		return err
	}

	status := lookupTable.Meta.Status(clock.Slot, slotHashes)

	switch status.Status {
	case AddressLookupTableStatusTypeActivated:
		{
			klog.Infof("lookup table is not deactivated")
			return AddrLookupTableErrNotDeactivated
		}

	case AddressLookupTableStatusTypeDeactivating:
		{
			klog.Infof("table cannot be closed until it's fully deactivated in %d blocks", status.DeactivatingRemainingBlocks)
			return AddrLookupTableErrNotReady
		}
	}

	lookupTableAcct.Drop()

	recipientAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 2)
	if err != nil {
		return err
	}
	defer recipientAcct.Drop()

	err = recipientAcct.CheckedAddLamports(withdrawnLamports, execCtx.GlobalCtx.Features)
	if err != nil {
		return err
	}

	recipientAcct.Drop()

	lookupTableAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	err = lookupTableAcct.SetDataLength(0, execCtx.GlobalCtx.Features)
	if err != nil {
		return err
	}
	err = lookupTableAcct.SetLamports(0, execCtx.GlobalCtx.Features)
	lookupTableAcct.Drop()

	return err
}
