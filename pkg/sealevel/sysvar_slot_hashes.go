package sealevel

import (
	"bytes"
	"fmt"

	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/accounts"
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/base58"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const SysvarSlotHashesAddrStr = "SysvarS1otHashes111111111111111111111111111"

var SysvarSlotHashesAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarSlotHashesAddrStr))

// Maximum number of entries retained in the SlotHashes sysvar. A slot older
// than the oldest retained entry has aged out of the sysvar.
const SlotHashesMaxEntries = 512

type SlotHash struct {
	Slot uint64
	Hash [32]byte
}

type SysvarSlotHashes []SlotHash

func (sh *SysvarSlotHashes) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	hashesLen, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read length of SlotHashes vec when decoding SysvarSlotHashes: %w", err)
	}

	slotHashes := make(SysvarSlotHashes, 0, hashesLen)

	for count := 0; count < int(hashesLen); count++ {
		slot, err := decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Slot when decoding a SlotHash in SysvarSlotHashes: %w", err)
		}
		hash, err := decoder.ReadBytes(32)
		if err != nil {
			return fmt.Errorf("failed to read Hash when decoding a SlotHash in SysvarSlotHashes: %w", err)
		}
		slotHash := SlotHash{Slot: slot}
		copy(slotHash.Hash[:], hash)

		slotHashes = append(slotHashes, slotHash)
	}

	*sh = slotHashes
	return
}

func (sh *SysvarSlotHashes) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(uint64(len(*sh)), bin.LE)
	if err != nil {
		return err
	}

	for _, slotHash := range *sh {
		err = encoder.WriteUint64(slotHash.Slot, bin.LE)
		if err != nil {
			return err
		}
		err = encoder.WriteBytes(slotHash.Hash[:], false)
		if err != nil {
			return err
		}
	}

	return nil
}

// Get returns the hash recorded for slot, if the sysvar still retains it.
func (sh SysvarSlotHashes) Get(slot uint64) ([32]byte, bool) {
	for _, slotHash := range sh {
		if slotHash.Slot == slot {
			return slotHash.Hash, true
		}
	}
	return [32]byte{}, false
}

// Position returns the index of slot within the sysvar, newest first.
func (sh SysvarSlotHashes) Position(slot uint64) (uint64, bool) {
	for idx, slotHash := range sh {
		if slotHash.Slot == slot {
			return uint64(idx), true
		}
	}
	return 0, false
}

func ReadSlotHashesSysvar(accts *accounts.Accounts) (SysvarSlotHashes, error) {
	slotHashesSysvarAcct, err := (*accts).GetAccount(&SysvarSlotHashesAddr)
	if err != nil || slotHashesSysvarAcct == nil {
		return nil, InstrErrUnsupportedSysvar
	}

	dec := bin.NewBinDecoder(slotHashesSysvarAcct.Data)

	var slotHashes SysvarSlotHashes
	err = slotHashes.UnmarshalWithDecoder(dec)
	if err != nil {
		return nil, InstrErrUnsupportedSysvar
	}

	return slotHashes, nil
}

func WriteSlotHashesSysvar(accts *accounts.Accounts, slotHashes SysvarSlotHashes) {
	slotHashesSysvarAcct, err := (*accts).GetAccount(&SysvarSlotHashesAddr)
	if err != nil || slotHashesSysvarAcct == nil {
		panic("failed to read SlotHashes sysvar account")
	}

	buffer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buffer)

	err = slotHashes.MarshalWithEncoder(encoder)
	if err != nil {
		panic("failed to marshal SlotHashes sysvar")
	}

	slotHashesSysvarAcct.Data = buffer.Bytes()

	err = (*accts).SetAccount(&SysvarSlotHashesAddr, slotHashesSysvarAcct)
	if err != nil {
		panic("failed to write newly serialized SlotHashes sysvar to sysvar account")
	}
}
