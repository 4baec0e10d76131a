package sealevel

import (
	"bytes"
	"math"

	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/safemath"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const LookupTableMaxAddresses = 256

// account states
const (
	AddressLookupTableProgramStateUninitialized = iota
	AddressLookupTableProgramStateLookupTable
)

// The serialized meta region always occupies this many bytes; the address
// array begins immediately after it.
const AddressLookupTableMetaSize = 56

type LookupTableMeta struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex byte
	Authority                  *solana.PublicKey
	Padding                    uint16
}

type AddressLookupTable struct {
	State     uint32
	Meta      LookupTableMeta
	Addresses []solana.PublicKey
}

type AddressLookupTableStatus struct {
	Status                      uint64
	DeactivatingRemainingBlocks uint64
}

// address lookup table statuses
const (
	AddressLookupTableStatusTypeActivated = iota
	AddressLookupTableStatusTypeDeactivating
	AddressLookupTableStatusTypeDeactivated
)

func (lookupTableMeta *LookupTableMeta) IsActive() bool {
	return lookupTableMeta.DeactivationSlot == math.MaxUint64
}

func (lookupTableMeta *LookupTableMeta) Status(currentSlot uint64, slotHashes SysvarSlotHashes) AddressLookupTableStatus {
	if lookupTableMeta.DeactivationSlot == math.MaxUint64 {
		return AddressLookupTableStatus{Status: AddressLookupTableStatusTypeActivated}
	} else if lookupTableMeta.DeactivationSlot == currentSlot {
		return AddressLookupTableStatus{Status: AddressLookupTableStatusTypeDeactivating, DeactivatingRemainingBlocks: SlotHashesMaxEntries + 1}
	} else if slotHashPosition, ok := slotHashes.Position(lookupTableMeta.DeactivationSlot); ok {
		return AddressLookupTableStatus{Status: AddressLookupTableStatusTypeDeactivating, DeactivatingRemainingBlocks: safemath.SaturatingSubU64(SlotHashesMaxEntries, slotHashPosition)}
	} else {
		return AddressLookupTableStatus{Status: AddressLookupTableStatusTypeDeactivated}
	}
}

func (lookupTableMeta *LookupTableMeta) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	lookupTableMeta.DeactivationSlot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	lookupTableMeta.LastExtendedSlot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	lookupTableMeta.LastExtendedSlotStartIndex, err = decoder.ReadByte()
	if err != nil {
		return err
	}

	hasAuthority, err := decoder.ReadBool()
	if err != nil {
		return err
	}

	if hasAuthority {
		authorityBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return err
		}

		authorityPk := solana.PublicKeyFromBytes(authorityBytes)
		lookupTableMeta.Authority = authorityPk.ToPointer()
	}

	lookupTableMeta.Padding, err = decoder.ReadUint16(bin.LE)
	return err
}

func (lookupTableMeta *LookupTableMeta) MarshalWithEncoder(encoder *bin.Encoder) error {
	var err error

	err = encoder.WriteUint64(lookupTableMeta.DeactivationSlot, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(lookupTableMeta.LastExtendedSlot, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteByte(lookupTableMeta.LastExtendedSlotStartIndex)
	if err != nil {
		return err
	}

	if lookupTableMeta.Authority != nil {
		err = encoder.WriteBool(true)
		if err != nil {
			return err
		}
		authority := *lookupTableMeta.Authority
		err = encoder.WriteBytes(authority[:], false)
		if err != nil {
			return err
		}
	} else {
		err = encoder.WriteBool(false)
		if err != nil {
			return err
		}
	}

	err = encoder.WriteUint16(lookupTableMeta.Padding, bin.LE)
	return err
}

func UnmarshalAddressLookupTable(data []byte) (*AddressLookupTable, error) {
	addrLookupTable := new(AddressLookupTable)
	decoder := bin.NewBinDecoder(data)

	state, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, InstrErrInvalidAccountData
	}

	if state != AddressLookupTableProgramStateLookupTable && state != AddressLookupTableProgramStateUninitialized {
		return nil, InstrErrInvalidAccountData
	}

	if state == AddressLookupTableProgramStateUninitialized {
		return nil, InstrErrUninitializedAccount
	}

	err = addrLookupTable.Meta.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, InstrErrInvalidAccountData
	}

	addrLookupTable.State = AddressLookupTableProgramStateLookupTable

	if len(data) < AddressLookupTableMetaSize {
		return nil, InstrErrInvalidAccountData
	}

	rawAddrData := data[AddressLookupTableMetaSize:]
	rawAddrDataLen := len(rawAddrData)

	if (rawAddrDataLen % solana.PublicKeyLength) != 0 {
		return nil, InstrErrInvalidAccountData
	}

	var addrs []solana.PublicKey

	for pos := 0; pos < rawAddrDataLen; pos += solana.PublicKeyLength {
		pkBytes := rawAddrData[pos : pos+solana.PublicKeyLength]
		pk := solana.PublicKeyFromBytes(pkBytes)
		addrs = append(addrs, pk)
	}

	addrLookupTable.Addresses = addrs

	return addrLookupTable, nil
}

func MarshalAddressLookupTable(addrLookupTable *AddressLookupTable) ([]byte, error) {
	buffer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buffer)

	err := encoder.WriteUint32(addrLookupTable.State, bin.LE)
	if err != nil {
		return nil, err
	}

	// nothing else to serialize up for an uninitialized account state
	if addrLookupTable.State == AddressLookupTableProgramStateUninitialized {
		return buffer.Bytes(), nil
	}

	err = addrLookupTable.Meta.MarshalWithEncoder(encoder)
	if err != nil {
		return nil, err
	}

	// the meta region is fixed-size; a cleared authority leaves the key
	// bytes zeroed rather than shifting the address array
	for buffer.Len() < AddressLookupTableMetaSize {
		err = encoder.WriteByte(0)
		if err != nil {
			return nil, err
		}
	}

	for _, addr := range addrLookupTable.Addresses {
		pkBytes := addr[:]
		err = encoder.WriteBytes(pkBytes, false)
		if err != nil {
			return nil, err
		}
	}

	return buffer.Bytes(), nil
}
