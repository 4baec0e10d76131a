package sealevel

import (
	"bytes"
	"fmt"

	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/accounts"
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/base58"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const SysvarRentAddrStr = "SysvarRent111111111111111111111111111111111"

var SysvarRentAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarRentAddrStr))

const SysvarRentStructLen = 17

// account storage overhead for the cost of maintaining the account metadata
const RentAccountStorageOverhead = 128

type SysvarRent struct {
	LamportsPerUint8Year uint64
	ExemptionThreshold   float64
	BurnPercent          byte
}

func (sr *SysvarRent) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	sr.LamportsPerUint8Year, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LamportsPerUint8Year when decoding SysvarRent: %w", err)
	}

	sr.ExemptionThreshold, err = decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExemptionThreshold when decoding SysvarRent: %w", err)
	}

	sr.BurnPercent, err = decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read BurnPercent when decoding SysvarRent: %w", err)
	}

	return
}

func (sr *SysvarRent) MarshalWithEncoder(encoder *bin.Encoder) error {
	var err error

	err = encoder.WriteUint64(sr.LamportsPerUint8Year, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteFloat64(sr.ExemptionThreshold, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteByte(sr.BurnPercent)
}

func (sr *SysvarRent) MinimumBalance(dataLen uint64) uint64 {
	return uint64(float64((RentAccountStorageOverhead+dataLen)*sr.LamportsPerUint8Year) * sr.ExemptionThreshold)
}

func (sr *SysvarRent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= sr.MinimumBalance(dataLen)
}

func ReadRentSysvar(accts *accounts.Accounts) (SysvarRent, error) {
	var rent SysvarRent

	rentAcct, err := (*accts).GetAccount(&SysvarRentAddr)
	if err != nil || rentAcct == nil {
		return rent, InstrErrUnsupportedSysvar
	}

	dec := bin.NewBinDecoder(rentAcct.Data)
	err = rent.UnmarshalWithDecoder(dec)
	if err != nil {
		return rent, InstrErrUnsupportedSysvar
	}

	return rent, nil
}

func WriteRentSysvar(accts *accounts.Accounts, rent SysvarRent) {
	rentAcct, err := (*accts).GetAccount(&SysvarRentAddr)
	if err != nil || rentAcct == nil {
		panic("failed to read rent sysvar account")
	}

	buffer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buffer)

	err = rent.MarshalWithEncoder(encoder)
	if err != nil {
		panic("failed to marshal rent sysvar")
	}

	rentAcct.Data = buffer.Bytes()

	err = (*accts).SetAccount(&SysvarRentAddr, rentAcct)
	if err != nil {
		panic("failed to write newly serialized rent sysvar to sysvar account")
	}
}
