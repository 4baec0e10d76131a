package sealevel

import (
	"bytes"
	"fmt"

	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/accounts"
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/base58"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const SysvarClockAddrStr = "SysvarC1ock11111111111111111111111111111111"

var SysvarClockAddr = solana.PublicKey(base58.MustDecodeFromString(SysvarClockAddrStr))

const SysvarClockStructLen = 40

type SysvarClock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       int64
}

func (sc *SysvarClock) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	sc.Slot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Slot when decoding SysvarClock: %w", err)
	}

	sc.EpochStartTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read EpochStartTimestamp when decoding SysvarClock: %w", err)
	}

	sc.Epoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Epoch when decoding SysvarClock: %w", err)
	}

	sc.LeaderScheduleEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LeaderScheduleEpoch when decoding SysvarClock: %w", err)
	}

	sc.UnixTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read UnixTimestamp when decoding SysvarClock: %w", err)
	}
	return
}

func (sc *SysvarClock) MarshalWithEncoder(encoder *bin.Encoder) error {
	var err error

	err = encoder.WriteUint64(sc.Slot, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteInt64(sc.EpochStartTimestamp, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(sc.Epoch, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(sc.LeaderScheduleEpoch, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteInt64(sc.UnixTimestamp, bin.LE)
}

func ReadClockSysvar(accts *accounts.Accounts) (SysvarClock, error) {
	var clock SysvarClock

	clockAcct, err := (*accts).GetAccount(&SysvarClockAddr)
	if err != nil || clockAcct == nil {
		return clock, InstrErrUnsupportedSysvar
	}

	dec := bin.NewBinDecoder(clockAcct.Data)
	err = clock.UnmarshalWithDecoder(dec)
	if err != nil {
		return clock, InstrErrUnsupportedSysvar
	}

	return clock, nil
}

func WriteClockSysvar(accts *accounts.Accounts, clock SysvarClock) {
	clockAcct, err := (*accts).GetAccount(&SysvarClockAddr)
	if err != nil || clockAcct == nil {
		panic("failed to read clock sysvar account")
	}

	buffer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buffer)

	err = clock.MarshalWithEncoder(encoder)
	if err != nil {
		panic("failed to marshal clock sysvar")
	}

	clockAcct.Data = buffer.Bytes()

	err = (*accts).SetAccount(&SysvarClockAddr, clockAcct)
	if err != nil {
		panic("failed to write newly serialized clock sysvar to sysvar account")
	}
}
