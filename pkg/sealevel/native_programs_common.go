package sealevel

import (
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/base58"
	"github.com/gagliardetto/solana-go"
)

const NativeLoaderAddrStr = "NativeLoader1111111111111111111111111111111"

var NativeLoaderAddr = solana.PublicKey(base58.MustDecodeFromString(NativeLoaderAddrStr))

const SystemProgramAddrStr = "11111111111111111111111111111111"

var SystemProgramAddr = solana.PublicKey(base58.MustDecodeFromString(SystemProgramAddrStr))

const AddressLookupTableAddrStr = "AddressLookupTab1e1111111111111111111111111"

var AddressLookupTableAddr = solana.PublicKey(base58.MustDecodeFromString(AddressLookupTableAddrStr))

func resolveNativeProgramById(programId solana.PublicKey) (func(ctx *ExecutionCtx) error, error) {
	switch programId {
	case SystemProgramAddr:
		return SystemProgramExecute, nil
	case AddressLookupTableAddr:
		return AddressLookupTableExecute, nil
	}

	return nil, InstrErrUnsupportedProgramId
}

func verifySigner(authorized solana.PublicKey, signers []solana.PublicKey) error {
	for _, signer := range signers {
		if signer == authorized {
			return nil
		}
	}
	return InstrErrMissingRequiredSignature
}
