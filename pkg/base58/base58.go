package base58

import (
	"fmt"

	"github.com/mr-tron/base58"
)

func DecodeFromString(in string) ([32]byte, error) {
	var out [32]byte

	decoded, err := base58.Decode(in)
	if err != nil {
		return out, err
	}

	if len(decoded) != 32 {
		return out, fmt.Errorf("invalid address length %d for %s", len(decoded), in)
	}

	copy(out[:], decoded)
	return out, nil
}

func MustDecodeFromString(in string) [32]byte {
	out, err := DecodeFromString(in)
	if err != nil {
		panic(err.Error())
	}
	return out
}

func EncodeToString(in [32]byte) string {
	return base58.Encode(in[:])
}
