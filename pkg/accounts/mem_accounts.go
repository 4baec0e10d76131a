package accounts

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var ErrNoAccount = errors.New("no account found")

type MemAccounts struct {
	Map map[solana.PublicKey]*Account
}

func NewMemAccounts() MemAccounts {
	return MemAccounts{
		Map: make(map[solana.PublicKey]*Account),
	}
}

func (m MemAccounts) GetAccount(pubkey *solana.PublicKey) (*Account, error) {
	acct, exists := m.Map[*pubkey]
	if !exists {
		return nil, ErrNoAccount
	}
	return acct, nil
}

func (m MemAccounts) SetAccount(pubkey *solana.PublicKey, acc *Account) error {
	m.Map[*pubkey] = acc
	return nil
}
