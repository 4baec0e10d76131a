package global

import (
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/accounts"
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/features"
)

type GlobalCtx struct {
	Accounts *accounts.Accounts
	Leader   [32]byte
	Features features.Features
}

func NewGlobalCtxDefault() *GlobalCtx {
	features := features.NewFeaturesDefault()
	return &GlobalCtx{Features: *features}
}
