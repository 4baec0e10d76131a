package features

import (
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/base58"
)

var RelaxAuthoritySignerCheckForLookupTableCreation = FeatureGate{Name: "RelaxAuthoritySignerCheckForLookupTableCreation", Address: base58.MustDecodeFromString("FKAcEvNgSY79RpqsPNUV5gDyumopH4cEHqUxyfm8b8Ap")}

func AllFeatureGates() []FeatureGate {
	return []FeatureGate{
		RelaxAuthoritySignerCheckForLookupTableCreation,
	}
}
