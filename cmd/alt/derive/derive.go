package derive

import (
	"fmt"

	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "derive",
		Short: "Derive a lookup table address from an authority and a slot",
		Run:   run,
	}

	authority string
	slot      uint64
)

func init() {
	Cmd.Flags().StringVarP(&authority, "authority", "a", "", "Base58 authority address")
	Cmd.Flags().Uint64VarP(&slot, "slot", "s", 0, "Recent slot used in the derivation")
}

func run(c *cobra.Command, _ []string) {
	if authority == "" {
		klog.Exit("no authority address specified")
	}

	authorityAddr, err := solana.PublicKeyFromBase58(authority)
	if err != nil {
		klog.Exitf("invalid authority address: %s", err)
	}

	tableAddr, bumpSeed, err := sealevel.DeriveLookupTableAddress(authorityAddr, slot)
	if err != nil {
		klog.Exitf("unable to derive lookup table address: %s", err)
	}

	fmt.Printf("lookup table address: %s\n", tableAddr)
	fmt.Printf("bump seed: %d\n", bumpSeed)
}
