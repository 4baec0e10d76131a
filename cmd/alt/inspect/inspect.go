package inspect

import (
	"fmt"
	"math"
	"os"

	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/accounts"
	"github.com/AkliluYirgalem/p-address-lookup-table/pkg/sealevel"
	bin "github.com/gagliardetto/binary"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "inspect",
		Short: "Decode and print a lookup table account image",
		Run:   run,
	}

	path string
	slot int64
)

func init() {
	Cmd.Flags().StringVarP(&path, "path", "p", "", "Path of the raw account data file")
	Cmd.Flags().Int64VarP(&slot, "slot", "s", -1, "Current slot, for reporting deactivation progress")
}

func run(c *cobra.Command, _ []string) {
	if path == "" {
		klog.Exit("no account data file path specified")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		klog.Exitf("unable to read account data file: %s", err)
	}

	table, err := sealevel.UnmarshalAddressLookupTable(data)
	if err != nil {
		// not a raw table image; try a serialized account wrapper
		var acct accounts.Account
		decoder := bin.NewBinDecoder(data)
		if acctErr := acct.UnmarshalWithDecoder(decoder); acctErr != nil {
			klog.Exitf("unable to decode lookup table account: %s", err)
		}
		table, err = sealevel.UnmarshalAddressLookupTable(acct.Data)
		if err != nil {
			klog.Exitf("unable to decode lookup table account: %s", err)
		}
		fmt.Printf("owner: %s\n", acct.Owner)
		fmt.Printf("lamports: %d\n", acct.Lamports)
	}

	if table.Meta.Authority != nil {
		fmt.Printf("authority: %s\n", table.Meta.Authority)
	} else {
		fmt.Println("authority: none (frozen)")
	}

	if table.Meta.DeactivationSlot == math.MaxUint64 {
		fmt.Println("deactivation slot: none (active)")
	} else {
		fmt.Printf("deactivation slot: %d\n", table.Meta.DeactivationSlot)
	}

	fmt.Printf("last extended slot: %d\n", table.Meta.LastExtendedSlot)
	fmt.Printf("last extended slot start index: %d\n", table.Meta.LastExtendedSlotStartIndex)

	fmt.Printf("addresses (%d):\n", len(table.Addresses))
	for idx, addr := range table.Addresses {
		fmt.Printf("  %3d: %s\n", idx, addr)
	}

	if slot >= 0 {
		// approximate the slot hashes sysvar with a fully populated window
		// ending at the given slot; the exact deactivation cutoff depends on
		// the sysvar contents, which an offline account image does not carry
		var slotHashes sealevel.SysvarSlotHashes
		for s := uint64(slot); s > 0 && uint64(slot)-s < sealevel.SlotHashesMaxEntries; s-- {
			slotHashes = append(slotHashes, sealevel.SlotHash{Slot: s - 1})
		}

		status := table.Meta.Status(uint64(slot), slotHashes)
		switch status.Status {
		case sealevel.AddressLookupTableStatusTypeActivated:
			fmt.Println("status: active")
		case sealevel.AddressLookupTableStatusTypeDeactivating:
			fmt.Printf("status: deactivating (%d blocks remaining)\n", status.DeactivatingRemainingBlocks)
		case sealevel.AddressLookupTableStatusTypeDeactivated:
			fmt.Println("status: deactivated")
		}
	}
}
