package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/AkliluYirgalem/p-address-lookup-table/cmd/alt/derive"
	"github.com/AkliluYirgalem/p-address-lookup-table/cmd/alt/inspect"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "alt",
	Short: "address lookup table tooling",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		&inspect.Cmd,
		&derive.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
