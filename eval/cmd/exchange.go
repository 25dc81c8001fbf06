package cmd

import (
	"log"

	"github.com/andydunstall/dgram/eval/pkg/exchange"
	"github.com/spf13/cobra"
)

var pairs int

func init() {
	exchangeCmd.Flags().IntVar(&pairs, "pairs", 8, "number of transport pairs to exchange concurrently")
	rootCmd.AddCommand(exchangeCmd)
}

var exchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Run concurrent connect exchanges between transport pairs",
	Run: func(cmd *cobra.Command, args []string) {
		if err := exchange.Run(pairs); err != nil {
			log.Fatalf("exchange failed: %v", err)
		}
	},
}
