package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kkaya/gmedash/internal/market"
)

// marketsCmd represents the markets command
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List supported markets",
	RunE:  listMarkets,
}

func init() {
	rootCmd.AddCommand(marketsCmd)
}

func listMarkets(cmd *cobra.Command, args []string) error {
	groups := []struct {
		label string
		typ   market.Type
	}{
		{"Electricity", market.TypeElectricity},
		{"Gas", market.TypeGas},
		{"Environmental", market.TypeEnvironmental},
	}

	for _, g := range groups {
		fmt.Printf("%s:\n", g.label)
		for _, spec := range market.ByType(g.typ) {
			fmt.Printf("  %-12s %s\n", spec.ID, spec.Name)
		}
		fmt.Println()
	}

	return nil
}
