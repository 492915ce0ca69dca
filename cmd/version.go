package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zcash/headerpow/common"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display headerpow version",
	Long:  `Display headerpow version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("headerpow version", common.Version)
	},
}
