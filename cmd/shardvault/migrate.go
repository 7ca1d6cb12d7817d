package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspertzx/shardvault/internal/metadata"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending metadata store schema migrations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// metadata.Open runs any pending migrations as a side effect of
		// connecting, so there is nothing further to drive here.
		store, err := metadata.Open(cfg.MetadataDSN)
		if err != nil {
			fmt.Printf("Error running migrations: %v\n", err)
			return
		}
		defer store.Close()
		fmt.Println("Metadata store schema is up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
