package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaspertzx/shardvault/internal/debugstore"
)

var rawLocation string

var rawPutCmd = &cobra.Command{
	Use:   "raw-put [file-path] [name]",
	Short: "Diagnostics: write a file to one backend location directly, bypassing erasure coding",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		filePath, name := args[0], args[1]

		adapter, err := placer.GetAdapterForLocation(rawLocation)
		if err != nil {
			fmt.Printf("Error resolving backend location %s: %v\n", rawLocation, err)
			return
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Printf("Error reading file: %v\n", err)
			return
		}

		if err := debugstore.New(adapter).Put(context.Background(), name, data); err != nil {
			fmt.Printf("Error writing raw blob: %v\n", err)
			return
		}
		fmt.Printf("Wrote %s directly to %s as %s\n", filePath, rawLocation, name)
	},
}

var rawGetCmd = &cobra.Command{
	Use:   "raw-get [name] [output-path]",
	Short: "Diagnostics: read a blob from one backend location directly, bypassing erasure coding",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		name, outputPath := args[0], args[1]

		adapter, err := placer.GetAdapterForLocation(rawLocation)
		if err != nil {
			fmt.Printf("Error resolving backend location %s: %v\n", rawLocation, err)
			return
		}

		data, err := debugstore.New(adapter).Get(context.Background(), name)
		if err != nil {
			fmt.Printf("Error reading raw blob: %v\n", err)
			return
		}

		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Printf("Error writing output file: %v\n", err)
			return
		}
		fmt.Printf("Read %s from %s -> %s\n", name, rawLocation, outputPath)
	},
}

func init() {
	rawPutCmd.Flags().StringVar(&rawLocation, "location", "", "backend location name to target directly")
	rawGetCmd.Flags().StringVar(&rawLocation, "location", "", "backend location name to target directly")
	rootCmd.AddCommand(rawPutCmd)
	rootCmd.AddCommand(rawGetCmd)
}
