package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ownerID string

var uploadCmd = &cobra.Command{
	Use:   "upload [file-path] [filename]",
	Short: "Erasure-code and upload a file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		filePath, filename := args[0], args[1]

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Printf("Error reading file: %v\n", err)
			return
		}

		if err := orch.Upload(context.Background(), ownerID, filename, data); err != nil {
			fmt.Printf("Error uploading file: %v\n", err)
			return
		}
		fmt.Printf("File uploaded successfully: %s -> %s\n", filePath, filename)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [filename] [output-path]",
	Short: "Reconstruct and download a file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		filename, outputPath := args[0], args[1]

		data, err := orch.Retrieve(context.Background(), ownerID, filename)
		if err != nil {
			fmt.Printf("Error retrieving file: %v\n", err)
			return
		}

		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Printf("Error writing file: %v\n", err)
			return
		}
		fmt.Printf("File downloaded successfully: %s -> %s\n", filename, outputPath)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [filename]",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		if err := orch.Delete(context.Background(), ownerID, filename); err != nil {
			fmt.Printf("Error deleting file: %v\n", err)
			return
		}
		fmt.Printf("File deleted successfully: %s\n", filename)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List owned files and their shard health",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		infos, err := orch.List(context.Background(), ownerID)
		if err != nil {
			fmt.Printf("Error listing files: %v\n", err)
			return
		}
		for _, info := range infos {
			fmt.Printf("%s\t%d bytes\t%d/%d shards retrievable\n",
				info.OriginalFilename, info.OriginalFileSize, info.ShardsRetrievable, info.ShardsTotal)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "cli", "owner_id to operate as")
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
}
