package main

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jaspertzx/shardvault/internal/boundary"
)

var tokenListPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP file API",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var resolver boundary.TokenResolver
		if tokenListPath != "" {
			r, err := boundary.NewStaticTokenResolverFromFile(tokenListPath)
			if err != nil {
				log.Fatalf("Error loading token list: %v", err)
			}
			resolver = r
		} else {
			log.Warn("no --token-list configured; every request will be unauthorized")
			resolver = boundary.NewStaticTokenResolver(nil)
		}

		router := boundary.NewRouter(orch, resolver)
		log.Infof("listening on %s", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
			fmt.Printf("server exited: %v\n", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&tokenListPath, "token-list", "", "path to a bearer-token list file (owner_id token per line)")
	rootCmd.AddCommand(serveCmd)
}
