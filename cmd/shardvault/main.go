package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jaspertzx/shardvault/internal/backend"
	"github.com/jaspertzx/shardvault/internal/codec"
	"github.com/jaspertzx/shardvault/internal/config"
	"github.com/jaspertzx/shardvault/internal/logging"
	"github.com/jaspertzx/shardvault/internal/metadata"
	"github.com/jaspertzx/shardvault/internal/orchestrator"
	"github.com/jaspertzx/shardvault/internal/placement"
)

var (
	cfg     *config.Config
	orch    *orchestrator.ShardOrchestrator
	factory *backend.Factory
	placer  placement.Placer

	configPath string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "shardvault",
	Short: "CLI for the erasure-coded object store",
	Long:  "A CLI application for uploading, retrieving, listing, and deleting files stored with Reed-Solomon erasure coding across multiple backends",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress bars")
	cobra.OnInitialize(initApp)
}

// initApp wires cfg, logging, the Codec, the backend Placer, and the
// ShardOrchestrator from configuration. Run once via cobra.OnInitialize,
// before any subcommand's Run.
func initApp() {
	var err error
	cfg, err = config.LoadConfig(configPath, rootCmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	logging.InitLogger(cfg)

	c, err := codec.New(cfg.DataShards, cfg.ParityShards)
	if err != nil {
		log.Fatalf("Error constructing codec: %v", err)
	}

	factory = backend.NewFactory(cfg.AwsConfig, cfg.GcsClient, quiet)

	p := placement.NewRoundRobinPlacer()
	if len(cfg.BackendLocations) > 0 {
		adapters, err := factory.Build(cfg.BackendLocations)
		if err != nil {
			log.Fatalf("Error building backend adapters: %v", err)
		}
		for i, loc := range cfg.BackendLocations {
			if err := p.RegisterLocation(loc.Name, adapters[i]); err != nil {
				log.Fatalf("Error registering backend location %s: %v", loc.Name, err)
			}
		}
	}
	placer = p

	store, err := metadata.Open(cfg.MetadataDSN)
	if err != nil {
		log.Fatalf("Error connecting to metadata store: %v", err)
	}

	orch = orchestrator.New(c, placer, store, cfg.WorkerPoolSize, cfg.PerCallTimeout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
