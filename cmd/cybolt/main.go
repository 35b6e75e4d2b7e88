// Package main provides cybolt's command-line entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orneryd/cybolt/internal/boltclient"
	cfgpkg "github.com/orneryd/cybolt/internal/config"
	"github.com/orneryd/cybolt/internal/importer"
	"github.com/orneryd/cybolt/internal/logx"
	"github.com/orneryd/cybolt/internal/repl"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	os.Exit(run())
}

func run() int {
	var flagConfigPath string

	rootCmd := &cobra.Command{
		Use:   "cybolt",
		Short: "cybolt - a Cypher import client for Bolt-speaking graph databases",
		Long: `cybolt ingests a stream of Cypher statements and drives them into a
remote graph database over the Bolt wire protocol, either one statement at a
time, as a bounded worker pool of parallel batched transactions, or as a
dry-run classification pass with no database connection at all.`,
	}
	registerConfigFlags(rootCmd, &flagConfigPath)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cybolt %s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newReplCmd(&flagConfigPath))
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newImportCmd(&flagConfigPath))

	if err := rootCmd.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return 0
}

func registerConfigFlags(cmd *cobra.Command, configPath *string) {
	cmd.PersistentFlags().String("host", "", "database host (overrides config/env)")
	cmd.PersistentFlags().Int("port", 0, "database port (overrides config/env)")
	cmd.PersistentFlags().String("user", "", "username")
	cmd.PersistentFlags().String("password", "", "password")
	cmd.PersistentFlags().Bool("ssl", false, "use TLS")
	cmd.PersistentFlags().Int("batch-size", 0, "statements per Batch")
	cmd.PersistentFlags().Int("workers", 0, "worker pool size / max in-flight Batches")
	cmd.PersistentFlags().Int("max-batches", 0, "memory-bounded import window, in Batches")
	cmd.PersistentFlags().StringVar(configPath, "config", "", "path to cybolt.yaml")
}

func loadConfig(cmd *cobra.Command, configPath string) (*cfgpkg.Config, error) {
	path := configPath
	if path == "" {
		path = cfgpkg.FindConfigFile()
	}

	var cfg *cfgpkg.Config
	var err error
	if path != "" {
		cfg, err = cfgpkg.LoadFromFile(path)
	} else {
		cfg = cfgpkg.LoadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", importer.ErrConfiguration, err)
	}

	applyFlagOverrides(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", importer.ErrConfiguration, err)
	}
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *cfgpkg.Config) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("host"); v != "" {
		cfg.Host = v
	}
	if v, _ := flags.GetInt("port"); v != 0 {
		cfg.Port = v
	}
	if v, _ := flags.GetString("user"); v != "" {
		cfg.Username = v
	}
	if v, _ := flags.GetString("password"); v != "" {
		cfg.Password = v
	}
	if v, _ := flags.GetBool("ssl"); v {
		cfg.UseSSL = v
	}
	if v, _ := flags.GetInt("batch-size"); v != 0 {
		cfg.BatchSize = v
	}
	if v, _ := flags.GetInt("workers"); v != 0 {
		cfg.Workers = v
	}
	if v, _ := flags.GetInt("max-batches"); v != 0 {
		cfg.MaxBatches = v
	}
}

func boltConfigFrom(cfg *cfgpkg.Config) boltclient.Config {
	return boltclient.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		UseSSL:   cfg.UseSSL,
	}
}

func newReplCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive Cypher shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			log := logx.Default()
			sh := repl.New(boltConfigFrom(cfg), os.Stdout, log)
			return sh.Run(signalContext())
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Classify stdin as a dry run, without connecting to a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logx.Default()
			_, err := importer.RunParse(os.Stdin, log)
			return err
		},
	}
}

func newImportCmd(configPath *string) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import Cypher statements from stdin",
	}

	importCmd.AddCommand(&cobra.Command{
		Use:   "serial",
		Short: "Run every statement one at a time on a single session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			log := logx.Default()
			return importer.RunSerial(signalContext(), os.Stdin, boltConfigFrom(cfg), os.Stdout, log)
		},
	})

	importCmd.AddCommand(&cobra.Command{
		Use:   "parallel",
		Short: "Run statements as bucketed, bounded-parallel Batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			log := logx.Default()
			return importer.RunBatchedParallel(signalContext(), os.Stdin, boltConfigFrom(cfg), cfg.BatchSize, cfg.Workers, cfg.MaxBatches, log)
		},
	})

	return importCmd
}

// signalContext returns a context cancelled on SIGINT/SIGTERM: workers
// finish their current statement and the scheduler unwinds with a non-zero
// exit code.
func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}

// exitCodeFor maps an importer error to cybolt's exit codes: 0 on success,
// 1 on any fatal error (connection, configuration, or I/O).
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
