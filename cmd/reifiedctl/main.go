package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/reified-portal/client"
	"github.com/Cogwheel-Validator/reified-portal/config"
	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/keplr"
	"github.com/Cogwheel-Validator/reified-portal/keystore"
	"github.com/Cogwheel-Validator/reified-portal/lcd"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/portal"
	"github.com/Cogwheel-Validator/reified-portal/query"
	"github.com/Cogwheel-Validator/reified-portal/tx"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
)

var (
	configPath string
	verbose    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reifiedctl",
		Short: "Create NFT collections and mint tokens on Cudos",
		Long: `reifiedctl issues NFT collections (denoms) and mints tokens into them
from the terminal, signing with a local encrypted keystore.

Examples:
  # Create a key
  reifiedctl keys add alice

  # List the collections of the chain
  reifiedctl denoms list --config reified.toml

  # Walk through creating a collection and minting into it
  reifiedctl mint-flow --config reified.toml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"TOML config file, environment variables with the REIFIED_ prefix when empty")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log chain requests")

	cmd.AddCommand(
		newKeysCmd(),
		newDenomsCmd(),
		newCollectionCmd(),
		newIssueCmd(),
		newMintCmd(),
		newMintFlowCmd(),
		newChainInfoCmd(),
	)
	return cmd
}

// setupLogging keeps the library loggers quiet unless --verbose is set, the
// terminal belongs to the prompts.
func setupLogging() {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	lcd.SetLogger(logger)
	query.SetLogger(logger)
	tx.SetLogger(logger)
	wallet.SetLogger(logger)
	keystore.SetLogger(logger)
	client.SetLogger(logger)
	form.SetLogger(logger)
	portal.SetLogger(logger)
	keplr.SetLogger(logger)
}

// openPortal loads the configuration and builds the portal, asking for the
// keystore password when the configuration has none.
func openPortal(needWallet bool) (*portal.Stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if !needWallet {
		cfg.Wallet.Keystore = ""
	}
	if cfg.Wallet.Keystore != "" && cfg.Wallet.Password == "" {
		if cfg.Wallet.Password, err = promptPassword("Keystore password"); err != nil {
			return nil, err
		}
	}

	var approver wallet.Approver = wallet.NewPromptApprover()
	if cfg.Wallet.AutoApprove {
		approver = wallet.AutoApprove{}
	}
	return portal.FromConfig(cfg, approver)
}

func promptPassword(label string) (string, error) {
	prompt := promptui.Prompt{Label: label, Mask: '*'}
	return prompt.Run()
}

// printError prints field errors of a rejected form one per line and any
// other error as is.
func printError(err error) {
	var validationErr *form.ValidationError
	var submissionErr *nft.SubmissionError
	switch {
	case errors.As(err, &validationErr):
		fields := make([]string, 0, len(validationErr.Fields))
		for field := range validationErr.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			for _, message := range validationErr.Fields[field] {
				fmt.Printf("  %s %s\n", color.YellowString(field+":"), message)
			}
		}
	case errors.As(err, &submissionErr):
		fmt.Printf("  %s %s\n", color.RedString("Rejected by the chain:"), submissionErr.Log)
		if submissionErr.TxHash != "" {
			fmt.Printf("  Tx hash: %s\n", submissionErr.TxHash)
		}
	default:
		fmt.Printf("  %s\n", color.RedString(err.Error()))
	}
}
