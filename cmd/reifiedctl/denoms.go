package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/reified-portal/keplr"
	"github.com/Cogwheel-Validator/reified-portal/nft"
)

var (
	listCreator   string
	showOwner     string
	queryTimeout  time.Duration
	registryDst   string
	registrySrc   string
	registryChain string
)

func newDenomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "denoms",
		Short: "Query NFT collections",
	}
	cmd.PersistentFlags().DurationVar(&queryTimeout, "timeout", 30*time.Second, "Query timeout")

	list := &cobra.Command{
		Use:   "list",
		Short: "List collections, optionally only those of one creator",
		Args:  cobra.NoArgs,
		RunE:  runDenomsList,
	}
	list.Flags().StringVar(&listCreator, "creator", "", "Only list collections created by this address")

	show := &cobra.Command{
		Use:   "show <denom-id>",
		Short: "Show one collection and its supply",
		Args:  cobra.ExactArgs(1),
		RunE:  runDenomsShow,
	}

	cmd.AddCommand(list, show)
	return cmd
}

func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection <denom-id>",
		Short: "Show the tokens of a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollection,
	}
	cmd.Flags().StringVar(&showOwner, "owner", "", "Only show tokens owned by this address")
	cmd.Flags().DurationVar(&queryTimeout, "timeout", 30*time.Second, "Query timeout")
	return cmd
}

func newChainInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain-info",
		Short: "Download the Keplr chain registry and print a chain's entry",
		Args:  cobra.NoArgs,
		RunE:  runChainInfo,
	}
	cmd.Flags().StringVar(&registrySrc, "src", keplr.RegistrySource, "go-getter source of the registry")
	cmd.Flags().StringVar(&registryDst, "dst", "keplr-registry", "Download directory")
	cmd.Flags().StringVar(&registryChain, "chain-id", "cudos-1", "Chain to print")
	return cmd
}

func runDenomsList(cmd *cobra.Command, args []string) error {
	stack, err := openPortal(false)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	var denoms []nft.Denom
	if listCreator != "" {
		denoms, err = stack.Portal.CollectionsOf(ctx, listCreator)
	} else {
		denoms, err = stack.Portal.AllDenoms(ctx)
	}
	if err != nil {
		return err
	}
	if len(denoms) == 0 {
		color.Yellow("No collections found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSYMBOL\tCREATOR")
	for _, d := range denoms {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Symbol, d.Creator)
	}
	return w.Flush()
}

func runDenomsShow(cmd *cobra.Command, args []string) error {
	stack, err := openPortal(false)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	denom, err := stack.Portal.Denom(ctx, args[0])
	if err != nil {
		return err
	}
	supply, err := stack.Portal.Supply(ctx, denom.ID)
	if err != nil {
		return err
	}

	fmt.Printf("ID:      %s\n", color.CyanString(denom.ID))
	fmt.Printf("Name:    %s\n", denom.Name)
	fmt.Printf("Symbol:  %s\n", denom.Symbol)
	fmt.Printf("Creator: %s\n", denom.Creator)
	if denom.Schema != "" {
		fmt.Printf("Schema:  %s\n", denom.Schema)
	}
	fmt.Printf("Supply:  %d\n", supply)
	return nil
}

func runCollection(cmd *cobra.Command, args []string) error {
	stack, err := openPortal(false)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	var tokens []nft.Nft
	if showOwner != "" {
		tokens, err = stack.Portal.AssetsOf(ctx, args[0], showOwner)
	} else {
		var collection nft.Collection
		collection, err = stack.Portal.Collection(ctx, args[0])
		tokens = collection.NFTs
	}
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		color.Yellow("No tokens found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tOWNER\tURI")
	for _, t := range tokens {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Owner, t.URI)
	}
	return w.Flush()
}

func runChainInfo(cmd *cobra.Command, args []string) error {
	if err := keplr.FetchRegistry(cmd.Context(), registrySrc, registryDst); err != nil {
		return err
	}
	info, err := keplr.LoadChainInfo(registryDst, registryChain)
	if err != nil {
		return err
	}

	fmt.Printf("Chain:     %s (%s)\n", color.CyanString(info.ChainID), info.ChainName)
	fmt.Printf("RPC:       %s\n", info.RPC)
	fmt.Printf("REST:      %s\n", info.Rest)
	fmt.Printf("Prefix:    %s\n", info.Bech32Prefix())
	fmt.Printf("Coin type: %d\n", info.Bip44.CoinType)
	if gasPrice, err := info.DefaultGasPrice(); err == nil {
		fmt.Printf("Gas price: %s\n", gasPrice)
	}
	return nil
}
