package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/portal"
	"github.com/Cogwheel-Validator/reified-portal/workflow"
)

var (
	denomForm form.DenomForm
	nftForm   form.NftForm
	flowDenom string
)

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Create a collection",
		Args:  cobra.NoArgs,
		RunE:  runIssue,
	}
	cmd.Flags().StringVar(&denomForm.DenomID, "id", "", "Collection id, 4 to 8 alphanumeric characters")
	cmd.Flags().StringVar(&denomForm.Name, "name", "", "Collection name")
	cmd.Flags().StringVar(&denomForm.Symbol, "symbol", "", "Collection symbol")
	cmd.Flags().StringVar(&denomForm.Description, "description", "", "Collection description")
	return cmd
}

func newMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint <denom-id>",
		Short: "Mint a token into a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runMint,
	}
	cmd.Flags().StringVar(&nftForm.Name, "name", "", "Token name")
	cmd.Flags().StringVar(&nftForm.URI, "uri", "", "Token URI")
	cmd.Flags().StringVar(&nftForm.Data, "data", "", "Token data")
	cmd.Flags().StringVar(&nftForm.Recipient, "recipient", "", "Mint to this address instead of the wallet's")
	return cmd
}

func newMintFlowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint-flow",
		Short: "Create a collection and mint tokens into it, step by step",
		Args:  cobra.NoArgs,
		RunE:  runMintFlow,
	}
	cmd.Flags().StringVar(&flowDenom, "denom", "", "Skip creation and mint into this existing collection")
	return cmd
}

// connect opens the portal and connects its wallet.
func connect(ctx context.Context) (*portal.Stack, error) {
	stack, err := openPortal(true)
	if err != nil {
		return nil, err
	}
	account, err := stack.Portal.ConnectWallet(ctx)
	if err != nil {
		stack.Close()
		return nil, err
	}
	fmt.Printf("Connected as %s (%s)\n", color.CyanString(account.Username), account.Address)
	return stack, nil
}

func runIssue(cmd *cobra.Command, args []string) error {
	stack, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer stack.Close()

	if err := stack.Portal.ValidateDenom(cmd.Context(), denomForm).Err(); err != nil {
		printError(err)
		return errors.New("collection form is invalid")
	}

	account, _ := stack.Portal.Account()
	msg := form.ToIssueMessage(denomForm, account, stack.Portal.ChainID())
	denomID, err := stack.Portal.CreateDenom(cmd.Context(), msg)
	if err != nil {
		printError(err)
		return errors.New("collection was not created")
	}
	color.Green("Collection %s created", denomID)
	return nil
}

func runMint(cmd *cobra.Command, args []string) error {
	stack, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer stack.Close()

	nftForm.MintForAnotherAddress = nftForm.Recipient != ""
	if err := stack.Portal.ValidateNft(cmd.Context(), nftForm).Err(); err != nil {
		printError(err)
		return errors.New("token form is invalid")
	}

	account, _ := stack.Portal.Account()
	msg := form.ToMintMessage(nftForm, account, args[0], stack.Portal.ChainID())
	denomID, err := stack.Portal.MintNft(cmd.Context(), msg)
	if err != nil {
		printError(err)
		return errors.New("token was not minted")
	}
	color.Green("Token %s minted into %s for %s", msg.Name, denomID, msg.Recipient)
	return nil
}

func runMintFlow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stack, err := connect(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	flow := stack.Portal.NewWorkflow(flowDenom)

	if flow.State().Step == workflow.StepCreateCollection {
		fmt.Printf("[1/2] %s\n", color.CyanString("Create a collection"))
		for {
			f, err := promptDenomForm()
			if err != nil {
				return err
			}
			denomID, err := flow.CreateCollection(ctx, f)
			if err == nil {
				color.Green("Collection %s created", denomID)
				break
			}
			printError(err)
			if !confirm("Try again") {
				return err
			}
		}
	}

	fmt.Printf("[2/2] %s %s\n", color.CyanString("Mint into"), flow.State().DenomID)
	for {
		f, err := promptNftForm()
		if err != nil {
			return err
		}
		if err := flow.MintToken(ctx, f); err != nil {
			printError(err)
		} else {
			color.Green("Token %s minted", f.Name)
		}
		if !confirm("Mint another token") {
			return nil
		}
		flow.Back()
	}
}

func promptDenomForm() (form.DenomForm, error) {
	var f form.DenomForm
	fields := []struct {
		label string
		value *string
	}{
		{"Denom id", &f.DenomID},
		{"Name", &f.Name},
		{"Symbol", &f.Symbol},
		{"Description", &f.Description},
	}
	for _, field := range fields {
		prompt := promptui.Prompt{Label: field.label}
		value, err := prompt.Run()
		if err != nil {
			return form.DenomForm{}, err
		}
		*field.value = value
	}
	return f, nil
}

func promptNftForm() (form.NftForm, error) {
	var f form.NftForm
	fields := []struct {
		label string
		value *string
	}{
		{"Name", &f.Name},
		{"URI", &f.URI},
		{"Data", &f.Data},
	}
	for _, field := range fields {
		prompt := promptui.Prompt{Label: field.label}
		value, err := prompt.Run()
		if err != nil {
			return form.NftForm{}, err
		}
		*field.value = value
	}

	if confirm("Mint for another address") {
		prompt := promptui.Prompt{Label: "Recipient"}
		recipient, err := prompt.Run()
		if err != nil {
			return form.NftForm{}, err
		}
		f.MintForAnotherAddress = true
		f.Recipient = recipient
	}
	return f, nil
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}
