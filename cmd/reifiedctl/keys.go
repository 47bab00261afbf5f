package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/reified-portal/keystore"
)

var (
	keysDir      string
	keysPrefix   string
	keysCoinType uint32
	keysRecover  bool
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the encrypted keystore",
	}
	cmd.PersistentFlags().StringVar(&keysDir, "keys-dir", "keys", "Directory of the keystore files")

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a key, or recover one from its mnemonic with --recover",
		Args:  cobra.ExactArgs(1),
		RunE:  runKeysAdd,
	}
	add.Flags().StringVar(&keysPrefix, "prefix", "cudos", "Bech32 prefix of the address")
	add.Flags().Uint32Var(&keysCoinType, "coin-type", keystore.DefaultCoinType, "BIP44 coin type")
	add.Flags().BoolVar(&keysRecover, "recover", false, "Read the mnemonic instead of generating one")

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the address of a key without decrypting it",
		Args:  cobra.ExactArgs(1),
		RunE:  runKeysShow,
	}

	cmd.AddCommand(add, show)
	return cmd
}

func keyPath(name string) string {
	return filepath.Join(keysDir, name+".json")
}

func runKeysAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	var mnemonic string
	var err error
	if keysRecover {
		prompt := promptui.Prompt{Label: "Mnemonic", Mask: '*'}
		if mnemonic, err = prompt.Run(); err != nil {
			return err
		}
		mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	} else if mnemonic, err = keystore.NewMnemonic(); err != nil {
		return err
	}

	password, err := promptPassword("New keystore password")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Repeat password")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	path := keyPath(name)
	key, err := keystore.Save(path, name, mnemonic, password, keysPrefix, keysCoinType)
	if err != nil {
		return err
	}

	color.Green("Key %s saved to %s", name, path)
	fmt.Printf("  Address: %s\n", key.Address())
	if !keysRecover {
		color.Yellow("Mnemonic (write it down, it is the only way to recover the key):")
		fmt.Printf("  %s\n", mnemonic)
	}
	return nil
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	file, err := keystore.ReadFile(keyPath(args[0]))
	if err != nil {
		return err
	}
	fmt.Printf("Name:      %s\n", file.Name)
	fmt.Printf("Address:   %s\n", color.CyanString(file.Address))
	fmt.Printf("Coin type: %d\n", file.CoinType)
	fmt.Printf("Created:   %s\n", file.CreatedAt)
	return nil
}
