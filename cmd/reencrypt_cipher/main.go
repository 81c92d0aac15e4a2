// Re-encrypts the wallet state into a new file under a new passphrase.
// The source may be plain (--plain) or sealed. The output is always sealed.
// Usage: go run ./cmd/reencrypt_cipher --in wallet.db --out wallet.sealed.db
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/card-wallet/internal/blobstore"
	"github.com/AlexZinkM/card-wallet/internal/crypto"
	"github.com/AlexZinkM/card-wallet/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	inPath  string
	outPath string
	plainIn bool
)

var rootCmd = &cobra.Command{
	Use:          "reencrypt_cipher",
	Short:        "Re-encrypt wallet state under a new passphrase",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	rootCmd.Flags().StringVar(&inPath, "in", "wallet.db", "source state file")
	rootCmd.Flags().StringVar(&outPath, "out", "wallet.sealed.db", "destination state file, must not exist")
	rootCmd.Flags().BoolVar(&plainIn, "plain", false, "source state is not encrypted")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if inPath == outPath {
		return errors.New("--in and --out must differ")
	}
	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("%s already exists", outPath)
	}

	in, err := blobstore.OpenSQLite(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	var src blobstore.Store = in
	if !plainIn {
		pass, err := readPassphrase("Current passphrase: ")
		if err != nil {
			return err
		}
		src, err = blobstore.NewSealed(in, pass, crypto.DefaultParams())
		clear(pass)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", inPath, err)
		}
	}

	pass, err := readPassphrase("New passphrase: ")
	if err != nil {
		return err
	}
	again, err := readPassphrase("Repeat new passphrase: ")
	if err != nil {
		clear(pass)
		return err
	}
	same := string(pass) == string(again)
	clear(again)
	if !same {
		clear(pass)
		return errors.New("passphrases do not match")
	}

	out, err := blobstore.OpenSQLite(outPath)
	if err != nil {
		clear(pass)
		return err
	}
	defer out.Close()
	dst, err := blobstore.NewSealed(out, pass, crypto.DefaultParams())
	clear(pass)
	if err != nil {
		return err
	}

	n, err := blobstore.Copy(dst, src, store.KeyState, store.KeySettings, store.KeyInbox)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "copied %d blobs to %s\n", n, outPath)
	return nil
}

func readPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	return raw, nil
}
