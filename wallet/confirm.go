package wallet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexZinkM/card-wallet/internal/common"
	"golang.org/x/term"
)

// Prompt describes what the user is asked to approve.
type Prompt struct {
	SessionID string
	Title     string
	// Fields are the labels of the fields about to leave the wallet.
	// Empty for offers.
	Fields []string
}

// Confirmer gates a share or add on the wallet PIN. Confirm returns nil on
// approval, ErrCancelled when the user backs out and ErrPINRejected on a
// wrong PIN.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) error
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, p Prompt) error

func (f ConfirmerFunc) Confirm(ctx context.Context, p Prompt) error { return f(ctx, p) }

// StaticPIN approves when Entered matches the wallet PIN. An empty entry
// counts as cancel.
type StaticPIN struct {
	Want    string
	Entered string
}

func (s StaticPIN) Confirm(ctx context.Context, _ Prompt) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	if strings.TrimSpace(s.Entered) == "" {
		return ErrCancelled
	}
	if common.NormalizePIN(s.Entered) != common.NormalizePIN(s.Want) {
		return ErrPINRejected
	}
	return nil
}

// TerminalPIN asks for the PIN on the controlling terminal without echo.
type TerminalPIN struct {
	Want string
	In   *os.File
	Out  io.Writer
}

// NewTerminalPIN prompts on stdin/stderr.
func NewTerminalPIN(want string) *TerminalPIN {
	return &TerminalPIN{Want: want, In: os.Stdin, Out: os.Stderr}
}

func (t *TerminalPIN) Confirm(ctx context.Context, p Prompt) error {
	if !term.IsTerminal(int(t.In.Fd())) {
		return errors.New("stdin is not a terminal: run interactively to enter the PIN")
	}

	title := p.Title
	if title == "" {
		title = p.SessionID
	}
	if len(p.Fields) > 0 {
		fmt.Fprintf(t.Out, "Share %s with %s? [y/N] ", common.HumanList(p.Fields), title)
	} else {
		fmt.Fprintf(t.Out, "Add card from %s? [y/N] ", title)
	}
	answer, err := bufio.NewReader(t.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
		return ErrCancelled
	}

	fmt.Fprint(t.Out, "PIN: ")
	defer fmt.Fprintln(t.Out)
	raw, err := term.ReadPassword(int(t.In.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read PIN: %w", err)
	}
	defer clear(raw)

	return StaticPIN{Want: t.Want, Entered: string(raw)}.Confirm(ctx, p)
}
