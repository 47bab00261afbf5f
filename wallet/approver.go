package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// Approver decides whether a chain may use the wallet's key.
type Approver interface {
	Approve(ctx context.Context, chainID, address string) (bool, error)
}

// AutoApprove approves every request. Meant for unattended servers.
type AutoApprove struct{}

func (AutoApprove) Approve(context.Context, string, string) (bool, error) {
	return true, nil
}

// Prompter abstracts the confirmation prompt for testing.
type Prompter interface {
	Confirm(label string) (bool, error)
}

// PromptuiPrompter asks on the terminal.
type PromptuiPrompter struct{}

func (PromptuiPrompter) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort), errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, nil
	default:
		return false, err
	}
}

// PromptApprover asks the user before a chain is enabled.
type PromptApprover struct {
	Prompter Prompter
}

// NewPromptApprover creates a terminal approver.
func NewPromptApprover() *PromptApprover {
	return &PromptApprover{Prompter: PromptuiPrompter{}}
}

func (a *PromptApprover) Approve(ctx context.Context, chainID, address string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return a.Prompter.Confirm(fmt.Sprintf("Allow reified to use %s on %s", address, chainID))
}
