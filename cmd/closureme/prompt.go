package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// prompter reads answers from the user. The shell only talks to the
// terminal through it.
type prompter interface {
	// Choose shows items and returns the selected index.
	Choose(label string, items []string) (int, error)
	Input(label string) (string, error)
	Secret(label string) (string, error)
	// Confirm returns false when the user answers anything but yes.
	Confirm(label string) (bool, error)
}

type terminalPrompter struct{}

func (terminalPrompter) Choose(label string, items []string) (int, error) {
	sel := promptui.Select{
		Label:        label,
		Items:        items,
		Size:         len(items),
		HideSelected: true,
	}
	idx, _, err := sel.Run()
	return idx, err
}

func (terminalPrompter) Input(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	return p.Run()
}

func (terminalPrompter) Secret(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*'}
	return p.Run()
}

func (terminalPrompter) Confirm(label string) (bool, error) {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}

// isPromptExit reports whether err means the user left the prompt.
func isPromptExit(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF)
}
