package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// passphraseEnv supplies the archive passphrase when stdin is not a terminal.
const passphraseEnv = "MID_PASSPHRASE"

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks the user to approve a mutating command. It approves without
// asking when --yes is set or stdin is not a terminal.
func confirm(cmd *cobra.Command, title string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes || !stdinIsTerminal() {
		return true, nil
	}

	var proceed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&proceed).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			proceed = false
		} else {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
	}

	if !proceed {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
	}
	return proceed, nil
}

// readPassphrase reads a passphrase from the terminal without echo. With
// repeat set it is asked for twice and both entries must match.
func readPassphrase(cmd *cobra.Command, prompt string, repeat bool) (string, error) {
	if !stdinIsTerminal() {
		if p := os.Getenv(passphraseEnv); p != "" {
			return p, nil
		}
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("passphrase required: set %s or run in a terminal", passphraseEnv)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	passphrase, err := promptHidden(cmd, prompt)
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", errors.New("passphrase must not be empty")
	}

	if repeat {
		again, err := promptHidden(cmd, "Repeat passphrase: ")
		if err != nil {
			return "", err
		}
		if again != passphrase {
			return "", errors.New("passphrases do not match")
		}
	}
	return passphrase, nil
}

func promptHidden(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
