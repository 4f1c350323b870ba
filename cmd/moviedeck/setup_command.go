package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/moviedeck/internal/config"
)

func newSetupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Store a TMDB API key in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, ctx)
		},
	}
}

func runSetup(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to moviedeck!")
	fmt.Fprintln(out, "Create an API key at https://www.themoviedb.org/settings/api")
	fmt.Fprintln(out)

	apiKey, err := promptSecret(cmd.InOrStdin(), out, "TMDB API key: ")
	if err != nil {
		return fmt.Errorf("failed to read api key: %w", err)
	}
	if apiKey == "" {
		return errors.New("api key cannot be empty")
	}

	cfg.TMDB.APIKey = apiKey
	if err := config.Save(cfg, ctx.configDir()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Configuration saved!")
	fmt.Fprintln(out, "Run moviedeck again to start swiping.")
	return nil
}

// promptSecret reads a line without echo when in is a terminal
func promptSecret(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
