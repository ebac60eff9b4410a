package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/good-yellow-bee/projectboard/internal/users"
)

var (
	userFirstName string
	userLastName  string
	userEmail     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	Long: `Create a new account in the database.

The password is prompted interactively so it does not end up in shell
history. It must be 6 to 72 bytes long.

Example:
  projectboard user create --first-name Aaron --last-name Sumner --email aaron@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		password, err := promptPassword(cmd.OutOrStdout(), "Enter password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword(cmd.OutOrStdout(), "Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password confirmation: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		store, err := openStorage(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		// No queue: accounts created here get no welcome message.
		svc := users.NewService(store, nil, nil)
		user, errs, err := svc.SignUp(context.Background(), users.SignUpParams{
			FirstName: userFirstName,
			LastName:  userLastName,
			Email:     userEmail,
			Password:  password,
		}, "")
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("invalid user: %s", strings.Join(errs.FullMessages(), ", "))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nUser created successfully:\n")
		fmt.Fprintf(out, "  ID:    %s\n", user.ID)
		fmt.Fprintf(out, "  Name:  %s\n", user.Name())
		fmt.Fprintf(out, "  Email: %s\n", user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "first name (required)")
	userCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "last name (required)")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address (required)")
	userCreateCmd.MarkFlagRequired("first-name")
	userCreateCmd.MarkFlagRequired("last-name")
	userCreateCmd.MarkFlagRequired("email")
}

var stdinReader = bufio.NewReader(os.Stdin)

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Piped input
	line, err := stdinReader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
