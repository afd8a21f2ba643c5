package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the catalog backend",
		Long:  "Exchange an email for a bearer token and store it for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				fmt.Print("Email: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read email: %w", err)
				}
				email = strings.TrimSpace(line)
			}

			token, err := client.Login(cmd.Context(), email)
			if err != nil {
				return err
			}

			if err := sess.Save(token); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			fmt.Println("Logged in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Login email (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored token",
		Long:  "Clear the locally stored bearer token. The token is not invalidated server-side.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sess.Clear(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show login status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sess.IsAuthenticated() {
				fmt.Println("Logged in.")
				return nil
			}
			fmt.Println("Not logged in.")
			return nil
		},
	}
}
