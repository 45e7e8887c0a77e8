package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewRegistryCmd создаёт группу команд для реестров участников.
func NewRegistryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect capability registries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registries and their participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			registries, err := clientFn().ListRegistries()
			if err != nil {
				return err
			}

			rows := make([][]string, len(registries))
			for i, r := range registries {
				rows[i] = []string{r.Name, fmt.Sprint(len(r.Participants)), strings.Join(r.Participants, ", ")}
			}

			outputFn().Print([]string{"REGISTRY", "COUNT", "PARTICIPANTS"}, rows, registries)
			return nil
		},
	})

	return cmd
}

// NewPasswordCmd создаёт группу команд для политик паролей.
func NewPasswordCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Check passwords against server policies",
	}

	var userID, name string

	check := &cobra.Command{
		Use:     "check",
		Short:   "Check a password read from stdin",
		Example: `  echo 'secret' | concord password check --user-id u1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user-id is required")
			}

			password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && password == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(password, "\r\n")

			res, err := clientFn().CheckPassword(PasswordCheckRequest{UserID: userID, Name: name, Password: password})
			if err != nil {
				return err
			}

			out := outputFn()
			if res.Valid {
				out.Success("Password satisfies all policies")
				out.Fields([]Field{{"Valid", "true"}}, res)
				return nil
			}

			rows := make([][]string, len(res.Violations))
			for i, v := range res.Violations {
				rows[i] = []string{v}
			}
			out.Print([]string{"VIOLATION"}, rows, res)
			return fmt.Errorf("password violates %d policies", len(res.Violations))
		},
	}

	check.Flags().StringVar(&userID, "user-id", "", "User ID the password belongs to")
	check.Flags().StringVar(&name, "name", "", "User name")

	cmd.AddCommand(check)
	return cmd
}
