// Concord CLI — инструмент командной строки для планирования работ,
// обновления workflow и просмотра реестров через HTTP API.
//
// Использование:
//
//	concord [--api-url URL] [--json] [--user ID --roles r1,r2] <command> <subcommand> [flags]
//
// Команды:
//
//	work      Запланированные работы
//	workflow  Экземпляры процессов
//	target    Объекты и результаты проверок
//	registry  Реестры участников
//	password  Проверка паролей
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Concord/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool
	var user cli.User

	rootCmd := &cobra.Command{
		Use:           "concord",
		Short:         "Concord CLI — idempotent work and workflow coordination",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("CONCORD_API_URL", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&user.ID, "user", os.Getenv("CONCORD_USER"), "User ID for workflow updates")
	rootCmd.PersistentFlags().StringVar(&user.Name, "user-name", "", "User display name")
	rootCmd.PersistentFlags().StringSliceVar(&user.Roles, "roles", nil, "User roles (comma-separated)")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, user) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewWorkCmd(clientFn, outputFn),
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewTargetCmd(clientFn, outputFn),
		cli.NewRegistryCmd(clientFn, outputFn),
		cli.NewPasswordCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
