package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/leadflow/internal/engine"
)

// NewWorkflowCmd создаёт группу команд workflow.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflow",
		Aliases: []string{"wf"},
		Short:   "Управление workflows",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowUpdateCmd(clientFn, outputFn),
		newWorkflowDeleteCmd(clientFn, outputFn),
		newWorkflowValidateCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Список workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			workflows, err := clientFn().ListWorkflows()
			if err != nil {
				return err
			}

			out := outputFn()
			rows := make([][]string, len(workflows))
			for i, wf := range workflows {
				rows[i] = []string{wf.Name, wf.CreatedAt, wf.UpdatedAt}
			}
			out.Print([]string{"NAME", "CREATED", "UPDATED"}, rows, workflows)
			return nil
		},
	}
}

func newWorkflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "create FILE",
		Short: "Создать workflow из JSON-файла",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			wf, err := clientFn().CreateWorkflow(spec)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Workflow %q created", wf.Name))
			return nil
		},
	}
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Показать workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := clientFn().GetWorkflow(args[0])
			if err != nil {
				return err
			}

			outputFn().JSON(wf)
			return nil
		},
	}
}

func newWorkflowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "update NAME FILE",
		Short: "Обновить спецификацию workflow из JSON-файла",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			wf, err := clientFn().UpdateWorkflow(args[0], spec)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Workflow %q updated", wf.Name))
			return nil
		},
	}
}

func newWorkflowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Удалить workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteWorkflow(args[0]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Workflow %q deleted", args[0]))
			return nil
		},
	}
}

func newWorkflowValidateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Валидировать спецификацию workflow",
		Long: `Валидировать спецификацию workflow из JSON-файла.

По умолчанию валидация выполняется на сервере (проверяет в том числе
имена агентов). Флаг --local проверяет синтаксис и шаблоны без
обращения к API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			if local {
				spec, err := engine.ParseWorkflowFile(args[0])
				if err == nil {
					err = engine.Validate(spec, nil)
				}
				if err != nil {
					out.Error(err.Error())
					os.Exit(1)
				}
				out.Success("Valid")
				return nil
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			result, err := clientFn().ValidateWorkflow(json.RawMessage(raw))
			if err != nil {
				return err
			}

			if !result.Valid {
				out.Error(result.Error)
				os.Exit(1)
			}
			out.Success("Valid")
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "валидировать локально, без обращения к API")

	return cmd
}
