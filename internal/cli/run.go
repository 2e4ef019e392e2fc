package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд run.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Управление runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunResultCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListRunsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Список runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := clientFn().ListRuns(opts)
			if err != nil {
				return err
			}

			out := outputFn()
			rows := make([][]string, len(runs))
			for i, run := range runs {
				rows[i] = []string{run.ID, run.WorkflowName, run.Status, run.CreatedAt}
			}
			out.Print([]string{"ID", "WORKFLOW", "STATUS", "CREATED"}, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Workflow, "workflow", "", "фильтр по имени workflow")
	cmd.Flags().StringVar(&opts.Status, "status", "", "фильтр по статусу (pending, running, completed, failed)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "максимум записей")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "start WORKFLOW_NAME",
		Short: "Запустить workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := clientFn().CreateRun(args[0])
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Run %s created for workflow %q", run.ID, run.WorkflowName))
			return nil
		},
	}
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Показать run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := clientFn().GetRun(args[0])
			if err != nil {
				return err
			}

			outputFn().JSON(run)
			return nil
		},
	}
}

func newRunResultCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "result RUN_ID",
		Short: "Показать итоговый документ выполнения",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := clientFn().GetRunResult(args[0])
			if err != nil {
				return err
			}

			var pretty any
			if err := json.Unmarshal(result, &pretty); err != nil {
				return fmt.Errorf("failed to decode result: %w", err)
			}
			outputFn().JSON(pretty)
			return nil
		},
	}
}
