package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewScheduleCmd создаёт группу команд schedule.
func NewScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"sched"},
		Short:   "Управление schedules",
	}

	cmd.AddCommand(
		newScheduleListCmd(clientFn, outputFn),
		newScheduleCreateCmd(clientFn, outputFn),
		newScheduleShowCmd(clientFn, outputFn),
		newScheduleDeleteCmd(clientFn, outputFn),
		newScheduleEnableCmd(clientFn, outputFn),
		newScheduleDisableCmd(clientFn, outputFn),
	)

	return cmd
}

func newScheduleListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workflow string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Список schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedules, err := clientFn().ListSchedules(workflow)
			if err != nil {
				return err
			}

			out := outputFn()
			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				expr := s.CronExpr
				if expr == "" {
					expr = fmt.Sprintf("every %ds", s.IntervalSec)
				}
				rows[i] = []string{s.ID, s.WorkflowName, s.Name, expr, fmt.Sprintf("%t", s.Enabled), s.NextDueAt}
			}
			out.Print([]string{"ID", "WORKFLOW", "NAME", "SCHEDULE", "ENABLED", "NEXT DUE"}, rows, schedules)
			return nil
		},
	}

	cmd.Flags().StringVar(&workflow, "workflow", "", "фильтр по имени workflow")

	return cmd
}

func newScheduleCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateScheduleRequest

	cmd := &cobra.Command{
		Use:   "create WORKFLOW_NAME",
		Short: "Создать schedule для workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.CronExpr == "" && req.IntervalSec <= 0 {
				return fmt.Errorf("either --cron or --interval is required")
			}

			schedule, err := clientFn().CreateSchedule(args[0], req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Schedule %s created for workflow %q", schedule.ID, schedule.WorkflowName))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "имя schedule")
	cmd.Flags().StringVar(&req.CronExpr, "cron", "", "cron-выражение (5 полей)")
	cmd.Flags().IntVar(&req.IntervalSec, "interval", 0, "интервал в секундах")
	cmd.Flags().StringVar(&req.Timezone, "timezone", "UTC", "таймзона для cron")
	cmd.Flags().BoolVar(&req.Enabled, "enabled", true, "создать включённым")

	return cmd
}

func newScheduleShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show SCHEDULE_ID",
		Short: "Показать schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := clientFn().GetSchedule(args[0])
			if err != nil {
				return err
			}

			outputFn().JSON(schedule)
			return nil
		},
	}
}

func newScheduleDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SCHEDULE_ID",
		Short: "Удалить schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteSchedule(args[0]); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Schedule %s deleted", args[0]))
			return nil
		},
	}
}

func newScheduleEnableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "enable SCHEDULE_ID",
		Short: "Включить schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().SetScheduleEnabled(args[0], true); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Schedule %s enabled", args[0]))
			return nil
		},
	}
}

func newScheduleDisableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "disable SCHEDULE_ID",
		Short: "Выключить schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().SetScheduleEnabled(args[0], false); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Schedule %s disabled", args[0]))
			return nil
		},
	}
}
