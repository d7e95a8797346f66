package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewJobCmd создаёт группу команд для управления jobs.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Run and inspect jobs",
	}

	cmd.AddCommand(
		newJobRunCmd(clientFn, outputFn),
		newJobEnqueueCmd(clientFn, outputFn),
		newJobListCmd(clientFn, outputFn),
		newJobShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newJobRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run ITEM...",
		Short: "Run a job synchronously and print its report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			client.SetTimeout(timeout)
			out := outputFn()

			job, err := client.RunJob(args)
			if err != nil {
				// отчёт приходит и вместе с ошибкой аутентификации
				if rep := reportFromError(err); rep != nil {
					printReport(out, rep)
				}
				return err
			}

			if job.Report != nil {
				printReport(out, job.Report)
			}
			out.Success(fmt.Sprintf("Job %s finished: %s", job.ID, job.Status))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Request timeout (0 = none)")

	return cmd
}

func newJobEnqueueCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue ITEM...",
		Short: "Queue a job for the worker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			resp, err := client.EnqueueJob(args)
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "STATUS"},
				[][]string{{resp.ID, resp.Status}},
				resp,
			)
			return nil
		},
	}
}

func newJobListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs(ListJobsOpts{Status: status, Limit: limit})
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "ITEMS", "OK", "FAILED", "SOURCE", "CREATED"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				ok, failed := "-", "-"
				if j.Report != nil {
					ok = strconv.Itoa(j.Report.TotalSuccessful)
					failed = strconv.Itoa(j.Report.TotalFailed)
				}
				rows[i] = []string{j.ID, j.Status, strconv.Itoa(len(j.Items)), ok, failed, j.Source, j.CreatedAt}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(job)
				return nil
			}

			started := job.StartedAt
			if started == "" {
				started = "-"
			}
			out.Table(
				[]string{"ID", "STATUS", "ITEMS", "SOURCE", "STARTED", "ERROR"},
				[][]string{{job.ID, job.Status, strings.Join(job.Items, ","), job.Source, started, job.Error}},
			)
			if job.Report != nil {
				fmt.Fprintln(out.w)
				printReport(out, job.Report)
			}
			return nil
		},
	}
}

// printReport выводит результаты items.
func printReport(out *Output, rep *ReportResponse) {
	if out.jsonMode {
		out.JSON(rep)
		return
	}

	errs := make(map[string]string, len(rep.ErrorDetails))
	for _, d := range rep.ErrorDetails {
		errs[d.Item] = d.Error
	}

	rows := make([][]string, 0, len(rep.Successful)+len(rep.Failed))
	for _, item := range rep.Successful {
		rows = append(rows, []string{item, "SUCCEEDED", ""})
	}
	for _, item := range rep.Failed {
		rows = append(rows, []string{item, "FAILED", errs[item]})
	}
	out.Table([]string{"ITEM", "STATUS", "ERROR"}, rows)
}
