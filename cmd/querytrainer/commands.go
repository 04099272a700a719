package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	grader "github.com/hanpama/querytrainer/internal/grader"
	schema "github.com/hanpama/querytrainer/internal/schema"
	trainer "github.com/hanpama/querytrainer/internal/trainer"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "run [query|-]",
		Short: "Answer one query and print the JSON envelope",
		Long: `Answer one query and print the JSON envelope. The query is read from
stdin when it is "-" or omitted.

Example:
  querytrainer run '{ orders(userId: "USER01", limit: 3) { id total } }'
  echo '{ users { id name } }' | querytrainer run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readQuery(opts.stdin, args)
			if err != nil {
				return err
			}
			switch root {
			case "", schema.RootOrders, schema.RootUsers:
			default:
				return fmt.Errorf("--root %q: want %s or %s", root, schema.RootOrders, schema.RootUsers)
			}
			tr, err := opts.openTrainer()
			if err != nil {
				return err
			}
			defer tr.Close()
			return writeIndented(opts.stdout, tr.Query(cmd.Context(), text, root))
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "force the root field (orders|users)")
	return cmd
}

func newGradeCommand(opts *rootOptions) *cobra.Command {
	var learner string
	cmd := &cobra.Command{
		Use:   "grade <taskId> [query|-]",
		Short: "Grade a query against a task",
		Long: `Grade a query against a task. With --learner a correct answer is
recorded in the progress store.

Example:
  querytrainer grade 7 '{ orders(userId: "USER01", limit: 3) { id } }'
  querytrainer grade 7 - --learner anna --progress.dsn ./progress.db < answer.graphql`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("task id %q is not a number", args[0])
			}
			text, err := readQuery(opts.stdin, args[1:])
			if err != nil {
				return err
			}
			tr, err := opts.openTrainer()
			if err != nil {
				return err
			}
			defer tr.Close()
			res, err := tr.Grade(cmd.Context(), id, text, learner)
			if err != nil {
				return err
			}
			if !opts.textOutput() {
				return writeIndented(opts.stdout, res)
			}
			fmt.Fprintf(opts.stdout, "task %d: %s\n", res.TaskID, res.State)
			if res.Feedback != "" {
				fmt.Fprintln(opts.stdout, res.Feedback)
			}
			if learner != "" && res.Solved {
				fmt.Fprintf(opts.stdout, "solved by %s\n", learner)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "record progress for this learner")
	return cmd
}

func newTasksCommand(opts *rootOptions) *cobra.Command {
	var learner string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the task catalogue",
		Long: `List the task catalogue. With --learner each task carries the
learner's state (untried or correct).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := opts.openTrainer()
			if err != nil {
				return err
			}
			defer tr.Close()
			var list []trainer.TaskProgress
			if learner != "" {
				if list, err = tr.Progress(cmd.Context(), learner); err != nil {
					return err
				}
			} else {
				for _, t := range tr.Tasks() {
					list = append(list, trainer.TaskProgress{TaskID: t.ID, Title: t.Title, State: grader.StateUntried})
				}
			}
			if !opts.textOutput() {
				return writeIndented(opts.stdout, list)
			}
			for _, p := range list {
				task, _ := tr.Task(p.TaskID)
				fmt.Fprintf(opts.stdout, "%2d  %-6s  %-9s  %s\n", p.TaskID, task.Root, p.State, p.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "show progress for this learner")
	return cmd
}

func newSchemaCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(opts.stdout, schema.TrainerSDL())
			return err
		},
	}
}

// readQuery returns args[0], or all of stdin when args is empty or "-".
func readQuery(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading query from stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
