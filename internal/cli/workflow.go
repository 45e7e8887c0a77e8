package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для экземпляров процессов.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Inspect and update workflows",
	}

	cmd.AddCommand(
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowUpdateCmd(clientFn, outputFn),
	)

	return cmd
}

// workflowFields — карточка процесса; ключи Data выводятся по алфавиту.
func workflowFields(w WorkflowResponse) []Field {
	fields := []Field{
		{"Class", w.DecidingClass},
		{"Target", w.TargetType + "#" + w.TargetID},
		{"State", w.State},
		{"Version", strconv.Itoa(w.Version)},
		{"Updated by", w.UpdatedBy},
	}

	keys := make([]string, 0, len(w.Data))
	for k := range w.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := json.Marshal(w.Data[k])
		fields = append(fields, Field{"data." + k, string(v)})
	}
	return fields
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show <class> <Type#ID>",
		Short: "Show the workflow of a target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ParseTarget(args[1])
			if err != nil {
				return err
			}

			wf, err := clientFn().GetWorkflow(args[0], target)
			if err != nil {
				return err
			}

			outputFn().Fields(workflowFields(*wf), wf)
			return nil
		},
	}
}

func newWorkflowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "update <class> <Type#ID>",
		Short: "Apply the deciding class to a target",
		Long: `Apply the deciding class to a target on behalf of --user.
The update runs under the target's mutex; LOCK_CONTENTION means
another update held it too long and the command can be retried.`,
		Example: "  concord --user u1 --roles broker workflow update booking Order#42",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ParseTarget(args[1])
			if err != nil {
				return err
			}

			wf, err := clientFn().UpdateWorkflow(args[0], target)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Workflow %s for %s is %s", wf.DecidingClass, target, wf.State))
			out.Fields(workflowFields(*wf), wf)
			return nil
		},
	}
}
