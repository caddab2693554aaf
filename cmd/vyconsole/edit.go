package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vyconsole/vyconsole/internal/formfile"
	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/session"
	"github.com/vyconsole/vyconsole/internal/ui"
	"github.com/vyconsole/vyconsole/internal/vyos"
	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

// Edit flags
var (
	editKeys    []string
	editFile    string
	editSets    []string
	assumeYes   bool
	applyVerify bool
	applySafe   bool
	verbose     bool
	moveTo      int
)

// errNotConfirmed is returned when the user declines a change.
var errNotConfirmed = errors.New("cancelled")

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&editKeys, "key", "k", nil, "Key field as name=value (repeatable)")
	cmd.Flags().StringVarP(&editFile, "file", "f", "", "Form values from a .yaml, .toml or .json file")
	cmd.Flags().StringArrayVar(&editSets, "set", nil, "Field assignment: field=value, list+=value, list-=value (repeatable)")
}

// openForm opens the entity and applies the file and --set values, in that
// order.
func openForm(ctx context.Context, t *target, cat session.Category) (session.Editor, error) {
	key, err := parseKey(cat.Info(), editKeys)
	if err != nil {
		return nil, err
	}
	ed, err := cat.Open(ctx, t.client, key, t.options()...)
	if err != nil {
		return nil, err
	}
	if editFile != "" {
		if err := ed.Overlay(func(into any) error { return formfile.Decode(editFile, into) }); err != nil {
			return nil, err
		}
	}
	for _, s := range editSets {
		if err := ed.Set(s); err != nil {
			return nil, err
		}
	}
	return ed, nil
}

// planOutput is the json and yaml form of a plan.
type planOutput struct {
	Category   string                `json:"category"`
	Key        vyos.Key              `json:"key"`
	Mode       session.Mode          `json:"mode"`
	Operations []opbuilder.Operation `json:"operations"`
}

var planCmd = &cobra.Command{
	Use:   "plan <category>",
	Short: "Show the operations a change would send, without sending them",
	Long: `Open an entity, apply the form values from --file and --set, validate
the form and print the resulting operations. Nothing is sent.

A key that does not exist yet plans a create.`,
	Example: `  vyconsole plan ethernet -k interface=eth1 --set description=WAN
  vyconsole plan nat-source -k rule=100 -f rule100.yaml
  vyconsole plan firewall -k chain=forward -k rule=20 --set 'state+=established'`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeCategories,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categoryArg(args)
		if err != nil {
			return err
		}
		t, err := connect(cmd)
		if err != nil {
			return err
		}
		f, err := format(t.registry)
		if err != nil {
			return err
		}
		ed, err := openForm(cmd.Context(), t, cat)
		if err != nil {
			return err
		}
		if err := ed.Validate(); err != nil {
			return err
		}

		plan := ed.Plan()
		if f != formatText {
			return encode(cmd.OutOrStdout(), f, planOutput{
				Category:   ed.Info().Name,
				Key:        ed.Key(),
				Mode:       ed.Mode(),
				Operations: plan.Ops(),
			})
		}
		p := ui.NewPrinter(cmd.OutOrStdout())
		p.PrintPlan(fmt.Sprintf("%s %s (%s)", ed.Info().Title, ed.Key(), ed.Mode()), plan)
		return nil
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <category>",
	Short: "Apply form values to an entity",
	Long: `Open an entity, apply the form values from --file and --set, and
submit the operations that change something.

--verify re-reads the entity afterwards and fails if any operation is still
pending. --safe does the same and also reverts the change when the check
fails.`,
	Example: `  vyconsole apply ethernet -k interface=eth1 --set description=WAN --yes
  vyconsole apply vif -k interface=eth1 -k vlan_id=20 -f vif20.toml --verify
  vyconsole apply dhcp-server -k shared_network=LAN -k subnet=192.168.10.0/24 --set 'ranges+=192.168.10.100-192.168.10.199' --safe`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeCategories,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categoryArg(args)
		if err != nil {
			return err
		}
		t, err := connect(cmd)
		if err != nil {
			return err
		}
		if err := t.openAudit(); err != nil {
			return err
		}
		defer t.close()

		ed, err := openForm(cmd.Context(), t, cat)
		if err != nil {
			return err
		}
		if err := ed.Validate(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		info := ed.Info()
		plan := ed.Plan()
		ui.NewPrinter(out).PrintPlan(fmt.Sprintf("%s %s (%s)", info.Title, ed.Key(), ed.Mode()), plan)
		if plan.IsEmpty() {
			return nil
		}
		fmt.Fprintln(out)

		warnings := []string{
			fmt.Sprintf("%d operation(s) are committed to %s", len(plan), t.client.BaseURL),
		}
		if plan.Deletes() > 0 {
			warnings = append(warnings, fmt.Sprintf("%d operation(s) remove configuration", plan.Deletes()))
		}
		if err := confirm(cmd, "APPLY "+strings.ToUpper(info.Name), warnings); err != nil {
			return err
		}

		verify := applyVerify
		if !cmd.Flags().Changed("verify") && t.registry.Preferences != nil {
			verify = t.registry.Preferences.VerifyAfterApply
		}

		runner := ui.NewRunner(ui.RunnerConfig{
			Title:   "Apply " + info.Name,
			Command: "vyconsole " + strings.Join(os.Args[1:], " "),
			Params:  targetParams(t, ed.Key()),
			Steps:   []string{"Validate form", "Submit batch", "Verify"},
			Verbose: verbose,
			Output:  out,
		})
		_, err = runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback) (map[string]string, error) {
			onStep(1, ui.StepComplete, "")
			if applySafe {
				return safeApply(ctx, ed, runner, onStep)
			}
			return apply(ctx, ed, runner, onStep, verify)
		})
		return err
	},
}

func apply(ctx context.Context, ed session.Editor, runner *ui.Runner, onStep ui.StepCallback, verify bool) (map[string]string, error) {
	onStep(2, ui.StepRunning, "")
	result, err := ed.Submit(ctx)
	if result != nil && result.Response != nil {
		runner.SetResponse(responseBody(result.Response))
	}
	if err != nil && (result == nil || !result.Applied) {
		onStep(2, ui.StepFailed, "")
		onStep(3, ui.StepSkipped, "")
		return nil, err
	}

	details := map[string]string{
		"Key":        ed.Key().String(),
		"Mode":       string(result.Mode),
		"Operations": strconv.Itoa(len(result.Plan)),
	}
	if err != nil {
		// The batch went through; only the cache refresh failed.
		onStep(2, ui.StepComplete, "applied, refresh failed")
		onStep(3, ui.StepSkipped, "")
		return details, err
	}
	onStep(2, ui.StepComplete, operations(len(result.Plan)))
	if !verify {
		onStep(3, ui.StepSkipped, "not requested")
		return details, nil
	}

	onStep(3, ui.StepRunning, "")
	vr := ed.Verify(ctx, vyosapi.DefaultVerificationOptions())
	if !vr.Success {
		onStep(3, ui.StepFailed, fmt.Sprintf("attempt %d", vr.Attempts))
		return nil, fmt.Errorf("applied but not verified: %w", vr.Error)
	}
	onStep(3, ui.StepComplete, fmt.Sprintf("attempt %d", vr.Attempts))
	details["Verified"] = "yes"
	return details, nil
}

func safeApply(ctx context.Context, ed session.Editor, runner *ui.Runner, onStep ui.StepCallback) (map[string]string, error) {
	onStep(2, ui.StepRunning, "")
	res := ed.SafeSubmit(ctx, vyosapi.DefaultVerificationOptions())
	if res.Submit != nil && res.Submit.Response != nil {
		runner.SetResponse(responseBody(res.Submit.Response))
	}

	switch {
	case res.Submit == nil || !res.Submit.Applied:
		onStep(2, ui.StepFailed, "")
		onStep(3, ui.StepSkipped, "")
	default:
		onStep(2, ui.StepComplete, operations(len(res.Submit.Plan)))
		if res.Success {
			onStep(3, ui.StepComplete, fmt.Sprintf("attempt %d", res.Verification.Attempts))
		} else if res.RollbackSucceeded {
			onStep(3, ui.StepFailed, "reverted")
		} else {
			onStep(3, ui.StepFailed, "revert failed")
		}
	}
	if !res.Success {
		return nil, res.Error
	}
	return map[string]string{
		"Key":        ed.Key().String(),
		"Mode":       string(res.Submit.Mode),
		"Operations": strconv.Itoa(len(res.Submit.Plan)),
		"Verified":   "yes",
	}, nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <category>",
	Short: "Delete an entity",
	Long: `Delete one entity. Deleting a rule from a rule-numbered list closes the
gap: the later rules are renumbered so the list stays contiguous.`,
	Example: `  vyconsole delete nat-source -k rule=105
  vyconsole delete route-map -k route_map=RM-OUT -k rule=20 --yes`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeCategories,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categoryArg(args)
		if err != nil {
			return err
		}
		info := cat.Info()
		if !info.Deletable() {
			return fmt.Errorf("%s: %w", info.Name, session.ErrNotDeletable)
		}
		key, err := parseKey(info, editKeys)
		if err != nil {
			return err
		}
		t, err := connect(cmd)
		if err != nil {
			return err
		}
		if err := t.openAudit(); err != nil {
			return err
		}
		defer t.close()

		out := cmd.OutOrStdout()
		if !assumeYes {
			if err := requireTerminal(); err != nil {
				return err
			}
			if !ui.ConfirmDelete(stdin, out, info.Name, key.String(), info.Reorderable()) {
				return errNotConfirmed
			}
		}

		runner := ui.NewRunner(ui.RunnerConfig{
			Title:   "Delete " + info.Name,
			Command: "vyconsole " + strings.Join(os.Args[1:], " "),
			Params:  targetParams(t, key),
			Output:  out,
		})
		_, err = runner.Run(cmd.Context(), func(ctx context.Context, _ ui.StepCallback) (map[string]string, error) {
			res, err := cat.Delete(ctx, t.client, key, t.options()...)
			if err != nil {
				return nil, err
			}
			details := map[string]string{"Key": key.String()}
			if res.Reordered {
				details["Renumbered"] = strconv.Itoa(len(opbuilder.ReorderPlan[json.RawMessage]{Moves: res.Moves}.Changed()))
			}
			if len(res.Moves) > 0 {
				runner.SetBody(strings.Split(ui.RenderMoves(res.Moves), "\n")...)
			}
			return details, nil
		})
		return err
	},
}

var moveRuleCmd = &cobra.Command{
	Use:   "move-rule <category>",
	Short: "Move a rule to another position in its list",
	Long: `Move a rule of a rule-numbered list to position --to (1 is first) and
renumber the list. Nothing is sent when the rule is already there.`,
	Example: `  vyconsole move-rule access-list -k access_list=100 -k rule=40 --to 1
  vyconsole move-rule prefix-list -k name=PL-IN -k rule=30 --to 2 --yes`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeCategories,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categoryArg(args)
		if err != nil {
			return err
		}
		info := cat.Info()
		if !info.Reorderable() {
			return fmt.Errorf("%s: %w", info.Name, session.ErrNotReorderable)
		}
		if moveTo < 1 {
			return fmt.Errorf("--to must be a position of 1 or more")
		}
		key, err := parseKey(info, editKeys)
		if err != nil {
			return err
		}
		rule, _ := strconv.Atoi(key[info.RuleKey])

		t, err := connect(cmd)
		if err != nil {
			return err
		}
		if err := t.openAudit(); err != nil {
			return err
		}
		defer t.close()

		out := cmd.OutOrStdout()
		if err := confirm(cmd, "MOVE RULE", []string{
			fmt.Sprintf("Rule %d of %s is moved to position %d", rule, key[info.ListKey], moveTo),
			"Rules in the list are renumbered",
		}); err != nil {
			return err
		}

		res, err := cat.Move(cmd.Context(), t.client, key[info.ListKey], rule, moveTo-1, t.options()...)
		if err != nil {
			return err
		}
		if !res.Changed() {
			fmt.Fprintf(out, "Rule %d is already at position %d\n", rule, moveTo)
			return nil
		}
		fmt.Fprintln(out, ui.RenderMoves(res.Moves))
		return nil
	},
}

// confirm asks for approval unless --yes was given.
func confirm(cmd *cobra.Command, title string, warnings []string) error {
	if assumeYes {
		return nil
	}
	if err := requireTerminal(); err != nil {
		return err
	}
	if !ui.Confirm(stdin, cmd.OutOrStdout(), title, warnings) {
		return errNotConfirmed
	}
	return nil
}

// requireTerminal refuses to prompt when stdin is not interactive.
func requireTerminal() error {
	if f, ok := stdin.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("stdin is not a terminal; pass --yes to confirm")
	}
	return nil
}

func targetParams(t *target, key vyos.Key) map[string]string {
	params := map[string]string{
		"Target": t.client.BaseURL,
		"Key":    key.String(),
	}
	if t.profile != "" {
		params["Profile"] = t.profile
	}
	return params
}

func responseBody(resp *vyosapi.BatchResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil
	}
	return data
}

func operations(n int) string {
	if n == 1 {
		return "1 operation"
	}
	return fmt.Sprintf("%d operations", n)
}

func init() {
	for _, cmd := range []*cobra.Command{planCmd, applyCmd} {
		addFormFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{deleteCmd, moveRuleCmd} {
		cmd.Flags().StringArrayVarP(&editKeys, "key", "k", nil, "Key field as name=value (repeatable)")
	}
	for _, cmd := range []*cobra.Command{applyCmd, deleteCmd, moveRuleCmd} {
		cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	}
	applyCmd.Flags().BoolVar(&applyVerify, "verify", false, "Re-read the entity and fail if operations are still pending (default: preference)")
	applyCmd.Flags().BoolVar(&applySafe, "safe", false, "Verify and revert the change if verification fails")
	applyCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the raw API response")
	moveRuleCmd.Flags().IntVar(&moveTo, "to", 0, "Target position in the list, 1 is first")
	_ = moveRuleCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(planCmd, applyCmd, deleteCmd, moveRuleCmd)
}
