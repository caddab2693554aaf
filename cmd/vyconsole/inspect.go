package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vyconsole/vyconsole/internal/audit"
	"github.com/vyconsole/vyconsole/internal/config"
	"github.com/vyconsole/vyconsole/internal/discovery"
	"github.com/vyconsole/vyconsole/internal/session"
	"github.com/vyconsole/vyconsole/internal/ui"
	"github.com/vyconsole/vyconsole/internal/vyos"
)

var (
	scanWait    time.Duration
	scanSave    string
	showMatch   string
	showKeys    []string
	showRefresh bool
	histLimit   int
	histType    string
	histFailed  bool
	histSince   time.Duration
	histCat     string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover router APIs on the local network",
	Long: `Browse mDNS for routers advertising the management API
(` + discovery.ServiceType + `) and list what answered.`,
	Example: `  vyconsole scan
  vyconsole scan --wait 10s
  vyconsole scan --save edge`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		scanner := discovery.NewScanner()
		switch {
		case scanWait > 0:
			scanner.Timeout = scanWait
		case reg.Preferences != nil && reg.Preferences.DiscoverTimeout > 0:
			scanner.Timeout = time.Duration(reg.Preferences.DiscoverTimeout) * time.Second
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Scanning for %s (%s)...\n\n", discovery.ServiceType, scanner.Timeout)
		endpoints, err := scanner.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(endpoints) == 0 {
			fmt.Fprintln(out, "No routers found.")
			fmt.Fprintln(out, "\nTroubleshooting:")
			fmt.Fprintln(out, "  - Check that the router advertises the API over mDNS")
			fmt.Fprintln(out, "  - Multicast must not be filtered between here and the router")
			fmt.Fprintln(out, "  - Try a longer --wait")
			fmt.Fprintln(out, "  - Add the router by hand: vyconsole profile add <name> <url>")
			return nil
		}

		fmt.Fprintf(out, "Found %d router(s):\n\n", len(endpoints))
		for i, ep := range endpoints {
			fmt.Fprintf(out, "%d. %s\n", i+1, ep)
		}

		if scanSave == "" {
			fmt.Fprintln(out, "\nUse 'vyconsole scan --save <name>' to store a single result as a profile")
			return nil
		}
		if len(endpoints) > 1 {
			return fmt.Errorf("found %d routers; add the one you want with 'vyconsole profile add'", len(endpoints))
		}
		if err := reg.SetProfile(scanSave, &config.Profile{
			URL:         endpoints[0].BaseURL(),
			Description: "discovered " + endpoints[0].Instance,
		}); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nProfile %q saved (%s)\n", scanSave, endpoints[0].BaseURL())
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the entity categories vyconsole can edit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var b strings.Builder
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTITLE\tKEY\tDELETE\tREORDER")
		for _, c := range session.Kinds() {
			info := c.Info()
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", info.Name, info.Title, keyHelp(info), yesNo(info.Deletable()), yesNo(info.Reorderable()))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return ui.RenderOnce(out, b.String())
		}
		_, err := fmt.Fprint(out, b.String())
		return err
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var capsCmd = &cobra.Command{
	Use:               "caps <category>",
	Short:             "Show which optional features the router supports",
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

		info := cat.Info()
		if !info.Capabilities {
			fmt.Fprintf(cmd.OutOrStdout(), "%s has no capability gating; every field is sent.\n", info.Name)
			return nil
		}
		matrix, err := cat.Capabilities(cmd.Context(), t.client)
		if err != nil {
			return err
		}
		if f != formatText {
			return encode(cmd.OutOrStdout(), f, matrix)
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		p.PrintHeader(info.Title+" capabilities", "vyconsole caps "+info.Name, map[string]string{
			"Target": t.client.BaseURL,
		})
		used := map[string]bool{}
		for _, fs := range info.Fields {
			used[fs.Capability] = true
		}
		for _, c := range info.Choices {
			used[c.Capability] = true
		}
		details := map[string]string{}
		for _, feature := range matrix.Enabled() {
			details[feature] = "supported"
		}
		for _, feature := range matrix.Disabled() {
			if used[feature] {
				details[feature] = "unsupported (fields are not sent)"
			} else {
				details[feature] = "unsupported"
			}
		}
		p.PrintSuccess(fmt.Sprintf("%d of %d features supported", len(matrix.Enabled()), len(details)), details)
		return nil
	},
}

// showEntry is one listed entity in json and yaml output.
type showEntry struct {
	Key  vyos.Key        `json:"key"`
	Data json.RawMessage `json:"data"`
}

var showCmd = &cobra.Command{
	Use:   "show <category>",
	Short: "Show the router's current entities of a category",
	Long: `List the entities of a category. With --key, show the editable form of
one entity instead, which is what 'plan' and 'apply' start from.

--match filters the listing with a glob over key values, e.g. 'eth*'.`,
	Example: `  vyconsole show ethernet
  vyconsole show nat-source --format yaml
  vyconsole show firewall --match 'WAN_*'
  vyconsole show prefix-list --key name=PL-IN --key rule=10`,
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
		out := cmd.OutOrStdout()

		if len(showKeys) > 0 {
			key, err := parseKey(cat.Info(), showKeys)
			if err != nil {
				return err
			}
			ed, err := cat.Open(cmd.Context(), t.client, key, t.options()...)
			if err != nil {
				return err
			}
			if ed.Mode() == session.ModeCreate {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s does not exist yet; showing a blank form\n", cat.Info().Name, key)
			}
			if f == formatText {
				f = formatYAML
			}
			return encode(out, f, ed.Form())
		}

		var match glob.Glob
		if showMatch != "" {
			if match, err = glob.Compile(showMatch); err != nil {
				return fmt.Errorf("invalid --match pattern: %w", err)
			}
		}

		entries, err := cat.List(cmd.Context(), t.client, showRefresh)
		if err != nil {
			return err
		}
		listed := make([]showEntry, 0, len(entries))
		for _, e := range entries {
			if match != nil && !matchKey(match, e.Key) {
				continue
			}
			listed = append(listed, showEntry{Key: e.Key, Data: e.Data})
		}

		if f != formatText {
			return encode(out, f, listed)
		}
		if len(listed) == 0 {
			fmt.Fprintf(out, "No %s entries.\n", cat.Info().Name)
			return nil
		}
		for _, e := range listed {
			fmt.Fprintf(out, "%s\n  %s\n", e.Key, e.Data)
		}
		return nil
	},
}

// matchKey reports whether the glob matches any key value or the whole
// rendered key.
func matchKey(g glob.Glob, key vyos.Key) bool {
	if g.Match(key.String()) {
		return true
	}
	for _, v := range key {
		if g.Match(v) {
			return true
		}
	}
	return false
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask the router API to reload its configuration cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := connect(cmd)
		if err != nil {
			return err
		}
		if err := t.client.RefreshConfig(cmd.Context()); err != nil {
			return err
		}
		t.client.InvalidateCache()
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration cache of %s refreshed\n", t.client.BaseURL)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the change history",
	Example: `  vyconsole history
  vyconsole history --category nat-source --failed
  vyconsole history --since 24h --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		f, err := format(reg)
		if err != nil {
			return err
		}
		t := &target{registry: reg}
		if err := t.openAudit(); err != nil {
			return err
		}
		defer t.close()

		filter := audit.Filter{
			Category:    histCat,
			Type:        audit.EventType(histType),
			FailureOnly: histFailed,
		}
		if profileName != "" {
			filter.Profile = profileName
		}
		if histSince > 0 {
			filter.StartTime = time.Now().Add(-histSince)
		}
		events, err := t.audit.Query(filter)
		if err != nil {
			return err
		}
		// Query is oldest first; keep the most recent entries.
		if histLimit > 0 && len(events) > histLimit {
			events = events[len(events)-histLimit:]
		}
		if f != formatText {
			return encode(cmd.OutOrStdout(), f, events)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintf(out, "No matching changes in %s\n", t.audit.Path())
			return nil
		}
		for _, e := range events {
			status := ui.SuccessMarker
			if !e.Success {
				status = ui.FailureMarker
			}
			fmt.Fprintf(out, "%s %s %-7s %s %s", e.Timestamp.Format(time.DateTime), status, e.Type, e.Category, e.Key)
			switch {
			case len(e.Operations) > 0:
				fmt.Fprintf(out, " (%d ops)", len(e.Operations))
			case e.Moves > 0:
				fmt.Fprintf(out, " (%d rules renumbered)", e.Moves)
			}
			if e.Profile != "" {
				fmt.Fprintf(out, " [%s]", e.Profile)
			}
			fmt.Fprintln(out)
			if e.Error != "" {
				fmt.Fprintf(out, "    %s\n", e.Error)
			}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().DurationVar(&scanWait, "wait", 0, "How long to listen (default: preference or 5s)")
	scanCmd.Flags().StringVar(&scanSave, "save", "", "Save the single discovered router as this profile")

	showCmd.Flags().StringVar(&showMatch, "match", "", "Glob over key values")
	showCmd.Flags().StringArrayVarP(&showKeys, "key", "k", nil, "Key field as name=value (repeatable)")
	showCmd.Flags().BoolVar(&showRefresh, "refresh", false, "Ask the API to rebuild its cache first")

	historyCmd.Flags().IntVar(&histLimit, "limit", 20, "Maximum number of entries (0 = all)")
	historyCmd.Flags().StringVar(&histType, "type", "", "Only this event type: apply, delete, reorder, revert")
	historyCmd.Flags().BoolVar(&histFailed, "failed", false, "Only failed changes")
	historyCmd.Flags().DurationVar(&histSince, "since", 0, "Only changes newer than this, e.g. 24h")
	historyCmd.Flags().StringVar(&histCat, "category", "", "Only this category")

	rootCmd.AddCommand(scanCmd, categoriesCmd, capsCmd, showCmd, refreshCmd, historyCmd)
}
