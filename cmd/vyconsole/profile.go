package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyconsole/vyconsole/internal/config"
)

var (
	profileDescription string
	profileTimeout     int
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage router API profiles",
	Long: `Profiles name the router APIs vyconsole talks to. The current profile
is used when neither --profile nor --url is given.`,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add or replace a profile",
	Example: `  vyconsole profile add edge https://192.168.1.1:8443
  vyconsole profile add lab http://10.0.0.1:8080 --description "lab router" --timeout-seconds 60`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		p := &config.Profile{
			URL:            args[1],
			Description:    profileDescription,
			TimeoutSeconds: profileTimeout,
		}
		if err := reg.SetProfile(args[0], p); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved (%s)\n", args[0], p.URL)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		f, err := format(reg)
		if err != nil {
			return err
		}
		if f != formatText {
			return encode(cmd.OutOrStdout(), f, reg.Profiles)
		}

		names := reg.ProfileNames()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles. Add one with 'vyconsole profile add <name> <url>' or find routers with 'vyconsole scan'.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\tNAME\tURL\tTIMEOUT\tLAST USED\tDESCRIPTION")
		for _, name := range names {
			p := reg.Profiles[name]
			current := ""
			if name == reg.CurrentProfile {
				current = "*"
			}
			lastUsed := "never"
			if !p.LastUsed.IsZero() {
				lastUsed = p.LastUsed.Format(time.DateTime)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", current, name, p.URL, p.Timeout(), lastUsed, p.Description)
		}
		return tw.Flush()
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a profile current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if err := reg.UseProfile(args[0]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Now using profile %q\n", args[0])
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if err := reg.RemoveProfile(args[0]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q removed\n", args[0])
		return nil
	},
}

func init() {
	profileAddCmd.Flags().StringVar(&profileDescription, "description", "", "Free-form description")
	profileAddCmd.Flags().IntVar(&profileTimeout, "timeout-seconds", 0, "Request timeout in seconds (default 30)")

	profileCmd.AddCommand(profileAddCmd, profileListCmd, profileUseCmd, profileRemoveCmd)
	rootCmd.AddCommand(profileCmd)
}
