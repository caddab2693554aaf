package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vyconsole/vyconsole/internal/audit"
	"github.com/vyconsole/vyconsole/internal/config"
	"github.com/vyconsole/vyconsole/internal/logging"
	"github.com/vyconsole/vyconsole/internal/session"
	"github.com/vyconsole/vyconsole/internal/vyos"
	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// loadRegistry reads the profile registry from --config or the default
// location.
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadRegistryFrom(configPath)
	}
	return config.LoadRegistry()
}

// target is a resolved router connection.
type target struct {
	profile  string
	client   *vyosapi.Client
	registry *config.Registry
	audit    *audit.FileLogger
}

// connect resolves the API endpoint: --url beats the profile, and
// --timeout beats the profile timeout.
func connect(cmd *cobra.Command) (*target, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	t := &target{registry: reg}

	requestTimeout := time.Duration(config.DefaultTimeoutSeconds) * time.Second
	switch {
	case targetURL != "":
		if err := config.ValidateProfileURL(targetURL); err != nil {
			return nil, err
		}
		t.client = vyosapi.NewClient(targetURL)
	default:
		name, p, err := reg.Resolve(profileName)
		if err != nil {
			return nil, err
		}
		t.profile = name
		t.client = vyosapi.NewClient(p.URL)
		requestTimeout = p.Timeout()
		reg.MarkUsed(name)
		if err := reg.Save(); err != nil {
			logging.Warn("Failed to save last-used profile", zap.Error(err))
		}
	}
	if cmd.Flags().Changed("timeout") && timeout > 0 {
		requestTimeout = timeout
	}
	t.client.SetTimeout(requestTimeout)

	logging.Debug("Resolved target",
		zap.String("profile", t.profile),
		zap.String("url", t.client.BaseURL),
		zap.Duration("timeout", requestTimeout))
	return t, nil
}

// openAudit opens the change history: --audit-log, then the preference,
// then the config directory.
func (t *target) openAudit() error {
	path := auditLogPath
	if path == "" && t.registry.Preferences != nil {
		path = t.registry.Preferences.AuditLog
	}
	if path == "" {
		var err error
		if path, err = config.GetHistoryPath(); err != nil {
			return err
		}
	}
	l, err := audit.NewFileLogger(path, audit.DefaultRotation)
	if err != nil {
		return err
	}
	t.audit = l
	audit.SetDefaultLogger(l)
	return nil
}

func (t *target) close() {
	if t.audit != nil {
		_ = t.audit.Close()
	}
}

// options tags session operations with this connection.
func (t *target) options() []session.Option {
	opts := []session.Option{
		session.WithProfile(t.profile),
		session.WithTarget(t.client.BaseURL),
	}
	if t.audit != nil {
		opts = append(opts, session.WithAudit(t.audit))
	}
	return opts
}

// format returns the effective output format.
func format(reg *config.Registry) (string, error) {
	f := outputFormat
	if f == "" && reg != nil && reg.Preferences != nil {
		f = reg.Preferences.OutputFormat
	}
	switch strings.ToLower(f) {
	case "", formatText:
		return formatText, nil
	case formatJSON:
		return formatJSON, nil
	case formatYAML:
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, json or yaml)", f)
	}
}

// encode writes v as JSON or YAML. YAML goes through JSON first so json
// tags and raw messages are honoured.
func encode(w io.Writer, f string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if f != formatYAML {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}

// categoryArg looks up the category named by the first argument.
func categoryArg(args []string) (session.Category, error) {
	return session.Lookup(args[0])
}

// completeCategories completes category names for the first argument.
func completeCategories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, c := range session.Kinds() {
		info := c.Info()
		if strings.HasPrefix(info.Name, toComplete) {
			names = append(names, info.Name+"\t"+info.Title)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// keyHelp describes the key fields of a category, e.g.
// "--key name=<value> --key rule=<number>".
func keyHelp(info vyos.Info) string {
	parts := make([]string, 0, len(info.Keys))
	for _, k := range info.Keys {
		placeholder := "value"
		if k.Numeric {
			placeholder = "number"
		}
		parts = append(parts, fmt.Sprintf("--key %s=<%s>", k.Name, placeholder))
	}
	return strings.Join(parts, " ")
}

// parseKey builds the entity key from --key pairs.
func parseKey(info vyos.Info, pairs []string) (vyos.Key, error) {
	key, err := vyos.ParseKey(info.Keys, pairs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (usage: %s)", info.Name, err, keyHelp(info))
	}
	return key, nil
}
