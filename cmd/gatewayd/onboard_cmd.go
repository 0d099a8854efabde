package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func onboardCmd() *cobra.Command {
	var (
		envFile string
		openAI  string
		gemini  string
		dsn     string
	)

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Upsert credentials into an env-file, preserving comments and ordering",
		RunE: func(cmd *cobra.Command, args []string) error {
			updates := map[string]string{}
			if openAI != "" {
				updates["OPENAI_API_KEY"] = openAI
			}
			if gemini != "" {
				updates["GEMINI_API_KEY"] = gemini
			}
			if dsn != "" {
				updates["GATEWAY_DATABASE_URL"] = dsn
			}
			if len(updates) == 0 {
				return &argError{fmt.Errorf("nothing to onboard: pass at least one of --openai-key, --gemini-key, --database-url")}
			}
			return upsertEnvFile(envFile, updates)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to the env-file to edit")
	cmd.Flags().StringVar(&openAI, "openai-key", "", "OPENAI_API_KEY value")
	cmd.Flags().StringVar(&gemini, "gemini-key", "", "GEMINI_API_KEY value")
	cmd.Flags().StringVar(&dsn, "database-url", "", "GATEWAY_DATABASE_URL value")
	return cmd
}

// upsertEnvFile rewrites envFile, replacing the value of any KEY=... line
// already present for a key in updates and appending the rest at the end.
// Every other line — comments, blank lines, unrelated keys — passes through
// untouched and in its original order.
func upsertEnvFile(path string, updates map[string]string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var lines []string
	if len(existing) > 0 {
		lines = strings.Split(strings.TrimRight(string(existing), "\n"), "\n")
	}

	remaining := make(map[string]string, len(updates))
	for k, v := range updates {
		remaining[k] = v
	}

	for i, line := range lines {
		key, ok := envLineKey(line)
		if !ok {
			continue
		}
		if value, pending := remaining[key]; pending {
			lines[i] = key + "=" + value
			delete(remaining, key)
		}
	}

	for _, key := range sortedKeys(updates) {
		if value, pending := remaining[key]; pending {
			lines = append(lines, key+"="+value)
		}
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("onboarded %d key(s) into %s\n", len(updates), path)
	return nil
}

// envLineKey extracts the KEY from a "KEY=value" line, ignoring comments,
// blank lines, and an optional leading "export ".
func envLineKey(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	idx := strings.Index(trimmed, "=")
	if idx <= 0 {
		return "", false
	}
	return strings.TrimSpace(trimmed[:idx]), true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
