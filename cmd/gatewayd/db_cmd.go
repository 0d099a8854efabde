package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/specialist-gateway/gateway/internal/database"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "State-store administration",
	}
	cmd.AddCommand(bootstrapLocalCmd())
	return cmd
}

func bootstrapLocalCmd() *cobra.Command {
	var (
		host     string
		port     int
		dbName   string
		dbUser   string
		password string
	)

	cmd := &cobra.Command{
		Use:   "bootstrap-local",
		Short: "Apply migrations against a local Postgres instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("GATEWAY_DB_PASSWORD")
			}
			return runBootstrapLocal(host, port, dbName, dbUser, password)
		},
	}
	cmd.Flags().StringVar(&host, "host", "localhost", "Postgres host")
	cmd.Flags().IntVar(&port, "port", 5432, "Postgres port")
	cmd.Flags().StringVar(&dbName, "db-name", "gateway", "database name")
	cmd.Flags().StringVar(&dbUser, "db-user", "gateway", "database role")
	cmd.Flags().StringVar(&password, "password", "", "database password (falls back to GATEWAY_DB_PASSWORD)")
	return cmd
}

func runBootstrapLocal(host string, port int, dbName, dbUser, password string) error {
	if requiresRootAndMissing() {
		return fmt.Errorf("bootstrap-local must run as root on this platform")
	}

	if !identifierPattern.MatchString(dbName) {
		return &argError{fmt.Errorf("invalid database name %q: must match %s", dbName, identifierPattern.String())}
	}
	if !identifierPattern.MatchString(dbUser) {
		return &argError{fmt.Errorf("invalid database user %q: must match %s", dbUser, identifierPattern.String())}
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(dbUser), url.QueryEscape(password), host, port, dbName)

	client, err := database.NewClient(context.Background(), database.Config{
		DSN:                 dsn,
		ConnectTimeout:      10 * time.Second,
		AutoMigrate:         true,
		MinSupportedVersion: 1,
		MaxSupportedVersion: database.LatestMigrationVersion(),
		MaxOpenConns:        2,
		MaxIdleConns:        1,
	})
	if err != nil {
		return fmt.Errorf("bootstrapping local database: %w", err)
	}
	defer client.Close()

	fmt.Printf("schema migrated to version %d on %s/%s\n", database.LatestMigrationVersion(), host, dbName)
	return nil
}

// requiresRootAndMissing reports whether this platform exposes a root check
// (Unix via os.Geteuid) and the process is not running as root. Windows
// reports os.Geteuid() == -1, which has no root concept and is never
// treated as a precondition failure.
func requiresRootAndMissing() bool {
	euid := os.Geteuid()
	return euid != -1 && euid != 0
}
