package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	chstore "fx-calendar-lab/internal/storage/clickhouse"
	"fx-calendar-lab/internal/storage/migrations"
	pgstore "fx-calendar-lab/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded PostgreSQL and ClickHouse migrations",
	Long: `Apply the embedded schema migrations to the databases named by
POSTGRES_DSN and CLICKHOUSE_DSN. Unset DSNs are skipped. The ClickHouse
database in the DSN path is created when missing. Applied files are recorded
in schema_migrations; an applied file whose checksum changed is an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if env.PostgresDSN == "" && env.ClickhouseDSN == "" {
			return fmt.Errorf("neither POSTGRES_DSN nor CLICKHOUSE_DSN is set")
		}

		if env.PostgresDSN != "" {
			pool, err := pgstore.NewPool(ctx, env.PostgresDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.ApplyPostgres(ctx, pool)
			if err != nil {
				return fmt.Errorf("postgres migrations: %w", err)
			}
			log.Info().Str("component", "cli").Strs("applied", applied).Msg("postgres migrations done")
		}

		if env.ClickhouseDSN != "" {
			opts, err := chstore.ParseDSN(env.ClickhouseDSN)
			if err != nil {
				return err
			}
			if db := opts.Auth.Database; db != "" {
				admin, err := chstore.NewConnWithDatabase(ctx, env.ClickhouseDSN, "")
				if err != nil {
					return err
				}
				err = migrations.EnsureDatabase(ctx, admin, db)
				_ = admin.Close()
				if err != nil {
					return err
				}
			}

			conn, err := chstore.NewConn(ctx, env.ClickhouseDSN)
			if err != nil {
				return err
			}
			defer conn.Close()

			applied, err := migrations.ApplyClickhouse(ctx, conn)
			if err != nil {
				return fmt.Errorf("clickhouse migrations: %w", err)
			}
			log.Info().Str("component", "cli").Strs("applied", applied).Msg("clickhouse migrations done")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
