package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fittracker/fittracker/internal/config"
	"github.com/fittracker/fittracker/internal/domain/report"
	"github.com/fittracker/fittracker/internal/platform/auth"
	"github.com/fittracker/fittracker/internal/platform/db"
	"github.com/fittracker/fittracker/internal/platform/telemetry"
	"github.com/fittracker/fittracker/migrations"
)

func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// migrator reads from dir when given, else from the embedded migrations.
func migrator(pool *pgxpool.Pool, dir, schema string) *db.Migrator {
	if dir != "" {
		return db.NewMigrator(pool, dir, schema)
	}
	return db.NewMigratorFS(pool, migrations.FS, schema)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			fmt.Printf("Running migrations on schema: %s\n", schema)
			count, err := migrator(pool, dir, schema).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "public", "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Migrations directory (default: embedded)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			statuses, err := migrator(pool, dir, schema).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "public", "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Migrations directory (default: embedded)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage trainer accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a trainer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("FITTRACKER_PASSWORD")
			}

			ctx := cmd.Context()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			accounts := auth.NewAccounts(auth.NewUserRepoPG(pool), nil, nil)
			u, err := accounts.SignUp(ctx, auth.SignUpInput{Email: email, Name: name, Password: password})
			if err != nil {
				return err
			}
			fmt.Printf("Created user %s (%s)\n", u.ID, u.Email)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Account email")
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("password", "", "Password (or FITTRACKER_PASSWORD)")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("name")

	cmd.AddCommand(createCmd)
	return cmd
}

// splitCharts parses a comma separated --charts value.
func splitCharts(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a student's measurement report to a PDF file",
		RunE: func(cmd *cobra.Command, args []string) error {
			userFlag, _ := cmd.Flags().GetString("user-id")
			studentFlag, _ := cmd.Flags().GetString("student-id")
			gender, _ := cmd.Flags().GetString("gender")
			charts, _ := cmd.Flags().GetString("charts")
			allCharts, _ := cmd.Flags().GetBool("all-charts")
			out, _ := cmd.Flags().GetString("out")

			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("--user-id: %w", err)
			}
			studentID, err := uuid.Parse(studentFlag)
			if err != nil {
				return fmt.Errorf("--student-id: %w", err)
			}

			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			logger := newLogger(cfg.Env, cfg.LogLevel)
			ctx = logger.WithContext(ctx)

			// The CLI export is not archived.
			svcs, err := newServices(cfg, pool, nil, telemetry.New(zerolog.Nop()))
			if err != nil {
				return err
			}

			sess := &auth.Session{UserID: userID}
			req := report.ExportRequest{Gender: gender, Charts: splitCharts(charts)}
			if allCharts {
				opts, err := svcs.reports.Options(ctx, sess, studentID)
				if err != nil {
					return err
				}
				req.Charts = nil
				for _, o := range opts.Available {
					req.Charts = append(req.Charts, o.Key.String())
				}
			}

			doc, err := svcs.reports.Export(ctx, sess, studentID, req)
			if err != nil {
				return err
			}
			if out == "" {
				out = doc.FileName
			}
			if err := os.WriteFile(out, doc.PDF, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("Wrote %s (%d page(s))\n", out, doc.Pages)
			return nil
		},
	}
	cmd.Flags().String("user-id", "", "Owning trainer id")
	cmd.Flags().String("student-id", "", "Student id")
	cmd.Flags().String("gender", "male", "Body outline: male or female")
	cmd.Flags().String("charts", "", "Comma separated chart keys, e.g. peso,cintura")
	cmd.Flags().Bool("all-charts", false, "Include every available chart")
	cmd.Flags().String("out", "", "Output file (default: report file name)")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("student-id")
	return cmd
}
