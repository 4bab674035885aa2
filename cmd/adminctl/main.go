// adminctl is the out-of-band provisioning tool for the admin
// dashboard: creating admin users, listing them, and sweeping expired
// session rows. It talks straight to the database with the same
// repositories the server uses; no HTTP round trip and no token.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/escapeeng/admin-gateway/internal/config"
	"github.com/escapeeng/admin-gateway/internal/database"
	"github.com/escapeeng/admin-gateway/internal/model"
	"github.com/escapeeng/admin-gateway/internal/repository"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "adminctl",
		Short:        "Provision and inspect admin dashboard accounts",
		SilenceUsage: true,
	}
	root.AddCommand(userCmd(), sessionsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// open loads config and connects, shared by every subcommand. Fatal on
// failure: a CLI with no database has nothing to do.
func open() (config.Config, *repository.UserRepo, *repository.SessionRepo) {
	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	return cfg, repository.NewUserRepo(db), repository.NewSessionRepo(db)
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage admin users"}

	var email, password, name, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			cfg, users, _ := open()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			id, err := users.Create(ctx, email, password, name, r, cfg.BcryptCost)
			if err != nil {
				return err
			}
			fmt.Printf("created user %d (%s)\n", id, email)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address (required)")
	create.Flags().StringVar(&password, "password", "", "initial password (required)")
	create.Flags().StringVar(&name, "name", "", "display name (required)")
	create.Flags().StringVar(&role, "role", string(model.RoleAdmin), "role (admin|viewer)")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	_ = create.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, users, _ := open()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			all, err := users.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tLAST LOGIN")
			for _, u := range all {
				last := "never"
				if u.LastLogin != nil {
					last = u.LastLogin.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, last)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sessions", Short: "Inspect and clean up sessions"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, sessions := open()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			all, err := sessions.ListActive(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tUSER\tISSUED\tEXPIRES")
			for _, s := range all {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.SessionID, s.UserID,
					s.IssuedAt.UTC().Format(time.RFC3339), s.ExpiresAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete session rows past their absolute expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, sessions := open()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("purged %d expired session(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, purge)
	return cmd
}
