// Package adminctl implements feedbackctl, the operator command line for
// tasks that have no web form: creating admins, resetting their passwords,
// rotating the secret passphrase and managing institutions offline.
package adminctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/feedbackhub/internal/server/services"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errEmptySecret = errors.New("empty value, nothing changed")
)

// Services is what the commands operate on.
type Services struct {
	Institutions *services.InstitutionService
	Admins       *services.AdminService
}

// Opener connects to the store named by dsn. The returned func releases it.
type Opener func(ctx context.Context, dsn string) (*Services, func() error, error)

// OpenServices opens and migrates the database the server would use.
func OpenServices(ctx context.Context, dsn string) (*Services, func() error, error) {
	db, rm, err := repomanager.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}

	logger, err := logging.New("slog", "warn")
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return &Services{
		Institutions: services.NewInstitutionService(db, rm, logger),
		Admins:       services.NewAdminService(db, rm, logger),
	}, db.Close, nil
}

type commandLine struct {
	open  Opener
	dsn   string
	svc   *Services
	close func() error
}

// NewRootCmd builds the feedbackctl command tree.
func NewRootCmd(open Opener) *cobra.Command {
	cli := &commandLine{open: open}

	// .env is optional, as for the server
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "feedbackctl",
		Short:         "Administer a feedbackhub installation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := cli.open(cmd.Context(), cli.dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			cli.svc, cli.close = svc, closeFn
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if cli.close == nil {
				return nil
			}
			return cli.close()
		},
	}
	root.PersistentFlags().StringVarP(&cli.dsn, "dsn", "d", os.Getenv("DATABASE_URL"),
		"database DSN (postgres:// URL or SQLite path); defaults to $DATABASE_URL")

	root.AddCommand(
		cli.addInstitutionCmd(),
		cli.listInstitutionsCmd(),
		cli.addAdminCmd(),
		cli.resetPasswordCmd(),
		cli.setPassphraseCmd(),
	)
	return root
}

func (cli *commandLine) addInstitutionCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add-institution",
		Short: "Register an institution and print its code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inst, err := cli.svc.Institutions.Register(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Institution %q added with code: %s\n", inst.OfficialName, inst.Code)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "official name of the institution")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (cli *commandLine) listInstitutionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-institutions",
		Short: "List institutions with their codes and feedback counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := cli.svc.Institutions.ListWithStats(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tFEEDBACK\tNAME")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%d\t%s\n", s.Code, s.FeedbackCount, s.OfficialName)
			}
			return w.Flush()
		},
	}
}

func (cli *commandLine) addAdminCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "add-admin",
		Short: "Create an admin account; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := promptSecret(cmd.OutOrStdout(), "Enter password:")
			if err != nil {
				return err
			}
			created, err := cli.svc.Admins.AddAdmin(cmd.Context(), username, pwd)
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("admin %q already exists", username)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %q created\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an admin; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := promptSecret(cmd.OutOrStdout(), "Enter password:")
			if err != nil {
				return err
			}
			updated, err := cli.svc.Admins.UpdatePassword(cmd.Context(), username, pwd)
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("no admin named %q", username)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password of %q changed\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) setPassphraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-secret-passphrase",
		Short: "Replace the passphrase that unlocks secret messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := promptSecret(cmd.OutOrStdout(), "Enter passphrase:")
			if err != nil {
				return err
			}
			if err := cli.svc.Admins.SetSecretPassphrase(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Secret passphrase changed")
			return nil
		},
	}
}

func promptSecret(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	s := string(b)
	if strings.TrimSpace(s) == "" {
		return "", errEmptySecret
	}
	return s, nil
}
