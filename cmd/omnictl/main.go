// cmd/omnictl/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/omnierp/omnicore/internal/config"
	"github.com/omnierp/omnicore/internal/repository"
	"github.com/omnierp/omnicore/internal/tenant"
	"github.com/spf13/cobra"
)

// omnictl is the operator CLI: it talks to the same data directory and
// master registry as the API server, so tenants can be provisioned or
// re-seeded out of band.

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "omnictl",
		Short:         "Omni ERP tenant administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newOrgCmd())
	root.AddCommand(newTenantCmd())
	return root
}

func openRouter() (*tenant.Router, error) {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return tenant.NewRouter(cfg.Tenancy.DataDir, cfg.Tenancy.MasterURL, logger)
}

func newOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Inspect the organization registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			router, err := openRouter()
			if err != nil {
				return err
			}
			defer router.Close()

			orgRepo := repository.NewOrganizationRepository(router.Master())
			orgs, total, err := orgRepo.FindAllPaginated(cmd.Context(), 0, 500)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tNAME\tPLAN\tSTATUS\tDB")
			for _, org := range orgs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					org.ID, org.Slug, org.Name, org.Plan, org.Status,
					tenant.TenantDBPath(router.DataDir(), org.ID))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("%d organization(s)\n", total)
			return nil
		},
	})

	return cmd
}

func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Provision and seed tenant databases",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "provision <org-id>",
		Short: "Apply the full schema and baseline data for one tenant (idempotent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvisioner(cmd.Context(), args[0], func(ctx context.Context, p *tenant.Provisioner, orgID uint) error {
				return p.Provision(ctx, orgID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed <org-id>",
		Short: "Re-seed the baseline permission and role catalog (idempotent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvisioner(cmd.Context(), args[0], func(ctx context.Context, p *tenant.Provisioner, orgID uint) error {
				return p.EnsureBaseline(ctx, orgID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate-master",
		Short: "Apply the master registry schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			router, err := openRouter()
			if err != nil {
				return err
			}
			defer router.Close()
			return tenant.NewProvisioner(router, slog.Default()).ProvisionMaster(cmd.Context())
		},
	})

	return cmd
}

func withProvisioner(ctx context.Context, rawID string, fn func(context.Context, *tenant.Provisioner, uint) error) error {
	orgID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || orgID == 0 {
		return fmt.Errorf("invalid org id %q", rawID)
	}

	router, err := openRouter()
	if err != nil {
		return err
	}
	defer router.Close()

	if err := fn(ctx, tenant.NewProvisioner(router, slog.Default()), uint(orgID)); err != nil {
		return err
	}
	fmt.Printf("org %d ok\n", orgID)
	return nil
}
