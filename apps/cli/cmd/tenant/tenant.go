package tenantcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-gym/apps/cli/cmd/clienv"
	"github.com/zenGate-Global/palmyra-gym/domains/tenants/be/repo"
	"github.com/zenGate-Global/palmyra-gym/domains/tenants/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
)

// Command groups tenant and branch setup.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant utilities (create tenants and branches)",
	}

	cmd.AddCommand(createCommand())
	cmd.AddCommand(branchCommand())
	return cmd
}

func newService(conn *clienv.Conn) *service.Service {
	return service.New(repo.NewPostgresRepository(
		persistence.NewTenantStore(conn.TenantDB),
		persistence.NewBranchStore(conn.TenantDB),
	), nil)
}

func createCommand() *cobra.Command {
	var (
		db       clienv.DB
		slug     string
		name     string
		branches []string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant (or reuse the one with the same slug) and its branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := clienv.SystemContext(cmd.Context())

			conn, err := db.Open(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := newService(conn)
			t, err := ensureTenant(ctx, svc, slug, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tenant: %s (%s)\n", t.Slug, t.ID)

			for _, branchName := range branches {
				b, err := svc.CreateBranch(ctx, &t.ID, service.CreateBranchInput{Name: branchName})
				if err != nil {
					return fmt.Errorf("create branch %q: %w", branchName, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Branch: %s (%s)\n", b.Name, b.ID)
			}
			return nil
		},
	}

	db.Bind(c)
	c.Flags().StringVar(&slug, "slug", "", "tenant slug (kebab-case)")
	c.Flags().StringVar(&name, "name", "", "tenant display name")
	c.Flags().StringSliceVar(&branches, "branch", nil, "branch names to create (repeatable)")
	_ = c.MarkFlagRequired("slug")
	_ = c.MarkFlagRequired("name")

	return c
}

// ensureTenant creates the tenant or returns the existing one with the same slug.
func ensureTenant(ctx context.Context, svc *service.Service, slug, name string) (service.Tenant, error) {
	t, err := svc.CreateTenant(ctx, service.CreateTenantInput{Slug: slug, Name: name})
	if err == nil {
		return t, nil
	}
	if errors.Is(err, apperr.ErrConstraintViolation) {
		existing, getErr := svc.FindBySlug(ctx, slug)
		if getErr != nil {
			return service.Tenant{}, fmt.Errorf("tenant exists but could not fetch: %w", getErr)
		}
		return existing, nil
	}
	return service.Tenant{}, fmt.Errorf("create tenant: %w", err)
}

func branchCommand() *cobra.Command {
	var (
		db         clienv.DB
		tenantRef  string
		branchName string
	)

	c := &cobra.Command{
		Use:   "branch",
		Short: "Add a branch to a tenant given by id or slug",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := clienv.SystemContext(cmd.Context())

			conn, err := db.Open(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := newService(conn)
			tenantID, err := resolveTenant(ctx, svc, tenantRef)
			if err != nil {
				return err
			}

			b, err := svc.CreateBranch(ctx, &tenantID, service.CreateBranchInput{Name: branchName})
			if err != nil {
				return fmt.Errorf("create branch: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Branch: %s (%s) tenant %s\n", b.Name, b.ID, b.TenantID)
			return nil
		},
	}

	db.Bind(c)
	c.Flags().StringVar(&tenantRef, "tenant", "", "tenant id or slug")
	c.Flags().StringVar(&branchName, "name", "", "branch name")
	_ = c.MarkFlagRequired("tenant")
	_ = c.MarkFlagRequired("name")

	return c
}

func resolveTenant(ctx context.Context, svc *service.Service, ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		t, err := svc.Get(ctx, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("get tenant: %w", err)
		}
		return t.ID, nil
	}
	t, err := svc.FindBySlug(ctx, ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("find tenant %q: %w", ref, err)
	}
	return t.ID, nil
}
