package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

func TestMemberCodesAreSequentialPerTenant(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	a, _ := env.seedTenant(t, "codes-a")
	b, _ := env.seedTenant(t, "codes-b")
	ctxA := tenant.WithTenant(context.Background(), a.ID)
	ctxB := tenant.WithTenant(context.Background(), b.ID)

	prefixA := entity.MemberCodePrefix(a.ID)
	first := env.seedMember(t, ctxA, "One")
	second := env.seedMember(t, ctxA, "Two")
	require.Equal(t, prefixA+"00001", first.Code)
	require.Equal(t, prefixA+"00002", second.Code)

	// sequences are independent per tenant
	other := env.seedMember(t, ctxB, "Uno")
	require.Equal(t, entity.MemberCodePrefix(b.ID)+"00001", other.Code)

	// soft-deleted members keep their code reserved
	require.NoError(t, env.entities.SoftDelete(ctxA, entity.Member, second.ID))
	third := env.seedMember(t, ctxA, "Three")
	require.Equal(t, prefixA+"00003", third.Code)
}

func TestConcurrentMemberCreationYieldsDistinctCodes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tn, _ := env.seedTenant(t, "codes-race")
	ctx := tenant.WithTenant(context.Background(), tn.ID)

	const n = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
		errs  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := env.members.Create(ctx, CreateMemberParams{FullName: fmt.Sprintf("m%d", i)})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			codes = append(codes, m.Code)
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(codes)
	prefix := entity.MemberCodePrefix(tn.ID)
	for i, code := range codes {
		require.Equal(t, entity.FormatMemberCode(prefix, i+1), code)
	}
}

func TestMemberListIsTenantIsolated(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	a, _ := env.seedTenant(t, "iso-a")
	b, _ := env.seedTenant(t, "iso-b")
	ctxA := tenant.WithTenant(context.Background(), a.ID)
	ctxB := tenant.WithTenant(context.Background(), b.ID)

	env.seedMember(t, ctxA, "A1")
	env.seedMember(t, ctxA, "A2")
	memberB := env.seedMember(t, ctxB, "B1")

	scopeA, _ := tenant.FromContext(ctxA)
	listA, err := env.members.List(ctxA, Scoped(scopeA), ListMembersParams{})
	require.NoError(t, err)
	require.Equal(t, 2, listA.TotalItems)
	for _, m := range listA.Members {
		require.Equal(t, a.ID, m.TenantID)
	}

	_, err = env.members.Get(ctxA, Scoped(scopeA), memberB.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// the explicit bypass is the only way across
	got, err := env.members.Get(context.Background(), ForTenant(b.ID), memberB.ID)
	require.NoError(t, err)
	require.Equal(t, memberB.ID, got.ID)
}

func TestMemberListIsBranchIsolated(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn, first := env.seedTenant(t, "branches")
	second, err := env.branches.Create(ctx, tn.ID, "Second")
	require.NoError(t, err)

	ctxFirst := tenant.WithScope(ctx, tenant.ForBranch(tn.ID, first.ID))
	ctxSecond := tenant.WithScope(ctx, tenant.ForBranch(tn.ID, second.ID))
	ctxTenant := tenant.WithTenant(ctx, tn.ID)

	inFirst := env.seedMember(t, ctxFirst, "First")
	inSecond := env.seedMember(t, ctxSecond, "Second")
	noBranch := env.seedMember(t, ctxTenant, "Nowhere")
	require.Equal(t, first.ID, *inFirst.BranchID)
	require.Equal(t, second.ID, *inSecond.BranchID)
	require.Nil(t, noBranch.BranchID)

	scopeFirst, _ := tenant.FromContext(ctxFirst)
	list, err := env.members.List(ctxFirst, Scoped(scopeFirst), ListMembersParams{})
	require.NoError(t, err)
	require.Len(t, list.Members, 1)
	require.Equal(t, inFirst.ID, list.Members[0].ID)

	// plans are not branch scoped: visible from any branch of the tenant
	plan, err := env.subscriptions.CreatePlan(ctxSecond, CreatePlanParams{Name: "Monthly", DurationDays: 30, Price: mustMoney(t, 10000, "USD")})
	require.NoError(t, err)
	_, err = env.subscriptions.GetPlan(ctxFirst, Scoped(scopeFirst), plan.ID)
	require.NoError(t, err)

	unassigned, err := env.members.List(ctx, ForBranch(tn.ID, nil), ListMembersParams{})
	require.NoError(t, err)
	require.Len(t, unassigned.Members, 1)
	require.Equal(t, noBranch.ID, unassigned.Members[0].ID)

	whole, err := env.members.List(ctx, ForTenant(tn.ID), ListMembersParams{})
	require.NoError(t, err)
	require.Equal(t, 3, whole.TotalItems)
}

func TestMemberWritesNeedATenant(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.members.Create(context.Background(), CreateMemberParams{FullName: "Nobody"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestMemberSoftDeleteAndRestore(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tn, _ := env.seedTenant(t, "soft")
	ctx := tenant.WithTenant(context.Background(), tn.ID)
	m := env.seedMember(t, ctx, "Gone")

	require.NoError(t, env.entities.SoftDelete(ctx, entity.Member, m.ID))
	_, err := env.members.Get(ctx, ForTenant(tn.ID), m.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	err = env.entities.SoftDelete(ctx, entity.Member, m.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, env.entities.Restore(ctx, entity.Member, m.ID))
	got, err := env.members.Get(ctx, ForTenant(tn.ID), m.ID)
	require.NoError(t, err)
	require.Nil(t, got.DeletedAt)

	err = env.entities.SoftDelete(ctx, entity.Subscription, m.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}
