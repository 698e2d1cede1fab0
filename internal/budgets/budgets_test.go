package budgets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/pagedlist"
	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

var (
	manager = access.Session{ActorID: "mgr", ActorName: "Minh", Role: access.RoleManager}
	member  = access.Session{ActorID: "mem", ActorName: "Lan", Role: access.RoleMember}
	other   = access.Session{ActorID: "oth", ActorName: "Tuan", Role: access.RoleMember}
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore(), member)

	created, err := svc.Create(ctx, record.Budget{Title: "Laptops", Amount: 2500, Approved: true, UserID: "someone"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "mem", created.UserID, "owner comes from the session")
	assert.False(t, created.Approved, "new budgets start unapproved")

	_, err = svc.Create(ctx, record.Budget{Title: "Bad", Amount: -1})
	require.ErrorIs(t, err, record.ErrInvalidBudget)
}

func TestApproveRevoke(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	b, err := NewService(s, member).Create(ctx, record.Budget{Title: "Desk", Amount: 300})
	require.NoError(t, err)

	_, err = NewService(s, member).Approve(ctx, b.ID)
	var permErr *access.PermissionError
	require.True(t, errors.As(err, &permErr))
	assert.Equal(t, access.ApproveBudget, permErr.Permission)

	approved, err := NewService(s, manager).Approve(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	revoked, err := NewService(s, manager).Revoke(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, revoked.Approved)

	_, err = NewService(s, manager).Approve(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	b, err := NewService(s, member).Create(ctx, record.Budget{Title: "Chairs", Amount: 100, Category: "office"})
	require.NoError(t, err)

	b.Amount = 150
	b.Category = ""
	updated, err := NewService(s, member).Update(ctx, b)
	require.NoError(t, err, "owners may edit their budget")
	assert.InDelta(t, 150, updated.Amount, 0.001)
	assert.Empty(t, updated.Category)
	assert.Equal(t, "mem", updated.UserID)

	_, err = NewService(s, other).Update(ctx, b)
	var permErr *access.PermissionError
	require.True(t, errors.As(err, &permErr))

	b.Amount = 175
	_, err = NewService(s, manager).Update(ctx, b)
	require.NoError(t, err)

	_, err = NewService(s, manager).Update(ctx, record.Budget{Title: "x"})
	require.ErrorIs(t, err, record.ErrInvalidBudget)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	b, err := NewService(s, member).Create(ctx, record.Budget{Title: "Snacks", Amount: 20})
	require.NoError(t, err)

	err = NewService(s, member).Delete(ctx, b.ID)
	var permErr *access.PermissionError
	require.True(t, errors.As(err, &permErr))

	require.NoError(t, NewService(s, manager).Delete(ctx, b.ID))
	_, err = NewService(s, manager).Get(ctx, b.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFetchers(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore().WithCompositeIndex(false)

	for _, sess := range []access.Session{member, other, member} {
		_, err := NewService(s, sess).Create(ctx, record.Budget{Title: sess.ActorID, Amount: 1})
		require.NoError(t, err)
	}

	svc := NewService(s, manager)
	assert.False(t, svc.AllFetcher().ClientSide())

	mine := svc.ForUserFetcher("mem")
	assert.True(t, mine.ClientSide())

	state, pages, err := pagedlist.Collect(ctx, pagedlist.New[record.Record](mine), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.Len(t, state.Items, 2)

	assert.True(t, NewService(store.NewMemoryStore(), manager).WithClientSort(true).AllFetcher().ClientSide())
}

func TestSort(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []record.Record{
		{"id": "a", "amount": 50.0, "approved": true, "createdAt": base},
		{"id": "b", "amount": 10.0, "approved": false, "createdAt": base.Add(time.Hour)},
		{"id": "c", "amount": 90.0, "approved": true, "createdAt": base.Add(2 * time.Hour)},
		{"id": "d", "amount": 30.0, "approved": false, "createdAt": base.Add(3 * time.Hour)},
	}

	tests := []struct {
		option SortOption
		want   []string
	}{
		{SortDefault, []string{"d", "c", "b", "a"}},
		{SortAmountAsc, []string{"b", "d", "a", "c"}},
		{SortAmountDesc, []string{"c", "a", "d", "b"}},
		{SortPendingFirst, []string{"d", "b", "c", "a"}},
		{SortApprovedFirst, []string{"c", "a", "d", "b"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.option), func(t *testing.T) {
			assert.Equal(t, tt.want, record.IDs(Sort(records, tt.option)))
		})
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, record.IDs(records), "input is not modified")
}

func TestParseSortOption(t *testing.T) {
	got, err := ParseSortOption(" Amount-Desc ")
	require.NoError(t, err)
	assert.Equal(t, SortAmountDesc, got)

	got, err = ParseSortOption("")
	require.NoError(t, err)
	assert.Equal(t, SortDefault, got)

	_, err = ParseSortOption("cheapest")
	require.ErrorIs(t, err, pagination.ErrInvalidSortField)

	assert.Equal(t, SortAmountAsc, SortDefault.Next())
	assert.Equal(t, SortDefault, SortApprovedFirst.Next())
	assert.Equal(t, SortDefault, SortOption("bogus").Next())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]record.Budget{
		{Amount: 1000, Approved: true},
		{Amount: 250.5},
		{Amount: 49.5},
		{Amount: 200, Approved: true},
	})

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2, s.ApprovedCount)
	assert.Equal(t, 2, s.PendingCount)
	assert.InDelta(t, 1500, s.Total, 0.001)
	assert.InDelta(t, 1200, s.Approved, 0.001)
	assert.InDelta(t, 300, s.Pending, 0.001)
	assert.InDelta(t, 50, s.ApprovalRate(), 0.001)
	assert.Zero(t, Summarize(nil).ApprovalRate())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234.50", FormatAmount(1234.5))
	assert.Equal(t, "0.00", FormatAmount(0))
}
