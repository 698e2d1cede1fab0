package pagination

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/planfocus/internal/record"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func TestSortStable_TiesKeepArrivalOrder(t *testing.T) {
	records := []record.Record{
		{"id": "1", "amount": 50.0, "createdAt": at(1)},
		{"id": "2", "amount": 50.0, "createdAt": at(2)},
	}

	sorted := SortStable(records, ByNumber(record.BudgetAmount, false))
	assert.Equal(t, []string{"1", "2"}, record.IDs(sorted))

	sorted = SortStable(records, ByNumber(record.BudgetAmount, true))
	assert.Equal(t, []string{"1", "2"}, record.IDs(sorted), "descending keeps ties stable too")
}

func TestByRank_PriorityDescending(t *testing.T) {
	records := []record.Record{
		{"id": "low", "priority": "low"},
		{"id": "none"},
		{"id": "high", "priority": "high"},
	}

	sorted := SortStable(records, ByRank(record.TaskPriority, PriorityRanks, true))
	assert.Equal(t, []string{"high", "low", "none"}, record.IDs(sorted))

	// low and absent share rank 1, so arrival order decides.
	reordered := []record.Record{records[1], records[2], records[0]}
	sorted = SortStable(reordered, ByRank(record.TaskPriority, PriorityRanks, true))
	assert.Equal(t, []string{"high", "none", "low"}, record.IDs(sorted))
}

func TestByRank_UnknownValueRanksLowest(t *testing.T) {
	records := []record.Record{
		{"id": "weird", "status": "archived"},
		{"id": "done", "status": "completed"},
		{"id": "pending", "status": "pending"},
	}

	sorted := SortStable(records, ByRank(record.TaskStatus, StatusRanks, false))
	assert.Equal(t, []string{"weird", "pending", "done"}, record.IDs(sorted))
}

func TestAbsentValuesSortLast(t *testing.T) {
	tests := []struct {
		name    string
		compare func(desc bool) Compare
		records []record.Record
	}{
		{
			name:    "number",
			compare: func(desc bool) Compare { return ByNumber("amount", desc) },
			records: []record.Record{
				{"id": "none"},
				{"id": "a", "amount": 10.0},
				{"id": "b", "amount": 20.0},
			},
		},
		{
			name:    "time",
			compare: func(desc bool) Compare { return ByTime("dueDate", desc) },
			records: []record.Record{
				{"id": "none"},
				{"id": "a", "dueDate": at(1)},
				{"id": "b", "dueDate": at(2)},
			},
		},
		{
			name:    "text",
			compare: func(desc bool) Compare { return ByText("title", desc) },
			records: []record.Record{
				{"id": "none"},
				{"id": "a", "title": "Alpha"},
				{"id": "b", "title": "beta"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asc := SortStable(tt.records, tt.compare(false))
			assert.Equal(t, []string{"a", "b", "none"}, record.IDs(asc))

			desc := SortStable(tt.records, tt.compare(true))
			assert.Equal(t, []string{"b", "a", "none"}, record.IDs(desc))
		})
	}
}

func TestCreatedDesc(t *testing.T) {
	records := []record.Record{
		{"id": "old", "createdAt": at(1)},
		{"id": "missing"},
		{"id": "new", "createdAt": at(5).Format(time.RFC3339Nano)},
	}

	sorted := SortStable(records, CreatedDesc())
	assert.Equal(t, []string{"new", "old", "missing"}, record.IDs(sorted))
}

func TestByFlagGrouped(t *testing.T) {
	records := []record.Record{
		{"id": "approved-old", "approved": true, "createdAt": at(1)},
		{"id": "pending-old", "approved": false, "createdAt": at(2)},
		{"id": "approved-new", "approved": true, "createdAt": at(3)},
		{"id": "pending-new", "createdAt": at(4)},
	}

	pendingFirst := SortStable(records, ByFlagGrouped(record.BudgetApproved, false))
	assert.Equal(t,
		[]string{"pending-new", "pending-old", "approved-new", "approved-old"},
		record.IDs(pendingFirst))

	approvedFirst := SortStable(records, ByFlagGrouped(record.BudgetApproved, true))
	assert.Equal(t,
		[]string{"approved-new", "approved-old", "pending-new", "pending-old"},
		record.IDs(approvedFirst))
}

func TestByFlagGrouped_MissingTimestampTies(t *testing.T) {
	a := record.Record{"id": "a", "approved": true}
	b := record.Record{"id": "b", "approved": true, "createdAt": at(1)}

	assert.Equal(t, 0, ByFlagGrouped(record.BudgetApproved, true)(a, b))
	assert.Equal(t, 0, ByFlagGrouped(record.BudgetApproved, true)(b, a))
}

func TestThen(t *testing.T) {
	records := []record.Record{
		{"id": "1", "priority": "high", "title": "b"},
		{"id": "2", "priority": "low", "title": "a"},
		{"id": "3", "priority": "high", "title": "a"},
	}

	sorted := SortStable(records, Then(
		ByRank(record.TaskPriority, PriorityRanks, true),
		ByText(record.TaskTitle, false),
	))
	assert.Equal(t, []string{"3", "1", "2"}, record.IDs(sorted))
}

func TestSortAndPaginate(t *testing.T) {
	records := make([]record.Record, 0, 25)
	for i := range 25 {
		records = append(records, record.Record{"id": string(rune('a' + i)), "amount": float64(i)})
	}
	byAmount := func(a, b record.Record) int { return ByNumber("amount", false)(a, b) }

	tests := []struct {
		name      string
		pageIndex int
		pageSize  int
		wantLen   int
		wantMore  bool
		wantFirst string
	}{
		{name: "first page", pageIndex: 0, pageSize: 10, wantLen: 10, wantMore: true, wantFirst: "a"},
		{name: "middle page", pageIndex: 1, pageSize: 10, wantLen: 10, wantMore: true, wantFirst: "k"},
		{name: "last partial page", pageIndex: 2, pageSize: 10, wantLen: 5, wantMore: false, wantFirst: "u"},
		{name: "beyond end", pageIndex: 3, pageSize: 10, wantLen: 0, wantMore: false},
		{name: "exact fit", pageIndex: 0, pageSize: 25, wantLen: 25, wantMore: false, wantFirst: "a"},
		{name: "negative index", pageIndex: -1, pageSize: 10, wantLen: 0, wantMore: false},
		{name: "zero page size", pageIndex: 0, pageSize: 0, wantLen: 0, wantMore: false},
		{name: "huge index", pageIndex: math.MaxInt / 5, pageSize: 10, wantLen: 0, wantMore: false},
		{name: "huge page size", pageIndex: 1, pageSize: math.MaxInt, wantLen: 0, wantMore: false},
		{name: "huge page size first page", pageIndex: 0, pageSize: math.MaxInt, wantLen: 25, wantMore: false, wantFirst: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, hasMore := SortAndPaginate(records, byAmount, tt.pageIndex, tt.pageSize)
			require.Len(t, page, tt.wantLen)
			assert.Equal(t, tt.wantMore, hasMore)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, page[0].ID())
			}
		})
	}
}

func TestSortAndPaginate_DoesNotMutateInput(t *testing.T) {
	records := []record.Record{
		{"id": "b", "amount": 2.0},
		{"id": "a", "amount": 1.0},
	}

	page, _ := SortAndPaginate(records, func(a, b record.Record) int {
		return ByNumber("amount", false)(a, b)
	}, 0, 10)

	assert.Equal(t, []string{"a", "b"}, record.IDs(page))
	assert.Equal(t, []string{"b", "a"}, record.IDs(records))
}

func TestFieldSorter(t *testing.T) {
	sorter := NewTaskSorter()

	assert.True(t, sorter.IsValidField("priority"))
	assert.False(t, sorter.IsValidField("amount"))
	assert.Equal(t, []string{"assignee", "createdAt", "dueDate", "priority", "status", "title"},
		sorter.GetValidFields())

	records := []record.Record{
		{"id": "1", "priority": "low"},
		{"id": "2", "priority": "high"},
	}

	sorted := sorter.Sort(records, "priority", "desc")
	assert.Equal(t, []string{"2", "1"}, record.IDs(sorted))

	unchanged := sorter.Sort(records, "amount", "desc")
	assert.Equal(t, []string{"1", "2"}, record.IDs(unchanged))

	_, err := sorter.Comparator("amount", "desc")
	require.ErrorIs(t, err, ErrInvalidSortField)

	_, err = sorter.Comparator("priority", "sideways")
	require.ErrorIs(t, err, ErrInvalidSortOrder)
}

func TestBudgetSorter(t *testing.T) {
	sorter := NewBudgetSorter()
	records := []record.Record{
		{"id": "1", "amount": 30.0},
		{"id": "2", "amount": 10.0},
		{"id": "3"},
	}

	sorted := sorter.Sort(records, "amount", "asc")
	assert.Equal(t, []string{"2", "1", "3"}, record.IDs(sorted))
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		input     string
		wantField string
		wantOrder string
		wantErr   error
	}{
		{input: "", wantField: "", wantOrder: "desc"},
		{input: "amount", wantField: "amount", wantOrder: "desc"},
		{input: "amount:asc", wantField: "amount", wantOrder: "asc"},
		{input: " priority : DESC ", wantField: "priority", wantOrder: "desc"},
		{input: ":asc", wantErr: ErrEmptySortField},
		{input: "amount:up", wantErr: ErrInvalidSortOrder},
		{input: "a:b:c", wantErr: ErrInvalidSortFormat},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			field, order, err := ParseSort(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  PaginationParams
		wantErr error
	}{
		{name: "valid default", params: *NewPaginationParams()},
		{name: "all ignores pages", params: PaginationParams{PageSize: 5, All: true}},
		{name: "page size too small", params: PaginationParams{PageSize: 0, Pages: 1}, wantErr: ErrInvalidPageSize},
		{name: "page size too large", params: PaginationParams{PageSize: 1001, Pages: 1}, wantErr: ErrInvalidPageSize},
		{name: "no pages", params: PaginationParams{PageSize: 10, Pages: 0}, wantErr: ErrInvalidPages},
		{
			name:    "bad order",
			params:  PaginationParams{PageSize: 10, Pages: 1, SortOrder: "up"},
			wantErr: ErrInvalidSortOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPageBudgetAndListMeta(t *testing.T) {
	params := PaginationParams{PageSize: 10, Pages: 3, SortField: "amount", SortOrder: "asc"}
	assert.Equal(t, 3, params.PageBudget())

	params.All = true
	assert.Equal(t, MaxPages, params.PageBudget())

	meta := NewListMeta(params, 2, 14, false)
	assert.Equal(t, ListMeta{
		PageSize:    10,
		PagesLoaded: 2,
		TotalLoaded: 14,
		HasMore:     false,
		SortField:   "amount",
		SortOrder:   "asc",
	}, meta)
}
