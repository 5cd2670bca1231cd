package service

import (
	"testing"
	"time"

	"github.com/bookden/library-service/library/internal/model"
	"github.com/stretchr/testify/require"
)

func TestAvailableStock(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	returned := now.Add(-time.Hour)
	book := model.Book{BookUid: "b1", Stock: 3}

	tests := []struct {
		name  string
		loans []model.Loan
		want  int
	}{
		{
			name:  "no loans",
			loans: nil,
			want:  3,
		},
		{
			name: "active loans reduce stock",
			loans: []model.Loan{
				{BookUid: "b1"},
				{BookUid: "b1"},
			},
			want: 1,
		},
		{
			name: "returned loans do not count",
			loans: []model.Loan{
				{BookUid: "b1", ReturnDate: &returned},
				{BookUid: "b1"},
			},
			want: 2,
		},
		{
			name: "other books ignored",
			loans: []model.Loan{
				{BookUid: "b2"},
				{BookUid: "b2"},
			},
			want: 3,
		},
		{
			name: "negative preserved",
			loans: []model.Loan{
				{BookUid: "b1"},
				{BookUid: "b1"},
				{BookUid: "b1"},
				{BookUid: "b1"},
			},
			want: -1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, AvailableStock(book, tt.loans))
		})
	}
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.True(t, IsOverdue(model.Loan{DueDate: past}, now))
	require.False(t, IsOverdue(model.Loan{DueDate: future}, now))
	require.False(t, IsOverdue(model.Loan{DueDate: now}, now))

	// a returned loan is never overdue, however late it was
	require.False(t, IsOverdue(model.Loan{DueDate: past, ReturnDate: &now}, now))
}

func TestUserHasOverdue(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	loans := []model.Loan{
		{Username: "alice", DueDate: now.Add(time.Hour)},
		{Username: "bob", DueDate: past},
	}
	require.False(t, UserHasOverdue("alice", loans, now))
	require.True(t, UserHasOverdue("bob", loans, now))
	require.False(t, UserHasOverdue("carol", loans, now))
}
