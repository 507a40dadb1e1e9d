package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kickoff/pkg/testutil"
)

func TestInMemoryCreate(t *testing.T) {
	s := NewInMemory()
	fields := map[string]string{"Title": "Alex Morgan", "STATUS": "Submitted"}

	id, err := s.Create(context.Background(), "applicants", fields)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	fields["Title"] = "changed after create"
	items := s.Items("applicants")
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "Alex Morgan", items[0].Fields["Title"])
	assert.Empty(t, s.Items("newsletter"))
}

func TestInMemoryIDsAreUnique(t *testing.T) {
	s := NewInMemory()
	first, err := s.Create(context.Background(), "applicants", map[string]string{"Title": "A"})
	require.NoError(t, err)
	second, err := s.Create(context.Background(), "applicants", map[string]string{"Title": "A"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, s.Count("applicants"))
}

func TestInMemoryHonoursCancellation(t *testing.T) {
	s := NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, "applicants", map[string]string{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Count("applicants"))
}

func TestInMemoryConcurrentCreates(t *testing.T) {
	s := NewInMemory()

	result := testutil.RunConcurrent(50, func(int) error {
		_, err := s.Create(context.Background(), "applicants", map[string]string{"Title": "x"})
		return err
	})

	assert.Equal(t, int32(50), result.Successes)
	assert.Equal(t, 50, s.Count("applicants"))

	s.Clear()
	assert.Zero(t, s.Count("applicants"))
}
