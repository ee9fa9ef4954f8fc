package memory

import (
	"context"
	"testing"
	"time"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStorage_ItemsAreScopedPerClient(t *testing.T) {
	ctx := context.Background()
	s := NewClientStorage()

	require.NoError(t, s.SetItem(ctx, "a", "user", []byte("one")))
	require.NoError(t, s.SetItem(ctx, "b", "user", []byte("two")))

	v, err := s.GetItem(ctx, "a", "user")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	_, err = s.GetItem(ctx, "a", "missing")
	assert.ErrorIs(t, err, repository.ErrItemNotFound)

	require.NoError(t, s.RemoveItem(ctx, "a", "user"))
	require.NoError(t, s.RemoveItem(ctx, "a", "user"))
	_, err = s.GetItem(ctx, "a", "user")
	assert.ErrorIs(t, err, repository.ErrItemNotFound)

	v, err = s.GetItem(ctx, "b", "user")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), v)
}

func TestClientStorage_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewClientStorage()
	buf := []byte("abc")
	require.NoError(t, s.SetItem(ctx, "a", "k", buf))
	buf[0] = 'z'

	v, err := s.GetItem(ctx, "a", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)
}

func TestAppointmentRepository(t *testing.T) {
	ctx := context.Background()
	r := NewAppointmentRepository()
	at := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, &model.Appointment{ID: "2", UserEmail: "p@x.com", DoctorID: 1, ScheduledAt: at.Add(time.Hour)}))
	require.NoError(t, r.Create(ctx, &model.Appointment{ID: "1", UserEmail: "p@x.com", DoctorID: 2, ScheduledAt: at}))

	err := r.Create(ctx, &model.Appointment{ID: "3", UserEmail: "q@x.com", DoctorID: 2, ScheduledAt: at})
	assert.True(t, errors.IsConflict(err))

	taken, err := r.SlotTaken(ctx, 2, at)
	require.NoError(t, err)
	assert.True(t, taken)

	list, err := r.ListByUser(ctx, "p@x.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "2", list[1].ID)

	assert.Error(t, r.Create(ctx, nil))
}
