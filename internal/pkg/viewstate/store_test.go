package viewstate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findmyridesa/provider-admin/app/models"
)

type jsonMap map[string][]byte

func (m jsonMap) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	data, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (m jsonMap) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m[key] = data
	return nil
}

func (m jsonMap) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestSnapshotStore(t *testing.T) {
	store := NewSnapshotStore(jsonMap{}, 0)
	ctx := context.Background()

	_, found, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)

	joined := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p := models.Provider{ID: "p1", FullName: "Thabo", PhoneNumber: "082", CreatedAt: &joined,
		RegistrationSource: &models.RegistrationSource{Type: "friend", ReferredName: "Ayanda"}}
	p.Normalize()
	rows := []Row{
		{ID: "p1", Provider: &p, Reasons: []string{"Fully Booked"}},
		{ID: "l1", Log: &models.ActivityLog{ID: "l1", Action: models.ACTION_BULK_REJECT}},
	}
	require.NoError(t, store.Save(ctx, "s1", rows))

	loaded, found, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Thabo", loaded[0].Column("name"))
	assert.Equal(t, "082", loaded[0].Column("phone"))
	assert.Equal(t, "Referral: Ayanda", loaded[0].Column("source"))
	assert.Equal(t, "2024-01-02 00:00:00", loaded[0].Column("joined"))
	assert.Equal(t, models.ACTION_BULK_REJECT, loaded[1].Column("action"))

	require.NoError(t, store.Delete(ctx, "s1"))
	_, found, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStateRoundTripDefaults(t *testing.T) {
	c := NewController(State{FilterKey: "payments"}, nil)
	assert.Equal(t, PaymentList, c.State.ViewMode)
	assert.Equal(t, Ascending, c.State.SortDirection)
	assert.NotNil(t, c.State.SelectedIDs)

	c = NewController(State{FilterKey: "bogus"}, nil)
	assert.Equal(t, DefaultFilterKey, c.State.Filter().Key)
}
