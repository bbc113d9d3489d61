package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarketJSONRoundTripsShares(t *testing.T) {
	m := NewMarket("m1", "will it rain", "maybe", 100)
	m.ApplyTrade(Yes, 12.5)
	m.ApplyTrade(No, 3.25)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var restored Market
	require.NoError(t, json.Unmarshal(data, &restored))

	qYes, qNo := restored.Shares()
	require.InDelta(t, 12.5, qYes, 1e-9)
	require.InDelta(t, 3.25, qNo, 1e-9)
	require.Equal(t, m.ID, restored.ID)
	require.Equal(t, m.Status, restored.Status)
}

func TestMarketResolveIsOneWay(t *testing.T) {
	m := NewMarket("m1", "x", "", 100)
	require.NoError(t, m.Resolve(Yes, time.Unix(0, 0)))
	require.Equal(t, StatusResolved, m.Status)
	require.ErrorIs(t, m.Resolve(No, time.Unix(0, 0)), ErrAlreadyResolved)
}

func TestMarketValidateCatchesStatusMismatch(t *testing.T) {
	m := NewMarket("m1", "x", "", 100)
	require.NoError(t, m.Validate())

	m.Status = StatusResolved
	require.ErrorIs(t, m.Validate(), ErrInvalidMarket)

	outcome := Yes
	m.Resolved = &outcome
	require.NoError(t, m.Validate())

	m.qYes = -1
	require.ErrorIs(t, m.Validate(), ErrInvalidMarket)
}

func TestMarketCloneIsIndependent(t *testing.T) {
	m := NewMarket("m1", "x", "", 100)
	require.NoError(t, m.Resolve(Yes, time.Unix(0, 0)))

	clone := m.Clone()
	*clone.Resolved = No

	require.Equal(t, Yes, *m.Resolved, "mutating the clone must not affect the original")
}
