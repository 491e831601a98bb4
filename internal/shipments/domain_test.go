package shipments

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDraftPermissions(t *testing.T) {
	require.True(t, StateDraft.CanEdit())
	require.True(t, StateDraft.CanSign())
	require.True(t, StateDraft.CanDelete())
	require.False(t, StateDraft.CanRevoke())
}

func TestSignedPermissions(t *testing.T) {
	require.False(t, StateSigned.CanEdit())
	require.False(t, StateSigned.CanSign())
	require.False(t, StateSigned.CanDelete())
	require.True(t, StateSigned.CanRevoke())
}

func TestUnknownStateHasNoPermissions(t *testing.T) {
	state := ShipmentState("REVOKED")
	require.False(t, state.CanEdit())
	require.False(t, state.CanSign())
	require.False(t, state.CanRevoke())
	require.False(t, state.CanDelete())
}
