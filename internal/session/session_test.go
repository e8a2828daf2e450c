package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	in := Session{Portal: PortalUser, Department: "ER", TableID: 3, TableName: "Round 1"}

	token, expires, err := m.Issue(in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	got, err := m.Parse(token, PortalUser)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestParseRejectsOtherPortal(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, _, err := m.Issue(Session{Portal: PortalUser, Department: "ER", TableID: 1})
	require.NoError(t, err)

	_, err = m.Parse(token, PortalAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewManager("secret", time.Minute)
	issued := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue(Session{Portal: PortalAdmin, Username: "er_admin", Department: "ER"})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Parse(token, PortalAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewManager("another-secret", time.Hour)
	foreign, _, err := other.Issue(Session{Portal: PortalAdmin, Department: "SUPER_ADMIN"})
	require.NoError(t, err)
	_, err = NewManager("secret", time.Hour).Parse(foreign, PortalAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestContextHelpers(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithContext(context.Background(), Session{Portal: PortalAdmin, Department: "SUPER_ADMIN"})
	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.True(t, s.IsSuperAdmin())
}
