package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubportal/internal/session"
	id "clubportal/pkg/domain"
)

func TestMemoryNotifiesCopies(t *testing.T) {
	m := NewMemory()
	var got []*session.Session
	unsubscribe, err := m.OnSessionChange(context.Background(), func(s *session.Session) {
		got = append(got, s)
	})
	require.NoError(t, err)

	sess := session.Session{PrincipalID: id.PrincipalID(uuid.New()), DisplayName: "Ada", ExpiresAt: time.Now().Add(time.Hour)}
	m.SignIn(sess)
	require.Len(t, got, 1)
	got[0].DisplayName = "mutated"

	current, err := m.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", current.DisplayName)

	m.Refresh()
	require.NoError(t, m.SignOut(context.Background()))
	require.Len(t, got, 3)
	assert.Equal(t, sess.PrincipalID, got[1].PrincipalID)
	assert.Nil(t, got[2])

	unsubscribe()
	unsubscribe()
	m.SignIn(sess)
	assert.Len(t, got, 3)
}

func TestMemoryFailWith(t *testing.T) {
	m := NewMemory()
	m.SignIn(session.Session{PrincipalID: id.PrincipalID(uuid.New())})
	boom := errors.New("boom")
	m.FailWith(boom)

	_, err := m.CurrentSession(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.SignOut(context.Background()), boom)

	m.FailWith(nil)
	current, err := m.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, current, "failed sign out keeps the session")
}
