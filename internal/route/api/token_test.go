package api

import (
	"testing"
	"time"

	"github.com/dense-analysis/stocker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	user := &model.User{ID: 42, Role: model.RoleTrader}

	token, expiresAt, err := tokens.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	actor, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, model.Actor{UserID: 42, Role: model.RoleTrader}, actor)
}

func TestParseRejectsBadTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	token, _, err := tokens.Issue(&model.User{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	token, ok = BearerToken("bearer xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)

	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}
