package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"fitcraft/internal/models"
	"fitcraft/internal/session"
	"fitcraft/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, rdb := testutil.NewTestRedis(t)
	sessions := session.NewRedisStore(rdb, "test-session-secret-0123456789abcdef", time.Hour)
	ctx := context.Background()

	user := &models.User{Username: "jane@example.com", Email: "jane@example.com", Password: "x", FirstName: "Jane", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	tests := []struct {
		name    string
		args    []string
		wantOut string
		wantErr string
		active  bool
	}{
		{name: "Deactivate", args: []string{"deactivate", "1"}, wantOut: "is now inactive", active: false},
		{name: "Deactivate Again", args: []string{"deactivate", "1"}, wantOut: "is already inactive", active: false},
		{name: "List Inactive", args: []string{"list-inactive"}, wantOut: "Username: jane@example.com", active: false},
		{name: "Activate", args: []string{"activate", "1"}, wantOut: "is now active", active: true},
		{name: "List Empty", args: []string{"list-inactive"}, wantOut: "No inactive users", active: true},
		{name: "Unknown User", args: []string{"activate", "42"}, wantErr: "user not found: 42", active: true},
		{name: "Bad ID", args: []string{"activate", "abc"}, wantErr: `invalid user id "abc"`, active: true},
		{name: "Missing ID", args: []string{"deactivate"}, wantErr: "usage", active: true},
		{name: "Unknown Command", args: []string{"promote", "1"}, wantErr: "unknown command: promote", active: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(ctx, db, sessions, tt.args, &out)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Contains(t, out.String(), tt.wantOut)
			}

			var got models.User
			require.NoError(t, db.First(&got, user.ID).Error)
			assert.Equal(t, tt.active, got.IsActive)
		})
	}
}

func TestRun_DeactivateEndsSessions(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, rdb := testutil.NewTestRedis(t)
	sessions := session.NewRedisStore(rdb, "test-session-secret-0123456789abcdef", time.Hour)
	ctx := context.Background()

	user := &models.User{Username: "sam@example.com", Email: "sam@example.com", Password: "x", FirstName: "Sam", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	phone, err := sessions.Create(ctx, user.ID)
	require.NoError(t, err)
	laptop, err := sessions.Create(ctx, user.ID)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(ctx, db, sessions, []string{"deactivate", "1"}, &out))
	assert.Contains(t, out.String(), "Revoked 2 session(s)")

	for _, token := range []string{phone, laptop} {
		_, ok, err := sessions.Lookup(ctx, token)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

type failingRevoker struct{}

func (failingRevoker) DestroyAll(context.Context, uint) (int, error) {
	return 0, errors.New("redis down")
}

func TestRun_DeactivateReportsRevokeFailure(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := &models.User{Username: "sam@example.com", Email: "sam@example.com", Password: "x", FirstName: "Sam", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	var out bytes.Buffer
	err := run(context.Background(), db, failingRevoker{}, []string{"deactivate", "1"}, &out)
	assert.ErrorContains(t, err, "failed to revoke sessions: redis down")
}
