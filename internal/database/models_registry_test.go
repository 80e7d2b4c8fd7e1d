package database

import (
	"testing"

	"fitcraft/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_OrderedByDependency(t *testing.T) {
	all := PersistentModels()
	require.Len(t, all, 3)
	_, isUser := all[0].(*models.User)
	require.True(t, isUser, "users must be migrated before dependent tables")
	_, isPost := all[2].(*models.Post)
	require.True(t, isPost)
}
