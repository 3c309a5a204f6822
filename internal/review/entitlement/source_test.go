package entitlement

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recert/internal/review/models"
)

func seededSource() *Static {
	s := NewStatic()
	s.Add("site-a", models.ItemSeed{UserID: "u-1", RoleID: "r-admin"})
	s.Add("site-a", models.ItemSeed{UserID: "u-2", RoleID: "r-viewer"})
	s.Add("site-b", models.ItemSeed{UserID: "u-3", RoleID: "r-admin"})
	return s
}

func TestStaticSnapshot(t *testing.T) {
	ctx := context.Background()
	s := seededSource()

	t.Run("empty scope matches everything", func(t *testing.T) {
		seeds, err := s.Snapshot(ctx, Scope{})
		require.NoError(t, err)
		assert.Len(t, seeds, 3)
	})

	t.Run("site filter", func(t *testing.T) {
		seeds, err := s.Snapshot(ctx, Scope{SiteIDs: []string{"site-b"}})
		require.NoError(t, err)
		require.Len(t, seeds, 1)
		assert.Equal(t, "u-3", seeds[0].UserID)
	})

	t.Run("role filter", func(t *testing.T) {
		seeds, err := s.Snapshot(ctx, Scope{RoleIDs: []string{"r-admin"}})
		require.NoError(t, err)
		assert.Len(t, seeds, 2)
	})

	t.Run("filters combine", func(t *testing.T) {
		seeds, err := s.Snapshot(ctx, Scope{SiteIDs: []string{"site-a"}, RoleIDs: []string{"r-admin"}})
		require.NoError(t, err)
		require.Len(t, seeds, 1)
		assert.Equal(t, "u-1", seeds[0].UserID)
	})

	t.Run("registration order is preserved", func(t *testing.T) {
		seeds, err := s.Snapshot(ctx, Scope{SiteIDs: []string{"site-a"}})
		require.NoError(t, err)
		require.Len(t, seeds, 2)
		assert.Equal(t, "u-1", seeds[0].UserID)
		assert.Equal(t, "u-2", seeds[1].UserID)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.json")
	payload := `[
		{"site_id": "site-a", "user_id": "u-1", "user_name": "Ada", "user_email": "ada@example.com", "role_id": "r-admin", "role_name": "Admin", "permissions": ["read", "write"]},
		{"site_id": "site-b", "user_id": "u-2", "role_id": "r-viewer"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	source, err := LoadFile(path)
	require.NoError(t, err)

	seeds, err := source.Snapshot(context.Background(), Scope{})
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, "Ada", seeds[0].UserName)
	assert.Equal(t, []string{"read", "write"}, seeds[0].Permissions)

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
		_, err := LoadFile(bad)
		require.Error(t, err)
	})
}
