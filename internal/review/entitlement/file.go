package entitlement

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"recert/internal/review/models"
)

// fileGrant is the on-disk shape of one entitlement grant.
type fileGrant struct {
	SiteID       string     `json:"site_id"`
	UserID       string     `json:"user_id"`
	UserName     string     `json:"user_name"`
	UserEmail    string     `json:"user_email"`
	RoleID       string     `json:"role_id"`
	RoleName     string     `json:"role_name"`
	Permissions  []string   `json:"permissions"`
	LastActiveAt *time.Time `json:"last_active_at"`
}

// LoadFile builds a static source from a JSON grant export. The file is a
// flat array of grants; ordering in the file is preserved in snapshots.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entitlement file: %w", err)
	}

	var grants []fileGrant
	if err := json.Unmarshal(data, &grants); err != nil {
		return nil, fmt.Errorf("parse entitlement file %s: %w", path, err)
	}

	source := NewStatic()
	for _, g := range grants {
		source.Add(g.SiteID, models.ItemSeed{
			UserID:       g.UserID,
			UserName:     g.UserName,
			UserEmail:    g.UserEmail,
			RoleID:       g.RoleID,
			RoleName:     g.RoleName,
			Permissions:  g.Permissions,
			LastActiveAt: g.LastActiveAt,
		})
	}
	return source, nil
}
