package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"recert/internal/review/models"
	id "recert/pkg/domain"
	"recert/pkg/platform/sentinel"
)

// Schema creates the campaign tables. Applied by deploy tooling and by the
// integration test container setup.
const Schema = `
CREATE TABLE IF NOT EXISTS review_campaigns (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	due_date      TIMESTAMPTZ,
	reviewer_ids  TEXT[] NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS review_items (
	id             UUID PRIMARY KEY,
	campaign_id    UUID NOT NULL REFERENCES review_campaigns(id) ON DELETE CASCADE,
	position       INT NOT NULL,
	user_id        TEXT NOT NULL,
	user_name      TEXT NOT NULL DEFAULT '',
	user_email     TEXT NOT NULL DEFAULT '',
	role_id        TEXT NOT NULL,
	role_name      TEXT NOT NULL DEFAULT '',
	permissions    TEXT[] NOT NULL DEFAULT '{}',
	last_active_at TIMESTAMPTZ,
	decision       TEXT NOT NULL DEFAULT 'pending',
	notes          TEXT NOT NULL DEFAULT '',
	reviewed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS review_items_campaign_idx ON review_items (campaign_id, position);
`

// PostgresStore persists campaigns in PostgreSQL. Per-item decision writes are
// single-row transactions with a FOR UPDATE lock; the completion gate recounts
// pending items and flips the terminal flag inside one transaction.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed campaign store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Campaign, items []*models.ReviewItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create campaign: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO review_campaigns (id, name, description, due_date, reviewer_ids, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(c.ID), c.Name, c.Description, c.DueDate, pq.Array(reviewerStrings(c.ReviewerIDs)), c.CreatedAt, c.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}

	for pos, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO review_items
				(id, campaign_id, position, user_id, user_name, user_email, role_id, role_name,
				 permissions, last_active_at, decision, notes, reviewed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			uuid.UUID(item.ID), uuid.UUID(item.CampaignID), pos,
			item.UserID, item.UserName, item.UserEmail, item.RoleID, item.RoleName,
			pq.Array(item.Permissions), item.LastActiveAt, string(item.Decision), item.Notes, item.ReviewedAt,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create campaign: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, campaignID id.CampaignID) (*models.CampaignDetail, error) {
	c, err := s.scanCampaign(ctx, s.db, campaignID, false)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, user_name, user_email, role_id, role_name,
		       permissions, last_active_at, decision, notes, reviewed_at
		FROM review_items WHERE campaign_id = $1 ORDER BY position`,
		uuid.UUID(campaignID),
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*models.ReviewItem
	for rows.Next() {
		item, err := scanItem(rows, campaignID)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	c.Status = models.DeriveStatus(c.CompletedAt, models.ProgressOf(items))
	return &models.CampaignDetail{Campaign: *c, Items: items}, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.due_date, c.reviewer_ids, c.created_at, c.completed_at,
		       COUNT(i.id) FILTER (WHERE i.decision = 'approved'),
		       COUNT(i.id) FILTER (WHERE i.decision = 'revoked'),
		       COUNT(i.id) FILTER (WHERE i.decision = 'pending'),
		       COUNT(i.id)
		FROM review_campaigns c
		LEFT JOIN review_items i ON i.campaign_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var out []*models.Campaign
	for rows.Next() {
		var (
			c         models.Campaign
			rawID     uuid.UUID
			reviewers pq.StringArray
			p         models.Progress
		)
		if err := rows.Scan(&rawID, &c.Name, &c.Description, &c.DueDate, &reviewers, &c.CreatedAt, &c.CompletedAt,
			&p.Approved, &p.Revoked, &p.Pending, &p.Total); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		c.ID = id.CampaignID(rawID)
		c.ReviewerIDs, err = parseReviewers(reviewers)
		if err != nil {
			return nil, err
		}
		c.Status = models.DeriveStatus(c.CompletedAt, p)
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Progress(ctx context.Context, campaignID id.CampaignID) (models.Progress, error) {
	if _, err := s.scanCampaign(ctx, s.db, campaignID, false); err != nil {
		return models.Progress{}, err
	}
	return s.progress(ctx, s.db, campaignID)
}

// UpdateItem locks the item row FOR UPDATE, re-reads the owning campaign, and
// applies validate/mutate before committing. Two concurrent writers on the
// same item serialize on the row lock; writers on different items do not
// contend.
func (s *PostgresStore) UpdateItem(
	ctx context.Context,
	campaignID id.CampaignID,
	itemID id.ItemID,
	validate func(c *models.Campaign, item *models.ReviewItem) error,
	mutate func(item *models.ReviewItem),
) (*models.ReviewItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update item: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	c, err := s.scanCampaign(ctx, tx, campaignID, true)
	if err != nil {
		return nil, err
	}
	p, err := s.progress(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	c.Status = models.DeriveStatus(c.CompletedAt, p)

	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, user_name, user_email, role_id, role_name,
		       permissions, last_active_at, decision, notes, reviewed_at
		FROM review_items WHERE campaign_id = $1 AND id = $2 FOR UPDATE`,
		uuid.UUID(campaignID), uuid.UUID(itemID),
	)
	item, err := scanItem(row, campaignID)
	if err != nil {
		return nil, err
	}

	if err := validate(c, item); err != nil {
		return nil, err
	}
	mutate(item)

	_, err = tx.ExecContext(ctx, `
		UPDATE review_items SET decision = $1, notes = $2, reviewed_at = $3
		WHERE id = $4`,
		string(item.Decision), item.Notes, item.ReviewedAt, uuid.UUID(item.ID),
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update item: %w", err)
	}
	return item, nil
}

// Complete locks the campaign row, recounts pending items inside the same
// transaction, and only then flips the terminal flag. In-flight item updates
// block on the campaign lock ordering or land before the recount, so the gate
// never passes on stale progress.
func (s *PostgresStore) Complete(
	ctx context.Context,
	campaignID id.CampaignID,
	validate func(c *models.Campaign, p models.Progress) error,
	mutate func(c *models.Campaign),
) (*models.Campaign, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin complete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	c, err := s.scanCampaign(ctx, tx, campaignID, true)
	if err != nil {
		return nil, err
	}
	p, err := s.progress(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	c.Status = models.DeriveStatus(c.CompletedAt, p)

	if err := validate(c, p); err != nil {
		return nil, err
	}
	mutate(c)

	_, err = tx.ExecContext(ctx, `
		UPDATE review_campaigns SET completed_at = $1 WHERE id = $2`,
		c.CompletedAt, uuid.UUID(campaignID),
	)
	if err != nil {
		return nil, fmt.Errorf("complete campaign: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit complete: %w", err)
	}
	return c, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) scanCampaign(ctx context.Context, q querier, campaignID id.CampaignID, forUpdate bool) (*models.Campaign, error) {
	query := `
		SELECT id, name, description, due_date, reviewer_ids, created_at, completed_at
		FROM review_campaigns WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		c         models.Campaign
		rawID     uuid.UUID
		reviewers pq.StringArray
	)
	err := q.QueryRowContext(ctx, query, uuid.UUID(campaignID)).
		Scan(&rawID, &c.Name, &c.Description, &c.DueDate, &reviewers, &c.CreatedAt, &c.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	c.ID = id.CampaignID(rawID)
	c.ReviewerIDs, err = parseReviewers(reviewers)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) progress(ctx context.Context, q querier, campaignID id.CampaignID) (models.Progress, error) {
	var p models.Progress
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE decision = 'approved'),
		       COUNT(*) FILTER (WHERE decision = 'revoked'),
		       COUNT(*) FILTER (WHERE decision = 'pending'),
		       COUNT(*)
		FROM review_items WHERE campaign_id = $1`,
		uuid.UUID(campaignID),
	).Scan(&p.Approved, &p.Revoked, &p.Pending, &p.Total)
	if err != nil {
		return models.Progress{}, fmt.Errorf("count items: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, campaignID id.CampaignID) (*models.ReviewItem, error) {
	var (
		item  models.ReviewItem
		rawID uuid.UUID
		perms pq.StringArray
		dec   string
	)
	err := row.Scan(&rawID, &item.UserID, &item.UserName, &item.UserEmail, &item.RoleID, &item.RoleName,
		&perms, &item.LastActiveAt, &dec, &item.Notes, &item.ReviewedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	item.ID = id.ItemID(rawID)
	item.CampaignID = campaignID
	item.Permissions = []string(perms)
	item.Decision = models.Decision(dec)
	return &item, nil
}

func reviewerStrings(ids []id.ReviewerID) []string {
	out := make([]string, len(ids))
	for i, r := range ids {
		out[i] = r.String()
	}
	return out
}

func parseReviewers(raw []string) ([]id.ReviewerID, error) {
	out := make([]id.ReviewerID, 0, len(raw))
	for _, s := range raw {
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse reviewer id %q: %w", s, err)
		}
		out = append(out, id.ReviewerID(u))
	}
	return out, nil
}
