package subscriberrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techsum/newsletter-api/internal/adapters/postgres"
	"github.com/techsum/newsletter-api/internal/domain"
	subscriberrepoport "github.com/techsum/newsletter-api/internal/ports/out/subscriberrepo"
)

// Repo is a Postgres implementation of subscriberrepo.Repository.
//
// Per-key atomicity rides on single-statement writes: Upsert is one
// INSERT ... ON CONFLICT and MutateTag is one conditional UPDATE, so
// concurrent writers for the same canonical email serialize on the row lock
// and the unique constraint.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const subscriberColumns = `external_id, email, canonical_email, status, tags, created_at, updated_at`

func (r *Repo) Upsert(ctx context.Context, args subscriberrepoport.UpsertArgs) (subscriberrepoport.Subscriber, error) {
	if r.pool == nil {
		return subscriberrepoport.Subscriber{}, errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(args.ID))
	if err != nil {
		return subscriberrepoport.Subscriber{}, fmt.Errorf("invalid subscriber id: %w", err)
	}
	tags := args.InsertTags
	if tags == nil {
		tags = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO subscribers (
			external_id,
			email,
			canonical_email,
			status,
			tags,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (canonical_email) DO UPDATE
		SET email = EXCLUDED.email,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+subscriberColumns,
		id,
		args.Email,
		string(args.CanonicalEmail),
		string(domain.StatusActive),
		tags,
		args.Now.UTC(),
	)
	s, err := scanSubscriber(row)
	if err != nil {
		return subscriberrepoport.Subscriber{}, translateWriteError(err)
	}
	return s, nil
}

// translateWriteError maps unique-constraint violations onto port errors.
// The upsert resolves canonical-email conflicts itself, so the only unique
// constraint left to trip is the external id.
func translateWriteError(err error) error {
	if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
		switch pe.ConstraintName {
		case "subscribers_external_id_unique":
			return subscriberrepoport.ErrIDConflict
		}
	}
	return err
}

func (r *Repo) SetStatus(ctx context.Context, canonical domain.CanonicalEmail, status domain.Status, now time.Time) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE subscribers
		SET status = $2, updated_at = $3
		WHERE canonical_email = $1
	`, string(canonical), string(status), now.UTC())
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) MutateTag(ctx context.Context, canonical domain.CanonicalEmail, tag string, add bool, now time.Time) ([]string, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}

	// Single-statement read-modify-write: the row lock serializes concurrent
	// tag edits on one subscriber.
	query := `
		UPDATE subscribers
		SET tags = array_remove(tags, $2), updated_at = $3
		WHERE canonical_email = $1
		RETURNING tags
	`
	if add {
		query = `
			UPDATE subscribers
			SET tags = CASE WHEN $2 = ANY(tags) THEN tags ELSE array_append(tags, $2) END,
			    updated_at = $3
			WHERE canonical_email = $1
			RETURNING tags
		`
	}

	var tags []string
	err := r.pool.QueryRow(ctx, query, string(canonical), tag, now.UTC()).Scan(&tags)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, subscriberrepoport.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func (r *Repo) Delete(ctx context.Context, canonical domain.CanonicalEmail) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM subscribers WHERE canonical_email = $1
	`, string(canonical))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) Find(ctx context.Context, canonical domain.CanonicalEmail) (subscriberrepoport.Subscriber, error) {
	if r.pool == nil {
		return subscriberrepoport.Subscriber{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE canonical_email = $1
	`, string(canonical))
	return scanSubscriber(row)
}

func (r *Repo) List(ctx context.Context) ([]subscriberrepoport.Subscriber, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE canonical_email <> ''
		ORDER BY updated_at DESC, created_at DESC, canonical_email ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]subscriberrepoport.Subscriber, 0)
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) Counts(ctx context.Context) (subscriberrepoport.Counts, error) {
	if r.pool == nil {
		return subscriberrepoport.Counts{}, errors.New("nil postgres pool")
	}
	var c subscriberrepoport.Counts
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'active'),
			count(*) FILTER (WHERE status = 'inactive')
		FROM subscribers
		WHERE canonical_email <> ''
	`).Scan(&c.Total, &c.Active, &c.Inactive)
	if err != nil {
		return subscriberrepoport.Counts{}, err
	}
	return c, nil
}

func scanSubscriber(row pgx.Row) (subscriberrepoport.Subscriber, error) {
	var (
		id        uuid.UUID
		email     string
		canonical string
		status    string
		tags      []string
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&id, &email, &canonical, &status, &tags, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return subscriberrepoport.Subscriber{}, subscriberrepoport.ErrNotFound
	}
	if err != nil {
		return subscriberrepoport.Subscriber{}, err
	}
	if tags == nil {
		tags = []string{}
	}
	return subscriberrepoport.Subscriber{
		ID:             domain.SubscriberID(id.String()),
		Email:          email,
		CanonicalEmail: domain.CanonicalEmail(canonical),
		Status:         domain.Status(status),
		Tags:           tags,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}
