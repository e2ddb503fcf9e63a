package subscriberrepo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	postgres "github.com/techsum/newsletter-api/internal/adapters/postgres"
	subscriberrepoport "github.com/techsum/newsletter-api/internal/ports/out/subscriberrepo"
)

func TestTranslateWriteError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "external id unique violation",
			in: &pgconn.PgError{
				Code:           postgres.UniqueViolationCode,
				ConstraintName: "subscribers_external_id_unique",
			},
			want: subscriberrepoport.ErrIDConflict,
		},
		{
			name: "wrapped external id unique violation",
			in: fmt.Errorf("upsert: %w", &pgconn.PgError{
				Code:           postgres.UniqueViolationCode,
				ConstraintName: "subscribers_external_id_unique",
			}),
			want: subscriberrepoport.ErrIDConflict,
		},
		{
			name: "other unique violation bubbles",
			in: &pgconn.PgError{
				Code:           postgres.UniqueViolationCode,
				ConstraintName: "subscribers_pkey",
			},
		},
		{
			name: "non-pg error bubbles",
			in:   errors.New("connection reset"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateWriteError(tc.in)
			if tc.want != nil {
				if !errors.Is(got, tc.want) {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
				return
			}
			if !errors.Is(got, tc.in) && got.Error() != tc.in.Error() {
				t.Fatalf("error changed: got %v, in %v", got, tc.in)
			}
		})
	}
}
