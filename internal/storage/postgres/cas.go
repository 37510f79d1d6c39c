package postgres

import (
	"context"
	"database/sql"
	"errors"

	aerr "github.com/R3E-Network/aivcs/infrastructure/errors"
	"github.com/R3E-Network/aivcs/internal/digest"
)

// Put stores data under its content digest, doing nothing if the digest is
// already present (Put is idempotent per the cas.Store contract).
func (s *Store) Put(ctx context.Context, data []byte) (digest.ContentDigest, error) {
	d := digest.FromBytes(data)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cas_blobs (digest, data) VALUES ($1, $2) ON CONFLICT (digest) DO NOTHING`,
		d.String(), data,
	)
	if err != nil {
		return digest.ContentDigest{}, aerr.Backend("postgres: put blob", err)
	}
	return d, nil
}

// Get returns the bytes stored under d.
func (s *Store) Get(ctx context.Context, d digest.ContentDigest) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM cas_blobs WHERE digest = $1`, d.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, aerr.CasMissing(d.String())
	}
	if err != nil {
		return nil, aerr.Backend("postgres: get blob", err)
	}
	return data, nil
}

// Contains reports whether d is stored.
func (s *Store) Contains(ctx context.Context, d digest.ContentDigest) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM cas_blobs WHERE digest = $1)`, d.String())
	if err != nil {
		return false, aerr.Backend("postgres: check blob", err)
	}
	return exists, nil
}

// Delete removes d, if present. Deleting a missing digest is not an error.
func (s *Store) Delete(ctx context.Context, d digest.ContentDigest) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cas_blobs WHERE digest = $1`, d.String()); err != nil {
		return aerr.Backend("postgres: delete blob", err)
	}
	return nil
}
