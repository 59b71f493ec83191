package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ucpkit/ucpcheck/internal/fetch"
	"github.com/ucpkit/ucpcheck/internal/simulate"
)

// ErrNotFound is returned when a merchant or report does not exist.
var ErrNotFound = errors.New("not found")

// Merchant is one directory entry, keyed by normalized domain.
type Merchant struct {
	ID                string    `json:"id"`
	Domain            string    `json:"domain"`
	RegistrableDomain string    `json:"registrableDomain"`
	Name              string    `json:"name,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Report is one saved simulation result. Result holds the full
// simulate.Result JSON as produced by the run.
type Report struct {
	ID          string          `json:"id"`
	MerchantID  string          `json:"merchantId"`
	ProfileHash string          `json:"profileHash,omitempty"`
	Score       int             `json:"score"`
	Grade       string          `json:"grade"`
	Result      json.RawMessage `json:"result"`
	SimulatedAt time.Time       `json:"simulatedAt"`
}

// UpsertMerchant inserts a merchant for a normalized domain, or returns the
// existing row. Name is only written on insert; renames go through a future
// dedicated update.
func (s *Store) UpsertMerchant(ctx context.Context, domain, name string) (Merchant, error) {
	if m, err := s.merchantByDomain(ctx, domain); err == nil {
		return m, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Merchant{}, err
	}

	m := Merchant{
		ID:                uuid.NewString(),
		Domain:            domain,
		RegistrableDomain: fetch.RegistrableDomain(domain),
		Name:              name,
		CreatedAt:         time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO merchants (id, domain, registrable_domain, name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Domain, m.RegistrableDomain, m.Name, m.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Merchant{}, fmt.Errorf("inserting merchant %q: %w", domain, err)
	}
	return m, nil
}

func (s *Store) merchantByDomain(ctx context.Context, domain string) (Merchant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, registrable_domain, name, created_at
		 FROM merchants WHERE domain = ?`, domain)
	return scanMerchant(row)
}

// ListMerchants returns directory entries ordered by domain. q, when
// non-empty, filters by domain substring. limit caps the page size (default
// 50); offset skips rows for pagination.
func (s *Store) ListMerchants(ctx context.Context, q string, limit, offset int) ([]Merchant, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, domain, registrable_domain, name, created_at
		 FROM merchants
		 WHERE (? = '' OR domain LIKE '%' || ? || '%')
		 ORDER BY domain
		 LIMIT ? OFFSET ?`,
		q, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing merchants: %w", err)
	}
	defer rows.Close()

	var out []Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMerchants returns the directory size, honoring the same q filter as
// ListMerchants so callers can paginate.
func (s *Store) CountMerchants(ctx context.Context, q string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM merchants WHERE (? = '' OR domain LIKE '%' || ? || '%')`,
		q, q).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting merchants: %w", err)
	}
	return n, nil
}

// SaveReport persists a finished simulation result under its domain's
// merchant record (created on demand). profileHash is the canonical
// fingerprint of the fetched document, empty when the fetch failed.
func (s *Store) SaveReport(ctx context.Context, res *simulate.Result, profileHash string) (Report, error) {
	m, err := s.UpsertMerchant(ctx, res.Domain, "")
	if err != nil {
		return Report{}, err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return Report{}, fmt.Errorf("encoding result: %w", err)
	}

	rep := Report{
		ID:          uuid.NewString(),
		MerchantID:  m.ID,
		ProfileHash: profileHash,
		Score:       res.OverallScore,
		Grade:       res.Grade,
		Result:      payload,
		SimulatedAt: res.SimulatedAt,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, merchant_id, profile_hash, score, grade, result_json, simulated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.MerchantID, rep.ProfileHash, rep.Score, rep.Grade, string(rep.Result),
		rep.SimulatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Report{}, fmt.Errorf("inserting report for %q: %w", res.Domain, err)
	}
	return rep, nil
}

// LatestReport returns the most recent saved report for a domain.
func (s *Store) LatestReport(ctx context.Context, domain string) (Report, error) {
	m, err := s.merchantByDomain(ctx, domain)
	if err != nil {
		return Report{}, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, merchant_id, profile_hash, score, grade, result_json, simulated_at
		 FROM reports WHERE merchant_id = ?
		 ORDER BY simulated_at DESC LIMIT 1`, m.ID)

	var rep Report
	var resultJSON, simulatedAt string
	err = row.Scan(&rep.ID, &rep.MerchantID, &rep.ProfileHash, &rep.Score, &rep.Grade, &resultJSON, &simulatedAt)
	if err == sql.ErrNoRows {
		return Report{}, fmt.Errorf("no reports for %q: %w", domain, ErrNotFound)
	}
	if err != nil {
		return Report{}, fmt.Errorf("reading report: %w", err)
	}
	rep.Result = json.RawMessage(resultJSON)
	rep.SimulatedAt, err = time.Parse(time.RFC3339Nano, simulatedAt)
	if err != nil {
		return Report{}, fmt.Errorf("parsing simulated_at: %w", err)
	}
	return rep, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMerchant(row rowScanner) (Merchant, error) {
	var m Merchant
	var createdAt string
	err := row.Scan(&m.ID, &m.Domain, &m.RegistrableDomain, &m.Name, &createdAt)
	if err == sql.ErrNoRows {
		return Merchant{}, ErrNotFound
	}
	if err != nil {
		return Merchant{}, fmt.Errorf("scanning merchant: %w", err)
	}
	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Merchant{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return m, nil
}
