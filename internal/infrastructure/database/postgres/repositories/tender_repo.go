// Package repositories provides the PostgreSQL-backed persistence layer for
// extracted tender records.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appErrors "github.com/turtacn/Tender-Intelligence/pkg/errors"
	"github.com/turtacn/Tender-Intelligence/pkg/types/common"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// recordColumns is the column list shared by every SELECT in this file.
const recordColumns = "id, document_id, lot_numero, fields, confidence, is_valid, raw_result, created_at"

// SearchCriteria carries the dynamic filter parameters for Search.
type SearchCriteria struct {
	Keyword       string
	Univers       string
	Statut        string
	OnlyValid     bool
	MinConfidence float64
	Pagination    common.Pagination
	SortBy        string
	SortOrder     string
}

// TenderRepository is the PostgreSQL implementation of tender record
// persistence. One row per extracted lot; the full record is stored as JSONB
// so the 44-column schema can evolve without migrations, while the columns
// used for filtering (document, lot, confidence, validity) are first-class.
type TenderRepository struct {
	pool   *pgxpool.Pool
	logger Logger
}

// NewTenderRepository constructs a ready-to-use TenderRepository.
func NewTenderRepository(pool *pgxpool.Pool, logger Logger) *TenderRepository {
	return &TenderRepository{pool: pool, logger: logger}
}

// Save persists all records of one extraction run inside a single
// transaction. A re-run of the same document upserts on (document_id,
// lot_numero) so repeated extractions stay idempotent.
func (r *TenderRepository) Save(ctx context.Context, rows []*tender.RecordRow) error {
	if len(rows) == 0 {
		return nil
	}
	r.logger.Debug("TenderRepository.Save", "document_id", rows[0].DocumentID, "rows", len(rows))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("TenderRepository.Save: begin tx", "error", err)
		return appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, row := range rows {
		if err := r.upsertRow(ctx, tx, row); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("TenderRepository.Save: commit", "error", err)
		return appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

func (r *TenderRepository) upsertRow(ctx context.Context, tx pgx.Tx, row *tender.RecordRow) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, err := json.Marshal(row.Fields)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to marshal record fields")
	}

	var raw []byte
	if len(row.RawResult) > 0 {
		raw = row.RawResult
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tender_records (
			id, document_id, lot_numero, fields, confidence, is_valid, raw_result, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (document_id, lot_numero) DO UPDATE SET
			fields     = EXCLUDED.fields,
			confidence = EXCLUDED.confidence,
			is_valid   = EXCLUDED.is_valid,
			raw_result = EXCLUDED.raw_result`,
		row.ID, row.DocumentID, row.LotNumero, fieldsJSON,
		row.Confidence, row.IsValid, raw, row.CreatedAt,
	)
	if err != nil {
		r.logger.Error("TenderRepository.upsertRow", "error", err, "document_id", row.DocumentID, "lot_numero", row.LotNumero)
		return appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to upsert tender record")
	}
	return nil
}

// FindByID returns the record row with the given id.
func (r *TenderRepository) FindByID(ctx context.Context, id string) (*tender.RecordRow, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM tender_records WHERE id = $1", id)

	rec, err := scanRecordRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, appErrors.New(appErrors.CodeTenderNotFound,
				fmt.Sprintf("tender record %s not found", id))
		}
		r.logger.Error("TenderRepository.FindByID", "error", err, "id", id)
		return nil, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to query tender record")
	}
	return rec, nil
}

// ListByDocument returns every record of one document ordered by lot number.
func (r *TenderRepository) ListByDocument(ctx context.Context, documentID string) ([]*tender.RecordRow, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+recordColumns+" FROM tender_records WHERE document_id = $1 ORDER BY lot_numero", documentID)
	if err != nil {
		r.logger.Error("TenderRepository.ListByDocument", "error", err, "document_id", documentID)
		return nil, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to query tender records")
	}
	defer rows.Close()

	return collectRecordRows(rows)
}

// Search returns the matching record rows plus the total match count for
// pagination.
func (r *TenderRepository) Search(ctx context.Context, c SearchCriteria) ([]*tender.RecordRow, int, error) {
	c.Pagination.Normalize()
	where, args := buildSearchWhere(c)

	var total int
	countQuery := "SELECT COUNT(*) FROM tender_records" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("TenderRepository.Search: count", "error", err)
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to count tender records")
	}

	query := "SELECT " + recordColumns + " FROM tender_records" + where +
		" ORDER BY " + sortClause(c.SortBy, c.SortOrder) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, c.Pagination.PageSize, c.Pagination.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("TenderRepository.Search", "error", err)
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to search tender records")
	}
	defer rows.Close()

	recs, err := collectRecordRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// DeleteByDocument removes every record of one document and returns the
// number of rows deleted.
func (r *TenderRepository) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM tender_records WHERE document_id = $1", documentID)
	if err != nil {
		r.logger.Error("TenderRepository.DeleteByDocument", "error", err, "document_id", documentID)
		return 0, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to delete tender records")
	}
	return tag.RowsAffected(), nil
}

// buildSearchWhere assembles the WHERE clause and its positional arguments
// from the populated criteria fields. An empty criteria set yields an empty
// clause.
func buildSearchWhere(c SearchCriteria) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.Keyword != "" {
		p := arg("%" + c.Keyword + "%")
		conds = append(conds, fmt.Sprintf(
			"(fields->'intitule_procedure'->>'value' ILIKE %s OR fields->'intitule_lot'->>'value' ILIKE %s)", p, p))
	}
	if c.Univers != "" {
		conds = append(conds, fmt.Sprintf("fields->'univers'->>'value' = %s", arg(c.Univers)))
	}
	if c.Statut != "" {
		conds = append(conds, fmt.Sprintf("fields->'statut'->>'value' = %s", arg(c.Statut)))
	}
	if c.OnlyValid {
		conds = append(conds, "is_valid = TRUE")
	}
	if c.MinConfidence > 0 {
		conds = append(conds, fmt.Sprintf("confidence >= %s", arg(c.MinConfidence)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// sortClause whitelists the sortable columns; anything else falls back to
// newest-first. Column names are never interpolated from user input directly.
func sortClause(sortBy, sortOrder string) string {
	col := "created_at"
	switch sortBy {
	case "confidence", "lot_numero", "created_at":
		col = sortBy
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanRecordRow.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecordRow(s rowScanner) (*tender.RecordRow, error) {
	var (
		row        tender.RecordRow
		fieldsJSON []byte
		raw        []byte
	)
	if err := s.Scan(&row.ID, &row.DocumentID, &row.LotNumero, &fieldsJSON,
		&row.Confidence, &row.IsValid, &raw, &row.CreatedAt); err != nil {
		return nil, err
	}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &row.Fields); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to unmarshal record fields")
		}
	}
	if len(raw) > 0 {
		row.RawResult = json.RawMessage(raw)
	}
	return &row, nil
}

func collectRecordRows(rows pgx.Rows) ([]*tender.RecordRow, error) {
	var out []*tender.RecordRow
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to scan tender record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to iterate tender records")
	}
	return out, nil
}

//Personal.AI order the ending
