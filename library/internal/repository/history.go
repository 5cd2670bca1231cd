package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"

	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type historyRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewHistoryRepository(db *sqlx.DB, log *zap.Logger) (*historyRepository, error) {
	return &historyRepository{
		db:  db,
		log: log.Named("history-repo"),
	}, nil
}

const (
	editHistoryTableName   = `edit_history`
	deleteHistoryTableName = `delete_history`
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// snapshots and diffs live in jsonb columns; rows are immutable once written.
type editRow struct {
	ID        int       `db:"id"`
	RecordUid string    `db:"record_uid"`
	BookUid   string    `db:"book_uid"`
	Editor    string    `db:"editor"`
	Before    []byte    `db:"before_snapshot"`
	After     []byte    `db:"after_snapshot"`
	Changes   []byte    `db:"changes"`
	CreatedAt time.Time `db:"created_at"`
}

type deleteRow struct {
	ID        int       `db:"id"`
	RecordUid string    `db:"record_uid"`
	BookUid   string    `db:"book_uid"`
	DeletedBy string    `db:"deleted_by"`
	Snapshot  []byte    `db:"snapshot"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *historyRepository) InsertEdit(ctx context.Context, rec model.EditRecord) error {
	before, err := json.Marshal(rec.Before)
	if err != nil {
		return err
	}
	after, err := json.Marshal(rec.After)
	if err != nil {
		return err
	}
	changes, err := json.Marshal(rec.Changes)
	if err != nil {
		return err
	}

	q, args, err := qb.Insert(editHistoryTableName).
		Columns("record_uid", "book_uid", "editor", "before_snapshot", "after_snapshot", "changes", "created_at").
		Values(rec.RecordUid, rec.BookUid, rec.Editor, before, after, changes, rec.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		r.log.Error("InsertEdit", zap.String("q", q), zap.Error(err))
		return err
	}
	return nil
}

func (r *historyRepository) InsertDelete(ctx context.Context, rec model.DeleteRecord) error {
	snapshot, err := json.Marshal(rec.Book)
	if err != nil {
		return err
	}

	q, args, err := qb.Insert(deleteHistoryTableName).
		Columns("record_uid", "book_uid", "deleted_by", "snapshot", "created_at").
		Values(rec.RecordUid, rec.BookUid, rec.DeletedBy, snapshot, rec.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		r.log.Error("InsertDelete", zap.String("q", q), zap.Error(err))
		return err
	}
	return nil
}

func (r *historyRepository) ListEdits(ctx context.Context) ([]model.EditRecord, error) {
	q, args, err := qb.Select("id", "record_uid", "book_uid", "editor",
		"before_snapshot", "after_snapshot", "changes", "created_at").
		From(editHistoryTableName).
		OrderBy("created_at desc, id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []editRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}

	records := make([]model.EditRecord, 0, len(rows))
	for _, row := range rows {
		rec := model.EditRecord{
			ID:        row.ID,
			RecordUid: row.RecordUid,
			BookUid:   row.BookUid,
			Editor:    row.Editor,
			CreatedAt: row.CreatedAt,
		}
		if err := json.Unmarshal(row.Before, &rec.Before); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(row.After, &rec.After); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(row.Changes, &rec.Changes); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *historyRepository) ListDeletes(ctx context.Context) ([]model.DeleteRecord, error) {
	q, args, err := qb.Select("id", "record_uid", "book_uid", "deleted_by", "snapshot", "created_at").
		From(deleteHistoryTableName).
		OrderBy("created_at desc, id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []deleteRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}

	records := make([]model.DeleteRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *historyRepository) GetDelete(ctx context.Context, recordUid string) (model.DeleteRecord, error) {
	q, args, err := qb.Select("id", "record_uid", "book_uid", "deleted_by", "snapshot", "created_at").
		From(deleteHistoryTableName).
		Where(sq.Eq{"record_uid": recordUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.DeleteRecord{}, err
	}
	var row deleteRow
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DeleteRecord{}, errs.ErrNotFound
		}
		return model.DeleteRecord{}, err
	}
	return row.toRecord()
}

func (r *historyRepository) RemoveDelete(ctx context.Context, recordUid string) error {
	q, args, err := qb.Delete(deleteHistoryTableName).
		Where(sq.Eq{"record_uid": recordUid}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (row deleteRow) toRecord() (model.DeleteRecord, error) {
	rec := model.DeleteRecord{
		ID:        row.ID,
		RecordUid: row.RecordUid,
		BookUid:   row.BookUid,
		DeletedBy: row.DeletedBy,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal(row.Snapshot, &rec.Book); err != nil {
		return model.DeleteRecord{}, err
	}
	return rec, nil
}
