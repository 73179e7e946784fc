// Package history 把估价请求与结果记录到 sqlite，供回看最近的估价。
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rushteam/carprice/core"
)

const tableName = "predictions"

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
    id TEXT PRIMARY KEY,
    model_version TEXT NOT NULL,
    record TEXT NOT NULL,
    price REAL NOT NULL,
    fallbacks TEXT NOT NULL DEFAULT '[]',
    ctime INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_ctime ON predictions (ctime);
`

// Entry 是一条估价记录。
type Entry struct {
	ID           string          `json:"id"`
	ModelVersion string          `json:"model_version"`
	Record       core.Record     `json:"record"`
	Price        float64         `json:"price"`
	Fallbacks    []core.Fallback `json:"fallbacks,omitempty"`
	Ctime        int64           `json:"ctime"` // 毫秒时间戳
}

// Journal 是基于 sqlite 的估价日志，可被并发使用。
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open 打开（必要时创建）数据库并建表。path 可为 ":memory:"。
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite 单写者；内存库每个连接各自独立，必须限制为一个连接
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Record 写入一条估价记录；ID 与 Ctime 为空时自动填充。
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Ctime == 0 {
		e.Ctime = j.now().UnixMilli()
	}
	record, err := json.Marshal(e.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	fallbacks := []byte("[]")
	if len(e.Fallbacks) > 0 {
		if fallbacks, err = json.Marshal(e.Fallbacks); err != nil {
			return fmt.Errorf("encode fallbacks: %w", err)
		}
	}
	data := map[string]interface{}{
		"id":            e.ID,
		"model_version": e.ModelVersion,
		"record":        string(record),
		"price":         e.Price,
		"fallbacks":     string(fallbacks),
		"ctime":         e.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert(tableName, []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Recent 按时间倒序返回最近 limit 条记录。
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	where := map[string]interface{}{
		"_orderby": "ctime desc",
		"_limit":   []uint{0, uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect(tableName, where,
		[]string{"id", "model_version", "record", "price", "fallbacks", "ctime"})
	if err != nil {
		return nil, err
	}
	rows, err := j.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e                 Entry
			record, fallbacks string
		)
		if err := rows.Scan(&e.ID, &e.ModelVersion, &record, &e.Price, &fallbacks, &e.Ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(record), &e.Record); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(fallbacks), &e.Fallbacks); err != nil {
			return nil, fmt.Errorf("decode fallbacks %s: %w", e.ID, err)
		}
		if len(e.Fallbacks) == 0 {
			e.Fallbacks = nil
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close 关闭数据库。
func (j *Journal) Close() error {
	return j.db.Close()
}
