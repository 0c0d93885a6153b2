// Package storage 把抓取结果写入Postgres,按 id upsert
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

const defaultBatchSize = 100

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Options Postgres存储参数
type Options struct {
	DSN       string
	Table     string // 可带schema,如 public.visitkorea_items
	BatchSize int
	MaxConns  int32
}

// PostgresSink 把记录写入一张表
type PostgresSink struct {
	pool      *pgxpool.Pool
	table     string
	batchSize int
}

// ValidateTableName 表名只允许标识符,避免拼接SQL时注入
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("无效的表名: %q", name)
	}
	return nil
}

// quoteTable 给表名加双引号,保留schema分隔
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}

// Open 连接数据库并确保表存在
func Open(ctx context.Context, opts Options) (*PostgresSink, error) {
	if err := ValidateTableName(opts.Table); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("解析Postgres DSN失败: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	} else {
		cfg.MaxConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("连接Postgres失败: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("连接Postgres失败: %w", err)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	sink := &PostgresSink{pool: pool, table: quoteTable(opts.Table), batchSize: batchSize}
	if err := sink.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

// EnsureSchema 建表
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createTableSQL(s.table))
	if err != nil {
		return fmt.Errorf("创建表失败 [%s]: %w", s.table, err)
	}
	return nil
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		url         TEXT NOT NULL,
		photo_urls  JSONB NOT NULL DEFAULT '[]',
		fields      JSONB NOT NULL DEFAULT '{}',
		error       TEXT,
		run_id      TEXT NOT NULL,
		crawled_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
}

// upsertSQL 失败记录不覆盖已有的成功记录
func upsertSQL(table string) string {
	return `INSERT INTO ` + table + ` AS t
		(id, name, url, photo_urls, fields, error, run_id, crawled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			photo_urls = EXCLUDED.photo_urls,
			fields = EXCLUDED.fields,
			error = EXCLUDED.error,
			run_id = EXCLUDED.run_id,
			crawled_at = EXCLUDED.crawled_at
		WHERE EXCLUDED.error IS NULL OR t.error IS NOT NULL`
}

// row 一条记录对应的参数
type row struct {
	id, name, url string
	photos        []byte
	fields        []byte
	errMsg        *string
}

func toRow(rec *models.DetailRecord) (row, error) {
	photos := rec.Photos
	if photos == nil {
		photos = []string{}
	}
	photoJSON, err := json.Marshal(photos)
	if err != nil {
		return row{}, err
	}
	fieldJSON, err := rec.Fields.MarshalJSON()
	if err != nil {
		return row{}, err
	}

	r := row{id: rec.ID, name: rec.Name, url: rec.URL, photos: photoJSON, fields: fieldJSON}
	if rec.Failed() {
		msg := rec.Error
		r.errMsg = &msg
	}
	return r, nil
}

// Save 分批upsert
// 成功记录覆盖已有行;失败记录只覆盖失败行,已保存的成功结果保持不变
// 返回实际写入的行数
func (s *PostgresSink) Save(ctx context.Context, result *models.CrawlResult) (int, error) {
	if result.Len() == 0 {
		return 0, nil
	}

	query := upsertSQL(s.table)
	total := 0

	for i := 0; i < len(result.Records); i += s.batchSize {
		j := i + s.batchSize
		if j > len(result.Records) {
			j = len(result.Records)
		}

		b := &pgx.Batch{}
		for k := i; k < j; k++ {
			r, err := toRow(&result.Records[k])
			if err != nil {
				return total, fmt.Errorf("序列化记录失败 [%s]: %w", result.Records[k].ID, err)
			}
			b.Queue(query, r.id, r.name, r.url, r.photos, r.fields, r.errMsg, result.RunID)
		}

		br := s.pool.SendBatch(ctx, b)
		for k := i; k < j; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, fmt.Errorf("写入记录失败 [%s]: %w", result.Records[k].ID, err)
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, err
		}
	}

	utils.Infof("🗄️  已写入Postgres: %d 行 (%s)", total, s.table)
	return total, nil
}

// Close 关闭连接池
func (s *PostgresSink) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
