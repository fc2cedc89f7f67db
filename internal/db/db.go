package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docchat/internal/config"
	"docchat/internal/models"
)

// Row is one stored record. Position keeps insertion order; ranking happens in
// memory so the embedding is a plain real[] column.
type Row struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	Position  int64     `bun:"position,pk"`
	RecordID  int       `bun:"record_id,notnull"`
	Content   string    `bun:"content,notnull"`
	Page      int       `bun:"page,notnull"`
	Source    string    `bun:"source,notnull"`
	Embedding []float32 `bun:"embedding,type:real[],array,notnull"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a pool with the configured driver: bun's pgdriver or lib/pq.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverPQ:
		return sql.Open("postgres", cfg.DSN)
	case config.DriverPgdriver, "":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// Persister stores the vector store snapshot in a Postgres table.
type Persister struct {
	db    *bun.DB
	table string
}

// NewPersister connects, pings and creates the table if needed.
func NewPersister(ctx context.Context, cfg *config.DatabaseConfig) (*Persister, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}

	p := &Persister{db: NewDB(sqldb, cfg.Debug), table: cfg.Table}
	if p.table == "" {
		p.table = "documents"
	}

	if err := p.db.PingContext(ctx); err != nil {
		p.db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if err := p.InitDB(ctx); err != nil {
		p.db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", p.table, err)
	}

	log.Debug().Str("table", p.table).Str("driver", cfg.Driver).Msg("Connected to postgres")
	return p, nil
}

func (p *Persister) InitDB(ctx context.Context) error {
	_, err := p.db.NewCreateTable().
		Model((*Row)(nil)).
		ModelTableExpr("?", bun.Ident(p.table)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (p *Persister) tableExpr() (string, bun.Ident) {
	return "? AS d", bun.Ident(p.table)
}

func (p *Persister) Load(ctx context.Context) ([]models.Record, error) {
	expr, table := p.tableExpr()

	var rows []Row
	err := p.db.NewSelect().
		Model(&rows).
		ModelTableExpr(expr, table).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	records := make([]models.Record, len(rows))
	for i, r := range rows {
		records[i] = models.Record{
			ID:        r.RecordID,
			Text:      r.Content,
			Metadata:  models.Metadata{Page: r.Page, Source: r.Source},
			Embedding: r.Embedding,
		}
	}
	return records, nil
}

// Save replaces the table contents with records in one transaction.
func (p *Persister) Save(ctx context.Context, records []models.Record) error {
	expr, table := p.tableExpr()

	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			Position:  int64(i),
			RecordID:  r.ID,
			Content:   r.Text,
			Page:      r.Metadata.Page,
			Source:    r.Metadata.Source,
			Embedding: r.Embedding,
		}
	}

	return p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*Row)(nil)).ModelTableExpr(expr, table).Where("TRUE").Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).ModelTableExpr(expr, table).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert records: %w", err)
		}
		return nil
	})
}

// DropDocuments removes the table.
func (p *Persister) DropDocuments(ctx context.Context) error {
	_, err := p.db.NewDropTable().
		TableExpr("?", bun.Ident(p.table)).
		IfExists().
		Exec(ctx)
	return err
}

func (p *Persister) Close() error {
	return p.db.Close()
}
