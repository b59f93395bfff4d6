package postgres

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	"github.com/jmoiron/sqlx"
)

// Postgres is the remote store.
type Postgres struct {
	repository.Transactor
	db        *sqlx.DB
	batchSize int
}

func NewPostgres(cfg *config.Config, db *sqlx.DB) *Postgres {
	return &Postgres{
		Transactor: repository.NewTransactor(db),
		db:         db,
		batchSize:  cfg.Storage.BatchSize,
	}
}

func (r *Postgres) txOrDb(ctx context.Context) repository.Querier {
	return r.TxOrDb(ctx)
}

func (r *Postgres) ListTables(ctx context.Context) (tables []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ListTables"
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		ORDER BY table_name`

	slog.Debug("ListTables start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("ListTables failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ListTables completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &tables, query)
	if err != nil {
		return nil, err
	}

	return tables, nil
}
