package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	"github.com/jmoiron/sqlx"
)

// maxVariables is SQLite's default SQLITE_MAX_VARIABLE_NUMBER.
const maxVariables = 32766

// Sqlite is the embedded store.
type Sqlite struct {
	repository.Transactor
	db        *sqlx.DB
	batchSize int
}

func NewSqlite(cfg *config.Config, db *sqlx.DB) *Sqlite {
	return &Sqlite{
		Transactor: repository.NewTransactor(db),
		db:         db,
		batchSize:  cfg.Storage.BatchSize,
	}
}

func (r *Sqlite) txOrDb(ctx context.Context) repository.Querier {
	return r.TxOrDb(ctx)
}

type upsert struct {
	table    string
	columns  []string
	conflict []string
	update   []string
}

// exec writes rows with multi-row INSERT statements of at most batchSize rows each.
func (r *Sqlite) exec(ctx context.Context, u upsert, rows [][]any) error {
	size := min(r.batchSize, maxVariables/len(u.columns))

	for _, batch := range repository.Chunk(rows, size) {
		var sb strings.Builder
		args := make([]any, 0, len(batch)*len(u.columns))

		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", u.table, strings.Join(u.columns, ", "))

		placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(u.columns)), ", ") + ")"
		for i, row := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(placeholders)
			args = append(args, row...)
		}

		if len(u.conflict) > 0 {
			fmt.Fprintf(&sb, " ON CONFLICT (%s) DO ", strings.Join(u.conflict, ", "))
			if len(u.update) == 0 {
				sb.WriteString("NOTHING")
			} else {
				sets := make([]string, 0, len(u.update))
				for _, c := range u.update {
					sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
				}
				sb.WriteString("UPDATE SET " + strings.Join(sets, ", "))
			}
		}

		if _, err := r.txOrDb(ctx).ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}

	return nil
}

func (r *Sqlite) ListTables(ctx context.Context) (tables []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.ListTables"
	query := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

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
