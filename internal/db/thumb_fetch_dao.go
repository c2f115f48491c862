package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/romdex/internal/thumb"

	"github.com/didi/gendry/builder"
)

const thumbFetchTableName = "thumb_fetch_tab"

// ThumbFetchDao persists thumbnail fetch outcomes so known misses survive
// restarts. It implements thumb.OutcomeStore.
var ThumbFetchDao = newThumbFetchDao()

type thumbFetchDao struct {
	dbGetter DatabaseGetter
}

func newThumbFetchDao() *thumbFetchDao {
	return &thumbFetchDao{
		dbGetter: Default,
	}
}

// Lookup returns the recorded outcome for a cache key, if any.
func (dao *thumbFetchDao) Lookup(ctx context.Context, key string) (thumb.LoadState, string, bool, error) {
	handle := dao.dbGetter()
	if handle == nil {
		return 0, "", false, nil
	}

	const query = `SELECT state, local_path FROM thumb_fetch_tab WHERE cache_key = ? LIMIT 1`
	rows, err := handle.QueryContext(ctx, query, key)
	if err != nil {
		return 0, "", false, fmt.Errorf("query thumb fetch: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var state int
		var localPath string
		if err := rows.Scan(&state, &localPath); err != nil {
			return 0, "", false, fmt.Errorf("scan thumb fetch: %w", err)
		}
		return thumb.LoadState(state), localPath, true, nil
	}
	if err := rows.Err(); err != nil {
		return 0, "", false, err
	}
	return 0, "", false, nil
}

// Record stores or updates the outcome for the provided cache key.
func (dao *thumbFetchDao) Record(ctx context.Context, key string, state thumb.LoadState, localPath string) error {
	handle := dao.dbGetter()
	if handle == nil {
		return fmt.Errorf("thumb fetch dao not initialised")
	}

	now := time.Now().Unix()
	payload := []map[string]interface{}{{
		"cache_key":   key,
		"state":       int(state),
		"local_path":  localPath,
		"create_time": now,
		"update_time": now,
	}}
	insertSQL, insertArgs, err := builder.BuildInsert(thumbFetchTableName, payload)
	if err != nil {
		return err
	}
	if _, err := handle.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		if !isUniqueConstraintError(err) {
			return fmt.Errorf("insert thumb fetch: %w", err)
		}
		updateSQL, updateArgs, err := builder.BuildUpdate(thumbFetchTableName,
			map[string]interface{}{"cache_key": key},
			map[string]interface{}{
				"state":       int(state),
				"local_path":  localPath,
				"update_time": now,
			},
		)
		if err != nil {
			return err
		}
		if _, err := handle.ExecContext(ctx, updateSQL, updateArgs...); err != nil {
			return fmt.Errorf("update thumb fetch: %w", err)
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
