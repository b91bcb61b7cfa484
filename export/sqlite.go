package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"github.com/w6rfk/arinst/sweep"
)

const (
	sqlitePointCountInfo = 1000

	sqliteCreateTableTmpl = `CREATE TABLE IF NOT EXISTS sweeps (
		"ID"           INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"Identifier"   TEXT NOT NULL,
		"Source"       TEXT NOT NULL,
		"FreqHz"       INTEGER,
		"DBm"          REAL,
		"Time"         INTEGER
	);`
	sqliteInsertPointTmpl = `INSERT INTO sweeps(
		Identifier,
		Source,
		FreqHz,
		DBm,
		Time
	) VALUES (?, ?, ?, ?, ?);`
)

type SQLite struct {
	DB *sql.DB
}

func (s *SQLite) Write(ctx context.Context, frames <-chan sweep.Frame) error {
	if err := sqliteCreateTableIfNotExists(s.DB); err != nil {
		return fmt.Errorf("unable to create table: %s", err)
	}

	counts := map[string]int{
		"error":   0,
		"success": 0,
		"total":   0,
	}
	for frame := range frames {
		for i := range frame.FrequenciesHz {
			counts["total"] += 1
			if err := sqliteInsertPoint(s.DB, frame, i); err != nil {
				counts["error"] += 1
				glog.Warningf("error storing in sqlite DB: %s\n", err)
				continue
			}
			counts["success"] += 1
			if counts["total"]%sqlitePointCountInfo == 0 {
				glog.Infof("Sweep point export counts: %+v\n", counts)
			}
		}
	}

	return nil
}

func sqliteCreateTableIfNotExists(db *sql.DB) error {
	statement, err := db.Prepare(sqliteCreateTableTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(); err != nil {
		return err
	}

	return nil
}

func sqliteInsertPoint(db *sql.DB, f sweep.Frame, i int) error {
	statement, err := db.Prepare(sqliteInsertPointTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(f.Identifier, f.Source, f.FrequenciesHz[i], f.AmplitudesDbm[i], f.Timestamp.UnixMilli()); err != nil {
		return err
	}

	return nil
}
