package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"github.com/w6rfk/arinst/sweep"
)

const (
	mysqlPointCountInfo = 1000

	mysqlCreateTableTmpl = `CREATE TABLE IF NOT EXISTS sweeps (
		ID           BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		Identifier   TEXT NOT NULL,
		Source       TEXT NOT NULL,
		FreqHz       BIGINT,
		DBm          DOUBLE,
		Time         BIGINT
	);`
	mysqlInsertPointTmpl = `INSERT INTO sweeps(
		Identifier,
		Source,
		FreqHz,
		DBm,
		Time
	) VALUES (?, ?, ?, ?, ?);`
)

type MySQL struct {
	DB *sql.DB
}

func (m *MySQL) Write(ctx context.Context, frames <-chan sweep.Frame) error {
	if err := mysqlCreateTableIfNotExists(m.DB); err != nil {
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
			if err := mysqlInsertPoint(m.DB, frame, i); err != nil {
				counts["error"] += 1
				glog.Warningf("error storing in MySQL DB: %s\n", err)
				continue
			}
			counts["success"] += 1
			if counts["total"]%mysqlPointCountInfo == 0 {
				glog.Infof("Sweep point export counts: %+v\n", counts)
			}
		}
	}

	return nil
}

func mysqlCreateTableIfNotExists(db *sql.DB) error {
	statement, err := db.Prepare(mysqlCreateTableTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(); err != nil {
		return err
	}

	return nil
}

func mysqlInsertPoint(db *sql.DB, f sweep.Frame, i int) error {
	statement, err := db.Prepare(mysqlInsertPointTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(f.Identifier, f.Source, f.FrequenciesHz[i], f.AmplitudesDbm[i], f.Timestamp.UnixMilli()); err != nil {
		return err
	}

	return nil
}
