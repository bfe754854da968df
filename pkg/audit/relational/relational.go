package relational

import (
	"database/sql"
	"time"

	"github.com/lamassuiot/ejbca-rest-gateway/pkg/audit"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	_ "github.com/lib/pq"
)

type relationalDB struct {
	db     *sql.DB
	logger log.Logger
}

func NewDB(driverName string, dataSourceName string, logger log.Logger) (audit.Store, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	err = checkDBAlive(db)
	for err != nil {
		level.Warn(logger).Log("msg", "Trying to connect to audit database")
		time.Sleep(5 * time.Second)
		err = checkDBAlive(db)
	}

	return &relationalDB{db: db, logger: logger}, nil
}

func checkDBAlive(db *sql.DB) error {
	sqlStatement := `
	SELECT WHERE 1=0`
	_, err := db.Query(sqlStatement)
	return err
}

func (r *relationalDB) Record(e *audit.Entry) error {
	sqlStatement := `
	INSERT INTO gateway_audit(id, operation, subject, success, message, recorded_at)
	VALUES($1, $2, $3, $4, $5, $6)
	RETURNING id;
	`

	var id string
	err := r.db.QueryRow(sqlStatement, e.ID, e.Operation, e.Subject, e.Success, e.Message, e.Timestamp).Scan(&id)
	if err != nil {
		level.Error(r.logger).Log("err", err, "msg", "Could not insert audit entry for operation "+e.Operation)
		return err
	}
	level.Info(r.logger).Log("msg", "Audit entry "+id+" recorded for operation "+e.Operation)
	return nil
}
