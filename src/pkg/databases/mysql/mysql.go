package mysql

import (
	"errors"
	"fmt"
	"time"

	"wallet-service/src/pkg/log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
)

type DBInterface interface {
	GetDB() (*sqlx.DB, error)
	Close() error
}

type database struct {
	db *sqlx.DB
}

// InitConnection opens the MySQL pool described by mysql.* config keys.
func InitConnection(v *viper.Viper, logger log.Log) (DBInterface, error) {
	host := v.GetString("mysql.host")
	if host == "" {
		host = "127.0.0.1"
	}
	port := v.GetInt("mysql.port")
	if port == 0 {
		port = 3306
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		v.GetString("mysql.username"),
		v.GetString("mysql.password"),
		host,
		port,
		v.GetString("mysql.database"),
	)

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		logger.Error("mysql", fmt.Sprintf("failed to open connection: %v", err), "InitConnection", "")
		return nil, err
	}

	db.SetMaxOpenConns(v.GetInt("mysql.pool.max_open"))
	db.SetMaxIdleConns(v.GetInt("mysql.pool.max_idle"))
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		logger.Error("mysql", fmt.Sprintf("failed to ping database: %v", err), "InitConnection", "")
		return nil, err
	}

	return &database{db: db}, nil
}

func (d *database) GetDB() (*sqlx.DB, error) {
	if d == nil || d.db == nil {
		return nil, errors.New("database connection is not initialized")
	}
	return d.db, nil
}

func (d *database) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
