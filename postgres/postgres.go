package postgres

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/xy-planning-network/waypoint"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// PG Docs: https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-PARAMKEYWORDS
const cxnStr = "host=%s port=%s dbname=%s user=%s password=%s sslmode=%s"

// CxnConfig holds connection information used to connect to a PostgreSQL database.
type CxnConfig struct {
	IsTestDB    bool
	URL         string
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
	MaxIdleCxns int
}

// Connect creates a database connection through GORM according to the connection config
// and runs Migrations followed by any additional migrations.
func Connect(config *CxnConfig, env waypoint.Environment, migrations ...Migration) (*gorm.DB, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: no connection config", waypoint.ErrBadConfig)
	}

	// https://gorm.io/docs/logger.html
	c := logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  env.IsDevelopment(),
	}

	db, err := gorm.Open(postgres.Open(buildCxnStr(config)), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), c),
		NamingStrategy: schema.NamingStrategy{
			NameReplacer: strings.NewReplacer("Record", ""),
		},
		NowFunc: func() time.Time {
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, err
	}

	if config.MaxIdleCxns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		sqlDB.SetMaxIdleConns(config.MaxIdleCxns)
	}

	if config.IsTestDB {
		for _, stmt := range []string{"DROP SCHEMA IF EXISTS public CASCADE", "CREATE SCHEMA public"} {
			if err := db.Exec(stmt).Error; err != nil {
				return nil, err
			}
		}
	}

	if err := MigrateUp(db, append(Migrations(), migrations...)); err != nil {
		return nil, err
	}

	return db, nil
}

func buildCxnStr(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		// PG Docs: https://www.postgresql.org/docs/current/libpq-ssl.html#LIBPQ-SSL-SSLMODE-STATEMENTS
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		cxnStr,
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		sslMode,
	)
}

// WipeDB truncates every table in the public schema but the migrations table.
func WipeDB(db *gorm.DB) error {
	var tables []string
	err := db.
		Table("information_schema.tables").
		Select("table_name").
		Where("table_schema = ?", "public").
		Not("table_type = ?", "VIEW").
		Not("table_name = ?", migrationsTable).
		Pluck("table_name", &tables).
		Error
	if err != nil {
		return err
	}

	if len(tables) == 0 {
		return nil
	}

	return db.Exec(fmt.Sprintf("TRUNCATE %s CASCADE;", strings.Join(tables, ", "))).Error
}
