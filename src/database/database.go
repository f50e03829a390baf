package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/proventus/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateIncomeRecordsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS holdings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		ticker TEXT NOT NULL,
		quantity REAL NOT NULL,
		asset_class TEXT NOT NULL DEFAULT 'acao',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, ticker)
	);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		ticker TEXT NOT NULL,
		date TEXT NOT NULL,
		action TEXT NOT NULL,
		quantity REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS income_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		ticker TEXT NOT NULL,
		income_kind TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		record_date TEXT,
		rate_per_share REAL NOT NULL,
		quantity REAL NOT NULL,
		total_value REAL NOT NULL,
		dedup_key TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, dedup_key)
	);

	CREATE TABLE IF NOT EXISTS cash_ledger_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		description TEXT,
		amount REAL NOT NULL,
		kind TEXT NOT NULL DEFAULT 'income',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sync_state (
		user_id INTEGER PRIMARY KEY,
		last_sync_date TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateIncomeRecordsTable adds columns introduced after the table first
// shipped. record_date was not stored by early versions.
func migrateIncomeRecordsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='income_records'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'income_records' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'income_records' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'income_records' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'income_records' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(income_records)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'income_records'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'income_records': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'income_records'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'income_records': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'income_records'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'income_records': %v", err)
		}
		return
	}

	if _, ok := columnExists["record_date"]; !ok {
		_, err := DB.Exec("ALTER TABLE income_records ADD COLUMN record_date TEXT")
		if err != nil {
			logger.L.Error("Error adding 'record_date' column to 'income_records' table", "error", err)
		} else {
			logger.L.Info("Added 'record_date' column to 'income_records' table")
		}
	}
}
