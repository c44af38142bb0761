package database

import (
	"strings"
	"testing"
)

func TestDialects(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		driver        string
		subdir        string
		numbered      bool
		upsertKeyword string
	}{
		{
			name:          "SQLite",
			dialect:       NewSQLiteDialect(),
			driver:        "sqlite3",
			subdir:        "sqlite",
			upsertKeyword: "ON CONFLICT(store_key)",
		},
		{
			name:          "PostgreSQL",
			dialect:       NewPostgresDialect(),
			driver:        "postgres",
			subdir:        "postgres",
			numbered:      true,
			upsertKeyword: "ON CONFLICT (store_key)",
		},
		{
			name:          "MySQL",
			dialect:       NewMySQLDialect(),
			driver:        "mysql",
			subdir:        "mysql",
			upsertKeyword: "ON DUPLICATE KEY UPDATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.subdir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.subdir)
			}

			upsert := tt.dialect.RewriteQuery(tt.dialect.UpsertKVQuery())
			if !strings.Contains(upsert, tt.upsertKeyword) {
				t.Errorf("UpsertKVQuery() = %q, want it to contain %q", upsert, tt.upsertKeyword)
			}
			hasNumbered := strings.Contains(upsert, "$1") && strings.Contains(upsert, "$2")
			if hasNumbered != tt.numbered {
				t.Errorf("rewritten upsert %q numbered placeholders = %v, want %v", upsert, hasNumbered, tt.numbered)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := DialectConfig{Path: "/tmp/flashquiz.db", URL: "postgres://localhost/flashquiz"}

	if got := NewSQLiteDialect().DSN(cfg); got != cfg.Path {
		t.Errorf("SQLite DSN = %q, want %q", got, cfg.Path)
	}
	if got := NewPostgresDialect().DSN(cfg); got != cfg.URL {
		t.Errorf("PostgreSQL DSN = %q, want %q", got, cfg.URL)
	}
	if got := NewMySQLDialect().DSN(cfg); got != cfg.URL {
		t.Errorf("MySQL DSN = %q, want %q", got, cfg.URL)
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT store_value FROM kv_store WHERE store_key = ?",
			expected: "SELECT store_value FROM kv_store WHERE store_key = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT store_value FROM kv_store WHERE store_key = ?",
			expected: "SELECT store_value FROM kv_store WHERE store_key = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO kv_store (store_key, store_value) VALUES (?, ?)",
			expected: "INSERT INTO kv_store (store_key, store_value) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "DELETE FROM kv_store WHERE store_key = ?",
			expected: "DELETE FROM kv_store WHERE store_key = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}
