package db

// Migrate runs all database migrations
func (d *DB) Migrate() error {
	return d.WithLock(func() error {
		// Sessions known to the server
		_, err := d.db.Exec(`
			CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}

		// Per-session persisted values, JSON encoded
		_, err = d.db.Exec(`
			CREATE TABLE IF NOT EXISTS kv (
				scope TEXT NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (scope, key)
			)
		`)
		if err != nil {
			return err
		}

		// Orders delivered by email
		_, err = d.db.Exec(`
			CREATE TABLE IF NOT EXISTS sent_orders (
				id TEXT PRIMARY KEY,
				recipient TEXT NOT NULL,
				order_json TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}

		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_kv_scope ON kv(scope)",
			"CREATE INDEX IF NOT EXISTS idx_sent_orders_created ON sent_orders(created_at)",
		}
		for _, idx := range indexes {
			if _, err := d.db.Exec(idx); err != nil {
				return err
			}
		}

		// Databases created before the email id was recorded lack the column
		return d.migrateSentOrdersEmailID()
	})
}

// migrateSentOrdersEmailID adds the email_id column to sent_orders if it doesn't exist
func (d *DB) migrateSentOrdersEmailID() error {
	exists, err := d.columnExists("sent_orders", "email_id")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = d.db.Exec("ALTER TABLE sent_orders ADD COLUMN email_id TEXT NOT NULL DEFAULT ''")
	return err
}

// columnExists reports whether table has column. Caller must hold the lock.
func (d *DB) columnExists(table, column string) (bool, error) {
	rows, err := d.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var dataType string
		var notNull int
		var defaultValue any
		var pk int

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
