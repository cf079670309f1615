package database

// Local storage queries
const (
	CreateLocalStorageSQL = `
		CREATE TABLE IF NOT EXISTS local_storage (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	GetLocalStorageSQL = `
		SELECT value FROM local_storage WHERE key = $1`

	UpsertLocalStorageSQL = `
		INSERT INTO local_storage (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()`
)
