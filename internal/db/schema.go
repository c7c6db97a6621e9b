package db

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`

const selectCacheValue = `
SELECT value FROM cache_entries WHERE key = ?
`

const selectCacheUpdatedAt = `
SELECT updated_at FROM cache_entries WHERE key = ?
`

const upsertCacheValue = `
INSERT INTO cache_entries (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at
`

const deleteCacheValue = `
DELETE FROM cache_entries WHERE key = ?
`
