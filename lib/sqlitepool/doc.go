// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind the
// durable task store.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool with fixed pragmas.
// Callers [Pool.Take] a connection, perform work, and [Pool.Put] it
// back, or hand a function to [Pool.Do] which does both. Connections
// are not safe for concurrent use; each goroutine holds its own.
//
// # Pragmas
//
// Every connection in the pool is initialized with:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=NORMAL: transactions survive process crashes.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock
//     instead of returning SQLITE_BUSY.
//   - foreign_keys=ON: the task hierarchy and the audit log rely on
//     ON DELETE CASCADE and ON DELETE SET NULL.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - temp_store=MEMORY.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/liteflow/liteflow.db",
//	    Logger: logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
// Callers write SQL directly and manage transactions with
// sqlitex.ImmediateTransaction. There is no query builder.
package sqlitepool
