// Package pg provides PostgreSQL connection pooling, migrations, health checking
// and a PostgreSQL-backed session store built on pgx.
//
// # Connecting
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
// Connect applies the pool limits from Config and pings the database with
// retries before returning.
//
// # Migrations
//
// Migrate applies goose SQL migrations from Config.MigrationsPath using
// Config.MigrationsTable as the version table. MigrateSessions applies the
// embedded migration creating the dispatch_sessions table:
//
//	if err := pg.MigrateSessions(ctx, pool); err != nil {
//		log.Fatal(err)
//	}
//	store := pg.NewSessionStore(pool, cfg.SessionTTL)
//	d := dispatch.New(dcfg, dispatch.WithStore(store))
//
// goose works on database/sql, so migrations run through a database/sql
// wrapper over the pgx pool.
//
// # Transactions
//
// WithTx stores a pgx.Tx in a context; SessionStore runs its statements in that
// transaction when present.
//
// # Error Handling
//
//	isNotFound := pg.IsNotFoundError(err)
//	isDuplicate := pg.IsDuplicateKeyError(err)
//	isFKViolation := pg.IsForeignKeyViolationError(err)
//	isTxClosed := pg.IsTxClosedError(err)
package pg
