// Package sql compiles and executes UPDATE statements over database/sql.
//
// # Drivers
//
// Driver wraps a *sql.DB and implements dialect.Driver and
// dialect.ConnProvider. Acquire pins one pooled connection so that a
// transaction started on it stays on it:
//
//	drv, err := sql.Open("pgx", dsn)
//	conn, err := drv.Acquire(ctx)
//	defer conn.Release()
//
// DebugDriver logs every statement through zap.
//
// # Update statements
//
// Update targets a plain table whose value keys are column names. UpdateOf
// targets the table of an entity; its value keys are property paths and
// version and update-date columns are maintained automatically:
//
//	u := sql.UpdateOf(userMeta).
//	    SetValue("name", "Ann").
//	    WhereEntity(user).
//	    Returning("id", "version")
//	query, args, err := u.Query(dialect.MustLookup(dialect.Postgres))
//	// UPDATE "user" SET "name" = $1, "version" = "version" + 1 WHERE "id" = $2 RETURNING "id", "version"
//
// Compile reports unsupported clauses (RETURNING, LIMIT), unknown property
// paths and empty value sets before anything is sent to the database.
//
// # Predicates
//
//	sql.EQ("name", "john")              // "name" = $1
//	sql.In("status", "active", "new")   // "status" IN ($1, $2)
//	sql.Cond("age BETWEEN ? AND ?", 18, 30)
//	sql.Or(sql.IsNull("deleted"), sql.GT("score", 10))
//
// # Execution
//
// Executor borrows a connection, wraps the statement in a transaction when
// none is active, broadcasts BeforeUpdate and AfterUpdate, and writes the
// returned generated values back onto the matched entities:
//
//	exec := sql.NewExecutor(drv, dialect.MustLookup(drv.Dialect()))
//	res, err := exec.Exec(ctx, u)
package sql
