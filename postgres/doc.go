/*
Package postgres manages the database connection backing the postgres session store.
As part of the connection process, we also ensure that all migrations
have been run on the proper database. The situation where the database is simply a target for some testing has been
considered as well. In this scenario, we are dropping the public schema.

SessionFuncs plugs the sessions table into a session.FuncStore:

	db, err := postgres.Connect(cfg, env)
	store, err := session.NewFuncStore(postgres.SessionFuncs(db))
*/
package postgres
