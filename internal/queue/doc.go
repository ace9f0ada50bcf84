// Package queue owns the ordered list of pending movie requests and its
// durable snapshot.
//
// The Store keeps the queue in memory, oldest request first, and writes the
// complete list through a Persister after every mutation. Mutation and flush
// happen under one mutex so concurrent chat handlers cannot lose updates or
// interleave writes; a mutation whose flush fails is rolled back. Two
// persisters are provided: a JSON file replaced atomically (the legacy queue.json
// layout) and a SQLite database replaced inside a single
// transaction.
//
// Lock guards the durable snapshot across processes so the CLI never writes
// underneath a running daemon.
package queue
