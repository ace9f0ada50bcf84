// Package router turns classified chat messages into queue operations and
// replies.
//
// Router.Handle ignores messages that do not mention the bot or do not match
// a command. Otherwise it dispatches to the list, lookup, add, or remove
// handler, composes the reply text, and posts every reply in the thread of the
// originating message. Each handled message gets a correlation ID that is
// attached to all of its log lines.
package router
