// Command reelbot runs the Slack movie-queue bot and offers offline tools for
// inspecting and editing its queue.
//
// Usage:
//
//	reelbot serve                 run the Slack bot
//	reelbot queue list            show queued movies
//	reelbot queue add TITLE       append a movie
//	reelbot queue remove QUERY    remove the first matching movie
//	reelbot lookup QUERY          search TMDB
//	reelbot status                check credentials, paths and the queue
//	reelbot config init|validate  manage the configuration file
//	reelbot test-notify           send an ntfy test notification
package main
