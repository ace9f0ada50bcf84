// Package daemonrun assembles the reelbot runtime from configuration: the
// queue store, TMDB resolver, Slack client, notifier, router and daemon. It is
// shared by `reelbot serve` and tests that need the full wiring.
package daemonrun
