// Package slack is the bot's messaging transport.
//
// Client wraps the three Web API methods the bot needs (chat.postMessage,
// chat.update, auth.test). EventHandler receives Events API callbacks over
// HTTP: it verifies the request signature, answers the url_verification
// handshake, drops retries and bot traffic, acknowledges immediately, and
// hands message events to a Dispatcher that runs each one on a tracked
// goroutine so shutdown can drain them.
package slack
