// Package intent maps a chat message to one of the bot's commands.
//
// Text is normalized first (typographic quotes become ASCII), then a fixed,
// ordered list of recognizers is tried; the first match wins. A recognizer
// either captures nothing (list) or a single query taken from a double-quoted
// span, an underscore-delimited span, or the bare trailing text, in that order
// of preference. Messages that match nothing are not commands.
package intent
