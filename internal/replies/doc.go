// Package replies holds the bot's phrasings and renders them.
//
// Each key maps to a set of phrasings; Render picks one through a Picker and
// fills {0}, {1}, ... placeholders. Keys whose output tests or users rely on
// (the "not found" answers) carry a single phrasing.
package replies
