// Package history records atomic edit operations and reverses them.
//
// Operations live in a flat arena slice; a sequence references a contiguous
// index range of that arena and moves through the states
// open -> closed -> {undone <-> redone}. Inverting a sequence replays its
// operations in reverse with each operation's inverse action, restoring the
// buffer and cursor to their exact pre-sequence state. Operations reference
// buffer content by byte offset only, never by slice identity, so they stay
// valid across buffer growth.
package history
