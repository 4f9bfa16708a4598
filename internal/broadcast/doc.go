// Package broadcast implements the display-client hub using the actor pattern.
//
// A single goroutine owns the set of sessions and processes commands from a channel
// (no mutexes). Each session has its own writer goroutine with a bounded FIFO buffer,
// so a slow or dead display never delays persistence or delivery to the others.
// Newly registered sessions are sent the current state before anything else.
package broadcast
