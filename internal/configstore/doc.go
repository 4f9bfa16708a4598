// Package configstore owns the process-wide publication record.
//
// The record is loaded once at startup through a Persister and every mutation
// is persisted before it becomes visible to readers. Writers are serialized;
// readers never wait for disk I/O.
package configstore
