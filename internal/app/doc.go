// Package app provides the application service layer.
//
// Service is the command processor for operator actions. Every command runs as one
// serialized unit: validate, mutate and persist through the store, then broadcast
// and mirror. A rejected command never touches the store or the displays.
package app
