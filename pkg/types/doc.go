// Package types defines the core types shared throughout binstall.
// This includes the InstallTarget and HistoryEvent records, the event
// and scope enumerations, and small shared value types.
package types
