// Package types defines the core data model shared across rulesync:
// canonical sources, targets, sync policies, resolved sync entries and
// the filesystem abstraction used by the applier and reporter.
package types
