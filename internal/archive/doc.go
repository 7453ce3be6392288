// Package archive defines the types, collaborator interfaces, and error kinds
// shared by the pattern matcher, page fetcher, archiver, and run orchestrator.
package archive
