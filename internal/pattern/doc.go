// Package pattern classifies URLs by structural shape and derives the archive
// path for each shape.
//
// A pattern key is the normalized host followed by the path template, where
// segments that look like identifiers (numbers, hex digests, UUIDs, opaque
// tokens) are collapsed to a placeholder. Two URLs whose paths differ only in
// such segments share a key and therefore an archive file.
package pattern
