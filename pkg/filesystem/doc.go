// Package filesystem provides the types.FS implementations used by bundl.
//
// Everything goes through afero so the same code runs against the real disk
// (NewOS) and an in-memory tree in tests (NewMemory).
package filesystem
