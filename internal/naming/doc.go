// Package naming turns raw file names into filesystem-safe folder names and
// allocates unique folders for them under a destination root.
//
// Sanitization is controlled by a [Style] and allocation numbering by a
// [Numbering]. The generate command uses [GenerateStyle] with [DashFrom2]
// ("notes", "notes-2", "notes-3"); organize uses [OrganizeStyle] with
// [UnderscoreFrom1] ("notes", "notes_1", "notes_2").
//
// Split: sanitize.go (Style, Sanitize), allocate.go (Numbering, Allocator).
package naming
