// Package docid derives stable identifiers for indexed repository files.
package docid

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// Separator joins the repository name and file path before hashing.
const Separator = "_"

// Derive maps a repository name and file path to a stable document ID.
// The same inputs always produce the same ID in any process, so re-indexing
// a path overwrites its record instead of creating a duplicate.
//
// The ID is the md5 digest of repoName + "_" + path rendered as a canonical
// UUID string. md5 is fine here: the ID is an index key, not a credential,
// and the UUID form is accepted as a point identifier by every supported
// vector backend.
func Derive(repoName, path string) string {
	sum := md5.Sum([]byte(repoName + Separator + path))

	// md5 digests are always 16 bytes, so FromBytes cannot fail.
	id, _ := uuid.FromBytes(sum[:])

	return id.String()
}
