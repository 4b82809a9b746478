// Package password is the one-way hashing capability of the auth engine.
//
// # Output formats
//
// [Argon2] emits PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Bcrypt] emits standard modular-crypt bcrypt digests ($2a$/$2b$), the format
// used by earlier deployments of the user database. [Composite] hashes with one
// algorithm and verifies digests of any algorithm it knows, so records hashed
// with bcrypt keep working after switching to argon2id.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive digests.
//   - Enforce password policy (minimum length and the like). The engine does.
//   - Log plaintext passwords.
package password
