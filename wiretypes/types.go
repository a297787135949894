// Package wiretypes holds the on-wire record types that flow through the
// fracpack codec at a package-manifest boundary: references between
// packages, package metadata, and the chain actions a package installs.
// Field order is fracpack wire order; json tags cover the interop
// manifest.json form these same values take on disk.
package wiretypes

import "github.com/psibase-go/fracpack"

// AccountNumber is a compact, fracpack-native account identifier: the
// reflection engine treats it as an ordinary u64 scalar.
type AccountNumber uint64

// Checksum256 is a fixed 32-byte digest, packed as a plain fixed array.
type Checksum256 [32]byte

// PackageRef names a package dependency by name and version range.
type PackageRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Meta is a package's manifest: identity, the accounts it defines, and the
// other packages it depends on.
type Meta struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Depends     []PackageRef    `json:"depends"`
	Accounts    []AccountNumber `json:"accounts"`
}

// Action is a single call into a service, as it appears inside a
// transaction: who's calling, which service, which method, and the
// method's packed argument bytes.
type Action struct {
	Sender  AccountNumber
	Service AccountNumber
	Method  AccountNumber
	RawData []byte
}

// TransactionHeaderV1 is the baseline transaction header shape: an
// expiration and the reference block a transaction is anchored to.
// Extensible so a node running an older build of this package can still
// decode a header written by a newer one.
type TransactionHeaderV1 struct {
	fracpack.Extensible
	Expiration uint32
	RefBlock   uint32
}

// TransactionHeaderV2 adds a tape of actions run before the transaction's
// own actions. It decodes to its zero value when a v1-encoded header is
// read under this schema. A v1 reader treats it as absent while it is
// empty; a v1 reader does not skip the heap body of a non-empty
// PreExecution, and that decode fails.
type TransactionHeaderV2 struct {
	fracpack.Extensible
	Expiration   uint32
	RefBlock     uint32
	PreExecution []Action
}
