package types

// Persistence is the contract a storage backend implements. Each method
// may fail with an operation error (*Error) whose kind tells the caller
// what went wrong.
//
// Implementations must validate criteria (ValidateCriteria) before
// touching storage, must not leave partial writes behind on a failure they
// can detect, and must enumerate properties in the entity's declared order
// in every phase of building a request.
type Persistence interface {
	// Save stores e as a new record.
	Save(e *Entity) error

	// Update assigns the values in changes to the record matching e's
	// current values. Returns ErrNotFound when nothing matches.
	Update(e *Entity, changes *Collection) error

	// Load populates e from the first record matching criteria. An empty
	// collection matches any record. Returns ErrNotFound when nothing
	// matches; e is unchanged on any failure.
	Load(e *Entity, criteria *Collection) error

	// Delete removes the record matching e's current values.
	// Returns ErrNotFound when nothing matches.
	Delete(e *Entity) error
}

// Backend is a Persistence with a connection life cycle. Callers attach
// it once, install it on any number of entities and detach it when no
// entity uses it any more.
type Backend interface {
	Persistence

	// Attach connects the backend to the storage described by config.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach,
	// operations fail with ErrDetached.
	Detach() error
}
