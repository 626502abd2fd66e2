// Package types is the persistence core: the closed set of primitive
// kinds, the conversions that map user types onto them, the Reader and
// Writer visitor capabilities, properties, entities, property collections,
// the Persistence contract a backend implements, and the chained Error
// used to report failed operations.
//
// A backend knows only primitives. To store a property it calls
// AcceptRead with its own Reader; the property converts its value and
// invokes the Reader method for that primitive kind. Loading goes the
// other way through AcceptWrite and a Writer.
package types
