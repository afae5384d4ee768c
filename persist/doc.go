// Package persist snapshots and restores component state through two
// interchangeable encodings: a compact length-prefixed binary stream and a
// human-readable key=value text stream.
//
// The Manager is itself a component. Hosts register it with the registry,
// load it, and add component names to the persisted set with
// RegisterForPersistence. On Save the manager looks each name up through
// the registry and writes one named record per name; a name with no active
// component yields an empty placeholder record so the record count stays
// consistent. On Load, records whose component is absent or not
// serializable are skipped exactly, without desynchronizing the rest of
// the stream.
//
// Components opt in by implementing BinarySerializable, TextSerializable,
// or both. Binary payloads are length-framed by the manager; text records
// are namespaced by the component's own name, so implementations never
// touch each other's data.
package persist
