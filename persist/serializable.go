package persist

// BinarySerializable is implemented by components whose state participates
// in binary saves. Serialize and Deserialize must agree on field order; the
// manager frames each component's payload, so implementations never see
// another component's bytes.
type BinarySerializable interface {
	SerializeBinary(w *BinaryWriter) error
	DeserializeBinary(r *BinaryReader) error
}

// TextSerializable is implemented by components whose state participates in
// text saves. Implementations receive a view scoped to their own key
// namespace and flatten compound structures into synthetic indexed keys
// with an explicit count.
type TextSerializable interface {
	SerializeText(w *TextWriter) error
	DeserializeText(r *TextReader) error
}
