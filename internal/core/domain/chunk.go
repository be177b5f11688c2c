package domain

// SnippetChunkType is the private PNG chunk in which LabVIEW embeds VI snippets.
// A snippet image dragged into LabVIEW becomes code again, so variants keep it.
const SnippetChunkType = "niVI"

// Chunk is an ancillary PNG chunk carried from a source into its PNG variants.
type Chunk struct {
	Type string
	Data []byte
}

// PreservedChunk reports whether chunks of the given type survive resizing.
func PreservedChunk(typ string) bool {
	return typ == SnippetChunkType
}
