package extract

import _ "embed"

//go:embed serialize.js
var serializerJS string

// SerializerJS returns the in-page serializer source: a zero-argument
// function expression that walks document.documentElement and returns
// { text, frameRefs }. Runtimes evaluate it as-is in the target context;
// the source never changes at runtime, which keeps canonical output a pure
// function of DOM state.
func SerializerJS() string {
	return serializerJS
}
