package jsonschema

import "github.com/lucab/jsonschema/internal/registry"

// Retriever fetches an external schema resource by its fragmentless
// URI, returning the decoded document. Each URI is retrieved at most
// once per compilation; failures surface as compile errors with code
// errors.ErrRetrievalFailed.
type Retriever = registry.Retriever

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(uri string) (any, error)

// Retrieve implements Retriever.
func (f RetrieverFunc) Retrieve(uri string) (any, error) { return f(uri) }
