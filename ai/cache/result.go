package cache

import "github.com/hrygo/kaiwa/store"

// ResultKind discriminates the closed set of request outcomes. Switch
// over it exhaustively at call sites.
type ResultKind int

const (
	// KindHit means the reply was served from the cache.
	KindHit ResultKind = iota
	// KindMiss means the reply came from the external generator.
	KindMiss
	// KindError means the request failed; Err carries the cause.
	KindError
)

// String returns the string representation of the result kind.
func (k ResultKind) String() string {
	switch k {
	case KindHit:
		return "hit"
	case KindMiss:
		return "miss"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the tagged union returned by GetResponse.
type Result struct {
	Kind ResultKind

	// Text is the reply served to the user, set for hits and misses.
	Text string

	// Pattern and Response identify the cache rows that served a hit.
	Pattern  *store.Pattern
	Response *store.CachedResponse

	// Similarity is the match score behind a hit.
	Similarity float64

	// Err is the underlying cause for KindError.
	Err error
}

func hitResult(text string, pattern *store.Pattern, response *store.CachedResponse, similarity float64) Result {
	return Result{
		Kind:       KindHit,
		Text:       text,
		Pattern:    pattern,
		Response:   response,
		Similarity: similarity,
	}
}

func missResult(text string) Result {
	return Result{Kind: KindMiss, Text: text}
}

func errorResult(err error) Result {
	return Result{Kind: KindError, Err: err}
}
