// Package errors provides structured, coded errors for the event routes
// tooling.
//
// Every error the CLI or server reports carries a stable code (e.g. "R001")
// that maps to a category, a short message, a longer explanation and a
// documentation URL. Routing failures from pkg/router are classified into
// these codes with Classify, so the terminal, the HTTP API and the WebSocket
// protocol all report the same thing.
//
// # Error Categories
//
//   - routing: resolution and path building (not found, missing param)
//   - navigation: history and middleware outcomes (no history, redirect loop)
//   - config: configuration loading and validation
//   - protocol: malformed client messages
//
// # Usage
//
//	err := errors.New("R021").
//	    WithLocation("eventroutes.toml", 4, 9).
//	    WithSuggestion("Route names must be unique")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R021: Invalid route table
//	//
//	//   eventroutes.toml:4:9
//	//
//	//     3 │ [[routes]]
//	//   → 4 │ name = "events"
//	//       │         ^
//	//
//	//   Hint: Route names must be unique
package errors
