// Package pagination walks cursor-paginated endpoints one page at a time.
//
// Pages are requested strictly in cursor order, with a fixed minimum delay
// between successive requests. The walk ends when a page carries no next
// cursor. A non-success HTTP status halts the walk and keeps what was
// already collected; any other error aborts it.
//
// Example usage:
//
//	walker := pagination.NewWalker[Transaction](fetcher, pagination.DefaultConfig())
//	result, err := walker.Walk(ctx)
//	if err != nil {
//		return err // transport or decoding failure
//	}
//	if result.Halted != nil {
//		// partial result, result.Items holds every page before the failure
//	}
package pagination
