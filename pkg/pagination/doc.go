// Package pagination walks paginated Taiga list endpoints sequentially.
//
// Taiga signals a further page through the X-Pagination-Next response
// header and accepts a page=N query parameter on subsequent requests.
// The walker fetches pages strictly in order, concatenates their items,
// and stops when the server announces no further page or the caller's
// item limit is reached.
//
// Example usage:
//
//	walker := pagination.NewWalker(taigaClient, logger)
//	items, err := walker.FetchAll(ctx, "tasks?project=42", 100)
//
// The walker:
//   - never requests page N+1 before page N's response is classified
//   - completes the page that crosses the limit, then truncates
//   - treats a zero or negative limit as unlimited
//   - fails the whole fetch on the first non-2xx page
package pagination
