// Package cache provides norm.Cache implementations for point lookups.
//
// Records read with ModelClient.Get are stored under "norm:<table>:<key>"
// and dropped when the record is updated or deleted. Bulk statements drop
// every entry of their table.
//
//	client, err := norm.Open(uri, reg,
//	    norm.WithCache(cache.NewMemory()),
//	    norm.CacheTTL(time.Minute),
//	)
//
// Three backends are available:
//
//   - Memory: a process-local map, for tests and single-process programs
//   - Redis: any go-redis client (single node, cluster or ring)
//   - DynamoDB: a table keyed by the string attribute "key"
//
// Cache failures never fail a lookup; the client logs them and reads the
// database instead.
package cache
