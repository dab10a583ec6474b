// Package httputil fetches remote media for the loader.
//
// # Overview
//
// Documents may reference images by http or https URL. The loader only needs
// their intrinsic size, so this package provides:
//
//   - [Fetch]: a bounded GET with retry for transient failures
//   - [Cache]: a file cache of small JSON values, used for probed sizes
//   - [Retry]: automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores entries under ~/.cache/tilegrid/media/ with a TTL based on
// file modification time. Probed sizes are keyed by URL:
//
//	media, err := httputil.NewCache("", 7*24*time.Hour)
//	var size Size
//	if ok, _ := media.Get(src, &size); !ok {
//	    size = probe(src)
//	    media.Set(src, size)
//	}
//
// # Retry
//
// [Fetch] retries network errors, 5xx responses and 429 rate limits. Other
// 4xx responses fail immediately with a CONTENT_ERROR.
//
// The cache can be cleared via `tilegrid cache clear` or by deleting the
// directory.
package httputil
