// Package photolibrary assembles the media library into a single owned
// service object.
//
// A Service owns the catalogue, the authorization gate, the retrieval
// pipeline, the thumbnail prefetch cache, the album catalog, the import
// writer and the background indexer. Callers construct one with New and
// release it with Close; every exported method is safe for concurrent use.
//
// Read operations require the read capability and the save operations
// require the write capability. A capability that has never been decided
// is not requested implicitly: callers ask for it with
// RequestAuthorization first.
package photolibrary
