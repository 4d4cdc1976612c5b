// Package mastodon implements the REST collaborator the synchronizer
// drives: hashtag timeline fetches, resolve-based status imports, and the
// one-time application registration / OAuth code exchange.
//
// The package knows nothing about rate limits or deduplication; callers in
// pkg/syncer gate every call through their own limiters. The only waits
// here are the transport timeout and the retry backoff applied to
// idempotent timeline reads.
package mastodon
