// Package gcs provides a blobstore.Store backed by Google Cloud Storage.
//
// Credentials come from Application Default Credentials unless Config asks
// for anonymous access. Setting STORAGE_EMULATOR_HOST points the client at
// a local emulator such as fake-gcs-server.
//
//	resolver.Register("gs", gcs.Opener(gcs.Config{}))
//
// After that, "gs://bucket/key" locations resolve to this store.
package gcs
