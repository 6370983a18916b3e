// Package snapshot persists rendered trees so that a server can restore its
// baseline after a restart.
//
// Trees are stored as protocol tree frames. Two stores are provided:
// MemoryStore for tests and single-process use, and S3Store for any
// S3-compatible object store.
//
//	client, err := snapshot.NewS3Client(ctx, snapshot.S3Options{Region: "eu-central-1"})
//	store := snapshot.NewS3Store(client, "humus-snapshots", "demo/")
//	err := snapshot.SaveTree(ctx, store, "latest", seq, tree)
package snapshot
