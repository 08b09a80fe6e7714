// Package mirror copies character assets between the object store and the
// local machine that renders them.
//
// Each job mirrors one kind of asset:
//
//   - PendingImages pulls every image in the server's pending queue
//   - Memory and Profile pull the text artifacts of one character
//   - Model and Voice pull the single active model and voice, replacing the previous ones
//   - UploadFBX pushes locally built models to fbx/temp/
//   - WriteIndex records the active character name
//
// Downloads are written atomically; a file is only visible once complete.
// The object store is either S3 (S3Store) or a Stowry server (StowryStore).
// When a ledger is configured every transfer is recorded and History lists them.
//
//	api, _ := mirror.NewS3Client(ctx, mirror.S3Options{Region: "ap-east-2"})
//	m, err := mirror.New(mirror.Config{
//		APIURL:    "http://localhost:3000/api",
//		ImageDir:  "./images",
//		MemoryDir: "./memory",
//	}, mirror.NewS3Store(api, "closureme-assets"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report, err := m.PendingImages(ctx)
package mirror
