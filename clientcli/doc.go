// Package clientcli provides a client library for the character asset API.
//
// It supports account registration and login, character upload, download,
// rename, delete and listing. Authenticated calls carry an explicit Session;
// the client itself holds no credential. Every response is read through a
// single interpretation step, so HTTP failures always surface as *APIError
// with the server's message (or "HTTP <status>") and network failures as
// *TransportError.
//
// # Basic Usage
//
// Log in and download a character into the downloads folder:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:3000"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	session, err := client.Login(ctx, "alice", "secret")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	dir, _ := filesystem.DownloadsDir()
//	store, err := filesystem.Open(dir)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	report, err := client.DownloadCharacter(ctx, session, clientcli.DownloadRequest{
//		Name: "hero",
//		Type: closureme.DownloadAll,
//	}, store)
//
// The name is resolved by trying "hero", "hero.png" and "hero.jpg" in that
// order. Each requested artifact is then fetched on its own; the report lists
// which were downloaded, missing or failed.
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile("~/.closureme/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := clientcli.ConfigFromProfile(profile)
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatDownload(os.Stdout, report)
package clientcli
