// Package civica embeds the civica list filtering core in a Go process.
//
// Front ends that render catalogs themselves (desktop shells, kiosks, tests)
// mount screens and forward UI events; every event returns the full view to
// render.
//
//	client, _ := civica.New(ctx, civica.WithCatalogDir("./catalogs"))
//	defer client.Close()
//
//	sc, _ := client.Mount(ctx, "turismo")
//	view, _ := sc.OnTextChange(ctx, "playa")
//	view, _ = sc.OnCategorySelect(ctx, "Norte")
//	view, _ = sc.OnItemTap(ctx, view.Records[0].ID)
//
// # Vault screens
//
// A passphrase enables the evidence vault. Vault screens start locked and
// unlock per screen:
//
//	client, _ := civica.New(ctx, civica.WithPassphrase("s3cret"))
//	sc, _ := client.MountVault(ctx)
//	res, _ := sc.OnPassphraseSubmit(ctx, "s3cret")
//
// One-off filtering needs no screen:
//
//	recs, _ := client.Filter(ctx, "emergencias", civica.Query{Text: "bomberos"})
package civica
