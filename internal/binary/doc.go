// Package binary fetches, verifies and installs the prebuilt lnd executable.
//
// # Pipeline
//
// An install run acts on a single target.Target:
//
//	skip? -> support check -> install dir -> cache lookup
//	    hit:  copy cached executable to the install path
//	    miss: temp dir -> fetch -> verify -> extract -> populate cache
//
// Nothing is written to the install path unless every step before it
// succeeded. Writes into the install path and the cache go through a temp
// file in the destination directory followed by a rename.
//
// # Verification
//
// Archives downloaded from target.DefaultSite are checked against a trusted
// SHA-256 manifest (see Manifest). A mismatch is fatal. Archives from any
// other site, or for versions the manifest does not list, are installed with
// a warning.
//
// The manifest itself is produced by ImportManifest, which checks lnd's
// detached OpenPGP signature over the upstream manifest file before reading
// any digest from it.
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{Manifest: manifest, Logger: log})
//	if err != nil {
//	    return err
//	}
//
//	res, err := mgr.Install(ctx, t)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.InstallPath)
package binary
