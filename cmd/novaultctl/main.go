package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/JLSed/Novault/internal/crypto"
	"github.com/JLSed/Novault/internal/filecipher"
	"github.com/JLSed/Novault/internal/integrity"
	"github.com/JLSed/Novault/internal/keyring"
	"github.com/JLSed/Novault/internal/storage"
	"github.com/JLSed/Novault/internal/wire"
)

func main() {
	// ---- setup ----
	setupCmd := flag.NewFlagSet("setup", flag.ExitOnError)
	setupDir := setupCmd.String("dir", "./novault-data", "data directory")
	setupOwner := setupCmd.String("owner", "", "owner id")
	setupLegacy := setupCmd.Bool("legacy", false, "create a symmetric master-key record instead of an identity")

	// ---- encrypt ----
	encCmd := flag.NewFlagSet("encrypt", flag.ExitOnError)
	encDir := encCmd.String("dir", "./novault-data", "data directory")
	encOwner := encCmd.String("owner", "", "owner id")
	encIn := encCmd.String("in", "", "plaintext file to encrypt")
	encName := encCmd.String("name", "", "stored name (defaults to --in)")

	// ---- decrypt ----
	decCmd := flag.NewFlagSet("decrypt", flag.ExitOnError)
	decDir := decCmd.String("dir", "./novault-data", "data directory")
	decOwner := decCmd.String("owner", "", "owner id")
	decID := decCmd.String("id", "", "file id")
	decOut := decCmd.String("out", "", "where to write the plaintext (stdout if empty)")

	// ---- list ----
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listDir := listCmd.String("dir", "./novault-data", "data directory")
	listOwner := listCmd.String("owner", "", "owner id")

	// ---- inspect ----
	inspCmd := flag.NewFlagSet("inspect", flag.ExitOnError)
	inspDir := inspCmd.String("dir", "./novault-data", "data directory")
	inspOwner := inspCmd.String("owner", "", "owner id")
	inspID := inspCmd.String("id", "", "file id")

	// ---- fingerprint ----
	fpCmd := flag.NewFlagSet("fingerprint", flag.ExitOnError)
	fpIn := fpCmd.String("in", "", "file to fingerprint")

	// ---- delete ----
	delCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	delDir := delCmd.String("dir", "./novault-data", "data directory")
	delID := delCmd.String("id", "", "file id")

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "setup":
		_ = setupCmd.Parse(os.Args[2:])
		dieIf(cmdSetup(*setupDir, *setupOwner, *setupLegacy))
	case "encrypt":
		_ = encCmd.Parse(os.Args[2:])
		dieIf(cmdEncrypt(*encDir, *encOwner, *encIn, *encName))
	case "decrypt":
		_ = decCmd.Parse(os.Args[2:])
		dieIf(cmdDecrypt(*decDir, *decOwner, *decID, *decOut))
	case "list":
		_ = listCmd.Parse(os.Args[2:])
		dieIf(cmdList(*listDir, *listOwner))
	case "inspect":
		_ = inspCmd.Parse(os.Args[2:])
		dieIf(cmdInspect(*inspDir, *inspOwner, *inspID))
	case "fingerprint":
		_ = fpCmd.Parse(os.Args[2:])
		dieIf(cmdFingerprint(*fpIn))
	case "delete":
		_ = delCmd.Parse(os.Args[2:])
		dieIf(cmdDelete(*delDir, *delID))
	default:
		usage()
	}
}

func usage() {
	fmt.Print(`novaultctl commands:

  setup       --dir path --owner alice [--legacy]
  encrypt     --dir path --owner alice --in report.pdf [--name report.pdf]
  decrypt     --dir path --owner alice --id <FILE_ID> [--out report.pdf]
  list        --dir path --owner alice
  inspect     --dir path --owner alice --id <FILE_ID>
  fingerprint --in report.pdf
  delete      --dir path --id <FILE_ID>

Examples:
  novaultctl setup --dir ./data --owner alice
  novaultctl encrypt --dir ./data --owner alice --in notes.txt
  novaultctl decrypt --dir ./data --owner alice --id 6f1a... --out notes.txt
`)
}

func cmdSetup(dir, owner string, legacy bool) error {
	if owner == "" {
		return errors.New("--owner required")
	}
	store := storage.NewFileStore(dir)
	ctx := context.Background()
	if _, err := store.GetIdentity(ctx, owner); err == nil {
		return fmt.Errorf("owner %s already has a record", owner)
	}

	password, err := promptSecret("Password: ")
	if err != nil {
		return err
	}
	defer crypto.Zero(password)

	saltBytes, err := crypto.RandBytes(16)
	if err != nil {
		return err
	}
	salt := wire.EncodeHex(saltBytes)

	var rec wire.IdentityRecord
	if legacy {
		enc, err := keyring.GenerateMasterKey(string(password), salt)
		if err != nil {
			return err
		}
		rec = wire.NewMasterKeyRecord(owner, enc)
	} else {
		id, err := keyring.SetupIdentity(string(password), salt)
		if err != nil {
			return err
		}
		rec = wire.NewIdentityRecord(owner, id)
	}
	if err := store.PutIdentity(ctx, rec); err != nil {
		return err
	}
	if rec.PublicKey != "" {
		fmt.Println("Identity created. Public key:", rec.PublicKey)
	} else {
		fmt.Println("Master-key record created for", owner)
	}
	return nil
}

func cmdEncrypt(dir, owner, in, name string) error {
	if owner == "" || in == "" {
		return errors.New("--owner and --in required")
	}
	if name == "" {
		name = in
	}
	content, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	defer crypto.Zero(content)

	store := storage.NewFileStore(dir)
	ctx := context.Background()
	idRec, err := store.GetIdentity(ctx, owner)
	if err != nil {
		return fmt.Errorf("no record for %s, run setup first", owner)
	}
	krec, err := wire.ParseIdentityRecord(idRec)
	if err != nil {
		return err
	}

	fileIDBytes, err := crypto.RandBytes(16)
	if err != nil {
		return err
	}
	fileID := wire.EncodeHex(fileIDBytes)
	fp := integrity.Compute(content)
	created := time.Now().Unix()

	switch krec.Scheme() {
	case keyring.SchemeIdentity:
		env, err := filecipher.Encrypt(content, krec.PublicKey)
		if err != nil {
			return err
		}
		meta, wrap, blob := wire.SplitEnvelope(fileID, owner, name, created, env, fp)
		if err := store.Put(ctx, meta.BlobID, blob); err != nil {
			return err
		}
		if err := store.PutFile(ctx, meta); err != nil {
			return err
		}
		if err := store.PutDEKWrap(ctx, wrap); err != nil {
			return err
		}

	case keyring.SchemeMasterKey:
		password, err := promptSecret("Password: ")
		if err != nil {
			return err
		}
		secret, err := keyring.Unlock(string(password), krec)
		crypto.Zero(password)
		if err != nil {
			return err
		}
		body, nonce, err := filecipher.EncryptWithMasterKey(content, secret.Key)
		secret.Destroy()
		if err != nil {
			return err
		}
		meta := wire.FileMeta{
			FileID:    fileID,
			OwnerID:   owner,
			Name:      name,
			FileHash:  fp.Hex(),
			FileNonce: wire.EncodeHex(nonce),
			BlobID:    fileID,
			Size:      int64(len(body)),
			Created:   created,
		}
		if err := store.Put(ctx, meta.BlobID, body); err != nil {
			return err
		}
		if err := store.PutFile(ctx, meta); err != nil {
			return err
		}
	}

	fmt.Println("Encrypted. File id:", fileID)
	fmt.Println("Fingerprint:", fp.Hex())
	return nil
}

func cmdDecrypt(dir, owner, id, out string) error {
	if owner == "" || id == "" {
		return errors.New("--owner and --id required")
	}
	store := storage.NewFileStore(dir)
	ctx := context.Background()

	meta, err := store.GetFile(ctx, id)
	if err != nil {
		return err
	}
	idRec, err := store.GetIdentity(ctx, owner)
	if err != nil {
		return err
	}
	krec, err := wire.ParseIdentityRecord(idRec)
	if err != nil {
		return err
	}
	blob, err := store.Get(ctx, meta.BlobID)
	if err != nil {
		return err
	}

	password, err := promptSecret("Password: ")
	if err != nil {
		return err
	}
	secret, err := keyring.Unlock(string(password), krec)
	crypto.Zero(password)
	if err != nil {
		return err
	}
	defer secret.Destroy()

	var plaintext []byte
	switch secret.Scheme {
	case keyring.SchemeIdentity:
		wrap, err := store.GetDEKWrap(ctx, id, owner)
		if err != nil {
			return err
		}
		env, err := wire.JoinEnvelope(meta, wrap, blob)
		if err != nil {
			return err
		}
		plaintext, err = filecipher.Decrypt(env, secret.Key)
		if err != nil {
			return err
		}
	case keyring.SchemeMasterKey:
		nonce, err := wire.DecodeHex("file_nonce", meta.FileNonce, wire.NonceLen)
		if err != nil {
			return err
		}
		plaintext, err = filecipher.DecryptWithMasterKey(blob, nonce, secret.Key)
		if err != nil {
			return err
		}
	}

	want, err := wire.ParseFingerprint(meta.FileHash)
	if err != nil {
		return err
	}
	if !integrity.Verify(plaintext, want) {
		crypto.Zero(plaintext)
		return errors.New("fingerprint mismatch, refusing to write plaintext")
	}

	if out == "" {
		_, err = os.Stdout.Write(plaintext)
		crypto.Zero(plaintext)
		return err
	}
	err = os.WriteFile(out, plaintext, 0o600)
	crypto.Zero(plaintext)
	if err != nil {
		return err
	}
	fmt.Println("Decrypted to", out)
	fmt.Println("Fingerprint:", meta.FileHash)
	return nil
}

func cmdList(dir, owner string) error {
	if owner == "" {
		return errors.New("--owner required")
	}
	store := storage.NewFileStore(dir)
	metas, err := store.ListFiles(context.Background(), owner)
	if err != nil {
		return err
	}
	b, _ := json.MarshalIndent(metas, "", "  ")
	fmt.Println(string(b))
	return nil
}

func cmdInspect(dir, owner, id string) error {
	if id == "" {
		return errors.New("--id required")
	}
	store := storage.NewFileStore(dir)
	ctx := context.Background()
	meta, err := store.GetFile(ctx, id)
	if err != nil {
		return err
	}
	out := map[string]any{"meta": meta}
	if owner != "" {
		if wrap, err := store.GetDEKWrap(ctx, id, owner); err == nil {
			out["dek_wrap"] = wrap
		}
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
	return nil
}

func cmdFingerprint(in string) error {
	if in == "" {
		return errors.New("--in required")
	}
	content, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	fmt.Println(integrity.Compute(content).Hex())
	return nil
}

func cmdDelete(dir, id string) error {
	if id == "" {
		return errors.New("--id required")
	}
	store := storage.NewFileStore(dir)
	ctx := context.Background()
	if err := store.DeleteDEKWraps(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := store.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := store.DeleteFile(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	fmt.Println("Deleted file id:", id)
	return nil
}

func promptSecret(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	br := bufio.NewReader(os.Stdin)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	return line, nil
}

func dieIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
