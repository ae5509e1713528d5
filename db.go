package rle3

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when an asset does not exist in the catalog.
var ErrNotFound = errors.New("rle3: asset not found")

// Asset is a single catalog entry.
type Asset struct {
	Name        string
	Kind        Kind
	Fingerprint string
	// Source is the file the asset was encoded from, uncompressed.
	Source []byte
	// Encoded is the RLE3 or 7SF encoding of Source.
	Encoded []byte
}

// AssetDB stores assets in an SQLite database.
type AssetDB struct {
	db *sql.DB
}

// NewAssetDB opens or creates the database in file.
func NewAssetDB(file string) (*AssetDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// Workers write concurrently, SQLite only allows one writer
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS asset (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, kind INTEGER NOT NULL, fingerprint TEXT NOT NULL, source BLOB NOT NULL, encoded BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &AssetDB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *AssetDB) Close() error {
	return db.db.Close()
}

func compress(b []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc, err := zstd.NewWriter(buf)
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(b); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return ioutil.ReadAll(dec)
}

// Fingerprint returns the source fingerprint stored for name, or ErrNotFound.
func (db *AssetDB) Fingerprint(name string) (string, error) {
	var fp string
	switch err := db.db.QueryRow("SELECT fingerprint FROM asset WHERE name = ?", name).Scan(&fp); err {
	case sql.ErrNoRows:
		return "", ErrNotFound
	case nil:
		return fp, nil
	default:
		return "", err
	}
}

// Put inserts or replaces an asset.
func (db *AssetDB) Put(a *Asset) error {
	source, err := compress(a.Source)
	if err != nil {
		return err
	}

	if _, err := db.db.Exec("INSERT OR REPLACE INTO asset (name, kind, fingerprint, source, encoded) VALUES (?, ?, ?, ?, ?)", a.Name, a.Kind, a.Fingerprint, source, a.Encoded); err != nil {
		return err
	}
	return nil
}

// Get returns the asset called name, or ErrNotFound.
func (db *AssetDB) Get(name string) (*Asset, error) {
	a := &Asset{Name: name}
	var source []byte
	switch err := db.db.QueryRow("SELECT kind, fingerprint, source, encoded FROM asset WHERE name = ?", name).Scan(&a.Kind, &a.Fingerprint, &source, &a.Encoded); err {
	case sql.ErrNoRows:
		return nil, ErrNotFound
	case nil:
	default:
		return nil, err
	}

	var err error
	if a.Source, err = decompress(source); err != nil {
		return nil, err
	}
	return a, nil
}

// Names returns the names of all assets in order.
func (db *AssetDB) Names() ([]string, error) {
	rows, err := db.db.Query("SELECT name FROM asset ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SetEncoded replaces the encoded form of an existing asset.
func (db *AssetDB) SetEncoded(name string, encoded []byte) error {
	result, err := db.db.Exec("UPDATE asset SET encoded = ? WHERE name = ?", encoded, name)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
