package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"axolotl/internal/crypto"
	"axolotl/internal/domain"
	"axolotl/internal/keys"
)

const (
	dbFilename    = "axolotl.db"
	schemaVersion = 1
)

var (
	metaBucket     = []byte("meta")
	identityBucket = []byte("identity")
	prekeyBucket   = []byte("prekeys")
	sessionBucket  = []byte("sessions")

	versionKey    = []byte("version")
	identityKey   = []byte("identity")
	nextPreKeyKey = []byte("next_prekey_id")
	accountKey    = []byte("account")
)

// ErrNoIdentity is returned by LoadIdentity before an identity is saved.
var ErrNoIdentity = errors.New("store: no identity")

// Store is the bbolt-backed keystore.
type Store struct {
	db   *bolt.DB
	opts options
}

// Open opens (creating if needed) the database under dir.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(dir, dbFilename), 0o600, nil)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, opts: newOptions(opts)}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		for _, name := range [][]byte{identityBucket, prekeyBucket, sessionBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		if b := meta.Get(versionKey); b != nil {
			if len(b) != 1 || b[0] != schemaVersion {
				return fmt.Errorf("store: incompatible schema version %v", b)
			}
			return nil
		}
		return meta.Put(versionKey, []byte{schemaVersion})
	})
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveIdentity seals id under passphrase, replacing any stored identity.
func (s *Store) SaveIdentity(passphrase string, id *keys.IdentityKeyPair) error {
	raw, err := id.Serialise()
	if err != nil {
		return err
	}
	sealed, err := seal(s.opts.rand, passphrase, raw, s.opts.kdf)
	crypto.Wipe(raw)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(identityBucket).Put(identityKey, sealed)
	})
}

// LoadIdentity opens the stored identity with passphrase.
func (s *Store) LoadIdentity(passphrase string) (*keys.IdentityKeyPair, error) {
	var sealed []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		sealed = copyBytes(tx.Bucket(identityBucket).Get(identityKey))
		return nil
	}); err != nil {
		return nil, err
	}
	return openIdentity(passphrase, sealed)
}

// HasIdentity reports whether an identity has been saved.
func (s *Store) HasIdentity() (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(identityBucket).Get(identityKey) != nil
		return nil
	})
	return ok, err
}

// SavePreKeys stores prekeys, replacing any with the same id.
func (s *Store) SavePreKeys(prekeys []*keys.PreKey) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(prekeyBucket)
		for _, pk := range prekeys {
			raw, err := pk.Serialise()
			if err != nil {
				return err
			}
			if err := bkt.Put(preKeyID(pk.KeyID), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadPreKey returns the prekey with id, or nil when there is none.
func (s *Store) LoadPreKey(id uint16) (*keys.PreKey, error) {
	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		raw = copyBytes(tx.Bucket(prekeyBucket).Get(preKeyID(id)))
		return nil
	}); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	defer crypto.Wipe(raw)
	return keys.DeserialisePreKey(raw)
}

// DeletePreKey removes the prekey with id. Unknown ids are ignored.
func (s *Store) DeletePreKey(id uint16) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(prekeyBucket).Delete(preKeyID(id))
	})
}

// CountPreKeys returns the number of stored prekeys.
func (s *Store) CountPreKeys() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(prekeyBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// NextPreKeyID returns the id the next prekey batch starts at, 0 when unset.
func (s *Store) NextPreKeyID() (uint16, error) {
	var id uint16
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(metaBucket).Get(nextPreKeyKey); len(b) == 2 {
			id = binary.BigEndian.Uint16(b)
		}
		return nil
	})
	return id, err
}

// SetNextPreKeyID records the id the next prekey batch starts at.
func (s *Store) SetNextPreKeyID(id uint16) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(nextPreKeyKey, preKeyID(id))
	})
}

// SaveSession stores the serialised session for peer.
func (s *Store) SaveSession(peer domain.Username, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(peer), data)
	})
}

// LoadSession returns the serialised session for peer.
func (s *Store) LoadSession(peer domain.Username) ([]byte, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw = copyBytes(tx.Bucket(sessionBucket).Get([]byte(peer)))
		return nil
	})
	return raw, raw != nil, err
}

// DeleteSession removes the session for peer.
func (s *Store) DeleteSession(peer domain.Username) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete([]byte(peer))
	})
}

// ListSessions returns the peers with a stored session, in byte order.
func (s *Store) ListSessions() ([]domain.Username, error) {
	var peers []domain.Username
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).ForEach(func(k, _ []byte) error {
			peers = append(peers, domain.Username(k))
			return nil
		})
	})
	return peers, err
}

// SaveAccountProfile stores the relay account profile.
func (s *Store) SaveAccountProfile(p domain.AccountProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(accountKey, raw)
	})
}

// LoadAccountProfile returns the stored relay account profile.
func (s *Store) LoadAccountProfile() (domain.AccountProfile, bool, error) {
	var p domain.AccountProfile
	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		raw = copyBytes(tx.Bucket(metaBucket).Get(accountKey))
		return nil
	}); err != nil || raw == nil {
		return p, false, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, false, err
	}
	return p, true, nil
}

func openIdentity(passphrase string, sealed []byte) (*keys.IdentityKeyPair, error) {
	if sealed == nil {
		return nil, ErrNoIdentity
	}
	raw, err := open(passphrase, sealed)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(raw)
	return keys.DeserialiseIdentityKeyPair(raw)
}

func preKeyID(id uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], id)
	return b[:]
}

// copyBytes copies a value out of a bolt transaction; nil stays nil.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

var (
	_ domain.IdentityStore = (*Store)(nil)
	_ domain.PreKeyStore   = (*Store)(nil)
	_ domain.SessionStore  = (*Store)(nil)
	_ domain.AccountStore  = (*Store)(nil)
)
