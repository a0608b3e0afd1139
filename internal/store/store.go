// Package store provides a BoltDB-backed store for the station config and
// the beacon list.
package store

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"aprsinjector/internal/beacon"
)

var (
	stationBucket = []byte("station")
	beaconsBucket = []byte("beacons")
	transmitKey   = []byte("transmit")
)

// Store wraps a bbolt database. Beacons are kept in insertion order and
// addressed by their position in that order.
type Store struct {
	db       *bolt.DB
	mu       sync.RWMutex
	defaults beacon.TransmitConfig
	log      zerolog.Logger
}

// New opens or creates a BoltDB file at the given path. defaults is
// returned by LoadConfig until a config has been saved.
func New(path string, defaults beacon.TransmitConfig, log zerolog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{stationBucket, beaconsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, defaults: defaults, log: log}, nil
}

// Close closes the underlying BoltDB.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadConfig returns the saved station config, or the defaults.
func (s *Store) LoadConfig() (beacon.TransmitConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.defaults
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(stationBucket).Get(transmitKey)
		if data == nil {
			return nil
		}
		return msgpack.Unmarshal(data, &cfg)
	})
	if err != nil {
		return beacon.TransmitConfig{}, fmt.Errorf("reading station config: %w", err)
	}
	return cfg, nil
}

// SaveConfig replaces the station config.
func (s *Store) SaveConfig(cfg beacon.TransmitConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := msgpack.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling station config: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stationBucket).Put(transmitKey, data)
	})
	if err != nil {
		return fmt.Errorf("writing station config: %w", err)
	}

	s.log.Info().
		Str("callsign", cfg.Callsign).
		Str("server", cfg.Server).
		Int("port", cfg.Port).
		Msg("Station config saved")
	return nil
}

// LoadBeacons returns all beacons in insertion order.
func (s *Store) LoadBeacons() ([]beacon.Beacon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var beacons []beacon.Beacon
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, e := range s.entries(tx) {
			beacons = append(beacons, e.beacon)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading beacons: %w", err)
	}
	return beacons, nil
}

// SaveBeacons replaces the whole beacon list.
func (s *Store) SaveBeacons(beacons []beacon.Beacon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(beaconsBucket); err != nil {
			return err
		}
		b, err := tx.CreateBucket(beaconsBucket)
		if err != nil {
			return err
		}
		for _, bc := range beacons {
			if err := putNew(b, bc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replacing beacons: %w", err)
	}

	s.log.Info().Int("count", len(beacons)).Msg("Beacon list replaced")
	return nil
}

// AddBeacon appends bc and returns its index.
func (s *Store) AddBeacon(bc beacon.Beacon) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var index int
	err := s.db.Update(func(tx *bolt.Tx) error {
		index = len(s.entries(tx))
		return putNew(tx.Bucket(beaconsBucket), bc)
	})
	if err != nil {
		return 0, fmt.Errorf("adding beacon: %w", err)
	}

	s.log.Info().
		Int("index", index).
		Str("name", bc.Name).
		Str("type", string(bc.Type.Resolve())).
		Msg("Beacon added")
	return index, nil
}

// UpdateBeacon overwrites the beacon at index.
func (s *Store) UpdateBeacon(index int, bc beacon.Beacon) error {
	return s.modify(index, func(b *bolt.Bucket, e entry) error {
		s.log.Info().Int("index", index).Str("name", bc.Name).Msg("Beacon updated")
		return put(b, e.key, bc)
	})
}

// ToggleBeacon flips the active flag of the beacon at index and returns
// the new state.
func (s *Store) ToggleBeacon(index int) (bool, error) {
	var active bool
	err := s.modify(index, func(b *bolt.Bucket, e entry) error {
		e.beacon.Active = !e.beacon.Active
		active = e.beacon.Active
		s.log.Info().Int("index", index).Str("name", e.beacon.Name).Bool("active", active).Msg("Beacon toggled")
		return put(b, e.key, e.beacon)
	})
	return active, err
}

// DeleteBeacon removes the beacon at index; later beacons move up by one.
func (s *Store) DeleteBeacon(index int) error {
	return s.modify(index, func(b *bolt.Bucket, e entry) error {
		s.log.Info().Int("index", index).Str("name", e.beacon.Name).Msg("Beacon deleted")
		return b.Delete(e.key)
	})
}

func (s *Store) modify(index int, fn func(b *bolt.Bucket, e entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		entries := s.entries(tx)
		if index < 0 || index >= len(entries) {
			return fmt.Errorf("%w: index %d of %d", beacon.ErrNoSuchBeacon, index, len(entries))
		}
		return fn(tx.Bucket(beaconsBucket), entries[index])
	})
}

type entry struct {
	key    []byte
	beacon beacon.Beacon
}

// entries lists decodable beacons in key order. Corrupt records are
// skipped so indices stay consistent between reads and writes.
func (s *Store) entries(tx *bolt.Tx) []entry {
	var out []entry
	tx.Bucket(beaconsBucket).ForEach(func(k, v []byte) error {
		var bc beacon.Beacon
		if err := msgpack.Unmarshal(v, &bc); err != nil {
			s.log.Warn().Err(err).Hex("key", k).Msg("Skipping corrupt beacon record")
			return nil
		}
		out = append(out, entry{key: append([]byte(nil), k...), beacon: bc})
		return nil
	})
	return out
}

func putNew(b *bolt.Bucket, bc beacon.Beacon) error {
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return put(b, key, bc)
}

func put(b *bolt.Bucket, key []byte, bc beacon.Beacon) error {
	data, err := msgpack.Marshal(bc)
	if err != nil {
		return fmt.Errorf("marshaling beacon: %w", err)
	}
	return b.Put(key, data)
}
