package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/store"
)

// Archive keeps catalogs in a bbolt file. Each dataset is a bucket whose
// event keys sort in time order, so a bucket cursor walks the catalog
type Archive struct {
	db *bbolt.DB
}

const (
	OpenTimeout = time.Second

	keySize  = 8 + 4
	signFlip = uint64(1) << 63
)

var (
	datasetsBucket = []byte("datasets")
	eventsBucket   = []byte("events")
	extentKey      = []byte("extent")
)

// Open opens or creates the archive file at path
func Open(path string) (*Archive, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(datasetsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

// Close closes the archive file
func (a *Archive) Close() error {
	return a.db.Close()
}

// Put replaces the named dataset in one write transaction
func (a *Archive) Put(
	_ context.Context, name string, rec *store.Record,
) error {
	if err := store.CheckName(name); err != nil {
		return err
	}

	extent, err := json.Marshal(rec.Extent)
	if err != nil {
		return err
	}

	return a.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(datasetsBucket)
		err := root.DeleteBucket([]byte(name))
		if err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}

		ds, err := root.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		if err := ds.Put(extentKey, extent); err != nil {
			return err
		}
		evs, err := ds.CreateBucket(eventsBucket)
		if err != nil {
			return err
		}
		evs.FillPercent = 1.0

		for i := range rec.Events {
			data, err := json.Marshal(&rec.Events[i])
			if err != nil {
				return err
			}
			key := eventKey(rec.Events[i].Timestamp, uint32(i))
			if err := evs.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get loads the named dataset
func (a *Archive) Get(
	_ context.Context, name string,
) (*store.Record, error) {
	res := &store.Record{Events: []tremor.Event{}}
	err := a.db.View(func(tx *bbolt.Tx) error {
		ds, err := dataset(tx, name)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(ds.Get(extentKey), &res.Extent); err != nil {
			return err
		}
		return ds.Bucket(eventsBucket).ForEach(func(_, v []byte) error {
			var ev tremor.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			res.Events = append(res.Events, ev)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Window returns the events of the named dataset in (from, to] using a
// bucket cursor seek
func (a *Archive) Window(
	_ context.Context, name string, from, to time.Time,
) ([]tremor.Event, error) {
	res := []tremor.Event{}
	if !to.After(from) {
		return res, nil
	}

	start := eventKey(from.Add(time.Nanosecond), 0)
	end := eventKey(to, ^uint32(0))
	err := a.db.View(func(tx *bbolt.Tx) error {
		ds, err := dataset(tx, name)
		if err != nil {
			return err
		}
		c := ds.Bucket(eventsBucket).Cursor()
		for k, v := c.Seek(start); k != nil; k, v = c.Next() {
			if bytes.Compare(k, end) > 0 {
				break
			}
			var ev tremor.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			res = append(res, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Delete removes the named dataset
func (a *Archive) Delete(_ context.Context, name string) error {
	return a.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket(datasetsBucket).DeleteBucket([]byte(name))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("%w: %s", store.ErrNotFound, name)
		}
		return err
	})
}

// List returns the archived dataset names in key order
func (a *Archive) List(context.Context) ([]string, error) {
	res := []string{}
	err := a.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(datasetsBucket).ForEachBucket(func(k []byte) error {
			res = append(res, string(k))
			return nil
		})
	})
	return res, err
}

func dataset(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	ds := tx.Bucket(datasetsBucket).Bucket([]byte(name))
	if ds == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	return ds, nil
}

// eventKey orders by instant, then by position in the catalog. The sign
// bit is flipped so instants before 1970 sort first
func eventKey(ts time.Time, seq uint32) []byte {
	key := make([]byte, keySize)
	binary.BigEndian.PutUint64(key, uint64(ts.UnixNano())^signFlip)
	binary.BigEndian.PutUint32(key[8:], seq)
	return key
}
