package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/MegaGrindStone/portfolio-web/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltInbox stores contact form submissions in a BoltDB file. Every submission is kept as a JSON
// value in a single bucket, keyed by a zero-padded sequence number so that key order is arrival
// order.
type BoltInbox struct {
	db *bolt.DB
}

var contactBucket = []byte("contact")

// NewBoltInbox opens (or creates, with 0600 permissions) the database at path and makes sure the
// contact bucket exists.
func NewBoltInbox(path string) (BoltInbox, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltInbox{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(contactBucket)
		return err
	})
	if err != nil {
		db.Close()
		return BoltInbox{}, fmt.Errorf("failed to create contact bucket: %w", err)
	}

	return BoltInbox{db: db}, nil
}

// AddSubmission stores the submission and returns its new ID, made of the bucket sequence and the
// submission's original ID.
func (b BoltInbox) AddSubmission(_ context.Context, sub models.ContactSubmission) (string, error) {
	var newID string
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(contactBucket)
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		newID = fmt.Sprintf("%08d-%s", seq, sub.ID)
		sub.ID = newID

		v, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("failed to marshal submission: %w", err)
		}

		return bucket.Put([]byte(newID), v)
	})
	if err != nil {
		return "", err
	}

	return newID, nil
}

// Submissions returns every stored submission, newest first.
func (b BoltInbox) Submissions(context.Context) ([]models.ContactSubmission, error) {
	var subs []models.ContactSubmission
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(contactBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, v []byte) error {
			var sub models.ContactSubmission
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("failed to unmarshal submission: %w", err)
			}
			subs = append(subs, sub)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(subs)
	return subs, nil
}

// Close releases the database file.
func (b BoltInbox) Close() error {
	return b.db.Close()
}
