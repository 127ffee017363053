package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/MegaGrindStone/cv-assess-web/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltDB implements the Store interface using a BoltDB backend for the assessment history. Every
// finished or failed submission is kept as one JSON record in a single bucket.
type BoltDB struct {
	db *bolt.DB
}

var assessmentsBucket = []byte("assessments")

// ErrAssessmentNotFound is returned by UpdateAssessment for an ID that was never added.
var ErrAssessmentNotFound = errors.New("assessment not found")

// NewBoltDB creates a new BoltDB instance with the specified file path. It initializes the database
// with the required bucket and returns an error if the database cannot be opened or initialized. The
// database file is created with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(assessmentsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return BoltDB{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	return BoltDB{db: db}, nil
}

// Close releases the database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}

// Assessments retrieves all stored assessments, newest first.
func (b BoltDB) Assessments(context.Context) ([]models.Assessment, error) {
	var assessments []models.Assessment
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(assessmentsBucket)
		if bk == nil {
			return nil
		}

		return bk.ForEach(func(_, v []byte) error {
			var a models.Assessment
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("failed to unmarshal assessment: %w", err)
			}
			assessments = append(assessments, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(assessments)
	return assessments, nil
}

// AddAssessment stores a new assessment. It generates a unique ID for the record by combining a
// zero-padded sequence number with the assessment's generated ID, so keys sort in insertion order, and
// returns the new ID.
func (b BoltDB) AddAssessment(_ context.Context, a models.Assessment) (string, error) {
	var newID string
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(assessmentsBucket)
		if bk == nil {
			return fmt.Errorf("bucket %s is missing", assessmentsBucket)
		}

		seq, err := bk.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		newID = fmt.Sprintf("%012d-%s", seq, a.ID)
		a.ID = newID

		v, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal assessment: %w", err)
		}

		return bk.Put([]byte(newID), v)
	})

	return newID, err
}

// UpdateAssessment replaces a stored assessment. It returns ErrAssessmentNotFound if no record with the
// assessment's ID exists.
func (b BoltDB) UpdateAssessment(_ context.Context, a models.Assessment) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(assessmentsBucket)
		if bk == nil {
			return fmt.Errorf("bucket %s is missing", assessmentsBucket)
		}

		if bk.Get([]byte(a.ID)) == nil {
			return fmt.Errorf("%w: %s", ErrAssessmentNotFound, a.ID)
		}

		v, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal assessment: %w", err)
		}

		return bk.Put([]byte(a.ID), v)
	})
}
