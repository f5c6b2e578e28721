package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "schedulerlocks"

// SchedulerLockDatabase hands out short lived named locks so only one instance runs a
// scheduled job at a time
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

// TryAcquireLock takes the lock when it is free, expired or already held by owner. A
// concurrent holder makes the upsert collide on _id, which is reported as not acquired.
func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id": name,
		"$or": bson.A{
			bson.M{"expiresAt": bson.M{"$lt": now}},
			bson.M{"owner": owner},
		},
	}
	update := bson.M{"$set": bson.M{
		"owner":      owner,
		"acquiredAt": now,
		"expiresAt":  now.Add(ttl),
	}}
	_, err := s.db.Collection(schedulerLockName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, name, owner string) error {
	return s.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{"_id": name, "owner": owner})
}
