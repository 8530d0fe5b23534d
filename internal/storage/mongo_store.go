package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JLSed/Novault/internal/wire"
)

// ---------- BLOB STORE (ciphertext blobs) ----------

type mongoBlobStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoBlobStore(ctx context.Context, uri, dbName, collName string) (BlobStore, error) {
	cli, coll, err := connectColl(ctx, uri, dbName, collName)
	if err != nil {
		return nil, err
	}
	return &mongoBlobStore{client: cli, coll: coll}, nil
}

func (m *mongoBlobStore) Put(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return errors.New("empty id")
	}
	_, err := m.coll.UpdateByID(
		ctx,
		id,
		bson.M{
			"$set": bson.M{
				"data":      data,
				"updatedAt": time.Now(),
			},
			"$setOnInsert": bson.M{
				"createdAt": time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *mongoBlobStore) Get(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, errors.New("empty id")
	}
	var doc struct {
		Data []byte `bson:"data"`
	}
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return doc.Data, err
}

func (m *mongoBlobStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("empty id")
	}
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (m *mongoBlobStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ---------- RECORD STORE (identity / file / DEK-wrap records) ----------

type MongoRecordStore struct {
	client     *mongo.Client
	identities *mongo.Collection
	files      *mongo.Collection
	wraps      *mongo.Collection
}

func NewMongoRecordStore(ctx context.Context, uri, dbName string) (*MongoRecordStore, error) {
	cli, err := connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	db := cli.Database(dbName)
	s := &MongoRecordStore{
		client:     cli,
		identities: db.Collection("identities"),
		files:      db.Collection("files"),
		wraps:      db.Collection("dek_wraps"),
	}

	// One identity per owner, one meta per file, one wrap per
	// (file, recipient).
	_, _ = s.identities.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = s.files.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "file_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = s.wraps.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "file_id", Value: 1}, {Key: "owner_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return s, nil
}

func (s *MongoRecordStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoRecordStore) PutIdentity(ctx context.Context, rec wire.IdentityRecord) error {
	if rec.OwnerID == "" {
		return errors.New("empty owner_id")
	}
	_, err := s.identities.UpdateOne(
		ctx,
		bson.M{"owner_id": rec.OwnerID},
		bson.M{"$set": rec},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoRecordStore) GetIdentity(ctx context.Context, ownerID string) (wire.IdentityRecord, error) {
	var rec wire.IdentityRecord
	err := s.identities.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return wire.IdentityRecord{}, ErrNotFound
	}
	return rec, err
}

func (s *MongoRecordStore) PutFile(ctx context.Context, meta wire.FileMeta) error {
	if meta.FileID == "" {
		return errors.New("empty file_id")
	}
	_, err := s.files.UpdateOne(
		ctx,
		bson.M{"file_id": meta.FileID},
		bson.M{"$set": meta},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoRecordStore) GetFile(ctx context.Context, fileID string) (wire.FileMeta, error) {
	var meta wire.FileMeta
	err := s.files.FindOne(ctx, bson.M{"file_id": fileID}).Decode(&meta)
	if err == mongo.ErrNoDocuments {
		return wire.FileMeta{}, ErrNotFound
	}
	return meta, err
}

func (s *MongoRecordStore) ListFiles(ctx context.Context, ownerID string) ([]wire.FileMeta, error) {
	cur, err := s.files.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []wire.FileMeta
	for cur.Next(ctx) {
		var meta wire.FileMeta
		if err := cur.Decode(&meta); err == nil {
			out = append(out, meta)
		}
	}
	return out, cur.Err()
}

func (s *MongoRecordStore) DeleteFile(ctx context.Context, fileID string) error {
	_, err := s.files.DeleteOne(ctx, bson.M{"file_id": fileID})
	return err
}

func (s *MongoRecordStore) PutDEKWrap(ctx context.Context, rec wire.DEKWrapRecord) error {
	if rec.FileID == "" || rec.OwnerID == "" {
		return errors.New("empty file_id or owner_id")
	}
	_, err := s.wraps.UpdateOne(
		ctx,
		bson.M{"file_id": rec.FileID, "owner_id": rec.OwnerID},
		bson.M{"$set": rec},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoRecordStore) GetDEKWrap(ctx context.Context, fileID, ownerID string) (wire.DEKWrapRecord, error) {
	var rec wire.DEKWrapRecord
	err := s.wraps.FindOne(ctx, bson.M{"file_id": fileID, "owner_id": ownerID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return wire.DEKWrapRecord{}, ErrNotFound
	}
	return rec, err
}

func (s *MongoRecordStore) DeleteDEKWraps(ctx context.Context, fileID string) error {
	_, err := s.wraps.DeleteMany(ctx, bson.M{"file_id": fileID})
	return err
}

// ---------- helpers ----------

func connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	// Verify connection quickly
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	return cli, nil
}

func connectColl(ctx context.Context, uri, dbName, collName string) (*mongo.Client, *mongo.Collection, error) {
	cli, err := connect(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	return cli, cli.Database(dbName).Collection(collName), nil
}
