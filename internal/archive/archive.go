// Package archive 保存原始 API 响应，方便回放和排查转换问题
package archive

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Payload 一次远端调用的原始响应
type Payload struct {
	Task      string
	Endpoint  string
	FetchedAt time.Time
	Body      []byte
}

type Archive interface {
	Save(ctx context.Context, p Payload) error
}

// Mongo 每个响应一个文档
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(client *mongo.Client, database, collection string) *Mongo {
	return &Mongo{coll: client.Database(database).Collection(collection)}
}

func (m *Mongo) Save(ctx context.Context, p Payload) error {
	_, err := m.coll.InsertOne(ctx, document(p))
	return err
}

// document body 是 JSON 时按字符串保存，mongo 里可读
func document(p Payload) bson.D {
	return bson.D{
		{Key: "task", Value: p.Task},
		{Key: "endpoint", Value: p.Endpoint},
		{Key: "fetched_at", Value: p.FetchedAt},
		{Key: "size", Value: len(p.Body)},
		{Key: "body", Value: string(p.Body)},
	}
}

// Nop 关闭归档时使用
type Nop struct{}

func (Nop) Save(context.Context, Payload) error { return nil }
