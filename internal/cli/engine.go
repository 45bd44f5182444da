package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gantryml/gantry/pkg/dataset"
)

// collections bundles the dataset handles a job needs plus the cleanup
// for whatever backend connections were opened.
type collections struct {
	train   dataset.Collection
	labels  dataset.Collection // nil when the config declares none
	input   dataset.Collection
	cleanup func(ctx context.Context) error
}

func noCleanup(context.Context) error { return nil }

// buildCollections constructs the train/labels/input collections for the
// configured engine. Inline config data seeds remote backends so a demo
// run works against an empty store; a pre-seeded store is used as-is
// when the config carries no data.
func buildCollections(ctx context.Context, cfg *Config) (*collections, error) {
	switch cfg.Engine.Kind {
	case "memory":
		return &collections{
			train:   dataset.FromSlice(dataset.Floats(cfg.Data.Train)),
			labels:  labelSlice(cfg),
			input:   dataset.FromSlice(dataset.Floats(cfg.Data.Input)),
			cleanup: noCleanup,
		}, nil

	case "parallel":
		return &collections{
			train:   dataset.NewParallel(dataset.Floats(cfg.Data.Train), cfg.Engine.Workers),
			labels:  labelSlice(cfg),
			input:   dataset.NewParallel(dataset.Floats(cfg.Data.Input), cfg.Engine.Workers),
			cleanup: noCleanup,
		}, nil

	case "redis":
		return buildRedis(ctx, cfg)

	case "mongo":
		return buildMongo(ctx, cfg)

	default:
		return nil, fmt.Errorf("config: unknown engine kind %q (known: memory, parallel, redis, mongo)", cfg.Engine.Kind)
	}
}

func labelSlice(cfg *Config) dataset.Collection {
	if len(cfg.Data.Labels) == 0 {
		return nil
	}
	return dataset.FromSlice(dataset.Floats(cfg.Data.Labels))
}

func buildRedis(ctx context.Context, cfg *Config) (*collections, error) {
	addr := cfg.Engine.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	prefix := cfg.Engine.RedisKey
	if prefix == "" {
		prefix = "gantry"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}

	train := dataset.NewRedisList(client, prefix+":train")
	input := dataset.NewRedisList(client, prefix+":input")
	if len(cfg.Data.Train) > 0 {
		if err := train.Seed(ctx, dataset.Floats(cfg.Data.Train)); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	if len(cfg.Data.Input) > 0 {
		if err := input.Seed(ctx, dataset.Floats(cfg.Data.Input)); err != nil {
			_ = client.Close()
			return nil, err
		}
	}

	return &collections{
		train:   train,
		labels:  labelSlice(cfg),
		input:   input,
		cleanup: func(context.Context) error { return client.Close() },
	}, nil
}

func buildMongo(ctx context.Context, cfg *Config) (*collections, error) {
	uri := cfg.Engine.MongoURI
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	field := cfg.Engine.MongoField
	if field == "" {
		field = "value"
	}
	if cfg.Engine.MongoDB == "" || cfg.Engine.MongoCollection == "" {
		return nil, fmt.Errorf("config: mongo engine requires mongo_db and mongo_collection")
	}

	client, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo %s: %w", uri, err)
	}

	coll := client.Database(cfg.Engine.MongoDB).Collection(cfg.Engine.MongoCollection)
	return &collections{
		train:   dataset.NewMongoSource(coll, field),
		labels:  labelSlice(cfg),
		input:   dataset.FromSlice(dataset.Floats(cfg.Data.Input)),
		cleanup: func(ctx context.Context) error { return client.Disconnect(ctx) },
	}, nil
}
