// snapshotctl inspects snapshots and moves them between storage backends.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/monadsocial/agora/internal/entities"
	"github.com/monadsocial/agora/internal/storage"
	"github.com/monadsocial/agora/internal/storage/file"
	"github.com/monadsocial/agora/internal/storage/postgres"
	"github.com/monadsocial/agora/internal/storage/redis"
)

const timeout = time.Minute

// nolint:lll
type backend struct {
	Kind        string `long:"kind" default:"file" choice:"file" choice:"postgres" choice:"redis" description:"storage backend"`
	DataDir     string `long:"data.dir" default:"data" description:"directory for snapshot files"`
	Postgres    string `long:"postgres" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn, the snapshot table must be migrated"`
	Redis       string `long:"redis" default:"localhost:6379" description:"redis address or redis:// url"`
	RedisPrefix string `long:"redis.prefix" default:"agora:snapshot:" description:"prefix of snapshot keys"`
}

func (b backend) open() (storage.Storage, error) {
	switch b.Kind {
	case "postgres":
		db, err := sql.Open("postgres", b.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return postgres.New(db), nil
	case "redis":
		return redis.New(redis.NewClient(b.Redis), b.RedisPrefix), nil
	default:
		return file.New(b.DataDir)
	}
}

type dumpCommand struct {
	Backend backend `group:"storage" namespace:"storage"`
	Raw     bool    `long:"raw" description:"print stored json as is"`

	Args struct {
		Collection string `positional-arg-name:"collection" description:"posts, profiles, reactions, comments, polls or backup_<ms>"`
	} `positional-args:"yes" required:"yes"`
}

type copyCommand struct {
	From backend `group:"source" namespace:"from"`
	To   backend `group:"destination" namespace:"to"`
}

func main() {
	var (
		opts struct{}
		dump dumpCommand
		cp   copyCommand
	)

	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Agora snapshots tool"
	parser.LongDescription = "Agora snapshots tool"

	if _, err := parser.AddCommand("dump", "print a snapshot", "Loads a snapshot and prints it", &dump); err != nil {
		logrus.WithError(err).Fatal("failed to add command")
	}
	if _, err := parser.AddCommand("copy", "copy all collections", "Copies every collection from one backend to another", &cp); err != nil {
		logrus.WithError(err).Fatal("failed to add command")
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("failed to execute command")
	}
}

// Execute ...
func (c *dumpCommand) Execute(_ []string) error {
	s, err := c.Backend.open()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	collection := storage.Collection(c.Args.Collection)

	b, err := s.Load(ctx, collection)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("collection %s has never been saved", collection)
		}
		return err
	}

	if c.Raw {
		_, err := os.Stdout.Write(b)
		return err
	}

	v := target(collection)
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}

	spew.Fdump(os.Stdout, v)

	return nil
}

func target(c storage.Collection) interface{} {
	switch c {
	case storage.PostsCollection:
		return &[]entities.Post{}
	case storage.ProfilesCollection:
		return &map[string]entities.Profile{}
	case storage.ReactionsCollection:
		return &map[string]entities.Reaction{}
	case storage.CommentsCollection:
		return &map[string][]entities.Comment{}
	case storage.PollsCollection:
		return &[]entities.Poll{}
	default:
		return &map[string]interface{}{}
	}
}

// Execute ...
func (c *copyCommand) Execute(_ []string) error {
	from, err := c.From.open()
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	to, err := c.To.open()
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, collection := range storage.Collections {
		l := logrus.WithField("collection", collection)

		b, err := from.Load(ctx, collection)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				l.Info("skip absent collection")
				continue
			}
			return fmt.Errorf("failed to load %s: %w", collection, err)
		}

		if !json.Valid(b) {
			return fmt.Errorf("snapshot of %s is corrupted", collection)
		}

		if err := to.Save(ctx, collection, b); err != nil {
			return fmt.Errorf("failed to save %s: %w", collection, err)
		}

		l.WithField("bytes", len(b)).Info("copied")
	}

	return nil
}
