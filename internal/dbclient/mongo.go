package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"ppdmloader/internal/domain"
)

// mongoConnector implements Connector for MongoDB. Each table maps to a
// collection of the same name.
type mongoConnector struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

func newMongoConnector(conn *domain.DatabaseConnection, password string, logger *zap.Logger) (*mongoConnector, error) {
	uri, dbName := buildMongoURI(conn, password)

	logger.Info("connecting to mongodb",
		zap.String("uri", maskPassword(uri, password)),
		zap.String("database", dbName))

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}

	return &mongoConnector{client: client, dbName: dbName, logger: logger}, nil
}

// buildMongoURI returns the connection URI and the database to use.
// A host that is already a mongodb:// or mongodb+srv:// URI is used as is,
// with <password> placeholders filled in.
func buildMongoURI(conn *domain.DatabaseConnection, password string) (string, string) {
	var uri string

	if strings.HasPrefix(conn.Host, "mongodb+srv://") || strings.HasPrefix(conn.Host, "mongodb://") {
		uri = conn.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
		// Append database name to path if not already in URI
		if conn.Database != "" && !strings.Contains(uri, "/"+conn.Database) {
			if idx := strings.Index(uri, "?"); idx != -1 {
				uri = uri[:idx] + "/" + conn.Database + uri[idx:]
			} else {
				uri = strings.TrimRight(uri, "/") + "/" + conn.Database
			}
		}
	} else {
		port := conn.Port
		if port == 0 {
			port = 27017
		}
		if conn.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", conn.Username, password, conn.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", conn.Host, port)
		}

		// Parse extraJSON for authSource, replicaSet, etc.
		if conn.ExtraJSON != "" && conn.ExtraJSON != "{}" {
			var extras map[string]string
			if json.Unmarshal([]byte(conn.ExtraJSON), &extras) == nil && len(extras) > 0 {
				params := make([]string, 0, len(extras))
				for k, v := range extras {
					params = append(params, k+"="+v)
				}
				sort.Strings(params)
				uri += "?" + strings.Join(params, "&")
			}
		}
	}

	dbName := conn.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	return uri, dbName
}

// databaseFromURI extracts the path segment of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if atIdx := strings.Index(rest, "@"); atIdx != -1 {
		rest = rest[atIdx+1:]
	}
	if slashIdx := strings.Index(rest, "/"); slashIdx != -1 {
		name := rest[slashIdx+1:]
		if qIdx := strings.Index(name, "?"); qIdx != -1 {
			name = name[:qIdx]
		}
		if name != "" {
			return name
		}
	}
	return "test"
}

// maskPassword hides the password in a URI before it is logged.
func maskPassword(uri, password string) string {
	if password == "" {
		return uri
	}
	return strings.ReplaceAll(uri, password, "***")
}

func (m *mongoConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

// ColumnLengths always returns an empty map: collections carry no declared
// text lengths.
func (m *mongoConnector) ColumnLengths(ctx context.Context, table string) (map[string]int, error) {
	return map[string]int{}, nil
}

// InsertIfAbsent upserts each row with $setOnInsert, so a document whose
// key already exists is left exactly as it is.
func (m *mongoConnector) InsertIfAbsent(ctx context.Context, b Batch) (int, error) {
	if len(b.Rows) == 0 {
		return 0, nil
	}
	keyIdx, err := b.keyIndex()
	if err != nil {
		return 0, err
	}

	coll := m.client.Database(m.dbName).Collection(b.Table)
	opts := options.UpdateOne().SetUpsert(true)

	inserted := 0
	for _, row := range b.Rows {
		if len(row) != len(b.Columns) {
			return inserted, fmt.Errorf("%s: row has %d values for %d columns", b.Table, len(row), len(b.Columns))
		}
		doc := make(bson.D, 0, len(b.Columns))
		for i, col := range b.Columns {
			doc = append(doc, bson.E{Key: col, Value: row[i]})
		}
		filter := bson.D{{Key: b.Key, Value: row[keyIdx]}}

		res, err := coll.UpdateOne(ctx, filter, bson.D{{Key: "$setOnInsert", Value: doc}}, opts)
		if err != nil {
			return inserted, errors.Wrapf(err, "upsert %s %v", b.Table, row[keyIdx])
		}
		inserted += int(res.UpsertedCount)
	}

	m.logger.Debug("batch upserted", zap.String("collection", b.Table), zap.Int("inserted", inserted))
	return inserted, nil
}

func (m *mongoConnector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
