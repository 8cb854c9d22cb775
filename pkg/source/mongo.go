package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/portalmap/pkg/diagram"
	perrors "github.com/matzehuels/portalmap/pkg/errors"
)

// MongoConfig locates one named descriptor.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Name       string
}

// Mongo stores descriptors as documents keyed by name.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	name   string
	owned  bool
}

// DialMongo connects to the server and verifies it answers.
func DialMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "mongo uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	m := NewMongo(client, cfg)
	m.owned = true
	return m, nil
}

// NewMongo uses an existing client. Empty database, collection and name
// default to "portalmap", "diagrams" and "default".
func NewMongo(client *mongo.Client, cfg MongoConfig) *Mongo {
	db, coll, name := cfg.Database, cfg.Collection, cfg.Name
	if db == "" {
		db = "portalmap"
	}
	if coll == "" {
		coll = "diagrams"
	}
	if name == "" {
		name = "default"
	}
	return &Mongo{
		client: client,
		coll:   client.Database(db).Collection(coll),
		name:   name,
	}
}

func (m *Mongo) String() string {
	return fmt.Sprintf("mongo %s.%s/%s", m.coll.Database().Name(), m.coll.Name(), m.name)
}

// Load fetches the named document.
func (m *Mongo) Load(ctx context.Context) (*diagram.Graph, error) {
	var rec record
	err := m.coll.FindOne(ctx, bson.M{"name": m.name}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, perrors.New(perrors.ErrCodeNotFound, "diagram %q not found", m.name)
	}
	if err != nil {
		return nil, fmt.Errorf("find diagram %q: %w", m.name, err)
	}
	doc, err := rec.document()
	if err != nil {
		return nil, err
	}
	return diagram.New(doc)
}

// Save upserts the graph under the configured name.
func (m *Mongo) Save(ctx context.Context, g *diagram.Graph) error {
	rec := newRecord(m.name, g.Document())
	rec.UpdatedAt = time.Now().UTC()
	_, err := m.coll.ReplaceOne(ctx, bson.M{"name": m.name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save diagram %q: %w", m.name, err)
	}
	return nil
}

// Close disconnects a client opened by [DialMongo].
func (m *Mongo) Close(ctx context.Context) error {
	if !m.owned {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// record is the stored shape. Layers are kept as their names so the
// collection stays readable from the mongo shell.
type record struct {
	Name         string            `bson:"name"`
	Title        string            `bson:"title,omitempty"`
	Subtitle     string            `bson:"subtitle,omitempty"`
	Headings     map[string]string `bson:"headings,omitempty"`
	Nodes        []nodeRecord      `bson:"nodes"`
	Edges        []edgeRecord      `bson:"edges"`
	Placeholders []placeRecord     `bson:"placeholders,omitempty"`
	UpdatedAt    time.Time         `bson:"updated_at"`
}

type nodeRecord struct {
	ID           string `bson:"id"`
	Label        string `bson:"label"`
	Sublabel     string `bson:"sublabel,omitempty"`
	URL          string `bson:"url,omitempty"`
	Layer        string `bson:"layer"`
	HasAPI       bool   `bson:"has_api,omitempty"`
	HasWorkspace bool   `bson:"has_workspace,omitempty"`
	Variant      string `bson:"variant,omitempty"`
}

type edgeRecord struct {
	From  string `bson:"from"`
	To    string `bson:"to"`
	Color string `bson:"color,omitempty"`
}

type placeRecord struct {
	Label string `bson:"label"`
	Layer string `bson:"layer"`
}

func newRecord(name string, doc diagram.Document) record {
	rec := record{
		Name:     name,
		Title:    doc.Title,
		Subtitle: doc.Subtitle,
		Headings: doc.Headings,
	}
	for _, n := range doc.Nodes {
		rec.Nodes = append(rec.Nodes, nodeRecord{
			ID: n.ID, Label: n.Label, Sublabel: n.Sublabel, URL: n.URL,
			Layer: n.Layer.String(), HasAPI: n.HasAPI, HasWorkspace: n.HasWorkspace,
			Variant: n.Variant,
		})
	}
	for _, e := range doc.Edges {
		rec.Edges = append(rec.Edges, edgeRecord(e))
	}
	for _, p := range doc.Placeholders {
		rec.Placeholders = append(rec.Placeholders, placeRecord{Label: p.Label, Layer: p.Layer.String()})
	}
	return rec
}

func (r record) document() (diagram.Document, error) {
	doc := diagram.Document{
		Title:    r.Title,
		Subtitle: r.Subtitle,
		Headings: r.Headings,
	}
	for i, n := range r.Nodes {
		l, err := diagram.ParseLayer(n.Layer)
		if err != nil {
			return diagram.Document{}, perrors.Wrap(perrors.ErrCodeUnknownLayer, err, "node #%d", i+1)
		}
		doc.Nodes = append(doc.Nodes, diagram.Node{
			ID: n.ID, Label: n.Label, Sublabel: n.Sublabel, URL: n.URL,
			Layer: l, HasAPI: n.HasAPI, HasWorkspace: n.HasWorkspace, Variant: n.Variant,
		})
	}
	for _, e := range r.Edges {
		doc.Edges = append(doc.Edges, diagram.Edge(e))
	}
	for i, p := range r.Placeholders {
		l, err := diagram.ParseLayer(p.Layer)
		if err != nil {
			return diagram.Document{}, perrors.Wrap(perrors.ErrCodeUnknownLayer, err, "placeholder #%d", i+1)
		}
		doc.Placeholders = append(doc.Placeholders, diagram.Placeholder{Label: p.Label, Layer: l})
	}
	return doc, nil
}
