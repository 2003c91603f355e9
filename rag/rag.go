// Package rag retrieves plant care knowledge from a shared vector index. The
// index lives in the same embedded vector database as long-term memory but in
// one global collection, not per user.
package rag

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/memory"
)

const (
	// CollectionName is the shared knowledge collection.
	CollectionName = "plant_knowledge"

	// DefaultThreshold filters retrieval hits below this similarity.
	DefaultThreshold = 0.3

	// indexWorkers bounds concurrent embedding during indexing.
	indexWorkers = 4
)

// Document is one indexable knowledge entry.
type Document struct {
	ID   string
	Text string
}

// Retriever answers similarity queries over the knowledge collection.
type Retriever struct {
	db        *chromem.DB
	embedder  memory.Embedder
	threshold float64

	mu  sync.Mutex
	col *chromem.Collection

	log zerolog.Logger
}

// New creates a retriever. threshold <= 0 selects the default.
func New(db *chromem.DB, embedder memory.Embedder, threshold float64) *Retriever {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Retriever{
		db:        db,
		embedder:  embedder,
		threshold: threshold,
		log:       log.With().Str("component", "rag").Logger(),
	}
}

func (r *Retriever) collection() (*chromem.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.col != nil {
		return r.col, nil
	}
	col, err := r.db.GetOrCreateCollection(CollectionName, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open knowledge collection")
	}
	r.col = col
	return col, nil
}

// EnsureSeeded indexes the built-in corpus when the collection is empty.
func (r *Retriever) EnsureSeeded(ctx context.Context) error {
	col, err := r.collection()
	if err != nil {
		return err
	}
	if col.Count() > 0 {
		return nil
	}

	docs := make([]Document, 0, len(seedCorpus))
	for plant, text := range seedCorpus {
		docs = append(docs, Document{ID: "seed-" + plant, Text: text})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	r.log.Info().Int("documents", len(docs)).Msg("seeding knowledge base")
	return r.Index(ctx, docs)
}

// Index embeds and stores documents, replacing entries with matching IDs.
func (r *Retriever) Index(ctx context.Context, docs []Document) error {
	col, err := r.collection()
	if err != nil {
		return err
	}

	type embedded struct {
		doc Document
		vec []float32
	}
	results := make([]embedded, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexWorkers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			vec, err := r.embedder.Embed(gctx, doc.Text)
			if err != nil {
				return errors.Wrapf(err, "embed document %s", doc.ID)
			}
			results[i] = embedded{doc: doc, vec: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, e := range results {
		err := col.AddDocument(ctx, chromem.Document{
			ID:        e.doc.ID,
			Content:   e.doc.Text,
			Embedding: e.vec,
		})
		if err != nil {
			return errors.Wrapf(err, "index document %s", e.doc.ID)
		}
	}
	return nil
}

// IndexDir indexes every .txt and .md file under dir, one document per file.
func (r *Retriever) IndexDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrap(err, "read corpus directory")
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".txt" && ext != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return 0, errors.Wrapf(err, "read %s", entry.Name())
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		docs = append(docs, Document{
			ID:   strings.TrimSuffix(entry.Name(), ext),
			Text: text,
		})
	}

	if len(docs) == 0 {
		return 0, nil
	}
	return len(docs), r.Index(ctx, docs)
}

// Retrieve returns up to k snippets relevant to the query, best first. An
// empty result is normal, not an error; retrieval never fails the turn on an
// empty index.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]core.KnowledgeSnippet, error) {
	if k <= 0 {
		k = 2
	}

	col, err := r.collection()
	if err != nil {
		return nil, err
	}
	if col.Count() == 0 {
		return nil, nil
	}
	if k > col.Count() {
		k = col.Count()
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "embed query")
	}

	raw, err := col.QueryEmbedding(ctx, vec, k, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "query knowledge")
	}

	var snippets []core.KnowledgeSnippet
	for _, hit := range raw {
		if float64(hit.Similarity) < r.threshold {
			continue
		}
		snippets = append(snippets, core.KnowledgeSnippet{
			SourceID: hit.ID,
			Text:     hit.Content,
			Score:    float64(hit.Similarity),
		})
	}
	return snippets, nil
}
