// Package vectorstore wraps a Qdrant collection with the operations the
// indexing pipeline needs: create-if-missing schema, upsert, top-k search,
// full chunk-id enumeration for stale-point cleanup, and delete-by-id.
package vectorstore

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// vectorDimensions matches the embedding model the gateway is configured
// against (nomic-embed-text / BGE-small-class models all emit 384-d
// vectors; a different embedding backend would need a matching collection).
const vectorDimensions = 384

// chunkIDPayloadKey stores each point's logical "<fileHash>_<chunkIndex>"
// id in the payload. Qdrant point ids must be a UUID or an unsigned
// integer, so the logical id (which prefix-cleanup depends on) is carried
// separately from the point's actual UUID, which is derived deterministically
// from it.
const chunkIDPayloadKey = "chunk_id"

// pointUUID deterministically derives a valid Qdrant point id from a
// logical chunk id, so re-indexing the same file and chunk always produces
// the same point (upsert overwrites rather than duplicates).
func pointUUID(chunkID string) string {
	return uuid.NewMD5(uuid.Nil, []byte(chunkID)).String()
}

// Store wraps one Qdrant collection.
type Store struct {
	client         *qdrant.Client
	collectionName string
}

// New connects to a Qdrant instance at addr and ensures collectionName
// exists, creating it with a 384-dimension cosine-distance schema if not.
// addr may be a bare "host:port" pair or a "http(s)://host:port" URL
// (QDRANT_URL is commonly set to the latter); either form is accepted.
func New(ctx context.Context, addr, collectionName string) (*Store, error) {
	host, port := splitHostPort(addr)
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", addr, err)
	}

	s := &Store{client: client, collectionName: collectionName}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collectionName, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorDimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collectionName, err)
	}
	return nil
}

// Point is one chunk's vector, text, and source metadata. ID is the
// logical "<fileHash>_<chunkIndex>" identifier used for stale-point cleanup.
type Point struct {
	ID         string
	Vector     []float32
	Text       string
	SourceFile string
	ChunkIndex int
}

// Upsert writes points to the collection, blocking until the write is
// acknowledged.
func (s *Store) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	upsert := &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Wait:           ptrOf(true),
	}

	for _, p := range points {
		payload, err := qdrant.TryValueMap(map[string]any{
			chunkIDPayloadKey: p.ID,
			"text":            p.Text,
			"source_file":     p.SourceFile,
			"chunk_index":     p.ChunkIndex,
		})
		if err != nil {
			return fmt.Errorf("build payload for point %s: %w", p.ID, err)
		}
		upsert.Points = append(upsert.Points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointUUID(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	if _, err := s.client.Upsert(ctx, upsert); err != nil {
		return fmt.Errorf("upsert %d points to %s: %w", len(points), s.collectionName, err)
	}
	return nil
}

// SearchResult is one retrieved chunk with its similarity score.
type SearchResult struct {
	Text       string
	SourceFile string
	Score      float32
}

// Search returns the topK most similar points to queryVector.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK uint64) ([]SearchResult, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          ptrOf(topK),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.collectionName, err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		results = append(results, SearchResult{
			Text:       payload["text"].GetStringValue(),
			SourceFile: payload["source_file"].GetStringValue(),
			Score:      p.GetScore(),
		})
	}
	return results, nil
}

// scrollPageSize is the number of points fetched per scroll request.
const scrollPageSize = 100

// ScrollAllChunkIDs enumerates the logical chunk id of every point
// currently stored, paginating internally. Used by the indexer to detect
// stale points whose source file no longer exists on disk.
func (s *Store) ScrollAllChunkIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var offset *qdrant.PointId

	for {
		resp, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collectionName,
			Limit:          ptrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(false),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll %s: %w", s.collectionName, err)
		}

		for _, p := range resp {
			if chunkID := p.GetPayload()[chunkIDPayloadKey].GetStringValue(); chunkID != "" {
				ids = append(ids, chunkID)
			}
		}

		if len(resp) < scrollPageSize {
			break
		}
		offset = resp[len(resp)-1].GetId()
	}

	return ids, nil
}

// DeleteByChunkIDs removes points identified by their logical chunk ids. A
// nil or empty slice is a no-op.
func (s *Store) DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(chunkIDs))
	for i, id := range chunkIDs {
		pointIDs[i] = qdrant.NewID(pointUUID(id))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("delete %d points from %s: %w", len(chunkIDs), s.collectionName, err)
	}
	return nil
}

// ptrOf returns a pointer to a copy of v, for the *T-valued optional
// fields the go-client request structs use.
func ptrOf[T any](v T) *T { return &v }

// splitHostPort extracts a bare host and gRPC port from addr, which may be
// a "host:port" pair or a full URL. The default gRPC port is 6334.
func splitHostPort(addr string) (string, int) {
	const defaultPort = 6334

	if strings.Contains(addr, "://") {
		if u, err := url.Parse(addr); err == nil {
			host := u.Hostname()
			if p := u.Port(); p != "" {
				if n, err := strconv.Atoi(p); err == nil {
					return host, n
				}
			}
			return host, defaultPort
		}
	}

	if host, portStr, err := net.SplitHostPort(addr); err == nil {
		if n, err := strconv.Atoi(portStr); err == nil {
			return host, n
		}
	}
	return addr, defaultPort
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}
