package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex is the durable VectorIndex backend. The collection uses the
// Euclid metric so query scores are raw L2 distances, matching the scoring
// formula. Batch isolation happens through payload filters; exact
// insertion-order tie-breaking is the Ranker's job since Qdrant does not
// guarantee an ordering for equal distances.
type QdrantIndex struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewQdrantIndex(urlStr, apiKey, collectionName string, vectorSize uint64) (*QdrantIndex, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port by default
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:         client,
		collectionName: collectionName,
		vectorSize:     vectorSize,
	}, nil
}

// InitCollection creates the resume collection if it does not exist yet.
func (q *QdrantIndex) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Println("✅ Qdrant collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// Upsert implements VectorIndex. The point ID is derived deterministically
// from the resume id, so repeated upserts overwrite instead of duplicating.
func (q *QdrantIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	pointID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))

	payload := map[string]interface{}{"resume_id": id}
	for key, value := range metadata {
		payload[key] = value
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(pointID.String()),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(payload),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return &IndexError{Op: "upsert", Err: err}
	}

	return nil
}

// Query implements VectorIndex.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]Neighbor, error) {
	var qdrantFilter *qdrant.Filter
	if len(filter) > 0 {
		var must []*qdrant.Condition
		for key, value := range filter {
			must = append(must, qdrant.NewMatch(key, value))
		}
		qdrantFilter = &qdrant.Filter{Must: must}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qdrantFilter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &IndexError{Op: "query", Err: err}
	}

	var neighbors []Neighbor
	for _, point := range points {
		neighbor := Neighbor{
			// Euclid collections report the raw L2 distance as the score
			Distance: point.Score,
			Metadata: make(map[string]string),
		}

		for key, value := range point.Payload {
			strValue, ok := value.GetKind().(*qdrant.Value_StringValue)
			if !ok {
				continue
			}
			if key == "resume_id" {
				neighbor.ID = strValue.StringValue
				continue
			}
			neighbor.Metadata[key] = strValue.StringValue
		}

		neighbors = append(neighbors, neighbor)
	}

	return neighbors, nil
}

// DeleteBatch removes every vector written by one screening batch.
func (q *QdrantIndex) DeleteBatch(ctx context.Context, batchID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("batch_id", batchID),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return &IndexError{Op: "delete", Err: err}
	}

	return nil
}
