package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusStrongMatch   = "Strong Match"
	StatusPotentialFit  = "Potential Fit"
	StatusPossibleMatch = "Possible Match"
)

// ResumeDocument is one uploaded resume entering a screening batch.
type ResumeDocument struct {
	Filename string
	Data     []byte
	Path     string
}

// RankedCandidate is the authoritative output unit: one resume scored and
// ranked against the job description.
type RankedCandidate struct {
	ResumeID        string  `json:"resume_id"`
	CandidateName   string  `json:"candidate_name"`
	Filename        string  `json:"filename"`
	SimilarityScore float64 `json:"similarity_score"`
	Distance        float64 `json:"distance"`
	Rank            int     `json:"rank"`
	Status          string  `json:"status"`
	Summary         string  `json:"summary"`
}

// BatchFailure records why one uploaded document was dropped.
type BatchFailure struct {
	Filename string `json:"filename"`
	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
}

// BatchResult is the outcome of ranking one batch. Candidates are sorted by
// rank; totalProcessed < totalUploaded means some documents were skipped.
type BatchResult struct {
	BatchID        string            `json:"batch_id"`
	TotalUploaded  int               `json:"total_uploaded"`
	TotalProcessed int               `json:"total_processed"`
	TopKRequested  int               `json:"top_k_requested"`
	TopK           int               `json:"top_k"`
	Candidates     []RankedCandidate `json:"results"`
	Failures       []BatchFailure    `json:"failures,omitempty"`
}

type RankerConfig struct {
	TopKMin     int
	TopKMax     int
	MinJDChars  int
	DistanceCap float64
	Concurrency int
}

type RankerService interface {
	Rank(ctx context.Context, recruiterID, jdText string, docs []ResumeDocument, topK int) (*BatchResult, error)
}

type rankerService struct {
	parser   PDFParserService
	embedder EmbedderService
	index    VectorIndex
	cfg      RankerConfig
}

func NewRankerService(
	parser PDFParserService,
	embedder EmbedderService,
	index VectorIndex,
	cfg RankerConfig,
) RankerService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &rankerService{
		parser:   parser,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
	}
}

// processedResume is a resume that made it through extract -> embed ->
// upsert. uploadIndex is its position in the request, which is the final
// tie-break for equal distances.
type processedResume struct {
	uploadIndex   int
	filename      string
	resumeID      string
	candidateName string
}

type resumeOutcome struct {
	processed *processedResume
	failure   *BatchFailure
}

// Rank implements RankerService. Per-document failures reduce
// totalProcessed but never fail the batch; only bad input, a failed job
// description embedding, or a failed index query are fatal.
func (r *rankerService) Rank(ctx context.Context, recruiterID, jdText string, docs []ResumeDocument, topK int) (*BatchResult, error) {
	jdText = strings.TrimSpace(jdText)
	if len(jdText) < r.cfg.MinJDChars {
		return nil, &InvalidInputError{
			Reason: fmt.Sprintf("job description must contain at least %d characters", r.cfg.MinJDChars),
		}
	}
	if len(docs) == 0 {
		return nil, &InvalidInputError{Reason: "at least one resume is required"}
	}

	topKRequested := topK
	topK = clampTopK(topK, r.cfg.TopKMin, r.cfg.TopKMax)

	batchID := uuid.New().String()
	log.Printf("🔍 Ranking %d resumes against JD (batch %s, top %d)\n", len(docs), batchID, topK)

	// The JD embedding has no dependency on resume processing, so it runs
	// alongside the pipeline.
	jdVectorCh := make(chan []float32, 1)
	jdErrCh := make(chan error, 1)
	go func() {
		vector, err := r.embedder.GenerateEmbedding(ctx, jdText)
		if err != nil {
			jdErrCh <- err
			return
		}
		jdVectorCh <- vector
	}()

	outcomes := r.processResumes(ctx, batchID, recruiterID, docs)

	var jdVector []float32
	select {
	case jdVector = <-jdVectorCh:
	case err := <-jdErrCh:
		// Nothing to rank against
		return nil, fmt.Errorf("job description embedding failed: %w", err)
	}

	result := &BatchResult{
		BatchID:       batchID,
		TotalUploaded: len(docs),
		TopKRequested: topKRequested,
		TopK:          topK,
	}

	// Collapse duplicate uploads of the same resume onto their earliest
	// position; the index already holds a single vector for them.
	var processed []processedResume
	seen := make(map[string]bool)
	for _, outcome := range outcomes {
		if outcome.failure != nil {
			result.Failures = append(result.Failures, *outcome.failure)
			continue
		}
		if seen[outcome.processed.resumeID] {
			continue
		}
		seen[outcome.processed.resumeID] = true
		processed = append(processed, *outcome.processed)
	}

	result.TotalProcessed = len(processed)
	if len(processed) == 0 {
		log.Printf("⚠️ Batch %s: no resumes were successfully processed\n", batchID)
		result.Candidates = []RankedCandidate{}
		return result, nil
	}

	neighbors, err := r.queryAll(ctx, jdVector, batchID, len(processed))
	if err != nil {
		return nil, err
	}

	distances := make(map[string]float64, len(neighbors))
	for _, neighbor := range neighbors {
		distances[neighbor.ID] = float64(neighbor.Distance)
	}

	candidates := make([]RankedCandidate, 0, len(processed))
	for _, resume := range processed {
		distance, ok := distances[resume.resumeID]
		if !ok {
			log.Printf("⚠️ Batch %s: no distance returned for %s, excluding\n", batchID, resume.resumeID)
			continue
		}

		candidates = append(candidates, RankedCandidate{
			ResumeID:        resume.resumeID,
			CandidateName:   resume.candidateName,
			Filename:        resume.filename,
			SimilarityScore: similarityFromDistance(distance, r.cfg.DistanceCap),
			Distance:        distance,
		})
	}

	// Candidates were appended in upload order, so a stable sort on
	// distance gives the documented tie-break for free, regardless of
	// which resume's embedding call finished first.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	for i := range candidates {
		candidates[i].Rank = i + 1
		candidates[i].Status = statusForScore(candidates[i].SimilarityScore)
		candidates[i].Summary = fmt.Sprintf(
			"Ranked #%d out of %d candidates. Semantic similarity score: %.1f%%. This candidate shows %s with the job requirements.",
			candidates[i].Rank,
			result.TotalProcessed,
			candidates[i].SimilarityScore,
			strings.ToLower(candidates[i].Status),
		)
	}

	result.Candidates = candidates
	log.Printf("✅ Batch %s: top %d candidates selected from %d processed\n", batchID, len(candidates), result.TotalProcessed)

	return result, nil
}

// processResumes runs the extract -> embed -> upsert pipeline for every
// document under a fixed-size worker pool, so a single slow item cannot
// stall its siblings and provider rate limits stay respected.
func (r *rankerService) processResumes(ctx context.Context, batchID, recruiterID string, docs []ResumeDocument) []resumeOutcome {
	outcomes := make([]resumeOutcome, len(docs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for workerID := 1; workerID <= r.cfg.Concurrency; workerID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.processOne(ctx, batchID, recruiterID, i, docs[i])
			}
		}()
	}

	for i := range docs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (r *rankerService) processOne(ctx context.Context, batchID, recruiterID string, uploadIndex int, doc ResumeDocument) resumeOutcome {
	fail := func(stage string, err error) resumeOutcome {
		log.Printf("❌ Failed to process resume %s (%s): %v\n", doc.Filename, stage, err)
		return resumeOutcome{failure: &BatchFailure{
			Filename: doc.Filename,
			Stage:    stage,
			Reason:   err.Error(),
		}}
	}

	// Items that never got a chance before the batch deadline are counted
	// as failures, and the batch still returns whatever completed.
	if err := ctx.Err(); err != nil {
		return fail("deadline", err)
	}

	var text string
	var err error
	if len(doc.Data) > 0 {
		text, err = r.parser.ExtractText(doc.Filename, doc.Data)
	} else {
		text, err = r.parser.ExtractTextFromFile(doc.Path)
	}
	if err != nil {
		return fail("extraction", err)
	}

	candidateName := ExtractCandidateName(text)
	resumeID := BuildResumeID(candidateName, text)

	vector, err := r.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return fail("embedding", err)
	}

	metadata := map[string]string{
		"batch_id":       batchID,
		"recruiter_id":   recruiterID,
		"candidate_name": candidateName,
		"filename":       doc.Filename,
	}
	if err := r.index.Upsert(ctx, resumeID, vector, metadata); err != nil {
		return fail("index", err)
	}

	log.Printf("✅ Processed resume: %s -> %s\n", doc.Filename, candidateName)

	return resumeOutcome{processed: &processedResume{
		uploadIndex:   uploadIndex,
		filename:      doc.Filename,
		resumeID:      resumeID,
		candidateName: candidateName,
	}}
}

// queryAll fetches distances for the whole processed set, so the true
// top-K is sliced after a full ordering. When the batch deadline already
// expired, the query runs on a short detached context so the partial
// result can still be ranked.
func (r *rankerService) queryAll(ctx context.Context, jdVector []float32, batchID string, totalProcessed int) ([]Neighbor, error) {
	queryCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
	}

	neighbors, err := r.index.Query(queryCtx, jdVector, totalProcessed, map[string]string{"batch_id": batchID})
	if err != nil {
		return nil, fmt.Errorf("ranking query failed: %w", err)
	}

	return neighbors, nil
}

func clampTopK(topK, min, max int) int {
	if topK < min {
		return min
	}
	if topK > max {
		return max
	}
	return topK
}

// similarityFromDistance converts an L2 distance into a 0-100 score. The
// cap bounds the effective distance range (2.0 is the maximum L2 distance
// between unit-normalized vectors) so a distance of 0 maps to 100 and
// anything at or beyond the cap maps to 0.
func similarityFromDistance(distance, distanceCap float64) float64 {
	if distanceCap <= 0 {
		distanceCap = 2.0
	}

	capped := math.Min(distance, distanceCap)
	similarity := 100.0 * (1.0 - capped/distanceCap)
	similarity = math.Max(0.0, math.Min(100.0, similarity))

	return math.Round(similarity*100) / 100
}

func statusForScore(score float64) string {
	switch {
	case score >= 80:
		return StatusStrongMatch
	case score >= 60:
		return StatusPotentialFit
	default:
		return StatusPossibleMatch
	}
}
