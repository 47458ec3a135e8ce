package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJD = "Senior Python Developer, 5 years of experience, FastAPI"

type stubParser struct {
	texts map[string]string
	errs  map[string]error
}

func (s *stubParser) ExtractText(filename string, _ []byte) (string, error) {
	if err, ok := s.errs[filename]; ok {
		return "", err
	}
	if text, ok := s.texts[filename]; ok {
		return text, nil
	}
	return "", &ExtractionError{Filename: filename, Failure: ExtractionNoText}
}

func (s *stubParser) ExtractTextFromFile(path string) (string, error) {
	return s.ExtractText(path, nil)
}

type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	errs    map[string]error
	calls   int
}

func (s *stubEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err, ok := s.errs[text]; ok {
		return nil, err
	}
	if vector, ok := s.vectors[text]; ok {
		return vector, nil
	}
	return nil, &EmbeddingError{Err: fmt.Errorf("no stub vector for %q", text)}
}

func (s *stubEmbedder) Dimensions() int {
	return 2
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testRankerConfig() RankerConfig {
	return RankerConfig{
		TopKMin:     1,
		TopKMax:     20,
		MinJDChars:  20,
		DistanceCap: 2.0,
		Concurrency: 4,
	}
}

// resumeText builds a resume body long enough to pass extraction and with a
// recognizable candidate name on the first line.
func resumeText(name, body string) string {
	return name + "\n" + body
}

func newTestRanker(parser PDFParserService, embedder EmbedderService) RankerService {
	return NewRankerService(parser, embedder, NewMemoryIndex(), testRankerConfig())
}

func docs(filenames ...string) []ResumeDocument {
	out := make([]ResumeDocument, 0, len(filenames))
	for _, filename := range filenames {
		out = append(out, ResumeDocument{Filename: filename, Data: []byte("%PDF-stub")})
	}
	return out
}

func TestRankConcreteScenario(t *testing.T) {
	textA := resumeText("Alice Anderson", "Python developer with FastAPI experience since 2018.")
	textB := resumeText("Bob Brown", "Backend developer, some Python, mostly Java services.")
	textC := resumeText("Carol Clark", "Graphic designer with a focus on print media.")

	parser := &stubParser{texts: map[string]string{
		"a.pdf": textA,
		"b.pdf": textB,
		"c.pdf": textC,
	}}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		testJD: {0, 0},
		textA:  {0.3, 0}, // distance 0.3 -> score 85.0
		textB:  {0.9, 0}, // distance 0.9 -> score 55.0
		textC:  {1.5, 0}, // distance 1.5 -> excluded by topK
	}}

	ranker := newTestRanker(parser, embedder)
	result, err := ranker.Rank(context.Background(), "rec1", testJD, docs("a.pdf", "b.pdf", "c.pdf"), 2)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalUploaded)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.TopK)
	require.Len(t, result.Candidates, 2)

	first := result.Candidates[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "Alice Anderson", first.CandidateName)
	assert.InDelta(t, 85.0, first.SimilarityScore, 0.001)
	assert.InDelta(t, 0.3, first.Distance, 0.0001)
	assert.Equal(t, StatusStrongMatch, first.Status)

	second := result.Candidates[1]
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, "Bob Brown", second.CandidateName)
	assert.InDelta(t, 55.0, second.SimilarityScore, 0.001)
	assert.Equal(t, StatusPossibleMatch, second.Status)
}

func TestRankTieBreakUploadOrder(t *testing.T) {
	textX := resumeText("Xavier Xu", "Senior engineer with a decade of distributed systems work.")
	textY := resumeText("Yara Young", "Senior engineer with ten years of infrastructure experience.")

	parser := &stubParser{texts: map[string]string{
		"x.pdf": textX,
		"y.pdf": textY,
	}}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		testJD: {0, 0},
		textX:  {0.5, 0}, // distance 0.5
		textY:  {0, 0.5}, // same distance, different direction
	}}

	// Concurrency makes completion order nondeterministic; the final
	// ordering must not be.
	for run := 0; run < 10; run++ {
		ranker := newTestRanker(parser, embedder)
		result, err := ranker.Rank(context.Background(), "rec1", testJD, docs("x.pdf", "y.pdf"), 5)
		require.NoError(t, err)
		require.Len(t, result.Candidates, 2)

		assert.Equal(t, "Xavier Xu", result.Candidates[0].CandidateName, "run %d", run)
		assert.Equal(t, 1, result.Candidates[0].Rank)
		assert.Equal(t, "Yara Young", result.Candidates[1].CandidateName, "run %d", run)
		assert.Equal(t, 2, result.Candidates[1].Rank)
		assert.Equal(t, result.Candidates[0].SimilarityScore, result.Candidates[1].SimilarityScore)
	}
}

func TestRankContiguityAndMonotonicity(t *testing.T) {
	parser := &stubParser{texts: map[string]string{}}
	embedder := &stubEmbedder{vectors: map[string][]float32{testJD: {0, 0}}}

	distances := []float32{1.1, 0.2, 0.7, 1.9, 0.4, 2.5, 0.9, 1.4}
	var filenames []string
	for i, distance := range distances {
		filename := fmt.Sprintf("resume%d.pdf", i)
		text := resumeText(fmt.Sprintf("Person Number%d", i), "Experienced professional with relevant background to spare.")
		parser.texts[filename] = text
		embedder.vectors[text] = []float32{distance, 0}
		filenames = append(filenames, filename)
	}

	ranker := newTestRanker(parser, embedder)
	result, err := ranker.Rank(context.Background(), "rec1", testJD, docs(filenames...), 20)
	require.NoError(t, err)
	require.Len(t, result.Candidates, len(distances))

	for i, candidate := range result.Candidates {
		assert.Equal(t, i+1, candidate.Rank)
		assert.GreaterOrEqual(t, candidate.SimilarityScore, 0.0)
		assert.LessOrEqual(t, candidate.SimilarityScore, 100.0)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Candidates[i-1].SimilarityScore, candidate.SimilarityScore)
			assert.LessOrEqual(t, result.Candidates[i-1].Distance, candidate.Distance)
		}
	}

	// distance 2.5 is beyond the cap and must floor at 0, not go negative
	last := result.Candidates[len(result.Candidates)-1]
	assert.Equal(t, 0.0, last.SimilarityScore)
}

func TestRankFewerResumesThanK(t *testing.T) {
	parser := &stubParser{texts: map[string]string{}}
	embedder := &stubEmbedder{vectors: map[string][]float32{testJD: {0, 0}}}

	for i := 0; i < 3; i++ {
		filename := fmt.Sprintf("r%d.pdf", i)
		text := resumeText(fmt.Sprintf("Candidate Number%d", i), "A perfectly reasonable resume body with enough text in it.")
		parser.texts[filename] = text
		embedder.vectors[text] = []float32{float32(i) * 0.1, 0}
	}

	ranker := newTestRanker(parser, embedder)
	result, err := ranker.Rank(context.Background(), "rec1", testJD, docs("r0.pdf", "r1.pdf", "r2.pdf"), 5)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TopK)
	require.Len(t, result.Candidates, 3)
	for i, candidate := range result.Candidates {
		assert.Equal(t, i+1, candidate.Rank)
	}
}

func TestRankTopKClamping(t *testing.T) {
	text := resumeText("Solo Candidate", "The only resume in this batch, but a decent one at that.")
	parser := &stubParser{texts: map[string]string{"solo.pdf": text}}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		testJD: {0, 0},
		text:   {0.4, 0},
	}}

	ranker := newTestRanker(parser, embedder)

	result, err := ranker.Rank(context.Background(), "rec1", testJD, docs("solo.pdf"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TopKRequested)
	assert.Equal(t, 1, result.TopK)
	assert.Len(t, result.Candidates, 1)

	result, err = ranker.Rank(context.Background(), "rec1", testJD, docs("solo.pdf"), 25)
	require.NoError(t, err)
	assert.Equal(t, 25, result.TopKRequested)
	assert.Equal(t, 20, result.TopK)
	assert.Len(t, result.Candidates, 1)
}

func TestRankAllExtractionFailures(t *testing.T) {
	parser := &stubParser{errs: map[string]error{
		"bad1.pdf": &ExtractionError{Filename: "bad1.pdf", Failure: ExtractionCorrupt},
		"bad2.pdf": &ExtractionError{Filename: "bad2.pdf", Failure: ExtractionEncrypted},
		"bad3.pdf": &ExtractionError{Filename: "bad3.pdf", Failure: ExtractionTooShort},
	}}
	embedder := &stubEmbedder{vectors: map[string][]float32{testJD: {0, 0}}}

	ranker := newTestRanker(parser, embedder)
	result, err := ranker.Rank(context.Background(), "rec1", testJD, docs("bad1.pdf", "bad2.pdf", "bad3.pdf"), 5)
	require.NoError(t, err, "zero usable resumes is a valid outcome, not an error")

	assert.Equal(t, 3, result.TotalUploaded)
	assert.Equal(t, 0, result.TotalProcessed)
	assert.Empty(t, result.Candidates)
	assert.Len(t, result.Failures, 3)
}

func TestRankInvalidInput(t *testing.T) {
	parser := &stubParser{}
	embedder := &stubEmbedder{}
	ranker := newTestRanker(parser, embedder)

	_, err := ranker.Rank(context.Background(), "rec1", "too short", docs("a.pdf"), 5)
	var invalidInput *InvalidInputError
	require.ErrorAs(t, err, &invalidInput)

	_, err = ranker.Rank(context.Background(), "rec1", testJD, nil, 5)
	require.ErrorAs(t, err, &invalidInput)

	// no embedding calls before validation passes
	assert.Equal(t, 0, embedder.callCount())
}

func TestRankJDEmbeddingFailureIsFatal(t *testing.T) {
	text := resumeText("Dana Diaz", "Solid engineer with plenty of production experience overall.")
	parser := &stubParser{texts: map[string]string{"d.pdf": text}}
	embedder := &stubEmbedder{
		vectors: map[string][]float32{text: {0.1, 0}},
		errs:    map[string]error{testJD: &EmbeddingError{Transient: false, Err: fmt.Errorf("quota exceeded")}},
	}

	ranker := newTestRanker(parser, embedder)
	result, err := ranker.Rank(context.Background(), "rec1", testJD, docs("d.pdf"), 5)
	require.Error(t, err)
	assert.Nil(t, result)

	var embeddingErr *EmbeddingError
	assert.ErrorAs(t, err, &embeddingErr)
}

func TestRankSingleEmbeddingFailureSkipsOneResume(t *testing.T) {
	goodText := resumeText("Good Candidate", "A resume whose embedding call succeeds on the first go.")
	badText := resumeText("Bad Candidate", "A resume whose embedding call fails with a permanent error.")

	parser := &stubParser{texts: map[string]string{
		"good.pdf": goodText,
		"bad.pdf":  badText,
	}}
	embedder := &stubEmbedder{
		vectors: map[string][]float32{
			testJD:   {0, 0},
			goodText: {0.2, 0},
		},
		errs: map[string]error{badText: &EmbeddingError{Err: fmt.Errorf("invalid input")}},
	}

	ranker := newTestRanker(parser, embedder)
	result, err := ranker.Rank(context.Background(), "rec1", testJD, docs("good.pdf", "bad.pdf"), 5)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalUploaded)
	assert.Equal(t, 1, result.TotalProcessed)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Good Candidate", result.Candidates[0].CandidateName)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "embedding", result.Failures[0].Stage)
}

func TestRankDeterminism(t *testing.T) {
	parser := &stubParser{texts: map[string]string{}}
	embedder := &stubEmbedder{vectors: map[string][]float32{testJD: {0, 0}}}

	var filenames []string
	for i := 0; i < 6; i++ {
		filename := fmt.Sprintf("det%d.pdf", i)
		text := resumeText(fmt.Sprintf("Det Candidate%d", i), "Deterministic resume content used across repeated invocations.")
		parser.texts[filename] = text
		embedder.vectors[text] = []float32{float32(6-i) * 0.2, 0}
		filenames = append(filenames, filename)
	}

	first, err := newTestRanker(parser, embedder).Rank(context.Background(), "rec1", testJD, docs(filenames...), 4)
	require.NoError(t, err)
	second, err := newTestRanker(parser, embedder).Rank(context.Background(), "rec1", testJD, docs(filenames...), 4)
	require.NoError(t, err)

	assert.Equal(t, first.Candidates, second.Candidates)
	assert.Equal(t, first.TotalProcessed, second.TotalProcessed)
}

func TestRankDuplicateUploadsCollapse(t *testing.T) {
	text := resumeText("Twin Candidate", "One resume uploaded twice should only be ranked one time.")
	parser := &stubParser{texts: map[string]string{
		"copy1.pdf": text,
		"copy2.pdf": text,
	}}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		testJD: {0, 0},
		text:   {0.3, 0},
	}}

	ranker := newTestRanker(parser, embedder)
	result, err := ranker.Rank(context.Background(), "rec1", testJD, docs("copy1.pdf", "copy2.pdf"), 5)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalUploaded)
	assert.Equal(t, 1, result.TotalProcessed)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, 1, result.Candidates[0].Rank)
}

func TestRankExpiredDeadlineReturnsPartialResult(t *testing.T) {
	text := resumeText("Late Candidate", "This batch's deadline expired before anything could run.")
	parser := &stubParser{texts: map[string]string{"late.pdf": text}}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		testJD: {0, 0},
		text:   {0.2, 0},
	}}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	// The JD embedding stub ignores ctx, so ranking proceeds; every resume
	// is dropped at the deadline check and the batch still returns.
	ranker := newTestRanker(parser, embedder)
	result, err := ranker.Rank(ctx, "rec1", testJD, docs("late.pdf"), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalUploaded)
	assert.Equal(t, 0, result.TotalProcessed)
	assert.Empty(t, result.Candidates)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "deadline", result.Failures[0].Stage)
}

func TestSimilarityFromDistance(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		cap      float64
		want     float64
	}{
		{"identical vectors", 0.0, 2.0, 100.0},
		{"concrete scenario a", 0.3, 2.0, 85.0},
		{"concrete scenario b", 0.9, 2.0, 55.0},
		{"tie distance", 0.5, 2.0, 75.0},
		{"at the cap", 2.0, 2.0, 0.0},
		{"beyond the cap", 3.7, 2.0, 0.0},
		{"recalibrated cap", 0.5, 1.0, 50.0},
		{"zero cap falls back", 1.0, 0, 50.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarityFromDistance(tt.distance, tt.cap), 0.001)
		})
	}
}

func TestStatusForScore(t *testing.T) {
	assert.Equal(t, StatusStrongMatch, statusForScore(80.0))
	assert.Equal(t, StatusStrongMatch, statusForScore(95.5))
	assert.Equal(t, StatusPotentialFit, statusForScore(79.99))
	assert.Equal(t, StatusPotentialFit, statusForScore(60.0))
	assert.Equal(t, StatusPossibleMatch, statusForScore(59.99))
	assert.Equal(t, StatusPossibleMatch, statusForScore(0.0))
}

func TestClampTopK(t *testing.T) {
	assert.Equal(t, 1, clampTopK(-3, 1, 20))
	assert.Equal(t, 1, clampTopK(0, 1, 20))
	assert.Equal(t, 1, clampTopK(1, 1, 20))
	assert.Equal(t, 7, clampTopK(7, 1, 20))
	assert.Equal(t, 20, clampTopK(20, 1, 20))
	assert.Equal(t, 20, clampTopK(100, 1, 20))
}
