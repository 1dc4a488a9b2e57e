package rerankers

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/interfaces"
	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
	"Minerva_AI/backend/go/pkg/logger"
)

// neutralScore substitutes for any relevance signal whose provider is
// unavailable, so a degraded scorer never fails or skews a query.
const neutralScore = 0.5

// recencyWindowDays is the linear-decay horizon of the recency boost.
const recencyWindowDays = 365.0

// Weights is the blend applied to the four reranker signals. The
// configured defaults are 0.3/0.4/0.2/0.1.
type Weights struct {
	Original     float64
	CrossEncoder float64
	Metadata     float64
	LLM          float64
}

// Options carries the caller's per-query ranking preferences.
type Options struct {
	// PreferredSourceTypes boosts candidates whose source_type matches.
	PreferredSourceTypes []string
	// PreferredCollections boosts candidates from these collections.
	PreferredCollections []string
}

// llmScoreLine matches one "Document N: <score>" line of the batched
// relevance prompt's answer.
var llmScoreLine = regexp.MustCompile(`(?i)document\s+(\d+)\s*[:\-]\s*([0-9]+(?:\.[0-9]+)?)`)

// WeightedReranker re-scores fused candidates with a weighted blend of
// the fused retrieval score, an external cross-encoder, metadata
// heuristics and an optional LLM relevance score. Every component is
// normalized to [0,1] before blending. The reranker itself never fails:
// unavailable providers degrade to a neutral constant.
type WeightedReranker struct {
	crossEncoder interfaces.CrossEncoder
	relevanceLLM interfaces.LLM
	weights      Weights
	llmLimit     int
	now          func() time.Time
	log          *logger.Logger
}

// NewWeightedReranker creates a WeightedReranker. crossEncoder and
// relevanceLLM may be nil; the corresponding signals then stay neutral.
// llmLimit caps the candidate count for which the LLM signal is computed
// at all (cost control).
func NewWeightedReranker(crossEncoder interfaces.CrossEncoder, relevanceLLM interfaces.LLM, weights Weights, llmLimit int, log *logger.Logger) *WeightedReranker {
	if llmLimit <= 0 {
		llmLimit = 10
	}
	return &WeightedReranker{
		crossEncoder: crossEncoder,
		relevanceLLM: relevanceLLM,
		weights:      weights,
		llmLimit:     llmLimit,
		now:          time.Now,
		log:          log,
	}
}

// Rerank re-scores the candidates and returns at most topK hits ordered
// by combined score descending. The call is stateless and deterministic
// for identical inputs and provider answers.
func (r *WeightedReranker) Rerank(ctx context.Context, query string, candidates []*schema.FusedHit, topK int, opts Options) []*schema.RerankedHit {
	if len(candidates) == 0 {
		return nil
	}

	original := rescaleFused(candidates)
	crossScores := r.neutralVector(len(candidates))
	llmScores := r.neutralVector(len(candidates))

	// One batched call per external signal, issued concurrently.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.crossEncoderScores(ctx, query, candidates, crossScores)
	}()
	go func() {
		defer wg.Done()
		r.llmScores(ctx, query, candidates, llmScores)
	}()
	wg.Wait()

	now := r.now()
	reranked := make([]*schema.RerankedHit, len(candidates))
	for i, candidate := range candidates {
		meta := r.metadataScore(candidate, opts, now)
		combined := r.weights.Original*original[i] +
			r.weights.CrossEncoder*crossScores[i] +
			r.weights.Metadata*meta +
			r.weights.LLM*llmScores[i]
		reranked[i] = &schema.RerankedHit{
			FusedHit:          *candidate,
			OriginalScore:     original[i],
			CrossEncoderScore: crossScores[i],
			MetadataScore:     meta,
			LLMScore:          llmScores[i],
			CombinedScore:     combined,
		}
	}

	sort.Slice(reranked, func(i, j int) bool {
		if reranked[i].CombinedScore != reranked[j].CombinedScore {
			return reranked[i].CombinedScore > reranked[j].CombinedScore
		}
		if reranked[i].FusedScore != reranked[j].FusedScore {
			return reranked[i].FusedScore > reranked[j].FusedScore
		}
		return reranked[i].ChunkID < reranked[j].ChunkID
	})

	if topK > 0 && len(reranked) > topK {
		reranked = reranked[:topK]
	}
	return reranked
}

// rescaleFused linearly maps the fused scores onto [0,1]. When every
// candidate carries the same fused score the component is saturated at 1
// so it cannot arbitrarily split ties.
func rescaleFused(candidates []*schema.FusedHit) []float64 {
	min, max := candidates[0].FusedScore, candidates[0].FusedScore
	for _, c := range candidates[1:] {
		if c.FusedScore < min {
			min = c.FusedScore
		}
		if c.FusedScore > max {
			max = c.FusedScore
		}
	}
	scores := make([]float64, len(candidates))
	if max == min {
		for i := range scores {
			scores[i] = 1.0
		}
		return scores
	}
	for i, c := range candidates {
		scores[i] = (c.FusedScore - min) / (max - min)
	}
	return scores
}

func (r *WeightedReranker) neutralVector(n int) []float64 {
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = neutralScore
	}
	return scores
}

// crossEncoderScores fills dst with clamped cross-encoder scores for all
// candidates in one batched call, leaving the neutral constant in place
// when the model is unavailable or errors.
func (r *WeightedReranker) crossEncoderScores(ctx context.Context, query string, candidates []*schema.FusedHit, dst []float64) {
	if r.crossEncoder == nil {
		return
	}
	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Content
	}
	scores, err := r.crossEncoder.Score(ctx, query, passages)
	if err != nil {
		if r.log != nil {
			r.log.Warn(fmt.Sprintf("Cross-encoder scoring failed, using neutral scores: %v", err))
		}
		return
	}
	for i := range dst {
		if i < len(scores) {
			dst[i] = clamp01(float64(scores[i]))
		}
	}
}

// llmScores fills dst with LLM relevance scores from a single batched
// prompt. The signal is skipped entirely for more than llmLimit
// candidates, and any line that fails to parse keeps the neutral default.
func (r *WeightedReranker) llmScores(ctx context.Context, query string, candidates []*schema.FusedHit, dst []float64) {
	if r.relevanceLLM == nil || len(candidates) > r.llmLimit {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Rate the relevance of each document to the query on a scale of 0 to 10.\n")
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	for i, c := range candidates {
		fmt.Fprintf(&sb, "Document %d:\n%s\n\n", i+1, truncateRunes(c.Content, 1000))
	}
	fmt.Fprintf(&sb, "Respond with one line per document, exactly in the form \"Document N: <score>\".")

	answer, err := r.relevanceLLM.Generate(ctx, sb.String())
	if err != nil {
		if r.log != nil {
			r.log.Warn(fmt.Sprintf("LLM relevance scoring failed, using neutral scores: %v", err))
		}
		return
	}

	parsed := make(map[int]float64)
	for _, match := range llmScoreLine.FindAllStringSubmatch(answer, -1) {
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			continue
		}
		parsed[index] = score
	}

	for i := range dst {
		score, ok := parsed[i+1]
		if !ok {
			score = 5 // neutral midpoint of the 0-10 scale
		}
		dst[i] = clamp01(score / 10)
	}
}

// metadataScore computes the heuristic component: a 0.5 base plus capped
// additive boosts for recency, preferred source type, preferred
// collection, verification status and the presence of a summary. Missing
// or malformed metadata keys simply earn no boost.
func (r *WeightedReranker) metadataScore(candidate *schema.FusedHit, opts Options, now time.Time) float64 {
	score := neutralScore
	md := candidate.Metadata

	if created, ok := metadataTime(md, schema.MetadataKeyCreatedAt); ok {
		score += recencyBoost(created, now)
	} else if indexed, ok := metadataTime(md, schema.MetadataKeyIndexedAt); ok {
		score += recencyBoost(indexed, now)
	}

	if sourceType, ok := md[schema.MetadataKeySourceType].(string); ok && containsFold(opts.PreferredSourceTypes, sourceType) {
		score += 0.3
	}
	if containsFold(opts.PreferredCollections, candidate.Collection) {
		score += 0.2
	}
	if metadataBool(md, schema.MetadataKeyIsVerified) {
		score += 0.2
	}
	if summary, ok := md[schema.MetadataKeySummary].(string); ok && summary != "" {
		score += 0.1
	}

	return clamp01(score)
}

// recencyBoost grants up to 0.2, decaying linearly to zero over a year.
func recencyBoost(t, now time.Time) float64 {
	age := now.Sub(t)
	if age < 0 {
		age = 0
	}
	days := age.Hours() / 24
	if days >= recencyWindowDays {
		return 0
	}
	return 0.2 * (1 - days/recencyWindowDays)
}

// metadataTime reads a timestamp key defensively: time.Time values and
// RFC3339 or date-only strings are accepted, anything else is ignored.
func metadataTime(md map[string]interface{}, key string) (time.Time, bool) {
	switch v := md[key].(type) {
	case time.Time:
		return v, true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func metadataBool(md map[string]interface{}, key string) bool {
	switch v := md[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
