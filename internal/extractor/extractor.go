// Package extractor turns the plain text of a DECA practice exam into
// question and explanation records.
package extractor

import (
	"log/slog"

	"decaprep/internal/models"
)

const looseItemSample = 10

// ClusterInferrer maps a source filename to its cluster.
type ClusterInferrer interface {
	InferCluster(filename string) models.Cluster
}

// Taxonomy is what the extractor needs from the keyword rules.
type Taxonomy interface {
	ClusterInferrer
	Tagger
}

type Options struct {
	AnswerJoin    AnswerJoin
	KeyPrecedence KeyPrecedence
}

// ParseOptions builds Options from their configuration names. Empty names
// select the defaults.
func ParseOptions(join, precedence string) (Options, error) {
	j, err := ParseAnswerJoin(join)
	if err != nil {
		return Options{}, err
	}
	p, err := ParseKeyPrecedence(precedence)
	if err != nil {
		return Options{}, err
	}
	return Options{AnswerJoin: j, KeyPrecedence: p}, nil
}

type Result struct {
	Cluster      models.Cluster
	Questions    []models.QuestionRecord
	Explanations []models.ExplanationRecord
	// Candidates is the number of question blocks found before the
	// completeness check; Dropped of those failed it.
	Candidates int
	Dropped    int
	KeyEntries int
}

// Extractor holds no per-document state; Extract is safe for concurrent use.
type Extractor struct {
	tax  Taxonomy
	opts Options
	log  *slog.Logger
}

func New(tax Taxonomy, opts Options, log *slog.Logger) *Extractor {
	if opts.AnswerJoin == "" {
		opts.AnswerJoin = JoinPosition
	}
	if opts.KeyPrecedence == "" {
		opts.KeyPrecedence = PrecedenceSequential
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{tax: tax, opts: opts, log: log}
}

// Extract runs the whole pipeline over one document's raw text.
func (e *Extractor) Extract(source, raw string) Result {
	text := Normalize(raw)
	cluster := e.tax.InferCluster(source)
	res := Result{Cluster: cluster}

	blocks := Segment(text)
	res.Candidates = len(blocks)
	if len(blocks) == 0 {
		e.log.Warn("no questions found",
			"source", source,
			"loose_items", LooseNumberedItems(text, looseItemSample),
		)
	}

	kept, dropped := Assemble(text, source, cluster, blocks, e.tax)
	for _, b := range dropped {
		e.log.Debug("dropping incomplete question", "source", source, "ordinal", b.Ordinal)
	}
	res.Dropped = len(dropped)

	key := ParseAnswerKey(text, e.opts.KeyPrecedence)
	res.KeyEntries = len(key)
	AssignAnswers(kept, key, e.opts.AnswerJoin)

	res.Questions = kept
	res.Explanations = ExtractExplanations(text, source)
	return res
}
