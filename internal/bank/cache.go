package bank

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"decaprep/internal/models"
)

type sourceOrdinal struct {
	source  string
	ordinal int
}

// Cache holds the question bank and explanation set in memory. Files are
// read on first use and again only on Reload.
type Cache struct {
	dir string

	mu           sync.RWMutex
	loaded       bool
	loadedAt     time.Time
	questions    []models.QuestionRecord
	byID         map[string]int
	explanations []models.ExplanationRecord
	bySource     map[sourceOrdinal][]int
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Reload rereads both files. On error the previous contents stay in place.
func (c *Cache) Reload() error {
	q, err := LoadQuestions(QuestionsPath(c.dir))
	if err != nil {
		return err
	}
	e, err := LoadExplanations(ExplanationsPath(c.dir))
	if err != nil {
		return err
	}

	byID := make(map[string]int, len(q.Questions))
	for i, r := range q.Questions {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = i
		}
	}
	bySource := make(map[sourceOrdinal][]int)
	for i, r := range e.Explanations {
		k := sourceOrdinal{source: r.Source, ordinal: r.QuestionNumber}
		bySource[k] = append(bySource[k], i)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions = q.Questions
	c.byID = byID
	c.explanations = e.Explanations
	c.bySource = bySource
	c.loaded = true
	c.loadedAt = time.Now().UTC()
	return nil
}

func (c *Cache) ensure() error {
	c.mu.RLock()
	ok := c.loaded
	c.mu.RUnlock()
	if ok {
		return nil
	}
	if err := c.Reload(); err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	return nil
}

type Stats struct {
	Questions    int       `json:"questions"`
	Explanations int       `json:"explanations"`
	LoadedAt     time.Time `json:"loaded_at"`
}

func (c *Cache) Stats() (Stats, error) {
	if err := c.ensure(); err != nil {
		return Stats{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Questions: len(c.questions), Explanations: len(c.explanations), LoadedAt: c.loadedAt}, nil
}

func (c *Cache) Question(id string) (models.QuestionRecord, bool, error) {
	if err := c.ensure(); err != nil {
		return models.QuestionRecord{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return models.QuestionRecord{}, false, nil
	}
	return c.questions[i], true, nil
}

// SelectUnseen returns up to limit questions whose IDs are not in seen, in
// bank order, optionally limited to one cluster. limit <= 0 means no limit.
// It is a plain linear filter; two callers sharing a seen set can be served
// the same question.
func (c *Cache) SelectUnseen(cluster models.Cluster, seen map[string]struct{}, limit int) ([]models.QuestionRecord, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []models.QuestionRecord{}
	for _, q := range c.questions {
		if cluster != "" && q.Cluster != cluster {
			continue
		}
		if _, ok := seen[q.ID]; ok {
			continue
		}
		out = append(out, q)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ExplanationsFor joins explanations to a question by source file and
// printed ordinal.
func (c *Cache) ExplanationsFor(q models.QuestionRecord) ([]models.ExplanationRecord, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.bySource[sourceOrdinal{source: q.Source, ordinal: q.QuestionNumber}]
	out := make([]models.ExplanationRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.explanations[i])
	}
	return out, nil
}

// SearchExplanations matches query case-insensitively against explanation
// text. An empty query matches nothing.
func (c *Cache) SearchExplanations(query string, limit int) ([]models.ExplanationRecord, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	out := []models.ExplanationRecord{}
	if needle == "" {
		return out, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.explanations {
		if strings.Contains(strings.ToLower(e.Explanation), needle) {
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
