package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"decaprep/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

type ClusterRule struct {
	Cluster  models.Cluster `yaml:"cluster"`
	Keywords []string       `yaml:"keywords"`
}

type TagRule struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// Rules is the keyword taxonomy for cluster inference and topic tagging.
type Rules struct {
	Clusters       []ClusterRule                `yaml:"clusters"`
	DefaultCluster models.Cluster               `yaml:"default_cluster"`
	DefaultTag     string                       `yaml:"default_tag"`
	Tags           map[models.Cluster][]TagRule `yaml:"tags"`
	Generic        []TagRule                    `yaml:"generic"`
}

// Default returns the embedded taxonomy.
func Default() *Rules {
	r, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy: %v", err))
	}
	return r
}

// Load reads a taxonomy file. An empty path yields the embedded rules.
func Load(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if r.DefaultCluster == "" {
		r.DefaultCluster = models.ClusterMarketing
	}
	if !r.DefaultCluster.Valid() {
		return nil, fmt.Errorf("parse taxonomy: unknown default cluster %q", r.DefaultCluster)
	}
	if r.DefaultTag == "" {
		r.DefaultTag = "Business Management"
	}
	for _, c := range r.Clusters {
		if !c.Cluster.Valid() {
			return nil, fmt.Errorf("parse taxonomy: unknown cluster %q", c.Cluster)
		}
	}
	return &r, nil
}

// InferCluster maps a source filename to a cluster by keyword. Matching is
// case-insensitive on the whole filename; rules are tried in file order.
func (r *Rules) InferCluster(filename string) models.Cluster {
	name := strings.ToLower(filename)
	for _, c := range r.Clusters {
		if containsAny(name, c.Keywords) {
			return c.Cluster
		}
	}
	return r.DefaultCluster
}

// Tag returns the performance indicators for a question. The result is never
// empty.
func (r *Rules) Tag(cluster models.Cluster, questionText string) []string {
	text := strings.ToLower(questionText)
	tags := applyRules(nil, text, r.Tags[cluster])
	if len(tags) == 0 {
		tags = applyRules(tags, text, r.Generic)
	}
	if len(tags) == 0 {
		tags = append(tags, r.DefaultTag)
	}
	return tags
}

func applyRules(tags []string, text string, rules []TagRule) []string {
	for _, rule := range rules {
		if containsAny(text, rule.Keywords) && !contains(tags, rule.Tag) {
			tags = append(tags, rule.Tag)
		}
	}
	return tags
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
