package models

import "time"

type Cluster string

const (
	ClusterMarketing              Cluster = "Marketing"
	ClusterFinance                Cluster = "Finance"
	ClusterEntrepreneurship       Cluster = "Entrepreneurship"
	ClusterHospitality            Cluster = "Hospitality"
	ClusterBusinessAdministration Cluster = "Business Administration"
	ClusterBusinessManagement     Cluster = "Business Management"
)

// Clusters lists every known cluster in display order.
var Clusters = []Cluster{
	ClusterMarketing,
	ClusterFinance,
	ClusterEntrepreneurship,
	ClusterHospitality,
	ClusterBusinessAdministration,
	ClusterBusinessManagement,
}

func (c Cluster) Valid() bool {
	for _, k := range Clusters {
		if k == c {
			return true
		}
	}
	return false
}

const DefaultDifficulty = "medium"

// Letters are the option keys every record carries, in order.
var Letters = []string{"A", "B", "C", "D"}

type QuestionBlock struct {
	Ordinal int
	Text    string
}

type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

func (o Options) Get(letter string) string {
	switch letter {
	case "A":
		return o.A
	case "B":
		return o.B
	case "C":
		return o.C
	case "D":
		return o.D
	default:
		return ""
	}
}

func (o Options) Complete() bool {
	return o.A != "" && o.B != "" && o.C != "" && o.D != ""
}

type QuestionRecord struct {
	ID                    string   `json:"id"`
	Cluster               Cluster  `json:"cluster"`
	Source                string   `json:"source"`
	QuestionNumber        int      `json:"question_number"`
	QuestionText          string   `json:"question_text"`
	Options               Options  `json:"options"`
	CorrectAnswer         string   `json:"correct_answer"`
	PerformanceIndicators []string `json:"performance_indicators"`
	DifficultyLevel       string   `json:"difficulty_level"`
}

const (
	ExplanationInline   = "inline"
	ExplanationDetailed = "detailed"
)

type ExplanationRecord struct {
	QuestionNumber int    `json:"question_number"`
	Explanation    string `json:"explanation"`
	Source         string `json:"source"`
	Type           string `json:"type"`
	Answer         string `json:"answer,omitempty"`
}

// Document is the persisted processing state of one source file.
type Document struct {
	DocID            string    `json:"doc_id"`
	Filename         string    `json:"filename"`
	Cluster          Cluster   `json:"cluster"`
	Status           string    `json:"status"`
	FailReason       string    `json:"fail_reason,omitempty"`
	QuestionCount    int       `json:"question_count"`
	ExplanationCount int       `json:"explanation_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

const (
	DocumentPending   = "pending"
	DocumentProcessed = "processed"
	DocumentFailed    = "failed"
)
