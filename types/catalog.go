package types

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

type QuestionKind string

const (
	KindBinary          QuestionKind = "binary"
	KindTernary         QuestionKind = "ternary"
	KindTernaryOptional QuestionKind = "ternary_optional"
)

var questionKinds = map[QuestionID]QuestionKind{
	Q1:  KindBinary,
	Q2:  KindBinary,
	Q3:  KindBinary,
	Q4:  KindBinary,
	Q5:  KindBinary,
	Q6:  KindBinary,
	Q7:  KindTernary,
	Q8:  KindTernary,
	Q9:  KindTernaryOptional,
	Q10: KindBinary,
}

func KindOf(id QuestionID) (QuestionKind, bool) {
	kind, ok := questionKinds[id]
	return kind, ok
}

// Options returns the selectable values for the kind, in display order.
func (k QuestionKind) Options() []AnswerValue {
	if k == KindBinary {
		return []AnswerValue{AnswerYes, AnswerNo}
	}
	return []AnswerValue{AnswerYes, AnswerNo, AnswerPreferNotToAnswer}
}

func (k QuestionKind) Optional() bool {
	return k == KindTernaryOptional
}

func (k QuestionKind) Allows(v AnswerValue) bool {
	if v == AnswerNone {
		return k.Optional()
	}
	for _, option := range k.Options() {
		if option == v {
			return true
		}
	}
	return false
}

// RequiredQuestions are the questions that gate completeness, in step order.
var RequiredQuestions = func() []QuestionID {
	ids := make([]QuestionID, 0, QuestionCount-1)
	for _, id := range QuestionIDs {
		if !questionKinds[id].Optional() {
			ids = append(ids, id)
		}
	}
	return ids
}()

type Question struct {
	ID                  QuestionID   `yaml:"id" json:"id"`
	Step                int          `yaml:"step" json:"step"`
	Key                 string       `yaml:"key" json:"key"`
	Label               string       `yaml:"label" json:"label"`
	BenefitsNote        bool         `yaml:"benefits_note" json:"benefits_note,omitempty"`
	SensitiveNote       bool         `yaml:"sensitive_note" json:"sensitive_note,omitempty"`
	PrivacyInterstitial bool         `yaml:"privacy_interstitial" json:"privacy_interstitial,omitempty"`
	Milestone           string       `yaml:"milestone" json:"milestone,omitempty"`
	Kind                QuestionKind `yaml:"-" json:"kind"`
}

func (q Question) Optional() bool {
	return q.Kind.Optional()
}

// Descriptor is the human readable name used when the question is missing.
func (q Question) Descriptor() string {
	return fmt.Sprintf("Question %d (%s)", q.Step, q.Label)
}

// Catalog holds the presentation data of the ten questions. Question kinds are
// fixed and not configurable.
type Catalog struct {
	questions []Question
	byID      map[QuestionID]Question
}

type catalogFile struct {
	Questions []Question `yaml:"questions"`
}

//go:embed questions.yaml
var defaultCatalogYAML []byte

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		catalog, err := ParseCatalog(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Errorf("embedded question catalog: %w", err))
		}
		defaultCatalog = catalog
	})
	return defaultCatalog
}

// LoadCatalog reads a catalog override. An empty path yields the embedded
// catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(buf)
}

func ParseCatalog(buf []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return nil, err
	}
	if len(file.Questions) != QuestionCount {
		return nil, fmt.Errorf("catalog must define %d questions, got %d", QuestionCount, len(file.Questions))
	}
	catalog := Catalog{byID: make(map[QuestionID]Question, QuestionCount)}
	for _, q := range file.Questions {
		kind, ok := KindOf(q.ID)
		if !ok {
			return nil, fmt.Errorf("unknown question id %q", q.ID)
		}
		if _, dup := catalog.byID[q.ID]; dup {
			return nil, fmt.Errorf("question %q defined twice", q.ID)
		}
		if expected, _ := QuestionAt(q.Step); expected != q.ID {
			return nil, fmt.Errorf("question %q has step %d", q.ID, q.Step)
		}
		if q.Label == "" {
			return nil, fmt.Errorf("question %q has no label", q.ID)
		}
		q.Kind = kind
		catalog.byID[q.ID] = q
		catalog.questions = append(catalog.questions, q)
	}
	sort.Slice(catalog.questions, func(i, j int) bool {
		return catalog.questions[i].Step < catalog.questions[j].Step
	})
	return &catalog, nil
}

func (c *Catalog) Question(id QuestionID) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

func (c *Catalog) QuestionAt(step int) (Question, bool) {
	id, ok := QuestionAt(step)
	if !ok {
		return Question{}, false
	}
	return c.Question(id)
}

func (c *Catalog) Questions() []Question {
	questions := make([]Question, len(c.questions))
	copy(questions, c.questions)
	return questions
}
