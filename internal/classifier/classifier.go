// Package classifier detects sensitive-topic and source-request
// intents in raw question text via keyword matching. The rule set is a
// versioned YAML document so keyword updates do not require a rebuild;
// a default set is embedded in the binary.
package classifier

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

//go:embed rules.yaml
var defaultRules []byte

// RuleSet is the on-disk shape of the keyword lists.
type RuleSet struct {
	Version        int      `yaml:"version"`
	SensitiveTopic []string `yaml:"sensitive_topics"`
	SourceRequest  []string `yaml:"source_requests"`
}

// Classifier applies the rule set. Precedence is a documented
// contract: sensitive is checked strictly before source-request, so a
// question matching both classifies as sensitive.
type Classifier struct {
	version   int
	sensitive []string
	sources   []string
}

// New builds a classifier from a rule set. Empty keyword lists are a
// configuration error: a classifier that can never match silently
// disables the refusal policy.
func New(rules RuleSet) (*Classifier, error) {
	if len(rules.SensitiveTopic) == 0 || len(rules.SourceRequest) == 0 {
		return nil, fmt.Errorf("%w: classifier rule set has empty keyword lists", ports.ErrConfiguration)
	}
	return &Classifier{
		version:   rules.Version,
		sensitive: lowered(rules.SensitiveTopic),
		sources:   lowered(rules.SourceRequest),
	}, nil
}

// Default returns a classifier built from the embedded rule set.
func Default() (*Classifier, error) {
	return fromBytes(defaultRules)
}

// Load reads a rule set from path, falling back to the embedded rules
// when path is empty.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading classifier rules: %v", ports.ErrConfiguration, err)
	}
	return fromBytes(data)
}

func fromBytes(data []byte) (*Classifier, error) {
	var rules RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: parsing classifier rules: %v", ports.ErrConfiguration, err)
	}
	return New(rules)
}

// Version reports the rule set version, observability only.
func (c *Classifier) Version() int { return c.version }

// IsSensitiveTopic reports whether text contains any sensitive-topic
// term as a substring of its lower-cased form.
func (c *Classifier) IsSensitiveTopic(text string) bool {
	return matchAny(text, c.sensitive)
}

// IsSourceRequest reports whether text asks for sources, references,
// citations or document provenance.
func (c *Classifier) IsSourceRequest(text string) bool {
	return matchAny(text, c.sources)
}

// Classify runs both predicates in fixed precedence order. The
// source-request check is not evaluated when the sensitive check
// matches: safety refusal takes priority over confidentiality refusal.
func (c *Classifier) Classify(text string) entities.Classification {
	if c.IsSensitiveTopic(text) {
		return entities.ClassSensitive
	}
	if c.IsSourceRequest(text) {
		return entities.ClassSourceRequest
	}
	return entities.ClassNone
}

func matchAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func lowered(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = strings.ToLower(kw)
	}
	return out
}
