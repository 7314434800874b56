package media

import (
	"strings"

	"imagepick/internal/domain"
)

// ScopedIndexVersion is the first index version that applies the
// configuration's constraints itself, so fetches send no predicate
const ScopedIndexVersion = 2

// Platform reports the capabilities of the media index
type Platform interface {
	IsAtLeast(version int) bool
}

// Translator maps a configuration to a selection predicate
type Translator interface {
	Translate(cfg domain.Configuration) *domain.Predicate
}

// ConfigTranslator turns MIME and size constraints into an SQL clause over the
// images table
type ConfigTranslator struct{}

// Translate returns nil when the configuration imposes no constraint
func (ConfigTranslator) Translate(cfg domain.Configuration) *domain.Predicate {
	var (
		clauses []string
		args    []any
	)

	if len(cfg.MimeTypes) > 0 {
		marks := make([]string, len(cfg.MimeTypes))
		for i, mt := range cfg.MimeTypes {
			marks[i] = "?"
			args = append(args, strings.ToLower(mt))
		}
		clauses = append(clauses, "mime_type IN ("+strings.Join(marks, ", ")+")")
	}
	if cfg.MinSize > 0 {
		clauses = append(clauses, "size >= ?")
		args = append(args, cfg.MinSize)
	}
	if cfg.MaxSize > 0 {
		clauses = append(clauses, "size <= ?")
		args = append(args, cfg.MaxSize)
	}

	if len(clauses) == 0 {
		return nil
	}
	return &domain.Predicate{
		Clause: strings.Join(clauses, " AND "),
		Args:   args,
	}
}

// FilterStrategy decides which predicate, if any, accompanies a fetch
type FilterStrategy interface {
	Predicate(cfg domain.Configuration) *domain.Predicate
	Name() string
}

// SelectFilterStrategy picks the strategy once, from the index capabilities
func SelectFilterStrategy(platform Platform, translator Translator) FilterStrategy {
	if platform.IsAtLeast(ScopedIndexVersion) {
		return scopedStrategy{}
	}
	return clauseStrategy{translator: translator}
}

// scopedStrategy leaves the constraints to the index scope
type scopedStrategy struct{}

func (scopedStrategy) Predicate(domain.Configuration) *domain.Predicate { return nil }
func (scopedStrategy) Name() string                                     { return "scoped" }

// clauseStrategy narrows every query with a translated predicate
type clauseStrategy struct {
	translator Translator
}

func (s clauseStrategy) Predicate(cfg domain.Configuration) *domain.Predicate {
	return s.translator.Translate(cfg)
}

func (clauseStrategy) Name() string { return "clause" }
