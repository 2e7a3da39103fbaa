package engine

import (
	"context"
	"regexp"
	"strings"
	"time"

	"leadagent_backend/platform/logger"
)

// StructuredExtractor asks a language model to pull the given missing
// fields out of a single utterance. Implementations must return only
// values literally supported by the utterance and may return an empty
// map. The engine treats any error as a degraded pass, not a failure.
type StructuredExtractor interface {
	Extract(ctx context.Context, utterance string, missing []FieldKey) (map[FieldKey]string, error)
}

// Extractor turns a raw user utterance into a field update. A cheap
// deterministic pattern pass always runs; the model-assisted pass only
// runs for fields the patterns did not fill, and only when a model is
// configured. On any conflict the deterministic value wins.
type Extractor struct {
	model   StructuredExtractor
	timeout time.Duration
	log     *logger.Logger
}

func NewExtractor(model StructuredExtractor, timeout time.Duration, log *logger.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Extractor{model: model, timeout: timeout, log: log}
}

// Extract produces the field update for one utterance given the current
// profile. It never returns an error: a failed or timed-out model pass
// is logged and the deterministic results stand on their own.
func (e *Extractor) Extract(ctx context.Context, utterance string, profile LeadProfile) map[FieldKey]string {
	update := deterministicPass(utterance)

	if e.model == nil {
		return update
	}
	missing := missingAfter(profile, update)
	if len(missing) == 0 {
		return update
	}

	mctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	modelUpdate, err := e.model.Extract(mctx, utterance, missing)
	if err != nil {
		if e.log != nil {
			e.log.CollaboratorDegraded("extractor", "extract", err)
		}
		return update
	}
	for k, v := range modelUpdate {
		v = strings.TrimSpace(v)
		if v == "" || !k.Valid() {
			continue
		}
		if _, taken := update[k]; taken {
			continue
		}
		update[k] = clampValue(v)
	}
	return update
}

// missingAfter lists the fields still unknown once both the profile and
// the deterministic update are taken into account.
func missingAfter(profile LeadProfile, update map[FieldKey]string) []FieldKey {
	var missing []FieldKey
	for _, k := range AllFields {
		if profile.Has(k) {
			continue
		}
		if _, ok := update[k]; ok {
			continue
		}
		missing = append(missing, k)
	}
	return missing
}

var (
	nameRe    = regexp.MustCompile(`\b(?:[Mm]y name is|I am|I'm|[Tt]his is)\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)?)`)
	companyRe = regexp.MustCompile(`\b(?:from|at|with|work(?:ing)? for)\s+([A-Z][A-Za-z0-9&.'-]*(?:\s+[A-Z][A-Za-z0-9&.'-]*)*)`)
	roleRe    = regexp.MustCompile(`(?i)\b(?:my (?:role|title|position) is|i work as an?|i am the|i'm the)\s+([a-zA-Z][a-zA-Z /&-]{2,60})`)

	// Amounts only count as a budget when they carry a currency marker or
	// the utterance talks about money at all; bare numbers stay ignored.
	amountRe      = regexp.MustCompile(`(?i)([$€£]\s?\d[\d,.]*\s*(?:k|m|thousand|million)?|\b\d[\d,.]*\s*(?:k|grand|thousand|million|usd|eur|dollars|euros)\b)`)
	budgetCueRe   = regexp.MustCompile(`(?i)\b(?:budget|spend|afford|invest|price range|cost)\b`)
	currencyMark  = regexp.MustCompile(`(?i)[$€£]|\b(?:usd|eur|dollars|euros)\b`)
	timelineRe    = regexp.MustCompile(`(?i)\b(?:within|in|by|over|before)\s+(?:the\s+)?(?:next\s+)?(\d+\s+(?:days?|weeks?|months?|quarters?|years?)|(?:a\s+)?(?:few|couple(?:\s+of)?)\s+(?:days?|weeks?|months?)|q[1-4](?:\s+\d{4})?|(?:this|next)\s+(?:week|month|quarter|year)|(?:the\s+)?end of (?:the\s+)?(?:week|month|quarter|year))`)
	asapRe        = regexp.MustCompile(`(?i)\basap\b|\bas soon as possible\b`)
	needRe        = regexp.MustCompile(`(?i)\b(?:we need|i need|we(?:'re| are) looking for|looking for|we want|we(?:'re| are) trying to)\s+([^,.!?]{3,100})`)
	painRe        = regexp.MustCompile(`(?i)\b(?:struggling with|problem with|issues? with|frustrated (?:by|with)|biggest challenge is|pain point is)\s+([^,.!?]{3,100})`)
	interestRe    = regexp.MustCompile(`(?i)\b(?:interested in|like to try|demo of|tell me more about)\s+(?:the\s+|a\s+|your\s+)?([^,.!?]{3,100})`)
	roleDelimiter = regexp.MustCompile(`(?i)\s+(?:at|of|for|in)\s.*$`)
)

// deterministicPass applies the fixed pattern rules. It is pure and
// cheap; anything it cannot match is left for the model pass.
func deterministicPass(utterance string) map[FieldKey]string {
	update := make(map[FieldKey]string)

	if m := nameRe.FindStringSubmatch(utterance); m != nil {
		update[FieldName] = clampValue(m[1])
	}
	if m := companyRe.FindStringSubmatch(utterance); m != nil {
		update[FieldCompany] = clampValue(m[1])
	}
	if m := roleRe.FindStringSubmatch(utterance); m != nil {
		role := roleDelimiter.ReplaceAllString(m[1], "")
		update[FieldRole] = clampValue(role)
	}
	if m := amountRe.FindStringSubmatch(utterance); m != nil {
		if currencyMark.MatchString(m[1]) || budgetCueRe.MatchString(utterance) {
			update[FieldBudget] = clampValue(m[1])
		}
	}
	if m := timelineRe.FindStringSubmatch(utterance); m != nil {
		update[FieldTimeline] = clampValue(m[1])
	} else if asapRe.MatchString(utterance) {
		update[FieldTimeline] = "asap"
	}
	if m := needRe.FindStringSubmatch(utterance); m != nil {
		update[FieldNeed] = clampValue(m[1])
	}
	if m := painRe.FindStringSubmatch(utterance); m != nil {
		update[FieldPainPoint] = clampValue(m[1])
	}
	if m := interestRe.FindStringSubmatch(utterance); m != nil {
		update[FieldProductInterest] = clampValue(m[1])
	}
	return update
}

const maxFieldValueLen = 120

func clampValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > maxFieldValueLen {
		v = strings.TrimSpace(v[:maxFieldValueLen])
	}
	return v
}
