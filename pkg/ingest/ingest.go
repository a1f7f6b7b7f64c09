// Package ingest turns the severity fields of one client report into
// queued log lines and classifies the result. It knows nothing about HTTP.
package ingest

import (
	"context"
	"strconv"
	"time"

	"github.com/predatorx7/logshipper/pkg/broker"
	"github.com/predatorx7/logshipper/pkg/model"
)

// MissingFieldsMessage is returned to callers that sent no recognized field.
const MissingFieldsMessage = "Missing one of ['debug', 'info', 'warning', 'error'] in POST data."

// Outcome classifies a processed report.
type Outcome int

const (
	// OutcomeBadRequest means no recognized severity field was present.
	OutcomeBadRequest Outcome = iota
	// OutcomePartial means at least one line could not be queued.
	OutcomePartial
	// OutcomeSuccess means every present field was queued.
	OutcomeSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomePartial:
		return "partial"
	case OutcomeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Result maps severity names to the queued byte count or the failure reason.
// A severity appears in at most one of the two maps.
type Result struct {
	Success map[string]string `json:"success"`
	Errors  map[string]string `json:"errors"`
}

func (r Result) Outcome() Outcome {
	switch {
	case len(r.Success) == 0 && len(r.Errors) == 0:
		return OutcomeBadRequest
	case len(r.Errors) > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

// Ingester formats report fields and hands them to the publisher.
// Success only means the line was accepted for writing.
type Ingester struct {
	Publisher broker.Publisher
	Now       func() time.Time
}

func NewIngester(p broker.Publisher) *Ingester {
	return &Ingester{
		Publisher: p,
		Now:       time.Now,
	}
}

// Ingest queues one line per recognized severity present in fields, in the
// fixed severity order. Missing and unrecognized fields are skipped.
func (i *Ingester) Ingest(ctx context.Context, fields map[string][]string) Result {
	res := Result{
		Success: make(map[string]string, len(model.Severities)),
		Errors:  make(map[string]string, len(model.Severities)),
	}

	for _, sev := range model.Severities {
		values, ok := fields[sev.String()]
		if !ok || len(values) == 0 {
			continue
		}

		line := model.Format(sev, values[0], i.Now())
		if err := i.Publisher.Publish(ctx, line); err != nil {
			res.Errors[sev.String()] = err.Error()
			continue
		}
		res.Success[sev.String()] = strconv.Itoa(line.Len())
	}

	return res
}
