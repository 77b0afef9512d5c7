// Package availability maps fetch outcomes onto website availability.
package availability

import (
	"fmt"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// Table maps each fetch class onto an availability status. The policy for
// separating "unreachable" from "unknown" is deliberately data, not code:
// deployments disagree on how to treat TLS failures and blocked requests,
// so every rule can be overridden from configuration.
type Table map[enrich.FetchClass]enrich.AvailabilityStatus

// DefaultTable returns the stock classification policy: a site that
// answered 2xx/3xx is reachable, persistent network failure or an error
// status is unreachable, and protocol ambiguity (TLS trouble, redirect
// loops) is unknown rather than dead.
func DefaultTable() Table {
	return Table{
		enrich.FetchSuccess:        enrich.AvailabilityReachable,
		enrich.FetchClientError:    enrich.AvailabilityUnreachable,
		enrich.FetchServerError:    enrich.AvailabilityUnreachable,
		enrich.FetchNetworkFailure: enrich.AvailabilityUnreachable,
		enrich.FetchTimeout:        enrich.AvailabilityUnreachable,
		enrich.FetchTLSFailure:     enrich.AvailabilityUnknown,
		enrich.FetchRedirectLoop:   enrich.AvailabilityUnknown,
	}
}

// Classifier implements enrich.Classifier over a Table.
type Classifier struct {
	table Table
}

// New builds a Classifier from the default table plus per-class overrides
// keyed by fetch class name.
func New(overrides map[string]string) (*Classifier, error) {
	table := DefaultTable()
	for class, status := range overrides {
		fc := enrich.FetchClass(class)
		if _, ok := table[fc]; !ok {
			return nil, fmt.Errorf("unknown fetch class %q in availability overrides", class)
		}
		st := enrich.AvailabilityStatus(status)
		switch st {
		case enrich.AvailabilityReachable, enrich.AvailabilityUnreachable, enrich.AvailabilityUnknown:
			table[fc] = st
		default:
			return nil, fmt.Errorf("unknown availability status %q for class %q", status, class)
		}
	}
	return &Classifier{table: table}, nil
}

// Classify returns the availability status for one fetch result.
func (c *Classifier) Classify(result enrich.FetchResult) enrich.AvailabilityStatus {
	if status, ok := c.table[result.Class]; ok {
		return status
	}
	return enrich.AvailabilityUnknown
}
