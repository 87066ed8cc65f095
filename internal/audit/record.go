// Package audit builds and persists the HMAC-signed audit trail for a
// sanitization run. Audit records contain the original PII and must be
// treated as sensitive.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/sdrasco/freedact/internal/plan"
	"github.com/sdrasco/freedact/internal/textspan"
	"github.com/sdrasco/freedact/internal/verify"
)

// EntryRecord is one replacement in the audit trail. Offsets are given
// both in normalized coordinates and, via the char map, in the original
// document.
type EntryRecord struct {
	Label       textspan.Label `json:"label"`
	Original    string         `json:"original"`
	Replacement string         `json:"replacement"`
	StartOrig   int            `json:"start_orig"`
	EndOrig     int            `json:"end_orig"`
	StartNorm   int            `json:"start_norm"`
	EndNorm     int            `json:"end_norm"`
	ClusterID   string         `json:"cluster_id,omitempty"`
	Confidence  float64        `json:"confidence"`
	Detector    string         `json:"detector"`
	Retries     int            `json:"retries"`
	Reason      []string       `json:"reason,omitempty"`
	Unsafe      bool           `json:"unsafe,omitempty"`
}

// Record is the full audit bundle for one run.
type Record struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	DocHash      string         `json:"doc_hash"`
	Entries      []EntryRecord  `json:"entries"`
	Warnings     []string       `json:"warnings,omitempty"`
	RetriesTotal int            `json:"retries_total"`
	UnsafeCount  int            `json:"unsafe_count"`
	Verification *verify.Report `json:"verification,omitempty"`
	Signature    string         `json:"signature,omitempty"`
}

// NewRecord assembles the audit bundle from the applied plan. charMap
// translates normalized offsets back to original document offsets; a nil
// map leaves both coordinate sets equal.
func NewRecord(rawText string, entries []plan.Entry, charMap []int, warnings []string, report *verify.Report) *Record {
	sum := sha256.Sum256([]byte(rawText))
	rec := &Record{
		ID:        "run_" + uuid.New().String()[:8],
		Timestamp: time.Now().UTC(),
		DocHash:   "sha256:" + hex.EncodeToString(sum[:]),
		Warnings:  warnings,
	}
	for _, e := range entries {
		startOrig, endOrig := e.Start, e.End
		if len(charMap) > 0 {
			startOrig, endOrig = origRange(charMap, e.Start, e.End, len(rawText))
		}
		rec.Entries = append(rec.Entries, EntryRecord{
			Label:       e.Label,
			Original:    e.Original,
			Replacement: e.Replacement,
			StartOrig:   startOrig,
			EndOrig:     endOrig,
			StartNorm:   e.Start,
			EndNorm:     e.End,
			ClusterID:   e.ClusterID,
			Confidence:  e.Confidence,
			Detector:    e.Source,
			Retries:     e.Retries,
			Reason:      e.Reasons,
			Unsafe:      e.Unsafe,
		})
		rec.RetriesTotal += e.Retries
		if e.Unsafe {
			rec.UnsafeCount++
		}
	}
	rec.Verification = report
	return rec
}

// origRange maps a normalized [start, end) to original offsets. The end
// maps through the last covered character so trailing dropped bytes do
// not inflate the range.
func origRange(charMap []int, start, end, rawLen int) (int, int) {
	so := rawLen
	if start < len(charMap) {
		so = charMap[start]
	}
	eo := rawLen
	if end-1 >= 0 && end-1 < len(charMap) {
		eo = charMap[end-1] + 1
	}
	if eo < so {
		eo = so
	}
	return so, eo
}
