package ranking

import (
	"encoding/json"
	"fmt"
	"os"
)

// weightsDTO mirrors Weights for JSON loading, matching the teacher's
// configDTO pattern in internal/config: a private struct is built from the
// public, zero-friendly JSON shape and zero fields fall back to defaults.
type weightsDTO struct {
	QueryInTitle       float64 `json:"queryInTitle,omitempty"`
	QueryInURL         float64 `json:"queryInUrl,omitempty"`
	QueryInDescription float64 `json:"queryInDescription,omitempty"`
	QueryInBody        float64 `json:"queryInBody,omitempty"`

	CoverageTitle       float64 `json:"coverageTitle,omitempty"`
	CoverageURL         float64 `json:"coverageUrl,omitempty"`
	CoverageDescription float64 `json:"coverageDescription,omitempty"`

	OrderSensitiveTitle float64 `json:"orderSensitiveTitle,omitempty"`

	DensityTitle       float64 `json:"densityTitle,omitempty"`
	DensityURL         float64 `json:"densityUrl,omitempty"`
	DensityDescription float64 `json:"densityDescription,omitempty"`

	EarliestPosTitle float64 `json:"earliestPosTitle,omitempty"`
	EarliestPosBody  float64 `json:"earliestPosBody,omitempty"`

	BM25       float64 `json:"bm25,omitempty"`
	StaticRank float64 `json:"staticRank,omitempty"`
	PageRank   float64 `json:"pagerank,omitempty"`
}

// LoadWeights reads a RankerWeights config section from path, per spec §9's
// design note replacing the original's config singleton with a struct
// passed by reference. Fields absent from the file keep DefaultWeights's
// value.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("ranking: read weights config: %w", err)
	}
	var dto weightsDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return Weights{}, fmt.Errorf("ranking: parse weights config: %w", err)
	}

	w := DefaultWeights
	overlay := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	overlay(&w.QueryInTitle, dto.QueryInTitle)
	overlay(&w.QueryInURL, dto.QueryInURL)
	overlay(&w.QueryInDescription, dto.QueryInDescription)
	overlay(&w.QueryInBody, dto.QueryInBody)
	overlay(&w.CoverageTitle, dto.CoverageTitle)
	overlay(&w.CoverageURL, dto.CoverageURL)
	overlay(&w.CoverageDescription, dto.CoverageDescription)
	overlay(&w.OrderSensitiveTitle, dto.OrderSensitiveTitle)
	overlay(&w.DensityTitle, dto.DensityTitle)
	overlay(&w.DensityURL, dto.DensityURL)
	overlay(&w.DensityDescription, dto.DensityDescription)
	overlay(&w.EarliestPosTitle, dto.EarliestPosTitle)
	overlay(&w.EarliestPosBody, dto.EarliestPosBody)
	overlay(&w.BM25, dto.BM25)
	overlay(&w.StaticRank, dto.StaticRank)
	overlay(&w.PageRank, dto.PageRank)
	return w, nil
}
