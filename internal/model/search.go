package model

// Metadata keys recognised on SearchRecord.RawMetadata.
const (
	MetaFullContent    = "full_content"
	MetaURL            = "url"
	MetaYearBuilt      = "year_built"
	MetaLastSalePrice  = "last_sale_price"
	MetaLastSaleDate   = "last_sale_date"
	MetaMedianPrice    = "median_price"
	MetaTrend          = "trend"
	MetaEstimatedValue = "estimated_value"
	MetaZoning         = "zoning"
	MetaPermits        = "permits"
)

// SearchRecord is one normalised research hit.
type SearchRecord struct {
	Title       string         `json:"title"`
	Snippet     string         `json:"snippet"`
	URL         string         `json:"url"`
	RawMetadata map[string]any `json:"raw_metadata"`
}

// Content returns the full content when the backend supplied it, else the
// snippet.
func (r SearchRecord) Content() string {
	if s, ok := r.RawMetadata[MetaFullContent].(string); ok && s != "" {
		return s
	}
	return r.Snippet
}
