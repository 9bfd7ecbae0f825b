package types

import "time"

// Document is an ingested source record. Immutable once written: the id is
// a stable content hash so re-ingesting the same input is idempotent.
type Document struct {
	ID              string            `parquet:"id"`
	HumanReadableID int64             `parquet:"human_readable_id"`
	Title           string            `parquet:"title"`
	Type            string            `parquet:"type"`
	Text            string            `parquet:"text"`
	TextUnitIDs     []string          `parquet:"text_unit_ids"`
	Metadata        map[string]string `parquet:"metadata"`
}

// TextUnit is a bounded chunk of source text, the granular unit that graph
// extraction, embedding and search all key off of.
//
// Invariant: every TextUnit belongs to at least one Document, and
// n_tokens never exceeds the configured chunk size (spec §3).
type TextUnit struct {
	ID              string   `parquet:"id"`
	HumanReadableID int64    `parquet:"human_readable_id"`
	Text            string   `parquet:"text"`
	NTokens         int      `parquet:"n_tokens"`
	DocumentIDs     []string `parquet:"document_ids"`

	// Backfilled once graph extraction and summarization have run.
	EntityIDs       []string `parquet:"entity_ids,optional"`
	RelationshipIDs []string `parquet:"relationship_ids,optional"`
	CovariateIDs    []string `parquet:"covariate_ids,optional"`
}

// Entity is a node in the extracted entity-relationship graph.
//
// Invariant: Title is unique after Normalize(Title) == Title.
type Entity struct {
	ID              string   `parquet:"id"`
	HumanReadableID int64    `parquet:"human_readable_id"`
	Title           string   `parquet:"title"`
	Type            string   `parquet:"type"`
	Description     string   `parquet:"description"`
	TextUnitIDs     []string `parquet:"text_unit_ids"`
	Frequency       int      `parquet:"frequency"`
	Degree          int      `parquet:"degree"`
	X               *float64 `parquet:"x,optional"`
	Y               *float64 `parquet:"y,optional"`
}

// Relationship is an edge between two Entity titles.
//
// Invariant: (Source, Target) is unique after dedup and both endpoints
// resolve to an Entity.Title.
type Relationship struct {
	ID              string   `parquet:"id"`
	HumanReadableID int64    `parquet:"human_readable_id"`
	Source          string   `parquet:"source"`
	Target          string   `parquet:"target"`
	Description     string   `parquet:"description"`
	Weight          float64  `parquet:"weight"`
	CombinedDegree  int      `parquet:"combined_degree"`
	TextUnitIDs     []string `parquet:"text_unit_ids"`
}

// Covariate is an optional, entity-scoped claim extracted alongside the
// graph (e.g. a timestamped fact about a subject entity).
type Covariate struct {
	ID              string            `parquet:"id"`
	HumanReadableID int64             `parquet:"human_readable_id"`
	SubjectID       string            `parquet:"subject_id"`
	SubjectType     string            `parquet:"subject_type"`
	CovariateType   string            `parquet:"covariate_type"`
	TextUnitIDs     []string          `parquet:"text_unit_ids"`
	Attributes      map[string]string `parquet:"attributes"`
}

// Community is one node of the hierarchical Leiden decomposition of the
// entity graph.
//
// Invariant: the hierarchy is a forest; Parent == -1 iff Level == 0.
type Community struct {
	ID              string   `parquet:"id"`
	HumanReadableID int64    `parquet:"human_readable_id"`
	Community       int      `parquet:"community"`
	Level           int      `parquet:"level"`
	Parent          int      `parquet:"parent"`
	Children        []int    `parquet:"children"`
	Title           string   `parquet:"title"`
	EntityIDs       []string `parquet:"entity_ids"`
	RelationshipIDs []string `parquet:"relationship_ids"`
	TextUnitIDs     []string `parquet:"text_unit_ids"`
	Period          string   `parquet:"period"`
	Size            int      `parquet:"size"`
}

// Finding is one bullet of a CommunityReport.
type Finding struct {
	Summary     string `json:"summary"`
	Explanation string `json:"explanation"`
}

// CommunityReport is the LLM-generated summary of one Community.
type CommunityReport struct {
	ID                   string    `parquet:"id"`
	HumanReadableID      int64     `parquet:"human_readable_id"`
	Community            int       `parquet:"community"`
	Level                int       `parquet:"level"`
	Parent               int       `parquet:"parent"`
	Children             []int     `parquet:"children"`
	Title                string    `parquet:"title"`
	Summary              string    `parquet:"summary"`
	FullContent          string    `parquet:"full_content"`
	Rank                 float64   `parquet:"rank"`
	RatingExplanation    string    `parquet:"rating_explanation"`
	Findings             []Finding `parquet:"findings"`
	FullContentJSON      string    `parquet:"full_content_json"`
	Period               string    `parquet:"period"`
	Size                 int       `parquet:"size"`
	FullContentEmbedding []float32 `parquet:"full_content_embedding,optional"`
}

// Pagination is a paging cursor, stable across the data model.
type Pagination struct {
	Page     int
	PageSize int
}

// NowPeriod renders the current date in the ISO form stored in
// Community.Period / CommunityReport.Period.
func NowPeriod(t time.Time) string {
	return t.Format("2006-01-02")
}
