package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventRelated    EventType = "related"
	EventFeedback   EventType = "feedback"
	EventEvaluation EventType = "evaluation"
)

// Kafka message keys; the aggregator dispatches on them.
const (
	KeySearch     = "search"
	KeyEvaluation = "evaluation"
)

type SearchEvent struct {
	Type          EventType `json:"type"`
	Query         string    `json:"query"`
	Tokens        int       `json:"tokens"`
	Method        string    `json:"method"`
	Weighting     string    `json:"weighting"`
	K             int       `json:"k"`
	Returned      int       `json:"returned"`
	TopDocID      string    `json:"top_doc_id,omitempty"`
	TopScore      float64   `json:"top_score"`
	FeedbackTerms int       `json:"feedback_terms,omitempty"`
	CacheHit      bool      `json:"cache_hit"`
	LatencyMs     int64     `json:"latency_ms"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
}

// ZeroResult reports a search whose best hit shares no term with the query.
// Cosine scores that are all zero mean no overlap; ranked lists are never
// empty for a non-empty collection.
func (e SearchEvent) ZeroResult() bool {
	return e.Returned == 0 || (e.Method == "cosine" && e.TopScore == 0)
}

type EvaluationEvent struct {
	RunID     string    `json:"run_id"`
	K         int       `json:"k"`
	Queries   int       `json:"queries"`
	Failed    int       `json:"failed"`
	MRR       float64   `json:"mrr"`
	MAP       float64   `json:"map"`
	Recall    float64   `json:"recall"`
	Method    string    `json:"method"`
	Weighting string    `json:"weighting"`
	Feedback  string    `json:"feedback,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker receives events. Both the Kafka-backed Collector and the in-process
// Aggregator implement it.
type Tracker interface {
	TrackSearch(SearchEvent)
	TrackEvaluation(EvaluationEvent)
}

// Multi fans every event out to each tracker in order.
type Multi []Tracker

func (m Multi) TrackSearch(e SearchEvent) {
	for _, t := range m {
		t.TrackSearch(e)
	}
}

func (m Multi) TrackEvaluation(e EvaluationEvent) {
	for _, t := range m {
		t.TrackEvaluation(e)
	}
}

// Route sends search events and evaluation events to separate trackers, for
// example collectors publishing to different topics. A nil side drops its
// events.
type Route struct {
	Search     Tracker
	Evaluation Tracker
}

func (r Route) TrackSearch(e SearchEvent) {
	if r.Search != nil {
		r.Search.TrackSearch(e)
	}
}

func (r Route) TrackEvaluation(e EvaluationEvent) {
	if r.Evaluation != nil {
		r.Evaluation.TrackEvaluation(e)
	}
}
