package table

// Filter selects documents by field. How its values are used depends on the
// MatchMode it is evaluated with.
type Filter map[string]any

// MatchMode selects how a Filter is applied to a document.
type MatchMode int

const (
	// MatchEqual: every filter field is present in the document with an
	// equal value. An empty filter matches every document. Used by Get.
	MatchEqual MatchMode = iota
	// MatchAllTruthy: every filter field is present in the document with a
	// truthy value. Filter values are not compared. An empty filter matches
	// nothing. Used by Update.
	MatchAllTruthy
	// MatchAnyTruthy: at least one filter field is present in the document
	// with a truthy value. Filter values are not compared. An empty filter
	// matches nothing. Used by Delete.
	MatchAnyTruthy
)

func (m MatchMode) String() string {
	switch m {
	case MatchEqual:
		return "equal"
	case MatchAllTruthy:
		return "all-truthy"
	case MatchAnyTruthy:
		return "any-truthy"
	}
	return "unknown"
}

// Predicate is a Filter tagged with the strategy used to evaluate it.
type Predicate struct {
	Filter Filter
	Mode   MatchMode
}

func Equals(f Filter) Predicate    { return Predicate{Filter: f, Mode: MatchEqual} }
func AllTruthy(f Filter) Predicate { return Predicate{Filter: f, Mode: MatchAllTruthy} }
func AnyTruthy(f Filter) Predicate { return Predicate{Filter: f, Mode: MatchAnyTruthy} }

// Match reports whether doc satisfies the predicate.
func (p Predicate) Match(doc Document) bool {
	switch p.Mode {
	case MatchEqual:
		for k, want := range p.Filter {
			got, ok := doc[k]
			if !ok || !Equal(got, want) {
				return false
			}
		}
		return true
	case MatchAllTruthy:
		if len(p.Filter) == 0 {
			return false
		}
		for k := range p.Filter {
			if !Truthy(doc[k]) {
				return false
			}
		}
		return true
	case MatchAnyTruthy:
		for k := range p.Filter {
			if Truthy(doc[k]) {
				return true
			}
		}
		return false
	}
	return false
}

// Select returns the documents matching p, in order.
func (p Predicate) Select(docs []Document) []Document {
	result := []Document{}
	for _, d := range docs {
		if p.Match(d) {
			result = append(result, d)
		}
	}
	return result
}
