package queryeval

import "github.com/mithril-search/mithril/internal/queryparse"

// CollectTerms flattens every leaf term (word, phrase word, or quote word)
// appearing in node, in left-to-right order, for use by scoring (BM25,
// coverage, density) which needs the flat term list independent of the
// boolean tree shape.
func CollectTerms(node queryparse.Node) []string {
	var terms []string
	var walk func(n queryparse.Node)
	walk = func(n queryparse.Node) {
		switch v := n.(type) {
		case *queryparse.TermNode:
			switch v.Kind {
			case queryparse.AtomWord:
				terms = append(terms, v.Text)
			default:
				terms = append(terms, v.Words()...)
			}
		case *queryparse.AndNode:
			for _, c := range v.Children {
				walk(c)
			}
		case *queryparse.OrNode:
			for _, c := range v.Children {
				walk(c)
			}
		case *queryparse.NotNode:
			// Negated terms are not part of the positive query-match
			// features (coverage/density/presence), only of the boolean
			// filter, so they are intentionally excluded here.
		}
	}
	walk(node)
	return terms
}
