package authz

import "context"

// FilterDocuments returns the order-preserving subsequence of docs the user
// may perform action on. It loads the user's memberships once and applies
// the same decision predicate as CanAccessDocument per document, so the two
// paths cannot diverge in outcome.
func (r *Resolver) FilterDocuments(ctx context.Context, userID string, docs []*Document, action Action) ([]*Document, error) {
	memberships, err := r.memberships.LoadActiveMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	allowed := make([]*Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if decideDocumentAccess(doc, userID, memberships, action) {
			allowed = append(allowed, doc)
		}
	}
	return allowed, nil
}
