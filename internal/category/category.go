package category

import "github.com/brentspine/discord-ticketbot/internal/errs"

// Category is one entry of the fixed ticket-category set. Sensitive
// categories never get transcripts generated or linked anywhere.
type Category struct {
	ID        string
	Label     string
	Sensitive bool
}

// The deployment's category set is fixed; lookups go through ByID.
var categories = []Category{
	{ID: "general", Label: "General"},
	{ID: "report", Label: "Report"},
	{ID: "creator", Label: "Creator"},
	{ID: "bug", Label: "Bug"},
	{ID: "crash-report", Label: "Crash Report"},
	{ID: "payment", Label: "Payment", Sensitive: true},
	{ID: "security", Label: "Security", Sensitive: true},
}

var byID = func() map[string]Category {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}()

// ByID resolves a category id.
func ByID(id string) (Category, error) {
	c, ok := byID[id]
	if !ok {
		return Category{}, errs.ErrUnknownCategory
	}
	return c, nil
}

// All returns the category set in display order.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}
