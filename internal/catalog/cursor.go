package catalog

// Cursor tracks pagination for one view. It is plain data; the view's loading
// flag decides whether Advance is allowed.
type Cursor struct {
	Page          int // Last requested page; 0 before the first fetch
	PageSize      int
	ReportedTotal int  // Total reported by the latest successful response
	TotalKnown    bool // False until the first successful response
	LoadedCount   int  // Always equals the size of the view's collection
}

// NewCursor returns a cursor at page 0
func NewCursor(pageSize int) Cursor {
	return Cursor{PageSize: pageSize}
}

// Advance moves to the next page and returns it
func (c *Cursor) Advance() int {
	c.Page++
	return c.Page
}

// Rollback undoes the last Advance so a retry re-requests the same page
func (c *Cursor) Rollback() {
	if c.Page > 0 {
		c.Page--
	}
}

// Reset starts a new session from page 0 with nothing loaded
func (c *Cursor) Reset() {
	c.Page = 0
	c.LoadedCount = 0
	c.ReportedTotal = 0
	c.TotalKnown = false
}

// Record stores the outcome of a successful fetch. The total never drops
// below the loaded count.
func (c *Cursor) Record(total, loaded int) {
	if total < loaded {
		total = loaded
	}
	c.LoadedCount = loaded
	c.ReportedTotal = total
	c.TotalKnown = true
}

// Exhausted reports whether every item the server announced is loaded
func (c Cursor) Exhausted() bool {
	return c.TotalKnown && c.LoadedCount >= c.ReportedTotal
}
