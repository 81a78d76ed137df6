package store

// Session is the locally-held identity claim created by the login form.
// There is no credential behind it; Identity is synthesized at login time.
type Session struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Identity        string `json:"identity"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// CartLine is one catalog item plus a quantity, keyed by the item id.
type CartLine struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	CoverURL string  `json:"coverUrl"`
	Quantity int     `json:"quantity"`
}

// Toast is the single transient notification slot. It is never persisted.
type Toast struct {
	Message string `json:"message"`
	Visible bool   `json:"isVisible"`
}

// SnapshotVersion tags the persisted blob so a future shape change can be
// detected instead of silently mis-decoded.
const SnapshotVersion = 1

// Snapshot is the durable state: session and cart, toast excluded.
type Snapshot struct {
	Version int        `json:"version"`
	User    *Session   `json:"user"`
	Cart    []CartLine `json:"cart"`
}
