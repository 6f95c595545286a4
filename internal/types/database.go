package types

// MySQLFilter selects rows by AND-ed column conditions. OrderBy must name a
// known column; Desc reverses its order.
type MySQLFilter struct {
	Query   []MySQLQuery `json:"query"`
	OrderBy string       `json:"order_by,omitempty"`
	Desc    bool         `json:"desc,omitempty"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

type MySQLQuery struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Query  string `json:"query"`
}
