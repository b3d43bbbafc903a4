package history

type Query struct {
	Type   string `form:"type"`
	Status string `form:"status"`
}
