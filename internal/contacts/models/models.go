package models

// Contact is a stored reference to a payment account (internal or external)
// owned by a user. Contacts are append-only: they are never mutated after
// creation.
type Contact struct {
	Username   string `json:"username"`
	Label      string `json:"label"`
	AccountNum string `json:"account_num"`
	RoutingNum string `json:"routing_num"`
	IsExternal bool   `json:"is_external"`
}
