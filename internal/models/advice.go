package models

// AdviceAnswer is the reply of the pet-care advice endpoint.
type AdviceAnswer struct {
	Answer string `json:"answer"`
	Cached bool   `json:"cached"`
}
