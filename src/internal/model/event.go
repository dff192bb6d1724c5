package model

// Event is anything the messaging producers can publish; the id is used as
// the kafka message key.
type Event interface {
	GetId() string
}
