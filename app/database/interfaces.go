package database

// KVStore is the persistent key-value contract consumed by the cart reducer
// and the API layer: get with default, set with acknowledgment, and change
// notification for observers.
type KVStore interface {
	Get(key, defaultValue string) (string, error)
	Set(key, value string) error
	Subscribe(fn func(key, value string))
}
