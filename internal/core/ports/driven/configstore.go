package driven

// ConfigStore is a tree of settings addressed by dotted keys such as
// "embedding.provider". Typed getters return the zero value when the key
// is missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores value and saves the whole tree.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is where the tree is persisted.
	Path() string
}
