package config

// ConfigBackend abstracts persistent config storage. The only
// implementation is the YAML file backend; tests use it with temp paths.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
