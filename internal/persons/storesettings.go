package persons

type StoreSettings struct {
	URI        string            `json:"uri,omitempty" env:"URI"`
	Database   string            `json:"database,omitempty" env:"DATABASE"`
	Collection string            `json:"collection,omitempty" env:"COLLECTION"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

func (s StoreSettings) CollectionName() string {
	if s.Collection != "" {
		return s.Collection
	}
	return "person"
}
